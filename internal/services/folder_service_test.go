package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvusmail/corvus/internal/bridge"
	"github.com/corvusmail/corvus/internal/models"
	"github.com/corvusmail/corvus/internal/query"
)

func newFolderFixture(t *testing.T) (*FolderServiceImpl, *bridge.Pipe, *query.Cache) {
	t.Helper()
	pipe := bridge.NewPipe()
	cache := query.NewCache(nil)
	return NewFolderService(bridge.New(pipe, nil), cache), pipe, cache
}

func TestFolderListSortsByTypeThenName(t *testing.T) {
	svc, pipe, _ := newFolderFixture(t)
	pipe.Handle("get_folders", func(raw json.RawMessage) (any, error) {
		var args struct {
			AccountID string `json:"account_id"`
		}
		require.NoError(t, json.Unmarshal(raw, &args))
		assert.Equal(t, "acct-1", args.AccountID)
		return []models.Folder{
			{ID: "f-3", Name: "Projects", Type: models.FolderCustom},
			{ID: "f-2", Name: "Sent", Type: models.FolderSent},
			{ID: "f-1", Name: "Inbox", Type: models.FolderInbox},
		}, nil
	})

	folders, err := svc.ListByAccount(context.Background(), "acct-1")
	require.NoError(t, err)
	require.Len(t, folders, 3)
	assert.Equal(t, "Inbox", folders[0].Name)
	assert.Equal(t, "Sent", folders[1].Name)
	assert.Equal(t, "Projects", folders[2].Name)
}

func TestFolderListsArePerAccount(t *testing.T) {
	svc, pipe, _ := newFolderFixture(t)
	pipe.Handle("get_folders", func(raw json.RawMessage) (any, error) {
		var args struct {
			AccountID string `json:"account_id"`
		}
		_ = json.Unmarshal(raw, &args)
		return []models.Folder{{ID: "f-" + args.AccountID, AccountID: args.AccountID, Name: "Inbox", Type: models.FolderInbox}}, nil
	})

	a, err := svc.ListByAccount(context.Background(), "acct-1")
	require.NoError(t, err)
	b, err := svc.ListByAccount(context.Background(), "acct-2")
	require.NoError(t, err)
	assert.NotEqual(t, a[0].ID, b[0].ID, "each account caches its own folder list")
}

func TestFolderCreateRollsBackOnFailure(t *testing.T) {
	svc, pipe, cache := newFolderFixture(t)
	pipe.Handle("get_folders", func(json.RawMessage) (any, error) {
		return []models.Folder{{ID: "f-1", Name: "Inbox", Type: models.FolderInbox}}, nil
	})
	pipe.Handle("create_folder", func(json.RawMessage) (any, error) {
		return nil, errors.New("quota exceeded")
	})

	_, err := svc.ListByAccount(context.Background(), "acct-1")
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), "acct-1", "", "Projects")
	require.Error(t, err)

	v, ok := cache.Peek(foldersKey("acct-1"))
	require.True(t, ok)
	require.Len(t, v.([]models.Folder), 1)
}

func TestFolderRenamePatchesList(t *testing.T) {
	svc, pipe, cache := newFolderFixture(t)
	pipe.Handle("get_folders", func(json.RawMessage) (any, error) {
		return []models.Folder{{ID: "f-1", AccountID: "acct-1", Name: "Old", Type: models.FolderCustom}}, nil
	})
	pipe.Handle("rename_folder", func(raw json.RawMessage) (any, error) {
		var args struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		}
		require.NoError(t, json.Unmarshal(raw, &args))
		return models.Folder{ID: args.ID, AccountID: "acct-1", Name: args.Name, Type: models.FolderCustom}, nil
	})

	_, err := svc.ListByAccount(context.Background(), "acct-1")
	require.NoError(t, err)

	renamed, err := svc.Rename(context.Background(), "f-1", "New")
	require.NoError(t, err)
	assert.Equal(t, "New", renamed.Name)

	v, _ := cache.Peek(foldersKey("acct-1"))
	assert.Equal(t, "New", v.([]models.Folder)[0].Name)
}

func TestFolderMovePatchesList(t *testing.T) {
	svc, pipe, cache := newFolderFixture(t)
	pipe.Handle("get_folders", func(json.RawMessage) (any, error) {
		return []models.Folder{
			{ID: "f-1", AccountID: "acct-1", Name: "Archive2024", Type: models.FolderCustom},
			{ID: "f-2", AccountID: "acct-1", Name: "Projects", Type: models.FolderCustom},
		}, nil
	})
	pipe.Handle("move_folder", func(raw json.RawMessage) (any, error) {
		var args struct {
			ID       string `json:"id"`
			ParentID string `json:"parent_id"`
		}
		require.NoError(t, json.Unmarshal(raw, &args))
		return models.Folder{ID: args.ID, AccountID: "acct-1", ParentID: args.ParentID, Name: "Archive2024", Type: models.FolderCustom}, nil
	})

	_, err := svc.ListByAccount(context.Background(), "acct-1")
	require.NoError(t, err)

	moved, err := svc.Move(context.Background(), "f-1", "f-2")
	require.NoError(t, err)
	assert.Equal(t, "f-2", moved.ParentID)

	v, _ := cache.Peek(foldersKey("acct-1"))
	assert.Equal(t, "f-2", v.([]models.Folder)[0].ParentID)
}

func TestFolderValidation(t *testing.T) {
	svc, _, _ := newFolderFixture(t)
	ctx := context.Background()

	_, err := svc.ListByAccount(ctx, " ")
	assert.Error(t, err)
	_, err = svc.Create(ctx, "acct-1", "", "  ")
	assert.Error(t, err)
	_, err = svc.Rename(ctx, "", "name")
	assert.Error(t, err)
	_, err = svc.Move(ctx, " ", "f-1")
	assert.Error(t, err)
	assert.Error(t, svc.Delete(ctx, ""))
}
