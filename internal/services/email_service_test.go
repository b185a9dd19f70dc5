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

func newEmailFixture(t *testing.T, email models.Email) (*EmailServiceImpl, *bridge.Pipe, *query.Cache) {
	t.Helper()
	pipe := bridge.NewPipe()
	pipe.Handle("get_email", func(json.RawMessage) (any, error) { return email, nil })
	cache := query.NewCache(nil)
	return NewEmailService(bridge.New(pipe, nil), cache), pipe, cache
}

func TestEmailMarkReadPatchesCachedRecord(t *testing.T) {
	svc, pipe, _ := newEmailFixture(t, models.Email{ID: "e-1", Subject: "hi", Read: false})
	pipe.Handle("mark_email_read", func(json.RawMessage) (any, error) { return nil, nil })

	_, err := svc.Get(context.Background(), "e-1")
	require.NoError(t, err)
	require.NoError(t, svc.MarkRead(context.Background(), "e-1"))

	email, err := svc.Get(context.Background(), "e-1")
	require.NoError(t, err)
	assert.True(t, email.Read)
}

func TestEmailMarkReadRollsBackOnFailure(t *testing.T) {
	svc, pipe, _ := newEmailFixture(t, models.Email{ID: "e-1", Read: false})
	pipe.Handle("mark_email_read", func(json.RawMessage) (any, error) {
		return nil, errors.New("backend down")
	})

	_, err := svc.Get(context.Background(), "e-1")
	require.NoError(t, err)
	require.Error(t, svc.MarkRead(context.Background(), "e-1"))

	email, err := svc.Get(context.Background(), "e-1")
	require.NoError(t, err)
	assert.False(t, email.Read, "failed mutation must restore the pre-mutation state")
}

func TestEmailApplyLabelIsDuplicateSafe(t *testing.T) {
	svc, pipe, _ := newEmailFixture(t, models.Email{ID: "e-1", LabelIDs: []string{"l-1"}})
	pipe.Handle("apply_label", func(json.RawMessage) (any, error) { return nil, nil })

	_, err := svc.Get(context.Background(), "e-1")
	require.NoError(t, err)

	require.NoError(t, svc.ApplyLabel(context.Background(), "e-1", "l-2"))
	require.NoError(t, svc.ApplyLabel(context.Background(), "e-1", "l-2"))

	email, err := svc.Get(context.Background(), "e-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"l-1", "l-2"}, email.LabelIDs)
}

func TestEmailRemoveLabel(t *testing.T) {
	svc, pipe, _ := newEmailFixture(t, models.Email{ID: "e-1", LabelIDs: []string{"l-1", "l-2"}})
	pipe.Handle("remove_label", func(json.RawMessage) (any, error) { return nil, nil })

	_, err := svc.Get(context.Background(), "e-1")
	require.NoError(t, err)
	require.NoError(t, svc.RemoveLabel(context.Background(), "e-1", "l-1"))

	email, err := svc.Get(context.Background(), "e-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"l-2"}, email.LabelIDs)
}

func TestEmailMoveUpdatesFolder(t *testing.T) {
	svc, pipe, _ := newEmailFixture(t, models.Email{ID: "e-1", FolderID: "f-inbox"})
	var gotFolder string
	pipe.Handle("move_email", func(raw json.RawMessage) (any, error) {
		var args struct {
			FolderID string `json:"folder_id"`
		}
		require.NoError(t, json.Unmarshal(raw, &args))
		gotFolder = args.FolderID
		return nil, nil
	})

	_, err := svc.Get(context.Background(), "e-1")
	require.NoError(t, err)
	require.NoError(t, svc.Move(context.Background(), "e-1", "f-archive"))
	assert.Equal(t, "f-archive", gotFolder)

	email, err := svc.Get(context.Background(), "e-1")
	require.NoError(t, err)
	assert.Equal(t, "f-archive", email.FolderID)
}

func TestEmailDeleteInvalidatesRecord(t *testing.T) {
	svc, pipe, cache := newEmailFixture(t, models.Email{ID: "e-1"})
	pipe.Handle("delete_email", func(json.RawMessage) (any, error) { return nil, nil })

	_, err := svc.Get(context.Background(), "e-1")
	require.NoError(t, err)
	require.NoError(t, svc.Delete(context.Background(), "e-1"))

	// The next Get must go back to the backend.
	calls := 0
	_, err = cache.Get(context.Background(), emailKey("e-1"), func(context.Context) (any, error) {
		calls++
		return models.Email{}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestEmailValidation(t *testing.T) {
	svc, _, _ := newEmailFixture(t, models.Email{})
	ctx := context.Background()

	_, err := svc.Get(ctx, " ")
	assert.Error(t, err)
	assert.Error(t, svc.MarkRead(ctx, ""))
	assert.Error(t, svc.Move(ctx, "e-1", ""))
	assert.Error(t, svc.ApplyLabel(ctx, "", "l-1"))
	assert.Error(t, svc.RemoveLabel(ctx, "e-1", ""))
	assert.Error(t, svc.Delete(ctx, ""))
}
