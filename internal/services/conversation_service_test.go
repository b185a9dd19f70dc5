package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvusmail/corvus/internal/bridge"
	"github.com/corvusmail/corvus/internal/models"
	"github.com/corvusmail/corvus/internal/query"
)

func newConversationFixture(t *testing.T) (*ConversationServiceImpl, *bridge.Pipe) {
	t.Helper()
	pipe := bridge.NewPipe()
	return NewConversationService(bridge.New(pipe, nil), query.NewCache(nil)), pipe
}

func TestConversationListByFolderSortsNewestFirst(t *testing.T) {
	svc, pipe := newConversationFixture(t)
	now := time.Now()
	pipe.Handle("get_conversations", func(json.RawMessage) (any, error) {
		return []models.Conversation{
			{ID: "t-old", LatestAt: now.Add(-time.Hour)},
			{ID: "t-new", LatestAt: now},
		}, nil
	})

	convs, err := svc.ListByFolder(context.Background(), "f-inbox")
	require.NoError(t, err)
	require.Len(t, convs, 2)
	assert.Equal(t, "t-new", convs[0].ID)
}

func TestConversationListBySwimlaneMergesAndDeduplicates(t *testing.T) {
	svc, pipe := newConversationFixture(t)
	now := time.Now()
	pipe.Handle("get_conversations", func(raw json.RawMessage) (any, error) {
		var args struct {
			FolderID string `json:"folder_id"`
			LabelID  string `json:"label_id"`
		}
		_ = json.Unmarshal(raw, &args)
		switch {
		case args.FolderID == "f-1":
			return []models.Conversation{
				{ID: "shared", LatestAt: now.Add(-time.Minute)},
				{ID: "folder-only", LatestAt: now},
			}, nil
		case args.LabelID == "l-1":
			return []models.Conversation{
				{ID: "shared", LatestAt: now.Add(-time.Minute)},
				{ID: "label-only", LatestAt: now.Add(-time.Hour)},
			}, nil
		}
		return []models.Conversation{}, nil
	})

	lane := models.Swimlane{ID: "s-1", FolderIDs: []string{"f-1"}, LabelIDs: []string{"l-1"}}
	convs, err := svc.ListBySwimlane(context.Background(), lane)
	require.NoError(t, err)
	require.Len(t, convs, 3, "the shared conversation must appear once")
	assert.Equal(t, "folder-only", convs[0].ID)
	assert.Equal(t, "shared", convs[1].ID)
	assert.Equal(t, "label-only", convs[2].ID)
}

func TestConversationGet(t *testing.T) {
	svc, pipe := newConversationFixture(t)
	pipe.Handle("get_conversation", func(raw json.RawMessage) (any, error) {
		var args struct {
			ID string `json:"id"`
		}
		require.NoError(t, json.Unmarshal(raw, &args))
		return models.Conversation{ID: args.ID, Subject: "thread"}, nil
	})

	conv, err := svc.Get(context.Background(), "t-1")
	require.NoError(t, err)
	assert.Equal(t, "thread", conv.Subject)
}

func TestConversationValidation(t *testing.T) {
	svc, _ := newConversationFixture(t)
	ctx := context.Background()

	_, err := svc.ListByFolder(ctx, "")
	assert.Error(t, err)
	_, err = svc.ListByLabel(ctx, " ")
	assert.Error(t, err)
	_, err = svc.Get(ctx, "")
	assert.Error(t, err)
}
