package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/corvusmail/corvus/internal/bridge"
	"github.com/corvusmail/corvus/internal/models"
	"github.com/corvusmail/corvus/internal/query"
)

// ConversationServiceImpl implements ConversationService
type ConversationServiceImpl struct {
	bridge *bridge.Bridge
	cache  *query.Cache
}

// NewConversationService creates a new conversation service
func NewConversationService(b *bridge.Bridge, cache *query.Cache) *ConversationServiceImpl {
	return &ConversationServiceImpl{bridge: b, cache: cache}
}

func (s *ConversationServiceImpl) list(ctx context.Context, filter map[string]any) ([]models.Conversation, error) {
	key := query.Key("conversations", filter)
	v, err := s.cache.Get(ctx, key, func(ctx context.Context) (any, error) {
		var convs []models.Conversation
		if err := s.bridge.Call(ctx, "get_conversations", filter, &convs); err != nil {
			return nil, fmt.Errorf("failed to list conversations: %w", err)
		}
		models.SortConversations(convs)
		return convs, nil
	})
	if err != nil {
		return nil, err
	}
	convs, _ := v.([]models.Conversation)
	return convs, nil
}

func (s *ConversationServiceImpl) ListByFolder(ctx context.Context, folderID string) ([]models.Conversation, error) {
	if strings.TrimSpace(folderID) == "" {
		return nil, fmt.Errorf("folder ID cannot be empty")
	}
	return s.list(ctx, map[string]any{"folder_id": folderID})
}

func (s *ConversationServiceImpl) ListByLabel(ctx context.Context, labelID string) ([]models.Conversation, error) {
	if strings.TrimSpace(labelID) == "" {
		return nil, fmt.Errorf("label ID cannot be empty")
	}
	return s.list(ctx, map[string]any{"label_id": labelID})
}

// ListBySwimlane merges the conversations of every folder and label the lane
// references, deduplicated by conversation ID, newest first.
func (s *ConversationServiceImpl) ListBySwimlane(ctx context.Context, lane models.Swimlane) ([]models.Conversation, error) {
	seen := map[string]bool{}
	var merged []models.Conversation
	for _, folderID := range lane.FolderIDs {
		convs, err := s.ListByFolder(ctx, folderID)
		if err != nil {
			return nil, err
		}
		for _, c := range convs {
			if !seen[c.ID] {
				seen[c.ID] = true
				merged = append(merged, c)
			}
		}
	}
	for _, labelID := range lane.LabelIDs {
		convs, err := s.ListByLabel(ctx, labelID)
		if err != nil {
			return nil, err
		}
		for _, c := range convs {
			if !seen[c.ID] {
				seen[c.ID] = true
				merged = append(merged, c)
			}
		}
	}
	models.SortConversations(merged)
	return merged, nil
}

func (s *ConversationServiceImpl) Get(ctx context.Context, id string) (*models.Conversation, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("conversation ID cannot be empty")
	}
	key := query.Key("conversations", map[string]any{"id": id})
	v, err := s.cache.Get(ctx, key, func(ctx context.Context) (any, error) {
		var conv models.Conversation
		if err := s.bridge.Call(ctx, "get_conversation", map[string]any{"id": id}, &conv); err != nil {
			return nil, fmt.Errorf("failed to get conversation %s: %w", id, err)
		}
		return conv, nil
	})
	if err != nil {
		return nil, err
	}
	conv, _ := v.(models.Conversation)
	return &conv, nil
}
