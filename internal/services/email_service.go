package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/corvusmail/corvus/internal/bridge"
	"github.com/corvusmail/corvus/internal/models"
	"github.com/corvusmail/corvus/internal/query"
)

func emailKey(id string) string {
	return query.Key("emails", map[string]any{"id": id})
}

// EmailServiceImpl implements EmailService
type EmailServiceImpl struct {
	bridge *bridge.Bridge
	cache  *query.Cache
}

// NewEmailService creates a new email service
func NewEmailService(b *bridge.Bridge, cache *query.Cache) *EmailServiceImpl {
	return &EmailServiceImpl{bridge: b, cache: cache}
}

func (s *EmailServiceImpl) Get(ctx context.Context, id string) (*models.Email, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("email ID cannot be empty")
	}
	v, err := s.cache.Get(ctx, emailKey(id), func(ctx context.Context) (any, error) {
		var email models.Email
		if err := s.bridge.Call(ctx, "get_email", map[string]any{"id": id}, &email); err != nil {
			return nil, fmt.Errorf("failed to get email %s: %w", id, err)
		}
		return email, nil
	})
	if err != nil {
		return nil, err
	}
	email, _ := v.(models.Email)
	return &email, nil
}

// patchEmail applies fn to the cached single-email record, if present. List
// caches are refreshed by the email:updated invalidation event rather than
// patched piecemeal.
func (s *EmailServiceImpl) patchEmail(id string, fn func(models.Email) models.Email) {
	s.cache.Patch(emailKey(id), func(current any) any {
		email, ok := current.(models.Email)
		if !ok {
			return current
		}
		return fn(email)
	})
}

func (s *EmailServiceImpl) setRead(ctx context.Context, emailID string, read bool) error {
	if strings.TrimSpace(emailID) == "" {
		return fmt.Errorf("email ID cannot be empty")
	}
	command := "mark_email_unread"
	if read {
		command = "mark_email_read"
	}

	key := emailKey(emailID)
	tx := s.cache.Begin(key)
	s.patchEmail(emailID, func(e models.Email) models.Email {
		e.Read = read
		return e
	})

	if err := s.bridge.Call(ctx, command, map[string]any{"id": emailID}, nil); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to update read state: %w", err)
	}
	tx.Commit()
	return nil
}

func (s *EmailServiceImpl) MarkRead(ctx context.Context, emailID string) error {
	return s.setRead(ctx, emailID, true)
}

func (s *EmailServiceImpl) MarkUnread(ctx context.Context, emailID string) error {
	return s.setRead(ctx, emailID, false)
}

func (s *EmailServiceImpl) Move(ctx context.Context, emailID, folderID string) error {
	if strings.TrimSpace(emailID) == "" || strings.TrimSpace(folderID) == "" {
		return fmt.Errorf("emailID and folderID cannot be empty")
	}

	key := emailKey(emailID)
	tx := s.cache.Begin(key)
	s.patchEmail(emailID, func(e models.Email) models.Email {
		e.FolderID = folderID
		return e
	})

	args := map[string]any{"id": emailID, "folder_id": folderID}
	if err := s.bridge.Call(ctx, "move_email", args, nil); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to move email: %w", err)
	}
	tx.Commit()
	return nil
}

func (s *EmailServiceImpl) ApplyLabel(ctx context.Context, emailID, labelID string) error {
	if strings.TrimSpace(emailID) == "" || strings.TrimSpace(labelID) == "" {
		return fmt.Errorf("emailID and labelID cannot be empty")
	}

	key := emailKey(emailID)
	tx := s.cache.Begin(key)
	s.patchEmail(emailID, func(e models.Email) models.Email {
		for _, id := range e.LabelIDs {
			if id == labelID {
				return e
			}
		}
		next := make([]string, 0, len(e.LabelIDs)+1)
		next = append(next, e.LabelIDs...)
		e.LabelIDs = append(next, labelID)
		return e
	})

	args := map[string]any{"id": emailID, "label_id": labelID}
	if err := s.bridge.Call(ctx, "apply_label", args, nil); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to apply label: %w", err)
	}
	tx.Commit()
	return nil
}

func (s *EmailServiceImpl) RemoveLabel(ctx context.Context, emailID, labelID string) error {
	if strings.TrimSpace(emailID) == "" || strings.TrimSpace(labelID) == "" {
		return fmt.Errorf("emailID and labelID cannot be empty")
	}

	key := emailKey(emailID)
	tx := s.cache.Begin(key)
	s.patchEmail(emailID, func(e models.Email) models.Email {
		next := make([]string, 0, len(e.LabelIDs))
		for _, id := range e.LabelIDs {
			if id != labelID {
				next = append(next, id)
			}
		}
		e.LabelIDs = next
		return e
	})

	args := map[string]any{"id": emailID, "label_id": labelID}
	if err := s.bridge.Call(ctx, "remove_label", args, nil); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to remove label: %w", err)
	}
	tx.Commit()
	return nil
}

func (s *EmailServiceImpl) Delete(ctx context.Context, emailID string) error {
	if strings.TrimSpace(emailID) == "" {
		return fmt.Errorf("email ID cannot be empty")
	}
	if err := s.bridge.Call(ctx, "delete_email", map[string]any{"id": emailID}, nil); err != nil {
		return fmt.Errorf("failed to delete email: %w", err)
	}
	s.cache.Invalidate(emailKey(emailID))
	return nil
}
