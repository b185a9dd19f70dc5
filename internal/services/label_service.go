package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/corvusmail/corvus/internal/bridge"
	"github.com/corvusmail/corvus/internal/models"
	"github.com/corvusmail/corvus/internal/query"
)

const labelsKey = "labels"

// LabelServiceImpl implements LabelService
type LabelServiceImpl struct {
	bridge *bridge.Bridge
	cache  *query.Cache
}

// NewLabelService creates a new label service
func NewLabelService(b *bridge.Bridge, cache *query.Cache) *LabelServiceImpl {
	return &LabelServiceImpl{bridge: b, cache: cache}
}

func (s *LabelServiceImpl) List(ctx context.Context) ([]models.Label, error) {
	v, err := s.cache.Get(ctx, labelsKey, func(ctx context.Context) (any, error) {
		var labels []models.Label
		if err := s.bridge.Call(ctx, "get_labels", nil, &labels); err != nil {
			return nil, fmt.Errorf("failed to list labels: %w", err)
		}
		models.SortLabels(labels)
		return labels, nil
	})
	if err != nil {
		return nil, err
	}
	labels, _ := v.([]models.Label)
	return labels, nil
}

func (s *LabelServiceImpl) Create(ctx context.Context, name, color, icon string) (*models.Label, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("label name cannot be empty")
	}

	temp := models.Label{
		ID:    "temp-" + uuid.NewString(),
		Name:  name,
		Color: color,
		Icon:  icon,
	}

	tx := s.cache.Begin(labelsKey)
	s.cache.Patch(labelsKey, func(current any) any {
		labels, _ := current.([]models.Label)
		next := make([]models.Label, 0, len(labels)+1)
		next = append(next, labels...)
		next = append(next, temp)
		models.SortLabels(next)
		return next
	})

	var created models.Label
	args := map[string]any{"name": name, "color": color, "icon": icon}
	if err := s.bridge.Call(ctx, "create_label", args, &created); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to create label: %w", err)
	}
	tx.Commit()

	s.cache.Patch(labelsKey, func(current any) any {
		labels, _ := current.([]models.Label)
		next := make([]models.Label, 0, len(labels))
		for _, l := range labels {
			if l.ID == temp.ID {
				next = append(next, created)
				continue
			}
			next = append(next, l)
		}
		models.SortLabels(next)
		return next
	})
	return &created, nil
}

func (s *LabelServiceImpl) Update(ctx context.Context, label models.Label) (*models.Label, error) {
	if strings.TrimSpace(label.ID) == "" {
		return nil, fmt.Errorf("label ID cannot be empty")
	}
	if strings.TrimSpace(label.Name) == "" {
		return nil, fmt.Errorf("label name cannot be empty")
	}

	tx := s.cache.Begin(labelsKey)
	s.cache.Patch(labelsKey, func(current any) any {
		labels, _ := current.([]models.Label)
		next := make([]models.Label, 0, len(labels))
		for _, l := range labels {
			if l.ID == label.ID {
				next = append(next, label)
				continue
			}
			next = append(next, l)
		}
		models.SortLabels(next)
		return next
	})

	var updated models.Label
	args := map[string]any{"id": label.ID, "name": label.Name, "color": label.Color, "icon": label.Icon}
	if err := s.bridge.Call(ctx, "update_label", args, &updated); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to update label: %w", err)
	}
	tx.Commit()
	return &updated, nil
}

func (s *LabelServiceImpl) Delete(ctx context.Context, labelID string) error {
	if strings.TrimSpace(labelID) == "" {
		return fmt.Errorf("label ID cannot be empty")
	}

	tx := s.cache.Begin(labelsKey)
	s.cache.Patch(labelsKey, func(current any) any {
		labels, _ := current.([]models.Label)
		next := make([]models.Label, 0, len(labels))
		for _, l := range labels {
			if l.ID != labelID {
				next = append(next, l)
			}
		}
		return next
	})

	if err := s.bridge.Call(ctx, "delete_label", map[string]any{"id": labelID}, nil); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete label: %w", err)
	}
	tx.Commit()
	return nil
}
