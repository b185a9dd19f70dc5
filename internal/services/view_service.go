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

const viewsKey = "views"

// ViewServiceImpl implements ViewService
type ViewServiceImpl struct {
	bridge *bridge.Bridge
	cache  *query.Cache
}

// NewViewService creates a new view service
func NewViewService(b *bridge.Bridge, cache *query.Cache) *ViewServiceImpl {
	return &ViewServiceImpl{bridge: b, cache: cache}
}

func (s *ViewServiceImpl) List(ctx context.Context) ([]models.View, error) {
	v, err := s.cache.Get(ctx, viewsKey, func(ctx context.Context) (any, error) {
		var views []models.View
		if err := s.bridge.Call(ctx, "get_views", nil, &views); err != nil {
			return nil, fmt.Errorf("failed to list views: %w", err)
		}
		models.SortViews(views)
		for i := range views {
			models.SortSwimlanes(views[i].Swimlanes)
		}
		return views, nil
	})
	if err != nil {
		return nil, err
	}
	views, _ := v.([]models.View)
	return views, nil
}

func (s *ViewServiceImpl) Get(ctx context.Context, id string) (*models.View, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("view ID cannot be empty")
	}
	views, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range views {
		if views[i].ID == id {
			return &views[i], nil
		}
	}
	return nil, fmt.Errorf("view %s: %w", id, ErrNotFound)
}

func (s *ViewServiceImpl) Create(ctx context.Context, name string, swimlanes []models.Swimlane) (*models.View, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("view name cannot be empty")
	}

	temp := models.View{
		ID:        "temp-" + uuid.NewString(),
		Name:      name,
		Swimlanes: swimlanes,
	}
	// Append at the end of the current ordering.
	if cached, ok := s.cache.Peek(viewsKey); ok {
		if views, ok := cached.([]models.View); ok && len(views) > 0 {
			temp.SortOrder = views[len(views)-1].SortOrder + 1
		}
	}

	tx := s.cache.Begin(viewsKey)
	s.cache.Patch(viewsKey, func(current any) any {
		views, _ := current.([]models.View)
		next := make([]models.View, 0, len(views)+1)
		next = append(next, views...)
		next = append(next, temp)
		models.SortViews(next)
		return next
	})

	var created models.View
	args := map[string]any{"name": name, "swimlanes": swimlanes}
	if err := s.bridge.Call(ctx, "create_view", args, &created); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to create view: %w", err)
	}
	tx.Commit()

	s.cache.Patch(viewsKey, func(current any) any {
		views, _ := current.([]models.View)
		next := make([]models.View, 0, len(views))
		for _, v := range views {
			if v.ID == temp.ID {
				next = append(next, created)
				continue
			}
			next = append(next, v)
		}
		models.SortViews(next)
		return next
	})
	return &created, nil
}

func (s *ViewServiceImpl) Update(ctx context.Context, view models.View) (*models.View, error) {
	if strings.TrimSpace(view.ID) == "" {
		return nil, fmt.Errorf("view ID cannot be empty")
	}

	tx := s.cache.Begin(viewsKey)
	s.cache.Patch(viewsKey, func(current any) any {
		views, _ := current.([]models.View)
		next := make([]models.View, 0, len(views))
		for _, v := range views {
			if v.ID == view.ID {
				next = append(next, view)
				continue
			}
			next = append(next, v)
		}
		models.SortViews(next)
		return next
	})

	var updated models.View
	if err := s.bridge.Call(ctx, "update_view", view, &updated); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to update view: %w", err)
	}
	tx.Commit()
	return &updated, nil
}

func (s *ViewServiceImpl) Delete(ctx context.Context, viewID string) error {
	if strings.TrimSpace(viewID) == "" {
		return fmt.Errorf("view ID cannot be empty")
	}

	tx := s.cache.Begin(viewsKey)
	s.cache.Patch(viewsKey, func(current any) any {
		views, _ := current.([]models.View)
		next := make([]models.View, 0, len(views))
		for _, v := range views {
			if v.ID != viewID {
				next = append(next, v)
			}
		}
		return next
	})

	if err := s.bridge.Call(ctx, "delete_view", map[string]any{"id": viewID}, nil); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete view: %w", err)
	}
	tx.Commit()
	return nil
}

// AddSwimlane appends a lane at the end of a view's board.
func (s *ViewServiceImpl) AddSwimlane(ctx context.Context, viewID string, lane models.Swimlane) (*models.View, error) {
	if strings.TrimSpace(viewID) == "" {
		return nil, fmt.Errorf("view ID cannot be empty")
	}
	if strings.TrimSpace(lane.Title) == "" {
		return nil, fmt.Errorf("swimlane title cannot be empty")
	}

	view, err := s.Get(ctx, viewID)
	if err != nil {
		return nil, err
	}
	if lane.ID == "" {
		lane.ID = "temp-" + uuid.NewString()
	}
	lane.SortOrder = len(view.Swimlanes)

	next := *view
	next.Swimlanes = make([]models.Swimlane, 0, len(view.Swimlanes)+1)
	next.Swimlanes = append(next.Swimlanes, view.Swimlanes...)
	next.Swimlanes = append(next.Swimlanes, lane)
	return s.Update(ctx, next)
}

// RemoveSwimlane drops a lane and renumbers the remaining ones densely.
func (s *ViewServiceImpl) RemoveSwimlane(ctx context.Context, viewID, laneID string) (*models.View, error) {
	if strings.TrimSpace(viewID) == "" || strings.TrimSpace(laneID) == "" {
		return nil, fmt.Errorf("viewID and laneID cannot be empty")
	}

	view, err := s.Get(ctx, viewID)
	if err != nil {
		return nil, err
	}
	next := *view
	next.Swimlanes = make([]models.Swimlane, 0, len(view.Swimlanes))
	for _, lane := range view.Swimlanes {
		if lane.ID != laneID {
			next.Swimlanes = append(next.Swimlanes, lane)
		}
	}
	if len(next.Swimlanes) == len(view.Swimlanes) {
		return nil, fmt.Errorf("swimlane %s: %w", laneID, ErrNotFound)
	}
	for i := range next.Swimlanes {
		next.Swimlanes[i].SortOrder = i
	}
	return s.Update(ctx, next)
}

// ReorderSwimlanes rewrites the sort order of a view's swimlanes to match
// laneIDs. Lanes not named keep their relative order after the named ones;
// sort orders are renumbered densely from zero.
func (s *ViewServiceImpl) ReorderSwimlanes(ctx context.Context, viewID string, laneIDs []string) (*models.View, error) {
	if strings.TrimSpace(viewID) == "" {
		return nil, fmt.Errorf("view ID cannot be empty")
	}
	if len(laneIDs) == 0 {
		return nil, fmt.Errorf("lane IDs cannot be empty")
	}

	view, err := s.Get(ctx, viewID)
	if err != nil {
		return nil, err
	}

	reordered := reorderSwimlanes(view.Swimlanes, laneIDs)
	next := *view
	next.Swimlanes = reordered
	return s.Update(ctx, next)
}

func reorderSwimlanes(lanes []models.Swimlane, laneIDs []string) []models.Swimlane {
	byID := make(map[string]models.Swimlane, len(lanes))
	for _, lane := range lanes {
		byID[lane.ID] = lane
	}
	out := make([]models.Swimlane, 0, len(lanes))
	seen := make(map[string]bool, len(laneIDs))
	for _, id := range laneIDs {
		lane, ok := byID[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, lane)
	}
	for _, lane := range lanes {
		if !seen[lane.ID] {
			out = append(out, lane)
		}
	}
	for i := range out {
		out[i].SortOrder = i
	}
	return out
}
