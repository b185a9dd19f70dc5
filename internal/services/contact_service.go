package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/corvusmail/corvus/internal/bridge"
	"github.com/corvusmail/corvus/internal/models"
	"github.com/corvusmail/corvus/internal/query"
)

const contactsKey = "contacts"

// ContactServiceImpl implements ContactService
type ContactServiceImpl struct {
	bridge *bridge.Bridge
	cache  *query.Cache
}

// NewContactService creates a new contact service
func NewContactService(b *bridge.Bridge, cache *query.Cache) *ContactServiceImpl {
	return &ContactServiceImpl{bridge: b, cache: cache}
}

func (s *ContactServiceImpl) List(ctx context.Context) ([]models.Contact, error) {
	v, err := s.cache.Get(ctx, contactsKey, func(ctx context.Context) (any, error) {
		var contacts []models.Contact
		if err := s.bridge.Call(ctx, "get_contacts", nil, &contacts); err != nil {
			return nil, fmt.Errorf("failed to list contacts: %w", err)
		}
		models.SortContacts(contacts)
		return contacts, nil
	})
	if err != nil {
		return nil, err
	}
	contacts, _ := v.([]models.Contact)
	return contacts, nil
}

func (s *ContactServiceImpl) Search(ctx context.Context, prefix string) ([]models.Contact, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return s.List(ctx)
	}
	key := query.Key(contactsKey, map[string]any{"prefix": strings.ToLower(prefix)})
	v, err := s.cache.Get(ctx, key, func(ctx context.Context) (any, error) {
		var contacts []models.Contact
		if err := s.bridge.Call(ctx, "search_contacts", map[string]any{"prefix": prefix}, &contacts); err != nil {
			return nil, fmt.Errorf("failed to search contacts: %w", err)
		}
		models.SortContacts(contacts)
		return contacts, nil
	})
	if err != nil {
		return nil, err
	}
	contacts, _ := v.([]models.Contact)
	return contacts, nil
}
