package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/corvusmail/corvus/internal/bridge"
	"github.com/corvusmail/corvus/internal/db"
	"github.com/corvusmail/corvus/internal/search"
)

// SearchServiceImpl implements SearchService
type SearchServiceImpl struct {
	bridge *bridge.Bridge
	store  *db.SearchStore
	fields *search.FieldRegistry
}

// NewSearchService creates a new search service
func NewSearchService(b *bridge.Bridge, store *db.SearchStore) *SearchServiceImpl {
	return &SearchServiceImpl{bridge: b, store: store, fields: search.EmailFields()}
}

// Tokenize splits a raw query into typed tokens against the email field set.
func (s *SearchServiceImpl) Tokenize(query string) []search.Token {
	return search.Tokenize(query, s.fields)
}

func (s *SearchServiceImpl) Search(ctx context.Context, queryText string, opts SearchOptions) (*SearchResult, error) {
	queryText = strings.TrimSpace(queryText)
	if queryText == "" {
		return nil, fmt.Errorf("search query cannot be empty")
	}

	tokens := s.Tokenize(queryText)
	args := map[string]any{
		// Send the normalized form so the backend never sees stray
		// whitespace differences between equivalent queries.
		"query": search.Join(tokens),
	}
	if opts.AccountID != "" {
		args["account_id"] = opts.AccountID
	}
	if opts.FolderID != "" {
		args["folder_id"] = opts.FolderID
	}
	if opts.MaxResults > 0 {
		args["max_results"] = opts.MaxResults
	}

	var result SearchResult
	if err := s.bridge.Call(ctx, "search_emails", args, &result); err != nil {
		return nil, fmt.Errorf("failed to search emails: %w", err)
	}
	result.Tokens = tokens
	return &result, nil
}

func (s *SearchServiceImpl) SaveSearch(ctx context.Context, accountID, name, queryText, description, category string) (*db.SavedSearch, error) {
	queryText = strings.TrimSpace(queryText)
	if queryText == "" {
		return nil, fmt.Errorf("search query cannot be empty")
	}
	// Store the normalized token form so a saved search replays identically.
	normalized := search.Join(s.Tokenize(queryText))
	return s.store.Save(ctx, accountID, name, normalized, description, category)
}

func (s *SearchServiceImpl) ListSaved(ctx context.Context, accountID, category string) ([]*db.SavedSearch, error) {
	if strings.TrimSpace(accountID) == "" {
		return nil, fmt.Errorf("account ID cannot be empty")
	}
	return s.store.List(ctx, accountID, category)
}

func (s *SearchServiceImpl) DeleteSaved(ctx context.Context, accountID string, id int64) error {
	if strings.TrimSpace(accountID) == "" {
		return fmt.Errorf("account ID cannot be empty")
	}
	return s.store.Delete(ctx, accountID, id)
}

func (s *SearchServiceImpl) RecordUsage(ctx context.Context, accountID string, id int64) error {
	if strings.TrimSpace(accountID) == "" {
		return fmt.Errorf("account ID cannot be empty")
	}
	return s.store.RecordUsage(ctx, accountID, id)
}
