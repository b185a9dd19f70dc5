package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// SavedSearch is a named, reusable search query.
type SavedSearch struct {
	ID          int64  `json:"id"`
	AccountID   string `json:"account_id"`
	Name        string `json:"name"`
	Query       string `json:"query"`
	Description string `json:"description"`
	Category    string `json:"category"`
	CreatedAt   int64  `json:"created_at"`
	LastUsed    int64  `json:"last_used"`
	UseCount    int    `json:"use_count"`
}

// SearchStore handles database operations for saved searches.
type SearchStore struct {
	db *sql.DB
}

// NewSearchStore creates a saved-search store over an open database.
func NewSearchStore(store *Store) *SearchStore {
	return &SearchStore{db: store.DB()}
}

// Save inserts a new saved search or updates the existing one with the same
// name for the account.
func (s *SearchStore) Save(ctx context.Context, accountID, name, query, description, category string) (*SavedSearch, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("search store not initialized")
	}
	if strings.TrimSpace(accountID) == "" || strings.TrimSpace(name) == "" || strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("account_id, name, and query cannot be empty")
	}
	if strings.TrimSpace(category) == "" {
		category = "general"
	}
	now := time.Now().Unix()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO saved_searches (account_id, name, query, description, category, created_at, last_used, use_count)
		VALUES (?, ?, ?, ?, ?, ?, 0, 0)
		ON CONFLICT(account_id, name) DO UPDATE SET
			query = excluded.query,
			description = excluded.description,
			category = excluded.category`,
		accountID, name, query, description, category, now)
	if err != nil {
		return nil, fmt.Errorf("save search: %w", err)
	}
	return s.GetByName(ctx, accountID, name)
}

// GetByName returns a saved search by its name.
func (s *SearchStore) GetByName(ctx context.Context, accountID, name string) (*SavedSearch, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("search store not initialized")
	}
	ss := &SavedSearch{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, account_id, name, query, COALESCE(description, ''), category, created_at, last_used, use_count
		FROM saved_searches WHERE account_id = ? AND name = ?`, accountID, name).
		Scan(&ss.ID, &ss.AccountID, &ss.Name, &ss.Query, &ss.Description, &ss.Category, &ss.CreatedAt, &ss.LastUsed, &ss.UseCount)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("saved search not found")
	}
	if err != nil {
		return nil, err
	}
	return ss, nil
}

// List returns the account's saved searches, optionally filtered by
// category, most-used first.
func (s *SearchStore) List(ctx context.Context, accountID, category string) ([]*SavedSearch, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("search store not initialized")
	}
	query := `
		SELECT id, account_id, name, query, COALESCE(description, ''), category, created_at, last_used, use_count
		FROM saved_searches WHERE account_id = ?`
	args := []interface{}{accountID}
	if category != "" {
		query += ` AND category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY use_count DESC, last_used DESC, name ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*SavedSearch
	for rows.Next() {
		ss := &SavedSearch{}
		if err := rows.Scan(&ss.ID, &ss.AccountID, &ss.Name, &ss.Query, &ss.Description, &ss.Category, &ss.CreatedAt, &ss.LastUsed, &ss.UseCount); err != nil {
			return nil, err
		}
		out = append(out, ss)
	}
	return out, rows.Err()
}

// Delete removes a saved search by ID.
func (s *SearchStore) Delete(ctx context.Context, accountID string, id int64) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("search store not initialized")
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM saved_searches WHERE account_id = ? AND id = ?`, accountID, id)
	return err
}

// RecordUsage increments the use count and stamps last_used.
func (s *SearchStore) RecordUsage(ctx context.Context, accountID string, id int64) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("search store not initialized")
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE saved_searches SET use_count = use_count + 1, last_used = ?
		WHERE account_id = ? AND id = ?`, time.Now().Unix(), accountID, id)
	return err
}

// Categories returns the distinct categories used by the account.
func (s *SearchStore) Categories(ctx context.Context, accountID string) ([]string, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("search store not initialized")
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT category FROM saved_searches WHERE account_id = ? ORDER BY category`, accountID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
