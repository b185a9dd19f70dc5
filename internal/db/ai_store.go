package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// AIStore persists AI analysis results per (account, email, kind) so a
// regenerated view never has to re-run inference for content it already
// analyzed.
type AIStore struct {
	db *sql.DB
}

// NewAIStore creates an AI result store over an open database.
func NewAIStore(store *Store) *AIStore {
	return &AIStore{db: store.DB()}
}

// SaveResult upserts an analysis result.
func (s *AIStore) SaveResult(ctx context.Context, accountID, emailID, kind, result string, updatedAt int64) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("ai store not initialized")
	}
	if strings.TrimSpace(accountID) == "" || strings.TrimSpace(emailID) == "" || strings.TrimSpace(result) == "" {
		return fmt.Errorf("invalid analysis inputs")
	}
	if strings.TrimSpace(kind) == "" {
		kind = "summary"
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO ai_analyses(account_id, email_id, kind, result, updated_at)
VALUES(?,?,?,?,?)
ON CONFLICT(account_id, email_id, kind) DO UPDATE SET result=excluded.result, updated_at=excluded.updated_at;
`, accountID, emailID, kind, result, updatedAt)
	return err
}

// LoadResult returns a cached analysis result if present.
func (s *AIStore) LoadResult(ctx context.Context, accountID, emailID, kind string) (string, bool, error) {
	if s == nil || s.db == nil {
		return "", false, fmt.Errorf("ai store not initialized")
	}
	if strings.TrimSpace(kind) == "" {
		kind = "summary"
	}
	var out string
	err := s.db.QueryRowContext(ctx,
		`SELECT result FROM ai_analyses WHERE account_id=? AND email_id=? AND kind=?`,
		accountID, emailID, kind).Scan(&out)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return out, true, nil
}

// DeleteResult removes one cached analysis result.
func (s *AIStore) DeleteResult(ctx context.Context, accountID, emailID, kind string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("ai store not initialized")
	}
	if strings.TrimSpace(kind) == "" {
		kind = "summary"
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM ai_analyses WHERE account_id=? AND email_id=? AND kind=?`,
		accountID, emailID, kind)
	return err
}

// ClearAccount removes every cached result for an account.
func (s *AIStore) ClearAccount(ctx context.Context, accountID string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("ai store not initialized")
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM ai_analyses WHERE account_id=?`, accountID)
	return err
}
