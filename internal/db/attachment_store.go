package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/corvusmail/corvus/internal/models"
)

// AttachmentStore indexes locally cached attachment files. Attachments are
// cached lazily: nothing is written here until a download actually happens.
type AttachmentStore struct {
	db *sql.DB
}

// NewAttachmentStore creates an attachment index over an open database.
func NewAttachmentStore(store *Store) *AttachmentStore {
	return &AttachmentStore{db: store.DB()}
}

// SaveCached records where an attachment's content landed on disk.
func (s *AttachmentStore) SaveCached(ctx context.Context, att models.Attachment, localPath string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("attachment store not initialized")
	}
	if strings.TrimSpace(att.ID) == "" || strings.TrimSpace(localPath) == "" {
		return fmt.Errorf("attachment id and local path cannot be empty")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO attachment_cache (attachment_id, email_id, filename, mime_type, size, local_path, cached_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(attachment_id) DO UPDATE SET local_path = excluded.local_path, cached_at = excluded.cached_at`,
		att.ID, att.EmailID, att.Filename, att.MimeType, att.Size, localPath, time.Now().Unix())
	return err
}

// LookupPath returns the cached local path for an attachment, if any.
func (s *AttachmentStore) LookupPath(ctx context.Context, attachmentID string) (string, bool, error) {
	if s == nil || s.db == nil {
		return "", false, fmt.Errorf("attachment store not initialized")
	}
	var path string
	err := s.db.QueryRowContext(ctx,
		`SELECT local_path FROM attachment_cache WHERE attachment_id = ?`, attachmentID).Scan(&path)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return path, true, nil
}

// Evict forgets one cached attachment.
func (s *AttachmentStore) Evict(ctx context.Context, attachmentID string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("attachment store not initialized")
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM attachment_cache WHERE attachment_id = ?`, attachmentID)
	return err
}
