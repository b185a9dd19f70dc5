package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/corvusmail/corvus/internal/bridge"
	"github.com/corvusmail/corvus/internal/db"
	"github.com/corvusmail/corvus/internal/models"
	"github.com/corvusmail/corvus/internal/render"
)

// AttachmentServiceImpl implements AttachmentService. Metadata comes from
// the email record or a MIME parse of the raw message; content is fetched
// from the backend only on first download and indexed in the local store
// afterwards.
type AttachmentServiceImpl struct {
	bridge   *bridge.Bridge
	store    *db.AttachmentStore
	emails   EmailService
	cacheDir string
}

// NewAttachmentService creates a new attachment service
func NewAttachmentService(b *bridge.Bridge, store *db.AttachmentStore, emails EmailService, cacheDir string) *AttachmentServiceImpl {
	return &AttachmentServiceImpl{bridge: b, store: store, emails: emails, cacheDir: cacheDir}
}

func (s *AttachmentServiceImpl) ListForEmail(ctx context.Context, emailID string) ([]models.Attachment, error) {
	if strings.TrimSpace(emailID) == "" {
		return nil, fmt.Errorf("email ID cannot be empty")
	}
	email, err := s.emails.Get(ctx, emailID)
	if err != nil {
		return nil, err
	}
	if len(email.Attachments) > 0 {
		return email.Attachments, nil
	}

	// Older backend builds only expose the raw message; parse it ourselves.
	var raw string
	if err := s.bridge.Call(ctx, "get_email_raw", map[string]any{"id": emailID}, &raw); err != nil {
		if bridge.IsUnsupported(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch raw message: %w", err)
	}
	parsed, err := render.ParseRawMessage(emailID, strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	return parsed.Attachments, nil
}

// Download returns the local path of an attachment's content, fetching and
// caching it on first use.
func (s *AttachmentServiceImpl) Download(ctx context.Context, att models.Attachment) (string, error) {
	if strings.TrimSpace(att.ID) == "" {
		return "", fmt.Errorf("attachment ID cannot be empty")
	}

	if path, ok, err := s.store.LookupPath(ctx, att.ID); err == nil && ok {
		if _, statErr := os.Stat(path); statErr == nil {
			return path, nil
		}
		// Index entry outlived the file; re-download.
		_ = s.store.Evict(ctx, att.ID)
	}

	var result struct {
		Data string `json:"data"` // base64
	}
	args := map[string]any{"id": att.ID, "email_id": att.EmailID}
	if err := s.bridge.Call(ctx, "download_attachment", args, &result); err != nil {
		return "", fmt.Errorf("failed to download attachment: %w", err)
	}
	content, err := base64.StdEncoding.DecodeString(result.Data)
	if err != nil {
		return "", fmt.Errorf("decode attachment content: %w", err)
	}

	if err := os.MkdirAll(s.cacheDir, 0o700); err != nil {
		return "", fmt.Errorf("create attachment dir: %w", err)
	}
	path := filepath.Join(s.cacheDir, safeFilename(att))
	if err := os.WriteFile(path, content, 0o600); err != nil {
		return "", fmt.Errorf("write attachment: %w", err)
	}
	if err := s.store.SaveCached(ctx, att, path); err != nil {
		return "", fmt.Errorf("index attachment: %w", err)
	}
	return path, nil
}

// EvictCached drops an attachment's cached content and index entry.
func (s *AttachmentServiceImpl) EvictCached(ctx context.Context, attachmentID string) error {
	if strings.TrimSpace(attachmentID) == "" {
		return fmt.Errorf("attachment ID cannot be empty")
	}
	if path, ok, err := s.store.LookupPath(ctx, attachmentID); err == nil && ok {
		_ = os.Remove(path)
	}
	return s.store.Evict(ctx, attachmentID)
}

// safeFilename prefixes the attachment ID so two attachments with the same
// name never collide, and strips path separators out of backend-supplied
// names.
func safeFilename(att models.Attachment) string {
	name := att.Filename
	if name == "" {
		name = "attachment"
	}
	name = strings.ReplaceAll(name, string(os.PathSeparator), "_")
	name = strings.ReplaceAll(name, "..", "_")
	id := strings.NewReplacer("/", "-", string(os.PathSeparator), "-").Replace(att.ID)
	return id + "-" + name
}
