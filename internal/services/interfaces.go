package services

import (
	"context"

	"github.com/corvusmail/corvus/internal/db"
	"github.com/corvusmail/corvus/internal/models"
	"github.com/corvusmail/corvus/internal/search"
)

// AccountService handles mail account operations
type AccountService interface {
	List(ctx context.Context) ([]models.Account, error)
	Get(ctx context.Context, id string) (*models.Account, error)
	Create(ctx context.Context, email, accountType string, settings map[string]any) (*models.Account, error)
	Delete(ctx context.Context, id string) error
	SaveSecret(accountID, secret string) error
	LoadSecret(accountID string) (string, error)
}

// FolderService handles folder tree operations
type FolderService interface {
	ListByAccount(ctx context.Context, accountID string) ([]models.Folder, error)
	Create(ctx context.Context, accountID, parentID, name string) (*models.Folder, error)
	Rename(ctx context.Context, folderID, newName string) (*models.Folder, error)
	Move(ctx context.Context, folderID, parentID string) (*models.Folder, error)
	Delete(ctx context.Context, folderID string) error
}

// LabelService handles label operations
type LabelService interface {
	List(ctx context.Context) ([]models.Label, error)
	Create(ctx context.Context, name, color, icon string) (*models.Label, error)
	Update(ctx context.Context, label models.Label) (*models.Label, error)
	Delete(ctx context.Context, labelID string) error
}

// ViewService handles kanban view operations
type ViewService interface {
	List(ctx context.Context) ([]models.View, error)
	Get(ctx context.Context, id string) (*models.View, error)
	Create(ctx context.Context, name string, swimlanes []models.Swimlane) (*models.View, error)
	Update(ctx context.Context, view models.View) (*models.View, error)
	Delete(ctx context.Context, viewID string) error
	AddSwimlane(ctx context.Context, viewID string, lane models.Swimlane) (*models.View, error)
	RemoveSwimlane(ctx context.Context, viewID, laneID string) (*models.View, error)
	ReorderSwimlanes(ctx context.Context, viewID string, laneIDs []string) (*models.View, error)
}

// ConversationService handles thread reads
type ConversationService interface {
	ListByFolder(ctx context.Context, folderID string) ([]models.Conversation, error)
	ListByLabel(ctx context.Context, labelID string) ([]models.Conversation, error)
	ListBySwimlane(ctx context.Context, lane models.Swimlane) ([]models.Conversation, error)
	Get(ctx context.Context, id string) (*models.Conversation, error)
}

// EmailService handles per-message mutations
type EmailService interface {
	Get(ctx context.Context, id string) (*models.Email, error)
	MarkRead(ctx context.Context, emailID string) error
	MarkUnread(ctx context.Context, emailID string) error
	Move(ctx context.Context, emailID, folderID string) error
	ApplyLabel(ctx context.Context, emailID, labelID string) error
	RemoveLabel(ctx context.Context, emailID, labelID string) error
	Delete(ctx context.Context, emailID string) error
}

// ContactService handles address book reads
type ContactService interface {
	List(ctx context.Context) ([]models.Contact, error)
	Search(ctx context.Context, prefix string) ([]models.Contact, error)
}

// AttachmentService handles attachment discovery and lazy content caching
type AttachmentService interface {
	ListForEmail(ctx context.Context, emailID string) ([]models.Attachment, error)
	Download(ctx context.Context, att models.Attachment) (string, error)
	EvictCached(ctx context.Context, attachmentID string) error
}

// SearchOptions bounds a search request
type SearchOptions struct {
	AccountID  string
	FolderID   string
	MaxResults int
}

// SearchResult is a page of matching emails
type SearchResult struct {
	Emails []models.Email  `json:"emails"`
	Total  int             `json:"total"`
	Tokens []search.Token  `json:"-"`
}

// SearchService handles query tokenization, execution and saved searches
type SearchService interface {
	Tokenize(query string) []search.Token
	Search(ctx context.Context, queryText string, opts SearchOptions) (*SearchResult, error)
	SaveSearch(ctx context.Context, accountID, name, queryText, description, category string) (*db.SavedSearch, error)
	ListSaved(ctx context.Context, accountID, category string) ([]*db.SavedSearch, error)
	DeleteSaved(ctx context.Context, accountID string, id int64) error
	RecordUsage(ctx context.Context, accountID string, id int64) error
}

// AnalysisOptions controls one AI analysis request
type AnalysisOptions struct {
	AccountID       string
	EmailID         string
	Kind            string // summary, analysis
	UseCache        bool
	ForceRegenerate bool
}

// AnalysisResult is the outcome of an AI analysis
type AnalysisResult struct {
	Text      string
	FromCache bool
}

// AIService handles AI-assisted analysis of email content
type AIService interface {
	AnalyzeEmail(ctx context.Context, content string, opts AnalysisOptions, onToken func(string)) (*AnalysisResult, error)
	Ask(ctx context.Context, question, emailContent string, onToken func(string)) (string, error)
	AutoAnalyze(ctx context.Context, content string, opts AnalysisOptions)
}
