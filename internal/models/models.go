package models

import "time"

// Entities are carried through from the backend as-is; the client imposes no
// invariants on them beyond key uniqueness in the query cache.

// Account is a configured mail account.
type Account struct {
	ID       string         `json:"id"`
	Email    string         `json:"email"`
	Type     string         `json:"type"` // imap, gmail, outlook, ...
	Settings map[string]any `json:"settings,omitempty"`
}

// FolderType is the backend's classification of a mailbox folder.
type FolderType string

const (
	FolderInbox   FolderType = "inbox"
	FolderDrafts  FolderType = "drafts"
	FolderSent    FolderType = "sent"
	FolderArchive FolderType = "archive"
	FolderJunk    FolderType = "junk"
	FolderTrash   FolderType = "trash"
	FolderCustom  FolderType = "custom"
)

// Folder is one node of an account's folder tree.
type Folder struct {
	ID        string     `json:"id"`
	AccountID string     `json:"account_id"`
	ParentID  string     `json:"parent_id,omitempty"`
	Name      string     `json:"name"`
	Type      FolderType `json:"type"`
}

// Label is a flat, globally unique tag applied to emails.
type Label struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
	Icon  string `json:"icon,omitempty"`
}

// Swimlane is one named, colored bucket of a kanban view, fed by the folders
// and labels it references.
type Swimlane struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Color     string   `json:"color,omitempty"`
	LabelIDs  []string `json:"label_ids,omitempty"`
	FolderIDs []string `json:"folder_ids,omitempty"`
	SortOrder int      `json:"sort_order"`
}

// View is a kanban-style custom view over folders and labels.
type View struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Swimlanes []Swimlane `json:"swimlanes,omitempty"`
	FolderIDs []string   `json:"folder_ids,omitempty"`
	LabelIDs  []string   `json:"label_ids,omitempty"`
	SortOrder int        `json:"sort_order"`
}

// Conversation aggregates the emails of one thread.
type Conversation struct {
	ID       string    `json:"id"`
	Subject  string    `json:"subject"`
	Snippet  string    `json:"snippet,omitempty"`
	Emails   []Email   `json:"emails,omitempty"`
	LatestAt time.Time `json:"latest_at"`
	Unread   bool      `json:"unread"`
}

// Email is one message. Read state, folder membership and labels are the
// mutable parts; everything else is fixed at sync time.
type Email struct {
	ID             string       `json:"id"`
	AccountID      string       `json:"account_id"`
	FolderID       string       `json:"folder_id"`
	ConversationID string       `json:"conversation_id,omitempty"`
	From           string       `json:"from"`
	To             []string     `json:"to,omitempty"`
	Subject        string       `json:"subject"`
	Snippet        string       `json:"snippet,omitempty"`
	Date           time.Time    `json:"date"`
	Read           bool         `json:"read"`
	LabelIDs       []string     `json:"label_ids,omitempty"`
	Attachments    []Attachment `json:"attachments,omitempty"`
}

// Attachment metadata is discovered when a message is parsed; the content is
// cached locally only on demand.
type Attachment struct {
	ID        string `json:"id"`
	EmailID   string `json:"email_id"`
	Filename  string `json:"filename"`
	MimeType  string `json:"mime_type"`
	Size      int64  `json:"size"`
	Inline    bool   `json:"inline,omitempty"`
	ContentID string `json:"content_id,omitempty"`
	CachePath string `json:"cache_path,omitempty"`
}

// Contact is an address-book entry.
type Contact struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
