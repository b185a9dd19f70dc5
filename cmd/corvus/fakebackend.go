package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/corvusmail/corvus/internal/bridge"
	"github.com/corvusmail/corvus/internal/models"
)

// newFakeBackend builds an in-memory backend with a small sample mailbox.
// It implements enough of the command surface to exercise every service from
// the shell without a native backend running.
func newFakeBackend() *bridge.Pipe {
	p := bridge.NewPipe()
	fb := &fakeBackend{
		pipe: p,
		accounts: []models.Account{
			{ID: "acct-1", Email: "demo@example.com", Type: "imap"},
		},
		folders: []models.Folder{
			{ID: "f-inbox", AccountID: "acct-1", Name: "Inbox", Type: models.FolderInbox},
			{ID: "f-sent", AccountID: "acct-1", Name: "Sent", Type: models.FolderSent},
			{ID: "f-archive", AccountID: "acct-1", Name: "Archive", Type: models.FolderArchive},
		},
		labels: []models.Label{
			{ID: "l-work", Name: "Work", Color: "#2f6fed"},
			{ID: "l-personal", Name: "Personal", Color: "#2fae5f"},
		},
		contacts: []models.Contact{
			{ID: "c-1", Name: "Ada Fernandez", Email: "ada@example.com"},
			{ID: "c-2", Name: "Noor Haddad", Email: "noor@example.com"},
		},
	}
	now := time.Now()
	fb.emails = []models.Email{
		{
			ID: "e-1", AccountID: "acct-1", FolderID: "f-inbox", ConversationID: "t-1",
			From: "ada@example.com", To: []string{"demo@example.com"},
			Subject: "Quarterly report", Snippet: "Draft attached for review.",
			Date: now.Add(-2 * time.Hour), LabelIDs: []string{"l-work"},
			Attachments: []models.Attachment{
				{ID: "e-1/0", EmailID: "e-1", Filename: "report.pdf", MimeType: "application/pdf", Size: 2048},
			},
		},
		{
			ID: "e-2", AccountID: "acct-1", FolderID: "f-inbox", ConversationID: "t-2",
			From: "noor@example.com", To: []string{"demo@example.com"},
			Subject: "Dinner on friday?", Snippet: "Thinking 7pm at the usual place.",
			Date: now.Add(-30 * time.Minute), LabelIDs: []string{"l-personal"},
		},
	}
	fb.register()
	return p
}

type fakeBackend struct {
	pipe *bridge.Pipe

	mu       sync.Mutex
	accounts []models.Account
	folders  []models.Folder
	labels   []models.Label
	views    []models.View
	emails   []models.Email
	contacts []models.Contact
}

func (fb *fakeBackend) register() {
	p := fb.pipe

	p.Handle("get_accounts", func(json.RawMessage) (any, error) {
		fb.mu.Lock()
		defer fb.mu.Unlock()
		return fb.accounts, nil
	})
	p.Handle("create_account", func(raw json.RawMessage) (any, error) {
		var args struct {
			Email string         `json:"email"`
			Type  string         `json:"type"`
			Settings map[string]any `json:"settings"`
		}
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, err
		}
		acct := models.Account{ID: "acct-" + uuid.NewString(), Email: args.Email, Type: args.Type, Settings: args.Settings}
		fb.mu.Lock()
		fb.accounts = append(fb.accounts, acct)
		fb.mu.Unlock()
		p.Emit("account:created", acct)
		return acct, nil
	})
	p.Handle("delete_account", func(raw json.RawMessage) (any, error) {
		id := stringArg(raw, "id")
		fb.mu.Lock()
		kept := fb.accounts[:0]
		for _, a := range fb.accounts {
			if a.ID != id {
				kept = append(kept, a)
			}
		}
		fb.accounts = kept
		fb.mu.Unlock()
		p.Emit("account:deleted", map[string]string{"id": id})
		return nil, nil
	})

	p.Handle("get_folders", func(raw json.RawMessage) (any, error) {
		accountID := stringArg(raw, "account_id")
		fb.mu.Lock()
		defer fb.mu.Unlock()
		var out []models.Folder
		for _, f := range fb.folders {
			if accountID == "" || f.AccountID == accountID {
				out = append(out, f)
			}
		}
		return out, nil
	})
	p.Handle("create_folder", func(raw json.RawMessage) (any, error) {
		var args struct {
			AccountID string `json:"account_id"`
			ParentID  string `json:"parent_id"`
			Name      string `json:"name"`
		}
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, err
		}
		f := models.Folder{ID: "f-" + uuid.NewString(), AccountID: args.AccountID, ParentID: args.ParentID, Name: args.Name, Type: models.FolderCustom}
		fb.mu.Lock()
		fb.folders = append(fb.folders, f)
		fb.mu.Unlock()
		p.Emit("folder:created", f)
		return f, nil
	})
	p.Handle("rename_folder", func(raw json.RawMessage) (any, error) {
		var args struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		}
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, err
		}
		fb.mu.Lock()
		defer fb.mu.Unlock()
		for i := range fb.folders {
			if fb.folders[i].ID == args.ID {
				fb.folders[i].Name = args.Name
				f := fb.folders[i]
				go p.Emit("folder:updated", f)
				return f, nil
			}
		}
		return nil, &bridge.CommandError{Command: "rename_folder", Kind: bridge.KindFolderNotFound, Message: "folder not found"}
	})
	p.Handle("move_folder", func(raw json.RawMessage) (any, error) {
		var args struct {
			ID       string `json:"id"`
			ParentID string `json:"parent_id"`
		}
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, err
		}
		fb.mu.Lock()
		defer fb.mu.Unlock()
		for i := range fb.folders {
			if fb.folders[i].ID == args.ID {
				fb.folders[i].ParentID = args.ParentID
				f := fb.folders[i]
				go p.Emit("folder:updated", f)
				return f, nil
			}
		}
		return nil, &bridge.CommandError{Command: "move_folder", Kind: bridge.KindFolderNotFound, Message: "folder not found"}
	})
	p.Handle("delete_folder", func(raw json.RawMessage) (any, error) {
		id := stringArg(raw, "id")
		fb.mu.Lock()
		kept := fb.folders[:0]
		for _, f := range fb.folders {
			if f.ID != id {
				kept = append(kept, f)
			}
		}
		fb.folders = kept
		fb.mu.Unlock()
		p.Emit("folder:deleted", map[string]string{"id": id})
		return nil, nil
	})

	p.Handle("get_labels", func(json.RawMessage) (any, error) {
		fb.mu.Lock()
		defer fb.mu.Unlock()
		return fb.labels, nil
	})
	p.Handle("create_label", func(raw json.RawMessage) (any, error) {
		var args models.Label
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, err
		}
		args.ID = "l-" + uuid.NewString()
		fb.mu.Lock()
		fb.labels = append(fb.labels, args)
		fb.mu.Unlock()
		p.Emit("label:created", args)
		return args, nil
	})
	p.Handle("update_label", func(raw json.RawMessage) (any, error) {
		var label models.Label
		if err := json.Unmarshal(raw, &label); err != nil {
			return nil, err
		}
		fb.mu.Lock()
		defer fb.mu.Unlock()
		for i := range fb.labels {
			if fb.labels[i].ID == label.ID {
				fb.labels[i] = label
				go p.Emit("label:updated", label)
				return label, nil
			}
		}
		return nil, &bridge.CommandError{Command: "update_label", Kind: bridge.KindNotFound, Message: "label not found"}
	})
	p.Handle("delete_label", func(raw json.RawMessage) (any, error) {
		id := stringArg(raw, "id")
		fb.mu.Lock()
		kept := fb.labels[:0]
		for _, l := range fb.labels {
			if l.ID != id {
				kept = append(kept, l)
			}
		}
		fb.labels = kept
		fb.mu.Unlock()
		p.Emit("label:deleted", map[string]string{"id": id})
		return nil, nil
	})

	p.Handle("get_views", func(json.RawMessage) (any, error) {
		fb.mu.Lock()
		defer fb.mu.Unlock()
		return fb.views, nil
	})
	p.Handle("create_view", func(raw json.RawMessage) (any, error) {
		var args models.View
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, err
		}
		args.ID = "v-" + uuid.NewString()
		fb.mu.Lock()
		args.SortOrder = len(fb.views)
		fb.views = append(fb.views, args)
		fb.mu.Unlock()
		p.Emit("view:created", args)
		return args, nil
	})
	p.Handle("update_view", func(raw json.RawMessage) (any, error) {
		var view models.View
		if err := json.Unmarshal(raw, &view); err != nil {
			return nil, err
		}
		fb.mu.Lock()
		defer fb.mu.Unlock()
		for i := range fb.views {
			if fb.views[i].ID == view.ID {
				fb.views[i] = view
				go p.Emit("view:updated", view)
				return view, nil
			}
		}
		return nil, &bridge.CommandError{Command: "update_view", Kind: bridge.KindNotFound, Message: "view not found"}
	})
	p.Handle("delete_view", func(raw json.RawMessage) (any, error) {
		id := stringArg(raw, "id")
		fb.mu.Lock()
		kept := fb.views[:0]
		for _, v := range fb.views {
			if v.ID != id {
				kept = append(kept, v)
			}
		}
		fb.views = kept
		fb.mu.Unlock()
		p.Emit("view:deleted", map[string]string{"id": id})
		return nil, nil
	})

	p.Handle("get_conversations", func(raw json.RawMessage) (any, error) {
		var args struct {
			FolderID string `json:"folder_id"`
			LabelID  string `json:"label_id"`
		}
		_ = json.Unmarshal(raw, &args)
		fb.mu.Lock()
		defer fb.mu.Unlock()
		byThread := map[string]*models.Conversation{}
		var order []string
		for _, e := range fb.emails {
			if args.FolderID != "" && e.FolderID != args.FolderID {
				continue
			}
			if args.LabelID != "" && !contains(e.LabelIDs, args.LabelID) {
				continue
			}
			c, ok := byThread[e.ConversationID]
			if !ok {
				c = &models.Conversation{ID: e.ConversationID, Subject: e.Subject, Snippet: e.Snippet}
				byThread[e.ConversationID] = c
				order = append(order, e.ConversationID)
			}
			c.Emails = append(c.Emails, e)
			if e.Date.After(c.LatestAt) {
				c.LatestAt = e.Date
			}
			if !e.Read {
				c.Unread = true
			}
		}
		out := make([]models.Conversation, 0, len(order))
		for _, id := range order {
			out = append(out, *byThread[id])
		}
		return out, nil
	})
	p.Handle("get_conversation", func(raw json.RawMessage) (any, error) {
		id := stringArg(raw, "id")
		fb.mu.Lock()
		defer fb.mu.Unlock()
		conv := models.Conversation{ID: id}
		for _, e := range fb.emails {
			if e.ConversationID == id {
				conv.Subject = e.Subject
				conv.Emails = append(conv.Emails, e)
				if e.Date.After(conv.LatestAt) {
					conv.LatestAt = e.Date
				}
				if !e.Read {
					conv.Unread = true
				}
			}
		}
		if len(conv.Emails) == 0 {
			return nil, &bridge.CommandError{Command: "get_conversation", Kind: bridge.KindNotFound, Message: "conversation not found"}
		}
		return conv, nil
	})

	p.Handle("get_email", func(raw json.RawMessage) (any, error) {
		id := stringArg(raw, "id")
		fb.mu.Lock()
		defer fb.mu.Unlock()
		for _, e := range fb.emails {
			if e.ID == id {
				return e, nil
			}
		}
		return nil, &bridge.CommandError{Command: "get_email", Kind: bridge.KindNotFound, Message: "email not found"}
	})
	p.Handle("mark_email_read", fb.emailMutation("mark_email_read", func(e *models.Email, _ json.RawMessage) { e.Read = true }))
	p.Handle("mark_email_unread", fb.emailMutation("mark_email_unread", func(e *models.Email, _ json.RawMessage) { e.Read = false }))
	p.Handle("move_email", fb.emailMutation("move_email", func(e *models.Email, raw json.RawMessage) {
		e.FolderID = stringArg(raw, "folder_id")
	}))
	p.Handle("apply_label", fb.emailMutation("apply_label", func(e *models.Email, raw json.RawMessage) {
		id := stringArg(raw, "label_id")
		if !contains(e.LabelIDs, id) {
			e.LabelIDs = append(e.LabelIDs, id)
		}
	}))
	p.Handle("remove_label", fb.emailMutation("remove_label", func(e *models.Email, raw json.RawMessage) {
		id := stringArg(raw, "label_id")
		kept := e.LabelIDs[:0]
		for _, l := range e.LabelIDs {
			if l != id {
				kept = append(kept, l)
			}
		}
		e.LabelIDs = kept
	}))
	p.Handle("delete_email", func(raw json.RawMessage) (any, error) {
		id := stringArg(raw, "id")
		fb.mu.Lock()
		kept := fb.emails[:0]
		for _, e := range fb.emails {
			if e.ID != id {
				kept = append(kept, e)
			}
		}
		fb.emails = kept
		fb.mu.Unlock()
		p.Emit("email:deleted", map[string]string{"id": id})
		return nil, nil
	})

	p.Handle("get_contacts", func(json.RawMessage) (any, error) {
		fb.mu.Lock()
		defer fb.mu.Unlock()
		return fb.contacts, nil
	})
	p.Handle("search_contacts", func(raw json.RawMessage) (any, error) {
		prefix := strings.ToLower(stringArg(raw, "prefix"))
		fb.mu.Lock()
		defer fb.mu.Unlock()
		var out []models.Contact
		for _, c := range fb.contacts {
			if strings.HasPrefix(strings.ToLower(c.Name), prefix) || strings.HasPrefix(strings.ToLower(c.Email), prefix) {
				out = append(out, c)
			}
		}
		return out, nil
	})

	p.Handle("search_emails", func(raw json.RawMessage) (any, error) {
		q := strings.ToLower(stringArg(raw, "query"))
		fb.mu.Lock()
		defer fb.mu.Unlock()
		var hits []models.Email
		for _, e := range fb.emails {
			if strings.Contains(strings.ToLower(e.Subject), q) || strings.Contains(strings.ToLower(e.From), q) {
				hits = append(hits, e)
			}
		}
		return map[string]any{"emails": hits, "total": len(hits)}, nil
	})

	p.Handle("download_attachment", func(raw json.RawMessage) (any, error) {
		content := []byte("sample attachment content from the fake backend\n")
		return map[string]any{"data": base64.StdEncoding.EncodeToString(content)}, nil
	})

	p.Handle("analyze_email", fb.streamText("corvus:analyze-email",
		"This email shares a draft quarterly report and asks the recipient to review the attachment."))
	p.Handle("ask_ai", fb.streamText("corvus:ask-ai",
		"The sender is proposing dinner at 7pm on Friday at the usual place."))
}

// emailMutation wraps the find-mutate-emit pattern shared by the per-message
// commands.
func (fb *fakeBackend) emailMutation(command string, apply func(*models.Email, json.RawMessage)) bridge.PipeHandler {
	return func(raw json.RawMessage) (any, error) {
		id := stringArg(raw, "id")
		fb.mu.Lock()
		var updated *models.Email
		for i := range fb.emails {
			if fb.emails[i].ID == id {
				apply(&fb.emails[i], raw)
				e := fb.emails[i]
				updated = &e
				break
			}
		}
		fb.mu.Unlock()
		if updated == nil {
			return nil, &bridge.CommandError{Command: command, Kind: bridge.KindNotFound, Message: "email not found"}
		}
		fb.pipe.Emit("email:updated", updated)
		return nil, nil
	}
}

// streamText delivers a canned answer word by word through the three-event
// streaming protocol.
func (fb *fakeBackend) streamText(family, text string) bridge.PipeHandler {
	return func(raw json.RawMessage) (any, error) {
		requestID := stringArg(raw, "request_id")
		if requestID == "" {
			return nil, fmt.Errorf("missing request_id")
		}
		go func() {
			for _, word := range strings.SplitAfter(text, " ") {
				fb.pipe.Emit(family+"-chunk-"+requestID, word)
			}
			fb.pipe.Emit(family+"-complete-"+requestID, map[string]any{})
		}()
		return nil, nil
	}
}

func stringArg(raw json.RawMessage, name string) string {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return ""
	}
	var s string
	_ = json.Unmarshal(m[name], &s)
	return s
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
