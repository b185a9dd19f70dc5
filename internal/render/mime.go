package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-message/mail"

	"github.com/corvusmail/corvus/internal/models"
)

// ParsedMessage is the result of scanning one raw RFC 822 message.
type ParsedMessage struct {
	PlainText   string
	HTML        string
	Attachments []models.Attachment
}

// ParseRawMessage scans a raw message, extracting body parts and attachment
// metadata. This is the "discovered at parse time" half of the attachment
// lifecycle; content is cached separately, on demand.
func ParseRawMessage(emailID string, raw io.Reader) (*ParsedMessage, error) {
	mr, err := mail.CreateReader(raw)
	if err != nil {
		return nil, fmt.Errorf("parse message: %w", err)
	}

	parsed := &ParsedMessage{}
	index := 0
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read message part: %w", err)
		}
		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			ctype, _, _ := h.ContentType()
			body, err := io.ReadAll(part.Body)
			if err != nil {
				return nil, fmt.Errorf("read body part: %w", err)
			}
			switch {
			case strings.HasPrefix(ctype, "text/html"):
				parsed.HTML = string(body)
			case strings.HasPrefix(ctype, "text/plain"), ctype == "":
				parsed.PlainText = string(body)
			default:
				// Inline non-text parts (embedded images) are attachments
				// from the cache's point of view.
				att := attachmentMeta(emailID, index, ctype, "", h.Get("Content-Id"), true, part.Body)
				parsed.Attachments = append(parsed.Attachments, att)
				index++
			}
		case *mail.AttachmentHeader:
			filename, _ := h.Filename()
			ctype, _, _ := h.ContentType()
			att := attachmentMeta(emailID, index, ctype, filename, h.Get("Content-Id"), false, part.Body)
			parsed.Attachments = append(parsed.Attachments, att)
			index++
		}
	}
	return parsed, nil
}

func attachmentMeta(emailID string, index int, ctype, filename, contentID string, inline bool, body io.Reader) models.Attachment {
	size, _ := io.Copy(io.Discard, body)
	if filename == "" {
		filename = fmt.Sprintf("attachment-%d", index+1)
	}
	return models.Attachment{
		ID:        fmt.Sprintf("%s/%d", emailID, index),
		EmailID:   emailID,
		Filename:  filename,
		MimeType:  ctype,
		Size:      size,
		Inline:    inline,
		ContentID: strings.Trim(contentID, "<>"),
	}
}
