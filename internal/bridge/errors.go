package bridge

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a backend failure into a user-facing category.
// Backends that speak the current protocol set the kind explicitly; older
// builds only return a message string, so Classify keeps the historical
// substring matching alive as a fallback.
type Kind string

const (
	KindCredentialsMissing Kind = "credentials_missing"
	KindFolderNotFound     Kind = "folder_not_found"
	KindNotFound           Kind = "not_found"
	KindInvalidArgument    Kind = "invalid_argument"
	KindUnsupported        Kind = "unsupported"
	KindUnavailable        Kind = "unavailable"
	KindGeneric            Kind = "generic"
)

// CommandError is the normalized failure returned by every bridge call.
type CommandError struct {
	Command string
	Kind    Kind
	Message string
}

func (e *CommandError) Error() string {
	if e.Command == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Command, e.Message)
}

// ErrClosed is returned for calls issued after the transport shut down.
var ErrClosed = errors.New("bridge transport closed")

// Classify maps a bare backend message string to an error kind.
// Substring matching is brittle (a reworded backend message silently falls
// through to generic) but it is what pre-kind backends give us.
func Classify(message string) Kind {
	m := strings.ToLower(message)
	switch {
	case strings.Contains(m, "credentials"):
		return KindCredentialsMissing
	case strings.Contains(m, "archive folder not found"), strings.Contains(m, "folder not found"):
		return KindFolderNotFound
	case strings.Contains(m, "not found"):
		return KindNotFound
	case strings.Contains(m, "unsupported"), strings.Contains(m, "unknown command"):
		return KindUnsupported
	case strings.Contains(m, "unavailable"), strings.Contains(m, "connection refused"), strings.Contains(m, "transport closed"):
		return KindUnavailable
	default:
		return KindGeneric
	}
}

// ErrorKind extracts the kind from an error chain, or KindGeneric.
func ErrorKind(err error) Kind {
	var ce *CommandError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindGeneric
}

// IsUnsupported reports whether the backend rejected the command as unknown,
// which is how callers decide to fall back to a local implementation.
func IsUnsupported(err error) bool {
	return ErrorKind(err) == KindUnsupported
}
