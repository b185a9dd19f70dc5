package services

import (
	"errors"
	"fmt"

	"github.com/corvusmail/corvus/internal/bridge"
)

// Standard service errors
var (
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input provided")

	// Entity specific errors
	ErrAccountNotFound = errors.New("account not found")
	ErrFolderNotFound  = errors.New("folder not found")
	ErrLabelNotFound   = errors.New("label not found")
	ErrEmailNotFound   = errors.New("email not found")

	// AI service specific errors
	ErrAIUnavailable = errors.New("AI provider not available")
)

// UserMessage turns a failure into the notice shown to the user: a specific
// message for the known categories, otherwise "Failed to <action>: <cause>".
func UserMessage(action string, err error) string {
	switch bridge.ErrorKind(err) {
	case bridge.KindCredentialsMissing:
		return "Account credentials are missing or expired. Reconnect the account in Settings."
	case bridge.KindFolderNotFound:
		return "The target folder no longer exists. It may have been removed by another client."
	case bridge.KindUnavailable:
		return "The mail backend is not responding. Check that Corvus is running."
	default:
		return fmt.Sprintf("Failed to %s: %v", action, err)
	}
}

// IsPermanent reports whether retrying the same call can never succeed.
func IsPermanent(err error) bool {
	switch bridge.ErrorKind(err) {
	case bridge.KindNotFound, bridge.KindFolderNotFound, bridge.KindInvalidArgument, bridge.KindUnsupported:
		return true
	}
	return errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrNotFound)
}
