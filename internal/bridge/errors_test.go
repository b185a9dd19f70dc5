package bridge

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		message  string
		expected Kind
	}{
		{"credentials missing for account", KindCredentialsMissing},
		{"Archive folder not found", KindFolderNotFound},
		{"folder not found: Projects", KindFolderNotFound},
		{"email not found", KindNotFound},
		{"unknown command \"analyze_email\"", KindUnsupported},
		{"operation unsupported by this backend", KindUnsupported},
		{"backend unavailable", KindUnavailable},
		{"dial unix: connection refused", KindUnavailable},
		{"bridge transport closed", KindUnavailable},
		{"something else entirely", KindGeneric},
		{"", KindGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.message))
		})
	}
}

func TestErrorKind(t *testing.T) {
	ce := &CommandError{Command: "get_email", Kind: KindNotFound, Message: "email not found"}
	assert.Equal(t, KindNotFound, ErrorKind(ce))
	assert.Equal(t, KindNotFound, ErrorKind(fmt.Errorf("failed: %w", ce)))
	assert.Equal(t, KindGeneric, ErrorKind(errors.New("plain")))
	assert.Equal(t, KindGeneric, ErrorKind(nil))
}

func TestIsUnsupported(t *testing.T) {
	assert.True(t, IsUnsupported(&CommandError{Kind: KindUnsupported}))
	assert.True(t, IsUnsupported(fmt.Errorf("wrap: %w", &CommandError{Kind: KindUnsupported})))
	assert.False(t, IsUnsupported(&CommandError{Kind: KindNotFound}))
	assert.False(t, IsUnsupported(errors.New("plain")))
}

func TestCommandErrorString(t *testing.T) {
	assert.Equal(t, "get_email: email not found",
		(&CommandError{Command: "get_email", Message: "email not found"}).Error())
	assert.Equal(t, "bare message", (&CommandError{Message: "bare message"}).Error())
}
