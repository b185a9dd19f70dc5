package query

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRulesFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadRules(t *testing.T) {
	path := writeRulesFile(t, `
rules:
  - event: email:flagged
    keys: [emails]
  - event: sync:completed
    keys: [folders, conversations]
`)
	rules, err := LoadRules(path)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "email:flagged", rules[0].Event)
	assert.Equal(t, []string{"emails"}, rules[0].Keys)
	assert.Equal(t, []string{"folders", "conversations"}, rules[1].Keys)
}

func TestLoadRulesValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing event", "rules:\n  - keys: [emails]\n"},
		{"missing keys", "rules:\n  - event: email:flagged\n"},
		{"not yaml", "{{{"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadRules(writeRulesFile(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadRulesMissingFile(t *testing.T) {
	_, err := LoadRules(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestMergeRules(t *testing.T) {
	base := []Rule{
		{Event: "label:created", Keys: []string{"labels"}},
		{Event: "email:updated", Keys: []string{"emails"}},
	}
	overrides := []Rule{
		{Event: "email:updated", Keys: []string{"emails", "conversations"}},
		{Event: "email:flagged", Keys: []string{"emails"}},
	}

	merged := MergeRules(base, overrides, nil)
	require.Len(t, merged, 3)
	assert.Equal(t, []string{"labels"}, merged[0].Keys)
	assert.Equal(t, []string{"emails", "conversations"}, merged[1].Keys, "override replaces the base rule in place")
	assert.Equal(t, "email:flagged", merged[2].Event)
}

func TestMergeRulesDropsDuplicatesWithinOneSource(t *testing.T) {
	overrides := []Rule{
		{Event: "email:flagged", Keys: []string{"emails"}},
		{Event: "email:flagged", Keys: []string{"conversations"}},
	}
	merged := MergeRules(nil, overrides, nil)
	require.Len(t, merged, 1)
	assert.Equal(t, []string{"emails"}, merged[0].Keys, "first duplicate wins")
}
