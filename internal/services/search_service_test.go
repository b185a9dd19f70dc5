package services

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvusmail/corvus/internal/bridge"
	"github.com/corvusmail/corvus/internal/db"
	"github.com/corvusmail/corvus/internal/models"
	"github.com/corvusmail/corvus/internal/search"
)

func newSearchFixture(t *testing.T) (*SearchServiceImpl, *bridge.Pipe) {
	t.Helper()
	store, err := db.Open(context.Background(), filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	pipe := bridge.NewPipe()
	return NewSearchService(bridge.New(pipe, nil), db.NewSearchStore(store)), pipe
}

func TestSearchSendsNormalizedQuery(t *testing.T) {
	svc, pipe := newSearchFixture(t)
	var gotQuery string
	pipe.Handle("search_emails", func(raw json.RawMessage) (any, error) {
		var args struct {
			Query      string `json:"query"`
			AccountID  string `json:"account_id"`
			MaxResults int    `json:"max_results"`
		}
		require.NoError(t, json.Unmarshal(raw, &args))
		gotQuery = args.Query
		assert.Equal(t, "acct-1", args.AccountID)
		assert.Equal(t, 25, args.MaxResults)
		return map[string]any{"emails": []models.Email{{ID: "e-1"}}, "total": 1}, nil
	})

	result, err := svc.Search(context.Background(), "  from:ada@example.com   AND    urgent ", SearchOptions{
		AccountID:  "acct-1",
		MaxResults: 25,
	})
	require.NoError(t, err)
	assert.Equal(t, "from:ada@example.com AND urgent", gotQuery)
	assert.Equal(t, 1, result.Total)
	require.Len(t, result.Emails, 1)
	require.Len(t, result.Tokens, 3)
	assert.Equal(t, search.TokenField, result.Tokens[0].Kind)
}

func TestSearchEmptyQuery(t *testing.T) {
	svc, _ := newSearchFixture(t)
	_, err := svc.Search(context.Background(), "   ", SearchOptions{})
	assert.Error(t, err)
}

func TestSaveSearchNormalizesAndRoundTrips(t *testing.T) {
	svc, _ := newSearchFixture(t)
	ctx := context.Background()

	saved, err := svc.SaveSearch(ctx, "acct-1", "urgent from ada", `from:ada@example.com    AND subject:"urgent issue"`, "triage helper", "work")
	require.NoError(t, err)
	assert.Equal(t, `from:ada@example.com AND subject:"urgent issue"`, saved.Query)

	list, err := svc.ListSaved(ctx, "acct-1", "")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "urgent from ada", list[0].Name)

	require.NoError(t, svc.RecordUsage(ctx, "acct-1", saved.ID))
	list, err = svc.ListSaved(ctx, "acct-1", "work")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].UseCount)

	require.NoError(t, svc.DeleteSaved(ctx, "acct-1", saved.ID))
	list, err = svc.ListSaved(ctx, "acct-1", "")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSearchServiceValidation(t *testing.T) {
	svc, _ := newSearchFixture(t)
	ctx := context.Background()

	_, err := svc.SaveSearch(ctx, "acct-1", "name", "  ", "", "")
	assert.Error(t, err)
	_, err = svc.ListSaved(ctx, "", "")
	assert.Error(t, err)
	assert.Error(t, svc.DeleteSaved(ctx, "", 1))
	assert.Error(t, svc.RecordUsage(ctx, " ", 1))
}
