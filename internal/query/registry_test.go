package query

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvusmail/corvus/internal/bridge"
)

func newTestRegistry(t *testing.T, rules []Rule) (*Registry, *bridge.Pipe, *Cache) {
	t.Helper()
	pipe := bridge.NewPipe()
	b := bridge.New(pipe, nil)
	cache := NewCache(nil)
	return NewRegistry(b, cache, rules, nil), pipe, cache
}

func TestRegistrySetupRegistersEveryRule(t *testing.T) {
	rules := []Rule{
		{Event: "label:created", Keys: []string{"labels"}},
		{Event: "folder:created", Keys: []string{"folders"}},
	}
	r, pipe, _ := newTestRegistry(t, rules)

	require.NoError(t, r.Setup())
	assert.True(t, r.Active())
	assert.Equal(t, 1, pipe.SubscriberCount("label:created"))
	assert.Equal(t, 1, pipe.SubscriberCount("folder:created"))
}

func TestRegistrySetupIsAtMostOnce(t *testing.T) {
	rules := []Rule{{Event: "label:created", Keys: []string{"labels"}}}
	r, pipe, _ := newTestRegistry(t, rules)

	const callers = 10
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, r.Setup())
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, pipe.SubscriberCount("label:created"),
		"racing Setup calls must register each event exactly once")
}

func TestRegistryDuplicateRuleIsDropped(t *testing.T) {
	rules := []Rule{
		{Event: "label:created", Keys: []string{"labels"}},
		{Event: "label:created", Keys: []string{"something-else"}},
	}
	r, pipe, cache := newTestRegistry(t, rules)
	require.NoError(t, r.Setup())

	assert.Equal(t, 1, pipe.SubscriberCount("label:created"))

	// First rule wins: the event invalidates "labels", not the duplicate's key.
	cache.Set("labels", "old")
	cache.Set("something-else", "old")
	pipe.Emit("label:created", map[string]string{"id": "l-1"})

	refetched := func(key string) bool {
		fresh := false
		_, err := cache.Get(context.Background(), key, func(context.Context) (any, error) {
			fresh = true
			return "new", nil
		})
		require.NoError(t, err)
		return fresh
	}
	assert.True(t, refetched("labels"))
	assert.False(t, refetched("something-else"))
}

func TestRegistryEventInvalidatesFilteredVariants(t *testing.T) {
	rules := []Rule{{Event: "folder:created", Keys: []string{"folders"}}}
	r, pipe, cache := newTestRegistry(t, rules)
	require.NoError(t, r.Setup())

	cache.Set("folders?account_id=acct-1", "old")
	pipe.Emit("folder:created", map[string]string{"id": "f-9"})

	var calls int
	v, err := cache.Get(context.Background(), "folders?account_id=acct-1", func(context.Context) (any, error) {
		calls++
		return "new", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "new", v)
	assert.Equal(t, 1, calls)
}

func TestRegistryTeardownReleasesSubscriptionsAndAllowsReInit(t *testing.T) {
	rules := []Rule{{Event: "view:updated", Keys: []string{"views"}}}
	r, pipe, _ := newTestRegistry(t, rules)

	require.NoError(t, r.Setup())
	require.Equal(t, 1, pipe.SubscriberCount("view:updated"))

	r.Teardown()
	assert.False(t, r.Active())
	assert.Equal(t, 0, pipe.SubscriberCount("view:updated"))

	require.NoError(t, r.Setup())
	assert.True(t, r.Active())
	assert.Equal(t, 1, pipe.SubscriberCount("view:updated"))
}

func TestRegistrySetupFailsOnlyWhenNothingRegisters(t *testing.T) {
	pipe := bridge.NewPipe()
	require.NoError(t, pipe.Close())
	b := bridge.New(pipe, nil)
	r := NewRegistry(b, NewCache(nil), []Rule{{Event: "label:created", Keys: []string{"labels"}}}, nil)

	err := r.Setup()
	assert.Error(t, err)
	assert.False(t, r.Active())
}

func TestDefaultRulesHaveNoDuplicates(t *testing.T) {
	seen := map[string]bool{}
	for _, rule := range DefaultRules() {
		assert.False(t, seen[rule.Event], "duplicate rule for %q", rule.Event)
		seen[rule.Event] = true
		assert.NotEmpty(t, rule.Keys, "rule %q has no keys", rule.Event)
	}
}
