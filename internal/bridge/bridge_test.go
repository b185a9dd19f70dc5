package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBridgeCallDecodesResult(t *testing.T) {
	pipe := NewPipe()
	pipe.Handle("get_labels", func(json.RawMessage) (any, error) {
		return []map[string]string{{"id": "l-1", "name": "Work"}}, nil
	})
	b := New(pipe, nil)

	var labels []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	require.NoError(t, b.Call(context.Background(), "get_labels", nil, &labels))
	require.Len(t, labels, 1)
	assert.Equal(t, "Work", labels[0].Name)
}

func TestBridgeCallPassesArgs(t *testing.T) {
	pipe := NewPipe()
	var got string
	pipe.Handle("get_email", func(raw json.RawMessage) (any, error) {
		var args struct {
			ID string `json:"id"`
		}
		require.NoError(t, json.Unmarshal(raw, &args))
		got = args.ID
		return nil, nil
	})
	b := New(pipe, nil)

	require.NoError(t, b.Call(context.Background(), "get_email", map[string]any{"id": "e-7"}, nil))
	assert.Equal(t, "e-7", got)
}

func TestBridgeCallNormalizesErrors(t *testing.T) {
	pipe := NewPipe()
	pipe.Handle("failing", func(json.RawMessage) (any, error) {
		return nil, errors.New("email not found")
	})
	b := New(pipe, nil)

	err := b.Call(context.Background(), "failing", nil, nil)
	var ce *CommandError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "failing", ce.Command)
	assert.Equal(t, KindNotFound, ce.Kind)
}

func TestBridgeCallUnknownCommandIsUnsupported(t *testing.T) {
	b := New(NewPipe(), nil)
	err := b.Call(context.Background(), "analyze_email", nil, nil)
	assert.True(t, IsUnsupported(err))
}

func TestBridgeCallEmptyCommand(t *testing.T) {
	b := New(NewPipe(), nil)
	assert.Error(t, b.Call(context.Background(), "  ", nil, nil))
}

func TestBridgeCallContextCancellationPassesThrough(t *testing.T) {
	b := New(NewPipe(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := b.Call(ctx, "get_labels", nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBridgeListenAndUnsubscribe(t *testing.T) {
	pipe := NewPipe()
	b := New(pipe, nil)

	var seen []string
	unsub, err := b.Listen("label:created", func(payload json.RawMessage) {
		seen = append(seen, string(payload))
	})
	require.NoError(t, err)

	pipe.Emit("label:created", map[string]string{"id": "l-1"})
	require.Len(t, seen, 1)
	assert.JSONEq(t, `{"id":"l-1"}`, seen[0])

	unsub()
	unsub() // calling twice is harmless
	pipe.Emit("label:created", map[string]string{"id": "l-2"})
	assert.Len(t, seen, 1)
	assert.Equal(t, 0, pipe.SubscriberCount("label:created"))
}

func TestBridgeCallAfterClose(t *testing.T) {
	pipe := NewPipe()
	b := New(pipe, nil)
	require.NoError(t, b.Close())

	err := b.Call(context.Background(), "get_labels", nil, nil)
	var ce *CommandError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, KindUnavailable, ce.Kind)
}
