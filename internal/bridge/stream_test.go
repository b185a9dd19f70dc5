package bridge

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// startStreaming registers a streaming command on the pipe that replies with
// the given script: each chunk, then the terminal events in order.
func startStreaming(pipe *Pipe, family string, chunks []string, terminals ...string) {
	pipe.Handle("stream_cmd", func(raw json.RawMessage) (any, error) {
		var args struct {
			RequestID string `json:"request_id"`
		}
		_ = json.Unmarshal(raw, &args)
		go func() {
			for _, c := range chunks {
				pipe.Emit(family+"-chunk-"+args.RequestID, c)
			}
			for _, term := range terminals {
				switch term {
				case "complete":
					pipe.Emit(family+"-complete-"+args.RequestID, map[string]any{})
				case "error":
					pipe.Emit(family+"-error-"+args.RequestID, map[string]any{
						"kind": "generic", "message": "model failed",
					})
				}
			}
		}()
		return nil, nil
	})
}

func TestStreamAccumulatesChunks(t *testing.T) {
	defer goleak.VerifyNone(t)

	pipe := NewPipe()
	startStreaming(pipe, "corvus:ask-ai", []string{"Hello", ", ", "world"}, "complete")
	b := New(pipe, nil)

	var tokens []string
	out, err := b.Stream(context.Background(), "stream_cmd", "corvus:ask-ai", nil, func(tok string) {
		tokens = append(tokens, tok)
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello, world", out)
	assert.Equal(t, []string{"Hello", ", ", "world"}, tokens)
}

func TestStreamErrorTerminal(t *testing.T) {
	pipe := NewPipe()
	startStreaming(pipe, "corvus:ask-ai", []string{"partial"}, "error")
	b := New(pipe, nil)

	_, err := b.Stream(context.Background(), "stream_cmd", "corvus:ask-ai", nil, nil)
	var ce *CommandError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "model failed", ce.Message)
}

// A duplicate terminal (or a complete arriving after an error) must not
// change the already-settled outcome.
func TestStreamTerminalIsExclusive(t *testing.T) {
	pipe := NewPipe()
	startStreaming(pipe, "corvus:ask-ai", nil, "error", "complete", "complete")
	b := New(pipe, nil)

	_, err := b.Stream(context.Background(), "stream_cmd", "corvus:ask-ai", nil, nil)
	assert.Error(t, err, "the first terminal wins")
}

func TestStreamReleasesSubscriptions(t *testing.T) {
	pipe := NewPipe()
	startStreaming(pipe, "corvus:ask-ai", []string{"x"}, "complete")
	b := New(pipe, nil)

	_, err := b.Stream(context.Background(), "stream_cmd", "corvus:ask-ai", nil, nil)
	require.NoError(t, err)

	// Every per-request event name must be gone once the stream settles.
	assert.Eventually(t, func() bool {
		pipe.mu.Lock()
		defer pipe.mu.Unlock()
		return len(pipe.subs) == 0
	}, time.Second, 10*time.Millisecond)
}

func TestStreamCompleteCarriesResultWhenNoChunksArrived(t *testing.T) {
	pipe := NewPipe()
	pipe.Handle("stream_cmd", func(raw json.RawMessage) (any, error) {
		var args struct {
			RequestID string `json:"request_id"`
		}
		_ = json.Unmarshal(raw, &args)
		go pipe.Emit("corvus:analyze-email-complete-"+args.RequestID, map[string]any{"result": "full answer"})
		return nil, nil
	})
	b := New(pipe, nil)

	out, err := b.Stream(context.Background(), "stream_cmd", "corvus:analyze-email", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "full answer", out)
}

func TestStreamCommandFailureShortCircuits(t *testing.T) {
	b := New(NewPipe(), nil)
	_, err := b.Stream(context.Background(), "missing_cmd", "corvus:ask-ai", nil, nil)
	assert.True(t, IsUnsupported(err))
}

func TestStreamContextCancellation(t *testing.T) {
	pipe := NewPipe()
	// Command accepted but no terminal ever arrives.
	pipe.Handle("stream_cmd", func(json.RawMessage) (any, error) { return nil, nil })
	b := New(pipe, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := b.Stream(ctx, "stream_cmd", "corvus:ask-ai", nil, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDecodeChunkShapes(t *testing.T) {
	assert.Equal(t, "plain", decodeChunk(json.RawMessage(`"plain"`)))
	assert.Equal(t, "wrapped", decodeChunk(json.RawMessage(`{"chunk":"wrapped"}`)))
	assert.Equal(t, "", decodeChunk(json.RawMessage(`42`)))
}
