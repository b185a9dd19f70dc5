package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Streaming commands answer through a per-request three-event family:
//
//	<family>-chunk-<requestID>     zero or more token payloads
//	<family>-complete-<requestID>  exactly one terminal, or
//	<family>-error-<requestID>     exactly one terminal
//
// Stream subscribes all three before issuing the command, accumulates
// chunks, and releases every subscription once a terminal event arrives.
// A second terminal for the same request is ignored.

type chunkPayload struct {
	Chunk string `json:"chunk"`
}

type completePayload struct {
	Result string `json:"result,omitempty"`
}

// Stream runs a streaming backend command. family is the event-name prefix
// (e.g. "corvus:ask-ai"); onChunk, if non-nil, observes each token as it
// arrives. The accumulated text is returned once the request completes.
func (b *Bridge) Stream(ctx context.Context, command, family string, args map[string]any, onChunk func(string)) (string, error) {
	if strings.TrimSpace(command) == "" {
		return "", fmt.Errorf("command name cannot be empty")
	}
	if strings.TrimSpace(family) == "" {
		return "", fmt.Errorf("event family cannot be empty")
	}

	requestID := uuid.NewString()
	if args == nil {
		args = map[string]any{}
	}
	args["request_id"] = requestID

	var (
		mu       sync.Mutex
		builder  strings.Builder
		terminal sync.Once
		done     = make(chan error, 1)
	)
	finish := func(err error) {
		terminal.Do(func() { done <- err })
	}

	unsubChunk, err := b.Listen(family+"-chunk-"+requestID, func(payload json.RawMessage) {
		token := decodeChunk(payload)
		mu.Lock()
		builder.WriteString(token)
		mu.Unlock()
		if onChunk != nil {
			onChunk(token)
		}
	})
	if err != nil {
		return "", fmt.Errorf("subscribe chunk events: %w", err)
	}
	defer unsubChunk()

	unsubComplete, err := b.Listen(family+"-complete-"+requestID, func(payload json.RawMessage) {
		var cp completePayload
		_ = json.Unmarshal(payload, &cp)
		if cp.Result != "" {
			mu.Lock()
			if builder.Len() == 0 {
				builder.WriteString(cp.Result)
			}
			mu.Unlock()
		}
		finish(nil)
	})
	if err != nil {
		return "", fmt.Errorf("subscribe complete event: %w", err)
	}
	defer unsubComplete()

	unsubError, err := b.Listen(family+"-error-"+requestID, func(payload json.RawMessage) {
		var we wireError
		_ = json.Unmarshal(payload, &we)
		finish(responseError(command, &we))
	})
	if err != nil {
		return "", fmt.Errorf("subscribe error event: %w", err)
	}
	defer unsubError()

	if err := b.Call(ctx, command, args, nil); err != nil {
		return "", err
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case err := <-done:
		mu.Lock()
		out := builder.String()
		mu.Unlock()
		if err != nil {
			return "", err
		}
		return out, nil
	}
}

// decodeChunk accepts either a bare JSON string or a {"chunk": ...} object;
// both shapes exist across backend versions.
func decodeChunk(payload json.RawMessage) string {
	var s string
	if err := json.Unmarshal(payload, &s); err == nil {
		return s
	}
	var cp chunkPayload
	if err := json.Unmarshal(payload, &cp); err == nil {
		return cp.Chunk
	}
	return ""
}
