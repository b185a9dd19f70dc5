package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
)

// Bridge is the command boundary to the native backend. Every data fetch and
// mutation in the client goes through Call; pushed change notifications
// arrive through Listen. There is no retry policy: commands are fire-once,
// and UI-level side effects (cache updates, notices) belong to the caller.
type Bridge struct {
	transport Transport
	logger    *log.Logger
}

// New wraps a transport.
func New(t Transport, logger *log.Logger) *Bridge {
	if logger == nil {
		logger = log.Default()
	}
	return &Bridge{transport: t, logger: logger}
}

// Call invokes a backend command and decodes its result into out (which may
// be nil for commands without a result). Failures are normalized to
// *CommandError with a structured kind.
func (b *Bridge) Call(ctx context.Context, command string, args any, out any) error {
	if strings.TrimSpace(command) == "" {
		return fmt.Errorf("command name cannot be empty")
	}
	raw, err := b.transport.Call(ctx, command, args)
	if err != nil {
		var ce *CommandError
		if errors.As(err, &ce) {
			return ce
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return &CommandError{Command: command, Kind: Classify(err.Error()), Message: err.Error()}
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &CommandError{Command: command, Kind: KindGeneric, Message: fmt.Sprintf("decode result: %v", err)}
	}
	return nil
}

// Listen subscribes to a pushed backend event. The returned function
// unsubscribes; calling it more than once is harmless.
func (b *Bridge) Listen(event string, h Handler) (func(), error) {
	if strings.TrimSpace(event) == "" {
		return nil, fmt.Errorf("event name cannot be empty")
	}
	return b.transport.Subscribe(event, h)
}

// Close releases the underlying transport.
func (b *Bridge) Close() error {
	return b.transport.Close()
}
