package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// PipeHandler services one command on the in-memory backend.
type PipeHandler func(args json.RawMessage) (any, error)

// Pipe is an in-process Transport with a scriptable backend side. It backs
// the --fake-backend development mode and every test that needs a backend.
// Calls run the registered handler synchronously; Emit delivers an event to
// current subscribers synchronously, which keeps tests deterministic.
type Pipe struct {
	mu       sync.Mutex
	handlers map[string]PipeHandler
	subs     map[string]map[int64]Handler
	nextSub  int64
	closed   bool
}

// NewPipe creates an empty in-memory transport.
func NewPipe() *Pipe {
	return &Pipe{
		handlers: map[string]PipeHandler{},
		subs:     map[string]map[int64]Handler{},
	}
}

// Handle registers the backend-side implementation of a command.
func (p *Pipe) Handle(command string, h PipeHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[command] = h
}

// Emit pushes an event to all current subscribers.
func (p *Pipe) Emit(event string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return
	}
	p.mu.Lock()
	handlers := make([]Handler, 0, len(p.subs[event]))
	for _, h := range p.subs[event] {
		handlers = append(handlers, h)
	}
	p.mu.Unlock()
	for _, h := range handlers {
		h(raw)
	}
}

// SubscriberCount reports how many handlers are registered for event.
func (p *Pipe) SubscriberCount(event string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs[event])
}

func (p *Pipe) Call(ctx context.Context, command string, args any) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrClosed
	}
	h, ok := p.handlers[command]
	p.mu.Unlock()
	if !ok {
		return nil, &CommandError{Command: command, Kind: KindUnsupported, Message: fmt.Sprintf("unknown command %q", command)}
	}
	var raw json.RawMessage
	if args != nil {
		b, err := json.Marshal(args)
		if err != nil {
			return nil, fmt.Errorf("marshal args for %s: %w", command, err)
		}
		raw = b
	}
	result, err := h(raw)
	if err != nil {
		var ce *CommandError
		if !errors.As(err, &ce) {
			ce = &CommandError{Command: command, Kind: Classify(err.Error()), Message: err.Error()}
		}
		return nil, ce
	}
	if result == nil {
		return nil, nil
	}
	out, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshal result of %s: %w", command, err)
	}
	return out, nil
}

func (p *Pipe) Subscribe(event string, h Handler) (func(), error) {
	if event == "" {
		return nil, fmt.Errorf("empty event name")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrClosed
	}
	if p.subs[event] == nil {
		p.subs[event] = map[int64]Handler{}
	}
	p.nextSub++
	id := p.nextSub
	p.subs[event][id] = h
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if m := p.subs[event]; m != nil {
			delete(m, id)
			if len(m) == 0 {
				delete(p.subs, event)
			}
		}
	}, nil
}

func (p *Pipe) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.subs = map[string]map[int64]Handler{}
	return nil
}
