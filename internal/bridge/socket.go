package bridge

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Socket is a Transport over a local stream connection to the native
// backend. Frames are newline-delimited JSON; responses are demultiplexed
// from pushed events by the presence of a request ID.
type Socket struct {
	conn   net.Conn
	logger *log.Logger

	writeMu sync.Mutex
	enc     *json.Encoder

	mu       sync.Mutex
	pending  map[string]chan frame
	subs     map[string]map[int64]Handler
	nextSub  int64
	closed   bool
	readDone chan struct{}
}

// DialSocket connects to the backend unix socket at path. A non-empty token
// is presented in the first frame; the backend drops unauthenticated peers.
func DialSocket(ctx context.Context, path, token string, logger *log.Logger) (*Socket, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("empty socket path")
	}
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, fmt.Errorf("dial backend socket: %w", err)
	}
	s := NewSocketConn(conn, logger)
	if token != "" {
		if err := s.write(frame{Auth: token}); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("send auth token: %w", err)
		}
	}
	return s, nil
}

// NewSocketConn wraps an established connection. Used directly in tests via
// net.Pipe.
func NewSocketConn(conn net.Conn, logger *log.Logger) *Socket {
	if logger == nil {
		logger = log.Default()
	}
	s := &Socket{
		conn:     conn,
		logger:   logger,
		enc:      json.NewEncoder(conn),
		pending:  map[string]chan frame{},
		subs:     map[string]map[int64]Handler{},
		readDone: make(chan struct{}),
	}
	go s.readLoop()
	return s
}

func (s *Socket) write(f frame) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.enc.Encode(f)
}

func (s *Socket) readLoop() {
	defer close(s.readDone)
	scanner := bufio.NewScanner(s.conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var f frame
		if err := json.Unmarshal(line, &f); err != nil {
			s.logger.Printf("bridge: dropping malformed frame: %v", err)
			continue
		}
		if f.Event != "" {
			s.dispatch(f.Event, f.Payload)
			continue
		}
		s.mu.Lock()
		ch, ok := s.pending[f.ID]
		if ok {
			delete(s.pending, f.ID)
		}
		s.mu.Unlock()
		if ok {
			ch <- f
		}
		// A response with no waiter belongs to a cancelled call; drop it.
	}
	s.failPending()
}

func (s *Socket) dispatch(event string, payload json.RawMessage) {
	s.mu.Lock()
	handlers := make([]Handler, 0, len(s.subs[event]))
	for _, h := range s.subs[event] {
		handlers = append(handlers, h)
	}
	s.mu.Unlock()
	for _, h := range handlers {
		h(payload)
	}
}

func (s *Socket) failPending() {
	s.mu.Lock()
	pending := s.pending
	s.pending = map[string]chan frame{}
	s.closed = true
	s.mu.Unlock()
	for _, ch := range pending {
		ok := false
		ch <- frame{OK: &ok, Error: &wireError{Kind: string(KindUnavailable), Message: ErrClosed.Error()}}
	}
}

// Call sends a command and waits for its response or context cancellation.
// Cancellation abandons the wait; a late response is silently dropped.
func (s *Socket) Call(ctx context.Context, command string, args any) (json.RawMessage, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	id := uuid.NewString()
	ch := make(chan frame, 1)
	s.pending[id] = ch
	s.mu.Unlock()

	var raw json.RawMessage
	if args != nil {
		b, err := json.Marshal(args)
		if err != nil {
			s.forget(id)
			return nil, fmt.Errorf("marshal args for %s: %w", command, err)
		}
		raw = b
	}
	if err := s.write(frame{ID: id, Command: command, Args: raw}); err != nil {
		s.forget(id)
		return nil, fmt.Errorf("send %s: %w", command, err)
	}

	select {
	case <-ctx.Done():
		s.forget(id)
		return nil, ctx.Err()
	case f := <-ch:
		if f.OK != nil && !*f.OK {
			return nil, responseError(command, f.Error)
		}
		return f.Result, nil
	}
}

func (s *Socket) forget(id string) {
	s.mu.Lock()
	delete(s.pending, id)
	s.mu.Unlock()
}

func responseError(command string, we *wireError) *CommandError {
	if we == nil {
		return &CommandError{Command: command, Kind: KindGeneric, Message: "backend reported failure"}
	}
	kind := Kind(we.Kind)
	if kind == "" {
		kind = Classify(we.Message)
	}
	return &CommandError{Command: command, Kind: kind, Message: we.Message}
}

// Subscribe registers h for pushed frames named event.
func (s *Socket) Subscribe(event string, h Handler) (func(), error) {
	if event == "" {
		return nil, fmt.Errorf("empty event name")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if s.subs[event] == nil {
		s.subs[event] = map[int64]Handler{}
	}
	s.nextSub++
	id := s.nextSub
	s.subs[event][id] = h
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if m := s.subs[event]; m != nil {
			delete(m, id)
			if len(m) == 0 {
				delete(s.subs, event)
			}
		}
	}, nil
}

// Close shuts the connection down and fails every pending call.
func (s *Socket) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	err := s.conn.Close()
	<-s.readDone
	return err
}
