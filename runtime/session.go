package runtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/go-playground/validator/v10"

	"match-mate/contract"
	"match-mate/domain"
	"match-mate/errors"
	"match-mate/services"
)

type SessionState int

const (
	StateUnjoined SessionState = iota
	StateJoined
	StateClosed
)

// Session interprets the frames of one connection. Frames arrive in the order
// the transport read them and are handled one at a time; the mutex only
// guards the state against a concurrent Close from the transport's teardown
// path.
//
// A connection must join before any other event is accepted. Joining again
// rebinds the connection to the new identity (last join wins).
type Session struct {
	log      *slog.Logger
	sink     contract.EventSink
	presence contract.IPresence
	chat     services.IChatService
	validate *validator.Validate

	mu    sync.Mutex
	state SessionState
	user  string
}

func NewSession(log *slog.Logger, sink contract.EventSink, presence contract.IPresence, chat services.IChatService) *Session {
	return &Session{
		log:      log,
		sink:     sink,
		presence: presence,
		chat:     chat,
		validate: validator.New(),
		state:    StateUnjoined,
	}
}

// User returns the identity the session is bound to, empty before join.
func (s *Session) User() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// HandleFrame dispatches one inbound frame. Protocol violations and service
// failures are answered with an error frame on the session's own connection
// and never tear the session down; only a closed session reports an error to
// the caller.
func (s *Session) HandleFrame(ctx context.Context, f domain.Frame) error {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return errors.ErrSessionClosed
	}
	state := s.state
	user := s.user
	s.mu.Unlock()

	if f.Event == domain.EventJoin {
		s.handleJoin(ctx, f.Payload)
		return nil
	}

	if state != StateJoined {
		s.log.Warn("Frame before join, rejecting", "conn", s.sink.ID(), "event", f.Event)
		s.sendError(ctx, "not-joined", errors.ErrNotJoined.Error())
		return nil
	}

	switch f.Event {
	case domain.EventTyping:
		s.handleTyping(ctx, user, f.Payload)
	case domain.EventMessage:
		s.handleMessage(ctx, f.Payload)
	case domain.EventRead:
		s.handleRead(ctx, f.Payload)
	default:
		s.sendError(ctx, "unknown-event", "unknown event: "+f.Event)
	}
	return nil
}

func (s *Session) handleJoin(ctx context.Context, raw json.RawMessage) {
	var p domain.JoinPayload
	if !s.decode(ctx, raw, &p) {
		return
	}

	s.presence.Join(p.User, s.sink)

	s.mu.Lock()
	rebound := s.state == StateJoined && s.user != p.User
	s.state = StateJoined
	s.user = p.User
	s.mu.Unlock()

	if rebound {
		s.log.Info("Connection rebound to new identity", "conn", s.sink.ID(), "user", p.User)
		return
	}
	s.log.Info("User joined", "conn", s.sink.ID(), "user", p.User)
}

func (s *Session) handleTyping(ctx context.Context, user string, raw json.RawMessage) {
	var p domain.TypingPayload
	if !s.decode(ctx, raw, &p) {
		return
	}
	if err := s.chat.Typing(ctx, user, p.To); err != nil {
		s.answerWith(ctx, err)
	}
}

func (s *Session) handleMessage(ctx context.Context, raw json.RawMessage) {
	var p domain.MessagePayload
	if !s.decode(ctx, raw, &p) {
		return
	}
	if _, err := s.chat.Send(ctx, p.From, p.To, p.Text); err != nil {
		s.answerWith(ctx, err)
	}
}

func (s *Session) handleRead(ctx context.Context, raw json.RawMessage) {
	var p domain.ReadPayload
	if !s.decode(ctx, raw, &p) {
		return
	}
	if _, err := s.chat.MarkRead(ctx, p.From, p.To); err != nil {
		s.answerWith(ctx, err)
	}
}

// Close detaches the connection from presence. Safe to call more than once;
// the transport defers it on every exit path.
func (s *Session) Close() {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.state = StateClosed
	user := s.user
	s.mu.Unlock()

	s.presence.Leave(s.sink)
	if user != "" {
		s.log.Info("User left", "conn", s.sink.ID(), "user", user)
	}
}

// decode unmarshals and validates a payload, answering the connection with an
// error frame on failure.
func (s *Session) decode(ctx context.Context, raw json.RawMessage, out any) bool {
	if err := json.Unmarshal(raw, out); err != nil {
		s.sendError(ctx, "bad-payload", err.Error())
		return false
	}
	if err := s.validate.Struct(out); err != nil {
		s.sendError(ctx, "bad-payload", err.Error())
		return false
	}
	return true
}

func (s *Session) answerWith(ctx context.Context, err error) {
	code := "internal"
	switch {
	case errors.IsValidation(err):
		code = "validation"
	case errors.IsStorage(err):
		code = "storage"
	}
	s.sendError(ctx, code, err.Error())
}

func (s *Session) sendError(ctx context.Context, code, reason string) {
	f, err := domain.NewFrame(domain.EventError, domain.ErrorNotice{Code: code, Reason: reason})
	if err != nil {
		return
	}
	if err := s.sink.Consume(ctx, f); err != nil {
		s.log.Debug("Could not answer with error frame", "conn", s.sink.ID(), "error", err)
	}
}
