package runtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"match-mate/domain"
	"match-mate/errors"
	"match-mate/mocks"
)

// recordingSink keeps every frame pushed to it.
type recordingSink struct {
	id string

	mu     sync.Mutex
	frames []domain.Frame
}

func newRecordingSink() *recordingSink {
	return &recordingSink{id: uuid.NewString()}
}

func (s *recordingSink) ID() string {
	return s.id
}

func (s *recordingSink) Consume(ctx context.Context, f domain.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, f)
	return nil
}

func (s *recordingSink) recorded() []domain.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Frame(nil), s.frames...)
}

func mustFrame(t *testing.T, event string, payload any) domain.Frame {
	t.Helper()
	f, err := domain.NewFrame(event, payload)
	require.NoError(t, err)
	return f
}

func TestSession_Join_Registers_Presence(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	registry := NewRegistry()
	chat := mocks.NewMockIChatService(ctrl)
	sink := newRecordingSink()
	session := NewSession(slog.Default(), sink, registry, chat)

	err := session.HandleFrame(context.Background(), mustFrame(t, domain.EventJoin, domain.JoinPayload{User: "alice"}))
	req.NoError(err)

	req.Equal("alice", session.User())
	req.Len(registry.ConnectionsFor("alice"), 1)
}

func TestSession_Rejects_Events_Before_Join(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	registry := NewRegistry()
	chat := mocks.NewMockIChatService(ctrl)
	sink := newRecordingSink()
	session := NewSession(slog.Default(), sink, registry, chat)

	// A typing event before join never reaches the service
	err := session.HandleFrame(context.Background(), mustFrame(t, domain.EventTyping, domain.TypingPayload{To: "bob"}))
	req.NoError(err)

	frames := sink.recorded()
	req.Len(frames, 1)
	req.Equal(domain.EventError, frames[0].Event)

	var notice domain.ErrorNotice
	req.NoError(json.Unmarshal(frames[0].Payload, &notice))
	req.Equal("not-joined", notice.Code)
}

func TestSession_Message_Reaches_Chat_Service(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	registry := NewRegistry()
	chat := mocks.NewMockIChatService(ctrl)
	sink := newRecordingSink()
	session := NewSession(slog.Default(), sink, registry, chat)

	ctx := context.Background()
	req.NoError(session.HandleFrame(ctx, mustFrame(t, domain.EventJoin, domain.JoinPayload{User: "alice"})))

	chat.EXPECT().
		Send(gomock.Any(), "alice", "bob", "hi there").
		Return(domain.Message{From: "alice", To: "bob", Text: "hi there"}, nil)

	payload := domain.MessagePayload{From: "alice", To: "bob", Text: "hi there"}
	req.NoError(session.HandleFrame(ctx, mustFrame(t, domain.EventMessage, payload)))

	// No error frame came back
	req.Empty(sink.recorded())
}

func TestSession_Typing_Uses_Joined_Identity(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	registry := NewRegistry()
	chat := mocks.NewMockIChatService(ctrl)
	sink := newRecordingSink()
	session := NewSession(slog.Default(), sink, registry, chat)

	ctx := context.Background()
	req.NoError(session.HandleFrame(ctx, mustFrame(t, domain.EventJoin, domain.JoinPayload{User: "alice"})))

	chat.EXPECT().Typing(gomock.Any(), "alice", "bob").Return(nil)

	req.NoError(session.HandleFrame(ctx, mustFrame(t, domain.EventTyping, domain.TypingPayload{To: "bob"})))
}

func TestSession_Read_Forwards_Pair(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	registry := NewRegistry()
	chat := mocks.NewMockIChatService(ctrl)
	sink := newRecordingSink()
	session := NewSession(slog.Default(), sink, registry, chat)

	ctx := context.Background()
	req.NoError(session.HandleFrame(ctx, mustFrame(t, domain.EventJoin, domain.JoinPayload{User: "bob"})))

	chat.EXPECT().MarkRead(gomock.Any(), "alice", "bob").Return(3, nil)

	payload := domain.ReadPayload{From: "alice", To: "bob"}
	req.NoError(session.HandleFrame(ctx, mustFrame(t, domain.EventRead, payload)))
}

func TestSession_Invalid_Payload_Answers_With_Error(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	registry := NewRegistry()
	chat := mocks.NewMockIChatService(ctrl)
	sink := newRecordingSink()
	session := NewSession(slog.Default(), sink, registry, chat)

	ctx := context.Background()
	req.NoError(session.HandleFrame(ctx, mustFrame(t, domain.EventJoin, domain.JoinPayload{User: "alice"})))

	// Missing text: rejected by validation, never reaches the service
	payload := domain.MessagePayload{From: "alice", To: "bob"}
	req.NoError(session.HandleFrame(ctx, mustFrame(t, domain.EventMessage, payload)))

	frames := sink.recorded()
	req.Len(frames, 1)
	req.Equal(domain.EventError, frames[0].Event)
}

func TestSession_Unknown_Event_Answers_With_Error(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	registry := NewRegistry()
	chat := mocks.NewMockIChatService(ctrl)
	sink := newRecordingSink()
	session := NewSession(slog.Default(), sink, registry, chat)

	ctx := context.Background()
	req.NoError(session.HandleFrame(ctx, mustFrame(t, domain.EventJoin, domain.JoinPayload{User: "alice"})))
	req.NoError(session.HandleFrame(ctx, domain.Frame{Event: "selfie", Payload: json.RawMessage(`{}`)}))

	frames := sink.recorded()
	req.Len(frames, 1)

	var notice domain.ErrorNotice
	req.NoError(json.Unmarshal(frames[0].Payload, &notice))
	req.Equal("unknown-event", notice.Code)
}

func TestSession_Rejoin_Rebinds_Identity(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	registry := NewRegistry()
	chat := mocks.NewMockIChatService(ctrl)
	sink := newRecordingSink()
	session := NewSession(slog.Default(), sink, registry, chat)

	ctx := context.Background()
	req.NoError(session.HandleFrame(ctx, mustFrame(t, domain.EventJoin, domain.JoinPayload{User: "alice"})))
	req.NoError(session.HandleFrame(ctx, mustFrame(t, domain.EventJoin, domain.JoinPayload{User: "carol"})))

	req.Equal("carol", session.User())
	req.Empty(registry.ConnectionsFor("alice"))
	req.Len(registry.ConnectionsFor("carol"), 1)
}

func TestSession_Close_Leaves_Presence(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	registry := NewRegistry()
	chat := mocks.NewMockIChatService(ctrl)
	sink := newRecordingSink()
	session := NewSession(slog.Default(), sink, registry, chat)

	ctx := context.Background()
	req.NoError(session.HandleFrame(ctx, mustFrame(t, domain.EventJoin, domain.JoinPayload{User: "alice"})))

	session.Close()
	session.Close()

	req.Empty(registry.ConnectionsFor("alice"))

	// A closed session accepts nothing
	err := session.HandleFrame(ctx, mustFrame(t, domain.EventJoin, domain.JoinPayload{User: "alice"}))
	req.ErrorIs(err, errors.ErrSessionClosed)
}
