//go:generate go run go.uber.org/mock/mockgen -source=chat_service.go -destination=../mocks/mock_chat_service.go -package=mocks
package services

import (
	"context"
	"log/slog"

	"github.com/abadojack/whatlanggo"

	"match-mate/contract"
	"match-mate/domain"
	"match-mate/errors"
	"match-mate/moderation"
	"match-mate/observability"
	"match-mate/projection"
	"match-mate/repositories"
)

type IChatService interface {
	Send(ctx context.Context, from, to, text string) (domain.Message, error)
	Typing(ctx context.Context, from, to string) error
	MarkRead(ctx context.Context, from, to string) (int, error)
	History(from, to string) ([]domain.Message, error)
	Previews(user string) []projection.Preview
}

// ChatService runs the message flow: moderation mask, durable save, best
// effort delivery, projection update. Delivery failures never roll back a
// persisted message.
type ChatService struct {
	log          *slog.Logger
	messages     repositories.IMessageRepository
	deliverer    contract.IDeliverer
	moderator    *moderation.Moderator
	inbox        *projection.Inbox
	metrics      *observability.Metrics
	historyLimit int
}

func NewChatService(
	log *slog.Logger,
	messages repositories.IMessageRepository,
	deliverer contract.IDeliverer,
	moderator *moderation.Moderator,
	inbox *projection.Inbox,
	metrics *observability.Metrics,
	historyLimit int,
) *ChatService {
	return &ChatService{
		log:          log,
		messages:     messages,
		deliverer:    deliverer,
		moderator:    moderator,
		inbox:        inbox,
		metrics:      metrics,
		historyLimit: historyLimit,
	}
}

// Send masks censored words, persists the message and pushes it to every
// active connection of the recipient. The masked text is what gets stored,
// so the store and all recipients agree.
func (s *ChatService) Send(ctx context.Context, from, to, text string) (domain.Message, error) {
	masked, found := s.moderator.Censor(text)
	if len(found) > 0 {
		info := whatlanggo.Detect(text)
		s.metrics.IncrCensored()
		s.log.Warn("Censored words in message",
			"from", from, "count", len(found), "lang", info.Lang.Iso6391())
	}

	saved, err := s.messages.Save(from, to, masked)
	if err != nil {
		if errors.IsValidation(err) {
			s.metrics.IncrValidationFailure()
		}
		return domain.Message{}, err
	}
	s.metrics.IncrSaved()
	s.inbox.RecordMessage(saved.From, saved.To, saved.Text, saved.SentAt)

	frame, err := domain.NewFrame(domain.EventMessage, saved)
	if err != nil {
		return saved, err
	}
	s.deliverer.Deliver(ctx, to, frame)
	return saved, nil
}

// Typing forwards a typing notice. No persistence, no rate limiting.
func (s *ChatService) Typing(ctx context.Context, from, to string) error {
	if to == "" {
		s.metrics.IncrValidationFailure()
		return errors.Validation(errors.ErrEmptyParticipant)
	}
	frame, err := domain.NewFrame(domain.EventTyping, domain.TypingNotice{From: from})
	if err != nil {
		return err
	}
	s.deliverer.Deliver(ctx, to, frame)
	return nil
}

// MarkRead flips the unread (from, to) batch and acknowledges it with a
// read-receipt pushed to the `from` identity of the request.
func (s *ChatService) MarkRead(ctx context.Context, from, to string) (int, error) {
	affected, err := s.messages.MarkRead(from, to)
	if err != nil {
		return 0, err
	}
	// The reader of messages from->to is `to`.
	s.inbox.MarkRead(to, from)

	frame, err := domain.NewFrame(domain.EventReadReceipt, domain.ReadReceipt{From: from, To: to})
	if err != nil {
		return affected, err
	}
	s.deliverer.Deliver(ctx, from, frame)
	return affected, nil
}

// History returns the recent exchange between two identities.
func (s *ChatService) History(from, to string) ([]domain.Message, error) {
	return s.messages.Conversation(from, to, s.historyLimit)
}

// Previews returns the user's inbox lines, most recent first.
func (s *ChatService) Previews(user string) []projection.Preview {
	return s.inbox.Snapshot(user)
}
