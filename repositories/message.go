//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"match-mate/domain"
	"match-mate/errors"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IMessageRepository interface {
	Save(from, to, text string) (domain.Message, error)
	MarkRead(from, to string) (int, error)
	Conversation(a, b string, limit int) ([]domain.Message, error)
}

type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) MessageRepository {
	return MessageRepository{db: db, log: log}
}

// messageKey formats the Badger key for one message.
// The key is "msg:{from}:{to}:{timestamp_padded}:{uuid}" to:
//  1. Allow a prefix scan per directed (from, to) pair.
//  2. Ensure chronological sorting using 19-digit zero padding
//     (lexicographical order).
//  3. Prevent data loss by using UUID as a collision disconnector if two
//     messages arrive at the same nanosecond.
func messageKey(from, to string, at time.Time, id uuid.UUID) []byte {
	return []byte(fmt.Sprintf("msg:%s:%s:%019d:%s", from, to, at.UnixNano(), id))
}

func pairPrefix(from, to string) []byte {
	return []byte(fmt.Sprintf("msg:%s:%s:", from, to))
}

// Save validates, stamps and durably persists one message. The timestamp and
// ID are assigned here, never by the caller, and the read flag starts false.
// Once Save returns nil the record survives a process restart.
func (m MessageRepository) Save(from, to, text string) (domain.Message, error) {
	if from == "" || to == "" {
		return domain.Message{}, errors.Validation(errors.ErrEmptyParticipant)
	}
	if from == to {
		return domain.Message{}, errors.Validation(errors.ErrSamePair)
	}
	if text == "" {
		return domain.Message{}, errors.Validation(errors.ErrEmptyText)
	}

	msg := domain.Message{
		ID:     uuid.New(),
		From:   from,
		To:     to,
		Text:   text,
		SentAt: time.Now().UTC(),
		Read:   false,
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return domain.Message{}, errors.Storage(err)
	}

	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set(messageKey(msg.From, msg.To, msg.SentAt, msg.ID), data)
	})
	if err != nil {
		return domain.Message{}, errors.Storage(err)
	}
	return msg, nil
}

// MarkRead flips read=false to true for every unread message of the exact
// (from, to) pair and returns the number of records affected. Repeating the
// call affects zero records. The flag never transitions back.
func (m MessageRepository) MarkRead(from, to string) (int, error) {
	affected := 0
	err := m.db.Update(func(txn *badger.Txn) error {
		type flip struct {
			key  []byte
			data []byte
		}
		var flips []flip

		it := txn.NewIterator(badger.DefaultIteratorOptions)
		prefix := pairPrefix(from, to)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			key := item.KeyCopy(nil)
			err := item.Value(func(val []byte) error {
				var msg domain.Message
				if err := json.Unmarshal(val, &msg); err != nil {
					return fmt.Errorf("decode message %s: %w", key, err)
				}
				if msg.Read {
					return nil
				}
				msg.Read = true
				data, err := json.Marshal(msg)
				if err != nil {
					return err
				}
				flips = append(flips, flip{key: key, data: data})
				return nil
			})
			if err != nil {
				it.Close()
				return err
			}
		}
		it.Close()

		// Writing after the iterator is closed keeps the transaction simple;
		// Badger forbids mixing Set with an open iterator on the same txn.
		for _, f := range flips {
			if err := txn.Set(f.key, f.data); err != nil {
				return err
			}
		}
		affected = len(flips)
		return nil
	})
	if err != nil {
		return 0, errors.Storage(err)
	}
	return affected, nil
}

// Conversation returns the most recent messages exchanged between a and b in
// chronological order, capped at limit (limit <= 0 means no cap). Both
// directions of the pair are merged.
func (m MessageRepository) Conversation(a, b string, limit int) ([]domain.Message, error) {
	var result []domain.Message

	err := m.db.View(func(txn *badger.Txn) error {
		for _, prefix := range [][]byte{pairPrefix(a, b), pairPrefix(b, a)} {
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				err := it.Item().Value(func(val []byte) error {
					var msg domain.Message
					if err := json.Unmarshal(val, &msg); err != nil {
						return err
					}
					result = append(result, msg)
					return nil
				})
				if err != nil {
					it.Close()
					return err
				}
			}
			it.Close()
		}
		return nil
	})
	if err != nil {
		return nil, errors.Storage(err)
	}

	sort.Slice(result, func(i, j int) bool { return result[i].SentAt.Before(result[j].SentAt) })
	if limit > 0 && len(result) > limit {
		result = result[len(result)-limit:]
	}
	return result, nil
}
