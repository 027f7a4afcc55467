package domain

import (
	"encoding/json"
	"fmt"
)

// Wire protocol of the realtime socket. Inbound events are join, typing,
// message and read; outbound events are typing, message, read-receipt and
// error. Grouping connections by user identity is the presence registry's
// job, not the transport's.
const (
	EventJoin        = "join"
	EventTyping      = "typing"
	EventMessage     = "message"
	EventRead        = "read"
	EventReadReceipt = "read-receipt"
	EventError       = "error"
)

// Frame is one JSON frame on the socket, in either direction.
type Frame struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewFrame builds an outbound frame around an encodable payload.
func NewFrame(event string, payload any) (Frame, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, fmt.Errorf("encode %s payload: %w", event, err)
	}
	return Frame{Event: event, Payload: raw}, nil
}

type JoinPayload struct {
	User string `json:"user" validate:"required"`
}

type TypingPayload struct {
	To string `json:"to" validate:"required"`
}

// TypingNotice is what the recipient sees for a typing event.
type TypingNotice struct {
	From string `json:"from"`
}

type MessagePayload struct {
	From string `json:"from" validate:"required"`
	To   string `json:"to" validate:"required"`
	Text string `json:"text" validate:"required"`
}

type ReadPayload struct {
	From string `json:"from" validate:"required"`
	To   string `json:"to" validate:"required"`
}

// ReadReceipt acknowledges that the (From, To) batch has been marked read.
type ReadReceipt struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// ErrorNotice is surfaced to the originating connection only.
type ErrorNotice struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
}
