// Package domain contains core concepts of the matching and chat system.
// This file defines the Message entity and its invariants.
// No runtime, network, or UI logic should be added here.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message is the durable record of one chat message. The store assigns ID and
// SentAt at persistence time; Read only ever transitions false to true, via
// the read-receipt operation.
type Message struct {
	ID     uuid.UUID `json:"id"`
	From   string    `json:"from"`
	To     string    `json:"to"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"timestamp"`
	Read   bool      `json:"read"`
}
