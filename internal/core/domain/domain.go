package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message is a direct message between two users. The store owns its
// lifecycle; the core only constructs it and requests persistence.
type Message struct {
	ID         uuid.UUID `json:"id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Content    string    `json:"content"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"createdAt"`
}

// UserSummary is the slice of the user profile the messaging core needs
// to validate and address participants.
type UserSummary struct {
	ID       string
	Username string
}

// PresenceEvent is an ephemeral fan-out payload, never persisted.
type PresenceEvent struct {
	UserID     string
	IsOnline   bool
	ObservedAt time.Time
}
