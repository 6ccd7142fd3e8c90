package domain

import "context"

// MessageStore is the persistence boundary for direct messages.
// Create must be durable on return; the router reports no success to
// the sender before the write lands.
type MessageStore interface {
	Create(ctx context.Context, senderID, receiverID, content string) (*Message, error)
	// MarkReadBetween flips the read flag on every unread message sent
	// by senderID to receiverID and returns the affected count.
	MarkReadBetween(ctx context.Context, senderID, receiverID string) (int64, error)
	CountUnread(ctx context.Context, userID string) (int, error)
}

// UserDirectory resolves user identities before a message is routed.
type UserDirectory interface {
	Exists(ctx context.Context, id string) (bool, error)
	Get(ctx context.Context, id string) (*UserSummary, error)
}
