package contracts

import (
	"context"
	"time"
)

// PresenceStore keeps advisory presence data outside the process. The
// in-memory registry stays authoritative for who is online; the store
// only backs last-seen timestamps that survive restarts.
type PresenceStore interface {
	TouchOnline(ctx context.Context, userID string, at time.Time) error
	TouchOffline(ctx context.Context, userID string, at time.Time) error
	LastSeen(ctx context.Context, userID string) (time.Time, error)
}
