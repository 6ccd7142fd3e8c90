package contracts

import (
	"context"
	"time"
)

// Registry maps a user identity to at most one live connection. It is
// the only shared mutable state in the subsystem; every operation is
// safe under arbitrary concurrent callers.
type Registry interface {
	// Register installs c as the current connection for its user and
	// returns the handle it displaced, if any. The caller must close
	// the replaced handle; last socket wins.
	Register(c Client) (replaced Client)
	// Unregister removes the mapping only if c is still the current
	// handle, and reports whether the mapping actually changed. A
	// stale disconnect never clobbers a newer connection.
	Unregister(c Client) bool
	// Lookup is a non-blocking read of the current handle for a user.
	Lookup(userID string) (Client, bool)
	Size() int
	// OnlineIDs returns a snapshot of user identities with a live
	// connection at the time of the call.
	OnlineIDs() []string
}

// Client is the minimal surface the core needs to talk to one live
// WebSocket connection.
type Client interface {
	UserID() string
	ConnectedAt() time.Time
	Send(ctx context.Context, data []byte) error
	Close()
}
