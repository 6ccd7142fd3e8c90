package services

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Viargos/Backend-sub000/internal/app/registry"
	"github.com/Viargos/Backend-sub000/internal/core/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeClient records every frame pushed to it, decoded from the wire
// envelope.
type fakeClient struct {
	id     string
	opened time.Time

	mu       sync.Mutex
	frames   []domain.Frame
	closed   bool
	failSend bool
}

func newFakeClient(id string) *fakeClient {
	return &fakeClient{id: id, opened: time.Now()}
}

func (c *fakeClient) UserID() string         { return c.id }
func (c *fakeClient) ConnectedAt() time.Time { return c.opened }

func (c *fakeClient) Send(_ context.Context, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failSend {
		return domain.ErrClientClosed
	}
	var f domain.Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeClient) received(event string) []domain.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []domain.Frame
	for _, f := range c.frames {
		if f.Event == event {
			out = append(out, f)
		}
	}
	return out
}

func (c *fakeClient) frameCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func decodePayload[T any](t *testing.T, f domain.Frame) T {
	t.Helper()
	var v T
	if err := domain.DecodeData(f.Data, &v); err != nil {
		t.Fatalf("decoding %s payload: %v", f.Event, err)
	}
	return v
}

// newHub builds a real registry with the given clients registered.
func newHub(clients ...*fakeClient) *registry.Registry {
	hub := registry.NewRegistry()
	for _, c := range clients {
		hub.Register(c)
	}
	return hub
}
