package ws

import (
	"context"
	"sync"
	"time"

	"github.com/Viargos/Backend-sub000/internal/core/domain"
)

// RuntimeClient is one live connection for one user. Outbound frames go
// through a buffered queue drained by a single write loop, so a slow
// socket never blocks the code pushing to it.
type RuntimeClient struct {
	ctx         context.Context
	cancel      context.CancelFunc
	ws          *WebSocket
	userID      string
	connectedAt time.Time
	out         chan []byte
	once        sync.Once
}

func NewClient(parent context.Context, ws *WebSocket, userID string, sendBuffer int) *RuntimeClient {
	if sendBuffer <= 0 {
		sendBuffer = 256
	}
	ctx, cancel := context.WithCancel(parent)
	c := &RuntimeClient{
		ctx:         ctx,
		cancel:      cancel,
		ws:          ws,
		userID:      userID,
		connectedAt: time.Now(),
		out:         make(chan []byte, sendBuffer),
	}
	go c.writeLoop()
	go c.pingLoop()
	return c
}

func (c *RuntimeClient) UserID() string         { return c.userID }
func (c *RuntimeClient) ConnectedAt() time.Time { return c.connectedAt }

// Send enqueues a frame without blocking. A full queue means the peer
// is not draining; the frame is dropped and reported as a transport
// failure so callers treat the client as effectively offline.
func (c *RuntimeClient) Send(ctx context.Context, data []byte) error {
	select {
	case <-c.ctx.Done():
		return domain.ErrClientClosed
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	select {
	case c.out <- data:
		return nil
	case <-c.ctx.Done():
		return domain.ErrClientClosed
	default:
		return domain.NewTransport("send queue full", nil)
	}
}

// Close is idempotent. The out channel is left open on purpose: a
// concurrent Send racing the shutdown must not panic, and the write
// loop exits via the cancelled context instead.
func (c *RuntimeClient) Close() {
	c.once.Do(func() {
		c.cancel()
		c.ws.Close()
	})
}

func (c *RuntimeClient) writeLoop() {
	defer c.Close()
	for {
		select {
		case <-c.ctx.Done():
			return
		case data := <-c.out:
			if err := c.ws.WriteMessage(data); err != nil {
				return
			}
		}
	}
}

func (c *RuntimeClient) pingLoop() {
	t := time.NewTicker(pingPeriod)
	defer t.Stop()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-t.C:
			if err := c.ws.Ping(); err != nil {
				return
			}
		}
	}
}
