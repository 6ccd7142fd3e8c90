package services

import (
	"context"

	"github.com/Viargos/Backend-sub000/internal/core/contracts"
	"github.com/Viargos/Backend-sub000/internal/core/domain"
)

// push encodes an event frame and hands it to the client's send queue.
// Failures are transport errors: the target is treated as offline and
// the caller's operation is never failed by them.
func push(ctx context.Context, c contracts.Client, event string, payload any) error {
	data, err := domain.EncodeFrame(event, payload)
	if err != nil {
		return domain.NewTransport("failed to encode frame", err)
	}
	if err := c.Send(ctx, data); err != nil {
		return domain.NewTransport("failed to push frame", err)
	}
	return nil
}
