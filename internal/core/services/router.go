package services

import (
	"context"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Viargos/Backend-sub000/internal/core/contracts"
	"github.com/Viargos/Backend-sub000/internal/core/domain"
)

var tracer = otel.Tracer("router-service")

// DeliveryRecorder is the metrics hook for message routing outcomes.
type DeliveryRecorder interface {
	RecordMessage(deliveredLive bool)
}

// RouterService persists direct messages and delivers them to live
// connections. Persistence always happens before any push: the sender
// never sees messageSent for a write that did not land.
type RouterService struct {
	log      *slog.Logger
	store    domain.MessageStore
	users    domain.UserDirectory
	registry contracts.Registry
	recorder DeliveryRecorder
}

func NewRouterService(
	log *slog.Logger,
	store domain.MessageStore,
	users domain.UserDirectory,
	registry contracts.Registry,
	recorder DeliveryRecorder,
) *RouterService {
	return &RouterService{
		log:      log,
		store:    store,
		users:    users,
		registry: registry,
		recorder: recorder,
	}
}

// SendMessage validates, persists and routes one message. The receiver
// push is best-effort; a dead receiver socket never fails the sender's
// operation because the message is already durable.
func (s *RouterService) SendMessage(ctx context.Context, senderID, receiverID, content string) (*domain.Message, error) {
	ctx, span := tracer.Start(ctx, "RouterService.SendMessage", trace.WithAttributes(
		attribute.String("sender_id", senderID),
		attribute.String("receiver_id", receiverID),
	))
	defer span.End()

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domain.NewValidation("message content is empty", domain.ErrEmptyContent)
	}
	if err := s.requireUser(ctx, senderID); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := s.requireUser(ctx, receiverID); err != nil {
		span.RecordError(err)
		return nil, err
	}

	msg, err := s.store.Create(ctx, senderID, receiverID, content)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		s.log.ErrorContext(ctx, "router - send message - persist failed", "sender_id", senderID, "receiver_id", receiverID, "err", err)
		return nil, domain.NewStorage("failed to persist message", err)
	}

	delivered := false
	if receiver, ok := s.registry.Lookup(receiverID); ok {
		if err := push(ctx, receiver, domain.EventNewMessage, msg); err != nil {
			s.log.WarnContext(ctx, "router - send message - receiver push failed", "receiver_id", receiverID, "err", err)
		} else {
			delivered = true
		}
	}
	if sender, ok := s.registry.Lookup(senderID); ok {
		if err := push(ctx, sender, domain.EventMessageSent, msg); err != nil {
			s.log.WarnContext(ctx, "router - send message - sender ack failed", "sender_id", senderID, "err", err)
		}
	}
	if s.recorder != nil {
		s.recorder.RecordMessage(delivered)
	}
	span.SetAttributes(attribute.Bool("delivered_live", delivered))
	s.log.InfoContext(ctx, "router - send message - routed", "message_id", msg.ID, "sender_id", senderID, "receiver_id", receiverID, "delivered_live", delivered)
	return msg, nil
}

// MarkMessagesRead flips the read flag on everything senderID sent to
// readerID, then tells the original sender if they are online. Nothing
// is pushed when the store mutation fails.
func (s *RouterService) MarkMessagesRead(ctx context.Context, readerID, senderID string) (int64, error) {
	ctx, span := tracer.Start(ctx, "RouterService.MarkMessagesRead", trace.WithAttributes(
		attribute.String("reader_id", readerID),
		attribute.String("sender_id", senderID),
	))
	defer span.End()

	affected, err := s.store.MarkReadBetween(ctx, senderID, readerID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "mark read failed")
		s.log.ErrorContext(ctx, "router - mark read - store failed", "reader_id", readerID, "sender_id", senderID, "err", err)
		return 0, domain.NewStorage("failed to mark messages read", err)
	}
	if sender, ok := s.registry.Lookup(senderID); ok {
		if err := push(ctx, sender, domain.EventMessagesRead, domain.MessagesReadPayload{ReceiverID: readerID}); err != nil {
			s.log.WarnContext(ctx, "router - mark read - notify failed", "sender_id", senderID, "err", err)
		}
	}
	s.log.InfoContext(ctx, "router - mark read - done", "reader_id", readerID, "sender_id", senderID, "affected", affected)
	return affected, nil
}

// UnreadCount is a pure read-through; no registry interaction.
func (s *RouterService) UnreadCount(ctx context.Context, userID string) (int, error) {
	count, err := s.store.CountUnread(ctx, userID)
	if err != nil {
		s.log.ErrorContext(ctx, "router - unread count - store failed", "user_id", userID, "err", err)
		return 0, domain.NewStorage("failed to count unread messages", err)
	}
	return count, nil
}

func (s *RouterService) requireUser(ctx context.Context, id string) error {
	if id == "" {
		return domain.NewValidation("user id is empty", nil)
	}
	ok, err := s.users.Exists(ctx, id)
	if err != nil {
		return domain.NewStorage("failed to resolve user", err)
	}
	if !ok {
		return domain.NewNotFound("user not found: "+id, domain.ErrUserNotFound)
	}
	return nil
}
