package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/Viargos/Backend-sub000/internal/app/server/ws"
	"github.com/Viargos/Backend-sub000/internal/config"
	"github.com/Viargos/Backend-sub000/internal/core/contracts"
	"github.com/Viargos/Backend-sub000/internal/core/domain"
	"github.com/Viargos/Backend-sub000/internal/core/services"
	"github.com/Viargos/Backend-sub000/internal/metrics"
	"github.com/Viargos/Backend-sub000/pkg/middleware"
)

// WSHandler owns the per-connection lifecycle: authenticate (done by
// the middleware in front of it) → register → dispatch frames →
// unregister on close. Every frame handler failure is scoped to that
// frame; only transport errors end the session.
type WSHandler struct {
	log       *slog.Logger
	hub       contracts.Registry
	presence  *services.PresenceService
	router    *services.RouterService
	collector *metrics.Collector
	cfg       config.GatewayConfig
	upgrader  websocket.Upgrader
}

func NewWSHandler(
	log *slog.Logger,
	hub contracts.Registry,
	presence *services.PresenceService,
	router *services.RouterService,
	collector *metrics.Collector,
	cfg config.GatewayConfig,
) *WSHandler {
	return &WSHandler{
		log:       log,
		hub:       hub,
		presence:  presence,
		router:    router,
		collector: collector,
		cfg:       cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // tighten later
			},
		},
	}
}

func (h *WSHandler) Handler(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(string)
	if !ok || userID == "" {
		// Unauthenticated connections are never registered.
		http.Error(w, "unauthorized: user id missing", http.StatusUnauthorized)
		return
	}

	sessionCtx := context.WithoutCancel(r.Context())
	ctx, cancel := context.WithCancel(sessionCtx)
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.ErrorContext(r.Context(), "gateway - upgrade failed", "user_id", userID, "err", err)
		cancel()
		return
	}
	conn.SetCloseHandler(func(code int, text string) error {
		cancel()
		return nil
	})

	socket := ws.NewWebSocket(ctx, conn)
	client := ws.NewClient(ctx, socket, userID, h.cfg.SendBuffer)

	// Last socket wins: tear down the handle we displaced before this
	// session proceeds.
	if replaced := h.hub.Register(client); replaced != nil {
		h.log.InfoContext(ctx, "gateway - session replaced", "user_id", userID)
		replaced.Close()
	}
	h.collector.ConnOpened()
	h.presence.MarkOnline(ctx, userID)
	h.log.InfoContext(ctx, "gateway - session active", "user_id", userID, "online", h.hub.Size())

	h.sendFrame(ctx, client, domain.EventConnectionStatus, domain.ConnectionStatusPayload{Connected: true})
	h.pushUnreadCount(ctx, client)

	limiter := rate.NewLimiter(rate.Limit(h.cfg.FrameRate), h.cfg.FrameBurst)
	socket.ReadLoop(func(data []byte) {
		go h.dispatch(ctx, client, limiter, data)
	})

	// Teardown runs exactly once per session regardless of how many
	// events race into closure: the guarded unregister decides whether
	// this handle still owned the registry entry.
	if h.hub.Unregister(client) {
		h.presence.MarkOffline(sessionCtx, userID)
		h.presence.ClearTyping(sessionCtx, userID)
	}
	client.Close()
	cancel()
	h.collector.ConnClosed()
	h.log.InfoContext(sessionCtx, "gateway - session closed", "user_id", userID, "online", h.hub.Size())
}

// dispatch handles one inbound frame. Panics and errors are contained
// here and reported back as an error frame to this connection only.
func (h *WSHandler) dispatch(ctx context.Context, client contracts.Client, limiter *rate.Limiter, data []byte) {
	defer func() {
		if rec := recover(); rec != nil {
			h.log.ErrorContext(ctx, "gateway - dispatch panic", "user_id", client.UserID(), "panic", rec)
			h.sendError(ctx, client, "internal error")
		}
	}()

	if !limiter.Allow() {
		h.collector.RecordFrameError("rate_limit")
		h.sendError(ctx, client, "rate limit exceeded")
		return
	}

	var frame domain.Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		h.collector.RecordFrameError(domain.KindValidation.String())
		h.sendError(ctx, client, "malformed frame")
		return
	}
	h.collector.RecordFrame(frame.Event)

	if err := h.handleFrame(ctx, client, frame); err != nil {
		h.collector.RecordFrameError(domain.KindOf(err).String())
		h.log.WarnContext(ctx, "gateway - frame failed", "user_id", client.UserID(), "event", frame.Event, "err", err)
		h.sendError(ctx, client, domain.ClientMessage(err))
	}
}

func (h *WSHandler) handleFrame(ctx context.Context, client contracts.Client, frame domain.Frame) error {
	userID := client.UserID()
	switch frame.Event {
	case domain.EventSendMessage:
		var p domain.SendMessagePayload
		if err := domain.DecodeData(frame.Data, &p); err != nil {
			return domain.NewValidation("malformed sendMessage payload", err)
		}
		_, err := h.router.SendMessage(ctx, userID, p.ReceiverID, p.Content)
		return err

	case domain.EventMarkAsRead:
		var p domain.MarkAsReadPayload
		if err := domain.DecodeData(frame.Data, &p); err != nil {
			return domain.NewValidation("malformed markAsRead payload", err)
		}
		_, err := h.router.MarkMessagesRead(ctx, userID, p.SenderID)
		return err

	case domain.EventGetUnreadCount:
		return h.pushUnreadCount(ctx, client)

	case domain.EventTypingStart:
		var p domain.TypingPayload
		if err := domain.DecodeData(frame.Data, &p); err != nil {
			return domain.NewValidation("malformed typing payload", err)
		}
		h.presence.StartTyping(ctx, userID, p.ReceiverID)
		return nil

	case domain.EventTypingStop:
		var p domain.TypingPayload
		if err := domain.DecodeData(frame.Data, &p); err != nil {
			return domain.NewValidation("malformed typing payload", err)
		}
		h.presence.StopTyping(ctx, userID, p.ReceiverID)
		return nil

	case domain.EventUserOnline:
		h.presence.MarkOnline(ctx, userID)
		return nil

	case domain.EventUserOffline:
		h.presence.MarkOffline(ctx, userID)
		return nil

	case domain.EventJoinChat:
		h.sendFrame(ctx, client, domain.EventConnectionStatus, domain.ConnectionStatusPayload{Connected: true})
		return h.pushUnreadCount(ctx, client)

	default:
		return domain.NewValidation("unknown event: "+frame.Event, nil)
	}
}

func (h *WSHandler) pushUnreadCount(ctx context.Context, client contracts.Client) error {
	count, err := h.router.UnreadCount(ctx, client.UserID())
	if err != nil {
		return err
	}
	h.sendFrame(ctx, client, domain.EventUnreadCount, domain.UnreadCountPayload{Count: count})
	return nil
}

func (h *WSHandler) sendFrame(ctx context.Context, client contracts.Client, event string, payload any) {
	data, err := domain.EncodeFrame(event, payload)
	if err != nil {
		return
	}
	if err := client.Send(ctx, data); err != nil {
		h.log.WarnContext(ctx, "gateway - send failed", "user_id", client.UserID(), "event", event, "err", err)
	}
}

func (h *WSHandler) sendError(ctx context.Context, client contracts.Client, message string) {
	h.sendFrame(ctx, client, domain.EventError, domain.ErrorPayload{Message: message})
}
