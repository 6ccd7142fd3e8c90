package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Viargos/Backend-sub000/internal/core/contracts"
	"github.com/Viargos/Backend-sub000/internal/core/domain"
)

// PresenceService derives online/offline transitions from registry
// mutations and fans them out to connected peers. It also owns the
// ephemeral typing state: typist → set of recipients already notified.
//
// The registry is authoritative for who is online; the PresenceStore
// only records advisory last-seen timestamps (surfaced in user_status).
type PresenceService struct {
	log      *slog.Logger
	registry contracts.Registry
	store    contracts.PresenceStore

	mu     sync.Mutex
	online map[string]struct{}
	typing map[string]map[string]struct{}
}

func NewPresenceService(
	log *slog.Logger,
	registry contracts.Registry,
	store contracts.PresenceStore,
) *PresenceService {
	return &PresenceService{
		log:      log,
		registry: registry,
		store:    store,
		online:   make(map[string]struct{}),
		typing:   make(map[string]map[string]struct{}),
	}
}

// MarkOnline announces a user's arrival to every connected peer. Only
// the first call per live session broadcasts; a reconnect that replaced
// an existing handle does not produce a second online event.
func (s *PresenceService) MarkOnline(ctx context.Context, userID string) {
	s.mu.Lock()
	if _, already := s.online[userID]; already {
		s.mu.Unlock()
		return
	}
	s.online[userID] = struct{}{}
	s.mu.Unlock()

	now := time.Now().UTC()
	if s.store != nil {
		if err := s.store.TouchOnline(ctx, userID, now); err != nil {
			s.log.ErrorContext(ctx, "presence - mark online - touch store failed", "user_id", userID, "err", err)
		}
	}
	s.broadcastStatus(ctx, domain.PresenceEvent{UserID: userID, IsOnline: true, ObservedAt: now})
	s.log.InfoContext(ctx, "presence - mark online - broadcast", "user_id", userID)
}

// MarkOffline is idempotent: a duplicate offline signal, e.g. from a
// stale disconnect whose unregister was a no-op, broadcasts nothing.
func (s *PresenceService) MarkOffline(ctx context.Context, userID string) {
	s.mu.Lock()
	if _, was := s.online[userID]; !was {
		s.mu.Unlock()
		return
	}
	delete(s.online, userID)
	s.mu.Unlock()

	now := time.Now().UTC()
	if s.store != nil {
		if err := s.store.TouchOffline(ctx, userID, now); err != nil {
			s.log.ErrorContext(ctx, "presence - mark offline - touch store failed", "user_id", userID, "err", err)
		}
	}
	s.broadcastStatus(ctx, domain.PresenceEvent{UserID: userID, IsOnline: false, ObservedAt: now})
	s.log.InfoContext(ctx, "presence - mark offline - broadcast", "user_id", userID)
}

// StartTyping notifies the recipient that fromID is typing, if they are
// online. Offline recipients are silently skipped.
func (s *PresenceService) StartTyping(ctx context.Context, fromID, toID string) {
	c, ok := s.registry.Lookup(toID)
	if !ok {
		return
	}
	if err := push(ctx, c, domain.EventUserTyping, domain.UserTypingPayload{UserID: fromID, IsTyping: true}); err != nil {
		s.log.WarnContext(ctx, "presence - start typing - push failed", "from", fromID, "to", toID, "err", err)
		return
	}
	s.mu.Lock()
	if s.typing[fromID] == nil {
		s.typing[fromID] = make(map[string]struct{})
	}
	s.typing[fromID][toID] = struct{}{}
	s.mu.Unlock()
}

func (s *PresenceService) StopTyping(ctx context.Context, fromID, toID string) {
	s.mu.Lock()
	if set := s.typing[fromID]; set != nil {
		delete(set, toID)
		if len(set) == 0 {
			delete(s.typing, fromID)
		}
	}
	s.mu.Unlock()

	if c, ok := s.registry.Lookup(toID); ok {
		if err := push(ctx, c, domain.EventUserTyping, domain.UserTypingPayload{UserID: fromID, IsTyping: false}); err != nil {
			s.log.WarnContext(ctx, "presence - stop typing - push failed", "from", fromID, "to", toID, "err", err)
		}
	}
}

// ClearTyping drops every typing entry for a disconnecting user and
// sends one best-effort stop to each recipient that was notified.
func (s *PresenceService) ClearTyping(ctx context.Context, userID string) {
	s.mu.Lock()
	notified := s.typing[userID]
	delete(s.typing, userID)
	s.mu.Unlock()

	for toID := range notified {
		if c, ok := s.registry.Lookup(toID); ok {
			_ = push(ctx, c, domain.EventUserTyping, domain.UserTypingPayload{UserID: userID, IsTyping: false})
		}
	}
}

// TypingTargets reports who a user is currently marked as typing to.
func (s *PresenceService) TypingTargets(userID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.typing[userID]
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

func (s *PresenceService) broadcastStatus(ctx context.Context, ev domain.PresenceEvent) {
	payload := domain.UserStatusPayload{
		UserID:   ev.UserID,
		IsOnline: ev.IsOnline,
		LastSeen: ev.ObservedAt,
	}
	for _, id := range s.registry.OnlineIDs() {
		if id == ev.UserID {
			continue
		}
		if c, ok := s.registry.Lookup(id); ok {
			if err := push(ctx, c, domain.EventUserStatus, payload); err != nil {
				s.log.WarnContext(ctx, "presence - broadcast - push failed", "user_id", ev.UserID, "peer", id, "err", err)
			}
		}
	}
}
