package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Viargos/Backend-sub000/internal/core/domain"
)

// fakeMessageStore keeps messages in memory and can be told to fail.
type fakeMessageStore struct {
	mu       sync.Mutex
	messages []*domain.Message
	failWith error

	createCalls int
	markCalls   int
}

func (s *fakeMessageStore) Create(_ context.Context, senderID, receiverID, content string) (*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createCalls++
	if s.failWith != nil {
		return nil, s.failWith
	}
	msg := &domain.Message{
		ID:         uuid.New(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	}
	s.messages = append(s.messages, msg)
	return msg, nil
}

func (s *fakeMessageStore) MarkReadBetween(_ context.Context, senderID, receiverID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markCalls++
	if s.failWith != nil {
		return 0, s.failWith
	}
	var n int64
	for _, m := range s.messages {
		if m.SenderID == senderID && m.ReceiverID == receiverID && !m.Read {
			m.Read = true
			n++
		}
	}
	return n, nil
}

func (s *fakeMessageStore) CountUnread(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return 0, s.failWith
	}
	n := 0
	for _, m := range s.messages {
		if m.ReceiverID == userID && !m.Read {
			n++
		}
	}
	return n, nil
}

type fakeDirectory struct {
	users map[string]bool
}

func (d *fakeDirectory) Exists(_ context.Context, id string) (bool, error) {
	return d.users[id], nil
}

func (d *fakeDirectory) Get(_ context.Context, id string) (*domain.UserSummary, error) {
	if !d.users[id] {
		return nil, domain.ErrUserNotFound
	}
	return &domain.UserSummary{ID: id, Username: id}, nil
}

func knownUsers(ids ...string) *fakeDirectory {
	d := &fakeDirectory{users: make(map[string]bool)}
	for _, id := range ids {
		d.users[id] = true
	}
	return d
}

func TestSendMessageRejectsEmptyContent(t *testing.T) {
	ctx := context.Background()
	store := &fakeMessageStore{}
	hub := newHub()
	svc := NewRouterService(testLogger(), store, knownUsers("alice", "bob"), hub, nil)

	for _, content := range []string{"", "   ", "\t\n"} {
		_, err := svc.SendMessage(ctx, "alice", "bob", content)
		if domain.KindOf(err) != domain.KindValidation {
			t.Fatalf("SendMessage(%q) error kind = %v, want validation", content, domain.KindOf(err))
		}
	}
	if store.createCalls != 0 {
		t.Fatalf("store received %d create calls for invalid content, want 0", store.createCalls)
	}
}

func TestSendMessageRejectsUnknownUsers(t *testing.T) {
	ctx := context.Background()
	store := &fakeMessageStore{}
	svc := NewRouterService(testLogger(), store, knownUsers("alice"), newHub(), nil)

	if _, err := svc.SendMessage(ctx, "alice", "ghost", "hi"); domain.KindOf(err) != domain.KindNotFound {
		t.Fatalf("unknown receiver error kind = %v, want not_found", domain.KindOf(err))
	}
	if _, err := svc.SendMessage(ctx, "ghost", "alice", "hi"); domain.KindOf(err) != domain.KindNotFound {
		t.Fatalf("unknown sender error kind = %v, want not_found", domain.KindOf(err))
	}
	if store.createCalls != 0 {
		t.Fatalf("store received %d create calls, want 0", store.createCalls)
	}
}

func TestSendMessageToOfflineReceiver(t *testing.T) {
	ctx := context.Background()
	store := &fakeMessageStore{}
	alice := newFakeClient("alice")
	hub := newHub(alice) // bob is offline
	svc := NewRouterService(testLogger(), store, knownUsers("alice", "bob"), hub, nil)

	msg, err := svc.SendMessage(ctx, "alice", "bob", "hi")
	if err != nil {
		t.Fatalf("SendMessage to offline receiver: %v", err)
	}
	if msg.ID == uuid.Nil {
		t.Fatal("persisted message has no id")
	}
	if store.createCalls != 1 {
		t.Fatalf("store received %d create calls, want 1", store.createCalls)
	}

	sent := alice.received(domain.EventMessageSent)
	if len(sent) != 1 {
		t.Fatalf("sender received %d messageSent frames, want 1", len(sent))
	}
	ack := decodePayload[domain.Message](t, sent[0])
	if ack.ID != msg.ID || ack.Content != "hi" {
		t.Fatalf("messageSent payload = %+v, want persisted message", ack)
	}

	count, err := svc.UnreadCount(ctx, "bob")
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if count != 1 {
		t.Fatalf("UnreadCount(bob) = %d, want 1", count)
	}
}

func TestSendMessageBothOnline(t *testing.T) {
	ctx := context.Background()
	store := &fakeMessageStore{}
	alice := newFakeClient("alice")
	bob := newFakeClient("bob")
	hub := newHub(alice, bob)
	svc := NewRouterService(testLogger(), store, knownUsers("alice", "bob"), hub, nil)

	msg, err := svc.SendMessage(ctx, "alice", "bob", "hello")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	delivered := bob.received(domain.EventNewMessage)
	if len(delivered) != 1 {
		t.Fatalf("receiver got %d newMessage frames, want 1", len(delivered))
	}
	got := decodePayload[domain.Message](t, delivered[0])
	if got.Content != "hello" || got.ID != msg.ID {
		t.Fatalf("newMessage payload = %+v", got)
	}

	acked := alice.received(domain.EventMessageSent)
	if len(acked) != 1 {
		t.Fatalf("sender got %d messageSent frames, want 1", len(acked))
	}
	ack := decodePayload[domain.Message](t, acked[0])
	if ack.ID != got.ID {
		t.Fatal("messageSent and newMessage carry different message ids")
	}
}

func TestSendMessageStorageFailure(t *testing.T) {
	ctx := context.Background()
	store := &fakeMessageStore{failWith: errors.New("disk on fire")}
	alice := newFakeClient("alice")
	bob := newFakeClient("bob")
	hub := newHub(alice, bob)
	svc := NewRouterService(testLogger(), store, knownUsers("alice", "bob"), hub, nil)

	_, err := svc.SendMessage(ctx, "alice", "bob", "hi")
	if domain.KindOf(err) != domain.KindStorage {
		t.Fatalf("error kind = %v, want storage", domain.KindOf(err))
	}
	// No partial delivery: neither side hears anything.
	if alice.frameCount() != 0 || bob.frameCount() != 0 {
		t.Fatalf("frames pushed despite persistence failure: sender=%d receiver=%d",
			alice.frameCount(), bob.frameCount())
	}
}

func TestSendMessageDeadReceiverSocketDoesNotFailSender(t *testing.T) {
	ctx := context.Background()
	store := &fakeMessageStore{}
	alice := newFakeClient("alice")
	bob := newFakeClient("bob")
	bob.failSend = true
	hub := newHub(alice, bob)
	svc := NewRouterService(testLogger(), store, knownUsers("alice", "bob"), hub, nil)

	msg, err := svc.SendMessage(ctx, "alice", "bob", "hi")
	if err != nil {
		t.Fatalf("SendMessage with dead receiver socket: %v", err)
	}
	if msg == nil || store.createCalls != 1 {
		t.Fatal("message was not persisted")
	}
	if len(alice.received(domain.EventMessageSent)) != 1 {
		t.Fatal("sender did not receive messageSent")
	}
}

func TestMarkMessagesReadNotifiesOnlineSender(t *testing.T) {
	ctx := context.Background()
	store := &fakeMessageStore{}
	alice := newFakeClient("alice")
	hub := newHub(alice)
	svc := NewRouterService(testLogger(), store, knownUsers("alice", "bob"), hub, nil)

	// alice sent two messages to bob while bob was offline.
	if _, err := svc.SendMessage(ctx, "alice", "bob", "one"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.SendMessage(ctx, "alice", "bob", "two"); err != nil {
		t.Fatal(err)
	}

	affected, err := svc.MarkMessagesRead(ctx, "bob", "alice")
	if err != nil {
		t.Fatalf("MarkMessagesRead: %v", err)
	}
	if affected != 2 {
		t.Fatalf("affected = %d, want 2", affected)
	}

	frames := alice.received(domain.EventMessagesRead)
	if len(frames) != 1 {
		t.Fatalf("sender received %d messagesRead frames, want 1", len(frames))
	}
	p := decodePayload[domain.MessagesReadPayload](t, frames[0])
	if p.ReceiverID != "bob" {
		t.Fatalf("messagesRead receiverId = %q, want bob", p.ReceiverID)
	}
}

func TestMarkMessagesReadStorageFailureSendsNothing(t *testing.T) {
	ctx := context.Background()
	store := &fakeMessageStore{failWith: errors.New("down")}
	alice := newFakeClient("alice")
	hub := newHub(alice)
	svc := NewRouterService(testLogger(), store, knownUsers("alice", "bob"), hub, nil)

	_, err := svc.MarkMessagesRead(ctx, "bob", "alice")
	if domain.KindOf(err) != domain.KindStorage {
		t.Fatalf("error kind = %v, want storage", domain.KindOf(err))
	}
	if alice.frameCount() != 0 {
		t.Fatal("notification pushed despite store failure")
	}
}

func TestUnreadCountReadsThrough(t *testing.T) {
	ctx := context.Background()
	store := &fakeMessageStore{}
	svc := NewRouterService(testLogger(), store, knownUsers("alice", "bob"), newHub(), nil)

	if _, err := svc.SendMessage(ctx, "alice", "bob", "a"); err != nil {
		t.Fatal(err)
	}
	count, err := svc.UnreadCount(ctx, "bob")
	if err != nil || count != 1 {
		t.Fatalf("UnreadCount = %d, %v; want 1, nil", count, err)
	}
	if _, err := svc.MarkMessagesRead(ctx, "bob", "alice"); err != nil {
		t.Fatal(err)
	}
	count, err = svc.UnreadCount(ctx, "bob")
	if err != nil || count != 0 {
		t.Fatalf("UnreadCount after read = %d, %v; want 0, nil", count, err)
	}
}
