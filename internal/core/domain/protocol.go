package domain

import (
	"encoding/json"
	"time"
)

// Inbound event names.
const (
	EventSendMessage    = "sendMessage"
	EventMarkAsRead     = "markAsRead"
	EventGetUnreadCount = "getUnreadCount"
	EventTypingStart    = "typing_start"
	EventTypingStop     = "typing_stop"
	EventUserOnline     = "user_online"
	EventUserOffline    = "user_offline"
	EventJoinChat       = "join_chat"
)

// Outbound event names.
const (
	EventNewMessage       = "newMessage"
	EventMessageSent      = "messageSent"
	EventMessagesRead     = "messagesRead"
	EventUnreadCount      = "unreadCount"
	EventUserTyping       = "user_typing"
	EventUserStatus       = "user_status"
	EventConnectionStatus = "connection_status"
	EventError            = "error"
)

// Frame is the envelope for both directions on the socket.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// EncodeFrame marshals a payload into a wire-ready envelope.
func EncodeFrame(event string, payload any) ([]byte, error) {
	var data json.RawMessage
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		data = raw
	}
	return json.Marshal(Frame{Event: event, Data: data})
}

// DecodeData unmarshals the envelope payload into target.
func DecodeData(data json.RawMessage, v any) error {
	return json.Unmarshal(data, v)
}

// SendMessagePayload asks the router to deliver content to a receiver.
type SendMessagePayload struct {
	ReceiverID string `json:"receiverId"`
	Content    string `json:"content"`
}

// MarkAsReadPayload marks everything the named sender sent to the
// calling connection's user as read.
type MarkAsReadPayload struct {
	SenderID string `json:"senderId"`
}

// TypingPayload carries the counterpart of a typing_start/typing_stop.
type TypingPayload struct {
	ReceiverID string `json:"receiverId"`
}

// MessagesReadPayload notifies the original sender who read their messages.
type MessagesReadPayload struct {
	ReceiverID string `json:"receiverId"`
}

type UnreadCountPayload struct {
	Count int `json:"count"`
}

type UserTypingPayload struct {
	UserID   string `json:"userId"`
	IsTyping bool   `json:"isTyping"`
}

type UserStatusPayload struct {
	UserID   string    `json:"userId"`
	IsOnline bool      `json:"isOnline"`
	LastSeen time.Time `json:"lastSeen"`
}

type ConnectionStatusPayload struct {
	Connected bool `json:"connected"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
