package domain

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyContent = errors.New("message content is empty")
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidToken = errors.New("invalid token")
	ErrClientClosed = errors.New("client closed")
)

// Kind categorizes a failure so the gateway can decide whether it is
// fatal to the connection (auth) or scoped to a single event.
type Kind int

const (
	KindUnknown Kind = iota
	KindAuth
	KindValidation
	KindNotFound
	KindStorage
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindStorage:
		return "storage"
	case KindTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// Error carries a kind, a client-safe message and the wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func NewAuth(message string, err error) *Error {
	return &Error{Kind: KindAuth, Message: message, Err: err}
}

func NewValidation(message string, err error) *Error {
	return &Error{Kind: KindValidation, Message: message, Err: err}
}

func NewNotFound(message string, err error) *Error {
	return &Error{Kind: KindNotFound, Message: message, Err: err}
}

func NewStorage(message string, err error) *Error {
	return &Error{Kind: KindStorage, Message: message, Err: err}
}

func NewTransport(message string, err error) *Error {
	return &Error{Kind: KindTransport, Message: message, Err: err}
}

// KindOf extracts the Kind from any error in the chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// ClientMessage returns the safe-to-expose message for an error frame.
// Unclassified errors are masked so internals never leak to clients.
func ClientMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}
