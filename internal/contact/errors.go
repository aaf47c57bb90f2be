package contact

import (
	"fmt"
	"net/http"
	"time"
)

type Kind int

const (
	KindUnexpected Kind = iota
	KindRateLimited
	KindBodyTooLarge
	KindMissingFields
	KindInvalidType
	KindInvalidEmail
	KindInvalidLength
	KindDeliveryFailed
)

var kindNames = map[Kind]string{
	KindUnexpected:     "unexpected_error",
	KindRateLimited:    "rate_limited",
	KindBodyTooLarge:   "body_too_large",
	KindMissingFields:  "missing_fields",
	KindInvalidType:    "invalid_type",
	KindInvalidEmail:   "invalid_email",
	KindInvalidLength:  "invalid_length",
	KindDeliveryFailed: "delivery_failed",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return kindNames[KindUnexpected]
}

func (k Kind) StatusCode() int {
	switch k {
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindBodyTooLarge:
		return http.StatusRequestEntityTooLarge
	case KindMissingFields, KindInvalidType, KindInvalidEmail, KindInvalidLength:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error is a rejected submission. Message is safe to show to the submitter;
// Err holds the internal cause and is only logged.
type Error struct {
	Kind       Kind
	Message    string
	Field      string
	RetryAfter time.Duration
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrInvalidEmail)
// works regardless of message or field.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

const (
	msgRateLimited    = "Too many requests. Please try again later."
	msgBodyTooLarge   = "Request body too large"
	msgMissingFields  = "Missing required fields"
	msgInvalidType    = "Invalid field types"
	msgInvalidEmail   = "Invalid email address"
	msgDeliveryFailed = "Failed to send email. Please try again."
	msgUnexpected     = "An error occurred. Please try again."
	msgAccepted       = "Message sent successfully! I will get back to you soon."
)

var (
	ErrRateLimited    = &Error{Kind: KindRateLimited, Message: msgRateLimited}
	ErrBodyTooLarge   = &Error{Kind: KindBodyTooLarge, Message: msgBodyTooLarge}
	ErrMissingFields  = &Error{Kind: KindMissingFields, Message: msgMissingFields}
	ErrInvalidType    = &Error{Kind: KindInvalidType, Message: msgInvalidType}
	ErrInvalidEmail   = &Error{Kind: KindInvalidEmail, Message: msgInvalidEmail}
	ErrInvalidLength  = &Error{Kind: KindInvalidLength}
	ErrDeliveryFailed = &Error{Kind: KindDeliveryFailed, Message: msgDeliveryFailed}
	ErrUnexpected     = &Error{Kind: KindUnexpected, Message: msgUnexpected}
)

func newError(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Err: cause}
}
