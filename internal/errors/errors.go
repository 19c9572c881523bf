// Package errors defines the failure taxonomy shared by the extraction,
// AI and orchestration packages.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies a failure.
type Kind string

const (
	NotConnected       Kind = "NOT_CONNECTED"       // mail client unavailable or nothing selected
	UnsupportedFormat  Kind = "UNSUPPORTED_FORMAT"  // no extractor for the file type
	ExtractionFailed   Kind = "EXTRACTION_FAILED"   // parser failed or produced nothing usable
	RateLimited        Kind = "RATE_LIMITED"        // per-operation call budget exhausted
	CredentialsMissing Kind = "CREDENTIALS_MISSING" // no API key for the provider
	ProviderError      Kind = "PROVIDER_ERROR"      // network, timeout or malformed AI response
	DeliveryFailed     Kind = "DELIVERY_FAILED"     // writing the reply back failed
	InvalidRequest     Kind = "INVALID_REQUEST"     // bad caller input
	NotFound           Kind = "NOT_FOUND"           // unknown template or message
)

// Error is a classified failure. Message is meant for the user; Err keeps
// the underlying cause for logs and errors.Is/As.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Newf creates an Error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error of the given kind around err.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// NewRateLimited creates the failure returned when key has no budget left.
func NewRateLimited(key string) *Error {
	return Newf(RateLimited, "too many requests for %q, please wait a moment and try again", key)
}

// NewCredentialsMissing creates the failure returned when provider has no
// stored API key.
func NewCredentialsMissing(provider string) *Error {
	return Newf(CredentialsMissing, "no API key configured for provider %q", provider)
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if
// there is none.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err (or any error in its chain) is an *Error of kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// UserMessage returns the human-readable message for err, falling back to
// err.Error() for unclassified errors.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
