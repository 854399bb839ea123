package domain

import (
	"errors"
	"fmt"
)

// Kind is the closed set of failure categories surfaced by the credential core.
// Handlers map kinds to HTTP status codes without inspecting messages.
type Kind int

const (
	KindInternal Kind = iota
	KindValidationInput
	KindTemplateMissing
	KindPlaceholderMissing
	KindRateLimited
	KindDeliveryTransient
	KindDeliveryPermanent
	KindDeliveryFailed
	KindNotFound
	KindTypeMismatch
	KindBadSecret
	KindIdentifierExhausted
	KindConflict
)

var kindNames = map[Kind]string{
	KindInternal:            "internal",
	KindValidationInput:     "validation_input",
	KindTemplateMissing:     "template_missing",
	KindPlaceholderMissing:  "placeholder_missing",
	KindRateLimited:         "rate_limited",
	KindDeliveryTransient:   "delivery_transient",
	KindDeliveryPermanent:   "delivery_permanent",
	KindDeliveryFailed:      "delivery_failed",
	KindNotFound:            "not_found",
	KindTypeMismatch:        "type_mismatch",
	KindBadSecret:           "bad_secret",
	KindIdentifierExhausted: "identifier_exhausted",
	KindConflict:            "conflict",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error carries a Kind through wrapping so callers can discriminate with errors.As.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Public returns Msg without the op or cause, for client-facing responses.
func (e *Error) Public() string {
	if e.Msg != "" {
		return e.Msg
	}
	return e.Kind.String()
}

// PublicMessage returns the Public text of the first *Error in err's chain.
func PublicMessage(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Public()
	}
	return KindInternal.String()
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound) works
// regardless of Op, Msg or cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Msg == "" && t.Err == nil
}

// E builds an *Error.
func E(kind Kind, op, msg string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg, Err: cause}
}

// KindOf returns the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// Sentinel kinds for errors.Is comparisons.
var (
	ErrValidationInput     = &Error{Kind: KindValidationInput}
	ErrTemplateMissing     = &Error{Kind: KindTemplateMissing}
	ErrPlaceholderMissing  = &Error{Kind: KindPlaceholderMissing}
	ErrDeliveryFailed      = &Error{Kind: KindDeliveryFailed}
	ErrDeliveryPermanent   = &Error{Kind: KindDeliveryPermanent}
	ErrNotFound            = &Error{Kind: KindNotFound}
	ErrTypeMismatch        = &Error{Kind: KindTypeMismatch}
	ErrBadSecret           = &Error{Kind: KindBadSecret}
	ErrIdentifierExhausted = &Error{Kind: KindIdentifierExhausted}
	ErrConflict            = &Error{Kind: KindConflict}
)

// Channel failure classes. Message channels wrap their transport errors with one
// of these so the dispatcher can decide whether a retry may help.
var (
	ErrTransient = errors.New("transient delivery failure")
	ErrPermanent = errors.New("permanent delivery failure")
)
