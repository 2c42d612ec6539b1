// Package errno defines the failure kinds surfaced by the ledger core.
//
// Every error that leaves the engine or the valuation services is an *Error
// carrying a Kind and a message safe to show to the user. The wrapped cause,
// when present, is kept for logs only.
package errno

import (
	"errors"
	"fmt"

	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

type Kind string

const (
	KindValidation          Kind = "validation"
	KindInsufficientFunds   Kind = "insufficient_funds"
	KindInsufficientHolding Kind = "insufficient_holdings"
	KindPositionNotFound    Kind = "position_not_found"
	KindAssetResolution     Kind = "asset_resolution"
	KindNotFound            Kind = "not_found"
	KindUpstreamUnavailable Kind = "upstream_unavailable"
	KindStoreFailure        Kind = "store_failure"
)

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

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, errno.ErrInsufficientFunds) works.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Message == ""
}

// sentinels for errors.Is
var (
	ErrValidation          = &Error{Kind: KindValidation}
	ErrInsufficientFunds   = &Error{Kind: KindInsufficientFunds}
	ErrInsufficientHolding = &Error{Kind: KindInsufficientHolding}
	ErrPositionNotFound    = &Error{Kind: KindPositionNotFound}
	ErrAssetResolution     = &Error{Kind: KindAssetResolution}
	ErrNotFound            = &Error{Kind: KindNotFound}
	ErrUpstreamUnavailable = &Error{Kind: KindUpstreamUnavailable}
	ErrStoreFailure        = &Error{Kind: KindStoreFailure}
)

func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf reports the kind of err. Anything that is not an *Error is a store failure.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStoreFailure
}

// Message returns the user-facing text of err without internal causes.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}

func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation, KindInsufficientFunds, KindInsufficientHolding, KindPositionNotFound:
		return consts.StatusBadRequest
	case KindNotFound:
		return consts.StatusNotFound
	case KindAssetResolution, KindUpstreamUnavailable:
		return consts.StatusBadGateway
	default:
		return consts.StatusInternalServerError
	}
}
