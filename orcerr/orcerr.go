/*
LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package orcerr defines the tagged error kinds returned across this
// module, so callers can branch on failure category with errors.Is/As
// rather than string matching.
package orcerr

import (
	"errors"
	"fmt"
)

// Kind classifies the category of failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidArgument
	KindNotFound
	KindIO
	KindInvalidFormat
	KindInvalidState
	KindTimeout
	KindCancelled
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid_argument"
	case KindNotFound:
		return "not_found"
	case KindIO:
		return "io"
	case KindInvalidFormat:
		return "invalid_format"
	case KindInvalidState:
		return "invalid_state"
	case KindTimeout:
		return "timeout"
	case KindCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Error is a Kind-tagged error that wraps an underlying cause.
type Error struct {
	Kind Kind
	Op   string // Op names the operation that failed, e.g. "mapping.Analyze".
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same Kind, letting
// callers write errors.Is(err, orcerr.New("", orcerr.KindNotFound, nil))
// style checks without comparing Kind fields directly.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New builds an *Error for op and kind, wrapping err.
func New(op string, kind Kind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// KindOf returns the Kind carried by err if it (or something it wraps) is
// an *Error, else KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Constructors for each Kind, for callers that just want to build and
// return an error in one step: return orcerr.InvalidArgument(op, err).
func InvalidArgument(op string, err error) *Error { return New(op, KindInvalidArgument, err) }
func NotFound(op string, err error) *Error        { return New(op, KindNotFound, err) }
func IO(op string, err error) *Error              { return New(op, KindIO, err) }
func InvalidFormat(op string, err error) *Error   { return New(op, KindInvalidFormat, err) }
func InvalidState(op string, err error) *Error    { return New(op, KindInvalidState, err) }
func Timeout(op string, err error) *Error         { return New(op, KindTimeout, err) }
func Cancelled(op string, err error) *Error       { return New(op, KindCancelled, err) }
