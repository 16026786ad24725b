package booking

import (
	"context"
	"errors"
)

// Kind classifies a failure so callers can react without string matching.
type Kind uint8

const (
	KindInternal Kind = iota
	KindNotFound
	KindEventInPast
	KindEventFull
	KindAlreadyBooked
	KindAlreadyCancelled
	KindForbidden
	KindInvalid
	KindConflict
	// KindUnavailable marks infrastructure failures (lock wait timeout,
	// deadlock, lost connection, cancelled context).  Nothing was committed,
	// so the whole operation may be retried.
	KindUnavailable
)

var kindNames = map[Kind]string{
	KindInternal:         "internal",
	KindNotFound:         "not_found",
	KindEventInPast:      "event_in_past",
	KindEventFull:        "event_full",
	KindAlreadyBooked:    "already_booked",
	KindAlreadyCancelled: "already_cancelled",
	KindForbidden:        "forbidden",
	KindInvalid:          "invalid",
	KindConflict:         "conflict",
	KindUnavailable:      "unavailable",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Error is a failure tagged with its Kind.  Two errors match under
// errors.Is when their kinds are equal, so the sentinels below can be used
// to test any error produced by this package.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return e.Msg + ": " + e.Err.Error()
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrNotFound         = &Error{Kind: KindNotFound, Msg: "not found"}
	ErrEventNotFound    = &Error{Kind: KindNotFound, Msg: "event not found"}
	ErrBookingNotFound  = &Error{Kind: KindNotFound, Msg: "booking not found"}
	ErrUserNotFound     = &Error{Kind: KindNotFound, Msg: "user not found"}
	ErrEventInPast      = &Error{Kind: KindEventInPast, Msg: "cannot book past events"}
	ErrEventFull        = &Error{Kind: KindEventFull, Msg: "event is fully booked"}
	ErrAlreadyBooked    = &Error{Kind: KindAlreadyBooked, Msg: "you have already booked this event"}
	ErrAlreadyCancelled = &Error{Kind: KindAlreadyCancelled, Msg: "booking is already cancelled"}
	ErrForbidden        = &Error{Kind: KindForbidden, Msg: "not authorized to cancel this booking"}
	ErrUnavailable      = &Error{Kind: KindUnavailable, Msg: "temporarily unavailable"}
)

// KindOf returns the kind of err.  Context errors and errors that report
// themselves as temporary are KindUnavailable; anything unrecognised is
// KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindUnavailable
	}
	var t interface{ Temporary() bool }
	if errors.As(err, &t) && t.Temporary() {
		return KindUnavailable
	}
	return KindInternal
}

// Retryable reports whether err is an infrastructure failure after which
// the whole operation can be run again.
func Retryable(err error) bool {
	return err != nil && KindOf(err) == KindUnavailable
}

// infra wraps a persistence failure.  Failures already carrying a kind pass
// through untouched; context and temporary failures become KindUnavailable.
func infra(msg string, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	if KindOf(err) == KindUnavailable {
		return &Error{Kind: KindUnavailable, Msg: msg, Err: err}
	}
	return &Error{Kind: KindInternal, Msg: msg, Err: err}
}

// Wrap is infra for callers outside this package that run their own
// transactions on a Store.
func Wrap(msg string, err error) error {
	if err == nil {
		return nil
	}
	return infra(msg, err)
}
