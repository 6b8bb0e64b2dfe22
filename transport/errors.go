// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"errors"
	"fmt"
	"time"
)

// ErrClosedDuringGrace is the cause recorded when the peer closed the
// connection inside the RejectClosedSocket window.
var ErrClosedDuringGrace = errors.New("connection closed by peer during grace window")

// ConnectReason classifies a Connect failure.
type ConnectReason int

const (
	// ConnectRefused: the dial itself failed (refused, unreachable,
	// DNS failure). Err holds the dial error.
	ConnectRefused ConnectReason = iota + 1

	// ConnectTimeout: every attempt failed and the retry budget is
	// spent. Err holds the cause of the last attempt's failure and
	// Last its reason.
	ConnectTimeout

	// ConnectRejectedClosed: the dial succeeded but the peer closed
	// the connection within the grace window.
	ConnectRejectedClosed

	// ConnectCanceled: the context was cancelled.
	ConnectCanceled
)

func (r ConnectReason) String() string {
	switch r {
	case ConnectRefused:
		return "refused"
	case ConnectTimeout:
		return "timeout"
	case ConnectRejectedClosed:
		return "rejected-closed"
	case ConnectCanceled:
		return "canceled"
	default:
		return fmt.Sprintf("ConnectReason(%d)", int(r))
	}
}

// ConnectError is returned by Connect.
type ConnectError struct {
	Reason ConnectReason

	// Address is the host:port that was dialed.
	Address string

	// Attempts is the number of dials made.
	Attempts int

	// Elapsed is the time from the first attempt to the failure.
	Elapsed time.Duration

	// Last is the reason the final attempt failed. Only meaningful
	// when Reason is ConnectTimeout.
	Last ConnectReason

	Err error
}

func (e *ConnectError) Error() string {
	if e.Reason == ConnectTimeout {
		return fmt.Sprintf("transport: connect to %s: timeout after %d attempts in %v (last: %s): %v",
			e.Address, e.Attempts, e.Elapsed, e.Last, e.Err)
	}
	return fmt.Sprintf("transport: connect to %s: %s: %v", e.Address, e.Reason, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// AcceptReason classifies an Accept failure.
type AcceptReason int

const (
	// AcceptListenError: binding failed, or the listener failed (or
	// was closed) while waiting.
	AcceptListenError AcceptReason = iota + 1

	// AcceptTimeout: no connection arrived within the timeout.
	AcceptTimeout

	// AcceptCanceled: the context was cancelled while waiting.
	AcceptCanceled
)

func (r AcceptReason) String() string {
	switch r {
	case AcceptListenError:
		return "listen-error"
	case AcceptTimeout:
		return "timeout"
	case AcceptCanceled:
		return "canceled"
	default:
		return fmt.Sprintf("AcceptReason(%d)", int(r))
	}
}

// AcceptError is returned by Listen, Acceptor.Accept, and Accept.
type AcceptError struct {
	Reason AcceptReason

	// Address is the listen address (requested, or bound if known).
	Address string

	// Timeout is the configured accept timeout. Set for AcceptTimeout.
	Timeout time.Duration

	Err error
}

func (e *AcceptError) Error() string {
	if e.Reason == AcceptTimeout {
		return fmt.Sprintf("transport: accept on %s: no connection within %v", e.Address, e.Timeout)
	}
	return fmt.Sprintf("transport: accept on %s: %s: %v", e.Address, e.Reason, e.Err)
}

func (e *AcceptError) Unwrap() error { return e.Err }

// IsRefused reports whether err is a ConnectError with reason
// ConnectRefused.
func IsRefused(err error) bool {
	var connectError *ConnectError
	return errors.As(err, &connectError) && connectError.Reason == ConnectRefused
}

// IsRejectedClosed reports whether err is a ConnectError with reason
// ConnectRejectedClosed.
func IsRejectedClosed(err error) bool {
	var connectError *ConnectError
	return errors.As(err, &connectError) && connectError.Reason == ConnectRejectedClosed
}

// IsTimeout reports whether err is a connect or accept timeout.
func IsTimeout(err error) bool {
	var connectError *ConnectError
	if errors.As(err, &connectError) {
		return connectError.Reason == ConnectTimeout
	}
	var acceptError *AcceptError
	return errors.As(err, &acceptError) && acceptError.Reason == AcceptTimeout
}

// IsCanceled reports whether err is a connect or accept failure caused
// by context cancellation.
func IsCanceled(err error) bool {
	var connectError *ConnectError
	if errors.As(err, &connectError) {
		return connectError.Reason == ConnectCanceled
	}
	var acceptError *AcceptError
	return errors.As(err, &acceptError) && acceptError.Reason == AcceptCanceled
}
