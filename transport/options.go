// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"log/slog"
	"time"

	"github.com/bureau-foundation/tether/lib/clock"
)

const (
	// DefaultHost is the host Connect dials when ConnectOptions.Host is
	// empty.
	DefaultHost = "127.0.0.1"

	// DefaultConnectTimeout bounds the total time Connect spends
	// retrying.
	DefaultConnectTimeout = 5 * time.Second

	// DefaultRetryInterval is the pause between failed connect attempts.
	DefaultRetryInterval = 200 * time.Millisecond

	// DefaultRejectClosedSocket is the grace window after a successful
	// dial before the socket is checked for an immediate close.
	DefaultRejectClosedSocket = 10 * time.Millisecond

	// DefaultAcceptTimeout bounds how long an Acceptor waits for its
	// single connection.
	DefaultAcceptTimeout = 5 * time.Second
)

// ConnectOptions configures Connect. A zero Timeout disables retry and
// a zero RejectClosedSocket disables the grace-window check. Start from DefaultConnectOptions to get the
// standard policy.
type ConnectOptions struct {
	// Host to dial. Empty means DefaultHost (loopback).
	Host string

	// Timeout is the wall-clock budget across all attempts, measured
	// from the first attempt. Zero makes a single attempt.
	Timeout time.Duration

	// RetryInterval is the sleep between failed attempts. A value that
	// is not positive means DefaultRetryInterval.
	RetryInterval time.Duration

	// RejectClosedSocket is how long to wait after a successful dial
	// before checking that the peer has not already closed the
	// connection. Zero skips the check.
	RejectClosedSocket time.Duration

	// Logger receives connection lifecycle events. If nil,
	// slog.Default() is used.
	Logger *slog.Logger

	// Clock drives retry sleeps, the deadline, and the grace window.
	// If nil, clock.Real() is used.
	Clock clock.Clock
}

// DefaultConnectOptions returns the standard connect policy: loopback,
// 5s budget, 200ms between attempts, 10ms grace window.
func DefaultConnectOptions() ConnectOptions {
	return ConnectOptions{
		Host:               DefaultHost,
		Timeout:            DefaultConnectTimeout,
		RetryInterval:      DefaultRetryInterval,
		RejectClosedSocket: DefaultRejectClosedSocket,
	}
}

func (o ConnectOptions) host() string {
	if o.Host == "" {
		return DefaultHost
	}
	return o.Host
}

func (o ConnectOptions) retryInterval() time.Duration {
	if o.RetryInterval <= 0 {
		return DefaultRetryInterval
	}
	return o.RetryInterval
}

func (o ConnectOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o ConnectOptions) clock() clock.Clock {
	if o.Clock != nil {
		return o.Clock
	}
	return clock.Real()
}

// AcceptOptions configures Listen and Accept.
type AcceptOptions struct {
	// Host is the bind address. Empty binds all interfaces.
	Host string

	// Timeout bounds the wait for the single connection. Zero waits
	// until the context is cancelled or the Acceptor is closed.
	Timeout time.Duration

	// Logger receives lifecycle events. If nil, slog.Default() is used.
	Logger *slog.Logger

	// Clock drives the accept timeout. If nil, clock.Real() is used.
	Clock clock.Clock
}

// DefaultAcceptOptions returns the standard accept policy: all
// interfaces, 5s timeout.
func DefaultAcceptOptions() AcceptOptions {
	return AcceptOptions{Timeout: DefaultAcceptTimeout}
}

func (o AcceptOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o AcceptOptions) clock() clock.Clock {
	if o.Clock != nil {
		return o.Clock
	}
	return clock.Real()
}
