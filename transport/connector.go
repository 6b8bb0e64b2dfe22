// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"errors"
	"net"
	"strconv"
	"time"

	"github.com/bureau-foundation/tether/lib/clock"
	"github.com/bureau-foundation/tether/lib/netutil"
)

// Connect opens a TCP connection to options.Host:port.
//
// With a positive Timeout, failed attempts are retried every
// RetryInterval (DefaultRetryInterval if it is not positive). The
// deadline is checked after each failure, so a successful attempt that
// finishes past the deadline is still returned, and Connect gives up no
// earlier than Timeout after the first attempt. Each dial is bounded by
// the budget remaining until Timeout plus one RetryInterval, and never
// less than one RetryInterval, so a blackholed SYN cannot hold Connect
// for the kernel's connect timeout; such a dial ends the operation with
// ConnectTimeout. Every failure kind is
// retried, including ConnectRejectedClosed: a forwarder that drops
// connections usually starts accepting properly once its backend comes
// up.
//
// With a zero Timeout exactly one attempt is made and its failure is
// returned as-is.
//
// Cancelling ctx aborts a dial in progress, the grace window, or a
// retry sleep, and returns a ConnectError with reason ConnectCanceled.
func Connect(ctx context.Context, port int, options ConnectOptions) (net.Conn, error) {
	address := net.JoinHostPort(options.host(), strconv.Itoa(port))
	logger := options.logger().With("address", address)
	clk := options.clock()

	interval := options.retryInterval()

	start := clk.Now()
	attempts := 0
	for {
		attempts++
		var dialTimeout time.Duration
		if options.Timeout > 0 {
			dialTimeout = max(options.Timeout+interval-clk.Now().Sub(start), interval)
		}
		conn, failure := connectOnce(ctx, address, dialTimeout, options.RejectClosedSocket, clk)
		if failure == nil {
			logger.Info("connected",
				"attempts", attempts,
				"local_addr", conn.LocalAddr().String(),
			)
			return conn, nil
		}

		elapsed := clk.Now().Sub(start)
		failure.Attempts = attempts
		failure.Elapsed = elapsed

		if failure.Reason == ConnectCanceled || options.Timeout <= 0 {
			return nil, failure
		}

		if elapsed > options.Timeout || failure.Reason == ConnectTimeout {
			logger.Warn("connect retry budget exhausted",
				"attempts", attempts,
				"elapsed", elapsed,
				"timeout", options.Timeout,
				"last_reason", failure.Reason.String(),
				"error", failure.Err,
			)
			return nil, &ConnectError{
				Reason:   ConnectTimeout,
				Address:  address,
				Attempts: attempts,
				Elapsed:  elapsed,
				Last:     failure.Reason,
				Err:      failure.Err,
			}
		}

		logger.Debug("connect attempt failed, retrying",
			"attempt", attempts,
			"reason", failure.Reason.String(),
			"retry_interval", interval,
			"error", failure.Err,
		)

		if err := sleepContext(ctx, clk, interval); err != nil {
			return nil, &ConnectError{
				Reason:   ConnectCanceled,
				Address:  address,
				Attempts: attempts,
				Elapsed:  clk.Now().Sub(start),
				Err:      err,
			}
		}
	}
}

// dialContext is the single-dial primitive; tests replace it to
// simulate a peer that never answers.
var dialContext = func(ctx context.Context, network, address string) (net.Conn, error) {
	var dialer net.Dialer
	return dialer.DialContext(ctx, network, address)
}

// connectOnce makes a single dial, bounded by dialTimeout when it is
// positive, and, if grace is positive, the closed-socket check. On
// failure the returned conn is nil and has already been closed.
func connectOnce(ctx context.Context, address string, dialTimeout, grace time.Duration, clk clock.Clock) (net.Conn, *ConnectError) {
	dialCtx := ctx
	if dialTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, dialTimeout)
		defer cancel()
	}
	conn, err := dialContext(dialCtx, "tcp", address)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &ConnectError{Reason: ConnectCanceled, Address: address, Err: ctx.Err()}
		}
		if errors.Is(dialCtx.Err(), context.DeadlineExceeded) {
			return nil, &ConnectError{Reason: ConnectTimeout, Address: address, Err: err}
		}
		return nil, &ConnectError{Reason: ConnectRefused, Address: address, Err: err}
	}

	if grace <= 0 {
		return conn, nil
	}

	if err := sleepContext(ctx, clk, grace); err != nil {
		conn.Close()
		return nil, &ConnectError{Reason: ConnectCanceled, Address: address, Err: err}
	}

	closed, probeErr := netutil.PeerClosed(conn)
	if closed {
		conn.Close()
		cause := ErrClosedDuringGrace
		if probeErr != nil {
			cause = probeErr
		}
		return nil, &ConnectError{Reason: ConnectRejectedClosed, Address: address, Err: cause}
	}
	// A probe error that is not a close leaves the socket in place;
	// the first read or write surfaces any real problem.
	return conn, nil
}

// sleepContext waits d on clk, returning ctx.Err() if ctx is done
// first.
func sleepContext(ctx context.Context, clk clock.Clock, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	timer := clk.NewTimer(d)
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	}
}
