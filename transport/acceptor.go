// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/bureau-foundation/tether/lib/clock"
)

// Acceptor is a listening socket that yields at most one connection.
// The listener is closed as soon as Accept resolves, so later clients
// are refused.
type Acceptor struct {
	listener net.Listener
	address  string
	options  AcceptOptions
	logger   *slog.Logger
	clock    clock.Clock

	acceptOnce sync.Once
	closeOnce  sync.Once
	closeErr   error
}

type acceptResult struct {
	conn net.Conn
	err  error
}

// Listen binds options.Host:port. Port 0 picks an ephemeral port; use
// Addr to discover it.
func Listen(port int, options AcceptOptions) (*Acceptor, error) {
	requested := net.JoinHostPort(options.Host, strconv.Itoa(port))
	listener, err := net.Listen("tcp", requested)
	if err != nil {
		return nil, &AcceptError{Reason: AcceptListenError, Address: requested, Err: err}
	}

	address := listener.Addr().String()
	logger := options.logger().With("listen_addr", address)
	logger.Debug("listening for one connection", "timeout", options.Timeout)

	return &Acceptor{
		listener: listener,
		address:  address,
		options:  options,
		logger:   logger,
		clock:    options.clock(),
	}, nil
}

// Addr returns the bound address.
func (a *Acceptor) Addr() net.Addr {
	return a.listener.Addr()
}

// Accept waits for the single connection. It returns an AcceptError
// with reason AcceptTimeout if options.Timeout elapses first,
// AcceptCanceled if ctx is done first, and AcceptListenError if the
// listener fails or was closed. Whatever the outcome the listener is
// closed before Accept returns. Only the first call waits; later calls
// fail with AcceptListenError.
func (a *Acceptor) Accept(ctx context.Context) (net.Conn, error) {
	first := false
	a.acceptOnce.Do(func() { first = true })
	if !first {
		return nil, &AcceptError{Reason: AcceptListenError, Address: a.address, Err: net.ErrClosed}
	}

	results := make(chan acceptResult, 1)
	go func() {
		conn, err := a.listener.Accept()
		results <- acceptResult{conn: conn, err: err}
	}()

	var timeout <-chan time.Time
	if a.options.Timeout > 0 {
		timer := a.clock.NewTimer(a.options.Timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case result := <-results:
		a.Close()
		if result.err != nil {
			return nil, &AcceptError{Reason: AcceptListenError, Address: a.address, Err: result.err}
		}
		a.logger.Info("accepted connection", "remote_addr", result.conn.RemoteAddr().String())
		return result.conn, nil

	case <-timeout:
		a.abandon(results)
		a.logger.Warn("no connection within accept timeout", "timeout", a.options.Timeout)
		return nil, &AcceptError{Reason: AcceptTimeout, Address: a.address, Timeout: a.options.Timeout}

	case <-ctx.Done():
		a.abandon(results)
		return nil, &AcceptError{Reason: AcceptCanceled, Address: a.address, Err: ctx.Err()}
	}
}

// abandon closes the listener and waits for the accept goroutine. A
// connection that arrived between the timeout firing and the close is
// closed rather than leaked.
func (a *Acceptor) abandon(results <-chan acceptResult) {
	a.Close()
	if result := <-results; result.conn != nil {
		result.conn.Close()
	}
}

// Close stops listening. A pending Accept fails with
// AcceptListenError. Close is idempotent.
func (a *Acceptor) Close() error {
	a.closeOnce.Do(func() {
		a.closeErr = a.listener.Close()
	})
	return a.closeErr
}

// Accept listens on port and waits for one connection. It is
// shorthand for Listen followed by Acceptor.Accept.
func Accept(ctx context.Context, port int, options AcceptOptions) (net.Conn, error) {
	acceptor, err := Listen(port, options)
	if err != nil {
		return nil, err
	}
	return acceptor.Accept(ctx)
}
