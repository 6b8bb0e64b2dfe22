// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/bureau-foundation/tether/lib/clock"
	"github.com/bureau-foundation/tether/lib/testutil"
)

func itoa(port int) string { return strconv.Itoa(port) }

type acceptOutcome struct {
	conn net.Conn
	err  error
}

func startAccept(ctx context.Context, acceptor *Acceptor) <-chan acceptOutcome {
	results := make(chan acceptOutcome, 1)
	go func() {
		conn, err := acceptor.Accept(ctx)
		results <- acceptOutcome{conn: conn, err: err}
	}()
	return results
}

func listenLoopback(t *testing.T, options AcceptOptions) *Acceptor {
	t.Helper()
	options.Host = "127.0.0.1"
	acceptor, err := Listen(0, options)
	if err != nil {
		t.Fatalf("Listen() error: %v", err)
	}
	t.Cleanup(func() { acceptor.Close() })
	return acceptor
}

func requireRefused(t *testing.T, address string) {
	t.Helper()
	conn, err := net.Dial("tcp", address)
	if err == nil {
		conn.Close()
		t.Fatalf("dial %s succeeded after the acceptor resolved", address)
	}
}

func TestAcceptSingleConnection(t *testing.T) {
	acceptor := listenLoopback(t, DefaultAcceptOptions())
	address := acceptor.Addr().String()
	results := startAccept(context.Background(), acceptor)

	client, err := net.Dial("tcp", address)
	if err != nil {
		t.Fatalf("net.Dial() error: %v", err)
	}
	defer client.Close()

	result := testutil.RequireReceive(t, results, 5*time.Second, "waiting for Accept")
	if result.err != nil {
		t.Fatalf("Accept() error: %v", result.err)
	}
	defer result.conn.Close()

	if _, err := client.Write([]byte("ping")); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	buffer := make([]byte, 4)
	if _, err := io.ReadFull(result.conn, buffer); err != nil {
		t.Fatalf("ReadFull() error: %v", err)
	}
	if string(buffer) != "ping" {
		t.Errorf("read %q, want %q", buffer, "ping")
	}

	requireRefused(t, address)
}

func TestAcceptTimeout(t *testing.T) {
	fakeClock := clock.Fake(time.Unix(1735689600, 0))
	acceptor := listenLoopback(t, AcceptOptions{Timeout: time.Second, Clock: fakeClock})
	address := acceptor.Addr().String()
	results := startAccept(context.Background(), acceptor)

	fakeClock.WaitForTimers(1)
	fakeClock.Advance(time.Second)

	result := testutil.RequireReceive(t, results, 5*time.Second, "waiting for Accept")
	if !IsTimeout(result.err) {
		t.Fatalf("Accept() error = %v, want timeout", result.err)
	}
	var acceptError *AcceptError
	if !errors.As(result.err, &acceptError) || acceptError.Timeout != time.Second {
		t.Errorf("AcceptError = %+v, want Timeout 1s", acceptError)
	}

	requireRefused(t, address)
}

func TestAcceptTimeoutWallClock(t *testing.T) {
	const timeout = 100 * time.Millisecond
	acceptor := listenLoopback(t, AcceptOptions{Timeout: timeout})

	start := time.Now() //nolint:realclock measuring a real-clock timeout
	_, err := acceptor.Accept(context.Background())
	elapsed := time.Since(start) //nolint:realclock measuring a real-clock timeout

	if !IsTimeout(err) {
		t.Fatalf("Accept() error = %v, want timeout", err)
	}
	if elapsed < timeout {
		t.Errorf("Accept() returned after %v, before the %v timeout", elapsed, timeout)
	}
}

func TestAcceptCanceled(t *testing.T) {
	acceptor := listenLoopback(t, AcceptOptions{})
	address := acceptor.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	results := startAccept(ctx, acceptor)
	cancel()

	result := testutil.RequireReceive(t, results, 5*time.Second, "waiting for Accept")
	if !IsCanceled(result.err) {
		t.Fatalf("Accept() error = %v, want canceled", result.err)
	}
	requireRefused(t, address)
}

func TestAcceptorCloseUnblocksAccept(t *testing.T) {
	acceptor := listenLoopback(t, AcceptOptions{})
	results := startAccept(context.Background(), acceptor)

	if err := acceptor.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if err := acceptor.Close(); err != nil {
		t.Errorf("second Close() error: %v", err)
	}

	result := testutil.RequireReceive(t, results, 5*time.Second, "waiting for Accept")
	var acceptError *AcceptError
	if !errors.As(result.err, &acceptError) || acceptError.Reason != AcceptListenError {
		t.Fatalf("Accept() error = %v, want listen-error", result.err)
	}
	if !errors.Is(result.err, net.ErrClosed) {
		t.Errorf("error does not wrap net.ErrClosed: %v", result.err)
	}
}

func TestAcceptOnlyOnce(t *testing.T) {
	acceptor := listenLoopback(t, DefaultAcceptOptions())
	results := startAccept(context.Background(), acceptor)

	client, err := net.Dial("tcp", acceptor.Addr().String())
	if err != nil {
		t.Fatalf("net.Dial() error: %v", err)
	}
	defer client.Close()
	result := testutil.RequireReceive(t, results, 5*time.Second, "waiting for Accept")
	if result.err != nil {
		t.Fatalf("Accept() error: %v", result.err)
	}
	result.conn.Close()

	_, err = acceptor.Accept(context.Background())
	var acceptError *AcceptError
	if !errors.As(err, &acceptError) || acceptError.Reason != AcceptListenError {
		t.Fatalf("second Accept() error = %v, want listen-error", err)
	}
}

func TestListenPortInUse(t *testing.T) {
	occupied, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen() error: %v", err)
	}
	defer occupied.Close()

	port := occupied.Addr().(*net.TCPAddr).Port
	_, err = Listen(port, AcceptOptions{Host: "127.0.0.1"})
	var acceptError *AcceptError
	if !errors.As(err, &acceptError) || acceptError.Reason != AcceptListenError {
		t.Fatalf("Listen() error = %v, want listen-error", err)
	}
}

func TestAcceptConvenience(t *testing.T) {
	port := testutil.FreePort(t)
	results := make(chan acceptOutcome, 1)
	go func() {
		conn, err := Accept(context.Background(), port, AcceptOptions{Host: "127.0.0.1", Timeout: 5 * time.Second})
		results <- acceptOutcome{conn: conn, err: err}
	}()

	// Connect retries until Accept's listener is bound.
	options := DefaultConnectOptions()
	options.RetryInterval = 10 * time.Millisecond
	client, err := Connect(context.Background(), port, options)
	if err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	defer client.Close()

	result := testutil.RequireReceive(t, results, 5*time.Second, "waiting for Accept")
	if result.err != nil {
		t.Fatalf("Accept() error: %v", result.err)
	}
	result.conn.Close()
}
