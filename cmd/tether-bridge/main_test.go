// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/bureau-foundation/tether/bridge"
	"github.com/bureau-foundation/tether/lib/launcher"
	"github.com/bureau-foundation/tether/lib/process"
	"github.com/bureau-foundation/tether/lib/testutil"
	"github.com/bureau-foundation/tether/transport"
)

// controller accepts the bridge's remote leg and holds it open.
func controller(t *testing.T) int {
	t.Helper()
	acceptor, err := transport.Listen(0, transport.AcceptOptions{Host: "127.0.0.1", Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("transport.Listen() error: %v", err)
	}
	accepted := make(chan net.Conn, 1)
	t.Cleanup(func() {
		acceptor.Close()
		select {
		case conn := <-accepted:
			conn.Close()
		default:
		}
	})
	go func() {
		if conn, err := acceptor.Accept(context.Background()); err == nil {
			accepted <- conn
		}
	}()
	return acceptor.Addr().(*net.TCPAddr).Port
}

func execConfig(t *testing.T) bridge.Config {
	return bridge.Config{
		LocalHost:  "127.0.0.1",
		RemoteHost: "127.0.0.1",
		RemotePort: controller(t),
		Accept:     &transport.AcceptOptions{},
		Logger:     testutil.Logger(t),
	}
}

func TestExecModePropagatesExitCode(t *testing.T) {
	recordPath := filepath.Join(t.TempDir(), "exit.cbor")

	err := runExecMode(execConfig(t), []string{"sh", "-c", `test -n "$TETHER_PORT" && exit 4`}, recordPath, testutil.Logger(t))

	var exitError *process.ExitError
	if !errors.As(err, &exitError) || exitError.Code != 4 {
		t.Fatalf("runExecMode() error = %v, want exit code 4", err)
	}

	record, err := launcher.ReadRecord(recordPath)
	if err != nil {
		t.Fatalf("ReadRecord() error: %v", err)
	}
	if record.Code != 4 || record.SessionID == "" || record.Command[0] != "sh" {
		t.Errorf("record = %+v", record)
	}
	if record.Finished.Before(record.Started) {
		t.Errorf("record finished %v before it started %v", record.Finished, record.Started)
	}
}

func TestExecModeSuccess(t *testing.T) {
	if err := runExecMode(execConfig(t), []string{"true"}, "", testutil.Logger(t)); err != nil {
		t.Errorf("runExecMode() error: %v", err)
	}
}

func TestExecModeMissingCommand(t *testing.T) {
	err := runExecMode(execConfig(t), []string{"/nonexistent/tether-worker"}, "", testutil.Logger(t))

	var exitError *process.ExitError
	if !errors.As(err, &exitError) || exitError.Code != 127 {
		t.Fatalf("runExecMode() error = %v, want exit code 127", err)
	}
}
