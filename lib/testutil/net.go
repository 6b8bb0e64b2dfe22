// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"net"
	"testing"
)

// FreePort returns a loopback TCP port with no listener. The port was
// bound and released, so another process could claim it in between;
// tests treat that as vanishingly unlikely on a loopback ephemeral
// port.
func FreePort(t testing.TB) int {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserving a loopback port: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	if err := listener.Close(); err != nil {
		t.Fatalf("releasing loopback port %d: %v", port, err)
	}
	return port
}
