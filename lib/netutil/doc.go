// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides socket-level helpers shared by the transport
// and bridge packages.
//
// [IsExpectedCloseError] classifies errors produced by normal connection
// teardown (EOF, closed connection, broken pipe, connection reset) so
// that callers do not log them as failures.
//
// [PeerClosed] reports whether the remote end of a TCP connection has
// already sent FIN or RST, without consuming any pending data. The
// connector uses it after its grace window to detect port forwarders
// (Docker, SSH tunnels) that accept a connection before the real
// destination is listening and then drop it.
package netutil
