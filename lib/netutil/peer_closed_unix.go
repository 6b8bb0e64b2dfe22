// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build linux || darwin || freebsd || netbsd || openbsd

package netutil

import (
	"errors"
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// PeerClosed reports whether the peer of conn has already closed or
// reset the connection. It peeks at the socket's receive queue with
// MSG_PEEK|MSG_DONTWAIT, so pending application data stays queued for
// the next Read.
//
// A connection with unread data is reported as open even if a FIN
// follows the data. Connections that do not expose a file descriptor
// are reported as open.
func PeerClosed(conn net.Conn) (bool, error) {
	syscallConn, ok := conn.(syscall.Conn)
	if !ok {
		return false, nil
	}
	rawConn, err := syscallConn.SyscallConn()
	if err != nil {
		// The descriptor is gone; our own side has been closed.
		return true, err
	}

	var closed bool
	var probeError error
	controlError := rawConn.Read(func(fd uintptr) bool {
		var buffer [1]byte
		n, _, recvError := unix.Recvfrom(int(fd), buffer[:], unix.MSG_PEEK|unix.MSG_DONTWAIT)
		switch {
		case errors.Is(recvError, unix.EAGAIN), errors.Is(recvError, unix.EWOULDBLOCK):
			// Nothing queued and no FIN: still open.
		case errors.Is(recvError, unix.EINTR):
			// Treat as open; the caller's next Read will retry.
		case recvError != nil:
			closed = true
			probeError = recvError
		case n == 0:
			closed = true
		}
		// Always report done so Read does not park waiting for
		// readability.
		return true
	})
	if controlError != nil {
		return true, controlError
	}
	if probeError != nil && errors.Is(probeError, unix.ECONNRESET) {
		// A reset is the expected shape of a dropped forward, not a
		// probe failure.
		probeError = nil
	}
	return closed, probeError
}
