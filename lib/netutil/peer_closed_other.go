// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd

package netutil

import "net"

// PeerClosed always reports false on platforms without MSG_PEEK
// support; the grace-window check degrades to a plain delay.
func PeerClosed(conn net.Conn) (bool, error) {
	return false, nil
}
