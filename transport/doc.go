// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package transport establishes the TCP connections that carry tether's
// message channel between a controller and its workers.
//
// Both sides of a channel may sit behind port-forwarding layers
// (Docker, SSH tunnels, debuggers), so the two primitives here are
// shaped around their failure modes rather than around a long-lived
// server:
//
// [Connect] opens an outbound connection with bounded retry. The callee
// is usually a process that was started moments ago and is not yet
// listening, so "connection refused" is retried every RetryInterval
// until Timeout has elapsed since the first attempt. After a dial
// succeeds, Connect waits RejectClosedSocket and then checks that the
// peer has not already closed the socket: a forwarder that accepts
// optimistically and drops the connection once it finds nothing
// listening behind it looks exactly like success at the TCP level.
//
// [Listen] and [Acceptor.Accept] receive exactly one inbound
// connection. The listener is closed as soon as the accept resolves,
// whether it produced a connection, hit its Timeout, or was cancelled,
// so a second client is refused by the kernel rather than left in the
// backlog. [Accept] combines both steps.
//
// Failures are returned as [*ConnectError] and [*AcceptError], each
// carrying a Reason that callers can inspect with errors.As or the
// Is* predicates.
package transport
