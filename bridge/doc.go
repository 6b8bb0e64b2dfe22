// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package bridge splices one locally accepted message channel onto one
// remotely established channel, rewriting every message in flight.
//
// A controller and its worker frequently see different filesystem
// namespaces: the worker runs in a container or on an SSH host where
// the project lives under /workspace, while the controller knows it as
// /home/user/project. The bridge runs in an intermediary process that
// can reach both sides. It first dials the controller's listener (the
// remote leg), then listens for the worker's single connection (the
// local leg). Each JSON line the worker sends is decoded, passed
// through the caller's [Transform], and re-encoded onto the remote leg
// before the next line is read.
//
// Forwarding is one-directional. Bytes arriving on the remote leg are
// drained and discarded so that the remote end of stream is observed;
// replies travel out of band or through a second bridge. The two legs
// never outlive each other: local end of stream half-closes and then
// closes the remote leg, and remote end of stream closes the local leg.
//
// [Open] returns once both the remote connection and the local
// listener exist. The accept and the forwarding run in the background.
// [Bridge.Dispose] tears everything down from any state and waits for
// the background work; [Bridge.Wait] and [Bridge.Err] report how the
// channel ended. A transform failure, a malformed line, or a write
// failure is fatal to the channel and is reported as its error.
package bridge
