// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for tether packages.
//
// [RequireReceive], [RequireSend], and [RequireClosed] wrap the
// select-with-deadline pattern so that individual tests never call
// time.After themselves. They are the only place in the test suite
// where a real wall-clock timeout guards against a hung test; the
// behavior under test runs on lib/clock's fake clock wherever timing
// matters.
//
// [FreePort] returns a loopback TCP port that nothing is listening on,
// for tests of refused connections and of listeners that bind later.
// [Logger] returns a slog.Logger that writes through t.Log, so log
// output is attached to the test that produced it.
//
// [UniqueID] generates increasing identifiers for telling messages
// apart within a test.
//
// All helpers call t.Fatalf on failure; test setup failures are not
// recoverable.
package testutil
