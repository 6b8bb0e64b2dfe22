// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction so that retry
// loops, grace windows, and accept timeouts can be tested without
// sleeping.
//
// Production code takes a Clock field and falls back to Real() when it
// is nil. Tests pass Fake() and drive time explicitly:
//
//	fakeClock := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	go func() { result <- connectWithRetry(fakeClock) }()
//	fakeClock.WaitForTimers(1)               // retry sleep registered
//	fakeClock.Advance(200 * time.Millisecond) // fire it
//
// # FakeClock Synchronization
//
// A goroutine that calls Sleep, After, or NewTimer on a FakeClock
// registers a pending waiter. WaitForTimers blocks until that many
// waiters exist, which removes the race between a goroutine arming a
// timer and the test advancing past it.
package clock
