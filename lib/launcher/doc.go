// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package launcher runs the worker process at the far end of a
// message channel and reports how it ended.
//
// [Start] never fails synchronously: a command that cannot be found or
// spawned produces a [Worker] whose Done channel is already closed and
// whose [Exit] carries the error. Callers therefore have one code path
// for "the worker is gone", whether it crashed, exited normally, or
// never started. [ForwardSignals] relays SIGINT and SIGTERM from the
// launching process to the worker so that an interactive Ctrl-C reaches
// it.
//
// [WriteRecord] persists an exit [Record] as CBOR using the
// write-temporary, fsync, rename sequence, so a supervisor polling the
// file never sees a partial write. [ReadRecord] reads it back.
package launcher
