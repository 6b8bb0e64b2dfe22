// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"
)

// Logger returns a Debug-level text logger whose output goes to t.Log.
// Lines logged after the test has finished are dropped.
func Logger(t testing.TB) *slog.Logger {
	writer := &testWriter{t: t}
	t.Cleanup(writer.finish)
	return slog.New(slog.NewTextHandler(writer, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type testWriter struct {
	mu       sync.Mutex
	t        testing.TB
	finished bool
}

func (w *testWriter) Write(data []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.finished {
		w.t.Log(string(bytes.TrimRight(data, "\n")))
	}
	return len(data), nil
}

func (w *testWriter) finish() {
	w.mu.Lock()
	w.finished = true
	w.mu.Unlock()
}
