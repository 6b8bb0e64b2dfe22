// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package launcher

import (
	"os"
	"os/signal"
	"syscall"
)

// ForwardSignals relays SIGINT and SIGTERM received by this process to
// worker until the worker ends or the returned stop function is
// called. While forwarding is active those signals no longer terminate
// this process; the caller is expected to exit once the worker does.
func ForwardSignals(worker *Worker) (stop func()) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	quit := make(chan struct{})

	go func() {
		for {
			select {
			case sig := <-signals:
				worker.logger.Debug("forwarding signal", "signal", sig.String())
				if err := worker.Signal(sig); err != nil {
					worker.logger.Warn("signal forwarding failed", "signal", sig.String(), "error", err)
				}
			case <-worker.Done():
				return
			case <-quit:
				return
			}
		}
	}()

	stopped := false
	return func() {
		if stopped {
			return
		}
		stopped = true
		signal.Stop(signals)
		close(quit)
	}
}
