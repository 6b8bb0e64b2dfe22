// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process holds the entrypoint helpers shared by the tether
// binaries: [Fatal] for errors returned from run() before or after the
// structured logger exists, [ExitCode] for propagating a worker's exit
// status, and [NewLogger] for the process-wide slog handler.
package process
