// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports build information for the tether binaries.
//
// [GitCommit], [GitDirty], [BuildTime], and [Version] are set with
// -ldflags -X at release time. When they are not (go install, go run,
// test binaries), the VCS stamp that the Go toolchain embeds is used
// instead, so a plain "go build" from a checkout still reports its
// commit.
//
// [Info] is the --version line, [Full] adds toolchain and platform,
// [Short] and [Commit] return single fields.
package version
