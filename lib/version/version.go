// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
)

// Set via -ldflags at build time, for example:
//
//	go build -ldflags "-X github.com/bureau-foundation/tether/lib/version.GitCommit=$(git rev-parse --short HEAD)"
var (
	// GitCommit is the short git SHA of the build.
	GitCommit = "unknown"

	// GitDirty is "true" if the tree had uncommitted changes.
	GitDirty = "false"

	// BuildTime is the UTC timestamp of the build.
	BuildTime = "unknown"

	// Version is the semantic version, set for releases.
	Version = "0.1.0-dev"
)

type build struct {
	commit string
	dirty  bool
	time   string
}

var resolve = sync.OnceValue(func() build {
	resolved := build{commit: GitCommit, dirty: GitDirty == "true", time: BuildTime}
	if resolved.commit != "unknown" {
		return resolved
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return resolved
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			resolved.commit = shorten(setting.Value)
		case "vcs.modified":
			resolved.dirty = setting.Value == "true"
		case "vcs.time":
			if resolved.time == "unknown" {
				resolved.time = setting.Value
			}
		}
	}
	return resolved
})

func shorten(revision string) string {
	if len(revision) > 12 {
		return revision[:12]
	}
	return revision
}

// Info returns the --version string: "0.1.0-dev (abc1234-dirty, 2026-...)".
func Info() string {
	resolved := resolve()
	dirty := ""
	if resolved.dirty {
		dirty = "-dirty"
	}
	return fmt.Sprintf("%s (%s%s, %s)", Version, resolved.commit, dirty, resolved.time)
}

// Full returns Info plus the Go version and platform.
func Full() string {
	return fmt.Sprintf("%s\n  Go: %s\n  Platform: %s/%s",
		Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Short returns just the version number.
func Short() string {
	return Version
}

// Commit returns the git commit SHA, or "unknown".
func Commit() string {
	return resolve().commit
}

// Print writes "name Info()" to stdout, for --version.
func Print(name string) {
	fmt.Printf("%s %s\n", name, Info())
}
