// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestInfoStartsWithVersion(t *testing.T) {
	info := Info()
	if !strings.HasPrefix(info, Short()+" (") {
		t.Errorf("Info() = %q, want prefix %q", info, Short()+" (")
	}
	if !strings.Contains(info, Commit()) {
		t.Errorf("Info() = %q does not contain Commit() %q", info, Commit())
	}
}

func TestFullIncludesPlatform(t *testing.T) {
	full := Full()
	if !strings.Contains(full, runtime.Version()) || !strings.Contains(full, runtime.GOOS+"/"+runtime.GOARCH) {
		t.Errorf("Full() = %q", full)
	}
}

func TestShorten(t *testing.T) {
	if got := shorten("0123456789abcdef0123"); got != "0123456789ab" {
		t.Errorf("shorten() = %q", got)
	}
	if got := shorten("abc"); got != "abc" {
		t.Errorf("shorten(short) = %q", got)
	}
}
