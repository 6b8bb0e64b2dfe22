// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
)

func TestNewLoggerFormats(t *testing.T) {
	var text, structured bytes.Buffer
	newLogger(&text, true, slog.LevelInfo).Info("bridge open", "port", 5000)
	newLogger(&structured, false, slog.LevelInfo).Info("bridge open", "port", 5000)

	if !strings.Contains(text.String(), "msg=\"bridge open\" port=5000") {
		t.Errorf("terminal output = %q, want text handler format", text.String())
	}
	if !strings.Contains(structured.String(), `"msg":"bridge open","port":5000`) {
		t.Errorf("non-terminal output = %q, want JSON handler format", structured.String())
	}
}

func TestNewLoggerLevel(t *testing.T) {
	var buffer bytes.Buffer
	logger := newLogger(&buffer, false, slog.LevelWarn)
	logger.Info("hidden")
	logger.Warn("shown")

	if strings.Contains(buffer.String(), "hidden") || !strings.Contains(buffer.String(), "shown") {
		t.Errorf("output = %q, want only the warning", buffer.String())
	}
}

func TestExitError(t *testing.T) {
	err := fmt.Errorf("running worker: %w", ExitCode(3))

	var exitError *ExitError
	if !errors.As(err, &exitError) || exitError.Code != 3 {
		t.Fatalf("errors.As(%v) did not find exit code 3", err)
	}
	if exitError.Error() != "exit status 3" {
		t.Errorf("Error() = %q", exitError.Error())
	}

	cause := errors.New("boom")
	wrapped := &ExitError{Code: 2, Err: cause}
	if !errors.Is(wrapped, cause) || wrapped.Error() != "boom" {
		t.Errorf("ExitError with cause = %v", wrapped)
	}
}
