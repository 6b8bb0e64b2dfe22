// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"errors"
	"fmt"
	"os"
)

// Fatal writes "error: err" to stderr and exits. An error carrying an
// ExitError exits with that code; anything else exits 1.
func Fatal(err error) {
	var exitError *ExitError
	if errors.As(err, &exitError) {
		if exitError.Err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", exitError.Err)
		}
		os.Exit(exitError.Code)
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

// ExitError asks Fatal for a specific exit status. Err, if set, is
// printed first; a nil Err exits silently.
type ExitError struct {
	Code int
	Err  error
}

// ExitCode returns an error that makes Fatal exit with code and print
// nothing. Use it to propagate a child's status from run().
func ExitCode(code int) error {
	return &ExitError{Code: code}
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }
