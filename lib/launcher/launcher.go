// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"syscall"
	"time"
)

// DefaultStopGrace is how long a worker has to exit after SIGTERM on
// context cancellation before it is killed.
const DefaultStopGrace = 5 * time.Second

// Command describes the worker to run.
type Command struct {
	// Path is the executable, resolved with exec.LookPath.
	Path string

	// Args are the arguments after the executable name.
	Args []string

	// Env is the worker's environment. Nil inherits this process's.
	Env []string

	// Dir is the working directory. Empty inherits this process's.
	Dir string

	// Stdin, Stdout, and Stderr are connected to the worker. Nil means
	// the null device.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// StopGrace is the delay between SIGTERM and SIGKILL when the
	// context passed to Start is cancelled. Zero means
	// DefaultStopGrace.
	StopGrace time.Duration
}

// Argv returns the command line as a single slice.
func (c Command) Argv() []string {
	return append([]string{c.Path}, c.Args...)
}

// Exit describes how a worker ended.
type Exit struct {
	// PID of the worker. Zero if it never started.
	PID int

	// Code is the exit status. A worker killed by a signal reports
	// 128 plus the signal number, as a shell would. -1 if the worker
	// never started or its status is unknown.
	Code int

	// Signaled is true if the worker was terminated by a signal.
	Signaled bool

	// Err is set when the worker could not be spawned or waited for.
	// A non-zero exit status is not an error.
	Err error
}

// Success reports whether the worker ran and exited with status 0.
func (e Exit) Success() bool {
	return e.Err == nil && e.Code == 0 && !e.Signaled
}

// Worker is a started (or failed-to-start) worker process.
type Worker struct {
	command Command
	process *os.Process
	logger  *slog.Logger
	done    chan struct{}

	// exit is written once before done is closed.
	exit Exit
}

// Start launches command. Cancelling ctx sends SIGTERM to the worker,
// followed by SIGKILL after StopGrace. Spawn failures are reported
// through the returned Worker, never as a panic or a separate error.
func Start(ctx context.Context, command Command, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	worker := &Worker{
		command: command,
		logger:  logger.With("command", command.Path),
		done:    make(chan struct{}),
	}

	path, err := exec.LookPath(command.Path)
	if err != nil {
		worker.fail(fmt.Errorf("launcher: resolving %q: %w", command.Path, err))
		return worker
	}

	cmd := exec.CommandContext(ctx, path, command.Args...)
	cmd.Env = command.Env
	cmd.Dir = command.Dir
	cmd.Stdin = command.Stdin
	cmd.Stdout = command.Stdout
	cmd.Stderr = command.Stderr
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = command.StopGrace
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = DefaultStopGrace
	}

	if err := cmd.Start(); err != nil {
		worker.fail(fmt.Errorf("launcher: starting %q: %w", command.Path, err))
		return worker
	}
	worker.process = cmd.Process
	worker.logger = worker.logger.With("pid", cmd.Process.Pid)
	worker.logger.Info("worker started", "args", command.Args)

	go worker.wait(cmd)
	return worker
}

func (w *Worker) fail(err error) {
	w.exit = Exit{Code: -1, Err: err}
	w.logger.Error("worker failed to start", "error", err)
	close(w.done)
}

func (w *Worker) wait(cmd *exec.Cmd) {
	defer close(w.done)

	waitError := cmd.Wait()
	exit := Exit{PID: cmd.Process.Pid, Code: -1}

	if state := cmd.ProcessState; state != nil {
		exit.Code = state.ExitCode()
		if status, ok := state.Sys().(syscall.WaitStatus); ok && status.Signaled() {
			exit.Signaled = true
			exit.Code = 128 + int(status.Signal())
		}
	}

	var exitError *exec.ExitError
	if waitError != nil && !errors.As(waitError, &exitError) {
		exit.Err = fmt.Errorf("launcher: waiting for %q: %w", w.command.Path, waitError)
	}
	w.exit = exit

	w.logger.Info("worker exited",
		"code", exit.Code,
		"signaled", exit.Signaled,
		"error", exit.Err,
	)
}

// Done is closed exactly once, when the worker has exited or failed to
// start.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// Exit returns how the worker ended. The second result is false, and
// the Exit zero, while the worker is still running.
func (w *Worker) Exit() (Exit, bool) {
	select {
	case <-w.done:
		return w.exit, true
	default:
		return Exit{}, false
	}
}

// Wait blocks until the worker ends.
func (w *Worker) Wait() Exit {
	<-w.done
	return w.exit
}

// PID returns the worker's process ID, or 0 if it never started.
func (w *Worker) PID() int {
	if w.process == nil {
		return 0
	}
	return w.process.Pid
}

// Signal sends sig to the worker. It is a no-op returning nil once the
// worker has ended or if it never started.
func (w *Worker) Signal(sig os.Signal) error {
	if w.process == nil {
		return nil
	}
	select {
	case <-w.done:
		return nil
	default:
	}
	if err := w.process.Signal(sig); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("launcher: signaling worker %d: %w", w.process.Pid, err)
	}
	return nil
}
