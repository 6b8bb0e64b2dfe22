// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package launcher

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/bureau-foundation/tether/lib/testutil"
)

const testTimeout = 10 * time.Second

func TestStartPropagatesExitCode(t *testing.T) {
	worker := Start(context.Background(), Command{Path: "sh", Args: []string{"-c", "exit 3"}}, nil)
	testutil.RequireClosed(t, worker.Done(), testTimeout, "waiting for worker")

	exit, ok := worker.Exit()
	if !ok {
		t.Fatal("Exit() not ready after Done closed")
	}
	if exit.Code != 3 {
		t.Errorf("Code = %d, want 3", exit.Code)
	}
	if exit.Err != nil {
		t.Errorf("Err = %v, want nil for a non-zero exit", exit.Err)
	}
	if exit.PID == 0 {
		t.Error("PID = 0 for a worker that ran")
	}
	if exit.Success() {
		t.Error("Success() = true for exit code 3")
	}
}

func TestStartSuccessAndOutput(t *testing.T) {
	var stdout bytes.Buffer
	worker := Start(context.Background(), Command{
		Path:   "sh",
		Args:   []string{"-c", "echo $TETHER_TEST_VALUE"},
		Env:    []string{"TETHER_TEST_VALUE=hello"},
		Stdout: &stdout,
	}, nil)

	exit := worker.Wait()
	if !exit.Success() {
		t.Fatalf("Exit = %+v, want success", exit)
	}
	if got := strings.TrimSpace(stdout.String()); got != "hello" {
		t.Errorf("stdout = %q, want %q", got, "hello")
	}
}

func TestStartSpawnFailure(t *testing.T) {
	worker := Start(context.Background(), Command{Path: "/nonexistent/tether-worker"}, nil)

	testutil.RequireClosed(t, worker.Done(), testTimeout, "spawn failure must resolve Done")
	exit := worker.Wait()
	if exit.Err == nil {
		t.Fatal("Err = nil for a missing executable")
	}
	if exit.Code != -1 || exit.PID != 0 {
		t.Errorf("Exit = %+v, want Code -1 and PID 0", exit)
	}
	if worker.PID() != 0 {
		t.Errorf("PID() = %d, want 0", worker.PID())
	}
	if err := worker.Signal(syscall.SIGTERM); err != nil {
		t.Errorf("Signal() on a never-started worker = %v, want nil", err)
	}
}

func TestExitNotReadyWhileRunning(t *testing.T) {
	worker := Start(context.Background(), Command{Path: "sleep", Args: []string{"30"}}, nil)
	defer func() {
		worker.Signal(syscall.SIGKILL)
		worker.Wait()
	}()

	if _, ok := worker.Exit(); ok {
		t.Error("Exit() ready while the worker is sleeping")
	}
}

func TestSignalTerminatesWorker(t *testing.T) {
	worker := Start(context.Background(), Command{Path: "sleep", Args: []string{"30"}}, nil)
	if err := worker.Signal(syscall.SIGTERM); err != nil {
		t.Fatalf("Signal() error: %v", err)
	}

	testutil.RequireClosed(t, worker.Done(), testTimeout, "waiting for signaled worker")
	exit := worker.Wait()
	if !exit.Signaled {
		t.Errorf("Signaled = false, want true (exit %+v)", exit)
	}
	if exit.Code != 128+int(syscall.SIGTERM) {
		t.Errorf("Code = %d, want %d", exit.Code, 128+int(syscall.SIGTERM))
	}
	if err := worker.Signal(syscall.SIGTERM); err != nil {
		t.Errorf("Signal() after exit = %v, want nil", err)
	}
}

func TestContextCancelStopsWorker(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	worker := Start(ctx, Command{Path: "sleep", Args: []string{"30"}}, nil)
	cancel()

	testutil.RequireClosed(t, worker.Done(), testTimeout, "waiting for cancelled worker")
	if exit := worker.Wait(); !exit.Signaled {
		t.Errorf("Exit = %+v, want terminated by signal", exit)
	}
}

func TestRecordRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exit.cbor")
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	command := Command{Path: "worker", Args: []string{"--suite", "a"}}
	record := NewRecord(command, Exit{PID: 4242, Code: 2, Err: errors.New("boom")}, started, started.Add(1500*time.Millisecond))
	record.SessionID = "2f1c0a9e-7d5b-4c1e-9a8f-3b6d2e1f0c4a"
	record.Forwarded = 17

	if err := WriteRecord(path, record); err != nil {
		t.Fatalf("WriteRecord() error: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("temporary file left behind: %v", err)
	}

	got, err := ReadRecord(path)
	if err != nil {
		t.Fatalf("ReadRecord() error: %v", err)
	}
	if strings.Join(got.Command, " ") != "worker --suite a" {
		t.Errorf("Command = %v", got.Command)
	}
	if got.PID != 4242 || got.Code != 2 || got.Error != "boom" || got.Forwarded != 17 {
		t.Errorf("ReadRecord() = %+v", got)
	}
	if got.SessionID != record.SessionID {
		t.Errorf("SessionID = %q, want %q", got.SessionID, record.SessionID)
	}
	if !got.Started.Equal(started) || got.Finished.Sub(got.Started) != 1500*time.Millisecond {
		t.Errorf("Started/Finished = %v/%v", got.Started, got.Finished)
	}
}

func TestReadRecordMissing(t *testing.T) {
	_, err := ReadRecord(filepath.Join(t.TempDir(), "absent.cbor"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ReadRecord() error = %v, want os.ErrNotExist", err)
	}
}
