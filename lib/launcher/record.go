// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package launcher

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bureau-foundation/tether/lib/codec"
)

// Record is the on-disk summary of one bridged worker run.
type Record struct {
	// Command is the worker's argv.
	Command []string `cbor:"command"`

	PID      int    `cbor:"pid"`
	Code     int    `cbor:"code"`
	Signaled bool   `cbor:"signaled"`
	Error    string `cbor:"error,omitempty"`

	// SessionID is the bridge session that carried the worker's
	// messages, if any.
	SessionID string `cbor:"session_id,omitempty"`

	// Forwarded is the number of messages the bridge relayed.
	Forwarded int64 `cbor:"forwarded"`

	Started  time.Time `cbor:"started"`
	Finished time.Time `cbor:"finished"`
}

// NewRecord fills a Record from a command and its Exit.
func NewRecord(command Command, exit Exit, started, finished time.Time) Record {
	record := Record{
		Command:  command.Argv(),
		PID:      exit.PID,
		Code:     exit.Code,
		Signaled: exit.Signaled,
		Started:  started.UTC(),
		Finished: finished.UTC(),
	}
	if exit.Err != nil {
		record.Error = exit.Err.Error()
	}
	return record
}

// WriteRecord atomically writes record to path as CBOR: the data goes
// to a temporary file in the same directory, is fsynced, and is renamed
// into place. The parent directory must exist.
func WriteRecord(path string, record Record) error {
	data, err := codec.Marshal(record)
	if err != nil {
		return fmt.Errorf("encoding exit record: %w", err)
	}

	temporaryPath := path + ".tmp"
	file, err := os.OpenFile(temporaryPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("creating temporary exit record: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("writing temporary exit record: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("syncing temporary exit record: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("closing temporary exit record: %w", err)
	}
	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("renaming exit record into place: %w", err)
	}

	if parent, err := os.Open(filepath.Dir(path)); err == nil {
		parent.Sync()
		parent.Close()
	}
	return nil
}

// ReadRecord reads a record written by WriteRecord. A missing file
// yields an error wrapping os.ErrNotExist.
func ReadRecord(path string) (Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Record{}, err
	}
	var record Record
	if err := codec.Unmarshal(data, &record); err != nil {
		return Record{}, fmt.Errorf("decoding exit record %s: %w", path, err)
	}
	return record, nil
}
