// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"iter"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/oxtoacart/bpool"
)

// MaxMessageSize bounds a single decoded line: 64 MiB.
const MaxMessageSize = 64 << 20

var (
	jsonAPI = jsoniter.Config{
		EscapeHTML:             false,
		SortMapKeys:            true,
		UseNumber:              true,
		ValidateJsonRawMessage: true,
	}.Froze()

	// 16 buffers preallocated at 4 KiB; larger buffers are replaced
	// on Put rather than retained.
	linePool = bpool.NewSizedBufferPool(16, 4096)
)

// Encode writes value to w as one JSON line. The line and its
// terminating newline go out in a single Write call.
func Encode(w io.Writer, value any) error {
	buffer := linePool.Get()
	defer linePool.Put(buffer)

	// The encoder terminates the value with '\n'.
	if err := jsonAPI.NewEncoder(buffer).Encode(value); err != nil {
		return fmt.Errorf("codec: encoding message: %w", err)
	}

	if _, err := w.Write(buffer.Bytes()); err != nil {
		return err
	}
	return nil
}

// LineEncoder writes messages to a stream, one JSON line each. It is
// safe for concurrent use; lines from different callers never
// interleave.
type LineEncoder struct {
	mu     sync.Mutex
	writer io.Writer
}

// NewLineEncoder returns a LineEncoder writing to w.
func NewLineEncoder(w io.Writer) *LineEncoder {
	return &LineEncoder{writer: w}
}

// Encode writes value as one line.
func (e *LineEncoder) Encode(value any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Encode(e.writer, value)
}

// LineDecoder reads newline-delimited JSON values from a stream.
type LineDecoder struct {
	reader     *bufio.Reader
	lineNumber int
	limit      int
	line       []byte
}

// NewLineDecoder returns a LineDecoder reading from r.
func NewLineDecoder(r io.Reader) *LineDecoder {
	return &LineDecoder{
		reader: bufio.NewReader(r),
		limit:  MaxMessageSize,
	}
}

// Next returns the next message. Blank lines are skipped and a
// trailing '\r' is ignored. At the end of the stream Next returns
// io.EOF; a final line without a newline is still delivered first.
// A line that fails to parse yields a *ProtocolError and the following
// call continues with the next line.
func (d *LineDecoder) Next() (any, error) {
	for {
		line, err := d.readLine()
		if err != nil {
			return nil, err
		}

		trimmed := bytes.TrimSpace(line)
		if len(trimmed) == 0 {
			continue
		}

		var value any
		if err := jsonAPI.Unmarshal(trimmed, &value); err != nil {
			return nil, &ProtocolError{Line: d.lineNumber, Data: snippet(trimmed), Err: err}
		}
		return value, nil
	}
}

// Messages returns the remaining messages as a lazy sequence. The
// sequence ends quietly at end of stream. Any other failure, including
// a ProtocolError, is yielded once as the final element.
func (d *LineDecoder) Messages() iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		for {
			value, err := d.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(value, err) || err != nil {
				return
			}
		}
	}
}

// Line returns the number of lines consumed so far.
func (d *LineDecoder) Line() int { return d.lineNumber }

// readLine returns the next line without its newline. The returned
// slice is only valid until the next call.
func (d *LineDecoder) readLine() ([]byte, error) {
	d.line = d.line[:0]
	for {
		fragment, err := d.reader.ReadSlice('\n')
		if len(d.line)+len(fragment) > d.limit {
			d.lineNumber++
			if skipError := d.skipLine(err); skipError != nil && !errors.Is(skipError, io.EOF) {
				return nil, skipError
			}
			return nil, &ProtocolError{Line: d.lineNumber, Err: ErrMessageTooLarge}
		}
		d.line = append(d.line, fragment...)

		switch {
		case err == nil:
			d.lineNumber++
			return d.line[:len(d.line)-1], nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF) && len(d.line) > 0:
			d.lineNumber++
			return d.line, nil
		default:
			return nil, err
		}
	}
}

// skipLine discards input up to and including the next newline. err is
// the error from the ReadSlice call that overflowed the limit.
func (d *LineDecoder) skipLine(err error) error {
	for errors.Is(err, bufio.ErrBufferFull) {
		_, err = d.reader.ReadSlice('\n')
	}
	return err
}
