// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"errors"
	"fmt"
)

// ErrMessageTooLarge is wrapped by a ProtocolError when a single line
// exceeds the decoder's size limit.
var ErrMessageTooLarge = errors.New("message exceeds maximum size")

// maxSnippet bounds how much of an offending line a ProtocolError keeps
// for diagnostics.
const maxSnippet = 256

// ProtocolError reports a line on the message channel that could not be
// decoded. Messages before it were delivered; the decoder can continue
// with the next line.
type ProtocolError struct {
	// Line is the 1-based line number within the stream.
	Line int

	// Data is the start of the offending line, at most 256 bytes.
	// Empty when the line was too large to buffer.
	Data []byte

	// Err is the underlying parse error, or ErrMessageTooLarge.
	Err error
}

func (e *ProtocolError) Error() string {
	if errors.Is(e.Err, ErrMessageTooLarge) {
		return fmt.Sprintf("codec: line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("codec: malformed message on line %d: %v", e.Line, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// IsProtocolError reports whether err is, or wraps, a ProtocolError.
func IsProtocolError(err error) bool {
	var protocolError *ProtocolError
	return errors.As(err, &protocolError)
}

func snippet(line []byte) []byte {
	if len(line) > maxSnippet {
		line = line[:maxSnippet]
	}
	return append([]byte(nil), line...)
}
