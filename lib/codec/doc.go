// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides tether's two serialization formats:
//
//   - JSON lines for the message channel: every message is one JSON
//     value on one line, terminated by '\n'. No length prefix and no
//     framing beyond the newline. [LineEncoder] writes messages and
//     [LineDecoder] turns a byte stream back into a lazy sequence of
//     decoded values.
//   - CBOR for on-disk records that only tether itself reads (the
//     launcher's exit record). [Marshal] and [Unmarshal] use Core
//     Deterministic Encoding.
//
// Decoded messages are untyped: objects become map[string]any, arrays
// []any, and numbers json.Number so that integers of any width are
// re-encoded byte-exact when a message crosses a bridge.
//
// A line that is not valid JSON produces a [*ProtocolError]. Messages
// that preceded it have already been returned; the decoder may be
// called again to continue with the following line.
package codec
