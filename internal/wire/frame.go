// Package wire implements the TWS socket framing: a 4-byte big-endian
// length prefix followed by NUL-joined ASCII fields with a trailing NUL.
package wire

import (
	"bytes"
	"encoding/binary"

	"main/pkg/exception"
)

const (
	// HeaderSize is the length-prefix size in bytes.
	HeaderSize = 4

	// MaxFrameSize bounds a single frame payload. A prefix above this is
	// treated as a corrupt stream, not a frame to wait for.
	MaxFrameSize = 16 << 20
)

const sep byte = 0x00

// EncodeFields builds one outgoing frame from the given fields.
func EncodeFields(dst []byte, fields ...string) []byte {
	payloadLen := len(fields)
	for _, f := range fields {
		payloadLen += len(f)
	}

	need := HeaderSize + payloadLen
	if cap(dst) < need {
		dst = make([]byte, 0, need)
	} else {
		dst = dst[:0]
	}

	dst = append(dst, 0, 0, 0, 0)
	binary.BigEndian.PutUint32(dst[:HeaderSize], uint32(payloadLen))
	for _, f := range fields {
		dst = append(dst, f...)
		dst = append(dst, sep)
	}
	return dst
}

// EncodeRaw length-prefixes an opaque payload without field joining. The
// handshake version advertisement is the one frame that needs this.
func EncodeRaw(dst []byte, payload []byte) []byte {
	need := HeaderSize + len(payload)
	if cap(dst) < need {
		dst = make([]byte, 0, need)
	} else {
		dst = dst[:0]
	}
	dst = append(dst, 0, 0, 0, 0)
	binary.BigEndian.PutUint32(dst[:HeaderSize], uint32(len(payload)))
	return append(dst, payload...)
}

// DecodeBuffer extracts the first complete frame payload from buf.
//
// It returns (nil, buf, nil) when buf does not yet hold a full frame, and
// (payload, rest, nil) otherwise; payload keeps its NUL joins for
// SplitFields. exception.ErrFrameTooLarge signals a corrupt stream and the
// caller must drop the connection.
func DecodeBuffer(buf []byte) (payload, rest []byte, err error) {
	if len(buf) < HeaderSize {
		return nil, buf, nil
	}
	size := int(binary.BigEndian.Uint32(buf[:HeaderSize]))
	if size > MaxFrameSize {
		return nil, buf, exception.ErrFrameTooLarge
	}
	if len(buf) < HeaderSize+size {
		return nil, buf, nil
	}
	return buf[HeaderSize : HeaderSize+size], buf[HeaderSize+size:], nil
}

// SplitFields splits a frame payload into its fields, dropping the empty
// element produced by the trailing NUL.
func SplitFields(payload []byte) []string {
	parts := bytes.Split(payload, []byte{sep})
	if n := len(parts); n > 0 && len(parts[n-1]) == 0 {
		parts = parts[:n-1]
	}
	fields := make([]string, len(parts))
	for i, p := range parts {
		fields[i] = string(p)
	}
	return fields
}
