package wire

import (
	"bytes"
	"encoding/binary"
	"testing"

	"main/pkg/exception"
)

func TestEncodeFieldsLayout(t *testing.T) {
	frame := EncodeFields(nil, "9", "1", "42")

	want := []byte{0, 0, 0, 7, '9', 0, '1', 0, '4', '2', 0}
	if !bytes.Equal(frame, want) {
		t.Fatalf("frame mismatch: got %v want %v", frame, want)
	}
}

func TestFramingRoundTrip(t *testing.T) {
	cases := [][]string{
		{"4", "2", "-1", "2104", "Market data farm connection is OK"},
		{"9", "1", "12345"},
		{""},
		{"10", "", "AAPL", "STK", "", "0", "?"},
	}

	for _, fields := range cases {
		frame := EncodeFields(nil, fields...)
		payload, rest, err := DecodeBuffer(frame)
		if err != nil {
			t.Fatalf("decode %q: %v", fields, err)
		}
		if len(rest) != 0 {
			t.Fatalf("decode %q: %d residual bytes", fields, len(rest))
		}
		got := SplitFields(payload)
		if len(got) != len(fields) {
			t.Fatalf("decode %q: got %q", fields, got)
		}
		for i := range fields {
			if got[i] != fields[i] {
				t.Fatalf("field %d mismatch: got %q want %q", i, got[i], fields[i])
			}
		}
	}
}

func TestDecodeBufferReassembly(t *testing.T) {
	fields := []string{"17", "3", "-11", "20240102", "187.15"}
	frame := EncodeFields(nil, fields...)

	// Split the frame at every byte boundary; each half-feed must decode
	// exactly one message with nothing lost or duplicated.
	for cut := 0; cut <= len(frame); cut++ {
		var buf []byte
		buf = append(buf, frame[:cut]...)

		payload, rest, err := DecodeBuffer(buf)
		if err != nil {
			t.Fatalf("cut %d: %v", cut, err)
		}
		if payload != nil && cut < len(frame) {
			t.Fatalf("cut %d: decoded from a partial frame", cut)
		}
		if payload == nil {
			buf = append(rest, frame[cut:]...)
			payload, rest, err = DecodeBuffer(buf)
			if err != nil {
				t.Fatalf("cut %d: %v", cut, err)
			}
		}
		if payload == nil {
			t.Fatalf("cut %d: no message decoded", cut)
		}
		if len(rest) != 0 {
			t.Fatalf("cut %d: %d residual bytes", cut, len(rest))
		}
		got := SplitFields(payload)
		for i := range fields {
			if got[i] != fields[i] {
				t.Fatalf("cut %d: field %d mismatch: %q", cut, i, got[i])
			}
		}
	}
}

func TestDecodeBufferBackToBackFrames(t *testing.T) {
	buf := EncodeFields(nil, "9", "1", "7")
	buf = append(buf, EncodeFields(nil, "15", "1", "DU12345")...)

	first, rest, err := DecodeBuffer(buf)
	if err != nil || first == nil {
		t.Fatalf("first decode: payload=%v err=%v", first, err)
	}
	second, rest, err := DecodeBuffer(rest)
	if err != nil || second == nil {
		t.Fatalf("second decode: payload=%v err=%v", second, err)
	}
	if len(rest) != 0 {
		t.Fatalf("residual bytes: %d", len(rest))
	}
	if got := SplitFields(second); got[2] != "DU12345" {
		t.Fatalf("second message fields: %q", got)
	}
}

func TestDecodeBufferOversizedPrefix(t *testing.T) {
	var buf [HeaderSize]byte
	binary.BigEndian.PutUint32(buf[:], uint32(MaxFrameSize+1))

	_, _, err := DecodeBuffer(buf[:])
	if err != exception.ErrFrameTooLarge {
		t.Fatalf("got %v, want ErrFrameTooLarge", err)
	}
}
