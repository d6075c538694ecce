// Package codec translates between NUL-joined wire fields and typed schema
// values: one decoder per inbound message shape, one field builder per
// outbound request shape.
package codec

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/yanun0323/decimal"
	"github.com/yanun0323/errors"

	"main/internal/wire"
)

// Reader walks the fields of one inbound message with a sticky error.
// Empty fields decode to zero values; the gateway sends empty for unset.
type Reader struct {
	fields []string
	pos    int
	err    error
}

// NewReader wraps a decoded field list.
func NewReader(fields []string) *Reader {
	return &Reader{fields: fields}
}

// Err returns the first decode failure, if any.
func (r *Reader) Err() error {
	return r.err
}

// Remaining returns how many fields are left to consume.
func (r *Reader) Remaining() int {
	return len(r.fields) - r.pos
}

// Skip discards n fields.
func (r *Reader) Skip(n int) {
	r.pos += n
}

func (r *Reader) next() (string, bool) {
	if r.err != nil || r.pos >= len(r.fields) {
		if r.err == nil {
			r.err = errors.Errorf("field %d out of range (%d fields)", r.pos, len(r.fields))
		}
		return "", false
	}
	f := r.fields[r.pos]
	r.pos++
	return f, true
}

// String consumes one field.
func (r *Reader) String() string {
	f, _ := r.next()
	return f
}

// Int consumes one field as a base-10 integer.
func (r *Reader) Int() int64 {
	f, ok := r.next()
	if !ok || f == "" {
		return 0
	}
	v, err := strconv.ParseInt(f, 10, 64)
	if err != nil && r.err == nil {
		r.err = errors.Wrapf(err, "field %d %q as int", r.pos-1, f)
	}
	return v
}

// Float consumes one field as a float.
func (r *Reader) Float() float64 {
	f, ok := r.next()
	if !ok || f == "" {
		return 0
	}
	v, err := strconv.ParseFloat(f, 64)
	if err != nil && r.err == nil {
		r.err = errors.Wrapf(err, "field %d %q as float", r.pos-1, f)
	}
	return v
}

// Bool consumes one field as a 0/1 flag.
func (r *Reader) Bool() bool {
	return r.Int() != 0
}

// Decimal consumes one field as a decimal value.
func (r *Reader) Decimal() decimal.Decimal {
	f, ok := r.next()
	if !ok || f == "" {
		var zero decimal.Decimal
		return zero
	}
	d, err := parseDecimal(f)
	if err != nil && r.err == nil {
		r.err = errors.Wrapf(err, "field %d %q as decimal", r.pos-1, f)
	}
	return d
}

// Time consumes one field as a wire timestamp.
func (r *Reader) Time() time.Time {
	f, ok := r.next()
	if !ok {
		return time.Time{}
	}
	ts, err := wire.ParseTimestamp(f)
	if err != nil && r.err == nil {
		r.err = errors.Wrapf(err, "field %d %q as timestamp", r.pos-1, f)
	}
	return ts
}

// parseDecimal feeds the ASCII number through the decimal library's JSON
// string form, the only constructor its public surface guarantees.
func parseDecimal(s string) (decimal.Decimal, error) {
	var d decimal.Decimal
	if err := json.Unmarshal([]byte(strconv.Quote(s)), &d); err != nil {
		return d, err
	}
	return d, nil
}

// appendInt renders an integer request field.
func appendInt(fields []string, v int64) []string {
	return append(fields, strconv.FormatInt(v, 10))
}

// appendFloat renders a float request field; zero encodes as "0".
func appendFloat(fields []string, v float64) []string {
	return append(fields, strconv.FormatFloat(v, 'g', -1, 64))
}

// appendBool renders a 0/1 request field.
func appendBool(fields []string, v bool) []string {
	if v {
		return append(fields, "1")
	}
	return append(fields, "0")
}
