package wire

import (
	"testing"
	"time"
)

func TestParseTimestampFormats(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"20240105", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		{"20240105-14:30:00", time.Date(2024, 1, 5, 14, 30, 0, 0, time.UTC)},
		{"1700000000", time.Unix(1700000000, 0).UTC()},
		{"946684800", time.Unix(946684800, 0).UTC()},
	}

	for _, c := range cases {
		got, err := ParseTimestamp(c.in)
		if err != nil {
			t.Fatalf("parse %q: %v", c.in, err)
		}
		if !got.Equal(c.want) {
			t.Fatalf("parse %q: got %v want %v", c.in, got, c.want)
		}
	}
}

func TestParseTimestampRejectsLegacy(t *testing.T) {
	for _, in := range []string{"", "20240105 14:30:00 UTC", "not-a-date", "2024-01-05"} {
		if _, err := ParseTimestamp(in); err == nil {
			t.Fatalf("parse %q: expected error", in)
		}
	}
}
