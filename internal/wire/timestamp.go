package wire

import (
	"strconv"
	"strings"
	"time"

	"main/pkg/exception"
)

const (
	layoutDate     = "20060102"
	layoutDateTime = "20060102-15:04:05"
)

// ParseTimestamp decodes the timestamp formats TWS puts on the wire:
// 8-digit YYYYMMDD daily dates, 17-character YYYYMMDD-HH:MM:SS formatted
// dates, and epoch seconds as a bare integer (10-digit bar stamps and raw
// tick stamps alike). Legacy 3-part space-separated dates are rejected.
func ParseTimestamp(field string) (time.Time, error) {
	field = strings.TrimSpace(field)
	if field == "" {
		return time.Time{}, exception.ErrUnsupportedStamp
	}
	if strings.Contains(field, " ") {
		return time.Time{}, exception.ErrUnsupportedStamp
	}

	if len(field) == len(layoutDateTime) && field[8] == '-' {
		ts, err := time.ParseInLocation(layoutDateTime, field, time.UTC)
		if err != nil {
			return time.Time{}, exception.ErrUnsupportedStamp
		}
		return ts, nil
	}

	if len(field) == len(layoutDate) {
		if ts, err := time.ParseInLocation(layoutDate, field, time.UTC); err == nil {
			return ts, nil
		}
		// 8 digits that are not a valid date fall through to epoch parsing.
	}

	epoch, err := strconv.ParseInt(field, 10, 64)
	if err != nil {
		return time.Time{}, exception.ErrUnsupportedStamp
	}
	return time.Unix(epoch, 0).UTC(), nil
}
