package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the wire format of booking dates.
const DateLayout = "2006-01-02"

// ErrInvalidTime is returned when a time-of-day string cannot be parsed.
var ErrInvalidTime = errors.New("invalid time of day")

// TimeOfDay is a same-day wall-clock time with minute precision, stored as
// minutes after midnight.
type TimeOfDay int

// ParseTimeOfDay accepts "H:MM", "HH:MM" and "HH:MM:SS", ASCII digits
// only.  Seconds are truncated, never rounded.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	bad := fmt.Errorf("%w: %q", ErrInvalidTime, s)
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, bad
	}
	h, ok := field(parts[0], 1, 23)
	if !ok {
		return 0, bad
	}
	m, ok := field(parts[1], 2, 59)
	if !ok {
		return 0, bad
	}
	if len(parts) == 3 {
		if _, ok := field(parts[2], 2, 59); !ok {
			return 0, bad
		}
	}
	return TimeOfDay(h*60 + m), nil
}

// field parses minLen to two ASCII digits no greater than hi.
func field(s string, minLen, hi int) (int, bool) {
	if len(s) < minLen || len(s) > 2 {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	return n, err == nil && n <= hi
}

// NormalizeTime returns s rewritten as HH:MM.
func NormalizeTime(s string) (string, error) {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		return "", err
	}
	return t.String(), nil
}

// Minutes returns the number of minutes after midnight.
func (t TimeOfDay) Minutes() int { return int(t) }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// ParseDate parses a YYYY-MM-DD booking date in UTC.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
}
