package lyrics

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidTimestamp is returned when a timestamp tag cannot be parsed.
var ErrInvalidTimestamp = errors.New("invalid timestamp")

// ParseTimestamp parses the content of a timestamp tag (without brackets).
//
// The number of colons selects the layout: one colon is MM:SS, two colons
// is HH:MM:SS. An optional fraction after '.' is read by digit count as
// tenths, centiseconds or milliseconds; extra digits are truncated.
func ParseTimestamp(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	clock, frac, hasFrac := strings.Cut(s, ".")

	parts := strings.Split(clock, ":")
	var hours, minutes, seconds int
	var err error

	switch len(parts) {
	case 2:
		if minutes, err = atoiDigits(parts[0]); err != nil {
			return 0, invalidTimestamp(s)
		}
		if seconds, err = atoiDigits(parts[1]); err != nil {
			return 0, invalidTimestamp(s)
		}
	case 3:
		if hours, err = atoiDigits(parts[0]); err != nil {
			return 0, invalidTimestamp(s)
		}
		if minutes, err = atoiDigits(parts[1]); err != nil {
			return 0, invalidTimestamp(s)
		}
		if seconds, err = atoiDigits(parts[2]); err != nil {
			return 0, invalidTimestamp(s)
		}
		if minutes >= 60 {
			return 0, invalidTimestamp(s)
		}
	default:
		return 0, invalidTimestamp(s)
	}

	if seconds >= 60 {
		return 0, invalidTimestamp(s)
	}

	var millis int
	if hasFrac {
		if len(frac) > 3 {
			frac = frac[:3]
		}
		if millis, err = atoiDigits(frac); err != nil {
			return 0, invalidTimestamp(s)
		}
		switch len(frac) {
		case 1:
			millis *= 100
		case 2:
			millis *= 10
		}
	}

	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(millis)*time.Millisecond, nil
}

// FormatTimestamp renders d as mm:ss.xx, switching to mm:ss.xxx when the
// duration is not a whole number of centiseconds.
func FormatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	minutes := ms / 60000
	seconds := (ms / 1000) % 60
	millis := ms % 1000
	if millis%10 != 0 {
		return fmt.Sprintf("%02d:%02d.%03d", minutes, seconds, millis)
	}
	return fmt.Sprintf("%02d:%02d.%02d", minutes, seconds, millis/10)
}

func invalidTimestamp(s string) error {
	return fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
}

// atoiDigits parses a non-empty run of ASCII digits. Signs and spaces are rejected.
func atoiDigits(s string) (int, error) {
	if s == "" {
		return 0, strconv.ErrSyntax
	}
	for i := range len(s) {
		if s[i] < '0' || s[i] > '9' {
			return 0, strconv.ErrSyntax
		}
	}
	return strconv.Atoi(s)
}
