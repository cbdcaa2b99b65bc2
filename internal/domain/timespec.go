package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidTimeFormat means user-supplied time text has no extractable time.
var ErrInvalidTimeFormat = errors.New("invalid time format")

// timeLayouts are tried in order against the normalized input.
var timeLayouts = []string{
	"15:04",
	"3:04 PM",
	"3:04PM",
	"3 PM",
	"3PM",
}

// ParseTimeSpec converts free-form time text ("8:30 AM", "9 PM", "20:15")
// into the canonical zero-padded 24-hour "HH:MM" form. Pure function.
func ParseTimeSpec(raw string) (string, error) {
	s := strings.ToUpper(strings.Join(strings.Fields(raw), " "))
	if s == "" {
		return "", ErrInvalidTimeFormat
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04"), nil
		}
	}
	return "", ErrInvalidTimeFormat
}

// SplitClock returns the hour and minute of a canonical "HH:MM" value.
func SplitClock(hhmm string) (hour, minute int, err error) {
	parts := strings.Split(hhmm, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected HH:MM, got %q", hhmm)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", hhmm)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", hhmm)
	}
	return hour, minute, nil
}
