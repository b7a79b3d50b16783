package service

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNoStartTime is returned for tasks without a start time.
var ErrNoStartTime = errors.New("task has no start time")

// Clock returns the current time.
type Clock func() time.Time

// Layouts with a zone designator denote an instant.
var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04Z07:00",
	// Offsets without a colon: +0800 and +08.
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05Z07",
	"2006-01-02T15:04Z0700",
	"2006-01-02T15:04Z07",
	"2006-01-02 15:04:05Z0700",
	"2006-01-02 15:04:05Z07",
	"2006-01-02 15:04Z0700",
	"2006-01-02 15:04Z07",
}

// Naive layouts are wall-clock times in the configured location.
// Fractional seconds are accepted after the seconds field.
var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseStartTime parses an ISO-8601 start time. A trailing "Z" is treated as "+00:00".
// Values carrying an offset are converted into loc; naive values are read as wall-clock
// time in loc, so both kinds compare as instants.
func ParseStartTime(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrNoStartTime
	}
	if loc == nil {
		loc = time.Local
	}
	if strings.HasSuffix(raw, "Z") || strings.HasSuffix(raw, "z") {
		raw = raw[:len(raw)-1] + "+00:00"
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.In(loc), nil
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse start time %q: unsupported format", raw)
}

// MinutesUntil returns the signed number of minutes from now to start.
func MinutesUntil(start, now time.Time) float64 {
	return start.Sub(now).Minutes()
}
