package loader

import (
	"fmt"
	"strings"
	"time"

	"sentcorr/internal/types"
)

// Layouts that carry their own offset. The result is converted to the
// reference zone.
var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05-0700",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02T15:04Z07:00",
	"2006-01-02 15:04Z07:00",
	time.RFC1123Z,
	time.RFC1123,
}

// Layouts without an offset, read as wall-clock time in the reference zone.
var naiveLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	types.DateLayout,
	"01/02/2006 15:04:05",
	"01/02/2006",
}

// ParseTimestamp reads a news timestamp and returns it in loc.
func ParseTimestamp(value string, loc *time.Location) (time.Time, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.In(loc), nil
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, v, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp format")
}

// ParseDate reads a bar date. The calendar date is taken as written, even
// when the value carries a time and offset, and returned as midnight in loc.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return calendarDate(t, loc), nil
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, v, loc); err == nil {
			return calendarDate(t, loc), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format")
}

func calendarDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
