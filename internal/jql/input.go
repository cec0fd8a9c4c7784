package jql

import (
	"fmt"
	"strings"
	"time"
)

// ParseDate parses a YYYY-MM-DD date as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q (want YYYY-MM-DD): %w", s, err)
	}
	return t, nil
}

// SplitList splits a comma-separated flag value, trimming spaces and dropping empty items.
func SplitList(s string) []string {
	return clean(strings.Split(s, ","))
}

// WindowBounds returns the instants that bound the inclusive window [from, to]:
// from at 00:00:00 and to at 23:59:59.999, both UTC.
func WindowBounds(from, to time.Time) (start, end time.Time) {
	start = time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	end = time.Date(to.Year(), to.Month(), to.Day(), 23, 59, 59, int(999*time.Millisecond), time.UTC)
	return start, end
}
