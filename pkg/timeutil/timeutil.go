// Package timeutil holds the UTC calendar helpers shared by availability and booking.
package timeutil

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

var clockPattern = regexp.MustCompile(`^(\d{2}):(\d{2})(?::(\d{2}))?$`)

// Clock is a wall-clock time of day expressed in seconds since midnight.
type Clock int

// String renders the clock as HH:MM:SS.
func (c Clock) String() string {
	secs := int(c)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
}

// Duration returns the offset from midnight.
func (c Clock) Duration() time.Duration {
	return time.Duration(c) * time.Second
}

// ParseClock accepts HH:MM or HH:MM:SS in 24-hour format.
func ParseClock(raw string) (Clock, error) {
	m := clockPattern.FindStringSubmatch(raw)
	if m == nil {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM or HH:MM:SS", raw)
	}
	hh, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	ss := 0
	if m[3] != "" {
		ss, _ = strconv.Atoi(m[3])
	}
	if hh > 23 || mm > 59 || ss > 59 {
		return 0, fmt.Errorf("invalid time %q: out of range", raw)
	}
	return Clock(hh*3600 + mm*60 + ss), nil
}

// MidnightUTC truncates t to 00:00:00 of its UTC calendar date.
func MidnightUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// IsWeekendUTC reports whether t falls on a Saturday or Sunday in UTC.
func IsWeekendUTC(t time.Time) bool {
	wd := t.UTC().Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// IsWeekdayIndex reports whether n is a Monday..Friday index (1..5).
func IsWeekdayIndex(n int) bool {
	return n >= 1 && n <= 5
}

// AddMinutes shifts t by n minutes.
func AddMinutes(t time.Time, n int) time.Time {
	return t.Add(time.Duration(n) * time.Minute)
}

// CombineDateAndClock places clock on the UTC calendar date of day.
func CombineDateAndClock(day time.Time, clock Clock) time.Time {
	return MidnightUTC(day).Add(clock.Duration())
}

// ParseDate parses a YYYY-MM-DD calendar date as UTC midnight.
func ParseDate(raw string) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, raw, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", raw)
	}
	return d, nil
}

// ParseInstant parses an ISO-8601 timestamp and normalises it to UTC.
func ParseInstant(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid instant %q: expected ISO-8601 timestamp", raw)
	}
	return t.UTC(), nil
}

// ParseDateOrInstant accepts either a calendar date or a full timestamp; used for range queries.
func ParseDateOrInstant(raw string) (time.Time, error) {
	if d, err := ParseDate(raw); err == nil {
		return d, nil
	}
	return ParseInstant(raw)
}

// WeekdayIndex maps t's UTC weekday to 0 (Sunday) .. 6 (Saturday).
func WeekdayIndex(t time.Time) int {
	return int(t.UTC().Weekday())
}
