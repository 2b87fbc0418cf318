// Package timewin converts calendar boundaries (day/week/month) into
// half-open timestamp windows. All arithmetic uses the local calendar,
// matching how the export timestamps are presented.
package timewin

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// ParseDate parses a yyyy-mm-dd string in local time.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want yyyy-mm-dd): %w", s, err)
	}
	return t, nil
}

// FormatDate formats a timestamp as yyyy-mm-dd in local time.
func FormatDate(t time.Time) string {
	return t.Local().Format(dateLayout)
}

// DayStart returns midnight of t's calendar day.
func DayStart(t time.Time) time.Time {
	t = t.Local()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

// NextDay returns midnight of the following calendar day. Using time.Date
// keeps day boundaries aligned across DST transitions.
func NextDay(t time.Time) time.Time {
	t = t.Local()
	return time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, time.Local)
}

// IsMonthStart reports whether t falls on the first day of a month.
func IsMonthStart(t time.Time) bool {
	return t.Local().Day() == 1
}

// IsWeekStart reports whether t falls on a Monday, the first day of an
// ISO week.
func IsWeekStart(t time.Time) bool {
	return t.Local().Weekday() == time.Monday
}

// NextMonth returns midnight of the first day of the month following t.
func NextMonth(t time.Time) time.Time {
	t = t.Local()
	return time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, time.Local)
}

// NextWeek returns midnight of the Monday following t's ISO week.
func NextWeek(t time.Time) time.Time {
	t = t.Local()
	// Offset from Monday: Mon=0 ... Sun=6.
	off := (int(t.Weekday()) + 6) % 7
	return time.Date(t.Year(), t.Month(), t.Day()-off+7, 0, 0, 0, 0, time.Local)
}

// ISOWeek returns the ISO year and week number for t.
func ISOWeek(t time.Time) (int, int) {
	return t.Local().ISOWeek()
}
