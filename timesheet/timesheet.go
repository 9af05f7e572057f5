// Package timesheet computes worked durations and earnings from clock
// entries. All functions are pure; callers supply the reference instant.
package timesheet

import (
	"fmt"
	"math"
	"time"

	"staffsync/models"
)

type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

// ParsePeriod accepts the period names used by the reporting API. An empty
// string defaults to the weekly report.
func ParsePeriod(s string) (Period, error) {
	switch s {
	case "", "week", "weekly":
		return PeriodWeek, nil
	case "day", "daily":
		return PeriodDay, nil
	case "month", "monthly":
		return PeriodMonth, nil
	}
	return "", fmt.Errorf("invalid period %q", s)
}

// Duration returns the length of an entry. Open entries are measured
// against now.
func Duration(e models.ClockEntry, now time.Time) time.Duration {
	if e.ClockOut != nil {
		return e.ClockOut.Sub(e.ClockIn)
	}
	return now.Sub(e.ClockIn)
}

// DayStart returns local midnight of the day containing ref.
func DayStart(ref time.Time) time.Time {
	y, m, d := ref.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, ref.Location())
}

// WeekStart returns Monday 00:00 of the week containing ref.
func WeekStart(ref time.Time) time.Time {
	day := DayStart(ref)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// MonthStart returns the first of the month containing ref, at 00:00.
func MonthStart(ref time.Time) time.Time {
	y, m, _ := ref.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, ref.Location())
}

// Bounds returns the half-open interval [start, end) of the bucket
// containing ref.
func Bounds(p Period, ref time.Time) (time.Time, time.Time) {
	switch p {
	case PeriodDay:
		start := DayStart(ref)
		return start, start.AddDate(0, 0, 1)
	case PeriodMonth:
		start := MonthStart(ref)
		return start, start.AddDate(0, 1, 0)
	default:
		start := WeekStart(ref)
		return start, start.AddDate(0, 0, 7)
	}
}

// Bucket sums the durations of all closed entries whose clock-in falls
// within the bucket containing ref. Open entries are excluded; they are
// reported separately as the live running session.
func Bucket(entries []models.ClockEntry, p Period, ref time.Time) time.Duration {
	start, end := Bounds(p, ref)
	return SumClosed(entries, start, end)
}

// SumClosed sums closed-entry durations for entries clocked in within
// [start, end).
func SumClosed(entries []models.ClockEntry, start, end time.Time) time.Duration {
	var total time.Duration
	for _, e := range entries {
		if e.ClockOut == nil {
			continue
		}
		if e.ClockIn.Before(start) || !e.ClockIn.Before(end) {
			continue
		}
		total += e.ClockOut.Sub(e.ClockIn)
	}
	return total
}

// Earnings converts a worked duration to pay at the given hourly rate.
// The result is unrounded; round with RoundCents at presentation time only,
// so that accumulation across entries never compounds rounding error.
func Earnings(d time.Duration, hourlyRate float64) float64 {
	return float64(d.Milliseconds()) / 3600000.0 * hourlyRate
}

func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
