// Package datetime provides date and time utility functions.
package datetime

import (
	"time"

	"github.com/bfinch/debt-optimizer/pkg/constants"
)

const (
	// DateTimeLayout is the format expected in config files and is also the
	// output date format.
	DateTimeLayout = constants.DateTimeLayout
)

// MustParseTime parses a date string using the given layout and panics on
// error. This is intended for use in tests where the date string is known to
// be valid.
func MustParseTime(layout, dateStr string) time.Time {
	t, err := time.Parse(layout, dateStr)
	if err != nil {
		panic(err)
	}
	return t
}

// MonthStart returns the first day of the month containing the given date.
func MonthStart(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, date.Location())
}

// NextMonth returns the first day of the month after the given date.
func NextMonth(date time.Time) time.Time {
	return MonthStart(date).AddDate(0, 1, 0)
}

// DaysInMonth returns the number of days in the month containing the given
// date.
func DaysInMonth(date time.Time) int {
	return NextMonth(date).AddDate(0, 0, -1).Day()
}

// ClampDay returns the given date's month with the specified day of month,
// clamped to the last day of the month (a due day of 31 falls on Feb 28).
func ClampDay(date time.Time, day int) time.Time {
	if last := DaysInMonth(date); day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return time.Date(date.Year(), date.Month(), day, 0, 0, 0, 0, date.Location())
}
