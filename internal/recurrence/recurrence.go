package recurrence

import (
	"fmt"
	"strings"
	"time"
)

// Interval is the cadence of a recurring transaction.
type Interval string

const (
	Daily   Interval = "DAILY"
	Weekly  Interval = "WEEKLY"
	Monthly Interval = "MONTHLY"
	Yearly  Interval = "YEARLY"
)

// Intervals lists every supported interval in ascending length.
var Intervals = []Interval{Daily, Weekly, Monthly, Yearly}

// ParseInterval accepts the canonical upper-case tags as well as their
// lower-case forms.
func ParseInterval(s string) (Interval, error) {
	i := Interval(strings.ToUpper(strings.TrimSpace(s)))
	if !i.Valid() {
		return "", fmt.Errorf("unknown recurring interval %q", s)
	}
	return i, nil
}

// Valid reports whether i is one of the supported intervals.
func (i Interval) Valid() bool {
	switch i {
	case Daily, Weekly, Monthly, Yearly:
		return true
	default:
		return false
	}
}

func (i Interval) String() string { return string(i) }

// offset returns the calendar offset of one interval as AddDate arguments.
func (i Interval) offset() (years, months, days int, ok bool) {
	switch i {
	case Daily:
		return 0, 0, 1, true
	case Weekly:
		return 0, 0, 7, true
	case Monthly:
		return 0, 1, 0, true
	case Yearly:
		return 1, 0, 0, true
	default:
		return 0, 0, 0, false
	}
}

// NextDate returns the first occurrence strictly after from. It reports false
// when the interval is unknown or from is the zero time; callers treat that as
// "not recurring".
//
// Month and year arithmetic is delegated to time.AddDate, which normalizes
// overflowing days: Jan 31 + 1 month is Mar 3 (Mar 2 in leap years) and
// Feb 29 + 1 year is Mar 1.
func NextDate(from time.Time, interval Interval) (time.Time, bool) {
	if from.IsZero() {
		return time.Time{}, false
	}
	y, m, d, ok := interval.offset()
	if !ok {
		return time.Time{}, false
	}
	return from.AddDate(y, m, d), true
}

// PreviousDate is the inverse of NextDate. It is exact for Daily and Weekly,
// and for Monthly and Yearly whenever the day of month exists in the target
// month.
func PreviousDate(from time.Time, interval Interval) (time.Time, bool) {
	if from.IsZero() {
		return time.Time{}, false
	}
	y, m, d, ok := interval.offset()
	if !ok {
		return time.Time{}, false
	}
	return from.AddDate(-y, -m, -d), true
}
