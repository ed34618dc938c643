package model

import (
	"fmt"
	"sort"
	"time"
)

// DateLayout is the layout used for calendar dates in config, storage and logs
const DateLayout = "2006-01-02"

// Date is a calendar day with no time component.
// It is comparable, so it can be used as a map key.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate returns the normalised date for the given year, month and day
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the calendar date of t in t's own location
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a date in YYYY-MM-DD format.
// Longer timestamps such as "2021-05-01T00:00:00" are accepted and truncated to the day.
func ParseDate(s string) (Date, error) {
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// MustParseDate is ParseDate for literals; it panics on invalid input
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Time returns midnight UTC on d
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// AddDays returns the date n days after d (n may be negative)
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

// Before reports whether d is strictly earlier than other
func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// After reports whether d is strictly later than other
func (d Date) After(other Date) bool {
	return other.Before(d)
}

// IsZero reports whether d is the zero Date
func (d Date) IsZero() bool {
	return d == Date{}
}

// Weekday returns the day of the week of d
func (d Date) Weekday() time.Weekday {
	return d.Time().Weekday()
}

// String formats d as YYYY-MM-DD
func (d Date) String() string {
	return d.Time().Format(DateLayout)
}

// Display formats d for notifications, e.g. "2021-05-07 Fri"
func (d Date) Display() string {
	return d.Time().Format("2006-01-02 Mon")
}

// DateSet is an unordered set of calendar dates
type DateSet map[Date]struct{}

// NewDateSet builds a set from the given dates; duplicates collapse
func NewDateSet(dates ...Date) DateSet {
	s := make(DateSet, len(dates))
	for _, d := range dates {
		s[d] = struct{}{}
	}
	return s
}

// Add inserts d into the set
func (s DateSet) Add(d Date) {
	s[d] = struct{}{}
}

// Has reports whether d is in the set
func (s DateSet) Has(d Date) bool {
	_, ok := s[d]
	return ok
}

// Len returns the number of dates in the set
func (s DateSet) Len() int {
	return len(s)
}

// Minus returns the dates in s that are not in other
func (s DateSet) Minus(other DateSet) DateSet {
	out := make(DateSet)
	for d := range s {
		if !other.Has(d) {
			out[d] = struct{}{}
		}
	}
	return out
}

// Union returns a new set with the dates of both s and other
func (s DateSet) Union(other DateSet) DateSet {
	out := make(DateSet, len(s)+len(other))
	for d := range s {
		out[d] = struct{}{}
	}
	for d := range other {
		out[d] = struct{}{}
	}
	return out
}

// Sorted returns the dates in ascending order
func (s DateSet) Sorted() []Date {
	dates := make([]Date, 0, len(s))
	for d := range s {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool {
		return dates[i].Before(dates[j])
	})
	return dates
}
