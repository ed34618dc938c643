package services

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/cabinwatch/cabinwatch/pkg/core/model"
)

// YearMonth identifies a calendar month
type YearMonth struct {
	Year  int
	Month time.Month
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%d-%02d", ym.Year, int(ym.Month))
}

// MonthsInWindow lists every calendar month touched by the half-open window [start, end),
// oldest first. A window that ends on the first of a month does not touch that month.
func MonthsInWindow(start, end model.Date) ([]YearMonth, error) {
	if !start.Before(end) {
		return []YearMonth{}, nil
	}

	last := end.AddDays(-1)
	first := model.NewDate(start.Year, start.Month, 1)
	lastMonth := model.NewDate(last.Year, last.Month, 1)

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.MONTHLY,
		Dtstart: first.Time(),
		Until:   lastMonth.Time(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build month recurrence: %w", err)
	}

	occurrences := rule.All()
	months := make([]YearMonth, 0, len(occurrences))
	for _, t := range occurrences {
		months = append(months, YearMonth{Year: t.Year(), Month: t.Month()})
	}
	return months, nil
}
