package visbookclient

import (
	"context"
	"fmt"
	"time"
)

// MonthAvailability is the availability endpoint response for one unit and month
type MonthAvailability struct {
	Items []DayAvailability `json:"items"`
}

// DayAvailability is a single day in a MonthAvailability
type DayAvailability struct {
	Date        string          `json:"date"`
	WebProducts []DayWebProduct `json:"webProducts"`
}

// DayWebProduct carries the availability of one web product on a day
type DayWebProduct struct {
	Availability *ProductAvailability `json:"availability"`
}

// ProductAvailability is the availability flag; it may be null upstream
type ProductAvailability struct {
	Available *bool `json:"available"`
}

// IsAvailable reports whether the day can be booked.
// Only the first web product entry counts; a missing entry or a false or null flag means unavailable.
func (d DayAvailability) IsAvailable() bool {
	if len(d.WebProducts) == 0 {
		return false
	}
	a := d.WebProducts[0].Availability
	return a != nil && a.Available != nil && *a.Available
}

// GetMonthAvailability fetches per-day availability for a unit in the given month.
// The upstream expects the month without zero padding, e.g. 2021-5.
func (c *Client) GetMonthAvailability(ctx context.Context, locationID string, unitID int, year int, month time.Month) (*MonthAvailability, error) {
	path := fmt.Sprintf("%s/availability/%d/%d-%d", locationPath(locationID), unitID, year, int(month))

	var result MonthAvailability
	if err := c.getJSON(ctx, locationID, path, &result); err != nil {
		return nil, fmt.Errorf("failed to get availability for unit %d in %d-%02d: %w", unitID, year, int(month), err)
	}
	return &result, nil
}
