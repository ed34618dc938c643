package model

// Location is a configured cabin location to watch
type Location struct {
	ID        string
	Name      string
	StartDate Date // first day of the query window (inclusive)
	EndDate   Date // end of the query window (exclusive)
	MinNights int  // minimum run length for a range to be reported as bookable
	Units     []int
}

// Contains reports whether d falls inside the location's [StartDate, EndDate) window
func (l Location) Contains(d Date) bool {
	return !d.Before(l.StartDate) && d.Before(l.EndDate)
}

// BookableUnit is a single rentable cabin at a location, as listed by the upstream API
type BookableUnit struct {
	ID   int
	Name string
}

// UnitAvailability holds the dates a unit is currently open for booking
type UnitAvailability struct {
	Unit      BookableUnit
	Available DateSet
}

// DateRange is a run of consecutive days starting at Start
type DateRange struct {
	Start  Date
	Length int
}

// End returns the last day covered by the range
func (r DateRange) End() Date {
	return r.Start.AddDays(r.Length - 1)
}

// Dates expands the range into its individual days
func (r DateRange) Dates() []Date {
	dates := make([]Date, r.Length)
	for i := 0; i < r.Length; i++ {
		dates[i] = r.Start.AddDays(i)
	}
	return dates
}

// Reconciliation is the difference between a fresh fetch and the persisted snapshot for one unit
type Reconciliation struct {
	Booked         DateSet // persisted but no longer available
	NewlyAvailable DateSet // available but not yet persisted
}

// IsEmpty reports whether nothing changed
func (r Reconciliation) IsEmpty() bool {
	return len(r.Booked) == 0 && len(r.NewlyAvailable) == 0
}
