// Package ranges groups calendar dates into runs of consecutive days.
package ranges

import (
	"github.com/cabinwatch/cabinwatch/pkg/core/model"
)

// Compress returns the maximal runs of consecutive days in dates, sorted by start date.
// The returned ranges never overlap and cover exactly the input set.
func Compress(dates model.DateSet) []model.DateRange {
	return compressSorted(dates.Sorted())
}

// CompressDates is Compress for an unordered slice that may contain duplicates.
// Duplicates are dropped before compression so they cannot produce empty or overlapping ranges.
func CompressDates(dates []model.Date) []model.DateRange {
	return Compress(model.NewDateSet(dates...))
}

// compressSorted expects ascending dates without duplicates
func compressSorted(sorted []model.Date) []model.DateRange {
	result := make([]model.DateRange, 0)
	for _, d := range sorted {
		if n := len(result); n > 0 {
			current := &result[n-1]
			if current.Start.AddDays(current.Length) == d {
				current.Length++
				continue
			}
		}
		result = append(result, model.DateRange{Start: d, Length: 1})
	}
	return result
}

// FilterMinLength keeps the ranges that are at least minLength days long, preserving order
func FilterMinLength(rs []model.DateRange, minLength int) []model.DateRange {
	filtered := make([]model.DateRange, 0, len(rs))
	for _, r := range rs {
		if r.Length >= minLength {
			filtered = append(filtered, r)
		}
	}
	return filtered
}
