package services

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cabinwatch/cabinwatch/pkg/clients/visbookclient"
	"github.com/cabinwatch/cabinwatch/pkg/core/model"
)

// AvailabilityClient defines the upstream operations needed to fetch availability
type AvailabilityClient interface {
	ListWebProducts(ctx context.Context, locationID string) ([]visbookclient.WebProduct, error)
	GetMonthAvailability(ctx context.Context, locationID string, unitID int, year int, month time.Month) (*visbookclient.MonthAvailability, error)
}

// FetchAvailability returns the currently available dates inside the location window
// for every bookable unit, in upstream order. Any failure aborts the whole location
// with an *UpstreamFetchError; partial results are never returned.
func FetchAvailability(
	ctx context.Context,
	client AvailabilityClient,
	location model.Location,
	maxConcurrent int,
	logger *zap.Logger,
) ([]model.UnitAvailability, error) {
	logger = logger.With(zap.String("location", location.ID))
	logger.Debug("Starting fetchAvailability",
		zap.Stringer("start", location.StartDate),
		zap.Stringer("end", location.EndDate))

	fail := func(err error) error {
		return &UpstreamFetchError{LocationID: location.ID, Err: err}
	}

	// Step 1: Enumerate units and apply the allow-list
	products, err := client.ListWebProducts(ctx, location.ID)
	if err != nil {
		return nil, fail(err)
	}

	units := make([]model.BookableUnit, 0, len(products))
	for _, p := range products {
		if len(location.Units) > 0 && !slices.Contains(location.Units, p.WebProductID) {
			continue
		}
		units = append(units, model.BookableUnit{ID: p.WebProductID, Name: p.UnitName})
	}
	logger.Debug("Found bookable units", zap.Int("listed", len(products)), zap.Int("retained", len(units)))

	// Step 2: Work out which months the window touches
	months, err := MonthsInWindow(location.StartDate, location.EndDate)
	if err != nil {
		return nil, fail(err)
	}

	// Step 3: Fetch each unit's months concurrently, one unit at a time
	result := make([]model.UnitAvailability, 0, len(units))
	for _, unit := range units {
		available, err := fetchUnitMonths(ctx, client, location, unit, months, maxConcurrent, logger)
		if err != nil {
			return nil, fail(err)
		}
		result = append(result, model.UnitAvailability{Unit: unit, Available: available})
	}

	return result, nil
}

// fetchUnitMonths fans out one request per month and joins the available days into one set
func fetchUnitMonths(
	ctx context.Context,
	client AvailabilityClient,
	location model.Location,
	unit model.BookableUnit,
	months []YearMonth,
	maxConcurrent int,
	logger *zap.Logger,
) (model.DateSet, error) {
	perMonth := make([][]model.Date, len(months))

	g, gctx := errgroup.WithContext(ctx)
	if maxConcurrent > 0 {
		g.SetLimit(maxConcurrent)
	}

	for i, ym := range months {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			month, err := client.GetMonthAvailability(gctx, location.ID, unit.ID, ym.Year, ym.Month)
			if err != nil {
				return err
			}

			dates, err := availableDays(month, location)
			if err != nil {
				return fmt.Errorf("malformed availability for unit %d in %s: %w", unit.ID, ym, err)
			}

			logger.Debug("Checked month",
				zap.String("unit", unit.Name),
				zap.Int("unitId", unit.ID),
				zap.Stringer("month", ym),
				zap.Int("available", len(dates)),
				zap.Int("total", len(month.Items)))

			perMonth[i] = dates
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	available := model.NewDateSet()
	for _, dates := range perMonth {
		for _, d := range dates {
			available.Add(d)
		}
	}
	return available, nil
}

// availableDays extracts the bookable days that fall inside the location window
func availableDays(month *visbookclient.MonthAvailability, location model.Location) ([]model.Date, error) {
	if month == nil {
		return nil, fmt.Errorf("empty response")
	}

	dates := make([]model.Date, 0, len(month.Items))
	for _, item := range month.Items {
		d, err := model.ParseDate(item.Date)
		if err != nil {
			return nil, err
		}
		if item.IsAvailable() && location.Contains(d) {
			dates = append(dates, d)
		}
	}
	return dates, nil
}
