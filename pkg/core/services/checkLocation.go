package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/cabinwatch/cabinwatch/pkg/core/model"
)

// NotificationSender defines the email transport operation needed to deliver a report
type NotificationSender interface {
	SendEmail(ctx context.Context, to, subject, htmlBody string) error
}

// CheckOptions configures a single location check
type CheckOptions struct {
	Recipient             string
	SubjectPrefix         string
	MaxConcurrentRequests int
	// PersistAfterSend writes the snapshot only once the report has been sent
	PersistAfterSend bool
	// DryRun fetches and composes but neither persists nor sends
	DryRun bool
}

// UnitResult is the outcome of a check for one unit
type UnitResult struct {
	Unit           model.BookableUnit
	Reconciliation model.Reconciliation
	Report         string
	Err            error
}

// CheckResult is the outcome of a check for one location
type CheckResult struct {
	LocationID string
	Subject    string
	Body       string
	Units      []UnitResult
	Sent       bool
}

// CheckLocation runs fetch, reconcile, compose and send for one location.
//
// An *UpstreamFetchError aborts the whole location before anything is written.
// A *PersistenceError only affects its unit: that unit is left out of the report.
// The returned error joins every failure; the result is returned alongside it
// whenever the fetch succeeded.
func CheckLocation(
	ctx context.Context,
	client AvailabilityClient,
	store SnapshotStore,
	sender NotificationSender,
	location model.Location,
	opts CheckOptions,
	logger *zap.Logger,
) (*CheckResult, error) {
	logger = logger.With(zap.String("location", location.ID), zap.String("locationName", location.Name))
	logger.Debug("Starting checkLocation", zap.Bool("dryRun", opts.DryRun), zap.Bool("persistAfterSend", opts.PersistAfterSend))

	// Step 1: Fetch current availability for every unit
	units, err := FetchAvailability(ctx, client, location, opts.MaxConcurrentRequests, logger)
	if err != nil {
		return nil, err
	}

	result := &CheckResult{
		LocationID: location.ID,
		Subject:    Subject(opts.SubjectPrefix, location.Name),
		Units:      make([]UnitResult, 0, len(units)),
	}

	persistNow := !opts.DryRun && !opts.PersistAfterSend
	var errs []error
	var pending []SnapshotPlan
	var sections []string

	// Step 2: Diff each unit against its snapshot and render its section
	for _, ua := range units {
		unitResult := UnitResult{Unit: ua.Unit}

		plan, err := PlanSnapshot(ctx, store, location.ID, ua.Unit.ID, ua.Available)
		if err == nil && persistNow {
			err = ApplySnapshot(ctx, store, plan, logger)
		}
		if err != nil {
			logger.Error("Failed to reconcile unit", zap.Int("unitId", ua.Unit.ID), zap.Error(err))
			unitResult.Err = err
			errs = append(errs, err)
			result.Units = append(result.Units, unitResult)
			continue
		}

		unitResult.Reconciliation = plan.Reconciliation
		if !plan.IsEmpty() {
			logger.Info("Unit changed",
				zap.String("unit", ua.Unit.Name),
				zap.Int("unitId", ua.Unit.ID),
				zap.Int("booked", plan.Booked.Len()),
				zap.Int("newlyAvailable", plan.NewlyAvailable.Len()))
			pending = append(pending, plan)
		}

		report, err := ComposeUnitReport(ua.Unit.Name, plan.Booked, plan.NewlyAvailable, location.MinNights)
		if err != nil {
			unitResult.Err = err
			errs = append(errs, err)
			result.Units = append(result.Units, unitResult)
			continue
		}
		unitResult.Report = report
		sections = append(sections, report)
		result.Units = append(result.Units, unitResult)
	}

	// Step 3: Combine and send
	result.Body = ComposeLocationReport(sections)
	if result.Body == "" {
		logger.Debug("Nothing to report")
		return result, errors.Join(errs...)
	}

	if opts.DryRun {
		logger.Info("Dry run, not sending or persisting", zap.Int("changedUnits", len(pending)))
		return result, errors.Join(errs...)
	}

	if err := sender.SendEmail(ctx, opts.Recipient, result.Subject, result.Body); err != nil {
		notifyErr := &NotificationError{LocationID: location.ID, Err: err}
		logger.Error("Failed to send notification", zap.Error(notifyErr))
		errs = append(errs, notifyErr)
		return result, errors.Join(errs...)
	}
	result.Sent = true
	logger.Info("Sent notification", zap.String("subject", result.Subject), zap.String("to", opts.Recipient))

	// Step 4: With persistAfterSend, the snapshot only advances once the report went out
	if opts.PersistAfterSend {
		for _, plan := range pending {
			if err := ApplySnapshot(ctx, store, plan, logger); err != nil {
				logger.Error("Failed to persist snapshot after send", zap.Stringer("plan", plan), zap.Error(err))
				errs = append(errs, err)
				for i := range result.Units {
					if result.Units[i].Unit.ID == plan.UnitID {
						result.Units[i].Err = err
					}
				}
			}
		}
	}

	return result, errors.Join(errs...)
}

// FailedUnits counts the units whose reconciliation failed
func (r *CheckResult) FailedUnits() int {
	n := 0
	for _, u := range r.Units {
		if u.Err != nil {
			n++
		}
	}
	return n
}
