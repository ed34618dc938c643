package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cabinwatch/cabinwatch/pkg/clients/visbookclient"
	"github.com/cabinwatch/cabinwatch/pkg/core/model"
	"github.com/cabinwatch/cabinwatch/pkg/db"
)

func d(s string) model.Date {
	return model.MustParseDate(s)
}

func dates(ss ...string) model.DateSet {
	set := model.NewDateSet()
	for _, s := range ss {
		set.Add(d(s))
	}
	return set
}

// mockAvailabilityClient serves availability from an in-memory calendar.
// Days not listed in available are returned as unavailable.
type mockAvailabilityClient struct {
	mu        sync.Mutex
	products  []visbookclient.WebProduct
	available map[int]model.DateSet // unitID -> available dates
	listErr   error
	monthErr  map[int]error // unitID -> error for any month
	rawItems  map[int][]visbookclient.DayAvailability
	requests  []string
}

func (m *mockAvailabilityClient) ListWebProducts(ctx context.Context, locationID string) ([]visbookclient.WebProduct, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.products, nil
}

func (m *mockAvailabilityClient) GetMonthAvailability(ctx context.Context, locationID string, unitID int, year int, month time.Month) (*visbookclient.MonthAvailability, error) {
	m.mu.Lock()
	m.requests = append(m.requests, fmt.Sprintf("%s/%d/%d-%d", locationID, unitID, year, int(month)))
	m.mu.Unlock()

	if err := m.monthErr[unitID]; err != nil {
		return nil, err
	}
	if items, ok := m.rawItems[unitID]; ok {
		return &visbookclient.MonthAvailability{Items: items}, nil
	}

	var items []visbookclient.DayAvailability
	for day := model.NewDate(year, month, 1); day.Month == month; day = day.AddDays(1) {
		items = append(items, dayItem(day.String()+"T00:00:00", m.available[unitID].Has(day)))
	}
	return &visbookclient.MonthAvailability{Items: items}, nil
}

func dayItem(date string, available bool) visbookclient.DayAvailability {
	return visbookclient.DayAvailability{
		Date: date,
		WebProducts: []visbookclient.DayWebProduct{
			{Availability: &visbookclient.ProductAvailability{Available: &available}},
		},
	}
}

// memSnapshotStore is an in-memory snapshot store
type memSnapshotStore struct {
	rows        map[string]model.DateSet
	getErr      error
	updateErr   error
	updateCalls int
}

func newMemSnapshotStore() *memSnapshotStore {
	return &memSnapshotStore{rows: make(map[string]model.DateSet)}
}

func snapshotKey(locationID string, unitID int) string {
	return fmt.Sprintf("%s/%d", locationID, unitID)
}

func (m *memSnapshotStore) seed(locationID string, unitID int, set model.DateSet) {
	m.rows[snapshotKey(locationID, unitID)] = set.Union(nil)
}

func (m *memSnapshotStore) snapshot(locationID string, unitID int) model.DateSet {
	if set, ok := m.rows[snapshotKey(locationID, unitID)]; ok {
		return set
	}
	return model.NewDateSet()
}

func (m *memSnapshotStore) GetSnapshot(ctx context.Context, locationID string, unitID int) ([]db.SnapshotRow, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	var rows []db.SnapshotRow
	for _, day := range m.snapshot(locationID, unitID).Sorted() {
		rows = append(rows, db.SnapshotRow{LocationID: locationID, UnitID: unitID, AvailableDate: day.String()})
	}
	return rows, nil
}

func (m *memSnapshotStore) UpdateSnapshot(ctx context.Context, locationID string, unitID int, remove, add []string) error {
	m.updateCalls++
	if m.updateErr != nil {
		return m.updateErr
	}
	set := m.snapshot(locationID, unitID).Union(nil)
	for _, s := range remove {
		delete(set, d(s))
	}
	for _, s := range add {
		set.Add(d(s))
	}
	m.rows[snapshotKey(locationID, unitID)] = set
	return nil
}

type sentEmail struct {
	To, Subject, Body string
}

type mockSender struct {
	sent []sentEmail
	err  error
}

func (m *mockSender) SendEmail(ctx context.Context, to, subject, htmlBody string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentEmail{To: to, Subject: subject, Body: htmlBody})
	return nil
}
