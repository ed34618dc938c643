package commands

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cabinwatch/cabinwatch/pkg/db"
)

type fakeSnapshotStore struct {
	rows map[int][]string
}

func (f *fakeSnapshotStore) GetSnapshot(ctx context.Context, locationID string, unitID int) ([]db.SnapshotRow, error) {
	var rows []db.SnapshotRow
	for _, date := range f.rows[unitID] {
		rows = append(rows, db.SnapshotRow{LocationID: locationID, UnitID: unitID, AvailableDate: date})
	}
	return rows, nil
}

func (f *fakeSnapshotStore) UpdateSnapshot(ctx context.Context, locationID string, unitID int, remove, add []string) error {
	return nil
}

func (f *fakeSnapshotStore) ListSnapshotUnits(ctx context.Context, locationID string) ([]int, error) {
	return []int{101, 102}, nil
}

func TestPrintSnapshot(t *testing.T) {
	store := &fakeSnapshotStore{rows: map[int][]string{
		101: {"2021-05-03", "2021-05-01", "2021-05-02", "2021-05-10"},
		102: {"2021-06-01"},
	}}

	t.Run("one unit", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, printSnapshot(context.Background(), &out, store, "6446", []int{101}))

		assert.Contains(t, out.String(), "Unit 101: 4 available dates")
		assert.Contains(t, out.String(), "2021-05-01 Sat   3 night(s)  until 2021-05-03 Mon")
		assert.Contains(t, out.String(), "2021-05-10 Mon   1 night(s)  until 2021-05-10 Mon")
		assert.NotContains(t, out.String(), "Unit 102")
	})

	t.Run("every stored unit", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, printSnapshot(context.Background(), &out, store, "6446", nil))

		assert.Contains(t, out.String(), "Unit 101: 4 available dates")
		assert.Contains(t, out.String(), "Unit 102: 1 available dates")
	})
}

func TestPrintSnapshot_NothingStored(t *testing.T) {
	store := &emptySnapshotStore{}

	var out bytes.Buffer
	require.NoError(t, printSnapshot(context.Background(), &out, store, "7001", nil))
	assert.Equal(t, "No snapshot stored for location 7001\n", out.String())
}

type emptySnapshotStore struct {
	fakeSnapshotStore
}

func (e *emptySnapshotStore) ListSnapshotUnits(ctx context.Context, locationID string) ([]int, error) {
	return nil, nil
}
