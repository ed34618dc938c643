package services

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cabinwatch/cabinwatch/pkg/clients/visbookclient"
	"github.com/cabinwatch/cabinwatch/pkg/core/model"
)

func flokehyttene() model.Location {
	return model.Location{
		ID:        "6446",
		Name:      "Flokehyttene",
		StartDate: d("2021-05-01"),
		EndDate:   d("2021-09-01"),
		MinNights: 2,
	}
}

func TestFetchAvailability(t *testing.T) {
	client := &mockAvailabilityClient{
		products: []visbookclient.WebProduct{
			{WebProductID: 101, UnitName: "Storehytta"},
			{WebProductID: 102, UnitName: "Veslehytta"},
		},
		available: map[int]model.DateSet{
			101: dates("2021-05-01", "2021-06-30", "2021-08-31", "2021-09-01"),
		},
	}

	result, err := FetchAvailability(context.Background(), client, flokehyttene(), 2, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, result, 2)

	assert.Equal(t, model.BookableUnit{ID: 101, Name: "Storehytta"}, result[0].Unit)
	assert.Equal(t, dates("2021-05-01", "2021-06-30", "2021-08-31"), result[0].Available, "2021-09-01 is outside the window")

	assert.Equal(t, model.BookableUnit{ID: 102, Name: "Veslehytta"}, result[1].Unit)
	assert.NotNil(t, result[1].Available)
	assert.Equal(t, 0, result[1].Available.Len())

	sort.Strings(client.requests)
	assert.Equal(t, []string{
		"6446/101/2021-5", "6446/101/2021-6", "6446/101/2021-7", "6446/101/2021-8",
		"6446/102/2021-5", "6446/102/2021-6", "6446/102/2021-7", "6446/102/2021-8",
	}, client.requests)
}

func TestFetchAvailability_AllowList(t *testing.T) {
	client := &mockAvailabilityClient{
		products: []visbookclient.WebProduct{
			{WebProductID: 101, UnitName: "Storehytta"},
			{WebProductID: 102, UnitName: "Veslehytta"},
			{WebProductID: 103, UnitName: "Anneks"},
		},
	}
	location := flokehyttene()
	location.Units = []int{103, 101, 999}

	result, err := FetchAvailability(context.Background(), client, location, 4, zap.NewNop())
	require.NoError(t, err)

	ids := make([]int, len(result))
	for i, ua := range result {
		ids[i] = ua.Unit.ID
	}
	assert.Equal(t, []int{101, 103}, ids, "upstream order is kept")
}

func TestFetchAvailability_YearSpanningWindow(t *testing.T) {
	client := &mockAvailabilityClient{
		products:  []visbookclient.WebProduct{{WebProductID: 101, UnitName: "Storehytta"}},
		available: map[int]model.DateSet{101: dates("2021-12-31", "2022-01-01", "2022-01-15")},
	}
	location := model.Location{ID: "6446", StartDate: d("2021-12-20"), EndDate: d("2022-01-10"), MinNights: 1}

	result, err := FetchAvailability(context.Background(), client, location, 1, zap.NewNop())
	require.NoError(t, err)

	sort.Strings(client.requests)
	assert.Equal(t, []string{"6446/101/2021-12", "6446/101/2022-1"}, client.requests)
	assert.Equal(t, dates("2021-12-31", "2022-01-01"), result[0].Available)
}

func TestFetchAvailability_FirstEntryRule(t *testing.T) {
	yes, no := true, false
	client := &mockAvailabilityClient{
		products: []visbookclient.WebProduct{{WebProductID: 101, UnitName: "Storehytta"}},
		rawItems: map[int][]visbookclient.DayAvailability{
			101: {
				dayItem("2021-05-01T00:00:00", true),
				dayItem("2021-05-02T00:00:00", false),
				{Date: "2021-05-03T00:00:00", WebProducts: []visbookclient.DayWebProduct{{Availability: &visbookclient.ProductAvailability{}}}},
				{Date: "2021-05-04T00:00:00", WebProducts: []visbookclient.DayWebProduct{{}}},
				{Date: "2021-05-05T00:00:00"},
				{Date: "2021-05-06T00:00:00", WebProducts: []visbookclient.DayWebProduct{
					{Availability: &visbookclient.ProductAvailability{Available: &no}},
					{Availability: &visbookclient.ProductAvailability{Available: &yes}},
				}},
			},
		},
	}
	location := model.Location{ID: "6446", StartDate: d("2021-05-01"), EndDate: d("2021-06-01"), MinNights: 1}

	result, err := FetchAvailability(context.Background(), client, location, 1, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, dates("2021-05-01"), result[0].Available)
}

func TestFetchAvailability_Failures(t *testing.T) {
	upstreamDown := errors.New("connection refused")

	tests := []struct {
		name   string
		client *mockAvailabilityClient
	}{
		{
			name:   "listing units fails",
			client: &mockAvailabilityClient{listErr: upstreamDown},
		},
		{
			name: "one month fails",
			client: &mockAvailabilityClient{
				products: []visbookclient.WebProduct{
					{WebProductID: 101, UnitName: "Storehytta"},
					{WebProductID: 102, UnitName: "Veslehytta"},
				},
				monthErr: map[int]error{102: upstreamDown},
			},
		},
		{
			name: "malformed date",
			client: &mockAvailabilityClient{
				products: []visbookclient.WebProduct{{WebProductID: 101, UnitName: "Storehytta"}},
				rawItems: map[int][]visbookclient.DayAvailability{
					101: {dayItem("not a date", true)},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := FetchAvailability(context.Background(), tt.client, flokehyttene(), 4, zap.NewNop())
			require.Error(t, err)
			assert.Nil(t, result, "no partial results")

			var fetchErr *UpstreamFetchError
			require.True(t, errors.As(err, &fetchErr))
			assert.Equal(t, "6446", fetchErr.LocationID)
		})
	}
}
