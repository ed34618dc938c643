package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cabinwatch/cabinwatch/pkg/core/model"
)

func TestMonthsInWindow(t *testing.T) {
	tests := []struct {
		name     string
		start    string
		end      string
		expected []YearMonth
	}{
		{
			name:  "summer season ending on the first",
			start: "2021-05-01",
			end:   "2021-09-01",
			expected: []YearMonth{
				{2021, time.May}, {2021, time.June}, {2021, time.July}, {2021, time.August},
			},
		},
		{
			name:  "partially covered end month is fetched",
			start: "2021-05-15",
			end:   "2021-06-10",
			expected: []YearMonth{
				{2021, time.May}, {2021, time.June},
			},
		},
		{
			name:  "window spanning new year",
			start: "2021-11-20",
			end:   "2022-02-15",
			expected: []YearMonth{
				{2021, time.November}, {2021, time.December}, {2022, time.January}, {2022, time.February},
			},
		},
		{
			name:     "single day",
			start:    "2021-07-31",
			end:      "2021-08-01",
			expected: []YearMonth{{2021, time.July}},
		},
		{
			name:     "empty window",
			start:    "2021-07-01",
			end:      "2021-07-01",
			expected: []YearMonth{},
		},
		{
			name:     "inverted window",
			start:    "2021-08-01",
			end:      "2021-07-01",
			expected: []YearMonth{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MonthsInWindow(model.MustParseDate(tt.start), model.MustParseDate(tt.end))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestYearMonth_String(t *testing.T) {
	assert.Equal(t, "2021-05", YearMonth{2021, time.May}.String())
}
