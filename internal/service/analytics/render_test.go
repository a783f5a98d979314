package analytics

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/okravets/eventbooker/internal/domain"
)

func TestRenderReportSentinels(t *testing.T) {
	rep := renderReport(reportSource{})

	require.Equal(t, "0.00", rep.TotalRevenue)
	require.Equal(t, "0.00", rep.AvgTicketPrice)
	require.Empty(t, rep.EventRevenue)
	require.Empty(t, rep.Ratings)

	// empty sections marshal as [] rather than null
	b, err := json.Marshal(rep)
	require.NoError(t, err)
	require.NotContains(t, string(b), "null")
}

func TestRenderReportMoneyAndRatings(t *testing.T) {
	total := int64(350000)
	avg := 12550.0
	rated := 4.25

	rep := renderReport(reportSource{
		totalRevenueCents: &total,
		avgPriceCents:     &avg,
		revenue: []domain.EventRevenueRow{
			{EventID: 1, EventName: "Rock Night", RevenueCents: 250000},
			{EventID: 2, EventName: "Go Workshop", RevenueCents: 100000},
		},
		ratings: []domain.EventRatingRow{
			{EventID: 1, EventName: "Rock Night", AvgRating: &rated},
			{EventID: 2, EventName: "Go Workshop", AvgRating: nil},
		},
	})

	require.Equal(t, "3500.00", rep.TotalRevenue)
	require.Equal(t, "125.50", rep.AvgTicketPrice)

	require.Len(t, rep.EventRevenue, 2)
	require.Equal(t, "2500.00", rep.EventRevenue[0].Revenue)
	require.Equal(t, "1000.00", rep.EventRevenue[1].Revenue)

	require.Len(t, rep.Ratings, 2)
	require.Equal(t, "4.25", rep.Ratings[0].AvgRating)
	require.Equal(t, "N/A", rep.Ratings[1].AvgRating)
}

func TestRenderReportCancellationRates(t *testing.T) {
	rep := renderReport(reportSource{
		cancellations: []domain.CancellationRateRow{
			{EventID: 1, EventName: "A", CancelledCount: 3, TotalReservations: 4},
			{EventID: 2, EventName: "B", CancelledCount: 0, TotalReservations: 5},
		},
	})

	require.Len(t, rep.Cancellations, 2)
	require.InDelta(t, 0.75, rep.Cancellations[0].CancellationRate, 1e-9)
	require.Zero(t, rep.Cancellations[1].CancellationRate)
}
