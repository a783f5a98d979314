package analytics

import (
	"fmt"

	"github.com/okravets/eventbooker/internal/domain"
)

// Rendered report rows. Monetary amounts are fixed two-decimal strings so no
// consumer ever does float math on money; absent aggregates come out as the
// "0.00" and "N/A" sentinels instead of nulls.

type RevenueEntry struct {
	EventName string `json:"event_name"`
	Revenue   string `json:"revenue"`
}

type VenueEntry struct {
	VenueName   string `json:"venue_name"`
	TicketsSold int64  `json:"tickets_sold"`
}

type EventPopularityEntry struct {
	EventName   string `json:"event_name"`
	TicketsSold int64  `json:"tickets_sold"`
}

type CancellationEntry struct {
	EventName        string  `json:"event_name"`
	CancellationRate float64 `json:"cancellation_rate"`
}

type RatingEntry struct {
	EventName string `json:"event_name"`
	AvgRating string `json:"avg_rating"`
}

// Report is the full analytics bundle assembled from one consistent store
// snapshot.
type Report struct {
	TotalRevenue   string                 `json:"total_revenue"`
	AvgTicketPrice string                 `json:"avg_ticket_price"`
	EventRevenue   []RevenueEntry         `json:"event_revenue"`
	PopularVenues  []VenueEntry           `json:"popular_venues"`
	PopularEvents  []EventPopularityEntry `json:"popular_events"`
	Cancellations  []CancellationEntry    `json:"cancellation_rates"`
	Ratings        []RatingEntry          `json:"event_ratings"`
}

type reportSource struct {
	totalRevenueCents *int64
	avgPriceCents     *float64
	revenue           []domain.EventRevenueRow
	venues            []domain.VenuePopularityRow
	events            []domain.EventPopularityRow
	cancellations     []domain.CancellationRateRow
	ratings           []domain.EventRatingRow
}

// renderReport turns raw aggregate rows into the wire-shaped report. Slices
// are always non-nil so empty reports marshal as [] rather than null.
func renderReport(src reportSource) Report {
	rep := Report{
		TotalRevenue:   domain.FormatCentsOrZero(src.totalRevenueCents),
		AvgTicketPrice: formatAvgCents(src.avgPriceCents),
		EventRevenue:   make([]RevenueEntry, 0, len(src.revenue)),
		PopularVenues:  make([]VenueEntry, 0, len(src.venues)),
		PopularEvents:  make([]EventPopularityEntry, 0, len(src.events)),
		Cancellations:  make([]CancellationEntry, 0, len(src.cancellations)),
		Ratings:        make([]RatingEntry, 0, len(src.ratings)),
	}

	for _, row := range src.revenue {
		rep.EventRevenue = append(rep.EventRevenue, RevenueEntry{
			EventName: row.EventName,
			Revenue:   domain.FormatCents(row.RevenueCents),
		})
	}

	for _, row := range src.venues {
		rep.PopularVenues = append(rep.PopularVenues, VenueEntry{
			VenueName:   row.VenueName,
			TicketsSold: row.TicketsSold,
		})
	}

	for _, row := range src.events {
		rep.PopularEvents = append(rep.PopularEvents, EventPopularityEntry{
			EventName:   row.EventName,
			TicketsSold: row.TicketsSold,
		})
	}

	for _, row := range src.cancellations {
		rep.Cancellations = append(rep.Cancellations, CancellationEntry{
			EventName:        row.EventName,
			CancellationRate: row.Rate(),
		})
	}

	for _, row := range src.ratings {
		rep.Ratings = append(rep.Ratings, RatingEntry{
			EventName: row.EventName,
			AvgRating: formatRating(row.AvgRating),
		})
	}

	return rep
}

// formatAvgCents renders a fractional cent average as two-decimal currency
// units, "0.00" when the catalog is empty.
func formatAvgCents(cents *float64) string {
	if cents == nil {
		return "0.00"
	}
	return fmt.Sprintf("%.2f", *cents/100)
}

// formatRating renders an average rating, "N/A" for unrated events.
func formatRating(avg *float64) string {
	if avg == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", *avg)
}
