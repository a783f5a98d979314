package domain

// Raw analytics rows scanned from the store. Rendering (two-decimal money,
// sentinels for absent aggregates) happens in the analytics service.

type EventRevenueRow struct {
	EventID      int64
	EventName    string
	RevenueCents int64
}

type VenuePopularityRow struct {
	VenueID     int64
	VenueName   string
	TicketsSold int64
}

type EventPopularityRow struct {
	EventID     int64
	EventName   string
	TicketsSold int64
}

type CancellationRateRow struct {
	EventID           int64
	EventName         string
	CancelledCount    int64
	TotalReservations int64
}

// Rate is cancelled over total; zero when the event has no reservations.
func (r CancellationRateRow) Rate() float64 {
	if r.TotalReservations == 0 {
		return 0
	}
	return float64(r.CancelledCount) / float64(r.TotalReservations)
}

type EventRatingRow struct {
	EventID   int64
	EventName string
	AvgRating *float64
}
