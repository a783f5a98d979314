package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/okravets/eventbooker/internal/domain"
)

// AnalyticsRepo is the read side: every report is a live aggregate over
// reservations, payments and events. Nothing here writes.
type AnalyticsRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *AnalyticsRepo) With(db DB) *AnalyticsRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *AnalyticsRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// TotalRevenueCents sums Successful payment amounts. Nil when no payment has
// settled yet.
func (r *AnalyticsRepo) TotalRevenueCents(ctx context.Context) (*int64, error) {
	const op = "postgres.AnalyticsRepo.TotalRevenueCents"

	db := r.handle()

	var total *int64
	err := db.QueryRow(ctx,
		`SELECT SUM(amount_cents) FROM payments WHERE status = 'Successful'`,
	).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return total, nil
}

// AvgTicketPriceCents is the mean event price over all events. Nil when the
// catalog is empty.
func (r *AnalyticsRepo) AvgTicketPriceCents(ctx context.Context) (*float64, error) {
	const op = "postgres.AnalyticsRepo.AvgTicketPriceCents"

	db := r.handle()

	var avg *float64
	err := db.QueryRow(ctx, `SELECT AVG(price_cents) FROM events`).Scan(&avg)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return avg, nil
}

// EventRevenue returns per-event settled revenue, highest first.
func (r *AnalyticsRepo) EventRevenue(ctx context.Context) ([]domain.EventRevenueRow, error) {
	const op = "postgres.AnalyticsRepo.EventRevenue"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT e.id, e.name, COALESCE(SUM(p.amount_cents), 0) AS revenue
       	 FROM events e
       	 LEFT JOIN reservations r ON r.event_id = e.id
       	 LEFT JOIN payments p ON p.reservation_id = r.id AND p.status = 'Successful'
      	 GROUP BY e.id, e.name
      	 ORDER BY revenue DESC, e.id`,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.EventRevenueRow
	for rows.Next() {
		var row domain.EventRevenueRow
		if err := rows.Scan(&row.EventID, &row.EventName, &row.RevenueCents); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}

		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// PopularVenues ranks venues by tickets sold (Confirmed reservations) at
// hosted events.
func (r *AnalyticsRepo) PopularVenues(ctx context.Context) ([]domain.VenuePopularityRow, error) {
	const op = "postgres.AnalyticsRepo.PopularVenues"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT v.id, v.name, COALESCE(SUM(r.ticket_count), 0) AS sold
       	 FROM venues v
       	 LEFT JOIN events e ON e.venue_id = v.id
       	 LEFT JOIN reservations r ON r.event_id = e.id AND r.status = 'Confirmed'
      	 GROUP BY v.id, v.name
      	 ORDER BY sold DESC, v.id`,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.VenuePopularityRow
	for rows.Next() {
		var row domain.VenuePopularityRow
		if err := rows.Scan(&row.VenueID, &row.VenueName, &row.TicketsSold); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}

		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// PopularEvents ranks events by Confirmed ticket count.
func (r *AnalyticsRepo) PopularEvents(ctx context.Context) ([]domain.EventPopularityRow, error) {
	const op = "postgres.AnalyticsRepo.PopularEvents"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT e.id, e.name, COALESCE(SUM(r.ticket_count), 0) AS sold
       	 FROM events e
       	 LEFT JOIN reservations r ON r.event_id = e.id AND r.status = 'Confirmed'
      	 GROUP BY e.id, e.name
      	 ORDER BY sold DESC, e.id`,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.EventPopularityRow
	for rows.Next() {
		var row domain.EventPopularityRow
		if err := rows.Scan(&row.EventID, &row.EventName, &row.TicketsSold); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}

		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// HighCancellationEvents ranks events by cancellation ratio, descending, ties
// broken by event id ascending so reports are reproducible. Events with no
// reservations are excluded from the ranking.
func (r *AnalyticsRepo) HighCancellationEvents(ctx context.Context) ([]domain.CancellationRateRow, error) {
	const op = "postgres.AnalyticsRepo.HighCancellationEvents"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT e.id, e.name,
                COUNT(*) FILTER (WHERE r.status IN ('Cancelled', 'Refunded')) AS cancelled,
                COUNT(*) AS total
       	 FROM events e
       	 JOIN reservations r ON r.event_id = e.id
      	 GROUP BY e.id, e.name
      	 ORDER BY COUNT(*) FILTER (WHERE r.status IN ('Cancelled', 'Refunded'))::float / COUNT(*) DESC, e.id`,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.CancellationRateRow
	for rows.Next() {
		var row domain.CancellationRateRow
		if err := rows.Scan(&row.EventID, &row.EventName, &row.CancelledCount, &row.TotalReservations); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}

		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// EventRatings returns the mean user rating per event. AvgRating is nil for
// events nobody has rated; it is never coerced to zero here.
func (r *AnalyticsRepo) EventRatings(ctx context.Context) ([]domain.EventRatingRow, error) {
	const op = "postgres.AnalyticsRepo.EventRatings"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT e.id, e.name, AVG(rt.rating)::float
       	 FROM events e
       	 LEFT JOIN ratings rt ON rt.event_id = e.id
      	 GROUP BY e.id, e.name
      	 ORDER BY e.id`,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.EventRatingRow
	for rows.Next() {
		var row domain.EventRatingRow
		if err := rows.Scan(&row.EventID, &row.EventName, &row.AvgRating); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}

		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}
