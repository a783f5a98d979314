package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/okravets/eventbooker/internal/domain"
	"github.com/okravets/eventbooker/internal/repository"
)

type BookingRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *BookingRepo) With(db DB) *BookingRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *BookingRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// EventInventory is the capacity aggregate locked during booking.
type EventInventory struct {
	EventID    int64
	EventName  string
	PriceCents int64
	Capacity   int
}

// LockEventInventory loads the event's price and venue capacity and takes a
// row lock on the event, serializing concurrent bookers of the same event.
//
// Returns:
//   - *EventInventory: the locked inventory row.
//   - error: repository.ErrNotFound if the event does not exist.
func (r *BookingRepo) LockEventInventory(ctx context.Context, eventID int64) (*EventInventory, error) {
	const op = "postgres.BookingRepo.LockEventInventory"

	db := r.handle()

	var inv EventInventory
	err := db.QueryRow(ctx,
		`SELECT e.id, e.name, e.price_cents, v.capacity
       	 FROM events e
       	 JOIN venues v ON v.id = e.venue_id
      	 WHERE e.id = $1
        FOR UPDATE OF e`,
		eventID,
	).Scan(&inv.EventID, &inv.EventName, &inv.PriceCents, &inv.Capacity)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &inv, nil
}

// ActiveTicketSum computes the live inventory ledger: the sum of ticket
// counts over Pending and Confirmed reservations of the event. There is no
// stored counter to drift from this aggregate.
func (r *BookingRepo) ActiveTicketSum(ctx context.Context, eventID int64) (int, error) {
	const op = "postgres.BookingRepo.ActiveTicketSum"

	db := r.handle()

	var sum int
	err := db.QueryRow(ctx,
		`SELECT COALESCE(SUM(ticket_count), 0)
       	 FROM reservations
      	 WHERE event_id = $1 AND status IN ('Pending', 'Confirmed')`,
		eventID,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return sum, nil
}

// CreateReservation inserts a reservation row.
//
// Returns:
//   - error: repository.ErrConflict on a duplicate reservation ID.
func (r *BookingRepo) CreateReservation(ctx context.Context, res domain.Reservation) error {
	const op = "postgres.BookingRepo.CreateReservation"

	db := r.handle()

	if _, err := db.Exec(ctx,
		`INSERT INTO reservations(id, user_id, event_id, ticket_count, ticket_category, status, booked_at)
       	 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		res.ID, res.UserID, res.EventID, res.TicketCount, res.TicketCategory, res.Status, res.BookedAt,
	); err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}

// CreatePayment inserts the payment row owned by a reservation. The UNIQUE
// constraint on reservation_id enforces the 1:1 relationship; amount_cents is
// never updated after this insert.
//
// Returns:
//   - error: repository.ErrConflict if a payment already exists for the reservation.
func (r *BookingRepo) CreatePayment(ctx context.Context, p domain.Payment) error {
	const op = "postgres.BookingRepo.CreatePayment"

	db := r.handle()

	if _, err := db.Exec(ctx,
		`INSERT INTO payments(id, reservation_id, amount_cents, method, status, created_at)
       	 VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.ReservationID, p.AmountCents, p.Method, p.Status, p.CreatedAt,
	); err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}

// GetReservationForUpdate loads a reservation and takes a row lock so that
// concurrent status transitions on the same reservation serialize.
//
// Returns:
//   - *domain.Reservation: the locked reservation.
//   - error: repository.ErrNotFound if the reservation does not exist.
func (r *BookingRepo) GetReservationForUpdate(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	const op = "postgres.BookingRepo.GetReservationForUpdate"

	db := r.handle()

	var res domain.Reservation
	err := db.QueryRow(ctx,
		`SELECT id, user_id, event_id, ticket_count, ticket_category, status,
                booked_at, cancelled_at, cancellation_reason
       	 FROM reservations
      	 WHERE id = $1
        FOR UPDATE`,
		id,
	).Scan(
		&res.ID,
		&res.UserID,
		&res.EventID,
		&res.TicketCount,
		&res.TicketCategory,
		&res.Status,
		&res.BookedAt,
		&res.CancelledAt,
		&res.CancellationReason,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &res, nil
}

func (r *BookingRepo) GetReservation(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	const op = "postgres.BookingRepo.GetReservation"

	db := r.handle()

	var res domain.Reservation
	err := db.QueryRow(ctx,
		`SELECT id, user_id, event_id, ticket_count, ticket_category, status,
                booked_at, cancelled_at, cancellation_reason
       	 FROM reservations
      	 WHERE id = $1`,
		id,
	).Scan(
		&res.ID,
		&res.UserID,
		&res.EventID,
		&res.TicketCount,
		&res.TicketCategory,
		&res.Status,
		&res.BookedAt,
		&res.CancelledAt,
		&res.CancellationReason,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &res, nil
}

// SetReservationStatus moves a reservation to the given status.
//
// Returns:
//   - error: repository.ErrNotFound if the reservation does not exist.
func (r *BookingRepo) SetReservationStatus(ctx context.Context, id uuid.UUID, status domain.ReservationStatus) error {
	const op = "postgres.BookingRepo.SetReservationStatus"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE reservations SET status = $2 WHERE id = $1`,
		id, status,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}

// CancelReservation moves a reservation to Cancelled, recording the reason
// and the cancellation timestamp.
func (r *BookingRepo) CancelReservation(ctx context.Context, id uuid.UUID, reason string, at time.Time) error {
	const op = "postgres.BookingRepo.CancelReservation"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE reservations
        	SET status = 'Cancelled', cancellation_reason = $2, cancelled_at = $3
      	 WHERE id = $1`,
		id, reason, at,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}

// SettledPayment returns the reservation's payment when its status is
// Successful.
//
// Returns:
//   - *domain.Payment: the settled payment.
//   - error: repository.ErrNoSettledPayment if none exists.
func (r *BookingRepo) SettledPayment(ctx context.Context, reservationID uuid.UUID) (*domain.Payment, error) {
	const op = "postgres.BookingRepo.SettledPayment"

	db := r.handle()

	var p domain.Payment
	err := db.QueryRow(ctx,
		`SELECT id, reservation_id, amount_cents, method, status, created_at, refunded_at
       	 FROM payments
      	 WHERE reservation_id = $1 AND status = 'Successful'`,
		reservationID,
	).Scan(&p.ID, &p.ReservationID, &p.AmountCents, &p.Method, &p.Status, &p.CreatedAt, &p.RefundedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s:%w", op, repository.ErrNoSettledPayment)
		}
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &p, nil
}

// SetPaymentStatus moves a payment to the given status. The amount column is
// deliberately untouched.
func (r *BookingRepo) SetPaymentStatus(ctx context.Context, id uuid.UUID, status domain.PaymentStatus) error {
	const op = "postgres.BookingRepo.SetPaymentStatus"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE payments SET status = $2 WHERE id = $1`,
		id, status,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}

// MarkPaymentRefunded moves a Successful payment to Refunded, recording the
// refund timestamp. The amount refunded is always the stored amount.
//
// Returns:
//   - error: repository.ErrNoSettledPayment if the payment is not Successful.
func (r *BookingRepo) MarkPaymentRefunded(ctx context.Context, id uuid.UUID, at time.Time) error {
	const op = "postgres.BookingRepo.MarkPaymentRefunded"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE payments
        	SET status = 'Refunded', refunded_at = $2
      	 WHERE id = $1 AND status = 'Successful'`,
		id, at,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNoSettledPayment)
	}

	return nil
}

// ListByUser returns the user's reservations joined with event details,
// newest first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID int64) ([]domain.ReservationDetails, error) {
	const op = "postgres.BookingRepo.ListByUser"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT r.id, r.user_id, r.event_id, r.ticket_count, r.ticket_category,
                r.status, r.booked_at, r.cancelled_at, r.cancellation_reason,
                e.name, e.price_cents
       	 FROM reservations r
       	 JOIN events e ON e.id = r.event_id
      	 WHERE r.user_id = $1
      	 ORDER BY r.booked_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.ReservationDetails
	for rows.Next() {
		var rd domain.ReservationDetails
		if err := rows.Scan(
			&rd.ID,
			&rd.UserID,
			&rd.EventID,
			&rd.TicketCount,
			&rd.TicketCategory,
			&rd.Status,
			&rd.BookedAt,
			&rd.CancelledAt,
			&rd.CancellationReason,
			&rd.EventName,
			&rd.EventPriceCents,
		); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}

		out = append(out, rd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}
