package booking

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/okravets/eventbooker/internal/domain"
	postgresrepo "github.com/okravets/eventbooker/internal/repository/postgres"
	"github.com/okravets/eventbooker/internal/testutil"
)

func newTestService(pool *pgxpool.Pool, gw SettlementGateway) *Service {
	return New(postgresrepo.NewStore(pool), nil, nil, nil, nil, gw, Config{})
}

func TestBook(t *testing.T) {
	pool := testutil.NewTestPool(t)
	testutil.ApplyMigrations(t, context.Background(), pool)
	svc := newTestService(pool, StubGateway{})

	t.Run("confirms reservation and settles payment atomically", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		eventID := testutil.SeedEvent(t, ctx, pool, "Rock Night", 100, 5000)

		resID, err := svc.Book(ctx, 1, eventID, 3, domain.TicketVIP, domain.MethodCredit, "")
		require.NoError(t, err)

		res, err := svc.GetReservation(ctx, resID)
		require.NoError(t, err)
		require.Equal(t, domain.ReservationConfirmed, res.Status)
		require.Equal(t, 3, res.TicketCount)

		var amount int64
		var payStatus string
		err = pool.QueryRow(ctx,
			`SELECT amount_cents, status FROM payments WHERE reservation_id = $1`, resID,
		).Scan(&amount, &payStatus)
		require.NoError(t, err)
		require.Equal(t, int64(15000), amount)
		require.Equal(t, string(domain.PaymentSuccessful), payStatus)

		var notes int
		require.NoError(t, pool.QueryRow(ctx,
			`SELECT COUNT(*) FROM notifications WHERE user_id = 1`,
		).Scan(&notes))
		require.Equal(t, 1, notes)
	})

	t.Run("rejects bookings over remaining capacity", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		eventID := testutil.SeedEvent(t, ctx, pool, "Tiny Club", 10, 2000)

		_, err := svc.Book(ctx, 1, eventID, 11, domain.TicketClub, domain.MethodDebit, "")
		require.ErrorIs(t, err, ErrCapacityExceeded)

		_, err = svc.Book(ctx, 1, eventID, 8, domain.TicketClub, domain.MethodDebit, "")
		require.NoError(t, err)

		_, err = svc.Book(ctx, 2, eventID, 3, domain.TicketClub, domain.MethodDebit, "")
		require.ErrorIs(t, err, ErrCapacityExceeded)

		var capErr CapacityExceededError
		require.ErrorAs(t, err, &capErr)
		require.Equal(t, 2, capErr.Available)

		_, err = svc.Book(ctx, 2, eventID, 2, domain.TicketClub, domain.MethodDebit, "")
		require.NoError(t, err)
	})

	t.Run("validates input", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		eventID := testutil.SeedEvent(t, ctx, pool, "Validation", 10, 2000)

		_, err := svc.Book(ctx, 1, eventID, 0, domain.TicketVIP, domain.MethodCredit, "")
		require.ErrorIs(t, err, ErrValidation)

		_, err = svc.Book(ctx, 1, eventID, 1, domain.TicketCategory("Backstage"), domain.MethodCredit, "")
		require.ErrorIs(t, err, ErrValidation)

		_, err = svc.Book(ctx, 1, eventID, 1, domain.TicketVIP, domain.PaymentMethod("Cheque"), "")
		require.ErrorIs(t, err, ErrValidation)

		_, err = svc.Book(ctx, 1, 99999, 1, domain.TicketVIP, domain.MethodCredit, "")
		require.ErrorIs(t, err, ErrEventNotFound)
	})

	t.Run("persists nothing when settlement declines", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		eventID := testutil.SeedEvent(t, ctx, pool, "Declined", 10, 2000)

		declining := newTestService(pool, StubGateway{Err: errors.New("card declined")})

		_, err := declining.Book(ctx, 1, eventID, 2, domain.TicketVIP, domain.MethodCredit, "")
		require.ErrorIs(t, err, ErrSettlementFailed)

		var reservations, payments int
		require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM reservations`).Scan(&reservations))
		require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM payments`).Scan(&payments))
		require.Zero(t, reservations)
		require.Zero(t, payments)
	})

	t.Run("concurrent bookers cannot oversell the last seats", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		eventID := testutil.SeedEvent(t, ctx, pool, "Last Seat", 5, 2000)

		const bookers = 8

		var confirmed, rejected atomic.Int32
		g := new(errgroup.Group)
		for i := 0; i < bookers; i++ {
			userID := int64(i + 1)
			g.Go(func() error {
				_, err := svc.Book(ctx, userID, eventID, 2, domain.TicketBalcony, domain.MethodUPI, "")
				switch {
				case err == nil:
					confirmed.Add(1)
				case errors.Is(err, ErrCapacityExceeded), errors.Is(err, ErrBusy):
					rejected.Add(1)
				default:
					return err
				}
				return nil
			})
		}
		require.NoError(t, g.Wait())
		require.Equal(t, int32(bookers), confirmed.Load()+rejected.Load())

		var sold int
		require.NoError(t, pool.QueryRow(ctx,
			`SELECT COALESCE(SUM(ticket_count), 0) FROM reservations WHERE status = 'Confirmed'`,
		).Scan(&sold))
		require.LessOrEqual(t, sold, 5)
		require.Equal(t, int(confirmed.Load())*2, sold)
	})
}

func TestCancel(t *testing.T) {
	pool := testutil.NewTestPool(t)
	testutil.ApplyMigrations(t, context.Background(), pool)
	svc := newTestService(pool, StubGateway{})

	t.Run("records reason and releases capacity", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		eventID := testutil.SeedEvent(t, ctx, pool, "Full House", 10, 3000)

		resID, err := svc.Book(ctx, 1, eventID, 10, domain.TicketEarlyBird, domain.MethodCredit, "")
		require.NoError(t, err)

		_, err = svc.Book(ctx, 2, eventID, 1, domain.TicketEarlyBird, domain.MethodCredit, "")
		require.ErrorIs(t, err, ErrCapacityExceeded)

		require.NoError(t, svc.Cancel(ctx, resID, "change of plans"))

		res, err := svc.GetReservation(ctx, resID)
		require.NoError(t, err)
		require.Equal(t, domain.ReservationCancelled, res.Status)
		require.NotNil(t, res.CancelledAt)
		require.NotNil(t, res.CancellationReason)
		require.Equal(t, "change of plans", *res.CancellationReason)

		// cancelled tickets no longer count against capacity
		_, err = svc.Book(ctx, 2, eventID, 10, domain.TicketEarlyBird, domain.MethodCredit, "")
		require.NoError(t, err)
	})

	t.Run("rejects empty reason without touching the record", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		eventID := testutil.SeedEvent(t, ctx, pool, "Reasons", 10, 3000)

		resID, err := svc.Book(ctx, 1, eventID, 1, domain.TicketVIP, domain.MethodCredit, "")
		require.NoError(t, err)

		require.ErrorIs(t, svc.Cancel(ctx, resID, "   "), ErrValidation)

		res, err := svc.GetReservation(ctx, resID)
		require.NoError(t, err)
		require.Equal(t, domain.ReservationConfirmed, res.Status)
	})

	t.Run("rejects double cancel", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		eventID := testutil.SeedEvent(t, ctx, pool, "Twice", 10, 3000)

		resID, err := svc.Book(ctx, 1, eventID, 1, domain.TicketVIP, domain.MethodCredit, "")
		require.NoError(t, err)

		require.NoError(t, svc.Cancel(ctx, resID, "first"))

		err = svc.Cancel(ctx, resID, "second")
		require.ErrorIs(t, err, ErrInvalidTransition)

		var transErr InvalidTransitionError
		require.ErrorAs(t, err, &transErr)
		require.Equal(t, string(domain.ReservationCancelled), transErr.From)
	})

	t.Run("unknown reservation", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		err := svc.Cancel(ctx, uuid.New(), "whatever")
		require.ErrorIs(t, err, ErrReservationNotFound)
	})
}

func TestRefund(t *testing.T) {
	pool := testutil.NewTestPool(t)
	testutil.ApplyMigrations(t, context.Background(), pool)
	svc := newTestService(pool, StubGateway{})

	t.Run("refunds the stored amount exactly once", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		eventID := testutil.SeedEvent(t, ctx, pool, "Refundable", 10, 5000)

		resID, err := svc.Book(ctx, 1, eventID, 3, domain.TicketVIP, domain.MethodCredit, "")
		require.NoError(t, err)
		require.NoError(t, svc.Cancel(ctx, resID, "change of plans"))
		require.NoError(t, svc.Refund(ctx, resID))

		res, err := svc.GetReservation(ctx, resID)
		require.NoError(t, err)
		require.Equal(t, domain.ReservationRefunded, res.Status)

		var amount int64
		var payStatus string
		var refundedAtSet bool
		err = pool.QueryRow(ctx,
			`SELECT amount_cents, status, refunded_at IS NOT NULL FROM payments WHERE reservation_id = $1`, resID,
		).Scan(&amount, &payStatus, &refundedAtSet)
		require.NoError(t, err)
		require.Equal(t, int64(15000), amount)
		require.Equal(t, string(domain.PaymentRefunded), payStatus)
		require.True(t, refundedAtSet)

		// second refund hits the terminal state
		require.ErrorIs(t, svc.Refund(ctx, resID), ErrInvalidTransition)
	})

	t.Run("requires a cancelled reservation", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		eventID := testutil.SeedEvent(t, ctx, pool, "Still Confirmed", 10, 5000)

		resID, err := svc.Book(ctx, 1, eventID, 1, domain.TicketVIP, domain.MethodCredit, "")
		require.NoError(t, err)

		require.ErrorIs(t, svc.Refund(ctx, resID), ErrInvalidTransition)

		// a reservation that never left Pending cannot be refunded either
		pendingID := testutil.InsertReservation(t, ctx, pool, domain.Reservation{
			UserID: 2, EventID: eventID, TicketCount: 1,
			TicketCategory: domain.TicketVIP, Status: domain.ReservationPending,
		})
		require.ErrorIs(t, svc.Refund(ctx, pendingID), ErrInvalidTransition)
	})

	t.Run("requires a settled payment", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		eventID := testutil.SeedEvent(t, ctx, pool, "Never Paid", 10, 5000)

		// a cancelled reservation whose payment never settled
		resID := testutil.InsertReservation(t, ctx, pool, domain.Reservation{
			UserID:         7,
			EventID:        eventID,
			TicketCount:    2,
			TicketCategory: domain.TicketBalcony,
			Status:         domain.ReservationCancelled,
		})
		testutil.InsertPayment(t, ctx, pool, domain.Payment{
			ReservationID: resID,
			AmountCents:   10000,
			Method:        domain.MethodUPI,
			Status:        domain.PaymentFailed,
		})

		require.ErrorIs(t, svc.Refund(ctx, resID), ErrNoSettledPayment)
	})
}
