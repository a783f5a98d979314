package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/okravets/eventbooker/internal/domain"
	"github.com/okravets/eventbooker/internal/repository"
	"github.com/okravets/eventbooker/internal/testutil"
)

func TestBookingRepo(t *testing.T) {
	pool := testutil.NewTestPool(t)
	testutil.ApplyMigrations(t, context.Background(), pool)
	repo := NewStore(pool).Booking()

	t.Run("LockEventInventory returns inventory and ErrNotFound", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		eventID := testutil.SeedEvent(t, ctx, pool, "Inventory", 250, 4200)

		inv, err := repo.LockEventInventory(ctx, eventID)
		require.NoError(t, err)
		require.Equal(t, eventID, inv.EventID)
		require.Equal(t, 250, inv.Capacity)
		require.Equal(t, int64(4200), inv.PriceCents)

		_, err = repo.LockEventInventory(ctx, 99999)
		require.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("ActiveTicketSum counts Pending and Confirmed only", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		eventID := testutil.SeedEvent(t, ctx, pool, "Ledger", 100, 1000)

		for _, rc := range []struct {
			count  int
			status domain.ReservationStatus
		}{
			{3, domain.ReservationPending},
			{4, domain.ReservationConfirmed},
			{5, domain.ReservationCancelled},
			{6, domain.ReservationRefunded},
		} {
			testutil.InsertReservation(t, ctx, pool, domain.Reservation{
				UserID: 1, EventID: eventID, TicketCount: rc.count,
				TicketCategory: domain.TicketVIP, Status: rc.status,
			})
		}

		sum, err := repo.ActiveTicketSum(ctx, eventID)
		require.NoError(t, err)
		require.Equal(t, 7, sum)
	})

	t.Run("SettledPayment and MarkPaymentRefunded enforce single settlement", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		eventID := testutil.SeedEvent(t, ctx, pool, "Payments", 100, 1000)

		resID := testutil.InsertReservation(t, ctx, pool, domain.Reservation{
			UserID: 1, EventID: eventID, TicketCount: 2,
			TicketCategory: domain.TicketVIP, Status: domain.ReservationCancelled,
		})
		payID := testutil.InsertPayment(t, ctx, pool, domain.Payment{
			ReservationID: resID, AmountCents: 2000,
			Method: domain.MethodCredit, Status: domain.PaymentSuccessful,
		})

		pay, err := repo.SettledPayment(ctx, resID)
		require.NoError(t, err)
		require.Equal(t, payID, pay.ID)
		require.Equal(t, int64(2000), pay.AmountCents)

		require.NoError(t, repo.MarkPaymentRefunded(ctx, payID, time.Now().UTC()))

		// no Successful payment remains
		_, err = repo.SettledPayment(ctx, resID)
		require.ErrorIs(t, err, repository.ErrNoSettledPayment)

		err = repo.MarkPaymentRefunded(ctx, payID, time.Now().UTC())
		require.ErrorIs(t, err, repository.ErrNoSettledPayment)
	})

	t.Run("GetReservation round-trips cancellation fields", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		eventID := testutil.SeedEvent(t, ctx, pool, "RoundTrip", 100, 1000)

		resID := testutil.InsertReservation(t, ctx, pool, domain.Reservation{
			UserID: 9, EventID: eventID, TicketCount: 1,
			TicketCategory: domain.TicketExecutive, Status: domain.ReservationConfirmed,
		})

		require.NoError(t, repo.CancelReservation(ctx, resID, "venue flooded", time.Now().UTC()))

		res, err := repo.GetReservation(ctx, resID)
		require.NoError(t, err)
		require.Equal(t, domain.ReservationCancelled, res.Status)
		require.NotNil(t, res.CancelledAt)
		require.Equal(t, "venue flooded", *res.CancellationReason)

		_, err = repo.GetReservation(ctx, uuid.New())
		require.ErrorIs(t, err, repository.ErrNotFound)
	})
}
