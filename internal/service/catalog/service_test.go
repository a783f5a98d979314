package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/okravets/eventbooker/internal/domain"
	postgresrepo "github.com/okravets/eventbooker/internal/repository/postgres"
	"github.com/okravets/eventbooker/internal/testutil"
)

func TestSaveEvent(t *testing.T) {
	pool := testutil.NewTestPool(t)
	testutil.ApplyMigrations(t, context.Background(), pool)
	svc := New(postgresrepo.NewStore(pool), nil, Config{})

	t.Run("creates and updates", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		venueID := testutil.InsertVenue(t, ctx, pool, "Hall", 200)
		orgID := testutil.InsertOrganizer(t, ctx, pool, "Org")

		id, err := svc.SaveEvent(ctx, domain.Event{
			Name:        "Jazz Evening",
			Date:        time.Now().AddDate(0, 1, 0),
			Time:        "20:00",
			PriceCents:  7500,
			Category:    domain.CategoryConcert,
			VenueID:     venueID,
			OrganizerID: orgID,
		})
		require.NoError(t, err)
		require.NotZero(t, id)

		e, err := svc.GetEvent(ctx, id)
		require.NoError(t, err)
		require.Equal(t, "Jazz Evening", e.Name)
		require.Equal(t, int64(7500), e.PriceCents)

		_, err = svc.SaveEvent(ctx, domain.Event{
			ID:          id,
			Name:        "Jazz Evening (rescheduled)",
			Date:        time.Now().AddDate(0, 2, 0),
			Time:        "21:00",
			PriceCents:  8000,
			Category:    domain.CategoryConcert,
			VenueID:     venueID,
			OrganizerID: orgID,
		})
		require.NoError(t, err)

		e, err = svc.GetEvent(ctx, id)
		require.NoError(t, err)
		require.Equal(t, "Jazz Evening (rescheduled)", e.Name)
		require.Equal(t, int64(8000), e.PriceCents)
	})

	t.Run("validates fields and references", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		venueID := testutil.InsertVenue(t, ctx, pool, "Hall", 200)
		orgID := testutil.InsertOrganizer(t, ctx, pool, "Org")

		base := domain.Event{
			Name:        "X",
			Date:        time.Now(),
			Time:        "10:00",
			PriceCents:  100,
			Category:    domain.CategoryMovie,
			VenueID:     venueID,
			OrganizerID: orgID,
		}

		e := base
		e.Name = "  "
		_, err := svc.SaveEvent(ctx, e)
		require.ErrorIs(t, err, ErrValidation)

		e = base
		e.PriceCents = -1
		_, err = svc.SaveEvent(ctx, e)
		require.ErrorIs(t, err, ErrValidation)

		e = base
		e.Category = domain.EventCategory("Opera")
		_, err = svc.SaveEvent(ctx, e)
		require.ErrorIs(t, err, ErrValidation)

		e = base
		e.VenueID = 99999
		_, err = svc.SaveEvent(ctx, e)
		require.ErrorIs(t, err, ErrVenueNotFound)

		e = base
		e.OrganizerID = 99999
		_, err = svc.SaveEvent(ctx, e)
		require.ErrorIs(t, err, ErrOrganizerNotFound)
	})
}

func TestDeleteEvent(t *testing.T) {
	pool := testutil.NewTestPool(t)
	testutil.ApplyMigrations(t, context.Background(), pool)
	svc := New(postgresrepo.NewStore(pool), nil, Config{})

	t.Run("deletes an unreferenced event", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		eventID := testutil.SeedEvent(t, ctx, pool, "Removable", 50, 1000)

		require.NoError(t, svc.DeleteEvent(ctx, eventID))

		_, err := svc.GetEvent(ctx, eventID)
		require.ErrorIs(t, err, ErrEventNotFound)
	})

	t.Run("refuses to delete an event with reservation history", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		eventID := testutil.SeedEvent(t, ctx, pool, "Historic", 50, 1000)

		testutil.InsertReservation(t, ctx, pool, domain.Reservation{
			UserID: 1, EventID: eventID, TicketCount: 1,
			TicketCategory: domain.TicketVIP, Status: domain.ReservationCancelled,
		})

		require.ErrorIs(t, svc.DeleteEvent(ctx, eventID), ErrEventInUse)

		// the event survives
		_, err := svc.GetEvent(ctx, eventID)
		require.NoError(t, err)
	})

	t.Run("unknown event", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		require.ErrorIs(t, svc.DeleteEvent(ctx, 12345), ErrEventNotFound)
	})
}

func TestListEvents(t *testing.T) {
	pool := testutil.NewTestPool(t)
	testutil.ApplyMigrations(t, context.Background(), pool)
	svc := New(postgresrepo.NewStore(pool), nil, Config{})

	ctx := context.Background()
	testutil.TruncateAll(t, ctx, pool)

	venueID := testutil.InsertVenue(t, ctx, pool, "Grand Hall", 300)
	orgID := testutil.InsertOrganizer(t, ctx, pool, "Promoter")
	testutil.InsertEvent(t, ctx, pool, "Show A", 2000, venueID, orgID)
	testutil.InsertEvent(t, ctx, pool, "Show B", 3000, venueID, orgID)

	events, err := svc.ListEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, "Grand Hall", events[0].VenueName)
	require.Equal(t, 300, events[0].VenueCapacity)
	require.Equal(t, "Promoter", events[0].OrganizerName)
}
