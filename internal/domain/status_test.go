package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReservationStatusTransitions(t *testing.T) {
	cases := []struct {
		from    ReservationStatus
		to      ReservationStatus
		allowed bool
	}{
		{ReservationPending, ReservationConfirmed, true},
		{ReservationPending, ReservationCancelled, true},
		{ReservationPending, ReservationRefunded, false},
		{ReservationConfirmed, ReservationCancelled, true},
		{ReservationConfirmed, ReservationRefunded, false},
		{ReservationConfirmed, ReservationPending, false},
		{ReservationCancelled, ReservationRefunded, true},
		{ReservationCancelled, ReservationConfirmed, false},
		{ReservationCancelled, ReservationPending, false},
		{ReservationRefunded, ReservationCancelled, false},
		{ReservationRefunded, ReservationConfirmed, false},
		{ReservationRefunded, ReservationRefunded, false},
	}

	for _, tc := range cases {
		got := tc.from.CanTransitionTo(tc.to)
		require.Equalf(t, tc.allowed, got, "%s -> %s", tc.from, tc.to)
	}
}

func TestReservationStatusActive(t *testing.T) {
	require.True(t, ReservationPending.Active())
	require.True(t, ReservationConfirmed.Active())
	require.False(t, ReservationCancelled.Active())
	require.False(t, ReservationRefunded.Active())
}

func TestValidReservationStatus(t *testing.T) {
	require.True(t, ValidReservationStatus(ReservationPending))
	require.False(t, ValidReservationStatus(ReservationStatus("Booked")))
}

func TestEnumMembership(t *testing.T) {
	require.True(t, ValidEventCategory(CategoryConcert))
	require.False(t, ValidEventCategory(EventCategory("Opera")))

	require.True(t, ValidTicketCategory(TicketEarlyBird))
	require.False(t, ValidTicketCategory(TicketCategory("Backstage")))

	require.True(t, ValidPaymentMethod(MethodUPI))
	require.False(t, ValidPaymentMethod(PaymentMethod("Cheque")))
}
