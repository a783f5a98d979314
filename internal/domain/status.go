package domain

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "Pending"
	ReservationConfirmed ReservationStatus = "Confirmed"
	ReservationCancelled ReservationStatus = "Cancelled"
	ReservationRefunded  ReservationStatus = "Refunded"
)

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "Pending"
	PaymentSuccessful PaymentStatus = "Successful"
	PaymentFailed     PaymentStatus = "Failed"
	PaymentRefunded   PaymentStatus = "Refunded"
)

// CanTransitionTo reports whether a reservation may move from its current
// status to next. Cancelled may still move to Refunded; Refunded is final.
func (s ReservationStatus) CanTransitionTo(next ReservationStatus) bool {
	switch s {
	case ReservationPending:
		return next == ReservationConfirmed || next == ReservationCancelled
	case ReservationConfirmed:
		return next == ReservationCancelled
	case ReservationCancelled:
		return next == ReservationRefunded
	}
	return false
}

// Active reports whether the reservation still counts against event
// capacity.
func (s ReservationStatus) Active() bool {
	return s == ReservationPending || s == ReservationConfirmed
}

func ValidReservationStatus(s ReservationStatus) bool {
	switch s {
	case ReservationPending, ReservationConfirmed, ReservationCancelled, ReservationRefunded:
		return true
	}
	return false
}
