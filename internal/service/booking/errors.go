package booking

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrValidation          = errors.New("validation error")
	ErrEventNotFound       = errors.New("event not found")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrCapacityExceeded    = errors.New("requested tickets exceed remaining capacity")
	ErrInvalidTransition   = errors.New("invalid reservation state transition")
	ErrNoSettledPayment    = errors.New("no successful payment for reservation")
	ErrSettlementFailed    = errors.New("payment settlement declined")
	ErrBusy                = errors.New("booking engine busy")
)

type CapacityExceededError struct {
	EventID   int64
	Requested int
	Available int
}

func (e CapacityExceededError) Error() string {
	return fmt.Sprintf("event %d: requested %d tickets, %d available", e.EventID, e.Requested, e.Available)
}

func (e CapacityExceededError) Unwrap() error { return ErrCapacityExceeded }

type InvalidTransitionError struct {
	ReservationID uuid.UUID
	From, To      string
}

func (e InvalidTransitionError) Error() string {
	return fmt.Sprintf("reservation %s: illegal transition %s -> %s", e.ReservationID, e.From, e.To)
}

func (e InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }
