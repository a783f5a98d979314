package catalog

import "errors"

var (
	ErrValidation        = errors.New("validation error")
	ErrEventNotFound     = errors.New("event not found")
	ErrVenueNotFound     = errors.New("venue not found")
	ErrOrganizerNotFound = errors.New("organizer not found")
	ErrEventInUse        = errors.New("event has historical reservations")
)
