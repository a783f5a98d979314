package domain

import (
	"time"

	"github.com/google/uuid"
)

type EventCategory string

const (
	CategoryConcert  EventCategory = "Concert"
	CategoryWorkshop EventCategory = "Workshop"
	CategorySports   EventCategory = "Sports"
	CategoryMovie    EventCategory = "Movie"
)

type TicketCategory string

const (
	TicketVIP       TicketCategory = "VIP"
	TicketEarlyBird TicketCategory = "EarlyBird"
	TicketBalcony   TicketCategory = "Balcony"
	TicketClub      TicketCategory = "Club"
	TicketExecutive TicketCategory = "Executive"
)

type PaymentMethod string

const (
	MethodCredit PaymentMethod = "Credit"
	MethodDebit  PaymentMethod = "Debit"
	MethodUPI    PaymentMethod = "UPI"
)

type Venue struct {
	ID       int64
	Name     string
	Capacity int
}

type Organizer struct {
	ID   int64
	Name string
}

type Event struct {
	ID          int64
	Name        string
	Date        time.Time
	Time        string
	PriceCents  int64
	Category    EventCategory
	VenueID     int64
	OrganizerID int64
}

// EventDetails is an Event joined with its venue and organizer names,
// the shape listings render.
type EventDetails struct {
	Event
	VenueName     string
	VenueCapacity int
	OrganizerName string
}

type Reservation struct {
	ID                 uuid.UUID
	UserID             int64
	EventID            int64
	TicketCount        int
	TicketCategory     TicketCategory
	Status             ReservationStatus
	BookedAt           time.Time
	CancelledAt        *time.Time
	CancellationReason *string
}

// ReservationDetails is a Reservation joined with its event, for the
// per-user reservations feed.
type ReservationDetails struct {
	Reservation
	EventName       string
	EventPriceCents int64
}

type Payment struct {
	ID            uuid.UUID
	ReservationID uuid.UUID
	AmountCents   int64
	Method        PaymentMethod
	Status        PaymentStatus
	CreatedAt     time.Time
	RefundedAt    *time.Time
}

type Notification struct {
	ID      uuid.UUID
	UserID  int64
	Message string
	Kind    string
	SentAt  time.Time
}

func ValidEventCategory(c EventCategory) bool {
	switch c {
	case CategoryConcert, CategoryWorkshop, CategorySports, CategoryMovie:
		return true
	}
	return false
}

func ValidTicketCategory(c TicketCategory) bool {
	switch c {
	case TicketVIP, TicketEarlyBird, TicketBalcony, TicketClub, TicketExecutive:
		return true
	}
	return false
}

func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case MethodCredit, MethodDebit, MethodUPI:
		return true
	}
	return false
}
