package httpgin

import (
	"time"

	"github.com/okravets/eventbooker/internal/domain"
)

type CreateBookingRequest struct {
	UserID         int64  `json:"user_id" binding:"required"`
	EventID        int64  `json:"event_id" binding:"required"`
	TicketCount    int    `json:"ticket_count" binding:"required,gte=1"`
	TicketCategory string `json:"ticket_category" binding:"required,oneof=VIP EarlyBird Balcony Club Executive"`
	PaymentMethod  string `json:"payment_method" binding:"required,oneof=Credit Debit UPI"`
}

type CancelReservationRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type SaveEventRequest struct {
	ID          int64  `json:"id"`
	Name        string `json:"name" binding:"required"`
	Date        string `json:"date" binding:"required"`
	Time        string `json:"time" binding:"required,hhmm"`
	PriceCents  int64  `json:"price_cents" binding:"gte=0"`
	Category    string `json:"category" binding:"required,oneof=Concert Workshop Sports Movie"`
	VenueID     int64  `json:"venue_id" binding:"required"`
	OrganizerID int64  `json:"organizer_id" binding:"required"`
}

type CreateVenueRequest struct {
	Name     string `json:"name" binding:"required"`
	Capacity int    `json:"capacity" binding:"required,gte=1"`
}

type CreateOrganizerRequest struct {
	Name string `json:"name" binding:"required"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type CreateBookingResponse struct {
	ReservationID string `json:"reservation_id"`
}

type ReservationStatusResponse struct {
	ReservationID string `json:"reservation_id"`
	Status        string `json:"status"`
}

type SaveEventResponse struct {
	EventID int64 `json:"event_id"`
}

type CreateVenueResponse struct {
	VenueID int64 `json:"venue_id"`
}

type CreateOrganizerResponse struct {
	OrganizerID int64 `json:"organizer_id"`
}

// EventResponse renders an event with the price as a fixed two-decimal
// string. Cents never cross the wire raw.
type EventResponse struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	Price         string `json:"price"`
	Category      string `json:"category"`
	VenueName     string `json:"venue_name,omitempty"`
	VenueCapacity int    `json:"venue_capacity,omitempty"`
	OrganizerName string `json:"organizer_name,omitempty"`
}

type ReservationResponse struct {
	ID                 string  `json:"id"`
	UserID             int64   `json:"user_id"`
	EventID            int64   `json:"event_id"`
	EventName          string  `json:"event_name,omitempty"`
	TicketCount        int     `json:"ticket_count"`
	TicketCategory     string  `json:"ticket_category"`
	Status             string  `json:"status"`
	BookedAt           string  `json:"booked_at"`
	CancelledAt        *string `json:"cancelled_at,omitempty"`
	CancellationReason *string `json:"cancellation_reason,omitempty"`
}

type NotificationResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
	Kind    string `json:"kind"`
	SentAt  string `json:"sent_at"`
}

const dateLayout = "2006-01-02"

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

func toEventResponse(e domain.Event) EventResponse {
	return EventResponse{
		ID:       e.ID,
		Name:     e.Name,
		Date:     e.Date.Format(dateLayout),
		Time:     e.Time,
		Price:    domain.FormatCents(e.PriceCents),
		Category: string(e.Category),
	}
}

func toEventDetailsResponse(e domain.EventDetails) EventResponse {
	out := toEventResponse(e.Event)
	out.VenueName = e.VenueName
	out.VenueCapacity = e.VenueCapacity
	out.OrganizerName = e.OrganizerName
	return out
}

func toReservationResponse(r domain.Reservation, eventName string) ReservationResponse {
	out := ReservationResponse{
		ID:             r.ID.String(),
		UserID:         r.UserID,
		EventID:        r.EventID,
		EventName:      eventName,
		TicketCount:    r.TicketCount,
		TicketCategory: string(r.TicketCategory),
		Status:         string(r.Status),
		BookedAt:       r.BookedAt.Format(time.RFC3339),
	}

	if r.CancelledAt != nil {
		s := r.CancelledAt.Format(time.RFC3339)
		out.CancelledAt = &s
	}
	out.CancellationReason = r.CancellationReason

	return out
}

func toNotificationResponse(n domain.Notification) NotificationResponse {
	return NotificationResponse{
		ID:      n.ID.String(),
		Message: n.Message,
		Kind:    n.Kind,
		SentAt:  n.SentAt.Format(time.RFC3339),
	}
}
