package httpgin

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/okravets/eventbooker/internal/domain"
	"github.com/okravets/eventbooker/internal/repository"
	redisrepo "github.com/okravets/eventbooker/internal/repository/redis"
	"github.com/okravets/eventbooker/internal/service"
	"github.com/okravets/eventbooker/internal/service/booking"
	"github.com/okravets/eventbooker/internal/service/catalog"
)

func NewRouter(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
	logger *slog.Logger,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), LoggingMiddleware(logger), RequestIDMiddleware(), CORS())
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// health
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public API
	r.GET("/events", handleListEvents(svcs))
	r.GET("/events/:id", handleGetEvent(svcs))
	r.GET("/venues", handleListVenues(svcs))
	r.GET("/venues/:id", handleGetVenue(svcs))
	r.GET("/organizers", handleListOrganizers(svcs))
	r.GET("/organizers/:id", handleGetOrganizer(svcs))

	r.GET("/users/:id/reservations", handleListUserReservations(svcs))
	r.GET("/users/:id/notifications", handleListUserNotifications(svcs))

	r.POST("/bookings", handleCreateBooking(svcs, idem))
	r.POST("/reservations/:id/cancel", handleCancelReservation(svcs))
	r.POST("/reservations/:id/refund", handleRefundReservation(svcs))
	r.GET("/reservations/:id", handleGetReservation(svcs))

	r.GET("/analytics", handleGetAnalytics(svcs))

	// Admin-API
	// TODO: add admin middleware
	admin := r.Group("/admin")
	{
		admin.POST("/venues", handleCreateVenue(svcs))
		admin.POST("/organizers", handleCreateOrganizer(svcs))
		admin.POST("/events", handleSaveEvent(svcs))
		admin.DELETE("/events/:id", handleDeleteEvent(svcs))
	}

	return r
}

// --- Handlers with Swagger annotations ---

// @Summary  List events
// @Success  200  {array}   EventResponse
// @Router   /events [get]
func handleListEvents(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		events, err := svcs.Catalog.ListEvents(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}

		out := make([]EventResponse, 0, len(events))
		for _, e := range events {
			out = append(out, toEventDetailsResponse(e))
		}
		// ETag + Cache-Control 30s
		writeJSONWithCache(c, http.StatusOK, out, "public, max-age=30", true)
	}
}

// @Summary  Get event
// @Param    id  path  int  true  "Event ID"
// @Success  200  {object}  EventResponse
// @Failure  404  {object}  ErrorResponse
// @Router   /events/{id} [get]
func handleGetEvent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		e, err := svcs.Catalog.GetEvent(c.Request.Context(), eventID)
		if err != nil {
			respondErr(c, err)
			return
		}
		// ETag + Cache-Control 60s
		writeJSONWithCache(c, http.StatusOK, toEventResponse(*e), "public, max-age=60", true)
	}
}

// @Summary  List venues
// @Success  200  {array}  domain.Venue
// @Router   /venues [get]
func handleListVenues(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		venues, err := svcs.Catalog.ListVenues(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, venues, "public, max-age=60", true)
	}
}

// @Summary  Get venue
// @Param    id  path  int  true  "Venue ID"
// @Success  200  {object}  domain.Venue
// @Failure  404  {object}  ErrorResponse
// @Router   /venues/{id} [get]
func handleGetVenue(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		venueID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		v, err := svcs.Catalog.GetVenue(c.Request.Context(), venueID)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, v, "public, max-age=60", true)
	}
}

// @Summary  List organizers
// @Success  200  {array}  domain.Organizer
// @Router   /organizers [get]
func handleListOrganizers(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgs, err := svcs.Catalog.ListOrganizers(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, orgs, "public, max-age=60", true)
	}
}

// @Summary  Get organizer
// @Param    id  path  int  true  "Organizer ID"
// @Success  200  {object}  domain.Organizer
// @Failure  404  {object}  ErrorResponse
// @Router   /organizers/{id} [get]
func handleGetOrganizer(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		organizerID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		o, err := svcs.Catalog.GetOrganizer(c.Request.Context(), organizerID)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, o, "public, max-age=60", true)
	}
}

// @Summary  List user reservations
// @Param    id  path  int  true  "User ID"
// @Success  200  {array}  ReservationResponse
// @Router   /users/{id}/reservations [get]
func handleListUserReservations(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		list, err := svcs.Booking.ListUserReservations(c.Request.Context(), userID)
		if err != nil {
			respondErr(c, err)
			return
		}

		out := make([]ReservationResponse, 0, len(list))
		for _, r := range list {
			out = append(out, toReservationResponse(r.Reservation, r.EventName))
		}
		c.JSON(http.StatusOK, out)
	}
}

// @Summary  List user notifications
// @Param    id  path  int  true  "User ID"
// @Success  200  {array}  NotificationResponse
// @Router   /users/{id}/notifications [get]
func handleListUserNotifications(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		list, err := svcs.Notifications.ListUserNotifications(c.Request.Context(), userID)
		if err != nil {
			respondErr(c, err)
			return
		}

		out := make([]NotificationResponse, 0, len(list))
		for _, n := range list {
			out = append(out, toNotificationResponse(n))
		}
		c.JSON(http.StatusOK, out)
	}
}

// @Summary  Create booking (idempotent)
// @Param    req body  CreateBookingRequest true "payload"
// @Header   201 {string} Idempotency-Key "echo"
// @Success  201 {object} CreateBookingResponse
// @Failure  400 {object} ErrorResponse
// @Failure  402 {object} ErrorResponse "settlement declined"
// @Failure  409 {object} ErrorResponse "capacity exceeded / idem in progress"
// @Failure  429 {object} ErrorResponse "rate limited"
// @Failure  503 {object} ErrorResponse "busy, retry later"
// @Router   /bookings [post]
func handleCreateBooking(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateBookingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		var idemStorageKey string
		if idem != nil && idemKey != "" {
			idemStorageKey = redisrepo.KeyIdemBooking(req.EventID, idemKey)

			if payload, ok, _ := idem.GetResult(
				c.Request.Context(),
				idemStorageKey,
			); ok {
				c.Header("Idempotency-Key", idemKey)
				c.Data(
					http.StatusCreated,
					"application/json; charset=utf-8",
					[]byte(payload),
				)
				return
			}

			locked, err := idem.AcquireLock(
				c.Request.Context(),
				idemStorageKey,
				60*time.Second,
			)
			if err != nil {
				respondErr(c, err)
				return
			}
			if !locked {
				if payload, ok, _ := idem.GetResult(
					c.Request.Context(),
					idemStorageKey,
				); ok {
					c.Header("Idempotency-Key", idemKey)
					c.Data(
						http.StatusCreated,
						"application/json; charset=utf-8",
						[]byte(payload),
					)
					return
				}
				c.Header("Retry-After", "1")
				c.JSON(
					http.StatusConflict,
					ErrorResponse{Error: "idempotency key in progress"},
				)
				return
			}
		}

		rlKey := "ip:" + c.ClientIP()

		reservationID, err := svcs.Booking.Book(
			c.Request.Context(),
			req.UserID,
			req.EventID,
			req.TicketCount,
			domain.TicketCategory(req.TicketCategory),
			domain.PaymentMethod(req.PaymentMethod),
			rlKey,
		)
		if err != nil {
			if idemStorageKey != "" && idem != nil {
				_ = idem.Release(c.Request.Context(), idemStorageKey)
			}
			if isRateLimitedErr(err) {
				c.Header("Retry-After", "60")
				c.JSON(
					http.StatusTooManyRequests,
					ErrorResponse{Error: err.Error()},
				)
				return
			}
			respondErr(c, err)
			return
		}

		resp := CreateBookingResponse{ReservationID: reservationID.String()}

		if idemStorageKey != "" && idem != nil {
			b, _ := json.Marshal(resp)
			_ = idem.SaveResult(c.Request.Context(), idemStorageKey, string(b))
			c.Header("Idempotency-Key", idemKey)
		}

		c.JSON(http.StatusCreated, resp)
	}
}

// @Summary  Cancel reservation
// @Param    id  path  string  true  "Reservation ID (uuid)"
// @Param    req body  CancelReservationRequest true "payload"
// @Success  200 {object} ReservationStatusResponse
// @Failure  409 {object} ErrorResponse "invalid transition"
// @Router   /reservations/{id}/cancel [post]
func handleCancelReservation(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		reservationID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		var req CancelReservationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		if err := svcs.Booking.Cancel(c.Request.Context(), reservationID, req.Reason); err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, ReservationStatusResponse{
			ReservationID: reservationID.String(),
			Status:        string(domain.ReservationCancelled),
		})
	}
}

// @Summary  Refund reservation
// @Param    id  path  string  true  "Reservation ID (uuid)"
// @Success  200 {object} ReservationStatusResponse
// @Failure  409 {object} ErrorResponse "invalid transition / no settled payment"
// @Router   /reservations/{id}/refund [post]
func handleRefundReservation(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		reservationID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		if err := svcs.Booking.Refund(c.Request.Context(), reservationID); err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, ReservationStatusResponse{
			ReservationID: reservationID.String(),
			Status:        string(domain.ReservationRefunded),
		})
	}
}

// @Summary  Get reservation
// @Param    id  path  string  true  "Reservation ID (uuid)"
// @Success  200 {object} ReservationResponse
// @Failure  404 {object} ErrorResponse
// @Router   /reservations/{id} [get]
func handleGetReservation(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		reservationID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		res, err := svcs.Booking.GetReservation(c.Request.Context(), reservationID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toReservationResponse(*res, ""))
	}
}

// @Summary  Analytics bundle
// @Success  200 {object} analytics.Report
// @Router   /analytics [get]
func handleGetAnalytics(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		rep, err := svcs.Analytics.Report(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		// ETag + Cache-Control 15s
		writeJSONWithCache(c, http.StatusOK, rep, "public, max-age=15", true)
	}
}

// @Summary  Create venue
// @Param    req body  CreateVenueRequest true "payload"
// @Success  201 {object} CreateVenueResponse
// @Router   /admin/venues [post]
func handleCreateVenue(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateVenueRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		id, err := svcs.Catalog.CreateVenue(c.Request.Context(), domain.Venue{
			Name:     req.Name,
			Capacity: req.Capacity,
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, CreateVenueResponse{VenueID: id})
	}
}

// @Summary  Create organizer
// @Param    req body  CreateOrganizerRequest true "payload"
// @Success  201 {object} CreateOrganizerResponse
// @Router   /admin/organizers [post]
func handleCreateOrganizer(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateOrganizerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		id, err := svcs.Catalog.CreateOrganizer(c.Request.Context(), domain.Organizer{
			Name: req.Name,
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, CreateOrganizerResponse{OrganizerID: id})
	}
}

// @Summary  Create or update event
// @Param    req body  SaveEventRequest true "payload"
// @Success  201 {object} SaveEventResponse
// @Failure  404 {object} ErrorResponse "venue or organizer not found"
// @Router   /admin/events [post]
func handleSaveEvent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SaveEventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		date, err := parseDate(req.Date)
		if err != nil {
			badRequest(c, "invalid date (YYYY-MM-DD)")
			return
		}
		id, err := svcs.Catalog.SaveEvent(c.Request.Context(), domain.Event{
			ID:          req.ID,
			Name:        req.Name,
			Date:        date,
			Time:        req.Time,
			PriceCents:  req.PriceCents,
			Category:    domain.EventCategory(req.Category),
			VenueID:     req.VenueID,
			OrganizerID: req.OrganizerID,
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		status := http.StatusCreated
		if req.ID != 0 {
			status = http.StatusOK
		}
		c.JSON(status, SaveEventResponse{EventID: id})
	}
}

// @Summary  Delete event
// @Param    id  path  int  true  "Event ID"
// @Success  204
// @Failure  409 {object} ErrorResponse "event has reservations"
// @Router   /admin/events/{id} [delete]
func handleDeleteEvent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		if err := svcs.Catalog.DeleteEvent(c.Request.Context(), eventID); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// --- Helpers ---

func parseInt64Param(c *gin.Context, name string) (int64, bool) {
	s := c.Param(name)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	v, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return v, true
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func isRateLimitedErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "rate limited")
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	switch {
	// booking service
	case errors.Is(err, booking.ErrValidation):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	case errors.Is(err, booking.ErrEventNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "event not found"})
		return
	case errors.Is(err, booking.ErrReservationNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "reservation not found"})
		return
	case errors.Is(err, booking.ErrCapacityExceeded):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
		return
	case errors.Is(err, booking.ErrInvalidTransition):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
		return
	case errors.Is(err, booking.ErrNoSettledPayment):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "no settled payment for reservation"})
		return
	case errors.Is(err, booking.ErrSettlementFailed):
		c.JSON(http.StatusPaymentRequired, ErrorResponse{Error: "payment settlement declined"})
		return
	case errors.Is(err, booking.ErrBusy):
		c.Header("Retry-After", "1")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "busy, retry later"})
		return
	// catalog service
	case errors.Is(err, catalog.ErrValidation):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	case errors.Is(err, catalog.ErrEventNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "event not found"})
		return
	case errors.Is(err, catalog.ErrVenueNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "venue not found"})
		return
	case errors.Is(err, catalog.ErrOrganizerNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "organizer not found"})
		return
	case errors.Is(err, catalog.ErrEventInUse):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "event has reservations"})
		return
	// store
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
		return
	case errors.Is(err, repository.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "store unavailable"})
		return
	}

	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}
