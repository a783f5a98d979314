package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"github.com/okravets/eventbooker/internal/domain"
	redisx "github.com/okravets/eventbooker/internal/redis"
	"github.com/okravets/eventbooker/internal/repository"
	postgresrepo "github.com/okravets/eventbooker/internal/repository/postgres"
	redisrepo "github.com/okravets/eventbooker/internal/repository/redis"
	"github.com/okravets/eventbooker/internal/uow"
)

type Config struct {
	// OpTimeout bounds each write operation, lock waits included. Callers
	// get ErrBusy instead of hanging on contention.
	OpTimeout time.Duration
	// MaxRetries is the number of automatic re-runs after a serialization
	// failure before ErrBusy is surfaced.
	MaxRetries int
}

// Notifier hands committed notification records to the delivery collaborator.
type Notifier interface {
	PublishNotification(ctx context.Context, n domain.Notification) error
}

type Service struct {
	store    *postgresrepo.Store
	cache    *redisrepo.Cache
	pubsub   *redisx.ReservationsPubSub
	limiter  *redisrepo.SlidingWindowLimiter
	notifier Notifier
	gateway  SettlementGateway
	breaker  *gobreaker.CircuitBreaker
	uow      *uow.UoW
	cfg      Config
}

func New(
	store *postgresrepo.Store,
	cache *redisrepo.Cache,
	pubsub *redisx.ReservationsPubSub,
	limiter *redisrepo.SlidingWindowLimiter,
	notifier Notifier,
	gateway SettlementGateway,
	cfg Config,
) *Service {
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = 5 * time.Second
	}

	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	} else if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 2
	}

	return &Service{
		store:    store,
		cache:    cache,
		pubsub:   pubsub,
		limiter:  limiter,
		notifier: notifier,
		gateway:  gateway,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name: "settlement",
		}),
		uow: uow.NewUoW(store),
		cfg: cfg,
	}
}

// Book reserves tickets for an event and settles payment, all in one
// serializable transaction. The event row is locked first, so two bookers
// racing for the last seats cannot both pass the capacity check.
//
// Parameters:
//   - ctx: request-scoped context.
//   - userID: identity of the booking user; there is no ambient session state.
//   - eventID: event to book.
//   - ticketCount: number of tickets, at least 1.
//   - ticketCategory, paymentMethod: enum members.
//   - rlKey: rate-limit key, usually the caller's IP; empty disables limiting.
//
// Returns:
//   - uuid.UUID: the reservation ID.
//   - error: booking.ErrCapacityExceeded when not enough seats remain.
//   - error: booking.ErrSettlementFailed when the gateway declines; nothing
//     is persisted in that case.
//   - error: booking.ErrBusy after retries on transaction contention.
func (s *Service) Book(
	ctx context.Context,
	userID, eventID int64,
	ticketCount int,
	ticketCategory domain.TicketCategory,
	paymentMethod domain.PaymentMethod,
	rlKey string,
) (uuid.UUID, error) {
	const op = "service.booking.Book"

	if ticketCount < 1 {
		return uuid.Nil, fmt.Errorf("%s:%w: ticket count must be at least 1", op, ErrValidation)
	}

	if !domain.ValidTicketCategory(ticketCategory) {
		return uuid.Nil, fmt.Errorf("%s:%w: unknown ticket category %q", op, ErrValidation, ticketCategory)
	}

	if !domain.ValidPaymentMethod(paymentMethod) {
		return uuid.Nil, fmt.Errorf("%s:%w: unknown payment method %q", op, ErrValidation, paymentMethod)
	}

	if s.limiter != nil && rlKey != "" {
		ok, _, retry, err := s.limiter.Allow(ctx, rlKey)
		if err != nil {
			return uuid.Nil, fmt.Errorf("%s:%w", op, err)
		}
		if !ok {
			return uuid.Nil, fmt.Errorf("%s: rate limited, retry in %s", op, retry)
		}
	}

	var reservationID uuid.UUID

	err := s.runWrite(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		inv, err := s.store.Booking().With(tx).LockEventInventory(ctx, eventID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s:%w", op, ErrEventNotFound)
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		taken, err := s.store.Booking().With(tx).ActiveTicketSum(ctx, eventID)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		available := inv.Capacity - taken
		if ticketCount > available {
			return fmt.Errorf("%s:%w", op, CapacityExceededError{
				EventID:   eventID,
				Requested: ticketCount,
				Available: available,
			})
		}

		now := time.Now().UTC()

		res := domain.Reservation{
			ID:             uuid.New(),
			UserID:         userID,
			EventID:        eventID,
			TicketCount:    ticketCount,
			TicketCategory: ticketCategory,
			Status:         domain.ReservationPending,
			BookedAt:       now,
		}

		if err := s.store.Booking().With(tx).CreateReservation(ctx, res); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		pay := domain.Payment{
			ID:            uuid.New(),
			ReservationID: res.ID,
			AmountCents:   int64(ticketCount) * inv.PriceCents,
			Method:        paymentMethod,
			Status:        domain.PaymentPending,
			CreatedAt:     now,
		}

		if err := s.store.Booking().With(tx).CreatePayment(ctx, pay); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		// Settlement is synchronous inside the unit: a decline rolls the
		// whole booking back, so a Confirmed reservation can never exist
		// without a Successful payment.
		if err := s.settle(ctx, pay); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		if err := s.store.Booking().With(tx).SetPaymentStatus(ctx, pay.ID, domain.PaymentSuccessful); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		if err := s.store.Booking().With(tx).SetReservationStatus(ctx, res.ID, domain.ReservationConfirmed); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		note := domain.Notification{
			ID:      uuid.New(),
			UserID:  userID,
			Message: fmt.Sprintf("Booked %d x %s tickets for %s (%s paid)", ticketCount, ticketCategory, inv.EventName, domain.FormatCents(pay.AmountCents)),
			Kind:    "booking",
			SentAt:  now,
		}

		if err := s.store.Notifications().With(tx).Insert(ctx, note); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		reservationID = res.ID

		after(func(ctx context.Context) {
			_ = s.cache.InvalidateEvent(ctx, eventID)
			_ = s.pubsub.PublishReservationChanged(ctx, eventID)
			if s.notifier != nil {
				_ = s.notifier.PublishNotification(ctx, note)
			}
		})

		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	return reservationID, nil
}

// Cancel transitions a reservation to Cancelled, recording the reason.
// Capacity is released implicitly: the inventory ledger ignores Cancelled
// reservations. Refunds are a separate, explicit operation.
//
// Returns:
//   - error: booking.ErrValidation when the reason is empty.
//   - error: booking.ErrInvalidTransition unless the reservation is Pending
//     or Confirmed; the record is left untouched.
func (s *Service) Cancel(ctx context.Context, reservationID uuid.UUID, reason string) error {
	const op = "service.booking.Cancel"

	if strings.TrimSpace(reason) == "" {
		return fmt.Errorf("%s:%w: cancellation reason must not be empty", op, ErrValidation)
	}

	return s.runWrite(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		res, err := s.store.Booking().With(tx).GetReservationForUpdate(ctx, reservationID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s:%w", op, ErrReservationNotFound)
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		if !res.Status.CanTransitionTo(domain.ReservationCancelled) {
			return fmt.Errorf("%s:%w", op, InvalidTransitionError{
				ReservationID: reservationID,
				From:          string(res.Status),
				To:            string(domain.ReservationCancelled),
			})
		}

		now := time.Now().UTC()

		if err := s.store.Booking().With(tx).CancelReservation(ctx, reservationID, reason, now); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		note := domain.Notification{
			ID:      uuid.New(),
			UserID:  res.UserID,
			Message: fmt.Sprintf("Reservation %s cancelled: %s", reservationID, reason),
			Kind:    "cancellation",
			SentAt:  now,
		}

		if err := s.store.Notifications().With(tx).Insert(ctx, note); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		eventID := res.EventID
		after(func(ctx context.Context) {
			_ = s.cache.InvalidateEvent(ctx, eventID)
			_ = s.pubsub.PublishReservationChanged(ctx, eventID)
			if s.notifier != nil {
				_ = s.notifier.PublishNotification(ctx, note)
			}
		})

		return nil
	})
}

// Refund marks the reservation's settled payment as Refunded and the
// reservation itself as Refunded. The refunded amount is always the amount
// stored at booking time; it is never accepted from the caller.
//
// Returns:
//   - error: booking.ErrInvalidTransition unless the reservation is Cancelled,
//     which also covers refunding twice.
//   - error: booking.ErrNoSettledPayment when no Successful payment exists.
func (s *Service) Refund(ctx context.Context, reservationID uuid.UUID) error {
	const op = "service.booking.Refund"

	return s.runWrite(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		res, err := s.store.Booking().With(tx).GetReservationForUpdate(ctx, reservationID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s:%w", op, ErrReservationNotFound)
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		if !res.Status.CanTransitionTo(domain.ReservationRefunded) {
			return fmt.Errorf("%s:%w", op, InvalidTransitionError{
				ReservationID: reservationID,
				From:          string(res.Status),
				To:            string(domain.ReservationRefunded),
			})
		}

		pay, err := s.store.Booking().With(tx).SettledPayment(ctx, reservationID)
		if err != nil {
			if errors.Is(err, repository.ErrNoSettledPayment) {
				return fmt.Errorf("%s:%w", op, ErrNoSettledPayment)
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		now := time.Now().UTC()

		if err := s.store.Booking().With(tx).MarkPaymentRefunded(ctx, pay.ID, now); err != nil {
			if errors.Is(err, repository.ErrNoSettledPayment) {
				return fmt.Errorf("%s:%w", op, ErrNoSettledPayment)
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		if err := s.store.Booking().With(tx).SetReservationStatus(ctx, reservationID, domain.ReservationRefunded); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		note := domain.Notification{
			ID:      uuid.New(),
			UserID:  res.UserID,
			Message: fmt.Sprintf("Refund of %s processed for reservation %s", domain.FormatCents(pay.AmountCents), reservationID),
			Kind:    "refund",
			SentAt:  now,
		}

		if err := s.store.Notifications().With(tx).Insert(ctx, note); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		eventID := res.EventID
		after(func(ctx context.Context) {
			_ = s.cache.InvalidateEvent(ctx, eventID)
			_ = s.pubsub.PublishReservationChanged(ctx, eventID)
			if s.notifier != nil {
				_ = s.notifier.PublishNotification(ctx, note)
			}
		})

		return nil
	})
}

// GetReservation returns a reservation by ID.
func (s *Service) GetReservation(ctx context.Context, reservationID uuid.UUID) (*domain.Reservation, error) {
	const op = "service.booking.GetReservation"

	res, err := s.store.Booking().GetReservation(ctx, reservationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrReservationNotFound)
		}
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return res, nil
}

// ListUserReservations returns the user's reservations with event details,
// newest first.
func (s *Service) ListUserReservations(ctx context.Context, userID int64) ([]domain.ReservationDetails, error) {
	const op = "service.booking.ListUserReservations"

	out, err := s.store.Booking().ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// runWrite executes fn as a serializable unit of work under the operation
// timeout, retrying serialization failures a bounded number of times.
func (s *Service) runWrite(
	ctx context.Context,
	fn func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error,
) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.OpTimeout)
	defer cancel()

	var err error
	for attempt := 0; ; attempt++ {
		err = s.uow.Do(ctx, fn)
		if err == nil {
			return nil
		}

		if !postgresrepo.IsRetryable(err) {
			break
		}

		if attempt >= s.cfg.MaxRetries {
			return fmt.Errorf("%w: transaction contention", ErrBusy)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: operation timed out", ErrBusy)
	}

	return err
}

func (s *Service) settle(ctx context.Context, p domain.Payment) error {
	_, err := s.breaker.Execute(func() (any, error) {
		return nil, s.gateway.Settle(ctx, p.ID, p.AmountCents, p.Method)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: settlement gateway unavailable", ErrBusy)
		}
		return fmt.Errorf("%w: %v", ErrSettlementFailed, err)
	}

	return nil
}
