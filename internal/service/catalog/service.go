package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/okravets/eventbooker/internal/domain"
	redisx "github.com/okravets/eventbooker/internal/redis"
	"github.com/okravets/eventbooker/internal/repository"
	postgresrepo "github.com/okravets/eventbooker/internal/repository/postgres"
	redisrepo "github.com/okravets/eventbooker/internal/repository/redis"
	"github.com/okravets/eventbooker/internal/uow"
)

type Config struct {
	EventSummaryTTL time.Duration
	EventListTTL    time.Duration
}

// Service is the read-mostly catalog: venues, organizers, events. Event CRUD
// lives here too; it carries no invariant beyond referential integrity.
type Service struct {
	store *postgresrepo.Store
	cache *redisrepo.Cache
	uow   *uow.UoW
	cfg   Config
}

func New(store *postgresrepo.Store, cache *redisrepo.Cache, cfg Config) *Service {
	if cfg.EventSummaryTTL <= 0 {
		cfg.EventSummaryTTL = 60 * time.Second
	}

	if cfg.EventListTTL <= 0 {
		cfg.EventListTTL = 30 * time.Second
	}

	return &Service{
		store: store,
		cache: cache,
		uow:   uow.NewUoW(store),
		cfg:   cfg,
	}
}

// GetEvent retrieves an event by its ID through the caching layer.
//
// Returns:
//   - *domain.Event: the event, or nil if not found.
//   - error: catalog.ErrEventNotFound if the event is not found.
func (s *Service) GetEvent(ctx context.Context, id int64) (*domain.Event, error) {
	const op = "service.catalog.GetEvent"

	key := redisx.KeyEventSummary(id)

	event, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		key,
		s.cfg.EventSummaryTTL,
		func(ctx context.Context) (domain.Event, error) {
			e, err := s.store.Catalog().GetEvent(ctx, id)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return domain.Event{}, ErrEventNotFound
				}

				return domain.Event{}, err
			}

			return *e, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &event, nil
}

// ListEvents lists all events with venue and organizer names, cached for a
// short TTL.
func (s *Service) ListEvents(ctx context.Context) ([]domain.EventDetails, error) {
	const op = "service.catalog.ListEvents"

	events, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisx.KeyEventList(),
		s.cfg.EventListTTL,
		func(ctx context.Context) ([]domain.EventDetails, error) {
			return s.store.Catalog().ListEvents(ctx)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return events, nil
}

func (s *Service) GetVenue(ctx context.Context, id int64) (*domain.Venue, error) {
	const op = "service.catalog.GetVenue"

	v, err := s.store.Catalog().GetVenue(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrVenueNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return v, nil
}

func (s *Service) GetOrganizer(ctx context.Context, id int64) (*domain.Organizer, error) {
	const op = "service.catalog.GetOrganizer"

	o, err := s.store.Catalog().GetOrganizer(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrOrganizerNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return o, nil
}

func (s *Service) ListVenues(ctx context.Context) ([]domain.Venue, error) {
	const op = "service.catalog.ListVenues"

	out, err := s.store.Catalog().ListVenues(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func (s *Service) ListOrganizers(ctx context.Context) ([]domain.Organizer, error) {
	const op = "service.catalog.ListOrganizers"

	out, err := s.store.Catalog().ListOrganizers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// CreateVenue registers a venue. Capacity is the hard booking limit for
// every event hosted there.
func (s *Service) CreateVenue(ctx context.Context, v domain.Venue) (int64, error) {
	const op = "service.catalog.CreateVenue"

	if strings.TrimSpace(v.Name) == "" {
		return 0, fmt.Errorf("%s: %w: venue name must not be empty", op, ErrValidation)
	}

	if v.Capacity < 1 {
		return 0, fmt.Errorf("%s: %w: capacity must be at least 1", op, ErrValidation)
	}

	id, err := s.store.Catalog().CreateVenue(ctx, v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (s *Service) CreateOrganizer(ctx context.Context, o domain.Organizer) (int64, error) {
	const op = "service.catalog.CreateOrganizer"

	if strings.TrimSpace(o.Name) == "" {
		return 0, fmt.Errorf("%s: %w: organizer name must not be empty", op, ErrValidation)
	}

	id, err := s.store.Catalog().CreateOrganizer(ctx, o)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

// SaveEvent inserts a new event when e.ID is zero and updates the existing
// one otherwise. The referenced venue and organizer must exist.
//
// Returns:
//   - int64: the event ID.
//   - error: catalog.ErrValidation on a malformed event.
//   - error: catalog.ErrVenueNotFound / ErrOrganizerNotFound on dangling refs.
func (s *Service) SaveEvent(ctx context.Context, e domain.Event) (int64, error) {
	const op = "service.catalog.SaveEvent"

	if strings.TrimSpace(e.Name) == "" {
		return 0, fmt.Errorf("%s: %w: event name must not be empty", op, ErrValidation)
	}

	if e.PriceCents < 0 {
		return 0, fmt.Errorf("%s: %w: price must not be negative", op, ErrValidation)
	}

	if !domain.ValidEventCategory(e.Category) {
		return 0, fmt.Errorf("%s: %w: unknown event category %q", op, ErrValidation, e.Category)
	}

	var id int64

	err := s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		if _, err := s.store.Catalog().With(tx).GetVenue(ctx, e.VenueID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s: %w", op, ErrVenueNotFound)
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		if _, err := s.store.Catalog().With(tx).GetOrganizer(ctx, e.OrganizerID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s: %w", op, ErrOrganizerNotFound)
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		if e.ID == 0 {
			created, err := s.store.Catalog().With(tx).CreateEvent(ctx, e)
			if err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
			id = created
		} else {
			if err := s.store.Catalog().With(tx).UpdateEvent(ctx, e); err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return fmt.Errorf("%s: %w", op, ErrEventNotFound)
				}
				return fmt.Errorf("%s: %w", op, err)
			}
			id = e.ID
		}

		after(func(ctx context.Context) {
			_ = s.cache.InvalidateEvent(ctx, id)
		})

		return nil
	})
	if err != nil {
		return 0, err
	}

	return id, nil
}

// DeleteEvent removes an event from the catalog. Events referenced by
// historical reservations cannot be deleted; the audit trail outlives the
// organizer's change of plans.
//
// Returns:
//   - error: catalog.ErrEventNotFound if the event does not exist.
//   - error: catalog.ErrEventInUse if reservations reference the event.
func (s *Service) DeleteEvent(ctx context.Context, id int64) error {
	const op = "service.catalog.DeleteEvent"

	err := s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		if err := s.store.Catalog().With(tx).DeleteEvent(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s: %w", op, ErrEventNotFound)
			}
			if errors.Is(err, repository.ErrConflict) {
				return fmt.Errorf("%s: %w", op, ErrEventInUse)
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		after(func(ctx context.Context) {
			_ = s.cache.InvalidateEvent(ctx, id)
		})

		return nil
	})

	return err
}
