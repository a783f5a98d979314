package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/okravets/eventbooker/internal/domain"
	"github.com/okravets/eventbooker/internal/repository"
)

type CatalogRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *CatalogRepo) With(db DB) *CatalogRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *CatalogRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

func (r *CatalogRepo) GetVenue(ctx context.Context, id int64) (*domain.Venue, error) {
	const op = "postgres.CatalogRepo.GetVenue"

	db := r.handle()

	var v domain.Venue
	err := db.QueryRow(ctx,
		`SELECT id, name, capacity FROM venues WHERE id = $1`,
		id,
	).Scan(&v.ID, &v.Name, &v.Capacity)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &v, nil
}

func (r *CatalogRepo) GetOrganizer(ctx context.Context, id int64) (*domain.Organizer, error) {
	const op = "postgres.CatalogRepo.GetOrganizer"

	db := r.handle()

	var o domain.Organizer
	err := db.QueryRow(ctx,
		`SELECT id, name FROM organizers WHERE id = $1`,
		id,
	).Scan(&o.ID, &o.Name)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &o, nil
}

func (r *CatalogRepo) GetEvent(ctx context.Context, id int64) (*domain.Event, error) {
	const op = "postgres.CatalogRepo.GetEvent"

	db := r.handle()

	var e domain.Event
	err := db.QueryRow(ctx,
		`SELECT id, name, event_date, event_time, price_cents, category, venue_id, organizer_id
       	 FROM events WHERE id = $1`,
		id,
	).Scan(&e.ID, &e.Name, &e.Date, &e.Time, &e.PriceCents, &e.Category, &e.VenueID, &e.OrganizerID)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &e, nil
}

// ListEvents lists all events joined with venue and organizer names, the
// shape listings render.
func (r *CatalogRepo) ListEvents(ctx context.Context) ([]domain.EventDetails, error) {
	const op = "postgres.CatalogRepo.ListEvents"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT e.id, e.name, e.event_date, e.event_time, e.price_cents, e.category,
                e.venue_id, e.organizer_id, v.name, v.capacity, o.name
       	 FROM events e
       	 JOIN venues v ON v.id = e.venue_id
       	 JOIN organizers o ON o.id = e.organizer_id
      	 ORDER BY e.event_date, e.id`,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.EventDetails
	for rows.Next() {
		var ed domain.EventDetails
		if err := rows.Scan(
			&ed.ID,
			&ed.Name,
			&ed.Date,
			&ed.Time,
			&ed.PriceCents,
			&ed.Category,
			&ed.VenueID,
			&ed.OrganizerID,
			&ed.VenueName,
			&ed.VenueCapacity,
			&ed.OrganizerName,
		); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}

		out = append(out, ed)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

func (r *CatalogRepo) ListVenues(ctx context.Context) ([]domain.Venue, error) {
	const op = "postgres.CatalogRepo.ListVenues"

	db := r.handle()

	rows, err := db.Query(ctx, `SELECT id, name, capacity FROM venues ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.Venue
	for rows.Next() {
		var v domain.Venue
		if err := rows.Scan(&v.ID, &v.Name, &v.Capacity); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}

		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

func (r *CatalogRepo) ListOrganizers(ctx context.Context) ([]domain.Organizer, error) {
	const op = "postgres.CatalogRepo.ListOrganizers"

	db := r.handle()

	rows, err := db.Query(ctx, `SELECT id, name FROM organizers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.Organizer
	for rows.Next() {
		var o domain.Organizer
		if err := rows.Scan(&o.ID, &o.Name); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}

		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

func (r *CatalogRepo) CreateEvent(ctx context.Context, e domain.Event) (int64, error) {
	const op = "postgres.CatalogRepo.CreateEvent"

	db := r.handle()

	var id int64
	if err := db.QueryRow(ctx,
		`INSERT INTO events(name, event_date, event_time, price_cents, category, venue_id, organizer_id)
       	 VALUES ($1, $2, $3, $4, $5, $6, $7)
     	 RETURNING id`,
		e.Name, e.Date, e.Time, e.PriceCents, e.Category, e.VenueID, e.OrganizerID,
	).Scan(&id); err != nil {
		return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return id, nil
}

func (r *CatalogRepo) UpdateEvent(ctx context.Context, e domain.Event) error {
	const op = "postgres.CatalogRepo.UpdateEvent"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE events
        	SET name = $2, event_date = $3, event_time = $4, price_cents = $5,
            	category = $6, venue_id = $7, organizer_id = $8
      	 WHERE id = $1`,
		e.ID, e.Name, e.Date, e.Time, e.PriceCents, e.Category, e.VenueID, e.OrganizerID,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}

// DeleteEvent removes an event. The foreign keys from reservations and
// ratings make the delete fail with repository.ErrConflict while historical
// records reference the event.
func (r *CatalogRepo) DeleteEvent(ctx context.Context, id int64) error {
	const op = "postgres.CatalogRepo.DeleteEvent"

	db := r.handle()

	tag, err := db.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}

func (r *CatalogRepo) CreateVenue(ctx context.Context, v domain.Venue) (int64, error) {
	const op = "postgres.CatalogRepo.CreateVenue"

	db := r.handle()

	var id int64
	if err := db.QueryRow(ctx,
		`INSERT INTO venues(name, capacity) VALUES ($1, $2) RETURNING id`,
		v.Name, v.Capacity,
	).Scan(&id); err != nil {
		return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return id, nil
}

func (r *CatalogRepo) CreateOrganizer(ctx context.Context, o domain.Organizer) (int64, error) {
	const op = "postgres.CatalogRepo.CreateOrganizer"

	db := r.handle()

	var id int64
	if err := db.QueryRow(ctx,
		`INSERT INTO organizers(name) VALUES ($1) RETURNING id`,
		o.Name,
	).Scan(&id); err != nil {
		return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return id, nil
}
