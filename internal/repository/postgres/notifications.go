package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/okravets/eventbooker/internal/domain"
)

type NotificationRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *NotificationRepo) With(db DB) *NotificationRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *NotificationRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// Insert appends a notification record. Rows are never updated or deleted.
func (r *NotificationRepo) Insert(ctx context.Context, n domain.Notification) error {
	const op = "postgres.NotificationRepo.Insert"

	db := r.handle()

	if _, err := db.Exec(ctx,
		`INSERT INTO notifications(id, user_id, message, kind, sent_at)
       	 VALUES ($1, $2, $3, $4, $5)`,
		n.ID, n.UserID, n.Message, n.Kind, n.SentAt,
	); err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}

func (r *NotificationRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Notification, error) {
	const op = "postgres.NotificationRepo.ListByUser"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT id, user_id, message, kind, sent_at
       	 FROM notifications
      	 WHERE user_id = $1
      	 ORDER BY sent_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Message, &n.Kind, &n.SentAt); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}

		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}
