package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/okravets/eventbooker/internal/repository"
)

// IsRetryable reports whether the error is a serialization failure or
// deadlock, i.e. the transaction may be retried as-is.
func IsRetryable(err error) bool {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01":
			return true
		}
	}

	return false
}

func translateDBErr(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}

	var pge *pgconn.PgError
	if errors.As(err, &pge) {
		switch {
		// unique_violation, foreign_key_violation
		case pge.Code == "23505", pge.Code == "23503":
			return repository.ErrConflict
		// class 08: connection exception
		case strings.HasPrefix(pge.Code, "08"):
			return repository.ErrUnavailable
		}
	}

	return err
}
