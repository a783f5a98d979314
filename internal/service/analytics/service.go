package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	redisx "github.com/okravets/eventbooker/internal/redis"
	postgresrepo "github.com/okravets/eventbooker/internal/repository/postgres"
	redisrepo "github.com/okravets/eventbooker/internal/repository/redis"
	"github.com/okravets/eventbooker/internal/uow"
)

type Config struct {
	ReportTTL time.Duration
}

// Service assembles the analytics bundle. Every figure is derived from
// reservation and payment rows at read time; there is no separate counter
// state that could drift.
type Service struct {
	store *postgresrepo.Store
	cache *redisrepo.Cache
	uow   *uow.UoW
	cfg   Config
}

func New(store *postgresrepo.Store, cache *redisrepo.Cache, cfg Config) *Service {
	if cfg.ReportTTL <= 0 {
		cfg.ReportTTL = 15 * time.Second
	}

	return &Service{
		store: store,
		cache: cache,
		uow:   uow.NewUoW(store),
		cfg:   cfg,
	}
}

// Report returns the analytics bundle, served from cache within the TTL.
func (s *Service) Report(ctx context.Context) (Report, error) {
	const op = "service.analytics.Report"

	rep, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisx.KeyAnalyticsBundle(),
		s.cfg.ReportTTL,
		s.BuildReport,
	)
	if err != nil {
		return Report{}, fmt.Errorf("%s: %w", op, err)
	}

	return rep, nil
}

// BuildReport computes the bundle directly from the store, bypassing the
// cache. All aggregates run inside one repeatable-read transaction so the
// report reflects a single snapshot; reading it never mutates anything, so
// repeated calls over unchanged data return identical bundles.
func (s *Service) BuildReport(ctx context.Context) (Report, error) {
	const op = "service.analytics.BuildReport"

	var src reportSource

	opts := &pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	}

	err := s.uow.DoWithOpts(ctx, opts, func(ctx context.Context, tx postgresrepo.DB, _ func(uow.AfterCommit)) error {
		repo := s.store.Analytics().With(tx)

		var err error

		if src.totalRevenueCents, err = repo.TotalRevenueCents(ctx); err != nil {
			return err
		}

		if src.avgPriceCents, err = repo.AvgTicketPriceCents(ctx); err != nil {
			return err
		}

		if src.revenue, err = repo.EventRevenue(ctx); err != nil {
			return err
		}

		if src.venues, err = repo.PopularVenues(ctx); err != nil {
			return err
		}

		if src.events, err = repo.PopularEvents(ctx); err != nil {
			return err
		}

		if src.cancellations, err = repo.HighCancellationEvents(ctx); err != nil {
			return err
		}

		if src.ratings, err = repo.EventRatings(ctx); err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		return Report{}, fmt.Errorf("%s: %w", op, err)
	}

	return renderReport(src), nil
}
