package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okravets/eventbooker/internal/config"
	"github.com/okravets/eventbooker/internal/postgres"
	"github.com/okravets/eventbooker/internal/rabbit"
	redisx "github.com/okravets/eventbooker/internal/redis"
	postgresrepo "github.com/okravets/eventbooker/internal/repository/postgres"
	redisrepo "github.com/okravets/eventbooker/internal/repository/redis"
	"github.com/okravets/eventbooker/internal/service"
	"github.com/okravets/eventbooker/internal/service/booking"
	httpgin "github.com/okravets/eventbooker/internal/transport/http/gin"
	"github.com/okravets/eventbooker/migrations"
)

type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	httpServer *http.Server
	publisher  *rabbit.Publisher
	pubsub     *redisx.ReservationsPubSub
	cache      *redisrepo.Cache
}

func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	// Initialize dependencies
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Postgres.User,
		cfg.Postgres.Password,
		cfg.Postgres.Host,
		cfg.Postgres.Port,
		cfg.Postgres.Name,
		cfg.Postgres.SSLMode,
	)

	pgxPool, err := postgres.New(context.Background(), postgres.Config{DSN: dsn})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}

	if cfg.Postgres.Migrate {
		if err := migrations.Apply(context.Background(), pgxPool); err != nil {
			return nil, fmt.Errorf("failed to apply migrations: %w", err)
		}
	}

	rdb, err := redisx.New(context.Background(), redisx.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	var publisher *rabbit.Publisher
	var notifier booking.Notifier
	if cfg.Rabbit.URL != "" {
		publisher, err = rabbit.NewPublisher(cfg.Rabbit.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize rabbitmq: %w", err)
		}
		notifier = publisher
	}

	// Initialize repositories
	store := postgresrepo.NewStore(pgxPool)
	cache := redisrepo.New(rdb)
	pubsub := redisx.NewReservationsPubSub(rdb)
	limiter := redisrepo.NewSlidingWindowLimiter(rdb, redisx.KeyRateLimitPrefix("booking"), 10, 1*time.Minute)
	idempotencyStore := redisrepo.NewIdempotencyStore(rdb, 2*time.Hour)

	// Initialize services
	services := service.NewServices(store, cache, pubsub, limiter, notifier, booking.StubGateway{}, service.Config{
		BookingOpTimeout:   cfg.Booking.OpTimeout,
		BookingMaxRetries:  cfg.Booking.MaxRetries,
		EventSummaryTTL:    cfg.Cache.EventSummaryTTL,
		EventListTTL:       cfg.Cache.EventListTTL,
		AnalyticsReportTTL: cfg.Cache.AnalyticsTTL,
	})

	// Initialize Gin router
	router := httpgin.NewRouter(services, idempotencyStore, logger)

	return &App{
		cfg:       cfg,
		logger:    logger,
		publisher: publisher,
		pubsub:    pubsub,
		cache:     cache,
		httpServer: &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler: router,
		},
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server
	g.Go(func() error {
		a.logger.Info("HTTP server listening", "host", a.cfg.Server.Host, "port", a.cfg.Server.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	// Invalidate cached reads when another instance changes reservation state
	g.Go(func() error {
		err := a.pubsub.Subscribe(gCtx, func(ctx context.Context, eventID int64) {
			_ = a.cache.InvalidateEvent(ctx, eventID)
		})
		if err != nil && gCtx.Err() == nil {
			a.logger.Error("reservations subscription stopped", "error", err)
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := a.httpServer.Shutdown(ctx)
		if a.publisher != nil {
			_ = a.publisher.Close()
		}
		return err
	})

	return g.Wait()
}
