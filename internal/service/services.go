package service

import (
	"time"

	redisx "github.com/okravets/eventbooker/internal/redis"
	postgresrepo "github.com/okravets/eventbooker/internal/repository/postgres"
	redisrepo "github.com/okravets/eventbooker/internal/repository/redis"
	"github.com/okravets/eventbooker/internal/service/analytics"
	"github.com/okravets/eventbooker/internal/service/booking"
	"github.com/okravets/eventbooker/internal/service/catalog"
	"github.com/okravets/eventbooker/internal/service/notifications"
)

// Services bundles every application service behind one constructor so the
// app layer wires dependencies exactly once.
type Services struct {
	Booking       *booking.Service
	Catalog       *catalog.Service
	Analytics     *analytics.Service
	Notifications *notifications.Service
}

type Config struct {
	BookingOpTimeout   time.Duration
	BookingMaxRetries  int
	EventSummaryTTL    time.Duration
	EventListTTL       time.Duration
	AnalyticsReportTTL time.Duration
}

func NewServices(
	store *postgresrepo.Store,
	cache *redisrepo.Cache,
	pubsub *redisx.ReservationsPubSub,
	limiter *redisrepo.SlidingWindowLimiter,
	notifier booking.Notifier,
	gateway booking.SettlementGateway,
	cfg Config,
) *Services {
	return &Services{
		Booking: booking.New(store, cache, pubsub, limiter, notifier, gateway, booking.Config{
			OpTimeout:  cfg.BookingOpTimeout,
			MaxRetries: cfg.BookingMaxRetries,
		}),
		Catalog: catalog.New(store, cache, catalog.Config{
			EventSummaryTTL: cfg.EventSummaryTTL,
			EventListTTL:    cfg.EventListTTL,
		}),
		Analytics: analytics.New(store, cache, analytics.Config{
			ReportTTL: cfg.AnalyticsReportTTL,
		}),
		Notifications: notifications.New(store),
	}
}
