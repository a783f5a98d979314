package notifications

import (
	"context"
	"fmt"

	"github.com/okravets/eventbooker/internal/domain"
	postgresrepo "github.com/okravets/eventbooker/internal/repository/postgres"
)

// Service serves the per-user notification feed. Rows are written by the
// booking engine inside its transactions; this side only reads.
type Service struct {
	store *postgresrepo.Store
}

func New(store *postgresrepo.Store) *Service {
	return &Service{store: store}
}

// ListUserNotifications returns the user's notifications, newest first.
func (s *Service) ListUserNotifications(ctx context.Context, userID int64) ([]domain.Notification, error) {
	const op = "service.notifications.ListUserNotifications"

	out, err := s.store.Notifications().ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}
