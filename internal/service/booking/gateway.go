package booking

import (
	"context"

	"github.com/google/uuid"
	"github.com/okravets/eventbooker/internal/domain"
)

// SettlementGateway captures payment for a reservation. The real collaborator
// is an external payment provider; bookings call it synchronously inside the
// booking transaction.
type SettlementGateway interface {
	Settle(ctx context.Context, paymentID uuid.UUID, amountCents int64, method domain.PaymentMethod) error
}

// StubGateway approves every settlement unless Err is set. It stands in for
// the provider in development and tests.
type StubGateway struct {
	Err error
}

func (g StubGateway) Settle(ctx context.Context, paymentID uuid.UUID, amountCents int64, method domain.PaymentMethod) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return g.Err
}
