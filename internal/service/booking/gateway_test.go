package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/okravets/eventbooker/internal/domain"
)

func TestStubGatewaySettle(t *testing.T) {
	ctx := context.Background()

	g := StubGateway{}
	require.NoError(t, g.Settle(ctx, uuid.New(), 1500, domain.MethodCredit))

	declined := errors.New("card declined")
	g = StubGateway{Err: declined}
	require.ErrorIs(t, g.Settle(ctx, uuid.New(), 1500, domain.MethodCredit), declined)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	require.Error(t, StubGateway{}.Settle(cancelled, uuid.New(), 1500, domain.MethodCredit))
}

func TestSettleMapsDeclineToSettlementFailed(t *testing.T) {
	svc := New(nil, nil, nil, nil, nil, StubGateway{Err: errors.New("insufficient funds")}, Config{})

	err := svc.settle(context.Background(), domain.Payment{
		ID:          uuid.New(),
		AmountCents: 5000,
		Method:      domain.MethodUPI,
		CreatedAt:   time.Now().UTC(),
	})
	require.ErrorIs(t, err, ErrSettlementFailed)
}

func TestSettleOpensBreakerAfterConsecutiveDeclines(t *testing.T) {
	svc := New(nil, nil, nil, nil, nil, StubGateway{Err: errors.New("provider down")}, Config{})
	pay := domain.Payment{ID: uuid.New(), AmountCents: 100, Method: domain.MethodCredit}

	// default breaker trips after more than five consecutive failures
	for i := 0; i < 6; i++ {
		require.ErrorIs(t, svc.settle(context.Background(), pay), ErrSettlementFailed)
	}

	require.ErrorIs(t, svc.settle(context.Background(), pay), ErrBusy)
}

func TestSettleSucceeds(t *testing.T) {
	svc := New(nil, nil, nil, nil, nil, StubGateway{}, Config{})

	err := svc.settle(context.Background(), domain.Payment{
		ID:          uuid.New(),
		AmountCents: 5000,
		Method:      domain.MethodDebit,
	})
	require.NoError(t, err)
}
