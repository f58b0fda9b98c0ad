package payment

import (
	"context"
	"testing"
	"time"

	"github.com/courtside/pos-go-app/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulatedGatewayApproves(t *testing.T) {
	gw := NewSimulatedGateway(0.10, 0).WithRoll(func() float64 { return 0.50 })

	res, err := gw.Charge(context.Background(), ChargeRequest{
		Method: models.PaymentCard, Amount: 44.00, Total: 44.00,
	})

	require.NoError(t, err)
	assert.True(t, res.Approved)
	assert.NotEmpty(t, res.Reference)
}

func TestSimulatedGatewayDeclines(t *testing.T) {
	gw := NewSimulatedGateway(0.10, 0).WithRoll(func() float64 { return 0.05 })

	res, err := gw.Charge(context.Background(), ChargeRequest{
		Method: models.PaymentCard, Amount: 44.00, Total: 44.00,
	})

	require.NoError(t, err)
	assert.False(t, res.Approved)
	assert.Equal(t, "card declined by issuer", res.Reason)
}

func TestSimulatedGatewayZeroRateNeverDeclines(t *testing.T) {
	gw := NewSimulatedGateway(0, 0).WithRoll(func() float64 { return 0 })

	res, err := gw.Charge(context.Background(), ChargeRequest{Method: models.PaymentCard})

	require.NoError(t, err)
	assert.True(t, res.Approved)
}

func TestSimulatedGatewayHonorsContext(t *testing.T) {
	gw := NewSimulatedGateway(0, time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := gw.Charge(ctx, ChargeRequest{Method: models.PaymentCard})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}
