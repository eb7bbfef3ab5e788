package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/seatsurge/ticketing/internal/domain/errors"
)

func newChargeRequest() ChargeRequest {
	return ChargeRequest{
		TicketID:      uuid.New(),
		UserID:        42,
		Amount:        decimal.NewFromFloat(49.99),
		PaymentMethod: "credit_card",
	}
}

func TestNewMockProvider(t *testing.T) {
	provider := NewMockProvider("mockpay")

	assert.NotNil(t, provider)
	assert.Equal(t, "mockpay", provider.Name())
}

func TestMockProvider_Charge_Success(t *testing.T) {
	provider := NewMockProvider("mockpay", WithFailureRate(0.0), WithLatency(0))

	result, err := provider.Charge(context.Background(), newChargeRequest())
	require.NoError(t, err)

	assert.False(t, result.Declined)
	assert.Contains(t, result.Reference, "mockpay_ch_")
}

func TestMockProvider_Charge_Declined(t *testing.T) {
	provider := NewMockProvider("mockpay", WithFailureRate(1.0), WithLatency(0))

	result, err := provider.Charge(context.Background(), newChargeRequest())
	require.NoError(t, err)

	assert.True(t, result.Declined)
	assert.NotEmpty(t, result.Reason)
}

func TestMockProvider_Charge_Timeout(t *testing.T) {
	provider := NewMockProvider("mockpay", WithTimeoutRate(1.0), WithLatency(0))

	_, err := provider.Charge(context.Background(), newChargeRequest())
	assert.ErrorIs(t, err, domainErrors.ErrGatewayTimeout)
}

func TestMockProvider_Charge_ContextCancelled(t *testing.T) {
	provider := NewMockProvider("mockpay", WithLatency(time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := provider.Charge(ctx, newChargeRequest())
	assert.ErrorIs(t, err, context.Canceled)
}
