package gateway

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	domainErrors "github.com/seatsurge/ticketing/internal/domain/errors"
)

// MockProvider simulates a payment gateway with configurable latency and
// failure behavior.
type MockProvider struct {
	name        string
	failureRate float64 // 0.0 to 1.0
	latency     time.Duration
	timeoutRate float64 // 0.0 to 1.0
}

type MockProviderOption func(*MockProvider)

func WithFailureRate(rate float64) MockProviderOption {
	return func(p *MockProvider) { p.failureRate = rate }
}

func WithLatency(d time.Duration) MockProviderOption {
	return func(p *MockProvider) { p.latency = d }
}

func WithTimeoutRate(rate float64) MockProviderOption {
	return func(p *MockProvider) { p.timeoutRate = rate }
}

func NewMockProvider(name string, opts ...MockProviderOption) *MockProvider {
	p := &MockProvider{
		name:        name,
		failureRate: 0.0,
		latency:     100 * time.Millisecond,
		timeoutRate: 0.0,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *MockProvider) Name() string { return p.name }

func (p *MockProvider) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	// Simulate latency
	select {
	case <-time.After(p.latency):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	// Simulate timeout
	if rand.Float64() < p.timeoutRate {
		return nil, domainErrors.ErrGatewayTimeout
	}

	// Simulate a decline
	if rand.Float64() < p.failureRate {
		return &ChargeResult{
			Declined: true,
			Reason:   fmt.Sprintf("%s: simulated decline for ticket %s", p.name, req.TicketID),
		}, nil
	}

	return &ChargeResult{
		Reference: fmt.Sprintf("%s_ch_%s", p.name, uuid.New().String()[:8]),
	}, nil
}
