package gateway

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ChargeRequest carries everything the gateway needs to charge one ticket.
type ChargeRequest struct {
	TicketID      uuid.UUID
	UserID        int64
	Amount        decimal.Decimal
	PaymentMethod string
	CardNumber    string
	Expiry        string
	CVV           string
}

// ChargeResult is the gateway's answer to a charge attempt.
type ChargeResult struct {
	Reference string // gateway-side reference for a successful charge
	Declined  bool
	Reason    string
}

// Provider is the outbound payment gateway contract. The production system
// would put a real acquirer behind this; here a simulated provider stands in.
type Provider interface {
	// Name returns the provider name.
	Name() string
	// Charge attempts to charge the given amount. A declined charge returns
	// Declined=true with a reason and no error; transport-level failures
	// return an error.
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
}
