package service

import (
	"context"

	"github.com/shopspring/decimal"

	domainErrors "github.com/seatsurge/ticketing/internal/domain/errors"
	"github.com/seatsurge/ticketing/internal/domain/payment"
	"github.com/seatsurge/ticketing/internal/domain/ticket"
	"github.com/seatsurge/ticketing/internal/gateway"
)

// CardDetails carries the caller-supplied card fields through to the gateway.
// They are never persisted.
type CardDetails struct {
	Number string
	Expiry string
	CVV    string
}

// PaymentRecorder charges the payment gateway and persists the resulting
// payment record. In this system the gateway is a synchronous stand-in for a
// real acquirer.
type PaymentRecorder struct {
	payments payment.Repository
	provider gateway.Provider
}

func NewPaymentRecorder(payments payment.Repository, provider gateway.Provider) *PaymentRecorder {
	return &PaymentRecorder{payments: payments, provider: provider}
}

// Record charges amount for the given reserved ticket and persists a
// completed payment. The amount must equal the ticket's snapshotted price;
// a mismatch is a programming error, not user input, and is reported as an
// internal invariant violation. Any failure returns ErrPaymentFailed so the
// coordinator rolls back the whole attempt.
func (r *PaymentRecorder) Record(ctx context.Context, t *ticket.Ticket, amount decimal.Decimal, method string, card CardDetails) (*payment.Payment, error) {
	if !amount.Equal(t.Price) {
		return nil, domainErrors.NewDomainError("amount_mismatch",
			"charge amount "+amount.String()+" does not match ticket price "+t.Price.String(),
			domainErrors.ErrAmountMismatch)
	}

	p, err := payment.New(t.UserID, t.ID, amount, method)
	if err != nil {
		return nil, err
	}

	result, err := r.provider.Charge(ctx, gateway.ChargeRequest{
		TicketID:      t.ID,
		UserID:        t.UserID,
		Amount:        amount,
		PaymentMethod: method,
		CardNumber:    card.Number,
		Expiry:        card.Expiry,
		CVV:           card.CVV,
	})
	if err != nil {
		return nil, domainErrors.NewDomainError("payment_failed", "gateway error: "+err.Error(), domainErrors.ErrPaymentFailed)
	}
	if result.Declined {
		// The failed record is not persisted: the whole attempt rolls back
		// and nothing durable may survive it.
		return nil, domainErrors.NewDomainError("payment_failed", result.Reason, domainErrors.ErrPaymentFailed)
	}

	if err := p.MarkCompleted(); err != nil {
		return nil, err
	}
	if err := r.payments.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
