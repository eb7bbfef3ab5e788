package payment

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence interface for payments.
type Repository interface {
	// Create inserts a new payment.
	Create(ctx context.Context, p *Payment) error
	// GetByTicketID retrieves the payment for a ticket, or nil if none exists.
	GetByTicketID(ctx context.Context, ticketID uuid.UUID) (*Payment, error)
	// GetByTicketIDs retrieves payments for a set of tickets keyed by ticket id.
	GetByTicketIDs(ctx context.Context, ticketIDs []uuid.UUID) (map[uuid.UUID]*Payment, error)
}
