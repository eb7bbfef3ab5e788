package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	domainErrors "github.com/seatsurge/ticketing/internal/domain/errors"
	"github.com/seatsurge/ticketing/internal/domain/payment"
	"github.com/seatsurge/ticketing/internal/domain/ticket"
)

// TicketService serves ticket reads and the explicit cancellation action.
type TicketService struct {
	tickets  ticket.Repository
	payments payment.Repository
	tx       TransactionManager
	logger   zerolog.Logger
}

func NewTicketService(tickets ticket.Repository, payments payment.Repository, tx TransactionManager, logger zerolog.Logger) *TicketService {
	return &TicketService{tickets: tickets, payments: payments, tx: tx, logger: logger}
}

// TicketWithPayment pairs a ticket with its payment, if one exists.
type TicketWithPayment struct {
	Ticket  *ticket.Ticket
	Payment *payment.Payment
}

// Get returns one ticket with its payment.
func (s *TicketService) Get(ctx context.Context, id uuid.UUID) (*TicketWithPayment, error) {
	t, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p, err := s.payments.GetByTicketID(ctx, t.ID)
	if err != nil {
		return nil, fmt.Errorf("fetch payment for ticket %s: %w", t.ID, err)
	}
	return &TicketWithPayment{Ticket: t, Payment: p}, nil
}

// GetByNumber returns one ticket with its payment, looked up by the
// customer-facing ticket number.
func (s *TicketService) GetByNumber(ctx context.Context, number string) (*TicketWithPayment, error) {
	if number == "" {
		return nil, domainErrors.NewValidationError("ticket_number", "cannot be empty")
	}
	t, err := s.tickets.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	p, err := s.payments.GetByTicketID(ctx, t.ID)
	if err != nil {
		return nil, fmt.Errorf("fetch payment for ticket %s: %w", t.ID, err)
	}
	return &TicketWithPayment{Ticket: t, Payment: p}, nil
}

// List returns tickets with payment info, newest first.
func (s *TicketService) List(ctx context.Context, limit, offset int) ([]*TicketWithPayment, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	tickets, err := s.tickets.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	return s.withPayments(ctx, tickets)
}

// ListByUser returns a user's tickets with payment info, newest first.
func (s *TicketService) ListByUser(ctx context.Context, userID int64) ([]*TicketWithPayment, error) {
	if userID <= 0 {
		return nil, domainErrors.NewValidationError("user_id", "must be positive")
	}
	tickets, err := s.tickets.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.withPayments(ctx, tickets)
}

// Cancel performs the explicit confirmed→cancelled transition, releasing the
// seat. Only the ticket's owner may cancel it.
func (s *TicketService) Cancel(ctx context.Context, id uuid.UUID, userID int64) (*ticket.Ticket, error) {
	var cancelled *ticket.Ticket
	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		t, err := s.tickets.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if t.UserID != userID {
			return domainErrors.ErrUnauthorized
		}
		if err := t.Cancel(); err != nil {
			return err
		}
		if err := s.tickets.Update(txCtx, t); err != nil {
			return err
		}
		cancelled = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("ticket_number", cancelled.TicketNumber).
		Int64("event_id", cancelled.EventID).
		Msg("ticket cancelled")
	return cancelled, nil
}

func (s *TicketService) withPayments(ctx context.Context, tickets []*ticket.Ticket) ([]*TicketWithPayment, error) {
	ids := make([]uuid.UUID, 0, len(tickets))
	for _, t := range tickets {
		ids = append(ids, t.ID)
	}
	payments, err := s.payments.GetByTicketIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch payments: %w", err)
	}

	result := make([]*TicketWithPayment, 0, len(tickets))
	for _, t := range tickets {
		result = append(result, &TicketWithPayment{Ticket: t, Payment: payments[t.ID]})
	}
	return result, nil
}
