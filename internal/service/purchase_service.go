package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/seatsurge/ticketing/internal/catalog"
	domainErrors "github.com/seatsurge/ticketing/internal/domain/errors"
	"github.com/seatsurge/ticketing/internal/domain/payment"
	"github.com/seatsurge/ticketing/internal/domain/ticket"
	"github.com/seatsurge/ticketing/internal/notifier"
)

// CatalogClient fetches authoritative event capacity and price.
type CatalogClient interface {
	GetEvent(ctx context.Context, eventID int64) (*catalog.Event, error)
}

// Notifier delivers best-effort purchase notifications after commit.
type Notifier interface {
	DispatchPurchaseConfirmed(ctx context.Context, n notifier.PurchaseConfirmed)
}

// PurchaseService coordinates one purchase attempt into exactly one of: a
// confirmed ticket with a completed payment, or a clean failure with no
// durable side effects.
type PurchaseService struct {
	tickets  ticket.Repository
	tx       TransactionManager
	catalog  CatalogClient
	recorder *PaymentRecorder
	notifier Notifier
	logger   zerolog.Logger
}

func NewPurchaseService(
	tickets ticket.Repository,
	tx TransactionManager,
	catalogClient CatalogClient,
	recorder *PaymentRecorder,
	n Notifier,
	logger zerolog.Logger,
) *PurchaseService {
	return &PurchaseService{
		tickets:  tickets,
		tx:       tx,
		catalog:  catalogClient,
		recorder: recorder,
		notifier: n,
		logger:   logger,
	}
}

// PurchaseRequest holds the input for one purchase attempt.
type PurchaseRequest struct {
	UserID        int64
	EventID       int64
	PaymentMethod string
	FirstName     string
	Card          CardDetails
}

// PurchaseResult holds the confirmed outcome returned to the caller.
type PurchaseResult struct {
	Ticket  *ticket.Ticket
	Payment *payment.Payment
	Event   *catalog.Event
}

// Purchase runs the purchase transaction.
//
// The event is fetched before the database transaction opens (no write
// precedes the fetch, and the event lock is then never held across a network
// call). Inside the transaction the count-then-insert sequence is serialized
// per event id, so two attempts can never both observe the last free seat.
func (s *PurchaseService) Purchase(ctx context.Context, req PurchaseRequest) (*PurchaseResult, error) {
	if err := validatePurchase(req); err != nil {
		return nil, err
	}

	event, err := s.catalog.GetEvent(ctx, req.EventID)
	if err != nil {
		return nil, err
	}

	var (
		t   *ticket.Ticket
		pay *payment.Payment
	)
	err = s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.tickets.LockEvent(txCtx, req.EventID); err != nil {
			return fmt.Errorf("lock event %d: %w", req.EventID, err)
		}

		sold, err := s.tickets.CountActiveByEvent(txCtx, req.EventID)
		if err != nil {
			return fmt.Errorf("count sold tickets: %w", err)
		}

		available := event.TotalSeats - sold
		if available < 0 {
			// An oversell already happened. Surface it loudly; clamping
			// would hide the corruption.
			s.logger.Error().
				Int64("event_id", req.EventID).
				Int("total_seats", event.TotalSeats).
				Int("sold", sold).
				Msg("ledger inconsistency: sold tickets exceed total seats")
			return domainErrors.NewDomainError("ledger_inconsistency",
				fmt.Sprintf("event %d: %d sold of %d seats", req.EventID, sold, event.TotalSeats),
				domainErrors.ErrLedgerInconsistency)
		}
		if available == 0 {
			return domainErrors.ErrSoldOut
		}

		t, err = ticket.NewReservation(req.EventID, req.UserID, event.Price)
		if err != nil {
			return err
		}
		if err := s.tickets.Create(txCtx, t); err != nil {
			return fmt.Errorf("insert reservation: %w", err)
		}

		pay, err = s.recorder.Record(txCtx, t, event.Price, req.PaymentMethod, req.Card)
		if err != nil {
			// Rolling back removes the reserved ticket: a failed payment
			// must never leave a reservation occupying inventory.
			return err
		}

		if err := t.Confirm(); err != nil {
			return err
		}
		return s.tickets.Update(txCtx, t)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("ticket_number", t.TicketNumber).
		Int64("event_id", req.EventID).
		Int64("user_id", req.UserID).
		Str("transaction_id", pay.TransactionID).
		Msg("ticket purchase confirmed")

	// Post-commit side effect. The dispatcher bounds and swallows its own
	// failures; nothing past this point may undo the committed purchase.
	firstName := req.FirstName
	if firstName == "" {
		firstName = "Customer"
	}
	s.notifier.DispatchPurchaseConfirmed(ctx, notifier.PurchaseConfirmed{
		UserID:       req.UserID,
		TicketNumber: t.TicketNumber,
		EventName:    event.Title,
		EventDate:    event.EventDate,
		Price:        t.Price,
		FirstName:    firstName,
	})

	return &PurchaseResult{Ticket: t, Payment: pay, Event: event}, nil
}

func validatePurchase(req PurchaseRequest) error {
	if req.UserID <= 0 {
		return domainErrors.ErrUnauthorized
	}
	if req.EventID <= 0 {
		return domainErrors.NewValidationError("event_id", "must be positive")
	}
	if req.PaymentMethod == "" {
		return domainErrors.NewValidationError("payment_method", "cannot be empty")
	}
	return nil
}
