package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/seatsurge/ticketing/internal/domain/errors"
)

// Status represents the payment status in the state machine
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Payment represents a payment record tied 1:1 to a ticket.
type Payment struct {
	ID            uuid.UUID
	UserID        int64
	TicketID      uuid.UUID
	Amount        decimal.Decimal
	PaymentMethod string
	TransactionID string
	Status        Status
	FailureReason *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// New creates a pending payment with a freshly minted transaction id.
func New(userID int64, ticketID uuid.UUID, amount decimal.Decimal, method string) (*Payment, error) {
	if userID <= 0 {
		return nil, errors.NewValidationError("user_id", "must be positive")
	}
	if ticketID == uuid.Nil {
		return nil, errors.NewValidationError("ticket_id", "cannot be empty")
	}
	if amount.IsNegative() {
		return nil, errors.NewValidationError("amount", "cannot be negative")
	}
	if method == "" {
		return nil, errors.NewValidationError("payment_method", "cannot be empty")
	}

	now := time.Now()
	return &Payment{
		ID:            uuid.New(),
		UserID:        userID,
		TicketID:      ticketID,
		Amount:        amount,
		PaymentMethod: method,
		TransactionID: "TRX-" + uuid.New().String(),
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// CanTransitionTo checks if the payment can transition to the given status
func (p *Payment) CanTransitionTo(newStatus Status) bool {
	transitions := map[Status][]Status{
		StatusPending:   {StatusCompleted, StatusFailed},
		StatusCompleted: {}, // Terminal state, immutable
		StatusFailed:    {},
	}

	allowed, exists := transitions[p.Status]
	if !exists {
		return false
	}
	for _, s := range allowed {
		if s == newStatus {
			return true
		}
	}
	return false
}

// TransitionTo transitions the payment to a new status
func (p *Payment) TransitionTo(newStatus Status) error {
	if !p.CanTransitionTo(newStatus) {
		return errors.NewDomainError(
			"invalid_transition",
			"cannot transition from "+string(p.Status)+" to "+string(newStatus),
			errors.ErrInvalidStateTransition,
		)
	}

	p.Status = newStatus
	p.UpdatedAt = time.Now()
	return nil
}

// MarkCompleted transitions the payment to completed status
func (p *Payment) MarkCompleted() error {
	return p.TransitionTo(StatusCompleted)
}

// MarkFailed transitions the payment to failed status
func (p *Payment) MarkFailed(reason string) error {
	if err := p.TransitionTo(StatusFailed); err != nil {
		return err
	}
	p.FailureReason = &reason
	return nil
}
