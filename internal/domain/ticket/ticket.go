package ticket

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/seatsurge/ticketing/internal/domain/errors"
)

// Status represents the ticket status in the state machine
type Status string

const (
	StatusReserved  Status = "reserved"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// Ticket represents a single seat allocation for one event and one purchaser.
type Ticket struct {
	ID           uuid.UUID
	TicketNumber string
	EventID      int64
	UserID       int64
	Status       Status
	Price        decimal.Decimal
	PurchaseDate time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewReservation creates a ticket in the reserved state with the event price
// snapshotted. Reserved is the only valid entry state: a ticket must pass
// through the reservation step because that is where the seat is claimed.
func NewReservation(eventID, userID int64, price decimal.Decimal) (*Ticket, error) {
	if eventID <= 0 {
		return nil, errors.NewValidationError("event_id", "must be positive")
	}
	if userID <= 0 {
		return nil, errors.NewValidationError("user_id", "must be positive")
	}
	if price.IsNegative() {
		return nil, errors.NewValidationError("price", "cannot be negative")
	}

	now := time.Now()
	return &Ticket{
		ID:           uuid.New(),
		TicketNumber: NewTicketNumber(),
		EventID:      eventID,
		UserID:       userID,
		Status:       StatusReserved,
		Price:        price,
		PurchaseDate: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// NewTicketNumber mints a human-displayable ticket number. The random suffix
// comes from crypto/rand so collisions are negligible even across instances.
func NewTicketNumber() string {
	buf := make([]byte, 4)
	rand.Read(buf)
	return "TKT-" + time.Now().UTC().Format("20060102") + "-" + hex.EncodeToString(buf)
}

// CanTransitionTo checks if the ticket can transition to the given status
func (t *Ticket) CanTransitionTo(newStatus Status) bool {
	transitions := map[Status][]Status{
		StatusReserved:  {StatusConfirmed},
		StatusConfirmed: {StatusCancelled},
		StatusCancelled: {}, // Terminal state
	}

	allowed, exists := transitions[t.Status]
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

// TransitionTo transitions the ticket to a new status
func (t *Ticket) TransitionTo(newStatus Status) error {
	if !t.CanTransitionTo(newStatus) {
		return errors.NewDomainError(
			"invalid_transition",
			"cannot transition from "+string(t.Status)+" to "+string(newStatus),
			errors.ErrInvalidStateTransition,
		)
	}

	t.Status = newStatus
	t.UpdatedAt = time.Now()
	return nil
}

// Confirm transitions the ticket to confirmed status
func (t *Ticket) Confirm() error {
	return t.TransitionTo(StatusConfirmed)
}

// Cancel transitions the ticket to cancelled status
func (t *Ticket) Cancel() error {
	return t.TransitionTo(StatusCancelled)
}

// Active reports whether the ticket occupies a seat. Cancelled tickets
// release their seat; everything else counts against the event capacity.
func (t *Ticket) Active() bool {
	return t.Status != StatusCancelled
}
