package ticket

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence interface for tickets.
type Repository interface {
	// Create inserts a new ticket.
	Create(ctx context.Context, t *Ticket) error
	// Update persists status and timestamp changes to an existing ticket.
	Update(ctx context.Context, t *Ticket) error
	// GetByID retrieves a ticket by its ID.
	GetByID(ctx context.Context, id uuid.UUID) (*Ticket, error)
	// GetByNumber retrieves a ticket by its ticket number.
	GetByNumber(ctx context.Context, number string) (*Ticket, error)
	// List returns tickets ordered by creation time, newest first.
	List(ctx context.Context, limit, offset int) ([]*Ticket, error)
	// ListByUser returns all tickets belonging to a user, newest first.
	ListByUser(ctx context.Context, userID int64) ([]*Ticket, error)
	// CountActiveByEvent counts tickets for the event whose status is not
	// cancelled. Inside a transaction that holds the event lock this count
	// is the authoritative allocation gate.
	CountActiveByEvent(ctx context.Context, eventID int64) (int, error)
	// LockEvent serializes the count-then-insert sequence for one event
	// against concurrent purchase attempts. The lock is scoped to the
	// surrounding transaction; different events never contend.
	LockEvent(ctx context.Context, eventID int64) error
}
