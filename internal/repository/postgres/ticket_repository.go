package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	domainErrors "github.com/seatsurge/ticketing/internal/domain/errors"
	"github.com/seatsurge/ticketing/internal/domain/ticket"
)

const ticketColumns = `id, ticket_number, event_id, user_id, status, price::text, purchase_date, created_at, updated_at`

// TicketRepository implements ticket.Repository using PostgreSQL.
type TicketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository creates a new TicketRepository.
func NewTicketRepository(pool *pgxpool.Pool) *TicketRepository {
	return &TicketRepository{pool: pool}
}

func (r *TicketRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

// scanner is satisfied by both pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// Create inserts a new ticket.
func (r *TicketRepository) Create(ctx context.Context, t *ticket.Ticket) error {
	_, err := r.db(ctx).Exec(ctx,
		`INSERT INTO tickets
		 (id, ticket_number, event_id, user_id, status, price, purchase_date, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		t.ID, t.TicketNumber, t.EventID, t.UserID, string(t.Status),
		t.Price.StringFixed(2), t.PurchaseDate, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert ticket: %w", err)
	}
	return nil
}

// Update persists status and timestamp changes.
func (r *TicketRepository) Update(ctx context.Context, t *ticket.Ticket) error {
	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE tickets SET status=$1, updated_at=$2 WHERE id=$3`,
		string(t.Status), t.UpdatedAt, t.ID,
	)
	if err != nil {
		return fmt.Errorf("update ticket: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrTicketNotFound
	}
	return nil
}

// GetByID retrieves a ticket by its ID.
func (r *TicketRepository) GetByID(ctx context.Context, id uuid.UUID) (*ticket.Ticket, error) {
	return r.scanTicket(r.db(ctx).QueryRow(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE id = $1`, id))
}

// GetByNumber retrieves a ticket by its ticket number.
func (r *TicketRepository) GetByNumber(ctx context.Context, number string) (*ticket.Ticket, error) {
	return r.scanTicket(r.db(ctx).QueryRow(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE ticket_number = $1`, number))
}

// List returns tickets ordered by creation time, newest first.
func (r *TicketRepository) List(ctx context.Context, limit, offset int) ([]*ticket.Ticket, error) {
	rows, err := r.db(ctx).Query(ctx,
		`SELECT `+ticketColumns+` FROM tickets ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()
	return r.collect(rows)
}

// ListByUser returns all tickets belonging to a user, newest first.
func (r *TicketRepository) ListByUser(ctx context.Context, userID int64) ([]*ticket.Ticket, error) {
	rows, err := r.db(ctx).Query(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE user_id = $1 ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list tickets by user: %w", err)
	}
	defer rows.Close()
	return r.collect(rows)
}

// CountActiveByEvent counts non-cancelled tickets for an event.
func (r *TicketRepository) CountActiveByEvent(ctx context.Context, eventID int64) (int, error) {
	var count int
	err := r.db(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM tickets WHERE event_id = $1 AND status <> $2`,
		eventID, string(ticket.StatusCancelled)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count tickets: %w", err)
	}
	return count, nil
}

// LockEvent takes a transaction-scoped advisory lock keyed by event id. The
// lock serializes count-then-insert for one event across concurrent purchase
// transactions and is released automatically at commit or rollback. Separate
// events use separate keys and proceed fully in parallel.
func (r *TicketRepository) LockEvent(ctx context.Context, eventID int64) error {
	if _, ok := ctx.Value(txKey).(pgx.Tx); !ok {
		return errors.New("LockEvent requires a transaction")
	}
	if _, err := r.db(ctx).Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, eventID); err != nil {
		return fmt.Errorf("acquire event lock: %w", err)
	}
	return nil
}

func (r *TicketRepository) collect(rows pgx.Rows) ([]*ticket.Ticket, error) {
	var tickets []*ticket.Ticket
	for rows.Next() {
		t, err := r.scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

func (r *TicketRepository) scanTicket(row scanner) (*ticket.Ticket, error) {
	var (
		t        ticket.Ticket
		status   string
		priceStr string
		purchase time.Time
	)
	err := row.Scan(&t.ID, &t.TicketNumber, &t.EventID, &t.UserID, &status,
		&priceStr, &purchase, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrTicketNotFound
		}
		return nil, fmt.Errorf("scan ticket: %w", err)
	}

	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return nil, fmt.Errorf("parse ticket price %q: %w", priceStr, err)
	}

	t.Status = ticket.Status(status)
	t.Price = price
	t.PurchaseDate = purchase
	return &t, nil
}
