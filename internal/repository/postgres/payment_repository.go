package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	domainErrors "github.com/seatsurge/ticketing/internal/domain/errors"
	"github.com/seatsurge/ticketing/internal/domain/payment"
)

const paymentColumns = `id, user_id, ticket_id, amount::text, payment_method, transaction_id, status, failure_reason, created_at, updated_at`

// PaymentRepository implements payment.Repository using PostgreSQL.
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository creates a new PaymentRepository.
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

func (r *PaymentRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

// Create inserts a new payment.
func (r *PaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	_, err := r.db(ctx).Exec(ctx,
		`INSERT INTO payments
		 (id, user_id, ticket_id, amount, payment_method, transaction_id, status, failure_reason, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		p.ID, p.UserID, p.TicketID, p.Amount.StringFixed(2), p.PaymentMethod,
		p.TransactionID, string(p.Status), p.FailureReason, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domainErrors.NewDomainError("duplicate_payment",
				"payment already exists for ticket "+p.TicketID.String(),
				domainErrors.ErrInvalidInput)
		}
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// GetByTicketID retrieves the payment for a ticket, or nil if none exists.
func (r *PaymentRepository) GetByTicketID(ctx context.Context, ticketID uuid.UUID) (*payment.Payment, error) {
	p, err := r.scanPayment(r.db(ctx).QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE ticket_id = $1`, ticketID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// GetByTicketIDs retrieves payments for a set of tickets keyed by ticket id.
func (r *PaymentRepository) GetByTicketIDs(ctx context.Context, ticketIDs []uuid.UUID) (map[uuid.UUID]*payment.Payment, error) {
	result := make(map[uuid.UUID]*payment.Payment, len(ticketIDs))
	if len(ticketIDs) == 0 {
		return result, nil
	}

	rows, err := r.db(ctx).Query(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE ticket_id = ANY($1)`, ticketIDs)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := r.scanPayment(rows)
		if err != nil {
			return nil, err
		}
		result[p.TicketID] = p
	}
	return result, rows.Err()
}

func (r *PaymentRepository) scanPayment(row scanner) (*payment.Payment, error) {
	var (
		p         payment.Payment
		amountStr string
		status    string
	)
	err := row.Scan(&p.ID, &p.UserID, &p.TicketID, &amountStr, &p.PaymentMethod,
		&p.TransactionID, &status, &p.FailureReason, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pgx.ErrNoRows
		}
		return nil, fmt.Errorf("scan payment: %w", err)
	}

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("parse payment amount %q: %w", amountStr, err)
	}

	p.Amount = amount
	p.Status = payment.Status(status)
	return &p, nil
}
