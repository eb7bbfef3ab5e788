package testutil

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/seatsurge/ticketing/internal/catalog"
	"github.com/seatsurge/ticketing/internal/domain/payment"
	"github.com/seatsurge/ticketing/internal/domain/ticket"
)

func NewTestEvent(id int64, totalSeats int, price float64) *catalog.Event {
	return &catalog.Event{
		ID:         id,
		Title:      "Test Concert",
		TotalSeats: totalSeats,
		Price:      decimal.NewFromFloat(price),
		EventDate:  "2026-11-20",
	}
}

func NewReservedTicket(eventID, userID int64, price float64) *ticket.Ticket {
	now := time.Now()
	return &ticket.Ticket{
		ID:           uuid.New(),
		TicketNumber: ticket.NewTicketNumber(),
		EventID:      eventID,
		UserID:       userID,
		Status:       ticket.StatusReserved,
		Price:        decimal.NewFromFloat(price),
		PurchaseDate: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func NewConfirmedTicket(eventID, userID int64, price float64) *ticket.Ticket {
	t := NewReservedTicket(eventID, userID, price)
	t.Status = ticket.StatusConfirmed
	return t
}

func NewCompletedPayment(t *ticket.Ticket) *payment.Payment {
	now := time.Now()
	return &payment.Payment{
		ID:            uuid.New(),
		UserID:        t.UserID,
		TicketID:      t.ID,
		Amount:        t.Price,
		PaymentMethod: "credit_card",
		TransactionID: "TRX-" + uuid.New().String(),
		Status:        payment.StatusCompleted,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
