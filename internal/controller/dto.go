package controller

import (
	"time"

	"github.com/seatsurge/ticketing/internal/catalog"
	"github.com/seatsurge/ticketing/internal/domain/payment"
	"github.com/seatsurge/ticketing/internal/domain/ticket"
	"github.com/seatsurge/ticketing/internal/service"
)

// --- Request DTOs ---
// These DTOs handle HTTP/JSON concerns (float64 for money, validation tags).
// Controllers convert these to service layer DTOs before calling business logic.

// PurchaseTicketRequest holds the input for purchasing a ticket.
type PurchaseTicketRequest struct {
	EventID       int64  `json:"event_id" validate:"required,gt=0"`
	PaymentMethod string `json:"payment_method" validate:"required"`
	CardNumber    string `json:"card_number,omitempty"`
	Expiry        string `json:"expiry,omitempty"`
	CVV           string `json:"cvv,omitempty"`
}

// --- Response DTOs ---

// TicketResponse represents a ticket in API responses.
type TicketResponse struct {
	ID           string    `json:"id"`
	TicketNumber string    `json:"ticket_number"`
	EventID      int64     `json:"event_id"`
	UserID       int64     `json:"user_id"`
	Status       string    `json:"status"`
	Price        float64   `json:"price"`
	PurchaseDate time.Time `json:"purchase_date"`
	CreatedAt    time.Time `json:"created_at"`
}

// PaymentResponse represents a payment in API responses.
type PaymentResponse struct {
	TransactionID string  `json:"transaction_id"`
	Status        string  `json:"status"`
	PaymentMethod string  `json:"payment_method"`
	Amount        float64 `json:"amount"`
}

// EventResponse represents the catalog event snapshot in API responses.
type EventResponse struct {
	ID         int64   `json:"id"`
	Title      string  `json:"title"`
	TotalSeats int     `json:"total_seats"`
	Price      float64 `json:"price"`
	EventDate  string  `json:"event_date"`
}

// PurchaseResponse is the confirmed outcome of a purchase.
type PurchaseResponse struct {
	Ticket  TicketResponse  `json:"ticket"`
	Payment PaymentResponse `json:"payment"`
	Event   EventResponse   `json:"event"`
}

// AvailabilityResponse is the point-in-time seat picture for one event.
type AvailabilityResponse struct {
	EventDetails   EventResponse `json:"eventDetails"`
	TotalSeats     int           `json:"totalSeats"`
	SoldTickets    int           `json:"soldTickets"`
	AvailableSeats int           `json:"availableSeats"`
}

// TicketWithPaymentResponse pairs a ticket with its payment, if any.
type TicketWithPaymentResponse struct {
	TicketResponse
	Payment *PaymentResponse `json:"payment,omitempty"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// --- Conversion helpers ---

// FromTicket converts a domain ticket to API response.
func FromTicket(t *ticket.Ticket) TicketResponse {
	return TicketResponse{
		ID:           t.ID.String(),
		TicketNumber: t.TicketNumber,
		EventID:      t.EventID,
		UserID:       t.UserID,
		Status:       string(t.Status),
		Price:        t.Price.InexactFloat64(),
		PurchaseDate: t.PurchaseDate,
		CreatedAt:    t.CreatedAt,
	}
}

// FromPayment converts a domain payment to API response.
func FromPayment(p *payment.Payment) PaymentResponse {
	return PaymentResponse{
		TransactionID: p.TransactionID,
		Status:        string(p.Status),
		PaymentMethod: p.PaymentMethod,
		Amount:        p.Amount.InexactFloat64(),
	}
}

// FromEvent converts a catalog event to API response.
func FromEvent(e *catalog.Event) EventResponse {
	return EventResponse{
		ID:         e.ID,
		Title:      e.Title,
		TotalSeats: e.TotalSeats,
		Price:      e.Price.InexactFloat64(),
		EventDate:  e.EventDate,
	}
}

// FromPurchaseResult converts a purchase result to API response.
func FromPurchaseResult(r *service.PurchaseResult) PurchaseResponse {
	return PurchaseResponse{
		Ticket:  FromTicket(r.Ticket),
		Payment: FromPayment(r.Payment),
		Event:   FromEvent(r.Event),
	}
}

// FromAvailability converts an availability snapshot to API response.
func FromAvailability(a *service.Availability) AvailabilityResponse {
	return AvailabilityResponse{
		EventDetails:   FromEvent(a.Event),
		TotalSeats:     a.TotalSeats,
		SoldTickets:    a.SoldTickets,
		AvailableSeats: a.AvailableSeats,
	}
}

// FromTicketWithPayment converts a ticket+payment pair to API response.
func FromTicketWithPayment(tp *service.TicketWithPayment) TicketWithPaymentResponse {
	resp := TicketWithPaymentResponse{TicketResponse: FromTicket(tp.Ticket)}
	if tp.Payment != nil {
		p := FromPayment(tp.Payment)
		resp.Payment = &p
	}
	return resp
}

// FromTicketsWithPayments converts a list of ticket+payment pairs.
func FromTicketsWithPayments(tps []*service.TicketWithPayment) []TicketWithPaymentResponse {
	out := make([]TicketWithPaymentResponse, 0, len(tps))
	for _, tp := range tps {
		out = append(out, FromTicketWithPayment(tp))
	}
	return out
}
