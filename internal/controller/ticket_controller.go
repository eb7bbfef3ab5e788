package controller

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	domainErrors "github.com/seatsurge/ticketing/internal/domain/errors"
	"github.com/seatsurge/ticketing/internal/domain/ticket"
	"github.com/seatsurge/ticketing/internal/observability"
	"github.com/seatsurge/ticketing/internal/service"
)

// Purchaser runs the atomic purchase transaction.
type Purchaser interface {
	Purchase(ctx context.Context, req service.PurchaseRequest) (*service.PurchaseResult, error)
}

// AvailabilityReader reports remaining seats for one event.
type AvailabilityReader interface {
	Availability(ctx context.Context, eventID int64) (*service.Availability, error)
}

// TicketReader serves ticket queries and cancellation.
type TicketReader interface {
	Get(ctx context.Context, id uuid.UUID) (*service.TicketWithPayment, error)
	GetByNumber(ctx context.Context, number string) (*service.TicketWithPayment, error)
	List(ctx context.Context, limit, offset int) ([]*service.TicketWithPayment, error)
	ListByUser(ctx context.Context, userID int64) ([]*service.TicketWithPayment, error)
	Cancel(ctx context.Context, id uuid.UUID, userID int64) (*ticket.Ticket, error)
}

// TicketController handles ticket HTTP endpoints.
type TicketController struct {
	purchases    Purchaser
	availability AvailabilityReader
	tickets      TicketReader
	metrics      *observability.Metrics
	logger       zerolog.Logger
}

// NewTicketController creates a new ticket controller.
func NewTicketController(
	purchases Purchaser,
	availability AvailabilityReader,
	tickets TicketReader,
	metrics *observability.Metrics,
	logger zerolog.Logger,
) *TicketController {
	return &TicketController{
		purchases:    purchases,
		availability: availability,
		tickets:      tickets,
		metrics:      metrics,
		logger:       logger,
	}
}

// Purchase handles POST /api/v1/tickets/purchase.
func (c *TicketController) Purchase(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromRequest(r)
	if err != nil {
		writeError(w, c.logger, err)
		return
	}

	var req PurchaseTicketRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, c.logger, err)
		return
	}

	start := time.Now()
	result, err := c.purchases.Purchase(r.Context(), service.PurchaseRequest{
		UserID:        userID,
		EventID:       req.EventID,
		PaymentMethod: req.PaymentMethod,
		FirstName:     r.Header.Get("X-User-Name"),
		Card: service.CardDetails{
			Number: req.CardNumber,
			Expiry: req.Expiry,
			CVV:    req.CVV,
		},
	})
	c.observePurchase(req.EventID, time.Since(start), err)
	if err != nil {
		writeError(w, c.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, FromPurchaseResult(result))
}

func (c *TicketController) observePurchase(eventID int64, elapsed time.Duration, err error) {
	if c.metrics == nil {
		return
	}
	outcome := "confirmed"
	switch {
	case err == nil:
		c.metrics.TicketsSold.WithLabelValues(strconv.FormatInt(eventID, 10)).Inc()
	case errors.Is(err, domainErrors.ErrSoldOut):
		outcome = "sold_out"
		c.metrics.SoldOutTotal.WithLabelValues(strconv.FormatInt(eventID, 10)).Inc()
	case errors.Is(err, domainErrors.ErrPaymentFailed):
		outcome = "payment_failed"
	default:
		outcome = "error"
	}
	c.metrics.PurchasesTotal.WithLabelValues(outcome).Inc()
	c.metrics.PurchaseDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// Availability handles GET /api/v1/tickets/availability/{eventID}.
func (c *TicketController) Availability(w http.ResponseWriter, r *http.Request) {
	eventID, err := strconv.ParseInt(chi.URLParam(r, "eventID"), 10, 64)
	if err != nil || eventID <= 0 {
		writeError(w, c.logger, &domainErrors.ValidationError{Field: "eventID", Message: "must be a positive integer"})
		return
	}

	avail, err := c.availability.Availability(r.Context(), eventID)
	if err != nil {
		writeError(w, c.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, FromAvailability(avail))
}

// List handles GET /api/v1/tickets.
func (c *TicketController) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	tickets, err := c.tickets.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, c.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, FromTicketsWithPayments(tickets))
}

// Get handles GET /api/v1/tickets/{id}.
func (c *TicketController) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, c.logger, &domainErrors.ValidationError{Field: "id", Message: "must be a valid UUID"})
		return
	}

	t, err := c.tickets.Get(r.Context(), id)
	if err != nil {
		writeError(w, c.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, FromTicketWithPayment(t))
}

// ByNumber handles GET /api/v1/tickets/number/{ticketNumber}.
func (c *TicketController) ByNumber(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "ticketNumber")

	t, err := c.tickets.GetByNumber(r.Context(), number)
	if err != nil {
		writeError(w, c.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, FromTicketWithPayment(t))
}

// My handles GET /api/v1/tickets/my for the calling user.
func (c *TicketController) My(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromRequest(r)
	if err != nil {
		writeError(w, c.logger, err)
		return
	}
	c.listByUser(w, r, userID)
}

// ByUser handles GET /api/v1/tickets/user/{userID}.
func (c *TicketController) ByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || userID <= 0 {
		writeError(w, c.logger, &domainErrors.ValidationError{Field: "userID", Message: "must be a positive integer"})
		return
	}
	c.listByUser(w, r, userID)
}

func (c *TicketController) listByUser(w http.ResponseWriter, r *http.Request, userID int64) {
	tickets, err := c.tickets.ListByUser(r.Context(), userID)
	if err != nil {
		writeError(w, c.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, FromTicketsWithPayments(tickets))
}

// Cancel handles POST /api/v1/tickets/{id}/cancel.
func (c *TicketController) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromRequest(r)
	if err != nil {
		writeError(w, c.logger, err)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, c.logger, &domainErrors.ValidationError{Field: "id", Message: "must be a valid UUID"})
		return
	}

	t, err := c.tickets.Cancel(r.Context(), id, userID)
	if err != nil {
		writeError(w, c.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, FromTicket(t))
}
