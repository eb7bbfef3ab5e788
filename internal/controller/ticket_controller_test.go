package controller_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/seatsurge/ticketing/internal/catalog"
	"github.com/seatsurge/ticketing/internal/controller"
	domainErrors "github.com/seatsurge/ticketing/internal/domain/errors"
	"github.com/seatsurge/ticketing/internal/gateway"
	"github.com/seatsurge/ticketing/internal/service"
	"github.com/seatsurge/ticketing/internal/testutil"
)

type controllerFixture struct {
	tickets  *testutil.MockTicketRepository
	payments *testutil.MockPaymentRepository
	catalog  *testutil.MockCatalogClient
	provider *testutil.MockGatewayProvider
	notifier *testutil.MockNotifier
	router   *chi.Mux
}

func newControllerFixture() *controllerFixture {
	f := &controllerFixture{
		tickets:  testutil.NewMockTicketRepository(),
		payments: testutil.NewMockPaymentRepository(),
		catalog:  testutil.NewMockCatalogClient(),
		provider: testutil.NewMockGatewayProvider(),
		notifier: testutil.NewMockNotifier(),
	}

	tx := testutil.NewMockTransactionManager()
	recorder := service.NewPaymentRecorder(f.payments, f.provider)
	purchaseSvc := service.NewPurchaseService(f.tickets, tx, f.catalog, recorder, f.notifier, zerolog.Nop())
	availabilitySvc := service.NewAvailabilityService(f.tickets, f.catalog, zerolog.Nop())
	ticketSvc := service.NewTicketService(f.tickets, f.payments, tx, zerolog.Nop())

	h := controller.NewTicketController(purchaseSvc, availabilitySvc, ticketSvc, nil, zerolog.Nop())

	r := chi.NewRouter()
	r.Post("/api/v1/tickets/purchase", h.Purchase)
	r.Get("/api/v1/tickets/availability/{eventID}", h.Availability)
	r.Get("/api/v1/tickets", h.List)
	r.Get("/api/v1/tickets/my", h.My)
	r.Get("/api/v1/tickets/user/{userID}", h.ByUser)
	r.Get("/api/v1/tickets/number/{ticketNumber}", h.ByNumber)
	r.Get("/api/v1/tickets/{id}", h.Get)
	r.Post("/api/v1/tickets/{id}/cancel", h.Cancel)
	f.router = r
	return f
}

func (f *controllerFixture) purchase(t *testing.T, userID string, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tickets/purchase", bytes.NewBufferString(body))
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestPurchaseEndpoint_Success(t *testing.T) {
	f := newControllerFixture()
	f.catalog.AddEvent(testutil.NewTestEvent(1, 100, 49.99))

	w := f.purchase(t, "42", `{"event_id":1,"payment_method":"credit_card"}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp controller.PurchaseResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Ticket.Status != "confirmed" {
		t.Errorf("expected confirmed ticket, got %s", resp.Ticket.Status)
	}
	if resp.Payment.Status != "completed" {
		t.Errorf("expected completed payment, got %s", resp.Payment.Status)
	}
	if resp.Ticket.Price != 49.99 {
		t.Errorf("expected price 49.99, got %v", resp.Ticket.Price)
	}
	if resp.Ticket.UserID != 42 {
		t.Errorf("expected user 42, got %d", resp.Ticket.UserID)
	}
}

func TestPurchaseEndpoint_MissingUser(t *testing.T) {
	f := newControllerFixture()

	w := f.purchase(t, "", `{"event_id":1,"payment_method":"credit_card"}`)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestPurchaseEndpoint_InvalidBody(t *testing.T) {
	f := newControllerFixture()

	cases := []string{
		`{`,
		`{"payment_method":"credit_card"}`,
		`{"event_id":-1,"payment_method":"credit_card"}`,
		`{"event_id":1}`,
	}
	for _, body := range cases {
		w := f.purchase(t, "42", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %q: expected 400, got %d", body, w.Code)
		}
		var resp controller.ErrorResponse
		json.NewDecoder(w.Body).Decode(&resp)
		if resp.Code != "validation_error" {
			t.Errorf("body %q: expected code validation_error, got %s", body, resp.Code)
		}
	}
}

func TestPurchaseEndpoint_SoldOut(t *testing.T) {
	f := newControllerFixture()
	f.catalog.AddEvent(testutil.NewTestEvent(1, 1, 49.99))
	f.tickets.AddTicket(testutil.NewConfirmedTicket(1, 7, 49.99))

	w := f.purchase(t, "42", `{"event_id":1,"payment_method":"credit_card"}`)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
	var resp controller.ErrorResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Code != "sold_out" {
		t.Errorf("expected code sold_out, got %s", resp.Code)
	}
}

func TestPurchaseEndpoint_PaymentDeclined(t *testing.T) {
	f := newControllerFixture()
	f.catalog.AddEvent(testutil.NewTestEvent(1, 100, 49.99))
	f.provider.ChargeFunc = func(_ context.Context, _ gateway.ChargeRequest) (*gateway.ChargeResult, error) {
		return &gateway.ChargeResult{Declined: true, Reason: "insufficient funds"}, nil
	}

	w := f.purchase(t, "42", `{"event_id":1,"payment_method":"credit_card"}`)

	if w.Code != http.StatusPaymentRequired {
		t.Errorf("expected 402, got %d", w.Code)
	}
	var resp controller.ErrorResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Code != "payment_failed" {
		t.Errorf("expected code payment_failed, got %s", resp.Code)
	}
}

func TestPurchaseEndpoint_EventUnavailable(t *testing.T) {
	f := newControllerFixture()

	w := f.purchase(t, "42", `{"event_id":9,"payment_method":"credit_card"}`)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", w.Code)
	}
}

func TestPurchaseEndpoint_InvalidEventData(t *testing.T) {
	f := newControllerFixture()
	f.catalog.GetEventFunc = func(_ context.Context, _ int64) (*catalog.Event, error) {
		return nil, domainErrors.NewDomainError("invalid_event_data", "event has non-positive total_seats", domainErrors.ErrInvalidEventData)
	}

	w := f.purchase(t, "42", `{"event_id":1,"payment_method":"credit_card"}`)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", w.Code)
	}
	var resp controller.ErrorResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Code != "invalid_event_data" {
		t.Errorf("expected code invalid_event_data, got %s", resp.Code)
	}
}

func TestAvailabilityEndpoint(t *testing.T) {
	f := newControllerFixture()
	f.catalog.AddEvent(testutil.NewTestEvent(1, 100, 49.99))
	f.tickets.AddTicket(testutil.NewConfirmedTicket(1, 7, 49.99))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tickets/availability/1", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp controller.AvailabilityResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.TotalSeats != 100 || resp.SoldTickets != 1 || resp.AvailableSeats != 99 {
		t.Errorf("unexpected availability: %+v", resp)
	}
	if resp.EventDetails.Title != "Test Concert" {
		t.Errorf("expected event details, got %+v", resp.EventDetails)
	}
}

func TestAvailabilityEndpoint_BadEventID(t *testing.T) {
	f := newControllerFixture()

	for _, id := range []string{"abc", "0", "-1"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/tickets/availability/"+id, nil)
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("id %q: expected 400, got %d", id, w.Code)
		}
	}
}

func TestGetTicketEndpoint_InvalidUUID(t *testing.T) {
	f := newControllerFixture()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tickets/not-a-uuid", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestGetTicketEndpoint_NotFound(t *testing.T) {
	f := newControllerFixture()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tickets/"+uuid.New().String(), nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestTicketByNumberEndpoint(t *testing.T) {
	f := newControllerFixture()
	tk := testutil.NewConfirmedTicket(1, 42, 49.99)
	f.tickets.AddTicket(tk)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tickets/number/"+tk.TicketNumber, nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp controller.TicketWithPaymentResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.TicketNumber != tk.TicketNumber {
		t.Errorf("expected ticket number %s, got %s", tk.TicketNumber, resp.TicketNumber)
	}
}

func TestTicketByNumberEndpoint_NotFound(t *testing.T) {
	f := newControllerFixture()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tickets/number/TKT-20260101-DEADBEEF", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestMyTicketsEndpoint(t *testing.T) {
	f := newControllerFixture()
	f.tickets.AddTicket(testutil.NewConfirmedTicket(1, 42, 49.99))
	f.tickets.AddTicket(testutil.NewConfirmedTicket(1, 7, 49.99))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tickets/my", nil)
	req.Header.Set("X-User-ID", "42")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp []controller.TicketWithPaymentResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 1 {
		t.Fatalf("expected 1 ticket, got %d", len(resp))
	}
	if resp[0].UserID != 42 {
		t.Errorf("expected user 42, got %d", resp[0].UserID)
	}
}

func TestCancelEndpoint(t *testing.T) {
	f := newControllerFixture()
	tk := testutil.NewConfirmedTicket(1, 42, 49.99)
	f.tickets.AddTicket(tk)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/tickets/"+tk.ID.String()+"/cancel", nil)
	req.Header.Set("X-User-ID", "42")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp controller.TicketResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Status != "cancelled" {
		t.Errorf("expected cancelled, got %s", resp.Status)
	}
}

func TestCancelEndpoint_WrongOwner(t *testing.T) {
	f := newControllerFixture()
	tk := testutil.NewConfirmedTicket(1, 42, 49.99)
	f.tickets.AddTicket(tk)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/tickets/"+tk.ID.String()+"/cancel", nil)
	req.Header.Set("X-User-ID", "7")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}
