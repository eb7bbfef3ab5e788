package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/seatsurge/ticketing/internal/domain/errors"
	"github.com/seatsurge/ticketing/internal/domain/ticket"
	"github.com/seatsurge/ticketing/internal/service"
	"github.com/seatsurge/ticketing/internal/testutil"
)

func newTicketFixture() (*testutil.MockTicketRepository, *testutil.MockPaymentRepository, *service.TicketService) {
	tickets := testutil.NewMockTicketRepository()
	payments := testutil.NewMockPaymentRepository()
	svc := service.NewTicketService(tickets, payments, testutil.NewMockTransactionManager(), zerolog.Nop())
	return tickets, payments, svc
}

func TestTicketService_Get(t *testing.T) {
	tickets, payments, svc := newTicketFixture()

	tk := testutil.NewConfirmedTicket(1, 42, 49.99)
	tickets.AddTicket(tk)
	payments.AddPayment(testutil.NewCompletedPayment(tk))

	got, err := svc.Get(context.Background(), tk.ID)
	require.NoError(t, err)

	assert.Equal(t, tk.ID, got.Ticket.ID)
	require.NotNil(t, got.Payment)
	assert.Equal(t, tk.ID, got.Payment.TicketID)
}

func TestTicketService_Get_NoPayment(t *testing.T) {
	tickets, _, svc := newTicketFixture()

	tk := testutil.NewReservedTicket(1, 42, 49.99)
	tickets.AddTicket(tk)

	got, err := svc.Get(context.Background(), tk.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Payment)
}

func TestTicketService_Get_NotFound(t *testing.T) {
	_, _, svc := newTicketFixture()

	_, err := svc.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domainErrors.ErrTicketNotFound)
}

func TestTicketService_GetByNumber(t *testing.T) {
	tickets, payments, svc := newTicketFixture()

	tk := testutil.NewConfirmedTicket(1, 42, 49.99)
	tickets.AddTicket(tk)
	payments.AddPayment(testutil.NewCompletedPayment(tk))

	got, err := svc.GetByNumber(context.Background(), tk.TicketNumber)
	require.NoError(t, err)

	assert.Equal(t, tk.ID, got.Ticket.ID)
	require.NotNil(t, got.Payment)
}

func TestTicketService_GetByNumber_NotFound(t *testing.T) {
	_, _, svc := newTicketFixture()

	_, err := svc.GetByNumber(context.Background(), "TKT-20260101-DEADBEEF")
	assert.ErrorIs(t, err, domainErrors.ErrTicketNotFound)
}

func TestTicketService_GetByNumber_Empty(t *testing.T) {
	_, _, svc := newTicketFixture()

	_, err := svc.GetByNumber(context.Background(), "")
	var validationErr *domainErrors.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestTicketService_ListByUser(t *testing.T) {
	tickets, _, svc := newTicketFixture()
	tickets.AddTicket(testutil.NewConfirmedTicket(1, 42, 49.99))
	tickets.AddTicket(testutil.NewConfirmedTicket(2, 42, 25.00))
	tickets.AddTicket(testutil.NewConfirmedTicket(1, 7, 49.99))

	got, err := svc.ListByUser(context.Background(), 42)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	for _, tp := range got {
		assert.Equal(t, int64(42), tp.Ticket.UserID)
	}
}

func TestTicketService_List_ClampsLimit(t *testing.T) {
	tickets, _, svc := newTicketFixture()
	for i := 0; i < 3; i++ {
		tickets.AddTicket(testutil.NewConfirmedTicket(1, int64(10+i), 49.99))
	}

	got, err := svc.List(context.Background(), -5, 0)
	require.NoError(t, err)
	assert.Len(t, got, 3)

	got, err = svc.List(context.Background(), 2, 0)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestTicketService_Cancel(t *testing.T) {
	tickets, _, svc := newTicketFixture()

	tk := testutil.NewConfirmedTicket(1, 42, 49.99)
	tickets.AddTicket(tk)

	cancelled, err := svc.Cancel(context.Background(), tk.ID, 42)
	require.NoError(t, err)
	assert.Equal(t, ticket.StatusCancelled, cancelled.Status)

	stored, err := tickets.GetByID(context.Background(), tk.ID)
	require.NoError(t, err)
	assert.Equal(t, ticket.StatusCancelled, stored.Status)
}

func TestTicketService_Cancel_WrongOwner(t *testing.T) {
	tickets, _, svc := newTicketFixture()

	tk := testutil.NewConfirmedTicket(1, 42, 49.99)
	tickets.AddTicket(tk)

	_, err := svc.Cancel(context.Background(), tk.ID, 7)
	assert.ErrorIs(t, err, domainErrors.ErrUnauthorized)

	stored, err := tickets.GetByID(context.Background(), tk.ID)
	require.NoError(t, err)
	assert.Equal(t, ticket.StatusConfirmed, stored.Status, "failed cancel must not change the ticket")
}

func TestTicketService_Cancel_Reserved(t *testing.T) {
	tickets, _, svc := newTicketFixture()

	// Reserved tickets only exist inside a purchase transaction; an
	// explicit cancel applies to confirmed tickets.
	tk := testutil.NewReservedTicket(1, 42, 49.99)
	tickets.AddTicket(tk)

	_, err := svc.Cancel(context.Background(), tk.ID, 42)
	assert.ErrorIs(t, err, domainErrors.ErrInvalidStateTransition)
}

func TestTicketService_Cancel_AlreadyCancelled(t *testing.T) {
	tickets, _, svc := newTicketFixture()

	tk := testutil.NewConfirmedTicket(1, 42, 49.99)
	tk.Status = ticket.StatusCancelled
	tickets.AddTicket(tk)

	_, err := svc.Cancel(context.Background(), tk.ID, 42)
	assert.ErrorIs(t, err, domainErrors.ErrInvalidStateTransition)
}

func TestTicketService_Cancel_NotFound(t *testing.T) {
	_, _, svc := newTicketFixture()

	_, err := svc.Cancel(context.Background(), uuid.New(), 42)
	assert.ErrorIs(t, err, domainErrors.ErrTicketNotFound)
}
