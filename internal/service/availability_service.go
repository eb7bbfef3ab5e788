package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/seatsurge/ticketing/internal/catalog"
	domainErrors "github.com/seatsurge/ticketing/internal/domain/errors"
	"github.com/seatsurge/ticketing/internal/domain/ticket"
)

// AvailabilityService answers how many seats remain for an event right now.
// The answer is an unlocked snapshot for clients browsing before a purchase;
// the authoritative gate lives inside the purchase transaction.
type AvailabilityService struct {
	tickets ticket.Repository
	catalog CatalogClient
	logger  zerolog.Logger
}

func NewAvailabilityService(tickets ticket.Repository, catalogClient CatalogClient, logger zerolog.Logger) *AvailabilityService {
	return &AvailabilityService{tickets: tickets, catalog: catalogClient, logger: logger}
}

// Availability holds the point-in-time seat picture for one event.
type Availability struct {
	Event          *catalog.Event
	TotalSeats     int
	SoldTickets    int
	AvailableSeats int
}

// Availability computes total vs sold seats. A negative remainder means a
// prior oversell and is surfaced as an internal error, never clamped to
// zero: clamping would hide corruption that needs alerting.
func (s *AvailabilityService) Availability(ctx context.Context, eventID int64) (*Availability, error) {
	if eventID <= 0 {
		return nil, domainErrors.NewValidationError("event_id", "must be positive")
	}

	event, err := s.catalog.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	sold, err := s.tickets.CountActiveByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("count sold tickets: %w", err)
	}

	available := event.TotalSeats - sold
	if available < 0 {
		s.logger.Error().
			Int64("event_id", eventID).
			Int("total_seats", event.TotalSeats).
			Int("sold", sold).
			Msg("ledger inconsistency: sold tickets exceed total seats")
		return nil, domainErrors.NewDomainError("ledger_inconsistency",
			fmt.Sprintf("event %d: %d sold of %d seats", eventID, sold, event.TotalSeats),
			domainErrors.ErrLedgerInconsistency)
	}

	return &Availability{
		Event:          event,
		TotalSeats:     event.TotalSeats,
		SoldTickets:    sold,
		AvailableSeats: available,
	}, nil
}
