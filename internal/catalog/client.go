package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"

	domainErrors "github.com/seatsurge/ticketing/internal/domain/errors"
	"github.com/seatsurge/ticketing/pkg/retry"
)

// Event is the catalog collaborator's view of an event. The catalog owns
// capacity and price; the core only reads them and never caches, because
// both can change between browse and purchase.
type Event struct {
	ID         int64           `json:"id"`
	Title      string          `json:"title"`
	TotalSeats int             `json:"total_seats"`
	Price      decimal.Decimal `json:"price"`
	EventDate  string          `json:"event_date"`
}

// Client fetches event data from the catalog collaborator over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*Event]
	retryCfg   retry.Config
	logger     zerolog.Logger
}

// Options configures the catalog client.
type Options struct {
	BaseURL     string
	Timeout     time.Duration
	MaxAttempts uint
	RetryDelay  time.Duration
	Logger      zerolog.Logger
}

// NewClient creates a catalog client with a bounded per-request timeout,
// retry with backoff on transient failures, and a circuit breaker.
func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	retryCfg := retry.DefaultConfig()
	if opts.MaxAttempts > 0 {
		retryCfg.MaxAttempts = opts.MaxAttempts
	}
	if opts.RetryDelay > 0 {
		retryCfg.InitialDelay = opts.RetryDelay
	}

	breaker := gobreaker.NewCircuitBreaker[*Event](gobreaker.Settings{
		Name:        "catalog",
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.6
		},
	})

	return &Client{
		baseURL:    opts.BaseURL,
		httpClient: &http.Client{Timeout: opts.Timeout},
		breaker:    breaker,
		retryCfg:   retryCfg,
		logger:     opts.Logger,
	}
}

// GetEvent fetches the event from the catalog. Remote failures and missing
// events map to ErrEventUnavailable; a response with non-positive capacity
// or a negative price maps to ErrInvalidEventData. Either error aborts a
// purchase before any ticket row exists.
func (c *Client) GetEvent(ctx context.Context, eventID int64) (*Event, error) {
	event, err := c.breaker.Execute(func() (*Event, error) {
		return retry.DoWithResult(ctx, c.retryCfg, func() (*Event, error) {
			return c.fetch(ctx, eventID)
		})
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.logger.Warn().Int64("event_id", eventID).Msg("catalog circuit breaker open")
			return nil, domainErrors.NewDomainError("event_unavailable", "catalog circuit open", domainErrors.ErrEventUnavailable)
		}
		return nil, err
	}

	if event.TotalSeats <= 0 {
		return nil, domainErrors.NewDomainError("invalid_event_data",
			fmt.Sprintf("event %d has non-positive total_seats", eventID),
			domainErrors.ErrInvalidEventData)
	}
	if event.Price.IsNegative() {
		return nil, domainErrors.NewDomainError("invalid_event_data",
			fmt.Sprintf("event %d has negative price", eventID),
			domainErrors.ErrInvalidEventData)
	}

	return event, nil
}

func (c *Client) fetch(ctx context.Context, eventID int64) (*Event, error) {
	url := fmt.Sprintf("%s/api/events/%d", c.baseURL, eventID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("build catalog request: %w", err))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domainErrors.NewDomainError("event_unavailable", "catalog request failed", domainErrors.ErrEventUnavailable)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		// Missing events will not appear on retry.
		return nil, retry.Unrecoverable(
			domainErrors.NewDomainError("event_unavailable", fmt.Sprintf("event %d not found", eventID), domainErrors.ErrEventUnavailable))
	case resp.StatusCode != http.StatusOK:
		return nil, domainErrors.NewDomainError("event_unavailable",
			fmt.Sprintf("catalog returned status %d", resp.StatusCode), domainErrors.ErrEventUnavailable)
	}

	var event Event
	if err := json.NewDecoder(resp.Body).Decode(&event); err != nil {
		return nil, retry.Unrecoverable(
			domainErrors.NewDomainError("event_unavailable", "catalog returned malformed event", domainErrors.ErrEventUnavailable))
	}
	if event.ID == 0 {
		return nil, retry.Unrecoverable(
			domainErrors.NewDomainError("event_unavailable", "catalog returned empty event", domainErrors.ErrEventUnavailable))
	}

	return &event, nil
}
