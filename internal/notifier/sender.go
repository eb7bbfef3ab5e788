package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Sender delivers notifications to the notifications collaborator over HTTP.
// It is used by the worker, not by the purchase path.
type Sender struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

func NewSender(baseURL string, timeout time.Duration, logger zerolog.Logger) *Sender {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Sender{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Send posts one purchase-confirmed notification.
func (s *Sender) Send(ctx context.Context, n PurchaseConfirmed) error {
	body, err := json.Marshal(map[string]any{
		"user_id": n.UserID,
		"type":    TypeTicketPurchase,
		"data": map[string]any{
			"ticketNumber": n.TicketNumber,
			"eventName":    n.EventName,
			"eventDate":    n.EventDate,
			"price":        n.Price,
			"firstName":    n.FirstName,
		},
	})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	url := s.baseURL + "/api/notifications"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notifications service returned status %d", resp.StatusCode)
	}
	return nil
}
