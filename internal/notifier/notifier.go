package notifier

import "github.com/shopspring/decimal"

// Stream is the redis stream carrying purchase-confirmed notifications from
// the API to the delivery worker.
const Stream = "notifications:ticket_purchase"

// TypeTicketPurchase is the template type understood by the notifications
// collaborator.
const TypeTicketPurchase = "ticket_purchase"

// PurchaseConfirmed is the payload of a "purchase confirmed" notification.
type PurchaseConfirmed struct {
	UserID       int64           `json:"user_id"`
	TicketNumber string          `json:"ticketNumber"`
	EventName    string          `json:"eventName"`
	EventDate    string          `json:"eventDate"`
	Price        decimal.Decimal `json:"price"`
	FirstName    string          `json:"firstName"`
}
