package models

import "time"

// CheckoutEvent is the message published to Kafka when a checkout session
// reaches a terminal state.
type CheckoutEvent struct {
	Type      string    `json:"type"` // "checkout_completed" or "checkout_expired"
	SessionID string    `json:"session_id"`
	OrderID   string    `json:"order_id"`
	Email     string    `json:"email,omitempty"`
	Amount    int64     `json:"amount"`   // minor units
	Currency  string    `json:"currency"` // "usd", "eur"
	Timestamp time.Time `json:"timestamp"`
}
