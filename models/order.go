package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	OrderStatusPending = "pending"
	OrderStatusPaid    = "paid"
	OrderStatusExpired = "expired"
)

// Order is one checkout session recorded locally so the webhook has a row to
// resolve the session against.
type Order struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email           string    `gorm:"type:varchar(255);index" json:"email"`
	StripeSessionID string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"stripe_session_id"`
	Mode            string    `gorm:"type:varchar(20);not null" json:"mode"` // payment | subscription
	AmountTotal     int64     `gorm:"not null" json:"amount_total"`          // minor units
	Currency        string    `gorm:"type:varchar(10);not null" json:"currency"`
	Status          string    `gorm:"type:varchar(20);not null" json:"status"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
