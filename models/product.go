package models

import "time"

// Product mirrors one Stripe price of a Stripe product into the local catalog.
// StripeID is the upsert key; a product with several prices is written once per
// price, last write wins for the shared columns.
type Product struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	StripeID    string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"stripe_id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Type        string    `gorm:"type:varchar(20);not null" json:"type"` // one_time | recurring
	UnitAmount  int64     `gorm:"not null" json:"unit_amount"`           // major units, truncated from cents
	Currency    string    `gorm:"type:varchar(10);not null" json:"currency"`
	Images      []string  `gorm:"serializer:json" json:"images"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
