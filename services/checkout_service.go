package services

import (
	"context"
	"math"
	"time"

	"storefront-backend/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CheckoutMode selects between a one-off payment and a subscription session.
type CheckoutMode string

const (
	ModeOneTime   CheckoutMode = "payment"
	ModeRecurring CheckoutMode = "subscription"
)

// CartPrice is the nested price shape clients may send per cart entry.
type CartPrice struct {
	UnitAmount *float64 `json:"unit_amount"`
}

// CartEntry is one raw, untrusted cart selection. Numeric fields are float64
// because that is what arrives over JSON; Assemble rejects non-integral values.
type CartEntry struct {
	Name       string      `json:"name"`
	Images     []string    `json:"images"`
	UnitAmount *float64    `json:"unit_amount,omitempty"`
	Prices     []CartPrice `json:"prices,omitempty"`
	Price      *float64    `json:"price,omitempty"` // legacy major-unit display price
	Quantity   float64     `json:"qnty"`
}

// LineItem is a validated, normalized entry ready for the payment-session API.
type LineItem struct {
	Name       string   `json:"name"`
	Images     []string `json:"images"`
	UnitAmount int64    `json:"unit_amount"` // minor units
	Quantity   int64    `json:"quantity"`
	Currency   string   `json:"currency"`
}

// AssemblerConfig replaces the hardcoded currency and the two divergent route
// behaviors with explicit settings.
type AssemblerConfig struct {
	Currency string // defaults to "usd"

	// AllowDisplayPrice accepts the legacy `price` field (major units, scaled
	// ×100). Off by default: the strict shape is authoritative, and the legacy
	// one double-scales input that is already in minor units.
	AllowDisplayPrice bool
}

type CheckoutAssembler struct {
	cfg AssemblerConfig
}

func NewCheckoutAssembler(cfg AssemblerConfig) *CheckoutAssembler {
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	return &CheckoutAssembler{cfg: cfg}
}

// Assemble validates every cart entry and returns one line item per entry, in
// order. Validation is all-or-nothing: a single bad entry fails the whole cart
// and nothing is returned.
func (a *CheckoutAssembler) Assemble(cart []CartEntry, mode CheckoutMode) ([]LineItem, error) {
	if len(cart) == 0 {
		return nil, &ValidationError{Reason: "Invalid product data"}
	}

	items := make([]LineItem, 0, len(cart))
	for _, entry := range cart {
		name := entry.Name
		if name == "" {
			name = DefaultProductName
		}

		unitAmount, ok := a.unitAmount(entry)
		if !ok {
			return nil, &ValidationError{Reason: "Invalid product data", Entry: name}
		}

		if entry.Quantity <= 0 || entry.Quantity != math.Trunc(entry.Quantity) {
			return nil, &ValidationError{Reason: "Invalid quantity", Entry: name}
		}

		images := entry.Images
		if images == nil {
			images = []string{}
		}

		items = append(items, LineItem{
			Name:       name,
			Images:     images,
			UnitAmount: unitAmount,
			Quantity:   int64(entry.Quantity),
			Currency:   a.cfg.Currency,
		})
	}

	return items, nil
}

// unitAmount locates a usable minor-unit price on the entry: an explicit
// unit_amount, else the first nested price, else (when permitted) the legacy
// display price scaled to minor units.
func (a *CheckoutAssembler) unitAmount(entry CartEntry) (int64, bool) {
	raw := entry.UnitAmount
	if raw == nil && len(entry.Prices) > 0 {
		raw = entry.Prices[0].UnitAmount
	}
	if raw != nil {
		if *raw <= 0 || *raw != math.Trunc(*raw) {
			return 0, false
		}
		return int64(*raw), true
	}

	if a.cfg.AllowDisplayPrice && entry.Price != nil && *entry.Price > 0 {
		return int64(*entry.Price * 100), true
	}
	return 0, false
}

// StripeGateway is the slice of the Stripe API the checkout service uses.
type StripeGateway interface {
	FindOrCreateCustomer(ctx context.Context, email string) (string, error)
	CreateCheckoutSession(ctx context.Context, customerID string, items []LineItem, mode CheckoutMode) (*SessionInfo, error)
}

// SessionInfo is the subset of a created checkout session the service records.
type SessionInfo struct {
	ID          string
	AmountTotal int64
	Currency    string
}

// OrderStore persists checkout sessions as local order rows.
type OrderStore interface {
	Create(ctx context.Context, order *models.Order) error
	GetBySessionID(ctx context.Context, sessionID string) (*models.Order, error)
	UpdateStatusBySessionID(ctx context.Context, sessionID, status string) error
}

type CheckoutService struct {
	assembler *CheckoutAssembler
	stripe    StripeGateway
	orders    OrderStore
	logger    *zap.Logger
}

func NewCheckoutService(assembler *CheckoutAssembler, stripe StripeGateway, orders OrderStore, logger *zap.Logger) *CheckoutService {
	return &CheckoutService{assembler: assembler, stripe: stripe, orders: orders, logger: logger}
}

// CreateSession validates the cart, resolves the Stripe customer by email and
// creates the checkout session, recording a pending order row keyed by the
// session ID. Validation happens before any Stripe call.
func (s *CheckoutService) CreateSession(ctx context.Context, cart []CartEntry, email string, recurring bool) (string, error) {
	mode := ModeOneTime
	if recurring {
		mode = ModeRecurring
	}

	items, err := s.assembler.Assemble(cart, mode)
	if err != nil {
		return "", err
	}

	customerID, err := s.stripe.FindOrCreateCustomer(ctx, email)
	if err != nil {
		return "", &UpstreamError{Op: "stripe: resolve customer", Err: err}
	}

	session, err := s.stripe.CreateCheckoutSession(ctx, customerID, items, mode)
	if err != nil {
		return "", &UpstreamError{Op: "stripe: create checkout session", Err: err}
	}

	order := &models.Order{
		ID:              uuid.New(),
		Email:           email,
		StripeSessionID: session.ID,
		Mode:            string(mode),
		AmountTotal:     session.AmountTotal,
		Currency:        session.Currency,
		Status:          models.OrderStatusPending,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		// The session already exists on the Stripe side; losing the local row
		// is logged, not surfaced, so the client still gets their session.
		s.logger.Error("Failed to record order for checkout session",
			zap.String("session_id", session.ID), zap.Error(err))
	}

	return session.ID, nil
}

// CompleteSession marks the order behind a finished checkout session and
// returns the event to publish. status must be a models.OrderStatus* value.
func (s *CheckoutService) CompleteSession(ctx context.Context, sessionID, status string) (*models.CheckoutEvent, error) {
	order, err := s.orders.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, &UpstreamError{Op: "db: load order", Err: err}
	}

	if order.Status != models.OrderStatusPending {
		// Terminal already; webhook retries are expected.
		return nil, nil
	}

	if err := s.orders.UpdateStatusBySessionID(ctx, sessionID, status); err != nil {
		return nil, &UpstreamError{Op: "db: update order", Err: err}
	}

	eventType := "checkout_expired"
	if status == models.OrderStatusPaid {
		eventType = "checkout_completed"
	}
	return &models.CheckoutEvent{
		Type:      eventType,
		SessionID: sessionID,
		OrderID:   order.ID.String(),
		Email:     order.Email,
		Amount:    order.AmountTotal,
		Currency:  order.Currency,
		Timestamp: time.Now().UTC(),
	}, nil
}
