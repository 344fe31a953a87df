package services

import (
	"context"
	"math"

	"storefront-backend/models"

	"go.uber.org/zap"
)

const (
	ProductTypeOneTime   = "one_time"
	ProductTypeRecurring = "recurring"

	// DefaultProductName is substituted when Stripe returns a product without
	// a name.
	DefaultProductName = "Unnamed Product"
)

// ProductInput is the canonical product description being reconciled.
type ProductInput struct {
	ExternalID  string
	Name        string
	Description string
	Images      []string
}

// PriceInput is one price variant attached to a product. UnitAmount is kept as
// float64 because it arrives from loosely typed payloads; Reconcile rejects
// anything that is not a non-negative whole number of minor units.
type PriceInput struct {
	UnitAmount      float64
	Currency        string
	RecurringMonths int // 0 means one-time; currently only monthly intervals exist
}

// Reconcile turns a product and its prices into the upsert ops to mirror them
// into the products table. The product type is derived across all prices:
// recurring if any price carries a recurring interval. One op is emitted per
// price; on any invalid input no ops are emitted at all.
//
// UnitAmount is divided by 100 and truncated toward zero before persisting.
// This matches how the table has always stored display amounts; the minor-unit
// value remains the canonical amount on the Stripe side.
func Reconcile(product ProductInput, prices []PriceInput) ([]models.PersistOp, error) {
	if len(prices) == 0 {
		return nil, &ValidationError{Reason: "product has no prices", Entry: product.ExternalID}
	}
	for _, p := range prices {
		if p.UnitAmount < 0 || p.UnitAmount != math.Trunc(p.UnitAmount) {
			return nil, &ValidationError{Reason: "invalid price amount", Entry: product.ExternalID}
		}
	}

	productType := ProductTypeOneTime
	for _, p := range prices {
		if p.RecurringMonths > 0 {
			productType = ProductTypeRecurring
			break
		}
	}

	name := product.Name
	if name == "" {
		name = DefaultProductName
	}

	ops := make([]models.PersistOp, 0, len(prices))
	for _, p := range prices {
		ops = append(ops, models.PersistOp{
			StripeID:    product.ExternalID,
			Name:        name,
			Type:        productType,
			UnitAmount:  int64(p.UnitAmount) / 100,
			Currency:    p.Currency,
			Images:      product.Images,
			Description: product.Description,
		})
	}
	return ops, nil
}

// ProductStore is the persistence surface the catalog service needs.
type ProductStore interface {
	Apply(ctx context.Context, ops []models.PersistOp) error
	GetByStripeID(ctx context.Context, stripeID string) (*models.Product, error)
	UpdateByStripeID(ctx context.Context, stripeID string, updates map[string]interface{}) error
}

// CatalogGateway is the slice of the Stripe API the catalog service uses.
type CatalogGateway interface {
	CreateProduct(ctx context.Context, name, description string, images []string) (*StripeProduct, error)
	UpdateProduct(ctx context.Context, id, name string, images []string) (*StripeProduct, error)
	GetProduct(ctx context.Context, id string) (*StripeProduct, error)
	ListProducts(ctx context.Context) ([]StripeProduct, error)
	CreatePrice(ctx context.Context, productID string, unitAmount int64, currency string, recurring bool) (*StripePrice, error)
	UpdatePrice(ctx context.Context, id string, unitAmount int64, currency string, recurring bool) (*StripePrice, error)
	ListPrices(ctx context.Context, productID string) ([]StripePrice, error)
}

// StripeProduct and StripePrice are thin views over the Stripe objects, enough
// for reconciliation and API responses.
type StripeProduct struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Images      []string `json:"images"`
}

type StripePrice struct {
	ID              string `json:"id"`
	UnitAmount      int64  `json:"unit_amount"` // minor units
	Currency        string `json:"currency"`
	RecurringMonths int    `json:"recurring_months,omitempty"`
}

// ProductView is what the product endpoints return: the Stripe product plus
// its prices.
type ProductView struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Images      []string      `json:"images"`
	Prices      []StripePrice `json:"prices"`
}

// CreateProductInput is a validated product-creation request. UnitAmount is in
// major units, as submitted by clients; it is scaled to minor units before the
// Stripe price is created.
type CreateProductInput struct {
	Name        string
	Description string
	UnitAmount  float64
	Currency    string
	Recurring   bool
	Images      []string
}

// UpdateProductInput carries a product update. Images may be empty, meaning
// keep whatever Stripe already has.
type UpdateProductInput struct {
	Name       string
	UnitAmount float64
	Currency   string
	Recurring  bool
	Images     []string
}

type CatalogService struct {
	stripe   CatalogGateway
	products ProductStore
	logger   *zap.Logger
}

func NewCatalogService(stripe CatalogGateway, products ProductStore, logger *zap.Logger) *CatalogService {
	return &CatalogService{stripe: stripe, products: products, logger: logger}
}

// CreateProduct creates the product and its price in Stripe, then mirrors both
// into the local table.
func (s *CatalogService) CreateProduct(ctx context.Context, in CreateProductInput) (*ProductView, error) {
	if in.UnitAmount <= 0 {
		return nil, &ValidationError{Reason: "invalid price amount", Entry: in.Name}
	}

	product, err := s.stripe.CreateProduct(ctx, in.Name, in.Description, in.Images)
	if err != nil {
		return nil, &UpstreamError{Op: "stripe: create product", Err: err}
	}

	// Rounded, not truncated: 19.99 must become 1999 cents, not 1998.
	minorUnits := int64(math.Round(in.UnitAmount * 100))
	price, err := s.stripe.CreatePrice(ctx, product.ID, minorUnits, in.Currency, in.Recurring)
	if err != nil {
		return nil, &UpstreamError{Op: "stripe: create price", Err: err}
	}

	if err := s.syncProduct(ctx, *product, []StripePrice{*price}); err != nil {
		return nil, err
	}

	return &ProductView{
		ID:          product.ID,
		Name:        product.Name,
		Description: product.Description,
		Images:      product.Images,
		Prices:      []StripePrice{*price},
	}, nil
}

// ListProducts lists everything Stripe knows and re-syncs each product's
// prices into the local table on the way through.
func (s *CatalogService) ListProducts(ctx context.Context) ([]ProductView, error) {
	products, err := s.stripe.ListProducts(ctx)
	if err != nil {
		return nil, &UpstreamError{Op: "stripe: list products", Err: err}
	}

	views := make([]ProductView, 0, len(products))
	for _, product := range products {
		prices, err := s.stripe.ListPrices(ctx, product.ID)
		if err != nil {
			return nil, &UpstreamError{Op: "stripe: list prices", Err: err}
		}
		if err := s.syncProduct(ctx, product, prices); err != nil {
			s.logger.Warn("Catalog sync failed for product",
				zap.String("stripe_id", product.ID), zap.Error(err))
		}
		views = append(views, ProductView{
			ID:          product.ID,
			Name:        product.Name,
			Description: product.Description,
			Images:      product.Images,
			Prices:      prices,
		})
	}
	return views, nil
}

// GetProduct fetches a single product and its prices from Stripe.
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*ProductView, error) {
	product, err := s.stripe.GetProduct(ctx, id)
	if err != nil {
		return nil, &UpstreamError{Op: "stripe: get product", Err: err}
	}
	prices, err := s.stripe.ListPrices(ctx, id)
	if err != nil {
		return nil, &UpstreamError{Op: "stripe: list prices", Err: err}
	}
	return &ProductView{
		ID:          product.ID,
		Name:        product.Name,
		Description: product.Description,
		Images:      product.Images,
		Prices:      prices,
	}, nil
}

// UpdateProduct writes the local row first, then pushes the change to Stripe:
// the product itself, and its first price if one exists. The write ordering is
// deliberate so the table reflects what the caller asked for even when the
// Stripe update fails.
func (s *CatalogService) UpdateProduct(ctx context.Context, id string, in UpdateProductInput) (*StripeProduct, error) {
	if in.UnitAmount <= 0 {
		return nil, &ValidationError{Reason: "invalid price amount", Entry: id}
	}

	productType := ProductTypeOneTime
	if in.Recurring {
		productType = ProductTypeRecurring
	}
	updates := map[string]interface{}{
		"name":        in.Name,
		"type":        productType,
		"unit_amount": int64(in.UnitAmount),
		"currency":    in.Currency,
	}
	if len(in.Images) > 0 {
		updates["images"] = in.Images
	}
	if err := s.products.UpdateByStripeID(ctx, id, updates); err != nil {
		return nil, &UpstreamError{Op: "db: update product", Err: err}
	}

	stored, err := s.products.GetByStripeID(ctx, id)
	if err != nil {
		return nil, &UpstreamError{Op: "db: load product", Err: err}
	}

	product, err := s.stripe.UpdateProduct(ctx, id, in.Name, in.Images)
	if err != nil {
		return nil, &UpstreamError{Op: "stripe: update product", Err: err}
	}

	prices, err := s.stripe.ListPrices(ctx, id)
	if err != nil {
		return nil, &UpstreamError{Op: "stripe: list prices", Err: err}
	}
	if len(prices) > 0 {
		if _, err := s.stripe.UpdatePrice(ctx, prices[0].ID, stored.UnitAmount*100, in.Currency, in.Recurring); err != nil {
			return nil, &UpstreamError{Op: "stripe: update price", Err: err}
		}
	}

	return product, nil
}

// syncProduct runs the reconciler and applies the resulting ops.
func (s *CatalogService) syncProduct(ctx context.Context, product StripeProduct, prices []StripePrice) error {
	priceInputs := make([]PriceInput, 0, len(prices))
	for _, p := range prices {
		priceInputs = append(priceInputs, PriceInput{
			UnitAmount:      float64(p.UnitAmount),
			Currency:        p.Currency,
			RecurringMonths: p.RecurringMonths,
		})
	}

	ops, err := Reconcile(ProductInput{
		ExternalID:  product.ID,
		Name:        product.Name,
		Description: product.Description,
		Images:      product.Images,
	}, priceInputs)
	if err != nil {
		return err
	}

	if err := s.products.Apply(ctx, ops); err != nil {
		return &UpstreamError{Op: "db: upsert products", Err: err}
	}
	return nil
}
