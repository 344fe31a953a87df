package services

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/charge"
	"github.com/stripe/stripe-go/v80/checkout/session"
	"github.com/stripe/stripe-go/v80/customer"
	"github.com/stripe/stripe-go/v80/price"
	"github.com/stripe/stripe-go/v80/product"
	"github.com/stripe/stripe-go/v80/subscription"
	"github.com/stripe/stripe-go/v80/webhook"
)

// StripeService wraps every Stripe call the backend makes. It implements
// CatalogGateway and StripeGateway.
type StripeService struct {
	SecretKey  string
	WebhookKey string
	Currency   string
	SuccessURL string
	CancelURL  string
}

func NewStripeService(secretKey, webhookKey, currency, successURL, cancelURL string) *StripeService {
	stripe.Key = secretKey
	return &StripeService{
		SecretKey:  secretKey,
		WebhookKey: webhookKey,
		Currency:   currency,
		SuccessURL: successURL,
		CancelURL:  cancelURL,
	}
}

// --- Products & prices ---

func (s *StripeService) CreateProduct(ctx context.Context, name, description string, images []string) (*StripeProduct, error) {
	params := &stripe.ProductParams{
		Name: stripe.String(name),
	}
	if description != "" {
		params.Description = stripe.String(description)
	}
	if len(images) > 0 {
		params.Images = stripe.StringSlice(images)
	}
	params.Context = ctx

	p, err := product.New(params)
	if err != nil {
		return nil, err
	}
	return productView(p), nil
}

func (s *StripeService) UpdateProduct(ctx context.Context, id, name string, images []string) (*StripeProduct, error) {
	params := &stripe.ProductParams{
		Name: stripe.String(name),
	}
	if len(images) > 0 {
		params.Images = stripe.StringSlice(images)
	}
	params.Context = ctx

	p, err := product.Update(id, params)
	if err != nil {
		return nil, err
	}
	return productView(p), nil
}

func (s *StripeService) GetProduct(ctx context.Context, id string) (*StripeProduct, error) {
	params := &stripe.ProductParams{}
	params.Context = ctx
	p, err := product.Get(id, params)
	if err != nil {
		return nil, err
	}
	return productView(p), nil
}

func (s *StripeService) ListProducts(ctx context.Context) ([]StripeProduct, error) {
	params := &stripe.ProductListParams{}
	params.Context = ctx

	var out []StripeProduct
	iter := product.List(params)
	for iter.Next() {
		out = append(out, *productView(iter.Product()))
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *StripeService) CreatePrice(ctx context.Context, productID string, unitAmount int64, currency string, recurring bool) (*StripePrice, error) {
	params := &stripe.PriceParams{
		Product:    stripe.String(productID),
		UnitAmount: stripe.Int64(unitAmount),
		Currency:   stripe.String(currency),
	}
	if recurring {
		params.Recurring = &stripe.PriceRecurringParams{
			Interval: stripe.String(string(stripe.PriceRecurringIntervalMonth)),
		}
	}
	params.Context = ctx

	p, err := price.New(params)
	if err != nil {
		return nil, err
	}
	return priceView(p), nil
}

func (s *StripeService) UpdatePrice(ctx context.Context, id string, unitAmount int64, currency string, recurring bool) (*StripePrice, error) {
	params := &stripe.PriceParams{
		UnitAmount: stripe.Int64(unitAmount),
		Currency:   stripe.String(currency),
	}
	if recurring {
		params.Recurring = &stripe.PriceRecurringParams{
			Interval: stripe.String(string(stripe.PriceRecurringIntervalMonth)),
		}
	}
	params.Context = ctx

	p, err := price.Update(id, params)
	if err != nil {
		return nil, err
	}
	return priceView(p), nil
}

func (s *StripeService) ListPrices(ctx context.Context, productID string) ([]StripePrice, error) {
	params := &stripe.PriceListParams{
		Product: stripe.String(productID),
	}
	params.Context = ctx

	var out []StripePrice
	iter := price.List(params)
	for iter.Next() {
		out = append(out, *priceView(iter.Price()))
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func productView(p *stripe.Product) *StripeProduct {
	return &StripeProduct{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Images:      p.Images,
	}
}

func priceView(p *stripe.Price) *StripePrice {
	view := &StripePrice{
		ID:         p.ID,
		UnitAmount: p.UnitAmount,
		Currency:   string(p.Currency),
	}
	if p.Recurring != nil {
		// Only monthly intervals are created by this backend.
		view.RecurringMonths = 1
	}
	return view
}

// --- Customers ---

// CustomerActivity is a customer together with their subscriptions and the
// most recent charges.
type CustomerActivity struct {
	Customer      *stripe.Customer       `json:"customer"`
	Subscriptions []*stripe.Subscription `json:"subscriptions"`
	Charges       []*stripe.Charge       `json:"charges"`
}

func (s *StripeService) CreateCustomer(ctx context.Context, email, name string) (*stripe.Customer, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
	}
	if name != "" {
		params.Name = stripe.String(name)
	}
	params.Context = ctx
	return customer.New(params)
}

// FindOrCreateCustomer resolves a customer by email, creating one when no
// match exists. The first match wins, as in the original checkout flow.
func (s *StripeService) FindOrCreateCustomer(ctx context.Context, email string) (string, error) {
	listParams := &stripe.CustomerListParams{
		Email: stripe.String(email),
	}
	listParams.Context = ctx
	listParams.Limit = stripe.Int64(1)

	iter := customer.List(listParams)
	if iter.Next() {
		return iter.Customer().ID, nil
	}
	if err := iter.Err(); err != nil {
		return "", err
	}

	c, err := s.CreateCustomer(ctx, email, "")
	if err != nil {
		return "", err
	}
	return c.ID, nil
}

func (s *StripeService) ListCustomers(ctx context.Context) ([]CustomerActivity, error) {
	params := &stripe.CustomerListParams{}
	params.Context = ctx
	params.Limit = stripe.Int64(100)

	var out []CustomerActivity
	iter := customer.List(params)
	for iter.Next() {
		activity, err := s.customerActivity(ctx, iter.Customer())
		if err != nil {
			return nil, err
		}
		out = append(out, *activity)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *StripeService) GetCustomer(ctx context.Context, id string) (*CustomerActivity, error) {
	params := &stripe.CustomerParams{}
	params.Context = ctx
	c, err := customer.Get(id, params)
	if err != nil {
		return nil, err
	}
	return s.customerActivity(ctx, c)
}

func (s *StripeService) customerActivity(ctx context.Context, c *stripe.Customer) (*CustomerActivity, error) {
	subParams := &stripe.SubscriptionListParams{
		Customer: stripe.String(c.ID),
		Status:   stripe.String("all"),
	}
	subParams.Context = ctx

	var subs []*stripe.Subscription
	subIter := subscription.List(subParams)
	for subIter.Next() {
		subs = append(subs, subIter.Subscription())
	}
	if err := subIter.Err(); err != nil {
		return nil, err
	}

	chargeParams := &stripe.ChargeListParams{
		Customer: stripe.String(c.ID),
	}
	chargeParams.Context = ctx
	chargeParams.Limit = stripe.Int64(10)

	var charges []*stripe.Charge
	chargeIter := charge.List(chargeParams)
	for chargeIter.Next() {
		charges = append(charges, chargeIter.Charge())
	}
	if err := chargeIter.Err(); err != nil {
		return nil, err
	}

	return &CustomerActivity{Customer: c, Subscriptions: subs, Charges: charges}, nil
}

// --- Checkout sessions ---

func (s *StripeService) CreateCheckoutSession(ctx context.Context, customerID string, items []LineItem, mode CheckoutMode) (*SessionInfo, error) {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(items))
	for _, item := range items {
		priceData := &stripe.CheckoutSessionLineItemPriceDataParams{
			Currency:   stripe.String(item.Currency),
			UnitAmount: stripe.Int64(item.UnitAmount),
			ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
				Name: stripe.String(item.Name),
			},
		}
		if len(item.Images) > 0 {
			priceData.ProductData.Images = stripe.StringSlice(item.Images)
		}
		if mode == ModeRecurring {
			priceData.Recurring = &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
				Interval: stripe.String("month"),
			}
		}
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: priceData,
			Quantity:  stripe.Int64(item.Quantity),
		})
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Customer:           stripe.String(customerID),
		LineItems:          lineItems,
		Mode:               stripe.String(string(mode)),
		SuccessURL:         stripe.String(s.SuccessURL),
		CancelURL:          stripe.String(s.CancelURL),
	}
	params.Context = ctx

	sess, err := session.New(params)
	if err != nil {
		return nil, err
	}
	return &SessionInfo{
		ID:          sess.ID,
		AmountTotal: sess.AmountTotal,
		Currency:    string(sess.Currency),
	}, nil
}

// ParseWebhook verifies the Stripe signature and returns the event.
func (s *StripeService) ParseWebhook(r *http.Request) (stripe.Event, error) {
	var event stripe.Event
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		return event, err
	}
	r.Body = io.NopCloser(bytes.NewBuffer(payload))
	sigHeader := r.Header.Get("Stripe-Signature")
	return webhook.ConstructEvent(payload, sigHeader, s.WebhookKey)
}
