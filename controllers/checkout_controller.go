package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"storefront-backend/models"
	"storefront-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v80"
	"go.uber.org/zap"
)

// CheckoutServiceAPI is the checkout surface the routes need.
type CheckoutServiceAPI interface {
	CreateSession(ctx context.Context, cart []services.CartEntry, email string, recurring bool) (string, error)
	CompleteSession(ctx context.Context, sessionID, status string) (*models.CheckoutEvent, error)
}

// WebhookParser verifies and decodes Stripe webhook requests.
type WebhookParser interface {
	ParseWebhook(r *http.Request) (stripe.Event, error)
}

// EventPublisher publishes checkout events downstream.
type EventPublisher interface {
	SendCheckoutEvent(ctx context.Context, event models.CheckoutEvent) error
}

type CreateCheckoutSessionRequest struct {
	Products  []services.CartEntry `json:"products"`
	Email     string               `json:"email" binding:"required,email"`
	Recurring bool                 `json:"recurring"`
}

type CheckoutController struct {
	Checkout CheckoutServiceAPI
	Stripe   WebhookParser
	Events   EventPublisher
	Logger   *zap.Logger
}

func NewCheckoutController(checkout CheckoutServiceAPI, stripe WebhookParser, events EventPublisher, logger *zap.Logger) *CheckoutController {
	return &CheckoutController{Checkout: checkout, Stripe: stripe, Events: events, Logger: logger}
}

// CreateCheckoutSession validates the cart and creates a Stripe checkout
// session, responding with its ID.
func (cc *CheckoutController) CreateCheckoutSession(c *gin.Context) {
	var req CreateCheckoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}

	sessionID, err := cc.Checkout.CreateSession(c.Request.Context(), req.Products, req.Email, req.Recurring)
	if err != nil {
		var vErr *services.ValidationError
		if errors.As(err, &vErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Error()})
			return
		}
		cc.Logger.Error("Error creating checkout session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": sessionID})
}

// StripeWebhook handles checkout session lifecycle events from Stripe.
func (cc *CheckoutController) StripeWebhook(c *gin.Context) {
	event, err := cc.Stripe.ParseWebhook(c.Request)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid webhook"})
		return
	}

	switch event.Type {
	case "checkout.session.completed":
		cc.handleSessionFinished(c, event, models.OrderStatusPaid)
	case "checkout.session.expired":
		cc.handleSessionFinished(c, event, models.OrderStatusExpired)
	}

	c.JSON(http.StatusOK, gin.H{"status": "received"})
}

func (cc *CheckoutController) handleSessionFinished(c *gin.Context, event stripe.Event, status string) {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		cc.Logger.Warn("Malformed checkout session payload", zap.Error(err))
		return
	}

	checkoutEvent, err := cc.Checkout.CompleteSession(c.Request.Context(), sess.ID, status)
	if err != nil {
		cc.Logger.Error("Failed to finalize checkout session",
			zap.String("session_id", sess.ID), zap.Error(err))
		return
	}
	if checkoutEvent == nil {
		// Already terminal; webhook retry.
		return
	}

	if err := cc.Events.SendCheckoutEvent(c.Request.Context(), *checkoutEvent); err != nil {
		// The order row is already updated; the event loss is logged by the
		// producer and the webhook still acks.
		return
	}
}
