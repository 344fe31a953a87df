package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront-backend/models"
	"storefront-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stripe/stripe-go/v80"
	"go.uber.org/zap"
)

type MockCheckoutService struct{ mock.Mock }

func (m *MockCheckoutService) CreateSession(ctx context.Context, cart []services.CartEntry, email string, recurring bool) (string, error) {
	args := m.Called(ctx, cart, email, recurring)
	return args.String(0), args.Error(1)
}
func (m *MockCheckoutService) CompleteSession(ctx context.Context, sessionID, status string) (*models.CheckoutEvent, error) {
	args := m.Called(ctx, sessionID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CheckoutEvent), args.Error(1)
}

type MockWebhookParser struct{ mock.Mock }

func (m *MockWebhookParser) ParseWebhook(r *http.Request) (stripe.Event, error) {
	args := m.Called(r)
	return args.Get(0).(stripe.Event), args.Error(1)
}

type MockEventPublisher struct{ mock.Mock }

func (m *MockEventPublisher) SendCheckoutEvent(ctx context.Context, event models.CheckoutEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func newCheckoutRouter(svc *MockCheckoutService, parser *MockWebhookParser, events *MockEventPublisher) *gin.Engine {
	gin.SetMode(gin.TestMode)
	controller := NewCheckoutController(svc, parser, events, zap.NewNop())
	router := gin.New()
	router.POST("/api/create-checkout-session", controller.CreateCheckoutSession)
	router.POST("/api/stripe/webhook", controller.StripeWebhook)
	return router
}

func TestCreateCheckoutSessionRoute(t *testing.T) {
	t.Run("returns the session id", func(t *testing.T) {
		svc := new(MockCheckoutService)
		router := newCheckoutRouter(svc, new(MockWebhookParser), new(MockEventPublisher))

		svc.On("CreateSession", mock.Anything, mock.MatchedBy(func(cart []services.CartEntry) bool {
			return len(cart) == 1 && cart[0].Name == "Tea" && cart[0].Quantity == 2
		}), "buyer@example.com", false).Return("cs_1", nil).Once()

		payload := `{"email":"buyer@example.com","products":[{"name":"Tea","prices":[{"unit_amount":250}],"qnty":2}]}`
		req, _ := http.NewRequest(http.MethodPost, "/api/create-checkout-session", bytes.NewBufferString(payload))
		req.Header.Set("Content-Type", "application/json")
		recorder := httptest.NewRecorder()

		router.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.JSONEq(t, `{"id":"cs_1"}`, recorder.Body.String())
		svc.AssertExpectations(t)
	})

	t.Run("validation error maps to 400", func(t *testing.T) {
		svc := new(MockCheckoutService)
		router := newCheckoutRouter(svc, new(MockWebhookParser), new(MockEventPublisher))

		svc.On("CreateSession", mock.Anything, mock.Anything, "buyer@example.com", false).
			Return("", &services.ValidationError{Reason: "Invalid quantity", Entry: "Tea"}).Once()

		payload := `{"email":"buyer@example.com","products":[{"name":"Tea","prices":[{"unit_amount":250}],"qnty":0}]}`
		req, _ := http.NewRequest(http.MethodPost, "/api/create-checkout-session", bytes.NewBufferString(payload))
		req.Header.Set("Content-Type", "application/json")
		recorder := httptest.NewRecorder()

		router.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "Invalid quantity: Tea")
	})

	t.Run("upstream error maps to 500", func(t *testing.T) {
		svc := new(MockCheckoutService)
		router := newCheckoutRouter(svc, new(MockWebhookParser), new(MockEventPublisher))

		svc.On("CreateSession", mock.Anything, mock.Anything, "buyer@example.com", false).
			Return("", &services.UpstreamError{Op: "stripe: create checkout session", Err: errors.New("boom")}).Once()

		payload := `{"email":"buyer@example.com","products":[{"name":"Tea","unit_amount":250,"qnty":1}]}`
		req, _ := http.NewRequest(http.MethodPost, "/api/create-checkout-session", bytes.NewBufferString(payload))
		req.Header.Set("Content-Type", "application/json")
		recorder := httptest.NewRecorder()

		router.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	})

	t.Run("missing email never reaches the service", func(t *testing.T) {
		svc := new(MockCheckoutService)
		router := newCheckoutRouter(svc, new(MockWebhookParser), new(MockEventPublisher))

		payload := `{"products":[{"name":"Tea","unit_amount":250,"qnty":1}]}`
		req, _ := http.NewRequest(http.MethodPost, "/api/create-checkout-session", bytes.NewBufferString(payload))
		req.Header.Set("Content-Type", "application/json")
		recorder := httptest.NewRecorder()

		router.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		svc.AssertNotCalled(t, "CreateSession")
	})
}

func TestStripeWebhookRoute(t *testing.T) {
	t.Run("completed session publishes an event", func(t *testing.T) {
		svc := new(MockCheckoutService)
		parser := new(MockWebhookParser)
		events := new(MockEventPublisher)
		router := newCheckoutRouter(svc, parser, events)

		event := stripe.Event{
			Type: "checkout.session.completed",
			Data: &stripe.EventData{Raw: json.RawMessage(`{"id":"cs_1"}`)},
		}
		parser.On("ParseWebhook", mock.Anything).Return(event, nil).Once()

		checkoutEvent := &models.CheckoutEvent{Type: "checkout_completed", SessionID: "cs_1"}
		svc.On("CompleteSession", mock.Anything, "cs_1", models.OrderStatusPaid).
			Return(checkoutEvent, nil).Once()
		events.On("SendCheckoutEvent", mock.Anything, *checkoutEvent).Return(nil).Once()

		req, _ := http.NewRequest(http.MethodPost, "/api/stripe/webhook", bytes.NewBufferString(`{}`))
		recorder := httptest.NewRecorder()

		router.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusOK, recorder.Code)
		svc.AssertExpectations(t)
		events.AssertExpectations(t)
	})

	t.Run("expired session", func(t *testing.T) {
		svc := new(MockCheckoutService)
		parser := new(MockWebhookParser)
		events := new(MockEventPublisher)
		router := newCheckoutRouter(svc, parser, events)

		event := stripe.Event{
			Type: "checkout.session.expired",
			Data: &stripe.EventData{Raw: json.RawMessage(`{"id":"cs_2"}`)},
		}
		parser.On("ParseWebhook", mock.Anything).Return(event, nil).Once()
		svc.On("CompleteSession", mock.Anything, "cs_2", models.OrderStatusExpired).
			Return(&models.CheckoutEvent{Type: "checkout_expired", SessionID: "cs_2"}, nil).Once()
		events.On("SendCheckoutEvent", mock.Anything, mock.Anything).Return(nil).Once()

		req, _ := http.NewRequest(http.MethodPost, "/api/stripe/webhook", bytes.NewBufferString(`{}`))
		recorder := httptest.NewRecorder()

		router.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("bad signature is rejected with no side effects", func(t *testing.T) {
		svc := new(MockCheckoutService)
		parser := new(MockWebhookParser)
		events := new(MockEventPublisher)
		router := newCheckoutRouter(svc, parser, events)

		parser.On("ParseWebhook", mock.Anything).
			Return(stripe.Event{}, errors.New("signature mismatch")).Once()

		req, _ := http.NewRequest(http.MethodPost, "/api/stripe/webhook", bytes.NewBufferString(`{}`))
		recorder := httptest.NewRecorder()

		router.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		svc.AssertNotCalled(t, "CompleteSession")
		events.AssertNotCalled(t, "SendCheckoutEvent")
	})

	t.Run("unrelated event types are acked and ignored", func(t *testing.T) {
		svc := new(MockCheckoutService)
		parser := new(MockWebhookParser)
		events := new(MockEventPublisher)
		router := newCheckoutRouter(svc, parser, events)

		parser.On("ParseWebhook", mock.Anything).
			Return(stripe.Event{Type: "invoice.paid", Data: &stripe.EventData{Raw: json.RawMessage(`{}`)}}, nil).Once()

		req, _ := http.NewRequest(http.MethodPost, "/api/stripe/webhook", bytes.NewBufferString(`{}`))
		recorder := httptest.NewRecorder()

		router.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusOK, recorder.Code)
		svc.AssertNotCalled(t, "CompleteSession")
	})
}
