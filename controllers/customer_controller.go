package controllers

import (
	"context"
	"net/http"

	"storefront-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v80"
	"go.uber.org/zap"
)

// CustomerGateway is the Stripe customer surface the customer routes need.
type CustomerGateway interface {
	CreateCustomer(ctx context.Context, email, name string) (*stripe.Customer, error)
	ListCustomers(ctx context.Context) ([]services.CustomerActivity, error)
	GetCustomer(ctx context.Context, id string) (*services.CustomerActivity, error)
}

type CreateCustomerRequest struct {
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name"`
}

type CustomerController struct {
	Stripe CustomerGateway
	Logger *zap.Logger
}

func NewCustomerController(stripe CustomerGateway, logger *zap.Logger) *CustomerController {
	return &CustomerController{Stripe: stripe, Logger: logger}
}

func (cc *CustomerController) CreateCustomer(c *gin.Context) {
	var req CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}

	customer, err := cc.Stripe.CreateCustomer(c.Request.Context(), req.Email, req.Name)
	if err != nil {
		cc.Logger.Error("Error creating customer", zap.String("email", req.Email), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Customer created successfully",
		"customer": customer,
	})
}

// ListCustomers returns every customer with their subscriptions and recent
// charges.
func (cc *CustomerController) ListCustomers(c *gin.Context) {
	customers, err := cc.Stripe.ListCustomers(c.Request.Context())
	if err != nil {
		cc.Logger.Error("Error fetching customers", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Customers, subscriptions, and transactions fetched successfully",
		"data":    customers,
	})
}

func (cc *CustomerController) GetCustomer(c *gin.Context) {
	id := c.Param("id")
	activity, err := cc.Stripe.GetCustomer(c.Request.Context(), id)
	if err != nil {
		cc.Logger.Error("Error fetching customer", zap.String("customer_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, activity)
}
