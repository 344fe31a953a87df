package routes

import (
	"storefront-backend/controllers"
	"storefront-backend/middleware"
	"storefront-backend/services"

	"github.com/gin-gonic/gin"
)

type Controllers struct {
	Users     *controllers.UserController
	Products  *controllers.ProductController
	Customers *controllers.CustomerController
	Checkout  *controllers.CheckoutController
}

// Register mounts every route under /api, matching the original URL layout.
func Register(r *gin.Engine, ctrl Controllers, tokens services.TokenService, users services.UserRepository, uploadDir string) {
	r.Static("/uploads", uploadDir)

	api := r.Group("/api")
	api.Use(middleware.RateLimitMiddleware())

	// Users
	api.POST("/register", ctrl.Users.Register)
	api.POST("/login", ctrl.Users.Login)
	api.GET("/logout", ctrl.Users.Logout)
	api.GET("/user/:id", ctrl.Users.GetUserByID)

	authed := api.Group("")
	authed.Use(middleware.AuthMiddleware(tokens, users))
	authed.GET("/getuser", ctrl.Users.GetUser)
	authed.PUT("/update-user-info", ctrl.Users.UpdateUserInfo)
	authed.PUT("/update-password", ctrl.Users.UpdatePassword)
	authed.GET("/admin-all-user", middleware.RequireRole("Admin"), ctrl.Users.AdminListUsers)

	// Products
	api.POST("/product", ctrl.Products.CreateProduct)
	api.GET("/products", ctrl.Products.GetProducts)
	api.GET("/product/:id", ctrl.Products.GetProduct)
	api.PUT("/product/:id", ctrl.Products.UpdateProduct)

	// Customers
	api.POST("/customers", ctrl.Customers.CreateCustomer)
	api.GET("/customers", ctrl.Customers.ListCustomers)
	api.GET("/customer/:id", ctrl.Customers.GetCustomer)

	// Checkout
	api.POST("/create-checkout-session", ctrl.Checkout.CreateCheckoutSession)

	// Stripe webhook: signature-verified, no auth, no rate limit.
	r.POST("/api/stripe/webhook", ctrl.Checkout.StripeWebhook)
}
