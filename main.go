package main

import (
	"log"
	"os"
	"strings"

	"storefront-backend/config"
	"storefront-backend/controllers"
	"storefront-backend/database"
	"storefront-backend/kafka"
	"storefront-backend/middleware"
	"storefront-backend/models"
	"storefront-backend/repository"
	"storefront-backend/routes"
	"storefront-backend/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("[Storefront] Failed to load config:", err)
	}

	var logger *zap.Logger
	if cfg.Environment == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatal("[Storefront] Failed to initialize logger:", err)
	}
	defer logger.Sync()

	if err := database.Connect(cfg); err != nil {
		log.Fatal("[Storefront] Failed to connect to DB:", err)
	}
	if err := database.DB.AutoMigrate(&models.User{}, &models.Product{}, &models.Order{}); err != nil {
		log.Fatal("[Storefront] Failed to migrate models:", err)
	}

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		log.Fatal("[Storefront] Failed to create upload directory:", err)
	}

	redisClient := database.NewRedisClient(cfg.RedisAddr)

	userRepo := repository.NewUserRepository(database.DB)
	productRepo := repository.NewProductRepository(database.DB)
	orderRepo := repository.NewOrderRepository(database.DB)

	stripeSvc := services.NewStripeService(
		cfg.StripeSecretKey, cfg.StripeWebhookKey, cfg.Currency, cfg.SuccessURL, cfg.CancelURL)
	tokenSvc := services.NewJWTService(cfg.JWTSecret)
	authSvc := services.NewAuthService(userRepo, tokenSvc)
	catalogSvc := services.NewCatalogService(stripeSvc, productRepo, logger)
	assembler := services.NewCheckoutAssembler(services.AssemblerConfig{Currency: cfg.Currency})
	checkoutSvc := services.NewCheckoutService(assembler, stripeSvc, orderRepo, logger)

	producer := kafka.NewCheckoutEventProducer(
		strings.Split(cfg.KafkaBrokers, ","), cfg.KafkaTopic, logger)
	defer producer.Close()

	cache := controllers.NewCacheManager(redisClient, logger)

	ctrl := routes.Controllers{
		Users:     controllers.NewUserController(authSvc, cfg.UploadDir, logger),
		Products:  controllers.NewProductController(catalogSvc, cache, cfg.UploadDir, logger),
		Customers: controllers.NewCustomerController(stripeSvc, logger),
		Checkout:  controllers.NewCheckoutController(checkoutSvc, stripeSvc, producer, logger),
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(cfg.FrontendOrigin))

	routes.Register(r, ctrl, tokenSvc, userRepo, cfg.UploadDir)

	logger.Info("Storefront backend running", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("[Storefront] Server failed:", err)
	}
}
