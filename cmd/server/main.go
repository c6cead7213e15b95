package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rzv1310/seo-doctor-sub000/internal/config"
	"github.com/rzv1310/seo-doctor-sub000/internal/domain/services"
	"github.com/rzv1310/seo-doctor-sub000/internal/infrastructure/cache"
	"github.com/rzv1310/seo-doctor-sub000/internal/infrastructure/database"
	"github.com/rzv1310/seo-doctor-sub000/internal/infrastructure/events"
	"github.com/rzv1310/seo-doctor-sub000/internal/infrastructure/payments"
	"github.com/rzv1310/seo-doctor-sub000/internal/interfaces/http/handlers"
	"github.com/rzv1310/seo-doctor-sub000/internal/interfaces/http/middleware"
	"github.com/rzv1310/seo-doctor-sub000/internal/websocket"
)

func main() {
	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgresConnection(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.RunMigrations(cfg.Server.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	provider := payments.NewStripeProvider(cfg.Billing.StripeSecret, logger)

	subscriptionRepo := database.NewSubscriptionRepository(db.DB)
	userRepo := database.NewUserRepository(db)
	serviceRepo := database.NewServiceRepository(db)

	statusEvents := events.NewRedisEvents(redisClient.Client)

	jwtService := services.NewJWTService(cfg.JWT.Secret, time.Duration(cfg.JWT.Expiration)*time.Second)
	authService := services.NewAuthService(userRepo, provider, jwtService, logger)
	couponService := services.NewCouponService(provider, redisClient, logger)
	subscriptionService := services.NewSubscriptionService(provider, subscriptionRepo, userRepo, serviceRepo, couponService, statusEvents, logger)
	checkoutService := services.NewCheckoutService(subscriptionService, userRepo, redisClient, logger)
	confirmationService := services.NewConfirmationService(provider, subscriptionService, logger)

	authHandler := handlers.NewAuthHandler(authService, logger)
	subscriptionHandler := handlers.NewSubscriptionHandler(subscriptionService, checkoutService, confirmationService, couponService, logger)
	serviceHandler := handlers.NewServiceHandler(serviceRepo)
	wsHandler := websocket.NewHandler(statusEvents, authService, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	router.Use(middleware.RequestLogger(logger))

	router.GET("/health", func(c *gin.Context) {
		status := http.StatusOK
		dbErr := db.Health()
		redisErr := redisClient.Health()
		if dbErr != nil || redisErr != nil {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"status":  healthLabel(dbErr == nil && redisErr == nil),
			"service": "seo-doctor",
			"time":    time.Now(),
		})
	})

	router.POST("/api/auth/register", authHandler.Register)
	router.POST("/api/auth/login", authHandler.Login)

	router.GET("/ws/subscriptions", gin.WrapH(wsHandler))
	router.GET("/ws/status", gin.WrapF(wsHandler.Status))

	apiGroup := router.Group("/api")
	apiGroup.Use(middleware.JWTAuthMiddleware(authService))

	apiGroup.GET("/user/profile", authHandler.Profile)
	apiGroup.PUT("/user/billing-details", authHandler.UpdateBillingDetails)

	apiGroup.GET("/services", serviceHandler.List)

	apiGroup.POST("/subscriptions/create-stripe-subscription", subscriptionHandler.CreateStripeSubscription)
	apiGroup.POST("/subscriptions/retry-payment", subscriptionHandler.RetryPayment)
	apiGroup.POST("/subscriptions/checkout", subscriptionHandler.Checkout)
	apiGroup.POST("/subscriptions/confirm-payments", subscriptionHandler.ConfirmPayments)
	apiGroup.POST("/subscriptions/verify", subscriptionHandler.Verify)
	apiGroup.GET("/subscriptions", subscriptionHandler.List)

	apiGroup.POST("/coupons/validate", subscriptionHandler.ValidateCoupon)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	logger.Info("server started", "port", cfg.Server.Port, "environment", cfg.Server.Environment)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

func healthLabel(healthy bool) string {
	if healthy {
		return "healthy"
	}
	return "degraded"
}
