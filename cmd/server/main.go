package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"honeymart/internal/config"
	"honeymart/internal/handlers"
	"honeymart/internal/middleware"
	"honeymart/internal/repositories/mongodb"
	"honeymart/internal/services"
	"honeymart/internal/utils"
	"honeymart/pkg/cache"
	"honeymart/pkg/database"
	"honeymart/pkg/logger"
	"honeymart/pkg/mailer"
	"honeymart/pkg/payment"
	"honeymart/pkg/shipping"
	"honeymart/routes"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if !utils.ValidateCurrencyCode(cfg.Payment.Currency) {
		log.Fatalf("Unsupported currency: %s", cfg.Payment.Currency)
	}

	appLogger, err := logger.NewLogger(&logger.Config{
		Level:  cfg.App.LogLevel,
		Format: cfg.App.LogFormat,
		Output: "stdout",
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	db, err := database.NewMongoDB(&database.DatabaseConfig{
		URI:            cfg.Database.URI,
		Database:       cfg.Database.Database,
		MaxPoolSize:    cfg.Database.MaxPoolSize,
		MinPoolSize:    cfg.Database.MinPoolSize,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		SocketTimeout:  cfg.Database.SocketTimeout,
	})
	if err != nil {
		appLogger.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer db.Close()

	indexCtx, cancelIndexes := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.EnsureIndexes(indexCtx); err != nil {
		cancelIndexes()
		appLogger.Fatalf("Failed to ensure indexes: %v", err)
	}
	cancelIndexes()

	redisCache, err := cache.NewRedisCache(&cache.RedisConfig{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		appLogger.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisCache.Close()

	paymentProvider := payment.NewRazorpayProvider(cfg.Payment.Razorpay.KeyID, cfg.Payment.Razorpay.KeySecret)

	shippingProvider := shipping.NewShiprocketProvider(&shipping.ShiprocketConfig{
		BaseURL:    cfg.Shipping.Shiprocket.BaseURL,
		Email:      cfg.Shipping.Shiprocket.Email,
		Password:   cfg.Shipping.Shiprocket.Password,
		TokenTTL:   cfg.Shipping.Shiprocket.TokenTTL,
		Timeout:    cfg.Shipping.Shiprocket.RequestTimeout,
		MaxRetries: cfg.Shipping.Shiprocket.MaxRetries,
	})

	var mail mailer.Mailer = mailer.NopMailer{}
	if cfg.SMTP.Enabled {
		mail = mailer.NewSMTPMailer(&mailer.SMTPConfig{
			Host:      cfg.SMTP.Host,
			Port:      cfg.SMTP.Port,
			Username:  cfg.SMTP.Username,
			Password:  cfg.SMTP.Password,
			FromEmail: cfg.SMTP.FromEmail,
			FromName:  cfg.SMTP.FromName,
		})
	}

	// Repositories
	cartRepo := mongodb.NewCartRepository(db.Database)
	couponRepo := mongodb.NewCouponRepository(db.Database, redisCache)
	orderRepo := mongodb.NewOrderRepository(db.Database)
	productRepo := mongodb.NewProductRepository(db.Database, redisCache)
	userRepo := mongodb.NewUserRepository(db.Database)

	// Services
	notificationService := services.NewNotificationService(mail, cfg.App.Name, appLogger)
	cartService := services.NewCartService(cartRepo, productRepo, appLogger)
	couponService := services.NewCouponService(couponRepo, cartRepo, productRepo, appLogger)
	checkoutService := services.NewCheckoutService(
		cartService, orderRepo, userRepo, paymentProvider,
		notificationService, redisCache, cfg.Payment.Currency, appLogger,
	)
	orderService := services.NewOrderService(
		orderRepo, userRepo, couponService, paymentProvider,
		notificationService, appLogger,
	)
	shippingService := services.NewShippingService(
		orderRepo, userRepo, productRepo, shippingProvider,
		cfg.Shipping.Warehouse, notificationService, appLogger,
	)

	// Background delivery reconciliation
	pollerCtx, cancelPoller := context.WithCancel(context.Background())
	poller := services.NewTrackingPoller(shippingService, cfg.Shipping.PollInterval, appLogger)
	poller.Start(pollerCtx)

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RequestIDMiddleware())

	v1 := router.Group("/api/v1")
	routes.Setup(v1, &routes.Handlers{
		Cart:     handlers.NewCartHandler(cartService),
		Coupon:   handlers.NewCouponHandler(couponService),
		Checkout: handlers.NewCheckoutHandler(checkoutService),
		Order:    handlers.NewOrderHandler(orderService),
		Shipping: handlers.NewShippingHandler(shippingService, appLogger),
	}, cfg.Security.JWTSecret)

	router.GET("/health", func(c *gin.Context) {
		status := "healthy"
		code := http.StatusOK
		if err := db.Ping(); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":  status,
			"version": cfg.App.Version,
		})
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: router,
	}

	go func() {
		appLogger.WithField("port", cfg.App.Port).Info("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("shutting down")

	cancelPoller()
	poller.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Errorf("Forced shutdown: %v", err)
	}
}
