package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ridelink/booking-backend/internal/config"
	"github.com/ridelink/booking-backend/internal/database"
	"github.com/ridelink/booking-backend/internal/events"
	"github.com/ridelink/booking-backend/internal/handlers"
	"github.com/ridelink/booking-backend/internal/middleware"
	"github.com/ridelink/booking-backend/internal/services"
	"github.com/ridelink/booking-backend/pkg/jwt"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to the database
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	// Repositories
	tripRepo := database.NewTripRepository(db)
	bookingRepo := database.NewBookingRepository(db)
	paymentRepo := database.NewPaymentRepository(db)
	userRepo := database.NewUserRepository(db)
	segmentRepo := database.NewSegmentRepository(db)

	// Event publisher (nil when no brokers are configured)
	publisher := events.NewPublisher(cfg.Events, logger)
	defer publisher.Close()

	// Services
	jwtService := jwt.NewService(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)
	inventory := services.NewSeatInventoryService(tripRepo, logger)
	gateway := services.NewStripeGateway(&cfg.Payment, logger)
	bookingService := services.NewBookingService(
		bookingRepo, tripRepo, userRepo, segmentRepo, paymentRepo,
		inventory, cfg.Fare.RatePerKm, logger,
	)
	paymentService := services.NewPaymentService(
		paymentRepo, bookingRepo, segmentRepo, gateway, publisher,
		cfg.Fare.FeePercent, cfg.Fare.RatePerKm, cfg.Fare.Currency, logger,
	)
	receiptService := services.NewReceiptService(bookingRepo, paymentRepo, tripRepo, logger)
	reconciliation := services.NewReconciliationService(paymentRepo, paymentService, cfg.Sweep, logger)

	if err := reconciliation.Start(); err != nil {
		logger.Fatalf("Failed to start reconciliation sweep: %v", err)
	}

	// Handlers
	authHandler := handlers.NewAuthHandler(userRepo, jwtService, logger)
	bookingHandler := handlers.NewBookingHandler(bookingService, receiptService, logger)
	paymentHandler := handlers.NewPaymentHandler(paymentService, logger)
	tripHandler := handlers.NewTripHandler(tripRepo, segmentRepo, logger)
	adminHandler := handlers.NewAdminHandler(reconciliation, logger)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", healthCheckHandler(db))

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		trips := v1.Group("/trips")
		{
			trips.GET("/:id", tripHandler.Get)
			trips.GET("/:id/segments", tripHandler.Segments)
		}

		bookings := v1.Group("/bookings")
		bookings.Use(middleware.AuthMiddleware(jwtService))
		{
			bookings.POST("", bookingHandler.Create)
			bookings.GET("", bookingHandler.List)
			bookings.GET("/:id", bookingHandler.Get)
			bookings.PATCH("/:id", bookingHandler.Update)
			bookings.POST("/:id/cancel", bookingHandler.Cancel)
			bookings.DELETE("/:id", bookingHandler.Delete)
			bookings.GET("/:id/receipt", bookingHandler.Receipt)
			bookings.POST("/:id/payments", paymentHandler.CreateIntent)
		}

		payments := v1.Group("/payments")
		payments.Use(middleware.AuthMiddleware(jwtService))
		{
			payments.GET("/:id", paymentHandler.Get)
			payments.POST("/:id/confirm", paymentHandler.Confirm)
			payments.POST("/:id/refresh", paymentHandler.Refresh)
		}

		admin := v1.Group("/admin")
		admin.Use(middleware.AuthMiddleware(jwtService), middleware.RequireRole("admin"))
		{
			admin.POST("/reconciliation/run", adminHandler.RunSweep)
			admin.GET("/reconciliation/status", adminHandler.SweepStatus)
		}
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Stop the sweep first; it drains any in-flight reconciliation pass
	reconciliation.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		logger.WithFields(logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      c.Request.URL.RawQuery,
			"ip":         c.ClientIP(),
			"latency_ms": time.Since(start).Milliseconds(),
			"user_agent": c.Request.UserAgent(),
		}).Info("Request completed")
	}
}

// healthCheckHandler reports liveness and database reachability
func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unreachable",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"database": "connected",
			"time":     time.Now().UTC().Format(time.RFC3339),
		})
	}
}
