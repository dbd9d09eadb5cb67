package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/stayflow/service-reservation/internal/application"
	"github.com/stayflow/service-reservation/internal/config"
	reservationEvents "github.com/stayflow/service-reservation/internal/events"
	"github.com/stayflow/service-reservation/internal/handler"
	"github.com/stayflow/service-reservation/internal/pkg/auth"
	"github.com/stayflow/service-reservation/internal/pkg/database"
	"github.com/stayflow/service-reservation/internal/pkg/health"
	"github.com/stayflow/service-reservation/internal/pkg/kafka"
	"github.com/stayflow/service-reservation/internal/pkg/logger"
	"github.com/stayflow/service-reservation/internal/pkg/middleware"
	"github.com/stayflow/service-reservation/internal/repository"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, "service-reservation")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-reservation",
		zap.String("port", cfg.Port),
	)

	// Connect to database
	db, err := database.Connect(cfg.DBConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Settlement and reservation writes depend on transactional atomicity;
	// refuse to start on a dialect that cannot provide it.
	if err := database.EnsureAtomicitySupport(db); err != nil {
		log.Fatal("database does not support required atomicity", zap.Error(err))
	}

	// Run database migrations
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(&repository.BookingModel{}, &repository.WalletModel{}, &repository.TransactionModel{}); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else {
		if err := database.RunMigrations(cfg.DBConfig.DatabaseURL(), "migrations", log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(
		cfg.JWTConfig.Secret,
		15*time.Minute,
		7*24*time.Hour,
	)

	// Initialize Kafka producer
	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
	defer func() { _ = kafkaProducer.Close() }()

	// Initialize repositories and the catalog client
	bookingRepo := repository.NewGormBookingRepository(db)
	ledgerRepo := repository.NewGormLedgerRepository(db)
	catalogClient := repository.NewCatalogClient(
		cfg.CatalogConfig.BaseURL,
		cfg.CatalogConfig.InternalToken,
		log,
	)

	// Initialize application services
	availabilityService := application.NewAvailabilityService(bookingRepo, catalogClient, catalogClient, log)
	walletService := application.NewWalletService(ledgerRepo, log)
	bookingService := application.NewBookingService(
		bookingRepo,
		catalogClient,
		availabilityService,
		ledgerRepo,
		ledgerRepo,
		kafkaProducer,
		log,
	)

	// Initialize and start the gateway event consumer in a goroutine
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	groupID := cfg.KafkaConfig.GroupPrefix + "reservation-service"
	gatewayConsumer := reservationEvents.NewGatewayEventConsumer(
		cfg.KafkaConfig.Brokers,
		groupID,
		bookingService,
		walletService,
		log,
	)
	defer func() { _ = gatewayConsumer.Close() }()

	go func() {
		log.Info("starting gateway event consumer")
		if err := gatewayConsumer.Start(ctx); err != nil && err != context.Canceled {
			log.Error("gateway event consumer error", zap.Error(err))
		}
	}()

	// Initialize HTTP handlers
	bookingHandler := handler.NewBookingHandler(bookingService, availabilityService)
	walletHandler := handler.NewWalletHandler(walletService)
	gatewayHandler := handler.NewGatewayHandler(bookingService, walletService)
	adminHandler := handler.NewAdminBookingHandler(bookingService)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health check routes
	healthHandler := health.NewHandler(db, "service-reservation")
	healthHandler.RegisterRoutes(router)

	// Register routes
	bookingHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	walletHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	gatewayHandler.RegisterRoutes(&router.RouterGroup, cfg.CatalogConfig.InternalToken)
	adminHandler.RegisterRoutes(&router.RouterGroup, jwtManager)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-reservation...")

	// Cancel the consumer context
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-reservation stopped")
}
