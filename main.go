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

	"github.com/courtside/pos-go-app/internal/api"
	"github.com/courtside/pos-go-app/internal/checkout"
	"github.com/courtside/pos-go-app/internal/db"
	"github.com/courtside/pos-go-app/internal/events"
	"github.com/courtside/pos-go-app/internal/idempotency"
	"github.com/courtside/pos-go-app/internal/metrics"
	"github.com/courtside/pos-go-app/internal/middleware"
	"github.com/courtside/pos-go-app/internal/payment"
	"github.com/courtside/pos-go-app/internal/services"
	"github.com/courtside/pos-go-app/pkg/config"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

func main() {
	// Load configuration
	cfg := config.LoadConfig()

	// Initialize OpenTelemetry metrics
	ctx := context.Background()
	appMetrics, meterProvider, err := metrics.InitMetrics(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error shutting down meter provider: %v", err)
		}
	}()

	// Initialize database
	database, err := db.NewDB(cfg.GetDSN(), meterProvider.Meter(cfg.OTELServiceName), cfg.OTELServiceName)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	// Initialize schema
	schemaSQL, err := os.ReadFile("schema.sql")
	if err != nil {
		log.Printf("Warning: Could not read schema.sql: %v", err)
		log.Println("Assuming database schema already exists")
	} else {
		if err := database.InitSchema(ctx, string(schemaSQL)); err != nil {
			log.Printf("Warning: Could not initialize schema: %v", err)
			log.Println("Assuming database schema already exists")
		}
	}

	// Register-wide settings; falls back to config defaults if the table is
	// unreachable
	settingsService := services.NewSettingsService(database, appMetrics, cfg.TaxRate, cfg.LowStockThreshold)
	if err := settingsService.Load(ctx); err != nil {
		log.Printf("Warning: Could not load settings, using defaults: %v", err)
	}

	// Initialize services
	productService := services.NewProductService(database, appMetrics, settingsService)
	customerService := services.NewCustomerService(database, appMetrics)
	inventoryService := services.NewInventoryService(database, appMetrics, settingsService, productService)
	ledgerService := services.NewLedgerService(database, appMetrics, inventoryService)
	bannerService := services.NewBannerService(database, appMetrics)

	// Checkout pipeline
	gateway := payment.NewSimulatedGateway(cfg.CardDeclineRate, cfg.GatewayLatency)
	txnService := checkout.NewService(gateway, cfg.GatewayTimeout)

	var publisher events.Publisher = events.Noop{}
	if kp := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic); kp != nil {
		publisher = kp
		log.Printf("Sale events enabled: brokers=%s topic=%s", cfg.KafkaBrokers, cfg.KafkaTopic)
	}
	defer publisher.Close()

	orchestrator := checkout.NewOrchestrator(
		productService, ledgerService, txnService, settingsService, publisher, appMetrics)

	// Idempotency store for payment replays
	var idemStore idempotency.Store = idempotency.NewMemoryStore()
	if cfg.RedisAddr != "" {
		idemStore = idempotency.NewRedisStore(cfg.RedisAddr)
		log.Printf("Idempotency store: redis at %s", cfg.RedisAddr)
	}

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	// Initialize app
	app := api.NewApp(cfg, database, appMetrics, orchestrator,
		productService, customerService, inventoryService, ledgerService,
		bannerService, settingsService, idemStore, rateLimiter)

	// Setup router
	router := mux.NewRouter()
	app.SetupRoutes(router)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", idempotency.Header},
	}).Handler(router)

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      corsHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.AppPort)
		log.Printf("OTLP endpoint: %s", cfg.OTELExporterOTLPEndpoint)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
