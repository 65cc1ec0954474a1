package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/bookline/orders-api/internal/config"
	"github.com/bookline/orders-api/internal/conversion"
	"github.com/bookline/orders-api/internal/database"
	"github.com/bookline/orders-api/internal/numbering"
	"github.com/bookline/orders-api/internal/orders"
	"github.com/bookline/orders-api/internal/purchasing"
	"github.com/bookline/orders-api/internal/stock"
	"github.com/bookline/orders-api/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// main initializes and runs the order lifecycle API server with graceful
// shutdown support. It wires the stock ledger, numbering service, order
// store, purchase generation and conversion engine onto one database
// connection.
func main() {
	cfg, err := config.Load()
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Configure pretty logging for development
	if !cfg.IsProduction() {
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		zlog.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	// Set global log level
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// Initialize database
	db, err := database.NewDatabase(cfg.DatabasePath)
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to initialize database")
	}

	// Initialize router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	// Initialize services and handlers
	numberingService := numbering.NewService()

	orderService := orders.NewService(db, numberingService)
	orderHandlers := orders.NewGinHandlers(orderService)

	stockService := stock.NewService(db)

	purchasingService := purchasing.NewService(db, orderService, stockService)

	engine := conversion.NewEngine(orderService, stockService, purchasingService)
	conversionHandlers := conversion.NewGinHandlers(engine)

	// Setup middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.AccessLog())
	router.Use(middleware.RateLimit())

	// Setup API routes
	setupRoutes(router, orderHandlers, conversionHandlers)

	// Create server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Graceful shutdown setup
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("listen")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info().Msg("Shutting down server...")

	// Give outstanding operations 5 seconds to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	zlog.Info().Msg("Server exiting")
}

// setupRoutes configures all API endpoints and their handlers:
// - Quotation intake and order reads on the Order Store
// - Lifecycle conversion routes on the Conversion Engine
func setupRoutes(
	router *gin.Engine,
	orderHandlers *orders.GinHandlers,
	conversionHandlers *conversion.GinHandlers,
) {
	v1 := router.Group("/api/v1")
	{
		// Quotation intake
		v1.POST("/quotations", orderHandlers.CreateQuotationHandler())

		// Order reads
		ordersGroup := v1.Group("/orders")
		{
			ordersGroup.GET("", orderHandlers.ListOrdersHandler())
			ordersGroup.GET("/:order_id", orderHandlers.GetOrderHandler())
			ordersGroup.GET("/:order_id/traceability", orderHandlers.GetTraceabilityHandler())
		}

		// Lifecycle conversions
		conversions := v1.Group("/conversions")
		{
			conversions.POST("/check-stock", conversionHandlers.CheckStockHandler())
			conversions.POST("/quotation-to-waiting-shipment", conversionHandlers.QuotationToWaitingShipmentHandler())
			conversions.POST("/purchase-to-waiting-receipt", conversionHandlers.PurchaseToWaitingReceiptHandler())
			conversions.POST("/waiting-shipment-to-shipment", conversionHandlers.WaitingShipmentToShipmentHandler())
			conversions.POST("/waiting-receipt-to-receipt", conversionHandlers.WaitingReceiptToReceiptHandler())
		}
	}
}
