package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/bookline/orders-api/internal/conversion"
	"github.com/bookline/orders-api/internal/database"
	"github.com/bookline/orders-api/internal/numbering"
	"github.com/bookline/orders-api/internal/orders"
	"github.com/bookline/orders-api/internal/purchasing"
	"github.com/bookline/orders-api/internal/stock"
	"github.com/bookline/orders-api/internal/types"
)

const (
	minQuotations = 10
	maxQuotations = 60
	numWorkers    = 5
	serverAddress = "http://localhost:8080"
	databasePath  = "simulation.db"
)

var customers = []string{"C001", "C002", "C003", "C004", "C005"}

// seedSuppliers and seedProducts describe the catalog the simulation runs
// against. Stock levels are deliberately low so quotation conversions
// trigger shortage handling and auto purchase orders.
var seedSuppliers = []types.Supplier{
	{ObjectID: "S001", ObjectName: "Harbor Books Ltd"},
	{ObjectID: "S002", ObjectName: "Meridian Press"},
	{ObjectID: "S003", ObjectName: "Northgate Publishing"},
}

var seedProducts = []types.Product{
	{ISBN: "B001", ProductName: "Introductory Algebra", SupplierID: "S001", InStock: 25, SafetyStock: 5},
	{ISBN: "B002", ProductName: "Modern History Vol. 1", SupplierID: "S001", InStock: 8, SafetyStock: 2},
	{ISBN: "B003", ProductName: "Concise Atlas", SupplierID: "S002", InStock: 40, SafetyStock: 10},
	{ISBN: "B004", ProductName: "Pocket Dictionary", SupplierID: "S002", InStock: 3, SafetyStock: 0},
	{ISBN: "B005", ProductName: "Field Guide to Birds", SupplierID: "S003", InStock: 12, SafetyStock: 4},
	{ISBN: "B006", ProductName: "Watercolor Basics", SupplierID: "S003", InStock: 0, SafetyStock: 0},
}

// init configures the logger for the simulation with pretty printing and timestamp
func init() {
	// Configure pretty logging
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}

// routeStats tracks performance statistics for an API endpoint
type routeStats struct {
	name       string
	durations  []time.Duration
	totalCalls int
	failures   int
}

// addDuration records a new duration measurement for the route
func (rs *routeStats) addDuration(d time.Duration) {
	rs.durations = append(rs.durations, d)
	rs.totalCalls++
}

// calculate computes performance statistics from recorded durations
// Returns min, max, mean, median, 95th percentile, and 99th percentile durations
func (rs *routeStats) calculate() (min, max, mean, median, p95, p99 time.Duration) {
	if len(rs.durations) == 0 {
		return 0, 0, 0, 0, 0, 0
	}

	// Sort durations for percentile calculations
	sort.Slice(rs.durations, func(i, j int) bool {
		return rs.durations[i] < rs.durations[j]
	})

	min = rs.durations[0]
	max = rs.durations[len(rs.durations)-1]

	// Calculate mean
	var sum time.Duration
	for _, d := range rs.durations {
		sum += d
	}
	mean = sum / time.Duration(len(rs.durations))

	// Calculate median
	median = rs.durations[len(rs.durations)/2]

	// Calculate percentiles
	p95idx := int(math.Ceil(float64(len(rs.durations))*0.95)) - 1
	p99idx := int(math.Ceil(float64(len(rs.durations))*0.99)) - 1
	p95 = rs.durations[p95idx]
	p99 = rs.durations[p99idx]

	return
}

// simulationClient handles HTTP communication with the orders API
type simulationClient struct {
	baseURL string
	client  *http.Client
	stats   map[string]*routeStats
}

// newSimulationClient creates and initializes a new simulation client
func newSimulationClient() *simulationClient {
	return &simulationClient{
		baseURL: serverAddress,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		stats: map[string]*routeStats{
			"quotation": {name: "Create Quotation"},
			"q-to-ws":   {name: "Quotation->WaitShip"},
			"p-to-wr":   {name: "Purchase->WaitRecv"},
			"wr-to-r":   {name: "WaitRecv->Receipt"},
			"ws-to-s":   {name: "WaitShip->Shipment"},
		},
	}
}

// post sends one JSON request and decodes the standard response envelope
// into out.
func (sc *simulationClient) post(statKey, path string, payload, out interface{}) error {
	stats := sc.stats[statKey]
	start := time.Now()
	defer func() {
		stats.addDuration(time.Since(start))
	}()

	body, err := json.Marshal(payload)
	if err != nil {
		stats.failures++
		return err
	}

	resp, err := sc.client.Post(
		fmt.Sprintf("%s%s", sc.baseURL, path),
		"application/json",
		bytes.NewBuffer(body),
	)
	if err != nil {
		stats.failures++
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		stats.failures++
		return fmt.Errorf("failed to read response body: %w", err)
	}
	log.Debug().Str("path", path).Str("response", string(respBody)).Msg("API response")

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		stats.failures++
		return fmt.Errorf("%s failed with status %d: %s", path, resp.StatusCode, string(respBody))
	}

	envelope := struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}{}
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		stats.failures++
		return fmt.Errorf("failed to decode response: %w, body: %s", err, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			stats.failures++
			return fmt.Errorf("failed to decode response data: %w, body: %s", err, string(respBody))
		}
	}
	return nil
}

// createQuotation submits a new quotation and returns its order id.
func (sc *simulationClient) createQuotation(workerID int) (uint, error) {
	numItems := rand.Intn(3) + 1
	picked := rand.Perm(len(seedProducts))[:numItems]

	items := make([]orders.QuotationItem, 0, numItems)
	for _, idx := range picked {
		p := seedProducts[idx]
		items = append(items, orders.QuotationItem{
			ISBN:        p.ISBN,
			ProductName: p.ProductName,
			Quantity:    rand.Intn(15) + 1,
			Unit:        "copy",
			SinglePrice: float64(rand.Intn(40) + 10),
		})
	}

	payload := orders.CreateQuotationRequest{
		ObjectID: customers[rand.Intn(len(customers))],
		Remark:   fmt.Sprintf("simulation worker %d", workerID),
		Items:    items,
	}

	var created types.Order
	if err := sc.post("quotation", "/api/v1/quotations", payload, &created); err != nil {
		return 0, err
	}
	if created.ID == 0 {
		return 0, fmt.Errorf("no order id in quotation response")
	}
	return created.ID, nil
}

// convert runs one conversion endpoint and returns the result.
func (sc *simulationClient) convert(statKey, path string, payload interface{}) (*types.ConversionResult, error) {
	var result types.ConversionResult
	if err := sc.post(statKey, path, payload, &result); err != nil {
		return nil, err
	}
	if result.TargetOrderID == 0 {
		return nil, fmt.Errorf("no target order id in conversion response")
	}
	return &result, nil
}

// printPerformanceStats outputs formatted performance statistics for all API endpoints
func (sc *simulationClient) printPerformanceStats() {
	fmt.Println("\n📊 API Performance Statistics")
	fmt.Println(strings.Repeat("-", 100))
	fmt.Printf("%-20s %10s %10s %10s %10s %10s %10s %10s %10s\n",
		"Endpoint", "Calls", "Errors", "Min", "Max", "Mean", "Median", "P95", "P99")
	fmt.Println(strings.Repeat("-", 100))

	for _, stats := range sc.stats {
		min, max, mean, median, p95, p99 := stats.calculate()
		fmt.Printf("%-20s %10d %10d %10s %10s %10s %10s %10s %10s\n",
			stats.name,
			stats.totalCalls,
			stats.failures,
			min.Round(time.Millisecond),
			max.Round(time.Millisecond),
			mean.Round(time.Millisecond),
			median.Round(time.Millisecond),
			p95.Round(time.Millisecond),
			p99.Round(time.Millisecond))
	}
	fmt.Println(strings.Repeat("-", 100))
}

// main runs the order lifecycle simulation: it seeds a catalog, creates
// quotations over HTTP, and drives each one through waiting shipment,
// auto purchasing, receipt, and shipment.
func main() {
	// Start the server in a goroutine
	go func() {
		if err := startServer(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for server to start
	time.Sleep(2 * time.Second)

	simClient := newSimulationClient()

	targetQuotations := rand.Intn(maxQuotations-minQuotations) + minQuotations
	log.Info().Int("target_quotations", targetQuotations).Msg("Starting simulation")

	// Channel to collect quotation IDs
	quotationsChan := make(chan uint, targetQuotations)
	var wg sync.WaitGroup

	// Start worker goroutines
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			createQuotationsHTTP(workerID, targetQuotations/numWorkers, simClient, quotationsChan)
		}(i)
	}

	// Wait for all quotations to be created
	wg.Wait()
	close(quotationsChan)

	var quotationIDs []uint
	for id := range quotationsChan {
		quotationIDs = append(quotationIDs, id)
	}

	log.Info().Int("quotations_created", len(quotationIDs)).Msg("All quotations created")

	stats := struct {
		TotalQuotations  int
		WaitingShipments int
		AutoPurchases    int
		Receipts         int
		Shipments        int
		FailedConversion int
		StartTime        time.Time
		Suppliers        map[string]int
	}{
		StartTime: time.Now(),
		Suppliers: make(map[string]int),
	}
	stats.TotalQuotations = len(quotationIDs)

	for _, quotationID := range quotationIDs {
		result, err := simClient.convert("q-to-ws", "/api/v1/conversions/quotation-to-waiting-shipment",
			conversion.QuotationToWaitingShipmentRequest{QuotationID: quotationID})
		if err != nil {
			log.Error().Err(err).Uint("quotation_id", quotationID).Msg("Failed to convert quotation")
			stats.FailedConversion++
			continue
		}
		stats.WaitingShipments++

		log.Info().
			Uint("quotation_id", quotationID).
			Uint("waiting_shipment_id", result.TargetOrderID).
			Str("order_number", result.TargetOrderNumber).
			Int("auto_purchase_orders", len(result.AutoPurchaseOrders)).
			Msg("Quotation converted")

		// Drive every auto purchase order through receipt
		for _, po := range result.AutoPurchaseOrders {
			stats.AutoPurchases++
			stats.Suppliers[po.SupplierName] += po.ItemsCount

			wr, err := simClient.convert("p-to-wr", "/api/v1/conversions/purchase-to-waiting-receipt",
				conversion.PurchaseToWaitingReceiptRequest{PurchaseOrderID: po.OrderID})
			if err != nil {
				log.Error().Err(err).Uint("purchase_order_id", po.OrderID).Msg("Failed to convert purchase order")
				stats.FailedConversion++
				continue
			}

			if _, err := simClient.convert("wr-to-r", "/api/v1/conversions/waiting-receipt-to-receipt",
				conversion.WaitingReceiptToReceiptRequest{WaitingOrderID: wr.TargetOrderID}); err != nil {
				log.Error().Err(err).Uint("waiting_receipt_id", wr.TargetOrderID).Msg("Failed to convert waiting receipt")
				stats.FailedConversion++
				continue
			}
			stats.Receipts++
		}

		// Ship the waiting shipment now that receipts are in
		if _, err := simClient.convert("ws-to-s", "/api/v1/conversions/waiting-shipment-to-shipment",
			conversion.WaitingShipmentToShipmentRequest{WaitingOrderID: result.TargetOrderID}); err != nil {
			log.Error().Err(err).Uint("waiting_shipment_id", result.TargetOrderID).Msg("Failed to convert waiting shipment")
			stats.FailedConversion++
			continue
		}
		stats.Shipments++
	}

	// Print summary
	duration := time.Since(stats.StartTime)
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("🚚 ORDER LIFECYCLE SIMULATION SUMMARY")
	fmt.Println(strings.Repeat("=", 80))

	fmt.Printf(`
📊 Document Statistics
---------------------
Quotations:         %d
Waiting Shipments:  %d
Auto Purchases:     %d
Receipts:           %d
Shipments:          %d
Failed Conversions: %d
Duration:           %v

📈 Auto Purchase Items by Supplier
---------------------------------
`, stats.TotalQuotations, stats.WaitingShipments, stats.AutoPurchases,
		stats.Receipts, stats.Shipments, stats.FailedConversion,
		duration.Round(time.Millisecond))

	// Print supplier distribution with simple ASCII bar chart
	maxSupplierCount := 0
	for _, count := range stats.Suppliers {
		if count > maxSupplierCount {
			maxSupplierCount = count
		}
	}

	for supplier, count := range stats.Suppliers {
		barLength := int(float64(count) / float64(maxSupplierCount) * 20)
		bar := strings.Repeat("█", barLength)
		fmt.Printf("%-22s: %s (%d)\n", supplier, bar, count)
	}

	fmt.Println("\n" + strings.Repeat("=", 80))

	successRate := float64(stats.Shipments) / float64(stats.TotalQuotations) * 100
	log.Info().
		Float64("success_rate", successRate).
		Int("total_quotations", stats.TotalQuotations).
		Int("shipments", stats.Shipments).
		Dur("duration", duration).
		Msg("Simulation completed")

	simClient.printPerformanceStats()
}

// createQuotationsHTTP generates and submits random quotations to the API
// Runs as a worker goroutine, sending created quotation IDs to quotationsChan
func createQuotationsHTTP(workerID, numQuotations int, simClient *simulationClient, quotationsChan chan<- uint) {
	for i := 0; i < numQuotations; i++ {
		quotationID, err := simClient.createQuotation(workerID)
		if err != nil {
			log.Error().Err(err).
				Int("worker_id", workerID).
				Msg("Failed to create quotation")
			continue
		}

		quotationsChan <- quotationID
		log.Info().
			Int("worker_id", workerID).
			Uint("quotation_id", quotationID).
			Msg("Quotation created")

		// Random sleep between quotations
		time.Sleep(time.Duration(rand.Intn(500)) * time.Millisecond)
	}
}

// seedCatalog inserts the suppliers, products and opening stock the
// simulation runs against. Safe to run repeatedly against the same file.
func seedCatalog(db *gorm.DB) error {
	for _, s := range seedSuppliers {
		supplier := s
		if err := db.Where("object_id = ?", supplier.ObjectID).FirstOrCreate(&supplier).Error; err != nil {
			return err
		}
	}
	for _, p := range seedProducts {
		product := p
		if err := db.Where("isbn = ?", product.ISBN).FirstOrCreate(&product).Error; err != nil {
			return err
		}
	}
	return nil
}

// startServer initializes and starts the orders API server
// Sets up all required services, handlers and routes
func startServer() error {
	// Initialize database
	db, err := database.NewDatabase(databasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := seedCatalog(db); err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}

	// Initialize services
	numberingService := numbering.NewService()
	orderService := orders.NewService(db, numberingService)
	stockService := stock.NewService(db)
	purchasingService := purchasing.NewService(db, orderService, stockService)
	engine := conversion.NewEngine(orderService, stockService, purchasingService)

	// Initialize router
	router := gin.Default()
	orderHandlers := orders.NewGinHandlers(orderService)
	conversionHandlers := conversion.NewGinHandlers(engine)

	// Setup routes
	v1 := router.Group("/api/v1")
	{
		v1.POST("/quotations", orderHandlers.CreateQuotationHandler())
		v1.GET("/orders", orderHandlers.ListOrdersHandler())
		v1.GET("/orders/:order_id", orderHandlers.GetOrderHandler())
		v1.GET("/orders/:order_id/traceability", orderHandlers.GetTraceabilityHandler())

		conversions := v1.Group("/conversions")
		{
			conversions.POST("/check-stock", conversionHandlers.CheckStockHandler())
			conversions.POST("/quotation-to-waiting-shipment", conversionHandlers.QuotationToWaitingShipmentHandler())
			conversions.POST("/purchase-to-waiting-receipt", conversionHandlers.PurchaseToWaitingReceiptHandler())
			conversions.POST("/waiting-shipment-to-shipment", conversionHandlers.WaitingShipmentToShipmentHandler())
			conversions.POST("/waiting-receipt-to-receipt", conversionHandlers.WaitingReceiptToReceiptHandler())
		}
	}

	// Start the server
	return router.Run(":8080")
}
