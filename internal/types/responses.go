package types

// ItemOverride adjusts the quantity of one source item at conversion time.
// Matching prefers ISBN and falls back to item number.
type ItemOverride struct {
	ItemNumber int    `json:"item_number,omitempty"`
	ISBN       string `json:"isbn,omitempty"`
	Quantity   int    `json:"quantity" binding:"required,gt=0"`
}

// AutoPurchaseOrder summarises one purchase document created for shortage
// items during a quotation conversion.
type AutoPurchaseOrder struct {
	OrderID      uint   `json:"order_id"`
	OrderNumber  string `json:"order_number"`
	SupplierID   string `json:"supplier_id"`
	SupplierName string `json:"supplier_name"`
	ItemsCount   int    `json:"items_count"`
}

// ConversionResult is returned by every lifecycle transition. The stock
// check results and auto purchase orders are only populated for the
// quotation transition.
type ConversionResult struct {
	SourceOrderID      uint                `json:"source_order_id"`
	TargetOrderID      uint                `json:"target_order_id"`
	TargetOrderNumber  string              `json:"target_order_number"`
	TargetOrderDate    string              `json:"target_order_date"`
	StockCheckResults  []StockCheckResult  `json:"stock_check_results,omitempty"`
	AutoPurchaseOrders []AutoPurchaseOrder `json:"auto_purchase_orders,omitempty"`
}

// StockCheckSummary is the response of a standalone stock check.
type StockCheckSummary struct {
	AllSufficient bool               `json:"all_sufficient"`
	Results       []StockCheckResult `json:"results"`
}
