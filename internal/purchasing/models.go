package purchasing

// ShortageItem is one product the stock check found short.
type ShortageItem struct {
	ISBN             string `json:"isbn"`
	Quantity         int    `json:"quantity"`
	ShortageQuantity int    `json:"shortage_quantity"`
}

// supplierGroup collects the shortage lines destined for one supplier.
type supplierGroup struct {
	supplierID   string
	supplierName string
	items        []groupItem
}

type groupItem struct {
	isbn        string
	productName string
	quantity    int
	inCatalog   bool
}

// Sentinel bucket for products whose supplier cannot be resolved, so a
// shortage is never silently dropped.
const (
	unknownSupplierID   = "UNKNOWN"
	unknownSupplierName = "Unknown supplier"
)
