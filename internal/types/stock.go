package types

import "gorm.io/gorm"

// Product carries the catalog fields the order core needs plus the four
// stock counters. InStock is the physical on-hand count; the two Waiting*
// counters are soft reservations against future movement.
type Product struct {
	gorm.Model              `json:"-"`
	ISBN                    string `gorm:"uniqueIndex" json:"isbn"`
	ProductName             string `json:"product_name"`
	SupplierID              string `json:"supplier_id"`
	InStock                 int    `json:"in_stock"`
	SafetyStock             int    `json:"safety_stock"`
	WaitingIntoInStock      int    `json:"waiting_into_in_stock"`
	WaitingShipmentQuantity int    `json:"waiting_shipment_quantity"`
}

// Supplier is the procurement counterparty resolved during purchase
// generation.
type Supplier struct {
	gorm.Model `json:"-"`
	ObjectID   string `gorm:"uniqueIndex" json:"object_id"`
	ObjectName string `json:"object_name"`
}

// ProductStock is the read view of a product's counters, with the derived
// available quantity.
type ProductStock struct {
	ISBN                    string `json:"isbn"`
	ProductName             string `json:"product_name"`
	InStock                 int    `json:"in_stock"`
	SafetyStock             int    `json:"safety_stock"`
	WaitingIntoInStock      int    `json:"waiting_into_in_stock"`
	WaitingShipmentQuantity int    `json:"waiting_shipment_quantity"`
	AvailableQuantity       int    `json:"available_quantity"`
}

// StockCheckItem is one requested (product, quantity) pair.
type StockCheckItem struct {
	ISBN     string `json:"isbn" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,gt=0"`
}

// StockCheckResult is the per-item outcome of an availability check.
// Exactly one of IsSufficient / ShortageQuantity>0 holds.
type StockCheckResult struct {
	ISBN              string `json:"isbn"`
	ProductName       string `json:"product_name,omitempty"`
	RequestedQuantity int    `json:"requested_quantity"`
	AvailableQuantity int    `json:"available_quantity"`
	IsSufficient      bool   `json:"is_sufficient"`
	ShortageQuantity  int    `json:"shortage_quantity"`
}
