package types

import (
	"time"

	"gorm.io/gorm"
)

// Order is one business document in the lifecycle: quotation, purchase,
// shipment, receipt, or one of the waiting intermediates. Dates are stored
// as YYYY/MM/DD strings, matching the document-number prefix scheme.
type Order struct {
	ID              uint       `gorm:"primarykey" json:"id"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	OrderNumber     int64      `gorm:"index:idx_orders_source_number,unique" json:"order_number,string"`
	OrderDate       string     `json:"order_date"`
	OrderSource     SourceType `gorm:"index:idx_orders_source_number,unique" json:"order_source"`
	ObjectID        string     `json:"object_id"` // counterparty: customer or supplier
	IsCheckout      bool       `json:"is_checkout"`
	NumberOfItems   int        `json:"number_of_items"`
	EstablishSource int        `json:"establish_source"`
	IsBorrowed      bool       `json:"is_borrowed"`
	IsOffset        bool       `json:"is_offset"`
	Remark          string     `json:"remark"`
	CashierRemark   string     `json:"cashier_remark"`
	Status          int        `json:"status"`

	// Tracking fields, written on the source order once it has been
	// converted. Waiting* for conversions into a waiting document,
	// Already* for conversions out of one. Overwritten on re-conversion.
	WaitingOrderDate   string `json:"waiting_order_date,omitempty"`
	WaitingOrderNumber int64  `json:"waiting_order_number,string,omitempty"`
	AlreadyOrderDate   string `json:"already_order_date,omitempty"`
	AlreadyOrderNumber int64  `json:"already_order_number,string,omitempty"`
}

// OrderItem is a child row of an Order. Items are copied, never shared,
// into every successor document.
type OrderItem struct {
	gorm.Model  `json:"-"`
	OrderID     uint    `gorm:"index" json:"order_id"`
	OrderNumber int64   `json:"order_number,string"`
	ItemNumber  int     `json:"item_number"`
	ISBN        string  `gorm:"index" json:"isbn"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	Unit        string  `json:"unit"`
	BatchPrice  float64 `json:"batch_price"`
	SinglePrice float64 `json:"single_price"`
	Pricing     float64 `json:"pricing"`
	PriceAmount int     `json:"price_amount"`
	Remark      string  `json:"remark"`
}

// OrderPrice is the price-summary row of an Order.
type OrderPrice struct {
	gorm.Model           `json:"-"`
	OrderID              uint    `gorm:"index" json:"order_id"`
	OrderNumber          int64   `json:"order_number,string"`
	TotalPriceNoneTax    float64 `json:"total_price_none_tax"`
	Tax                  float64 `json:"tax"`
	Discount             float64 `json:"discount"`
	TotalPriceIncludeTax float64 `json:"total_price_include_tax"`
}

// OrderReference is one edge in the traceability graph: OrderID was
// derived from ReferencedOrderID (or ReferencedSubBillID). At most one of
// the two referenced fields is set.
type OrderReference struct {
	gorm.Model          `json:"-"`
	OrderID             uint  `gorm:"index" json:"order_id"`
	ReferencedOrderID   *uint `gorm:"index" json:"referenced_order_id,omitempty"`
	ReferencedSubBillID *uint `json:"referenced_sub_bill_id,omitempty"`
}

// OrderDetail bundles an order with its items and reference edges.
type OrderDetail struct {
	Order      Order            `json:"order"`
	Items      []OrderItem      `json:"items"`
	References []OrderReference `json:"references"`
}

// OrderTraceability lists the immediate neighbours of an order in the
// derivation graph.
type OrderTraceability struct {
	Order         Order   `json:"order"`
	SourceOrders  []Order `json:"source_orders"`
	DerivedOrders []Order `json:"derived_orders"`
}
