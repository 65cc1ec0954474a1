package conversion

import "github.com/bookline/orders-api/internal/types"

// QuotationToWaitingShipmentRequest converts a quotation into a
// waiting-shipment document. AutoGeneratePurchase defaults to true when
// omitted.
type QuotationToWaitingShipmentRequest struct {
	QuotationID          uint                 `json:"quotation_id" binding:"required"`
	Items                []types.ItemOverride `json:"items,omitempty" binding:"omitempty,dive"`
	AutoGeneratePurchase *bool                `json:"auto_generate_purchase,omitempty"`
}

// PurchaseToWaitingReceiptRequest converts a purchase order into a
// waiting-receipt document.
type PurchaseToWaitingReceiptRequest struct {
	PurchaseOrderID uint                 `json:"purchase_order_id" binding:"required"`
	Items           []types.ItemOverride `json:"items,omitempty" binding:"omitempty,dive"`
}

// WaitingShipmentToShipmentRequest converts a waiting-shipment document
// into a shipment, optionally for a subset of quantities.
type WaitingShipmentToShipmentRequest struct {
	WaitingOrderID uint                 `json:"waiting_order_id" binding:"required"`
	Items          []types.ItemOverride `json:"items,omitempty" binding:"omitempty,dive"`
	IsPartial      bool                 `json:"is_partial,omitempty"`
}

// WaitingReceiptToReceiptRequest converts a waiting-receipt document into
// a receipt, optionally for a subset of quantities.
type WaitingReceiptToReceiptRequest struct {
	WaitingOrderID uint                 `json:"waiting_order_id" binding:"required"`
	Items          []types.ItemOverride `json:"items,omitempty" binding:"omitempty,dive"`
	IsPartial      bool                 `json:"is_partial,omitempty"`
}

// StockCheckRequest asks for availability of a list of items.
type StockCheckRequest struct {
	Items []types.StockCheckItem `json:"items" binding:"required,min=1,dive"`
}
