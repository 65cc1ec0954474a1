package conversion

import (
	"github.com/gin-gonic/gin"

	"github.com/bookline/orders-api/pkg/response"
)

// GinHandlers contains HTTP handlers for conversion endpoints
type GinHandlers struct {
	engine *Engine
}

// NewGinHandlers creates a new set of HTTP handlers for conversion endpoints
func NewGinHandlers(engine *Engine) *GinHandlers {
	return &GinHandlers{
		engine: engine,
	}
}

// CheckStockHandler handles POST requests to check stock availability
func (h *GinHandlers) CheckStockHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req StockCheckRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		summary, err := h.engine.CheckStock(req.Items)
		response.Handle(c, summary, err)
	}
}

// QuotationToWaitingShipmentHandler handles POST requests for the first
// lifecycle transition
func (h *GinHandlers) QuotationToWaitingShipmentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req QuotationToWaitingShipmentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		autoGenerate := true
		if req.AutoGeneratePurchase != nil {
			autoGenerate = *req.AutoGeneratePurchase
		}

		result, err := h.engine.ConvertQuotationToWaitingShipment(req.QuotationID, req.Items, autoGenerate)
		response.Handle(c, result, err)
	}
}

// PurchaseToWaitingReceiptHandler handles POST requests to convert
// purchase orders into waiting receipts
func (h *GinHandlers) PurchaseToWaitingReceiptHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PurchaseToWaitingReceiptRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		result, err := h.engine.ConvertPurchaseToWaitingReceipt(req.PurchaseOrderID, req.Items)
		response.Handle(c, result, err)
	}
}

// WaitingShipmentToShipmentHandler handles POST requests to convert
// waiting shipments into shipments
func (h *GinHandlers) WaitingShipmentToShipmentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req WaitingShipmentToShipmentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		result, err := h.engine.ConvertWaitingShipmentToShipment(req.WaitingOrderID, req.Items, req.IsPartial)
		response.Handle(c, result, err)
	}
}

// WaitingReceiptToReceiptHandler handles POST requests to convert waiting
// receipts into receipts
func (h *GinHandlers) WaitingReceiptToReceiptHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req WaitingReceiptToReceiptRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		result, err := h.engine.ConvertWaitingReceiptToReceipt(req.WaitingOrderID, req.Items, req.IsPartial)
		response.Handle(c, result, err)
	}
}
