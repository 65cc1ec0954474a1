// Package conversion orchestrates the order lifecycle transitions:
//
//	Quotation       -> WaitingShipment (may spawn purchase orders)
//	Purchase        -> WaitingReceipt
//	WaitingShipment -> Shipment
//	WaitingReceipt  -> Receipt
//
// Each transition validates the source document, creates the successor
// document and its stock-counter side effects in one transaction, and
// then updates the source's tracking fields best-effort.
package conversion

import (
	"strconv"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/bookline/orders-api/internal/orders"
	"github.com/bookline/orders-api/internal/purchasing"
	"github.com/bookline/orders-api/internal/stock"
	"github.com/bookline/orders-api/internal/types"
	"github.com/bookline/orders-api/pkg/apperrors"
)

// Engine runs the lifecycle transitions.
type Engine struct {
	orders     *orders.Service
	stock      *stock.Service
	purchasing *purchasing.Service
}

// NewEngine creates a conversion engine over the given services.
func NewEngine(orderService *orders.Service, stockService *stock.Service, purchasingService *purchasing.Service) *Engine {
	return &Engine{
		orders:     orderService,
		stock:      stockService,
		purchasing: purchasingService,
	}
}

// validateSource loads the source order and checks its type. Returns
// NotFoundError when the order is missing and ValidationError naming the
// expected vs actual type on a mismatch.
func (e *Engine) validateSource(orderID uint, expected types.SourceType) (*types.Order, error) {
	source, err := e.orders.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	if source == nil {
		return nil, apperrors.NewNotFound("source order", orderID)
	}
	if source.OrderSource != expected {
		return nil, apperrors.NewValidation(
			"order #%d has source type %s, expected %s",
			orderID, source.OrderSource, expected)
	}
	return source, nil
}

// CheckStock checks availability for a list of items.
func (e *Engine) CheckStock(items []types.StockCheckItem) (*types.StockCheckSummary, error) {
	results, err := e.stock.CheckAvailability(items)
	if err != nil {
		return nil, err
	}

	allSufficient := true
	for _, r := range results {
		if !r.IsSufficient {
			allSufficient = false
			break
		}
	}

	return &types.StockCheckSummary{AllSufficient: allSufficient, Results: results}, nil
}

// ConvertQuotationToWaitingShipment runs the first lifecycle transition.
// Stock is checked for every quotation item; when autoGeneratePurchase is
// set, shortages spawn purchase orders (grouped by supplier) before the
// waiting-shipment document is created. The outbound reservation counter
// is increased by each effective item quantity in the same transaction as
// the new document.
func (e *Engine) ConvertQuotationToWaitingShipment(
	quotationID uint,
	overrides []types.ItemOverride,
	autoGeneratePurchase bool,
) (*types.ConversionResult, error) {
	logger := log.With().
		Uint("quotation_id", quotationID).
		Str("service", "conversion").
		Logger()

	logger.Info().Msg("starting quotation to waiting shipment conversion")

	source, err := e.validateSource(quotationID, types.SourceQuotation)
	if err != nil {
		return nil, err
	}

	sourceItems, err := e.orders.GetItems(quotationID)
	if err != nil {
		return nil, err
	}
	if len(sourceItems) == 0 {
		return nil, apperrors.NewValidation("quotation #%d has no items", quotationID)
	}

	checkItems := make([]types.StockCheckItem, 0, len(sourceItems))
	for _, item := range sourceItems {
		if item.ISBN == "" || item.Quantity <= 0 {
			continue
		}
		checkItems = append(checkItems, types.StockCheckItem{ISBN: item.ISBN, Quantity: item.Quantity})
	}

	stockResults, err := e.stock.CheckAvailability(checkItems)
	if err != nil {
		return nil, err
	}

	shortages := make([]purchasing.ShortageItem, 0)
	for _, r := range stockResults {
		if !r.IsSufficient && r.ShortageQuantity > 0 {
			shortages = append(shortages, purchasing.ShortageItem{
				ISBN:             r.ISBN,
				Quantity:         r.RequestedQuantity,
				ShortageQuantity: r.ShortageQuantity,
			})
		}
	}

	logger.Debug().
		Str("object_id", source.ObjectID).
		Int("items", len(sourceItems)).
		Int("shortages", len(shortages)).
		Msg("stock check completed")

	var autoPurchases []types.AutoPurchaseOrder
	if autoGeneratePurchase && len(shortages) > 0 {
		autoPurchases, err = e.purchasing.GenerateForShortages(quotationID, shortages)
		if err != nil {
			return nil, err
		}
	}

	created, _, err := e.orders.CreateFromSource(
		quotationID,
		types.SourceWaitingShipment,
		overrides,
		func(tx *gorm.DB, created *types.Order, items []types.OrderItem) error {
			for _, item := range items {
				if item.ISBN == "" || item.Quantity <= 0 {
					continue
				}
				if err := e.stock.AdjustTx(tx, item.ISBN, stock.FieldWaitingShipmentQuantity, item.Quantity); err != nil {
					return err
				}
			}
			return nil
		},
	)
	if err != nil {
		return nil, err
	}

	e.orders.MarkWaitingFields(quotationID, created.OrderDate, created.OrderNumber)

	logger.Info().
		Uint("target_order_id", created.ID).
		Int64("target_order_number", created.OrderNumber).
		Int("auto_purchase_orders", len(autoPurchases)).
		Msg("quotation converted to waiting shipment")

	return &types.ConversionResult{
		SourceOrderID:      quotationID,
		TargetOrderID:      created.ID,
		TargetOrderNumber:  strconv.FormatInt(created.OrderNumber, 10),
		TargetOrderDate:    created.OrderDate,
		StockCheckResults:  stockResults,
		AutoPurchaseOrders: autoPurchases,
	}, nil
}

// ConvertPurchaseToWaitingReceipt converts a purchase order into a
// waiting-receipt document. Stock counters do not move; the inbound
// reservation was already made when the purchase was created.
func (e *Engine) ConvertPurchaseToWaitingReceipt(
	purchaseOrderID uint,
	overrides []types.ItemOverride,
) (*types.ConversionResult, error) {
	logger := log.With().
		Uint("purchase_order_id", purchaseOrderID).
		Str("service", "conversion").
		Logger()

	logger.Info().Msg("starting purchase to waiting receipt conversion")

	if _, err := e.validateSource(purchaseOrderID, types.SourcePurchase); err != nil {
		return nil, err
	}

	created, _, err := e.orders.CreateFromSource(purchaseOrderID, types.SourceWaitingReceipt, overrides, nil)
	if err != nil {
		return nil, err
	}

	e.orders.MarkWaitingFields(purchaseOrderID, created.OrderDate, created.OrderNumber)

	logger.Info().
		Uint("target_order_id", created.ID).
		Int64("target_order_number", created.OrderNumber).
		Msg("purchase converted to waiting receipt")

	return &types.ConversionResult{
		SourceOrderID:     purchaseOrderID,
		TargetOrderID:     created.ID,
		TargetOrderNumber: strconv.FormatInt(created.OrderNumber, 10),
		TargetOrderDate:   created.OrderDate,
	}, nil
}

// ConvertWaitingShipmentToShipment converts a waiting-shipment document
// into a shipment. For each effective item the outbound reservation is
// released and the on-hand count reduced, atomically with the new
// document. With isPartial, the overrides carry the shipped quantities
// and only those amounts move.
func (e *Engine) ConvertWaitingShipmentToShipment(
	waitingOrderID uint,
	overrides []types.ItemOverride,
	isPartial bool,
) (*types.ConversionResult, error) {
	logger := log.With().
		Uint("waiting_order_id", waitingOrderID).
		Bool("is_partial", isPartial).
		Str("service", "conversion").
		Logger()

	logger.Info().Msg("starting waiting shipment to shipment conversion")

	if _, err := e.validateSource(waitingOrderID, types.SourceWaitingShipment); err != nil {
		return nil, err
	}

	created, _, err := e.orders.CreateFromSource(
		waitingOrderID,
		types.SourceShipment,
		overrides,
		func(tx *gorm.DB, created *types.Order, items []types.OrderItem) error {
			for _, item := range items {
				if item.ISBN == "" || item.Quantity <= 0 {
					continue
				}
				if err := e.stock.AdjustTx(tx, item.ISBN, stock.FieldWaitingShipmentQuantity, -item.Quantity); err != nil {
					return err
				}
				if err := e.stock.AdjustTx(tx, item.ISBN, stock.FieldInStock, -item.Quantity); err != nil {
					return err
				}
			}
			return nil
		},
	)
	if err != nil {
		return nil, err
	}

	e.orders.MarkAlreadyFields(waitingOrderID, created.OrderDate, created.OrderNumber)

	logger.Info().
		Uint("target_order_id", created.ID).
		Int64("target_order_number", created.OrderNumber).
		Msg("waiting shipment converted to shipment")

	return &types.ConversionResult{
		SourceOrderID:     waitingOrderID,
		TargetOrderID:     created.ID,
		TargetOrderNumber: strconv.FormatInt(created.OrderNumber, 10),
		TargetOrderDate:   created.OrderDate,
	}, nil
}

// ConvertWaitingReceiptToReceipt converts a waiting-receipt document into
// a receipt. For each effective item the inbound reservation is released
// and the on-hand count increased, atomically with the new document.
func (e *Engine) ConvertWaitingReceiptToReceipt(
	waitingOrderID uint,
	overrides []types.ItemOverride,
	isPartial bool,
) (*types.ConversionResult, error) {
	logger := log.With().
		Uint("waiting_order_id", waitingOrderID).
		Bool("is_partial", isPartial).
		Str("service", "conversion").
		Logger()

	logger.Info().Msg("starting waiting receipt to receipt conversion")

	if _, err := e.validateSource(waitingOrderID, types.SourceWaitingReceipt); err != nil {
		return nil, err
	}

	created, _, err := e.orders.CreateFromSource(
		waitingOrderID,
		types.SourceReceipt,
		overrides,
		func(tx *gorm.DB, created *types.Order, items []types.OrderItem) error {
			for _, item := range items {
				if item.ISBN == "" || item.Quantity <= 0 {
					continue
				}
				if err := e.stock.AdjustTx(tx, item.ISBN, stock.FieldWaitingIntoInStock, -item.Quantity); err != nil {
					return err
				}
				if err := e.stock.AdjustTx(tx, item.ISBN, stock.FieldInStock, item.Quantity); err != nil {
					return err
				}
			}
			return nil
		},
	)
	if err != nil {
		return nil, err
	}

	e.orders.MarkAlreadyFields(waitingOrderID, created.OrderDate, created.OrderNumber)

	logger.Info().
		Uint("target_order_id", created.ID).
		Int64("target_order_number", created.OrderNumber).
		Msg("waiting receipt converted to receipt")

	return &types.ConversionResult{
		SourceOrderID:     waitingOrderID,
		TargetOrderID:     created.ID,
		TargetOrderNumber: strconv.FormatInt(created.OrderNumber, 10),
		TargetOrderDate:   created.OrderDate,
	}, nil
}
