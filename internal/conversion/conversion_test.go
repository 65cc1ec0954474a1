package conversion_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookline/orders-api/internal/conversion"
	"github.com/bookline/orders-api/internal/database"
	"github.com/bookline/orders-api/internal/numbering"
	"github.com/bookline/orders-api/internal/orders"
	"github.com/bookline/orders-api/internal/purchasing"
	"github.com/bookline/orders-api/internal/stock"
	"github.com/bookline/orders-api/internal/types"
	"github.com/bookline/orders-api/pkg/apperrors"
	"gorm.io/gorm"
)

type fixture struct {
	db     *gorm.DB
	orders *orders.Service
	engine *conversion.Engine
}

func setup(t *testing.T) *fixture {
	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := database.NewDatabase(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)

	orderService := orders.NewService(db, numbering.NewService())
	stockService := stock.NewService(db)
	purchasingService := purchasing.NewService(db, orderService, stockService)
	return &fixture{
		db:     db,
		orders: orderService,
		engine: conversion.NewEngine(orderService, stockService, purchasingService),
	}
}

func (f *fixture) seedSupplier(t *testing.T, id, name string) {
	t.Helper()
	require.NoError(t, f.db.Create(&types.Supplier{ObjectID: id, ObjectName: name}).Error)
}

func (f *fixture) seedProduct(t *testing.T, p types.Product) {
	t.Helper()
	require.NoError(t, f.db.Create(&p).Error)
}

func (f *fixture) product(t *testing.T, isbn string) types.Product {
	t.Helper()
	var p types.Product
	require.NoError(t, f.db.Where("isbn = ?", isbn).First(&p).Error)
	return p
}

func (f *fixture) seedQuotation(t *testing.T, items []types.OrderItem) *types.Order {
	t.Helper()
	created, err := f.orders.CreateDocument(orders.NewDocument{
		Source:   types.SourceQuotation,
		ObjectID: "C001",
		Items:    items,
	}, nil)
	require.NoError(t, err)
	return created
}

func (f *fixture) orderCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.db.Model(&types.Order{}).Count(&count).Error)
	return count
}

func TestCheckStock(t *testing.T) {
	f := setup(t)
	f.seedProduct(t, types.Product{ISBN: "B001", InStock: 10})
	f.seedProduct(t, types.Product{ISBN: "B002", InStock: 2})

	summary, err := f.engine.CheckStock([]types.StockCheckItem{
		{ISBN: "B001", Quantity: 5},
		{ISBN: "B002", Quantity: 5},
	})
	require.NoError(t, err)
	assert.False(t, summary.AllSufficient)
	require.Len(t, summary.Results, 2)
	assert.True(t, summary.Results[0].IsSufficient)
	assert.Equal(t, 3, summary.Results[1].ShortageQuantity)

	summary, err = f.engine.CheckStock([]types.StockCheckItem{{ISBN: "B001", Quantity: 10}})
	require.NoError(t, err)
	assert.True(t, summary.AllSufficient)
}

func TestQuotationToWaitingShipmentSufficientStock(t *testing.T) {
	f := setup(t)
	f.seedProduct(t, types.Product{ISBN: "B001", ProductName: "Go in Practice", InStock: 20})

	quotation := f.seedQuotation(t, []types.OrderItem{
		{ItemNumber: 1, ISBN: "B001", Quantity: 5},
	})

	result, err := f.engine.ConvertQuotationToWaitingShipment(quotation.ID, nil, true)
	require.NoError(t, err)

	assert.Equal(t, quotation.ID, result.SourceOrderID)
	assert.Empty(t, result.AutoPurchaseOrders)
	require.Len(t, result.StockCheckResults, 1)
	assert.True(t, result.StockCheckResults[0].IsSufficient)

	target, err := f.orders.GetOrder(result.TargetOrderID)
	require.NoError(t, err)
	assert.Equal(t, types.SourceWaitingShipment, target.OrderSource)
	assert.Equal(t, "C001", target.ObjectID)

	// Outbound reservation moved with the conversion
	assert.Equal(t, 5, f.product(t, "B001").WaitingShipmentQuantity)

	// Source order tracks its successor
	source, err := f.orders.GetOrder(quotation.ID)
	require.NoError(t, err)
	assert.Equal(t, target.OrderDate, source.WaitingOrderDate)
	assert.Equal(t, target.OrderNumber, source.WaitingOrderNumber)
}

func TestQuotationToWaitingShipmentShortageGeneratesPurchase(t *testing.T) {
	f := setup(t)
	f.seedSupplier(t, "S001", "Northwind Books")
	f.seedProduct(t, types.Product{ISBN: "B001", ProductName: "Go in Practice", SupplierID: "S001", InStock: 4})

	quotation := f.seedQuotation(t, []types.OrderItem{
		{ItemNumber: 1, ISBN: "B001", Quantity: 10},
	})

	result, err := f.engine.ConvertQuotationToWaitingShipment(quotation.ID, nil, true)
	require.NoError(t, err)

	require.Len(t, result.StockCheckResults, 1)
	assert.False(t, result.StockCheckResults[0].IsSufficient)
	assert.Equal(t, 6, result.StockCheckResults[0].ShortageQuantity)

	require.Len(t, result.AutoPurchaseOrders, 1)
	purchase := result.AutoPurchaseOrders[0]
	assert.Equal(t, "S001", purchase.SupplierID)
	assert.Equal(t, 1, purchase.ItemsCount)

	items, err := f.orders.GetItems(purchase.OrderID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 6, items[0].Quantity)

	product := f.product(t, "B001")
	assert.Equal(t, 6, product.WaitingIntoInStock)
	assert.Equal(t, 10, product.WaitingShipmentQuantity)
	assert.Equal(t, 4, product.InStock)
}

func TestQuotationToWaitingShipmentAutoGenerateDisabled(t *testing.T) {
	f := setup(t)
	f.seedSupplier(t, "S001", "Northwind Books")
	f.seedProduct(t, types.Product{ISBN: "B001", SupplierID: "S001", InStock: 4})

	quotation := f.seedQuotation(t, []types.OrderItem{
		{ItemNumber: 1, ISBN: "B001", Quantity: 10},
	})

	result, err := f.engine.ConvertQuotationToWaitingShipment(quotation.ID, nil, false)
	require.NoError(t, err)

	assert.Empty(t, result.AutoPurchaseOrders)
	assert.Zero(t, f.product(t, "B001").WaitingIntoInStock)
	// Shortage is still reported so the caller can act on it
	assert.Equal(t, 6, result.StockCheckResults[0].ShortageQuantity)
}

func TestQuotationToWaitingShipmentOverrides(t *testing.T) {
	f := setup(t)
	f.seedProduct(t, types.Product{ISBN: "B001", InStock: 20})

	quotation := f.seedQuotation(t, []types.OrderItem{
		{ItemNumber: 1, ISBN: "B001", Quantity: 10},
	})

	result, err := f.engine.ConvertQuotationToWaitingShipment(quotation.ID,
		[]types.ItemOverride{{ISBN: "B001", Quantity: 4}}, true)
	require.NoError(t, err)

	items, err := f.orders.GetItems(result.TargetOrderID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 4, items[0].Quantity)

	// Reservation follows the effective quantity, not the quoted one
	assert.Equal(t, 4, f.product(t, "B001").WaitingShipmentQuantity)
}

func TestConvertWrongSourceTypeMakesNoWrites(t *testing.T) {
	f := setup(t)
	f.seedProduct(t, types.Product{ISBN: "B001", InStock: 20})

	quotation := f.seedQuotation(t, []types.OrderItem{
		{ItemNumber: 1, ISBN: "B001", Quantity: 5},
	})

	before := f.orderCount(t)

	_, err := f.engine.ConvertWaitingShipmentToShipment(quotation.ID, nil, false)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Contains(t, err.Error(), "QUOTATION")
	assert.Contains(t, err.Error(), "WAITING_SHIPMENT")

	assert.Equal(t, before, f.orderCount(t))
	assert.Zero(t, f.product(t, "B001").WaitingShipmentQuantity)
}

func TestConvertMissingSource(t *testing.T) {
	f := setup(t)

	_, err := f.engine.ConvertQuotationToWaitingShipment(999, nil, true)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestConvertQuotationWithoutItems(t *testing.T) {
	f := setup(t)
	quotation := f.seedQuotation(t, nil)

	_, err := f.engine.ConvertQuotationToWaitingShipment(quotation.ID, nil, true)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestPurchaseToWaitingReceipt(t *testing.T) {
	f := setup(t)
	f.seedSupplier(t, "S001", "Northwind Books")
	f.seedProduct(t, types.Product{ISBN: "B001", SupplierID: "S001", InStock: 4})

	quotation := f.seedQuotation(t, []types.OrderItem{
		{ItemNumber: 1, ISBN: "B001", Quantity: 10},
	})
	first, err := f.engine.ConvertQuotationToWaitingShipment(quotation.ID, nil, true)
	require.NoError(t, err)
	require.Len(t, first.AutoPurchaseOrders, 1)
	purchaseID := first.AutoPurchaseOrders[0].OrderID

	result, err := f.engine.ConvertPurchaseToWaitingReceipt(purchaseID, nil)
	require.NoError(t, err)

	target, err := f.orders.GetOrder(result.TargetOrderID)
	require.NoError(t, err)
	assert.Equal(t, types.SourceWaitingReceipt, target.OrderSource)
	assert.Equal(t, "S001", target.ObjectID)

	// The inbound reservation was made at purchase creation and must not move again
	assert.Equal(t, 6, f.product(t, "B001").WaitingIntoInStock)

	source, err := f.orders.GetOrder(purchaseID)
	require.NoError(t, err)
	assert.Equal(t, target.OrderNumber, source.WaitingOrderNumber)
}

func TestWaitingShipmentToShipment(t *testing.T) {
	f := setup(t)
	f.seedProduct(t, types.Product{ISBN: "B001", InStock: 20})

	quotation := f.seedQuotation(t, []types.OrderItem{
		{ItemNumber: 1, ISBN: "B001", Quantity: 5},
	})
	first, err := f.engine.ConvertQuotationToWaitingShipment(quotation.ID, nil, true)
	require.NoError(t, err)

	result, err := f.engine.ConvertWaitingShipmentToShipment(first.TargetOrderID, nil, false)
	require.NoError(t, err)

	target, err := f.orders.GetOrder(result.TargetOrderID)
	require.NoError(t, err)
	assert.Equal(t, types.SourceShipment, target.OrderSource)

	product := f.product(t, "B001")
	assert.Equal(t, 15, product.InStock)
	assert.Zero(t, product.WaitingShipmentQuantity)

	waiting, err := f.orders.GetOrder(first.TargetOrderID)
	require.NoError(t, err)
	assert.Equal(t, target.OrderDate, waiting.AlreadyOrderDate)
	assert.Equal(t, target.OrderNumber, waiting.AlreadyOrderNumber)
}

func TestWaitingShipmentToShipmentPartial(t *testing.T) {
	f := setup(t)
	f.seedProduct(t, types.Product{ISBN: "B001", InStock: 20})

	quotation := f.seedQuotation(t, []types.OrderItem{
		{ItemNumber: 1, ISBN: "B001", Quantity: 8},
	})
	first, err := f.engine.ConvertQuotationToWaitingShipment(quotation.ID, nil, true)
	require.NoError(t, err)

	result, err := f.engine.ConvertWaitingShipmentToShipment(first.TargetOrderID,
		[]types.ItemOverride{{ISBN: "B001", Quantity: 3}}, true)
	require.NoError(t, err)

	items, err := f.orders.GetItems(result.TargetOrderID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)

	product := f.product(t, "B001")
	assert.Equal(t, 17, product.InStock)
	assert.Equal(t, 5, product.WaitingShipmentQuantity)
}

func TestWaitingReceiptToReceipt(t *testing.T) {
	f := setup(t)
	f.seedSupplier(t, "S001", "Northwind Books")
	f.seedProduct(t, types.Product{ISBN: "B001", SupplierID: "S001", InStock: 4})

	quotation := f.seedQuotation(t, []types.OrderItem{
		{ItemNumber: 1, ISBN: "B001", Quantity: 10},
	})
	first, err := f.engine.ConvertQuotationToWaitingShipment(quotation.ID, nil, true)
	require.NoError(t, err)
	require.Len(t, first.AutoPurchaseOrders, 1)

	receipt, err := f.engine.ConvertPurchaseToWaitingReceipt(first.AutoPurchaseOrders[0].OrderID, nil)
	require.NoError(t, err)

	result, err := f.engine.ConvertWaitingReceiptToReceipt(receipt.TargetOrderID, nil, false)
	require.NoError(t, err)

	target, err := f.orders.GetOrder(result.TargetOrderID)
	require.NoError(t, err)
	assert.Equal(t, types.SourceReceipt, target.OrderSource)

	// Goods arrived: inbound reservation released into on-hand stock
	product := f.product(t, "B001")
	assert.Equal(t, 10, product.InStock)
	assert.Zero(t, product.WaitingIntoInStock)
	assert.Equal(t, 10, product.WaitingShipmentQuantity)
}

func TestFullLifecycle(t *testing.T) {
	f := setup(t)
	f.seedSupplier(t, "S001", "Northwind Books")
	f.seedProduct(t, types.Product{ISBN: "B001", ProductName: "Go in Practice", SupplierID: "S001", InStock: 4})

	quotation := f.seedQuotation(t, []types.OrderItem{
		{ItemNumber: 1, ISBN: "B001", Quantity: 10},
	})

	ws, err := f.engine.ConvertQuotationToWaitingShipment(quotation.ID, nil, true)
	require.NoError(t, err)
	require.Len(t, ws.AutoPurchaseOrders, 1)

	wr, err := f.engine.ConvertPurchaseToWaitingReceipt(ws.AutoPurchaseOrders[0].OrderID, nil)
	require.NoError(t, err)

	_, err = f.engine.ConvertWaitingReceiptToReceipt(wr.TargetOrderID, nil, false)
	require.NoError(t, err)

	shipped, err := f.engine.ConvertWaitingShipmentToShipment(ws.TargetOrderID, nil, false)
	require.NoError(t, err)

	// 4 on hand + 6 received - 10 shipped, all reservations released
	product := f.product(t, "B001")
	assert.Zero(t, product.InStock)
	assert.Zero(t, product.WaitingIntoInStock)
	assert.Zero(t, product.WaitingShipmentQuantity)

	// Quotation, waiting shipment, purchase, waiting receipt, receipt, shipment
	assert.Equal(t, int64(6), f.orderCount(t))

	trace, err := f.orders.GetTraceability(ws.TargetOrderID)
	require.NoError(t, err)
	require.Len(t, trace.SourceOrders, 1)
	assert.Equal(t, quotation.ID, trace.SourceOrders[0].ID)
	require.Len(t, trace.DerivedOrders, 1)
	assert.Equal(t, shipped.TargetOrderID, trace.DerivedOrders[0].ID)
}
