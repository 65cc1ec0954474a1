package purchasing_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookline/orders-api/internal/database"
	"github.com/bookline/orders-api/internal/numbering"
	"github.com/bookline/orders-api/internal/orders"
	"github.com/bookline/orders-api/internal/purchasing"
	"github.com/bookline/orders-api/internal/stock"
	"github.com/bookline/orders-api/internal/types"
	"gorm.io/gorm"
)

type fixture struct {
	db         *gorm.DB
	orders     *orders.Service
	stock      *stock.Service
	purchasing *purchasing.Service
}

func setup(t *testing.T) *fixture {
	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := database.NewDatabase(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)

	orderService := orders.NewService(db, numbering.NewService())
	stockService := stock.NewService(db)
	return &fixture{
		db:         db,
		orders:     orderService,
		stock:      stockService,
		purchasing: purchasing.NewService(db, orderService, stockService),
	}
}

func (f *fixture) seedCatalog(t *testing.T) {
	t.Helper()
	suppliers := []types.Supplier{
		{ObjectID: "S001", ObjectName: "Northwind Books"},
		{ObjectID: "S002", ObjectName: "Paper Trail Ltd"},
	}
	for i := range suppliers {
		require.NoError(t, f.db.Create(&suppliers[i]).Error)
	}

	products := []types.Product{
		{ISBN: "B001", ProductName: "Go in Practice", SupplierID: "S001"},
		{ISBN: "B002", ProductName: "Sqlite Internals", SupplierID: "S001"},
		{ISBN: "B003", ProductName: "Warehouse Patterns", SupplierID: "S002"},
	}
	for i := range products {
		require.NoError(t, f.db.Create(&products[i]).Error)
	}
}

func (f *fixture) seedQuotation(t *testing.T) *types.Order {
	t.Helper()
	created, err := f.orders.CreateDocument(orders.NewDocument{
		Source:   types.SourceQuotation,
		ObjectID: "C001",
		Items:    []types.OrderItem{{ItemNumber: 1, ISBN: "B001", Quantity: 10}},
	}, nil)
	require.NoError(t, err)
	return created
}

func TestGenerateForShortagesGroupsBySupplier(t *testing.T) {
	f := setup(t)
	f.seedCatalog(t)
	quotation := f.seedQuotation(t)

	created, err := f.purchasing.GenerateForShortages(quotation.ID, []purchasing.ShortageItem{
		{ISBN: "B001", Quantity: 10, ShortageQuantity: 6},
		{ISBN: "B002", Quantity: 5, ShortageQuantity: 5},
		{ISBN: "B003", Quantity: 4, ShortageQuantity: 2},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)

	// Deterministic supplier-id order
	assert.Equal(t, "S001", created[0].SupplierID)
	assert.Equal(t, "Northwind Books", created[0].SupplierName)
	assert.Equal(t, 2, created[0].ItemsCount)
	assert.Equal(t, "S002", created[1].SupplierID)
	assert.Equal(t, 1, created[1].ItemsCount)

	first, err := f.orders.GetOrder(created[0].OrderID)
	require.NoError(t, err)
	assert.Equal(t, types.SourcePurchase, first.OrderSource)
	assert.Equal(t, "S001", first.ObjectID)
	assert.Equal(t, types.EstablishSourceSystem, first.EstablishSource)
	assert.Contains(t, first.Remark, fmt.Sprintf("#%d", quotation.ID))

	items, err := f.orders.GetItems(created[0].OrderID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "B001", items[0].ISBN)
	assert.Equal(t, 6, items[0].Quantity)
	assert.Zero(t, items[0].SinglePrice)
	assert.Equal(t, "B002", items[1].ISBN)
	assert.Equal(t, 5, items[1].Quantity)

	refs, err := f.orders.GetReferences(created[0].OrderID)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	require.NotNil(t, refs[0].ReferencedOrderID)
	assert.Equal(t, quotation.ID, *refs[0].ReferencedOrderID)
}

func TestGenerateForShortagesReservesInbound(t *testing.T) {
	f := setup(t)
	f.seedCatalog(t)
	quotation := f.seedQuotation(t)

	_, err := f.purchasing.GenerateForShortages(quotation.ID, []purchasing.ShortageItem{
		{ISBN: "B001", Quantity: 10, ShortageQuantity: 6},
		{ISBN: "B003", Quantity: 4, ShortageQuantity: 2},
	})
	require.NoError(t, err)

	var product types.Product
	require.NoError(t, f.db.Where("isbn = ?", "B001").First(&product).Error)
	assert.Equal(t, 6, product.WaitingIntoInStock)

	var product2 types.Product
	require.NoError(t, f.db.Where("isbn = ?", "B003").First(&product2).Error)
	assert.Equal(t, 2, product2.WaitingIntoInStock)
}

func TestGenerateForShortagesUnknownSupplier(t *testing.T) {
	f := setup(t)
	f.seedCatalog(t)
	quotation := f.seedQuotation(t)

	// B009 has no catalog row, B004 has a row but no supplier
	require.NoError(t, f.db.Create(&types.Product{ISBN: "B004", ProductName: "Orphan Title"}).Error)

	created, err := f.purchasing.GenerateForShortages(quotation.ID, []purchasing.ShortageItem{
		{ISBN: "B001", Quantity: 10, ShortageQuantity: 6},
		{ISBN: "B009", Quantity: 3, ShortageQuantity: 3},
		{ISBN: "B004", Quantity: 2, ShortageQuantity: 2},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)

	assert.Equal(t, "S001", created[0].SupplierID)
	assert.Equal(t, "UNKNOWN", created[1].SupplierID)
	assert.Equal(t, "Unknown supplier", created[1].SupplierName)
	assert.Equal(t, 2, created[1].ItemsCount)

	items, err := f.orders.GetItems(created[1].OrderID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "B009", items[0].ISBN)
	assert.Empty(t, items[0].ProductName)
	assert.Equal(t, "B004", items[1].ISBN)
	assert.Equal(t, "Orphan Title", items[1].ProductName)

	// Cataloged orphan gets its inbound reservation, uncataloged does not
	var product types.Product
	require.NoError(t, f.db.Where("isbn = ?", "B004").First(&product).Error)
	assert.Equal(t, 2, product.WaitingIntoInStock)
}

func TestGenerateForShortagesSkipsNonPositive(t *testing.T) {
	f := setup(t)
	f.seedCatalog(t)
	quotation := f.seedQuotation(t)

	created, err := f.purchasing.GenerateForShortages(quotation.ID, []purchasing.ShortageItem{
		{ISBN: "B001", Quantity: 10, ShortageQuantity: 0},
		{ISBN: "B002", Quantity: 5, ShortageQuantity: -1},
	})
	require.NoError(t, err)
	assert.Empty(t, created)
}

func TestGenerateForShortagesEmptyInput(t *testing.T) {
	f := setup(t)

	created, err := f.purchasing.GenerateForShortages(1, nil)
	require.NoError(t, err)
	assert.Nil(t, created)
}
