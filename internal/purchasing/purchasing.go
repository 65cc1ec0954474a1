// Package purchasing turns shortage items into purchase documents, one
// per supplier. Purchase items are priced at zero; pricing is negotiated
// with the supplier after the fact.
package purchasing

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/bookline/orders-api/internal/orders"
	"github.com/bookline/orders-api/internal/stock"
	"github.com/bookline/orders-api/internal/types"
)

// Service creates purchase orders for stock shortages.
type Service struct {
	db     *Database
	orders *orders.Service
	stock  *stock.Service
}

// NewService creates a new purchasing service.
func NewService(gormDB *gorm.DB, orderService *orders.Service, stockService *stock.Service) *Service {
	return &Service{
		db:     NewDatabase(gormDB),
		orders: orderService,
		stock:  stockService,
	}
}

// GenerateForShortages creates one purchase document per supplier for the
// given shortage items and reserves the inbound quantities. Items whose
// supplier cannot be resolved are grouped under the UNKNOWN sentinel
// bucket rather than failing the operation. Each document gets a
// reference edge back to the source quotation.
func (s *Service) GenerateForShortages(sourceQuotationID uint, shortages []ShortageItem) ([]types.AutoPurchaseOrder, error) {
	if len(shortages) == 0 {
		return nil, nil
	}

	logger := log.With().
		Uint("source_quotation_id", sourceQuotationID).
		Str("service", "purchasing").
		Logger()

	groups, err := s.groupBySupplier(shortages)
	if err != nil {
		return nil, err
	}

	created := make([]types.AutoPurchaseOrder, 0, len(groups))
	for _, group := range groups {
		summary, err := s.createPurchaseOrder(sourceQuotationID, group)
		if err != nil {
			logger.Error().
				Err(err).
				Str("supplier_id", group.supplierID).
				Msg("failed to create purchase order for supplier")
			return nil, fmt.Errorf("failed to create purchase order for supplier %s: %w", group.supplierID, err)
		}

		logger.Info().
			Uint("order_id", summary.OrderID).
			Str("order_number", summary.OrderNumber).
			Str("supplier_id", summary.SupplierID).
			Int("items_count", summary.ItemsCount).
			Msg("created purchase order for shortages")

		created = append(created, *summary)
	}

	return created, nil
}

// groupBySupplier partitions shortage items by resolved supplier id.
// Groups come back in deterministic supplier-id order.
func (s *Service) groupBySupplier(shortages []ShortageItem) ([]supplierGroup, error) {
	byID := make(map[string]*supplierGroup)

	for _, item := range shortages {
		if item.ShortageQuantity <= 0 {
			continue
		}

		info, err := s.db.GetSupplierForProduct(item.ISBN)
		if err != nil {
			return nil, err
		}

		supplierID := unknownSupplierID
		supplierName := unknownSupplierName
		productName := ""
		if info != nil {
			productName = info.ProductName
			if info.SupplierID != "" {
				supplierID = info.SupplierID
			}
			if info.SupplierName != "" {
				supplierName = info.SupplierName
			}
		}

		group, ok := byID[supplierID]
		if !ok {
			group = &supplierGroup{supplierID: supplierID, supplierName: supplierName}
			byID[supplierID] = group
		}
		group.items = append(group.items, groupItem{
			isbn:        item.ISBN,
			productName: productName,
			quantity:    item.ShortageQuantity,
			inCatalog:   info != nil,
		})
	}

	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	groups := make([]supplierGroup, 0, len(ids))
	for _, id := range ids {
		groups = append(groups, *byID[id])
	}
	return groups, nil
}

// createPurchaseOrder writes one purchase document and its inbound
// reservations as a single transaction.
func (s *Service) createPurchaseOrder(sourceQuotationID uint, group supplierGroup) (*types.AutoPurchaseOrder, error) {
	items := make([]types.OrderItem, 0, len(group.items))
	for i, prod := range group.items {
		items = append(items, types.OrderItem{
			ItemNumber:  i + 1,
			ISBN:        prod.isbn,
			ProductName: prod.productName,
			Quantity:    prod.quantity,
		})
	}

	refID := sourceQuotationID
	doc := orders.NewDocument{
		Source:            types.SourcePurchase,
		ObjectID:          group.supplierID,
		EstablishSource:   types.EstablishSourceSystem,
		Remark:            fmt.Sprintf("auto-generated from quotation #%d", sourceQuotationID),
		Items:             items,
		ReferencedOrderID: &refID,
	}

	order, err := s.orders.CreateDocument(doc, func(tx *gorm.DB, created *types.Order) error {
		for _, prod := range group.items {
			// Uncataloged products have no stock row to reserve against
			if !prod.inCatalog {
				continue
			}
			if err := s.stock.AdjustTx(tx, prod.isbn, stock.FieldWaitingIntoInStock, prod.quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &types.AutoPurchaseOrder{
		OrderID:      order.ID,
		OrderNumber:  strconv.FormatInt(order.OrderNumber, 10),
		SupplierID:   group.supplierID,
		SupplierName: group.supplierName,
		ItemsCount:   len(group.items),
	}, nil
}
