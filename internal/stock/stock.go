// Package stock tracks per-product on-hand, safety, and reservation
// counters and computes availability and shortages. Counters are only
// mutated through Adjust; callers never write product rows directly.
package stock

import (
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/bookline/orders-api/internal/types"
)

// Service handles stock lookups, availability checks, and counter
// adjustments.
type Service struct {
	db *Database
}

// NewService creates a new stock service with the given database connection
func NewService(gormDB *gorm.DB) *Service {
	return &Service{
		db: NewDatabase(gormDB),
	}
}

// GetStock returns the stock view for one product, or nil if the product
// does not exist.
//
// Available = max(0, InStock - SafetyStock + WaitingIntoInStock - WaitingShipmentQuantity)
func (s *Service) GetStock(isbn string) (*types.ProductStock, error) {
	product, err := s.db.GetProduct(isbn)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, nil
	}

	available := product.InStock - product.SafetyStock +
		product.WaitingIntoInStock - product.WaitingShipmentQuantity
	if available < 0 {
		available = 0
	}

	return &types.ProductStock{
		ISBN:                    product.ISBN,
		ProductName:             product.ProductName,
		InStock:                 product.InStock,
		SafetyStock:             product.SafetyStock,
		WaitingIntoInStock:      product.WaitingIntoInStock,
		WaitingShipmentQuantity: product.WaitingShipmentQuantity,
		AvailableQuantity:       available,
	}, nil
}

// CheckAvailability checks stock for each requested item. A missing
// product is reported as zero availability and full shortage, not as an
// error.
func (s *Service) CheckAvailability(items []types.StockCheckItem) ([]types.StockCheckResult, error) {
	results := make([]types.StockCheckResult, 0, len(items))

	for _, item := range items {
		record, err := s.GetStock(item.ISBN)
		if err != nil {
			return nil, err
		}

		if record == nil {
			// Product not found - treat as zero stock
			results = append(results, types.StockCheckResult{
				ISBN:              item.ISBN,
				RequestedQuantity: item.Quantity,
				AvailableQuantity: 0,
				IsSufficient:      false,
				ShortageQuantity:  item.Quantity,
			})
			continue
		}

		sufficient := record.AvailableQuantity >= item.Quantity
		shortage := 0
		if !sufficient {
			shortage = item.Quantity - record.AvailableQuantity
		}

		results = append(results, types.StockCheckResult{
			ISBN:              item.ISBN,
			ProductName:       record.ProductName,
			RequestedQuantity: item.Quantity,
			AvailableQuantity: record.AvailableQuantity,
			IsSufficient:      sufficient,
			ShortageQuantity:  shortage,
		})
	}

	return results, nil
}

// AdjustTx applies one counter delta on the given transaction handle.
// Conversion flows use this so counter updates commit or roll back with
// the document rows.
func (s *Service) AdjustTx(tx *gorm.DB, isbn string, field Field, delta int) error {
	return s.db.Adjust(tx, isbn, field, delta)
}

// Adjust applies one counter delta outside any transaction. Failure is
// reported as a boolean and logged; the caller decides whether it aborts
// the surrounding operation.
func (s *Service) Adjust(isbn string, field Field, delta int) bool {
	if err := s.db.Adjust(s.db.DB(), isbn, field, delta); err != nil {
		log.Error().
			Err(err).
			Str("isbn", isbn).
			Str("field", field.String()).
			Int("delta", delta).
			Str("service", "stock").
			Msg("stock adjustment failed")
		return false
	}

	log.Debug().
		Str("isbn", isbn).
		Str("field", field.String()).
		Int("delta", delta).
		Msg("stock counter adjusted")
	return true
}
