package stock

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/bookline/orders-api/internal/types"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

func (d *Database) GetProduct(isbn string) (*types.Product, error) {
	var product types.Product
	if err := d.db.Where("isbn = ?", isbn).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// Adjust applies `column = COALESCE(column, 0) + delta` to one product row
// on the given handle, which may be a transaction.
func (d *Database) Adjust(tx *gorm.DB, isbn string, field Field, delta int) error {
	column := field.column()
	if column == "" {
		return fmt.Errorf("unknown stock field %d", int(field))
	}

	result := tx.Model(&types.Product{}).
		Where("isbn = ?", isbn).
		UpdateColumn(column, gorm.Expr("COALESCE("+column+", 0) + ?", delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// No stock row for this product. The counters only exist for
		// cataloged products, so this is observable drift, not an abort.
		log.Warn().
			Str("isbn", isbn).
			Str("field", column).
			Int("delta", delta).
			Msg("stock adjustment matched no product row")
	}
	return nil
}

// DB exposes the underlying handle for callers that run adjustments inside
// their own transactions.
func (d *Database) DB() *gorm.DB {
	return d.db
}
