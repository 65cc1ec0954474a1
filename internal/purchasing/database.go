package purchasing

import (
	"errors"

	"gorm.io/gorm"

	"github.com/bookline/orders-api/internal/types"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

// supplierInfo is the product-to-supplier resolution result.
type supplierInfo struct {
	ISBN         string
	ProductName  string
	SupplierID   string
	SupplierName string
}

// GetSupplierForProduct resolves the supplier of a product. Returns nil
// when the product itself is unknown; a product without a supplier comes
// back with empty supplier fields.
func (d *Database) GetSupplierForProduct(isbn string) (*supplierInfo, error) {
	var product types.Product
	if err := d.db.Where("isbn = ?", isbn).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	info := supplierInfo{
		ISBN:        product.ISBN,
		ProductName: product.ProductName,
		SupplierID:  product.SupplierID,
	}

	if product.SupplierID != "" {
		var supplier types.Supplier
		err := d.db.Where("object_id = ?", product.SupplierID).First(&supplier).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if err == nil {
			info.SupplierName = supplier.ObjectName
		}
	}

	return &info, nil
}
