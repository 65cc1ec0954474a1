package migrations

import (
	"gorm.io/gorm"
)

// AddOrderIndexes creates the query indexes the lifecycle endpoints lean
// on. The unique (order_source, order_number) index that backs document
// numbering is created by AutoMigrate from the model tags; these cover the
// common list and traceability queries.
func AddOrderIndexes(db *gorm.DB) error {
	// Using raw SQL for index creation to have more control over index types
	indexes := []string{
		// Composite index for order list filtering
		`CREATE INDEX IF NOT EXISTS idx_orders_source_date
		 ON orders(order_source, order_date)`,

		// Index for counterparty lookups
		`CREATE INDEX IF NOT EXISTS idx_orders_object_id
		 ON orders(object_id)`,

		// Index for reverse traceability queries (who derives from me)
		`CREATE INDEX IF NOT EXISTS idx_order_references_referenced
		 ON order_references(referenced_order_id)`,

		// Composite index for ordered item reads
		`CREATE INDEX IF NOT EXISTS idx_order_items_order_item
		 ON order_items(order_id, item_number)`,
	}

	// Execute each index creation
	for _, idx := range indexes {
		if err := db.Exec(idx).Error; err != nil {
			return err
		}
	}

	return nil
}
