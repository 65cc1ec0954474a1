package database

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/bookline/orders-api/internal/database/migrations"
	"github.com/bookline/orders-api/internal/types"
)

// NewDatabase initializes and returns a new GORM DB connection.
// TranslateError is enabled so unique-constraint violations surface as
// gorm.ErrDuplicatedKey, which the numbering retry relies on.
func NewDatabase(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	// Auto-migrate schemas
	err = db.AutoMigrate(
		&types.Order{},
		&types.OrderItem{},
		&types.OrderPrice{},
		&types.OrderReference{},
		&types.Product{},
		&types.Supplier{},
	)
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := migrations.AddOrderIndexes(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}
