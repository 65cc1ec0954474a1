package orders

import (
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/bookline/orders-api/internal/numbering"
	"github.com/bookline/orders-api/internal/types"
)

type Database struct {
	db        *gorm.DB
	numbering *numbering.Service
}

func NewDatabase(db *gorm.DB, numberingService *numbering.Service) *Database {
	return &Database{db: db, numbering: numberingService}
}

func (d *Database) GetOrder(orderID uint) (*types.Order, error) {
	var order types.Order
	if err := d.db.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func (d *Database) GetItems(orderID uint) ([]types.OrderItem, error) {
	var items []types.OrderItem
	err := d.db.Where("order_id = ?", orderID).
		Order("item_number").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (d *Database) GetPrice(orderID uint) (*types.OrderPrice, error) {
	var price types.OrderPrice
	if err := d.db.Where("order_id = ?", orderID).First(&price).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &price, nil
}

// GetReferences returns the outgoing edges of an order: the documents it
// was derived from.
func (d *Database) GetReferences(orderID uint) ([]types.OrderReference, error) {
	var refs []types.OrderReference
	if err := d.db.Where("order_id = ?", orderID).Find(&refs).Error; err != nil {
		return nil, err
	}
	return refs, nil
}

// GetReferencedBy returns the incoming edges of an order: the documents
// derived from it.
func (d *Database) GetReferencedBy(orderID uint) ([]types.OrderReference, error) {
	var refs []types.OrderReference
	if err := d.db.Where("referenced_order_id = ?", orderID).Find(&refs).Error; err != nil {
		return nil, err
	}
	return refs, nil
}

// CreateReference inserts one traceability edge. At most one of the two
// referenced ids may be set.
func (d *Database) CreateReference(orderID uint, referencedOrderID, referencedSubBillID *uint) error {
	ref := types.OrderReference{
		OrderID:             orderID,
		ReferencedOrderID:   referencedOrderID,
		ReferencedSubBillID: referencedSubBillID,
	}
	return d.db.Create(&ref).Error
}

// CreateDocument writes a numbered document as one atomic unit: header,
// price row, item rows, and the optional reference edge. The sideEffects
// callback, when non-nil, runs inside the same transaction after the rows
// exist; it commits or rolls back with them.
//
// Number allocation is serialized per (source type, date); a duplicate
// number slipping past the lock hits the unique index and is retried once.
func (d *Database) CreateDocument(doc NewDocument, sideEffects func(tx *gorm.DB, created *types.Order) error) (*types.Order, error) {
	now := time.Now()
	orderDate := numbering.DateString(now)

	var created *types.Order
	err := d.numbering.Serialize(doc.Source, now, func() error {
		var err error
		created, err = d.insertDocument(doc, orderDate, now, sideEffects)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			log.Warn().
				Str("source_type", doc.Source.String()).
				Str("order_date", orderDate).
				Msg("duplicate document number, retrying allocation")
			created, err = d.insertDocument(doc, orderDate, now, sideEffects)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (d *Database) insertDocument(doc NewDocument, orderDate string, now time.Time, sideEffects func(tx *gorm.DB, created *types.Order) error) (*types.Order, error) {
	// Begin transaction
	tx := d.db.Begin()
	if err := tx.Error; err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	number, err := d.numbering.NextNumber(tx, doc.Source, now)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	order := types.Order{
		OrderNumber:     number,
		OrderDate:       orderDate,
		OrderSource:     doc.Source,
		ObjectID:        doc.ObjectID,
		NumberOfItems:   len(doc.Items),
		EstablishSource: doc.EstablishSource,
		Remark:          doc.Remark,
		CashierRemark:   doc.CashierRemark,
	}
	if err := tx.Create(&order).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	price := doc.Price
	price.OrderID = order.ID
	price.OrderNumber = number
	if err := tx.Create(&price).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	for i := range doc.Items {
		item := doc.Items[i]
		item.ID = 0
		item.OrderID = order.ID
		item.OrderNumber = number
		if err := tx.Create(&item).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if doc.ReferencedOrderID != nil || doc.ReferencedSubBillID != nil {
		ref := types.OrderReference{
			OrderID:             order.ID,
			ReferencedOrderID:   doc.ReferencedOrderID,
			ReferencedSubBillID: doc.ReferencedSubBillID,
		}
		if err := tx.Create(&ref).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if sideEffects != nil {
		if err := sideEffects(tx, &order); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// MarkWaitingFields records the date and number of the waiting document a
// source order was converted into. Best effort: failure is logged and
// reported as false, never as an error.
func (d *Database) MarkWaitingFields(orderID uint, date string, number int64) bool {
	err := d.db.Model(&types.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{
			"waiting_order_date":   date,
			"waiting_order_number": number,
		}).Error
	if err != nil {
		log.Error().
			Err(err).
			Uint("order_id", orderID).
			Int64("waiting_order_number", number).
			Str("service", "orders").
			Msg("failed to update waiting tracking fields")
		return false
	}
	return true
}

// MarkAlreadyFields records the date and number of the finalized document
// a waiting order was converted into. Best effort, like MarkWaitingFields.
func (d *Database) MarkAlreadyFields(orderID uint, date string, number int64) bool {
	err := d.db.Model(&types.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{
			"already_order_date":   date,
			"already_order_number": number,
		}).Error
	if err != nil {
		log.Error().
			Err(err).
			Uint("order_id", orderID).
			Int64("already_order_number", number).
			Str("service", "orders").
			Msg("failed to update already tracking fields")
		return false
	}
	return true
}

// ListOrders returns one filtered page of orders plus the unpaged total.
func (d *Database) ListOrders(filter ListFilter) ([]types.Order, int64, error) {
	query := d.db.Model(&types.Order{})

	if filter.Source != nil {
		query = query.Where("order_source = ?", *filter.Source)
	}
	if filter.ObjectID != "" {
		query = query.Where("object_id = ?", filter.ObjectID)
	}
	if filter.StartDate != "" {
		query = query.Where("order_date >= ?", filter.StartDate)
	}
	if filter.EndDate != "" {
		query = query.Where("order_date <= ?", filter.EndDate)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []types.Order
	err := query.
		Order("order_date DESC, id DESC").
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// GetSourceOrders returns the orders this order was derived from.
func (d *Database) GetSourceOrders(orderID uint) ([]types.Order, error) {
	var sources []types.Order
	err := d.db.
		Joins("INNER JOIN order_references r ON orders.id = r.referenced_order_id").
		Where("r.order_id = ? AND r.referenced_order_id IS NOT NULL", orderID).
		Find(&sources).Error
	if err != nil {
		return nil, err
	}
	return sources, nil
}

// GetDerivedOrders returns the orders derived from this order.
func (d *Database) GetDerivedOrders(orderID uint) ([]types.Order, error) {
	var derived []types.Order
	err := d.db.
		Joins("INNER JOIN order_references r ON orders.id = r.order_id").
		Where("r.referenced_order_id = ?", orderID).
		Find(&derived).Error
	if err != nil {
		return nil, err
	}
	return derived, nil
}
