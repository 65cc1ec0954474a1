// Package orders owns the Order, OrderItem, OrderReference and OrderPrice
// records: document creation, reads, traceability, and the best-effort
// tracking-field updates made after a conversion.
package orders

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/bookline/orders-api/internal/numbering"
	"github.com/bookline/orders-api/internal/types"
	"github.com/bookline/orders-api/pkg/apperrors"
	"github.com/bookline/orders-api/pkg/response"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Service handles order persistence and queries.
type Service struct {
	db *Database
}

// NewService creates a new order service with the given database
// connection and numbering service.
func NewService(gormDB *gorm.DB, numberingService *numbering.Service) *Service {
	return &Service{
		db: NewDatabase(gormDB, numberingService),
	}
}

// GetOrder retrieves an order by its ID, nil when it does not exist.
func (s *Service) GetOrder(orderID uint) (*types.Order, error) {
	return s.db.GetOrder(orderID)
}

// GetItems retrieves the items of an order, ordered by item number.
func (s *Service) GetItems(orderID uint) ([]types.OrderItem, error) {
	return s.db.GetItems(orderID)
}

// GetReferences retrieves the outgoing traceability edges of an order.
func (s *Service) GetReferences(orderID uint) ([]types.OrderReference, error) {
	return s.db.GetReferences(orderID)
}

// GetReferencedBy retrieves the incoming traceability edges of an order.
func (s *Service) GetReferencedBy(orderID uint) ([]types.OrderReference, error) {
	return s.db.GetReferencedBy(orderID)
}

// CreateReference inserts one traceability edge.
func (s *Service) CreateReference(orderID uint, referencedOrderID, referencedSubBillID *uint) error {
	return s.db.CreateReference(orderID, referencedOrderID, referencedSubBillID)
}

// CreateDocument persists one fully described document atomically.
func (s *Service) CreateDocument(doc NewDocument, sideEffects func(tx *gorm.DB, created *types.Order) error) (*types.Order, error) {
	return s.db.CreateDocument(doc, sideEffects)
}

// CreateFromSource copies a source order into a new document of the target
// source type: counterparty and price summary are carried over, every item
// is copied with any per-item quantity override applied (matching prefers
// ISBN over item number), and one reference edge back to the source is
// created. The whole write set plus the sideEffects callback is one
// transaction.
//
// Returns the created order and the effective item rows it carries.
func (s *Service) CreateFromSource(
	sourceOrderID uint,
	target types.SourceType,
	overrides []types.ItemOverride,
	sideEffects func(tx *gorm.DB, created *types.Order, items []types.OrderItem) error,
) (*types.Order, []types.OrderItem, error) {
	source, err := s.db.GetOrder(sourceOrderID)
	if err != nil {
		return nil, nil, err
	}
	if source == nil {
		return nil, nil, apperrors.NewNotFound("source order", sourceOrderID)
	}

	sourceItems, err := s.db.GetItems(sourceOrderID)
	if err != nil {
		return nil, nil, err
	}
	if len(sourceItems) == 0 {
		return nil, nil, apperrors.NewValidation("source order #%d has no items", sourceOrderID)
	}

	items := applyOverrides(sourceItems, overrides)

	price := types.OrderPrice{}
	if sourcePrice, err := s.db.GetPrice(sourceOrderID); err != nil {
		return nil, nil, err
	} else if sourcePrice != nil {
		price.TotalPriceNoneTax = sourcePrice.TotalPriceNoneTax
		price.Tax = sourcePrice.Tax
		price.Discount = sourcePrice.Discount
		price.TotalPriceIncludeTax = sourcePrice.TotalPriceIncludeTax
	}

	refID := sourceOrderID
	doc := NewDocument{
		Source:            target,
		ObjectID:          source.ObjectID,
		EstablishSource:   types.EstablishSourceSystem,
		Remark:            fmt.Sprintf("converted from order #%d", sourceOrderID),
		Items:             items,
		Price:             price,
		ReferencedOrderID: &refID,
	}

	var inTx func(tx *gorm.DB, created *types.Order) error
	if sideEffects != nil {
		inTx = func(tx *gorm.DB, created *types.Order) error {
			return sideEffects(tx, created, items)
		}
	}

	created, err := s.db.CreateDocument(doc, inTx)
	if err != nil {
		return nil, nil, err
	}

	log.Info().
		Uint("source_order_id", sourceOrderID).
		Uint("order_id", created.ID).
		Str("source_type", target.String()).
		Int64("order_number", created.OrderNumber).
		Str("service", "orders").
		Msg("created order from source")

	return created, items, nil
}

// applyOverrides replaces item quantities with the requested overrides.
// An override keyed by ISBN wins over one keyed by item number.
func applyOverrides(sourceItems []types.OrderItem, overrides []types.ItemOverride) []types.OrderItem {
	byISBN := make(map[string]int)
	byNumber := make(map[int]int)
	for _, o := range overrides {
		if o.ISBN != "" {
			byISBN[o.ISBN] = o.Quantity
		} else if o.ItemNumber != 0 {
			byNumber[o.ItemNumber] = o.Quantity
		}
	}

	items := make([]types.OrderItem, len(sourceItems))
	copy(items, sourceItems)
	for i := range items {
		if qty, ok := byISBN[items[i].ISBN]; ok {
			items[i].Quantity = qty
		} else if qty, ok := byNumber[items[i].ItemNumber]; ok {
			items[i].Quantity = qty
		}
	}
	return items
}

// MarkWaitingFields records on the source order which waiting document it
// was converted into. Best-effort: the boolean result is informational.
func (s *Service) MarkWaitingFields(orderID uint, date string, number int64) bool {
	return s.db.MarkWaitingFields(orderID, date, number)
}

// MarkAlreadyFields records on the waiting order which finalized document
// it was converted into. Best-effort, like MarkWaitingFields.
func (s *Service) MarkAlreadyFields(orderID uint, date string, number int64) bool {
	return s.db.MarkAlreadyFields(orderID, date, number)
}

// CreateQuotation persists a manually entered quotation with its items
// and price summary.
func (s *Service) CreateQuotation(req *CreateQuotationRequest) (*types.Order, error) {
	items := make([]types.OrderItem, 0, len(req.Items))
	for i, line := range req.Items {
		items = append(items, types.OrderItem{
			ItemNumber:  i + 1,
			ISBN:        line.ISBN,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			Unit:        line.Unit,
			BatchPrice:  line.BatchPrice,
			SinglePrice: line.SinglePrice,
			Pricing:     line.Pricing,
			PriceAmount: line.PriceAmount,
			Remark:      line.Remark,
		})
	}

	doc := NewDocument{
		Source:          types.SourceQuotation,
		ObjectID:        req.ObjectID,
		EstablishSource: types.EstablishSourceManual,
		Remark:          req.Remark,
		CashierRemark:   req.CashierRemark,
		Items:           items,
		Price: types.OrderPrice{
			TotalPriceNoneTax:    req.TotalPriceNoneTax,
			Tax:                  req.Tax,
			Discount:             req.Discount,
			TotalPriceIncludeTax: req.TotalPriceIncludeTax,
		},
	}

	created, err := s.db.CreateDocument(doc, nil)
	if err != nil {
		return nil, err
	}

	log.Info().
		Uint("order_id", created.ID).
		Int64("order_number", created.OrderNumber).
		Str("object_id", req.ObjectID).
		Str("service", "orders").
		Msg("quotation created")

	return created, nil
}

// GetOrderDetail bundles an order with its items and references.
func (s *Service) GetOrderDetail(orderID uint) (*types.OrderDetail, error) {
	order, err := s.db.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperrors.NewNotFound("order", orderID)
	}

	items, err := s.db.GetItems(orderID)
	if err != nil {
		return nil, err
	}

	refs, err := s.db.GetReferences(orderID)
	if err != nil {
		return nil, err
	}

	return &types.OrderDetail{Order: *order, Items: items, References: refs}, nil
}

// ListOrders returns one filtered, paginated page of orders.
func (s *Service) ListOrders(filter ListFilter) (*ListResult, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = defaultPageSize
	}
	if filter.PageSize > maxPageSize {
		filter.PageSize = maxPageSize
	}

	ordersPage, total, err := s.db.ListOrders(filter)
	if err != nil {
		return nil, err
	}

	return &ListResult{
		Orders:   ordersPage,
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}, nil
}

// GetTraceability returns an order with its immediate neighbours in the
// derivation graph.
func (s *Service) GetTraceability(orderID uint) (*types.OrderTraceability, error) {
	order, err := s.db.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperrors.NewNotFound("order", orderID)
	}

	sources, err := s.db.GetSourceOrders(orderID)
	if err != nil {
		return nil, err
	}

	derived, err := s.db.GetDerivedOrders(orderID)
	if err != nil {
		return nil, err
	}

	return &types.OrderTraceability{
		Order:         *order,
		SourceOrders:  sources,
		DerivedOrders: derived,
	}, nil
}

// GinHandlers contains HTTP handlers for order endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for order endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

func parseOrderID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("order_id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid order id")
		return 0, false
	}
	return uint(id), true
}

// CreateQuotationHandler handles POST requests to create quotations
func (h *GinHandlers) CreateQuotationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateQuotationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		order, err := h.service.CreateQuotation(&req)
		response.Handle(c, order, err)
	}
}

// GetOrderHandler handles GET requests for full order details
// URL parameter: order_id
func (h *GinHandlers) GetOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := parseOrderID(c)
		if !ok {
			return
		}

		detail, err := h.service.GetOrderDetail(orderID)
		response.Handle(c, detail, err)
	}
}

// ListOrdersHandler handles GET requests for filtered order listings
// Query parameters: source, object_id, start_date, end_date, status, page, page_size
func (h *GinHandlers) ListOrdersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var filter ListFilter

		if raw := c.Query("source"); raw != "" {
			v, err := strconv.Atoi(raw)
			if err != nil {
				response.BadRequest(c, "invalid source filter")
				return
			}
			src := types.SourceType(v)
			filter.Source = &src
		}
		if raw := c.Query("status"); raw != "" {
			v, err := strconv.Atoi(raw)
			if err != nil {
				response.BadRequest(c, "invalid status filter")
				return
			}
			filter.Status = &v
		}
		filter.ObjectID = c.Query("object_id")
		filter.StartDate = c.Query("start_date")
		filter.EndDate = c.Query("end_date")
		filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
		filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

		result, err := h.service.ListOrders(filter)
		response.Handle(c, result, err)
	}
}

// GetTraceabilityHandler handles GET requests for the derivation graph of
// an order
// URL parameter: order_id
func (h *GinHandlers) GetTraceabilityHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := parseOrderID(c)
		if !ok {
			return
		}

		trace, err := h.service.GetTraceability(orderID)
		response.Handle(c, trace, err)
	}
}
