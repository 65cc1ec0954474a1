package orders

import "github.com/bookline/orders-api/internal/types"

// NewDocument describes one document to persist: header fields, item rows,
// price summary, and the optional traceability edge back to the document
// it was derived from. All rows are written in a single transaction.
type NewDocument struct {
	Source              types.SourceType
	ObjectID            string
	EstablishSource     int
	Remark              string
	CashierRemark       string
	Items               []types.OrderItem
	Price               types.OrderPrice
	ReferencedOrderID   *uint
	ReferencedSubBillID *uint
}

// QuotationItem is one line of an incoming quotation.
type QuotationItem struct {
	ISBN        string  `json:"isbn" binding:"required"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity" binding:"required,gt=0"`
	Unit        string  `json:"unit"`
	BatchPrice  float64 `json:"batch_price"`
	SinglePrice float64 `json:"single_price"`
	Pricing     float64 `json:"pricing"`
	PriceAmount int     `json:"price_amount"`
	Remark      string  `json:"remark"`
}

// CreateQuotationRequest is the intake payload for a new quotation.
type CreateQuotationRequest struct {
	ObjectID             string          `json:"object_id" binding:"required"`
	Remark               string          `json:"remark"`
	CashierRemark        string          `json:"cashier_remark"`
	Items                []QuotationItem `json:"items" binding:"required,min=1,dive"`
	TotalPriceNoneTax    float64         `json:"total_price_none_tax"`
	Tax                  float64         `json:"tax"`
	Discount             float64         `json:"discount"`
	TotalPriceIncludeTax float64         `json:"total_price_include_tax"`
}

// ListFilter narrows an order listing. Zero values mean no filtering.
type ListFilter struct {
	Source    *types.SourceType
	ObjectID  string
	StartDate string
	EndDate   string
	Status    *int
	Page      int
	PageSize  int
}

// ListResult is one page of orders plus the unpaged total.
type ListResult struct {
	Orders   []types.Order `json:"orders"`
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}
