package stock

// Field names one of the three mutable stock counters. Adjustments go
// through this closed set so the column name never comes from caller
// input.
type Field int

const (
	FieldInStock Field = iota
	FieldWaitingIntoInStock
	FieldWaitingShipmentQuantity
)

func (f Field) column() string {
	switch f {
	case FieldInStock:
		return "in_stock"
	case FieldWaitingIntoInStock:
		return "waiting_into_in_stock"
	case FieldWaitingShipmentQuantity:
		return "waiting_shipment_quantity"
	default:
		return ""
	}
}

func (f Field) String() string {
	return f.column()
}
