package types

import "fmt"

// SourceType identifies which stage of the order lifecycle a document
// represents. The ordinal values are stored in the database and must not
// be reordered.
type SourceType int

const (
	SourceQuotation       SourceType = 0
	SourceSubBill         SourceType = 1
	SourcePurchase        SourceType = 2
	SourceWaitingShipment SourceType = 3
	SourceShipment        SourceType = 4
	SourceWaitingReceipt  SourceType = 5
	SourceReceipt         SourceType = 6
)

func (s SourceType) String() string {
	switch s {
	case SourceQuotation:
		return "QUOTATION"
	case SourceSubBill:
		return "SUB_BILL"
	case SourcePurchase:
		return "PURCHASE"
	case SourceWaitingShipment:
		return "WAITING_SHIPMENT"
	case SourceShipment:
		return "SHIPMENT"
	case SourceWaitingReceipt:
		return "WAITING_RECEIPT"
	case SourceReceipt:
		return "RECEIPT"
	default:
		return fmt.Sprintf("SOURCE_TYPE(%d)", int(s))
	}
}

// EstablishSource records whether a document was created by the system
// (conversion, auto purchase) or entered manually.
const (
	EstablishSourceSystem = 0
	EstablishSourceManual = 1
)
