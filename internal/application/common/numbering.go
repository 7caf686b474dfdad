package common

// Document number prefixes
const (
	PrefixPurchaseOrder = "PO"
	PrefixSalesOrder    = "SO"
	PrefixInvoice       = "INV"
)

// NumberGenerator issues unique human readable document numbers such as
// PO-1790000000000000000.
type NumberGenerator interface {
	Next(prefix string) string
}
