package shared

import (
	"context"
	"slices"

	"github.com/google/uuid"
)

// Capability names a mutating operation a caller may be allowed to perform,
// in "resource:action" form.
type Capability string

const (
	CapPurchaseOrderCreate  Capability = "purchase_order:create"
	CapPurchaseOrderOrder   Capability = "purchase_order:order"
	CapPurchaseOrderReceive Capability = "purchase_order:receive"
	CapPurchaseOrderCancel  Capability = "purchase_order:cancel"
	CapSalesOrderCreate     Capability = "sales_order:create"
	CapSalesOrderConfirm    Capability = "sales_order:confirm"
	CapSalesOrderShip       Capability = "sales_order:ship"
	CapSalesOrderDeliver    Capability = "sales_order:deliver"
	CapSalesOrderCancel     Capability = "sales_order:cancel"
	CapInvoicePay           Capability = "invoice:pay"
	CapBankAccountCreate    Capability = "bank_account:create"
	CapLedgerAdjust         Capability = "ledger:adjust"
	CapExpenseCreate        Capability = "expense:create"
	CapStockCreate          Capability = "stock:create"
	CapStockAdjust          Capability = "stock:adjust"

	// CapAll grants every capability
	CapAll Capability = "*"
)

// Caller is the already-authenticated identity on whose behalf the engine acts.
type Caller struct {
	UserID       uuid.UUID
	Username     string
	Capabilities []Capability
	// System marks engine-initiated work such as auto-reorder
	System bool
}

// Has reports whether the caller holds the capability
func (c Caller) Has(capability Capability) bool {
	if c.System {
		return true
	}
	return slices.Contains(c.Capabilities, CapAll) || slices.Contains(c.Capabilities, capability)
}

// SystemCaller returns the identity used for engine-initiated operations
func SystemCaller() Caller {
	return Caller{Username: "system", System: true}
}

// Authorizer is consulted by application services before every mutating call.
// It must return ErrForbidden (or an error matching it) when the caller lacks
// the capability.
type Authorizer interface {
	Authorize(ctx context.Context, caller Caller, capability Capability) error
}

type callerKey struct{}

// WithCaller stores the caller identity on the context
func WithCaller(ctx context.Context, caller Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFromContext returns the caller stored on ctx, if any
func CallerFromContext(ctx context.Context) (Caller, bool) {
	caller, ok := ctx.Value(callerKey{}).(Caller)
	return caller, ok
}
