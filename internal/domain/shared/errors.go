package shared

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-level error.
// Two DomainErrors match under errors.Is when their codes are equal, so callers
// can compare against the predefined values below even when the message differs.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target carries the same error code
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Errorf creates a domain error with the code of base and a formatted message
func (e *DomainError) Errorf(format string, args ...any) *DomainError {
	return NewDomainError(e.Code, fmt.Sprintf(format, args...))
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrUnauthorized        = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrForbidden           = NewDomainError("FORBIDDEN", "Access to this resource is forbidden")
)

// Order lifecycle and ledger errors
var (
	ErrInvalidTransition = NewDomainError("INVALID_TRANSITION", "Transition not allowed from the current state")
	ErrInsufficientStock = NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock available")
	ErrNegativeStock     = NewDomainError("NEGATIVE_STOCK", "Stock cannot become negative")
	ErrDuplicateInvoice  = NewDomainError("DUPLICATE_INVOICE", "An invoice already exists for this order")
	ErrAlreadyPaid       = NewDomainError("ALREADY_PAID", "Invoice is already paid")
	ErrInvoiceNotFound   = NewDomainError("INVOICE_NOT_FOUND", "Invoice not found")
	ErrAccountNotFound   = NewDomainError("ACCOUNT_NOT_FOUND", "Bank account not found")
	ErrOrderNotFound     = NewDomainError("ORDER_NOT_FOUND", "Order not found")
	ErrProductNotFound   = NewDomainError("PRODUCT_NOT_FOUND", "Product not found")
	ErrInsufficientFunds = NewDomainError("INSUFFICIENT_FUNDS", "Insufficient funds in bank account")
	ErrLedgerDrift       = NewDomainError("LEDGER_DRIFT", "Account balance does not match its transaction log")
)
