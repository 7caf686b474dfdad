package common

import (
	"context"

	"github.com/erp/ledger-engine/internal/domain/shared"
)

// Authorize checks that the caller carried by ctx holds capability.
// A context without a caller is rejected with ErrUnauthorized. When no
// authorizer is configured the caller's own capability list decides.
func Authorize(ctx context.Context, authorizer shared.Authorizer, capability shared.Capability) error {
	caller, ok := shared.CallerFromContext(ctx)
	if !ok {
		return shared.ErrUnauthorized
	}
	if authorizer != nil {
		return authorizer.Authorize(ctx, caller, capability)
	}
	if !caller.Has(capability) {
		return shared.ErrForbidden.Errorf("Caller %s lacks capability %s", caller.Username, capability)
	}
	return nil
}
