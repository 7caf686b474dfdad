package auth

import (
	"context"

	"github.com/erp/ledger-engine/internal/domain/shared"
	"github.com/erp/ledger-engine/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// CapabilityAuthorizer grants an operation when the caller's capability list
// contains it or "*". System callers are always granted. Denials are logged.
type CapabilityAuthorizer struct {
	logger *zap.Logger
}

func NewCapabilityAuthorizer(logger *zap.Logger) *CapabilityAuthorizer {
	return &CapabilityAuthorizer{logger: logger.Named("authorizer")}
}

func (a *CapabilityAuthorizer) Authorize(ctx context.Context, caller shared.Caller, capability shared.Capability) error {
	if caller.Has(capability) {
		return nil
	}
	logger.Enrich(ctx, a.logger).Warn("Capability denied",
		zap.String("capability", string(capability)),
	)
	return shared.ErrForbidden.Errorf("Caller %s lacks capability %s", caller.Username, capability)
}

var _ shared.Authorizer = (*CapabilityAuthorizer)(nil)
