package auth

import (
	"context"
	"testing"

	"github.com/erp/ledger-engine/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestCapabilityAuthorizer(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	authorizer := NewCapabilityAuthorizer(zap.New(core))
	ctx := context.Background()

	clerk := shared.Caller{UserID: uuid.New(), Username: "clerk", Capabilities: []shared.Capability{shared.CapInvoicePay}}
	admin := shared.Caller{UserID: uuid.New(), Username: "admin", Capabilities: []shared.Capability{shared.CapAll}}

	assert.NoError(t, authorizer.Authorize(ctx, clerk, shared.CapInvoicePay))
	assert.NoError(t, authorizer.Authorize(ctx, admin, shared.CapLedgerAdjust))
	assert.NoError(t, authorizer.Authorize(ctx, shared.SystemCaller(), shared.CapPurchaseOrderCreate))

	err := authorizer.Authorize(ctx, clerk, shared.CapLedgerAdjust)
	assert.ErrorIs(t, err, shared.ErrForbidden)
	assert.Equal(t, 1, logs.FilterMessage("Capability denied").Len())
}
