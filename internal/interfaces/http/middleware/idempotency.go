package middleware

import (
	"context"
	"net/http"

	"github.com/erp/ledger-engine/internal/domain/shared"
	"github.com/erp/ledger-engine/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	IdempotencyKeyHeader    = "Idempotency-Key"
	MaxIdempotencyKeyLength = 255
)

// IdempotencyKey rejects a mutating request whose Idempotency-Key was already
// used by the same caller on the same path within the configured TTL.
// Requests without the header pass through unguarded. A request that does
// not succeed gives its key back so the client can retry with it.
func IdempotencyKey(store shared.IdempotencyStore, cfg shared.IdempotencyConfig, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	if store == nil || !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" || !isMutating(c.Request.Method) {
			c.Next()
			return
		}
		if len(key) > MaxIdempotencyKeyLength {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(
				dto.ErrCodeBadRequest, "Idempotency-Key is too long", GetRequestID(c)))
			return
		}

		storeKey := idempotencyStoreKey(c, key)
		claimed, err := store.MarkProcessed(c.Request.Context(), storeKey, cfg.TTL)
		if err != nil {
			log.Warn("Idempotency store unavailable, processing request unguarded",
				zap.String("request_id", GetRequestID(c)),
				zap.Error(err),
			)
			c.Next()
			return
		}
		if !claimed {
			c.AbortWithStatusJSON(http.StatusConflict, dto.NewErrorResponse(
				dto.ErrCodeDuplicateRequest,
				"A request with this Idempotency-Key was already processed",
				GetRequestID(c),
			))
			return
		}

		c.Next()

		if c.Writer.Status() >= http.StatusBadRequest {
			if err := store.Release(context.WithoutCancel(c.Request.Context()), storeKey); err != nil {
				log.Warn("Failed to release idempotency key",
					zap.String("request_id", GetRequestID(c)),
					zap.Error(err),
				)
			}
		}
	}
}

func idempotencyStoreKey(c *gin.Context, key string) string {
	subject := "anonymous"
	if caller, ok := GetCaller(c); ok {
		subject = caller.UserID.String()
	}
	return "http:" + subject + ":" + c.Request.Method + ":" + c.Request.URL.Path + ":" + key
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
