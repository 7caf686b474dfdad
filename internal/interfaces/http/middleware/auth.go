package middleware

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/erp/ledger-engine/internal/domain/shared"
	"github.com/erp/ledger-engine/internal/infrastructure/auth"
	"github.com/erp/ledger-engine/internal/infrastructure/logger"
	"github.com/erp/ledger-engine/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "

	// Trusted gateway headers, honoured only with AuthConfig.TrustHeaders
	UserIDHeader       = "X-User-ID"
	UsernameHeader     = "X-Username"
	CapabilitiesHeader = "X-Capabilities"

	callerKey = "caller"
)

// AuthConfig configures caller authentication
type AuthConfig struct {
	Tokens *auth.TokenService
	// TrustHeaders accepts the X-User-ID / X-Capabilities headers of a
	// trusted gateway when no bearer token is sent. Development only.
	TrustHeaders bool
	// SkipPaths are served without a caller
	SkipPaths []string
	Logger    *zap.Logger
}

// Authenticate resolves the caller identity of every request and stores it on
// the request context, where the application services read it. Requests
// without a valid identity are rejected with 401.
func Authenticate(cfg AuthConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		if slices.Contains(cfg.SkipPaths, c.Request.URL.Path) {
			c.Next()
			return
		}

		caller, err := resolveCaller(c, cfg)
		if err != nil {
			log.Warn("Authentication failed",
				zap.String("request_id", GetRequestID(c)),
				zap.String("path", c.Request.URL.Path),
				zap.Error(err),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(
				dto.ErrCodeUnauthorized, authErrorMessage(err), GetRequestID(c)))
			return
		}

		c.Set(callerKey, caller)

		ctx := shared.WithCaller(c.Request.Context(), caller)
		ctx = logger.WithContext(ctx, logger.FromContext(ctx).With(zap.String("user_id", caller.UserID.String())))
		c.Request = c.Request.WithContext(ctx)

		if span := trace.SpanFromContext(ctx); span.IsRecording() {
			span.SetAttributes(attribute.String("user_id", caller.UserID.String()))
		}

		c.Next()
	}
}

var errMissingCredentials = errors.New("missing credentials")

func resolveCaller(c *gin.Context, cfg AuthConfig) (shared.Caller, error) {
	if header := c.GetHeader(AuthHeaderKey); header != "" {
		token, ok := strings.CutPrefix(header, BearerPrefix)
		if !ok || token == "" {
			return shared.Caller{}, auth.ErrInvalidToken
		}
		if cfg.Tokens == nil {
			return shared.Caller{}, auth.ErrMissingSecret
		}
		claims, err := cfg.Tokens.Verify(token)
		if err != nil {
			return shared.Caller{}, err
		}
		return claims.Caller()
	}

	if cfg.TrustHeaders && c.GetHeader(UserIDHeader) != "" {
		return callerFromHeaders(c)
	}
	return shared.Caller{}, errMissingCredentials
}

func callerFromHeaders(c *gin.Context) (shared.Caller, error) {
	userID, err := uuid.Parse(c.GetHeader(UserIDHeader))
	if err != nil {
		return shared.Caller{}, auth.ErrMissingUserID
	}
	var caps []shared.Capability
	for _, capability := range strings.Split(c.GetHeader(CapabilitiesHeader), ",") {
		if capability = strings.TrimSpace(capability); capability != "" {
			caps = append(caps, shared.Capability(capability))
		}
	}
	return shared.Caller{
		UserID:       userID,
		Username:     c.GetHeader(UsernameHeader),
		Capabilities: caps,
	}, nil
}

func authErrorMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token has expired"
	case errors.Is(err, auth.ErrTokenNotYetValid):
		return "Token is not yet valid"
	case errors.Is(err, errMissingCredentials):
		return "Authentication required"
	default:
		return "Invalid token"
	}
}

// GetCaller returns the caller resolved by Authenticate
func GetCaller(c *gin.Context) (shared.Caller, bool) {
	v, ok := c.Get(callerKey)
	if !ok {
		return shared.Caller{}, false
	}
	caller, ok := v.(shared.Caller)
	return caller, ok
}
