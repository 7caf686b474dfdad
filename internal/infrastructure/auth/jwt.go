// Package auth verifies bearer tokens into caller identities and checks
// capabilities on behalf of the application services.
package auth

import (
	"errors"
	"time"

	"github.com/erp/ledger-engine/internal/domain/shared"
	"github.com/erp/ledger-engine/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrMissingUserID    = errors.New("missing user_id in claims")
	ErrMissingSecret    = errors.New("jwt secret is not configured")
)

// Claims are the engine's bearer token claims. Capabilities use the
// "resource:action" names of shared.Capability, or "*".
type Claims struct {
	jwt.RegisteredClaims
	UserID       string   `json:"user_id"`
	Username     string   `json:"username"`
	Capabilities []string `json:"capabilities,omitempty"`
}

// Caller converts verified claims into the identity the engine acts for
func (c *Claims) Caller() (shared.Caller, error) {
	userID, err := uuid.Parse(c.UserID)
	if err != nil {
		return shared.Caller{}, ErrMissingUserID
	}
	caps := make([]shared.Capability, len(c.Capabilities))
	for i, capability := range c.Capabilities {
		caps[i] = shared.Capability(capability)
	}
	return shared.Caller{UserID: userID, Username: c.Username, Capabilities: caps}, nil
}

// TokenService signs and verifies HS256 tokens issued for this engine
type TokenService struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewTokenService(cfg config.JWTConfig) *TokenService {
	return &TokenService{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		now:    time.Now,
	}
}

// IssueInput describes the caller a token is minted for
type IssueInput struct {
	UserID       uuid.UUID
	Username     string
	Capabilities []shared.Capability
	TTL          time.Duration
}

// Issue signs a token for input. Used by operators and tests; the engine
// itself only verifies.
func (s *TokenService) Issue(input IssueInput) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrMissingSecret
	}
	now := s.now()
	caps := make([]string, len(input.Capabilities))
	for i, capability := range input.Capabilities {
		caps[i] = string(capability)
	}
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   input.UserID.String(),
			Audience:  jwt.ClaimStrings{s.issuer},
			ExpiresAt: jwt.NewNumericDate(now.Add(input.TTL)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID:       input.UserID.String(),
		Username:     input.Username,
		Capabilities: caps,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify parses tokenString, checking signature, issuer, audience and time
// claims.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	if len(s.secret) == 0 {
		return nil, ErrMissingSecret
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(token *jwt.Token) (any, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		default:
			return nil, ErrInvalidToken
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == "" {
		return nil, ErrMissingUserID
	}
	return claims, nil
}
