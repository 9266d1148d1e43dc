package jwtx

import (
	"slices"
	"time"

	"github.com/aussiebroadwan/custodian/pkg/idx"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultGatewayTokenTTL is the lifetime of a freshly minted gateway token.
// Gateways are long-running bots, so tokens are rotated by redeploying.
const DefaultGatewayTokenTTL = 30 * 24 * time.Hour

// Scopes granted to chat gateways.
const (
	ScopeEnroll = "custody:enroll"
	ScopeRead   = "custody:read"
	ScopeVerify = "custody:verify"
)

// AllScopes is every scope a gateway may hold.
var AllScopes = []string{ScopeEnroll, ScopeRead, ScopeVerify}

// Claims identify a chat gateway (for example the Telegram bot) calling the
// custody API on behalf of its users.
type Claims struct {
	jwt.RegisteredClaims

	// Permission scopes, e.g. "custody:enroll".
	Scopes []string `json:"scopes,omitempty"`
}

// NewGatewayClaims builds claims for subject valid from now for ttl.
func NewGatewayClaims(subject, issuer string, scopes []string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        idx.NewAt(now).String(),
		},
		Scopes: scopes,
	}
}

// HasScope reports whether the claims grant scope.
func (c *Claims) HasScope(scope string) bool {
	return slices.Contains(c.Scopes, scope)
}

// ValidateIssuer checks the issuer when one is expected.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateExpiryWithLeeway checks exp and nbf with a grace period for clock skew.
func (c *Claims) ValidateExpiryWithLeeway(now time.Time, leeway time.Duration) error {
	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)) {
		return ErrNotYetValid
	}
	return nil
}
