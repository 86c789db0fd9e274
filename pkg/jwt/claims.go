package jwt

import (
	"github.com/golang-jwt/jwt/v5"
)

// Scopes carried by API tokens
const (
	ScopeRead  = "read"
	ScopeWrite = "write"
)

// Claims represents API token claims. Subject names the client.
type Claims struct {
	Scopes []string `json:"scopes"`
	jwt.RegisteredClaims
}

// HasScope reports whether the token grants scope. write implies read.
func (c *Claims) HasScope(scope string) bool {
	for _, s := range c.Scopes {
		if s == scope || (s == ScopeWrite && scope == ScopeRead) {
			return true
		}
	}
	return false
}
