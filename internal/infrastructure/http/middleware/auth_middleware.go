package middleware

import (
	stdErrors "errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-knowledge/errors"
	"github.com/johnquangdev/meeting-knowledge/pkg/jwt"
)

// ClaimsContextKey is the echo context key for verified token claims
const ClaimsContextKey = "claims"

// AuthMiddleware is the bearer token authentication middleware
type AuthMiddleware struct {
	tokens *jwt.Manager
	logger *zap.Logger
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(tokens *jwt.Manager, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		tokens: tokens,
		logger: logger,
	}
}

// Authenticate validates the bearer token and stores its claims in the
// echo context. Errors are returned to the echo error handler.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := extractToken(c)
		if token == "" {
			return errors.ErrUnauthenticated()
		}

		claims, err := m.tokens.ValidateToken(token)
		if err != nil {
			if m.logger != nil {
				m.logger.Debug("Rejected API token",
					zap.String("path", c.Path()),
					zap.Error(err))
			}
			if stdErrors.Is(err, jwt.ErrExpiredToken) {
				return errors.ErrTokenExpired()
			}
			return errors.ErrInvalidToken()
		}

		c.Set(ClaimsContextKey, claims)
		return next(c)
	}
}

// RequireScope rejects requests whose token lacks scope
func (m *AuthMiddleware) RequireScope(scope string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := ClaimsFromContext(c)
			if !ok {
				return errors.ErrUnauthenticated()
			}
			if !claims.HasScope(scope) {
				return errors.ErrForbidden("token lacks the " + scope + " scope")
			}
			return next(c)
		}
	}
}

// RequireWriteOnMutations applies RequireScope(write) to every method
// other than GET, HEAD and OPTIONS
func (m *AuthMiddleware) RequireWriteOnMutations(next echo.HandlerFunc) echo.HandlerFunc {
	write := m.RequireScope(jwt.ScopeWrite)(next)
	read := m.RequireScope(jwt.ScopeRead)(next)
	return func(c echo.Context) error {
		switch c.Request().Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			return read(c)
		}
		return write(c)
	}
}

// ClaimsFromContext retrieves the verified claims from the echo context
func ClaimsFromContext(c echo.Context) (*jwt.Claims, bool) {
	claims, ok := c.Get(ClaimsContextKey).(*jwt.Claims)
	return claims, ok
}

func extractToken(c echo.Context) string {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		return ""
	}
	// Expected format: "Bearer <token>"
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
