package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/cargoflow/pricing-api/internal/api/metrics"
	"github.com/cargoflow/pricing-api/pkg/token"
)

// Context keys populated by the guard on successful authentication.
const (
	CtxUserID = "user_id"
	CtxRole   = "role"
)

// TokenVerifier validates a bearer credential and returns its claims.
type TokenVerifier interface {
	Verify(tokenString string) (*token.Claims, error)
}

// Guard is the access gate for protected routes. It verifies bearer
// tokens and enforces role membership. The role check only exists inside
// Require, after authentication has succeeded, so an authorize step can
// never run against an unauthenticated request.
type Guard struct {
	tokens TokenVerifier
}

func NewGuard(tokens TokenVerifier) *Guard {
	return &Guard{tokens: tokens}
}

// Authenticate validates the bearer token and injects the identity into
// the request context. Missing, malformed, invalid and expired tokens
// are all terminal 401s.
func (g *Guard) Authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := g.authenticate(c)
			if err != nil {
				return err
			}
			c.Set(CtxUserID, claims.UserID)
			c.Set(CtxRole, claims.Role)
			return next(c)
		}
	}
}

// Require authenticates the request and then checks the decoded role
// against the allow-list. A valid identity outside the allowed roles is
// a terminal 403.
func (g *Guard) Require(allowedRoles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := g.authenticate(c)
			if err != nil {
				return err
			}
			if _, ok := allowed[claims.Role]; !ok {
				return echo.NewHTTPError(http.StatusForbidden, "insufficient permissions")
			}
			c.Set(CtxUserID, claims.UserID)
			c.Set(CtxRole, claims.Role)
			return next(c)
		}
	}
}

func (g *Guard) authenticate(c echo.Context) (*token.Claims, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		metrics.TokenVerificationsTotal.WithLabelValues("missing").Inc()
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		metrics.TokenVerificationsTotal.WithLabelValues("malformed").Inc()
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
	}

	claims, err := g.tokens.Verify(parts[1])
	if err != nil {
		metrics.TokenVerificationsTotal.WithLabelValues("invalid").Inc()
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	metrics.TokenVerificationsTotal.WithLabelValues("ok").Inc()
	return claims, nil
}
