package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/usermanagement/identity-api/internal/core/domain"
)

const claimsKey = "claims"

// SessionVerifier validates a bearer token and returns its claims.
type SessionVerifier interface {
	VerifySession(ctx context.Context, token string) (*domain.Claims, error)
}

// Auth requires a valid bearer token and injects its claims into the context.
func Auth(verifier SessionVerifier) echo.MiddlewareFunc {
	return authenticate(verifier, true)
}

// OptionalAuth injects claims when a bearer token is present. Requests without
// an Authorization header pass through as anonymous; a bad token is still
// rejected.
func OptionalAuth(verifier SessionVerifier) echo.MiddlewareFunc {
	return authenticate(verifier, false)
}

func authenticate(verifier SessionVerifier, required bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				if required {
					return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
				}
				return next(c)
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims, err := verifier.VerifySession(c.Request().Context(), strings.TrimSpace(parts[1]))
			if err != nil {
				return err
			}

			c.Set(claimsKey, claims)
			return next(c)
		}
	}
}

// ClaimsFrom returns the claims set by Auth, or nil for anonymous requests.
func ClaimsFrom(c echo.Context) *domain.Claims {
	claims, _ := c.Get(claimsKey).(*domain.Claims)
	return claims
}
