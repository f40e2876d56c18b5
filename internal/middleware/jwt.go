package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/olekventi/chatly/internal/auth"
)

// Context keys set by the auth middleware for downstream handlers.
const (
	CtxUserID   = "user_id"
	CtxClientID = "client_id"
	CtxTokenIP  = "token_ip"
)

// UserAuth returns middleware that validates a Bearer user access
// token and stores the authenticated user id in the request context.
// Protected routes read it back via `c.Get(middleware.CtxUserID)`.
func UserAuth(issuer *auth.TokenIssuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c)
			if !ok {
				return unauthorized(c, "missing bearer token")
			}
			claims, err := issuer.ParseAccess(raw)
			if err != nil {
				return unauthorized(c, "invalid token")
			}
			c.Set(CtxUserID, claims.UserID)
			c.Set(CtxTokenIP, claims.IP)
			return next(c)
		}
	}
}

// ClientAuth returns middleware that validates a Bearer client token
// for pre-auth surfaces such as the contact form.
func ClientAuth(issuer *auth.TokenIssuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c)
			if !ok {
				return unauthorized(c, "missing bearer token")
			}
			claims, err := issuer.ParseClient(raw)
			if err != nil {
				return unauthorized(c, "invalid token")
			}
			c.Set(CtxClientID, claims.ClientID)
			c.Set(CtxTokenIP, claims.IP)
			return next(c)
		}
	}
}

func bearerToken(c echo.Context) (string, bool) {
	header := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	raw := strings.TrimPrefix(header, "Bearer ")
	return raw, raw != ""
}

func unauthorized(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": msg})
}
