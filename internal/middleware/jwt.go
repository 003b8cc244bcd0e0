package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/swarnim921/Smart-Resume/internal/model"
)

// TokenParser is the part of the token service the middleware needs.
type TokenParser interface {
	Parse(raw string) (subject string, role model.Role, err error)
}

// BearerAuth rejects requests without a valid "Authorization: Bearer" token
// and stores the token's subject and role under ContextEmail and
// ContextRole.
func BearerAuth(tokens TokenParser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			raw, ok := strings.CutPrefix(auth, "Bearer ")
			if !ok || strings.TrimSpace(raw) == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			sub, role, err := tokens.Parse(strings.TrimSpace(raw))
			if err != nil || sub == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			c.Set(ContextEmail, sub)
			c.Set(ContextRole, role)
			return next(c)
		}
	}
}
