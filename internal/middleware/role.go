package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/swarnim921/Smart-Resume/internal/model"
)

// RequireRole lets the request through only if BearerAuth stored one of
// roles. Anything else, including a missing role, is a 403.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !allowed[RoleOf(c)] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
