package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/swarnim921/Smart-Resume/internal/model"
)

// Context keys set by BearerAuth.
const (
	ContextEmail = "email"
	ContextRole  = "role"
)

// Subject returns the bearer's email, or "" on unauthenticated routes.
func Subject(c echo.Context) string {
	s, _ := c.Get(ContextEmail).(string)
	return s
}

// RoleOf returns the bearer's role, or "" on unauthenticated routes.
func RoleOf(c echo.Context) model.Role {
	r, _ := c.Get(ContextRole).(model.Role)
	return r
}

// userID identifies the caller for rate limit keys. It returns "anon" when
// no bearer was accepted.
func userID(c echo.Context) string {
	if s := Subject(c); s != "" {
		return s
	}
	return "anon"
}
