package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/swarnim921/Smart-Resume/internal/auth"
	"github.com/swarnim921/Smart-Resume/internal/middleware"
)

// UserHandler serves account endpoints for the bearer and for admins.
type UserHandler struct {
	Svc *auth.Service
}

func NewUserHandler(svc *auth.Service) *UserHandler { return &UserHandler{Svc: svc} }

// Me returns the bearer's own account.
func (h *UserHandler) Me(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	u, err := h.Svc.Me(ctx, middleware.Subject(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResp(u))
}

// DeleteMe removes the bearer's own account. Existing tokens stay valid
// until they expire but no longer resolve to an account.
func (h *UserHandler) DeleteMe(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	sub := middleware.Subject(c)
	if err := h.Svc.DeleteUser(ctx, sub, sub); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	users, err := h.Svc.ListUsers(ctx)
	if err != nil {
		return err
	}
	out := make([]userResp, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResp(u))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *UserHandler) UpdateRole(c echo.Context) error {
	var req updateRoleReq
	if err := c.Bind(&req); err != nil {
		return errBadBody
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	u, err := h.Svc.UpdateRole(ctx, middleware.Subject(c), req.Email, req.Role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Role updated successfully",
		"email":   u.Email,
		"newRole": u.Role.String(),
	})
}

func (h *UserHandler) Delete(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	if err := h.Svc.DeleteUser(ctx, middleware.Subject(c), c.Param("email")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// CreateInitialAdmin is public and works exactly once.
func (h *UserHandler) CreateInitialAdmin(c echo.Context) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return errBadBody
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	u, err := h.Svc.BootstrapAdmin(ctx, auth.Credentials{Name: req.Name, Email: req.Email, Password: req.Password})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "Initial admin created successfully", "email": u.Email})
}
