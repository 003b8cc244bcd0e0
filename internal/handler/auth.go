package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/swarnim921/Smart-Resume/internal/auth"
)

const requestTimeout = 10 * time.Second

var errBadBody = echo.NewHTTPError(http.StatusBadRequest, "Request body required")

// AuthHandler serves the password flows.
type AuthHandler struct {
	Svc *auth.Service
}

func NewAuthHandler(svc *auth.Service) *AuthHandler { return &AuthHandler{Svc: svc} }

// Signup returns the handler for one signup path. The role comes from path
// alone.
func (h *AuthHandler) Signup(path string) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req signupReq
		if err := c.Bind(&req); err != nil {
			return errBadBody
		}
		ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
		defer cancel()

		s, err := h.Svc.Signup(ctx, path, auth.Credentials{Name: req.Name, Email: req.Email, Password: req.Password})
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, signupResp{
			ID:    s.User.ID,
			Name:  s.User.Name,
			Email: s.User.Email,
			Role:  s.User.Role.Label(),
			Token: s.Token,
		})
	}
}

func (h *AuthHandler) Signin(c echo.Context) error {
	var req signinReq
	if err := c.Bind(&req); err != nil {
		return errBadBody
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	s, err := h.Svc.Signin(ctx, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, signinResp{
		Token: s.Token,
		Name:  s.User.Name,
		Email: s.User.Email,
		Role:  s.User.Role.Label(),
	})
}

func (h *AuthHandler) Verify(c echo.Context) error {
	var req verifyReq
	if err := c.Bind(&req); err != nil {
		return errBadBody
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	s, err := h.Svc.Verify(ctx, req.Email, req.Code)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, verifyResp{Token: s.Token, Name: s.User.Name, Role: s.User.Role.Label()})
}

func (h *AuthHandler) Resend(c echo.Context) error {
	var req resendReq
	if err := c.Bind(&req); err != nil {
		return errBadBody
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Svc.Resend(ctx, req.Email); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Verification code sent"})
}
