package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/swarnim921/Smart-Resume/internal/auth"
)

// OAuthHandler starts provider logins and receives their callbacks.
type OAuthHandler struct {
	Coord *auth.Coordinator
}

func NewOAuthHandler(coord *auth.Coordinator) *OAuthHandler { return &OAuthHandler{Coord: coord} }

// Authorize stores the ?role= hint and redirects to the provider.
func (h *OAuthHandler) Authorize(c echo.Context) error {
	dest, err := h.Coord.Begin(c.Response(), c.Request(), c.QueryParam("role"))
	if err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, dest)
}

// Callback always redirects, to the success page or the failure page.
func (h *OAuthHandler) Callback(c echo.Context) error {
	return c.Redirect(http.StatusFound, h.Coord.Callback(c.Response(), c.Request()))
}
