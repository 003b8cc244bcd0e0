package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// VersionHandler reports build information. It has no auth dependency.
type VersionHandler struct {
	Version string
	Commit  string
	Env     string
}

func (h VersionHandler) Get(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"service": "smart-resume",
		"version": h.Version,
		"commit":  h.Commit,
		"env":     h.Env,
	})
}
