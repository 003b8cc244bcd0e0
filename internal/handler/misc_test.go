package handler_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/swarnim921/Smart-Resume/internal/auth"
	"github.com/swarnim921/Smart-Resume/internal/handler"
	"github.com/swarnim921/Smart-Resume/internal/logger"
)

func TestHealthAndVersion(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = s.do(t, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/version", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "1.2.3", body["version"])
	assert.Equal(t, "abc123", body["commit"])
}

func TestErrorHandlerMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{errors.New("db exploded"), http.StatusInternalServerError, "internal server error"},
		{auth.ErrAdminExists, http.StatusConflict, "Admin already exists"},
		{auth.ErrEmailDelivery, http.StatusInternalServerError, "Failed to send verification email"},
		{&auth.ValidationError{Field: "email", Msg: "is required"}, http.StatusBadRequest, "email is required"},
		{echo.NewHTTPError(http.StatusTeapot, "short and stout"), http.StatusTeapot, "short and stout"},
	}
	for _, tc := range cases {
		e := echo.New()
		e.HTTPErrorHandler = handler.ErrorHandler(logger.Discard())
		e.GET("/x", func(echo.Context) error { return tc.err })

		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
		assert.Equal(t, tc.status, rec.Code, tc.err.Error())
		assert.Contains(t, rec.Body.String(), tc.msg)
		assert.NotContains(t, rec.Body.String(), "db exploded")
	}
}
