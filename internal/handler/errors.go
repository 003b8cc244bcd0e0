package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/swarnim921/Smart-Resume/internal/auth"
	"github.com/swarnim921/Smart-Resume/internal/logger"
)

const internalErrorMessage = "internal server error"

// statusOf maps an error to a status code and a client-safe body. Anything
// unrecognised is a generic 500.
func statusOf(err error) (int, echo.Map) {
	var (
		he         *echo.HTTPError
		unverified *auth.UnverifiedError
		invalid    *auth.ValidationError
	)
	switch {
	case errors.As(err, &he):
		msg, ok := he.Message.(string)
		if !ok || he.Code >= http.StatusInternalServerError {
			msg = http.StatusText(he.Code)
		}
		return he.Code, echo.Map{"error": msg}
	case errors.As(err, &unverified):
		return http.StatusForbidden, echo.Map{
			"error":                "Please verify your email before signing in",
			"requiresVerification": true,
			"email":                unverified.Email,
		}
	case errors.As(err, &invalid):
		return http.StatusBadRequest, echo.Map{"error": invalid.Error()}
	case errors.Is(err, auth.ErrInvalidInput):
		return http.StatusBadRequest, echo.Map{"error": "invalid request"}
	case errors.Is(err, auth.ErrEmailTaken):
		return http.StatusBadRequest, echo.Map{"error": "Email already exists"}
	case errors.Is(err, auth.ErrInvalidCode):
		return http.StatusBadRequest, echo.Map{"error": "Invalid or expired verification code"}
	case errors.Is(err, auth.ErrAlreadyVerified):
		return http.StatusBadRequest, echo.Map{"error": "User not found or already verified"}
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrTokenInvalid):
		return http.StatusUnauthorized, echo.Map{"error": "Invalid credentials"}
	case errors.Is(err, auth.ErrUserNotFound):
		return http.StatusNotFound, echo.Map{"error": "User not found"}
	case errors.Is(err, auth.ErrAdminExists):
		return http.StatusConflict, echo.Map{"error": "Admin already exists"}
	case errors.Is(err, auth.ErrEmailDelivery):
		return http.StatusInternalServerError, echo.Map{"error": "Failed to send verification email"}
	default:
		return http.StatusInternalServerError, echo.Map{"error": internalErrorMessage}
	}
}

// ErrorHandler is installed as echo.HTTPErrorHandler. Server errors are
// logged with their cause; clients only see the mapped message.
func ErrorHandler(log *slog.Logger) echo.HTTPErrorHandler {
	log = log.With(logger.Component("http"))
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, body := statusOf(err)
		if status >= http.StatusInternalServerError {
			log.Error("request failed",
				logger.Error(err),
				slog.String("method", c.Request().Method),
				slog.String("path", c.Path()),
			)
		}
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			log.Error("write error response", logger.Error(err))
		}
	}
}
