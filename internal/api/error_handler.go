package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/usermanagement/identity-api/internal/api/metrics"
	"github.com/usermanagement/identity-api/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

type errorMapping struct {
	target  error
	code    int
	message string
	// denial labels policy_denials_total; empty means the error is not a policy decision.
	denial string
}

var errorMappings = []errorMapping{
	{domain.ErrUserNotFound, http.StatusNotFound, "User not found", ""},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid username or password", ""},
	{domain.ErrTokenInvalid, http.StatusUnauthorized, "Invalid or expired token", ""},
	{domain.ErrTooManyAttempts, http.StatusTooManyRequests, "Too many failed login attempts. Try again later", ""},
	{domain.ErrUsernameTaken, http.StatusBadRequest, "Username already exists", ""},
	{domain.ErrEmailTaken, http.StatusBadRequest, "Email already exists", ""},
	{domain.ErrRoleNotFound, http.StatusBadRequest, "Invalid role specified", ""},
	{domain.ErrInvalidRole, http.StatusBadRequest, "Invalid role specified", ""},
	{domain.ErrOldPasswordRequired, http.StatusBadRequest, "Old password is required to change password", "old_password_required"},
	{domain.ErrIncorrectCurrentPassword, http.StatusBadRequest, "Current password is incorrect", "incorrect_password"},
	{domain.ErrCannotModifySystemUser, http.StatusForbidden, "Cannot modify default system users", "system_user"},
	{domain.ErrCannotDeleteSystemUser, http.StatusForbidden, "Cannot delete default system users", "system_user"},
	{domain.ErrCannotDeleteSelf, http.StatusForbidden, "Cannot delete your own account", "self_delete"},
	{domain.ErrForbidden, http.StatusForbidden, "Access forbidden", "forbidden"},
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"message": "...", "errors": {...}}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, auth header, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Message: fmt.Sprintf("%v", he.Message)}
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, errorResponse{Message: "Validation failed", Errors: ve.Fields}
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			if m.denial != "" {
				metrics.PolicyDenialsTotal.WithLabelValues(m.denial).Inc()
			}
			return m.code, errorResponse{Message: m.message}
		}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Message: "An error occurred while processing your request"}
}
