package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/usermanagement/identity-api/internal/core/domain"
)

func renderError(t *testing.T, err error) (int, errorResponse) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/users/5", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	NewHTTPErrorHandler(zerolog.Nop())(err, c)

	var body errorResponse
	if jerr := json.Unmarshal(rec.Body.Bytes(), &body); jerr != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), jerr)
	}
	return rec.Code, body
}

func TestErrorHandler_DomainErrors(t *testing.T) {
	cases := []struct {
		err  error
		code int
		msg  string
	}{
		{domain.ErrUserNotFound, http.StatusNotFound, "User not found"},
		{domain.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid username or password"},
		{domain.ErrTokenInvalid, http.StatusUnauthorized, "Invalid or expired token"},
		{domain.ErrTooManyAttempts, http.StatusTooManyRequests, "Too many failed login attempts. Try again later"},
		{domain.ErrUsernameTaken, http.StatusBadRequest, "Username already exists"},
		{domain.ErrEmailTaken, http.StatusBadRequest, "Email already exists"},
		{domain.ErrRoleNotFound, http.StatusBadRequest, "Invalid role specified"},
		{domain.ErrInvalidRole, http.StatusBadRequest, "Invalid role specified"},
		{domain.ErrOldPasswordRequired, http.StatusBadRequest, "Old password is required to change password"},
		{domain.ErrIncorrectCurrentPassword, http.StatusBadRequest, "Current password is incorrect"},
		{domain.ErrForbidden, http.StatusForbidden, "Access forbidden"},
		{domain.ErrCannotModifySystemUser, http.StatusForbidden, "Cannot modify default system users"},
		{domain.ErrCannotDeleteSystemUser, http.StatusForbidden, "Cannot delete default system users"},
		{domain.ErrCannotDeleteSelf, http.StatusForbidden, "Cannot delete your own account"},
	}

	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			code, body := renderError(t, fmt.Errorf("service: %w", tc.err))
			if code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, code)
			}
			if body.Message != tc.msg {
				t.Fatalf("expected %q, got %q", tc.msg, body.Message)
			}
		})
	}
}

func TestErrorHandler_ValidationError(t *testing.T) {
	code, body := renderError(t, &domain.ValidationError{Fields: map[string]string{
		"email": "email must be a valid email",
	}})

	if code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
	if body.Errors["email"] == "" {
		t.Fatalf("expected field errors, got %+v", body)
	}
}

func TestErrorHandler_HTTPError(t *testing.T) {
	code, body := renderError(t, echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header"))

	if code != http.StatusUnauthorized || body.Message != "missing authorization header" {
		t.Fatalf("unexpected response: %d %+v", code, body)
	}
}

func TestErrorHandler_UnexpectedErrorIsHidden(t *testing.T) {
	code, body := renderError(t, fmt.Errorf("find user: %w: %w", domain.ErrStorageUnavailable, errors.New("pq: connection refused")))

	if code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", code)
	}
	if body.Message != "An error occurred while processing your request" {
		t.Fatalf("internal details leaked: %q", body.Message)
	}
}

func TestErrorHandler_WrappedValidationError(t *testing.T) {
	err := fmt.Errorf("register: %w", &domain.ValidationError{Fields: map[string]string{
		"password": "password must be at most 72 bytes",
	}})

	code, body := renderError(t, err)

	if code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
	if body.Errors["password"] == "" {
		t.Fatalf("expected password field error, got %+v", body)
	}
}
