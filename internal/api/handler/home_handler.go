package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// errorBody documents the error envelope for swagger.
type errorBody struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

type homeResponse struct {
	Message   string                       `json:"message"`
	Version   string                       `json:"version"`
	Endpoints map[string]map[string]string `json:"endpoints"`
}

// Home describes the service and its endpoints.
func Home(version string) echo.HandlerFunc {
	body := homeResponse{
		Message: "User Management API is running!",
		Version: version,
		Endpoints: map[string]map[string]string{
			"auth": {
				"login":    "POST /auth/login",
				"register": "POST /auth/register",
				"verify":   "GET /auth/verify",
			},
			"users": {
				"getAll":  "GET /users (Admin only)",
				"getById": "GET /users/{id} (Admin or own profile)",
				"update":  "PUT /users/{id} (Admin or own profile)",
				"delete":  "DELETE /users/{id} (Admin only)",
				"profile": "GET /users/profile",
			},
			"roles": {
				"getAll": "GET /roles",
			},
		},
	}
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, body)
	}
}
