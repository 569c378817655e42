package handler

import (
	"time"

	"github.com/usermanagement/identity-api/internal/core/domain"
	"github.com/usermanagement/identity-api/internal/core/ports"
)

// ── Requests ──────────────────────────────────────────────────────────────────

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email,max=100"`
	Password string `json:"password" validate:"required,min=6,maxbytes=72"`
	RoleID   int    `json:"roleId" validate:"gte=0"`
}

// updateUserRequest fields are optional; empty strings count as absent.
type updateUserRequest struct {
	Username    *string `json:"username" validate:"omitempty,min=3,max=50"`
	Email       *string `json:"email" validate:"omitempty,email,max=100"`
	Password    *string `json:"password" validate:"omitempty,min=6,maxbytes=72"`
	OldPassword *string `json:"oldPassword"`
	RoleID      *int    `json:"roleId" validate:"omitempty,gte=0"`
}

// dropEmpty clears empty strings so they skip validation.
func (r *updateUserRequest) dropEmpty() {
	for _, f := range []**string{&r.Username, &r.Email, &r.Password, &r.OldPassword} {
		if *f != nil && **f == "" {
			*f = nil
		}
	}
}

func (r updateUserRequest) toInput() ports.UpdateUserInput {
	return ports.UpdateUserInput{
		Username:    r.Username,
		Email:       r.Email,
		Password:    r.Password,
		OldPassword: r.OldPassword,
		RoleID:      r.RoleID,
	}
}

type listUsersQuery struct {
	Page     int    `query:"page"`
	PageSize int    `query:"pageSize"`
	Search   string `query:"search"`
}

// ── Responses ─────────────────────────────────────────────────────────────────

type roleResponse struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

type userResponse struct {
	ID        int          `json:"id"`
	Username  string       `json:"username"`
	Email     string       `json:"email"`
	Role      roleResponse `json:"role"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

type authResponse struct {
	ID        int          `json:"id"`
	Username  string       `json:"username"`
	Email     string       `json:"email"`
	Role      roleResponse `json:"role"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

type verifyResponse struct {
	Message  string `json:"message"`
	UserID   int    `json:"userId"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type paginationResponse struct {
	CurrentPage     int  `json:"currentPage"`
	PageSize        int  `json:"pageSize"`
	TotalCount      int  `json:"totalCount"`
	TotalPages      int  `json:"totalPages"`
	HasNextPage     bool `json:"hasNextPage"`
	HasPreviousPage bool `json:"hasPreviousPage"`
}

type userListResponse struct {
	Users      []userResponse     `json:"users"`
	Pagination paginationResponse `json:"pagination"`
}

// ── Mappers ───────────────────────────────────────────────────────────────────

func toRoleResponse(r domain.Role) roleResponse {
	return roleResponse{ID: r.ID, Name: r.Name, Description: r.Description}
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      toRoleResponse(u.Role),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func toAuthResponse(res *ports.AuthResult) authResponse {
	return authResponse{
		ID:        res.User.ID,
		Username:  res.User.Username,
		Email:     res.User.Email,
		Role:      toRoleResponse(res.User.Role),
		Token:     res.Token.Value,
		ExpiresAt: res.Token.ExpiresAt,
	}
}

func toUserListResponse(p *domain.UserPage) userListResponse {
	users := make([]userResponse, 0, len(p.Users))
	for i := range p.Users {
		users = append(users, toUserResponse(&p.Users[i]))
	}
	return userListResponse{
		Users: users,
		Pagination: paginationResponse{
			CurrentPage:     p.Page,
			PageSize:        p.PageSize,
			TotalCount:      p.TotalCount,
			TotalPages:      p.TotalPages(),
			HasNextPage:     p.HasNextPage(),
			HasPreviousPage: p.HasPreviousPage(),
		},
	}
}
