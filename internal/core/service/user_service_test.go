package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"github.com/usermanagement/identity-api/internal/core/domain"
	"github.com/usermanagement/identity-api/internal/core/ports"
)

type userFixture struct {
	svc   *UserService
	users *stubUserRepo
	audit *recordingAudit
}

func newUserFixture() userFixture {
	users := newStubUserRepo()
	users.seed(domain.AdminUserID, "admin", "admin@example.com", "admin123", domain.AdminRoleID)
	users.seed(domain.DefaultUserID, "user", "user@example.com", "user123", domain.UserRoleID)
	hasher := newTestHasher()
	audit := &recordingAudit{}
	svc := NewUserService(users, newStubRoleRepo(), hasher, NewPolicy(hasher), audit, zerolog.Nop())
	return userFixture{svc: svc, users: users, audit: audit}
}

func TestUserService_GetUser(t *testing.T) {
	f := newUserFixture()
	f.users.seed(10, "alice", "alice@example.com", "alice-old", domain.UserRoleID)
	ctx := context.Background()

	u, err := f.svc.GetUser(ctx, aliceActor, 10)
	if err != nil || u.Username != "alice" || u.Role.Name != domain.RoleUser {
		t.Fatalf("self read failed: %+v, %v", u, err)
	}
	if _, err := f.svc.GetUser(ctx, bobActor, 10); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := f.svc.GetUser(ctx, adminActor, 999); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserService_GetProfile(t *testing.T) {
	f := newUserFixture()

	u, err := f.svc.GetProfile(context.Background(), systemUser)
	if err != nil || u.ID != domain.DefaultUserID {
		t.Fatalf("unexpected profile: %+v, %v", u, err)
	}
	if _, err := f.svc.GetProfile(context.Background(), nil); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestUserService_ListUsers_Pagination(t *testing.T) {
	f := newUserFixture()
	for i := 3; i <= 23; i++ {
		f.users.seed(i, fmt.Sprintf("member%02d", i), fmt.Sprintf("member%02d@example.com", i), "pass123", domain.UserRoleID)
	}
	ctx := context.Background()

	first, err := f.svc.ListUsers(ctx, adminActor, domain.UserFilter{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(first.Users) != 10 || first.TotalCount != 23 || first.TotalPages() != 3 {
		t.Fatalf("unexpected first page: %d users, total %d, pages %d", len(first.Users), first.TotalCount, first.TotalPages())
	}
	if !first.HasNextPage() || first.HasPreviousPage() {
		t.Fatalf("first page flags wrong")
	}
	if first.Users[0].ID != 1 || first.Users[9].ID != 10 {
		t.Fatalf("expected ascending id order, got %d..%d", first.Users[0].ID, first.Users[9].ID)
	}

	last, err := f.svc.ListUsers(ctx, adminActor, domain.UserFilter{Page: 3, PageSize: 10})
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(last.Users) != 3 || last.HasNextPage() || !last.HasPreviousPage() {
		t.Fatalf("unexpected last page: %d users next=%v prev=%v", len(last.Users), last.HasNextPage(), last.HasPreviousPage())
	}
}

func TestUserService_ListUsers_NormalizesPaging(t *testing.T) {
	f := newUserFixture()

	page, err := f.svc.ListUsers(context.Background(), adminActor, domain.UserFilter{Page: -4, PageSize: 500})
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if page.Page != 1 || page.PageSize != domain.DefaultPageSize {
		t.Fatalf("expected page 1 size %d, got page %d size %d", domain.DefaultPageSize, page.Page, page.PageSize)
	}
}

func TestUserService_ListUsers_Search(t *testing.T) {
	f := newUserFixture()
	f.users.seed(10, "alice", "alice@corp.io", "pass123", domain.UserRoleID)
	ctx := context.Background()

	page, err := f.svc.ListUsers(ctx, adminActor, domain.UserFilter{Search: "CORP"})
	if err != nil || page.TotalCount != 1 || page.Users[0].ID != 10 {
		t.Fatalf("email search failed: %+v, %v", page, err)
	}

	page, err = f.svc.ListUsers(ctx, adminActor, domain.UserFilter{Search: "admin"})
	if err != nil || page.TotalCount != 1 || page.Users[0].ID != domain.AdminUserID {
		t.Fatalf("role/username search failed: %+v, %v", page, err)
	}
}

func TestUserService_ListUsers_Forbidden(t *testing.T) {
	f := newUserFixture()
	if _, err := f.svc.ListUsers(context.Background(), aliceActor, domain.UserFilter{}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestUserService_UpdateUser_PasswordGating(t *testing.T) {
	f := newUserFixture()
	f.users.seed(10, "alice", "alice@example.com", "alice-old", domain.UserRoleID)
	f.users.seed(11, "bob", "bob@example.com", "bob-pass", domain.UserRoleID)
	ctx := context.Background()
	h := newTestHasher()

	err := f.svc.UpdateUser(ctx, bobActor, 10, ports.UpdateUserInput{Password: strPtr("hijacked")})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	err = f.svc.UpdateUser(ctx, aliceActor, 10, ports.UpdateUserInput{Password: strPtr("alice-new"), OldPassword: strPtr("wrong")})
	if !errors.Is(err, domain.ErrIncorrectCurrentPassword) {
		t.Fatalf("expected ErrIncorrectCurrentPassword, got %v", err)
	}

	before, _ := f.users.FindByID(ctx, 10)
	err = f.svc.UpdateUser(ctx, aliceActor, 10, ports.UpdateUserInput{Password: strPtr("alice-new"), OldPassword: strPtr("alice-old")})
	if err != nil {
		t.Fatalf("password change failed: %v", err)
	}

	after, _ := f.users.FindByID(ctx, 10)
	if !h.Verify("alice-new", after.PasswordHash) {
		t.Fatalf("new password does not verify")
	}
	if h.Verify("alice-old", after.PasswordHash) {
		t.Fatalf("old password still verifies")
	}
	if after.UpdatedAt.Before(before.UpdatedAt) || after.UpdatedAt.Before(after.CreatedAt) {
		t.Fatalf("updatedAt not refreshed")
	}
	if got := f.audit.actions(); len(got) != 1 || got[0] != domain.AuditPasswordChanged {
		t.Fatalf("expected password audit, got %v", got)
	}
}

func TestUserService_UpdateUser_SystemAccount(t *testing.T) {
	f := newUserFixture()
	ctx := context.Background()

	for _, actor := range []*domain.Claims{adminActor, systemUser} {
		for _, in := range []ports.UpdateUserInput{
			{Username: strPtr("renamed")},
			{Email: strPtr("new@example.com")},
			{RoleID: intPtr(domain.AdminRoleID)},
		} {
			if err := f.svc.UpdateUser(ctx, actor, domain.DefaultUserID, in); !errors.Is(err, domain.ErrCannotModifySystemUser) {
				t.Fatalf("actor %d: expected ErrCannotModifySystemUser, got %v", actor.UserID, err)
			}
		}
	}

	if err := f.svc.UpdateUser(ctx, systemUser, domain.DefaultUserID, ports.UpdateUserInput{Password: strPtr("user456")}); err != nil {
		t.Fatalf("self password change failed: %v", err)
	}
	u, _ := f.users.FindByID(ctx, domain.DefaultUserID)
	if u.Username != "user" || u.Email != "user@example.com" || u.RoleID != domain.UserRoleID {
		t.Fatalf("system account fields changed: %+v", u)
	}
	if !newTestHasher().Verify("user456", u.PasswordHash) {
		t.Fatalf("new password does not verify")
	}
}

func TestUserService_UpdateUser_ProfileAndRole(t *testing.T) {
	f := newUserFixture()
	f.users.seed(10, "alice", "alice@example.com", "alice-old", domain.UserRoleID)
	f.users.seed(11, "bob", "bob@example.com", "bob-pass", domain.UserRoleID)
	ctx := context.Background()

	if err := f.svc.UpdateUser(ctx, aliceActor, 10, ports.UpdateUserInput{Username: strPtr("Bob")}); !errors.Is(err, domain.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
	if err := f.svc.UpdateUser(ctx, aliceActor, 10, ports.UpdateUserInput{Email: strPtr("BOB@example.com")}); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	err := f.svc.UpdateUser(ctx, aliceActor, 10, ports.UpdateUserInput{Username: strPtr("alicia"), RoleID: intPtr(domain.AdminRoleID)})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	u, _ := f.users.FindByID(ctx, 10)
	if u.Username != "alicia" || u.RoleID != domain.UserRoleID {
		t.Fatalf("expected rename without promotion, got %+v", u)
	}

	if err := f.svc.UpdateUser(ctx, adminActor, 10, ports.UpdateUserInput{RoleID: intPtr(77)}); !errors.Is(err, domain.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
	if err := f.svc.UpdateUser(ctx, adminActor, 10, ports.UpdateUserInput{RoleID: intPtr(domain.AdminRoleID)}); err != nil {
		t.Fatalf("promotion failed: %v", err)
	}
	u, _ = f.users.FindByID(ctx, 10)
	if u.Role.Name != domain.RoleAdmin {
		t.Fatalf("expected Admin role, got %s", u.Role.Name)
	}
}

func TestUserService_UpdateUser_Missing(t *testing.T) {
	f := newUserFixture()
	ctx := context.Background()

	if err := f.svc.UpdateUser(ctx, adminActor, 404, ports.UpdateUserInput{}); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound for admin, got %v", err)
	}
	if err := f.svc.UpdateUser(ctx, aliceActor, 404, ports.UpdateUserInput{}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non owner, got %v", err)
	}
}

func TestUserService_DeleteUser(t *testing.T) {
	f := newUserFixture()
	f.users.seed(10, "alice", "alice@example.com", "alice-old", domain.UserRoleID)
	ctx := context.Background()

	if err := f.svc.DeleteUser(ctx, adminActor, domain.AdminUserID); !errors.Is(err, domain.ErrCannotDeleteSelf) {
		t.Fatalf("expected ErrCannotDeleteSelf, got %v", err)
	}
	if err := f.svc.DeleteUser(ctx, adminActor, domain.DefaultUserID); !errors.Is(err, domain.ErrCannotDeleteSystemUser) {
		t.Fatalf("expected ErrCannotDeleteSystemUser, got %v", err)
	}
	if err := f.svc.DeleteUser(ctx, aliceActor, 10); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := f.svc.DeleteUser(ctx, adminActor, 10); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := f.users.FindByID(ctx, 10); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("user still present")
	}
	if err := f.svc.DeleteUser(ctx, adminActor, 10); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if got := f.audit.actions(); len(got) != 1 || got[0] != domain.AuditUserDeleted {
		t.Fatalf("expected one delete audit, got %v", got)
	}
}

func TestRoleService_ListRoles(t *testing.T) {
	roles, err := NewRoleService(newStubRoleRepo()).ListRoles(context.Background())
	if err != nil {
		t.Fatalf("ListRoles: %v", err)
	}
	if len(roles) != 2 || roles[0].Name != domain.RoleAdmin || roles[1].Name != domain.RoleUser {
		t.Fatalf("unexpected roles: %+v", roles)
	}
}
