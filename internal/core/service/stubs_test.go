package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/usermanagement/identity-api/internal/core/domain"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func newTestHasher() *BcryptHasher {
	return NewBcryptHasher(bcrypt.MinCost)
}

func seededRoles() map[int]domain.Role {
	return map[int]domain.Role{
		domain.AdminRoleID: {ID: domain.AdminRoleID, Name: domain.RoleAdmin},
		domain.UserRoleID:  {ID: domain.UserRoleID, Name: domain.RoleUser},
	}
}

type stubRoleRepo struct {
	roles map[int]domain.Role
}

func newStubRoleRepo() *stubRoleRepo {
	return &stubRoleRepo{roles: seededRoles()}
}

func (r *stubRoleRepo) List(_ context.Context) ([]domain.Role, error) {
	out := make([]domain.Role, 0, len(r.roles))
	for _, role := range r.roles {
		out = append(out, role)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubRoleRepo) FindByID(_ context.Context, id int) (*domain.Role, error) {
	role, ok := r.roles[id]
	if !ok {
		return nil, domain.ErrRoleNotFound
	}
	return &role, nil
}

func (r *stubRoleRepo) FindByName(_ context.Context, name string) (*domain.Role, error) {
	for _, role := range r.roles {
		if role.Name == name {
			return &role, nil
		}
	}
	return nil, domain.ErrRoleNotFound
}

// stubUserRepo is an in-memory directory. The mutex makes the uniqueness
// check and insert atomic, like a unique index.
type stubUserRepo struct {
	mu     sync.Mutex
	nextID int
	users  map[int]*domain.User
	roles  map[int]domain.Role
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{nextID: 3, users: make(map[int]*domain.User), roles: seededRoles()}
}

// seed inserts a user with a fixed id and a hash of password.
func (r *stubUserRepo) seed(id int, username, email, password string, roleID int) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()

	hash, err := newTestHasher().Hash(password)
	if err != nil {
		panic(err)
	}
	now := time.Now().UTC()
	u := &domain.User{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		RoleID:       roleID,
		Role:         r.roles[roleID],
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.users[id] = u
	if id >= r.nextID {
		r.nextID = id + 1
	}
	return cloneUser(u)
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) FindByID(_ context.Context, id int) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Username, username) {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) UsernameTaken(_ context.Context, username string, excludeID int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conflictLocked(username, "", excludeID) == domain.ErrUsernameTaken, nil
}

func (r *stubUserRepo) EmailTaken(_ context.Context, email string, excludeID int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conflictLocked("", email, excludeID) == domain.ErrEmailTaken, nil
}

func (r *stubUserRepo) conflictLocked(username, email string, excludeID int) error {
	for id, u := range r.users {
		if id == excludeID {
			continue
		}
		if username != "" && strings.EqualFold(u.Username, username) {
			return domain.ErrUsernameTaken
		}
		if email != "" && strings.EqualFold(u.Email, email) {
			return domain.ErrEmailTaken
		}
	}
	return nil
}

func (r *stubUserRepo) Create(_ context.Context, in domain.NewUser) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.conflictLocked(in.Username, in.Email, 0); err != nil {
		return nil, err
	}
	role, ok := r.roles[in.RoleID]
	if !ok {
		return nil, domain.ErrRoleNotFound
	}

	now := time.Now().UTC()
	u := &domain.User{
		ID:           r.nextID,
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
		RoleID:       in.RoleID,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.users[u.ID] = u
	r.nextID++
	return cloneUser(u), nil
}

func (r *stubUserRepo) Update(_ context.Context, id int, patch domain.UserPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	var username, email string
	if patch.Username != nil {
		username = *patch.Username
	}
	if patch.Email != nil {
		email = *patch.Email
	}
	if err := r.conflictLocked(username, email, id); err != nil {
		return err
	}

	updated := *u
	if patch.Username != nil {
		updated.Username = *patch.Username
	}
	if patch.Email != nil {
		updated.Email = *patch.Email
	}
	if patch.PasswordHash != nil {
		updated.PasswordHash = *patch.PasswordHash
	}
	if patch.RoleID != nil {
		role, ok := r.roles[*patch.RoleID]
		if !ok {
			return domain.ErrRoleNotFound
		}
		updated.RoleID = role.ID
		updated.Role = role
	}
	updated.UpdatedAt = time.Now().UTC()
	r.users[id] = &updated
	return nil
}

func (r *stubUserRepo) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *stubUserRepo) List(_ context.Context, f domain.UserFilter) ([]domain.User, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	term := strings.ToLower(f.Search)
	var matched []domain.User
	for _, u := range r.users {
		if term == "" ||
			strings.Contains(strings.ToLower(u.Username), term) ||
			strings.Contains(strings.ToLower(u.Email), term) ||
			strings.Contains(strings.ToLower(u.Role.Name), term) {
			matched = append(matched, *u)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := len(matched)
	start := f.Offset()
	if start > total {
		start = total
	}
	end := start + f.PageSize
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

type recordingAudit struct {
	mu     sync.Mutex
	events []domain.AuditEvent
}

func (a *recordingAudit) Publish(e domain.AuditEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, e)
}

func (a *recordingAudit) actions() []domain.AuditAction {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]domain.AuditAction, 0, len(a.events))
	for _, e := range a.events {
		out = append(out, e.Action)
	}
	return out
}

type stubThrottle struct {
	blocked    bool
	attemptErr error
	attempts   map[string]int
	resets     int
}

func (t *stubThrottle) Attempt(_ context.Context, username string) (bool, error) {
	if t.attempts == nil {
		t.attempts = make(map[string]int)
	}
	t.attempts[username]++
	return !t.blocked, t.attemptErr
}

func (t *stubThrottle) Reset(_ context.Context, _ string) error {
	t.resets++
	return nil
}
