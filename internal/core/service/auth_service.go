package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/usermanagement/identity-api/internal/core/domain"
	"github.com/usermanagement/identity-api/internal/core/ports"
)

// dummyPassword is hashed once and compared against when a login names an
// unknown user, so both failure paths pay the same bcrypt cost.
const dummyPassword = "identity-api/dummy-password"

// AuthService implements registration, login and session verification.
type AuthService struct {
	users    ports.UserRepository
	roles    ports.RoleRepository
	hasher   ports.PasswordHasher
	tokens   ports.TokenIssuer
	policy   *Policy
	throttle ports.LoginThrottle
	audit    ports.AuditPublisher
	log      zerolog.Logger

	dummyOnce sync.Once
	dummyHash string
}

// AuthOption configures optional collaborators of AuthService.
type AuthOption func(*AuthService)

// WithLoginThrottle limits repeated failed logins per username.
func WithLoginThrottle(t ports.LoginThrottle) AuthOption {
	return func(s *AuthService) { s.throttle = t }
}

// WithAuthAudit publishes registration and login events.
func WithAuthAudit(p ports.AuditPublisher) AuthOption {
	return func(s *AuthService) { s.audit = p }
}

func NewAuthService(
	users ports.UserRepository,
	roles ports.RoleRepository,
	hasher ports.PasswordHasher,
	tokens ports.TokenIssuer,
	policy *Policy,
	log zerolog.Logger,
	opts ...AuthOption,
) *AuthService {
	s := &AuthService{
		users:  users,
		roles:  roles,
		hasher: hasher,
		tokens: tokens,
		policy: policy,
		log:    log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates an account. actor is nil for anonymous callers; only an
// admin actor may assign a privileged role. RoleID 0 selects the User role.
func (s *AuthService) Register(ctx context.Context, actor *domain.Claims, in ports.RegisterInput) (*ports.AuthResult, error) {
	role, err := s.resolveRole(ctx, in.RoleID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.CanAssignRole(actor, *role); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.users.Create(ctx, domain.NewUser{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		RoleID:       role.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	s.publish(domain.AuditEvent{
		Action:   domain.AuditUserRegistered,
		ActorID:  actor.ActorID(),
		TargetID: user.ID,
		Username: user.Username,
	})
	s.log.Info().Int("user_id", user.ID).Str("username", user.Username).Msg("user registered")

	return &ports.AuthResult{User: user, Token: token}, nil
}

func (s *AuthService) resolveRole(ctx context.Context, roleID int) (*domain.Role, error) {
	if roleID == 0 {
		return s.roles.FindByName(ctx, domain.RoleUser)
	}
	role, err := s.roles.FindByID(ctx, roleID)
	if err != nil {
		return nil, fmt.Errorf("resolve role %d: %w", roleID, err)
	}
	return role, nil
}

// Login authenticates username and password. An unknown username and a wrong
// password both yield domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (*ports.AuthResult, error) {
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	if s.throttle != nil {
		allowed, err := s.throttle.Attempt(ctx, username)
		if err != nil {
			s.log.Warn().Err(err).Str("username", username).Msg("login throttle unavailable, allowing attempt")
		} else if !allowed {
			return nil, domain.ErrTooManyAttempts
		}
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("login: %w", err)
		}
		s.hasher.Verify(password, s.dummy())
		return nil, domain.ErrInvalidCredentials
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	if s.throttle != nil {
		if err := s.throttle.Reset(ctx, username); err != nil {
			s.log.Warn().Err(err).Str("username", username).Msg("login throttle reset failed")
		}
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	s.publish(domain.AuditEvent{
		Action:   domain.AuditUserLogin,
		ActorID:  user.ID,
		TargetID: user.ID,
		Username: user.Username,
	})

	return &ports.AuthResult{User: user, Token: token}, nil
}

// VerifySession validates token and returns its claims as issued. The role is
// not re-read from storage.
func (s *AuthService) VerifySession(_ context.Context, token string) (*domain.Claims, error) {
	return s.tokens.Validate(token)
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash(dummyPassword)
		if err != nil {
			s.log.Error().Err(err).Msg("dummy hash generation failed")
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

func (s *AuthService) publish(event domain.AuditEvent) {
	if s.audit == nil {
		return
	}
	event.At = time.Now().UTC()
	s.audit.Publish(event)
}
