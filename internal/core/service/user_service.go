package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/usermanagement/identity-api/internal/core/domain"
	"github.com/usermanagement/identity-api/internal/core/ports"
)

// UserService implements profile reads, listing, updates and deletion on
// behalf of an authenticated actor.
type UserService struct {
	users  ports.UserRepository
	roles  ports.RoleRepository
	hasher ports.PasswordHasher
	policy *Policy
	audit  ports.AuditPublisher
	log    zerolog.Logger
}

// NewUserService wires a UserService. audit may be nil.
func NewUserService(
	users ports.UserRepository,
	roles ports.RoleRepository,
	hasher ports.PasswordHasher,
	policy *Policy,
	audit ports.AuditPublisher,
	log zerolog.Logger,
) *UserService {
	return &UserService{
		users:  users,
		roles:  roles,
		hasher: hasher,
		policy: policy,
		audit:  audit,
		log:    log,
	}
}

func (s *UserService) GetUser(ctx context.Context, actor *domain.Claims, id int) (*domain.User, error) {
	if err := s.policy.CanRead(actor, id); err != nil {
		return nil, err
	}
	return s.users.FindByID(ctx, id)
}

func (s *UserService) GetProfile(ctx context.Context, actor *domain.Claims) (*domain.User, error) {
	if actor == nil {
		return nil, domain.ErrForbidden
	}
	return s.users.FindByID(ctx, actor.UserID)
}

// ListUsers returns one page of the directory. Out-of-range paging values are
// normalized rather than rejected.
func (s *UserService) ListUsers(ctx context.Context, actor *domain.Claims, filter domain.UserFilter) (*domain.UserPage, error) {
	if err := s.policy.CanList(actor); err != nil {
		return nil, err
	}

	filter = filter.Normalize()
	users, total, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	return &domain.UserPage{
		Users:      users,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
	}, nil
}

// UpdateUser evaluates the whole request with the policy, then commits the
// approved changes as a single write.
func (s *UserService) UpdateUser(ctx context.Context, actor *domain.Claims, id int, in ports.UpdateUserInput) error {
	target, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			if perr := s.policy.CanRead(actor, id); perr != nil {
				return perr
			}
		}
		return err
	}

	facts, err := s.gatherFacts(ctx, actor, target, in)
	if err != nil {
		return err
	}

	plan, err := s.policy.PlanUpdate(actor, target, in, facts)
	if err != nil {
		return err
	}

	patch := domain.UserPatch{
		Username: plan.Username,
		Email:    plan.Email,
		RoleID:   plan.RoleID,
	}
	if plan.NewPassword != nil {
		hash, err := s.hasher.Hash(*plan.NewPassword)
		if err != nil {
			return err
		}
		patch.PasswordHash = &hash
	}

	if err := s.users.Update(ctx, id, patch); err != nil {
		return fmt.Errorf("update user %d: %w", id, err)
	}

	action := domain.AuditUserUpdated
	if plan.PasswordOnly || (patch.PasswordHash != nil && len(plan.Fields()) == 1) {
		action = domain.AuditPasswordChanged
	}
	s.publish(domain.AuditEvent{
		Action:   action,
		ActorID:  actor.ActorID(),
		TargetID: id,
		Username: target.Username,
		Fields:   plan.Fields(),
	})
	s.log.Info().Int("user_id", id).Int("actor_id", actor.ActorID()).Strs("fields", plan.Fields()).Msg("user updated")

	return nil
}

// gatherFacts runs only the lookups the request needs.
func (s *UserService) gatherFacts(ctx context.Context, actor *domain.Claims, target *domain.User, in ports.UpdateUserInput) (UpdateFacts, error) {
	var facts UpdateFacts
	if domain.IsSystemUser(target.ID) {
		return facts, nil
	}

	var err error
	if changed(in.Username, target.Username) {
		if facts.UsernameTaken, err = s.users.UsernameTaken(ctx, *in.Username, target.ID); err != nil {
			return facts, err
		}
	}
	if changed(in.Email, target.Email) {
		if facts.EmailTaken, err = s.users.EmailTaken(ctx, *in.Email, target.ID); err != nil {
			return facts, err
		}
	}
	if roleRequested(in.RoleID) && actor.IsAdmin() {
		_, err := s.roles.FindByID(ctx, *in.RoleID)
		switch {
		case err == nil:
			facts.RoleExists = true
		case !errors.Is(err, domain.ErrRoleNotFound):
			return facts, err
		}
	}
	return facts, nil
}

func (s *UserService) DeleteUser(ctx context.Context, actor *domain.Claims, id int) error {
	if err := s.policy.CanDelete(actor, id); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}

	s.publish(domain.AuditEvent{
		Action:   domain.AuditUserDeleted,
		ActorID:  actor.ActorID(),
		TargetID: id,
	})
	s.log.Info().Int("user_id", id).Int("actor_id", actor.ActorID()).Msg("user deleted")

	return nil
}

func (s *UserService) publish(event domain.AuditEvent) {
	if s.audit == nil {
		return
	}
	event.At = time.Now().UTC()
	s.audit.Publish(event)
}
