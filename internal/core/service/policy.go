package service

import (
	"github.com/usermanagement/identity-api/internal/core/domain"
	"github.com/usermanagement/identity-api/internal/core/ports"
)

// Policy decides whether an actor may read, list, update or delete user
// records. It performs no I/O: directory lookups an update depends on are
// gathered by the caller and passed in as UpdateFacts.
type Policy struct {
	hasher ports.PasswordHasher
}

func NewPolicy(hasher ports.PasswordHasher) *Policy {
	return &Policy{hasher: hasher}
}

// UpdateFacts are directory lookups taken before an update is planned.
type UpdateFacts struct {
	UsernameTaken bool
	EmailTaken    bool
	RoleExists    bool
}

// UpdatePlan is the approved subset of an update request. NewPassword is
// still in plaintext; the caller hashes it before writing.
type UpdatePlan struct {
	Username     *string
	Email        *string
	NewPassword  *string
	RoleID       *int
	PasswordOnly bool
}

// Fields lists the names of the fields the plan changes.
func (p UpdatePlan) Fields() []string {
	var fields []string
	if p.Username != nil {
		fields = append(fields, "username")
	}
	if p.Email != nil {
		fields = append(fields, "email")
	}
	if p.NewPassword != nil {
		fields = append(fields, "password")
	}
	if p.RoleID != nil {
		fields = append(fields, "roleId")
	}
	return fields
}

func (p *Policy) CanRead(actor *domain.Claims, targetID int) error {
	if actor.IsAdmin() || actor.IsSelf(targetID) {
		return nil
	}
	return domain.ErrForbidden
}

func (p *Policy) CanList(actor *domain.Claims) error {
	if actor.IsAdmin() {
		return nil
	}
	return domain.ErrForbidden
}

// CanDelete allows an admin to delete any account except their own and the
// system accounts.
func (p *Policy) CanDelete(actor *domain.Claims, targetID int) error {
	switch {
	case !actor.IsAdmin():
		return domain.ErrForbidden
	case actor.IsSelf(targetID):
		return domain.ErrCannotDeleteSelf
	case domain.IsSystemUser(targetID):
		return domain.ErrCannotDeleteSystemUser
	}
	return nil
}

// CanAssignRole reports whether actor may create an account holding role.
// Only admins may hand out a privileged role.
func (p *Policy) CanAssignRole(actor *domain.Claims, role domain.Role) error {
	if role.IsPrivileged() && !actor.IsAdmin() {
		return domain.ErrForbidden
	}
	return nil
}

// PlanUpdate evaluates a whole update request against target and returns the
// changes to commit. Nothing is approved unless every supplied field passes.
func (p *Policy) PlanUpdate(actor *domain.Claims, target *domain.User, in ports.UpdateUserInput, facts UpdateFacts) (UpdatePlan, error) {
	if domain.IsSystemUser(target.ID) {
		return p.planSystemUpdate(actor, target, in)
	}

	if !actor.IsAdmin() && !actor.IsSelf(target.ID) {
		return UpdatePlan{}, domain.ErrForbidden
	}

	var plan UpdatePlan

	if changed(in.Username, target.Username) {
		if facts.UsernameTaken {
			return UpdatePlan{}, domain.ErrUsernameTaken
		}
		plan.Username = in.Username
	}

	if changed(in.Email, target.Email) {
		if facts.EmailTaken {
			return UpdatePlan{}, domain.ErrEmailTaken
		}
		plan.Email = in.Email
	}

	if supplied(in.Password) {
		switch {
		case supplied(in.OldPassword):
			if !p.hasher.Verify(*in.OldPassword, target.PasswordHash) {
				return UpdatePlan{}, domain.ErrIncorrectCurrentPassword
			}
		case actor.IsAdmin() && !actor.IsSelf(target.ID):
			// admin reset of another account
		default:
			return UpdatePlan{}, domain.ErrOldPasswordRequired
		}
		plan.NewPassword = in.Password
	}

	// Role changes from non-admins are ignored rather than rejected.
	if roleRequested(in.RoleID) && actor.IsAdmin() {
		if !facts.RoleExists {
			return UpdatePlan{}, domain.ErrInvalidRole
		}
		if *in.RoleID != target.RoleID {
			plan.RoleID = in.RoleID
		}
	}

	return plan, nil
}

// planSystemUpdate permits only a password change made by the system account
// itself. Resubmitting unchanged values for the other fields is tolerated.
func (p *Policy) planSystemUpdate(actor *domain.Claims, target *domain.User, in ports.UpdateUserInput) (UpdatePlan, error) {
	if !actor.IsSelf(target.ID) || !supplied(in.Password) {
		return UpdatePlan{}, domain.ErrCannotModifySystemUser
	}
	if changed(in.Username, target.Username) || changed(in.Email, target.Email) {
		return UpdatePlan{}, domain.ErrCannotModifySystemUser
	}
	if roleRequested(in.RoleID) && *in.RoleID != target.RoleID {
		return UpdatePlan{}, domain.ErrCannotModifySystemUser
	}
	if supplied(in.OldPassword) && !p.hasher.Verify(*in.OldPassword, target.PasswordHash) {
		return UpdatePlan{}, domain.ErrIncorrectCurrentPassword
	}
	return UpdatePlan{NewPassword: in.Password, PasswordOnly: true}, nil
}

func supplied(v *string) bool {
	return v != nil && *v != ""
}

func changed(v *string, current string) bool {
	return supplied(v) && *v != current
}

func roleRequested(v *int) bool {
	return v != nil && *v != 0
}
