package derive

import (
	"errors"

	"github.com/sadopc/focusflow/internal/api"
)

var (
	ErrDeleteSelf     = errors.New("You cannot delete your own account.")
	ErrSuperadminOnly = errors.New("Only Superadmins can delete other Superadmins.")
	ErrAdminOnly      = errors.New("Only admins can manage users.")
)

// CanDeleteUser checks the client-side rules for actor deleting target.
func CanDeleteUser(actor, target api.User) error {
	if !actor.IsAdmin() {
		return ErrAdminOnly
	}
	if actor.ID == target.ID {
		return ErrDeleteSelf
	}
	if target.Role == api.RoleSuperadmin && actor.Role != api.RoleSuperadmin {
		return ErrSuperadminOnly
	}
	return nil
}
