package tracker

import (
	"context"
	"fmt"
	"strings"

	"github.com/sadopc/focusflow/internal/api"
	"github.com/sadopc/focusflow/internal/derive"
	"github.com/sadopc/focusflow/internal/reconcile"
)

// Admin is user management for admins and superadmins.
type Admin struct {
	deps  Deps
	actor func() api.User
	coord *reconcile.Coordinator[api.User]
}

// NewAdmin checks every action against the user returned by actor.
func NewAdmin(d Deps, actor func() api.User) *Admin {
	d = d.withDefaults()
	return &Admin{
		deps:  d,
		actor: actor,
		coord: reconcile.New(func(u api.User) string { return u.ID }, options[api.User](d, "user", nil)),
	}
}

func (a *Admin) Load(ctx context.Context) error {
	if !a.actor().IsAdmin() {
		return derive.ErrAdminOnly
	}
	users, err := a.deps.API.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("load users: %w", err)
	}
	a.coord.Replace(users)
	return nil
}

func (a *Admin) Users() []api.User { return a.coord.Items() }

// Create adds a user and reloads the list, since the server does not echo
// the new record.
func (a *Admin) Create(ctx context.Context, u api.NewUser) error {
	if !a.actor().IsAdmin() {
		return derive.ErrAdminOnly
	}
	u.Email = strings.TrimSpace(u.Email)
	if u.Email == "" || u.Password == "" {
		return fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}
	if u.Role == api.RoleSuperadmin && a.actor().Role != api.RoleSuperadmin {
		return derive.ErrSuperadminOnly
	}
	if err := a.deps.API.CreateUser(ctx, u); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return a.Load(ctx)
}

func (a *Admin) patch(id string, mutate func(*api.User), patch api.UserPatch) error {
	if !a.actor().IsAdmin() {
		return derive.ErrAdminOnly
	}
	return a.coord.ApplyPart(id, mutate, func(ctx context.Context, _ api.User) (api.User, error) {
		return api.User{}, a.deps.API.UpdateUser(ctx, id, patch)
	})
}

func (a *Admin) SetRole(id string, role api.Role) error {
	target, ok := a.coord.Get(id)
	if !ok {
		return fmt.Errorf("user %s: %w", id, reconcile.ErrNotFound)
	}
	if (role == api.RoleSuperadmin || target.Role == api.RoleSuperadmin) && a.actor().Role != api.RoleSuperadmin {
		return derive.ErrSuperadminOnly
	}
	return a.patch(id, func(u *api.User) { u.Role = role }, api.UserPatch{Role: &role})
}

func (a *Admin) SetPlan(id, plan string) error {
	return a.patch(id, func(u *api.User) { u.SubscriptionPlan = plan }, api.UserPatch{SubscriptionPlan: &plan})
}

func (a *Admin) ToggleActive(id string) error {
	target, ok := a.coord.Get(id)
	if !ok {
		return fmt.Errorf("user %s: %w", id, reconcile.ErrNotFound)
	}
	active := !target.IsActive
	return a.patch(id, func(u *api.User) { u.IsActive = active }, api.UserPatch{IsActive: &active})
}

func (a *Admin) Delete(id string) error {
	target, ok := a.coord.Get(id)
	if !ok {
		return fmt.Errorf("user %s: %w", id, reconcile.ErrNotFound)
	}
	if err := derive.CanDeleteUser(a.actor(), target); err != nil {
		return err
	}
	return a.coord.Remove(id, a.deps.API.DeleteUser)
}

func (a *Admin) Close() { a.coord.Close() }
