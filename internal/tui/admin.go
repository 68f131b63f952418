package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/focusflow/internal/api"
	"github.com/sadopc/focusflow/internal/tracker"
)

var subscriptionPlans = []string{"free", "pro", "enterprise"}

var roles = []api.Role{api.RoleUser, api.RoleAdmin, api.RoleSuperadmin}

type adminFields struct {
	Email    string
	Password string
	Role     api.Role
	Plan     string
}

type adminModel struct {
	ctx   context.Context
	admin *tracker.Admin

	width  int
	height int

	cursor int

	formActive bool
	form       *huh.Form
	fields     *adminFields
}

func newAdminModel(ctx context.Context, admin *tracker.Admin) adminModel {
	return adminModel{ctx: ctx, admin: admin, fields: &adminFields{}}
}

func (a *adminModel) setSize(w, h int) {
	a.width = w
	a.height = h
}

type usersLoadedMsg struct{ err error }

func (a adminModel) refresh() tea.Cmd {
	ctx, admin := a.ctx, a.admin
	return func() tea.Msg {
		return usersLoadedMsg{err: admin.Load(ctx)}
	}
}

func nextRole(r api.Role) api.Role {
	for i, role := range roles {
		if role == r {
			return roles[(i+1)%len(roles)]
		}
	}
	return api.RoleUser
}

func nextPlan(p string) string {
	for i, plan := range subscriptionPlans {
		if plan == p {
			return subscriptionPlans[(i+1)%len(subscriptionPlans)]
		}
	}
	return subscriptionPlans[0]
}

func (a adminModel) update(msg tea.Msg) (adminModel, tea.Cmd) {
	if a.formActive && a.form != nil {
		return a.updateForm(msg)
	}

	switch msg := msg.(type) {
	case usersLoadedMsg:
		if msg.err != nil {
			return a, failure("Could not load users", msg.err)
		}
		a.cursor = clamp(a.cursor, len(a.admin.Users()))
		return a, nil

	case tea.KeyMsg:
		users := a.admin.Users()
		admin := a.admin
		switch {
		case key.Matches(msg, keys.Up):
			if a.cursor > 0 {
				a.cursor--
			}
			return a, nil
		case key.Matches(msg, keys.Down):
			if a.cursor < len(users)-1 {
				a.cursor++
			}
			return a, nil
		case key.Matches(msg, keys.New):
			return a.showCreateForm()
		}
		if len(users) == 0 {
			return a, nil
		}

		u := users[clamp(a.cursor, len(users))]
		switch {
		case msg.String() == "r":
			role := nextRole(u.Role)
			return a, optimistic(func() error { return admin.SetRole(u.ID, role) }, "Could not change role")
		case key.Matches(msg, keys.Pin):
			plan := nextPlan(u.SubscriptionPlan)
			return a, optimistic(func() error { return admin.SetPlan(u.ID, plan) }, "Could not change plan")
		case key.Matches(msg, keys.Archive):
			return a, optimistic(func() error { return admin.ToggleActive(u.ID) }, "Could not change status")
		case key.Matches(msg, keys.Delete):
			a.cursor = clamp(a.cursor, len(users)-1)
			return a, optimistic(func() error { return admin.Delete(u.ID) }, "Could not delete user")
		}
	}
	return a, nil
}

func (a adminModel) showCreateForm() (adminModel, tea.Cmd) {
	*a.fields = adminFields{Role: api.RoleUser, Plan: subscriptionPlans[0]}

	var roleOpts []huh.Option[api.Role]
	for _, r := range roles {
		roleOpts = append(roleOpts, huh.NewOption(string(r), r))
	}

	a.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Email").Value(&a.fields.Email).Validate(requireEmail),
			huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&a.fields.Password).Validate(func(s string) error {
				if len(s) < 6 {
					return errors.New("at least 6 characters")
				}
				return nil
			}),
			huh.NewSelect[api.Role]().Title("Role").Options(roleOpts...).Value(&a.fields.Role),
			huh.NewSelect[string]().Title("Plan").Options(huh.NewOptions(subscriptionPlans...)...).Value(&a.fields.Plan),
		),
	).WithShowHelp(true).WithShowErrors(true)

	a.formActive = true
	return a, a.form.Init()
}

func (a adminModel) updateForm(msg tea.Msg) (adminModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		a.formActive = false
		a.form = nil
		return a, nil
	}

	form, cmd := a.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.form = f
	}
	if a.form.State != huh.StateCompleted {
		return a, cmd
	}

	a.formActive = false
	f := *a.fields
	admin := a.admin
	return a, attempt(a.ctx, func(ctx context.Context) error {
		return admin.Create(ctx, api.NewUser{
			Email:            strings.TrimSpace(f.Email),
			Password:         f.Password,
			Role:             f.Role,
			SubscriptionPlan: f.Plan,
		})
	}, "User created", "Could not create user")
}

func roleStyle(r api.Role) lipgloss.Style {
	switch r {
	case api.RoleSuperadmin:
		return accentStyle
	case api.RoleAdmin:
		return highlightStyle
	}
	return normalItemStyle
}

func (a adminModel) view() string {
	w := a.width - 4
	if a.formActive && a.form != nil {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("New User"), "", a.form.View()))
	}

	users := a.admin.Users()
	rows := []string{titleStyle.Render("Users") + mutedStyle.Render(fmt.Sprintf("  %d accounts", len(users))), ""}
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-32s %-11s %-11s %-8s %s", "Email", "Role", "Plan", "Status", "Joined")))

	cursor := clamp(a.cursor, len(users))
	for i, u := range users {
		status := successStyle.Render("active  ")
		if !u.IsActive {
			status = errorStyle.Render("disabled")
		}
		joined := u.CreatedAt
		if len(joined) > 10 {
			joined = joined[:10]
		}
		email := truncate(u.Email, 32)
		if i == cursor {
			email = selectedItemStyle.Render(fmt.Sprintf("%-32s", email))
		} else {
			email = fmt.Sprintf("%-32s", email)
		}
		rows = append(rows, fmt.Sprintf("%s%s %s %-11s %s %s",
			cursorPrefix(i == cursor), email, roleStyle(u.Role).Render(fmt.Sprintf("%-11s", u.Role)),
			u.SubscriptionPlan, status, mutedStyle.Render(joined)))
	}

	rows = append(rows, "", hint("n: new user", "r: role", "p: plan", "a: enable/disable", "d: delete"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
