package tui

import (
	"context"
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/focusflow/internal/api"
	"github.com/sadopc/focusflow/internal/session"
)

const (
	modeSignIn   = "signin"
	modeRegister = "register"
)

type loginModel struct {
	ctx    context.Context
	sess   *session.Session
	width  int
	height int

	form *huh.Form
	busy bool
	err  string

	// Form field pointers (survive value copies)
	email    *string
	password *string
	mode     *string
}

type loginResultMsg struct {
	err error
}

func newLoginModel(ctx context.Context, sess *session.Session) loginModel {
	email, password, mode := "", "", modeSignIn
	return loginModel{
		ctx:      ctx,
		sess:     sess,
		email:    &email,
		password: &password,
		mode:     &mode,
	}
}

func (l *loginModel) setSize(w, h int) {
	l.width = w
	l.height = h
}

func requireEmail(s string) error {
	if !strings.Contains(strings.TrimSpace(s), "@") {
		return errors.New("enter a valid email")
	}
	return nil
}

func requirePassword(s string) error {
	if s == "" {
		return errors.New("password is required")
	}
	return nil
}

// reset builds a fresh form, keeping the email typed so far.
func (l loginModel) reset() (loginModel, tea.Cmd) {
	*l.password = ""
	l.busy = false
	l.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("FocusFlow").
				Options(
					huh.NewOption("Sign in", modeSignIn),
					huh.NewOption("Create an account", modeRegister),
				).Value(l.mode),
			huh.NewInput().Title("Email").Value(l.email).Validate(requireEmail),
			huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(l.password).Validate(requirePassword),
		),
	).WithShowHelp(true).WithShowErrors(true)
	return l, l.form.Init()
}

func (l loginModel) submit() tea.Cmd {
	ctx, sess := l.ctx, l.sess
	email, password, mode := strings.TrimSpace(*l.email), *l.password, *l.mode
	return func() tea.Msg {
		var err error
		if mode == modeRegister {
			_, err = sess.Register(ctx, email, password)
		} else {
			_, err = sess.Login(ctx, email, password)
		}
		return loginResultMsg{err: err}
	}
}

func (l loginModel) update(msg tea.Msg) (loginModel, tea.Cmd) {
	if res, ok := msg.(loginResultMsg); ok {
		if res.err == nil {
			l.err = ""
			l.busy = false
			return l, nil
		}
		l.err = api.Message(res.err)
		return l.reset()
	}
	if l.form == nil || l.busy {
		return l, nil
	}

	form, cmd := l.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		l.form = f
	}
	if l.form.State == huh.StateCompleted {
		l.busy = true
		l.err = ""
		return l, l.submit()
	}
	return l, cmd
}

func (l loginModel) view() string {
	w := min(l.width-4, 60)
	rows := []string{titleStyle.Render("Welcome to FocusFlow"), ""}
	switch {
	case l.busy:
		rows = append(rows, mutedStyle.Render("Signing in..."))
	case l.form != nil:
		rows = append(rows, l.form.View())
	}
	if l.err != "" {
		rows = append(rows, "", errorStyle.Render(l.err))
	}
	panel := activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	return lipgloss.Place(l.width, max(l.height, 1), lipgloss.Center, lipgloss.Center, panel)
}
