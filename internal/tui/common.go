package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/focusflow/internal/api"
	"github.com/sadopc/focusflow/internal/derive"
	"github.com/sadopc/focusflow/internal/reconcile"
	"github.com/sadopc/focusflow/internal/session"
	"github.com/sadopc/focusflow/internal/tracker"
)

// viewState represents the currently active page.
type viewState int

const (
	viewDashboard viewState = iota
	viewGoals
	viewRoutine
	viewMoney
	viewGym
	viewProjects
	viewPomodoro
	viewCalendar
	viewSettings
	viewAdmin
)

var viewNames = []string{"Dashboard", "Goals", "Routine", "Money", "Gym", "Projects", "Pomodoro", "Calendar", "Settings", "Admin"}

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

type toastExpiredMsg struct {
	seq int
}

type tickMsg time.Time

// sessionMsg carries a session state change into the update loop.
type sessionMsg session.Snapshot

// syncEventMsg carries the outcome of an optimistic write.
type syncEventMsg reconcile.Event

type exportDoneMsg struct {
	path string
}

// --- Commands ---

func status(text string) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text} }
}

func failure(prefix string, err error) tea.Cmd {
	return func() tea.Msg { return errorStatus(prefix, err) }
}

func errorStatus(prefix string, err error) statusMsg {
	return statusMsg{text: fmt.Sprintf("%s: %s", prefix, describe(err)), isError: true}
}

// localRule reports errors raised on the client before any request is made.
func localRule(err error) bool {
	for _, target := range []error{
		tracker.ErrGoalBlocked, tracker.ErrInvalidInput,
		reconcile.ErrNotFound, reconcile.ErrClosed,
		derive.ErrDeleteSelf, derive.ErrSuperadminOnly, derive.ErrAdminOnly,
		session.ErrNotSignedIn,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// describe is the text shown for err: the rule text for client-side
// violations, otherwise the server's message.
func describe(err error) string {
	if localRule(err) {
		return err.Error()
	}
	return api.Message(err)
}

// attempt runs fn off the update loop and reports the outcome as a status.
func attempt(ctx context.Context, fn func(context.Context) error, done, prefix string) tea.Cmd {
	return func() tea.Msg {
		if err := fn(ctx); err != nil {
			return errorStatus(prefix, err)
		}
		return statusMsg{text: done}
	}
}

// optimistic runs a coordinator write off the update loop. A rejected write
// is reported by its revert event, so only client-side rule violations
// surface here.
func optimistic(fn func() error, prefix string) tea.Cmd {
	return func() tea.Msg {
		if err := fn(); err != nil && localRule(err) {
			return errorStatus(prefix, err)
		}
		return nil
	}
}

// inline applies an optimistic edit that has already happened locally; only a
// synchronous validation error is reported here, server outcomes arrive as
// syncEventMsg.
func inline(err error, prefix string) tea.Cmd {
	if err == nil {
		return nil
	}
	return failure(prefix, err)
}

// --- Helpers ---

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func formatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d", m, s)
}

func clamp(cursor, n int) int {
	if cursor >= n {
		cursor = n - 1
	}
	return max(cursor, 0)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

func cursorPrefix(selected bool) string {
	if selected {
		return "> "
	}
	return "  "
}

func checkbox(done bool) string {
	if done {
		return successStyle.Render("[x]")
	}
	return mutedStyle.Render("[ ]")
}

func hint(parts ...string) string {
	return mutedStyle.Render("  " + strings.Join(parts, "  "))
}
