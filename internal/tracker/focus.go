package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sadopc/focusflow/internal/api"
	"github.com/sadopc/focusflow/internal/derive"
	"github.com/sadopc/focusflow/internal/session"
	"github.com/sadopc/focusflow/internal/store"
)

// SessionLog is the local record of finished sessions and focus targets.
type SessionLog interface {
	RecordSession(r store.SessionRecord) (*store.SessionRecord, error)
	MarkSessionSynced(id int64, serverID string) error
	UnsyncedSessions() ([]store.SessionRecord, error)
	FocusGoals() (derive.FocusGoals, error)
	SaveFocusGoals(g derive.FocusGoals) error
}

// DailyGoalSetter mirrors the daily session target onto the user profile.
type DailyGoalSetter interface {
	UpdateDailyGoal(ctx context.Context, goal int) error
}

// Selector reports what the timer is currently attributed to.
type Selector interface {
	Selection() session.Selection
}

// Focus keeps pomodoro statistics and goals. Finished phases are written to
// the local log first and then sent to the server, so nothing is lost while
// offline.
type Focus struct {
	deps    Deps
	log     SessionLog
	profile DailyGoalSetter
	sel     Selector

	// sendMu serializes uploads so a record is never sent twice.
	sendMu sync.Mutex
}

func NewFocus(d Deps, log SessionLog, profile DailyGoalSetter, sel Selector) *Focus {
	return &Focus{deps: d.withDefaults(), log: log, profile: profile, sel: sel}
}

// FocusSummary is what the dashboard shows.
type FocusSummary struct {
	Today        int
	Goal         derive.DayGoal
	Progress     int
	Week         []api.DayCount
	Totals       derive.WeekTotals
	WeeklyTarget int
}

func (f *Focus) Summary(ctx context.Context) (FocusSummary, error) {
	goals, err := f.log.FocusGoals()
	if err != nil {
		return FocusSummary{}, err
	}
	today, err := f.deps.API.TodayStats(ctx)
	if err != nil {
		return FocusSummary{}, fmt.Errorf("load today stats: %w", err)
	}
	week, err := f.deps.API.WeeklyStats(ctx)
	if err != nil {
		return FocusSummary{}, fmt.Errorf("load weekly stats: %w", err)
	}
	goal := goals.Today(f.deps.Now())
	return FocusSummary{
		Today:        today.TodayPomodoros,
		Goal:         goal,
		Progress:     derive.DayProgress(today.TodayPomodoros, goal),
		Week:         week,
		Totals:       derive.WeeklyTotals(week),
		WeeklyTarget: goals.WeeklyTarget(),
	}, nil
}

func (f *Focus) Goals() (derive.FocusGoals, error) { return f.log.FocusGoals() }

// SaveGoals stores the schedule locally and pushes the daily target to the
// profile. A profile failure is returned but the local save stands.
func (f *Focus) SaveGoals(ctx context.Context, g derive.FocusGoals) error {
	if g.DailySessions < 1 {
		return fmt.Errorf("%w: daily sessions must be at least 1", ErrInvalidInput)
	}
	if err := f.log.SaveFocusGoals(g); err != nil {
		return err
	}
	if f.profile == nil {
		return nil
	}
	return f.profile.UpdateDailyGoal(ctx, g.DailySessions)
}

// LogPhase records a finished timer phase attributed to the current
// selection.
func (f *Focus) LogPhase(ctx context.Context, typ api.SessionType, length time.Duration) error {
	var sel session.Selection
	if f.sel != nil {
		sel = f.sel.Selection()
	}
	f.sendMu.Lock()
	defer f.sendMu.Unlock()
	fs := sel.Session(typ, int(length.Seconds()))
	rec, err := f.log.RecordSession(store.SessionRecord{
		Type:          string(fs.Type),
		Duration:      fs.DurationSeconds,
		ProjectID:     fs.ProjectID,
		ProjectTaskID: fs.ProjectTaskID,
		CompletedAt:   f.deps.Now(),
	})
	if err != nil {
		return err
	}
	return f.send(ctx, *rec)
}

func (f *Focus) send(ctx context.Context, rec store.SessionRecord) error {
	saved, err := f.deps.API.LogSession(ctx, api.FocusSession{
		DurationSeconds: rec.Duration,
		Type:            api.SessionType(rec.Type),
		ProjectID:       rec.ProjectID,
		ProjectTaskID:   rec.ProjectTaskID,
		CompletedAt:     rec.CompletedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		f.deps.Log.Warn("log session", zap.Int64("local_id", rec.ID), zap.Error(err))
		return fmt.Errorf("log session: %w", err)
	}
	return f.log.MarkSessionSynced(rec.ID, saved.ID)
}

// SyncPending resends sessions the server has not accepted yet. It returns
// how many were sent.
func (f *Focus) SyncPending(ctx context.Context) (int, error) {
	f.sendMu.Lock()
	defer f.sendMu.Unlock()
	pending, err := f.log.UnsyncedSessions()
	if err != nil {
		return 0, err
	}
	sent := 0
	var errs []error
	for _, rec := range pending {
		if err := f.send(ctx, rec); err != nil {
			errs = append(errs, err)
			if api.IsUnauthorized(err) || ctx.Err() != nil {
				break
			}
			continue
		}
		sent++
	}
	return sent, errors.Join(errs...)
}
