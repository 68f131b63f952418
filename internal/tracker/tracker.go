// Package tracker holds one controller per screen. Controllers own their
// collections for the lifetime of a view, apply edits optimistically through
// reconcile coordinators and report write outcomes through Deps.OnEvent.
package tracker

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/sadopc/focusflow/internal/api"
	"github.com/sadopc/focusflow/internal/derive"
	"github.com/sadopc/focusflow/internal/metrics"
	"github.com/sadopc/focusflow/internal/reconcile"
)

var (
	ErrGoalBlocked  = errors.New("goal is blocked by an unfinished dependency")
	ErrInvalidInput = errors.New("invalid input")
)

type Deps struct {
	API      *api.Client
	Log      *zap.Logger
	Metrics  *metrics.Metrics
	Debounce time.Duration
	OnEvent  func(reconcile.Event)
	Now      func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

func options[T any](d Deps, entity string, clone func(T) T) reconcile.Options[T] {
	return reconcile.Options[T]{
		Entity:   entity,
		Debounce: d.Debounce,
		Clone:    clone,
		Logger:   d.Log.Named(entity),
		Metrics:  d.Metrics,
		OnEvent:  d.OnEvent,
	}
}

func (d Deps) today() string {
	return d.Now().Format(derive.DateLayout)
}
