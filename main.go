package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/sadopc/focusflow/internal/api"
	"github.com/sadopc/focusflow/internal/config"
	"github.com/sadopc/focusflow/internal/logging"
	"github.com/sadopc/focusflow/internal/metrics"
	"github.com/sadopc/focusflow/internal/reconcile"
	"github.com/sadopc/focusflow/internal/session"
	"github.com/sadopc/focusflow/internal/store"
	"github.com/sadopc/focusflow/internal/tracker"
	"github.com/sadopc/focusflow/internal/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	dir, err := config.Dir()
	if err != nil {
		return fmt.Errorf("config dir: %w", err)
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logging.New(cfg.Log.Level, cfg.Log.Path)
	if err != nil {
		return err
	}
	defer log.Sync()

	s, err := store.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	if cfg.Metrics.Addr != "" {
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: m.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("metrics listener", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	client, err := api.New(api.Config{
		BaseURL:           cfg.API.BaseURL,
		Timeout:           cfg.API.Timeout,
		RequestsPerSecond: cfg.API.RequestsPerSecond,
		Burst:             cfg.API.Burst,
	}, s, api.WithMetrics(m), api.WithLogger(logging.Named("api")))
	if err != nil {
		return err
	}

	sess := session.New(s, client, logging.Named("session"))
	sel := session.NewFocus()

	// Coordinators call OnEvent from their own goroutines; a full queue
	// drops the event rather than stall a write.
	events := make(chan reconcile.Event, 64)
	deps := tracker.Deps{
		API:      client,
		Log:      log,
		Metrics:  m,
		Debounce: cfg.Sync.Debounce,
		OnEvent: func(ev reconcile.Event) {
			select {
			case events <- ev:
			default:
				log.Warn("event queue full", zap.String("entity", ev.Entity), zap.Stringer("kind", ev.Kind))
			}
		},
	}
	notes := deps
	notes.Debounce = cfg.Sync.NotesDebounce

	svc := tui.Services{
		Store:     s,
		Session:   sess,
		Selection: sel,
		Focus:     tracker.NewFocus(deps, s, sess, sel),
		Tasks:     tracker.NewTasks(deps),
		Goals:     tracker.NewGoals(deps),
		Routine:   tracker.NewRoutine(deps),
		Money:     tracker.NewMoney(deps),
		Gym:       tracker.NewGym(deps),
		Projects:  tracker.NewProjects(notes),
		Calendar:  tracker.NewCalendar(deps),
		Admin: tracker.NewAdmin(deps, func() api.User {
			if u := sess.Snapshot().User; u != nil {
				return *u
			}
			return api.User{}
		}),
		Events:    events,
		ExportDir: dir,
		ToastTTL:  cfg.Sync.ToastTTL,
		Log:       logging.Named("tui"),
	}

	go func() {
		if snap := sess.Start(ctx); snap.State != session.StateAuthenticated {
			return
		}
		if n, err := svc.Focus.SyncPending(ctx); err != nil {
			log.Warn("sync pending sessions", zap.Error(err))
		} else if n > 0 {
			log.Info("synced pending sessions", zap.Int("count", n))
		}
	}()

	p := tea.NewProgram(tui.NewApp(ctx, svc), tea.WithAltScreen(), tea.WithContext(ctx))
	_, runErr := p.Run()

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	svc.Shutdown(flushCtx)

	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return runErr
	}
	return nil
}
