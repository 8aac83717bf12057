package rollover

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/fieldsync/internal/clock"
	"github.com/roach88/fieldsync/internal/model"
	"github.com/roach88/fieldsync/internal/store"
)

// Store is the subset of *store.Store the engine needs.
type Store interface {
	GetAllCustomers(ctx context.Context) ([]model.Customer, error)
	EnsureActivityLog(ctx context.Context, customerID int64, customerName, date string) (bool, error)
	ResetAllVisited(ctx context.Context) (int64, error)
	GetSettings(ctx context.Context) (model.AppSettings, error)
	SetLastResetDate(ctx context.Context, date string) error
}

var _ Store = (*store.Store)(nil)

// Transition names the branch AutoResetDailyVisitStatus took.
type Transition string

const (
	FirstRun Transition = "first_run"
	NoOp     Transition = "no_op"
	Reset    Transition = "reset"
)

// Result reports what a rollover did.
type Result struct {
	Transition Transition `json:"transition"`
	Date       string     `json:"date"`
	// PreviousDate is the last reset date before this run; empty on FirstRun.
	PreviousDate string `json:"previous_date,omitempty"`
	// Cleared counts customers flipped back to Unvisited.
	Cleared int64 `json:"cleared"`
	// Seeded counts activity rows created for Date.
	Seeded int `json:"seeded"`
}

// Engine runs the daily rollover against a Store.
type Engine struct {
	store  Store
	clock  clock.Clock
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock that decides the current date.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithLogger sets the logger used for per-customer failures and transitions.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an Engine over s.
func New(s Store, opts ...Option) *Engine {
	e := &Engine{
		store:  s,
		clock:  clock.System{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// InitDailyActivityLog makes sure every customer has an activity row for
// today. Existing rows are left alone, so calling it repeatedly on the same
// day is harmless. A failure for one customer is logged and the remaining
// customers are still processed.
//
// Returns the number of rows created.
func (e *Engine) InitDailyActivityLog(ctx context.Context) (int, error) {
	today := clock.Today(e.clock)

	customers, err := e.store.GetAllCustomers(ctx)
	if err != nil {
		return 0, fmt.Errorf("init daily activity log: %w", err)
	}

	seeded := 0
	for _, c := range customers {
		if err := ctx.Err(); err != nil {
			return seeded, fmt.Errorf("init daily activity log: %w", err)
		}
		inserted, err := e.store.EnsureActivityLog(ctx, c.EntityID, c.Name, today)
		if err != nil {
			e.logger.Warn("activity log seed failed",
				"customer_id", c.EntityID,
				"date", today,
				"error", err,
			)
			continue
		}
		if inserted {
			seeded++
		}
	}

	e.logger.Debug("activity log seeded", "date", today, "rows", seeded, "customers", len(customers))
	return seeded, nil
}

// AutoResetDailyVisitStatus detects a day change and applies it.
// It is meant to run on every launch.
func (e *Engine) AutoResetDailyVisitStatus(ctx context.Context) (Result, error) {
	today := clock.Today(e.clock)
	res := Result{Date: today}

	settings, err := e.store.GetSettings(ctx)
	switch {
	case errors.Is(err, store.ErrNotFound):
		res.Transition = FirstRun
		if err := e.store.SetLastResetDate(ctx, today); err != nil {
			return Result{}, fmt.Errorf("auto reset: %w", err)
		}
		if res.Seeded, err = e.InitDailyActivityLog(ctx); err != nil {
			return Result{}, fmt.Errorf("auto reset: %w", err)
		}

	case err != nil:
		return Result{}, fmt.Errorf("auto reset: %w", err)

	case settings.LastResetDate == today:
		res.Transition = NoOp
		res.PreviousDate = settings.LastResetDate

	default:
		res.Transition = Reset
		res.PreviousDate = settings.LastResetDate
		if res.Cleared, err = e.store.ResetAllVisited(ctx); err != nil {
			return Result{}, fmt.Errorf("auto reset: %w", err)
		}
		if res.Seeded, err = e.InitDailyActivityLog(ctx); err != nil {
			return Result{}, fmt.Errorf("auto reset: %w", err)
		}
		if err := e.store.SetLastResetDate(ctx, today); err != nil {
			return Result{}, fmt.Errorf("auto reset: %w", err)
		}
	}

	e.logger.Info("daily rollover",
		"transition", res.Transition,
		"date", res.Date,
		"previous_date", res.PreviousDate,
		"cleared", res.Cleared,
		"seeded", res.Seeded,
	)
	return res, nil
}
