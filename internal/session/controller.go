package session

import (
	"context"
	"log/slog"

	"github.com/verte-zerg/tuifit/internal/model"
)

// HistoryAppender persists finished sessions.
type HistoryAppender interface {
	Append(ctx context.Context, entry model.HistoryEntry) error
}

// AchievementEvaluator re-evaluates badges after a session and returns the
// titles of newly unlocked ones.
type AchievementEvaluator interface {
	Evaluate(ctx context.Context) ([]string, error)
}

// EvaluatorFunc adapts a function to AchievementEvaluator.
type EvaluatorFunc func(ctx context.Context) ([]string, error)

// Evaluate calls f.
func (f EvaluatorFunc) Evaluate(ctx context.Context) ([]string, error) { return f(ctx) }

// Notifier gives physical feedback when a session ends.
type Notifier interface {
	Notify() error
}

// Syncer forwards a finished session to a remote backend. It must not
// block.
type Syncer interface {
	WorkoutFinished(entry model.HistoryEntry)
}

// Deps are the collaborators invoked when a session finishes. Everything
// except Logger may be nil.
type Deps struct {
	History      HistoryAppender
	Achievements AchievementEvaluator
	Notifier     Notifier
	Syncer       Syncer
	Logger       *slog.Logger
}

// Outcome describes what happened after the session finished.
type Outcome struct {
	Entry    model.HistoryEntry
	Saved    bool
	Unlocked []string
}

// Controller owns a Machine and performs completion side effects exactly
// once. Failures are logged and never change the session state.
type Controller struct {
	machine *Machine
	deps    Deps
	outcome *Outcome
}

// NewController wraps m.
func NewController(m *Machine, deps Deps) *Controller {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	return &Controller{machine: m, deps: deps}
}

// Machine returns the wrapped machine for read access.
func (c *Controller) Machine() *Machine { return c.machine }

// Outcome returns the completion result once the session has finished.
func (c *Controller) Outcome() (Outcome, bool) {
	if c.outcome == nil {
		return Outcome{}, false
	}
	return *c.outcome, true
}

// Start forwards to Machine.Start.
func (c *Controller) Start(ctx context.Context) []Effect {
	return c.handle(ctx, c.machine.Start())
}

// Confirm forwards to Machine.Confirm.
func (c *Controller) Confirm(ctx context.Context) []Effect {
	return c.handle(ctx, c.machine.Confirm())
}

// Skip forwards to Machine.Skip.
func (c *Controller) Skip(ctx context.Context) []Effect {
	return c.handle(ctx, c.machine.Skip())
}

// Tick forwards to Machine.Tick.
func (c *Controller) Tick(ctx context.Context, gen Generation) []Effect {
	return c.handle(ctx, c.machine.Tick(gen))
}

// Restart resets the machine and starts it again.
func (c *Controller) Restart(ctx context.Context) []Effect {
	c.outcome = nil
	effects := c.machine.Reset()
	return append(effects, c.handle(ctx, c.machine.Start())...)
}

func (c *Controller) handle(ctx context.Context, effects []Effect) []Effect {
	for _, e := range effects {
		if fin, ok := e.(Finished); ok {
			c.complete(ctx, fin.Entry)
		}
	}
	return effects
}

func (c *Controller) complete(ctx context.Context, entry model.HistoryEntry) {
	if c.outcome != nil {
		return
	}
	log := c.deps.Logger
	out := &Outcome{Entry: entry}
	c.outcome = out

	if c.deps.History != nil {
		if err := c.deps.History.Append(ctx, entry); err != nil {
			log.Warn("failed to save workout history", "title", entry.Title, "err", err)
		} else {
			out.Saved = true
		}
	}
	if c.deps.Achievements != nil {
		unlocked, err := c.deps.Achievements.Evaluate(ctx)
		if err != nil {
			log.Warn("failed to evaluate achievements", "err", err)
		}
		out.Unlocked = unlocked
	}
	if c.deps.Notifier != nil {
		if err := c.deps.Notifier.Notify(); err != nil {
			log.Debug("haptic notification failed", "err", err)
		}
	}
	if c.deps.Syncer != nil {
		c.deps.Syncer.WorkoutFinished(entry)
	}
	log.Info("workout finished", "title", entry.Title, "source", entry.Source, "saved", out.Saved, "unlocked", len(out.Unlocked))
}
