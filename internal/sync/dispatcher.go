package sync

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/verte-zerg/tuifit/internal/model"
)

// DefaultTimeout bounds a single send.
const DefaultTimeout = 10 * time.Second

// Sender delivers one event.
type Sender interface {
	Enabled() bool
	Send(ctx context.Context, event any) error
}

// Dispatcher sends events in the background. Callers never block on the
// network; Wait lets a process flush pending sends before exiting.
type Dispatcher struct {
	sender  Sender
	timeout time.Duration
	logger  *slog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher returns a Dispatcher. A non-positive timeout uses
// DefaultTimeout.
func NewDispatcher(sender Sender, timeout time.Duration, logger *slog.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Dispatcher{sender: sender, timeout: timeout, logger: logger}
}

// WorkoutFinished queues a workout_finished event.
func (d *Dispatcher) WorkoutFinished(entry model.HistoryEntry) {
	d.dispatch(NewWorkoutEvent(entry), TypeWorkoutFinished)
}

// WeightUpserted queues a weight_upsert event.
func (d *Dispatcher) WeightUpserted(date string, weight float64) {
	d.dispatch(NewWeightEvent(date, weight), TypeWeightUpsert)
}

func (d *Dispatcher) dispatch(event any, kind string) {
	if d.sender == nil || !d.sender.Enabled() {
		d.logger.Debug("sync disabled; event dropped", "type", kind)
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		if err := d.sender.Send(ctx, event); err != nil {
			d.logger.Warn("failed to sync event", "type", kind, "err", err)
			return
		}
		d.logger.Info("event synced", "type", kind)
	}()
}

// Wait blocks until pending sends finish or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
