package session

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/tuifit/internal/model"
)

type fakeHistory struct {
	entries []model.HistoryEntry
	err     error
}

func (f *fakeHistory) Append(_ context.Context, e model.HistoryEntry) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, e)
	return nil
}

type fakeNotifier struct {
	calls int
	err   error
}

func (f *fakeNotifier) Notify() error {
	f.calls++
	return f.err
}

type fakeSyncer struct {
	entries []model.HistoryEntry
}

func (f *fakeSyncer) WorkoutFinished(e model.HistoryEntry) {
	f.entries = append(f.entries, e)
}

func TestControllerSideEffectsOnce(t *testing.T) {
	hist := &fakeHistory{}
	notifier := &fakeNotifier{}
	syncer := &fakeSyncer{}
	evals := 0
	c := NewController(newMachine(exercise("a", work("10", 0), work("10", 0))), Deps{
		History: hist,
		Achievements: EvaluatorFunc(func(context.Context) ([]string, error) {
			evals++
			return []string{"Первая тренировка"}, nil
		}),
		Notifier: notifier,
		Syncer:   syncer,
	})
	ctx := context.Background()

	c.Start(ctx)
	c.Confirm(ctx)
	c.Confirm(ctx)
	_, done := c.Outcome()
	assert.False(t, done)
	c.Confirm(ctx)
	c.Confirm(ctx)
	c.Skip(ctx)

	assert.Len(t, hist.entries, 1)
	assert.Equal(t, 1, evals)
	assert.Equal(t, 1, notifier.calls)
	assert.Len(t, syncer.entries, 1)

	out, done := c.Outcome()
	require.True(t, done)
	assert.True(t, out.Saved)
	assert.Equal(t, []string{"Первая тренировка"}, out.Unlocked)
	assert.Equal(t, hist.entries[0], out.Entry)
}

func TestControllerFailuresAreLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	c := NewController(newMachine(exercise("a", work("10", 0))), Deps{
		History: &fakeHistory{err: errors.New("disk full")},
		Achievements: EvaluatorFunc(func(context.Context) ([]string, error) {
			return nil, errors.New("ledger locked")
		}),
		Notifier: &fakeNotifier{err: errors.New("no bell")},
		Logger:   logger,
	})
	ctx := context.Background()
	c.Start(ctx)
	c.Confirm(ctx)
	effects := c.Confirm(ctx)

	assert.Equal(t, 1, finishedCount(effects))
	assert.Equal(t, PhaseFinished, c.Machine().Snapshot().Phase)
	out, ok := c.Outcome()
	require.True(t, ok)
	assert.False(t, out.Saved)
	assert.Contains(t, buf.String(), "disk full")
	assert.Contains(t, buf.String(), "ledger locked")
	assert.Contains(t, buf.String(), "no bell")
}

func TestControllerOptionalDeps(t *testing.T) {
	c := NewController(newMachine(exercise("a", work("10", 0))), Deps{})
	ctx := context.Background()
	c.Start(ctx)
	c.Confirm(ctx)
	assert.Equal(t, 1, finishedCount(c.Confirm(ctx)))
	out, ok := c.Outcome()
	require.True(t, ok)
	assert.False(t, out.Saved)
}

func TestControllerEmptyPlan(t *testing.T) {
	hist := &fakeHistory{}
	c := NewController(newMachine(), Deps{History: hist})
	assert.Equal(t, []Effect{NothingToDo{}}, c.Start(context.Background()))
	assert.Empty(t, hist.entries)
}

func TestControllerRestart(t *testing.T) {
	hist := &fakeHistory{}
	c := NewController(newMachine(exercise("a", work("10", 0))), Deps{History: hist})
	ctx := context.Background()
	c.Start(ctx)
	c.Confirm(ctx)
	c.Confirm(ctx)
	require.Len(t, hist.entries, 1)

	c.Restart(ctx)
	_, ok := c.Outcome()
	assert.False(t, ok)
	assert.Equal(t, PhaseGetReady, c.Machine().Snapshot().Phase)
	c.Confirm(ctx)
	c.Confirm(ctx)
	assert.Len(t, hist.entries, 2)
}

func TestControllerTimedTicks(t *testing.T) {
	hist := &fakeHistory{}
	c := NewController(newMachine(exercise("plank", timed(3, 0))), Deps{History: hist})
	ctx := context.Background()
	c.Start(ctx)
	c.Confirm(ctx)
	gen := c.Machine().Snapshot().Countdown.Gen
	for i := 0; i < 10; i++ {
		c.Tick(ctx, gen)
	}
	assert.Len(t, hist.entries, 1)
}
