// Package bonus grants gems for trained days and for meeting the weekly
// goal.
package bonus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/verte-zerg/tuifit/internal/gems"
	"github.com/verte-zerg/tuifit/internal/model"
	"github.com/verte-zerg/tuifit/internal/stats"
	"github.com/verte-zerg/tuifit/internal/store"
)

// ClaimsKey is the store key holding claimed bonuses.
const ClaimsKey = "training_calendar_claims_v1"

// Bonus amounts and defaults.
const (
	DayAmount   = 2
	WeekAmount  = 5
	DefaultGoal = 3
)

var (
	// ErrNoWorkout is returned when claiming a day without workouts.
	ErrNoWorkout = errors.New("no workouts on that day")
	// ErrGoalNotMet is returned when the weekly goal is not reached.
	ErrGoalNotMet = errors.New("weekly goal not reached")
	// ErrAlreadyClaimed is returned for a bonus claimed before.
	ErrAlreadyClaimed = errors.New("bonus already claimed")
)

// HistoryLister lists finished workouts.
type HistoryLister interface {
	List(ctx context.Context) ([]model.HistoryEntry, error)
}

// Wallet credits bonuses.
type Wallet interface {
	AddGems(ctx context.Context, amount int, opts gems.Options) (gems.Result, error)
}

type claim struct {
	TS string `json:"ts"`
}

// Calendar evaluates and records bonus claims.
type Calendar struct {
	kv      store.KV
	history HistoryLister
	wallet  Wallet
	goal    int
	loc     *time.Location
	now     func() time.Time
}

// Option customizes a Calendar.
type Option func(*Calendar)

// WithLocation sets the time zone used to bucket workouts into days.
func WithLocation(loc *time.Location) Option {
	return func(c *Calendar) { c.loc = loc }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Calendar) { c.now = now }
}

// New returns a Calendar. goal is clamped to 1..7; zero means DefaultGoal.
func New(kv store.KV, history HistoryLister, wallet Wallet, goal int, opts ...Option) *Calendar {
	c := &Calendar{kv: kv, history: history, wallet: wallet, goal: ClampGoal(goal), loc: time.Local, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ClampGoal normalizes a days-per-week goal.
func ClampGoal(goal int) int {
	if goal == 0 {
		return DefaultGoal
	}
	return max(1, min(7, goal))
}

// Goal returns the weekly goal in days.
func (c *Calendar) Goal() int { return c.goal }

// DayStatus describes one calendar day.
type DayStatus struct {
	Key      string
	Workouts []model.HistoryEntry
	Claimed  bool
}

// CanClaim reports whether the day bonus is available.
func (d DayStatus) CanClaim() bool {
	return len(d.Workouts) > 0 && !d.Claimed
}

// WeekStatus describes one ISO week.
type WeekStatus struct {
	Key     string
	Start   time.Time
	End     time.Time
	Days    int
	Goal    int
	Claimed bool
}

// CanClaim reports whether the week bonus is available.
func (w WeekStatus) CanClaim() bool {
	return w.Days >= w.Goal && !w.Claimed
}

// Day reports the status of the day containing t.
func (c *Calendar) Day(ctx context.Context, t time.Time) (DayStatus, error) {
	days, claims, err := c.load(ctx)
	if err != nil {
		return DayStatus{}, err
	}
	key := stats.DayKey(t.In(c.loc))
	_, claimed := claims["day:"+key]
	return DayStatus{Key: key, Workouts: days[key], Claimed: claimed}, nil
}

// Week reports the status of the ISO week containing t.
func (c *Calendar) Week(ctx context.Context, t time.Time) (WeekStatus, error) {
	days, claims, err := c.load(ctx)
	if err != nil {
		return WeekStatus{}, err
	}
	t = t.In(c.loc)
	key := stats.WeekKey(t)
	start := stats.WeekStart(t)
	_, claimed := claims["week:"+key]
	return WeekStatus{
		Key:     key,
		Start:   start,
		End:     start.AddDate(0, 0, 6),
		Days:    stats.TrainedDaysInWeek(days, key, c.loc),
		Goal:    c.goal,
		Claimed: claimed,
	}, nil
}

// ClaimDay grants the day bonus for the day containing t.
func (c *Calendar) ClaimDay(ctx context.Context, t time.Time) (gems.Result, error) {
	day, err := c.Day(ctx, t)
	if err != nil {
		return gems.Result{}, err
	}
	if len(day.Workouts) == 0 {
		return gems.Result{}, ErrNoWorkout
	}
	if day.Claimed {
		return gems.Result{}, ErrAlreadyClaimed
	}
	res, err := c.wallet.AddGems(ctx, DayAmount, gems.Options{
		Title:          "Бонус за тренировку",
		Reason:         "workout_daily_bonus",
		IdempotencyKey: "workout_day:" + day.Key,
		Meta:           map[string]any{"day": day.Key},
	})
	if err != nil {
		return res, fmt.Errorf("failed to grant day bonus: %w", err)
	}
	return res, c.record(ctx, "day:"+day.Key)
}

// ClaimWeek grants the week bonus for the ISO week containing t.
func (c *Calendar) ClaimWeek(ctx context.Context, t time.Time) (gems.Result, error) {
	week, err := c.Week(ctx, t)
	if err != nil {
		return gems.Result{}, err
	}
	if week.Claimed {
		return gems.Result{}, ErrAlreadyClaimed
	}
	if week.Days < week.Goal {
		return gems.Result{}, ErrGoalNotMet
	}
	res, err := c.wallet.AddGems(ctx, WeekAmount, gems.Options{
		Title:          "Бонус за неделю",
		Reason:         "workout_weekly_bonus",
		IdempotencyKey: "workout_week:" + week.Key,
		Meta:           map[string]any{"week": week.Key, "goalDays": week.Goal},
	})
	if err != nil {
		return res, fmt.Errorf("failed to grant week bonus: %w", err)
	}
	return res, c.record(ctx, "week:"+week.Key)
}

func (c *Calendar) load(ctx context.Context) (map[string][]model.HistoryEntry, map[string]claim, error) {
	entries, err := c.history.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	claims, err := c.claims(ctx)
	if err != nil {
		return nil, nil, err
	}
	return stats.DayMap(entries, c.loc), claims, nil
}

func (c *Calendar) claims(ctx context.Context) (map[string]claim, error) {
	var claims map[string]claim
	ok, err := store.LoadJSON(ctx, c.kv, ClaimsKey, &claims)
	if err != nil {
		return nil, err
	}
	if !ok || claims == nil {
		claims = map[string]claim{}
	}
	return claims, nil
}

func (c *Calendar) record(ctx context.Context, key string) error {
	claims, err := c.claims(ctx)
	if err != nil {
		return err
	}
	claims[key] = claim{TS: c.now().UTC().Format(time.RFC3339Nano)}
	return store.SaveJSON(ctx, c.kv, ClaimsKey, claims)
}
