// Package achievements awards badges and their gems.
package achievements

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/verte-zerg/tuifit/internal/gems"
	"github.com/verte-zerg/tuifit/internal/store"
)

// Store keys holding unlocked badge ids and the ids whose reward was paid.
const (
	Key     = "user_achievements"
	PaidKey = "user_achievements_paid"
)

// Reward is the number of gems granted per badge.
const Reward = 10

// Stats are the inputs badges are checked against.
type Stats struct {
	TotalWorkouts int
	WeightEntries int
	NightWorkouts int
}

// Badge is one achievement.
type Badge struct {
	ID    string
	Name  string
	Icon  string
	check func(Stats) bool
}

// IdempotencyKey is the wallet key for the badge reward.
func (b Badge) IdempotencyKey() string {
	return "achievement:" + b.ID
}

var badges = []Badge{
	{ID: "first_workout", Name: "Первый шаг", Icon: "👣", check: func(s Stats) bool { return s.TotalWorkouts >= 1 }},
	{ID: "five_workouts", Name: "Разгон", Icon: "🔥", check: func(s Stats) bool { return s.TotalWorkouts >= 5 }},
	{ID: "ten_workouts", Name: "Сила воли", Icon: "🏋", check: func(s Stats) bool { return s.TotalWorkouts >= 10 }},
	{ID: "first_weight", Name: "Контроль", Icon: "⚖", check: func(s Stats) bool { return s.WeightEntries >= 1 }},
	{ID: "five_weights", Name: "Тенденция", Icon: "📈", check: func(s Stats) bool { return s.WeightEntries >= 5 }},
	{ID: "night_owl", Name: "Сова", Icon: "🌙", check: func(s Stats) bool { return s.NightWorkouts >= 1 }},
}

// Badges returns the badge catalog in display order.
func Badges() []Badge {
	return slices.Clone(badges)
}

// Counter counts stored records.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// Wallet credits badge rewards.
type Wallet interface {
	AddGems(ctx context.Context, amount int, opts gems.Options) (gems.Result, error)
}

// Evaluator checks badges against the workout and weight logs.
type Evaluator struct {
	kv       store.KV
	workouts Counter
	weights  Counter
	wallet   Wallet
	now      func() time.Time
}

// NewEvaluator builds an Evaluator. now defaults to time.Now.
func NewEvaluator(kv store.KV, workouts, weights Counter, wallet Wallet, now func() time.Time) *Evaluator {
	if now == nil {
		now = time.Now
	}
	return &Evaluator{kv: kv, workouts: workouts, weights: weights, wallet: wallet, now: now}
}

// IsNight reports whether t falls between 23:00 and 06:00 local time.
func IsNight(t time.Time) bool {
	h := t.Hour()
	return h >= 23 || h < 6
}

// Stats gathers the current badge inputs.
func (e *Evaluator) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	var err error
	if s.TotalWorkouts, err = e.workouts.Count(ctx); err != nil {
		return Stats{}, fmt.Errorf("failed to count workouts: %w", err)
	}
	if s.WeightEntries, err = e.weights.Count(ctx); err != nil {
		return Stats{}, fmt.Errorf("failed to count weight entries: %w", err)
	}
	if IsNight(e.now()) {
		s.NightWorkouts = 1
	}
	return s, nil
}

// Unlocked returns the ids of unlocked badges.
func (e *Evaluator) Unlocked(ctx context.Context) ([]string, error) {
	var ids []string
	if _, err := store.LoadJSON(ctx, e.kv, Key, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// Evaluate unlocks every satisfied badge and credits its reward. Paid
// badge ids are kept under PaidKey, so a reward is credited once even after
// the wallet's idempotency list has rotated past it. A failed payout is
// retried on the next call. It returns the badges unlocked by this call.
func (e *Evaluator) Evaluate(ctx context.Context) ([]Badge, error) {
	stats, err := e.Stats(ctx)
	if err != nil {
		return nil, err
	}
	ids, err := e.Unlocked(ctx)
	if err != nil {
		return nil, err
	}
	var paid []string
	if _, err := store.LoadJSON(ctx, e.kv, PaidKey, &paid); err != nil {
		return nil, err
	}
	var (
		fresh   []Badge
		newPaid bool
		errs    []error
	)
	for _, b := range badges {
		if !b.check(stats) {
			continue
		}
		if !slices.Contains(ids, b.ID) {
			ids = append(ids, b.ID)
			fresh = append(fresh, b)
		}
		if e.wallet == nil || slices.Contains(paid, b.ID) {
			continue
		}
		_, err := e.wallet.AddGems(ctx, Reward, gems.Options{
			Reason:         "achievement",
			Title:          "Достижение: " + b.Name,
			IdempotencyKey: b.IdempotencyKey(),
			Meta:           map[string]string{"achievement": b.ID},
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to reward %s: %w", b.ID, err))
			continue
		}
		paid = append(paid, b.ID)
		newPaid = true
	}
	if len(fresh) > 0 {
		if err := store.SaveJSON(ctx, e.kv, Key, ids); err != nil {
			return nil, err
		}
	}
	if newPaid {
		if err := store.SaveJSON(ctx, e.kv, PaidKey, paid); err != nil {
			return nil, err
		}
	}
	return fresh, errors.Join(errs...)
}

// Titles returns badge names for display.
func Titles(list []Badge) []string {
	out := make([]string, 0, len(list))
	for _, b := range list {
		out = append(out, b.Icon+" "+b.Name)
	}
	return out
}
