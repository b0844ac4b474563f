package stats

import (
	"context"
	"time"

	"github.com/verte-zerg/tuifit/internal/gems"
	"github.com/verte-zerg/tuifit/internal/model"
)

// WeeksShown is the number of ISO weeks in a report.
const WeeksShown = 8

// HistoryLister lists finished workouts.
type HistoryLister interface {
	List(ctx context.Context) ([]model.HistoryEntry, error)
}

// WeightLister lists weight measurements.
type WeightLister interface {
	List(ctx context.Context) ([]model.WeightEntry, error)
}

// Wallet exposes the gems balance and log.
type Wallet interface {
	Balance(ctx context.Context) (int, error)
	Transactions(ctx context.Context, limit int) ([]gems.Transaction, error)
}

// Sources are the logs a report is built from.
type Sources struct {
	History HistoryLister
	Weights WeightLister
	Wallet  Wallet
}

// Report contains precomputed data for stats rendering.
type Report struct {
	Entries      []model.HistoryEntry
	Summary      Summary
	Weeks        []WeekCount
	Weights      []model.WeightEntry
	Balance      int
	Transactions []gems.Transaction
}

// BuildReport loads and prepares data for stats rendering. Summary and
// weeks cover the full history; Entries honours the filters.
func BuildReport(ctx context.Context, src Sources, cfg model.StatsConfig, now time.Time) (Report, error) {
	all, err := src.History.List(ctx)
	if err != nil {
		return Report{}, err
	}
	entries := filterEntries(all, cfg)

	var weights []model.WeightEntry
	if src.Weights != nil {
		if weights, err = src.Weights.List(ctx); err != nil {
			return Report{}, err
		}
	}
	var (
		balance int
		txs     []gems.Transaction
	)
	if src.Wallet != nil {
		if balance, err = src.Wallet.Balance(ctx); err != nil {
			return Report{}, err
		}
		if txs, err = src.Wallet.Transactions(ctx, cfg.Limit); err != nil {
			return Report{}, err
		}
	}

	return Report{
		Entries:      entries,
		Summary:      Summarize(all, now),
		Weeks:        WeeklyCounts(all, now, WeeksShown),
		Weights:      weights,
		Balance:      balance,
		Transactions: txs,
	}, nil
}

func filterEntries(entries []model.HistoryEntry, cfg model.StatsConfig) []model.HistoryEntry {
	out := make([]model.HistoryEntry, 0, len(entries))
	for _, e := range entries {
		if cfg.Since != nil && e.Time().Before(*cfg.Since) {
			continue
		}
		out = append(out, e)
	}
	if cfg.Last > 0 && len(out) > cfg.Last {
		out = out[len(out)-cfg.Last:]
	}
	return out
}
