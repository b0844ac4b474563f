// Package weight keeps one body-weight measurement per day.
package weight

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/verte-zerg/tuifit/internal/model"
	"github.com/verte-zerg/tuifit/internal/store"
)

// Key is the store key holding the JSON array of entries.
const Key = "weightHistory"

// Accepted measurement range in kilograms.
const (
	MinKg = 30
	MaxKg = 300
)

// ErrOutOfRange is returned for implausible measurements.
var ErrOutOfRange = errors.New("weight must be between 30 and 300 kg")

const dayLayout = "2006-01-02"

// Syncer is told about every stored measurement.
type Syncer interface {
	WeightUpserted(date string, weight float64)
}

// Log is the weight history over a KV store.
type Log struct {
	kv     store.KV
	syncer Syncer
}

// New returns a Log over kv. syncer may be nil.
func New(kv store.KV, syncer Syncer) *Log {
	return &Log{kv: kv, syncer: syncer}
}

// List returns entries sorted by date, oldest first.
func (l *Log) List(ctx context.Context) ([]model.WeightEntry, error) {
	var entries []model.WeightEntry
	if _, err := store.LoadJSON(ctx, l.kv, Key, &entries); err != nil {
		return nil, err
	}
	out := entries[:0]
	for _, e := range entries {
		if _, err := time.Parse(dayLayout, e.Date); err != nil || e.Weight <= 0 {
			continue
		}
		out = append(out, e)
	}
	sortEntries(out)
	return out, nil
}

// Upsert records kg for the UTC day of at, replacing that day's value.
func (l *Log) Upsert(ctx context.Context, at time.Time, kg float64) (model.WeightEntry, error) {
	if kg < MinKg || kg > MaxKg {
		return model.WeightEntry{}, ErrOutOfRange
	}
	entries, err := l.List(ctx)
	if err != nil {
		return model.WeightEntry{}, err
	}
	entry := model.WeightEntry{Date: at.UTC().Format(dayLayout), Weight: kg}
	replaced := false
	for i := range entries {
		if entries[i].Date == entry.Date {
			entries[i].Weight = kg
			replaced = true
			break
		}
	}
	if !replaced {
		entries = append(entries, entry)
	}
	sortEntries(entries)
	if err := store.SaveJSON(ctx, l.kv, Key, entries); err != nil {
		return model.WeightEntry{}, err
	}
	if l.syncer != nil {
		l.syncer.WeightUpserted(entry.Date, entry.Weight)
	}
	return entry, nil
}

// Latest returns the most recent entry.
func (l *Log) Latest(ctx context.Context) (model.WeightEntry, bool, error) {
	entries, err := l.List(ctx)
	if err != nil || len(entries) == 0 {
		return model.WeightEntry{}, false, err
	}
	return entries[len(entries)-1], true, nil
}

// Count returns the number of stored days.
func (l *Log) Count(ctx context.Context) (int, error) {
	entries, err := l.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

func sortEntries(entries []model.WeightEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date < entries[j].Date
	})
}
