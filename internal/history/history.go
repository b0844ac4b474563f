// Package history keeps the log of finished workouts.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/verte-zerg/tuifit/internal/model"
	"github.com/verte-zerg/tuifit/internal/store"
)

// Key is the store key holding the JSON array of entries.
const Key = "trainingHistory"

// Log reads and appends history entries in a KV store.
type Log struct {
	kv store.KV
}

// New returns a Log over kv.
func New(kv store.KV) *Log {
	return &Log{kv: kv}
}

// rawEntry accepts the legacy field names older clients wrote.
type rawEntry struct {
	Date       string          `json:"date"`
	FinishedAt string          `json:"finished_at"`
	Source     string          `json:"source"`
	TrainingID json.RawMessage `json:"training_id"`
	CourseID   json.RawMessage `json:"course_id"`
	DayIndex   *int            `json:"day_index"`
	Title      string          `json:"title"`
	Name       string          `json:"name"`
}

// Append adds one entry. A malformed stored log is replaced.
func (l *Log) Append(ctx context.Context, entry model.HistoryEntry) error {
	var raw []json.RawMessage
	if _, err := store.LoadJSON(ctx, l.kv, Key, &raw); err != nil {
		return err
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode history entry: %w", err)
	}
	raw = append(raw, data)
	return store.SaveJSON(ctx, l.kv, Key, raw)
}

// List returns all entries oldest first. Entries without a date are
// dropped and legacy fields are mapped onto the current shape.
func (l *Log) List(ctx context.Context) ([]model.HistoryEntry, error) {
	var raw []json.RawMessage
	if _, err := store.LoadJSON(ctx, l.kv, Key, &raw); err != nil {
		return nil, err
	}
	entries := make([]model.HistoryEntry, 0, len(raw))
	for _, item := range raw {
		var r rawEntry
		if err := json.Unmarshal(item, &r); err != nil {
			continue
		}
		if e, ok := normalize(r); ok {
			entries = append(entries, e)
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Time().Before(entries[j].Time())
	})
	return entries, nil
}

// Count returns the number of valid entries.
func (l *Log) Count(ctx context.Context) (int, error) {
	entries, err := l.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

func normalize(r rawEntry) (model.HistoryEntry, bool) {
	date := r.Date
	if date == "" {
		date = r.FinishedAt
	}
	if date == "" {
		return model.HistoryEntry{}, false
	}
	e := model.HistoryEntry{
		Date:       date,
		Source:     model.HistorySource(r.Source),
		TrainingID: idString(r.TrainingID),
		CourseID:   idString(r.CourseID),
		DayIndex:   r.DayIndex,
		Title:      r.Title,
	}
	if e.Source == "" {
		e.Source = model.SourceSingle
	}
	if e.Title == "" {
		e.Title = r.Name
	}
	if e.Title == "" {
		e.Title = DefaultTitle(e.Source)
	}
	return e, true
}

// DefaultTitle names an entry that was stored without one.
func DefaultTitle(source model.HistorySource) string {
	if source == model.SourceCourse {
		return "Тренировка (курс)"
	}
	return "Тренировка"
}

// idString accepts ids stored as strings or numbers.
func idString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var t model.Text
	if err := json.Unmarshal(raw, &t); err != nil {
		return ""
	}
	return string(t)
}
