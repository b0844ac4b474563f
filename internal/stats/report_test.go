package stats

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/tuifit/internal/gems"
	"github.com/verte-zerg/tuifit/internal/history"
	"github.com/verte-zerg/tuifit/internal/model"
	"github.com/verte-zerg/tuifit/internal/store"
	"github.com/verte-zerg/tuifit/internal/weight"
)

func TestBuildReport(t *testing.T) {
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "tuifit.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	ctx := context.Background()
	now := time.Date(2026, 3, 4, 20, 0, 0, 0, time.UTC)
	hist := history.New(st)
	for i := 0; i < 3; i++ {
		entry := model.HistoryEntry{
			Date:   now.AddDate(0, 0, -i).Format(time.RFC3339),
			Source: model.SourceSingle,
			Title:  "Full body",
		}
		if err := hist.Append(ctx, entry); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	weights := weight.New(st, nil)
	if _, err := weights.Upsert(ctx, now, 80); err != nil {
		t.Fatalf("weight: %v", err)
	}
	wallet := gems.New(st)
	if _, err := wallet.AddGems(ctx, 2, gems.Options{}); err != nil {
		t.Fatalf("gems: %v", err)
	}

	since := now.AddDate(0, 0, -1).Add(-time.Hour)
	report, err := BuildReport(ctx, Sources{History: hist, Weights: weights, Wallet: wallet}, model.StatsConfig{Since: &since, Limit: 5}, now)
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(report.Entries) != 2 {
		t.Fatalf("expected 2 filtered entries, got %d", len(report.Entries))
	}
	if report.Summary.Total != 3 {
		t.Fatalf("summary should cover all entries, got %d", report.Summary.Total)
	}
	if report.Summary.Streak != 3 {
		t.Fatalf("expected streak 3, got %d", report.Summary.Streak)
	}
	if len(report.Weeks) != WeeksShown {
		t.Fatalf("expected %d weeks, got %d", WeeksShown, len(report.Weeks))
	}
	if last := report.Weeks[len(report.Weeks)-1]; last.Key != "2026-W10" || last.Days != 3 {
		t.Fatalf("unexpected current week: %+v", last)
	}
	if len(report.Weights) != 1 || report.Balance != 2 || len(report.Transactions) != 1 {
		t.Fatalf("unexpected side data: %+v", report)
	}
}

func TestBuildReportLast(t *testing.T) {
	ctx := context.Background()
	hist := history.New(store.NewMemory())
	for _, d := range []string{"2026-01-01T10:00:00Z", "2026-01-02T10:00:00Z", "2026-01-03T10:00:00Z"} {
		if err := hist.Append(ctx, model.HistoryEntry{Date: d, Source: model.SourceSingle, Title: d}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	report, err := BuildReport(ctx, Sources{History: hist}, model.StatsConfig{Last: 1}, time.Date(2026, 1, 3, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(report.Entries) != 1 || report.Entries[0].Date != "2026-01-03T10:00:00Z" {
		t.Fatalf("unexpected entries: %+v", report.Entries)
	}
}
