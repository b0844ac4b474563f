package tui

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/tuifit/internal/model"
	"github.com/verte-zerg/tuifit/internal/session"
)

type memHistory struct {
	entries []model.HistoryEntry
}

func (h *memHistory) Append(_ context.Context, e model.HistoryEntry) error {
	h.entries = append(h.entries, e)
	return nil
}

type fixedBalance int

func (b fixedBalance) Balance(context.Context) (int, error) { return int(b), nil }

var (
	enterKey = tea.KeyMsg{Type: tea.KeyEnter}
	skipKey  = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")}
)

func newTestModel(t *testing.T, items []model.SessionPlanItem, hist *memHistory) *Model {
	t.Helper()
	m := session.NewMachine(items, session.Options{
		GetReadySec: 1,
		Info:        model.SessionInfo{Source: model.SourceSingle, TrainingID: "7", Title: "Спина"},
		Now:         func() time.Time { return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC) },
	})
	ctrl := session.NewController(m, session.Deps{
		History: hist,
		Achievements: session.EvaluatorFunc(func(context.Context) ([]string, error) {
			return []string{"🏁 Первая тренировка"}, nil
		}),
	})
	return NewModel(ctrl, fixedBalance(12), nil)
}

func rowPlan() []model.SessionPlanItem {
	return []model.SessionPlanItem{{
		ExerciseID: "row",
		Name:       "Тяга гантели",
		Advice:     "Спина прямая",
		Sets: []model.SetSpec{
			{Kind: model.SetWork, Reps: "10–12", RestSec: 30},
			{Kind: model.SetWork, Reps: "10–12"},
		},
	}}
}

func send(t *testing.T, m *Model, msg tea.Msg) tea.Cmd {
	t.Helper()
	_, cmd := m.Update(msg)
	return cmd
}

func TestModelRunsWorkoutToFinish(t *testing.T) {
	hist := &memHistory{}
	m := newTestModel(t, rowPlan(), hist)

	if !strings.Contains(m.View(), "Тяга гантели") {
		t.Fatalf("intro should list the plan: %s", m.View())
	}
	if cmd := send(t, m, enterKey); cmd == nil {
		t.Fatalf("expected a tick to be scheduled on start")
	}
	st := m.ctrl.Machine().Snapshot()
	if st.Phase != session.PhaseGetReady {
		t.Fatalf("expected get-ready, got %s", st.Phase)
	}

	send(t, m, tickMsg{gen: st.Countdown.Gen})
	if got := m.phase(); got != session.PhaseActiveSet {
		t.Fatalf("expected active set after get-ready expiry, got %s", got)
	}
	if !strings.Contains(m.View(), "Подход 1 из 2") {
		t.Fatalf("active set view missing set counter: %s", m.View())
	}

	send(t, m, enterKey)
	if got := m.phase(); got != session.PhaseResting {
		t.Fatalf("expected rest after first set, got %s", got)
	}
	if !strings.Contains(m.View(), "подход 2 из 2") {
		t.Fatalf("rest view should preview the next set: %s", m.View())
	}

	send(t, m, skipKey)
	if got := m.phase(); got != session.PhaseActiveSet {
		t.Fatalf("expected second set after skipping rest, got %s", got)
	}

	send(t, m, enterKey)
	if got := m.phase(); got != session.PhaseFinished {
		t.Fatalf("expected finished, got %s", got)
	}
	if len(hist.entries) != 1 {
		t.Fatalf("expected one history entry, got %d", len(hist.entries))
	}
	view := m.View()
	for _, want := range []string{"Тренировка завершена", "Спина", "Первая тренировка", "Баланс: 12"} {
		if !strings.Contains(view, want) {
			t.Fatalf("finish view missing %q: %s", want, view)
		}
	}
}

func TestModelDropsStaleTicks(t *testing.T) {
	m := newTestModel(t, rowPlan(), &memHistory{})
	send(t, m, enterKey)
	stale := m.ctrl.Machine().Snapshot().Countdown.Gen

	send(t, m, tickMsg{gen: stale})
	send(t, m, enterKey)
	if cmd := send(t, m, tickMsg{gen: stale}); cmd != nil {
		t.Fatalf("stale tick should not schedule another")
	}
	if got := m.phase(); got != session.PhaseResting {
		t.Fatalf("stale tick changed phase to %s", got)
	}
}

func TestModelEmptyPlanShowsNotice(t *testing.T) {
	m := newTestModel(t, nil, &memHistory{})
	send(t, m, enterKey)
	if got := m.phase(); got != session.PhaseIntro {
		t.Fatalf("expected to stay in intro, got %s", got)
	}
	if !strings.Contains(m.View(), "В тренировке нет упражнений") {
		t.Fatalf("expected nothing-to-do notice: %s", m.View())
	}
}

func TestModelRestartAfterFinish(t *testing.T) {
	hist := &memHistory{}
	items := []model.SessionPlanItem{{Name: "Планка", Sets: []model.SetSpec{{Kind: model.SetWork, Reps: "1"}}}}
	m := newTestModel(t, items, hist)
	send(t, m, enterKey)
	send(t, m, enterKey)
	send(t, m, enterKey)
	if got := m.phase(); got != session.PhaseFinished {
		t.Fatalf("expected finished, got %s", got)
	}
	send(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	if got := m.phase(); got != session.PhaseGetReady {
		t.Fatalf("expected restart into get-ready, got %s", got)
	}
}

func TestModelQuit(t *testing.T) {
	m := newTestModel(t, rowPlan(), &memHistory{})
	cmd := send(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}

func TestBellNotify(t *testing.T) {
	var buf bytes.Buffer
	if err := (Bell{W: &buf}).Notify(); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if buf.String() != "\a" {
		t.Fatalf("expected bell, got %q", buf.String())
	}
	if err := (Bell{}).Notify(); err != nil {
		t.Fatalf("nil writer should be a no-op: %v", err)
	}
}
