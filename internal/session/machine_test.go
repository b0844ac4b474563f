package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/tuifit/internal/model"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func work(reps string, rest int) model.SetSpec {
	return model.SetSpec{Kind: model.SetWork, Reps: reps, RestSec: rest}
}

func timed(secs, rest int) model.SetSpec {
	return model.SetSpec{Kind: model.SetTimed, DurationSec: secs, RestSec: rest}
}

func newMachine(plan ...model.SessionPlanItem) *Machine {
	return NewMachine(plan, Options{
		Info: model.SessionInfo{Source: model.SourceSingle, TrainingID: "1", Title: "Full body"},
		Now:  func() time.Time { return fixedNow },
	})
}

func exercise(id string, sets ...model.SetSpec) model.SessionPlanItem {
	return model.SessionPlanItem{ExerciseID: id, Name: id, Sets: sets}
}

// runCountdown delivers ticks for the live countdown until it expires.
func runCountdown(t *testing.T, m *Machine) []Effect {
	t.Helper()
	snap := m.Snapshot().Countdown
	require.True(t, snap.Live, "no countdown running in %s", m.Snapshot().Phase)
	var effects []Effect
	for i := 0; i < snap.Total; i++ {
		effects = m.Tick(snap.Gen)
	}
	return effects
}

func finishedCount(effects []Effect) int {
	n := 0
	for _, e := range effects {
		if _, ok := e.(Finished); ok {
			n++
		}
	}
	return n
}

func findStart(effects []Effect) (StartCountdown, bool) {
	for _, e := range effects {
		if s, ok := e.(StartCountdown); ok {
			return s, true
		}
	}
	return StartCountdown{}, false
}

func assertAt(t *testing.T, m *Machine, phase Phase, planIndex, setIndex int) {
	t.Helper()
	s := m.Snapshot()
	assert.Equal(t, phase, s.Phase)
	assert.Equal(t, planIndex, s.PlanIndex, "plan index")
	assert.Equal(t, setIndex, s.SetIndex, "set index")
}

func TestStartEmptyPlanStaysInIntro(t *testing.T) {
	m := newMachine()
	effects := m.Start()
	assert.Equal(t, []Effect{NothingToDo{}}, effects)
	assertAt(t, m, PhaseIntro, 0, 0)
	assert.False(t, m.Snapshot().Countdown.Live)
}

func TestStartEntersGetReady(t *testing.T) {
	m := newMachine(exercise("squat", work("10", 0)))
	effects := m.Start()
	assertAt(t, m, PhaseGetReady, 0, 0)
	start, ok := findStart(effects)
	require.True(t, ok)
	assert.Equal(t, DefaultGetReadySec, start.Seconds)
	assert.Equal(t, m.Snapshot().Countdown.Gen, start.Gen)

	assert.Nil(t, m.Start(), "start is accepted only from intro")
	assertAt(t, m, PhaseGetReady, 0, 0)
}

func TestGetReadyConfigurable(t *testing.T) {
	m := NewMachine([]model.SessionPlanItem{exercise("squat", work("10", 0))}, Options{GetReadySec: 3})
	start, ok := findStart(m.Start())
	require.True(t, ok)
	assert.Equal(t, 3, start.Seconds)
}

func TestScenarioTwoWorkSetsWithRest(t *testing.T) {
	m := newMachine(exercise("squat", work("10", 30), work("10", 30)))
	var all []Effect

	all = append(all, m.Start()...)
	assertAt(t, m, PhaseGetReady, 0, 0)
	all = append(all, runCountdown(t, m)...)
	assertAt(t, m, PhaseActiveSet, 0, 0)
	assert.False(t, m.Snapshot().Countdown.Live, "manual set has no countdown")

	effects := m.Confirm()
	all = append(all, effects...)
	assertAt(t, m, PhaseResting, 0, 0)
	start, ok := findStart(effects)
	require.True(t, ok)
	assert.Equal(t, 30, start.Seconds)

	all = append(all, m.Skip()...)
	assertAt(t, m, PhaseActiveSet, 0, 1)

	effects = m.Confirm()
	all = append(all, effects...)
	assertAt(t, m, PhaseFinished, 0, 1)
	assert.Equal(t, 1, finishedCount(all))

	var fin Finished
	for _, e := range effects {
		if f, ok := e.(Finished); ok {
			fin = f
		}
	}
	assert.Equal(t, model.HistoryEntry{
		Date:       "2026-03-14T09:30:00.000Z",
		Source:     model.SourceSingle,
		TrainingID: "1",
		Title:      "Full body",
	}, fin.Entry)
}

func TestScenarioTimedSetFinishesWithoutRest(t *testing.T) {
	m := newMachine(exercise("plank", timed(40, 0)))
	m.Start()
	m.Confirm()
	assertAt(t, m, PhaseActiveSet, 0, 0)

	timer := m.Snapshot().Countdown
	require.True(t, timer.Live)
	assert.Equal(t, 40, timer.Total)

	var all []Effect
	for i := 1; i < 40; i++ {
		all = append(all, m.Tick(timer.Gen)...)
		require.Equal(t, PhaseActiveSet, m.Snapshot().Phase, "resolved early at tick %d", i)
	}
	all = append(all, m.Tick(timer.Gen)...)
	assertAt(t, m, PhaseFinished, 0, 0)
	assert.Equal(t, 1, finishedCount(all))
	for _, e := range all {
		if pc, ok := e.(PhaseChanged); ok {
			assert.NotEqual(t, PhaseResting, pc.State.Phase)
		}
	}
}

func TestManualSetsIgnoreTicks(t *testing.T) {
	kinds := []model.SetSpec{
		work("10", 0),
		{Kind: model.SetFailure},
		{Kind: model.SetWarmup},
	}
	for _, set := range kinds {
		t.Run(string(set.Kind), func(t *testing.T) {
			m := newMachine(exercise("x", set))
			m.Start()
			gen := m.Snapshot().Countdown.Gen
			m.Confirm()
			assertAt(t, m, PhaseActiveSet, 0, 0)

			for i := 0; i < 1000; i++ {
				assert.Nil(t, m.Tick(gen))
				assert.Nil(t, m.Tick(m.Snapshot().Countdown.Gen))
			}
			assertAt(t, m, PhaseActiveSet, 0, 0)

			assert.Equal(t, 1, finishedCount(m.Confirm()))
		})
	}
}

func TestSkipRestMatchesRestTimeout(t *testing.T) {
	plan := []model.SessionPlanItem{
		exercise("a", work("10", 20), work("10", 20)),
		exercise("b", work("8", 15), timed(30, 0)),
	}
	drive := func(skip bool) []State {
		m := NewMachine(plan, Options{})
		var states []State
		m.Start()
		for m.Snapshot().Phase != PhaseFinished {
			switch m.Snapshot().Phase {
			case PhaseGetReady:
				m.Confirm()
			case PhaseActiveSet:
				if m.Snapshot().Countdown.Live {
					runCountdown(t, m)
				} else {
					m.Confirm()
				}
			case PhaseResting:
				if skip {
					m.Skip()
				} else {
					runCountdown(t, m)
				}
			}
			s := m.Snapshot()
			states = append(states, State{PlanIndex: s.PlanIndex, SetIndex: s.SetIndex, Phase: s.Phase})
		}
		return states
	}
	assert.Equal(t, drive(false), drive(true))
}

func TestGetReadySkipSkipsExercise(t *testing.T) {
	m := newMachine(exercise("a", work("10", 0)), exercise("b", work("10", 0)))
	m.Start()
	m.Skip()
	assertAt(t, m, PhaseGetReady, 1, 0)
	effects := m.Skip()
	assertAt(t, m, PhaseFinished, 1, 0)
	assert.Equal(t, 1, finishedCount(effects))
}

func TestNoRestAfterLastSetOfExercise(t *testing.T) {
	m := newMachine(exercise("a", work("10", 60)), exercise("b", work("10", 0)))
	m.Start()
	m.Confirm()
	m.Confirm()
	assertAt(t, m, PhaseGetReady, 1, 0)
}

func TestZeroRestAdvancesDirectly(t *testing.T) {
	m := newMachine(exercise("a", work("10", 0), work("10", 0)))
	m.Start()
	m.Confirm()
	m.Confirm()
	assertAt(t, m, PhaseActiveSet, 0, 1)
}

func TestEmptySetsPlanAdvancesImmediately(t *testing.T) {
	m := newMachine(exercise("a"), exercise("b", work("5", 0)))
	m.Start()
	m.Confirm()
	assertAt(t, m, PhaseGetReady, 1, 0)

	m = newMachine(exercise("only"))
	m.Start()
	assert.Equal(t, 1, finishedCount(m.Confirm()))
}

func TestStaleTickAfterSkipDoesNotDoubleFire(t *testing.T) {
	m := newMachine(exercise("a", work("10", 2), work("10", 2), work("10", 0)))
	m.Start()
	m.Confirm()
	m.Confirm()
	rest := m.Snapshot().Countdown
	require.Equal(t, PhaseResting, m.Snapshot().Phase)

	m.Tick(rest.Gen)
	m.Skip()
	assertAt(t, m, PhaseActiveSet, 0, 1)

	assert.Nil(t, m.Tick(rest.Gen), "old rest countdown must not advance again")
	assertAt(t, m, PhaseActiveSet, 0, 1)
}

func TestTickEffects(t *testing.T) {
	m := newMachine(exercise("a", work("10", 0)))
	effects := m.Start()
	start, _ := findStart(effects)
	assert.Equal(t, []Effect{Ticked{Gen: start.Gen, Remaining: 4}}, m.Tick(start.Gen))
}

func TestFinishedIsTerminal(t *testing.T) {
	m := newMachine(exercise("a", work("10", 0)))
	m.Start()
	m.Confirm()
	assert.Equal(t, 1, finishedCount(m.Confirm()))
	assert.Nil(t, m.Confirm())
	assert.Nil(t, m.Skip())
	assert.Nil(t, m.Start())
	assertAt(t, m, PhaseFinished, 0, 0)

	m.Reset()
	assertAt(t, m, PhaseIntro, 0, 0)
	m.Start()
	m.Confirm()
	assert.Equal(t, 1, finishedCount(m.Confirm()), "a fresh start finishes again")
}

func TestCourseEntry(t *testing.T) {
	day := 2
	m := NewMachine([]model.SessionPlanItem{exercise("a", work("10", 0))}, Options{
		Info: model.SessionInfo{Source: model.SourceCourse, CourseID: "base4w", DayIndex: &day, Title: "День 3"},
		Now:  func() time.Time { return fixedNow.In(time.FixedZone("MSK", 3*3600)) },
	})
	m.Start()
	m.Confirm()
	effects := m.Confirm()
	require.Len(t, effects, 2)
	fin, ok := effects[1].(Finished)
	require.True(t, ok)
	assert.Equal(t, model.SourceCourse, fin.Entry.Source)
	assert.Equal(t, "base4w", fin.Entry.CourseID)
	require.NotNil(t, fin.Entry.DayIndex)
	assert.Equal(t, 2, *fin.Entry.DayIndex)
	assert.Equal(t, "2026-03-14T09:30:00.000Z", fin.Entry.Date)
}

func TestCurrent(t *testing.T) {
	m := newMachine(exercise("a", work("10", 0), timed(20, 0)))
	_, _, ok := m.Current()
	assert.False(t, ok)
	m.Start()
	item, set, ok := m.Current()
	require.True(t, ok)
	assert.Equal(t, "a", item.ExerciseID)
	assert.Equal(t, "10", set.Reps)
	m.Confirm()
	m.Confirm()
	_, set, ok = m.Current()
	require.True(t, ok)
	assert.Equal(t, model.SetTimed, set.Kind)
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "resting", PhaseResting.String())
	assert.Equal(t, "unknown", Phase(42).String())
}
