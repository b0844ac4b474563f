// Package session runs a workout plan as a sequence of timed and manual
// phases.
//
// Machine is a pure state machine: events go in as method calls and
// Effects come out. It never sleeps, renders, or persists anything; the UI
// schedules ticks for StartCountdown effects and the Controller performs
// completion side effects.
package session

import (
	"time"

	"github.com/verte-zerg/tuifit/internal/model"
)

// DefaultGetReadySec is the get-ready countdown before each exercise.
const DefaultGetReadySec = 5

// Phase is the coarse position of a session.
type Phase int

// Session phases.
const (
	PhaseIntro Phase = iota
	PhaseGetReady
	PhaseActiveSet
	PhaseResting
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseIntro:
		return "intro"
	case PhaseGetReady:
		return "get-ready"
	case PhaseActiveSet:
		return "active-set"
	case PhaseResting:
		return "resting"
	case PhaseFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Timer is a snapshot of the countdown.
type Timer struct {
	Gen       Generation
	Total     int
	Remaining int
	Live      bool
}

// State is a snapshot of the session cursor.
type State struct {
	PlanIndex int
	SetIndex  int
	Phase     Phase
	Countdown Timer
}

// Effect is an instruction for the layer driving the machine.
type Effect interface {
	effect()
}

// StartCountdown asks the driver to deliver one tick per second tagged
// with Gen until the countdown expires.
type StartCountdown struct {
	Gen     Generation
	Seconds int
}

// StopCountdown tells the driver that no countdown is running.
type StopCountdown struct{}

// NothingToDo reports a Start with an empty plan.
type NothingToDo struct{}

// PhaseChanged carries the state after a transition.
type PhaseChanged struct {
	State State
}

// Ticked reports a countdown second that did not expire it.
type Ticked struct {
	Gen       Generation
	Remaining int
}

// Finished is emitted once, on entering PhaseFinished.
type Finished struct {
	Entry model.HistoryEntry
}

func (StartCountdown) effect() {}
func (StopCountdown) effect()  {}
func (NothingToDo) effect()    {}
func (PhaseChanged) effect()   {}
func (Ticked) effect()         {}
func (Finished) effect()       {}

// Options configures a Machine.
type Options struct {
	// GetReadySec defaults to DefaultGetReadySec when not positive.
	GetReadySec int
	Info        model.SessionInfo
	Now         func() time.Time
}

// Machine is the session state machine. It is not safe for concurrent use;
// a single event loop owns it.
type Machine struct {
	plan     []model.SessionPlanItem
	opts     Options
	state    State
	timer    Countdown
	finished bool
}

// NewMachine creates a machine in PhaseIntro.
func NewMachine(plan []model.SessionPlanItem, opts Options) *Machine {
	if opts.GetReadySec <= 0 {
		opts.GetReadySec = DefaultGetReadySec
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Machine{plan: plan, opts: opts}
}

// Plan returns the plan being run.
func (m *Machine) Plan() []model.SessionPlanItem { return m.plan }

// Info returns the session identity.
func (m *Machine) Info() model.SessionInfo { return m.opts.Info }

// Snapshot returns the current state.
func (m *Machine) Snapshot() State {
	s := m.state
	s.Countdown = m.timer.snapshot()
	return s
}

// Current returns the exercise and set under the cursor. ok is false when
// the phase has no current exercise or the exercise has no sets.
func (m *Machine) Current() (item model.SessionPlanItem, set model.SetSpec, ok bool) {
	switch m.state.Phase {
	case PhaseGetReady, PhaseActiveSet, PhaseResting:
	default:
		return item, set, false
	}
	if m.state.PlanIndex >= len(m.plan) {
		return item, set, false
	}
	item = m.plan[m.state.PlanIndex]
	if m.state.SetIndex >= len(item.Sets) {
		return item, set, false
	}
	return item, item.Sets[m.state.SetIndex], true
}

// Start begins the session. It is accepted only in PhaseIntro; an empty
// plan yields NothingToDo and leaves the machine in PhaseIntro.
func (m *Machine) Start() []Effect {
	if m.state.Phase != PhaseIntro {
		return nil
	}
	if len(m.plan) == 0 {
		return []Effect{NothingToDo{}}
	}
	m.finished = false
	return m.enterGetReady(0)
}

// Reset returns a finished or abandoned session to PhaseIntro so that it
// can be started again.
func (m *Machine) Reset() []Effect {
	effects := m.stopTimer(nil)
	m.state = State{Phase: PhaseIntro}
	m.finished = false
	return append(effects, m.changed())
}

// Confirm is the manual "start" in get-ready and "done" in an active set.
func (m *Machine) Confirm() []Effect {
	switch m.state.Phase {
	case PhaseGetReady:
		return m.enterActiveSet()
	case PhaseActiveSet:
		return m.resolveSet()
	default:
		return nil
	}
}

// Skip skips the exercise in get-ready, resolves the current set, or ends
// the rest early.
func (m *Machine) Skip() []Effect {
	switch m.state.Phase {
	case PhaseGetReady:
		next := m.state.PlanIndex + 1
		if next >= len(m.plan) {
			return m.finish()
		}
		return m.enterGetReady(next)
	case PhaseActiveSet:
		return m.resolveSet()
	case PhaseResting:
		return m.advance()
	default:
		return nil
	}
}

// Tick delivers one countdown second scheduled for gen. Ticks for any
// generation other than the running countdown are ignored.
func (m *Machine) Tick(gen Generation) []Effect {
	res := m.timer.Tick(gen)
	if res.Stale {
		return nil
	}
	if !res.Expired {
		return []Effect{Ticked{Gen: gen, Remaining: res.Remaining}}
	}
	return m.expire()
}

func (m *Machine) expire() []Effect {
	switch m.state.Phase {
	case PhaseGetReady:
		return m.enterActiveSet()
	case PhaseActiveSet:
		if _, set, ok := m.Current(); ok && !set.Kind.Manual() {
			return m.resolveSet()
		}
		return nil
	case PhaseResting:
		return m.advance()
	default:
		return nil
	}
}

func (m *Machine) enterGetReady(index int) []Effect {
	m.state.Phase = PhaseGetReady
	m.state.PlanIndex = index
	m.state.SetIndex = 0
	return m.startTimer(m.opts.GetReadySec)
}

func (m *Machine) enterActiveSet() []Effect {
	item := m.plan[m.state.PlanIndex]
	if m.state.SetIndex >= len(item.Sets) {
		return m.advance()
	}
	m.state.Phase = PhaseActiveSet
	set := item.Sets[m.state.SetIndex]
	if set.Kind.Manual() {
		effects := m.stopTimer(nil)
		return append(effects, m.changed())
	}
	if set.DurationSec <= 0 {
		return m.resolveSet()
	}
	return m.startTimer(set.DurationSec)
}

func (m *Machine) resolveSet() []Effect {
	item := m.plan[m.state.PlanIndex]
	if m.state.SetIndex+1 < len(item.Sets) {
		set := item.Sets[m.state.SetIndex]
		if set.RestSec > 0 {
			m.state.Phase = PhaseResting
			return m.startTimer(set.RestSec)
		}
	}
	return m.advance()
}

func (m *Machine) advance() []Effect {
	item := m.plan[m.state.PlanIndex]
	if m.state.SetIndex+1 < len(item.Sets) {
		m.state.SetIndex++
		return m.enterActiveSet()
	}
	if m.state.PlanIndex+1 < len(m.plan) {
		return m.enterGetReady(m.state.PlanIndex + 1)
	}
	return m.finish()
}

func (m *Machine) finish() []Effect {
	effects := m.stopTimer(nil)
	m.state.Phase = PhaseFinished
	effects = append(effects, m.changed())
	if m.finished {
		return effects
	}
	m.finished = true
	return append(effects, Finished{Entry: m.entry()})
}

func (m *Machine) startTimer(seconds int) []Effect {
	gen := m.timer.Start(seconds)
	return []Effect{m.changed(), StartCountdown{Gen: gen, Seconds: seconds}}
}

func (m *Machine) stopTimer(effects []Effect) []Effect {
	if !m.timer.Live() {
		m.timer.Cancel()
		return effects
	}
	m.timer.Cancel()
	return append(effects, StopCountdown{})
}

func (m *Machine) changed() Effect {
	return PhaseChanged{State: m.Snapshot()}
}

func (m *Machine) entry() model.HistoryEntry {
	info := m.opts.Info
	source := info.Source
	if source == "" {
		source = model.SourceSingle
	}
	return model.HistoryEntry{
		Date:       FormatDate(m.opts.Now()),
		Source:     source,
		TrainingID: info.TrainingID,
		CourseID:   info.CourseID,
		DayIndex:   info.DayIndex,
		Title:      info.Title,
	}
}

// FormatDate renders t the way history dates are stored: UTC with
// millisecond precision.
func FormatDate(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
