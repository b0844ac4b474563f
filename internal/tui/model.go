// Package tui provides the Bubble Tea workout interface.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/tuifit/internal/model"
	"github.com/verte-zerg/tuifit/internal/plan"
	"github.com/verte-zerg/tuifit/internal/session"
)

// Balance reports the gems wallet balance shown after a workout.
type Balance interface {
	Balance(ctx context.Context) (int, error)
}

type tickMsg struct {
	gen session.Generation
}

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	accentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	noticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	timerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true).Padding(0, 1)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	cardStyle    = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
)

// Model drives a session.Controller from keyboard input and one-second
// ticks.
type Model struct {
	ctrl    *session.Controller
	wallet  Balance
	skipped []string
	keys    keyMap
	help    help.Model
	bar     progress.Model

	width  int
	height int

	notice  string
	balance *int
}

// NewModel constructs the workout UI. skipped lists exercises that could
// not be resolved while building the plan; wallet may be nil.
func NewModel(ctrl *session.Controller, wallet Balance, skipped []string) *Model {
	return &Model{
		ctrl:    ctrl,
		wallet:  wallet,
		skipped: skipped,
		keys:    defaultKeys(),
		help:    help.New(),
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
}

func tick(gen session.Generation) tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return tickMsg{gen: gen}
	})
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	ctx := context.Background()
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		return m, m.apply(ctx, m.ctrl.Tick(ctx, msg.gen))
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Confirm):
			if m.phase() == session.PhaseIntro {
				return m, m.apply(ctx, m.ctrl.Start(ctx))
			}
			return m, m.apply(ctx, m.ctrl.Confirm(ctx))
		case key.Matches(msg, m.keys.Skip):
			return m, m.apply(ctx, m.ctrl.Skip(ctx))
		case key.Matches(msg, m.keys.Restart):
			if m.phase() != session.PhaseFinished {
				return m, nil
			}
			m.balance = nil
			return m, m.apply(ctx, m.ctrl.Restart(ctx))
		}
	}
	return m, nil
}

func (m *Model) phase() session.Phase {
	return m.ctrl.Machine().Snapshot().Phase
}

// apply turns machine effects into commands. Each live countdown has
// exactly one tick in flight; a tick for a replaced countdown comes back
// stale and is dropped by the machine.
func (m *Model) apply(ctx context.Context, effects []session.Effect) tea.Cmd {
	var cmds []tea.Cmd
	for _, e := range effects {
		switch e := e.(type) {
		case session.StartCountdown:
			m.notice = ""
			cmds = append(cmds, tick(e.Gen))
		case session.Ticked:
			cmds = append(cmds, tick(e.Gen))
		case session.NothingToDo:
			m.notice = "В тренировке нет упражнений"
		case session.Finished:
			m.loadBalance(ctx)
		}
	}
	return tea.Batch(cmds...)
}

func (m *Model) loadBalance(ctx context.Context) {
	if m.wallet == nil {
		return
	}
	b, err := m.wallet.Balance(ctx)
	if err != nil {
		return
	}
	m.balance = &b
}

// View implements tea.Model.
func (m *Model) View() string {
	var body string
	st := m.ctrl.Machine().Snapshot()
	switch st.Phase {
	case session.PhaseIntro:
		body = m.renderIntro()
	case session.PhaseGetReady:
		body = m.renderGetReady(st)
	case session.PhaseActiveSet:
		body = m.renderActiveSet(st)
	case session.PhaseResting:
		body = m.renderResting(st)
	case session.PhaseFinished:
		body = m.renderFinished()
	}
	footer := m.renderFooter()
	if m.width == 0 || m.height < 3 {
		return body + "\n\n" + footer
	}
	content := lipgloss.NewStyle().Width(m.contentWidth()).Render(body)
	main := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	return main + "\n" + lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
}

func (m *Model) contentWidth() int {
	w := int(float64(m.width) * 0.70)
	if w > 72 {
		w = 72
	}
	if w < 20 {
		w = m.width
	}
	return w
}

func (m *Model) renderIntro() string {
	info := m.ctrl.Machine().Info()
	items := m.ctrl.Machine().Plan()
	var b strings.Builder
	b.WriteString(titleStyle.Render(info.Title))
	b.WriteString("\n\n")
	if len(items) == 0 {
		b.WriteString(mutedStyle.Render("Упражнений нет."))
		b.WriteString("\n")
	}
	for i, item := range items {
		fmt.Fprintf(&b, "%d. %s  %s\n", i+1, item.Name, mutedStyle.Render(plan.Summary(item)))
		if item.Target != "" {
			fmt.Fprintf(&b, "   %s\n", mutedStyle.Render(item.Target))
		}
	}
	if len(m.skipped) > 0 {
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render("Не найдены: " + strings.Join(m.skipped, ", ")))
		b.WriteString("\n")
	}
	if m.notice != "" {
		b.WriteString("\n")
		b.WriteString(noticeStyle.Render(m.notice))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderGetReady(st session.State) string {
	item, _, _ := m.ctrl.Machine().Current()
	var b strings.Builder
	b.WriteString(mutedStyle.Render(fmt.Sprintf("Упражнение %d из %d", st.PlanIndex+1, len(m.ctrl.Machine().Plan()))))
	b.WriteString("\n")
	b.WriteString(accentStyle.Render("Приготовьтесь"))
	b.WriteString("\n\n")
	b.WriteString(titleStyle.Render(item.Name))
	b.WriteString("\n")
	if s := plan.Summary(item); s != "" {
		b.WriteString(mutedStyle.Render(s))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.renderTimer(st.Countdown))
	return b.String()
}

func (m *Model) renderActiveSet(st session.State) string {
	item, set, _ := m.ctrl.Machine().Current()
	var b strings.Builder
	b.WriteString(mutedStyle.Render(fmt.Sprintf("Упражнение %d из %d", st.PlanIndex+1, len(m.ctrl.Machine().Plan()))))
	b.WriteString("\n")
	b.WriteString(titleStyle.Render(item.Name))
	b.WriteString("\n\n")
	b.WriteString(accentStyle.Render(fmt.Sprintf("Подход %d из %d", st.SetIndex+1, len(item.Sets))))
	b.WriteString("  ")
	b.WriteString(cardStyle.Render(plan.SetLabel(set)))
	b.WriteString("\n")
	if set.Note != "" {
		b.WriteString(wrapText(set.Note, m.textWidth()))
		b.WriteString("\n")
	}
	if set.Kind == model.SetTimed {
		b.WriteString("\n")
		b.WriteString(m.renderTimer(st.Countdown))
		b.WriteString("\n")
	}
	if item.Advice != "" {
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render(wrapText(item.Advice, m.textWidth())))
		b.WriteString("\n")
	}
	for _, note := range item.Notes {
		b.WriteString(mutedStyle.Render(wrapText("• "+note, m.textWidth())))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderResting(st session.State) string {
	item, _, _ := m.ctrl.Machine().Current()
	var b strings.Builder
	b.WriteString(accentStyle.Render("Отдых"))
	b.WriteString("\n\n")
	b.WriteString(m.renderTimer(st.Countdown))
	b.WriteString("\n\n")
	if next := st.SetIndex + 1; next < len(item.Sets) {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("Далее: %s, подход %d из %d (%s)",
			item.Name, next+1, len(item.Sets), plan.SetLabel(item.Sets[next]))))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderFinished() string {
	var b strings.Builder
	b.WriteString(accentStyle.Render("Тренировка завершена"))
	b.WriteString("\n\n")
	out, ok := m.ctrl.Outcome()
	if !ok {
		return b.String()
	}
	b.WriteString(titleStyle.Render(out.Entry.Title))
	b.WriteString("\n")
	if out.Saved {
		b.WriteString(successStyle.Render("Сохранено в историю"))
	} else {
		b.WriteString(noticeStyle.Render("Не удалось сохранить в историю"))
	}
	b.WriteString("\n")
	if len(out.Unlocked) > 0 {
		b.WriteString("\n")
		b.WriteString(accentStyle.Render("Новые достижения"))
		b.WriteString("\n")
		for _, title := range out.Unlocked {
			b.WriteString("  " + title + "\n")
		}
	}
	if m.balance != nil {
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render(fmt.Sprintf("Баланс: %d 💎", *m.balance)))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderTimer(t session.Timer) string {
	if t.Total <= 0 {
		return ""
	}
	bar := m.bar
	bar.Width = m.textWidth()
	pct := session.Progress(t.Total-t.Remaining, t.Total)
	return timerStyle.Render(formatClock(t.Remaining)) + "\n" + bar.ViewAs(pct)
}

func (m *Model) textWidth() int {
	if m.width == 0 {
		return 40
	}
	return m.contentWidth()
}

func (m *Model) renderFooter() string {
	st := m.ctrl.Machine().Snapshot()
	var bindings []key.Binding
	switch st.Phase {
	case session.PhaseIntro:
		bindings = []key.Binding{m.keys.Confirm, m.keys.Quit}
	case session.PhaseFinished:
		bindings = []key.Binding{m.keys.Restart, m.keys.Quit}
	default:
		bindings = []key.Binding{m.keys.Confirm, m.keys.Skip, m.keys.Quit}
	}
	segments := []string{}
	if n := len(m.ctrl.Machine().Plan()); n > 0 && st.Phase != session.PhaseIntro && st.Phase != session.PhaseFinished {
		segments = append(segments, fmt.Sprintf("Упражнение %d/%d", st.PlanIndex+1, n))
	}
	segments = append(segments, m.help.ShortHelpView(bindings))
	return footerStyle.Render(strings.Join(segments, "  "))
}

func formatClock(sec int) string {
	if sec < 0 {
		sec = 0
	}
	return fmt.Sprintf("%d:%02d", sec/60, sec%60)
}
