package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/tuifit/internal/achievements"
	"github.com/verte-zerg/tuifit/internal/bonus"
	"github.com/verte-zerg/tuifit/internal/catalog"
	"github.com/verte-zerg/tuifit/internal/config"
	"github.com/verte-zerg/tuifit/internal/gems"
	"github.com/verte-zerg/tuifit/internal/model"
	"github.com/verte-zerg/tuifit/internal/output"
	"github.com/verte-zerg/tuifit/internal/plan"
	"github.com/verte-zerg/tuifit/internal/stats"
	"github.com/verte-zerg/tuifit/internal/statsui"
	"github.com/verte-zerg/tuifit/internal/weight"
)

const (
	weekBarWidth = 14
	weightWindow = 7
	weightPlotH  = 10
	dateLayout   = "2006-01-02"
)

var (
	historyPlain bool
	historySince string
	historyLast  int

	gemsLimit int

	weightDate string
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# tuifit configuration
# Uncomment a value to enable it. CLI flags override config values.

[session]
# level = %q         # beginner, intermediate or advanced
# get-ready = %d              # Countdown before each exercise, seconds
# haptics = true             # Ring the terminal bell when a workout ends

[rewards]
# days-per-week = %d          # Weekly bonus goal (1-7)

[sync]
# url = ""                   # Backend base URL; empty disables sync
# init-data = ""             # Telegram initData (or set %s)
# timeout = 10               # Seconds per request

[log]
# level = "info"             # debug, info, warn or error
`,
		model.LevelBeginner,
		defaultGetReady,
		bonus.DefaultGoal,
		config.EnvInitData,
	)
}

func newCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "catalog [workouts|courses|exercises]",
		Short:     "List catalog workouts, courses or exercises",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"workouts", "courses", "exercises"},
		RunE:      runCatalogCmd,
	}
}

func runCatalogCmd(cmd *cobra.Command, args []string) error {
	cat, err := catalog.Load(config.DefaultCatalogPath())
	if err != nil {
		return err
	}
	ui := newUI(cmd)
	kind := "workouts"
	if len(args) > 0 {
		kind = args[0]
	}
	switch kind {
	case "courses":
		rows := [][]string{}
		for _, c := range cat.Courses() {
			rows = append(rows, []string{c.ID, c.Title, strconv.Itoa(len(c.Days))})
		}
		return ui.Rows([]string{"ID", "Title", "Days"}, rows)
	case "exercises":
		rows := [][]string{}
		for _, ex := range cat.Exercises() {
			rows = append(rows, []string{ex.ID, ex.Name, ex.Muscle})
		}
		return ui.Rows([]string{"ID", "Name", "Muscle"}, rows)
	default:
		rows := [][]string{}
		for _, w := range cat.Workouts("") {
			res := plan.Normalize(w.Exercises, cat.Exercise, w.Level)
			rows = append(rows, []string{w.ID, string(w.Level), w.Name, strconv.Itoa(len(res.Items))})
		}
		return ui.Rows([]string{"ID", "Level", "Name", "Exercises"}, rows)
	}
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse finished workouts, weekly progress, gems and weight",
		Args:  cobra.NoArgs,
		RunE:  withApp(runHistoryCmd),
	}
	cmd.Flags().BoolVar(&historyPlain, "plain", false, "print tables instead of the interactive browser")
	cmd.Flags().StringVar(&historySince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&historyLast, "last", 0, "limit to last N workouts")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string, a *app) error {
	since, err := parseOptionalDate(historySince)
	if err != nil {
		return fmt.Errorf("invalid --since value: %w", err)
	}
	if historyLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}
	cfg := model.StatsConfig{Since: since, Last: historyLast, Limit: gems.DefaultHistoryLen}
	src := stats.Sources{History: a.history, Weights: a.weights, Wallet: a.wallet}
	load := func(ctx context.Context, cfg model.StatsConfig) (stats.Report, error) {
		return stats.BuildReport(ctx, src, cfg, time.Now())
	}
	goal := a.calendar.Goal()

	if !historyPlain {
		program := tea.NewProgram(statsui.NewModel(load, cfg, goal), tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("failed to run history TUI: %w", err)
		}
		return nil
	}

	report, err := load(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	w := cmd.OutOrStdout()
	if err := stats.RenderSummary(w, report.Summary, goal); err != nil {
		return err
	}
	if err := stats.RenderWeeks(w, report.Weeks, goal, weekBarWidth); err != nil {
		return err
	}
	return stats.RenderHistoryTable(w, report.Entries)
}

func newGemsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gems",
		Short: "Show the gems balance and recent transactions",
		Args:  cobra.NoArgs,
		RunE:  withApp(runGemsCmd),
	}
	cmd.Flags().IntVar(&gemsLimit, "limit", gems.DefaultHistoryLen, "number of transactions to show")
	return cmd
}

func runGemsCmd(cmd *cobra.Command, _ []string, a *app) error {
	ctx := cmd.Context()
	balance, err := a.wallet.Balance(ctx)
	if err != nil {
		return fmt.Errorf("failed to read balance: %w", err)
	}
	txs, err := a.wallet.Transactions(ctx, gemsLimit)
	if err != nil {
		return fmt.Errorf("failed to read transactions: %w", err)
	}
	ui := newUI(cmd)
	ui.Info("Balance: %s", output.Cyan(strconv.Itoa(balance)))
	return ui.Transactions(txs)
}

func newWeightCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "weight",
		Short: "Show the weight log",
		Args:  cobra.NoArgs,
		RunE:  withApp(runWeightCmd),
	}
	add := &cobra.Command{
		Use:   "add KG",
		Short: "Record today's weight",
		Args:  cobra.ExactArgs(1),
		RunE:  withApp(runWeightAddCmd),
	}
	add.Flags().StringVar(&weightDate, "date", "", "measurement date (YYYY-MM-DD, default today)")
	cmd.AddCommand(add)
	return cmd
}

func runWeightCmd(cmd *cobra.Command, _ []string, a *app) error {
	entries, err := a.weights.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to read weight log: %w", err)
	}
	ui := newUI(cmd)
	if len(entries) == 0 {
		ui.Info("No weight entries yet. Add one with: tuifit weight add KG")
		return nil
	}
	width, useColor := terminalInfo()
	if err := stats.RenderWeightTrend(cmd.OutOrStdout(), entries, weightWindow, width, weightPlotH, useColor); err != nil {
		return err
	}
	if latest, ok, err := a.weights.Latest(cmd.Context()); err == nil && ok {
		ui.Info("Latest: %.1f kg on %s", latest.Weight, latest.Date)
	}
	rows := make([][]string, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		rows = append(rows, []string{entries[i].Date, strconv.FormatFloat(entries[i].Weight, 'f', 1, 64)})
	}
	return ui.Rows([]string{"Date", "Kg"}, rows)
}

func runWeightAddCmd(cmd *cobra.Command, args []string, a *app) error {
	kg, err := strconv.ParseFloat(strings.ReplaceAll(args[0], ",", "."), 64)
	if err != nil {
		return fmt.Errorf("invalid weight %q", args[0])
	}
	at := time.Now()
	if weightDate != "" {
		if at, err = time.ParseInLocation(dateLayout, weightDate, time.Local); err != nil {
			return fmt.Errorf("invalid --date value: %w", err)
		}
	}
	ctx := cmd.Context()
	ui := newUI(cmd)
	entry, err := a.weights.Upsert(ctx, at, kg)
	if err != nil {
		return reportErr(ui, err, weight.ErrOutOfRange)
	}
	ui.Success("Recorded %.1f kg for %s", entry.Weight, entry.Date)
	return announceBadges(ctx, ui, a)
}

func newBonusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bonus",
		Short: "Show calendar bonus status",
		Args:  cobra.NoArgs,
		RunE:  withApp(runBonusStatusCmd),
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "day [YYYY-MM-DD]",
		Short: "Claim the bonus for a day with a workout",
		Args:  cobra.MaximumNArgs(1),
		RunE:  withApp(runBonusDayCmd),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "week",
		Short: "Claim the bonus for reaching this week's goal",
		Args:  cobra.NoArgs,
		RunE:  withApp(runBonusWeekCmd),
	})
	return cmd
}

func runBonusStatusCmd(cmd *cobra.Command, _ []string, a *app) error {
	ctx := cmd.Context()
	now := time.Now()
	day, err := a.calendar.Day(ctx, now)
	if err != nil {
		return err
	}
	week, err := a.calendar.Week(ctx, now)
	if err != nil {
		return err
	}
	return newUI(cmd).Rows([]string{"", "Bonus", "Progress", "Reward"}, [][]string{
		{output.Check(day.Claimed), "Day " + day.Key, fmt.Sprintf("%d workouts", len(day.Workouts)), "+" + strconv.Itoa(bonus.DayAmount)},
		{output.Check(week.Claimed), "Week " + week.Key, fmt.Sprintf("%s %d/%d", stats.Bar(week.Days, week.Goal, weekBarWidth), week.Days, week.Goal), "+" + strconv.Itoa(bonus.WeekAmount)},
	})
}

func runBonusDayCmd(cmd *cobra.Command, args []string, a *app) error {
	at := time.Now()
	if len(args) > 0 {
		var err error
		if at, err = time.ParseInLocation(dateLayout, args[0], time.Local); err != nil {
			return fmt.Errorf("invalid date: %w", err)
		}
	}
	ui := newUI(cmd)
	res, err := a.calendar.ClaimDay(cmd.Context(), at)
	if err != nil {
		return reportErr(ui, err, bonus.ErrNoWorkout, bonus.ErrAlreadyClaimed)
	}
	printClaim(ui, res, bonus.DayAmount)
	return nil
}

func runBonusWeekCmd(cmd *cobra.Command, _ []string, a *app) error {
	ui := newUI(cmd)
	res, err := a.calendar.ClaimWeek(cmd.Context(), time.Now())
	if err != nil {
		return reportErr(ui, err, bonus.ErrGoalNotMet, bonus.ErrAlreadyClaimed)
	}
	printClaim(ui, res, bonus.WeekAmount)
	return nil
}

func printClaim(ui *output.UI, res gems.Result, amount int) {
	if res.Skipped {
		ui.Warning("Bonus was already paid; balance %d", res.Balance)
		return
	}
	ui.Success("+%d gems, balance %d", amount, res.Balance)
}

func newAchievementsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "achievements",
		Short: "List badges and unlock any that are due",
		Args:  cobra.NoArgs,
		RunE:  withApp(runAchievementsCmd),
	}
}

func runAchievementsCmd(cmd *cobra.Command, _ []string, a *app) error {
	ctx := cmd.Context()
	ui := newUI(cmd)
	if err := announceBadges(ctx, ui, a); err != nil {
		return err
	}
	unlocked, err := a.badges.Unlocked(ctx)
	if err != nil {
		return fmt.Errorf("failed to read achievements: %w", err)
	}
	rows := [][]string{}
	for _, b := range achievements.Badges() {
		rows = append(rows, []string{output.Check(slices.Contains(unlocked, b.ID)), b.Icon + " " + b.Name, "+" + strconv.Itoa(achievements.Reward)})
	}
	return ui.Rows([]string{"", "Badge", "Reward"}, rows)
}

// announceBadges evaluates achievements and prints new unlocks. Failures
// are warnings: the command that triggered the evaluation already
// succeeded.
func announceBadges(ctx context.Context, ui *output.UI, a *app) error {
	fresh, err := a.badges.Evaluate(ctx)
	for _, title := range achievements.Titles(fresh) {
		ui.Success("Achievement unlocked: %s", title)
	}
	if err != nil {
		a.logger.Warn("failed to evaluate achievements", "err", err)
		ui.Warning("failed to evaluate achievements: %v", err)
	}
	return nil
}

func newUI(cmd *cobra.Command) *output.UI {
	return &output.UI{Out: cmd.OutOrStdout(), ErrOut: cmd.ErrOrStderr()}
}

func parseOptionalDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func terminalInfo() (width int, color bool) {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 0, false
	}
	w, _, err := term.GetSize(fd)
	if err != nil {
		return 0, true
	}
	return w, true
}
