// Package main provides the CLI entrypoint for tuifit.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/tuifit/internal/achievements"
	"github.com/verte-zerg/tuifit/internal/catalog"
	"github.com/verte-zerg/tuifit/internal/config"
	"github.com/verte-zerg/tuifit/internal/history"
	"github.com/verte-zerg/tuifit/internal/model"
	"github.com/verte-zerg/tuifit/internal/output"
	"github.com/verte-zerg/tuifit/internal/plan"
	"github.com/verte-zerg/tuifit/internal/session"
	"github.com/verte-zerg/tuifit/internal/tui"
)

const defaultGetReady = session.DefaultGetReadySec

var (
	runWorkoutID string
	runCourseID  string
	runDay       int
	runDayFile   string
	runLevel     string
	runGetReady  int
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tuifit",
		Short:         "Terminal workout runner and fitness tracker",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE:          withApp(runWorkoutCmd),
	}

	rootCmd.Flags().StringVar(&runWorkoutID, "workout", "", "workout id from the catalog")
	rootCmd.Flags().StringVar(&runCourseID, "course", "", "course id from the catalog")
	rootCmd.Flags().IntVar(&runDay, "day", 1, "course day (1-based)")
	rootCmd.Flags().StringVar(&runDayFile, "day-file", "", "JSON course-day payload")
	rootCmd.Flags().StringVar(&runLevel, "level", string(model.LevelBeginner), "beginner, intermediate or advanced")
	rootCmd.Flags().IntVar(&runGetReady, "get-ready", defaultGetReady, "get-ready countdown in seconds")
	rootCmd.MarkFlagsMutuallyExclusive("workout", "course", "day-file")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newCatalogCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newGemsCmd())
	rootCmd.AddCommand(newWeightCmd())
	rootCmd.AddCommand(newBonusCmd())
	rootCmd.AddCommand(newAchievementsCmd())

	return rootCmd
}

func runWorkoutCmd(cmd *cobra.Command, _ []string, a *app) error {
	s := a.settings.Session
	if cmd.Flags().Changed("level") {
		level, ok := model.ParseLevel(runLevel)
		if !ok {
			return fmt.Errorf("--level must be one of beginner, intermediate, advanced")
		}
		s.Level = level
	}
	if cmd.Flags().Changed("get-ready") {
		s.GetReadySec = runGetReady
	}
	if s.GetReadySec <= 0 {
		return fmt.Errorf("--get-ready must be > 0")
	}
	if cmd.Flags().Changed("day") && runDay < 1 {
		return fmt.Errorf("--day must be >= 1")
	}

	cat, err := catalog.Load(config.DefaultCatalogPath())
	if err != nil {
		return err
	}
	refs, info, err := selectSession(cat, sessionSelector{
		WorkoutID: runWorkoutID,
		CourseID:  runCourseID,
		Day:       runDay,
		DayFile:   runDayFile,
		Level:     s.Level,
	})
	if err != nil {
		return err
	}

	logger := a.logger.With("session", uuid.NewString())
	res := plan.Normalize(refs, cat.Exercise, s.Level)
	for _, line := range res.Unparsed {
		logger.Debug("scheme line not understood", "line", line)
	}
	if len(res.Dropped) > 0 {
		logger.Warn("exercises missing from catalog", "ids", res.Dropped)
	}

	machine := session.NewMachine(res.Items, session.Options{
		GetReadySec: s.GetReadySec,
		Info:        info,
		Now:         time.Now,
	})
	deps := session.Deps{
		History: a.history,
		Achievements: session.EvaluatorFunc(func(ctx context.Context) ([]string, error) {
			unlocked, err := a.badges.Evaluate(ctx)
			return achievements.Titles(unlocked), err
		}),
		Syncer: a.sync,
		Logger: logger,
	}
	if s.Haptics {
		deps.Notifier = tui.Bell{W: os.Stderr}
	}
	ctrl := session.NewController(machine, deps)

	ui := tui.NewModel(ctrl, a.wallet, append(res.Dropped, res.Skipped...))
	program := tea.NewProgram(ui, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

type sessionSelector struct {
	WorkoutID string
	CourseID  string
	Day       int
	DayFile   string
	Level     model.Level
}

// selectSession resolves the exercise references and history identity for
// the requested workout. Without a selector it picks the first workout of
// the level.
func selectSession(cat *catalog.Catalog, sel sessionSelector) ([]model.ExerciseRef, model.SessionInfo, error) {
	switch {
	case sel.DayFile != "":
		payload, err := catalog.LoadDayPayload(sel.DayFile)
		if err != nil {
			return nil, model.SessionInfo{}, err
		}
		return payload.Items, courseInfo(payload), nil
	case sel.CourseID != "":
		payload, err := cat.CourseDay(sel.CourseID, sel.Day-1)
		if err != nil {
			return nil, model.SessionInfo{}, err
		}
		return payload.Items, courseInfo(payload), nil
	case sel.WorkoutID != "":
		w, err := cat.Workout(sel.WorkoutID)
		if err != nil {
			return nil, model.SessionInfo{}, err
		}
		return w.Exercises, workoutInfo(w), nil
	}
	workouts := cat.Workouts(sel.Level)
	if len(workouts) == 0 {
		return nil, model.SessionInfo{}, fmt.Errorf("no %s workouts: %w", sel.Level, catalog.ErrNotFound)
	}
	return workouts[0].Exercises, workoutInfo(workouts[0]), nil
}

func workoutInfo(w catalog.Workout) model.SessionInfo {
	title := w.Name
	if title == "" {
		title = history.DefaultTitle(model.SourceSingle)
	}
	return model.SessionInfo{Source: model.SourceSingle, TrainingID: w.ID, Title: title}
}

func courseInfo(p model.CourseDayPayload) model.SessionInfo {
	title := p.Title
	if title == "" {
		title = history.DefaultTitle(model.SourceCourse)
	}
	day := p.DayIndex
	return model.SessionInfo{Source: model.SourceCourse, CourseID: p.CourseID, DayIndex: &day, Title: title}
}

// reportErr prints expected domain errors as warnings and passes the rest
// through to cobra.
func reportErr(ui *output.UI, err error, expected ...error) error {
	for _, target := range expected {
		if errors.Is(err, target) {
			ui.Warning("%v", err)
			return nil
		}
	}
	return err
}
