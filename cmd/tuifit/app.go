package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/tuifit/internal/achievements"
	"github.com/verte-zerg/tuifit/internal/bonus"
	"github.com/verte-zerg/tuifit/internal/config"
	"github.com/verte-zerg/tuifit/internal/gems"
	"github.com/verte-zerg/tuifit/internal/history"
	"github.com/verte-zerg/tuifit/internal/logging"
	"github.com/verte-zerg/tuifit/internal/model"
	"github.com/verte-zerg/tuifit/internal/store"
	fitsync "github.com/verte-zerg/tuifit/internal/sync"
	"github.com/verte-zerg/tuifit/internal/weight"
)

// flushTimeout bounds how long exit waits for in-flight sync requests.
const flushTimeout = 5 * time.Second

// settings are config file values merged with environment overrides.
type settings struct {
	Session     model.Config
	SyncURL     string
	InitData    string
	SyncTimeout time.Duration
	LogLevel    slog.Level
}

func loadSettings() (settings, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return settings{}, fmt.Errorf("failed to load config: %w", err)
	}
	levelName := config.StringOr(fileCfg.Session.Level, string(model.LevelBeginner))
	level, ok := model.ParseLevel(levelName)
	if !ok {
		return settings{}, fmt.Errorf("config: unknown level %q", levelName)
	}
	logLevel, err := logging.ParseLevel(config.StringOr(fileCfg.Log.Level, "info"))
	if err != nil {
		return settings{}, fmt.Errorf("config: %w", err)
	}
	return settings{
		Session: model.Config{
			Level:       level,
			GetReadySec: config.IntOr(fileCfg.Session.GetReady, defaultGetReady),
			Haptics:     config.BoolOr(fileCfg.Session.Haptics, true),
			WeeklyGoal:  bonus.ClampGoal(config.IntOr(fileCfg.Rewards.DaysPerWeek, bonus.DefaultGoal)),
		},
		SyncURL:     config.StringOr(fileCfg.Sync.URL, ""),
		InitData:    config.StringOr(fileCfg.Sync.InitData, ""),
		SyncTimeout: time.Duration(config.IntOr(fileCfg.Sync.Timeout, 0)) * time.Second,
		LogLevel:    logLevel,
	}, nil
}

// app holds the opened store and everything layered on it.
type app struct {
	settings settings
	logger   *slog.Logger
	logFile  io.Closer
	store    *store.Store

	history  *history.Log
	wallet   *gems.Ledger
	weights  *weight.Log
	badges   *achievements.Evaluator
	calendar *bonus.Calendar
	sync     *fitsync.Dispatcher
}

func openApp(s settings) (*app, error) {
	logger, logFile, err := logging.OpenFile(config.DefaultLogPath(), s.LogLevel)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		_ = logFile.Close()
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	client := fitsync.NewClient(s.SyncURL, s.InitData, nil)
	dispatcher := fitsync.NewDispatcher(client, s.SyncTimeout, logger.With("component", "sync"))

	a := &app{
		settings: s,
		logger:   logger,
		logFile:  logFile,
		store:    st,
		history:  history.New(st),
		wallet:   gems.New(st),
		sync:     dispatcher,
	}
	a.weights = weight.New(st, dispatcher)
	a.badges = achievements.NewEvaluator(st, a.history, a.weights, a.wallet, nil)
	a.calendar = bonus.New(st, a.history, a.wallet, s.Session.WeeklyGoal)
	return a, nil
}

// Close flushes pending sync requests, then closes the store and log.
func (a *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	if err := a.sync.Wait(ctx); err != nil {
		a.logger.Warn("pending sync requests abandoned", "err", err)
	}
	if err := a.store.Close(); err != nil {
		a.logger.Warn("failed to close db", "err", err)
	}
	// Nothing useful to do if the log file fails to close.
	_ = a.logFile.Close()
}

// withApp loads settings, opens the app for the duration of fn and closes
// it afterwards.
func withApp(fn func(cmd *cobra.Command, args []string, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings()
		if err != nil {
			return err
		}
		a, err := openApp(s)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd, args, a)
	}
}
