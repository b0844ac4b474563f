// Package model defines shared data structures.
package model

import "time"

// Level is a skill level used to pick an exercise prescription.
type Level string

// Skill levels.
const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

// Levels lists the known levels in ascending order.
var Levels = []Level{LevelBeginner, LevelIntermediate, LevelAdvanced}

// ParseLevel validates a level name.
func ParseLevel(s string) (Level, bool) {
	for _, l := range Levels {
		if string(l) == s {
			return l, true
		}
	}
	return "", false
}

// Config defines session settings.
type Config struct {
	Level       Level
	GetReadySec int
	Haptics     bool
	WeeklyGoal  int
}

// StatsConfig defines filters for history browsing.
type StatsConfig struct {
	Since *time.Time
	Last  int
	Limit int
}

// Prescription is the per-level default for an exercise.
type Prescription struct {
	Target  string `yaml:"target" json:"target"`
	Reps    string `yaml:"reps" json:"reps"`
	RestSec int    `yaml:"rest" json:"rest"`
	Advice  string `yaml:"advice" json:"advice"`
}

// ExerciseDefinition is an immutable catalog entry.
type ExerciseDefinition struct {
	ID     string                 `yaml:"id" json:"id"`
	Name   string                 `yaml:"name" json:"name"`
	Muscle string                 `yaml:"muscle" json:"muscle"`
	Sets   int                    `yaml:"sets" json:"sets"`
	Levels map[Level]Prescription `yaml:"levels" json:"levels"`
}

// SetKind tags a SetSpec variant.
type SetKind string

// Set kinds.
const (
	SetWarmup  SetKind = "warmup"
	SetWork    SetKind = "work"
	SetFailure SetKind = "failure"
	SetTimed   SetKind = "timed"
)

// Manual reports whether the set needs an explicit confirmation to resolve.
func (k SetKind) Manual() bool {
	return k != SetTimed
}

// SetSpec is one set within an exercise.
type SetSpec struct {
	Kind        SetKind
	Reps        string
	Note        string
	DurationSec int
	// RestSec is applied after this set.
	RestSec int
}

// SessionPlanItem is one exercise within a session.
type SessionPlanItem struct {
	ExerciseID string
	Name       string
	Muscle     string
	Target     string
	Advice     string
	Notes      []string
	Sets       []SetSpec
}

// HistorySource is the origin of a completed session.
type HistorySource string

// History sources as stored.
const (
	SourceSingle HistorySource = "training"
	SourceCourse HistorySource = "course"
)

// SessionInfo identifies what a session runs; it becomes the history entry.
type SessionInfo struct {
	Source     HistorySource
	TrainingID string
	CourseID   string
	DayIndex   *int
	Title      string
}

// HistoryEntry is one completed session in the trainingHistory log.
type HistoryEntry struct {
	Date       string        `json:"date"`
	Source     HistorySource `json:"source"`
	TrainingID string        `json:"training_id,omitempty"`
	CourseID   string        `json:"course_id,omitempty"`
	DayIndex   *int          `json:"day_index,omitempty"`
	Title      string        `json:"title"`
}

// Time parses the entry date. The zero time is returned for bad dates.
func (e HistoryEntry) Time() time.Time {
	t, err := time.Parse(time.RFC3339Nano, e.Date)
	if err != nil {
		return time.Time{}
	}
	return t
}

// WeightEntry is one day in the weightHistory log.
type WeightEntry struct {
	Date   string  `json:"date"`
	Weight float64 `json:"weight"`
}
