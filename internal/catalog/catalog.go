// Package catalog loads exercises, workouts and courses.
package catalog

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/tuifit/internal/model"
)

//go:embed catalog.yaml
var builtin []byte

// ErrNotFound is returned for unknown ids.
var ErrNotFound = errors.New("not found")

// Workout is a single flat workout.
type Workout struct {
	ID          string              `yaml:"id"`
	Level       model.Level         `yaml:"level"`
	Name        string              `yaml:"name"`
	Description string              `yaml:"description"`
	Exercises   []model.ExerciseRef `yaml:"exercises"`
}

// CourseDay is one day of a course program.
type CourseDay struct {
	Title string              `yaml:"title"`
	Items []model.ExerciseRef `yaml:"items"`
}

// Course is a multi-day program.
type Course struct {
	ID    string      `yaml:"id"`
	Title string      `yaml:"title"`
	Days  []CourseDay `yaml:"days"`
}

type document struct {
	Exercises []model.ExerciseDefinition `yaml:"exercises"`
	Workouts  []Workout                  `yaml:"workouts"`
	Courses   []Course                   `yaml:"courses"`
}

// Catalog is the merged, read-only catalog.
type Catalog struct {
	exercises map[string]model.ExerciseDefinition
	workouts  map[string]Workout
	courses   map[string]Course

	workoutOrder []string
	courseOrder  []string
}

// Builtin returns the embedded catalog.
func Builtin() (*Catalog, error) {
	return Parse(builtin)
}

// Parse decodes a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	c := &Catalog{
		exercises: map[string]model.ExerciseDefinition{},
		workouts:  map[string]Workout{},
		courses:   map[string]Course{},
	}
	if err := c.merge(data); err != nil {
		return nil, err
	}
	return c, nil
}

// Load returns the builtin catalog with the user file at path merged on
// top. A missing user file is not an error.
func Load(path string) (*Catalog, error) {
	c, err := Builtin()
	if err != nil {
		return nil, fmt.Errorf("failed to parse builtin catalog: %w", err)
	}
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	if err := c.merge(data); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return c, nil
}

func (c *Catalog) merge(data []byte) error {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	for _, ex := range doc.Exercises {
		if ex.ID == "" {
			return fmt.Errorf("exercise %q has no id", ex.Name)
		}
		c.exercises[ex.ID] = ex
	}
	for _, w := range doc.Workouts {
		if w.ID == "" {
			return fmt.Errorf("workout %q has no id", w.Name)
		}
		if _, ok := c.workouts[w.ID]; !ok {
			c.workoutOrder = append(c.workoutOrder, w.ID)
		}
		c.workouts[w.ID] = w
	}
	for _, course := range doc.Courses {
		if course.ID == "" {
			return fmt.Errorf("course %q has no id", course.Title)
		}
		if _, ok := c.courses[course.ID]; !ok {
			c.courseOrder = append(c.courseOrder, course.ID)
		}
		c.courses[course.ID] = course
	}
	return nil
}

// Exercise looks up an exercise definition. It has the shape plan
// normalization expects for its lookup.
func (c *Catalog) Exercise(id string) (model.ExerciseDefinition, bool) {
	ex, ok := c.exercises[id]
	return ex, ok
}

// Exercises lists exercise definitions sorted by id.
func (c *Catalog) Exercises() []model.ExerciseDefinition {
	out := make([]model.ExerciseDefinition, 0, len(c.exercises))
	for _, ex := range c.exercises {
		out = append(out, ex)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Workout returns a workout by id.
func (c *Catalog) Workout(id string) (Workout, error) {
	w, ok := c.workouts[id]
	if !ok {
		return Workout{}, fmt.Errorf("workout %q: %w", id, ErrNotFound)
	}
	return w, nil
}

// Workouts lists workouts in catalog order, optionally filtered by level.
func (c *Catalog) Workouts(level model.Level) []Workout {
	out := make([]Workout, 0, len(c.workoutOrder))
	for _, id := range c.workoutOrder {
		w := c.workouts[id]
		if level != "" && w.Level != level {
			continue
		}
		out = append(out, w)
	}
	return out
}

// Course returns a course by id.
func (c *Catalog) Course(id string) (Course, error) {
	course, ok := c.courses[id]
	if !ok {
		return Course{}, fmt.Errorf("course %q: %w", id, ErrNotFound)
	}
	return course, nil
}

// Courses lists courses in catalog order.
func (c *Catalog) Courses() []Course {
	out := make([]Course, 0, len(c.courseOrder))
	for _, id := range c.courseOrder {
		out = append(out, c.courses[id])
	}
	return out
}

// CourseDay builds the session payload for a zero-based course day.
func (c *Catalog) CourseDay(id string, index int) (model.CourseDayPayload, error) {
	course, err := c.Course(id)
	if err != nil {
		return model.CourseDayPayload{}, err
	}
	if index < 0 || index >= len(course.Days) {
		return model.CourseDayPayload{}, fmt.Errorf("course %q day %d: %w", id, index+1, ErrNotFound)
	}
	day := course.Days[index]
	title := day.Title
	if title == "" {
		title = fmt.Sprintf("%s — день %d", course.Title, index+1)
	}
	return model.CourseDayPayload{
		CourseID: course.ID,
		DayIndex: index,
		Title:    title,
		Items:    day.Items,
	}, nil
}

// LoadDayPayload reads a course-day payload from a JSON file.
func LoadDayPayload(path string) (model.CourseDayPayload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.CourseDayPayload{}, fmt.Errorf("failed to read day payload: %w", err)
	}
	var payload model.CourseDayPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return model.CourseDayPayload{}, fmt.Errorf("failed to decode day payload: %w", err)
	}
	if payload.CourseID == "" {
		return model.CourseDayPayload{}, fmt.Errorf("day payload has no course_id")
	}
	return payload, nil
}
