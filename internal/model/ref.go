package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Override carries per-session prescription changes for one exercise.
type Override struct {
	Sets      *int     `yaml:"sets" json:"sets"`
	RepsMin   *int     `yaml:"reps_min" json:"reps_min"`
	RepsMax   *int     `yaml:"reps_max" json:"reps_max"`
	RestSec   *int     `yaml:"rest_sec" json:"rest_sec"`
	Tempo     Text     `yaml:"tempo" json:"tempo"`
	TargetRIR Text     `yaml:"target_rir" json:"target_rir"`
	NotesRU   Text     `yaml:"notes_ru" json:"notes_ru"`
	SchemeRU  []string `yaml:"scheme_ru" json:"scheme_ru"`
}

// ExerciseRef points at a catalog exercise, optionally with overrides.
// It decodes from either a bare id or an object with an "id" field.
type ExerciseRef struct {
	ID       string
	Override *Override
}

// Ref builds a bare reference.
func Ref(id string) ExerciseRef {
	return ExerciseRef{ID: id}
}

type refObject struct {
	ID       Text `yaml:"id" json:"id"`
	Override `yaml:",inline"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *ExerciseRef) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		r.ID = strings.TrimSpace(node.Value)
		r.Override = nil
		return nil
	}
	var obj refObject
	if err := node.Decode(&obj); err != nil {
		return err
	}
	r.ID = strings.TrimSpace(string(obj.ID))
	ov := obj.Override
	r.Override = &ov
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *ExerciseRef) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("empty exercise reference")
	}
	if trimmed[0] != '{' {
		var id Text
		if err := json.Unmarshal(trimmed, &id); err != nil {
			return err
		}
		r.ID = strings.TrimSpace(string(id))
		r.Override = nil
		return nil
	}
	var obj struct {
		ID Text `json:"id"`
		Override
	}
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return err
	}
	r.ID = strings.TrimSpace(string(obj.ID))
	ov := obj.Override
	r.Override = &ov
	return nil
}

// Text is a string that also accepts numbers when decoded.
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*t = ""
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", trimmed)
	}
	if f, err := n.Float64(); err == nil && f == float64(int64(f)) {
		*t = Text(strconv.FormatInt(int64(f), 10))
		return nil
	}
	*t = Text(n.String())
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (t *Text) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected scalar", node.Line)
	}
	*t = Text(node.Value)
	return nil
}

// CourseDayPayload is the course-day session invocation.
type CourseDayPayload struct {
	CourseID string        `json:"course_id"`
	DayIndex int           `json:"day_index"`
	Title    string        `json:"title"`
	Items    []ExerciseRef `json:"items"`
}
