// Package plan turns exercise references into a session plan.
package plan

import (
	"strings"

	"github.com/verte-zerg/tuifit/internal/model"
)

// Lookup resolves a catalog exercise by id.
type Lookup func(id string) (model.ExerciseDefinition, bool)

// Result is the outcome of normalization.
type Result struct {
	Items []model.SessionPlanItem
	// Dropped lists ids that did not resolve to a catalog entry.
	Dropped []string
	// Skipped lists ids whose set plan came out empty.
	Skipped []string
	// Unparsed lists "id: line" for scheme lines no rule understood.
	Unparsed []string
}

// Normalize resolves refs against the catalog for the given level. It has
// no side effects.
func Normalize(refs []model.ExerciseRef, lookup Lookup, level model.Level) Result {
	var res Result
	for _, ref := range refs {
		def, ok := lookup(ref.ID)
		if !ok {
			res.Dropped = append(res.Dropped, ref.ID)
			continue
		}
		item, unparsed := buildItem(def, ref.Override, level)
		for _, line := range unparsed {
			res.Unparsed = append(res.Unparsed, def.ID+": "+line)
		}
		if len(item.Sets) == 0 {
			res.Skipped = append(res.Skipped, def.ID)
			continue
		}
		res.Items = append(res.Items, item)
	}
	elideFinalRest(res.Items)
	return res
}

func buildItem(def model.ExerciseDefinition, ov *model.Override, level model.Level) (model.SessionPlanItem, []string) {
	presc := prescriptionFor(def, level)
	if ov == nil {
		ov = &model.Override{}
	}

	reps := presc.Reps
	if ov.RepsMin != nil {
		hi := *ov.RepsMin
		if ov.RepsMax != nil {
			hi = *ov.RepsMax
		}
		reps = FormatReps(*ov.RepsMin, hi)
	} else if ov.RepsMax != nil {
		reps = FormatReps(*ov.RepsMax, *ov.RepsMax)
	}
	rest := presc.RestSec
	if ov.RestSec != nil {
		rest = *ov.RestSec
	}
	if rest < 0 {
		rest = 0
	}
	count := def.Sets
	if ov.Sets != nil {
		count = *ov.Sets
	}

	note := joinNote(
		prefixed("темп ", string(ov.Tempo)),
		prefixed("RIR ", string(ov.TargetRIR)),
		string(ov.NotesRU),
	)
	base := setBase{reps: reps, note: note, rest: rest}

	item := model.SessionPlanItem{
		ExerciseID: def.ID,
		Name:       def.Name,
		Muscle:     def.Muscle,
		Target:     presc.Target,
		Advice:     presc.Advice,
	}

	sets, unparsed := parseScheme(ov.SchemeRU, base)
	item.Notes = unparsed
	if len(sets) == 0 {
		if count > maxSets {
			unparsed = append(unparsed, "sets: "+itoa(count)+" capped at "+itoa(maxSets))
			count = maxSets
		}
		sets = uniformSets(count, base)
	}
	item.Sets = sets
	return item, unparsed
}

func uniformSets(count int, base setBase) []model.SetSpec {
	if secs, ok := parseDuration(base.reps); ok {
		return repeat(count, model.SetSpec{
			Kind:        model.SetTimed,
			DurationSec: secs,
			Note:        base.note,
			RestSec:     base.rest,
		})
	}
	return repeat(count, model.SetSpec{
		Kind:    model.SetWork,
		Reps:    base.reps,
		Note:    base.note,
		RestSec: base.rest,
	})
}

// prescriptionFor picks the level's record, then beginner, then any level.
func prescriptionFor(def model.ExerciseDefinition, level model.Level) model.Prescription {
	if p, ok := def.Levels[level]; ok {
		return p
	}
	if p, ok := def.Levels[model.LevelBeginner]; ok {
		return p
	}
	for _, l := range model.Levels {
		if p, ok := def.Levels[l]; ok {
			return p
		}
	}
	return model.Prescription{}
}

// elideFinalRest drops the rest after the session's last set.
func elideFinalRest(items []model.SessionPlanItem) {
	if len(items) == 0 {
		return
	}
	last := items[len(items)-1].Sets
	last[len(last)-1].RestSec = 0
}

func prefixed(prefix, value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	return prefix + value
}

// Summary describes an item's sets for list views, e.g. "3 × 10–12".
func Summary(item model.SessionPlanItem) string {
	if len(item.Sets) == 0 {
		return ""
	}
	first := item.Sets[0]
	uniform := true
	for _, s := range item.Sets[1:] {
		if s.Kind != first.Kind || s.Reps != first.Reps || s.DurationSec != first.DurationSec {
			uniform = false
			break
		}
	}
	if !uniform {
		parts := make([]string, 0, len(item.Sets))
		for _, s := range item.Sets {
			parts = append(parts, SetLabel(s))
		}
		return strings.Join(parts, ", ")
	}
	return itoa(len(item.Sets)) + " × " + SetLabel(first)
}

// SetLabel is a short description of one set.
func SetLabel(s model.SetSpec) string {
	switch s.Kind {
	case model.SetWarmup:
		return "разминка"
	case model.SetFailure:
		return "до отказа"
	case model.SetTimed:
		return itoa(s.DurationSec) + " сек"
	default:
		if s.Reps == "" {
			return "—"
		}
		return s.Reps
	}
}
