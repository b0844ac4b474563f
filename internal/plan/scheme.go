package plan

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/verte-zerg/tuifit/internal/model"
)

// Scheme lines are free-form schedule text written for people. The parser
// knows a fixed table of phrasings; a line that matches none of them is kept
// as an advisory note and reported in Result.Unparsed so new phrasings can
// be added here.

const (
	setWord  = `(?:сет\p{L}*|подход\p{L}*|sets?)`
	repRange = `(\d+)(?:\s*[–—-]\s*(\d+))?`
	repWord  = `(?:повтор\p{L}*|раз\p{L}*|reps?)`
	// A bare "с"/"s" counts as seconds only at the end of a phrase, so
	// "12 с каждой стороны" stays a rep count.
	secWord  = `(?:(?:сек\p{L}*|secs?|seconds?)(?:\P{L}|$)|[сs]\s*(?:[.,;)]|$))`
	sideWord = `(с\s+каждой\s+стороны|на\s+каждую\s+\p{L}+|per\s+side|each\s+side)`
	failWord = `(до\s+отказа|to\s+failure)`
)

// maxSets bounds the sets of one exercise. Counts come from user payloads,
// so anything larger is rejected rather than allocated.
const maxSets = 50

type schemeRule struct {
	name  string
	re    *regexp.Regexp
	build func(m []string, base setBase) []model.SetSpec
}

// setBase is what a rule needs from the resolved prescription.
type setBase struct {
	reps string
	note string
	rest int
}

var schemeRules = []schemeRule{
	{
		name: "warmup",
		re:   regexp.MustCompile(`(?i)(\d+)\s*(?:разминочн\p{L}*|warm[- ]?up)\s+` + setWord),
		build: func(m []string, base setBase) []model.SetSpec {
			return repeat(atoi(m[1]), model.SetSpec{Kind: model.SetWarmup, RestSec: base.rest})
		},
	},
	{
		name: "heavy-light",
		re: regexp.MustCompile(`(?i)(\d+)\s*(?:тяж[её]л\p{L}*|heavy)\s+` + setWord + `\s+(?:по|of)\s+` + repRange + `\s*` + repWord + `?\s*\+\s*` +
			`(\d+)\s*(?:л[её]гк\p{L}*|light\p{L}*)\s+` + setWord + `\s+(?:по|of)\s+` + repRange + `\s*` + repWord + `?`),
		build: func(m []string, base setBase) []model.SetSpec {
			heavy := repeat(atoi(m[1]), model.SetSpec{
				Kind:    model.SetWork,
				Reps:    FormatReps(atoi(m[2]), atoi(m[3])),
				Note:    joinNote("тяжёлый", base.note),
				RestSec: base.rest,
			})
			light := repeat(atoi(m[4]), model.SetSpec{
				Kind:    model.SetWork,
				Reps:    FormatReps(atoi(m[5]), atoi(m[6])),
				Note:    joinNote("лёгкий", base.note),
				RestSec: base.rest,
			})
			if heavy == nil || light == nil {
				return nil
			}
			return append(heavy, light...)
		},
	},
	{
		name: "timed",
		re:   regexp.MustCompile(`(?i)(\d+)\s*` + setWord + `\s+(?:по|of)\s+(\d+)\s*` + secWord),
		build: func(m []string, base setBase) []model.SetSpec {
			return repeat(atoi(m[1]), model.SetSpec{
				Kind:        model.SetTimed,
				DurationSec: atoi(m[2]),
				Note:        base.note,
				RestSec:     base.rest,
			})
		},
	},
	{
		name: "work",
		re: regexp.MustCompile(`(?i)(\d+)\s*` + setWord + `\s+(?:по|of)\s+` + repRange + `\s*` + repWord + `?` +
			`(?:\s*` + sideWord + `)?(?:.*?` + failWord + `)?`),
		build: func(m []string, base setBase) []model.SetSpec {
			var fail string
			if m[5] != "" {
				fail = "до отказа"
			}
			return repeat(atoi(m[1]), model.SetSpec{
				Kind:    model.SetWork,
				Reps:    FormatReps(atoi(m[2]), atoi(m[3])),
				Note:    joinNote(strings.ToLower(m[4]), fail, base.note),
				RestSec: base.rest,
			})
		},
	},
	{
		name: "failure",
		re:   regexp.MustCompile(`(?i)(?:(\d+)\s*` + setWord + `\s+)?` + failWord),
		build: func(m []string, base setBase) []model.SetSpec {
			n := atoi(m[1])
			if n <= 0 {
				n = 1
			}
			return repeat(n, model.SetSpec{
				Kind:    model.SetFailure,
				Note:    joinNote("до отказа", base.note),
				RestSec: base.rest,
			})
		},
	},
	{
		name: "dropset",
		re:   regexp.MustCompile(`(?i)дроп[- ]?сет|drop[- ]?set`),
		build: func(_ []string, base setBase) []model.SetSpec {
			return []model.SetSpec{{
				Kind:    model.SetFailure,
				Note:    joinNote("дропсет", base.note),
				RestSec: base.rest,
			}}
		},
	},
}

var timedReps = regexp.MustCompile(`(?i)^\s*(\d+)\s*` + secWord + `\s*$`)

// parseScheme decomposes scheme lines into sets. Lines no rule matches,
// lines asking for more than maxSets sets and lines past the maxSets total
// are returned separately.
func parseScheme(lines []string, base setBase) (sets []model.SetSpec, unparsed []string) {
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		matched := false
		for _, rule := range schemeRules {
			m := rule.re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			built := rule.build(m, base)
			if len(built) == 0 || len(sets)+len(built) > maxSets {
				break
			}
			sets = append(sets, built...)
			matched = true
			break
		}
		if !matched {
			unparsed = append(unparsed, line)
		}
	}
	return sets, unparsed
}

// parseDuration reports the seconds encoded in a duration descriptor such
// as "30 сек".
func parseDuration(reps string) (int, bool) {
	m := timedReps.FindStringSubmatch(reps)
	if m == nil {
		return 0, false
	}
	n := atoi(m[1])
	return n, n > 0
}

// FormatReps renders a rep range; hi <= lo collapses to a single number.
func FormatReps(lo, hi int) string {
	if hi <= lo {
		return strconv.Itoa(lo)
	}
	return strconv.Itoa(lo) + "–" + strconv.Itoa(hi)
}

// repeat returns n copies of set, or nothing when n is outside 1..maxSets.
func repeat(n int, set model.SetSpec) []model.SetSpec {
	if n <= 0 || n > maxSets {
		return nil
	}
	out := make([]model.SetSpec, n)
	for i := range out {
		out[i] = set
	}
	return out
}

func joinNote(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " · ")
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
