// Package stats contains workout statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/verte-zerg/tuifit/internal/model"
)

const (
	sparkChars = " .:-=+*#%@"
	dayLayout  = "2006-01-02"
)

// DayKey returns the calendar day of t in t's location.
func DayKey(t time.Time) string {
	return t.Format(dayLayout)
}

// WeekKey returns the ISO week of t as "YYYY-Www".
func WeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// WeekStart returns midnight of the Monday of t's ISO week.
func WeekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, t.Location())
}

// DayMap groups entries by local calendar day. Entries within a day are
// ordered by time.
func DayMap(entries []model.HistoryEntry, loc *time.Location) map[string][]model.HistoryEntry {
	out := map[string][]model.HistoryEntry{}
	for _, e := range entries {
		t := e.Time()
		if t.IsZero() {
			continue
		}
		key := DayKey(t.In(loc))
		out[key] = append(out[key], e)
	}
	for _, list := range out {
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Time().Before(list[j].Time())
		})
	}
	return out
}

// TrainedDaysInWeek counts distinct days with at least one workout in the
// ISO week weekKey.
func TrainedDaysInWeek(days map[string][]model.HistoryEntry, weekKey string, loc *time.Location) int {
	n := 0
	for day, list := range days {
		if len(list) == 0 {
			continue
		}
		t, err := time.ParseInLocation(dayLayout, day, loc)
		if err != nil {
			continue
		}
		if WeekKey(t) == weekKey {
			n++
		}
	}
	return n
}

// WeekCount is the number of trained days in one ISO week.
type WeekCount struct {
	Key   string
	Start time.Time
	Days  int
}

// WeeklyCounts returns trained days for the n weeks ending with now's
// week, oldest first.
func WeeklyCounts(entries []model.HistoryEntry, now time.Time, n int) []WeekCount {
	if n <= 0 {
		return nil
	}
	loc := now.Location()
	days := DayMap(entries, loc)
	start := WeekStart(now)
	out := make([]WeekCount, n)
	for i := 0; i < n; i++ {
		ws := start.AddDate(0, 0, -7*(n-1-i))
		key := WeekKey(ws)
		out[i] = WeekCount{Key: key, Start: ws, Days: TrainedDaysInWeek(days, key, loc)}
	}
	return out
}

// Streak counts consecutive trained days ending today, or yesterday when
// there is no workout today yet.
func Streak(entries []model.HistoryEntry, now time.Time) int {
	days := DayMap(entries, now.Location())
	y, m, d := now.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	if len(days[DayKey(day)]) == 0 {
		day = day.AddDate(0, 0, -1)
	}
	n := 0
	for len(days[DayKey(day)]) > 0 {
		n++
		day = day.AddDate(0, 0, -1)
	}
	return n
}

// Summary holds headline numbers for the history view.
type Summary struct {
	Total    int
	Courses  int
	Singles  int
	ThisWeek int
	Streak   int
	Last     time.Time
}

// Summarize computes the summary for entries as of now.
func Summarize(entries []model.HistoryEntry, now time.Time) Summary {
	s := Summary{Total: len(entries), Streak: Streak(entries, now)}
	for _, e := range entries {
		if e.Source == model.SourceCourse {
			s.Courses++
		} else {
			s.Singles++
		}
		if t := e.Time(); t.After(s.Last) {
			s.Last = t
		}
	}
	days := DayMap(entries, now.Location())
	s.ThisWeek = TrainedDaysInWeek(days, WeekKey(now), now.Location())
	return s
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// Bar renders value/total as a fixed-width bar.
func Bar(value, total, width int) string {
	if width <= 0 {
		return ""
	}
	filled := 0
	if total > 0 {
		filled = int(math.Round(float64(min(value, total)) / float64(total) * float64(width)))
	}
	filled = max(0, min(filled, width))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// RenderSummary prints the headline numbers.
func RenderSummary(w io.Writer, s Summary, goal int) error {
	if s.Total == 0 {
		_, err := fmt.Fprintln(w, "No workouts yet.")
		return err
	}
	lines := []string{
		"Summary",
		fmt.Sprintf("Workouts: %d (courses %d, single %d)", s.Total, s.Courses, s.Singles),
		fmt.Sprintf("This week: %d/%d days", s.ThisWeek, goal),
		fmt.Sprintf("Streak: %d days", s.Streak),
	}
	if !s.Last.IsZero() {
		lines = append(lines, "Last: "+s.Last.Local().Format("2006-01-02 15:04"))
	}
	for _, line := range append(lines, "") {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderWeeks prints one bar per week against the weekly goal.
func RenderWeeks(w io.Writer, weeks []WeekCount, goal, barWidth int) error {
	if len(weeks) == 0 {
		return nil
	}
	if goal <= 0 {
		goal = 1
	}
	if _, err := fmt.Fprintln(w, "Weeks"); err != nil {
		return err
	}
	rows := make([][]string, 0, len(weeks))
	for _, wk := range weeks {
		mark := ""
		if wk.Days >= goal {
			mark = "✓"
		}
		rows = append(rows, []string{
			wk.Key,
			wk.Start.Format("Jan 02"),
			Bar(wk.Days, goal, barWidth),
			fmt.Sprintf("%d/%d", min(wk.Days, goal), goal),
			mark,
		})
	}
	for _, line := range FormatTable(nil, rows, map[int]bool{3: true}) {
		if _, err := fmt.Fprintln(w, strings.TrimRight(line, " ")); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// HistoryRows formats entries newest first for tables.
func HistoryRows(entries []model.HistoryEntry) [][]string {
	rows := make([][]string, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		rows = append(rows, []string{
			e.Time().Local().Format("2006-01-02 15:04"),
			e.Title,
			SourceLabel(e),
		})
	}
	return rows
}

// SourceLabel describes where an entry came from.
func SourceLabel(e model.HistoryEntry) string {
	if e.Source != model.SourceCourse {
		if e.TrainingID != "" {
			return "Тренировка #" + e.TrainingID
		}
		return "Тренировка"
	}
	day := 1
	if e.DayIndex != nil {
		day = *e.DayIndex + 1
	}
	return fmt.Sprintf("Курс %s • день %d", e.CourseID, day)
}

// RenderHistoryTable prints entries newest first.
func RenderHistoryTable(w io.Writer, entries []model.HistoryEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No workouts found.")
		return err
	}
	lines := FormatTable([]string{"Date", "Title", "Source"}, HistoryRows(entries), nil)
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, strings.TrimRight(line, " ")); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// WeightValues extracts the series of weights.
func WeightValues(entries []model.WeightEntry) []float64 {
	out := make([]float64, len(entries))
	for i, e := range entries {
		out[i] = e.Weight
	}
	return out
}

// RenderWeightTrend plots weights and their moving average against the
// measurement dates, so gaps between weigh-ins keep their width.
func RenderWeightTrend(w io.Writer, entries []model.WeightEntry, window, totalWidth, height int, useColor bool) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No weight entries.")
		return err
	}
	first, last := entries[0].Date, entries[len(entries)-1].Date
	days := make([]int, len(entries))
	start, err := time.Parse(dayLayout, first)
	if err != nil {
		return fmt.Errorf("failed to parse weight date %q: %w", first, err)
	}
	for i, e := range entries {
		d, err := time.Parse(dayLayout, e.Date)
		if err != nil {
			return fmt.Errorf("failed to parse weight date %q: %w", e.Date, err)
		}
		days[i] = int(d.Sub(start).Hours() / 24)
	}
	values := WeightValues(entries)
	chart := Chart{
		Title:  fmt.Sprintf("Weight %s → %s", first, last),
		Span:   days[len(days)-1],
		From:   first,
		To:     last,
		Height: height,
		Color:  useColor,
		Lines: []Line{
			{Name: "kg", Days: days, Values: values},
			{Name: fmt.Sprintf("avg %d", window), Days: days, Values: MovingAverage(values, window), Dotted: true},
		},
	}
	if totalWidth > 0 {
		chart.Width = ChartWidth(totalWidth)
	}
	return chart.Render(w)
}
