package stats

import (
	"bytes"
	"strings"
	"testing"

	"github.com/verte-zerg/tuifit/internal/model"
)

func TestChartRender(t *testing.T) {
	var buf bytes.Buffer
	chart := Chart{
		Title:  "Weight",
		Span:   10,
		From:   "03-01",
		To:     "03-11",
		Width:  12,
		Height: 4,
		Lines: []Line{
			{Name: "kg", Days: []int{0, 2, 3, 9, 10}, Values: []float64{81, 80.5, 80.8, 80.1, 79.6}},
			{Name: "avg 3", Days: []int{0, 2, 3, 9, 10}, Values: []float64{81, 80.75, 80.77, 80.47, 80.17}, Dotted: true},
		},
	}
	if err := chart.Render(&buf); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	// title, 4 rows, date axis, legend
	if len(lines) != 7 {
		t.Fatalf("expected 7 lines, got %d:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[1], "  81.0 │ ") || !strings.HasPrefix(lines[4], "  79.6 │ ") {
		t.Fatalf("expected shared value axis, got:\n%s", out)
	}
	if !strings.HasSuffix(lines[5], "03-01  03-11") {
		t.Fatalf("expected date axis, got %q", lines[5])
	}
	if lines[6] != "━ kg   ┄ avg 3" {
		t.Fatalf("unexpected legend %q", lines[6])
	}
}

func TestChartRenderEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := (Chart{Title: "Nothing", Lines: []Line{{Name: "kg"}}}).Render(&buf); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}

func TestChartRenderFlat(t *testing.T) {
	var buf bytes.Buffer
	chart := Chart{Width: 10, Height: 3, Span: 2, Lines: []Line{{Name: "kg", Days: []int{0, 1, 2}, Values: []float64{70, 70, 70}}}}
	if err := chart.Render(&buf); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(buf.String(), "71.0") || !strings.Contains(buf.String(), "69.0") {
		t.Fatalf("flat series should be padded by one unit, got:\n%s", buf.String())
	}
}

func TestChartColumnSpacesByDay(t *testing.T) {
	c := Chart{Span: 10}
	if got := c.column(0, 21); got != 0 {
		t.Fatalf("first day should map to column 0, got %d", got)
	}
	if got := c.column(10, 21); got != 20 {
		t.Fatalf("last day should map to the last column, got %d", got)
	}
	if got := c.column(5, 21); got != 10 {
		t.Fatalf("middle day should map to the middle, got %d", got)
	}
	if got := (Chart{}).column(0, 21); got != 10 {
		t.Fatalf("single-day chart should be centered, got %d", got)
	}
}

func TestChartWidth(t *testing.T) {
	if got := ChartWidth(80); got != 71 {
		t.Fatalf("expected width 71, got %d", got)
	}
	if got := ChartWidth(0); got != minChartWidth {
		t.Fatalf("expected min width %d, got %d", minChartWidth, got)
	}
	if got := ChartWidth(12); got != minChartWidth {
		t.Fatalf("expected min width %d for narrow terminals, got %d", minChartWidth, got)
	}
}

func TestRenderWeightTrendRejectsBadDate(t *testing.T) {
	var buf bytes.Buffer
	err := RenderWeightTrend(&buf, []model.WeightEntry{{Date: "yesterday", Weight: 80}}, 3, 40, 4, false)
	if err == nil {
		t.Fatalf("expected error for malformed date")
	}
}
