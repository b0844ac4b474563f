package tui

import (
	"strings"
	"testing"
)

func TestRenderFooterFormats(t *testing.T) {
	m := newTestModel(t, rowPlan(), &memHistory{})
	if out := m.renderFooter(); !containsAll(out, []string{"enter", "q"}) || strings.Contains(out, "Упражнение") {
		t.Fatalf("unexpected intro footer: %s", out)
	}
	send(t, m, enterKey)
	out := m.renderFooter()
	if !containsAll(out, []string{"Упражнение 1/1", "enter", "s", "q"}) {
		t.Fatalf("footer missing expected segments: %s", out)
	}
}

func TestFormatClock(t *testing.T) {
	cases := map[int]string{0: "0:00", 5: "0:05", 90: "1:30", -3: "0:00"}
	for in, want := range cases {
		if got := formatClock(in); got != want {
			t.Fatalf("formatClock(%d) = %q, want %q", in, got, want)
		}
	}
}

func containsAll(haystack string, needles []string) bool {
	for _, needle := range needles {
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}
