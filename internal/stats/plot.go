package stats

import (
	"fmt"
	"io"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
)

// Line is one series of a trend chart. Days holds the x position of each
// value as a day offset from the start of the chart.
type Line struct {
	Name   string
	Days   []int
	Values []float64
	Dotted bool
}

// Chart is a braille line chart over a span of days.
type Chart struct {
	Title    string
	Lines    []Line
	Span     int
	From, To string
	Width    int
	Height   int
	Color    bool
}

const (
	defaultChartHeight = 10
	minChartWidth      = 10
	axisWidth          = 6
	axisGutter         = " │ "
)

var lineColors = []color.Attribute{color.FgCyan, color.FgYellow}

// ChartWidth returns the plot area width that fits totalWidth cells next to
// the value axis.
func ChartWidth(totalWidth int) int {
	return max(totalWidth-axisWidth-utf8.RuneCountInString(axisGutter), minChartWidth)
}

// Render writes the chart. A chart without values writes nothing.
func (c Chart) Render(w io.Writer) error {
	lo, hi, ok := c.bounds()
	if !ok {
		return nil
	}
	if hi-lo < 1e-9 {
		lo--
		hi++
	}
	height := c.Height
	if height <= 0 {
		height = defaultChartHeight
	}
	width := max(c.Width, minChartWidth)

	cv := newCanvas(width, height)
	for li, line := range c.Lines {
		prevX, prevY := -1, -1
		for i, v := range line.Values {
			x := c.column(line.Days[i], cv.dotsX())
			y := scaleRow(v, lo, hi, cv.dotsY())
			if prevX < 0 {
				cv.dot(x, y, li, line.Dotted)
			} else {
				cv.segment(prevX, prevY, x, y, li, line.Dotted)
			}
			prevX, prevY = x, y
		}
	}

	var b strings.Builder
	if c.Title != "" {
		b.WriteString(c.Title)
		b.WriteByte('\n')
	}
	labels := axisLabels(height, lo, hi)
	for y := range height {
		fmt.Fprintf(&b, "%*s%s", axisWidth, labels[y], axisGutter)
		for x := range width {
			r, owner := cv.cell(x, y)
			b.WriteString(c.paint(string(r), owner))
		}
		b.WriteByte('\n')
	}
	if c.From != "" || c.To != "" {
		gap := max(width-utf8.RuneCountInString(c.From)-utf8.RuneCountInString(c.To), 1)
		fmt.Fprintf(&b, "%*s%s%s%s%s\n", axisWidth, "", axisGutter, c.From, strings.Repeat(" ", gap), c.To)
	}
	b.WriteString(c.legend())
	b.WriteString("\n\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func (c Chart) bounds() (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, line := range c.Lines {
		for _, v := range line.Values {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
			ok = true
		}
	}
	return lo, hi, ok
}

// column maps a day offset onto a dot column. A single-day chart is drawn
// in the middle.
func (c Chart) column(day, dots int) int {
	if c.Span <= 0 {
		return dots / 2
	}
	day = max(0, min(day, c.Span))
	return int(math.Round(float64(day) / float64(c.Span) * float64(dots-1)))
}

func (c Chart) paint(s string, owner int) string {
	if !c.Color || owner < 0 {
		return s
	}
	col := color.New(lineColors[owner%len(lineColors)])
	col.EnableColor()
	return col.Sprint(s)
}

func (c Chart) legend() string {
	parts := make([]string, 0, len(c.Lines))
	for i, line := range c.Lines {
		mark := "━"
		if line.Dotted {
			mark = "┄"
		}
		parts = append(parts, c.paint(mark+" "+line.Name, i))
	}
	return strings.Join(parts, "   ")
}

func axisLabels(height int, lo, hi float64) []string {
	labels := make([]string, height)
	labels[0] = fmt.Sprintf("%.1f", hi)
	if height > 2 {
		labels[height/2] = fmt.Sprintf("%.1f", (lo+hi)/2)
	}
	if height > 1 {
		labels[height-1] = fmt.Sprintf("%.1f", lo)
	}
	return labels
}

func scaleRow(v, lo, hi float64, dots int) int {
	pos := (v - lo) / (hi - lo)
	row := int(math.Round((1 - pos) * float64(dots-1)))
	return max(0, min(row, dots-1))
}

// canvas is a grid of braille cells, each 2 dots wide and 4 dots tall.
// owner remembers which line first touched a cell so it can be colored.
type canvas struct {
	masks [][]uint8
	owner [][]int
}

func newCanvas(width, height int) *canvas {
	cv := &canvas{masks: make([][]uint8, height), owner: make([][]int, height)}
	for y := range height {
		cv.masks[y] = make([]uint8, width)
		cv.owner[y] = make([]int, width)
		for x := range cv.owner[y] {
			cv.owner[y][x] = -1
		}
	}
	return cv
}

func (cv *canvas) dotsX() int { return len(cv.masks[0]) * 2 }
func (cv *canvas) dotsY() int { return len(cv.masks) * 4 }

// brailleBits indexes dot bits by [column][row] within a cell.
var brailleBits = [2][4]uint8{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

func (cv *canvas) dot(x, y, line int, dotted bool) {
	if dotted && x%3 != 0 {
		return
	}
	if x < 0 || y < 0 || x >= cv.dotsX() || y >= cv.dotsY() {
		return
	}
	cx, cy := x/2, y/4
	cv.masks[cy][cx] |= brailleBits[x%2][y%4]
	if cv.owner[cy][cx] < 0 {
		cv.owner[cy][cx] = line
	}
}

// segment draws a straight line between two dots (Bresenham).
func (cv *canvas) segment(x0, y0, x1, y1, line int, dotted bool) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := sign(x1-x0), sign(y1-y0)
	e := dx + dy
	for {
		cv.dot(x0, y0, line, dotted)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func (cv *canvas) cell(x, y int) (rune, int) {
	return rune(0x2800 + int(cv.masks[y][x])), cv.owner[y][x]
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
