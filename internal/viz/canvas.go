package viz

import (
	"fmt"
	"strings"

	"github.com/san-kum/petrode/internal/analysis"
	"github.com/san-kum/petrode/internal/engine"
)

// Braille cells hold 2x4 dots, offset from U+2800.
//
//	1 4
//	2 5
//	3 6
//	7 8
var pixelMap = [4][2]rune{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const brailleBlank = 0x2800

// Canvas is a Width x Height cell grid addressed in sub-pixels, giving a
// drawable area of (2*Width) x (4*Height) dots.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{Width: w, Height: h, Grid: make([][]rune, h)}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Set lights the dot at sub-pixel (x, y). Out of range dots are ignored.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= pixelMap[y%4][x%2]
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBlank
		}
	}
}

// DrawLine draws with Bresenham's algorithm.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx, dy := absInt(x1-x0), absInt(y1-y0)
	sx, sy := -1, -1
	if x0 < x1 {
		sx = 1
	}
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy
	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// PhasePortrait plots place yID against place xID across the solution,
// joining consecutive samples. width and height are in terminal cells.
func PhasePortrait(sol *engine.Solution, xID, yID string, width, height int) (string, error) {
	if width <= 0 || height <= 0 {
		return "", fmt.Errorf("viz: invalid canvas size %dx%d", width, height)
	}
	xs, err := analysis.ExtractSeries(sol, xID)
	if err != nil {
		return "", err
	}
	ys, err := analysis.ExtractSeries(sol, yID)
	if err != nil {
		return "", err
	}

	xlo, xhi := bounds(xs)
	ylo, yhi := bounds(ys)
	pw, ph := width*2-1, height*4-1
	project := func(x, y float64) (int, int) {
		px := int((x - xlo) / (xhi - xlo) * float64(pw))
		py := ph - int((y-ylo)/(yhi-ylo)*float64(ph))
		return px, py
	}

	c := NewCanvas(width, height)
	for i := range xs {
		x1, y1 := project(xs[i], ys[i])
		if i == 0 {
			c.Set(x1, y1)
			continue
		}
		x0, y0 := project(xs[i-1], ys[i-1])
		c.DrawLine(x0, y0, x1, y1)
	}

	caption := Subtle.Render(fmt.Sprintf("%s ∈ [%.3g, %.3g]  vs  %s ∈ [%.3g, %.3g]", xID, xlo, xhi, yID, ylo, yhi))
	return c.String() + caption, nil
}

// bounds returns [lo, hi] widened so the range is never empty.
func bounds(v []float64) (float64, float64) {
	if len(v) == 0 {
		return 0, 1
	}
	lo, hi := v[0], v[0]
	for _, x := range v {
		lo = min(lo, x)
		hi = max(hi, x)
	}
	if hi == lo {
		return lo - 0.5, hi + 0.5
	}
	return lo, hi
}
