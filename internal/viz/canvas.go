package viz

import (
	"math"
	"strings"

	"github.com/san-kum/dragonsim/internal/fractal"
	"github.com/san-kum/dragonsim/internal/frame"
	"github.com/san-kum/dragonsim/internal/kernel"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
	return c
}

// FromBuffer downsamples buf onto a cols x rows braille canvas. A dot is set
// when any active pixel falls inside it, so thin features survive. The top
// buffer row lands on the top text row.
func FromBuffer(buf *frame.Buffer, cols, rows int) *Canvas {
	c := NewCanvas(cols, rows)
	if buf == nil || cols <= 0 || rows <= 0 {
		return c
	}
	dotsX, dotsY := cols*2, rows*4
	for y := 0; y < buf.H; y++ {
		sy := (buf.H - 1 - y) * dotsY / buf.H
		for x, p := range buf.Row(y) {
			if p.Active() {
				c.Set(x*dotsX/buf.W, sy)
			}
		}
	}
	return c
}

// Set sets a dot at (x, y) in sub-pixel coordinates.
// The canvas size in sub-pixels is (Width*2) x (Height*4).
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

// IsSet reports whether the dot at (x, y) is lit.
func (c *Canvas) IsSet(x, y int) bool {
	if x < 0 || y < 0 || x/2 >= c.Width || y/4 >= c.Height {
		return false
	}
	return c.Grid[y/4][x/2]&rune(pixelMap[y%4][x%2]) != 0
}

// Dots counts lit dots.
func (c *Canvas) Dots() int {
	n := 0
	for _, row := range c.Grid {
		for _, r := range row {
			bits := r - blank
			for bits != 0 {
				bits &= bits - 1
				n++
			}
		}
	}
	return n
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
}

// DrawLine sets the dots on the segment from (x0, y0) to (x1, y1). A
// segment lying wholly past one edge of the canvas draws nothing.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	w, h := c.Width*2, c.Height*4
	if (x0 < 0 && x1 < 0) || (y0 < 0 && y1 < 0) || (x0 >= w && x1 >= w) || (y0 >= h && y1 >= h) {
		return
	}
	dx, dy := x1-x0, y1-y0
	n := max(absInt(dx), absInt(dy))
	if n == 0 {
		c.Set(x0, y0)
		return
	}
	for i := 0; i <= n; i++ {
		t := float64(i) / float64(n)
		c.Set(x0+int(math.Round(t*float64(dx))), y0+int(math.Round(t*float64(dy))))
	}
}

// DrawRect outlines the box with corners (x0, y0) and (x1, y1). Edges are
// clamped one dot past the canvas so off-canvas sides stay invisible.
func (c *Canvas) DrawRect(x0, y0, x1, y1 int) {
	w, h := c.Width*2, c.Height*4
	x0, x1 = clampInt(x0, -1, w), clampInt(x1, -1, w)
	y0, y1 = clampInt(y0, -1, h), clampInt(y1, -1, h)
	c.DrawLine(x0, y0, x1, y0)
	c.DrawLine(x0, y1, x1, y1)
	c.DrawLine(x0, y0, x0, y1)
	c.DrawLine(x1, y0, x1, y1)
}

// Outline draws the fold's bounding box and a cross at its pivot. pivot and
// bounds are in centred simulation pixels, y up, on a w x h buffer.
func (c *Canvas) Outline(w, h int, pivot kernel.Vec2, bounds fractal.Bounds) {
	if w <= 0 || h <= 0 || !pivot.IsFinite() {
		return
	}
	sx := float64(c.Width*2) / float64(w)
	sy := float64(c.Height*4) / float64(h)
	dot := func(x, y float64) (int, int) {
		fx := clampFloat((x+float64(w)/2)*sx, -1, float64(c.Width*2))
		fy := clampFloat((float64(h)/2-y)*sy, -1, float64(c.Height*4))
		return int(math.Floor(fx)), int(math.Floor(fy))
	}

	x0, y0 := dot(pivot.X-bounds.Left, pivot.Y+bounds.Up)
	x1, y1 := dot(pivot.X+bounds.Right, pivot.Y-bounds.Down)
	c.DrawRect(x0, y0, x1, y1)

	px, py := dot(pivot.X, pivot.Y)
	c.DrawLine(px-1, py, px+1, py)
	c.DrawLine(px, py-1, px, py+1)
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func clampInt(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

// clampFloat also maps NaN to lo.
func clampFloat(v, lo, hi float64) float64 {
	if !(v > lo) {
		return lo
	}
	return math.Min(v, hi)
}
