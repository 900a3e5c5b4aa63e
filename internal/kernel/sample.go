package kernel

import (
	"math"

	"github.com/san-kum/dragonsim/internal/frame"
)

// InBounds is a strict containment test: lo < p < hi on both axes. Points on
// a boundary are outside.
func InBounds(p, lo, hi Vec2) bool {
	return p.X > lo.X && p.X < hi.X && p.Y > lo.Y && p.Y < hi.Y
}

// CanvasBounds returns the upper corner of buf's canvas in pixel units.
func CanvasBounds(buf *frame.Buffer) Vec2 {
	return Vec2{float64(buf.W), float64(buf.H)}
}

// BlockSize is the side of the square area sampled for the given ratio,
// capped at math.MaxInt32.
func BlockSize(ratio float64) int {
	switch {
	case !(ratio > 1):
		return 1
	case ratio >= math.MaxInt32:
		return math.MaxInt32
	}
	return int(math.Ceil(ratio))
}

// AreaActive reports whether any in-canvas cell of the BlockSize(ratio)
// square starting at the cell under center is active. With ratio 1 this is a
// single texel lookup. Only the part of the block that overlaps the canvas
// is visited.
func AreaActive(center Vec2, ratio float64, buf *frame.Buffer) bool {
	x0, x1, ok := overlap(center.X, ratio, buf.W)
	if !ok {
		return false
	}
	y0, y1, ok := overlap(center.Y, ratio, buf.H)
	if !ok {
		return false
	}
	for iy := y0; iy < y1; iy++ {
		for ix := x0; ix < x1; ix++ {
			if buf.ActiveAt(ix, iy) {
				return true
			}
		}
	}
	return false
}

// overlap clips the cells [floor(c), floor(c)+BlockSize(ratio)) to [0, size).
// A cell is on the canvas exactly when its centre passes InBounds.
func overlap(c, ratio float64, size int) (lo, hi int, ok bool) {
	start := math.Floor(c)
	end := start + float64(BlockSize(ratio))
	from, to := math.Max(start, 0), math.Min(end, float64(size))
	if !(from < to) {
		return 0, 0, false
	}
	return int(from), int(to), true
}
