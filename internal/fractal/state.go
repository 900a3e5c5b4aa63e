package fractal

import (
	"math"

	"github.com/san-kum/dragonsim/internal/kernel"
)

// Bounds are the fold's extents measured from the current pivot.
type Bounds struct {
	Left, Right, Up, Down float64
}

func (b Bounds) Width() float64  { return b.Left + b.Right }
func (b Bounds) Height() float64 { return b.Up + b.Down }

func (b Bounds) scaled(f float64) Bounds {
	return Bounds{b.Left * f, b.Right * f, b.Up * f, b.Down * f}
}

// Next is the outcome of folding the current state by one angle.
type Next struct {
	End    kernel.Vec2
	Bounds Bounds
}

// State tracks the segment being folded in centred simulation coordinates.
// Start stays at the origin; End is the pivot of the next fold.
type State struct {
	Start  kernel.Vec2
	End    kernel.Vec2
	Bounds Bounds
	Margin float64
}

func NewState(start, end kernel.Vec2, margin float64) *State {
	s := &State{Start: start, End: end, Margin: margin}
	if start.X < end.X {
		s.Bounds.Left = end.X - start.X
	} else {
		s.Bounds.Right = start.X - end.X
	}
	if start.Y < end.Y {
		s.Bounds.Up = end.Y - start.Y
	} else {
		s.Bounds.Down = start.Y - end.Y
	}
	return s
}

// rotate turns point counter-clockwise about pivot, the direction the
// kernel folds the canvas.
func rotate(point, pivot kernel.Vec2, angle float64) kernel.Vec2 {
	return kernel.Rotate(point, pivot, -angle)
}

// Update computes the pivot and extents after a fold by angle without
// changing s.
func (s *State) Update(angle float64) Next {
	var origin kernel.Vec2
	corners := [4]kernel.Vec2{
		rotate(kernel.Vec2{X: -s.Bounds.Left}, origin, angle),
		rotate(kernel.Vec2{X: s.Bounds.Right}, origin, angle),
		rotate(kernel.Vec2{Y: s.Bounds.Up}, origin, angle),
		rotate(kernel.Vec2{Y: -s.Bounds.Down}, origin, angle),
	}

	minX, maxX := -s.Bounds.Left, s.Bounds.Right
	minY, maxY := -s.Bounds.Down, s.Bounds.Up
	for _, c := range corners {
		minX = math.Min(minX, c.X)
		maxX = math.Max(maxX, c.X)
		minY = math.Min(minY, c.Y)
		maxY = math.Max(maxY, c.Y)
	}

	end := rotate(s.Start, s.End, angle)
	shift := s.End.Sub(end)
	return Next{
		End: end,
		Bounds: Bounds{
			Left:  -minX - shift.X,
			Right: maxX + shift.X,
			Up:    maxY + shift.Y,
			Down:  -minY - shift.Y,
		},
	}
}

// Commit applies Update(angle).
func (s *State) Commit(angle float64) {
	n := s.Update(angle)
	s.End = n.End
	s.Bounds = n.Bounds
}

// RequiredScale is the logical width needed to show b with the margin.
func (s *State) RequiredScale(b Bounds) float64 {
	return math.Max(b.Width(), b.Height()) + s.Margin
}

// Fit shrinks the state into a canvas of the given width once the fold needs
// more room than it has. It returns the factor applied, 1 when nothing
// changed.
func (s *State) Fit(width float64) float64 {
	scale := s.RequiredScale(s.Bounds)
	if scale <= width {
		return 1
	}
	f := width / scale
	s.Start = s.Start.Scale(f)
	s.End = s.End.Scale(f)
	s.Bounds = s.Bounds.scaled(f)
	return f
}
