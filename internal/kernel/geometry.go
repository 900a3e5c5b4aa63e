package kernel

import "math"

// Vec2 is a point or displacement in canvas space.
type Vec2 struct {
	X, Y float64
}

func (v Vec2) Add(o Vec2) Vec2      { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2      { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(f float64) Vec2 { return Vec2{v.X * f, v.Y * f} }
func (v Vec2) Len() float64         { return math.Hypot(v.X, v.Y) }
func (v Vec2) Dist(o Vec2) float64  { return v.Sub(o).Len() }
func (v Vec2) IsFinite() bool       { return isFinite(v.X) && isFinite(v.Y) }

// Floor returns the cell containing v.
func (v Vec2) Floor() (int, int) { return int(math.Floor(v.X)), int(math.Floor(v.Y)) }

// Approx reports whether both components are within eps of o.
func (v Vec2) Approx(o Vec2, eps float64) bool {
	return math.Abs(v.X-o.X) <= eps && math.Abs(v.Y-o.Y) <= eps
}

func isFinite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// PivotRadius is the distance below which a pixel counts as the fixed point
// of the rotation.
const PivotRadius = 1.0

// Polar returns the radius and angle of point relative to pivot.
func Polar(point, pivot Vec2) (r, theta float64) {
	v := point.Sub(pivot)
	return v.Len(), math.Atan2(v.Y, v.X)
}

// Rotate turns point about pivot by -angle radians. The kernel samples the
// previous frame at the inverse rotation, so a positive angle makes the
// pattern itself turn counter-clockwise.
func Rotate(point, pivot Vec2, angle float64) Vec2 {
	r, theta := Polar(point, pivot)
	theta -= angle
	sin, cos := math.Sincos(theta)
	return pivot.Add(Vec2{r * cos, r * sin})
}

// NearPivot reports whether point lies within PivotRadius of pivot.
func NearPivot(point, pivot Vec2) bool {
	return point.Dist(pivot) < PivotRadius
}
