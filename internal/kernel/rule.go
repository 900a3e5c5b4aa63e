package kernel

import "github.com/san-kum/dragonsim/internal/frame"

// Update computes the next value of the pixel whose centre is frag.
//
// The pixel is first mapped into the logical, centre-origin frame and scaled
// by the sampling ratio. Pixels at the pivot are fixed points. Otherwise the
// previous frame is sampled at the pixel's own position and at its inverse
// rotation; a rotated hit overrides a straight one.
func Update(frag Vec2, u Uniforms, prev *frame.Buffer) frame.Pixel {
	ratio := Ratio(u.Scale, u.Dimensions.X)
	half := u.Dimensions.Scale(0.5)
	coords := frag.Sub(half).Scale(ratio)

	if NearPivot(coords, u.Pivot) {
		return frame.PivotHit
	}

	target := Rotate(coords, u.Pivot, u.Angle).Add(half)
	rotated := InBounds(target, Vec2{}, CanvasBounds(prev)) && AreaActive(target, ratio, prev)
	unrotated := AreaActive(coords.Add(half), ratio, prev)

	return Composite(unrotated, rotated)
}

// Composite encodes the two activity conditions with rotated-wins precedence.
func Composite(unrotated, rotated bool) frame.Pixel {
	switch {
	case rotated:
		return frame.RotationHit
	case unrotated:
		return frame.OriginHit
	default:
		return frame.Background
	}
}
