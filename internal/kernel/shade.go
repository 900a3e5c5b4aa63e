package kernel

import "github.com/san-kum/dragonsim/internal/frame"

// Mode selects what a kernel invocation computes.
type Mode int

const (
	ModeStep Mode = iota
	ModeInitialize
	ModeRender
)

func (m Mode) String() string {
	switch m {
	case ModeInitialize:
		return "initialize"
	case ModeRender:
		return "render"
	default:
		return "step"
	}
}

// Uniforms is the immutable parameter set shared by every pixel of one
// invocation.
type Uniforms struct {
	// Render and Initialize select the mode; neither set means step.
	Render     bool
	Initialize bool

	// Dimensions is the size of the surface being written.
	Dimensions Vec2
	Pivot      Vec2
	Angle      float64
	Scale      float64
	SeedLength float64
}

// Mode resolves the flags in priority order: render, initialize, step.
func (u Uniforms) Mode() Mode {
	if u.Render {
		return ModeRender
	}
	if u.Initialize {
		return ModeInitialize
	}
	return ModeStep
}

// Fragment returns the centre of pixel (x, y).
func Fragment(x, y int) Vec2 {
	return Vec2{float64(x) + 0.5, float64(y) + 0.5}
}

// Shade evaluates pixel (x, y) of the output surface. src is ignored when
// initializing and must be non-nil otherwise.
func Shade(x, y int, u Uniforms, src *frame.Buffer) frame.Pixel {
	frag := Fragment(x, y)
	switch u.Mode() {
	case ModeRender:
		return Present(frag, u, src)
	case ModeInitialize:
		return SeedPixel(frag, u)
	default:
		return Update(frag, u, src)
	}
}

// SeedPixel draws the initial segment: one unit tall, starting at the origin
// and extending SeedLength pixels along +x.
func SeedPixel(frag Vec2, u Uniforms) frame.Pixel {
	c := frag.Sub(u.Dimensions.Scale(0.5))
	inY := c.Y > -1 && c.Y < 1
	inX := c.X >= 0 && c.X < u.SeedLength
	if inX && inY {
		return frame.Seed
	}
	return frame.Background
}

// Present maps an output pixel back onto src, zooming out by the scale ratio
// about both centres. Pixels that land outside src get frame.OutOfCanvas.
func Present(frag Vec2, u Uniforms, src *frame.Buffer) frame.Pixel {
	ratio := Ratio(u.Scale, u.Dimensions.X)
	hi := CanvasBounds(src)
	s := frag.Sub(u.Dimensions.Scale(0.5)).Scale(ratio).Add(hi.Scale(0.5))
	if !InBounds(s, Vec2{}, hi) {
		return frame.OutOfCanvas
	}
	x, y := s.Floor()
	return src.At(x, y)
}
