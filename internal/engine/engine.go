package engine

import (
	"fmt"
	"image"
	"math"

	"github.com/san-kum/dragonsim/internal/compute"
	"github.com/san-kum/dragonsim/internal/frame"
	"github.com/san-kum/dragonsim/internal/kernel"
)

// Params is the per-tick input to Step.
type Params struct {
	Pivot kernel.Vec2
	Angle float64
	// Scale is the logical simulation width. Values at or below the buffer
	// width mean 1:1 sampling.
	Scale float64
}

// Engine evaluates the kernel over whole buffers on a compute backend. It
// holds no simulation state; buffers are owned by the caller.
type Engine struct {
	backend compute.Backend
}

// New returns an engine using b, or the process-wide backend when b is nil.
func New(b compute.Backend) *Engine {
	if b == nil {
		b = compute.GetBackend()
	}
	return &Engine{backend: b}
}

func (e *Engine) Backend() compute.Backend { return e.backend }

// Initialize returns a new buffer holding the seed segment.
func (e *Engine) Initialize(size frame.Size, seedLength float64) (*frame.Buffer, error) {
	buf, err := frame.NewBuffer(size.W, size.H)
	if err != nil {
		return nil, err
	}
	if err := e.InitializeInto(buf, seedLength); err != nil {
		return nil, err
	}
	return buf, nil
}

// InitializeInto overwrites dst with the seed segment.
func (e *Engine) InitializeInto(dst *frame.Buffer, seedLength float64) error {
	if dst == nil {
		return ErrNilBuffer
	}
	if math.IsNaN(seedLength) || seedLength < 0 || seedLength > float64(dst.W) {
		Logger().Warn("seed length rejected", "length", seedLength, "width", dst.W)
		return fmt.Errorf("%w: %v not in [0, %d]", ErrSeedLength, seedLength, dst.W)
	}
	u := kernel.Uniforms{
		Initialize: true,
		Dimensions: dims(dst.Size()),
		SeedLength: seedLength,
	}
	e.dispatch(dst, u, nil)
	return nil
}

// Step returns the next frame computed from prev. prev is not modified.
func (e *Engine) Step(prev *frame.Buffer, p Params) (*frame.Buffer, error) {
	if prev == nil {
		return nil, ErrNilBuffer
	}
	next, err := frame.NewBuffer(prev.W, prev.H)
	if err != nil {
		return nil, err
	}
	if err := e.StepInto(prev, next, p); err != nil {
		return nil, err
	}
	return next, nil
}

// StepInto writes the next frame computed from prev into next. The two
// buffers must be distinct and equally sized.
func (e *Engine) StepInto(prev, next *frame.Buffer, p Params) error {
	if prev == nil || next == nil {
		return ErrNilBuffer
	}
	if prev == next {
		return ErrAliasedBuffers
	}
	if prev.W != next.W || prev.H != next.H {
		return fmt.Errorf("%w: %s vs %s", frame.ErrDimensionMismatch, prev.Size(), next.Size())
	}
	if err := p.validate(); err != nil {
		Logger().Warn("step parameters rejected", "err", err)
		return err
	}
	u := kernel.Uniforms{
		Dimensions: dims(prev.Size()),
		Pivot:      p.Pivot,
		Angle:      p.Angle,
		Scale:      p.Scale,
	}
	e.dispatch(next, u, prev)
	return nil
}

// Render maps cur onto an output surface of the given size. Pixels that fall
// outside cur are painted frame.OutOfCanvas. cur is not modified.
func (e *Engine) Render(cur *frame.Buffer, out frame.Size, scale float64) (*image.NRGBA, error) {
	if cur == nil {
		return nil, ErrNilBuffer
	}
	if !out.Valid() {
		return nil, fmt.Errorf("%w: got %s", frame.ErrInvalidDimensions, out)
	}
	if !isFinite(scale) {
		return nil, fmt.Errorf("%w: scale %v", ErrNonFinite, scale)
	}
	u := kernel.Uniforms{
		Render:     true,
		Dimensions: dims(out),
		Scale:      scale,
	}
	img := image.NewNRGBA(image.Rect(0, 0, out.W, out.H))
	e.log(u, out)
	e.backend.Dispatch(out.H, func(start, end int) {
		for y := start; y < end; y++ {
			row := out.H - 1 - y
			for x := 0; x < out.W; x++ {
				img.SetNRGBA(x, row, kernel.Shade(x, y, u, cur).NRGBA())
			}
		}
	})
	return img, nil
}

func (e *Engine) dispatch(dst *frame.Buffer, u kernel.Uniforms, src *frame.Buffer) {
	e.log(u, dst.Size())
	e.backend.Dispatch(dst.H, func(start, end int) {
		for y := start; y < end; y++ {
			row := dst.Row(y)
			for x := range row {
				row[x] = kernel.Shade(x, y, u, src)
			}
		}
	})
}

func (e *Engine) log(u kernel.Uniforms, size frame.Size) {
	Logger().Debug("dispatch",
		"mode", u.Mode().String(),
		"size", size.String(),
		"ratio", kernel.Ratio(u.Scale, u.Dimensions.X),
		"backend", e.backend.Name(),
	)
}

func (p Params) validate() error {
	if !p.Pivot.IsFinite() {
		return fmt.Errorf("%w: pivot %v", ErrNonFinite, p.Pivot)
	}
	if !isFinite(p.Angle) {
		return fmt.Errorf("%w: angle %v", ErrNonFinite, p.Angle)
	}
	if !isFinite(p.Scale) {
		return fmt.Errorf("%w: scale %v", ErrNonFinite, p.Scale)
	}
	return nil
}

func dims(s frame.Size) kernel.Vec2 {
	return kernel.Vec2{X: float64(s.W), Y: float64(s.H)}
}

func isFinite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
