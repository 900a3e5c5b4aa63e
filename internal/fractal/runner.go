package fractal

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"sync/atomic"
	"time"

	"github.com/san-kum/dragonsim/internal/config"
	"github.com/san-kum/dragonsim/internal/engine"
	"github.com/san-kum/dragonsim/internal/frame"
	"github.com/san-kum/dragonsim/internal/kernel"
	"github.com/san-kum/dragonsim/internal/metrics"
)

// ErrStopped is returned by Run after Stop.
var ErrStopped = errors.New("fractal: stopped")

// Runner drives the fold round by round on a swapchain.
type Runner struct {
	cfg       config.Config
	size      frame.Size
	eng       *engine.Engine
	swap      *Swapchain
	state     *State
	angle     float64
	remaining int
	round     int
	render    bool
	stopped   atomic.Bool

	metrics   []metrics.Metric
	observers []Observer
	result    *Result
}

// NewRunner validates cfg and seeds the first frame.
func NewRunner(cfg *config.Config, eng *engine.Engine) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if eng == nil {
		eng = engine.New(nil)
	}
	size := frame.Size{W: cfg.Width, H: cfg.Height}
	swap, err := NewSwapchain(size)
	if err != nil {
		return nil, err
	}
	r := &Runner{
		cfg:    *cfg,
		size:   size,
		eng:    eng,
		swap:   swap,
		render: true,
	}
	if err := r.Seed(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Runner) AddMetric(m metrics.Metric) { r.metrics = append(r.metrics, m) }
func (r *Runner) AddObserver(o Observer)     { r.observers = append(r.observers, o) }
func (r *Runner) SetRender(enabled bool)     { r.render = enabled }
func (r *Runner) Config() config.Config      { return r.cfg }
func (r *Runner) Size() frame.Size           { return r.size }
func (r *Runner) State() State               { return *r.state }
func (r *Runner) Angle() float64             { return r.angle }
func (r *Runner) Rounds() int                { return r.round }
func (r *Runner) Current() *frame.Buffer     { return r.swap.Src() }
func (r *Runner) Done() bool                 { return r.remaining == 0 }
func (r *Runner) Stop()                      { r.stopped.Store(true) }
func (r *Runner) Engine() *engine.Engine     { return r.eng }

// Seed resets the run: fresh state, cleared buffers, the seed segment in the
// source buffer and zeroed metrics.
func (r *Runner) Seed() error {
	r.swap.Reset()
	if err := r.eng.InitializeInto(r.swap.Src(), r.cfg.LineLength); err != nil {
		return err
	}
	r.state = NewState(kernel.Vec2{}, kernel.Vec2{X: r.cfg.AreaLength}, r.cfg.Margin)
	r.angle = r.cfg.Angle
	r.remaining = r.cfg.Iterations
	r.round = 0
	r.stopped.Store(false)
	r.result = &Result{Metrics: make(map[string]float64)}
	for _, m := range r.metrics {
		m.Reset()
	}
	engine.Logger().Info("seeded", "size", r.size.String(), "line", r.cfg.LineLength, "angle", r.angle)
	return nil
}

// Snapshot renders the committed source at 1:1.
func (r *Runner) Snapshot() (*image.NRGBA, error) {
	return r.eng.Render(r.swap.Src(), r.size, float64(r.size.W))
}

// Round animates one fold. Sub-frames advance the angle in equal steps while
// the scale grows from the canvas width toward the round's required scale;
// every sub-frame reads the same committed source. The final frame uses the
// exact angle and scale and is the one committed. A cancelled round leaves
// the committed state untouched.
func (r *Runner) Round(ctx context.Context) (RoundStat, error) {
	if r.Done() {
		return RoundStat{}, fmt.Errorf("fractal: all %d iterations done", r.cfg.Iterations)
	}

	angle := r.angle
	width := float64(r.size.W)
	target := r.state.RequiredScale(r.state.Update(angle).Bounds)

	steps := r.cfg.Steps
	scaleStep := 0.0
	if target > width {
		scaleStep = (target - width) / float64(steps)
	}
	// sub-frame k shows angle (k+1)/steps; the scale trails it by one step
	for k := 1; k < steps; k++ {
		if err := r.interrupted(ctx); err != nil {
			return RoundStat{}, err
		}
		a := angle * float64(k+1) / float64(steps)
		if err := r.frame(k, a, width+scaleStep*float64(k), false); err != nil {
			return RoundStat{}, err
		}
		if err := sleep(ctx, r.cfg.FrameDelay); err != nil {
			return RoundStat{}, err
		}
	}
	if err := r.interrupted(ctx); err != nil {
		return RoundStat{}, err
	}
	if err := r.frame(steps, angle, target, true); err != nil {
		return RoundStat{}, err
	}

	r.state.Commit(angle)
	r.state.Fit(width)
	r.swap.Flip()
	r.round++

	stat := RoundStat{
		Round:  r.round,
		Angle:  angle,
		Scale:  target,
		PivotX: r.state.End.X,
		PivotY: r.state.End.Y,
		Active: r.swap.Src().ActiveCount(),
	}
	r.result.Rounds = append(r.result.Rounds, stat)
	for _, m := range r.metrics {
		m.Observe(r.swap.Src(), r.state.End, r.round)
	}

	if r.cfg.AngleStep != 0 {
		r.angle = wrapAngle(r.angle + r.cfg.AngleStep)
	}
	if r.remaining > 0 {
		r.remaining--
	}

	engine.Logger().Info("round complete",
		"round", stat.Round,
		"angle", stat.Angle,
		"scale", stat.Scale,
		"active", stat.Active,
	)
	return stat, nil
}

// Run performs rounds until the iteration budget is spent, ctx is cancelled
// or Stop is called.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	for !r.Done() {
		if _, err := r.Round(ctx); err != nil {
			return r.Result(), err
		}
		if r.Done() {
			break
		}
		if err := sleep(ctx, r.cfg.RoundDelay); err != nil {
			return r.Result(), err
		}
	}
	return r.Result(), nil
}

// Result returns the accumulated round stats with current metric values.
func (r *Runner) Result() *Result {
	for _, m := range r.metrics {
		r.result.Metrics[m.Name()] = m.Value()
	}
	return r.result
}

func (r *Runner) frame(step int, angle, scale float64, final bool) error {
	p := engine.Params{Pivot: r.state.End, Angle: angle, Scale: scale}
	if err := r.eng.StepInto(r.swap.Src(), r.swap.Dst(), p); err != nil {
		return fmt.Errorf("round %d step %d: %w", r.round+1, step, err)
	}
	if len(r.observers) == 0 {
		return nil
	}

	f := Frame{
		Round:  r.round + 1,
		Step:   step,
		Angle:  angle,
		Scale:  scale,
		Pivot:  r.state.End,
		Final:  final,
		Buffer: r.swap.Dst(),
	}
	if r.render {
		img, err := r.eng.Render(r.swap.Dst(), r.size, float64(r.size.W))
		if err != nil {
			return err
		}
		f.Image = img
	}
	for _, o := range r.observers {
		o.OnFrame(f)
	}
	return nil
}

func (r *Runner) interrupted(ctx context.Context) error {
	if r.stopped.Load() {
		return ErrStopped
	}
	return ctx.Err()
}

func wrapAngle(a float64) float64 {
	for a >= 2*math.Pi {
		a -= 2 * math.Pi
	}
	return a
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
