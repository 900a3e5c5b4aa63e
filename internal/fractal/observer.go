package fractal

import (
	"image"

	"github.com/san-kum/dragonsim/internal/frame"
	"github.com/san-kum/dragonsim/internal/kernel"
)

// Frame describes one stepped sub-frame of a round.
type Frame struct {
	Round int
	Step  int
	Angle float64
	Scale float64
	Pivot kernel.Vec2
	// Final marks the frame at the full round angle, the one that commits.
	Final bool
	// Image is the rendered destination, nil when rendering is disabled.
	Image  *image.NRGBA
	Buffer *frame.Buffer
}

type Observer interface {
	OnFrame(f Frame)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(f Frame)

func (fn ObserverFunc) OnFrame(f Frame) { fn(f) }

// RoundStat summarises a committed round.
type RoundStat struct {
	Round  int     `json:"round"`
	Angle  float64 `json:"angle"`
	Scale  float64 `json:"scale"`
	PivotX float64 `json:"pivot_x"`
	PivotY float64 `json:"pivot_y"`
	Active int     `json:"active"`
}

type Result struct {
	Rounds  []RoundStat
	Metrics map[string]float64
}

// Last returns the most recent round, or the zero value.
func (r *Result) Last() RoundStat {
	if len(r.Rounds) == 0 {
		return RoundStat{}
	}
	return r.Rounds[len(r.Rounds)-1]
}
