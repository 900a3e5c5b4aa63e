package metrics

import (
	"github.com/san-kum/dragonsim/internal/frame"
	"github.com/san-kum/dragonsim/internal/kernel"
)

// Metric accumulates a statistic over committed rounds.
type Metric interface {
	Name() string
	Observe(buf *frame.Buffer, pivot kernel.Vec2, round int)
	Value() float64
	Reset()
}

// Defaults returns one instance of every metric, in reporting order.
func Defaults() []Metric {
	return []Metric{
		NewActiveCount(),
		NewCoverage(),
		NewGrowth(),
		NewPivotFill(),
	}
}

// PivotPixel maps a pivot in centred simulation coordinates to the pixel
// under it.
func PivotPixel(buf *frame.Buffer, pivot kernel.Vec2) (int, int) {
	return pivot.Add(kernel.CanvasBounds(buf).Scale(0.5)).Floor()
}
