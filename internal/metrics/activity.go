package metrics

import (
	"github.com/san-kum/dragonsim/internal/frame"
	"github.com/san-kum/dragonsim/internal/kernel"
)

type ActiveCount struct {
	name  string
	count int
}

func NewActiveCount() *ActiveCount {
	return &ActiveCount{name: "active"}
}

func (a *ActiveCount) Name() string { return a.name }

func (a *ActiveCount) Observe(buf *frame.Buffer, _ kernel.Vec2, _ int) {
	a.count = buf.ActiveCount()
}

func (a *ActiveCount) Value() float64 { return float64(a.count) }

func (a *ActiveCount) Reset() { a.count = 0 }

// Coverage is the active fraction of the canvas in the last observed round.
type Coverage struct {
	name     string
	fraction float64
}

func NewCoverage() *Coverage {
	return &Coverage{name: "coverage"}
}

func (c *Coverage) Name() string { return c.name }

func (c *Coverage) Observe(buf *frame.Buffer, _ kernel.Vec2, _ int) {
	total := buf.W * buf.H
	if total == 0 {
		c.fraction = 0
		return
	}
	c.fraction = float64(buf.ActiveCount()) / float64(total)
}

func (c *Coverage) Value() float64 { return c.fraction }

func (c *Coverage) Reset() { c.fraction = 0 }

// Growth relates the latest active count to the first non-empty one. The
// zoom-out after each round shrinks earlier geometry, so values below 1 are
// normal once the fold outgrows the canvas.
type Growth struct {
	name    string
	initial int
	last    int
}

func NewGrowth() *Growth {
	return &Growth{name: "growth"}
}

func (g *Growth) Name() string { return g.name }

func (g *Growth) Observe(buf *frame.Buffer, _ kernel.Vec2, _ int) {
	n := buf.ActiveCount()
	if g.initial == 0 {
		g.initial = n
	}
	g.last = n
}

func (g *Growth) Value() float64 {
	if g.initial == 0 {
		return 0
	}
	return float64(g.last) / float64(g.initial)
}

func (g *Growth) Reset() {
	g.initial = 0
	g.last = 0
}

// PivotFill is the fraction of observed rounds whose pivot pixel was active.
type PivotFill struct {
	name    string
	hits    int
	samples int
}

func NewPivotFill() *PivotFill {
	return &PivotFill{name: "pivot_fill"}
}

func (p *PivotFill) Name() string { return p.name }

func (p *PivotFill) Observe(buf *frame.Buffer, pivot kernel.Vec2, _ int) {
	p.samples++
	if !pivot.IsFinite() {
		return
	}
	if buf.ActiveAt(PivotPixel(buf, pivot)) {
		p.hits++
	}
}

func (p *PivotFill) Value() float64 {
	if p.samples == 0 {
		return 0
	}
	return float64(p.hits) / float64(p.samples)
}

func (p *PivotFill) Reset() {
	p.hits = 0
	p.samples = 0
}
