package export

import (
	"image"

	"github.com/gogpu/gg"

	"github.com/san-kum/dragonsim/internal/fractal"
	"github.com/san-kum/dragonsim/internal/kernel"
)

// Annotate draws the pivot marker and the fold's bounding box over a 1:1
// render. pivot and bounds are in centred simulation coordinates, y up.
func Annotate(img image.Image, pivot kernel.Vec2, bounds fractal.Bounds) (image.Image, error) {
	dc := gg.NewContextForImage(img)
	defer dc.Close()

	w, h := float64(dc.Width()), float64(dc.Height())
	px := pivot.X + w/2
	py := h/2 - pivot.Y

	dc.SetRGBA(0, 0.6, 0, 0.8)
	dc.SetLineWidth(1)
	dc.DrawRectangle(px-bounds.Left, py-bounds.Up, bounds.Width(), bounds.Height())
	if err := dc.Stroke(); err != nil {
		return nil, err
	}

	dc.SetRGB(1, 0.5, 0)
	dc.DrawCircle(px, py, 3)
	if err := dc.Fill(); err != nil {
		return nil, err
	}
	if err := dc.FlushGPU(); err != nil {
		return nil, err
	}
	return dc.Image(), nil
}
