package export

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const captionPad = 4

// Caption returns a copy of img with text stamped in the top-left corner on
// a white band.
func Caption(img image.Image, text string) *image.NRGBA {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	if text == "" {
		return dst
	}

	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.Black),
		Face: face,
	}
	width := d.MeasureString(text).Ceil()
	band := image.Rect(0, 0, width+2*captionPad, face.Height+2*captionPad)
	draw.Draw(dst, band.Intersect(dst.Bounds()), image.NewUniform(color.White), image.Point{}, draw.Src)

	d.Dot = fixed.P(captionPad, captionPad+face.Ascent)
	d.DrawString(text)
	return dst
}
