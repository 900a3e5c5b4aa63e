package export

import (
	"errors"
	"image"
	"image/color"
	"image/gif"
	"io"
	"time"

	"github.com/san-kum/dragonsim/internal/frame"
)

var ErrNoFrames = errors.New("export: no frames")

// Palette holds the marker colours; transparent pixels map to index 0.
var Palette = color.Palette{
	color.White,
	frame.Seed.NRGBA(),
	frame.OriginHit.NRGBA(),
	frame.RotationHit.NRGBA(),
}

// Paletted maps a render onto Palette.
func Paletted(img image.Image) *image.Paletted {
	b := img.Bounds()
	dst := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), Palette)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			idx := uint8(0)
			if c.A >= 128 {
				c.A = 255
				idx = uint8(Palette.Index(c))
			}
			dst.SetColorIndex(x-b.Min.X, y-b.Min.Y, idx)
		}
	}
	return dst
}

// EncodeGIF writes frames as a looping animation.
func EncodeGIF(w io.Writer, frames []image.Image, delay time.Duration) error {
	if len(frames) == 0 {
		return ErrNoFrames
	}
	cs := int(delay / (10 * time.Millisecond))
	if cs < 1 {
		cs = 1
	}
	anim := gif.GIF{LoopCount: 0}
	for _, f := range frames {
		anim.Image = append(anim.Image, Paletted(f))
		anim.Delay = append(anim.Delay, cs)
	}
	return gif.EncodeAll(w, &anim)
}
