package gui

import (
	"image"
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// pixels converts img into the RGBA rows raylib expects. NRGBA already
// stores straight alpha in the same byte order.
func pixels(img *image.NRGBA) []color.RGBA {
	b := img.Bounds()
	out := make([]color.RGBA, 0, b.Dx()*b.Dy())
	for y := 0; y < b.Dy(); y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+b.Dx()*4]
		for x := 0; x < len(row); x += 4 {
			out = append(out, color.RGBA{R: row[x], G: row[x+1], B: row[x+2], A: row[x+3]})
		}
	}
	return out
}

func loadCanvasTexture(img *image.NRGBA) rl.Texture2D {
	rimg := rl.NewImageFromImage(img)
	tex := rl.LoadTextureFromImage(rimg)
	rl.UnloadImage(rimg)
	rl.SetTextureFilter(tex, rl.FilterPoint)
	return tex
}

// upload replaces the texture contents. Sizes must match; the canvas never
// changes size during a session.
func upload(tex rl.Texture2D, img *image.NRGBA) {
	if img == nil || int32(img.Bounds().Dx()) != tex.Width || int32(img.Bounds().Dy()) != tex.Height {
		return
	}
	rl.UpdateTexture(tex, pixels(img))
}

// displayZoom picks a whole magnification up to 4x, or halves until the
// canvas fits.
func displayZoom(w, h, maxWidth, maxHeight int) float32 {
	zoom := float32(1)
	for zoom < 4 && int(float32(w)*(zoom+1)) <= maxWidth && int(float32(h)*(zoom+1)) <= maxHeight {
		zoom++
	}
	for zoom > 0.125 && (int(float32(w)*zoom) > maxWidth || int(float32(h)*zoom) > maxHeight) {
		zoom /= 2
	}
	return zoom
}
