package export

import (
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"os"

	xdraw "golang.org/x/image/draw"
)

// Zoom upscales img by an integer factor with nearest-neighbour sampling so
// single pixels stay crisp.
func Zoom(img image.Image, zoom int) *image.NRGBA {
	b := img.Bounds()
	if zoom < 1 {
		zoom = 1
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx()*zoom, b.Dy()*zoom))
	if zoom == 1 {
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
		return dst
	}
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func WritePNG(w io.Writer, img image.Image, zoom int) error {
	return png.Encode(w, Zoom(img, zoom))
}

func SavePNG(path string, img image.Image, zoom int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WritePNG(f, img, zoom); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
