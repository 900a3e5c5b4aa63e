package frame

import (
	"fmt"
	"image"
	"image/color"
)

// Pixel is one RGBA cell. R, G and B carry presentation markers; A is the
// authoritative activity channel.
type Pixel struct {
	R, G, B, A float32
}

// Marker values written by the kernel.
var (
	Background  = Pixel{1, 1, 1, 0}
	Seed        = Pixel{0, 0, 0, 1}
	OriginHit   = Pixel{0, 0, 1, 1}
	RotationHit = Pixel{1, 0, 0, 1}
	PivotHit    = Pixel{1, 0, 0, 1}
	OutOfCanvas = Pixel{1, 1, 1, 1}
)

// Active reports whether the activity channel holds the opaque sentinel.
func (p Pixel) Active() bool { return p.A == 1 }

// NRGBA converts the pixel to an 8-bit colour.
func (p Pixel) NRGBA() color.NRGBA {
	return color.NRGBA{R: to8(p.R), G: to8(p.G), B: to8(p.B), A: to8(p.A)}
}

func to8(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

// Size describes buffer dimensions.
type Size struct {
	W, H int
}

func (s Size) String() string { return fmt.Sprintf("%dx%d", s.W, s.H) }

// Valid reports whether both dimensions are positive.
func (s Size) Valid() bool { return s.W > 0 && s.H > 0 }

// Buffer stores a W x H grid of pixels in row-major order. Row 0 is the
// bottom row, matching framebuffer coordinates.
type Buffer struct {
	W, H int
	data []Pixel
}

// NewBuffer allocates a buffer filled with the background marker.
func NewBuffer(w, h int) (*Buffer, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: got %dx%d", ErrInvalidDimensions, w, h)
	}
	b := &Buffer{W: w, H: h, data: make([]Pixel, w*h)}
	b.Fill(Background)
	return b, nil
}

// Size returns the buffer dimensions.
func (b *Buffer) Size() Size { return Size{W: b.W, H: b.H} }

// Pixels exposes the backing slice so callers can read/write values directly.
func (b *Buffer) Pixels() []Pixel { return b.data }

// Row returns the slice for row y.
func (b *Buffer) Row(y int) []Pixel { return b.data[y*b.W : (y+1)*b.W] }

// Index returns the linear slice index for coordinates (x, y).
func (b *Buffer) Index(x, y int) int { return y*b.W + x }

// Contains reports whether (x, y) addresses a cell.
func (b *Buffer) Contains(x, y int) bool {
	return x >= 0 && y >= 0 && x < b.W && y < b.H
}

// At returns the pixel at (x, y). Out-of-range coordinates yield Background.
func (b *Buffer) At(x, y int) Pixel {
	if !b.Contains(x, y) {
		return Background
	}
	return b.data[b.Index(x, y)]
}

// Set writes the pixel at (x, y); out-of-range writes are ignored.
func (b *Buffer) Set(x, y int, p Pixel) {
	if !b.Contains(x, y) {
		return
	}
	b.data[b.Index(x, y)] = p
}

// Fill overwrites every cell with p.
func (b *Buffer) Fill(p Pixel) {
	for i := range b.data {
		b.data[i] = p
	}
}

// ActiveAt reports whether the cell at (x, y) is active.
func (b *Buffer) ActiveAt(x, y int) bool { return b.At(x, y).Active() }

// ActiveCount returns the number of active pixels.
func (b *Buffer) ActiveCount() int {
	n := 0
	for _, p := range b.data {
		if p.Active() {
			n++
		}
	}
	return n
}

// Clone returns an independent copy.
func (b *Buffer) Clone() *Buffer {
	c := &Buffer{W: b.W, H: b.H, data: make([]Pixel, len(b.data))}
	copy(c.data, b.data)
	return c
}

// CopyFrom overwrites b with the contents of src.
func (b *Buffer) CopyFrom(src *Buffer) error {
	if b.W != src.W || b.H != src.H {
		return fmt.Errorf("%w: %s vs %s", ErrDimensionMismatch, b.Size(), src.Size())
	}
	copy(b.data, src.data)
	return nil
}

// Equal reports whether both buffers have the same size and contents.
func (b *Buffer) Equal(o *Buffer) bool {
	if b.W != o.W || b.H != o.H {
		return false
	}
	for i := range b.data {
		if b.data[i] != o.data[i] {
			return false
		}
	}
	return true
}

// Image converts the buffer to an 8-bit image without any scaling. The
// image's top row is the buffer's top row (H-1).
func (b *Buffer) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, b.W, b.H))
	for y := 0; y < b.H; y++ {
		for x, p := range b.Row(y) {
			img.SetNRGBA(x, b.H-1-y, p.NRGBA())
		}
	}
	return img
}
