package kernel

import (
	"math"
	"math/rand"
	"testing"

	"github.com/san-kum/dragonsim/internal/frame"
)

func newBuffer(t *testing.T, w, h int) *frame.Buffer {
	t.Helper()
	b, err := frame.NewBuffer(w, h)
	if err != nil {
		t.Fatalf("new buffer: %v", err)
	}
	return b
}

func randomBuffer(t *testing.T, w, h int, seed int64) *frame.Buffer {
	t.Helper()
	b := newBuffer(t, w, h)
	rng := rand.New(rand.NewSource(seed))
	for i := range b.Pixels() {
		if rng.Intn(3) == 0 {
			b.Pixels()[i] = frame.Seed
		}
	}
	return b
}

func stepAll(b *frame.Buffer, u Uniforms) *frame.Buffer {
	next := b.Clone()
	for y := 0; y < b.H; y++ {
		for x := 0; x < b.W; x++ {
			next.Set(x, y, Shade(x, y, u, b))
		}
	}
	return next
}

func TestInBoundsIsStrict(t *testing.T) {
	lo, hi := Vec2{0, 0}, Vec2{10, 5}
	tests := []struct {
		name string
		p    Vec2
		want bool
	}{
		{"inside", Vec2{5, 2.5}, true},
		{"on lower x", Vec2{0, 2}, false},
		{"on lower y", Vec2{3, 0}, false},
		{"on upper x", Vec2{10, 2}, false},
		{"on upper y", Vec2{3, 5}, false},
		{"corner", Vec2{0, 0}, false},
		{"just inside", Vec2{1e-9, 4.999999}, true},
		{"below", Vec2{-1, 2}, false},
		{"above", Vec2{4, 6}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InBounds(tt.p, lo, hi); got != tt.want {
				t.Errorf("InBounds(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestRotateQuarterTurn(t *testing.T) {
	got := Rotate(Vec2{1, 0}, Vec2{0, 0}, math.Pi/2)
	if !got.Approx(Vec2{0, -1}, 1e-12) {
		t.Errorf("expected (0,-1), got %v", got)
	}

	got = Rotate(Vec2{12, 0}, Vec2{10, 0}, -math.Pi/2)
	if !got.Approx(Vec2{10, 2}, 1e-12) {
		t.Errorf("expected (10,2), got %v", got)
	}
}

func TestRotateRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		pivot := Vec2{rng.Float64()*200 - 100, rng.Float64()*200 - 100}
		p := pivot.Add(Vec2{rng.Float64()*300 - 150, rng.Float64()*300 - 150})
		if p.Dist(pivot) < 1 {
			continue
		}
		theta := rng.Float64()*20 - 10

		back := Rotate(Rotate(p, pivot, theta), pivot, -theta)
		if !back.Approx(p, 1e-9) {
			t.Fatalf("round trip of %v about %v by %f gave %v", p, pivot, theta, back)
		}
	}
}

func TestRotatePreservesRadius(t *testing.T) {
	pivot := Vec2{3, -4}
	p := Vec2{10, 7}
	r0 := p.Dist(pivot)
	for _, a := range []float64{0.1, 1, math.Pi, 7.5, -2} {
		if r := Rotate(p, pivot, a).Dist(pivot); math.Abs(r-r0) > 1e-9 {
			t.Errorf("angle %f: radius %f, want %f", a, r, r0)
		}
	}
}

func TestRatio(t *testing.T) {
	tests := []struct {
		scale, width, want float64
	}{
		{1000, 1000, 1},
		{500, 1000, 1},
		{2000, 1000, 2},
		{1500, 1000, 1.5},
		{100, 0, 1},
		{math.NaN(), 100, 1},
	}

	for _, tt := range tests {
		if got := Ratio(tt.scale, tt.width); got != tt.want {
			t.Errorf("Ratio(%v, %v) = %v, want %v", tt.scale, tt.width, got, tt.want)
		}
	}
}

func TestBlockSize(t *testing.T) {
	tests := []struct {
		ratio float64
		want  int
	}{
		{1, 1},
		{1.01, 2},
		{2, 2},
		{2.5, 3},
		{0.3, 1},
		{math.NaN(), 1},
		{1e300, math.MaxInt32},
	}

	for _, tt := range tests {
		if got := BlockSize(tt.ratio); got != tt.want {
			t.Errorf("BlockSize(%v) = %d, want %d", tt.ratio, got, tt.want)
		}
	}
}

func TestAreaActiveDegeneratesToLookup(t *testing.T) {
	b := randomBuffer(t, 12, 9, 3)
	for y := -3.0; y < 12; y += 0.37 {
		for x := -3.0; x < 15; x += 0.41 {
			c := Vec2{x, y}
			ix, iy := c.Floor()
			if got, want := AreaActive(c, 1, b), b.ActiveAt(ix, iy); got != want {
				t.Fatalf("AreaActive(%v, 1) = %v, lookup = %v", c, got, want)
			}
		}
	}
}

func TestAreaActiveORsBlock(t *testing.T) {
	b := newBuffer(t, 8, 8)
	b.Set(5, 4, frame.Seed)

	if !AreaActive(Vec2{4.2, 3.9}, 2, b) {
		t.Error("2x2 block at (4,3) should see (5,4)")
	}
	if AreaActive(Vec2{4.2, 3.9}, 1, b) {
		t.Error("single lookup at (4,3) should miss (5,4)")
	}
	if AreaActive(Vec2{6.5, 5.5}, 2, b) {
		t.Error("block at (6,5) should not see (5,4)")
	}
}

func TestAreaActiveIgnoresOutOfCanvas(t *testing.T) {
	b := newBuffer(t, 4, 4)
	b.Fill(frame.Seed)

	if AreaActive(Vec2{-3.5, 1}, 3, b) {
		t.Error("block entirely left of the canvas should be inactive")
	}
	if !AreaActive(Vec2{-1.5, 1}, 3, b) {
		t.Error("block overlapping the canvas should see in-canvas cells")
	}
}

func TestAreaActiveHugeRatio(t *testing.T) {
	b := newBuffer(t, 100, 100)
	b.Set(50, 50, frame.Seed)

	if !AreaActive(Vec2{-1e7, -1e7}, 2e7, b) {
		t.Error("block covering the canvas should see (50,50)")
	}
	if !AreaActive(Vec2{-1e7, -1e7}, 1e300, b) {
		t.Error("capped block covering the canvas should see (50,50)")
	}
	if AreaActive(Vec2{-1e9, 0}, 1e7, b) {
		t.Error("block ending left of the canvas should be inactive")
	}
	if AreaActive(Vec2{51, -1e7}, 1e9, b) {
		t.Error("block starting right of the active column should be inactive")
	}
	if AreaActive(Vec2{math.NaN(), 0}, 1e9, b) {
		t.Error("nan centre should be inactive")
	}
}

func TestHugeScaleStep(t *testing.T) {
	b := newBuffer(t, 100, 100)
	b.Fill(frame.Seed)

	u := Uniforms{Dimensions: Vec2{100, 100}, Pivot: Vec2{1e6, 1e6}, Scale: 1e7}
	next := stepAll(b, u)

	if !next.ActiveAt(49, 49) {
		t.Error("the pixel whose block covers the canvas should stay active")
	}
	if next.ActiveAt(0, 0) {
		t.Error("corner maps far outside the source canvas")
	}
}

func TestCompositePrecedence(t *testing.T) {
	tests := []struct {
		unrotated, rotated bool
		want               frame.Pixel
	}{
		{false, false, frame.Background},
		{true, false, frame.OriginHit},
		{false, true, frame.RotationHit},
		{true, true, frame.RotationHit},
	}

	for _, tt := range tests {
		if got := Composite(tt.unrotated, tt.rotated); got != tt.want {
			t.Errorf("Composite(%v, %v) = %+v, want %+v", tt.unrotated, tt.rotated, got, tt.want)
		}
	}
}

func TestModePriority(t *testing.T) {
	tests := []struct {
		u    Uniforms
		want Mode
	}{
		{Uniforms{}, ModeStep},
		{Uniforms{Initialize: true}, ModeInitialize},
		{Uniforms{Render: true}, ModeRender},
		{Uniforms{Render: true, Initialize: true}, ModeRender},
	}

	for _, tt := range tests {
		if got := tt.u.Mode(); got != tt.want {
			t.Errorf("%+v.Mode() = %s, want %s", tt.u, got, tt.want)
		}
	}
}

func TestSeedShape(t *testing.T) {
	b := newBuffer(t, 10, 10)
	u := Uniforms{Initialize: true, Dimensions: Vec2{10, 10}, SeedLength: 3}
	seeded := stepAll(b, u)

	if got := seeded.ActiveCount(); got != 6 {
		t.Fatalf("expected 6 active pixels, got %d", got)
	}
	for y := 4; y <= 5; y++ {
		for x := 5; x <= 7; x++ {
			if seeded.At(x, y) != frame.Seed {
				t.Errorf("expected seed at (%d,%d)", x, y)
			}
		}
	}
}

func TestPivotIsFixedPoint(t *testing.T) {
	b := randomBuffer(t, 20, 20, 11)
	pivot := Vec2{2.5, -1.5}

	for _, angle := range []float64{0, 0.3, math.Pi / 2, math.Pi, -5} {
		u := Uniforms{Dimensions: Vec2{20, 20}, Pivot: pivot, Angle: angle, Scale: 20}
		if got := Shade(12, 8, u, b); got != frame.PivotHit {
			t.Errorf("angle %f: pivot pixel = %+v, want PivotHit", angle, got)
		}
	}
}

func TestStepNeverLosesActivity(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	for i := 0; i < 20; i++ {
		b := randomBuffer(t, 24, 18, int64(i))
		u := Uniforms{
			Dimensions: Vec2{24, 18},
			Pivot:      Vec2{rng.Float64()*20 - 10, rng.Float64()*16 - 8},
			Angle:      rng.Float64() * 2 * math.Pi,
			Scale:      24,
		}
		next := stepAll(b, u)
		for y := 0; y < b.H; y++ {
			for x := 0; x < b.W; x++ {
				if b.ActiveAt(x, y) && !next.ActiveAt(x, y) {
					t.Fatalf("run %d: pixel (%d,%d) lost activity", i, x, y)
				}
			}
		}
	}
}

func TestStepZeroAngleKeepsActiveSet(t *testing.T) {
	b := randomBuffer(t, 16, 16, 2)
	u := Uniforms{Dimensions: Vec2{16, 16}, Pivot: Vec2{40, 40}, Scale: 16}
	next := stepAll(b, u)

	for y := 0; y < b.H; y++ {
		for x := 0; x < b.W; x++ {
			want := frame.Background
			if b.ActiveAt(x, y) {
				want = frame.RotationHit
			}
			if got := next.At(x, y); got != want {
				t.Fatalf("pixel (%d,%d) = %+v, want %+v", x, y, got, want)
			}
		}
	}
}

func TestStepHalfTurnAboutOrigin(t *testing.T) {
	b := newBuffer(t, 20, 20)
	b.Set(12, 10, frame.Seed) // centre-relative (2.5, 0.5)

	u := Uniforms{Dimensions: Vec2{20, 20}, Angle: math.Pi, Scale: 20}
	next := stepAll(b, u)

	if got := next.At(7, 9); got != frame.RotationHit {
		t.Errorf("mirrored pixel = %+v, want RotationHit", got)
	}
	if got := next.At(12, 10); got != frame.OriginHit {
		t.Errorf("source pixel = %+v, want OriginHit", got)
	}
	// the four centre pixels sit within one unit of the pivot
	for _, c := range [][2]int{{9, 9}, {10, 9}, {9, 10}, {10, 10}} {
		if got := next.At(c[0], c[1]); got != frame.PivotHit {
			t.Errorf("pixel %v = %+v, want PivotHit", c, got)
		}
	}
	if next.ActiveCount() != 6 {
		t.Errorf("expected 6 active pixels, got %d", next.ActiveCount())
	}
}

func TestStepSamplesOutsideCanvasAsInactive(t *testing.T) {
	b := newBuffer(t, 10, 10)
	b.Fill(frame.Seed)

	// pivot far to the right: every rotated sample leaves the canvas
	u := Uniforms{Dimensions: Vec2{10, 10}, Pivot: Vec2{1000, 0}, Angle: math.Pi, Scale: 10}
	next := stepAll(b, u)
	for _, p := range next.Pixels() {
		if p != frame.OriginHit {
			t.Fatalf("expected only origin hits, got %+v", p)
		}
	}
}

func TestScaledStepZoomsOut(t *testing.T) {
	b := newBuffer(t, 10, 10)
	b.Fill(frame.Seed)

	u := Uniforms{Dimensions: Vec2{10, 10}, Pivot: Vec2{100, 100}, Scale: 20}
	next := stepAll(b, u)

	if next.ActiveAt(0, 0) {
		t.Error("corner maps outside the source canvas at ratio 2")
	}
	if !next.ActiveAt(5, 5) {
		t.Error("centre should remain active")
	}
	if next.ActiveCount() >= b.ActiveCount() {
		t.Errorf("zoomed frame should shrink the pattern: %d >= %d", next.ActiveCount(), b.ActiveCount())
	}
}

func TestPresentIdentity(t *testing.T) {
	b := randomBuffer(t, 9, 7, 4)
	u := Uniforms{Render: true, Dimensions: Vec2{9, 7}, Scale: 9}
	for y := 0; y < 7; y++ {
		for x := 0; x < 9; x++ {
			if got := Shade(x, y, u, b); got != b.At(x, y) {
				t.Fatalf("render (%d,%d) = %+v, want %+v", x, y, got, b.At(x, y))
			}
		}
	}
}

func TestPresentLetterboxes(t *testing.T) {
	b := newBuffer(t, 2, 2)
	b.Fill(frame.Seed)
	u := Uniforms{Render: true, Dimensions: Vec2{4, 4}, Scale: 4}

	if got := Shade(0, 0, u, b); got != frame.OutOfCanvas {
		t.Errorf("corner = %+v, want OutOfCanvas", got)
	}
	if got := Shade(1, 1, u, b); got != frame.Seed {
		t.Errorf("inner = %+v, want Seed", got)
	}
}
