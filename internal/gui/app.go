package gui

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/san-kum/dragonsim/internal/config"
	"github.com/san-kum/dragonsim/internal/engine"
	"github.com/san-kum/dragonsim/internal/fractal"
)

// Theme Colors (Monochrome Hyper-Minimalist)
var (
	ColBg      = rl.NewColor(10, 10, 10, 255)    // Deep Black
	ColAccent  = rl.NewColor(180, 180, 180, 255) // Soft White
	ColSelect  = rl.NewColor(255, 255, 255, 255) // Bright White
	ColText    = rl.NewColor(140, 140, 140, 255) // Neutral Gray
	ColTextDim = rl.NewColor(60, 60, 60, 255)    // Dark Gray (Subtle)
	ColError   = rl.NewColor(220, 80, 80, 255)
)

const (
	hudHeight  = 64
	footHeight = 32
	minWidth   = 720
	maxWidth   = 1600
	maxHeight  = 900
	fontPath   = "/usr/share/fonts/liberation/LiberationMono-Regular.ttf"
)

type roundDone struct {
	stat fractal.RoundStat
	img  *image.NRGBA
	err  error
}

// App shows a fold in a raylib window. Rounds run on a goroutine; frames come
// back through a one-slot channel and the texture is only touched on the
// window thread.
type App struct {
	Runner  *fractal.Runner
	Preset  string
	Backend string
	Font    rl.Font
	Zoom    float32

	Running      bool
	InMenu       bool
	Presets      []string
	Selected     int
	busy         bool
	pendingReset bool
	quit         bool
	nextRound    time.Time

	ctx    context.Context
	cancel context.CancelFunc
	frames chan *image.NRGBA
	done   chan roundDone
	tex    rl.Texture2D
	hasTex bool
	eng    *engine.Engine

	Round        int
	Angle, Scale float64
	Active       int
	Status       string
}

// initWindow opens a w×h window titled "dragonsim" at 60 FPS with the
// default exit key disabled.
func initWindow(w, h int) {
	rl.InitWindow(int32(w), int32(h), "dragonsim")
	rl.SetTargetFPS(60)
	rl.SetExitKey(0)
}

func loadFont() rl.Font {
	if !rl.FileExists(fontPath) {
		return rl.GetFontDefault()
	}
	font := rl.LoadFontEx(fontPath, 32, nil, 0)
	rl.SetTextureFilter(font.Texture, rl.FilterBilinear)
	return font
}

func windowSize(cfg *config.Config) (int, int) {
	zoom := displayZoom(cfg.Width, cfg.Height, maxWidth, maxHeight-hudHeight-footHeight)
	w := int(float32(cfg.Width) * zoom)
	if w < minWidth {
		w = minWidth
	}
	return w, int(float32(cfg.Height)*zoom) + hudHeight + footHeight
}

// Run opens a window sized to r's canvas and animates it until the window is
// closed or q is pressed.
func Run(r *fractal.Runner, preset string) error {
	cfg := r.Config()
	initWindow(windowSize(&cfg))
	defer rl.CloseWindow()

	app := newApp(r.Engine())
	if err := app.attach(r, preset); err != nil {
		app.close()
		return err
	}
	app.RunLoop()
	app.close()
	return nil
}

// RunInteractive opens a preset picker and animates the chosen preset.
func RunInteractive(eng *engine.Engine) error {
	initWindow(windowSize(config.DefaultConfig()))
	defer rl.CloseWindow()

	app := newApp(eng)
	app.InMenu = true
	app.Presets = config.ListPresets()
	app.RunLoop()
	app.close()
	return nil
}

func newApp(eng *engine.Engine) *App {
	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		Font:   loadFont(),
		Zoom:   1,
		ctx:    ctx,
		cancel: cancel,
		frames: make(chan *image.NRGBA, 1),
		done:   make(chan roundDone, 1),
		eng:    eng,
	}
}

func (a *App) attach(r *fractal.Runner, preset string) error {
	img, err := r.Snapshot()
	if err != nil {
		return err
	}
	size := r.Size()
	a.Runner = r
	a.Preset = preset
	a.Backend = r.Engine().Backend().Name()
	a.Zoom = displayZoom(size.W, size.H, int(rl.GetScreenWidth()), int(rl.GetScreenHeight())-hudHeight-footHeight)
	a.Running = true
	a.Angle = r.Angle()
	a.Scale = float64(size.W)
	a.Active = r.Current().ActiveCount()

	frames := a.frames
	r.AddObserver(fractal.ObserverFunc(func(f fractal.Frame) {
		if f.Image == nil {
			return
		}
		select {
		case frames <- f.Image:
		default:
		}
	}))

	if a.hasTex {
		rl.UnloadTexture(a.tex)
	}
	a.tex = loadCanvasTexture(img)
	a.hasTex = true
	return nil
}

func (a *App) RunLoop() {
	for !rl.WindowShouldClose() && !a.quit {
		a.Update()
		a.Draw()
	}
}

// close cancels an in-flight round and waits for it before freeing the
// texture.
func (a *App) close() {
	a.cancel()
	if a.busy {
		<-a.done
		a.busy = false
	}
	if a.hasTex {
		rl.UnloadTexture(a.tex)
		a.hasTex = false
	}
}

func (a *App) Update() {
	if rl.IsKeyPressed(rl.KeyQ) {
		a.quit = true
		return
	}
	if a.InMenu {
		a.updateMenu()
		return
	}

	a.poll()

	if rl.IsKeyPressed(rl.KeySpace) {
		a.Running = !a.Running
	}
	if rl.IsKeyPressed(rl.KeyN) && !a.Running && !a.busy && !a.Runner.Done() {
		a.startRound()
	}
	if rl.IsKeyPressed(rl.KeyR) {
		if a.busy {
			a.pendingReset = true
			a.Runner.Stop()
		} else {
			a.reset()
		}
	}

	if a.Running && !a.busy && !a.Runner.Done() && !time.Now().Before(a.nextRound) {
		a.startRound()
	}
}

func (a *App) updateMenu() {
	if rl.IsKeyPressed(rl.KeyDown) || rl.IsKeyPressed(rl.KeyJ) {
		a.Selected = (a.Selected + 1) % len(a.Presets)
	}
	if rl.IsKeyPressed(rl.KeyUp) || rl.IsKeyPressed(rl.KeyK) {
		a.Selected = (a.Selected - 1 + len(a.Presets)) % len(a.Presets)
	}
	if rl.IsKeyPressed(rl.KeyEnter) || rl.IsKeyPressed(rl.KeySpace) {
		name := a.Presets[a.Selected]
		r, err := fractal.NewRunner(config.GetPreset(name), a.eng)
		if err == nil {
			err = a.attach(r, name)
		}
		if err != nil {
			a.Status = err.Error()
			return
		}
		a.InMenu = false
		a.Status = ""
	}
}

// poll drains a pending frame and the finished round without blocking.
func (a *App) poll() {
	select {
	case img := <-a.frames:
		upload(a.tex, img)
	default:
	}

	select {
	case res := <-a.done:
		a.finishRound(res)
	default:
	}
}

func (a *App) startRound() {
	a.busy = true
	a.Status = ""
	r, ctx, done := a.Runner, a.ctx, a.done
	go func() {
		stat, err := r.Round(ctx)
		res := roundDone{stat: stat, err: err}
		if err == nil {
			res.img, res.err = r.Snapshot()
		}
		done <- res
	}()
}

func (a *App) finishRound(res roundDone) {
	a.busy = false
	if a.pendingReset {
		a.pendingReset = false
		a.reset()
		return
	}
	if res.err != nil {
		if !errors.Is(res.err, fractal.ErrStopped) && !errors.Is(res.err, context.Canceled) {
			a.Status = res.err.Error()
		}
		a.Running = false
		return
	}
	// a sub-frame may have landed after the final one
	drain(a.frames)
	upload(a.tex, res.img)
	a.Round = res.stat.Round
	a.Angle = a.Runner.Angle()
	a.Scale = res.stat.Scale
	a.Active = res.stat.Active
	a.nextRound = time.Now().Add(a.Runner.Config().RoundDelay)
}

func (a *App) reset() {
	if err := a.Runner.Seed(); err != nil {
		a.Status = err.Error()
		return
	}
	img, err := a.Runner.Snapshot()
	if err != nil {
		a.Status = err.Error()
		return
	}
	drain(a.frames)
	upload(a.tex, img)
	a.Round = 0
	a.Angle = a.Runner.Angle()
	a.Scale = float64(a.Runner.Size().W)
	a.Active = a.Runner.Current().ActiveCount()
	a.Running = true
	a.Status = ""
	a.nextRound = time.Time{}
}

func drain(ch chan *image.NRGBA) {
	select {
	case <-ch:
	default:
	}
}

func (a *App) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(ColBg)

	if a.InMenu {
		a.drawMenu()
	} else {
		a.drawCanvas()
		a.DrawHUD()
	}

	rl.EndDrawing()
}

func (a *App) drawCanvas() {
	w := float32(a.tex.Width) * a.Zoom
	x := (float32(rl.GetScreenWidth()) - w) / 2
	// background pixels are transparent
	rl.DrawRectangle(int32(x), hudHeight, int32(w), int32(float32(a.tex.Height)*a.Zoom), rl.White)
	rl.DrawTextureEx(a.tex, rl.NewVector2(x, hudHeight), 0, a.Zoom, rl.White)
}

func (a *App) DrawHUD() {
	a.drawText("dragonsim", 20, 18, 24, ColSelect)
	a.drawText(fmt.Sprintf(":: %s", a.Preset), 170, 22, 16, ColText)

	cfg := a.Runner.Config()
	rounds := fmt.Sprintf("ROUND %d", a.Round)
	if cfg.Iterations >= 0 {
		rounds = fmt.Sprintf("ROUND %d/%d", a.Round, cfg.Iterations)
	}
	a.drawText(rounds, 20, 44, 14, ColAccent)
	a.drawText(fmt.Sprintf("ANGLE %.1f DEG", a.Angle*180/math.Pi), 180, 44, 14, ColAccent)
	a.drawText(fmt.Sprintf("SCALE %.0f", a.Scale), 360, 44, 14, ColAccent)
	a.drawText(fmt.Sprintf("ACTIVE %d", a.Active), 490, 44, 14, ColAccent)

	status, col := "RUNNING", ColSelect
	switch {
	case !a.busy && a.Runner.Done():
		status, col = "DONE", ColText
	case !a.Running:
		status, col = "PAUSED", ColTextDim
	}
	sw := int(rl.GetScreenWidth())
	a.drawText(status, sw-110, 22, 16, col)

	sh := int(rl.GetScreenHeight())
	if a.Status != "" {
		a.drawText(a.Status, 20, sh-footHeight+8, 14, ColError)
	} else {
		a.drawText(fmt.Sprintf("%d FPS  %s", rl.GetFPS(), a.Backend), 20, sh-footHeight+8, 14, ColTextDim)
	}
	a.drawText("[SPACE] PAUSE  [N] STEP  [R] RESET  [Q] QUIT", sw-420, sh-footHeight+8, 14, ColTextDim)
}

func (a *App) drawMenu() {
	a.drawText("dragonsim", 40, 40, 32, ColSelect)
	a.drawText("select a preset", 40, 80, 16, ColText)
	for i, name := range a.Presets {
		col := ColTextDim
		prefix := "  "
		if i == a.Selected {
			col = ColSelect
			prefix = "> "
		}
		a.drawText(prefix+name, 40, 130+i*28, 20, col)
	}
	sh := int(rl.GetScreenHeight())
	if a.Status != "" {
		a.drawText(a.Status, 40, sh-60, 14, ColError)
	}
	a.drawText("[J/K] MOVE  [ENTER] START  [Q] QUIT", 40, sh-30, 14, ColTextDim)
}

func (a *App) drawText(text string, x, y int, size int, color rl.Color) {
	rl.DrawTextEx(a.Font, text, rl.NewVector2(float32(x), float32(y)), float32(size), 1, color)
}
