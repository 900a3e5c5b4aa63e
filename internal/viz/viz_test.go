package viz

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/dragonsim/internal/compute"
	"github.com/san-kum/dragonsim/internal/config"
	"github.com/san-kum/dragonsim/internal/engine"
	"github.com/san-kum/dragonsim/internal/fractal"
	"github.com/san-kum/dragonsim/internal/frame"
	"github.com/san-kum/dragonsim/internal/kernel"
)

func TestFromBufferORsPixels(t *testing.T) {
	buf, _ := frame.NewBuffer(8, 8)
	buf.Set(0, 0, frame.Seed)
	buf.Set(1, 0, frame.Seed)
	buf.Set(7, 7, frame.RotationHit)

	c := FromBuffer(buf, 2, 1)
	if !c.IsSet(0, 3) {
		t.Error("expected bottom-left dot for the bottom row")
	}
	if !c.IsSet(3, 0) {
		t.Error("expected top-right dot for the top row")
	}
	if got := c.Dots(); got != 2 {
		t.Errorf("expected 2 dots, got %d", got)
	}
}

func TestFromBufferNil(t *testing.T) {
	c := FromBuffer(nil, 4, 2)
	if c.Dots() != 0 || c.Width != 4 || c.Height != 2 {
		t.Errorf("expected blank 4x2 canvas, got %dx%d with %d dots", c.Width, c.Height, c.Dots())
	}
}

func TestCanvasRect(t *testing.T) {
	c := NewCanvas(3, 2)
	c.DrawRect(0, 0, 5, 7)
	if got := c.Dots(); got != 24 {
		t.Errorf("expected 24 border dots, got %d", got)
	}
	c.Clear()
	if c.Dots() != 0 {
		t.Error("expected empty canvas after clear")
	}
	if lines := strings.Count(c.String(), "\n"); lines != 2 {
		t.Errorf("expected 2 lines, got %d", lines)
	}
}

func TestDrawLine(t *testing.T) {
	c := NewCanvas(4, 2)
	c.DrawLine(0, 0, 7, 7)
	if got := c.Dots(); got != 8 {
		t.Errorf("expected 8 diagonal dots, got %d", got)
	}
	if !c.IsSet(0, 0) || !c.IsSet(7, 7) || !c.IsSet(3, 3) {
		t.Error("expected both endpoints and the midpoint set")
	}

	c.Clear()
	c.DrawLine(-1e9, 3, -5, 3)
	c.DrawLine(2, 1e9, 2, 9)
	if c.Dots() != 0 {
		t.Errorf("expected off-canvas segments to draw nothing, got %d dots", c.Dots())
	}
}

func TestCanvasOutline(t *testing.T) {
	c := NewCanvas(10, 5)
	c.Outline(20, 20, kernel.Vec2{}, fractal.Bounds{Left: 5, Right: 5, Up: 5, Down: 5})

	if got := c.Dots(); got != 45 {
		t.Errorf("expected 40 box dots and 5 pivot dots, got %d", got)
	}
	for _, p := range [][2]int{{5, 5}, {15, 5}, {5, 15}, {15, 15}, {10, 10}} {
		if !c.IsSet(p[0], p[1]) {
			t.Errorf("expected dot at %v", p)
		}
	}
	if c.IsSet(7, 7) {
		t.Error("expected the box interior to stay clear")
	}
}

func TestCanvasOutlineOffCanvas(t *testing.T) {
	c := NewCanvas(10, 5)
	c.Outline(20, 20, kernel.Vec2{}, fractal.Bounds{Left: 1e12, Right: 1e12, Up: 1e12, Down: 1e12})
	if got := c.Dots(); got != 5 {
		t.Errorf("expected only the pivot cross, got %d dots", got)
	}

	c.Clear()
	c.Outline(20, 20, kernel.Vec2{X: 1e12}, fractal.Bounds{Left: 1, Right: 1, Up: 1, Down: 1})
	if got := c.Dots(); got != 0 {
		t.Errorf("expected a fold right of the canvas to draw nothing, got %d dots", got)
	}
}

func TestCanvasSetOutOfRange(t *testing.T) {
	c := NewCanvas(2, 2)
	c.Set(-1, 0)
	c.Set(4, 0)
	c.Set(0, 8)
	if c.Dots() != 0 {
		t.Errorf("expected no dots, got %d", c.Dots())
	}
}

func TestGrowthPlot(t *testing.T) {
	if GrowthPlot(nil, 30, 5) != "" {
		t.Error("expected empty plot without rounds")
	}
	plot := GrowthPlot([]fractal.RoundStat{{Round: 1, Active: 12}}, 30, 5)
	if !strings.Contains(plot, "active pixels over 1 rounds") {
		t.Errorf("expected caption, got %q", plot)
	}
	if ScalePlot([]fractal.RoundStat{{Scale: 1}}, 30, 5) != "" {
		t.Error("expected empty scale plot for one round")
	}
}

func newTestModel(t *testing.T) Model {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Width, cfg.Height = 32, 32
	cfg.Steps = 2
	cfg.LineLength, cfg.AreaLength = 4, 4
	cfg.Margin = 8
	cfg.Iterations = 3
	cfg.FrameDelay, cfg.RoundDelay = 0, 0

	r, err := fractal.NewRunner(cfg, engine.New(compute.NewSerialBackend()))
	if err != nil {
		t.Fatal(err)
	}
	return NewModel(r, "test")
}

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func TestModelCompletesRound(t *testing.T) {
	m := newTestModel(t)
	if !m.busy {
		t.Fatal("expected the first round to be pending")
	}

	m, cmd := update(t, m, m.startRound()())
	if m.busy {
		t.Error("expected model idle after the round")
	}
	if m.round != 1 || len(m.history) != 1 {
		t.Errorf("expected round 1 in history, got %d with %d entries", m.round, len(m.history))
	}
	if cmd == nil {
		t.Error("expected the next round to be scheduled")
	}
	if m.canvas.Dots() == 0 {
		t.Error("expected the committed frame on the canvas")
	}
}

func TestModelPauseAndStep(t *testing.T) {
	m := newTestModel(t)
	m, _ = update(t, m, m.startRound()())

	m, cmd := update(t, m, key(" "))
	if m.running || cmd != nil {
		t.Fatal("expected pause without a command")
	}

	m, cmd = update(t, m, key("n"))
	if !m.busy || cmd == nil {
		t.Fatal("expected a single round to start")
	}
	m, cmd = update(t, m, cmd())
	if m.round != 2 {
		t.Errorf("expected round 2, got %d", m.round)
	}
	if cmd != nil {
		t.Error("paused model should not schedule another round")
	}
}

func TestModelResetWhileBusy(t *testing.T) {
	m := newTestModel(t)

	m, _ = update(t, m, key("r"))
	if !m.pendingReset {
		t.Fatal("expected reset to wait for the round")
	}
	m, cmd := update(t, m, m.startRound()())
	if m.pendingReset || m.round != 0 || len(m.history) != 0 {
		t.Errorf("expected a fresh model, got round %d", m.round)
	}
	if m.runner.Rounds() != 0 {
		t.Errorf("expected reseeded runner, got %d rounds", m.runner.Rounds())
	}
	if cmd == nil || !m.busy {
		t.Error("expected the reseeded run to start")
	}
}

func TestModelHelpAndQuit(t *testing.T) {
	m := newTestModel(t)

	m, _ = update(t, m, key("?"))
	if !strings.Contains(m.View(), "KEYBOARD SHORTCUTS") {
		t.Error("expected help overlay")
	}

	_, cmd := update(t, m, key("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestModelOutlinesCommittedFrame(t *testing.T) {
	m := newTestModel(t)
	m, _ = update(t, m, m.startRound()())

	outlined := m.canvas.Dots()
	m, _ = update(t, m, key("b"))
	plain := m.canvas.Dots()
	if plain >= outlined {
		t.Errorf("expected the outline to add dots, got %d with and %d without", outlined, plain)
	}

	m, _ = update(t, m, key("b"))
	if got := m.canvas.Dots(); got != outlined {
		t.Errorf("expected %d dots with the outline back on, got %d", outlined, got)
	}
}

func TestMenuAppliesOverrides(t *testing.T) {
	m := newMenu(engine.New(compute.NewSerialBackend()), func(cfg *config.Config) {
		cfg.Width, cfg.Height = 32, 32
		cfg.Margin = 8
		cfg.LineLength, cfg.AreaLength = 4, 4
	})

	next, _ := m.Update(key("j"))
	next, cmd := next.Update(tea.KeyMsg{Type: tea.KeyEnter})
	got := next.(menu)

	if got.state != stateSim {
		t.Fatalf("expected the live view after enter, got state %d", got.state)
	}
	if cmd == nil {
		t.Error("expected the first round to start")
	}
	if got.live.preset != got.presets[1] {
		t.Errorf("expected preset %s, got %s", got.presets[1], got.live.preset)
	}
	if size := got.live.runner.Size(); size.W != 32 || size.H != 32 {
		t.Errorf("expected the override to size the canvas 32x32, got %dx%d", size.W, size.H)
	}
}
