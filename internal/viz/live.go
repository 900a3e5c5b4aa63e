package viz

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"os"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/dragonsim/internal/config"
	"github.com/san-kum/dragonsim/internal/export"
	"github.com/san-kum/dragonsim/internal/fractal"
)

const (
	width           = 60
	height          = 30
	historyCapacity = 600
	gifPath         = "dragonsim.gif"
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(45)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(2)
)

type TickMsg time.Time

// frameMsg carries a downsampled sub-frame from the runner goroutine.
type frameMsg struct {
	canvas *Canvas
	round  int
	step   int
	angle  float64
	scale  float64
}

type roundMsg struct {
	stat   fractal.RoundStat
	canvas *Canvas
	image  image.Image
	err    error
}

type gifSavedMsg struct {
	path   string
	frames int
	err    error
}

// Model animates a fold in the terminal. Rounds run in a command goroutine;
// the model only touches the runner when no round is in flight.
type Model struct {
	runner    *fractal.Runner
	cfg       config.Config
	preset    string
	backend   string
	ctx       context.Context
	cancel    context.CancelFunc
	frames    chan frameMsg
	recording *atomic.Bool
	outline   *atomic.Bool

	width, height int
	canvas        *Canvas
	running       bool
	busy          bool
	pendingReset  bool
	showHelp      bool

	round, step  int
	angle, scale float64
	history      []fractal.RoundStat
	captured     []image.Image
	status       string
}

// NewModel wraps r, which must not be driven elsewhere while the model runs.
// The first round starts from Init.
func NewModel(r *fractal.Runner, preset string) Model {
	ctx, cancel := context.WithCancel(context.Background())
	m := Model{
		runner:    r,
		cfg:       r.Config(),
		preset:    preset,
		backend:   r.Engine().Backend().Name(),
		ctx:       ctx,
		cancel:    cancel,
		frames:    make(chan frameMsg, 1),
		recording: &atomic.Bool{},
		outline:   &atomic.Bool{},
		width:     width,
		height:    height,
		running:   true,
		busy:      !r.Done(),
		angle:     r.Angle(),
		scale:     float64(r.Size().W),
		history:   make([]fractal.RoundStat, 0, 64),
	}
	m.outline.Store(true)
	m.canvas = committed(r, m.width, m.height, true)

	r.SetRender(false)
	frames := m.frames
	cols, rows := m.width, m.height
	r.AddObserver(fractal.ObserverFunc(func(f fractal.Frame) {
		msg := frameMsg{
			canvas: FromBuffer(f.Buffer, cols, rows),
			round:  f.Round,
			step:   f.Step,
			angle:  f.Angle,
			scale:  f.Scale,
		}
		select {
		case frames <- msg:
		default:
		}
	}))
	return m
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.waitForFrame()}
	if m.busy {
		cmds = append(cmds, m.startRound())
	}
	return tea.Batch(cmds...)
}

func (m Model) waitForFrame() tea.Cmd {
	frames := m.frames
	return func() tea.Msg { return <-frames }
}

func (m Model) startRound() tea.Cmd {
	r, ctx, rec, outline := m.runner, m.ctx, m.recording, m.outline
	cols, rows := m.width, m.height
	return func() tea.Msg {
		stat, err := r.Round(ctx)
		msg := roundMsg{stat: stat, err: err, canvas: committed(r, cols, rows, outline.Load())}
		if err == nil && rec.Load() {
			if img, rerr := r.Snapshot(); rerr == nil {
				msg.image = img
			}
		}
		return msg
	}
}

func (m Model) scheduleRound() tea.Cmd {
	return tea.Tick(m.cfg.RoundDelay, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Update handles input events and round lifecycle messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case frameMsg:
		if !m.pendingReset {
			m.canvas = msg.canvas
			m.round, m.step = msg.round, msg.step
			m.angle, m.scale = msg.angle, msg.scale
		}
		return m, m.waitForFrame()
	case roundMsg:
		return m.finishRound(msg)
	case TickMsg:
		if m.running && !m.busy && !m.runner.Done() {
			m.busy = true
			return m, m.startRound()
		}
	case gifSavedMsg:
		if msg.err != nil {
			m.status = "gif failed: " + msg.err.Error()
		} else {
			m.status = fmt.Sprintf("saved %d frames to %s", msg.frames, msg.path)
		}
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.cancel()
		m.runner.Stop()
		return m, tea.Quit
	case " ":
		m.running = !m.running
		if m.running && !m.busy && !m.runner.Done() {
			m.busy = true
			return m, m.startRound()
		}
	case "n":
		if !m.running && !m.busy && !m.runner.Done() {
			m.busy = true
			return m, m.startRound()
		}
	case "r":
		if m.busy {
			m.pendingReset = true
			m.runner.Stop()
			return m, nil
		}
		return m.reset()
	case "g":
		if m.recording.Load() {
			m.recording.Store(false)
			frames := m.captured
			m.captured = nil
			return m, saveGIF(frames, m.cfg.RoundDelay)
		}
		m.recording.Store(true)
		m.captured = make([]image.Image, 0)
		if !m.busy {
			if img, err := m.runner.Snapshot(); err == nil {
				m.captured = append(m.captured, img)
			}
		}
	case "b":
		m.outline.Store(!m.outline.Load())
		if !m.busy {
			m.canvas = committed(m.runner, m.width, m.height, m.outline.Load())
		}
	case "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

// committed renders r's current buffer, with the fold's bounding box and
// pivot when outline is set. r must not be mid-round.
func committed(r *fractal.Runner, cols, rows int, outline bool) *Canvas {
	c := FromBuffer(r.Current(), cols, rows)
	if outline {
		size, st := r.Size(), r.State()
		c.Outline(size.W, size.H, st.End, st.Bounds)
	}
	return c
}

func (m Model) finishRound(msg roundMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	if m.pendingReset {
		m.pendingReset = false
		return m.reset()
	}
	if msg.err != nil {
		if !errors.Is(msg.err, context.Canceled) && !errors.Is(msg.err, fractal.ErrStopped) {
			m.status = msg.err.Error()
		}
		return m, nil
	}

	m.canvas = msg.canvas
	m.round, m.step = msg.stat.Round, 0
	m.angle = m.runner.Angle()
	m.scale = float64(m.runner.Size().W)
	m.history = append(m.history, msg.stat)
	if len(m.history) > historyCapacity {
		m.history = m.history[1:]
	}
	if msg.image != nil && m.recording.Load() {
		m.captured = append(m.captured, msg.image)
	}

	if m.running && !m.runner.Done() {
		return m, m.scheduleRound()
	}
	return m, nil
}

// reset reseeds the runner and clears the history.
func (m Model) reset() (tea.Model, tea.Cmd) {
	if err := m.runner.Seed(); err != nil {
		m.status = err.Error()
		return m, nil
	}
	m.canvas = committed(m.runner, m.width, m.height, m.outline.Load())
	m.round, m.step = 0, 0
	m.angle = m.runner.Angle()
	m.scale = float64(m.runner.Size().W)
	m.history = m.history[:0]
	m.status = ""
	if m.running {
		m.busy = true
		return m, m.startRound()
	}
	return m, nil
}

func saveGIF(frames []image.Image, delay time.Duration) tea.Cmd {
	return func() tea.Msg {
		f, err := os.Create(gifPath)
		if err != nil {
			return gifSavedMsg{err: err}
		}
		defer f.Close()
		if err := export.EncodeGIF(f, frames, delay); err != nil {
			return gifSavedMsg{err: err}
		}
		return gifSavedMsg{path: gifPath, frames: len(frames)}
	}
}

func (m Model) statusLine() string {
	switch {
	case m.recording.Load():
		return StatusRecording.Render("RECORDING")
	case m.runner != nil && !m.busy && m.runner.Done():
		return StatusPaused.Render("DONE")
	case !m.running:
		return StatusPaused.Render("PAUSED")
	default:
		return StatusRunning.Render("RUNNING")
	}
}

// View renders the fold and the side panel.
func (m Model) View() string {
	canvasView := canvasStyle.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.preset)) + "\n")
	s.WriteString(m.statusLine() + "\n\n")

	if len(m.history) > 1 {
		data := make([]float64, len(m.history))
		for i, h := range m.history {
			data[i] = float64(h.Active)
		}
		chart := asciigraph.Plot(data, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Active"))
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}

	active := 0
	if len(m.history) > 0 {
		active = m.history[len(m.history)-1].Active
	}
	s.WriteString(labelStyle.Render("Round") + valueStyle.Render(m.roundText()) + "\n")
	s.WriteString(labelStyle.Render("Step") + valueStyle.Render(fmt.Sprintf("%d/%d", m.step, m.cfg.Steps)) + "\n")
	s.WriteString(labelStyle.Render("Angle") + valueStyle.Render(fmt.Sprintf("%.1f°", m.angle*180/math.Pi)) + "\n")
	s.WriteString(labelStyle.Render("Scale") + valueStyle.Render(fmt.Sprintf("%.0f", m.scale)) + "\n")
	s.WriteString(labelStyle.Render("Active") + valueStyle.Render(fmt.Sprintf("%d", active)) + "\n")
	s.WriteString(labelStyle.Render("Canvas") + valueStyle.Render(fmt.Sprintf("%dx%d", m.cfg.Width, m.cfg.Height)) + "\n")
	s.WriteString(labelStyle.Render("Backend") + valueStyle.Render(m.backend) + "\n")
	if m.cfg.Iterations > 0 {
		s.WriteString("\n" + ProgressBar(float64(m.round)/float64(m.cfg.Iterations), 30) + "\n")
	}
	if m.status != "" {
		s.WriteString("\n" + Subtle.Render(m.status) + "\n")
	}
	s.WriteString(helpStyle.Render("\n─────────────────────\nSP:Pause N:Round R:Reset\nG:Record B:Bounds ?:Help Q:Quit"))

	statsView := statsStyle.Render(s.String())
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView)
	if m.showHelp {
		return `
╔══════════════════════════════════════╗
║           KEYBOARD SHORTCUTS         ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume folding     ║
║  N        - Single round when paused ║
║  R        - Reseed                   ║
║  G        - Toggle GIF recording     ║
║  B        - Toggle fold bounds       ║
║  ?        - Toggle this help         ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝
` + "\n\n" + mainView
	}
	return mainView
}

func (m Model) roundText() string {
	if m.cfg.Iterations < 0 {
		return fmt.Sprintf("%d", m.round)
	}
	return fmt.Sprintf("%d/%d", m.round, m.cfg.Iterations)
}

// Run starts the live view in the alternate screen.
func Run(r *fractal.Runner, preset string) error {
	_, err := tea.NewProgram(NewModel(r, preset), tea.WithAltScreen()).Run()
	return err
}
