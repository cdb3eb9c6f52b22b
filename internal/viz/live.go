package viz

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/LyesMestiri/atom/internal/particle"
	"github.com/LyesMestiri/atom/internal/sim"
)

const (
	width           = 80
	height          = 24
	historyCapacity = 600
	trailLength     = 120
	maxTrails       = 8
	maxDrawn        = 2048
)

// Snapshot stores the drawn positions at a specific time for replay.
type Snapshot struct {
	Positions []particle.Vector3
	Time      float64
	Energy    float64
}

type TickMsg time.Time

// Model steps a simulator and renders its population.
type Model struct {
	sim           *sim.Simulator
	pop           []particle.Particle
	initial       []particle.Particle
	name          string
	t, dt         float64
	duration      float64
	stepsPerTick  int
	width, height int
	canvas        *Canvas
	view          Viewport
	camera        *Camera
	mode3D        bool
	trails        [][]particle.Vector3
	energyHistory []float64
	gammaHistory  []float64
	history       []Snapshot
	playHead      int
	running       bool
	showHelp      bool
	err           error
}

// NewModel builds a live view over pop. A positive duration pauses the view
// once it is reached.
func NewModel(s *sim.Simulator, pop []particle.Particle, dt, duration float64, name string) Model {
	initial := make([]particle.Particle, len(pop))
	copy(initial, pop)

	m := Model{
		sim:           s,
		pop:           pop,
		initial:       initial,
		name:          name,
		dt:            dt,
		duration:      duration,
		stepsPerTick:  1,
		width:         width,
		height:        height,
		canvas:        NewCanvas(width, height),
		camera:        NewCamera(),
		trails:        make([][]particle.Vector3, min(len(pop), maxTrails)),
		energyHistory: make([]float64, 0, historyCapacity),
		gammaHistory:  make([]float64, 0, historyCapacity),
		history:       make([]Snapshot, 0, historyCapacity),
		playHead:      -1,
		running:       true,
	}
	m.fitView()
	m.record()
	return m
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		case "[":
			m.scrub(-1)
		case "]":
			m.scrub(1)
		case "+", "=":
			m.stepsPerTick = min(m.stepsPerTick*2, 256)
		case "-", "_":
			m.stepsPerTick = max(m.stepsPerTick/2, 1)
		case "?":
			m.showHelp = !m.showHelp
		case "t":
			NextTheme()
		case "m":
			m.mode3D = !m.mode3D
		case "x":
			m.camera.RotateX(0.1)
		case "X":
			m.camera.RotateX(-0.1)
		case "y":
			m.camera.RotateY(0.1)
		case "Y":
			m.camera.RotateY(-0.1)
		case "z":
			m.camera.RotateZ(0.1)
		case "Z":
			m.camera.RotateZ(-0.1)
		case "i":
			m.camera.ZoomIn()
		case "o":
			m.camera.ZoomOut()
		}
	case tea.WindowSizeMsg:
		m.width = max(20, min(msg.Width-50, 160))
		m.height = max(8, min(msg.Height-4, 60))
		m.canvas = NewCanvas(m.width, m.height)
	case TickMsg:
		if m.running {
			if m.playHead == -1 {
				for i := 0; i < m.stepsPerTick && m.running; i++ {
					m.step()
				}
			} else {
				m.playHead++
				if m.playHead >= len(m.history) {
					m.playHead = -1
				}
			}
		}
		return m, tick()
	}
	return m, nil
}

// step advances the population by one timestep.
func (m *Model) step() {
	if err := m.sim.Step(context.Background(), m.pop, m.t, m.dt); err != nil {
		m.err = err
		m.running = false
		return
	}
	m.t += m.dt

	for i := range m.trails {
		m.trails[i] = append(m.trails[i], m.pop[i].Position())
		if len(m.trails[i]) > trailLength {
			m.trails[i] = m.trails[i][1:]
		}
	}
	for i := range m.drawnCount() {
		m.view.Include(m.pop[i].X, m.pop[i].Y)
	}
	m.record()

	if m.duration > 0 && m.t >= m.duration-m.dt/2 {
		m.running = false
	}
}

func (m *Model) drawnCount() int {
	return min(len(m.pop), maxDrawn)
}

func (m *Model) record() {
	energy := sim.TotalKineticEnergy(m.pop)
	gamma := 0.0
	for i := range m.pop {
		gamma += m.pop[i].Gamma()
	}
	if len(m.pop) > 0 {
		gamma /= float64(len(m.pop))
	}

	m.energyHistory = appendCapped(m.energyHistory, clamp(energy))
	m.gammaHistory = appendCapped(m.gammaHistory, clamp(gamma))

	snap := Snapshot{Positions: make([]particle.Vector3, m.drawnCount()), Time: m.t, Energy: energy}
	for i := range snap.Positions {
		snap.Positions[i] = m.pop[i].Position()
	}
	m.history = append(m.history, snap)
	if len(m.history) > historyCapacity {
		m.history = m.history[1:]
	}
}

func appendCapped(s []float64, v float64) []float64 {
	s = append(s, v)
	if len(s) > historyCapacity {
		s = s[1:]
	}
	return s
}

// scrub changes the playback position in history.
func (m *Model) scrub(dir int) {
	if m.playHead == -1 {
		if len(m.history) == 0 {
			return
		}
		m.playHead = len(m.history) - 1
		m.running = false
	}
	m.playHead += dir
	if m.playHead < 0 {
		m.playHead = 0
	}
	if m.playHead >= len(m.history) {
		m.playHead = -1
	}
}

// reset restores the initial population.
func (m *Model) reset() {
	copy(m.pop, m.initial)
	m.t = 0
	m.err = nil
	m.running = true
	m.playHead = -1
	for i := range m.trails {
		m.trails[i] = m.trails[i][:0]
	}
	m.energyHistory = m.energyHistory[:0]
	m.gammaHistory = m.gammaHistory[:0]
	m.history = m.history[:0]
	m.fitView()
	m.record()
}

func (m *Model) fitView() {
	m.view = Viewport{}
	if len(m.pop) == 0 {
		return
	}
	p := m.pop[0]
	m.view = Viewport{MinX: p.X - 1, MaxX: p.X + 1, MinY: p.Y - 1, MaxY: p.Y + 1}
	for i := range m.drawnCount() {
		m.view.Include(m.pop[i].X, m.pop[i].Y)
	}
}

// Time is the simulated time of the live population.
func (m Model) Time() float64 { return m.t }

// Err is the error that stopped the run, if any.
func (m Model) Err() error { return m.err }

// View renders the TUI interface.
func (m Model) View() string {
	st := stylesFor(CurrentTheme)

	positions, t := m.currentPositions()
	m.draw(positions)

	var s strings.Builder
	s.WriteString(st.header.Render(strings.ToUpper(m.name)) + "\n")
	s.WriteString(m.status(st) + "\n\n")

	if len(m.energyHistory) > 1 {
		chart := asciigraph.Plot(m.energyHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Kinetic energy"))
		s.WriteString(st.graph.Render(chart) + "\n\n")
	}

	row := func(label, value string) {
		s.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.3f", t))
	if m.duration > 0 {
		row("Progress", ProgressBar(m.t/m.duration, 20))
	}
	row("Particles", fmt.Sprintf("%d", len(m.pop)))
	energy := 0.0
	if len(m.energyHistory) > 0 {
		energy = m.energyHistory[len(m.energyHistory)-1]
	}
	row("Energy", fmt.Sprintf("%.6g", energy))
	if n := len(m.gammaHistory); n > 0 {
		row("Mean γ", fmt.Sprintf("%.6f", m.gammaHistory[n-1]))
		row("", SparklineChart(m.gammaHistory, 24))
	}
	row("Steps/frame", fmt.Sprintf("%d", m.stepsPerTick))
	if m.sim != nil && m.sim.Backend() != nil {
		row("Backend", m.sim.Backend().Name())
	}
	if m.mode3D {
		row("View", "3D")
	} else {
		row("View", "x-y")
	}

	s.WriteString(st.help.Render("\n─────────────────────\nSP:Pause R:Reset Q:Quit\nT:Theme  M:3D    ?:Help\n[ ]:Time-Travel +-:Speed"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, st.canvas.Render(m.canvas.String()), st.stats.Render(s.String()))
	if m.showHelp {
		return helpText + "\n\n" + mainView
	}
	return mainView
}

const helpText = `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume simulation  ║
║  R        - Reset simulation         ║
║  Q        - Quit                     ║
║  + / -    - Double/halve steps/frame ║
║  [        - Rewind (time travel)     ║
║  ]        - Forward (time travel)    ║
║  M        - Toggle 3D view           ║
║  x y z    - Rotate 3D camera         ║
║  I / O    - Zoom in/out              ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝`

func (m Model) status(st styleSet) string {
	switch {
	case m.err != nil:
		return st.failed.Render("STOPPED: " + m.err.Error())
	case m.playHead != -1:
		label := "REPLAY"
		if !m.running {
			label = "REPLAY PAUSED"
		}
		back := m.history[m.playHead].Time - m.history[len(m.history)-1].Time
		return st.paused.Render(fmt.Sprintf("%s (%.2f)", label, back))
	case !m.running:
		return st.paused.Render("PAUSED")
	}
	return st.running.Render("RUNNING")
}

func (m Model) currentPositions() ([]particle.Vector3, float64) {
	if m.playHead >= 0 && m.playHead < len(m.history) {
		snap := m.history[m.playHead]
		return snap.Positions, snap.Time
	}
	out := make([]particle.Vector3, m.drawnCount())
	for i := range out {
		out[i] = m.pop[i].Position()
	}
	return out, m.t
}

// draw renders positions onto the canvas, with trails for the first
// particles in the live view.
func (m *Model) draw(positions []particle.Vector3) {
	m.canvas.Clear()
	if m.mode3D {
		m.draw3D(positions)
		return
	}

	cw, ch := m.canvas.PixelSize()
	if m.playHead == -1 {
		for _, trail := range m.trails {
			for k := 1; k < len(trail); k++ {
				x0, y0 := m.view.Map(trail[k-1].X, trail[k-1].Y, cw, ch)
				x1, y1 := m.view.Map(trail[k].X, trail[k].Y, cw, ch)
				m.canvas.DrawLine(x0, y0, x1, y1)
			}
		}
	}
	for _, p := range positions {
		if !p.IsFinite() {
			continue
		}
		x, y := m.view.Map(p.X, p.Y, cw, ch)
		m.canvas.Set(x, y)
	}
}

// draw3D centres the view on the x-y viewport and scales it to unit size.
func (m *Model) draw3D(positions []particle.Vector3) {
	cx, cy := m.view.Center()
	scale := 2 / m.view.Span()
	centre := particle.Vector3{X: cx, Y: cy}

	w := CreateAxesWireframe(1)
	for _, p := range positions {
		if !p.IsFinite() {
			continue
		}
		w.AddPoint(p.Sub(centre).Mult(scale))
	}
	Render3D(m.canvas, w, m.camera)
}

// Run starts the live view in the alternate screen.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

// clamp maps non-finite values to zero; asciigraph cannot plot them.
func clamp(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
