package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/omnidrive/holotrack/internal/geom"
	"github.com/omnidrive/holotrack/internal/runner"
)

const (
	width           = 80
	height          = 24
	historyCapacity = 600
)

// Status reports where a tracking run stands after a step.
type Status int

const (
	StatusRunning Status = iota
	StatusArrived
	StatusTimedOut
)

// StepFunc advances the tracking loop one control period and reports the
// resulting sample.
type StepFunc func() (runner.Sample, Status)

type TickMsg time.Time

// Model renders a tracking run live: the desired path, the robot's trail,
// and per-tick stats.
type Model struct {
	label    string
	path     []geom.Pose
	step     StepFunc
	period   float64
	duration float64

	canvas  *Canvas
	proj    Projection
	trail   []runner.Sample
	errHist []float64
	last    runner.Sample
	status  Status
	paused  bool
}

// NewModel sets up the live view for one run. The path is only drawn, never
// stepped; all motion comes from the step function.
func NewModel(label string, path []geom.Pose, duration, period float64, step StepFunc) Model {
	return Model{
		label:    label,
		path:     path,
		step:     step,
		period:   period,
		duration: duration,
		canvas:   NewCanvas(width, height),
		proj:     NewProjection(path, width, height),
		trail:    make([]runner.Sample, 0, historyCapacity),
		errHist:  make([]float64, 0, historyCapacity),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.paused = !m.paused
		}
	case TickMsg:
		if !m.paused && m.status == StatusRunning {
			m.advance()
		}
		m.draw()
		return m, tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
	}
	return m, nil
}

func (m *Model) advance() {
	sample, status := m.step()
	m.last = sample
	m.status = status

	m.trail = append(m.trail, sample)
	if len(m.trail) > historyCapacity {
		m.trail = m.trail[1:]
	}

	ex := sample.Desired.X() - sample.Actual.X()
	ey := sample.Desired.Y() - sample.Actual.Y()
	m.errHist = append(m.errHist, math.Hypot(ex, ey))
	if len(m.errHist) > historyCapacity {
		m.errHist = m.errHist[1:]
	}
}

func (m *Model) draw() {
	m.canvas.Clear()

	for i := 1; i < len(m.path); i++ {
		x0, y0 := m.proj.ToPixel(m.path[i-1].X(), m.path[i-1].Y())
		x1, y1 := m.proj.ToPixel(m.path[i].X(), m.path[i].Y())
		m.canvas.DrawLine(x0, y0, x1, y1)
	}

	for _, s := range m.trail {
		px, py := m.proj.ToPixel(s.Actual.X(), s.Actual.Y())
		m.canvas.Set(px, py)
	}

	if len(m.trail) > 0 {
		m.drawRobot(m.last.Actual)
	}
}

// drawRobot marks the robot's position and a short heading tick.
func (m *Model) drawRobot(pose geom.Pose) {
	px, py := m.proj.ToPixel(pose.X(), pose.Y())
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			m.canvas.Set(px+dx, py+dy)
		}
	}

	const tick = 0.3 // meters
	hx := pose.X() + tick*math.Cos(pose.Heading())
	hy := pose.Y() + tick*math.Sin(pose.Heading())
	tx, ty := m.proj.ToPixel(hx, hy)
	m.canvas.DrawLine(px, py, tx, ty)
}

func (m Model) View() string {
	canvasView := canvasStyle.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.label)) + "\n")
	s.WriteString(m.statusLine() + "\n\n")

	if len(m.errHist) > 1 {
		chart := asciigraph.Plot(m.errHist, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Position error (m)"))
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}

	s.WriteString(labelStyle.Render("Time") + valueStyle.Render(fmt.Sprintf("%.2fs / %.2fs", m.last.T, m.duration)) + "\n")
	s.WriteString(labelStyle.Render("Desired") + valueStyle.Render(formatPose(m.last.Desired)) + "\n")
	s.WriteString(labelStyle.Render("Actual") + valueStyle.Render(formatPose(m.last.Actual)) + "\n")

	if len(m.errHist) > 0 {
		s.WriteString(labelStyle.Render("Error") + valueStyle.Render(fmt.Sprintf("%.3f m", m.errHist[len(m.errHist)-1])) + "\n")
	}

	if len(m.last.Wheels) > 0 {
		s.WriteString("\nWHEELS\n")
		for i, w := range m.last.Wheels {
			line := fmt.Sprintf("module %d   %6.2f m/s @ %6.1f°", i, w.Speed, w.Angle.Degrees())
			s.WriteString("  " + labelStyle.Render(line) + "\n")
		}
	}

	s.WriteString(helpStyle.Render("\n─────────────────────\nSP:Pause  Q:Quit"))
	statsView := statsStyle.Render(s.String())
	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView)
}

func (m Model) statusLine() string {
	if m.paused {
		return statusPaused.Render("PAUSED")
	}
	switch m.status {
	case StatusArrived:
		return statusArrived.Render("ARRIVED")
	case StatusTimedOut:
		return statusTimedOut.Render("TIMED OUT")
	default:
		return statusRunning.Render("TRACKING")
	}
}

func formatPose(p geom.Pose) string {
	return fmt.Sprintf("(%.2f, %.2f) %.1f°", p.X(), p.Y(), p.Heading()*180/math.Pi)
}
