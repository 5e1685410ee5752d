package viz

import (
	"fmt"
	"slices"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/leap/internal/dynamo"
	"github.com/san-kum/leap/internal/rotation"
	"github.com/san-kum/leap/internal/sim"
)

const (
	canvasCols      = 22
	canvasRows      = 9
	historyCapacity = 300
	frameInterval   = time.Second / 30
)

// tuneSteps are the increments applied by the up and down keys.
var tuneSteps = map[string]float64{
	"axis_aligned_goal":     1,
	"rotation_noise_std":    0.002,
	"position_noise_std":    0.0002,
	"position_noise_bias_x": 0.0001,
	"position_noise_bias_y": 0.0001,
	"position_noise_bias_z": 0.0001,
	"rotation_noise_max":    0.01,
	"position_noise_max":    0.001,
	"ema_alpha":             0.05,
	"lag_steps":             1,
	"timeout_seconds":       5,
}

type TickMsg time.Time

// Model is the dashboard state.
type Model struct {
	sim           *sim.Simulator
	dt            float64
	stepsPerFrame int
	title         string

	running    bool
	paramKeys  []string
	selected   int
	errHistory []float64
	lastErr    error
	cube, goal *Canvas
}

// NewModel wraps a simulator whose episode has been reset. Every frame
// advances it by stepsPerFrame steps of dt.
func NewModel(s *sim.Simulator, dt float64, stepsPerFrame int, title string) Model {
	keys := make([]string, 0, len(tuneSteps))
	for k := range s.Session().GetParams() {
		if _, ok := tuneSteps[k]; ok {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return Model{
		sim:           s,
		dt:            dt,
		stepsPerFrame: max(stepsPerFrame, 1),
		title:         title,
		running:       true,
		paramKeys:     keys,
		errHistory:    make([]float64, 0, historyCapacity),
		cube:          NewCanvas(canvasCols, canvasRows),
		goal:          NewCanvas(canvasCols, canvasRows),
	}
}

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd { return tick() }

// Update handles keys and advances the simulator on ticks.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "s":
			if !m.running {
				m.advance(1)
			}
		case "r":
			m.lastErr = m.sim.Reset()
			m.errHistory = m.errHistory[:0]
		case "tab":
			if len(m.paramKeys) > 0 {
				m.selected = (m.selected + 1) % len(m.paramKeys)
			}
		case "up", "k":
			m.adjust(1)
		case "down", "j":
			m.adjust(-1)
		}
	case TickMsg:
		if m.running {
			m.advance(m.stepsPerFrame)
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) advance(n int) {
	for i := 0; i < n; i++ {
		sample, err := m.sim.Step(m.dt)
		if err != nil {
			m.lastErr = err
		}
		m.errHistory = append(m.errHistory, sample.Telemetry.OrientationErrorDeg)
		if len(m.errHistory) > historyCapacity {
			m.errHistory = m.errHistory[1:]
		}
	}
}

// adjust moves the selected tunable one step in dir. Rejected values leave
// the session unchanged and are reported in the status line.
func (m *Model) adjust(dir float64) {
	if len(m.paramKeys) == 0 {
		return
	}
	key := m.paramKeys[m.selected]
	sess := m.sim.Session()
	v := sess.GetParams()[key]
	next := v + dir*tuneSteps[key]
	if key == "axis_aligned_goal" {
		next = 1 - v
	}
	m.lastErr = sess.SetParam(key, next)
}

func (m Model) status() string {
	if m.running {
		return runningStyle.Render("RUNNING")
	}
	return pausedStyle.Render("PAUSED")
}

func row(label, value string) string {
	return labelStyle.Render(label) + valueStyle.Render(value) + "\n"
}

// View renders the dashboard.
func (m Model) View() string {
	plant := m.sim.Plant()
	obs := m.sim.Observed()

	m.cube.Clear()
	if obs.QPos != nil {
		DrawCube(m.cube, obs.CubeOrientation)
	} else if q, err := plant.Sensor(dynamo.SensorCubeOrientation); err == nil {
		DrawCube(m.cube, rotation.FromSlice(q))
	}
	m.goal.Clear()
	if q, err := plant.Sensor(dynamo.SensorGoalOrientation); err == nil {
		DrawCube(m.goal, rotation.FromSlice(q))
	}
	cubes := lipgloss.JoinVertical(lipgloss.Left,
		panelStyle.Render("observed\n"+m.cube.String()),
		panelStyle.Render("goal\n"+m.goal.String()),
	)

	tel := m.sim.Session().Telemetry()
	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.title)) + "\n")
	s.WriteString(m.status() + "\n\n")
	s.WriteString(row("Time", fmt.Sprintf("%.2fs", plant.Time())))
	s.WriteString(row("Rotations", fmt.Sprintf("%d (best %d)", tel.RotationCount, tel.BestRotationCount)))
	s.WriteString(row("Sec/rotation", fmt.Sprintf("%.2f", tel.SecondsPerRotation)))
	s.WriteString(row("Since rotation", fmt.Sprintf("%.1fs", tel.SinceLastRotation)))
	s.WriteString(row("Error", fmt.Sprintf("%.1f°", tel.OrientationErrorDeg)))
	s.WriteString(row("Drops/timeouts", fmt.Sprintf("%d / %d", tel.Drops, tel.Timeouts)))
	s.WriteString(row("Cube", fmt.Sprintf("%.3f %.3f %.3f", tel.CubePosition[0], tel.CubePosition[1], tel.CubePosition[2])))
	s.WriteString("\n" + sparkStyle.Render(Sparkline(m.errHistory, 0, 180, 40)) + "\n")

	s.WriteString("\nTUNABLES\n")
	params := m.sim.Session().GetParams()
	for i, k := range m.paramKeys {
		line := fmt.Sprintf("%-22s %.4g", k, params[k])
		if i == m.selected {
			s.WriteString(activeParamStyle.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + valueStyle.Render(line) + "\n")
		}
	}
	if m.lastErr != nil {
		s.WriteString("\n" + errorStyle.Render(m.lastErr.Error()) + "\n")
	}
	s.WriteString(helpStyle.Render("SP:Pause S:Step R:Reset Q:Quit\nTab:Select ↑↓:Tune"))

	return lipgloss.JoinHorizontal(lipgloss.Top, cubes, statsStyle.Render(s.String()))
}

// Run starts the dashboard on the terminal.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
