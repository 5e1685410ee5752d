package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	panelStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444466")).Padding(0, 1)
	statsStyle       = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(0, 2).Width(48)
	headerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(16)
	valueStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	activeParamStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	runningStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff88"))
	pausedStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffaa00"))
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
	helpStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
	sparkStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("49"))
)

var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders the last width values scaled between lo and hi.
func Sparkline(values []float64, lo, hi float64, width int) string {
	if len(values) > width {
		values = values[len(values)-width:]
	}
	span := hi - lo
	if span <= 0 {
		span = 1
	}
	var b strings.Builder
	for _, v := range values {
		i := int((v - lo) / span * float64(len(sparkChars)-1))
		i = max(0, min(i, len(sparkChars)-1))
		b.WriteRune(sparkChars[i])
	}
	if pad := width - len(values); pad > 0 {
		b.WriteString(strings.Repeat(" ", pad))
	}
	return b.String()
}
