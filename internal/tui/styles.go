package tui

import "github.com/charmbracelet/lipgloss"

var (
	// HeaderStyle styles table headers and download titles.
	HeaderStyle = lipgloss.NewStyle().Bold(true)

	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	elapsedStyle = lipgloss.NewStyle().Faint(true)

	statusColors = map[string]lipgloss.Color{
		"extracted":  "2",
		"ok":         "2",
		"downloaded": "3",
		"missing":    "3",
		"warning":    "3",
		"error":      "1",
	}

	checkLabels = map[string]string{
		"ok":      "OK",
		"warning": "WARN",
		"error":   "ERROR",
	}
)

// StatusStyle colours a tool or check status; unknown statuses stay plain.
func StatusStyle(status string) lipgloss.Style {
	if c, ok := statusColors[status]; ok {
		return lipgloss.NewStyle().Foreground(c)
	}
	return lipgloss.NewStyle()
}

// CheckLabel renders a doctor status ("ok", "warning", "error") as a short
// coloured label.
func CheckLabel(status string) string {
	label, ok := checkLabels[status]
	if !ok {
		label = status
	}
	return StatusStyle(status).Inline(true).Render(label)
}
