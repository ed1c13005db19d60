package dashboard

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/concerto/internal/session"
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	warningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500"))
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ECDC4"))
	infoStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#B0B0B0"))
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	modalStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A")).
			Padding(1, 2)
	dangerModalStyle = modalStyle.BorderForeground(lipgloss.Color("#FF4D4F"))
)

var ratingStyles = map[int]lipgloss.Style{
	1: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")),
	2: lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500")),
	3: lipgloss.NewStyle().Foreground(lipgloss.Color("#4ECDC4")),
}

func renderNotice(n session.Notice) string {
	switch n.Level {
	case session.LevelError:
		return errorStyle.Render(n.Text)
	case session.LevelWarning:
		return warningStyle.Render(n.Text)
	case session.LevelSuccess:
		return successStyle.Render(n.Text)
	case session.LevelInfo:
		return infoStyle.Render(n.Text)
	}
	return ""
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func modalWidth(width int) int {
	return maxInt(40, minInt(width-4, 80))
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
