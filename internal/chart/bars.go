package chart

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/verte-zerg/concerto/internal/coverage"
	"github.com/verte-zerg/concerto/internal/model"
)

const (
	minBarWidth         = 10
	valueLabelWidth     = 5
	levelPrefix         = "  3 │"
	colorReset          = "\x1b[0m"
	terminalWidthBackup = 80
	scaleNote           = "Share of each rating level's programs that belong to the series."
)

// LevelColors are the bar colors per rating level.
var LevelColors = map[int]string{
	1: "#FF6B6B",
	2: "#FFA500",
	3: "#4ECDC4",
}

// Levels are drawn in this order within each series group.
var Levels = []int{1, 2, 3}

// eighths holds partial block glyphs for sub-cell bar precision.
var eighths = []rune{' ', '▏', '▎', '▍', '▌', '▋', '▊', '▉'}

// RenderCoverage writes the ranked grouped-bar chart of a report.
func RenderCoverage(w io.Writer, report coverage.Report, width int, forceColor bool) error {
	if report.Empty() {
		_, err := fmt.Fprintln(w, "Start rating programs to see coverage.")
		return err
	}
	if width <= 0 {
		width = BarWidthFor(terminalWidth())
	}
	useColor := shouldUseColor(w, forceColor)
	for _, line := range CoverageLines(report, width, useColor) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// CoverageLines renders the chart as lines with bars of the given width.
func CoverageLines(report coverage.Report, width int, useColor bool) []string {
	if width < minBarWidth {
		width = minBarWidth
	}
	lines := []string{"Coverage by series", scaleNote}
	for _, sc := range report.Series {
		lines = append(lines, AxisLabel(sc))
		for _, level := range Levels {
			bar := Bar(sc.Coverage[level], width)
			if useColor {
				bar = ansiColor(LevelColors[level]) + bar + colorReset
			}
			lines = append(lines, fmt.Sprintf("  %d │%s %*s", level, bar, valueLabelWidth-1, Percent(sc.Coverage[level])))
		}
	}
	lines = append(lines, Legend(report, useColor))
	return lines
}

// Legend names each level with its rated program count.
func Legend(report coverage.Report, useColor bool) string {
	parts := make([]string, 0, len(Levels))
	for _, level := range Levels {
		label := fmt.Sprintf("█ %d %s (%d)", level, model.Rating(level).Label(), report.Rated[level])
		if useColor {
			label = ansiColor(LevelColors[level]) + label + colorReset
		}
		parts = append(parts, label)
	}
	return "Legend: " + strings.Join(parts, "  ")
}

// Bar draws value (0-100) as a bar exactly width cells wide.
func Bar(value float64, width int) string {
	if width <= 0 {
		return ""
	}
	value = math.Max(0, math.Min(100, value))
	units := int(math.Round(value / 100 * float64(width*8)))
	full := units / 8
	rem := units % 8

	var b strings.Builder
	b.WriteString(strings.Repeat("█", full))
	cells := full
	if rem > 0 && cells < width {
		b.WriteRune(eighths[rem])
		cells++
	}
	b.WriteString(strings.Repeat(" ", width-cells))
	return b.String()
}

// BarWidthFor computes a bar width that fits within the total available width.
func BarWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minBarWidth
	}
	barWidth := totalWidth - displayWidth(levelPrefix) - 1 - valueLabelWidth
	if barWidth < minBarWidth {
		barWidth = minBarWidth
	}
	return barWidth
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

// ansiColor converts #RRGGBB to a 24-bit foreground escape.
func ansiColor(hex string) string {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return ""
	}
	rgb, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("\x1b[38;2;%d;%d;%dm", rgb>>16&0xFF, rgb>>8&0xFF, rgb&0xFF)
}
