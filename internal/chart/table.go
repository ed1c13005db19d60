// Package chart renders coverage reports as text tables and bar charts.
package chart

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/concerto/internal/coverage"
)

// FormatTable aligns cells into columns separated by one space.
func FormatTable(headers []string, rows [][]string, rightAlignCols map[int]bool) []string {
	colCount := len(headers)
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}
	if colCount == 0 {
		return nil
	}

	widths := make([]int, colCount)
	for i, header := range headers {
		widths[i] = displayWidth(header)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := displayWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	lines := make([]string, 0, len(rows)+1)
	if len(headers) > 0 {
		lines = append(lines, formatRow(headers, widths, rightAlignCols))
	}
	for _, row := range rows {
		lines = append(lines, formatRow(row, widths, rightAlignCols))
	}
	return lines
}

func formatRow(row []string, widths []int, rightAlignCols map[int]bool) string {
	var b strings.Builder
	for i := 0; i < len(widths); i++ {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(padCell(cell, widths[i], rightAlignCols[i]))
	}
	return strings.TrimRight(b.String(), " ")
}

func padCell(value string, width int, rightAlign bool) string {
	padding := width - displayWidth(value)
	if padding <= 0 {
		return value
	}
	if rightAlign {
		return strings.Repeat(" ", padding) + value
	}
	return value + strings.Repeat(" ", padding)
}

func displayWidth(value string) int {
	return runewidth.StringWidth(value)
}

// CoverageTable lists ranked series with per-level coverage and score.
func CoverageTable(report coverage.Report) []string {
	headers := []string{"#", "Series", "Weekdays", "Must-see", "Very good", "Interesting", "Score"}
	rows := make([][]string, 0, len(report.Series))
	for i, sc := range report.Series {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			sc.Series,
			strings.Join(sc.Weekdays, " "),
			Percent(sc.Coverage[3]),
			Percent(sc.Coverage[2]),
			Percent(sc.Coverage[1]),
			fmt.Sprintf("%.0f", sc.Score),
		})
	}
	return FormatTable(headers, rows, map[int]bool{0: true, 3: true, 4: true, 5: true, 6: true})
}

// Percent formats a coverage value as a whole percentage.
func Percent(v float64) string {
	return fmt.Sprintf("%.0f%%", v)
}

// AxisLabel names a series with its weekday mix, e.g. "A (Thu Sat)".
func AxisLabel(sc coverage.SeriesCoverage) string {
	if len(sc.Weekdays) == 0 {
		return sc.Series
	}
	return sc.Series + " (" + strings.Join(sc.Weekdays, " ") + ")"
}
