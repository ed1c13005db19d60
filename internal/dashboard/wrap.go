package dashboard

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

type cell struct {
	r       rune
	width   int
	isSpace bool
}

func cellsOf(s string) []cell {
	out := make([]cell, 0, len(s))
	for _, r := range s {
		out = append(out, cell{r: r, width: runewidth.RuneWidth(r), isSpace: r == ' '})
	}
	return out
}

// wrapText breaks s into lines no wider than width display cells, preferring
// to break at spaces. Continuation lines are prefixed with indent.
func wrapText(s string, width int, indent string) []string {
	if width <= 0 {
		return []string{s}
	}
	indentWidth := runewidth.StringWidth(indent)
	cells := cellsOf(s)
	var lines []string
	line := make([]cell, 0, len(cells))
	lineWidth := 0
	lastSpaceIdx := -1
	limit := width

	flush := func(part []cell) {
		prefix := ""
		if len(lines) > 0 {
			prefix = indent
		}
		lines = append(lines, prefix+strings.TrimRight(renderCells(part), " "))
		limit = maxInt(1, width-indentWidth)
	}

	for i := 0; i < len(cells); {
		item := cells[i]
		if lineWidth+item.width > limit && len(line) > 0 {
			if lastSpaceIdx >= 0 {
				flush(line[:lastSpaceIdx])
				line = append([]cell{}, line[lastSpaceIdx+1:]...)
				lineWidth = lineWidthOf(line)
				lastSpaceIdx = lastSpaceIndex(line)
			} else {
				flush(line)
				line = line[:0]
				lineWidth = 0
				lastSpaceIdx = -1
			}
			continue
		}
		if item.isSpace && len(line) == 0 && len(lines) > 0 {
			i++
			continue
		}
		line = append(line, item)
		lineWidth += item.width
		if item.isSpace {
			lastSpaceIdx = len(line) - 1
		}
		i++
	}
	if len(line) > 0 || len(lines) == 0 {
		flush(line)
	}
	return lines
}

func renderCells(cells []cell) string {
	var b strings.Builder
	for _, c := range cells {
		b.WriteRune(c.r)
	}
	return b.String()
}

func lineWidthOf(line []cell) int {
	total := 0
	for _, item := range line {
		total += item.width
	}
	return total
}

func lastSpaceIndex(line []cell) int {
	for i := len(line) - 1; i >= 0; i-- {
		if line[i].isSpace {
			return i
		}
	}
	return -1
}
