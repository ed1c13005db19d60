package dashboard

import (
	"fmt"
	"os"
	"strings"

	"github.com/verte-zerg/concerto/internal/chart"
	"github.com/verte-zerg/concerto/internal/coverage"
	"github.com/verte-zerg/concerto/internal/model"
)

const cardIndent = "    "

// renderPrograms lays out one card per program and reports each card's line span.
func renderPrograms(programs []model.Program, workCount int, ratings model.RatingMap, cursor, width int) (string, []span) {
	lines := []string{
		mutedStyle.Render(fmt.Sprintf("%d programs / %d works", len(programs), workCount)),
		"",
	}
	if len(programs) == 0 {
		lines = append(lines, "No programs match the current filters.")
		return strings.Join(lines, "\n"), nil
	}

	spans := make([]span, 0, len(programs))
	textWidth := maxInt(10, width-len(cardIndent))
	for i, p := range programs {
		start := len(lines)
		lines = append(lines, cardTitle(p, ratings.Get(p.ID), i == cursor))
		for _, w := range p.Works {
			for _, line := range wrapText("• "+workLine(w), textWidth, "  ") {
				lines = append(lines, cardIndent+line)
			}
		}
		for _, field := range []struct {
			label  string
			values []string
		}{
			{"Conductor", p.Conductors},
			{"Sessions", p.Sessions},
			{"Series", p.Series},
		} {
			if len(field.values) == 0 {
				continue
			}
			text := field.label + ": " + strings.Join(field.values, ", ")
			for _, line := range wrapText(text, textWidth, "  ") {
				lines = append(lines, cardIndent+mutedStyle.Render(line))
			}
		}
		spans = append(spans, span{start: start, end: len(lines)})
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n"), spans
}

func cardTitle(p model.Program, r model.Rating, selected bool) string {
	marker := "  "
	id := titleStyle.Render(p.ID)
	if selected {
		marker = selectedStyle.Render("▶ ")
		id = selectedStyle.Render(p.ID)
	}
	rating := mutedStyle.Render(fmt.Sprintf("[%d %s]", r, r.Label()))
	if style, ok := ratingStyles[int(r)]; ok {
		rating = style.Render(fmt.Sprintf("[%d %s]", r, r.Label()))
	}
	return marker + id + "  " + rating
}

func workLine(w model.Work) string {
	if w.Composer == "" {
		return w.Title
	}
	return w.Title + " - " + w.Composer
}

// renderCoverage draws the ranked chart followed by the score table.
func renderCoverage(report coverage.Report, width int) string {
	if report.Empty() {
		return "Start rating programs to see coverage."
	}
	useColor := os.Getenv("NO_COLOR") == ""
	lines := chart.CoverageLines(report, chart.BarWidthFor(width), useColor)
	lines = append(lines, "")
	lines = append(lines, chart.CoverageTable(report)...)
	return strings.Join(lines, "\n")
}
