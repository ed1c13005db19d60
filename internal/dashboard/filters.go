package dashboard

import (
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/concerto/internal/model"
	"github.com/verte-zerg/concerto/internal/session"
)

var dimensionTitles = map[model.Dimension]string{
	model.DimMonth:    "Month",
	model.DimWeekday:  "Weekday",
	model.DimSeries:   "Series",
	model.DimComposer: "Composer",
}

type filterOption struct {
	value string
	label string
}

// optionsFor lists the selectable values of a dimension. Months toggle by number
// and display as labels.
func optionsFor(opts model.Options, dim model.Dimension) []filterOption {
	var values []string
	switch dim {
	case model.DimMonth:
		out := make([]filterOption, 0, len(opts.Months))
		for _, month := range opts.Months {
			label := model.MonthLabel(month)
			if label == "" {
				label = strconv.Itoa(month)
			}
			out = append(out, filterOption{value: strconv.Itoa(month), label: label})
		}
		return out
	case model.DimWeekday:
		values = opts.Weekdays
	case model.DimSeries:
		values = opts.Series
	case model.DimComposer:
		values = opts.Composers
	}
	out := make([]filterOption, 0, len(values))
	for _, v := range values {
		out = append(out, filterOption{value: v, label: v})
	}
	return out
}

func (m *Model) currentDimension() model.Dimension {
	return model.Dimensions[m.filterDim]
}

func (m *Model) clampFilterCursors() {
	for i, dim := range model.Dimensions {
		count := len(optionsFor(m.options, dim))
		if m.filterCursor[i] >= count {
			m.filterCursor[i] = maxInt(0, count-1)
		}
	}
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	dim := m.currentDimension()
	opts := optionsFor(m.options, dim)
	switch msg.String() {
	case "esc", "enter", "/", "f", "q":
		m.mode = modeMain
		return m, nil
	case "tab", "right", "l":
		m.filterDim = (m.filterDim + 1) % len(model.Dimensions)
	case "shift+tab", "left", "h":
		m.filterDim = (m.filterDim + len(model.Dimensions) - 1) % len(model.Dimensions)
	case "up", "k":
		m.filterCursor[m.filterDim] = maxInt(0, m.filterCursor[m.filterDim]-1)
	case "down", "j":
		m.filterCursor[m.filterDim] = minInt(maxInt(0, len(opts)-1), m.filterCursor[m.filterDim]+1)
	case " ", "x":
		if len(opts) == 0 {
			return m, nil
		}
		if err := m.session.Toggle(dim, opts[m.filterCursor[m.filterDim]].value); err != nil {
			m.notice = session.Failure(err)
			return m, nil
		}
		m.cursor = 0
		m.refresh()
	case "c":
		m.session.ClearFilters()
		m.cursor = 0
		m.refresh()
	}
	return m, nil
}

func (m *Model) renderFilterTabs() string {
	parts := make([]string, 0, len(model.Dimensions))
	for i, dim := range model.Dimensions {
		title := dimensionTitles[dim]
		if n := len(m.session.Selection.Values(dim)); n > 0 {
			title += " (" + strconv.Itoa(n) + ")"
		}
		if i == m.filterDim {
			parts = append(parts, activeNavStyle.Render(title))
		} else {
			parts = append(parts, inactiveNavStyle.Render(title))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderFilterPanel() string {
	dim := m.currentDimension()
	opts := optionsFor(m.options, dim)
	lines := []string{titleStyle.Render("Filters"), m.renderFilterTabs()}

	if len(opts) == 0 {
		lines = append(lines, mutedStyle.Render("No values available."))
	}
	visible := maxInt(3, m.height-16)
	first := 0
	cur := m.filterCursor[m.filterDim]
	if cur >= visible {
		first = cur - visible + 1
	}
	last := minInt(len(opts), first+visible)
	for i := first; i < last; i++ {
		box := "[ ]"
		if m.session.Selection.Has(dim, opts[i].value) {
			box = "[x]"
		}
		line := box + " " + opts[i].label
		if i == cur {
			line = selectedStyle.Render("▶ " + line)
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}
	if last < len(opts) {
		lines = append(lines, mutedStyle.Render("  ..."))
	}

	lines = append(lines,
		"",
		headerStyle.Render("Active: "+selectionSummary(m.session.Selection)),
		headerStyle.Render("tab/left/right: dimension  up/down: move  space: toggle  c: clear  enter/esc: close"),
	)
	if !m.notice.Empty() && m.notice.Level == session.LevelError {
		lines = append(lines, renderNotice(m.notice))
	}
	return strings.Join(lines, "\n")
}
