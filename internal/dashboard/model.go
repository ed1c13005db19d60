// Package dashboard provides the Bubble Tea concert dashboard.
package dashboard

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/concerto/internal/catalog"
	"github.com/verte-zerg/concerto/internal/model"
	"github.com/verte-zerg/concerto/internal/session"
)

type mode int

const (
	modeAuth mode = iota
	modeMain
	modeFilter
	modeReset
)

const (
	tabPrograms = iota
	tabCoverage
)

// Model implements the Bubble Tea dashboard.
type Model struct {
	ctx     context.Context
	session *session.Session

	width  int
	height int

	mode     mode
	tabs     []string
	viewport viewport.Model
	notice   session.Notice

	registering bool
	authFields  []string
	authInputs  []textinput.Model
	authIndex   int

	options   model.Options
	programs  []model.Program
	workCount int
	cursor    int
	cardSpans []span

	filterDim    int
	filterCursor []int
}

// span is the [start, end) line range of one card in the viewport content.
type span struct {
	start int
	end   int
}

// NewModel constructs a dashboard over a signed-out session.
func NewModel(ctx context.Context, s *session.Session) *Model {
	m := &Model{
		ctx:          ctx,
		session:      s,
		tabs:         []string{"Rate programs", "Coverage analysis"},
		viewport:     viewport.New(0, 0),
		filterCursor: make([]int, len(model.Dimensions)),
	}
	m.mode = modeAuth
	if s.Authenticated() {
		m.mode = modeMain
	}
	m.initAuthInputs("")
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.refresh()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch m.mode {
		case modeAuth:
			return m.updateAuth(msg)
		case modeFilter:
			return m.updateFilter(msg)
		case modeReset:
			return m.updateReset(msg)
		default:
			return m.updateMain(msg)
		}
	}
	return m, nil
}

func (m *Model) activeTab() int {
	if m.session.Page == session.PageCoverage {
		return tabCoverage
	}
	return tabPrograms
}

func (m *Model) updateMain(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "left", "h", "right", "l", "tab":
		m.session.TogglePage()
		m.refresh()
		m.viewport.GotoTop()
		return m, tea.ClearScreen
	case "up", "k":
		if m.activeTab() == tabPrograms {
			m.moveCursor(-1)
			return m, nil
		}
	case "down", "j":
		if m.activeTab() == tabPrograms {
			m.moveCursor(1)
			return m, nil
		}
	case "g", "home":
		m.cursor = 0
		m.viewport.GotoTop()
		m.refresh()
		return m, nil
	case "G", "end":
		m.cursor = maxInt(0, len(m.programs)-1)
		m.refresh()
		m.viewport.GotoBottom()
		return m, nil
	case "0", "1", "2", "3":
		if m.activeTab() == tabPrograms {
			m.rateSelected(model.Rating(msg.String()[0] - '0'))
			return m, nil
		}
	case "/", "f":
		m.mode = modeFilter
		return m, nil
	case "c":
		m.session.ClearFilters()
		m.cursor = 0
		m.notice = session.Info("Filters cleared.")
		m.refresh()
		return m, nil
	case "s":
		m.save()
		return m, nil
	case "o":
		m.load()
		return m, nil
	case "R":
		m.session.RequestReset()
		m.mode = modeReset
		return m, nil
	case "x":
		m.session.Logout()
		m.mode = modeAuth
		m.registering = false
		m.initAuthInputs("")
		m.notice = session.Info("Logged out.")
		m.refresh()
		return m, textinput.Blink
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) updateReset(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		if m.session.ConfirmReset() {
			m.notice = session.Info("Filters and ratings were reset.")
		}
		m.cursor = 0
		m.mode = modeMain
		m.refresh()
	case "n", "N", "esc", "q":
		m.session.CancelReset()
		m.mode = modeMain
	}
	return m, nil
}

func (m *Model) moveCursor(delta int) {
	if len(m.programs) == 0 {
		return
	}
	m.cursor = maxInt(0, minInt(len(m.programs)-1, m.cursor+delta))
	m.refresh()
}

func (m *Model) rateSelected(r model.Rating) {
	if m.cursor >= len(m.programs) {
		return
	}
	p := m.programs[m.cursor]
	if err := m.session.Rate(p.ID, r); err != nil {
		m.notice = session.Failure(err)
		return
	}
	m.notice = session.Info(fmt.Sprintf("%s rated %d (%s).", p.ID, r, r.Label()))
	m.refresh()
}

func (m *Model) save() {
	n, err := m.session.Save(m.ctx)
	if err != nil {
		m.notice = session.Failure(err)
		return
	}
	m.notice = session.SavedNotice(n)
}

func (m *Model) load() {
	n, err := m.session.Load(m.ctx)
	if err != nil {
		m.notice = session.Failure(err)
		return
	}
	m.notice = session.LoadedNotice(n)
	m.refresh()
}

// refresh resolves the selection and re-renders the active tab.
func (m *Model) refresh() {
	if !m.session.Authenticated() {
		m.programs = nil
		m.viewport.SetContent("")
		return
	}
	view := m.session.View()
	m.options = view.Options
	m.programs = catalog.GroupPrograms(view.Rows)
	m.workCount = catalog.CountWorks(view.Rows)
	if m.cursor >= len(m.programs) {
		m.cursor = maxInt(0, len(m.programs)-1)
	}
	m.clampFilterCursors()

	width := m.width
	if width <= 0 {
		width = 80
	}
	if m.activeTab() == tabCoverage {
		m.cardSpans = nil
		m.viewport.SetContent(renderCoverage(m.session.Coverage(), width))
		return
	}
	content, spans := renderPrograms(m.programs, m.workCount, m.session.Ratings, m.cursor, width)
	m.cardSpans = spans
	m.viewport.SetContent(content)
	m.scrollToCursor()
}

func (m *Model) scrollToCursor() {
	if m.cursor >= len(m.cardSpans) || m.viewport.Height <= 0 {
		return
	}
	sp := m.cardSpans[m.cursor]
	if sp.start < m.viewport.YOffset {
		m.viewport.SetYOffset(sp.start)
		return
	}
	if sp.end > m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(minInt(sp.start, sp.end-m.viewport.Height))
	}
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := maxInt(1, lipgloss.Height(activeNavStyle.Render("X")))
	headerHeight = tabsHeight + 1
	footerHeight = 2
	bodyHeight = maxInt(1, m.height-headerHeight-footerHeight)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.viewport.Width = m.width
	m.viewport.Height = bodyHeight
	for i := range m.authInputs {
		promptWidth := lipgloss.Width(m.authInputs[i].Prompt)
		m.authInputs[i].Width = maxInt(10, modalWidth(m.width)-6-promptWidth)
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	switch m.mode {
	case modeAuth:
		return m.place(m.renderAuth(), modalStyle)
	case modeFilter:
		return m.place(m.renderFilterPanel(), modalStyle)
	case modeReset:
		return m.place(m.renderResetConfirm(), dangerModalStyle)
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.viewport.View(), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) place(content string, style lipgloss.Style) string {
	box := style.Width(modalWidth(m.width)).Render(content)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab() {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	summary := fmt.Sprintf("%s <%s>  Filters: %s", m.session.Name, m.session.Email, selectionSummary(m.session.Selection))
	return m.renderTabs() + "\n" + headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderHelp() string {
	help := "Nav: left/right  Move: up/down  Rate: 0-3  Filters: /  Clear: c  Save: s  Load: o  Reset: R  Logout: x  Quit: q"
	if m.activeTab() == tabCoverage {
		help = "Nav: left/right  Scroll: up/down/pgup/pgdn  Filters: /  Save: s  Load: o  Reset: R  Logout: x  Quit: q"
	}
	return headerStyle.Render(truncateLine(help, m.width))
}

func (m *Model) renderFooter() string {
	return m.renderHelp() + "\n" + renderNotice(m.notice)
}

func (m *Model) renderResetConfirm() string {
	return strings.Join([]string{
		titleStyle.Render("Reset everything?"),
		"",
		"Clears every filter and rating of this session.",
		"Saved rating files are not touched.",
		"",
		headerStyle.Render("y: reset  n/esc: cancel"),
	}, "\n")
}

// selectionSummary renders the active filters, e.g. "month=Mar,Apr series=A".
func selectionSummary(sel model.Selection) string {
	if sel.IsEmpty() {
		return "none"
	}
	parts := make([]string, 0, len(model.Dimensions))
	for _, dim := range model.Dimensions {
		values := sel.Values(dim)
		if len(values) == 0 {
			continue
		}
		if dim == model.DimMonth {
			labels := make([]string, 0, len(sel.Months))
			for _, month := range sel.Months {
				labels = append(labels, model.MonthLabel(month))
			}
			values = labels
		}
		parts = append(parts, string(dim)+"="+strings.Join(values, ","))
	}
	return strings.Join(parts, " ")
}
