package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/concerto/internal/session"
)

// Auth form field keys.
const (
	fieldEmail    = "email"
	fieldName     = "name"
	fieldPassword = "password"
	fieldConfirm  = "confirm"
)

func newInput(prompt string, secret bool) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	if secret {
		input.EchoMode = textinput.EchoPassword
		input.EchoCharacter = '•'
	}
	return input
}

// initAuthInputs builds the login form, or the registration form when registering.
func (m *Model) initAuthInputs(email string) {
	m.authFields = []string{fieldEmail, fieldPassword}
	m.authInputs = []textinput.Model{
		newInput("Email:    ", false),
		newInput("Password: ", true),
	}
	if m.registering {
		m.authFields = []string{fieldEmail, fieldName, fieldPassword, fieldConfirm}
		m.authInputs = []textinput.Model{
			newInput("Email:    ", false),
			newInput("Name:     ", false),
			newInput("Password: ", true),
			newInput("Confirm:  ", true),
		}
	}
	m.authInputs[0].SetValue(email)
	m.updateLayout()
	if email != "" {
		m.setAuthIndex(1)
		return
	}
	m.setAuthIndex(0)
}

func (m *Model) setAuthIndex(idx int) tea.Cmd {
	count := len(m.authInputs)
	if count == 0 {
		return nil
	}
	if idx < 0 {
		idx = count - 1
	}
	if idx >= count {
		idx = 0
	}
	m.authIndex = idx
	var cmd tea.Cmd
	for i := range m.authInputs {
		if i == m.authIndex {
			cmd = m.authInputs[i].Focus()
		} else {
			m.authInputs[i].Blur()
		}
	}
	return cmd
}

func (m *Model) authValue(field string) string {
	for i, key := range m.authFields {
		if key == field {
			return m.authInputs[i].Value()
		}
	}
	return ""
}

func (m *Model) updateAuth(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyCtrlR:
		m.registering = !m.registering
		m.notice = session.Notice{}
		m.initAuthInputs(m.authValue(fieldEmail))
		return m, textinput.Blink
	case tea.KeyTab, tea.KeyDown:
		return m, m.setAuthIndex(m.authIndex + 1)
	case tea.KeyShiftTab, tea.KeyUp:
		return m, m.setAuthIndex(m.authIndex - 1)
	case tea.KeyEnter:
		return m.submitAuth()
	}
	var cmd tea.Cmd
	m.authInputs[m.authIndex], cmd = m.authInputs[m.authIndex].Update(msg)
	return m, cmd
}

func (m *Model) submitAuth() (tea.Model, tea.Cmd) {
	email := m.authValue(fieldEmail)
	password := m.authValue(fieldPassword)

	if m.registering {
		err := m.session.Register(m.ctx, email, m.authValue(fieldName), password, m.authValue(fieldConfirm))
		if err != nil {
			m.notice = session.Failure(err)
			return m, nil
		}
		m.registering = false
		m.initAuthInputs(strings.TrimSpace(email))
		m.notice = session.Success("Account created. Log in to continue.")
		return m, textinput.Blink
	}

	notice, err := m.session.Login(m.ctx, email, password)
	if err != nil {
		m.notice = session.Failure(err)
		return m, nil
	}
	if notice.Empty() {
		notice = session.Info(fmt.Sprintf("Welcome, %s.", m.session.Name))
	}
	m.notice = notice
	m.mode = modeMain
	m.cursor = 0
	m.refresh()
	return m, tea.ClearScreen
}

func (m *Model) renderAuth() string {
	title := "Log in"
	help := "enter: log in  tab: next field  ctrl+r: register  esc: quit"
	if m.registering {
		title = "Register"
		help = "enter: create account  tab: next field  ctrl+r: back to log in  esc: quit"
	}
	lines := []string{titleStyle.Render("Concerto · " + title), ""}
	for _, input := range m.authInputs {
		lines = append(lines, input.View())
	}
	lines = append(lines, "", headerStyle.Render(help))
	if !m.notice.Empty() {
		lines = append(lines, renderNotice(m.notice))
	}
	return strings.Join(lines, "\n")
}
