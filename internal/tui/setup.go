package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type SetupModel struct {
	serverInput textinput.Model
	inboxInput  textinput.Model
	focus       int
	error       string
	width       int
	height      int
}

// NewSetupModel prefills the wizard with the current settings.
func NewSetupModel(serverURL, inboxDir string) SetupModel {
	server := textinput.New()
	server.Placeholder = "http://127.0.0.1:5000"
	server.SetValue(serverURL)
	server.Focus()
	server.Width = 60

	inbox := textinput.New()
	inbox.Placeholder = "optional: folder to watch for dropped files"
	inbox.SetValue(inboxDir)
	inbox.Width = 60

	return SetupModel{
		serverInput: server,
		inboxInput:  inbox,
	}
}

func (m SetupModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m SetupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "tab", "down", "shift+tab", "up":
			m.toggleFocus()
			return m, nil

		case "enter":
			server := strings.TrimSpace(m.serverInput.Value())
			inbox := strings.TrimSpace(m.inboxInput.Value())

			if server == "" {
				m.error = "Server URL is required"
				return m, nil
			}
			if !strings.HasPrefix(server, "http://") && !strings.HasPrefix(server, "https://") {
				m.error = "Server URL must start with http:// or https://"
				return m, nil
			}

			m.error = ""
			return m, func() tea.Msg {
				return SetupSubmitMsg{
					ServerURL: strings.TrimRight(server, "/"),
					InboxDir:  inbox,
				}
			}
		}
		cmd = m.updateFocused(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case SetupErrorMsg:
		m.error = msg.Error

	default:
		cmd = m.updateFocused(msg)
	}

	return m, cmd
}

func (m *SetupModel) toggleFocus() {
	if m.focus == 0 {
		m.focus = 1
		m.serverInput.Blur()
		m.inboxInput.Focus()
		return
	}
	m.focus = 0
	m.inboxInput.Blur()
	m.serverInput.Focus()
}

func (m *SetupModel) updateFocused(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if m.focus == 0 {
		m.serverInput, cmd = m.serverInput.Update(msg)
	} else {
		m.inboxInput, cmd = m.inboxInput.Update(msg)
	}
	return cmd
}

func (m SetupModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("plagdrop - Setup") + "\n\n")
	b.WriteString("plagdrop sends dropped text to a similarity service and ranks the matches.\n\n")

	label := func(text string, idx int) string {
		if m.focus == idx {
			return activeStyle.Render("> " + text)
		}
		return "  " + text
	}

	style := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63")).
		Padding(0, 1)

	b.WriteString(label("Similarity Service URL:", 0) + "\n")
	b.WriteString(style.Render(m.serverInput.View()) + "\n\n")

	b.WriteString(label("Inbox Directory:", 1) + "\n")
	b.WriteString(style.Render(m.inboxInput.View()) + "\n")

	if m.error != "" {
		b.WriteString("\n" + errorStyle.Render("Error: "+m.error) + "\n")
	}

	b.WriteString("\n" + helpStyle.Render("tab switch field  enter save  esc cancel"))

	return b.String()
}
