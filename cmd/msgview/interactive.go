package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/msg-runtime/internal/textsink"
	"github.com/wippyai/msg-runtime/msg"
	"github.com/wippyai/msg-runtime/schema"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	hiddenStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Strikethrough(true)

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const listWidth = 32

type interactiveModel struct {
	err      error
	message  *msg.Message
	shown    map[schema.Number]bool
	cfg      config
	fields   []*schema.Field
	view     viewport.Model
	selected int
	ready    bool
}

type loadedMsg struct {
	err     error
	message *msg.Message
}

func newInteractiveModel(cfg config) *interactiveModel {
	return &interactiveModel{cfg: cfg}
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.load
}

func (m *interactiveModel) load() tea.Msg {
	reg, err := schema.LoadFile(m.cfg.schemaFile)
	if err != nil {
		return loadedMsg{err: err}
	}
	message, err := load(m.cfg, reg)
	if err != nil {
		return loadedMsg{err: err}
	}
	return loadedMsg{message: message}
}

func (m *interactiveModel) Update(tmsg tea.Msg) (tea.Model, tea.Cmd) {
	switch tmsg := tmsg.(type) {
	case tea.KeyMsg:
		switch tmsg.String() {
		case "ctrl+c", "q":
			if m.message != nil {
				m.message.Unref()
				m.message = nil
			}
			return m, tea.Quit

		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}
			return m, nil

		case "down", "j":
			if m.selected < len(m.fields)-1 {
				m.selected++
			}
			return m, nil

		case " ", "enter":
			if len(m.fields) > 0 {
				n := m.fields[m.selected].Number
				m.shown[n] = !m.shown[n]
				m.render()
			}
			return m, nil

		case "a":
			for _, f := range m.fields {
				m.shown[f.Number] = true
			}
			m.render()
			return m, nil

		case "+":
			m.cfg.depth++
			m.render()
			return m, nil

		case "-":
			if m.cfg.depth > 0 {
				m.cfg.depth--
				m.render()
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		w := max(tmsg.Width-listWidth-6, 20)
		h := max(tmsg.Height-6, 5)
		if !m.ready {
			m.view = viewport.New(w, h)
			m.ready = true
		} else {
			m.view.Width = w
			m.view.Height = h
		}
		m.render()

	case loadedMsg:
		if tmsg.err != nil {
			m.err = tmsg.err
			return m, nil
		}
		m.message = tmsg.message
		m.fields = m.message.Def().Fields()
		m.shown = make(map[schema.Number]bool, len(m.fields))
		initial, err := parseFields(m.cfg.fields)
		if err != nil {
			m.err = err
			return m, nil
		}
		for _, f := range m.fields {
			m.shown[f.Number] = initial == nil || initial[f.Number]
		}
		m.render()
	}

	var cmd tea.Cmd
	if m.ready {
		m.view, cmd = m.view.Update(tmsg)
	}
	return m, cmd
}

// render re-runs the traversal with the current field selection. Hidden
// fields have no handler, so the traversal never visits them.
func (m *interactiveModel) render() {
	if m.message == nil || !m.ready {
		return
	}
	opts := textOptions(m.shown, m.cfg)
	opts.Style = terminalStyle()

	var b strings.Builder
	if err := textsink.Render(&b, m.message, opts); err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("\nError: %v", err)))
	}
	m.view.SetContent(b.String())
}

func (m *interactiveModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}
	if m.message == nil || !m.ready {
		return "Loading message..."
	}

	var list strings.Builder
	for i, f := range m.fields {
		label := fmt.Sprintf("%3d %s", f.Number, fieldLabel(f))
		if len(label) > listWidth-2 {
			label = label[:listWidth-2]
		}
		if !m.shown[f.Number] {
			label = hiddenStyle.Render(label)
		}
		if i == m.selected {
			list.WriteString(selectedStyle.Render("> " + label))
		} else {
			list.WriteString("  " + label)
		}
		list.WriteString("\n")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Message Viewer"))
	b.WriteString(" ")
	b.WriteString(m.message.Def().Name())
	if m.cfg.depth > 0 {
		b.WriteString(fmt.Sprintf("  collapse below depth %d", m.cfg.depth))
	}
	b.WriteString("\n\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		paneStyle.Width(listWidth).Render(list.String()),
		paneStyle.Render(m.view.View()),
	))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("↑/↓ select • space toggle • a show all • +/- collapse depth • pgup/pgdn scroll • q quit"))
	return b.String()
}

func fieldLabel(f *schema.Field) string {
	name := f.Name
	if name == "" {
		name = "_"
	}
	if f.Repeated {
		return name + " []" + f.Kind.String()
	}
	return name + " " + f.Kind.String()
}

func runInteractive(cfg config) error {
	p := tea.NewProgram(newInteractiveModel(cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
