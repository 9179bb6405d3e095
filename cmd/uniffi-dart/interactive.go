package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/acterglobal/uniffi-dart-sub000/bindgen"
	"github.com/acterglobal/uniffi-dart-sub000/config"
	"github.com/acterglobal/uniffi-dart-sub000/model"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// chrome is the number of lines the title and help take in view mode.
const chrome = 4

type browserState int

const (
	stateSelectSection browserState = iota
	stateViewSection
)

// entry is one browsable page: a rendered section or the symbol table.
type entry struct {
	name string
	text string
}

type browserModel struct {
	err        error
	filename   string
	configPath string
	entries    []entry
	selected   int
	state      browserState
	view       viewport.Model
}

type loadedMsg struct {
	err     error
	entries []entry
}

func newBrowserModel(filename, configPath string) *browserModel {
	return &browserModel{
		filename:   filename,
		configPath: configPath,
		state:      stateSelectSection,
		view:       viewport.New(80, 20),
	}
}

func (m *browserModel) Init() tea.Cmd {
	return m.render
}

// render generates the bindings and collects the pages to browse.
func (m *browserModel) render() tea.Msg {
	iface, err := model.Load(m.filename)
	if err != nil {
		return loadedMsg{err: err}
	}
	cfg, err := config.Load(m.configPath, iface.Namespace.Name)
	if err != nil {
		return loadedMsg{err: err}
	}
	sections, err := bindgen.Render(iface, cfg)
	if err != nil {
		return loadedMsg{err: err}
	}

	entries := make([]entry, 0, len(sections)+1)
	for _, s := range sections {
		entries = append(entries, entry{name: s.Name, text: s.Text})
	}
	entries = append(entries, entry{name: "symbols", text: symbolTable(iface)})
	return loadedMsg{entries: entries}
}

// symbolTable lists every native entry point the bindings bind.
func symbolTable(iface *model.Interface) string {
	var b strings.Builder
	seen := make(map[string]bool)
	for _, fn := range iface.FfiFunctions() {
		if seen[fn.Name] {
			continue
		}
		seen[fn.Name] = true
		fmt.Fprintf(&b, "%s %s\n", fn.Name, fn.SignatureString())
	}
	for _, cs := range iface.Checksums() {
		fmt.Fprintf(&b, "%s = %d\n", cs.Symbol, cs.Expected)
	}
	return b.String()
}

func (m *browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.view.Width = msg.Width
		m.view.Height = max(msg.Height-chrome, 1)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "up", "k":
			if m.state == stateSelectSection && m.selected > 0 {
				m.selected--
				return m, nil
			}

		case "down", "j":
			if m.state == stateSelectSection && m.selected < len(m.entries)-1 {
				m.selected++
				return m, nil
			}

		case "enter":
			if m.state == stateSelectSection && len(m.entries) > 0 {
				m.view.SetContent(m.entries[m.selected].text)
				m.view.GotoTop()
				m.state = stateViewSection
				return m, nil
			}

		case "esc":
			if m.state == stateViewSection {
				m.state = stateSelectSection
				return m, nil
			}
		}

	case loadedMsg:
		m.err = msg.err
		m.entries = msg.entries
		return m, nil
	}

	if m.state == stateViewSection {
		var cmd tea.Cmd
		m.view, cmd = m.view.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *browserModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}
	if m.entries == nil {
		return "Rendering bindings..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("uniffi-dart"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectSection:
		b.WriteString("Select a section:\n\n")
		for i, e := range m.entries {
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + e.name))
			} else {
				b.WriteString("  " + nameStyle.Render(e.name))
			}
			b.WriteString(" ")
			b.WriteString(infoStyle.Render(fmt.Sprintf("(%d lines)", strings.Count(e.text, "\n"))))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter view • q quit"))

	case stateViewSection:
		b.Reset()
		b.WriteString(titleStyle.Render(m.entries[m.selected].name))
		b.WriteString(" ")
		b.WriteString(infoStyle.Render(fmt.Sprintf("%3.f%%", m.view.ScrollPercent()*100)))
		b.WriteString("\n\n")
		b.WriteString(m.view.View())
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ scroll • esc back • q quit"))
	}

	return b.String()
}

func runInteractive(filename, configPath string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("interactive mode needs a terminal")
	}
	p := tea.NewProgram(newBrowserModel(filename, configPath), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
