package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/nuzlocke-gauntlet/internal/registry"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/storage"
)

// Runs board layout constants
const (
	minWidthForSidebar = 96  // Minimum width to show gauntlet list sidebar
	sidebarWidth       = 22  // Width of gauntlet list sidebar
	maxRuns            = 100 // Max runs to load
)

// RunLister loads the best runs recorded for a gauntlet.
type RunLister interface {
	TopRuns(gauntletID string, limit int) ([]storage.RunEntry, error)
}

// RunsKeyMap defines the key bindings for the runs board.
type RunsKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	Back     key.Binding
	Quit     key.Binding
	NextList key.Binding
	PrevList key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k RunsKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.NextList, k.PrevList, k.Back}
}

// FullHelp returns key bindings for the full help view.
func (k RunsKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.NextList, k.PrevList},
		{k.Back, k.Quit},
	}
}

// DefaultRunsKeyMap returns default key bindings.
func DefaultRunsKeyMap() RunsKeyMap {
	return RunsKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "scroll down"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("left/h", "prev gauntlet"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("right/l", "next gauntlet"),
		),
		NextList: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next gauntlet"),
		),
		PrevList: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("S-tab", "prev gauntlet"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "b"),
			key.WithHelp("esc/b", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// RunsModel is the Bubble Tea model for the best-runs board.
type RunsModel struct {
	gauntlets   []registry.Info
	cursor      int // Currently selected gauntlet index
	store       RunLister
	runs        []storage.RunEntry
	loadErr     error
	table       table.Model
	help        help.Model
	keys        RunsKeyMap
	width       int
	height      int
	quitting    bool
	goingBack   bool // True if user pressed back (not quit)
	showSidebar bool // Whether to show gauntlet list sidebar
}

// NewRunsModel creates a new runs board over the registered gauntlets.
func NewRunsModel(store RunLister, width, height int) RunsModel {
	h := help.New()
	h.ShowAll = false

	m := RunsModel{
		gauntlets:   registry.List(),
		store:       store,
		keys:        DefaultRunsKeyMap(),
		help:        h,
		width:       width,
		height:      height,
		showSidebar: width >= minWidthForSidebar,
	}
	m.table = m.createTable()

	if len(m.gauntlets) > 0 {
		m.loadRuns(m.gauntlets[0].ID)
	}

	return m
}

// createTable creates a new table sized to the current layout.
func (m *RunsModel) createTable() table.Model {
	columns := []table.Column{
		{Title: "Rank", Width: 5},
		{Title: "Outcome", Width: 10},
		{Title: "Progress", Width: 9},
		{Title: "Reward", Width: 8},
		{Title: "Policy", Width: 10},
		{Title: "Date", Width: 12},
	}

	tableWidth := m.width - 4
	if m.showSidebar {
		tableWidth -= sidebarWidth + 3
	}
	if fixed := 5 + 10 + 9 + 8 + 12 + 12; tableWidth > fixed+10 {
		columns[4].Width = min(tableWidth-fixed, 16)
	}

	height := m.height - 8 // header, help, margins
	if height < 3 {
		height = 3
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(height),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return t
}

// loadRuns loads the best runs for the given gauntlet.
func (m *RunsModel) loadRuns(gauntletID string) {
	m.runs, m.loadErr = nil, nil
	if m.store != nil {
		m.runs, m.loadErr = m.store.TopRuns(gauntletID, maxRuns)
	}
	m.updateTableRows()
}

// updateTableRows refills the table from the loaded runs.
func (m *RunsModel) updateTableRows() {
	rows := make([]table.Row, len(m.runs))
	for i, r := range m.runs {
		rows[i] = table.Row{
			fmt.Sprintf("#%d", i+1),
			string(r.Outcome),
			fmt.Sprintf("%d/%d", r.Progress, r.NodeCount),
			fmt.Sprintf("%.2f", r.TotalReward),
			r.Policy,
			r.CreatedAt.Format("Jan 02 15:04"),
		}
	}
	m.table.SetRows(rows)
	m.table.GotoTop()
}

func (m *RunsModel) moveCursor(delta int) {
	if len(m.gauntlets) == 0 {
		return
	}
	m.cursor = (m.cursor + delta + len(m.gauntlets)) % len(m.gauntlets)
	m.loadRuns(m.gauntlets[m.cursor].ID)
}

// Init initializes the runs board model.
func (m RunsModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the runs board.
func (m RunsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Back):
			m.goingBack = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.NextList), key.Matches(msg, m.keys.Right):
			m.moveCursor(1)
			return m, nil

		case key.Matches(msg, m.keys.PrevList), key.Matches(msg, m.keys.Left):
			m.moveCursor(-1)
			return m, nil

		case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
			// Pass to table for scrolling
			m.table, cmd = m.table.Update(msg)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.showSidebar = m.width >= minWidthForSidebar
		m.table = m.createTable()
		m.updateTableRows()
		m.help.Width = msg.Width
		return m, nil
	}

	// Pass other messages to table
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the runs board.
func (m RunsModel) View() string {
	if m.quitting || m.goingBack {
		return ""
	}

	var b strings.Builder

	title := "BEST RUNS"
	if len(m.gauntlets) > 0 {
		title = fmt.Sprintf("BEST RUNS - %s", m.gauntlets[m.cursor].Title)
	}

	b.WriteString(centerText(titleStyle.Render(title), m.width))
	b.WriteString("\n\n")

	if m.showSidebar {
		// Wide layout: sidebar + table
		b.WriteString(m.renderWideLayout())
	} else {
		// Narrow layout: gauntlet tabs + table
		b.WriteString(m.renderNarrowLayout())
	}

	// Help bar
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.help.View(m.keys)))

	return b.String()
}

// renderWideLayout renders the runs board with a gauntlet sidebar.
func (m RunsModel) renderWideLayout() string {
	sidebarStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(sidebarWidth).
		Padding(0, 1)

	var sidebar strings.Builder
	sidebar.WriteString("Gauntlets\n")
	sidebar.WriteString(strings.Repeat("-", sidebarWidth-4))
	sidebar.WriteString("\n")

	for i, g := range m.gauntlets {
		name := truncate(g.Title, sidebarWidth-6)
		if i == m.cursor {
			sidebar.WriteString(titleStyle.Render("> " + name))
		} else {
			sidebar.WriteString("  " + name)
		}
		sidebar.WriteString("\n")
	}

	sidebarRendered := sidebarStyle.Render(sidebar.String())

	tableRendered := boxStyle.Render(m.renderTableContent())

	return lipgloss.JoinHorizontal(lipgloss.Top, sidebarRendered, "  ", tableRendered)
}

// renderNarrowLayout renders the runs board with gauntlet tabs above the table.
func (m RunsModel) renderNarrowLayout() string {
	var b strings.Builder

	activeTabStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Padding(0, 1)

	tabs := make([]string, len(m.gauntlets))
	for i, g := range m.gauntlets {
		shortName := truncate(g.Title, 10)
		if i == m.cursor {
			tabs[i] = activeTabStyle.Render(shortName)
		} else {
			tabs[i] = dimStyle.Render(" " + shortName + " ")
		}
	}

	tabLine := strings.Join(tabs, " ")
	if lipgloss.Width(tabLine) > m.width-4 && len(m.gauntlets) > 0 {
		tabLine = fmt.Sprintf("< %s >", m.gauntlets[m.cursor].Title)
	}
	b.WriteString(centerText(tabLine, m.width))
	b.WriteString("\n\n")

	b.WriteString(centerText(boxStyle.Render(m.renderTableContent()), m.width))

	return b.String()
}

// renderTableContent renders the table or empty message.
func (m RunsModel) renderTableContent() string {
	if m.loadErr != nil {
		return badStyle.Render("Cannot load runs: " + m.loadErr.Error())
	}
	if len(m.runs) == 0 {
		emptyStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true).
			Padding(2, 4)
		return emptyStyle.Render("No runs recorded yet.\nFinish a gauntlet to fill the board!")
	}

	return m.table.View()
}

// IsGoingBack returns true if user wants to go back to menu.
func (m RunsModel) IsGoingBack() bool {
	return m.goingBack
}

// IsQuitting returns true if user wants to quit entirely.
func (m RunsModel) IsQuitting() bool {
	return m.quitting
}

// RunRuns runs the best-runs board.
// Returns true if user wants to go back to menu, false if quitting.
func RunRuns(store RunLister, width, height int) (goBack bool, err error) {
	model := NewRunsModel(store, width, height)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	finalModel, err := p.Run()
	if err != nil {
		return false, err
	}

	m, ok := finalModel.(RunsModel)
	if !ok {
		return false, nil
	}

	return m.IsGoingBack(), nil
}
