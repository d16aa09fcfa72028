package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/nuzlocke-gauntlet/internal/core"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/runner"
)

// Store is what a session needs from run storage.
type Store interface {
	runner.ResultSaver
	RunLister
}

type screen int

const (
	screenMenu screen = iota
	screenPlay
	screenRuns
)

// SessionModel manages the full session flow: menu -> play or runs -> menu.
// It is the top-level model for SSH sessions and the bare CLI.
type SessionModel struct {
	store    Store // Optional, can be nil
	factory  EnvFactory
	config   core.RuntimeConfig
	username string
	width    int
	height   int

	screen   screen
	menu     MenuModel
	play     PlayModel
	runs     RunsModel
	err      string // last env creation error, shown on the menu
	quitting bool
}

// NewSessionModel creates a new session model.
func NewSessionModel(store Store, factory EnvFactory, cfg core.RuntimeConfig, username string, width, height int) SessionModel {
	return SessionModel{
		store:    store,
		factory:  factory,
		config:   cfg,
		username: username,
		width:    width,
		height:   height,
		menu:     NewMenuModel(width, height),
	}
}

// Init initializes the session.
func (m SessionModel) Init() tea.Cmd {
	return m.menu.Init()
}

// Update routes messages to the active screen.
func (m SessionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if wsm, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = wsm.Width
		m.height = wsm.Height
	}

	switch m.screen {
	case screenPlay:
		return m.updatePlay(msg)
	case screenRuns:
		return m.updateRuns(msg)
	}
	return m.updateMenu(msg)
}

// updateMenu handles updates when in menu mode.
func (m SessionModel) updateMenu(msg tea.Msg) (tea.Model, tea.Cmd) {
	newMenu, cmd := m.menu.Update(msg)
	if menuModel, ok := newMenu.(MenuModel); ok {
		m.menu = menuModel
	}

	if m.menu.IsQuitting() {
		m.quitting = true
		return m, tea.Quit
	}

	if m.menu.WantsRuns() {
		m.runs = NewRunsModel(m.store, m.width, m.height)
		m.screen = screenRuns
		return m, m.runs.Init()
	}

	if selected := m.menu.Selected(); selected != nil {
		env, err := m.factory(selected.GauntletID)
		if err != nil {
			m.err = err.Error()
			m.menu = NewMenuModel(m.width, m.height)
			return m, nil
		}
		m.err = ""
		m.play = NewPlayModel(env, m.store, m.config, m.width, m.height)
		m.screen = screenPlay
		return m, m.play.Init()
	}

	return m, cmd
}

// updatePlay handles updates when a gauntlet is being played.
func (m SessionModel) updatePlay(msg tea.Msg) (tea.Model, tea.Cmd) {
	newModel, cmd := m.play.Update(msg)
	if playModel, ok := newModel.(PlayModel); ok {
		m.play = playModel
	}

	if m.play.IsQuitting() {
		m.quitting = true
		return m, tea.Quit
	}
	if m.play.BackToMenu() {
		return m.backToMenu()
	}
	return m, cmd
}

// updateRuns handles updates on the runs board.
func (m SessionModel) updateRuns(msg tea.Msg) (tea.Model, tea.Cmd) {
	newModel, cmd := m.runs.Update(msg)
	if runsModel, ok := newModel.(RunsModel); ok {
		m.runs = runsModel
	}

	if m.runs.IsQuitting() {
		m.quitting = true
		return m, tea.Quit
	}
	if m.runs.IsGoingBack() {
		return m.backToMenu()
	}
	return m, cmd
}

func (m SessionModel) backToMenu() (tea.Model, tea.Cmd) {
	m.screen = screenMenu
	m.play = PlayModel{}
	m.runs = RunsModel{}
	m.menu = NewMenuModel(m.width, m.height)
	return m, m.menu.Init()
}

// View renders the current screen.
func (m SessionModel) View() string {
	if m.quitting {
		return ""
	}

	switch m.screen {
	case screenPlay:
		return m.play.View()
	case screenRuns:
		return m.runs.View()
	}

	view := m.menu.View()
	if m.username != "" {
		view += "\n" + centerText(dimStyle.Render("Playing as "+m.username), m.width) + "\n"
	}
	if m.err != "" {
		view += "\n" + centerText(badStyle.Render(m.err), m.width) + "\n"
	}
	return view
}

// IsQuitting returns true if user requested to quit entirely.
func (m SessionModel) IsQuitting() bool {
	return m.quitting
}

// RunSession runs the menu-driven session in the local terminal.
func RunSession(store Store, factory EnvFactory, cfg core.RuntimeConfig, width, height int) error {
	p := tea.NewProgram(
		NewSessionModel(store, factory, cfg, "", width, height),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}
