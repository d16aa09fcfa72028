package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/nuzlocke-gauntlet/internal/core"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/creature"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/gauntlet"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/graph"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/random"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/runner"
)

// HumanPolicy is the policy name recorded for interactive runs.
const HumanPolicy = "human"

// Play screen layout constants
const (
	maxEvents     = 8  // event log lines kept
	minActionRows = 6  // action rows shown on small terminals
	sideWidth     = 34 // width of the roster column
)

// EnvFactory creates a fresh environment for a gauntlet id.
type EnvFactory func(gauntletID string) (*gauntlet.Env, error)

// PlayModel is the Bubble Tea model for playing a gauntlet by hand.
type PlayModel struct {
	env     *gauntlet.Env
	saver   runner.ResultSaver // Optional, can be nil
	config  core.RuntimeConfig
	started time.Time

	actions []core.Action // legal actions in the current phase
	cursor  int
	events  []string
	reward  float64 // reward of the last step
	saved   bool    // Whether the run has been saved
	saveErr error

	keys       PlayKeyMap
	help       help.Model
	width      int
	height     int
	quitting   bool
	backToMenu bool
}

// NewPlayModel resets env and wraps it for interactive play.
// A zero seed draws a fresh one.
func NewPlayModel(env *gauntlet.Env, saver runner.ResultSaver, cfg core.RuntimeConfig, width, height int) PlayModel {
	m := PlayModel{
		env:    env,
		saver:  saver,
		config: cfg,
		keys:   DefaultPlayKeyMap(),
		help:   help.New(),
		width:  width,
		height: height,
	}
	m.help.Width = width
	m.reset()
	return m
}

func (m *PlayModel) reset() {
	m.config.Seed = random.Resolve(m.config.Seed)
	m.env.Reset(m.config)
	m.started = time.Now()
	m.events = nil
	m.reward = 0
	m.saved = false
	m.saveErr = nil
	m.refresh()
	m.logf("Run %d started on %s", m.config.Seed, m.env.Title())
}

func (m *PlayModel) refresh() {
	m.actions = m.env.ActionMask().Actions()
	if m.cursor >= len(m.actions) {
		m.cursor = max(0, len(m.actions)-1)
	}
}

func (m *PlayModel) logf(format string, args ...any) {
	m.events = append(m.events, fmt.Sprintf(format, args...))
	if len(m.events) > maxEvents {
		m.events = m.events[len(m.events)-maxEvents:]
	}
}

// Init initializes the model.
func (m PlayModel) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (m PlayModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
	}
	return m, nil
}

// handleKey processes keyboard input.
func (m PlayModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Back):
		m.backToMenu = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.actions)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Choose):
		if !m.Done() && len(m.actions) > 0 {
			m.step(m.actions[m.cursor])
		}

	case key.Matches(msg, m.keys.Restart):
		if m.Done() {
			m.config.Seed = 0
			m.reset()
		}
	}
	return m, nil
}

// step applies a and records what happened.
func (m *PlayModel) step(a core.Action) {
	label := m.env.Describe(a)
	res := m.env.Step(a)
	m.reward = res.Reward
	m.cursor = 0

	info := res.Info
	if info.InvalidAction {
		m.logf("%s is not allowed now", label)
	}
	if b := info.Battle; b != nil {
		name := b.NodeID
		if n, ok := m.env.Definition().Graph.Node(b.NodeID); ok {
			name = nodeTitle(n)
		}
		switch {
		case b.Truncated:
			m.logf("Battle with %s ran out of turns", name)
		case b.Won:
			m.logf("Beat %s in %d turns", name, b.Turns)
		default:
			m.logf("Lost to %s after %d turns", name, b.Turns)
		}
		if b.Fainted > 0 {
			m.logf("%d fainted for good", b.Fainted)
		}
	}
	if info.SimulatorError != "" {
		m.logf("Simulator error: %s", info.SimulatorError)
	}
	for _, loc := range info.Unlocked {
		m.logf("Unlocked %s", loc)
	}
	for _, s := range info.Acquired {
		m.logf("Caught %s", s)
	}

	m.refresh()
	if m.Done() {
		m.logf("Run over: %s", m.env.State().Outcome)
		m.save()
	}
}

// save persists the finished run once.
func (m *PlayModel) save() {
	if m.saved || m.saver == nil {
		return
	}
	m.saved = true
	result := runner.ResultOf(m.env, HumanPolicy, m.config.Seed, m.started)
	if err := m.saver.SaveRun(result); err != nil {
		m.saveErr = err
		return
	}
	m.saveErr = m.saver.SaveBattles(m.env.Battles())
}

// Done reports whether the current run is over.
func (m PlayModel) Done() bool {
	return m.env.State().Done
}

// IsQuitting returns true if user requested to quit entirely.
func (m PlayModel) IsQuitting() bool {
	return m.quitting
}

// BackToMenu returns true if user requested to go back to menu.
func (m PlayModel) BackToMenu() bool {
	return m.backToMenu
}

// View renders the play screen.
func (m PlayModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	main := lipgloss.JoinVertical(lipgloss.Left,
		m.renderOpponent(),
		m.renderActions(),
		m.renderEvents(),
	)
	if m.width >= 80 {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, main, "  ", m.renderRoster()))
	} else {
		b.WriteString(main)
		b.WriteString("\n")
		b.WriteString(m.renderRoster())
	}

	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.help.View(m.keys)))
	return b.String()
}

func (m PlayModel) renderHeader() string {
	st := m.env.State()
	title := titleStyle.Render(m.env.Title())
	progress := fmt.Sprintf("Trainer %d/%d", min(st.Progress+1, st.NodeCount), st.NodeCount)
	phase := m.env.Phase().String()
	if st.Done {
		phase = strings.ToUpper(string(st.Outcome))
	}
	return fmt.Sprintf("%s  %s  %s", title, dimStyle.Render(progress), selectedStyle.Render(" "+phase+" "))
}

func (m PlayModel) renderOpponent() string {
	n := m.env.Node()
	if n == nil || m.Done() {
		return boxStyle.Render(dimStyle.Render("No trainer ahead."))
	}

	var b strings.Builder
	kind := string(n.Kind)
	if n.Optional() {
		kind += ", optional"
	}
	fmt.Fprintf(&b, "%s %s\n", titleStyle.Render(nodeTitle(n)), dimStyle.Render(fmt.Sprintf("(%s, cap %d)", kind, n.Cap())))
	for _, s := range n.Team {
		fmt.Fprintf(&b, "  %s\n", specLine(s))
	}
	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func (m PlayModel) actionRows() int {
	rows := m.height - 24
	if rows < minActionRows {
		rows = minActionRows
	}
	return rows
}

func (m PlayModel) renderActions() string {
	var b strings.Builder

	switch m.env.Phase() {
	case core.PhaseSelectStarter:
		b.WriteString("Choose your starter\n")
	case core.PhaseStrategist:
		b.WriteString("A trainer blocks the way\n")
	case core.PhaseDecision:
		b.WriteString("Fight with this party or rebuild it?\n")
	case core.PhaseBuildSpecies:
		fmt.Fprintf(&b, "Pick party member %d\n", len(m.env.Party())+1)
	case core.PhaseBuildMove:
		inst, moves := m.env.Building()
		if inst != nil {
			fmt.Fprintf(&b, "Moves for %s (Lv%d): %s\n", inst.Spec.Species, m.env.BuildLevel(), strings.Join(moves, ", "))
		}
	case core.PhaseDone:
		b.WriteString("Press r for a new run or esc for the menu\n")
	}

	if !m.Done() {
		rows := m.actionRows()
		start := 0
		if m.cursor >= rows {
			start = m.cursor - rows + 1
		}
		end := min(start+rows, len(m.actions))
		for i := start; i < end; i++ {
			label := m.env.Describe(m.actions[i])
			if i == m.cursor {
				b.WriteString(selectedStyle.Render("> " + label))
			} else {
				b.WriteString("  " + label)
			}
			b.WriteString("\n")
		}
		if end < len(m.actions) {
			b.WriteString(dimStyle.Render(fmt.Sprintf("  ... %d more", len(m.actions)-end)))
			b.WriteString("\n")
		}
	}
	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func (m PlayModel) renderEvents() string {
	if len(m.events) == 0 {
		return ""
	}
	return dimStyle.Render(strings.Join(m.events, "\n"))
}

func (m PlayModel) renderRoster() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Party"))
	b.WriteString("\n")
	party := m.env.Party()
	if len(party) == 0 {
		b.WriteString(dimStyle.Render("  (empty)"))
		b.WriteString("\n")
	}
	for _, inst := range party {
		b.WriteString(partyStyle.Render("  " + specLine(inst.Spec)))
		b.WriteString("\n")
		if len(inst.Spec.Moves) > 0 {
			b.WriteString(dimStyle.Render("    " + truncate(strings.Join(inst.Spec.Moves, ", "), sideWidth-6)))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(titleStyle.Render("Roster"))
	b.WriteString("\n")
	for _, inst := range m.env.Roster() {
		b.WriteString("  " + instanceLine(inst))
		b.WriteString("\n")
	}

	if unlocked := m.env.Unlocked(); len(unlocked) > 0 {
		b.WriteString("\n")
		b.WriteString(titleStyle.Render("Routes"))
		b.WriteString("\n")
		for _, loc := range unlocked {
			b.WriteString(dimStyle.Render("  " + truncate(loc, sideWidth-4)))
			b.WriteString("\n")
		}
	}
	return boxStyle.Width(sideWidth).Render(strings.TrimRight(b.String(), "\n"))
}

func (m PlayModel) renderStatus() string {
	st := m.env.State()
	reward := fmt.Sprintf("%+.2f", m.reward)
	switch {
	case m.reward > 0:
		reward = goodStyle.Render(reward)
	case m.reward < 0:
		reward = badStyle.Render(reward)
	}
	status := fmt.Sprintf("Reward %s  Total %.2f  Wins %d/%d  Alive %d/%d  Steps %d  Rebuilds %d",
		reward, st.TotalReward, st.Wins, st.Battles, st.Survivors, st.RosterSize, st.Steps, m.env.Rebuilds())
	if m.saveErr != nil {
		status += badStyle.Render("  (run not saved: " + m.saveErr.Error() + ")")
	} else if m.saved {
		status += goodStyle.Render("  (saved)")
	}
	return status
}

func nodeTitle(n *graph.Node) string {
	if n.Name != "" {
		return n.Name
	}
	return n.ID
}

func specLine(s creature.Spec) string {
	return fmt.Sprintf("%s Lv%d", s.Species, s.Level)
}

func instanceLine(inst *creature.Instance) string {
	line := truncate(specLine(inst.Spec), sideWidth-6)
	switch {
	case !inst.Alive:
		return deadStyle.Render(line)
	case inst.InParty:
		return partyStyle.Render(line + " *")
	default:
		return line
	}
}

// RunPlay plays env interactively until the user quits or goes back.
// Returns true if user wants to go back to the menu.
func RunPlay(env *gauntlet.Env, saver runner.ResultSaver, cfg core.RuntimeConfig, width, height int) (goBack bool, err error) {
	model := NewPlayModel(env, saver, cfg, width, height)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	finalModel, err := p.Run()
	if err != nil {
		return false, err
	}

	m, ok := finalModel.(PlayModel)
	if !ok {
		return false, nil
	}
	return m.BackToMenu(), nil
}
