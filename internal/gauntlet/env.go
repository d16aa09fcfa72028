// Package gauntlet implements the Nuzlocke gauntlet environment: a phase
// state machine that advances by exactly one transition, or one battle,
// per integer action.
package gauntlet

import (
	"context"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/vovakirdan/nuzlocke-gauntlet/internal/config"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/core"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/creature"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/dex"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/encounter"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/graph"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/party"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/roster"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/sim"
)

// Options wires an Env to its collaborators.
type Options struct {
	Rewards   config.RewardsConfig
	Env       config.EnvConfig
	Dex       dex.Provider
	Simulator sim.Simulator
	Logger    *log.Logger
}

// BattleRecord is the persisted summary of one battle.
type BattleRecord struct {
	RunID           string
	BattleID        string
	NodeID          string
	NodeName        string
	TrainerIndex    int
	Won             bool
	Truncated       bool
	Turns           int
	OpponentFainted int
	Deaths          int
	PartySize       int
	Reward          float64
	SimError        string
}

type handler func(ctx context.Context, a core.Action, info *core.Info) float64

// Env is a single gauntlet run. It is not safe for concurrent use; parallel
// runs each own an Env.
type Env struct {
	def    *Definition
	opts   Options
	logger *log.Logger

	handlers map[core.Phase]handler

	runID    string
	cfg      core.RuntimeConfig
	roster   *roster.Store
	builder  *party.Builder
	roller   *encounter.Roller
	phase    core.Phase
	node     string
	party    []string // instance ids in battle order
	rebuilds int      // consecutive rebuilds without an intervening win
	unlocked []string
	seen     map[string]struct{}

	state     core.EpisodeState
	truncated bool
	battles   []BattleRecord
}

// New creates an env for a definition. Call Reset before stepping.
func New(def *Definition, opts Options) (*Env, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	if opts.Dex == nil {
		return nil, fmt.Errorf("gauntlet: no moveset provider")
	}
	if opts.Simulator == nil {
		return nil, fmt.Errorf("gauntlet: no battle simulator")
	}
	if opts.Env.ActionCount < 2 {
		opts.Env.ActionCount = config.Default().Env.ActionCount
	}
	if opts.Env.BattleTimeout <= 0 {
		opts.Env.BattleTimeout = config.Default().Env.BattleTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	e := &Env{
		def:    def,
		opts:   opts,
		logger: logger.With("gauntlet", def.ID),
		phase:  core.PhaseDone,
	}
	e.handlers = map[core.Phase]handler{
		core.PhaseSelectStarter: e.stepSelectStarter,
		core.PhaseStrategist:    e.stepStrategist,
		core.PhaseDecision:      e.stepDecision,
		core.PhaseBuildSpecies:  e.stepBuildSpecies,
		core.PhaseBuildMove:     e.stepBuildMove,
	}
	return e, nil
}

// ID returns the gauntlet id.
func (e *Env) ID() string { return e.def.ID }

// Title returns the gauntlet display name.
func (e *Env) Title() string { return e.def.Title }

// RunID identifies the current run.
func (e *Env) RunID() string { return e.runID }

// ActionCount is the size of the action space.
func (e *Env) ActionCount() int { return e.opts.Env.ActionCount }

// stopAction ends move selection for the current member.
func (e *Env) stopAction() core.Action { return core.Action(e.opts.Env.ActionCount - 1) }

// Reset starts a new run.
func (e *Env) Reset(cfg core.RuntimeConfig) core.Observation {
	if cfg.MaxSteps == 0 {
		cfg.MaxSteps = e.opts.Env.MaxSteps
	}
	e.cfg = cfg
	e.runID = uuid.NewString()
	e.roster = roster.New()
	e.builder = party.NewBuilder(e.roster, e.opts.Dex, e.opts.Env.FillerMove)
	e.builder.SetWindow(e.opts.Env.ActionCount)
	e.roller = encounter.NewRoller(e.def.Encounters, e.opts.Dex, cfg.Seed)
	e.phase = core.PhaseSelectStarter
	e.node = e.def.Graph.Start()
	e.party = nil
	e.rebuilds = 0
	e.unlocked = nil
	e.seen = make(map[string]struct{})
	e.truncated = false
	e.battles = nil
	e.state = core.EpisodeState{NodeCount: e.def.Graph.Len()}

	e.logger.Debug("run started", "run", e.runID, "seed", cfg.Seed)
	return e.Observe()
}

// Step applies one action.
func (e *Env) Step(a core.Action) core.StepResult {
	return e.StepContext(context.Background(), a)
}

// StepContext applies one action; ctx bounds any battle it triggers.
func (e *Env) StepContext(ctx context.Context, a core.Action) core.StepResult {
	info := core.Info{Phase: e.phase.String()}

	if e.phase.Terminal() {
		info.InvalidAction = true
		info.Outcome = e.state.Outcome
		return e.result(0, info)
	}

	e.state.Steps++

	var reward float64
	if !e.ActionMask().Legal(a) {
		info.InvalidAction = true
		reward = e.opts.Rewards.InvalidAction
		e.logger.Debug("invalid action", "run", e.runID, "phase", e.phase, "action", int(a))
	} else {
		reward = e.handlers[e.phase](ctx, a, &info)
	}

	if !e.phase.Terminal() && e.cfg.MaxSteps > 0 && e.state.Steps >= e.cfg.MaxSteps {
		e.logger.Debug("step cap reached", "run", e.runID, "steps", e.state.Steps)
		e.finish(core.OutcomeTruncated)
	}

	info.Outcome = e.state.Outcome
	e.state.TotalReward += reward
	return e.result(reward, info)
}

func (e *Env) result(reward float64, info core.Info) core.StepResult {
	return core.StepResult{
		Observation: e.Observe(),
		Reward:      reward,
		Terminated:  e.phase.Terminal() && !e.truncated,
		Truncated:   e.phase.Terminal() && e.truncated,
		Info:        info,
	}
}

// finish ends the run.
func (e *Env) finish(outcome core.Outcome) {
	e.phase = core.PhaseDone
	e.truncated = outcome == core.OutcomeTruncated
	e.state.Outcome = outcome
	e.state.Done = true
	e.roster.ClearParty()
	e.party = nil
	e.logger.Info("run finished", "run", e.runID, "outcome", outcome,
		"progress", e.state.Progress, "wins", e.state.Wins, "alive", e.roster.AliveCount())
}

func (e *Env) stepSelectStarter(_ context.Context, a core.Action, info *core.Info) float64 {
	spec := Starter(e.def.starters(), int(a))
	inst := creature.NewInstance(spec)
	if err := e.roster.Add(inst); err != nil {
		e.logger.Error("cannot add starter", "err", err)
		return 0
	}
	info.Acquired = append(info.Acquired, spec.Species)
	e.enterNode(e.def.Graph.Start())
	return 0
}

func (e *Env) stepStrategist(_ context.Context, a core.Action, _ *core.Info) float64 {
	if a == core.ActionSkip {
		e.logger.Debug("node skipped", "run", e.runID, "node", e.node)
		e.state.Progress++
		return e.advance()
	}
	e.phase = core.PhaseDecision
	return 0
}

func (e *Env) stepDecision(ctx context.Context, a core.Action, info *core.Info) float64 {
	if a == core.ActionFight {
		return e.battle(ctx, info)
	}

	var reward float64
	if e.rebuilds > 0 {
		reward = e.opts.Rewards.Rebuild
	}
	e.rebuilds++

	if e.roster.AliveCount() == 0 {
		e.finish(core.OutcomeWipe)
		return reward + e.opts.Rewards.Wipe
	}

	node, _ := e.def.Graph.Node(e.node)
	e.builder.Begin(node.Cap())
	e.party = nil
	e.phase = core.PhaseBuildSpecies
	return reward
}

func (e *Env) stepBuildSpecies(_ context.Context, a core.Action, _ *core.Info) float64 {
	done, err := e.builder.SelectMember(int(a))
	if err != nil {
		e.logger.Error("member selection failed", "run", e.runID, "err", err)
		return 0
	}
	if done {
		e.afterMemberBuilt()
		return 0
	}
	e.phase = core.PhaseBuildMove
	return 0
}

func (e *Env) stepBuildMove(_ context.Context, a core.Action, _ *core.Info) float64 {
	var (
		done bool
		err  error
	)
	if a == e.stopAction() {
		done, err = true, e.builder.Stop()
	} else {
		done, err = e.builder.SelectMove(e.builder.LegalMoves()[a])
	}
	if err != nil {
		e.logger.Error("move selection failed", "run", e.runID, "err", err)
		return 0
	}
	if done {
		e.afterMemberBuilt()
	}
	return 0
}

// afterMemberBuilt moves on to the next member or, when the party is
// complete, back to DECISION.
func (e *Env) afterMemberBuilt() {
	if !e.builder.Complete() {
		e.phase = core.PhaseBuildSpecies
		return
	}
	e.party = e.builder.Members()
	e.phase = core.PhaseDecision
}

// enterNode arrives at a node and hands control to the strategist.
func (e *Env) enterNode(id string) {
	e.node = id
	e.phase = core.PhaseStrategist
}

// advance moves to the first successor, or ends the run in victory.
func (e *Env) advance() float64 {
	next := e.def.Graph.Successors(e.node)
	if len(next) == 0 {
		e.finish(core.OutcomeVictory)
		return e.opts.Rewards.Completion
	}
	e.enterNode(next[0])
	return 0
}

// battle resolves the current node against the active party.
func (e *Env) battle(ctx context.Context, info *core.Info) float64 {
	node, _ := e.def.Graph.Node(e.node)
	levelCap := node.Cap()

	mine := make([]creature.Spec, 0, len(e.party))
	for _, id := range e.party {
		if _, err := e.roster.RaiseLevel(id, levelCap); err != nil {
			e.logger.Error("level ratchet failed", "run", e.runID, "err", err)
		}
		inst, _ := e.roster.Get(id)
		mine = append(mine, inst.Spec.Clone())
	}
	enemy := make([]creature.Spec, len(node.Team))
	for i, s := range node.Team {
		enemy[i] = s.Clone()
	}

	bctx, cancel := context.WithTimeout(ctx, e.opts.Env.BattleTimeout)
	defer cancel()

	start := time.Now()
	out, err := e.opts.Simulator.Simulate(bctx, mine, enemy)

	e.state.Battles++
	rec := BattleRecord{
		RunID:        e.runID,
		BattleID:     fmt.Sprintf("%s-%d", e.runID, e.state.Battles),
		NodeID:       node.ID,
		NodeName:     node.Name,
		TrainerIndex: e.def.Graph.Index(node.ID),
		PartySize:    len(mine),
	}
	metrics := &core.BattleMetrics{NodeID: node.ID, TrainerIndex: rec.TrainerIndex}
	info.Battle = metrics

	if err != nil {
		e.logger.Error("simulator failed", "run", e.runID, "node", node.Name, "err", err)
		info.SimulatorError = err.Error()
		rec.SimError = err.Error()
		rec.Reward = e.opts.Rewards.Loss
		e.battles = append(e.battles, rec)
		e.finish(core.OutcomeLoss)
		return rec.Reward
	}

	metrics.Turns = out.Metrics.Turns
	metrics.OpponentFainted = out.Metrics.OpponentFainted
	rec.Turns = out.Metrics.Turns
	rec.OpponentFainted = out.Metrics.OpponentFainted

	if out.Truncated {
		metrics.Truncated = true
		rec.Truncated = true
		e.battles = append(e.battles, rec)
		e.logger.Warn("battle truncated", "run", e.runID, "node", node.Name, "turns", out.Metrics.Turns)
		e.finish(core.OutcomeTruncated)
		return 0
	}

	deaths, err := e.roster.ApplyBattleResult(rec.BattleID, e.party, out.Survivors)
	if err != nil {
		e.logger.Error("cannot apply battle result", "run", e.runID, "err", err)
		info.SimulatorError = err.Error()
		rec.SimError = err.Error()
		rec.Reward = e.opts.Rewards.Loss
		e.battles = append(e.battles, rec)
		e.finish(core.OutcomeLoss)
		return rec.Reward
	}
	metrics.Fainted = deaths
	rec.Deaths = deaths
	e.party = slices.DeleteFunc(e.party, func(id string) bool {
		inst, _ := e.roster.Get(id)
		return !inst.Alive
	})

	reward := float64(deaths) * e.opts.Rewards.Death
	e.logger.Debug("battle resolved", "run", e.runID, "node", node.Name,
		"win", out.Won, "deaths", deaths, "turns", out.Metrics.Turns, "took", time.Since(start))

	if !out.Won {
		reward += e.opts.Rewards.Loss
		outcome := core.OutcomeLoss
		if e.roster.AliveCount() == 0 {
			reward += e.opts.Rewards.Wipe
			outcome = core.OutcomeWipe
		}
		rec.Reward = reward
		e.battles = append(e.battles, rec)
		e.finish(outcome)
		return reward
	}

	metrics.Won = true
	rec.Won = true
	reward += e.opts.Rewards.Win
	e.state.Wins++
	e.state.Progress++
	e.rebuilds = 0

	e.unlock(node, info)

	// A win that leaves nobody alive still ends the run as a wipe; clearing
	// the last node keeps its completion bonus.
	if e.roster.AliveCount() == 0 {
		if len(e.def.Graph.Successors(node.ID)) == 0 {
			reward += e.opts.Rewards.Completion
		}
		reward += e.opts.Rewards.Wipe
		rec.Reward = reward
		e.battles = append(e.battles, rec)
		e.finish(core.OutcomeWipe)
		return reward
	}

	reward += e.advance()
	rec.Reward = reward
	e.battles = append(e.battles, rec)
	return reward
}

// unlock opens the node's locations and any rule-driven ones, rolling one
// encounter for each location unlocked for the first time.
func (e *Env) unlock(node *graph.Node, info *core.Info) {
	locations := slices.Clone(node.Unlocks)
	extra, err := e.def.Rules.Evaluate(encounter.Progress{
		Cleared: e.def.Graph.Index(node.ID),
		Node:    node.ID,
		Wins:    e.state.Wins,
		Alive:   e.roster.AliveCount(),
		Battles: e.state.Battles,
	})
	if err != nil {
		e.logger.Warn("unlock rule failed", "run", e.runID, "err", err)
	}
	locations = append(locations, extra...)

	for _, loc := range locations {
		if _, done := e.seen[loc]; done {
			continue
		}
		e.seen[loc] = struct{}{}
		e.unlocked = append(e.unlocked, loc)
		info.Unlocked = append(info.Unlocked, loc)

		inst, ok := e.roller.Roll(loc, e.roster.HasSpecies)
		if !ok {
			continue
		}
		if err := e.roster.Add(inst); err != nil {
			e.logger.Error("cannot add encounter", "run", e.runID, "err", err)
			continue
		}
		info.Acquired = append(info.Acquired, inst.Spec.Species)
		e.logger.Debug("encounter", "run", e.runID, "location", loc, "species", inst.Spec.Species, "level", inst.Spec.Level)
	}
}
