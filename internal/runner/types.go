// Package runner drives gauntlet environments: single episodes under a
// policy, parallel evaluation with result persistence, and the bridge that
// lets other goroutines talk to an env owned by one goroutine.
package runner

import (
	"context"
	"time"

	"github.com/vovakirdan/nuzlocke-gauntlet/internal/core"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/gauntlet"
)

// Env is the part of a gauntlet environment the runner needs.
type Env interface {
	ID() string
	RunID() string
	Reset(cfg core.RuntimeConfig) core.Observation
	StepContext(ctx context.Context, a core.Action) core.StepResult
	ActionMask() core.ActionMask
	Observe() core.Observation
	State() core.EpisodeState
	Battles() []gauntlet.BattleRecord
}

var _ Env = (*gauntlet.Env)(nil)

// EnvFactory creates a fresh environment for one run. The seed lets the
// factory give each run its own simulator stream.
type EnvFactory func(seed int64) (Env, error)

// RunResult is the summary of one finished run.
type RunResult struct {
	RunID       string
	GauntletID  string
	Policy      string
	Episode     int // index within an evaluation
	Seed        int64
	Outcome     core.Outcome
	Steps       int
	Battles     int
	Wins        int
	Progress    int
	NodeCount   int
	Survivors   int
	RosterSize  int
	TotalReward float64
	StartedAt   time.Time
	Duration    time.Duration
}

// Victory reports whether the run cleared the gauntlet.
func (r RunResult) Victory() bool {
	return r.Outcome == core.OutcomeVictory
}

// ResultSaver persists finished runs. This allows the coordinator to save
// results without depending on the storage package.
type ResultSaver interface {
	SaveRun(result RunResult) error
	SaveBattles(records []gauntlet.BattleRecord) error
}
