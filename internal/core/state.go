package core

// RuntimeConfig contains configuration passed to environments on reset.
type RuntimeConfig struct {
	Seed     int64 // RNG seed for deterministic runs
	MaxSteps int   // Step cap per episode; 0 uses the environment default
}

// DefaultConfig returns a RuntimeConfig with sensible defaults.
func DefaultConfig() RuntimeConfig {
	return RuntimeConfig{
		Seed:     0, // 0 means use a random seed in the platform layer
		MaxSteps: 0,
	}
}

// Outcome is how an episode ended.
type Outcome string

const (
	OutcomeNone      Outcome = ""          // still running
	OutcomeVictory   Outcome = "victory"   // gauntlet completed
	OutcomeLoss      Outcome = "loss"      // a battle was lost
	OutcomeWipe      Outcome = "wipe"      // no living roster members left
	OutcomeTruncated Outcome = "truncated" // turn ceiling or step cap
)

// BattleMetrics describes the most recent battle.
type BattleMetrics struct {
	NodeID          string `json:"node_id"`
	TrainerIndex    int    `json:"trainer_idx"`
	Won             bool   `json:"win"`
	Truncated       bool   `json:"truncated"`
	Turns           int    `json:"turns"`
	OpponentFainted int    `json:"opponent_fainted"`
	Fainted         int    `json:"pokemon_fainted"`
}

// Info carries diagnostics alongside a step result.
type Info struct {
	Phase          string         `json:"phase"`
	InvalidAction  bool           `json:"invalid_action,omitempty"`
	SimulatorError string         `json:"simulator_error,omitempty"`
	Battle         *BattleMetrics `json:"metrics,omitempty"`
	Unlocked       []string       `json:"unlocked,omitempty"`
	Acquired       []string       `json:"acquired,omitempty"`
	Outcome        Outcome        `json:"outcome,omitempty"`
}

// EpisodeState summarises the run so far.
type EpisodeState struct {
	Steps       int     `json:"steps"`
	TotalReward float64 `json:"total_reward"`
	Battles     int     `json:"battles"`
	Wins        int     `json:"wins"`
	Progress    int     `json:"progress"` // nodes cleared or skipped
	NodeCount   int     `json:"node_count"`
	Survivors   int     `json:"survivors"` // alive roster members
	RosterSize  int     `json:"roster_size"`
	Outcome     Outcome `json:"outcome"`
	Done        bool    `json:"done"`
}

// StepResult is returned by Env.Step.
type StepResult struct {
	Observation Observation `json:"observation"`
	Reward      float64     `json:"reward"`
	Terminated  bool        `json:"terminated"`
	Truncated   bool        `json:"truncated"`
	Info        Info        `json:"info"`
}
