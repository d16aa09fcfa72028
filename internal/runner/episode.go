package runner

import (
	"context"
	"time"

	"github.com/vovakirdan/nuzlocke-gauntlet/internal/core"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/policy"
)

// RunEpisode resets env and plays it to the end with p. A cancelled ctx
// stops the run early and returns the context error with the partial result.
func RunEpisode(ctx context.Context, env Env, p policy.Policy, cfg core.RuntimeConfig) (RunResult, error) {
	start := time.Now()
	obs := env.Reset(cfg)

	var err error
	for !env.State().Done {
		if err = ctx.Err(); err != nil {
			break
		}
		res := env.StepContext(ctx, p.Act(obs))
		obs = res.Observation
	}

	return ResultOf(env, p.Name(), cfg.Seed, start), err
}

// ResultOf summarises env's current run as played by policyName.
func ResultOf(env Env, policyName string, seed int64, start time.Time) RunResult {
	st := env.State()
	return RunResult{
		RunID:       env.RunID(),
		GauntletID:  env.ID(),
		Policy:      policyName,
		Seed:        seed,
		Outcome:     st.Outcome,
		Steps:       st.Steps,
		Battles:     st.Battles,
		Wins:        st.Wins,
		Progress:    st.Progress,
		NodeCount:   st.NodeCount,
		Survivors:   st.Survivors,
		RosterSize:  st.RosterSize,
		TotalReward: st.TotalReward,
		StartedAt:   start,
		Duration:    time.Since(start),
	}
}
