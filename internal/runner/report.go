package runner

import (
	"time"

	"github.com/vovakirdan/nuzlocke-gauntlet/internal/core"
)

// Report aggregates an evaluation.
type Report struct {
	GauntletID   string
	Policy       string
	Episodes     int
	Victories    int
	Losses       int
	Wipes        int
	Truncated    int
	WinRate      float64 // share of runs that cleared the gauntlet
	AvgProgress  float64 // nodes cleared or skipped per run
	AvgSurvivors float64
	AvgReward    float64
	AvgSteps     float64
	Duration     time.Duration // summed run time
	Results      []RunResult
}

// Summarize builds a report from finished runs.
func Summarize(results []RunResult) Report {
	rep := Report{Episodes: len(results), Results: results}
	if len(results) == 0 {
		return rep
	}
	rep.GauntletID = results[0].GauntletID
	rep.Policy = results[0].Policy

	var progress, survivors, reward, steps float64
	for _, r := range results {
		switch r.Outcome {
		case core.OutcomeVictory:
			rep.Victories++
		case core.OutcomeLoss:
			rep.Losses++
		case core.OutcomeWipe:
			rep.Wipes++
		case core.OutcomeTruncated:
			rep.Truncated++
		}
		progress += float64(r.Progress)
		survivors += float64(r.Survivors)
		reward += r.TotalReward
		steps += float64(r.Steps)
		rep.Duration += r.Duration
	}

	n := float64(len(results))
	rep.WinRate = float64(rep.Victories) / n
	rep.AvgProgress = progress / n
	rep.AvgSurvivors = survivors / n
	rep.AvgReward = reward / n
	rep.AvgSteps = steps / n
	return rep
}
