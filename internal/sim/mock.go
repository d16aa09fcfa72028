package sim

import (
	"context"
	"math/rand"
	"sync"

	"github.com/vovakirdan/nuzlocke-gauntlet/internal/creature"
)

// Survival chance per member after a win.
const winSurvival = 0.9

// Mock decides battles from team level sums: the win probability is
// mine / (mine + enemy). After a win each member survives with 90%
// probability; a loss wipes the team. Safe for concurrent use.
type Mock struct {
	mu          sync.Mutex
	rng         *rand.Rand
	turnCeiling int
}

var _ Simulator = (*Mock)(nil)

// NewMock creates a seeded mock. turnCeiling <= 0 uses DefaultTurnCeiling.
func NewMock(seed int64, turnCeiling int) *Mock {
	if turnCeiling <= 0 {
		turnCeiling = DefaultTurnCeiling
	}
	return &Mock{
		rng:         rand.New(rand.NewSource(seed)),
		turnCeiling: turnCeiling,
	}
}

// Simulate implements Simulator.
func (m *Mock) Simulate(ctx context.Context, mine, enemy []creature.Spec) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}
	if len(mine) == 0 {
		return Outcome{Survivors: []bool{}}, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	myPower, enemyPower := levelSum(mine), levelSum(enemy)
	winProb := 0.0
	if total := myPower + enemyPower; total > 0 {
		winProb = float64(myPower) / float64(total)
	}

	turns := len(enemy)*2 + len(mine) + m.rng.Intn(len(enemy)*3+1)
	out := Outcome{
		Survivors: make([]bool, len(mine)),
		Metrics:   Metrics{Turns: turns},
	}

	if turns > m.turnCeiling {
		out.Truncated = true
		out.Metrics.Turns = m.turnCeiling
		for i := range out.Survivors {
			out.Survivors[i] = true
		}
		return out, nil
	}

	out.Won = m.rng.Float64() < winProb
	if out.Won {
		out.Metrics.OpponentFainted = len(enemy)
		for i := range out.Survivors {
			out.Survivors[i] = m.rng.Float64() < winSurvival
		}
	} else if len(enemy) > 0 {
		out.Metrics.OpponentFainted = m.rng.Intn(len(enemy))
	}
	return out, nil
}

func levelSum(team []creature.Spec) int {
	sum := 0
	for _, s := range team {
		sum += s.Level
	}
	return sum
}
