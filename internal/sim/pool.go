package sim

import (
	"context"
	"fmt"

	"github.com/vovakirdan/nuzlocke-gauntlet/internal/creature"
)

// Pool is a bounded set of simulators. A caller holds one simulator for the
// whole duration of a battle.
type Pool struct {
	free chan Simulator
	size int
}

var _ Simulator = (*Pool)(nil)

// NewPool creates a pool over the given simulators.
func NewPool(sims ...Simulator) *Pool {
	p := &Pool{
		free: make(chan Simulator, len(sims)),
		size: len(sims),
	}
	for _, s := range sims {
		p.free <- s
	}
	return p
}

// NewPoolOf creates a pool of n simulators built by factory.
func NewPoolOf(n int, factory func(i int) Simulator) *Pool {
	sims := make([]Simulator, 0, n)
	for i := 0; i < n; i++ {
		sims = append(sims, factory(i))
	}
	return NewPool(sims...)
}

// Size returns the pool capacity.
func (p *Pool) Size() int {
	return p.size
}

// Available returns the number of idle simulators.
func (p *Pool) Available() int {
	return len(p.free)
}

// Acquire waits for an idle simulator or until ctx is done.
func (p *Pool) Acquire(ctx context.Context) (Simulator, error) {
	if p.size == 0 {
		return nil, fmt.Errorf("sim: pool is empty")
	}
	select {
	case s := <-p.free:
		return s, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("sim: acquire: %w", ctx.Err())
	}
}

// Release returns a simulator to the pool.
func (p *Pool) Release(s Simulator) {
	if s == nil {
		return
	}
	select {
	case p.free <- s:
	default:
		// Not one of ours; the pool is already full.
	}
}

// Simulate runs one battle on a dedicated pooled simulator.
func (p *Pool) Simulate(ctx context.Context, mine, enemy []creature.Spec) (Outcome, error) {
	s, err := p.Acquire(ctx)
	if err != nil {
		return Outcome{}, err
	}
	defer p.Release(s)
	return s.Simulate(ctx, mine, enemy)
}
