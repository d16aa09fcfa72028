package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/nuzlocke-gauntlet/internal/core"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/policy"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/random"
)

// CoordinatorConfig holds configuration for an evaluation.
type CoordinatorConfig struct {
	Episodes int    // runs to play
	Workers  int    // runs played in parallel
	Seed     int64  // base seed; run i uses random.Derive(Seed, i)
	Policy   string // policy name, see policy.Names
	MaxSteps int    // per-run step cap; 0 uses the env default
}

// DefaultCoordinatorConfig returns sensible defaults.
func DefaultCoordinatorConfig() CoordinatorConfig {
	return CoordinatorConfig{
		Episodes: 100,
		Workers:  4,
		Seed:     1,
		Policy:   "random",
	}
}

// Coordinator plays many runs of a gauntlet in parallel. Every run owns
// its env, policy and RNG streams.
type Coordinator struct {
	config      CoordinatorConfig
	factory     EnvFactory
	resultSaver ResultSaver // Optional, can be nil
	onResult    func(RunResult)
	logger      *log.Logger
}

// NewCoordinator creates a new coordinator.
func NewCoordinator(cfg CoordinatorConfig, factory EnvFactory, logger *log.Logger) *Coordinator {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Coordinator{
		config:  cfg,
		factory: factory,
		logger:  logger,
	}
}

// SetResultSaver sets the optional result saver.
func (c *Coordinator) SetResultSaver(saver ResultSaver) {
	c.resultSaver = saver
}

// OnResult registers a callback invoked after each finished run. It is
// called from worker goroutines, one call at a time.
func (c *Coordinator) OnResult(fn func(RunResult)) {
	c.onResult = fn
}

// Run plays the configured number of runs and returns their report. A
// cancelled ctx stops dispatching; finished runs are still reported.
func (c *Coordinator) Run(ctx context.Context) (Report, error) {
	if _, err := policy.New(c.config.Policy, 0); err != nil {
		return Report{}, err
	}

	jobs := make(chan int)
	var (
		mu       sync.Mutex
		results  []RunResult
		firstErr error
		wg       sync.WaitGroup
	)

	for w := 0; w < c.config.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				res, err := c.play(ctx, i)

				mu.Lock()
				if err != nil {
					if firstErr == nil && !errors.Is(err, context.Canceled) {
						firstErr = err
					}
				} else {
					results = append(results, res)
					if c.onResult != nil {
						c.onResult(res)
					}
				}
				mu.Unlock()
			}
		}()
	}

dispatch:
	for i := 0; i < c.config.Episodes; i++ {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Episode < results[j].Episode })
	rep := Summarize(results)
	if firstErr != nil {
		return rep, firstErr
	}
	return rep, ctx.Err()
}

func (c *Coordinator) play(ctx context.Context, i int) (RunResult, error) {
	seed := random.Derive(c.config.Seed, i)
	env, err := c.factory(seed)
	if err != nil {
		return RunResult{}, fmt.Errorf("runner: cannot create env for run %d: %w", i, err)
	}
	p, err := policy.New(c.config.Policy, seed)
	if err != nil {
		return RunResult{}, err
	}

	res, err := RunEpisode(ctx, env, p, core.RuntimeConfig{Seed: seed, MaxSteps: c.config.MaxSteps})
	res.Episode = i
	if err != nil {
		return res, err
	}
	c.logger.Debug("run finished", "run", res.RunID, "outcome", res.Outcome,
		"progress", res.Progress, "reward", res.TotalReward)

	if c.resultSaver != nil {
		if err := c.resultSaver.SaveRun(res); err != nil {
			c.logger.Warn("cannot save run", "run", res.RunID, "err", err)
		} else if err := c.resultSaver.SaveBattles(env.Battles()); err != nil {
			c.logger.Warn("cannot save battles", "run", res.RunID, "err", err)
		}
	}
	return res, nil
}
