package runner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vovakirdan/nuzlocke-gauntlet/internal/config"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/core"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/creature"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/dex"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/gauntlet"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/graph"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/sim"
)

func testFactory(t *testing.T) EnvFactory {
	t.Helper()
	d, err := dex.Default()
	if err != nil {
		t.Fatalf("dex.Default failed: %v", err)
	}
	cfg := config.Default()

	return func(seed int64) (Env, error) {
		g, err := graph.Linear([]*graph.Node{
			{ID: "brock", LevelCap: 14, Team: []creature.Spec{{Species: "Geodude", Level: 12}, {Species: "Onix", Level: 14}}},
			{ID: "bug_catcher", Kind: graph.KindEvent, Team: []creature.Spec{{Species: "Weedle", Level: 9}}},
			{ID: "misty", LevelCap: 21, Team: []creature.Spec{{Species: "Staryu", Level: 18}, {Species: "Starmie", Level: 21}}},
		})
		if err != nil {
			return nil, err
		}
		def := &gauntlet.Definition{ID: "mini", Graph: g}
		return gauntlet.New(def, gauntlet.Options{
			Rewards: cfg.Rewards, Env: cfg.Env, Dex: d, Simulator: sim.NewMock(seed, 0),
		})
	}
}

type memorySaver struct {
	mu      sync.Mutex
	runs    []RunResult
	battles int
}

func (s *memorySaver) SaveRun(r RunResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, r)
	return nil
}

func (s *memorySaver) SaveBattles(records []gauntlet.BattleRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.battles += len(records)
	return nil
}

func TestCoordinatorRun(t *testing.T) {
	saver := &memorySaver{}
	c := NewCoordinator(CoordinatorConfig{Episodes: 20, Workers: 4, Seed: 5, Policy: "random"}, testFactory(t), nil)
	c.SetResultSaver(saver)
	seen := 0
	c.OnResult(func(RunResult) { seen++ })

	rep, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if rep.Episodes != 20 || seen != 20 || len(saver.runs) != 20 {
		t.Fatalf("episodes=%d callbacks=%d saved=%d, want 20", rep.Episodes, seen, len(saver.runs))
	}
	if rep.Victories+rep.Losses+rep.Wipes+rep.Truncated != 20 {
		t.Errorf("outcomes do not add up: %+v", rep)
	}
	if rep.GauntletID != "mini" || rep.Policy != "random" {
		t.Errorf("unexpected report identity: %s %s", rep.GauntletID, rep.Policy)
	}
	for i, r := range rep.Results {
		if r.Episode != i {
			t.Fatalf("results not ordered by episode: %d at %d", r.Episode, i)
		}
	}

	var battles int
	for _, r := range saver.runs {
		battles += r.Battles
	}
	if saver.battles != battles {
		t.Errorf("saved %d battle records, runs report %d battles", saver.battles, battles)
	}
}

func TestCoordinatorDeterministic(t *testing.T) {
	run := func() Report {
		c := NewCoordinator(CoordinatorConfig{Episodes: 10, Workers: 3, Seed: 11, Policy: "random"}, testFactory(t), nil)
		rep, err := c.Run(context.Background())
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		return rep
	}

	a, b := run(), run()
	for i := range a.Results {
		ra, rb := a.Results[i], b.Results[i]
		if ra.Outcome != rb.Outcome || ra.TotalReward != rb.TotalReward || ra.Steps != rb.Steps {
			t.Fatalf("run %d differs: %+v vs %+v", i, ra, rb)
		}
	}
}

func TestCoordinatorUnknownPolicy(t *testing.T) {
	c := NewCoordinator(CoordinatorConfig{Episodes: 1, Policy: "oracle"}, testFactory(t), nil)
	if _, err := c.Run(context.Background()); err == nil {
		t.Error("expected error for unknown policy")
	}
}

func TestCoordinatorFactoryError(t *testing.T) {
	boom := errors.New("no simulator")
	c := NewCoordinator(CoordinatorConfig{Episodes: 3, Workers: 2, Policy: "greedy"},
		func(int64) (Env, error) { return nil, boom }, nil)
	if _, err := c.Run(context.Background()); !errors.Is(err, boom) {
		t.Errorf("error = %v, want %v", err, boom)
	}
}

func TestSummarize(t *testing.T) {
	rep := Summarize([]RunResult{
		{GauntletID: "g", Policy: "p", Outcome: core.OutcomeVictory, Progress: 3, Survivors: 4, TotalReward: 12, Steps: 40},
		{GauntletID: "g", Policy: "p", Outcome: core.OutcomeWipe, Progress: 1, Survivors: 0, TotalReward: -6, Steps: 20},
	})
	if rep.WinRate != 0.5 || rep.AvgProgress != 2 || rep.AvgSurvivors != 2 || rep.AvgReward != 3 || rep.AvgSteps != 30 {
		t.Errorf("unexpected averages: %+v", rep)
	}
	if rep.Victories != 1 || rep.Wipes != 1 {
		t.Errorf("unexpected counts: %+v", rep)
	}
	if empty := Summarize(nil); empty.Episodes != 0 || empty.WinRate != 0 {
		t.Errorf("empty summary: %+v", empty)
	}
}

func TestBridgeServesConcurrentCallers(t *testing.T) {
	env, err := testFactory(t)(1)
	if err != nil {
		t.Fatalf("factory failed: %v", err)
	}
	b := NewBridge(env, time.Second)
	defer b.Close()

	ctx := context.Background()
	if obs, err := b.Reset(ctx, core.RuntimeConfig{Seed: 1}); err != nil || obs.Phase != core.PhaseSelectStarter {
		t.Fatalf("Reset = %v, %v", obs.Phase, err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := b.Mask(ctx); err != nil {
				t.Errorf("Mask failed: %v", err)
			}
			if _, err := b.Observe(ctx); err != nil {
				t.Errorf("Observe failed: %v", err)
			}
		}()
	}
	wg.Wait()

	res, err := b.Step(ctx, 1)
	if err != nil || res.Observation.Phase != core.PhaseStrategist {
		t.Fatalf("Step = %v, %v", res.Observation.Phase, err)
	}
	st, err := b.State(ctx)
	if err != nil || st.Steps != 1 {
		t.Errorf("State = %+v, %v", st, err)
	}
}

// slowEnv blocks every step until its context ends, then lingers a bit.
type slowEnv struct{ Env }

func (slowEnv) StepContext(ctx context.Context, _ core.Action) core.StepResult {
	<-ctx.Done()
	time.Sleep(30 * time.Millisecond)
	return core.StepResult{}
}

func TestBridgeTimeout(t *testing.T) {
	env, _ := testFactory(t)(1)
	b := NewBridge(slowEnv{env}, 20*time.Millisecond)
	defer b.Close()

	if _, err := b.Step(context.Background(), 0); !errors.Is(err, ErrTimeout) {
		t.Errorf("error = %v, want ErrTimeout", err)
	}
	// the loop is free again once the env returns
	if _, err := b.Mask(context.Background()); err != nil {
		t.Errorf("Mask after timeout failed: %v", err)
	}
}

// lateEnv finishes every step, ignoring the caller's deadline.
type lateEnv struct{ Env }

func (e lateEnv) StepContext(_ context.Context, a core.Action) core.StepResult {
	time.Sleep(60 * time.Millisecond)
	return e.Env.StepContext(context.Background(), a)
}

func TestBridgeTimedOutStepStillApplies(t *testing.T) {
	env, _ := testFactory(t)(1)
	b := NewBridge(lateEnv{env}, 25*time.Millisecond)
	defer b.Close()

	if _, err := b.Reset(context.Background(), core.RuntimeConfig{Seed: 1}); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if _, err := b.Step(context.Background(), 0); !errors.Is(err, ErrTimeout) {
		t.Fatalf("error = %v, want ErrTimeout", err)
	}
	time.Sleep(80 * time.Millisecond) // let the env finish the dropped step

	obs, err := b.Observe(context.Background())
	if err != nil {
		t.Fatalf("Observe failed: %v", err)
	}
	if obs.Phase != core.PhaseStrategist {
		t.Errorf("phase = %s, want STRATEGIST after the late starter pick", obs.Phase)
	}
}

func TestBridgeClosed(t *testing.T) {
	env, _ := testFactory(t)(1)
	b := NewBridge(env, 0)
	b.Close()
	b.Close()

	if _, err := b.Observe(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("error = %v, want ErrClosed", err)
	}
}

func TestHub(t *testing.T) {
	h := NewHub(HubConfig{MaxEnvs: 2, IdleTimeout: time.Minute})
	defer h.Stop()

	f := testFactory(t)
	e1, _ := f(1)
	e2, _ := f(2)
	e3, _ := f(3)

	a, err := h.Open(e1, 0)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if a.GauntletID != "mini" || a.ID == "" {
		t.Errorf("unexpected handle: %+v", a)
	}
	if _, err := h.Open(e2, 0); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := h.Open(e3, 0); !errors.Is(err, ErrHubFull) {
		t.Errorf("error = %v, want ErrHubFull", err)
	}

	if got, ok := h.Get(a.ID); !ok || got != a {
		t.Error("Get did not return the opened handle")
	}
	if !h.Close(a.ID) || h.Close(a.ID) {
		t.Error("Close should succeed once")
	}
	if _, err := a.Bridge.Mask(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("closed handle should reject requests, got %v", err)
	}

	if n := h.closeIdle(time.Now().Add(2 * time.Minute)); n != 1 || h.Count() != 0 {
		t.Errorf("closeIdle closed %d, %d left", n, h.Count())
	}
}
