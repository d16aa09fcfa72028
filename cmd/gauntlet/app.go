package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"golang.org/x/term"

	"github.com/vovakirdan/nuzlocke-gauntlet/internal/config"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/data"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/dex"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/gauntlet"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/platform/tui"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/random"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/registry"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/sim"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/storage"
)

// app holds what every command builds from the config.
type app struct {
	cfg    config.Config
	logger *log.Logger
	dex    *dex.Dex
	pool   *sim.Pool // shared remote simulators; nil for the mock
}

// setup loads config, logging, the dex and user gauntlets.
func setup() *app {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		fatalf("%v", err)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "gauntlet",
	})
	if level, err := log.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	}
	if flagVerbose {
		logger.SetLevel(log.DebugLevel)
	}

	d, err := dex.Default()
	if err != nil {
		fatalf("cannot load dex: %v", err)
	}

	a := &app{cfg: cfg, logger: logger, dex: d}
	a.loadUserGauntlets()

	if cfg.Simulator.Kind == config.SimulatorRemote {
		a.pool = sim.NewPoolOf(cfg.Simulator.PoolSize, func(int) sim.Simulator {
			return sim.NewRemote(sim.RemoteOptions{
				BaseURL:     cfg.Simulator.URL,
				Timeout:     cfg.Simulator.Timeout,
				TurnCeiling: cfg.Simulator.TurnCeiling,
				Logger:      logger.WithPrefix("sim"),
			})
		})
	}
	return a
}

// loadUserGauntlets registers gauntlets from ~/.nuzlocke/gauntlets.
func (a *app) loadUserGauntlets() {
	dir := data.UserDir()
	if dir == "" {
		return
	}
	table, err := data.Encounters()
	if err != nil {
		a.logger.Warn("cannot load encounter table", "err", err)
		return
	}
	defs, err := data.LoadDir(dir, table)
	if err != nil {
		a.logger.Warn("cannot load user gauntlets", "dir", dir, "err", err)
		return
	}
	for _, def := range defs {
		if err := registry.Add(def); err != nil {
			a.logger.Warn("skipping user gauntlet", "id", def.ID, "err", err)
			continue
		}
		a.logger.Debug("loaded user gauntlet", "id", def.ID)
	}
}

// simulator returns the battle simulator for a run seeded with seed.
func (a *app) simulator(seed int64) sim.Simulator {
	if a.pool != nil {
		return a.pool
	}
	return sim.NewMock(seed, a.cfg.Simulator.TurnCeiling)
}

// newEnv creates an environment for a registered gauntlet.
func (a *app) newEnv(id string, seed int64) (*gauntlet.Env, error) {
	return registry.Create(id, gauntlet.Options{
		Rewards:   a.cfg.Rewards,
		Env:       a.cfg.Env,
		Dex:       a.dex,
		Simulator: a.simulator(seed),
		Logger:    a.logger.WithPrefix(id),
	})
}

// envFactory adapts newEnv for the TUI, drawing a fresh simulator seed.
func (a *app) envFactory() tui.EnvFactory {
	return func(id string) (*gauntlet.Env, error) {
		return a.newEnv(id, random.Resolve(flagSeed))
	}
}

// dbPath is --db, falling back to storage.path from the config.
func (a *app) dbPath() string {
	if flagDBPath != "" {
		return flagDBPath
	}
	return a.cfg.Storage.Path
}

// openStore opens the runs database or exits.
func (a *app) openStore() *storage.Store {
	store, err := storage.Open(a.dbPath())
	if err != nil {
		fatalf("cannot open runs database: %v", err)
	}
	return store
}

// tryStore opens the runs database, returning nil with a warning on
// failure so interactive play still works.
func (a *app) tryStore() tui.Store {
	store, err := storage.Open(a.dbPath())
	if err != nil {
		a.logger.Warn("could not open runs database", "err", err)
		return nil
	}
	return store
}

// closeStore closes a store returned by tryStore.
func closeStore(s tui.Store) {
	if c, ok := s.(*storage.Store); ok {
		c.Close()
	}
}

// requireGauntlet exits unless id is registered.
func requireGauntlet(id string) {
	if !registry.Exists(id) {
		fmt.Fprintf(os.Stderr, "Error: unknown gauntlet %q\n", id)
		fmt.Fprintln(os.Stderr, "Run 'gauntlet list' to see available gauntlets.")
		os.Exit(1)
	}
}

// terminalSize returns the terminal size, defaulting to 80x24.
func terminalSize() (int, int) {
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		return w, h
	}
	return 80, 24
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
