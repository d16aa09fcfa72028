package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/nuzlocke-gauntlet/internal/envserver"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/random"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/registry"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/runner"
)

var flagServeAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP environment API",
	Long: `Start an HTTP server that lets an external trainer drive environments.

Endpoints:
  GET    /healthz                 - Liveness and open env count
  GET    /gauntlets               - Registered gauntlets
  GET    /envs                    - Open environments
  POST   /envs                    - Create and reset {"gauntlet", "seed", "max_steps"}
  POST   /envs/{id}/reset         - Reset {"seed", "max_steps"}
  POST   /envs/{id}/step          - Step {"action"}
  GET    /envs/{id}/mask          - Legal action mask
  GET    /envs/{id}/observation   - Observation and flat vector
  GET    /envs/{id}/state         - Episode state
  DELETE /envs/{id}               - Close

Limits (server section of the config): per-client rate limit, open env cap,
per-request step wait. Idle environments are closed automatically.

Examples:
  gauntlet serve
  gauntlet serve --addr :9000
  GAUNTLET_SIM_KIND=remote GAUNTLET_SIM_URL=http://sim:8000 gauntlet serve`,
	Run: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagServeAddr, "addr", "", "Listen address (default server.addr from config)")
}

func runServe(_ *cobra.Command, _ []string) {
	a := setup()

	addr := flagServeAddr
	if addr == "" {
		addr = a.cfg.Server.Addr
	}

	cfg := envserver.DefaultConfig()
	cfg.RateLimit = a.cfg.Server.RateLimit
	cfg.Burst = a.cfg.Server.Burst
	cfg.MaxEnvs = a.cfg.Server.MaxEnvs
	if a.cfg.Server.StepWait > 0 {
		cfg.StepWait = a.cfg.Server.StepWait
	}

	factory := func(id string) (runner.Env, error) {
		if !registry.Exists(id) {
			return nil, envserver.ErrUnknownGauntlet
		}
		return a.newEnv(id, random.Resolve(flagSeed))
	}
	catalog := func() any { return registry.List() }

	srv := envserver.NewServer(cfg, factory, catalog, a.logger.WithPrefix("http"))

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("Environment API on %s (Ctrl+C to stop)\n", addr)
	if err := srv.ListenAndServe(ctx, addr); err != nil {
		fatalf("server error: %v", err)
	}
}
