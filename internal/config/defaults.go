package config

import (
	_ "embed"
	"time"
)

//go:embed defaults/gauntlet.yaml
var defaultGauntletYAML []byte

// Default returns the hardcoded configuration. It mirrors the embedded
// defaults/gauntlet.yaml and is used if that file cannot be parsed.
func Default() Config {
	return Config{
		Rewards: RewardsConfig{
			Win:           1.0,
			Loss:          -1.0,
			Completion:    10.0,
			Death:         -0.1,
			Wipe:          -5.0,
			Rebuild:       -0.1,
			InvalidAction: -0.05,
		},
		Env: EnvConfig{
			ActionCount:   64,
			FillerMove:    "tackle",
			MaxSteps:      2000,
			BattleTimeout: 2 * time.Minute,
		},
		Simulator: SimulatorConfig{
			Kind:        SimulatorMock,
			URL:         "http://localhost:8000",
			Timeout:     60 * time.Second,
			TurnCeiling: 300,
			PoolSize:    4,
		},
		Storage: StorageConfig{
			Path: "~/.nuzlocke/runs.db",
		},
		Server: ServerConfig{
			Addr:      ":8080",
			RateLimit: 50,
			Burst:     100,
			MaxEnvs:   64,
			StepWait:  30 * time.Second,
		},
		SSH: SSHConfig{
			Host:        "0.0.0.0",
			Port:        2222,
			HostKeyPath: ".ssh/gauntlet_ed25519",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
