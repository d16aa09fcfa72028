// Package config provides YAML-based configuration loading for the
// gauntlet environment, with environment variable overrides.
package config

import "time"

// Config is the full application configuration.
type Config struct {
	Rewards   RewardsConfig   `yaml:"rewards"`
	Env       EnvConfig       `yaml:"env"`
	Simulator SimulatorConfig `yaml:"simulator"`
	Storage   StorageConfig   `yaml:"storage"`
	Server    ServerConfig    `yaml:"server"`
	SSH       SSHConfig       `yaml:"ssh"`
	Log       LogConfig       `yaml:"log"`
}

// RewardsConfig is the reward scheme applied by the environment.
type RewardsConfig struct {
	Win           float64 `yaml:"win"`
	Loss          float64 `yaml:"loss"`
	Completion    float64 `yaml:"completion"`     // added once when the last node is cleared
	Death         float64 `yaml:"death"`          // per party member lost in a battle
	Wipe          float64 `yaml:"wipe"`           // added when no living members remain
	Rebuild       float64 `yaml:"rebuild"`        // second and later consecutive rebuilds
	InvalidAction float64 `yaml:"invalid_action"` // action outside the mask
}

// EnvConfig defines the environment's action space and limits.
type EnvConfig struct {
	// ActionCount sizes the mask. Only the first ActionCount starters and
	// alive-roster entries can be picked, and BUILD_MOVE offers ActionCount-1 moves.
	ActionCount   int           `yaml:"action_count" env:"GAUNTLET_ACTION_COUNT"`
	FillerMove    string        `yaml:"filler_move"`
	MaxSteps      int           `yaml:"max_steps" env:"GAUNTLET_MAX_STEPS"` // 0 disables the cap
	BattleTimeout time.Duration `yaml:"battle_timeout"`
}

// SimulatorConfig selects and tunes the battle simulator.
type SimulatorConfig struct {
	Kind        string        `yaml:"kind" env:"GAUNTLET_SIM_KIND"` // "mock" or "remote"
	URL         string        `yaml:"url" env:"GAUNTLET_SIM_URL"`
	Timeout     time.Duration `yaml:"timeout"`
	TurnCeiling int           `yaml:"turn_ceiling"`
	PoolSize    int           `yaml:"pool_size" env:"GAUNTLET_SIM_POOL"`
}

// StorageConfig locates the run history database.
type StorageConfig struct {
	Path string `yaml:"path" env:"GAUNTLET_DB"`
}

// ServerConfig configures the HTTP environment API.
type ServerConfig struct {
	Addr      string        `yaml:"addr" env:"GAUNTLET_ADDR"`
	RateLimit float64       `yaml:"rate_limit"` // requests per second per client
	Burst     int           `yaml:"burst"`
	MaxEnvs   int           `yaml:"max_envs"`
	StepWait  time.Duration `yaml:"step_wait"` // per-request wait on the env actor
}

// SSHConfig configures the SSH play server.
type SSHConfig struct {
	Host        string `yaml:"host" env:"GAUNTLET_SSH_HOST"`
	Port        int    `yaml:"port" env:"GAUNTLET_SSH_PORT"`
	HostKeyPath string `yaml:"host_key_path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level" env:"GAUNTLET_LOG_LEVEL"`
}

// Simulator kinds.
const (
	SimulatorMock   = "mock"
	SimulatorRemote = "remote"
)
