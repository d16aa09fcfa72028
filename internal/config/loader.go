package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const fileName = "gauntlet.yaml"

// Load loads the configuration and applies environment overrides.
// Search order: customPath -> ~/.nuzlocke/configs/gauntlet.yaml ->
// ./configs/gauntlet.yaml -> embedded default.
// Files are decoded over Default(), so partial files keep the remaining defaults.
func Load(customPath string) (Config, error) {
	cfg, err := loadFile(customPath)
	if err != nil {
		return cfg, err
	}
	if err := ParseEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func loadFile(customPath string) (Config, error) {
	cfg := Default()

	// Try custom path first
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", customPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", customPath, err)
		}
		return cfg, nil
	}

	// Try user config directory
	if userCfgPath := userConfigPath(fileName); userCfgPath != "" {
		if data, err := os.ReadFile(userCfgPath); err == nil {
			candidate := Default()
			if err := yaml.Unmarshal(data, &candidate); err == nil {
				return candidate, nil
			}
		}
	}

	// Try local configs directory
	if data, err := os.ReadFile(filepath.Join("configs", fileName)); err == nil {
		candidate := Default()
		if err := yaml.Unmarshal(data, &candidate); err == nil {
			return candidate, nil
		}
	}

	// Use embedded default YAML
	candidate := Default()
	if err := yaml.Unmarshal(defaultGauntletYAML, &candidate); err != nil {
		return Default(), nil // Fallback to hardcoded if embed fails
	}
	return candidate, nil
}

// ParseEnv applies GAUNTLET_* environment variables on top of target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate rejects configurations the environment cannot run with.
func (c Config) Validate() error {
	if c.Env.ActionCount < 2 {
		return fmt.Errorf("config: env.action_count must be at least 2, got %d", c.Env.ActionCount)
	}
	if c.Env.MaxSteps < 0 {
		return fmt.Errorf("config: env.max_steps must not be negative")
	}
	switch c.Simulator.Kind {
	case SimulatorMock:
	case SimulatorRemote:
		if c.Simulator.URL == "" {
			return fmt.Errorf("config: simulator.url is required for the remote simulator")
		}
	default:
		return fmt.Errorf("config: unknown simulator kind %q", c.Simulator.Kind)
	}
	if c.Simulator.PoolSize < 1 {
		return fmt.Errorf("config: simulator.pool_size must be at least 1")
	}
	return nil
}

// userConfigPath returns the path to user config file, or empty if home is unavailable.
func userConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".nuzlocke", "configs", filename)
}
