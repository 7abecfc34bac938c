package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/caarlos0/env/v11"
)

const (
	DefaultStartingGold      uint64 = 500
	DefaultRequestGoldAmount uint64 = 100
)

// Runtime env keys read from the Nakama runtime environment map.
const (
	EnvConfigPath        = "towerdefense_config_path"
	EnvStartingGold      = "towerdefense_starting_gold"
	EnvMasterSeed        = "towerdefense_master_seed"
	EnvRequestGoldAmount = "towerdefense_request_gold_amount"
	EnvDeployer          = "towerdefense_deployer"
)

// GameConfig holds the tunables applied when accounts are provisioned.
type GameConfig struct {
	StartingGold uint64 `json:"starting_gold" mapstructure:"starting_gold" env:"TD_STARTING_GOLD"`
	// MasterSeed is mixed with each owner id to seed that owner's decks.
	// Zero selects the built-in fallback seed.
	MasterSeed        uint64 `json:"master_seed" mapstructure:"master_seed" env:"TD_MASTER_SEED"`
	RequestGoldAmount uint64 `json:"request_gold_amount" mapstructure:"request_gold_amount" env:"TD_REQUEST_GOLD"`
	// Deployer names the operator of this instance and is reported by game info.
	Deployer string `json:"deployer" mapstructure:"deployer" env:"TD_DEPLOYER"`
}

// Default returns the built-in configuration.
func Default() GameConfig {
	return GameConfig{
		StartingGold:      DefaultStartingGold,
		RequestGoldAmount: DefaultRequestGoldAmount,
	}
}

// LoadGameConfig reads a JSON file over the defaults. Fields missing from
// the file keep their default value.
func LoadGameConfig(path string) (GameConfig, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read game config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to unmarshal game config: %w", err)
	}
	return cfg, nil
}

// ApplyRuntimeEnv overrides fields from a Nakama runtime env map.
func (c *GameConfig) ApplyRuntimeEnv(vars map[string]string) error {
	fields := []struct {
		key    string
		target *uint64
	}{
		{EnvStartingGold, &c.StartingGold},
		{EnvMasterSeed, &c.MasterSeed},
		{EnvRequestGoldAmount, &c.RequestGoldAmount},
	}
	for _, f := range fields {
		raw, ok := vars[f.key]
		if !ok || raw == "" {
			continue
		}
		v, err := strconv.ParseUint(raw, 0, 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", f.key, raw, err)
		}
		*f.target = v
	}
	if d, ok := vars[EnvDeployer]; ok && d != "" {
		c.Deployer = d
	}
	return nil
}

// ApplyProcessEnv overrides fields from TD_* process environment variables.
func (c *GameConfig) ApplyProcessEnv() error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate rejects configurations the game cannot run with.
func (c GameConfig) Validate() error {
	if c.RequestGoldAmount == 0 {
		return errors.New("request_gold_amount must be positive")
	}
	return nil
}
