package nakama

import (
	"context"
	"database/sql"

	"towerdefense/internal/config"

	"github.com/heroiclabs/nakama-common/runtime"
)

// InitModule wires RPCs for the Nakama runtime.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)

	cfg, err := loadGameConfig(env)
	if err != nil {
		logger.Error("InitModule: Invalid game config: %v", err)
		return err
	}

	if err := NewModule(cfg, nil).RegisterRPCs(initializer); err != nil {
		return err
	}

	logger.Info("TowerDefense Go module loaded (starting_gold=%d, request_gold=%d).", cfg.StartingGold, cfg.RequestGoldAmount)
	return nil
}

// loadGameConfig applies the optional JSON file and then runtime env overrides.
func loadGameConfig(env map[string]string) (config.GameConfig, error) {
	cfg := config.Default()
	if path := env[config.EnvConfigPath]; path != "" {
		loaded, err := config.LoadGameConfig(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyRuntimeEnv(env); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}
