package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadGameConfig(t *testing.T) {
	path := writeFile(t, "game.json", `{"starting_gold": 1000, "master_seed": 7}`)

	cfg, err := LoadGameConfig(path)
	if err != nil {
		t.Fatalf("LoadGameConfig returned error: %v", err)
	}
	if cfg.StartingGold != 1000 || cfg.MasterSeed != 7 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.RequestGoldAmount != DefaultRequestGoldAmount {
		t.Fatalf("missing field should keep default, got %d", cfg.RequestGoldAmount)
	}
}

func TestLoadGameConfigErrors(t *testing.T) {
	if _, err := LoadGameConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
	if _, err := LoadGameConfig(writeFile(t, "bad.json", `{`)); err == nil {
		t.Fatal("expected error for malformed json")
	}
}

func TestApplyRuntimeEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyRuntimeEnv(map[string]string{
		EnvStartingGold:      "250",
		EnvMasterSeed:        "0x2a",
		EnvRequestGoldAmount: "",
		EnvDeployer:          "ops",
		"unrelated":          "x",
	})
	if err != nil {
		t.Fatalf("ApplyRuntimeEnv returned error: %v", err)
	}
	if cfg.StartingGold != 250 || cfg.MasterSeed != 42 || cfg.RequestGoldAmount != DefaultRequestGoldAmount || cfg.Deployer != "ops" {
		t.Fatalf("unexpected config %+v", cfg)
	}

	if err := cfg.ApplyRuntimeEnv(map[string]string{EnvStartingGold: "-1"}); err == nil {
		t.Fatal("expected error for negative value")
	}
}

func TestApplyProcessEnv(t *testing.T) {
	t.Setenv("TD_STARTING_GOLD", "900")
	t.Setenv("TD_REQUEST_GOLD", "25")

	cfg := Default()
	if err := cfg.ApplyProcessEnv(); err != nil {
		t.Fatalf("ApplyProcessEnv returned error: %v", err)
	}
	if cfg.StartingGold != 900 || cfg.RequestGoldAmount != 25 || cfg.MasterSeed != 0 {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestGameConfigValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	cfg.RequestGoldAmount = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("zero request gold should be rejected")
	}
}

func TestLoadServerConfig(t *testing.T) {
	path := writeFile(t, "server.yaml", `
http:
  address: ":9090"
storage:
  driver: memory
auth:
  jwt_secret: s3cret
game:
  starting_gold: 50
`)
	cfg, err := LoadServerConfig(path)
	if err != nil {
		t.Fatalf("LoadServerConfig returned error: %v", err)
	}
	if cfg.HTTP.Address != ":9090" || cfg.Storage.Driver != "memory" || cfg.Auth.JWTSecret != "s3cret" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Game.StartingGold != 50 || cfg.Game.RequestGoldAmount != DefaultRequestGoldAmount {
		t.Fatalf("unexpected game config %+v", cfg.Game)
	}
	if cfg.Auth.Issuer != "towerdefense" || cfg.Logging.Level != "info" {
		t.Fatal("defaults should fill unset keys")
	}
}

func TestLoadServerConfigEnv(t *testing.T) {
	t.Setenv("TD_AUTH_JWT_SECRET", "from-env")
	t.Setenv("TD_STORAGE_DRIVER", "memory")

	cfg, err := LoadServerConfig("")
	if err != nil {
		t.Fatalf("LoadServerConfig returned error: %v", err)
	}
	if cfg.Auth.JWTSecret != "from-env" || cfg.Storage.Driver != "memory" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestServerConfigValidate(t *testing.T) {
	if _, err := LoadServerConfig(""); err == nil {
		t.Fatal("missing jwt secret should be rejected")
	}

	cfg := ServerConfig{Auth: AuthConfig{JWTSecret: "x"}, Storage: StorageConfig{Driver: "mysql"}, Game: Default()}
	if err := cfg.Validate(); err == nil {
		t.Fatal("mysql without dsn should be rejected")
	}
	cfg.Storage.Driver = "cassandra"
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown driver should be rejected")
	}
}
