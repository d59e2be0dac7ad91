package config

import "testing"

func setKey(t *testing.T) {
	t.Helper()
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
}

func TestLoadDefaults(t *testing.T) {
	setKey(t)

	cfg, err := Load("does-not-exist.env")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DBPath != "vending_simulation.db" {
		t.Fatalf("unexpected default db path: %q", cfg.DBPath)
	}
	if cfg.Seed != 42 || cfg.MaxActions != 100 || cfg.ContextTokens != 30000 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	setKey(t)
	t.Setenv("VENDSIM_SEED", "7")
	t.Setenv("VENDSIM_ACTIONS", "5")
	t.Setenv("VENDSIM_DB_PATH", "/tmp/run.db")

	cfg, err := Load("does-not-exist.env")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Seed != 7 || cfg.MaxActions != 5 || cfg.DBPath != "/tmp/run.db" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoadBadIntFallsBack(t *testing.T) {
	setKey(t)
	t.Setenv("VENDSIM_SEED", "not-a-number")

	cfg, err := Load("does-not-exist.env")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Seed != 42 {
		t.Fatalf("unparsable seed should fall back, got %d", cfg.Seed)
	}
}

func TestValidateRequiresKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	if _, err := Load("does-not-exist.env"); err == nil {
		t.Fatal("missing api key must fail validation")
	}

	c := &Config{AnthropicKey: "sk", DBPath: "x.db", MaxActions: 0, ContextTokens: 1}
	if err := c.Validate(); err == nil {
		t.Fatal("non-positive action budget must fail validation")
	}
}
