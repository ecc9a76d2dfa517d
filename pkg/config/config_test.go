package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Provider.Model != "gemini-2.0-flash" {
		t.Errorf("model = %q", cfg.Provider.Model)
	}
	if cfg.Gen.StepDelayMS != 400 {
		t.Errorf("step delay = %d", cfg.Gen.StepDelayMS)
	}
	if cfg.Storage.Backend != "file" || cfg.Cache.Backend != "file" {
		t.Errorf("backends = %q / %q", cfg.Storage.Backend, cfg.Cache.Backend)
	}
	if cfg.Server.Addr != ":8723" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider.Model != Default().Provider.Model {
		t.Error("missing file did not yield defaults")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[provider]
model = "gemini-2.5-pro"

[gen]
step_delay_ms = 100
user_context = "grad student"

[storage]
backend = "mongo"
mongo_uri = "mongodb://localhost"
mongo_database = "canopy"

[cache]
backend = "none"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider.Model != "gemini-2.5-pro" {
		t.Errorf("model = %q", cfg.Provider.Model)
	}
	if cfg.Gen.StepDelayMS != 100 || cfg.Gen.UserContext != "grad student" {
		t.Errorf("gen = %+v", cfg.Gen)
	}
	if cfg.Storage.Backend != "mongo" || cfg.Storage.MongoURI != "mongodb://localhost" {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if cfg.Cache.Backend != "none" {
		t.Errorf("cache backend = %q", cfg.Cache.Backend)
	}
	// Unset sections keep defaults.
	if cfg.Server.Addr != ":8723" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
}

func TestLoadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("not [valid toml"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("invalid TOML loaded without error")
	}
}

func TestLoadEnvOverridesAPIKey(t *testing.T) {
	t.Setenv("CANOPY_API_KEY", "from-canopy")
	t.Setenv("GEMINI_API_KEY", "from-gemini")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider.APIKey != "from-canopy" {
		t.Errorf("api key = %q, want CANOPY_API_KEY to win", cfg.Provider.APIKey)
	}

	t.Setenv("CANOPY_API_KEY", "")
	cfg, _ = Load(filepath.Join(t.TempDir(), "nope.toml"))
	if cfg.Provider.APIKey != "from-gemini" {
		t.Errorf("api key = %q, want GEMINI_API_KEY fallback", cfg.Provider.APIKey)
	}
}

func TestDefaultPathHonorsXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	path, err := DefaultPath()
	if err != nil {
		t.Fatalf("DefaultPath: %v", err)
	}
	if path != filepath.Join("/tmp/xdg", "canopy", "config.toml") {
		t.Errorf("path = %q", path)
	}
}
