package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.Port != 5000 {
		t.Errorf("expected port 5000, got %d", cfg.Server.Port)
	}
	if cfg.Server.URL != "http://localhost:5000" {
		t.Errorf("unexpected server url %q", cfg.Server.URL)
	}
	if !cfg.Editor.PromptConnect {
		t.Error("default prompt_connect should be true")
	}
	if cfg.Editor.IconHalfExtent != 200 {
		t.Errorf("expected half extent 200, got %v", cfg.Editor.IconHalfExtent)
	}
	if cfg.Sim.Steps != 24 {
		t.Errorf("expected 24 steps, got %d", cfg.Sim.Steps)
	}
	if cfg.Plant.ElectrolyzerEfficiency != 0.7 {
		t.Errorf("expected efficiency 0.7, got %v", cfg.Plant.ElectrolyzerEfficiency)
	}
}

func TestConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/test-xdg")
	dir := ConfigDir()
	if dir != "/tmp/test-xdg/h2canvas" {
		t.Errorf("expected /tmp/test-xdg/h2canvas, got %q", dir)
	}

	t.Setenv("XDG_CONFIG_HOME", "")
	dir = ConfigDir()
	home, _ := os.UserHomeDir()
	expected := filepath.Join(home, ".config", "h2canvas")
	if dir != expected {
		t.Errorf("expected %q, got %q", expected, dir)
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	t.Chdir(tmpDir)

	cfg := Default()
	cfg.Sim.Concurrency = 8
	cfg.Editor.PromptConnect = false

	if err := Save(cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded := Load()
	if loaded.Sim.Concurrency != 8 {
		t.Errorf("expected concurrency 8, got %d", loaded.Sim.Concurrency)
	}
	if loaded.Editor.PromptConnect {
		t.Error("expected prompt_connect false after load")
	}
}

func TestEnsureExists(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	if err := EnsureExists(); err != nil {
		t.Fatalf("EnsureExists failed: %v", err)
	}

	path := filepath.Join(tmpDir, "h2canvas", "config.toml")
	if _, err := os.Stat(path); err != nil {
		t.Errorf("config file not created: %v", err)
	}

	if err := EnsureExists(); err != nil {
		t.Fatalf("EnsureExists second call failed: %v", err)
	}
}

func TestProjectConfigOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))
	subDir := filepath.Join(tmpDir, "a", "b")
	if err := os.MkdirAll(subDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, ProjectFile), []byte("[sim]\nsteps = 48\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(subDir)

	found := findProjectConfig()
	expectedResolved, _ := filepath.EvalSymlinks(filepath.Join(tmpDir, ProjectFile))
	foundResolved, _ := filepath.EvalSymlinks(found)
	if foundResolved != expectedResolved {
		t.Errorf("expected %q, got %q", expectedResolved, foundResolved)
	}

	cfg := Load()
	if cfg.Sim.Steps != 48 {
		t.Errorf("expected project steps 48, got %d", cfg.Sim.Steps)
	}
	if cfg.Sim.Concurrency != 4 {
		t.Errorf("unset keys should keep defaults, got concurrency %d", cfg.Sim.Concurrency)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvPort, "8081")
	t.Setenv(EnvServerURL, "http://plant:8081")
	t.Setenv(EnvLogLevel, "debug")

	cfg := Default()
	cfg.ApplyEnv()
	if cfg.Server.Port != 8081 || cfg.Server.URL != "http://plant:8081" {
		t.Errorf("unexpected server config %+v", cfg.Server)
	}
	if cfg.Log.SlogLevel() != slog.LevelDebug {
		t.Errorf("expected debug level, got %v", cfg.Log.SlogLevel())
	}

	t.Setenv(EnvPort, "not-a-port")
	cfg = Default()
	cfg.ApplyEnv()
	if cfg.Server.Port != 5000 {
		t.Errorf("malformed port should be ignored, got %d", cfg.Server.Port)
	}
}

func TestLoadDotEnv(t *testing.T) {
	tmpDir := t.TempDir()
	if err := LoadDotEnv(filepath.Join(tmpDir, "missing.env")); err != nil {
		t.Errorf("missing .env should be ignored, got %v", err)
	}

	path := filepath.Join(tmpDir, ".env")
	if err := os.WriteFile(path, []byte("H2CANVAS_LOG_LEVEL=warn\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvLogLevel, "")
	os.Unsetenv(EnvLogLevel)
	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv failed: %v", err)
	}
	if got := os.Getenv(EnvLogLevel); got != "warn" {
		t.Errorf("expected warn from .env, got %q", got)
	}
}

func TestSlogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"error":  slog.LevelError,
		" WARN ": slog.LevelWarn,
		"trace":  slog.LevelDebug,
		"":       slog.LevelInfo,
		"bogus":  slog.LevelInfo,
	}
	for raw, want := range cases {
		if got := (LogConfig{Level: raw}).SlogLevel(); got != want {
			t.Errorf("%q: expected %v, got %v", raw, want, got)
		}
	}
}

func TestRatings(t *testing.T) {
	cfg := Default()
	cfg.Plant.StorageMaxCapacity = 12
	r := cfg.Plant.Ratings()
	if r.StorageMaxCapacity != 12 || r.ElectrolyzerCapacity != 10 {
		t.Errorf("unexpected ratings %+v", r)
	}
}
