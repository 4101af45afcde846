package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/msalah0e/h2canvas/internal/plant"
)

// Config holds h2canvas configuration.
type Config struct {
	Server ServerConfig `toml:"server"`
	Editor EditorConfig `toml:"editor"`
	Sim    SimConfig    `toml:"sim"`
	Plant  PlantConfig  `toml:"plant"`
	Log    LogConfig    `toml:"log"`
}

// ServerConfig controls the plant service and how the editor reaches it.
type ServerConfig struct {
	Port           int    `toml:"port"`
	URL            string `toml:"url"`
	TimeoutSeconds int    `toml:"timeout_seconds"` // 0 disables the client timeout
}

// EditorConfig controls canvas behavior.
type EditorConfig struct {
	IconHalfExtent    float64 `toml:"icon_half_extent"`
	PromptConnect     bool    `toml:"prompt_connect"`
	InertiaResistance float64 `toml:"inertia_resistance"`
	InertiaMinSpeed   float64 `toml:"inertia_min_speed"`
}

// SimConfig controls simulation runs.
type SimConfig struct {
	Steps       int   `toml:"steps"`
	Seed        int64 `toml:"seed"`
	Concurrency int   `toml:"concurrency"`
}

// PlantConfig holds the ratings new components are built with.
type PlantConfig struct {
	ElectrolyzerCapacity   float64 `toml:"electrolyzer_capacity_mw"`
	ElectrolyzerEfficiency float64 `toml:"electrolyzer_efficiency"`
	SolarMaxOutput         float64 `toml:"solar_max_output_mw"`
	WindMaxOutput          float64 `toml:"wind_max_output_mw"`
	BatteryMaxOutput       float64 `toml:"battery_max_output_mw"`
	BatteryCapacity        float64 `toml:"battery_capacity_mwh"`
	PowerSourceMaxOutput   float64 `toml:"power_source_max_output_mw"`
	StorageMaxCapacity     float64 `toml:"storage_max_capacity_mwh"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level string `toml:"level"` // "debug", "info", "warn", "error"
}

// Default returns the default configuration.
func Default() *Config {
	r := plant.DefaultRatings()
	return &Config{
		Server: ServerConfig{Port: 5000, URL: "http://localhost:5000", TimeoutSeconds: 30},
		Editor: EditorConfig{
			IconHalfExtent:    200,
			PromptConnect:     true,
			InertiaResistance: 0.1,
			InertiaMinSpeed:   20,
		},
		Sim: SimConfig{Steps: 24, Seed: 1, Concurrency: 4},
		Plant: PlantConfig{
			ElectrolyzerCapacity:   r.ElectrolyzerCapacity,
			ElectrolyzerEfficiency: r.ElectrolyzerEfficiency,
			SolarMaxOutput:         r.SolarMaxOutput,
			WindMaxOutput:          r.WindMaxOutput,
			BatteryMaxOutput:       r.BatteryMaxOutput,
			BatteryCapacity:        r.BatteryCapacity,
			PowerSourceMaxOutput:   r.PowerSourceMaxOutput,
			StorageMaxCapacity:     r.StorageMaxCapacity,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Ratings converts the plant section to simulator ratings.
func (p PlantConfig) Ratings() plant.Defaults {
	return plant.Defaults{
		ElectrolyzerCapacity:   p.ElectrolyzerCapacity,
		ElectrolyzerEfficiency: p.ElectrolyzerEfficiency,
		SolarMaxOutput:         p.SolarMaxOutput,
		WindMaxOutput:          p.WindMaxOutput,
		BatteryMaxOutput:       p.BatteryMaxOutput,
		BatteryCapacity:        p.BatteryCapacity,
		PowerSourceMaxOutput:   p.PowerSourceMaxOutput,
		StorageMaxCapacity:     p.StorageMaxCapacity,
	}
}

// SlogLevel maps the configured level to a slog level. Unknown values mean info.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(l.Level)) {
	case "error":
		return slog.LevelError
	case "warn", "warning":
		return slog.LevelWarn
	case "debug", "trace":
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// ConfigDir returns the h2canvas config directory path.
func ConfigDir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "h2canvas")
}

// Path returns the config file path.
func Path() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// ProjectFile is the per-project override file, looked up from the working
// directory towards the root.
const ProjectFile = ".h2canvas.toml"

// Load reads the user config file, then the nearest project file on top of
// it. Missing or unreadable files are skipped.
func Load() *Config {
	cfg := Default()

	for _, path := range []string{Path(), findProjectConfig()} {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		_ = toml.Unmarshal(data, cfg)
	}
	return cfg
}

func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, ProjectFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Save writes the config to disk.
func Save(cfg *Config) error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// EnsureExists creates the config file with defaults if it doesn't exist.
func EnsureExists() error {
	if _, err := os.Stat(Path()); err == nil {
		return nil
	}
	return Save(Default())
}

// LoadDotEnv loads KEY=VALUE pairs from path into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Environment variables that override the config file.
const (
	EnvPort      = "H2CANVAS_PORT"
	EnvServerURL = "H2CANVAS_SERVER_URL"
	EnvLogLevel  = "H2CANVAS_LOG_LEVEL"
)

// ApplyEnv overlays environment overrides onto cfg. Malformed numbers are
// ignored.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			c.Server.Port = port
		}
	}
	if v := os.Getenv(EnvServerURL); v != "" {
		c.Server.URL = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
}
