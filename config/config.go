// Package config is the TOML-backed construction-time configuration for
// a simulator run: how many of each functional unit the scoreboard pool
// holds, and each unit's execution latency. Grounded on the teacher's
// config/config.go (platform config-path resolution, Load/LoadFrom/Save
// shape), narrowed to the sections this simulator actually needs.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config is the full construction-time configuration for one run.
type Config struct {
	Units      UnitCounts `toml:"units"`
	Latencies  Latencies  `toml:"latencies"`
	DataWords  int        `toml:"data_words"`
	MaxCycles  uint64     `toml:"max_cycles"`
}

// UnitCounts is how many of each functional-unit type the scoreboard's
// pool holds, per spec.md §4.4's default pool table.
type UnitCounts struct {
	ALU  int `toml:"alu_count"`
	Mem  int `toml:"mem_count"`
	Mul  int `toml:"mul_count"`
	Div  int `toml:"div_count"`
	Saxs int `toml:"saxs_count"`
}

// Latencies is each unit type's fixed per-instruction execution latency,
// in cycles.
type Latencies struct {
	ALU  int `toml:"alu_latency"`
	Mem  int `toml:"mem_latency"`
	Mul  int `toml:"mul_latency"`
	Div  int `toml:"div_latency"`
	Saxs int `toml:"saxs_latency"`
}

// DefaultConfig returns spec.md §4.4's default pool: 2 ALUs, 2 memory
// units, 1 multiplier, 1 divider, 1 SAXS unit, with latencies 1/3/1/40/4.
func DefaultConfig() *Config {
	return &Config{
		Units: UnitCounts{
			ALU:  2,
			Mem:  2,
			Mul:  1,
			Div:  1,
			Saxs: 1,
		},
		Latencies: Latencies{
			ALU:  1,
			Mem:  3,
			Mul:  1,
			Div:  40,
			Saxs: 4,
		},
		DataWords: 15360, // same value as datapath.StepperDataWords
		MaxCycles: 1000000,
	}
}

// GetConfigPath returns the platform-specific config file path, creating
// its directory if necessary. Falls back to a relative path if the
// platform's config directory cannot be resolved or created.
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "teasim")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "teasim")

	default:
		return "config.toml"
	}

	if err := os.MkdirAll(configDir, 0750); err != nil {
		return "config.toml"
	}
	return filepath.Join(configDir, "config.toml")
}

// Load loads configuration from the default config file, falling back to
// DefaultConfig if no file exists there.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from path, falling back to DefaultConfig
// if path does not exist.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %q: %w", path, err)
	}
	return cfg, nil
}

// Save writes c to the default config file.
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo writes c to path as TOML, creating its parent directory if
// necessary.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("config: creating directory %q: %w", dir, err)
	}

	f, err := os.Create(path) // #nosec G304 -- user-specified config path
	if err != nil {
		return fmt.Errorf("config: creating %q: %w", path, err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("config: encoding %q: %w", path, err)
	}
	return nil
}
