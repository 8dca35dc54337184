// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Ground update modes.
const (
	// UpdateSnapshot makes every cell read its neighbors' pre-tick values.
	UpdateSnapshot = "snapshot"
	// UpdateSweep updates cells in place in raster order, so later cells see
	// values already written this tick.
	UpdateSweep = "sweep"
)

// Config holds all simulation configuration parameters.
type Config struct {
	World      WorldConfig      `yaml:"world"`
	Physics    PhysicsConfig    `yaml:"physics"`
	Ground     GroundConfig     `yaml:"ground"`
	Rabbit     RabbitConfig     `yaml:"rabbit"`
	Population PopulationConfig `yaml:"population"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Bookmarks  BookmarksConfig  `yaml:"bookmarks"`
}

// WorldConfig holds grid dimensions. The grid size is fixed for a run.
type WorldConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// PhysicsConfig holds stepping parameters.
type PhysicsConfig struct {
	DT float64 `yaml:"dt"` // seconds per tick in fixed-step mode
}

// GroundConfig holds the ground growth model.
type GroundConfig struct {
	MinSelfGrowFactor  float64 `yaml:"min_self_grow_factor"` // floor applied to own life in self growth
	SelfGrowFactor     float64 `yaml:"self_grow_factor"`
	AdjacentGrowFactor float64 `yaml:"adjacent_grow_factor"`
	MaxGrowFactor      float64 `yaml:"max_grow_factor"` // growth cap per second
	UpdateMode         string  `yaml:"update_mode"`     // snapshot | sweep
	Workers            int     `yaml:"workers"`         // row-band workers for the snapshot pass
}

// RabbitConfig holds agent behavior parameters.
type RabbitConfig struct {
	FullLife       float64 `yaml:"full_life"`        // life of rabbits placed at setup
	MoveInterval   float64 `yaml:"move_interval"`    // seconds between behavior decisions
	LifeInterval   float64 `yaml:"life_interval"`    // life lost per second
	EatInterval    float64 `yaml:"eat_interval"`     // max ground taken per forage
	MinEatInterval float64 `yaml:"min_eat_interval"` // ground must exceed this to forage
	BreedThreshold float64 `yaml:"breed_threshold"`  // breed instead of eat above this life
	ChildLife      float64 `yaml:"child_life"`
}

// PopulationConfig holds population seeding parameters.
type PopulationConfig struct {
	Initial int `yaml:"initial"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"` // simulation seconds per stats window
	BookmarkHistorySize int     `yaml:"bookmark_history_size"`
}

// BookmarksConfig holds bookmark detection thresholds.
type BookmarksConfig struct {
	PopulationCrash  PopulationCrashConfig  `yaml:"population_crash"`
	PopulationBoom   PopulationBoomConfig   `yaml:"population_boom"`
	StablePopulation StablePopulationConfig `yaml:"stable_population"`
}

// PopulationCrashConfig holds population crash detection parameters.
type PopulationCrashConfig struct {
	DropPercent float64 `yaml:"drop_percent"`
	MinDrop     int     `yaml:"min_drop"`
}

// PopulationBoomConfig holds population boom detection parameters.
type PopulationBoomConfig struct {
	Multiplier float64 `yaml:"multiplier"`
	MinFinal   int     `yaml:"min_final"`
}

// StablePopulationConfig holds stable population detection parameters.
type StablePopulationConfig struct {
	MinRabbits    int     `yaml:"min_rabbits"`
	CVThreshold   float64 `yaml:"cv_threshold"`
	StableWindows int     `yaml:"stable_windows"`
}

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Default returns the embedded default configuration.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	return cfg, nil
}

// Validate checks structural settings. Tunable parameters are checked
// against their specs so a bad file cannot smuggle in a value that a live
// Set call would reject.
func (c *Config) Validate() error {
	if c.World.Width <= 0 || c.World.Height <= 0 {
		return fmt.Errorf("%w: world size %dx%d", ErrInvalid, c.World.Width, c.World.Height)
	}
	if c.Physics.DT < 0 {
		return fmt.Errorf("%w: physics.dt %v", ErrInvalid, c.Physics.DT)
	}
	switch c.Ground.UpdateMode {
	case "", UpdateSnapshot, UpdateSweep:
	default:
		return fmt.Errorf("%w: ground.update_mode %q", ErrInvalid, c.Ground.UpdateMode)
	}
	if c.Ground.Workers < 0 {
		return fmt.Errorf("%w: ground.workers %d", ErrInvalid, c.Ground.Workers)
	}
	for _, spec := range paramSpecs {
		if err := spec.check(spec.get(c)); err != nil {
			return err
		}
	}
	return nil
}

// applyDefaults fills structural settings a user file may leave blank.
func (c *Config) applyDefaults() {
	if c.Ground.UpdateMode == "" {
		c.Ground.UpdateMode = UpdateSnapshot
	}
	if c.Ground.Workers == 0 {
		c.Ground.Workers = 1
	}
}

// Clone returns an independent copy of the configuration.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// YAML renders the configuration as YAML.
func (c *Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return data, nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := c.YAML()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
