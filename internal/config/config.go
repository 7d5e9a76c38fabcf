// Package config loads simulation settings from embedded defaults, an
// optional YAML file, and SIMULANT_* environment variables.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen ScreenConfig `mapstructure:"screen" yaml:"screen"`
	World  WorldConfig  `mapstructure:"world" yaml:"world"`
	Entity EntityConfig `mapstructure:"entity" yaml:"entity"`
	Player PlayerConfig `mapstructure:"player" yaml:"player"`
	Bot    BotConfig    `mapstructure:"bot" yaml:"bot"`
	Vision VisionConfig `mapstructure:"vision" yaml:"vision"`
	Sim    SimConfig    `mapstructure:"sim" yaml:"sim"`
	Log    LogConfig    `mapstructure:"log" yaml:"log"`

	// Derived values computed after loading
	Derived DerivedConfig `mapstructure:"-" yaml:"-"`
}

// ScreenConfig holds window settings for the front end.
type ScreenConfig struct {
	Width  int `mapstructure:"width" yaml:"width"`
	Height int `mapstructure:"height" yaml:"height"`
}

// CellConfig addresses a grid cell.
type CellConfig struct {
	X int `mapstructure:"x" yaml:"x"`
	Y int `mapstructure:"y" yaml:"y"`
}

// WorldConfig describes the obstacle grid.
type WorldConfig struct {
	TileSize    float64    `mapstructure:"tile_size" yaml:"tile_size"`
	Cols        int        `mapstructure:"cols" yaml:"cols"`
	Rows        int        `mapstructure:"rows" yaml:"rows"`
	Layout      []string   `mapstructure:"layout" yaml:"layout"` // '#' wall, '.' free; overrides cols/rows
	PlayerSpawn CellConfig `mapstructure:"player_spawn" yaml:"player_spawn"`
	BotSpawn    CellConfig `mapstructure:"bot_spawn" yaml:"bot_spawn"`
}

// EntityConfig holds the collision box of both entities.
type EntityConfig struct {
	BoxScale float64 `mapstructure:"box_scale" yaml:"box_scale"` // box edge as a fraction of the tile
}

// PlayerConfig holds the player's movement parameters.
type PlayerConfig struct {
	Speed float64 `mapstructure:"speed" yaml:"speed"` // units per tick
}

// BotConfig holds the bot's movement and behaviour parameters.
type BotConfig struct {
	Speed         float64       `mapstructure:"speed" yaml:"speed"`         // units per tick
	MaxSpeed      float64       `mapstructure:"max_speed" yaml:"max_speed"` // pursuit speed
	SpinRate      float64       `mapstructure:"spin_rate" yaml:"spin_rate"` // radians per tick
	DirectDelay   int           `mapstructure:"direct_delay" yaml:"direct_delay"`
	SpawnDuration time.Duration `mapstructure:"spawn_duration" yaml:"spawn_duration"`
	HuntTimeout   time.Duration `mapstructure:"hunt_timeout" yaml:"hunt_timeout"`
}

// VisionConfig holds the bot's perception parameters.
type VisionConfig struct {
	FOVDeg     float64 `mapstructure:"fov_deg" yaml:"fov_deg"`
	SightRange float64 `mapstructure:"sight_range" yaml:"sight_range"`
	LOSStep    float64 `mapstructure:"los_step" yaml:"los_step"`
	WideStep   float64 `mapstructure:"wide_step" yaml:"wide_step"`
}

// SimConfig holds tick timing and randomness.
type SimConfig struct {
	Seed     int64 `mapstructure:"seed" yaml:"seed"`
	TickRate int   `mapstructure:"tick_rate" yaml:"tick_rate"`
}

// LogConfig selects the logger flavour.
type LogConfig struct {
	Debug bool `mapstructure:"debug" yaml:"debug"`
}

// DerivedConfig holds values computed from the loaded config.
type DerivedConfig struct {
	Step       time.Duration // one fixed tick
	FOVRad     float64
	EntitySize float64
}

// Load reads configuration, layering the file at path (if any) and
// SIMULANT_* environment variables over the embedded defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaultsYAML)); err != nil {
		return nil, fmt.Errorf("config: parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
		if err := v.MergeConfig(bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	v.SetEnvPrefix("SIMULANT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decoding: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()
	return cfg, nil
}

// Default returns the embedded defaults. It panics if they do not load,
// which only happens when defaults.yaml itself is broken.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(err)
	}
	return cfg
}

// Validate rejects settings the simulation cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.World.TileSize <= 0 {
		errs = append(errs, fmt.Errorf("world.tile_size must be > 0, got %v", c.World.TileSize))
	}
	if len(c.World.Layout) == 0 {
		if c.World.Cols < 3 || c.World.Rows < 3 {
			errs = append(errs, fmt.Errorf("world must be at least 3x3, got %dx%d", c.World.Cols, c.World.Rows))
		}
	} else {
		for i, row := range c.World.Layout {
			if len(row) != len(c.World.Layout[0]) {
				errs = append(errs, fmt.Errorf("world.layout row %d has width %d, want %d", i, len(row), len(c.World.Layout[0])))
			}
		}
	}
	if c.Entity.BoxScale <= 0 || c.Entity.BoxScale > 1 {
		errs = append(errs, fmt.Errorf("entity.box_scale must be in (0,1], got %v", c.Entity.BoxScale))
	}
	if c.Player.Speed <= 0 {
		errs = append(errs, fmt.Errorf("player.speed must be > 0, got %v", c.Player.Speed))
	}
	if c.Bot.Speed <= 0 {
		errs = append(errs, fmt.Errorf("bot.speed must be > 0, got %v", c.Bot.Speed))
	}
	if c.Bot.MaxSpeed < 0 {
		errs = append(errs, fmt.Errorf("bot.max_speed must be >= 0, got %v", c.Bot.MaxSpeed))
	}
	if c.Bot.DirectDelay < 0 {
		errs = append(errs, fmt.Errorf("bot.direct_delay must be >= 0, got %d", c.Bot.DirectDelay))
	}
	if c.Vision.FOVDeg <= 0 || c.Vision.FOVDeg > 360 {
		errs = append(errs, fmt.Errorf("vision.fov_deg must be in (0,360], got %v", c.Vision.FOVDeg))
	}
	if c.Vision.SightRange <= 0 || c.Vision.LOSStep <= 0 || c.Vision.WideStep <= 0 {
		errs = append(errs, errors.New("vision.sight_range, los_step and wide_step must be > 0"))
	}
	if c.Sim.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("sim.tick_rate must be > 0, got %d", c.Sim.TickRate))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: invalid: %w", errors.Join(errs...))
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.Step = time.Second / time.Duration(c.Sim.TickRate)
	c.Derived.FOVRad = c.Vision.FOVDeg * math.Pi / 180
	c.Derived.EntitySize = c.World.TileSize * c.Entity.BoxScale
}

// WriteYAML saves the configuration to path.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshaling: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: writing %s: %w", path, err)
	}
	return nil
}
