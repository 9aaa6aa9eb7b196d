package server

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"minion-keep/server/logging"
)

const defaultWorldSeed = "keep"

// WorldConfig captures the tunables used when generating a world. Values load
// from YAML; zero fields fall back to defaults via normalized().
type WorldConfig struct {
	Seed         string           `yaml:"seed" json:"seed"`
	WorldRadius  float64          `yaml:"world_radius" json:"worldRadius"`
	WaterLevel   float64          `yaml:"water_level" json:"waterLevel"`
	MinionCount  int              `yaml:"minion_count" json:"minionCount"`
	CritterCount int              `yaml:"critter_count" json:"critterCount"`
	Buildings    []BuildingConfig `yaml:"buildings" json:"buildings"`
	StorePath    string           `yaml:"store_path" json:"storePath"`
	Logging      logging.Config   `yaml:"logging" json:"-"`
}

// BuildingConfig declares one project building: its footprint on the ground
// and how many scaffolding levels wrap it.
type BuildingConfig struct {
	ID     string  `yaml:"id" json:"id"`
	X      float64 `yaml:"x" json:"x"`
	Z      float64 `yaml:"z" json:"z"`
	Width  float64 `yaml:"width" json:"width"`
	Depth  float64 `yaml:"depth" json:"depth"`
	Levels int     `yaml:"levels" json:"levels"`
}

// normalized returns a config with defaults applied.
func (cfg WorldConfig) normalized() WorldConfig {
	normalized := cfg
	normalized.Seed = strings.TrimSpace(normalized.Seed)
	if normalized.Seed == "" {
		normalized.Seed = defaultWorldSeed
	}
	if normalized.WorldRadius <= 0 {
		normalized.WorldRadius = defaultWorldRadius
	}
	if normalized.MinionCount < 0 {
		normalized.MinionCount = 0
	}
	if normalized.CritterCount < 0 {
		normalized.CritterCount = 0
	}
	for i := range normalized.Buildings {
		b := &normalized.Buildings[i]
		if b.Width <= 0 {
			b.Width = 6
		}
		if b.Depth <= 0 {
			b.Depth = 6
		}
		if b.Levels <= 0 {
			b.Levels = 2
		}
	}
	return normalized
}

// DefaultWorldConfig seeds a small demo world.
func DefaultWorldConfig() WorldConfig {
	return WorldConfig{
		Seed:         defaultWorldSeed,
		WorldRadius:  defaultWorldRadius,
		WaterLevel:   0.4,
		MinionCount:  6,
		CritterCount: 4,
		Buildings: []BuildingConfig{
			{ID: "keep", X: 8, Z: -6, Width: 7, Depth: 7, Levels: 3},
			{ID: "forge", X: -10, Z: 9, Width: 6, Depth: 5, Levels: 2},
		},
		Logging: logging.DefaultConfig(),
	}
}

// LoadWorldConfig reads a YAML config file, layering it over the defaults.
func LoadWorldConfig(path string) (WorldConfig, error) {
	cfg := DefaultWorldConfig()
	if path == "" {
		return cfg.normalized(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return WorldConfig{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return WorldConfig{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg.normalized(), nil
}
