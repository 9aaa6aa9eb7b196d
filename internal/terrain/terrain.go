// Package terrain answers the two ground queries the simulation depends on:
// whether a world coordinate is passable, and how high the ground sits there.
package terrain

import (
	"math"

	"github.com/aquilax/go-perlin"
)

const (
	noiseAlpha   = 2.0
	noiseBeta    = 2.0
	noiseOctaves = 3
	noiseScale   = 0.035
)

// Footprint is the rectangular base of a building. Ground inside a footprint
// is not walkable at terrain level; thrown objects land on the floor height.
type Footprint struct {
	ID     string
	MinX   float64
	MaxX   float64
	MinZ   float64
	MaxZ   float64
	FloorY float64
}

// Contains reports whether the XZ coordinate falls inside the footprint.
func (f Footprint) Contains(x, z float64) bool {
	return x >= f.MinX && x <= f.MaxX && z >= f.MinZ && z <= f.MaxZ
}

// Map is a deterministic heightfield for a circular island world. The same
// seed always produces the same terrain.
type Map struct {
	radius      float64
	waterLevel  float64
	heightScale float64
	noise       *perlin.Perlin
	footprints  []Footprint
}

// Config tunes terrain generation.
type Config struct {
	Seed        int64
	Radius      float64
	WaterLevel  float64
	HeightScale float64
}

// New builds a terrain map from the given config, applying defaults for
// unset fields.
func New(cfg Config) *Map {
	if cfg.Radius <= 0 {
		cfg.Radius = 40
	}
	if cfg.HeightScale <= 0 {
		cfg.HeightScale = 3.0
	}
	return &Map{
		radius:      cfg.Radius,
		waterLevel:  cfg.WaterLevel,
		heightScale: cfg.HeightScale,
		noise:       perlin.NewPerlin(noiseAlpha, noiseBeta, noiseOctaves, cfg.Seed),
	}
}

// Radius returns the playable world radius.
func (m *Map) Radius() float64 {
	if m == nil {
		return 0
	}
	return m.radius
}

// RegisterFootprint adds a building footprint to the walkability mask.
func (m *Map) RegisterFootprint(fp Footprint) {
	if m == nil {
		return
	}
	m.footprints = append(m.footprints, fp)
}

// FootprintAt returns the footprint containing (x, z), if any.
func (m *Map) FootprintAt(x, z float64) (Footprint, bool) {
	if m == nil {
		return Footprint{}, false
	}
	for _, fp := range m.footprints {
		if fp.Contains(x, z) {
			return fp, true
		}
	}
	return Footprint{}, false
}

// terrainHeight samples the raw heightfield, falling off toward the rim so
// the island slopes into the water.
func (m *Map) terrainHeight(x, z float64) float64 {
	noise := m.noise.Noise2D(x*noiseScale, z*noiseScale)
	height := (noise + 1) * 0.5 * m.heightScale

	dist := math.Hypot(x, z)
	falloff := 1 - geomSmoothstep(m.radius*0.7, m.radius, dist)
	return height*falloff + (m.waterLevel-1)*(1-falloff)
}

// GroundHeight returns the landing height at (x, z): building floor inside a
// footprint, terrain height otherwise.
func (m *Map) GroundHeight(x, z float64) float64 {
	if m == nil {
		return 0
	}
	if fp, ok := m.FootprintAt(x, z); ok {
		return fp.FloorY
	}
	return m.terrainHeight(x, z)
}

// IsWalkable reports whether ground-level movement may stand at (x, z):
// inside the world rim, above water, and outside every building footprint.
func (m *Map) IsWalkable(x, z float64) bool {
	if m == nil {
		return false
	}
	if math.Hypot(x, z) > m.radius {
		return false
	}
	if _, ok := m.FootprintAt(x, z); ok {
		return false
	}
	return m.terrainHeight(x, z) > m.waterLevel
}

func geomSmoothstep(edge0, edge1, x float64) float64 {
	if edge1 <= edge0 {
		if x < edge0 {
			return 0
		}
		return 1
	}
	t := (x - edge0) / (edge1 - edge0)
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return t * t * (3 - 2*t)
}
