// Package scaffold maintains the elevated-surface navigation graph minions
// use while assigned to a building: registered platforms, lazy nav-point
// snapping, and waypoint pathfinding between platforms.
package scaffold

import (
	"math"
	"math/rand"
)

// Surface is one registered scaffolding platform (or stair segment) attached
// to a parent building.
type Surface struct {
	ID      string
	Parent  string
	MinX    float64
	MaxX    float64
	MinZ    float64
	MaxZ    float64
	Y       float64
	IsStair bool
}

// Contains reports whether the XZ coordinate lies on the platform deck.
func (s *Surface) Contains(x, z float64) bool {
	return x >= s.MinX && x <= s.MaxX && z >= s.MinZ && z <= s.MaxZ
}

// Center returns the platform's deck midpoint.
func (s *Surface) Center() NavPoint {
	return NavPoint{
		X:         (s.MinX + s.MaxX) / 2,
		Z:         (s.MinZ + s.MaxZ) / 2,
		Y:         s.Y,
		SurfaceID: s.ID,
		IsStair:   s.IsStair,
	}
}

// NavPoint is a position on (or near) the scaffold graph. SurfaceID is empty
// when the point could not be snapped to a registered surface; such raw
// points are still usable as path endpoints.
type NavPoint struct {
	X         float64
	Z         float64
	Y         float64
	SurfaceID string
	IsStair   bool
}

// Path is an ordered waypoint sequence. Paths are replaced wholesale when a
// new destination is chosen, never mutated in place.
type Path struct {
	Points []NavPoint
}

// Registry indexes every registered surface by parent building.
type Registry struct {
	surfaces []*Surface
	byID     map[string]*Surface
	byParent map[string][]*Surface
}

// NewRegistry returns an empty surface registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:     make(map[string]*Surface),
		byParent: make(map[string][]*Surface),
	}
}

// Register adds a surface. Re-registering an ID replaces the previous entry.
func (r *Registry) Register(surface Surface) {
	if r == nil || surface.ID == "" {
		return
	}
	if existing, ok := r.byID[surface.ID]; ok {
		*existing = surface
		return
	}
	s := &surface
	r.surfaces = append(r.surfaces, s)
	r.byID[surface.ID] = s
	r.byParent[surface.Parent] = append(r.byParent[surface.Parent], s)
}

// Surface returns a registered surface by ID.
func (r *Registry) Surface(id string) (*Surface, bool) {
	if r == nil {
		return nil, false
	}
	s, ok := r.byID[id]
	return s, ok
}

// SurfaceAt finds the registered surface nearest to (x, z, y) whose deck lies
// within the vertical tolerance and whose bounds contain or nearly contain
// the point. Returns nil when nothing qualifies.
func (r *Registry) SurfaceAt(x, z, y, tolerance float64) *Surface {
	if r == nil {
		return nil
	}
	var best *Surface
	bestDist := math.Inf(1)
	for _, s := range r.surfaces {
		if math.Abs(s.Y-y) > tolerance {
			continue
		}
		dx := axisDistance(x, s.MinX, s.MaxX)
		dz := axisDistance(z, s.MinZ, s.MaxZ)
		if dx > tolerance || dz > tolerance {
			continue
		}
		dist := math.Hypot(dx, dz) + math.Abs(s.Y-y)
		if dist < bestDist {
			bestDist = dist
			best = s
		}
	}
	return best
}

// RandomPointForParent picks a uniformly random deck point on one of the
// parent building's non-stair surfaces. Returns nil when the building has no
// registered surfaces.
func (r *Registry) RandomPointForParent(parent string, rng *rand.Rand) *NavPoint {
	if r == nil || rng == nil {
		return nil
	}
	candidates := make([]*Surface, 0, len(r.byParent[parent]))
	for _, s := range r.byParent[parent] {
		if !s.IsStair {
			candidates = append(candidates, s)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	s := candidates[rng.Intn(len(candidates))]
	point := NavPoint{
		X:         s.MinX + rng.Float64()*(s.MaxX-s.MinX),
		Z:         s.MinZ + rng.Float64()*(s.MaxZ-s.MinZ),
		Y:         s.Y,
		SurfaceID: s.ID,
	}
	return &point
}

// MountPointForParent returns where a ground-level minion enters the parent's
// scaffolding: the nearest point on its lowest non-stair deck. Returns nil
// when the building has no registered decks.
func (r *Registry) MountPointForParent(parent string, x, z float64) *NavPoint {
	if r == nil {
		return nil
	}
	var best *Surface
	bestDist := math.Inf(1)
	for _, s := range r.byParent[parent] {
		if s.IsStair {
			continue
		}
		dist := math.Hypot(axisDistance(x, s.MinX, s.MaxX), axisDistance(z, s.MinZ, s.MaxZ))
		if best == nil || s.Y < best.Y || (s.Y == best.Y && dist < bestDist) {
			best = s
			bestDist = dist
		}
	}
	if best == nil {
		return nil
	}
	point := NavPoint{
		X:         clampAxis(x, best.MinX, best.MaxX),
		Z:         clampAxis(z, best.MinZ, best.MaxZ),
		Y:         best.Y,
		SurfaceID: best.ID,
	}
	return &point
}

func clampAxis(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// axisDistance returns how far v sits outside [min, max], zero when inside.
func axisDistance(v, min, max float64) float64 {
	if v < min {
		return min - v
	}
	if v > max {
		return v - max
	}
	return 0
}
