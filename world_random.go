package server

import (
	"hash/fnv"
	"math"
	"math/rand"
)

// deterministicSeedValue hashes a root seed plus subsystem label into an RNG
// seed so separate subsystems draw independent, reproducible streams.
func deterministicSeedValue(rootSeed, label string) int64 {
	hasher := fnv.New64a()
	hasher.Write([]byte(rootSeed))
	hasher.Write([]byte{0})
	hasher.Write([]byte(label))
	sum := hasher.Sum64()
	if sum == 0 {
		sum = 1
	}
	return int64(sum)
}

// newDeterministicRNG builds a seeded RNG for a subsystem label.
func newDeterministicRNG(rootSeed, label string) *rand.Rand {
	return rand.New(rand.NewSource(deterministicSeedValue(rootSeed, label)))
}

func (w *World) randomFloat() float64 {
	if w != nil && w.rng != nil {
		return w.rng.Float64()
	}
	return rand.Float64()
}

func (w *World) randomAngle() float64 {
	return w.randomFloat() * 2 * math.Pi
}

// randomDuration returns a uniform value in [min, max] seconds.
func (w *World) randomDuration(min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + w.randomFloat()*(max-min)
}

// randomJitter returns a uniform value in [-scale, scale].
func (w *World) randomJitter(scale float64) float64 {
	return (w.randomFloat()*2 - 1) * scale
}
