package server

import (
	"context"
	"math"

	"minion-keep/server/internal/geom"
	simlog "minion-keep/server/logging/simulation"
)

// samplePoint draws a uniform point on the disk of the given radius around
// the world origin. The sqrt keeps density uniform instead of center-heavy.
func (w *World) samplePoint(radius float64) geom.Vec3 {
	angle := w.randomAngle()
	dist := radius * math.Sqrt(w.randomFloat())
	return geom.Vec3{X: math.Cos(angle) * dist, Z: math.Sin(angle) * dist}
}

// planWanderTarget picks a walkable destination inside the wander disk. It
// gives up after a bounded number of samples so a flooded map cannot stall
// the tick; the caller re-arms the idle timer on failure.
func (w *World) planWanderTarget(e *entityState) (geom.Vec3, bool) {
	radius := w.worldRadius * wanderRadiusFactor
	for attempt := 0; attempt < wanderSampleAttempts; attempt++ {
		candidate := w.samplePoint(radius)
		if w.ground.IsWalkable(candidate.X, candidate.Z) {
			candidate.Y = w.ground.GroundHeight(candidate.X, candidate.Z)
			return candidate, true
		}
	}
	simlog.WanderExhausted(context.Background(), w.publisher, w.currentTick, w.entityRef(e), wanderSampleAttempts)
	if w.telemetry != nil {
		w.telemetry.IncWanderExhausted()
	}
	return geom.Vec3{}, false
}

// bobOffset maps an accumulated phase to the vertical bounce term.
func bobOffset(phase, scale float64) float64 {
	return math.Abs(math.Sin(phase)) * scale
}
