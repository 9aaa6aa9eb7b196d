package server

import (
	"context"

	"minion-keep/server/internal/geom"
	simlog "minion-keep/server/logging/simulation"
)

// thrownMotion is the ballistic record for one airborne entity. It exists
// only while the entity is in the thrown state.
type thrownMotion struct {
	velocity geom.Vec3
	spin     geom.Vec3
	bounces  int
}

// applyThrow hands an entity to projectile physics. Throwing an unknown
// entity is dropped with a diagnostic rather than creating a ghost record.
func (w *World) applyThrow(id string, throw ThrowEvent) {
	e, ok := w.entities[id]
	if !ok {
		simlog.ImpossibleTransition(context.Background(), w.publisher, w.currentTick,
			w.refForID(id), "throw targets unknown entity")
		return
	}
	if throw.Position != nil {
		e.Position = *throw.Position
	}
	e.setState(StateThrown)
	w.thrown[id] = &thrownMotion{
		velocity: throw.Velocity,
		spin: geom.Vec3{
			X: w.randomJitter(maxThrowSpin),
			Y: w.randomJitter(maxThrowSpin),
			Z: w.randomJitter(maxThrowSpin),
		},
	}
}

// advanceThrown integrates every airborne entity for one frame: gravity,
// ground bounce with energy loss, world-bounds reflection, and spin decay.
// The settle check runs at bounce time, not at apex, so a slow vertical speed
// high in the air never freezes an entity mid-flight.
func (w *World) advanceThrown(dt float64) {
	for _, e := range w.orderedEntities() {
		motion, ok := w.thrown[e.ID]
		if !ok || e.State != StateThrown {
			continue
		}

		motion.velocity.Y -= gravity * dt
		e.Position = e.Position.Add(motion.velocity.Scale(dt))

		ground := w.ground.GroundHeight(e.Position.X, e.Position.Z)
		if e.Position.Y <= ground && motion.velocity.Y < 0 {
			e.Position.Y = ground
			motion.bounces++
			motion.velocity.Y = -motion.velocity.Y * bounceDamping
			retention := bounceRetention + w.randomJitter(bounceJitter*0.1)
			motion.velocity.X *= retention
			motion.velocity.Z *= retention
			motion.velocity.X += w.randomJitter(bounceJitter)
			motion.velocity.Z += w.randomJitter(bounceJitter)
			motion.spin = motion.spin.Scale(bounceDamping)
			motion.spin.X += w.randomJitter(bounceSpinJitter)
			motion.spin.Y += w.randomJitter(bounceSpinJitter)
			motion.spin.Z += w.randomJitter(bounceSpinJitter)

			if motion.velocity.Y < settleMinSpeed || motion.bounces >= maxBounces {
				w.settleThrown(e, motion, ground)
				continue
			}
		}

		w.reflectAtBounds(e, motion)

		e.Yaw += motion.spin.Y * dt
		e.Pitch += motion.spin.X * dt
		e.Roll += motion.spin.Z * dt
		motion.spin = motion.spin.Scale(spinDecay)
	}
}

// settleThrown snaps a landed entity upright and returns it to idle autonomy.
func (w *World) settleThrown(e *entityState, motion *thrownMotion, ground float64) {
	e.Position.Y = ground
	e.Pitch = 0
	e.Roll = 0
	delete(w.thrown, e.ID)
	e.setState(StateIdle)
	e.idleTimer = w.randomDuration(settleDelayMin, settleDelayMax)

	simlog.ProjectileSettled(context.Background(), w.publisher, w.currentTick, w.entityRef(e),
		simlog.ProjectileSettledPayload{
			Bounces: motion.bounces,
			X:       e.Position.X,
			Y:       e.Position.Y,
			Z:       e.Position.Z,
		})
	if w.telemetry != nil {
		w.telemetry.IncProjectileSettled()
	}
}

// reflectAtBounds keeps a thrown entity inside the world disk by mirroring
// its horizontal velocity with half the energy.
func (w *World) reflectAtBounds(e *entityState, motion *thrownMotion) {
	dist := e.Position.HorizontalLength()
	if dist <= w.worldRadius || dist == 0 {
		return
	}
	// Push back onto the rim, then reflect the outward velocity component.
	scale := w.worldRadius / dist
	e.Position.X *= scale
	e.Position.Z *= scale

	nx, nz := e.Position.X/w.worldRadius, e.Position.Z/w.worldRadius
	outward := motion.velocity.X*nx + motion.velocity.Z*nz
	if outward <= 0 {
		return
	}
	motion.velocity.X -= 2 * outward * nx
	motion.velocity.Z -= 2 * outward * nz
	motion.velocity.X *= boundsReflect
	motion.velocity.Z *= boundsReflect
}
