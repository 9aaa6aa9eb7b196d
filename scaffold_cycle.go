package server

import (
	"context"

	"minion-keep/server/internal/geom"
	"minion-keep/server/internal/scaffold"
	simlog "minion-keep/server/logging/simulation"
)

// beginScaffoldCycle starts the next walk-then-work leg for an assigned
// minion. The current nav point is snapped lazily here rather than at
// assignment time: an entity thrown or carried since its last cycle may no
// longer stand where its nav point says.
func (w *World) beginScaffoldCycle(e *entityState) {
	if e.Building == "" {
		e.setState(StateIdle)
		e.idleTimer = w.randomDuration(idleDelayMin, idleDelayMax)
		return
	}

	from := w.currentNavPoint(e)
	if from.SurfaceID == "" {
		// Starting off the graph, usually freshly assigned on the ground.
		// Route through the lowest deck so the first walk leg is the climb.
		mount := w.surfaces.MountPointForParent(e.Building, e.Position.X, e.Position.Z)
		if mount == nil {
			e.setState(StateIdle)
			e.idleTimer = scaffoldRetryDelay
			return
		}
		from = *mount
	}
	to := w.surfaces.RandomPointForParent(e.Building, w.rng)
	if to == nil {
		// No registered decks for this building yet.
		e.setState(StateIdle)
		e.idleTimer = scaffoldRetryDelay
		return
	}

	path := w.pathfinder.FindPath(from, *to)
	if path == nil || len(path.Points) == 0 {
		simlog.ScaffoldPathFailed(context.Background(), w.publisher, w.currentTick, w.entityRef(e),
			simlog.ScaffoldPathFailedPayload{
				BuildingID: e.Building,
				FromX:      from.X,
				FromZ:      from.Z,
				ToX:        to.X,
				ToZ:        to.Z,
			})
		if w.telemetry != nil {
			w.telemetry.IncScaffoldPathFailure()
		}
		e.setState(StateIdle)
		e.idleTimer = scaffoldRetryDelay
		return
	}

	// setState clears path state, so the new path is attached after.
	e.setState(StateScaffoldWalking)
	e.path = path
	e.pathIndex = 0
}

// currentNavPoint resolves where the entity stands in scaffold terms. If a
// registered surface is within snapping tolerance the point binds to it;
// otherwise the raw position is used and pathfinding degrades to a straight
// line.
func (w *World) currentNavPoint(e *entityState) scaffold.NavPoint {
	surface := w.surfaces.SurfaceAt(e.Position.X, e.Position.Z, e.Position.Y-standingOffset, surfaceSnapTolerance)
	if surface != nil {
		point := scaffold.NavPoint{X: e.Position.X, Z: e.Position.Z, Y: surface.Y, SurfaceID: surface.ID, IsStair: surface.IsStair}
		e.navPoint = &point
		return point
	}
	if e.navPoint != nil {
		return *e.navPoint
	}
	return scaffold.NavPoint{X: e.Position.X, Z: e.Position.Z, Y: e.Position.Y - standingOffset}
}

// advanceScaffoldWalk moves the entity along its waypoint path at reduced
// speed. Arrival at the final waypoint transitions to working exactly once;
// the state change itself guards against double triggers.
func (w *World) advanceScaffoldWalk(e *entityState, dt float64) {
	if e.path == nil || e.pathIndex >= len(e.path.Points) {
		w.beginScaffoldCycle(e)
		return
	}
	w.advanceBob(e, dt, walkBobRate, walkBobScale)

	wp := e.path.Points[e.pathIndex]
	goal := geom.Vec3{X: wp.X, Y: wp.Y + standingOffset, Z: wp.Z}
	delta := goal.Sub(e.Position)
	dist := delta.Length()
	step := e.speed * scaffoldSpeedFactor * dt

	if dist <= waypointReachedEpsilon || dist <= step {
		e.Position = goal
		e.pathIndex++
		if e.pathIndex >= len(e.path.Points) {
			final := wp
			e.navPoint = &final
			e.setState(StateScaffoldWorking)
			e.workTimer = w.randomDuration(workDurationMin, workDurationMax)
		}
		return
	}

	dir := delta.Scale(1 / dist)
	e.Position = e.Position.Add(dir.Scale(step))
	if dir.HorizontalLength() > 0.01 {
		e.Yaw = dir.Yaw()
	}
}

// advanceScaffoldWork runs the hammering hold. HammerPhase is a wrapped
// 0..1 cycle the client uses to drive the swing animation.
func (w *World) advanceScaffoldWork(e *entityState, dt float64) {
	e.HammerPhase += dt * hammerCycleHz
	for e.HammerPhase >= 1 {
		e.HammerPhase -= 1
	}
	e.workTimer -= dt
	if e.workTimer > 0 {
		return
	}
	w.beginScaffoldCycle(e)
}

// assignMinion binds a minion to a building. The first work cycle starts on
// the next idle expiry rather than immediately.
func (w *World) assignMinion(id, buildingID string) {
	e, ok := w.entities[id]
	if !ok || e.Kind != EntityKindMinion {
		simlog.ImpossibleTransition(context.Background(), w.publisher, w.currentTick,
			w.refForID(id), "assignment targets unknown or non-minion entity")
		return
	}
	if _, ok := w.surfaces.Surface(buildingID + "-deck-0"); !ok {
		simlog.ImpossibleTransition(context.Background(), w.publisher, w.currentTick,
			w.entityRef(e), "assignment names a building without scaffolding")
		return
	}
	e.Building = buildingID
	e.navPoint = nil
	if w.assignments != nil {
		w.assignments(id, buildingID, true)
	}
}

// unassignMinion releases a minion from its building. A minion mid-cycle is
// recalled to the ground and resumes wandering on its next idle expiry.
func (w *World) unassignMinion(id string) {
	e, ok := w.entities[id]
	if !ok {
		simlog.ImpossibleTransition(context.Background(), w.publisher, w.currentTick,
			w.refForID(id), "unassignment targets unknown entity")
		return
	}
	building := e.Building
	e.Building = ""
	e.navPoint = nil
	if e.State == StateScaffoldWalking || e.State == StateScaffoldWorking {
		e.setState(StateIdle)
		e.idleTimer = w.randomDuration(idleDelayMin, idleDelayMax)
		ground := w.ground.GroundHeight(e.Position.X, e.Position.Z)
		if e.Position.Y > ground {
			e.Position.Y = ground
		}
	}
	if w.assignments != nil {
		w.assignments(id, building, false)
	}
}
