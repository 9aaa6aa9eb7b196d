package server

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"minion-keep/server/internal/geom"
	"minion-keep/server/internal/scaffold"
	"minion-keep/server/internal/terrain"
	"minion-keep/server/logging"
	simlog "minion-keep/server/logging/simulation"
)

// WalkabilityOracle answers the two ground queries movement planning needs.
// terrain.Map is the production implementation; tests substitute stubs.
type WalkabilityOracle interface {
	IsWalkable(x, z float64) bool
	GroundHeight(x, z float64) float64
}

// AssignmentObserver is notified after an assignment change is applied, on
// the tick goroutine. Used to write assignments through to the store.
type AssignmentObserver func(minionID, buildingID string, assigned bool)

// World owns the authoritative simulation state. All mutation happens inside
// Step on a single goroutine; external systems only enqueue events and read
// snapshots between ticks.
type World struct {
	entities map[string]*entityState
	thrown   map[string]*thrownMotion

	ground      WalkabilityOracle
	worldRadius float64
	surfaces    *scaffold.Registry
	pathfinder  *scaffold.Pathfinder

	conversation conversationState
	mode         modeState
	inbox        *eventInbox
	teleports    []pendingTeleport
	teleportSeq  uint64

	avatarInput geom.Vec3

	config      WorldConfig
	rng         *rand.Rand
	seed        string
	publisher   logging.Publisher
	telemetry   *Telemetry
	assignments AssignmentObserver

	currentTick  uint64
	nextEntityID uint64
	wizardID     string
}

// pendingTeleport is a deferred reposition with an explicit countdown. It is
// re-validated when it fires: the entity may have been deleted or a newer
// teleport may have superseded this one.
type pendingTeleport struct {
	entityID  string
	position  geom.Vec3
	remaining float64
	seq       uint64
}

// NewWorld constructs a world from config: terrain, building footprints,
// scaffold surfaces, and the initial entity population.
func NewWorld(cfg WorldConfig, publisher logging.Publisher) *World {
	normalized := cfg.normalized()
	if publisher == nil {
		publisher = logging.NopPublisher()
	}

	ground := terrain.New(terrain.Config{
		Seed:       deterministicSeedValue(normalized.Seed, "terrain"),
		Radius:     normalized.WorldRadius,
		WaterLevel: normalized.WaterLevel,
	})
	registry := scaffold.NewRegistry()

	w := &World{
		entities:    make(map[string]*entityState),
		thrown:      make(map[string]*thrownMotion),
		ground:      ground,
		worldRadius: normalized.WorldRadius,
		surfaces:    registry,
		pathfinder:  scaffold.NewPathfinder(registry),
		mode:        newModeState(),
		inbox:       newEventInbox(maxInboxEvents),
		config:      normalized,
		rng:         newDeterministicRNG(normalized.Seed, "world"),
		seed:        normalized.Seed,
		publisher:   publisher,
	}

	for _, b := range normalized.Buildings {
		w.registerBuilding(ground, b)
	}
	w.spawnInitialEntities()
	return w
}

// registerBuilding carves the footprint out of walkable ground and wraps the
// building in scaffolding surfaces, one deck per level plus stair links.
func (w *World) registerBuilding(ground *terrain.Map, b BuildingConfig) {
	halfW, halfD := b.Width/2, b.Depth/2
	floorY := ground.GroundHeight(b.X, b.Z)
	ground.RegisterFootprint(terrain.Footprint{
		ID:     b.ID,
		MinX:   b.X - halfW,
		MaxX:   b.X + halfW,
		MinZ:   b.Z - halfD,
		MaxZ:   b.Z + halfD,
		FloorY: floorY,
	})

	const levelHeight = 2.4
	for level := 0; level < b.Levels; level++ {
		deckY := floorY + float64(level+1)*levelHeight
		w.surfaces.Register(scaffold.Surface{
			ID:     fmt.Sprintf("%s-deck-%d", b.ID, level),
			Parent: b.ID,
			MinX:   b.X - halfW - 1,
			MaxX:   b.X + halfW + 1,
			MinZ:   b.Z - halfD - 1,
			MaxZ:   b.Z + halfD + 1,
			Y:      deckY,
		})
		if level+1 < b.Levels {
			w.surfaces.Register(scaffold.Surface{
				ID:      fmt.Sprintf("%s-stair-%d", b.ID, level),
				Parent:  b.ID,
				MinX:    b.X + halfW,
				MaxX:    b.X + halfW + 1.4,
				MinZ:    b.Z - 1,
				MaxZ:    b.Z + 1,
				Y:       deckY + levelHeight/2,
				IsStair: true,
			})
		}
	}
}

func (w *World) spawnInitialEntities() {
	w.wizardID = w.spawnEntity(EntityKindWizard, "")
	personalities := []Personality{PersonalityFriendly, PersonalityCautious, PersonalityGrumpy}
	for i := 0; i < w.config.MinionCount; i++ {
		w.spawnEntity(EntityKindMinion, personalities[i%len(personalities)])
	}
	for i := 0; i < w.config.CritterCount; i++ {
		w.spawnEntity(EntityKindCritter, "")
	}
}

// spawnEntity places a new entity on a random walkable point near the center
// and returns its id.
func (w *World) spawnEntity(kind EntityKind, personality Personality) string {
	w.nextEntityID++
	id := fmt.Sprintf("%s-%d", kind, w.nextEntityID)

	pos := geom.Vec3{}
	for attempt := 0; attempt < wanderSampleAttempts; attempt++ {
		candidate := w.samplePoint(w.worldRadius * 0.5)
		if w.ground.IsWalkable(candidate.X, candidate.Z) {
			pos = candidate
			break
		}
	}
	pos.Y = w.ground.GroundHeight(pos.X, pos.Z)

	e := &entityState{
		Entity: Entity{
			ID:          id,
			Kind:        kind,
			Personality: personality,
			Position:    pos,
			State:       StateIdle,
		},
		speed:     moveSpeedFor(kind),
		idleTimer: w.randomDuration(idleDelayMin, idleDelayMax),
		bobPhase:  w.randomAngle(),
	}
	w.entities[id] = e
	return id
}

// HasEntity reports whether the world currently tracks the given entity.
func (w *World) HasEntity(id string) bool {
	_, ok := w.entities[id]
	return ok
}

// RemoveEntity drops an entity and every reference the coordinators hold to
// it, returning whether it was present.
func (w *World) RemoveEntity(id string) bool {
	if _, ok := w.entities[id]; !ok {
		return false
	}
	delete(w.entities, id)
	delete(w.thrown, id)
	if w.conversation.minionID == id {
		w.clearConversation()
	}
	return true
}

// SetTelemetry attaches tick counters; nil disables recording.
func (w *World) SetTelemetry(t *Telemetry) {
	w.telemetry = t
}

// SetAssignmentObserver registers the write-through hook for assignment
// changes.
func (w *World) SetAssignmentObserver(obs AssignmentObserver) {
	w.assignments = obs
}

// EnqueueEvent queues an external signal for the next tick. Returns false
// when the bounded inbox is full and the event was dropped.
func (w *World) EnqueueEvent(event Event) bool {
	ok := w.inbox.Enqueue(event)
	if !ok && w.telemetry != nil {
		w.telemetry.IncDroppedEvent()
	}
	return ok
}

// Step advances the simulation by one frame. Subsystems run in a fixed order
// so no entity is moved twice in a tick: inbox events, deferred teleports,
// coordinator deadlines, the movement FSM, then projectile integration.
func (w *World) Step(tick uint64, now time.Time, dt float64) {
	if dt <= 0 {
		dt = 1.0 / float64(tickRate)
	}
	if dt > maxTickDelta {
		dt = maxTickDelta
	}
	w.currentTick = tick

	w.applyEvents(w.inbox.Drain())
	w.advanceTeleports(dt)
	w.advanceConversation(dt)
	w.mode.advance(dt)
	w.advanceAvatar(dt)
	w.advanceEntities(dt)
	w.advanceThrown(dt)
}

// orderedEntities returns the live entities sorted by id so RNG draws happen
// in a reproducible order for a given seed.
func (w *World) orderedEntities() []*entityState {
	ids := make([]string, 0, len(w.entities))
	for id := range w.entities {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	ordered := make([]*entityState, 0, len(ids))
	for _, id := range ids {
		ordered = append(ordered, w.entities[id])
	}
	return ordered
}

// advanceEntities runs the movement FSM for every entity. Thrown entities are
// skipped here; projectile integration owns them exclusively.
func (w *World) advanceEntities(dt float64) {
	for _, e := range w.orderedEntities() {
		switch e.State {
		case StateIdle:
			w.advanceIdle(e, dt)
		case StateWalking:
			w.advanceWalking(e, dt)
		case StateConversing:
			w.faceConversationPartner(e)
			w.advanceBob(e, dt, idleBobRate, idleBobScale)
		case StateGrabbed, StateSuspended:
			// The interaction subsystem owns position until release.
		case StateThrown:
			// Owned by advanceThrown.
		case StateScaffoldWalking:
			w.advanceScaffoldWalk(e, dt)
		case StateScaffoldWorking:
			w.advanceScaffoldWork(e, dt)
		}
	}
}

// autonomyAllowed reports whether an entity's autonomous AI may run this
// tick, per the mode and conversation gates.
func (w *World) autonomyAllowed(e *entityState) bool {
	if w.conversation.Active() && w.conversation.minionID == e.ID {
		return false
	}
	if e.Kind == EntityKindWizard {
		return w.mode.mode == ModeIsometric && !w.mode.transitioning
	}
	return true
}

func (w *World) advanceIdle(e *entityState, dt float64) {
	w.advanceBob(e, dt, idleBobRate, idleBobScale)
	if !w.autonomyAllowed(e) {
		return
	}
	if e.idleTimer > 0 {
		e.idleTimer -= dt
		return
	}
	if e.Kind == EntityKindMinion && e.Building != "" {
		w.beginScaffoldCycle(e)
		return
	}
	target, ok := w.planWanderTarget(e)
	if !ok {
		e.idleTimer = w.randomDuration(idleDelayMin, idleDelayMax)
		return
	}
	e.setState(StateWalking)
	e.target = target
	e.hasTarget = true
}

func (w *World) advanceWalking(e *entityState, dt float64) {
	w.advanceBob(e, dt, walkBobRate, walkBobScale)
	if !w.autonomyAllowed(e) {
		return
	}
	if !e.hasTarget {
		e.setState(StateIdle)
		e.idleTimer = w.randomDuration(idleDelayMin, idleDelayMax)
		return
	}

	step := e.speed * dt
	delta := geom.Vec3{X: e.target.X - e.Position.X, Z: e.target.Z - e.Position.Z}
	dist := delta.HorizontalLength()

	if dist <= step {
		e.Position = geom.Vec3{X: e.target.X, Y: w.ground.GroundHeight(e.target.X, e.target.Z), Z: e.target.Z}
		e.setState(StateIdle)
		e.idleTimer = w.randomDuration(idleDelayMin, idleDelayMax)
		return
	}

	dir := delta.Scale(1 / dist)
	next := geom.Vec3{X: e.Position.X + dir.X*step, Z: e.Position.Z + dir.Z*step}
	if !w.ground.IsWalkable(next.X, next.Z) {
		// Hit water mid-transit: abort without advancing this tick.
		simlog.WalkAborted(context.Background(), w.publisher, w.currentTick, w.entityRef(e),
			simlog.WalkAbortedPayload{X: next.X, Z: next.Z})
		if w.telemetry != nil {
			w.telemetry.IncWalkAbort()
		}
		e.setState(StateIdle)
		e.idleTimer = w.randomDuration(walkAbortDelayMin, walkAbortDelayMax)
		return
	}

	next.Y = w.ground.GroundHeight(next.X, next.Z)
	e.Position = next
	e.Yaw = dir.Yaw()
}

// advanceBob accumulates the cosmetic vertical bounce term. It is additive in
// snapshots and never feeds back into FSM decisions.
func (w *World) advanceBob(e *entityState, dt, rate, scale float64) {
	e.bobPhase += dt * rate
	e.BobOffset = bobOffset(e.bobPhase, scale)
}

func (w *World) entityRef(e *entityState) logging.EntityRef {
	kind := logging.EntityKindUnknown
	switch e.Kind {
	case EntityKindMinion:
		kind = logging.EntityKindMinion
	case EntityKindWizard:
		kind = logging.EntityKindWizard
	case EntityKindCritter:
		kind = logging.EntityKindCritter
	}
	return logging.EntityRef{ID: e.ID, Kind: kind}
}

// Snapshot copies entities and coordinator state into broadcast structs.
func (w *World) Snapshot(now time.Time) ([]Entity, ConversationSnapshot, ModeSnapshot) {
	entities := make([]Entity, 0, len(w.entities))
	for _, e := range w.orderedEntities() {
		entities = append(entities, e.snapshot())
	}
	return entities, w.conversation.snapshot(), w.mode.snapshot()
}

// reportTickOverrun publishes a warning when a step exceeded its frame
// budget.
func (w *World) reportTickOverrun(elapsed, budget time.Duration) {
	simlog.TickBudgetOverrun(context.Background(), w.publisher, w.currentTick,
		simlog.TickBudgetOverrunPayload{
			DurationMillis: elapsed.Milliseconds(),
			BudgetMillis:   budget.Milliseconds(),
			Ratio:          float64(elapsed) / float64(budget),
		})
}

// WizardID returns the player avatar's entity id.
func (w *World) WizardID() string {
	return w.wizardID
}
