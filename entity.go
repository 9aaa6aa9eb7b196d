package server

import (
	"minion-keep/server/internal/geom"
	"minion-keep/server/internal/scaffold"
)

// EntityKind distinguishes the simulated actor families.
type EntityKind string

const (
	EntityKindMinion  EntityKind = "minion"
	EntityKindWizard  EntityKind = "wizard"
	EntityKindCritter EntityKind = "critter"
)

// Personality flavors a minion's conversation reactions. It never alters
// movement or physics.
type Personality string

const (
	PersonalityFriendly Personality = "friendly"
	PersonalityCautious Personality = "cautious"
	PersonalityGrumpy   Personality = "grumpy"
)

// MovementState is the single authoritative tag describing what an entity is
// doing this tick. Exactly one is active per entity at any time.
type MovementState string

const (
	StateIdle            MovementState = "idle"
	StateWalking         MovementState = "walking"
	StateConversing      MovementState = "conversing"
	StateGrabbed         MovementState = "grabbed"
	StateSuspended       MovementState = "suspended"
	StateThrown          MovementState = "thrown"
	StateScaffoldWalking MovementState = "scaffoldWalking"
	StateScaffoldWorking MovementState = "scaffoldWorking"
)

// Entity is the broadcast-facing view of a simulated actor. Rendering clients
// consume these snapshots and never write back.
type Entity struct {
	ID          string        `json:"id"`
	Kind        EntityKind    `json:"kind"`
	Personality Personality   `json:"personality,omitempty"`
	Position    geom.Vec3     `json:"position"`
	Yaw         float64       `json:"yaw"`
	Pitch       float64       `json:"pitch,omitempty"`
	Roll        float64       `json:"roll,omitempty"`
	State       MovementState `json:"state"`
	Building    string        `json:"building,omitempty"`
	BobOffset   float64       `json:"bobOffset,omitempty"`
	HammerPhase float64       `json:"hammerPhase,omitempty"`
}

// entityState is the simulation-side record for one entity. Owned exclusively
// by the tick driver.
type entityState struct {
	Entity

	speed     float64
	target    geom.Vec3
	hasTarget bool
	idleTimer float64
	workTimer float64
	bobPhase  float64

	// Scaffold navigation. navPoint survives state transitions while the
	// entity remains assigned to a building; the path is owned by the current
	// walk and replaced wholesale, never mutated.
	navPoint  *scaffold.NavPoint
	path      *scaffold.Path
	pathIndex int
}

// setState transitions the movement FSM, clearing every timer and target the
// previous state may have left behind. navPoint is deliberately kept: it
// belongs to the building assignment, not to any single state.
func (e *entityState) setState(next MovementState) {
	e.State = next
	e.target = geom.Vec3{}
	e.hasTarget = false
	e.idleTimer = 0
	e.workTimer = 0
	e.path = nil
	e.pathIndex = 0
	e.HammerPhase = 0
}

func (e *entityState) snapshot() Entity {
	return e.Entity
}

// moveSpeedFor returns the ground locomotion speed for a kind.
func moveSpeedFor(kind EntityKind) float64 {
	switch kind {
	case EntityKindWizard:
		return wizardMoveSpeed
	case EntityKindCritter:
		return critterMoveSpeed
	default:
		return minionMoveSpeed
	}
}
