package server

import (
	"sync"
	"time"

	"minion-keep/server/internal/geom"
)

// EventType enumerates the external signals the tick driver consumes.
type EventType string

const (
	EventThrow           EventType = "Throw"
	EventGrab            EventType = "Grab"
	EventSuspend         EventType = "Suspend"
	EventRelease         EventType = "Release"
	EventMoveTo          EventType = "MoveTo"
	EventSelectMinion    EventType = "SelectMinion"
	EventEndConversation EventType = "EndConversation"
	EventToggleMode      EventType = "ToggleMode"
	EventAssignMinion    EventType = "AssignMinion"
	EventUnassignMinion  EventType = "UnassignMinion"
	EventAvatarInput     EventType = "AvatarInput"
)

// Event is one queued external signal. Events are applied in arrival order at
// the top of the next tick, never mid-frame.
type Event struct {
	Type     EventType
	EntityID string
	IssuedAt time.Time
	Throw    *ThrowEvent
	MoveTo   *MoveToEvent
	Assign   *AssignEvent
	Input    *AvatarInputEvent
}

// ThrowEvent hands an entity to projectile physics with an initial velocity.
// Position, when set, overrides the entity's position at release (the grab
// point may differ from the simulated position).
type ThrowEvent struct {
	Velocity geom.Vec3
	Position *geom.Vec3
}

// MoveToEvent repositions a grabbed or suspended entity. The interaction
// subsystem owns position for those states; the FSM only records it.
type MoveToEvent struct {
	Position geom.Vec3
}

// AssignEvent binds a minion to a building's scaffolding.
type AssignEvent struct {
	BuildingID string
}

// AvatarInputEvent carries first-person movement input for the wizard.
type AvatarInputEvent struct {
	DX float64
	DZ float64
}

// eventInbox is the bounded queue external goroutines write into. The tick
// driver drains it exactly once per frame.
type eventInbox struct {
	mu    sync.Mutex
	queue []Event
	limit int
}

func newEventInbox(limit int) *eventInbox {
	if limit <= 0 {
		limit = maxInboxEvents
	}
	return &eventInbox{queue: make([]Event, 0, limit), limit: limit}
}

// Enqueue appends an event, reporting false when the inbox is full.
func (in *eventInbox) Enqueue(event Event) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	if len(in.queue) >= in.limit {
		return false
	}
	in.queue = append(in.queue, event)
	return true
}

// Drain returns the queued events and resets the inbox.
func (in *eventInbox) Drain() []Event {
	in.mu.Lock()
	defer in.mu.Unlock()
	if len(in.queue) == 0 {
		return nil
	}
	drained := make([]Event, len(in.queue))
	copy(drained, in.queue)
	in.queue = in.queue[:0]
	return drained
}
