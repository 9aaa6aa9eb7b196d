package server

import (
	"context"

	"minion-keep/server/internal/geom"
	simlog "minion-keep/server/logging/simulation"
)

// applyEvents dispatches the frame's drained inbox in arrival order. Each
// handler validates its target itself; an invalid event is dropped with a
// diagnostic and never aborts the batch.
func (w *World) applyEvents(events []Event) {
	for _, event := range events {
		switch event.Type {
		case EventThrow:
			if event.Throw == nil {
				continue
			}
			w.applyThrow(event.EntityID, *event.Throw)
		case EventGrab:
			w.applyGrab(event.EntityID)
		case EventSuspend:
			w.applySuspend(event.EntityID)
		case EventRelease:
			w.applyRelease(event.EntityID)
		case EventMoveTo:
			if event.MoveTo == nil {
				continue
			}
			w.applyMoveTo(event.EntityID, *event.MoveTo)
		case EventSelectMinion:
			w.beginConversation(event.EntityID)
		case EventEndConversation:
			w.endConversation()
		case EventToggleMode:
			w.toggleMode()
		case EventAssignMinion:
			if event.Assign == nil {
				continue
			}
			w.assignMinion(event.EntityID, event.Assign.BuildingID)
		case EventUnassignMinion:
			w.unassignMinion(event.EntityID)
		case EventAvatarInput:
			if event.Input == nil {
				continue
			}
			// Held input persists across frames until the next input event
			// replaces it; integration happens with the frame's real dt.
			w.avatarInput = geom.Vec3{X: event.Input.DX, Z: event.Input.DZ}
		}
	}
}

// applyGrab pins an entity under direct manipulation. Grabbing interrupts
// anything except an entity already held.
func (w *World) applyGrab(id string) {
	e, ok := w.entities[id]
	if !ok {
		simlog.ImpossibleTransition(context.Background(), w.publisher, w.currentTick,
			w.refForID(id), "grab targets unknown entity")
		return
	}
	if e.State == StateGrabbed || e.State == StateSuspended {
		return
	}
	delete(w.thrown, id)
	e.setState(StateGrabbed)
	e.Pitch = 0
	e.Roll = 0
}

// applySuspend dangles an entity in place, held but not carried.
func (w *World) applySuspend(id string) {
	e, ok := w.entities[id]
	if !ok {
		simlog.ImpossibleTransition(context.Background(), w.publisher, w.currentTick,
			w.refForID(id), "suspend targets unknown entity")
		return
	}
	delete(w.thrown, id)
	e.setState(StateSuspended)
}

// applyRelease drops a held entity straight down: a throw with no velocity.
func (w *World) applyRelease(id string) {
	e, ok := w.entities[id]
	if !ok {
		simlog.ImpossibleTransition(context.Background(), w.publisher, w.currentTick,
			w.refForID(id), "release targets unknown entity")
		return
	}
	if e.State != StateGrabbed && e.State != StateSuspended {
		simlog.ImpossibleTransition(context.Background(), w.publisher, w.currentTick,
			w.entityRef(e), "release of an entity that is not held")
		return
	}
	w.applyThrow(id, ThrowEvent{})
}

// applyMoveTo repositions a held entity. Movement for any other state is
// owned by the FSM and the event is dropped.
func (w *World) applyMoveTo(id string, move MoveToEvent) {
	e, ok := w.entities[id]
	if !ok {
		simlog.ImpossibleTransition(context.Background(), w.publisher, w.currentTick,
			w.refForID(id), "move targets unknown entity")
		return
	}
	if e.State != StateGrabbed && e.State != StateSuspended {
		simlog.ImpossibleTransition(context.Background(), w.publisher, w.currentTick,
			w.entityRef(e), "move of an entity that is not held")
		return
	}
	e.Position = move.Position
}
