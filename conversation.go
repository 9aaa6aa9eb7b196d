package server

import (
	"context"

	"minion-keep/server/logging"
	simlog "minion-keep/server/logging/simulation"
)

// ConversationPhase names a stage of the selection lifecycle.
type ConversationPhase string

const (
	ConversationPhaseNone     ConversationPhase = ""
	ConversationPhaseEntering ConversationPhase = "entering"
	ConversationPhaseActive   ConversationPhase = "active"
	ConversationPhaseExiting  ConversationPhase = "exiting"
)

// conversationState tracks the single conversation the wizard may hold. All
// timing lives in countdown fields advanced by the tick, never deferred
// callbacks, so stale timers cannot fire after the subject changes.
type conversationState struct {
	phase      ConversationPhase
	minionID   string
	phaseTimer float64
	reaction   string
}

// Active reports whether a subject is currently bound, in any phase.
func (c *conversationState) Active() bool {
	return c.phase != ConversationPhaseNone
}

// ConversationSnapshot is the broadcast form of the conversation state.
type ConversationSnapshot struct {
	Phase    ConversationPhase `json:"phase"`
	MinionID string            `json:"minionId,omitempty"`
	Reaction string            `json:"reaction,omitempty"`
}

func (c *conversationState) snapshot() ConversationSnapshot {
	return ConversationSnapshot{Phase: c.phase, MinionID: c.minionID, Reaction: c.reaction}
}

// beginConversation starts or retargets the conversation. Selecting a new
// minion while one is active swaps the subject without replaying the camera
// entry; selecting the current subject is a no-op.
func (w *World) beginConversation(minionID string) {
	subject, ok := w.entities[minionID]
	if !ok || subject.Kind != EntityKindMinion {
		simlog.ImpossibleTransition(context.Background(), w.publisher, w.currentTick,
			w.refForID(minionID), "conversation subject is not a live minion")
		return
	}
	if w.conversation.minionID == minionID && w.conversation.phase != ConversationPhaseExiting {
		return
	}

	switch w.conversation.phase {
	case ConversationPhaseNone:
		w.conversation = conversationState{
			phase:      ConversationPhaseEntering,
			minionID:   minionID,
			phaseTimer: conversationEnterDelay,
			reaction:   reactionLine(subject.Personality, w.rng),
		}
		w.queueWizardApproach(subject)
		w.publishConversationPhase(subject)
	default:
		// Swap keeps the current phase and timer; only the subject and its
		// reaction change. The previous subject resumes autonomy next tick.
		w.releaseConversationSubject()
		w.conversation.minionID = minionID
		w.conversation.reaction = reactionLine(subject.Personality, w.rng)
		w.holdConversationSubject(subject)
		w.publishConversationPhase(subject)
	}
}

// endConversation begins the exit phase. Ending twice, or with nothing
// active, is harmless.
func (w *World) endConversation() {
	if !w.conversation.Active() || w.conversation.phase == ConversationPhaseExiting {
		return
	}
	w.conversation.phase = ConversationPhaseExiting
	w.conversation.phaseTimer = conversationExitDelay
	if subject, ok := w.entities[w.conversation.minionID]; ok {
		w.publishConversationPhase(subject)
	}
}

// advanceConversation runs the phase countdowns and enforces that the subject
// stays conversing while bound.
func (w *World) advanceConversation(dt float64) {
	c := &w.conversation
	if !c.Active() {
		return
	}

	subject, ok := w.entities[c.minionID]
	if !ok {
		// Subject deleted mid-conversation: tear down without the exit delay.
		w.clearConversation()
		return
	}
	w.holdConversationSubject(subject)

	if c.phaseTimer > 0 {
		c.phaseTimer -= dt
		if c.phaseTimer > 0 {
			return
		}
	}

	switch c.phase {
	case ConversationPhaseEntering:
		c.phase = ConversationPhaseActive
		c.phaseTimer = 0
		w.publishConversationPhase(subject)
	case ConversationPhaseExiting:
		w.releaseConversationSubject()
		w.clearConversation()
	}
}

// holdConversationSubject forces the subject into the conversing state,
// interrupting whatever it was doing. Airborne subjects are left alone until
// they land.
func (w *World) holdConversationSubject(subject *entityState) {
	switch subject.State {
	case StateConversing, StateThrown, StateGrabbed, StateSuspended:
		return
	}
	subject.setState(StateConversing)
}

// releaseConversationSubject returns the current subject to idle autonomy.
func (w *World) releaseConversationSubject() {
	subject, ok := w.entities[w.conversation.minionID]
	if !ok {
		return
	}
	if subject.State == StateConversing {
		subject.setState(StateIdle)
		subject.idleTimer = w.randomDuration(idleDelayMin, idleDelayMax)
	}
}

func (w *World) clearConversation() {
	w.conversation = conversationState{}
}

// faceConversationPartner turns a conversing minion toward the wizard.
func (w *World) faceConversationPartner(e *entityState) {
	wizard, ok := w.entities[w.wizardID]
	if !ok || wizard.ID == e.ID {
		return
	}
	delta := wizard.Position.Sub(e.Position)
	if delta.HorizontalLength() > 0.01 {
		e.Yaw = delta.Yaw()
	}
}

// queueWizardApproach schedules the wizard's visual reposition next to the
// subject. The delay matches the client camera push-in; the teleport is
// re-validated when it fires.
func (w *World) queueWizardApproach(subject *entityState) {
	wizard, ok := w.entities[w.wizardID]
	if !ok {
		return
	}
	offset := subject.Position.Sub(wizard.Position)
	dist := offset.HorizontalLength()
	target := subject.Position
	if dist > 0.01 {
		dir := offset.Scale(1 / dist)
		target.X -= dir.X * 1.6
		target.Z -= dir.Z * 1.6
	} else {
		target.X -= 1.6
	}
	target.Y = w.ground.GroundHeight(target.X, target.Z)

	w.teleportSeq++
	w.teleports = append(w.teleports, pendingTeleport{
		entityID:  w.wizardID,
		position:  target,
		remaining: teleportVisualDelay,
		seq:       w.teleportSeq,
	})
}

// advanceTeleports counts down deferred repositions, applying only the most
// recently queued one per entity and skipping deleted entities.
func (w *World) advanceTeleports(dt float64) {
	if len(w.teleports) == 0 {
		return
	}
	latest := make(map[string]uint64, len(w.teleports))
	for _, t := range w.teleports {
		if t.seq > latest[t.entityID] {
			latest[t.entityID] = t.seq
		}
	}

	remaining := w.teleports[:0]
	for _, t := range w.teleports {
		t.remaining -= dt
		if t.remaining > 0 {
			remaining = append(remaining, t)
			continue
		}
		if t.seq != latest[t.entityID] {
			continue
		}
		e, ok := w.entities[t.entityID]
		if !ok {
			continue
		}
		e.Position = t.position
		if e.ID == w.wizardID {
			if subject, ok := w.entities[w.conversation.minionID]; ok && w.conversation.Active() {
				delta := subject.Position.Sub(e.Position)
				if delta.HorizontalLength() > 0.01 {
					e.Yaw = delta.Yaw()
				}
			}
		}
	}
	w.teleports = remaining
}

func (w *World) publishConversationPhase(subject *entityState) {
	simlog.ConversationPhase(context.Background(), w.publisher, w.currentTick,
		w.entityRef(subject), string(w.conversation.phase))
}

// refForID builds a log reference for an id that may not resolve to a live
// entity.
func (w *World) refForID(id string) logging.EntityRef {
	if e, ok := w.entities[id]; ok {
		return w.entityRef(e)
	}
	return logging.EntityRef{ID: id, Kind: logging.EntityKindUnknown}
}
