package server

import (
	"testing"
	"time"

	"minion-keep/server/internal/geom"
	simlog "minion-keep/server/logging/simulation"
)

func startConversation(t *testing.T, w *World, minionID string) {
	t.Helper()
	if !w.EnqueueEvent(Event{Type: EventSelectMinion, EntityID: minionID}) {
		t.Fatal("enqueue failed")
	}
	w.Step(w.currentTick+1, time.Unix(0, 0), 1.0/float64(tickRate))
}

func TestConversationPhaseLifecycle(t *testing.T) {
	w, _ := newSimTestWorld(31)
	addTestWizard(w, geom.Vec3{X: 5})
	minion := addTestMinion(w, "minion-1", geom.Vec3{})

	startConversation(t, w, minion.ID)
	if w.conversation.phase != ConversationPhaseEntering {
		t.Fatalf("expected entering phase, got %q", w.conversation.phase)
	}
	if minion.State != StateConversing {
		t.Fatalf("expected subject forced into conversing, got %s", minion.State)
	}

	stepSeconds(w, conversationEnterDelay+0.1)
	if w.conversation.phase != ConversationPhaseActive {
		t.Fatalf("expected active phase after the entry delay, got %q", w.conversation.phase)
	}

	w.EnqueueEvent(Event{Type: EventEndConversation})
	w.Step(w.currentTick+1, time.Unix(0, 0), 1.0/float64(tickRate))
	if w.conversation.phase != ConversationPhaseExiting {
		t.Fatalf("expected exiting phase, got %q", w.conversation.phase)
	}
	if minion.State != StateConversing {
		t.Fatalf("expected subject held through the exit, got %s", minion.State)
	}

	stepSeconds(w, conversationExitDelay+0.1)
	if w.conversation.Active() {
		t.Fatalf("expected conversation cleared, got %q", w.conversation.phase)
	}
	if minion.State != StateIdle {
		t.Fatalf("expected released subject to idle, got %s", minion.State)
	}
}

func TestSubjectStaysConversingWhileActive(t *testing.T) {
	w, _ := newSimTestWorld(33)
	addTestWizard(w, geom.Vec3{X: 5})
	minion := addTestMinion(w, "minion-1", geom.Vec3{})

	startConversation(t, w, minion.ID)
	stepSeconds(w, 10)

	if minion.State != StateConversing {
		t.Fatalf("expected subject pinned in conversing, got %s", minion.State)
	}
}

func TestSwapSubjectStaysActive(t *testing.T) {
	w, _ := newSimTestWorld(37)
	addTestWizard(w, geom.Vec3{X: 5})
	first := addTestMinion(w, "minion-1", geom.Vec3{})
	second := addTestMinion(w, "minion-2", geom.Vec3{Z: 3})

	startConversation(t, w, first.ID)
	stepSeconds(w, conversationEnterDelay+0.1)

	w.EnqueueEvent(Event{Type: EventSelectMinion, EntityID: second.ID})
	w.Step(w.currentTick+1, time.Unix(0, 0), 1.0/float64(tickRate))

	if w.conversation.phase != ConversationPhaseActive {
		t.Fatalf("expected swap to keep the active phase, got %q", w.conversation.phase)
	}
	if w.conversation.minionID != second.ID {
		t.Fatalf("expected subject %s, got %s", second.ID, w.conversation.minionID)
	}
	if second.State != StateConversing {
		t.Fatalf("expected new subject conversing, got %s", second.State)
	}
	if first.State != StateIdle {
		t.Fatalf("expected previous subject released to idle, got %s", first.State)
	}
}

func TestSelectingCurrentSubjectIsNoOp(t *testing.T) {
	w, _ := newSimTestWorld(39)
	addTestWizard(w, geom.Vec3{X: 5})
	minion := addTestMinion(w, "minion-1", geom.Vec3{})

	startConversation(t, w, minion.ID)
	stepSeconds(w, conversationEnterDelay+0.1)

	reaction := w.conversation.reaction
	w.EnqueueEvent(Event{Type: EventSelectMinion, EntityID: minion.ID})
	w.Step(w.currentTick+1, time.Unix(0, 0), 1.0/float64(tickRate))

	if w.conversation.phase != ConversationPhaseActive {
		t.Fatalf("expected reselect to be a no-op, got %q", w.conversation.phase)
	}
	if w.conversation.reaction != reaction {
		t.Fatal("expected reselect to keep the existing reaction line")
	}
}

func TestSelectingNonMinionIsDropped(t *testing.T) {
	w, recorder := newSimTestWorld(41)
	addTestWizard(w, geom.Vec3{X: 5})

	startConversation(t, w, "wizard-1")
	if w.conversation.Active() {
		t.Fatal("expected no conversation with a non-minion subject")
	}
	if len(recorder.byType(simlog.EventImpossibleTransition)) == 0 {
		t.Fatal("expected a diagnostic for the rejected selection")
	}
}

func TestDeletedSubjectTearsConversationDown(t *testing.T) {
	w, _ := newSimTestWorld(43)
	addTestWizard(w, geom.Vec3{X: 5})
	minion := addTestMinion(w, "minion-1", geom.Vec3{})

	startConversation(t, w, minion.ID)
	stepSeconds(w, conversationEnterDelay+0.1)

	w.RemoveEntity(minion.ID)
	stepSeconds(w, 0.2)

	if w.conversation.Active() {
		t.Fatalf("expected conversation cleared after subject removal, got %q", w.conversation.phase)
	}
}

func TestWizardApproachHonorsVisualDelay(t *testing.T) {
	w, _ := newSimTestWorld(47)
	wizard := addTestWizard(w, geom.Vec3{X: 10})
	minion := addTestMinion(w, "minion-1", geom.Vec3{})

	startConversation(t, w, minion.ID)
	before := wizard.Position
	stepSeconds(w, teleportVisualDelay/2)
	if wizard.Position != before {
		t.Fatal("expected the wizard to hold position until the visual delay elapses")
	}

	stepSeconds(w, teleportVisualDelay)
	if wizard.Position.HorizontalDistanceTo(minion.Position) > 2.5 {
		t.Fatalf("expected the wizard beside the subject, distance=%.2f",
			wizard.Position.HorizontalDistanceTo(minion.Position))
	}
}
