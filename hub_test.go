package server

import (
	"testing"
	"time"

	"minion-keep/server/internal/geom"
)

func newHubTestWorld(seed int64) (*Hub, *World) {
	world, _ := newSimTestWorld(seed)
	hub := NewHub(world, nil)
	return hub, world
}

func TestHubJoinReturnsSnapshot(t *testing.T) {
	hub, world := newHubTestWorld(7)
	addTestWizard(world, geom.Vec3{})
	addTestMinion(world, "minion-1", geom.Vec3{X: 3})

	join := hub.Join()
	if join.ID == "" {
		t.Fatal("expected a session id")
	}
	if join.ProtocolVersion != ProtocolVersion {
		t.Fatalf("expected protocol version %d, got %d", ProtocolVersion, join.ProtocolVersion)
	}
	if join.TickRate != tickRate {
		t.Fatalf("expected tick rate %d, got %d", tickRate, join.TickRate)
	}
	if join.WizardID != world.WizardID() {
		t.Fatalf("expected wizard id %q, got %q", world.WizardID(), join.WizardID)
	}
	if len(join.Entities) != 2 {
		t.Fatalf("expected 2 entities in join snapshot, got %d", len(join.Entities))
	}

	if sessions := hub.DiagnosticsSnapshot(); len(sessions) != 1 || sessions[0].ID != join.ID {
		t.Fatalf("expected the joined session in diagnostics, got %+v", sessions)
	}
}

func TestHubHeartbeatTracksRTT(t *testing.T) {
	hub, _ := newHubTestWorld(7)
	join := hub.Join()

	now := time.Now()
	rtt, ok := hub.UpdateHeartbeat(join.ID, now, now.Add(-40*time.Millisecond).UnixMilli())
	if !ok {
		t.Fatal("expected heartbeat for known session to succeed")
	}
	if rtt < 30*time.Millisecond || rtt > 200*time.Millisecond {
		t.Fatalf("expected RTT near 40ms, got %v", rtt)
	}

	if _, ok := hub.UpdateHeartbeat("missing", now, now.UnixMilli()); ok {
		t.Fatal("expected heartbeat for unknown session to fail")
	}
}

func TestHubClientMessagesReachTheWorld(t *testing.T) {
	hub, world := newHubTestWorld(7)
	addTestMinion(world, "minion-1", geom.Vec3{X: 2})
	join := hub.Join()

	hub.HandleClientMessage(join.ID, ClientMessage{Type: "selectMinion", EntityID: "minion-1"})

	now := time.Now()
	msg, toClose := hub.advance(now, 1.0/float64(tickRate))
	if len(toClose) != 0 {
		t.Fatalf("expected no stale subscribers, got %d", len(toClose))
	}
	if msg.Tick != 1 {
		t.Fatalf("expected tick 1, got %d", msg.Tick)
	}
	if msg.Conversation.MinionID != "minion-1" {
		t.Fatalf("expected conversation with minion-1, got %+v", msg.Conversation)
	}
	if msg.Conversation.Phase != "entering" {
		t.Fatalf("expected entering phase, got %q", msg.Conversation.Phase)
	}
}

func TestHubUnknownMessageTypeIsDropped(t *testing.T) {
	hub, world := newHubTestWorld(7)
	addTestMinion(world, "minion-1", geom.Vec3{X: 2})
	join := hub.Join()

	hub.HandleClientMessage(join.ID, ClientMessage{Type: "teleport", EntityID: "minion-1"})

	if events := world.inbox.Drain(); len(events) != 0 {
		t.Fatalf("expected unknown message to be dropped, got %d events", len(events))
	}
}

func TestHubAdvancePrunesStaleSessions(t *testing.T) {
	hub, _ := newHubTestWorld(7)
	join := hub.Join()

	hub.mu.Lock()
	hub.sessions[join.ID].lastHeartbeat = time.Now().Add(-2 * disconnectAfter)
	hub.mu.Unlock()

	hub.advance(time.Now(), 1.0/float64(tickRate))

	if sessions := hub.DiagnosticsSnapshot(); len(sessions) != 0 {
		t.Fatalf("expected stale session pruned, got %+v", sessions)
	}
}
