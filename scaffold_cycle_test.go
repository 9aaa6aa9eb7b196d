package server

import (
	"testing"
	"time"

	"minion-keep/server/internal/geom"
	"minion-keep/server/internal/scaffold"
	simlog "minion-keep/server/logging/simulation"
)

func registerTestScaffold(w *World, buildingID string) {
	w.surfaces.Register(scaffold.Surface{
		ID:     buildingID + "-deck-0",
		Parent: buildingID,
		MinX:   -4, MaxX: 4,
		MinZ: -4, MaxZ: 4,
		Y: 2.4,
	})
	w.surfaces.Register(scaffold.Surface{
		ID:     buildingID + "-stair-0",
		Parent: buildingID,
		MinX:   4, MaxX: 5.4,
		MinZ: -1, MaxZ: 1,
		Y:       3.6,
		IsStair: true,
	})
	w.surfaces.Register(scaffold.Surface{
		ID:     buildingID + "-deck-1",
		Parent: buildingID,
		MinX:   -4, MaxX: 4,
		MinZ: -4, MaxZ: 4,
		Y: 4.8,
	})
}

func TestAssignedMinionReachesWorkState(t *testing.T) {
	w, _ := newSimTestWorld(81)
	registerTestScaffold(w, "keep")
	minion := addTestMinion(w, "minion-1", geom.Vec3{X: 1, Y: 2.4 + standingOffset, Z: 1})
	minion.idleTimer = 0.1
	w.assignMinion(minion.ID, "keep")

	worked := false
	dt := 1.0 / float64(tickRate)
	now := time.Unix(0, 0)
	for tick := uint64(1); tick <= 1200; tick++ {
		w.Step(tick, now, dt)
		now = now.Add(time.Second / tickRate)
		if minion.State == StateScaffoldWorking {
			worked = true
			break
		}
	}
	if !worked {
		t.Fatal("expected the assigned minion to reach a work hold")
	}
	if minion.workTimer < 0 || minion.workTimer > workDurationMax {
		t.Fatalf("expected a bounded work duration, got %.2f", minion.workTimer)
	}
	if minion.navPoint == nil {
		t.Fatal("expected the nav point recorded at the work spot")
	}
}

func TestGroundAssignedMinionClimbsScaffold(t *testing.T) {
	w, recorder := newSimTestWorld(85)
	registerTestScaffold(w, "keep")
	minion := addTestMinion(w, "minion-1", geom.Vec3{X: 1, Z: 1})
	minion.idleTimer = 0.1
	w.assignMinion(minion.ID, "keep")

	worked := false
	dt := 1.0 / float64(tickRate)
	now := time.Unix(0, 0)
	for tick := uint64(1); tick <= 900; tick++ {
		w.Step(tick, now, dt)
		now = now.Add(time.Second / tickRate)
		if minion.State == StateScaffoldWorking {
			worked = true
			break
		}
	}
	if !worked {
		t.Fatalf("expected the ground-assigned minion to climb and work, got %s at y=%.2f", minion.State, minion.Position.Y)
	}
	if minion.Position.Y < 2.4 {
		t.Fatalf("expected the minion up on a deck, got y=%.2f", minion.Position.Y)
	}
	if failures := recorder.byType(simlog.EventScaffoldPathFailed); len(failures) != 0 {
		t.Fatalf("expected no path failures for a reachable building, got %d", len(failures))
	}
}

func TestWaypointArrivalArmsWorkOnce(t *testing.T) {
	w, _ := newSimTestWorld(99)
	registerTestScaffold(w, "keep")
	minion := addTestMinion(w, "minion-1", geom.Vec3{X: 1, Y: 2.4 + standingOffset, Z: 1})
	minion.idleTimer = 0.1
	w.assignMinion(minion.ID, "keep")

	dt := 1.0 / float64(tickRate)
	now := time.Unix(0, 0)
	tick := uint64(0)
	for tick < 1200 && minion.State != StateScaffoldWorking {
		tick++
		w.Step(tick, now, dt)
		now = now.Add(time.Second / tickRate)
	}
	if minion.State != StateScaffoldWorking {
		t.Fatal("expected the minion to reach a work hold")
	}

	last := minion.workTimer
	if last <= 0 || last > workDurationMax {
		t.Fatalf("expected the work timer armed in (0, %v], got %.2f", workDurationMax, last)
	}
	// Keep stepping through the hold: arrival must not re-fire, so the timer
	// only counts down until the hold ends.
	for i := 0; i < 300; i++ {
		tick++
		w.Step(tick, now, dt)
		now = now.Add(time.Second / tickRate)
		if minion.State != StateScaffoldWorking {
			break
		}
		if minion.workTimer >= last {
			t.Fatalf("expected the work timer to only count down, got %.3f after %.3f", minion.workTimer, last)
		}
		last = minion.workTimer
	}
}

func TestHammerPhaseWrapsWhileWorking(t *testing.T) {
	w, _ := newSimTestWorld(83)
	registerTestScaffold(w, "keep")
	minion := addTestMinion(w, "minion-1", geom.Vec3{X: 1, Y: 2.4 + standingOffset, Z: 1})
	minion.setState(StateScaffoldWorking)
	minion.Building = "keep"
	minion.workTimer = workDurationMax

	dt := 1.0 / float64(tickRate)
	now := time.Unix(0, 0)
	var last float64
	advancedOnce := false
	for tick := uint64(1); tick <= 60; tick++ {
		w.Step(tick, now, dt)
		now = now.Add(time.Second / tickRate)
		if minion.HammerPhase < 0 || minion.HammerPhase >= 1 {
			t.Fatalf("hammer phase escaped its cycle: %.3f", minion.HammerPhase)
		}
		if minion.HammerPhase > last {
			advancedOnce = true
		}
		last = minion.HammerPhase
	}
	if !advancedOnce {
		t.Fatal("expected the hammer phase to advance")
	}
}

func TestWorkExpiryStartsNextLeg(t *testing.T) {
	w, _ := newSimTestWorld(87)
	registerTestScaffold(w, "keep")
	minion := addTestMinion(w, "minion-1", geom.Vec3{X: 1, Y: 2.4 + standingOffset, Z: 1})
	minion.setState(StateScaffoldWorking)
	minion.Building = "keep"
	minion.workTimer = 0.1

	stepSeconds(w, 0.3)

	if minion.State != StateScaffoldWalking && minion.State != StateScaffoldWorking {
		t.Fatalf("expected the cycle to continue, got %s", minion.State)
	}
	if minion.State == StateScaffoldWalking && minion.path == nil {
		t.Fatal("expected a path for the new leg")
	}
}

func TestScaffoldWalkMovesSlowerThanGround(t *testing.T) {
	w, _ := newSimTestWorld(89)
	registerTestScaffold(w, "keep")
	minion := addTestMinion(w, "minion-1", geom.Vec3{X: -3, Y: 2.4 + standingOffset, Z: 0})
	minion.Building = "keep"
	minion.setState(StateScaffoldWalking)
	minion.path = &scaffold.Path{Points: []scaffold.NavPoint{{X: 3, Z: 0, Y: 2.4, SurfaceID: "keep-deck-0"}}}

	before := minion.Position
	w.Step(1, time.Unix(0, 0), 1.0/float64(tickRate))
	moved := minion.Position.DistanceTo(before)
	expected := minionMoveSpeed * scaffoldSpeedFactor / float64(tickRate)
	if moved > expected+0.001 {
		t.Fatalf("expected scaffold speed %.4f per tick, moved %.4f", expected, moved)
	}
}

func TestAssignmentToUnknownBuildingRejected(t *testing.T) {
	w, recorder := newSimTestWorld(91)
	minion := addTestMinion(w, "minion-1", geom.Vec3{})

	w.assignMinion(minion.ID, "nowhere")

	if minion.Building != "" {
		t.Fatalf("expected the assignment to be rejected, got %q", minion.Building)
	}
	if len(recorder.byType(simlog.EventImpossibleTransition)) == 0 {
		t.Fatal("expected a diagnostic for the rejected assignment")
	}
}

func TestUnassignRecallsMinionToGround(t *testing.T) {
	w, _ := newSimTestWorld(93)
	registerTestScaffold(w, "keep")
	minion := addTestMinion(w, "minion-1", geom.Vec3{X: 1, Y: 2.4 + standingOffset, Z: 1})
	minion.Building = "keep"
	minion.setState(StateScaffoldWorking)
	minion.workTimer = 5

	w.unassignMinion(minion.ID)

	if minion.Building != "" {
		t.Fatal("expected the building binding cleared")
	}
	if minion.State != StateIdle {
		t.Fatalf("expected the minion recalled to idle, got %s", minion.State)
	}
	if minion.Position.Y != 0 {
		t.Fatalf("expected the minion back on the ground, got y=%.2f", minion.Position.Y)
	}
	if minion.navPoint != nil {
		t.Fatal("expected the nav point cleared on unassignment")
	}
}

func TestAssignmentObserverNotified(t *testing.T) {
	w, _ := newSimTestWorld(97)
	registerTestScaffold(w, "keep")
	minion := addTestMinion(w, "minion-1", geom.Vec3{})

	type call struct {
		minionID   string
		buildingID string
		assigned   bool
	}
	var calls []call
	w.SetAssignmentObserver(func(minionID, buildingID string, assigned bool) {
		calls = append(calls, call{minionID, buildingID, assigned})
	})

	w.assignMinion(minion.ID, "keep")
	w.unassignMinion(minion.ID)

	if len(calls) != 2 {
		t.Fatalf("expected two observer calls, got %d", len(calls))
	}
	if !calls[0].assigned || calls[0].buildingID != "keep" {
		t.Fatalf("unexpected first call: %+v", calls[0])
	}
	if calls[1].assigned {
		t.Fatalf("unexpected second call: %+v", calls[1])
	}
}
