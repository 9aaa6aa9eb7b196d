package server

import (
	"testing"
	"time"

	"minion-keep/server/internal/geom"
	simlog "minion-keep/server/logging/simulation"
)

func TestThrowSettlesWithinBounceBudget(t *testing.T) {
	w, recorder := newSimTestWorld(21)
	minion := addTestMinion(w, "minion-1", geom.Vec3{Y: 1})
	w.applyThrow(minion.ID, ThrowEvent{Velocity: geom.Vec3{X: 4, Y: 10}})

	stepSeconds(w, 8)

	if minion.State != StateIdle {
		t.Fatalf("expected settled entity to idle, got %s", minion.State)
	}
	if minion.Pitch != 0 || minion.Roll != 0 {
		t.Fatalf("expected upright pose after settling, got pitch=%.2f roll=%.2f", minion.Pitch, minion.Roll)
	}
	if minion.Position.Y != 0 {
		t.Fatalf("expected entity snapped to ground, got y=%.2f", minion.Position.Y)
	}

	settled := recorder.byType(simlog.EventProjectileSettled)
	if len(settled) != 1 {
		t.Fatalf("expected exactly one settle event, got %d", len(settled))
	}
	payload, ok := settled[0].Payload.(simlog.ProjectileSettledPayload)
	if !ok {
		t.Fatalf("unexpected payload type %T", settled[0].Payload)
	}
	if payload.Bounces > maxBounces {
		t.Fatalf("expected at most %d bounces, got %d", maxBounces, payload.Bounces)
	}
}

func TestBouncesShrink(t *testing.T) {
	w, _ := newSimTestWorld(23)
	minion := addTestMinion(w, "minion-1", geom.Vec3{Y: 0.5})
	w.applyThrow(minion.ID, ThrowEvent{Velocity: geom.Vec3{Y: 12}})

	dt := 1.0 / float64(tickRate)
	now := time.Unix(0, 0)
	lastBounces := 0
	var reboundSpeeds []float64
	for tick := uint64(1); tick <= 600; tick++ {
		w.Step(tick, now, dt)
		now = now.Add(time.Second / tickRate)
		motion, airborne := w.thrown[minion.ID]
		if !airborne {
			break
		}
		if motion.bounces > lastBounces {
			lastBounces = motion.bounces
			reboundSpeeds = append(reboundSpeeds, motion.velocity.Y)
		}
	}

	if len(reboundSpeeds) < 2 {
		t.Fatalf("expected at least two bounces, got %d", len(reboundSpeeds))
	}
	for i := 1; i < len(reboundSpeeds); i++ {
		if reboundSpeeds[i] >= reboundSpeeds[i-1] {
			t.Fatalf("expected each rebound to be slower: %v", reboundSpeeds)
		}
	}
}

func TestBouncePerturbsSpin(t *testing.T) {
	w, _ := newSimTestWorld(31)
	minion := addTestMinion(w, "minion-1", geom.Vec3{Y: 2})
	w.applyThrow(minion.ID, ThrowEvent{Velocity: geom.Vec3{Y: 6}})
	motion := w.thrown[minion.ID]

	dt := 1.0 / float64(tickRate)
	now := time.Unix(0, 0)
	for tick := uint64(1); tick <= 600; tick++ {
		before := motion.spin
		w.Step(tick, now, dt)
		now = now.Add(time.Second / tickRate)
		if motion.bounces == 0 {
			continue
		}
		// Damping alone would leave the scaled spin exactly; the bounce must
		// add a random kick on top.
		unperturbed := before.Scale(bounceDamping).Scale(spinDecay)
		if motion.spin == unperturbed {
			t.Fatalf("expected the bounce to perturb spin, got %+v", motion.spin)
		}
		return
	}
	t.Fatal("expected a bounce within the window")
}

func TestThrownEntityStaysInsideWorldBounds(t *testing.T) {
	w, _ := newSimTestWorld(27)
	minion := addTestMinion(w, "minion-1", geom.Vec3{X: defaultWorldRadius - 2, Y: 3})
	w.applyThrow(minion.ID, ThrowEvent{Velocity: geom.Vec3{X: 30, Y: 8}})

	dt := 1.0 / float64(tickRate)
	now := time.Unix(0, 0)
	for tick := uint64(1); tick <= 600; tick++ {
		w.Step(tick, now, dt)
		now = now.Add(time.Second / tickRate)
		if dist := minion.Position.HorizontalLength(); dist > defaultWorldRadius+0.001 {
			t.Fatalf("entity escaped the world at tick %d: dist=%.2f", tick, dist)
		}
		if minion.State != StateThrown {
			break
		}
	}
	if minion.State == StateThrown {
		t.Fatal("expected the throw to settle within the window")
	}
}

func TestThrowOverridesReleasePoint(t *testing.T) {
	w, _ := newSimTestWorld(29)
	minion := addTestMinion(w, "minion-1", geom.Vec3{})
	release := geom.Vec3{X: 2, Y: 5, Z: -1}
	w.applyThrow(minion.ID, ThrowEvent{Velocity: geom.Vec3{Y: 1}, Position: &release})

	if minion.Position != release {
		t.Fatalf("expected throw to reposition to the release point, got %+v", minion.Position)
	}
	if minion.State != StateThrown {
		t.Fatalf("expected thrown state, got %s", minion.State)
	}
}
