package terrain

import (
	"math"
	"testing"
)

func TestSameSeedSameTerrain(t *testing.T) {
	a := New(Config{Seed: 42, Radius: 40, WaterLevel: 0.4})
	b := New(Config{Seed: 42, Radius: 40, WaterLevel: 0.4})

	for _, p := range [][2]float64{{0, 0}, {5, -3}, {-17, 22}, {30, 30}} {
		if a.GroundHeight(p[0], p[1]) != b.GroundHeight(p[0], p[1]) {
			t.Fatalf("heights diverge at (%.0f, %.0f)", p[0], p[1])
		}
		if a.IsWalkable(p[0], p[1]) != b.IsWalkable(p[0], p[1]) {
			t.Fatalf("walkability diverges at (%.0f, %.0f)", p[0], p[1])
		}
	}
}

func TestDifferentSeedsDiffer(t *testing.T) {
	a := New(Config{Seed: 1, Radius: 40})
	b := New(Config{Seed: 2, Radius: 40})

	differs := false
	for x := -20.0; x <= 20; x += 4 {
		for z := -20.0; z <= 20; z += 4 {
			if a.GroundHeight(x, z) != b.GroundHeight(x, z) {
				differs = true
			}
		}
	}
	if !differs {
		t.Fatal("expected different seeds to produce different terrain")
	}
}

func TestBeyondRimIsNotWalkable(t *testing.T) {
	m := New(Config{Seed: 7, Radius: 40})
	if m.IsWalkable(41, 0) {
		t.Fatal("expected the rim to bound walkability")
	}
	if m.IsWalkable(30, 30) {
		t.Fatal("expected the corner outside the disk to be unwalkable")
	}
}

func TestRimSlopesIntoWater(t *testing.T) {
	m := New(Config{Seed: 7, Radius: 40, WaterLevel: 0.4})
	center := m.GroundHeight(0, 0)
	rim := m.GroundHeight(39.5, 0)
	if rim >= center {
		t.Fatalf("expected the rim below the center: rim=%.2f center=%.2f", rim, center)
	}
	if rim > m.waterLevel {
		t.Fatalf("expected the rim under water level, got %.2f", rim)
	}
}

func TestFootprintMasksWalkabilityAndHeight(t *testing.T) {
	m := New(Config{Seed: 7, Radius: 40})
	m.RegisterFootprint(Footprint{ID: "keep", MinX: -2, MaxX: 2, MinZ: -2, MaxZ: 2, FloorY: 1.25})

	if m.IsWalkable(0, 0) {
		t.Fatal("expected the footprint interior to be unwalkable")
	}
	if got := m.GroundHeight(0, 0); got != 1.25 {
		t.Fatalf("expected the floor height inside the footprint, got %.2f", got)
	}
	if fp, ok := m.FootprintAt(1.9, -1.9); !ok || fp.ID != "keep" {
		t.Fatal("expected the footprint lookup to hit at the edge")
	}
	if _, ok := m.FootprintAt(2.1, 0); ok {
		t.Fatal("expected no footprint just outside the edge")
	}
}

func TestHeightsAreFinite(t *testing.T) {
	m := New(Config{Seed: 99, Radius: 40, WaterLevel: 0.4})
	for x := -40.0; x <= 40; x += 5 {
		for z := -40.0; z <= 40; z += 5 {
			h := m.GroundHeight(x, z)
			if math.IsNaN(h) || math.IsInf(h, 0) {
				t.Fatalf("non-finite height at (%.0f, %.0f)", x, z)
			}
		}
	}
}
