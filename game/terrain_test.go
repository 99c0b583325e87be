package game

import (
	"math"
	"testing"

	"pgregory.net/rapid"
)

func TestHeightFieldDeterministic(t *testing.T) {
	a := NewHeightField(256, 128, 1337, QueryNearest)
	b := NewHeightField(256, 128, 1337, QueryNearest)

	for _, p := range [][2]float64{{0, 0}, {31.7, -48.2}, {-120, 120}, {5.5, 5.5}} {
		ha := a.HeightAt(p[0], p[1])
		hb := b.HeightAt(p[0], p[1])
		if ha != hb {
			t.Errorf("height at (%v, %v) differs between identically seeded fields: %v vs %v", p[0], p[1], ha, hb)
		}
	}

	// Repeated queries against the same field are stable too.
	if h1, h2 := a.HeightAt(0, 0), a.HeightAt(0, 0); h1 != h2 {
		t.Errorf("repeated center query not stable: %v vs %v", h1, h2)
	}
}

func TestHeightFieldSeedsDiffer(t *testing.T) {
	a := NewHeightField(256, 128, 1, QueryNearest)
	b := NewHeightField(256, 128, 2, QueryNearest)

	same := true
	for x := -100.0; x <= 100.0; x += 17 {
		for z := -100.0; z <= 100.0; z += 17 {
			if a.HeightAt(x, z) != b.HeightAt(x, z) {
				same = false
			}
		}
	}
	if same {
		t.Error("different seeds produced identical terrain")
	}
}

func TestHeightAtOutsideBounds(t *testing.T) {
	hf := NewHeightField(64, 32, 99, QueryNearest)
	for _, p := range [][2]float64{{33, 0}, {-33, 0}, {0, 40}, {1000, 1000}} {
		if h := hf.HeightAt(p[0], p[1]); h != 0 {
			t.Errorf("height outside bounds at (%v, %v) = %v, want 0", p[0], p[1], h)
		}
	}
}

func TestDeformFlatField(t *testing.T) {
	hf := NewHeightField(64, 64, 1, QueryNearest)
	hf.Fill(3)

	hf.Deform(Position{X: 0, Z: 0}, 5, 2)

	// Full depth at the crater center: 3 - 2*1^2 = 1.
	if got := hf.HeightAt(0, 0); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("crater center height = %v, want 1.0", got)
	}
	// Just outside the radius nothing changes.
	if got := hf.HeightAt(5.1, 0); got != 3 {
		t.Errorf("height outside crater = %v, want 3", got)
	}
	// Halfway out the falloff is quadratic: 3 - 2*0.25 = 2.5.
	if got := hf.HeightAt(2.5, 0); math.Abs(got-2.5) > 0.05 {
		t.Errorf("height at half radius = %v, want about 2.5", got)
	}
}

func TestDeformClampsAtZero(t *testing.T) {
	hf := NewHeightField(32, 32, 7, QueryNearest)
	hf.Fill(0.5)

	for i := 0; i < 10; i++ {
		hf.Deform(Position{}, 6, 3)
	}
	for x := -6.0; x <= 6.0; x += 1 {
		if h := hf.HeightAt(x, 0); h < 0 {
			t.Fatalf("height went negative at x=%v: %v", x, h)
		}
	}
	if h := hf.HeightAt(0, 0); h != 0 {
		t.Errorf("repeated craters should bottom out at zero, got %v", h)
	}
}

func TestDeformNoOpOnBadArgs(t *testing.T) {
	hf := NewHeightField(32, 32, 7, QueryNearest)
	before := hf.HeightAt(0, 0)
	hf.Deform(Position{}, 0, 2)
	hf.Deform(Position{}, -1, 2)
	hf.Deform(Position{}, 3, 0)
	hf.Deform(Position{}, 3, -5)
	if hf.HeightAt(0, 0) != before {
		t.Error("deform with non-positive radius or depth must not modify the field")
	}
}

func TestDeformProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seed := rapid.Int64Range(0, 1<<30).Draw(t, "seed")
		hf := NewHeightField(64, 32, seed, QueryNearest)

		before := make(map[[2]float64]float64)
		for x := -30.0; x <= 30.0; x += 6 {
			for z := -30.0; z <= 30.0; z += 6 {
				before[[2]float64{x, z}] = hf.HeightAt(x, z)
			}
		}

		cx := rapid.Float64Range(-25, 25).Draw(t, "cx")
		cz := rapid.Float64Range(-25, 25).Draw(t, "cz")
		radius := rapid.Float64Range(0.5, 10).Draw(t, "radius")
		depth := rapid.Float64Range(0.1, 8).Draw(t, "depth")

		hf.Deform(Position{X: cx, Z: cz}, radius, depth)

		for p, was := range before {
			now := hf.HeightAt(p[0], p[1])
			if now > was {
				t.Fatalf("deform raised terrain at (%v, %v): %v -> %v", p[0], p[1], was, now)
			}
			if now < 0 {
				t.Fatalf("deform dug below zero at (%v, %v): %v", p[0], p[1], now)
			}
		}
	})
}

func TestBilinearModeIsContinuous(t *testing.T) {
	hf := NewHeightField(64, 16, 42, QueryBilinear)

	// Adjacent queries across a cell boundary should not jump more than the
	// sample delta itself.
	prev := hf.HeightAt(-20, 3)
	for x := -20.0; x <= 20.0; x += 0.25 {
		h := hf.HeightAt(x, 3)
		if math.Abs(h-prev) > 5 {
			t.Fatalf("bilinear height jumped from %v to %v at x=%v", prev, h, x)
		}
		prev = h
	}
}
