package physics

import (
	"math"
	"testing"

	"github.com/mark3labs/armor-duel/game"
)

// eventRecorder captures published events for assertions.
type eventRecorder struct {
	events []game.GameEvent
}

func (r *eventRecorder) Publish(ev game.GameEvent) {
	r.events = append(r.events, ev)
}

func (r *eventRecorder) count(t game.EventType) int {
	n := 0
	for _, ev := range r.events {
		if ev.Type == t {
			n++
		}
	}
	return n
}

func testWorld(t *testing.T, cfg *game.Config) *game.World {
	t.Helper()
	field := game.NewHeightField(cfg.Terrain.Size, cfg.Terrain.Segments, cfg.Terrain.Seed, game.QueryNearest)
	w, err := game.NewWorld(field, nil)
	if err != nil {
		t.Fatalf("NewWorld: %v", err)
	}
	return w
}

func smallConfig() *game.Config {
	cfg := game.DefaultConfig()
	cfg.Terrain.Size = 64
	cfg.Terrain.Segments = 32
	cfg.Terrain.Seed = 7
	return cfg
}

func addVehicle(w *game.World, cfg *game.Config, id string, x, z float64) *game.VehicleState {
	ground := w.Field.HeightAt(x, z)
	v := &game.VehicleState{
		ID:          id,
		Position:    game.Position{X: x, Y: ground + cfg.Physics.SpawnHeight, Z: z},
		GroundLevel: ground,
		Health:      cfg.Vehicle.MaxHealth,
		Fuel:        cfg.Vehicle.MaxFuel,
		Radius:      cfg.Vehicle.Radius,
	}
	w.Vehicles[id] = v
	return v
}

func TestFallAndLand(t *testing.T) {
	cfg := smallConfig()
	w := testWorld(t, cfg)
	resolver := NewCollisionManager(w, cfg)
	fall := NewFallIntegrator(cfg, resolver)
	rec := &eventRecorder{}

	v := addVehicle(w, cfg, "p1", 3, -4)
	startY := v.Position.Y

	for i := 0; i < 400 && !v.Grounded; i++ {
		fall.Step(w, 0.05, rec)
	}
	if !v.Grounded {
		t.Fatal("vehicle never landed")
	}
	if v.Position.Y >= startY {
		t.Error("vehicle did not descend")
	}

	contact := resolver.TerrainContact(v.Position, v.HullYaw)
	wantY := contact.Ground + contact.Clearance
	if math.Abs(v.Position.Y-wantY) > 1e-9 {
		t.Errorf("rest height = %v, want %v", v.Position.Y, wantY)
	}
	if v.Velocity.Y != 0 {
		t.Errorf("vertical velocity after landing = %v, want 0", v.Velocity.Y)
	}
	if got := rec.count(game.EventVehicleLanded); got != 1 {
		t.Errorf("landed events = %d, want exactly 1", got)
	}

	// Further steps leave a grounded vehicle at rest.
	before := v.Position
	fall.Step(w, 0.05, rec)
	if v.Position != before {
		t.Errorf("grounded vehicle moved: %+v -> %+v", before, v.Position)
	}
	if got := rec.count(game.EventVehicleLanded); got != 1 {
		t.Errorf("landing event fired again, got %d", got)
	}
}

func TestRefloatAfterCrater(t *testing.T) {
	cfg := smallConfig()
	w := testWorld(t, cfg)
	w.Field.Fill(5)
	resolver := NewCollisionManager(w, cfg)
	fall := NewFallIntegrator(cfg, resolver)
	rec := &eventRecorder{}

	v := addVehicle(w, cfg, "p1", 0, 0)
	for i := 0; i < 400 && !v.Grounded; i++ {
		fall.Step(w, 0.05, rec)
	}
	if !v.Grounded {
		t.Fatal("vehicle never landed")
	}
	restBefore := v.Position.Y

	// Blast the ground out from under it.
	w.Field.Deform(game.Position{X: 0, Z: 0}, 8, 3)

	fall.Step(w, 0.05, rec)
	if v.Grounded {
		t.Fatal("vehicle must lose its footing when the ground drops away")
	}

	for i := 0; i < 400 && !v.Grounded; i++ {
		fall.Step(w, 0.05, rec)
	}
	if !v.Grounded {
		t.Fatal("vehicle never re-landed in the crater")
	}
	if v.Position.Y >= restBefore {
		t.Errorf("crater rest height %v should be below the old rest height %v", v.Position.Y, restBefore)
	}
	if got := rec.count(game.EventVehicleLanded); got != 2 {
		t.Errorf("landed events = %d, want 2", got)
	}
}
