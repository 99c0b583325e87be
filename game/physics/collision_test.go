package physics

import (
	"math"
	"testing"

	"github.com/mark3labs/armor-duel/game"
	"github.com/mark3labs/armor-duel/game/shared"
)

func TestValidateMoveSeparation(t *testing.T) {
	cfg := smallConfig()
	w := testWorld(t, cfg)
	w.Field.Fill(2)
	resolver := NewCollisionManager(w, cfg)

	mover := addVehicle(w, cfg, "p1", 0, 0)
	mover.Grounded = true
	other := addVehicle(w, cfg, "p2", 5, 0)
	other.Grounded = true

	// Radii are 1.1 each: separation below 2.2 overlaps.
	blocked := resolver.ValidateMove("p1", shared.Position{X: 3.0}, shared.Position{X: 3.0})
	if blocked.Allowed {
		t.Error("move to 2.0 separation must be rejected")
	}

	allowed := resolver.ValidateMove("p1", shared.Position{X: 2.7}, shared.Position{X: 2.7})
	if !allowed.Allowed {
		t.Fatal("move to 2.3 separation must be allowed")
	}
	wantY := 2 + cfg.Physics.HullClearance
	if math.Abs(allowed.Adjusted.Y-wantY) > 1e-9 {
		t.Errorf("adjusted height = %v, want %v", allowed.Adjusted.Y, wantY)
	}
}

func TestValidateMoveObstacleAndBounds(t *testing.T) {
	cfg := smallConfig()
	w := testWorld(t, cfg)
	w.Field.Fill(2)
	w.Obstacles = append(w.Obstacles, &game.ObstacleState{
		ID: "tree_1", Kind: game.ObstacleTree,
		Position: game.Position{X: 10, Y: 2, Z: 0}, Radius: 1.0,
	})
	resolver := NewCollisionManager(w, cfg)
	addVehicle(w, cfg, "p1", 0, 0)

	if d := resolver.ValidateMove("p1", shared.Position{X: 9.5}, shared.Position{X: 9.5}); d.Allowed {
		t.Error("move into an obstacle must be rejected")
	}

	// Destroyed obstacles stop colliding.
	w.Obstacles[0].IsDestroyed = true
	if d := resolver.ValidateMove("p1", shared.Position{X: 9.5}, shared.Position{X: 9.5}); !d.Allowed {
		t.Error("destroyed obstacle must not block movement")
	}

	if d := resolver.ValidateMove("p1", shared.Position{X: 40}, shared.Position{X: 40}); d.Allowed {
		t.Error("move outside the playable boundary must be rejected")
	}
}

func TestTerrainContactFlat(t *testing.T) {
	cfg := smallConfig()
	w := testWorld(t, cfg)
	w.Field.Fill(3)
	resolver := NewCollisionManager(w, cfg)

	contact := resolver.TerrainContact(shared.Position{X: 1, Z: -2}, 0.7)
	if contact.Ground != 3 {
		t.Errorf("ground = %v, want 3", contact.Ground)
	}
	if contact.Clearance != cfg.Physics.HullClearance {
		t.Errorf("clearance = %v, want %v", contact.Clearance, cfg.Physics.HullClearance)
	}
	if contact.Tilt.Pitch != 0 || contact.Tilt.Roll != 0 {
		t.Errorf("flat terrain must give zero tilt, got %+v", contact.Tilt)
	}
}

func TestLineOfSightTerrain(t *testing.T) {
	cfg := smallConfig()
	w := testWorld(t, cfg)
	resolver := NewCollisionManager(w, cfg)

	w.Field.Fill(0)
	if !resolver.CheckLineOfSight(shared.Position{X: -10, Y: 1}, shared.Position{X: 10, Y: 1}) {
		t.Error("clear flat ground must not mask the shot")
	}

	w.Field.Fill(6)
	if resolver.CheckLineOfSight(shared.Position{X: -10, Y: 1}, shared.Position{X: 10, Y: 1}) {
		t.Error("terrain above the sight line must mask the shot")
	}
}

func TestLineOfSightObstacle(t *testing.T) {
	cfg := smallConfig()
	w := testWorld(t, cfg)
	w.Field.Fill(0)
	w.Obstacles = append(w.Obstacles, &game.ObstacleState{
		ID: "building_1", Kind: game.ObstacleBuilding,
		Position: game.Position{X: 10}, Radius: 2,
	})
	resolver := NewCollisionManager(w, cfg)

	from := shared.Position{X: 0, Y: 2}
	to := shared.Position{X: 20, Y: 2}
	if resolver.CheckLineOfSight(from, to) {
		t.Error("building on the sight line must mask the shot")
	}

	w.Obstacles[0].IsDestroyed = true
	if !resolver.CheckLineOfSight(from, to) {
		t.Error("destroyed building must not mask the shot")
	}
}
