package physics

import (
	"math"
	"testing"

	"github.com/mark3labs/armor-duel/game"
)

func addShell(w *game.World, id, owner string, pos, vel game.Position, age float64) *game.ProjectileState {
	p := &game.ProjectileState{ID: id, OwnerID: owner, Position: pos, Velocity: vel, Age: age}
	w.Projectiles = append(w.Projectiles, p)
	return p
}

// A 45 degree shot over flat ground should land close to the analytic range
// v^2 sin(2θ) / g.
func TestBallisticRange(t *testing.T) {
	cfg := game.DefaultConfig()
	w := testWorld(t, cfg)
	w.Field.Fill(0)
	shells := NewShellIntegrator(cfg)

	speed := 30.0
	vxy := speed * math.Cos(math.Pi/4)
	addShell(w, "s1", "p1", game.Position{X: 0, Y: 0.5, Z: 0}, game.Position{X: vxy, Y: vxy}, 0)

	var impactX float64
	rec := &eventRecorder{}
	for i := 0; i < 5000 && len(w.Projectiles) > 0; i++ {
		shells.Step(w, 0.005, rec)
	}
	if len(w.Projectiles) != 0 {
		t.Fatal("shell never landed")
	}
	for _, ev := range rec.events {
		if ev.Type == game.EventTerrainImpact {
			impactX = ev.Position.X
		}
	}

	want := speed * speed / cfg.Physics.Gravity // sin(90°) = 1
	if math.Abs(impactX-want) > 5 {
		t.Errorf("impact range = %v, want about %v", impactX, want)
	}
}

func TestShellHitsVehicle(t *testing.T) {
	cfg := smallConfig()
	w := testWorld(t, cfg)
	w.Field.Fill(0)
	shells := NewShellIntegrator(cfg)
	rec := &eventRecorder{}

	target := addVehicle(w, cfg, "p2", 10, 0)
	target.Position.Y = cfg.Physics.HullClearance
	target.Grounded = true
	shooter := addVehicle(w, cfg, "p1", -20, 0)
	startHealth := target.Health

	// Level shot straight at the target's hull center, already armed.
	addShell(w, "s1", "p1", game.Position{X: 5, Y: hullCenterHeight + target.Position.Y}, game.Position{X: 20}, 1)

	for i := 0; i < 20 && len(w.Projectiles) > 0; i++ {
		shells.Step(w, 0.05, rec)
	}
	if len(w.Projectiles) != 0 {
		t.Fatal("shell should have terminated on the vehicle")
	}
	if target.Health >= startHealth {
		t.Error("target took no damage")
	}
	// Shell travels +x into a hull facing +x, so it strikes the rear.
	if got := startHealth - target.Health; got != rearHitDamage {
		t.Errorf("damage = %d, want rear hit %d", got, rearHitDamage)
	}
	if rec.count(game.EventVehicleHit) != 1 {
		t.Error("expected one vehicle hit event")
	}
	if shooter.Kills != 0 {
		t.Error("non-destroying hit must not credit a kill")
	}
}

func TestShellArmingDelayProtectsOwner(t *testing.T) {
	cfg := smallConfig()
	w := testWorld(t, cfg)
	w.Field.Fill(0)
	shells := NewShellIntegrator(cfg)
	rec := &eventRecorder{}

	owner := addVehicle(w, cfg, "p1", 0, 0)
	owner.Position.Y = cfg.Physics.HullClearance
	owner.Grounded = true
	startHealth := owner.Health

	// Fresh shell inside the owner's own hit sphere, lobbed upward.
	addShell(w, "s1", "p1", game.Position{X: 0, Y: hullCenterHeight}, game.Position{Y: 25}, 0)

	shells.Step(w, 0.05, rec)
	if owner.Health != startHealth {
		t.Error("unarmed shell must not hit its firer")
	}
	if len(w.Projectiles) != 1 {
		t.Error("unarmed shell must keep flying")
	}
}

func TestShellDestroysVehicle(t *testing.T) {
	cfg := smallConfig()
	w := testWorld(t, cfg)
	w.Field.Fill(0)
	shells := NewShellIntegrator(cfg)
	rec := &eventRecorder{}

	target := addVehicle(w, cfg, "p2", 10, 0)
	target.Position.Y = cfg.Physics.HullClearance
	target.Health = 10
	shooter := addVehicle(w, cfg, "p1", -20, 0)

	addShell(w, "s1", "p1", game.Position{X: 5, Y: hullCenterHeight + target.Position.Y}, game.Position{X: 20}, 1)
	for i := 0; i < 20 && len(w.Projectiles) > 0; i++ {
		shells.Step(w, 0.05, rec)
	}

	if !target.IsDestroyed {
		t.Fatal("target should be destroyed")
	}
	if target.Deaths != 1 {
		t.Errorf("deaths = %d, want 1", target.Deaths)
	}
	if shooter.Kills != 1 {
		t.Errorf("kills = %d, want 1", shooter.Kills)
	}
	if rec.count(game.EventVehicleDestroyed) != 1 {
		t.Error("expected one destroyed event")
	}

	// Destroyed hulls stop colliding.
	addShell(w, "s2", "p1", game.Position{X: 5, Y: hullCenterHeight + target.Position.Y}, game.Position{X: 20}, 1)
	shells.Step(w, 0.05, rec)
	if rec.count(game.EventVehicleHit) != 1 {
		t.Error("destroyed vehicle must not absorb further hits")
	}
}

func TestTerrainImpactCraterAndSplash(t *testing.T) {
	cfg := smallConfig()
	w := testWorld(t, cfg)
	w.Field.Fill(5)
	shells := NewShellIntegrator(cfg)
	rec := &eventRecorder{}

	bystander := addVehicle(w, cfg, "p2", 2, 0)
	bystander.Position.Y = 5 + cfg.Physics.HullClearance
	bystander.Grounded = true
	startHealth := bystander.Health

	addShell(w, "s1", "p1", game.Position{X: 0, Y: 5.2}, game.Position{Y: -10}, 2)
	shells.Step(w, 0.05, rec)

	if len(w.Projectiles) != 0 {
		t.Fatal("shell should have detonated on the ground")
	}
	if rec.count(game.EventTerrainImpact) != 1 {
		t.Error("expected a terrain impact event")
	}
	if h := w.Field.HeightAt(0, 0); h >= 5 {
		t.Errorf("impact must carve a crater, height still %v", h)
	}

	// Splash at distance 2 of radius 5: 35 * (1 - 2/5) = 21.
	if got := startHealth - bystander.Health; got != 21 {
		t.Errorf("splash damage = %d, want 21", got)
	}
}

func TestShellDespawn(t *testing.T) {
	cfg := smallConfig()
	w := testWorld(t, cfg)
	w.Field.Fill(0)
	shells := NewShellIntegrator(cfg)

	for _, tc := range []struct {
		name string
		pos  game.Position
		vel  game.Position
		age  float64
	}{
		{"lifetime", game.Position{Y: 50}, game.Position{Y: 5}, cfg.Projectile.MaxLifetime},
		{"bounds", game.Position{X: 31.9, Y: 50}, game.Position{X: 50}, 1},
		{"ceiling", game.Position{Y: cfg.Projectile.Ceiling - 0.1}, game.Position{Y: 100}, 1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rec := &eventRecorder{}
			w.Projectiles = w.Projectiles[:0]
			addShell(w, "s_"+tc.name, "p1", tc.pos, tc.vel, tc.age)

			shells.Step(w, 0.05, rec)
			if len(w.Projectiles) != 0 {
				t.Fatal("shell should have despawned")
			}
			if rec.count(game.EventProjectileDespawn) != 1 {
				t.Errorf("despawn events = %d, want 1", rec.count(game.EventProjectileDespawn))
			}
		})
	}
}
