package physics

import (
	"github.com/charmbracelet/log"

	"github.com/mark3labs/armor-duel/game"
	"github.com/mark3labs/armor-duel/game/shared"
)

// Height above the resting level at which a grounded vehicle is considered
// to have lost its footing (terrain deformed beneath it).
const refloatEpsilon = 0.05

// FallIntegrator runs gravity for airborne vehicles. Spawning drops a vehicle
// above the terrain; this integrator carries it down, snaps it onto its
// contact height, damps residual horizontal motion and emits the one-shot
// landing event. It also re-releases grounded vehicles whose terrain was
// blasted away under them.
type FallIntegrator struct {
	cfg      *game.Config
	resolver *CollisionManager
}

// NewFallIntegrator creates the gravity integrator.
func NewFallIntegrator(cfg *game.Config, resolver *CollisionManager) *FallIntegrator {
	return &FallIntegrator{cfg: cfg, resolver: resolver}
}

// Step advances every vehicle by dt seconds. Must run inside the manager's
// Mutate.
func (fi *FallIntegrator) Step(w *game.World, dt float64, events game.EventSink) {
	for _, v := range w.Vehicles {
		if v.IsDestroyed {
			continue
		}
		contact := fi.resolver.TerrainContact(v.Position, v.HullYaw)
		restY := contact.Ground + contact.Clearance

		if v.Grounded {
			if v.Position.Y > restY+refloatEpsilon {
				// The ground dropped away; fall again from the current height.
				v.Grounded = false
				v.Velocity = game.Position{}
			} else {
				v.Position.Y = restY
				v.GroundLevel = contact.Ground
				continue
			}
		}

		v.Velocity.Y -= fi.cfg.Physics.Gravity * dt
		v.Position.X += v.Velocity.X * dt
		v.Position.Y += v.Velocity.Y * dt
		v.Position.Z += v.Velocity.Z * dt

		if v.Position.Y <= restY {
			impact := -v.Velocity.Y
			v.Position.Y = restY
			v.GroundLevel = contact.Ground
			v.Velocity.Y = 0
			v.Velocity.X *= fi.cfg.Physics.FallDamping
			v.Velocity.Z *= fi.cfg.Physics.FallDamping
			v.Grounded = true
			v.Tilt = shared.Tilt{Pitch: contact.Tilt.Pitch, Roll: contact.Tilt.Roll}

			log.Debug("Vehicle landed", "id", v.ID, "y", restY, "impact", impact)
			if events != nil {
				events.Publish(game.GameEvent{
					Type:      game.EventVehicleLanded,
					ActorID:   v.ID,
					Position:  v.Position,
					Magnitude: impact,
				})
			}
		}
	}
}
