package physics

import (
	"math"

	"github.com/charmbracelet/log"

	"github.com/mark3labs/armor-duel/game"
	"github.com/mark3labs/armor-duel/game/shared"
)

const (
	// Seconds before a shell can hit its own firer. Covers the muzzle overlap
	// of a fully elevated barrel without letting lobbed shots come back.
	shellArmingDelay = 0.5
	// Vertical offset of a vehicle's hit sphere center.
	hullCenterHeight = 0.9
)

// Damage by hit location. Rear armor is the weak side.
const (
	frontHitDamage = 25
	rearHitDamage  = 40
	sideHitDamage  = 30
	topHitDamage   = 35
)

// ShellIntegrator flies every projectile under gravity and resolves
// termination. A shell checks vehicle hits first, then terrain, then the
// despawn conditions; a terminated shell is removed in the same tick and
// never integrated again.
type ShellIntegrator struct {
	cfg *game.Config
}

// NewShellIntegrator creates the projectile integrator.
func NewShellIntegrator(cfg *game.Config) *ShellIntegrator {
	return &ShellIntegrator{cfg: cfg}
}

// Step advances all shells by dt seconds. Must run inside the manager's
// Mutate.
func (si *ShellIntegrator) Step(w *game.World, dt float64, events game.EventSink) {
	if len(w.Projectiles) == 0 {
		return
	}

	survivors := w.Projectiles[:0]
	for _, p := range w.Projectiles {
		p.Age += dt
		prev := p.Position
		p.Velocity.Y -= si.cfg.Physics.Gravity * dt
		p.Position.X += p.Velocity.X * dt
		p.Position.Y += p.Velocity.Y * dt
		p.Position.Z += p.Velocity.Z * dt

		if si.resolveVehicleHit(w, p, prev, events) {
			continue
		}
		if si.resolveObstacleHit(w, p, prev, events) {
			continue
		}
		if si.resolveTerrainImpact(w, p, events) {
			continue
		}
		if si.despawned(w, p, events) {
			continue
		}
		survivors = append(survivors, p)
	}
	// Drop the tail so removed shells do not linger in the backing array.
	for i := len(survivors); i < len(w.Projectiles); i++ {
		w.Projectiles[i] = nil
	}
	w.Projectiles = survivors
}

// resolveVehicleHit sweeps the shell's travel segment against live vehicle
// spheres. The firer is immune until the arming delay expires.
func (si *ShellIntegrator) resolveVehicleHit(w *game.World, p *game.ProjectileState, prev game.Position, events game.EventSink) bool {
	for _, v := range w.Vehicles {
		if v.IsDestroyed {
			continue
		}
		if v.ID == p.OwnerID && p.Age < shellArmingDelay {
			continue
		}
		center := shared.Position{X: v.Position.X, Y: v.Position.Y + hullCenterHeight, Z: v.Position.Z}
		if !segmentHitsSphere(prev, p.Position, center, v.Radius) {
			continue
		}

		damage := hitLocationDamage(p.Velocity, v.HullYaw)
		destroyed := v.ApplyDamage(damage)
		log.Info("Shell hit vehicle", "shell", p.ID, "target", v.ID, "damage", damage, "destroyed", destroyed)

		if events != nil {
			events.Publish(game.GameEvent{
				Type:      game.EventVehicleHit,
				ActorID:   p.OwnerID,
				TargetID:  v.ID,
				Position:  p.Position,
				Magnitude: float64(damage),
			})
		}
		if destroyed {
			if owner, ok := w.Vehicles[p.OwnerID]; ok && owner.ID != v.ID {
				owner.Kills++
			}
			if events != nil {
				events.Publish(game.GameEvent{
					Type:     game.EventVehicleDestroyed,
					ActorID:  p.OwnerID,
					TargetID: v.ID,
					Position: v.Position,
				})
			}
		}
		return true
	}
	return false
}

// resolveObstacleHit handles direct hits on trees and buildings.
func (si *ShellIntegrator) resolveObstacleHit(w *game.World, p *game.ProjectileState, prev game.Position, events game.EventSink) bool {
	for _, o := range w.Obstacles {
		if o.IsDestroyed {
			continue
		}
		center := shared.Position{X: o.Position.X, Y: o.Position.Y + o.Radius, Z: o.Position.Z}
		if !segmentHitsSphere(prev, p.Position, center, o.Radius) {
			continue
		}

		destroyed := o.ApplyDamage(si.cfg.Projectile.BlastDamage)
		log.Debug("Shell hit obstacle", "shell", p.ID, "obstacle", o.ID, "destroyed", destroyed)
		if destroyed && events != nil {
			events.Publish(game.GameEvent{
				Type:     game.EventObstacleDestroyed,
				ActorID:  p.OwnerID,
				TargetID: o.ID,
				Position: o.Position,
			})
		}
		return true
	}
	return false
}

// resolveTerrainImpact detonates a shell that reached the ground: it carves
// the crater and deals falloff splash damage to everything in the blast.
func (si *ShellIntegrator) resolveTerrainImpact(w *game.World, p *game.ProjectileState, events game.EventSink) bool {
	ground := w.Field.HeightAt(p.Position.X, p.Position.Z)
	if p.Position.Y > ground {
		return false
	}
	impact := game.Position{X: p.Position.X, Y: ground, Z: p.Position.Z}
	pc := si.cfg.Projectile

	w.Field.Deform(impact, pc.BlastRadius, pc.BlastDepth)
	si.splash(w, p.OwnerID, impact, events)

	log.Debug("Shell terrain impact", "shell", p.ID, "x", impact.X, "z", impact.Z)
	if events != nil {
		events.Publish(game.GameEvent{
			Type:      game.EventTerrainImpact,
			ActorID:   p.OwnerID,
			Position:  impact,
			Magnitude: pc.BlastRadius,
		})
	}
	return true
}

// splash applies linear-falloff blast damage around a ground impact.
func (si *ShellIntegrator) splash(w *game.World, ownerID string, impact game.Position, events game.EventSink) {
	pc := si.cfg.Projectile
	for _, v := range w.Vehicles {
		if v.IsDestroyed {
			continue
		}
		d := math.Hypot(v.Position.X-impact.X, v.Position.Z-impact.Z)
		if d > pc.BlastRadius {
			continue
		}
		damage := int(float64(pc.BlastDamage) * (1 - d/pc.BlastRadius))
		if damage <= 0 {
			continue
		}
		destroyed := v.ApplyDamage(damage)
		if events != nil {
			events.Publish(game.GameEvent{
				Type:      game.EventVehicleHit,
				ActorID:   ownerID,
				TargetID:  v.ID,
				Position:  v.Position,
				Magnitude: float64(damage),
			})
		}
		if destroyed {
			if owner, ok := w.Vehicles[ownerID]; ok && owner.ID != v.ID {
				owner.Kills++
			}
			if events != nil {
				events.Publish(game.GameEvent{
					Type:     game.EventVehicleDestroyed,
					ActorID:  ownerID,
					TargetID: v.ID,
					Position: v.Position,
				})
			}
		}
	}
	for _, o := range w.Obstacles {
		if o.IsDestroyed {
			continue
		}
		d := math.Hypot(o.Position.X-impact.X, o.Position.Z-impact.Z)
		if d > pc.BlastRadius {
			continue
		}
		damage := int(float64(pc.BlastDamage) * (1 - d/pc.BlastRadius))
		if damage <= 0 {
			continue
		}
		if o.ApplyDamage(damage) && events != nil {
			events.Publish(game.GameEvent{
				Type:     game.EventObstacleDestroyed,
				ActorID:  ownerID,
				TargetID: o.ID,
				Position: o.Position,
			})
		}
	}
}

// despawned removes shells that leave the playable volume or time out.
func (si *ShellIntegrator) despawned(w *game.World, p *game.ProjectileState, events game.EventSink) bool {
	if w.InBounds(p.Position.X, p.Position.Z) &&
		p.Position.Y <= si.cfg.Projectile.Ceiling &&
		p.Age <= si.cfg.Projectile.MaxLifetime {
		return false
	}
	log.Debug("Shell despawned", "shell", p.ID, "age", p.Age)
	if events != nil {
		events.Publish(game.GameEvent{
			Type:     game.EventProjectileDespawn,
			ActorID:  p.OwnerID,
			Position: p.Position,
		})
	}
	return true
}

// hitLocationDamage classifies where the shell struck relative to the hull
// heading. Steeply plunging shells count as top hits regardless of facing.
func hitLocationDamage(velocity game.Position, hullYaw float64) int {
	speed := math.Sqrt(velocity.X*velocity.X + velocity.Y*velocity.Y + velocity.Z*velocity.Z)
	if speed > 0 && -velocity.Y > 0.7*speed {
		return topHitDamage
	}

	// Direction the shell came from, relative to the hull heading.
	approach := math.Atan2(-velocity.Z, -velocity.X)
	rel := math.Abs(angleDiff(approach, hullYaw))
	switch {
	case rel < math.Pi/4:
		return frontHitDamage
	case rel > 3*math.Pi/4:
		return rearHitDamage
	default:
		return sideHitDamage
	}
}

// angleDiff normalizes a-b into [-π, π].
func angleDiff(a, b float64) float64 {
	d := math.Mod(a-b, 2*math.Pi)
	if d > math.Pi {
		d -= 2 * math.Pi
	} else if d < -math.Pi {
		d += 2 * math.Pi
	}
	return d
}
