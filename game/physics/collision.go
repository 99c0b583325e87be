package physics

import (
	"math"

	"github.com/mark3labs/armor-duel/game"
	"github.com/mark3labs/armor-duel/game/shared"
)

const (
	// Horizontal distance of the fore/aft and left/right probe points used to
	// derive hull tilt from the terrain.
	tiltSampleSpan = 1.5
	// Step length for line-of-sight terrain marching.
	losStep = 1.0
)

// CollisionManager answers terrain contact, movement validity and
// line-of-sight questions against the live world. It is lock-free by design:
// the game manager invokes it while already holding the world lock.
type CollisionManager struct {
	world *game.World
	cfg   *game.Config
}

// NewCollisionManager creates a resolver bound to a world.
func NewCollisionManager(world *game.World, cfg *game.Config) *CollisionManager {
	return &CollisionManager{world: world, cfg: cfg}
}

// TerrainContact samples the heightfield around a position and derives the
// hull's resting height and tilt. Pitch comes from the fore/aft pair along the
// hull heading, roll from the left/right pair across it.
func (cm *CollisionManager) TerrainContact(pos shared.Position, hullYaw float64) shared.GroundContact {
	field := cm.world.Field
	ground := field.HeightAt(pos.X, pos.Z)

	fx := math.Cos(hullYaw)
	fz := math.Sin(hullYaw)
	rx := math.Sin(hullYaw)
	rz := -math.Cos(hullYaw)

	hFore := field.HeightAt(pos.X+fx*tiltSampleSpan, pos.Z+fz*tiltSampleSpan)
	hAft := field.HeightAt(pos.X-fx*tiltSampleSpan, pos.Z-fz*tiltSampleSpan)
	hRight := field.HeightAt(pos.X+rx*tiltSampleSpan, pos.Z+rz*tiltSampleSpan)
	hLeft := field.HeightAt(pos.X-rx*tiltSampleSpan, pos.Z-rz*tiltSampleSpan)

	return shared.GroundContact{
		Ground:    ground,
		Clearance: cm.cfg.Physics.HullClearance,
		Tilt: shared.Tilt{
			Pitch: math.Atan2(hFore-hAft, 2*tiltSampleSpan),
			Roll:  math.Atan2(hRight-hLeft, 2*tiltSampleSpan),
		},
	}
}

// ValidateMove checks a proposed position against the playable boundary and
// the live collision set, and on success returns the position with its
// terrain-following height and tilt filled in.
func (cm *CollisionManager) ValidateMove(vehicleID string, proposed shared.Position, displacement shared.Position) shared.MoveDecision {
	if !cm.world.InBounds(proposed.X, proposed.Z) {
		return shared.MoveDecision{}
	}

	mover, ok := cm.world.Vehicles[vehicleID]
	if !ok {
		return shared.MoveDecision{}
	}

	for id, v := range cm.world.Vehicles {
		if id == vehicleID || v.IsDestroyed {
			continue
		}
		if math.Hypot(proposed.X-v.Position.X, proposed.Z-v.Position.Z) < mover.Radius+v.Radius {
			return shared.MoveDecision{}
		}
	}
	for _, o := range cm.world.Obstacles {
		if o.IsDestroyed {
			continue
		}
		if math.Hypot(proposed.X-o.Position.X, proposed.Z-o.Position.Z) < mover.Radius+o.Radius {
			return shared.MoveDecision{}
		}
	}

	yaw := mover.HullYaw
	if displacement.X != 0 || displacement.Z != 0 {
		yaw = math.Atan2(displacement.Z, displacement.X)
	}
	contact := cm.TerrainContact(proposed, yaw)
	return shared.MoveDecision{
		Allowed: true,
		Adjusted: shared.Position{
			X: proposed.X,
			Y: contact.Ground + contact.Clearance,
			Z: proposed.Z,
		},
		Tilt: contact.Tilt,
	}
}

// CheckLineOfSight marches the segment against the terrain and the live
// obstacle spheres. Destroyed obstacles do not mask shots.
func (cm *CollisionManager) CheckLineOfSight(fromPos, toPos shared.Position) bool {
	dx := toPos.X - fromPos.X
	dy := toPos.Y - fromPos.Y
	dz := toPos.Z - fromPos.Z
	dist := math.Sqrt(dx*dx + dy*dy + dz*dz)
	if dist == 0 {
		return true
	}

	steps := int(dist / losStep)
	for i := 1; i < steps; i++ {
		t := float64(i) / float64(steps)
		x := fromPos.X + dx*t
		y := fromPos.Y + dy*t
		z := fromPos.Z + dz*t
		if cm.world.Field.HeightAt(x, z) > y {
			return false
		}
	}

	for _, o := range cm.world.Obstacles {
		if o.IsDestroyed {
			continue
		}
		center := shared.Position{X: o.Position.X, Y: o.Position.Y + o.Radius, Z: o.Position.Z}
		if segmentHitsSphere(fromPos, toPos, center, o.Radius) {
			return false
		}
	}
	return true
}

// segmentHitsSphere reports whether the segment from start to end passes
// within radius of center.
func segmentHitsSphere(start, end, center shared.Position, radius float64) bool {
	dx := end.X - start.X
	dy := end.Y - start.Y
	dz := end.Z - start.Z
	lenSq := dx*dx + dy*dy + dz*dz
	if lenSq == 0 {
		ddx := start.X - center.X
		ddy := start.Y - center.Y
		ddz := start.Z - center.Z
		return ddx*ddx+ddy*ddy+ddz*ddz <= radius*radius
	}

	// Closest point on the segment to the sphere center.
	t := ((center.X-start.X)*dx + (center.Y-start.Y)*dy + (center.Z-start.Z)*dz) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	px := start.X + dx*t
	py := start.Y + dy*t
	pz := start.Z + dz*t
	ddx := px - center.X
	ddy := py - center.Y
	ddz := pz - center.Z
	return ddx*ddx+ddy*ddy+ddz*ddz <= radius*radius
}
