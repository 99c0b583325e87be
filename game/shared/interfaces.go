package shared

// Position represents a 3D position
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Tilt is the terrain-following orientation of a hull, in radians.
type Tilt struct {
	Pitch float64 `json:"pitch"`
	Roll  float64 `json:"roll"`
}

// GroundContact describes where a hull meets the terrain at a queried position.
type GroundContact struct {
	Ground    float64 // terrain sample height
	Clearance float64 // fixed hull offset above the sample
	Tilt      Tilt
}

// MoveDecision is the outcome of validating a proposed move.
type MoveDecision struct {
	Allowed  bool
	Adjusted Position // proposed x/z with terrain-following y, valid only when Allowed
	Tilt     Tilt
}

// CollisionResolver answers terrain contact and movement validity questions.
// Implementations read the live world and must only be called while the
// owning manager's lock is held. A nil resolver puts the manager in the
// degraded flat-boundary fallback mode.
type CollisionResolver interface {
	TerrainContact(pos Position, hullYaw float64) GroundContact
	ValidateMove(vehicleID string, proposed Position, displacement Position) MoveDecision
}

// TargetScanner is the capability AI actors use to decide whether a shot is
// worth taking.
type TargetScanner interface {
	CheckLineOfSight(fromPos, toPos Position) bool
}

// Destructible is anything that can absorb damage and eventually be removed
// from the collision set.
type Destructible interface {
	ApplyDamage(amount int) bool // reports whether the hit was destroying
	Destroyed() bool
}
