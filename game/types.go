package game

import (
	"time"

	"github.com/mark3labs/armor-duel/game/shared"
)

// Position is re-exported so world state types and wire payloads share one
// definition with the physics-facing contracts.
type Position = shared.Position

// VehicleState represents a tank in the match
type VehicleState struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Color           string      `json:"color,omitempty"`
	Position        Position    `json:"position"`
	Velocity        Position    `json:"velocity"`
	Grounded        bool        `json:"grounded"`
	GroundLevel     float64     `json:"groundLevel"`
	HullYaw         float64     `json:"hullYaw"`
	Tilt            shared.Tilt `json:"tilt"`
	TurretYaw       float64     `json:"turretYaw"`
	BarrelElevation float64     `json:"barrelElevation"`
	Power           float64     `json:"power"`
	Health          int         `json:"health"`
	Fuel            float64     `json:"fuel"`
	HasFired        bool        `json:"hasFired"`
	Radius          float64     `json:"radius"`
	IsAI            bool        `json:"isAI"`
	IsDestroyed     bool        `json:"isDestroyed"`
	Kills           int         `json:"kills"`
	Deaths          int         `json:"deaths"`
	Timestamp       int64       `json:"timestamp"`
}

// ApplyDamage lowers health and flips the destroyed flag at zero. It reports
// whether this hit was the destroying one. Destroyed vehicles ignore further
// damage.
func (v *VehicleState) ApplyDamage(amount int) bool {
	if v.IsDestroyed {
		return false
	}
	v.Health -= amount
	if v.Health <= 0 {
		v.Health = 0
		v.IsDestroyed = true
		v.Deaths++
		return true
	}
	return false
}

// Destroyed reports whether the vehicle has been removed from play.
func (v *VehicleState) Destroyed() bool { return v.IsDestroyed }

// ObstacleKind classifies a static obstacle
type ObstacleKind string

const (
	ObstacleTree     ObstacleKind = "tree"
	ObstacleBuilding ObstacleKind = "building"
)

// ObstacleState represents a static destructible obstacle placed at world setup
type ObstacleState struct {
	ID          string       `json:"id"`
	Kind        ObstacleKind `json:"kind"`
	Position    Position     `json:"position"`
	Scale       float64      `json:"scale"`
	Radius      float64      `json:"radius"`
	Health      int          `json:"health"`
	IsDestroyed bool         `json:"isDestroyed"`
}

// ApplyDamage lowers obstacle health; destroyed obstacles stop colliding.
func (o *ObstacleState) ApplyDamage(amount int) bool {
	if o.IsDestroyed {
		return false
	}
	o.Health -= amount
	if o.Health <= 0 {
		o.Health = 0
		o.IsDestroyed = true
		return true
	}
	return false
}

// Destroyed reports whether the obstacle still collides.
func (o *ObstacleState) Destroyed() bool { return o.IsDestroyed }

// ProjectileState represents an in-flight shell
type ProjectileState struct {
	ID       string   `json:"id"`
	OwnerID  string   `json:"ownerId"`
	Position Position `json:"position"`
	Velocity Position `json:"velocity"`
	Age      float64  `json:"age"`
}

// TurnPhase is the coordinator's state machine phase
type TurnPhase string

const (
	PhaseActing    TurnPhase = "ACTING"
	PhaseResolving TurnPhase = "RESOLVING"
	PhaseGameOver  TurnPhase = "GAME_OVER"
)

// TurnState tracks whose turn it is and who is still queued this round
type TurnState struct {
	ActorID string    `json:"actorId"`
	Phase   TurnPhase `json:"phase"`
	Queue   []string  `json:"queue"`
	Round   int       `json:"round"`
	Winner  string    `json:"winner,omitempty"`
}

// WorldState is the serializable snapshot of the entire match
type WorldState struct {
	Seed        int64                   `json:"seed"`
	Vehicles    map[string]VehicleState `json:"vehicles"`
	Obstacles   []ObstacleState         `json:"obstacles"`
	Projectiles []ProjectileState       `json:"projectiles"`
	Turn        TurnState               `json:"turn"`
}

// EventType represents the type of game event
type EventType string

// Event types delivered to presentation collaborators (audio, particles, UI).
const (
	EventVehicleLanded     EventType = "VEHICLE_LANDED"
	EventTerrainImpact     EventType = "TERRAIN_IMPACT"
	EventVehicleHit        EventType = "VEHICLE_HIT"
	EventVehicleDestroyed  EventType = "VEHICLE_DESTROYED"
	EventObstacleDestroyed EventType = "OBSTACLE_DESTROYED"
	EventProjectileFired   EventType = "PROJECTILE_FIRED"
	EventProjectileDespawn EventType = "PROJECTILE_DESPAWN"
	EventTurnChange        EventType = "TURN_CHANGE"
	EventFuelChange        EventType = "FUEL_CHANGE"
	EventPowerChange       EventType = "POWER_CHANGE"
)

// GameEvent carries the semantic parameters a presentation collaborator needs:
// what happened, to whom, where, and how hard.
type GameEvent struct {
	Type      EventType `json:"type"`
	ActorID   string    `json:"actorId,omitempty"`
	TargetID  string    `json:"targetId,omitempty"`
	Position  Position  `json:"position"`
	Magnitude float64   `json:"magnitude,omitempty"`
	Timestamp int64     `json:"timestamp"`
}

// EventSink receives game events for fan-out. The core only guarantees the
// parameters are correct; delivery and effects are the collaborator's problem.
type EventSink interface {
	Publish(ev GameEvent)
}

// MoveIntent is a single-tick displacement request from the active actor
type MoveIntent struct {
	DX float64 `json:"dx"`
	DZ float64 `json:"dz"`
}

// AimIntent adjusts turret yaw, barrel elevation and firing power
type AimIntent struct {
	TurretYaw       *float64 `json:"turretYaw,omitempty"`
	BarrelElevation *float64 `json:"barrelElevation,omitempty"`
	Power           *float64 `json:"power,omitempty"`
}

// TimeStamper is a utility function type for getting current time
type TimeStamper func() int64

// DefaultTimeStamper returns the current time in milliseconds
func DefaultTimeStamper() int64 {
	return time.Now().UnixMilli()
}
