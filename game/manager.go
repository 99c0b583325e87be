package game

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/mark3labs/armor-duel/game/shared"
)

// Vehicle colors for consistent identification
var vehicleColors = []string{
	"#4a7c59", // Green (default)
	"#f44336", // Red
	"#2196f3", // Blue
	"#ff9800", // Orange
	"#9c27b0", // Purple
	"#ffeb3b", // Yellow
}

// EventSubjectPrefix is the NATS subject root for presentation notifications.
const EventSubjectPrefix = "armorduel.events."

// Manager owns the authoritative World and is the single writer to it. All
// intents are validated against the turn coordinator and the collision
// resolver; invalid intents from late or destroyed actors are silent no-ops
// so the tick loop never stalls on gameplay anomalies.
type Manager struct {
	mutex sync.RWMutex
	world *World
	cfg   *Config
	turns *TurnCoordinator

	kv  jetstream.KeyValue
	nc  *nats.Conn
	ctx context.Context

	resolver shared.CollisionResolver
	scanner  shared.TargetScanner
	getTime  TimeStamper

	projectileCounter int
	rng               *rand.Rand
}

// NewManager builds the match: heightfield from the seed, obstacle layout,
// world context, turn coordinator. World setup failures are fatal here,
// before the first tick.
func NewManager(ctx context.Context, cfg *Config, kv jetstream.KeyValue, nc *nats.Conn) (*Manager, error) {
	field := NewHeightField(cfg.Terrain.Size, cfg.Terrain.Segments, cfg.Terrain.Seed, HeightQueryMode(cfg.Terrain.QueryMode))
	world, err := NewWorld(field, GenerateLayout(field))
	if err != nil {
		return nil, fmt.Errorf("failed to create world: %v", err)
	}

	m := &Manager{
		world:   world,
		cfg:     cfg,
		kv:      kv,
		nc:      nc,
		ctx:     ctx,
		getTime: DefaultTimeStamper,
		rng:     rand.New(rand.NewSource(cfg.Terrain.Seed)),
	}
	m.turns = NewTurnCoordinator(world, cfg, m)

	if err := m.saveState(); err != nil {
		return nil, fmt.Errorf("failed to save initial match state: %v", err)
	}

	log.Info("Match initialized", "seed", cfg.Terrain.Seed, "obstacles", len(world.Obstacles))
	return m, nil
}

// Config returns the match tuning.
func (m *Manager) Config() *Config { return m.cfg }

// WorldRef exposes the live world for physics wiring. Collaborators may only
// touch it inside Mutate or from resolver callbacks, which run under the lock.
func (m *Manager) WorldRef() *World { return m.world }

// SetCollisionResolver wires the physics-backed resolver. Without one the
// manager runs the documented degraded mode: flat-boundary movement checks
// and legacy flat vertical positioning, no tilt.
func (m *Manager) SetCollisionResolver(r shared.CollisionResolver) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.resolver = r
}

// SetTargetScanner wires the line-of-sight capability used by AI actors.
func (m *Manager) SetTargetScanner(s shared.TargetScanner) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.scanner = s
}

// Scanner returns the wired line-of-sight capability, or nil.
func (m *Manager) Scanner() shared.TargetScanner {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.scanner
}

// Mutate runs fn with exclusive access to the world. The physics tick uses
// this; everything inside runs single-threaded relative to intents.
func (m *Manager) Mutate(fn func(w *World)) {
	m.mutex.Lock()
	fn(m.world)
	m.mutex.Unlock()
}

// ResolveTurns advances the turn state machine once per tick, after physics.
func (m *Manager) ResolveTurns() {
	m.mutex.Lock()
	m.turns.Advance()
	m.mutex.Unlock()
}

// GetState returns a deep copy of the current match state.
func (m *Manager) GetState() WorldState {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.world.Snapshot()
}

// Publish sends a game event to presentation collaborators over NATS.
// Implements EventSink; safe to call while the world lock is held.
func (m *Manager) Publish(ev GameEvent) {
	if ev.Timestamp == 0 {
		ev.Timestamp = m.getTime()
	}
	if m.nc == nil {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Error("Error marshaling game event", "type", ev.Type, "error", err)
		return
	}
	if err := m.nc.Publish(EventSubjectPrefix+string(ev.Type), payload); err != nil {
		log.Error("Error publishing game event", "type", ev.Type, "error", err)
	}
}

// JoinVehicle seats a new tank. Spawns are dropped a fixed offset above the
// local terrain so every vehicle experiences exactly one fall-and-land
// sequence before it can be driven.
func (m *Manager) JoinVehicle(id, name string, isAI bool) error {
	if id == "" {
		return fmt.Errorf("vehicle id cannot be empty")
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.world.Vehicles[id]; exists {
		return nil
	}

	pos := m.spawnPosition()
	ground := m.world.Field.HeightAt(pos.X, pos.Z)
	v := &VehicleState{
		ID:          id,
		Name:        name,
		Color:       m.getVehicleColor(id),
		Position:    Position{X: pos.X, Y: ground + m.cfg.Physics.SpawnHeight, Z: pos.Z},
		Grounded:    false,
		GroundLevel: ground,
		Health:      m.cfg.Vehicle.MaxHealth,
		Fuel:        m.cfg.Vehicle.MaxFuel,
		Power:       (m.cfg.Vehicle.MinPower + m.cfg.Vehicle.MaxPower) / 2,
		Radius:      m.cfg.Vehicle.Radius,
		IsAI:        isAI,
		Timestamp:   m.getTime(),
	}
	m.world.Vehicles[id] = v
	m.turns.AddActor(id)

	log.Info("Vehicle joined", "id", id, "name", name, "ai", isAI,
		"x", pos.X, "z", pos.Z, "dropHeight", m.cfg.Physics.SpawnHeight)
	return nil
}

// RemoveVehicle drops a vehicle (player disconnect) from the match.
func (m *Manager) RemoveVehicle(id string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if _, exists := m.world.Vehicles[id]; !exists {
		return
	}
	delete(m.world.Vehicles, id)
	m.turns.RemoveActor(id)
	log.Info("Vehicle removed", "id", id)
}

// spawnPosition picks an interior point clear of obstacles and other tanks.
func (m *Manager) spawnPosition() Position {
	half := m.world.HalfExtent()
	for attempt := 0; attempt < 32; attempt++ {
		x := (m.rng.Float64()*2 - 1) * half * 0.5
		z := (m.rng.Float64()*2 - 1) * half * 0.5
		if m.spawnClear(x, z) {
			return Position{X: x, Z: z}
		}
	}
	// Crowded map; let the collision resolver sort it out on the first move.
	return Position{}
}

func (m *Manager) spawnClear(x, z float64) bool {
	margin := m.cfg.Vehicle.Radius * 3
	for _, o := range m.world.Obstacles {
		if o.IsDestroyed {
			continue
		}
		if math.Hypot(x-o.Position.X, z-o.Position.Z) < o.Radius+margin {
			return false
		}
	}
	for _, v := range m.world.Vehicles {
		if math.Hypot(x-v.Position.X, z-v.Position.Z) < v.Radius+margin {
			return false
		}
	}
	return true
}

// HandleMove validates and applies a single-tick displacement from the
// active actor. Out-of-turn, destroyed, airborne, out-of-fuel and colliding
// moves are all rejected as silent no-ops.
func (m *Manager) HandleMove(id string, intent MoveIntent) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	v, ok := m.world.Vehicles[id]
	if !ok || !m.turns.CanAct(id) || !v.Grounded {
		return
	}

	dist := math.Hypot(intent.DX, intent.DZ)
	if dist == 0 {
		return
	}

	newYaw := math.Atan2(intent.DZ, intent.DX)
	cost := dist*m.cfg.Fuel.MovePerUnit +
		math.Abs(normalizeAngle(newYaw-v.HullYaw))*m.cfg.Fuel.RotatePerRadian
	if v.Fuel <= 0 || v.Fuel < cost {
		log.Debug("Move rejected: fuel exhausted", "id", id, "fuel", v.Fuel, "cost", cost)
		return
	}

	proposed := Position{X: v.Position.X + intent.DX, Y: v.Position.Y, Z: v.Position.Z + intent.DZ}

	var adjusted Position
	var tilt shared.Tilt
	if m.resolver != nil {
		decision := m.resolver.ValidateMove(id, proposed, Position{X: intent.DX, Z: intent.DZ})
		if !decision.Allowed {
			log.Debug("Move rejected by collision resolver", "id", id, "x", proposed.X, "z", proposed.Z)
			return
		}
		adjusted = decision.Adjusted
		tilt = decision.Tilt
	} else {
		// Degraded mode: rectangular boundary only, flat vertical position.
		if !m.world.InBounds(proposed.X, proposed.Z) {
			return
		}
		adjusted = Position{X: proposed.X, Y: 0, Z: proposed.Z}
	}

	v.Position = adjusted
	v.GroundLevel = adjusted.Y
	v.HullYaw = newYaw
	// Smoothed rotation toward the terrain tilt; snapping causes visible
	// jitter when crossing cell boundaries.
	blend := m.cfg.Physics.TiltBlend
	v.Tilt.Pitch += (tilt.Pitch - v.Tilt.Pitch) * blend
	v.Tilt.Roll += (tilt.Roll - v.Tilt.Roll) * blend

	v.Fuel -= cost
	if v.Fuel < 0 {
		v.Fuel = 0
	}
	v.Timestamp = m.getTime()
	m.Publish(GameEvent{Type: EventFuelChange, ActorID: id, Position: v.Position, Magnitude: v.Fuel})
}

// HandleAim updates turret yaw, barrel elevation and firing power. Aiming is
// free of fuel cost and allowed at zero fuel.
func (m *Manager) HandleAim(id string, intent AimIntent) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	v, ok := m.world.Vehicles[id]
	if !ok || !m.turns.CanAct(id) {
		return
	}

	if intent.TurretYaw != nil {
		v.TurretYaw = normalizeAngle(*intent.TurretYaw)
	}
	if intent.BarrelElevation != nil {
		v.BarrelElevation = clamp(*intent.BarrelElevation, m.cfg.Vehicle.ElevationMin, m.cfg.Vehicle.ElevationMax)
	}
	if intent.Power != nil {
		power := clamp(*intent.Power, m.cfg.Vehicle.MinPower, m.cfg.Vehicle.MaxPower)
		if power != v.Power {
			v.Power = power
			m.Publish(GameEvent{Type: EventPowerChange, ActorID: id, Position: v.Position, Magnitude: power})
		}
	}
	v.Timestamp = m.getTime()
}

// HandleFire spends the actor's one shot for the turn. Initial speed is the
// power ratio lerped between the configured projectile speeds, along the
// barrel's world-space forward direction.
func (m *Manager) HandleFire(id string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	v, ok := m.world.Vehicles[id]
	if !ok || !m.turns.CanAct(id) || v.HasFired {
		return
	}

	vc := m.cfg.Vehicle
	ratio := 0.0
	if vc.MaxPower > vc.MinPower {
		ratio = (v.Power - vc.MinPower) / (vc.MaxPower - vc.MinPower)
	}
	speed := vc.MinSpeed + ratio*(vc.MaxSpeed-vc.MinSpeed)

	cosElev := math.Cos(v.BarrelElevation)
	dir := Position{
		X: cosElev * math.Cos(v.TurretYaw),
		Y: math.Sin(v.BarrelElevation),
		Z: cosElev * math.Sin(v.TurretYaw),
	}
	muzzle := v.Radius + 0.6
	m.projectileCounter++
	p := &ProjectileState{
		ID:      fmt.Sprintf("shell_%d", m.projectileCounter),
		OwnerID: id,
		Position: Position{
			X: v.Position.X + dir.X*muzzle,
			Y: v.Position.Y + 0.8 + dir.Y*muzzle,
			Z: v.Position.Z + dir.Z*muzzle,
		},
		Velocity: Position{X: dir.X * speed, Y: dir.Y * speed, Z: dir.Z * speed},
	}
	m.world.Projectiles = append(m.world.Projectiles, p)

	v.HasFired = true
	v.Timestamp = m.getTime()
	m.turns.NoteFired(id)

	log.Info("Shell fired", "id", p.ID, "owner", id, "power", v.Power, "speed", speed)
	m.Publish(GameEvent{Type: EventProjectileFired, ActorID: id, Position: p.Position, Magnitude: speed})
}

// HandleEndTurn lets the active actor yield without firing.
func (m *Manager) HandleEndTurn(id string) {
	m.mutex.Lock()
	m.turns.EndTurn(id)
	m.mutex.Unlock()
}

// Get vehicle color based on ID
func (m *Manager) getVehicleColor(id string) string {
	var sum int
	for _, char := range id {
		sum += int(char)
	}
	return vehicleColors[sum%len(vehicleColors)]
}

// SaveState persists the current snapshot to the KV store. Marshaling happens
// on a copy so the lock is not held across the KV round trip.
func (m *Manager) SaveState() error {
	return m.saveState()
}

func (m *Manager) saveState() error {
	if m.kv == nil {
		return nil
	}
	state := m.GetState()
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("error marshaling match state: %v", err)
	}
	if _, err := m.kv.Put(m.ctx, "current", stateJSON); err != nil {
		return fmt.Errorf("error saving match state to KV: %v", err)
	}
	return nil
}

// WatchState creates a watcher for match state changes. Returns the
// KeyWatcher directly so callers can range over its Updates() channel.
func (m *Manager) WatchState(ctx context.Context) (jetstream.KeyWatcher, error) {
	watcher, err := m.kv.Watch(ctx, "current", jetstream.UpdatesOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to create KV watcher: %v", err)
	}
	return watcher, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// normalizeAngle normalizes an angle to be between -π and π
func normalizeAngle(angle float64) float64 {
	angle = math.Mod(angle, 2*math.Pi)
	if angle > math.Pi {
		angle -= 2 * math.Pi
	} else if angle < -math.Pi {
		angle += 2 * math.Pi
	}
	return angle
}
