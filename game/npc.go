package game

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mark3labs/armor-duel/game/shared"
)

const (
	npcThinkInterval = 200 * time.Millisecond
	npcDesiredRange  = 45.0 // preferred firing distance
	npcMoveStep      = 3.0  // displacement per think step
	npcAimJitter     = 0.06 // radians of yaw/elevation error
	npcFuelReserve   = 5.0  // stop maneuvering below this
)

// NPCController drives one AI vehicle through its turns. It polls the match
// state on a think ticker and, while its vehicle holds the acting phase,
// closes distance to the nearest live player, solves a ballistic firing
// solution with deliberate jitter, fires once and yields.
type NPCController struct {
	manager *Manager
	id      string
	name    string
	rng     *rand.Rand

	ctx    context.Context
	cancel context.CancelFunc
}

// NewNPCController creates a controller for one AI vehicle.
func NewNPCController(ctx context.Context, manager *Manager, id, name string) *NPCController {
	cctx, cancel := context.WithCancel(ctx)
	return &NPCController{
		manager: manager,
		id:      id,
		name:    name,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		ctx:     cctx,
		cancel:  cancel,
	}
}

// Start seats the AI vehicle and launches the think loop.
func (c *NPCController) Start() error {
	if err := c.manager.JoinVehicle(c.id, c.name, true); err != nil {
		return err
	}
	go c.run()
	log.Info("NPC controller started", "id", c.id, "name", c.name)
	return nil
}

// Stop halts the think loop and withdraws the vehicle.
func (c *NPCController) Stop() {
	c.cancel()
	c.manager.RemoveVehicle(c.id)
}

func (c *NPCController) run() {
	ticker := time.NewTicker(npcThinkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.think()
		}
	}
}

// think performs at most one action per tick so turns play out at a pace a
// spectator can follow.
func (c *NPCController) think() {
	state := c.manager.GetState()
	if state.Turn.Phase != PhaseActing || state.Turn.ActorID != c.id {
		return
	}
	self, ok := state.Vehicles[c.id]
	if !ok || self.IsDestroyed {
		return
	}

	target, found := c.nearestEnemy(&state, &self)
	if !found {
		c.manager.HandleEndTurn(c.id)
		return
	}

	dx := target.Position.X - self.Position.X
	dz := target.Position.Z - self.Position.Z
	dist := math.Hypot(dx, dz)

	clear := true
	if scanner := c.manager.Scanner(); scanner != nil {
		clear = scanner.CheckLineOfSight(
			shared.Position{X: self.Position.X, Y: self.Position.Y + 1.0, Z: self.Position.Z},
			shared.Position{X: target.Position.X, Y: target.Position.Y + 1.0, Z: target.Position.Z},
		)
	}

	// Maneuver while too far or masked by terrain, as long as fuel allows.
	if (dist > npcDesiredRange || !clear) && self.Fuel > npcFuelReserve {
		step := math.Min(npcMoveStep, dist)
		c.manager.HandleMove(c.id, MoveIntent{DX: dx / dist * step, DZ: dz / dist * step})
		return
	}

	if !self.HasFired {
		c.aimAndFire(&self, dist, dx, dz)
		return
	}
	c.manager.HandleEndTurn(c.id)
}

// aimAndFire solves the flat-range launch angle for the current distance,
// picks the power that makes the solution reachable and fires with jitter.
func (c *NPCController) aimAndFire(self *VehicleState, dist, dx, dz float64) {
	cfg := c.manager.Config()
	g := cfg.Physics.Gravity

	// Fix the launch angle and back-solve the speed: R = v^2 sin(2θ) / g.
	elev := 0.7
	required := math.Sqrt(dist * g / math.Sin(2*elev))
	ratio := (required - cfg.Vehicle.MinSpeed) / (cfg.Vehicle.MaxSpeed - cfg.Vehicle.MinSpeed)
	power := cfg.Vehicle.MinPower + ratio*(cfg.Vehicle.MaxPower-cfg.Vehicle.MinPower)
	if power > cfg.Vehicle.MaxPower {
		// Out of reach at this angle; flatten toward 45 degrees for max range.
		power = cfg.Vehicle.MaxPower
		v := cfg.Vehicle.MaxSpeed
		s := dist * g / (v * v)
		if s < 1 {
			elev = 0.5 * math.Asin(s)
		} else {
			elev = math.Pi / 4
		}
	}

	yaw := math.Atan2(dz, dx) + (c.rng.Float64()*2-1)*npcAimJitter
	elev += (c.rng.Float64()*2 - 1) * npcAimJitter

	c.manager.HandleAim(c.id, AimIntent{
		TurretYaw:       &yaw,
		BarrelElevation: &elev,
		Power:           &power,
	})
	c.manager.HandleFire(c.id)
	log.Debug("NPC fired", "id", c.id, "range", dist, "elevation", elev, "power", power)
}

func (c *NPCController) nearestEnemy(state *WorldState, self *VehicleState) (VehicleState, bool) {
	var best VehicleState
	bestDist := math.MaxFloat64
	found := false
	for _, v := range state.Vehicles {
		if v.ID == self.ID || v.IsAI == self.IsAI || v.IsDestroyed {
			continue
		}
		d := math.Hypot(v.Position.X-self.Position.X, v.Position.Z-self.Position.Z)
		if d < bestDist {
			bestDist = d
			best = v
			found = true
		}
	}
	return best, found
}
