package game

import (
	"github.com/charmbracelet/log"
)

// TurnCoordinator gates which vehicle may act. Exactly one actor holds the
// ACTING phase at a time; firing, ending the turn, or being destroyed hands
// the match to RESOLVING, which waits out in-flight shells before seating the
// next actor or declaring the match over.
type TurnCoordinator struct {
	world   *World
	cfg     *Config
	events  EventSink
	getTime TimeStamper

	order []string // actor seating order, join order
}

// NewTurnCoordinator creates a coordinator bound to a world.
func NewTurnCoordinator(world *World, cfg *Config, events EventSink) *TurnCoordinator {
	return &TurnCoordinator{
		world:   world,
		cfg:     cfg,
		events:  events,
		getTime: DefaultTimeStamper,
	}
}

// AddActor seats a vehicle at the end of the turn order. The first actor to
// join opens the first turn.
func (tc *TurnCoordinator) AddActor(id string) {
	tc.order = append(tc.order, id)
	if tc.world.Turn.ActorID == "" && tc.world.Turn.Phase == PhaseActing {
		tc.world.Turn.Round = 1
		tc.beginTurn(id)
		return
	}
	// Joining mid-round: queue up for the round in progress.
	if tc.world.Turn.Phase != PhaseGameOver {
		tc.world.Turn.Queue = append(tc.world.Turn.Queue, id)
	}
}

// RemoveActor drops a vehicle from the seating order (player disconnect).
func (tc *TurnCoordinator) RemoveActor(id string) {
	for i, a := range tc.order {
		if a == id {
			tc.order = append(tc.order[:i], tc.order[i+1:]...)
			break
		}
	}
	if tc.world.Turn.ActorID == id && tc.world.Turn.Phase == PhaseActing {
		tc.world.Turn.Phase = PhaseResolving
	}
}

// CanAct reports whether move/aim/fire intents from this vehicle are honored
// right now. Everything else is silently ignored by the manager.
func (tc *TurnCoordinator) CanAct(id string) bool {
	if tc.world.Turn.Phase != PhaseActing || tc.world.Turn.ActorID != id {
		return false
	}
	v, ok := tc.world.Vehicles[id]
	return ok && !v.IsDestroyed
}

// EndTurn is the active actor explicitly yielding.
func (tc *TurnCoordinator) EndTurn(id string) {
	if !tc.CanAct(id) {
		return
	}
	log.Debug("Turn ended by actor", "id", id)
	tc.world.Turn.Phase = PhaseResolving
}

// NoteFired marks the single-shot budget spent; firing always ends the
// acting phase.
func (tc *TurnCoordinator) NoteFired(id string) {
	if tc.world.Turn.ActorID == id && tc.world.Turn.Phase == PhaseActing {
		tc.world.Turn.Phase = PhaseResolving
	}
}

// Advance runs once per tick after physics. It handles mid-turn destruction
// of the active actor, waits out in-flight projectiles, checks win/loss, and
// seats the next actor.
func (tc *TurnCoordinator) Advance() {
	switch tc.world.Turn.Phase {
	case PhaseActing:
		v, ok := tc.world.Vehicles[tc.world.Turn.ActorID]
		if !ok || v.IsDestroyed {
			tc.world.Turn.Phase = PhaseResolving
		}
	case PhaseResolving:
		if len(tc.world.Projectiles) > 0 {
			return
		}
		if tc.checkGameOver() {
			return
		}
		if next := tc.nextActor(); next != "" {
			tc.beginTurn(next)
		}
	case PhaseGameOver:
		// Terminal.
	}
}

// beginTurn replenishes the actor's turn budget and announces the change.
func (tc *TurnCoordinator) beginTurn(id string) {
	v, ok := tc.world.Vehicles[id]
	if !ok {
		return
	}
	tc.world.Turn.ActorID = id
	tc.world.Turn.Phase = PhaseActing
	v.Fuel = tc.cfg.Vehicle.MaxFuel
	v.HasFired = false

	log.Info("Turn granted", "actor", id, "round", tc.world.Turn.Round)
	if tc.events != nil {
		now := tc.getTime()
		tc.events.Publish(GameEvent{Type: EventTurnChange, ActorID: id, Position: v.Position, Timestamp: now})
		tc.events.Publish(GameEvent{Type: EventFuelChange, ActorID: id, Magnitude: v.Fuel, Timestamp: now})
	}
}

// nextActor pops the round queue, skipping the destroyed; an exhausted queue
// starts the next round from the seating order.
func (tc *TurnCoordinator) nextActor() string {
	for {
		if len(tc.world.Turn.Queue) == 0 {
			queue := make([]string, 0, len(tc.order))
			for _, id := range tc.order {
				if v, ok := tc.world.Vehicles[id]; ok && !v.IsDestroyed {
					queue = append(queue, id)
				}
			}
			if len(queue) == 0 {
				return ""
			}
			tc.world.Turn.Queue = queue
			tc.world.Turn.Round++
		}
		id := tc.world.Turn.Queue[0]
		tc.world.Turn.Queue = tc.world.Turn.Queue[1:]
		if v, ok := tc.world.Vehicles[id]; ok && !v.IsDestroyed {
			return id
		}
	}
}

// checkGameOver ends the match when one side has no live vehicles left. Only
// meaningful once both sides are represented.
func (tc *TurnCoordinator) checkGameOver() bool {
	var hasAI, hasPlayers bool
	for _, v := range tc.world.Vehicles {
		if v.IsAI {
			hasAI = true
		} else {
			hasPlayers = true
		}
	}
	if !hasAI || !hasPlayers {
		return false
	}

	liveAI := tc.world.LiveVehicleCount(true)
	livePlayers := tc.world.LiveVehicleCount(false)
	switch {
	case liveAI == 0 && livePlayers > 0:
		tc.world.Turn.Winner = "players"
	case livePlayers == 0 && liveAI > 0:
		tc.world.Turn.Winner = "ai"
	case livePlayers == 0 && liveAI == 0:
		tc.world.Turn.Winner = "draw"
	default:
		return false
	}

	tc.world.Turn.Phase = PhaseGameOver
	tc.world.Turn.ActorID = ""
	log.Info("Match over", "winner", tc.world.Turn.Winner, "round", tc.world.Turn.Round)
	return true
}
