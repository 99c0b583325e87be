package game

import (
	"fmt"
)

// World is the explicit match context: it owns the heightfield, the entity
// collections and the turn state. Components receive it by reference and
// resolve cross-entity links through its collections by ID; nothing here
// holds an owning back-reference.
type World struct {
	Field       *HeightField
	Vehicles    map[string]*VehicleState
	Obstacles   []*ObstacleState
	Projectiles []*ProjectileState
	Turn        TurnState
	Seed        int64
}

// NewWorld wires a match world. A missing heightfield is the one structurally
// corrupt condition the core refuses to limp through: it fails here, before
// any tick runs.
func NewWorld(field *HeightField, obstacles []*ObstacleState) (*World, error) {
	if field == nil {
		return nil, fmt.Errorf("world setup: heightfield is required")
	}
	return &World{
		Field:       field,
		Vehicles:    make(map[string]*VehicleState),
		Obstacles:   obstacles,
		Projectiles: make([]*ProjectileState, 0),
		Turn:        TurnState{Phase: PhaseActing},
		Seed:        field.Seed,
	}, nil
}

// HalfExtent is the playable boundary on each axis.
func (w *World) HalfExtent() float64 {
	return w.Field.Size / 2
}

// InBounds reports whether a horizontal position is inside the playable area.
func (w *World) InBounds(x, z float64) bool {
	half := w.HalfExtent()
	return x >= -half && x <= half && z >= -half && z <= half
}

// LiveVehicleCount counts surviving vehicles per side.
func (w *World) LiveVehicleCount(ai bool) int {
	n := 0
	for _, v := range w.Vehicles {
		if !v.IsDestroyed && v.IsAI == ai {
			n++
		}
	}
	return n
}

// Snapshot deep-copies the world into its serializable form. Copies never
// alias live entities, so callers can hold them across ticks.
func (w *World) Snapshot() WorldState {
	state := WorldState{
		Seed:        w.Seed,
		Vehicles:    make(map[string]VehicleState, len(w.Vehicles)),
		Obstacles:   make([]ObstacleState, 0, len(w.Obstacles)),
		Projectiles: make([]ProjectileState, 0, len(w.Projectiles)),
		Turn:        w.Turn,
	}
	state.Turn.Queue = append([]string(nil), w.Turn.Queue...)
	for id, v := range w.Vehicles {
		state.Vehicles[id] = *v
	}
	for _, o := range w.Obstacles {
		state.Obstacles = append(state.Obstacles, *o)
	}
	for _, p := range w.Projectiles {
		state.Projectiles = append(state.Projectiles, *p)
	}
	return state
}
