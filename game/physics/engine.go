// Package physics runs the simulation tick for a match: gravity for falling
// vehicles, ballistic flight and termination for shells, and the collision
// queries the game manager consults when validating movement.
package physics

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mark3labs/armor-duel/game"
	"github.com/mark3labs/armor-duel/game/shared"
)

const tickInterval = 100 * time.Millisecond

// Engine owns the tick loop. Each tick integrates falls and shells inside the
// manager's world lock, then lets the turn coordinator advance and persists
// the snapshot.
type Engine struct {
	manager *game.Manager
	fall    *FallIntegrator
	shells  *ShellIntegrator

	ctx    context.Context
	cancel context.CancelFunc
}

// NewEngine builds the integrators and wires the collision resolver and
// target scanner into the manager.
func NewEngine(ctx context.Context, manager *game.Manager) *Engine {
	cfg := manager.Config()
	resolver := NewCollisionManager(manager.WorldRef(), cfg)
	manager.SetCollisionResolver(resolver)
	manager.SetTargetScanner(&lockedScanner{manager: manager, resolver: resolver})

	cctx, cancel := context.WithCancel(ctx)
	return &Engine{
		manager: manager,
		fall:    NewFallIntegrator(cfg, resolver),
		shells:  NewShellIntegrator(cfg),
		ctx:     cctx,
		cancel:  cancel,
	}
}

// Start launches the tick loop.
func (e *Engine) Start() {
	go e.run()
	log.Info("Physics engine started", "interval", tickInterval)
}

// Stop halts the tick loop.
func (e *Engine) Stop() {
	e.cancel()
	log.Info("Physics engine stopped")
}

func (e *Engine) run() {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.ctx.Done():
			return
		case <-ticker.C:
			e.Tick(tickInterval.Seconds())
		}
	}
}

// Tick runs one simulation step. Exposed so tests can drive the match without
// real time passing.
func (e *Engine) Tick(dt float64) {
	e.manager.Mutate(func(w *game.World) {
		e.fall.Step(w, dt, e.manager)
		e.shells.Step(w, dt, e.manager)
	})
	e.manager.ResolveTurns()
	if err := e.manager.SaveState(); err != nil {
		log.Error("Error persisting match state", "error", err)
	}
}

// lockedScanner adapts the resolver's line-of-sight query for callers outside
// the world lock, such as the NPC think loop.
type lockedScanner struct {
	manager  *game.Manager
	resolver *CollisionManager
}

func (s *lockedScanner) CheckLineOfSight(fromPos, toPos shared.Position) bool {
	var clear bool
	s.manager.Mutate(func(*game.World) {
		clear = s.resolver.CheckLineOfSight(fromPos, toPos)
	})
	return clear
}
