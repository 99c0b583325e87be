package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/router"
	datastar "github.com/starfederation/datastar/sdk/go"

	"github.com/mark3labs/armor-duel/game"
	"github.com/mark3labs/armor-duel/middleware"
	"github.com/mark3labs/armor-duel/utils"
	"github.com/mark3labs/armor-duel/views"
)

// Signals struct for handling DataStar signals
type Signals struct {
	Move    string `json:"move"`
	Aim     string `json:"aim"`
	Fire    bool   `json:"fire"`
	EndTurn bool   `json:"endTurn"`
}

func setupIndexRoutes(ctx context.Context, r *router.Router[*core.RequestEvent], gameManager *game.Manager) error {
	// Create a group for protected routes
	protected := r.Group("")
	protected.BindFunc(middleware.AuthGuard)

	// POST route for intent submission. Out-of-turn intents are no-ops in the
	// manager, so this endpoint always answers success.
	protected.POST("/intent", func(e *core.RequestEvent) error {
		signals := &Signals{}
		if err := datastar.ReadSignals(e.Request, signals); err != nil {
			log.Warn("Error reading intent signals", "error", err)
			return e.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}

		actorID := actorID(e)

		if signals.Move != "" {
			var move game.MoveIntent
			if err := json.Unmarshal([]byte(signals.Move), &move); err != nil {
				return e.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid move intent"})
			}
			gameManager.HandleMove(actorID, move)
		}

		if signals.Aim != "" {
			var aim game.AimIntent
			if err := json.Unmarshal([]byte(signals.Aim), &aim); err != nil {
				return e.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid aim intent"})
			}
			gameManager.HandleAim(actorID, aim)
		}

		if signals.Fire {
			gameManager.HandleFire(actorID)
		}
		if signals.EndTurn {
			gameManager.HandleEndTurn(actorID)
		}

		return e.JSON(http.StatusOK, map[string]bool{"success": true})
	})

	// GET route for the gamestate SSE stream, fed from the KV watcher so every
	// tick's snapshot reaches the client without polling.
	protected.GET("/gamestate", func(e *core.RequestEvent) error {
		sse := datastar.NewSSE(e.Response, e.Request)

		watcher, err := gameManager.WatchState(e.Request.Context())
		if err != nil {
			log.Error("Error creating state watcher", "error", err)
			return e.JSON(http.StatusInternalServerError, map[string]string{"error": "state stream unavailable"})
		}
		defer watcher.Stop()

		for {
			select {
			case <-e.Request.Context().Done():
				return nil
			case entry := <-watcher.Updates():
				if entry == nil {
					continue
				}
				if err := sse.MergeSignals([]byte(fmt.Sprintf(`{"gameState": %q}`, string(entry.Value())))); err != nil {
					log.Debug("Error sending game state", "error", err)
					return nil
				}

				var snapshot struct {
					Turn game.TurnState `json:"turn"`
				}
				if err := json.Unmarshal(entry.Value(), &snapshot); err == nil &&
					snapshot.Turn.Phase == game.PhaseGameOver {
					_ = sse.MergeFragmentTempl(views.GameOver(snapshot.Turn.Winner))
				}
			}
		}
	})

	// The match page. Loading it seats the viewer's tank.
	protected.GET("/", func(e *core.RequestEvent) error {
		id := actorID(e)
		name := utils.GenerateCallsign()
		if e.Auth != nil && e.Auth.Email() != "" {
			name = e.Auth.Email()
		}
		if err := gameManager.JoinVehicle(id, name, false); err != nil {
			log.Error("Error seating vehicle", "id", id, "error", err)
		}

		ctx := context.WithValue(context.Background(), "user", e.Auth)
		return views.Index().Render(ctx, e.Response)
	})

	return nil
}

func actorID(e *core.RequestEvent) string {
	if e.Auth != nil {
		return e.Auth.Id
	}
	return "guest"
}
