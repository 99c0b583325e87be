package main

import (
	"context"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/delaneyj/toolbelt/embeddednats"
	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"github.com/mark3labs/armor-duel/game"
	"github.com/mark3labs/armor-duel/game/physics"
	"github.com/mark3labs/armor-duel/middleware"
	"github.com/mark3labs/armor-duel/routes"
	"github.com/mark3labs/armor-duel/utils"
)

func main() {
	app := pocketbase.New()

	middleware.AddCookieSessionMiddleware(app)

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		ctx := context.Background()

		// Embedded NATS: JetStream KV carries the match snapshots, plain
		// subjects carry the game events.
		ns, err := embeddednats.New(ctx,
			embeddednats.WithNATSServerOptions(&natsserver.Options{
				JetStream: true,
				StoreDir:  filepath.Join(app.DataDir(), "nats"),
			}),
		)
		if err != nil {
			return err
		}
		ns.WaitForServer()

		nc, err := ns.Client()
		if err != nil {
			return err
		}

		js, err := jetstream.New(nc)
		if err != nil {
			return err
		}

		kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket: "armorduel",
		})
		if err != nil {
			return err
		}

		cfg := game.LoadConfig(app.DataDir())
		gameManager, err := game.NewManager(ctx, cfg, kv, nc)
		if err != nil {
			return err
		}

		engine := physics.NewEngine(ctx, gameManager)
		engine.Start()

		npc := game.NewNPCController(ctx, gameManager, "npc_1", utils.GenerateCallsign())
		if err := npc.Start(); err != nil {
			return err
		}

		if err := routes.SetupRoutes(ctx, se.Router, gameManager); err != nil {
			return err
		}

		return se.Next()
	})

	if err := app.Start(); err != nil {
		log.Fatal("Server failed", "error", err)
	}
}
