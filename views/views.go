// Package views renders the HTML shell around the match. The pages are thin:
// all live state rides the /gamestate SSE stream and the datastar signal
// plumbing; the server never re-renders the battlefield.
package views

import (
	"context"
	"fmt"
	"html"
	"io"

	"github.com/a-h/templ"
)

// Provider is the login page's view of an OAuth2 provider.
type Provider struct {
	Name        string
	DisplayName string
	AuthURL     string
}

func page(title, body string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
<script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar@v0.21.4/bundles/datastar.js"></script>
<link rel="stylesheet" href="/assets/app.css">
</head>
<body>
%s
</body>
</html>`, html.EscapeString(title), body)
		return err
	})
}

// Index is the match page. The client boots from the gameState signal and
// submits intents by patching the move/aim/fire signals at /intent.
func Index() templ.Component {
	return page("Armor Duel", `<main id="battlefield"
  data-signals="{gameState: '', move: '', aim: '', fire: false, endTurn: false}"
  data-on-load="@get('/gamestate')">
  <div id="viewport"></div>
  <section id="hud">
    <div id="turn-banner" data-text="JSON.parse($gameState || '{}')?.turn?.actorId || ''"></div>
    <div id="fuel-gauge"></div>
    <div id="power-gauge"></div>
    <button data-on-click="$endTurn = true; @post('/intent')">End Turn</button>
  </section>
  <script type="module" src="/assets/game.js"></script>
</main>`)
}

// Login lists the configured OAuth2 providers.
func Login(providers []Provider) templ.Component {
	body := `<main id="login"><h1>Armor Duel</h1><ul class="providers">`
	for _, p := range providers {
		body += fmt.Sprintf(`<li><a class="provider provider-%s" href="%s">Sign in with %s</a></li>`,
			html.EscapeString(p.Name), html.EscapeString(p.AuthURL), html.EscapeString(p.DisplayName))
	}
	if len(providers) == 0 {
		body += `<li class="empty">No sign-in providers configured.</li>`
	}
	body += `</ul></main>`
	return page("Armor Duel - Sign In", body)
}

// GameOver is merged into the page when the match ends.
func GameOver(winner string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<div id="turn-banner" class="game-over">Match over: %s win</div>`,
			html.EscapeString(winner))
		return err
	})
}
