package web

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

func Home(games []GameSummary) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, _ = io.WriteString(w, `<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Tune Guesser</title>
  </head>
  <body>
    <main class="shell">
      <header class="hero">
        <span class="tag">Tune Guesser</span>
        <h1>Hear a clip. Name that tune.</h1>
        <p>Host a game, share the code and race your friends to the answer.</p>
      </header>

      <section class="panel">
        <h2>Live games</h2>
        <div id="activeGames">`)
		if err := ActiveGamesList(games).Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</div>
      </section>
    </main>
    <script>
      async function refreshGames() {
        const res = await fetch("/api/games");
        if (!res.ok) {
          return;
        }
        const data = await res.json();
        const list = document.getElementById("activeGames");
        if (!data.games || data.games.length === 0) {
          list.innerHTML = '<p class="empty">No games right now.</p>';
          return;
        }
        list.innerHTML = "<ul class=\"games\">" + data.games.map((game) =>
          "<li><strong>" + game.id + "</strong> " + game.status + " &middot; " + game.players + " players</li>"
        ).join("") + "</ul>";
      }
      setInterval(refreshGames, 5000);
    </script>
  </body>
</html>
`)
		return err
	})
}

// ActiveGamesList renders the live games, or a placeholder when there are none.
func ActiveGamesList(games []GameSummary) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if len(games) == 0 {
			_, err := io.WriteString(w, `<p class="empty">No games right now.</p>`)
			return err
		}
		if _, err := io.WriteString(w, `<ul class="games">`); err != nil {
			return err
		}
		for _, game := range games {
			row := `<li><strong>` + templ.EscapeString(game.ID) + `</strong> ` +
				templ.EscapeString(roundLabel(game)) + ` &middot; ` +
				itoa(game.Players) + ` players &middot; ` +
				templ.EscapeString(game.Difficulty) + ` &middot; opened ` +
				formatTime(game.CreatedAt) + `</li>`
			if _, err := io.WriteString(w, row); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</ul>`)
		return err
	})
}
