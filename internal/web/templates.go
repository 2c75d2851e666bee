package web

import (
    "bytes"
    "html/template"
    "net/http"

    "github.com/google/uuid"

    "github.com/jaminalder/codex-reversi/internal/app"
    "github.com/jaminalder/codex-reversi/internal/domain"
)

type templates struct {
    game  *template.Template
    board *template.Template
    index *template.Template
}

func funcs() template.FuncMap {
    return template.FuncMap{
        "cellClass": func(c domain.Color) string {
            switch c {
            case domain.Black:
                return "disc black"
            case domain.White:
                return "disc white"
            default:
                return "empty"
            }
        },
        "symbol": func(c domain.Color) string {
            switch c {
            case domain.Black:
                return "\u25cf"
            case domain.White:
                return "\u25cb"
            default:
                return ""
            }
        },
    }
}

func loadTemplates() *templates {
    base := template.Must(template.New("base").Funcs(funcs()).Parse(`<!doctype html><html><head>
<meta charset="utf-8"/>
<title>Reversi 4x4</title>
<script src="https://unpkg.com/htmx.org@1.9.12"></script>
<script src="https://unpkg.com/htmx.org/dist/ext/sse.js"></script>
<style>
.row{display:flex}.row form{margin:0}
.row button{width:3em;height:3em;background:#2e7d32;border:1px solid #1b5e20}
.disc.black{color:#000}.disc.white{color:#fff}.legal{outline:2px dashed #ffeb3b}
</style>
</head><body>{{template "content" .}}</body></html>`))
    // Define the board template within the same set so game can include it
    template.Must(base.New("board").Funcs(funcs()).Parse(boardTemplate))
    index := template.Must(template.Must(base.Clone()).New("content").Parse(`<h1>Reversi 4x4</h1><form action="/game" method="post"><button>New game</button></form>`))
    game := template.Must(template.Must(base.Clone()).New("content").Parse(`
<div hx-ext="sse" sse-connect="/game/{{.ID}}/events">
  <div id="board" sse-swap="board">{{template "board" .}}</div>
</div>`))
    // Standalone board template used for fragment rendering
    board := template.Must(template.New("board_only").Funcs(funcs()).Parse(boardTemplate))
    return &templates{game: game, board: board, index: index}
}

func renderTemplate(t *template.Template, name string, data any) []byte {
    var buf bytes.Buffer
    if name == "" {
        _ = t.Execute(&buf, data)
    } else {
        _ = t.ExecuteTemplate(&buf, name, data)
    }
    return buf.Bytes()
}

const boardTemplate = `
<div id="board">
  {{if .Error}}
  <div class="alert">{{.Error}}</div>
  {{end}}
  <div class="status">{{.Status}}</div>
  <div class="score">Black {{.BlackScore}} : {{.WhiteScore}} White</div>
  <div class="seat">{{.Seat}}</div>
  {{range .Rows}}
  <div class="row">
    {{range .}}
      <form hx-post="/game/{{$.ID}}/play" hx-target="#board" hx-swap="outerHTML" method="post">
        <input type="hidden" name="r" value="{{.Row}}">
        <input type="hidden" name="c" value="{{.Col}}">
        <button type="submit" class="{{cellClass .Color}}{{if .Legal}} legal{{end}}">{{symbol .Color}}</button>
      </form>
    {{end}}
  </div>
  {{end}}
  {{if .Seated}}
  <form hx-post="/game/{{.ID}}/restart" hx-target="#board" hx-swap="outerHTML" method="post"><button>Restart</button></form>
  {{end}}
</div>
`

type cellView struct {
    Row   int
    Col   int
    Color domain.Color
    Legal bool
}

type boardView struct {
    ID         string
    Rows       [domain.Size][domain.Size]cellView
    Status     string
    Seat       string
    Seated     bool
    BlackScore int
    WhiteScore int
    Error      string
}

// newBoardView builds the template model for one viewer. Legal moves are only marked
// for the player whose turn it is.
func newBoardView(gr app.GameRecord, playerID, errMsg string) boardView {
    seat := gr.Seat(playerID)
    g := gr.Game
    black, white := g.Scores()
    v := boardView{
        ID:         gr.ID,
        Status:     statusText(&g),
        Seated:     seat != domain.Empty,
        BlackScore: black,
        WhiteScore: white,
        Error:      errMsg,
    }
    if v.Seated {
        v.Seat = "You play " + seat.String()
    } else {
        v.Seat = "Spectating"
    }
    hints := !g.Over() && seat == g.Turn()
    for r := 0; r < domain.Size; r++ {
        for c := 0; c < domain.Size; c++ {
            p := domain.Position{Row: r, Col: c}
            v.Rows[r][c] = cellView{
                Row:   r,
                Col:   c,
                Color: g.At(p),
                Legal: hints && g.IsLegalMove(p),
            }
        }
    }
    return v
}

func statusText(g *domain.Game) string {
    if !g.Over() {
        return "Current turn: " + g.Turn().String()
    }
    if w := g.Winner(); w != domain.Empty {
        return "Game Over! " + w.String() + " wins!"
    }
    return "Game Over! It's a tie!"
}

// Helper to set cookie
func ensurePlayerCookie(w http.ResponseWriter, r *http.Request) string {
    if c, err := r.Cookie("player_id"); err == nil && c.Value != "" {
        return c.Value
    }
    // Generate UUIDv4 for player ID
    v := uuid.NewString()
    http.SetCookie(w, &http.Cookie{Name: "player_id", Value: v, Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode})
    return v
}

func playerCookie(r *http.Request) string {
    if c, err := r.Cookie("player_id"); err == nil {
        return c.Value
    }
    return ""
}
