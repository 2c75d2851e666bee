package web

import (
    "encoding/json"
    "errors"
    "net/http"

    "github.com/go-chi/chi/v5"

    "github.com/jaminalder/codex-reversi/internal/app"
    "github.com/jaminalder/codex-reversi/internal/domain"
    "github.com/jaminalder/codex-reversi/internal/wire"
)

type apiGame struct {
    ID     string          `json:"id"`
    State  wire.GameState  `json:"state"`
    Moves  []wire.Position `json:"moves"`
    Winner string          `json:"winner,omitempty"`
    Black  string          `json:"black_player,omitempty"`
    White  string          `json:"white_player,omitempty"`
}

type apiPlayer struct {
    Player string `json:"player"`
}

type apiMove struct {
    Player string `json:"player"`
    Row    int    `json:"row"`
    Col    int    `json:"col"`
}

type apiMoveResult struct {
    apiGame
    Captured []wire.Position `json:"captured"`
    Passed   bool            `json:"passed"`
}

type apiJoin struct {
    Color string  `json:"color"` // empty for spectators
    Game  apiGame `json:"game"`
}

type apiError struct {
    Error string `json:"error"`
}

func toAPIGame(gr app.GameRecord) apiGame {
    out := apiGame{
        ID:    gr.ID,
        State: wire.FromState(gr.Game.State()),
        Moves: wire.Positions(gr.Game.LegalMoves()),
        Black: gr.Black,
        White: gr.White,
    }
    if gr.Game.Over() {
        out.Winner = winnerTag(gr.Game.Winner())
    }
    return out
}

// winnerTag names the winner for finished games; ties are "Tie".
func winnerTag(c domain.Color) string {
    if c == domain.Empty {
        return "Tie"
    }
    return c.String()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(status)
    _ = json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, err error) {
    writeJSON(w, statusFor(err), apiError{Error: errorMessage(err)})
}

func (h *handlers) apiCreate(w http.ResponseWriter, r *http.Request) {
    gr, err := h.svc.CreateGame()
    if err != nil {
        writeAPIError(w, err)
        return
    }
    writeJSON(w, http.StatusCreated, toAPIGame(*gr))
}

func (h *handlers) apiGet(w http.ResponseWriter, r *http.Request) {
    gr, err := h.svc.Get(chi.URLParam(r, "id"))
    if err != nil {
        writeAPIError(w, err)
        return
    }
    writeJSON(w, http.StatusOK, toAPIGame(*gr))
}

func (h *handlers) apiMoves(w http.ResponseWriter, r *http.Request) {
    moves, err := h.svc.LegalMoves(chi.URLParam(r, "id"))
    if err != nil {
        writeAPIError(w, err)
        return
    }
    writeJSON(w, http.StatusOK, wire.Positions(moves))
}

func (h *handlers) apiJoin(w http.ResponseWriter, r *http.Request) {
    var req apiPlayer
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Player == "" {
        writeJSON(w, http.StatusBadRequest, apiError{Error: "player is required"})
        return
    }
    side, gr, err := h.svc.Join(chi.URLParam(r, "id"), req.Player)
    if err != nil {
        writeAPIError(w, err)
        return
    }
    writeJSON(w, http.StatusOK, apiJoin{Color: side.String(), Game: toAPIGame(*gr)})
}

func (h *handlers) apiPlay(w http.ResponseWriter, r *http.Request) {
    var req apiMove
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        writeJSON(w, http.StatusBadRequest, apiError{Error: "malformed move"})
        return
    }
    id := chi.URLParam(r, "id")
    gr, out, err := h.svc.Play(id, req.Player, domain.Position{Row: req.Row, Col: req.Col})
    if err != nil {
        if !errors.Is(err, domain.ErrInvalidMove) {
            h.logger.Debug("move rejected", "game", id, "player", req.Player, "error", err)
        }
        writeAPIError(w, err)
        return
    }
    writeJSON(w, http.StatusOK, apiMoveResult{
        apiGame:  toAPIGame(*gr),
        Captured: wire.Positions(out.Captured),
        Passed:   out.Passed,
    })
}

func (h *handlers) apiRestart(w http.ResponseWriter, r *http.Request) {
    var req apiPlayer
    _ = json.NewDecoder(r.Body).Decode(&req)
    id := chi.URLParam(r, "id")
    gr, err := h.svc.Restart(id, req.Player)
    if err != nil {
        writeAPIError(w, err)
        return
    }
    writeJSON(w, http.StatusOK, toAPIGame(*gr))
}
