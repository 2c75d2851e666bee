package web

import (
    "context"
    "net/http"
    "time"

    "github.com/go-chi/chi/v5"
    "github.com/gorilla/websocket"

    "github.com/jaminalder/codex-reversi/internal/app"
    "github.com/jaminalder/codex-reversi/internal/domain"
    "github.com/jaminalder/codex-reversi/internal/wire"
)

var upgrader = websocket.Upgrader{
    ReadBufferSize:  1024,
    WriteBufferSize: 1024,
}

// wsMessage is sent by clients: {"type":"move","row":0,"col":2} or {"type":"ping"}.
type wsMessage struct {
    Type string `json:"type"`
    Row  int    `json:"row"`
    Col  int    `json:"col"`
}

// stateEvent renders the shared broadcast payload for a game.
func stateEvent(gr app.GameRecord) []byte {
    st := wire.FromState(gr.Game.State())
    ev := wire.Event{
        Type:  "state",
        Game:  gr.ID,
        State: &st,
        Moves: wire.Positions(gr.Game.LegalMoves()),
    }
    if gr.Game.Over() {
        ev.Type = "over"
        ev.Winner = winnerTag(gr.Game.Winner())
    }
    return wire.MustMarshal(ev)
}

// ws streams game events to a websocket client and accepts moves from it.
// The player is identified by the player_id cookie, as in the HTML flow.
func (h *handlers) ws(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")
    pid := playerCookie(r)
    ctx, cancel := context.WithCancel(r.Context())
    defer cancel()
    // the first frame is the snapshot the subscription starts from, so no change is lost
    // between them
    gr, updates, unsub, err := h.svc.Watch(ctx, id)
    if err != nil {
        http.Error(w, errorMessage(err), statusFor(err))
        return
    }
    defer unsub()

    conn, err := upgrader.Upgrade(w, r, nil)
    if err != nil {
        h.logger.Warn("websocket upgrade", "game", id, "error", err)
        return
    }
    defer conn.Close()

    replies := make(chan []byte, 8)
    go h.wsReadPump(ctx, cancel, conn, id, pid, replies)

    if err := conn.WriteMessage(websocket.TextMessage, stateEvent(*gr)); err != nil {
        return
    }
    if err := h.wsWritePump(ctx, conn, updates, replies); err != nil {
        h.logger.Debug("websocket closed", "game", id, "error", err)
    }
}

func (h *handlers) wsReadPump(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, id, pid string, replies chan<- []byte) {
    defer cancel()
    for {
        var msg wsMessage
        if err := conn.ReadJSON(&msg); err != nil {
            return
        }
        var reply []byte
        switch msg.Type {
        case "move":
            _, out, err := h.svc.Play(id, pid, domain.Position{Row: msg.Row, Col: msg.Col})
            switch {
            case err != nil:
                reply = wire.MustMarshal(wire.Event{Type: "error", Game: id, Error: errorMessage(err)})
            case out.Passed:
                reply = wire.MustMarshal(wire.Event{Type: "pass", Game: id, Captured: wire.Positions(out.Captured)})
            }
        case "ping":
            reply = wire.MustMarshal(wire.Event{Type: "pong", Game: id})
        default:
            reply = wire.MustMarshal(wire.Event{Type: "error", Game: id, Error: "unknown message type"})
        }
        if reply == nil {
            continue
        }
        select {
        case replies <- reply:
        case <-ctx.Done():
            return
        }
    }
}

// wsWritePump is the only writer on conn. It pings when the connection has been idle
// for a heartbeat interval.
func (h *handlers) wsWritePump(ctx context.Context, conn *websocket.Conn, updates <-chan []byte, replies <-chan []byte) error {
    ticker := time.NewTicker(h.heartbeat)
    defer ticker.Stop()
    lastWrite := time.Now()
    ping := wire.MustMarshal(wire.Event{Type: "ping"})

    write := func(b []byte) error {
        lastWrite = time.Now()
        return conn.WriteMessage(websocket.TextMessage, b)
    }
    for {
        select {
        case <-ctx.Done():
            _ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
            return nil
        case b, ok := <-updates:
            if !ok {
                _ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
                return nil
            }
            if err := write(b); err != nil {
                return err
            }
        case b := <-replies:
            if err := write(b); err != nil {
                return err
            }
        case <-ticker.C:
            if time.Since(lastWrite) < h.heartbeat {
                continue
            }
            if err := write(ping); err != nil {
                return err
            }
        }
    }
}
