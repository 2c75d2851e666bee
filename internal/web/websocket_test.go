package web

import (
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/gorilla/websocket"

    "github.com/jaminalder/codex-reversi/internal/domain"
    "github.com/jaminalder/codex-reversi/internal/wire"
)

func dialGame(t *testing.T, srv *httptest.Server, id, player string) *websocket.Conn {
    t.Helper()
    u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/game/" + id + "/ws"
    hdr := http.Header{}
    hdr.Set("Cookie", "player_id="+player)
    conn, resp, err := websocket.DefaultDialer.Dial(u, hdr)
    if err != nil {
        t.Fatalf("dial: %v", err)
    }
    if resp.StatusCode != http.StatusSwitchingProtocols {
        t.Fatalf("expected 101, got %d", resp.StatusCode)
    }
    t.Cleanup(func() { conn.Close() })
    return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) wire.Event {
    t.Helper()
    _ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
    var ev wire.Event
    if err := conn.ReadJSON(&ev); err != nil {
        t.Fatalf("read event: %v", err)
    }
    return ev
}

func TestWebsocketStreamsStateAndAcceptsMoves(t *testing.T) {
    svc, h := newTestServer(t)
    id := seatPlayers(t, svc)
    srv := httptest.NewServer(h)
    defer srv.Close()

    black := dialGame(t, srv, id, "p1")
    ev := readEvent(t, black)
    if ev.Type != "state" || ev.State == nil || ev.State.CurrentTurn != "Black" || len(ev.Moves) != 4 {
        t.Fatalf("unexpected initial event: %+v", ev)
    }

    if err := black.WriteJSON(wsMessage{Type: "move", Row: 1, Col: 3}); err != nil {
        t.Fatalf("write move: %v", err)
    }
    ev = readEvent(t, black)
    if ev.Type != "state" || ev.State.BlackScore != 4 || ev.State.WhiteScore != 1 || ev.State.CurrentTurn != "White" {
        t.Fatalf("unexpected update: %+v", ev)
    }

    // Out of turn moves come back as errors to the sender only.
    if err := black.WriteJSON(wsMessage{Type: "move", Row: 0, Col: 0}); err != nil {
        t.Fatalf("write move: %v", err)
    }
    ev = readEvent(t, black)
    if ev.Type != "error" || ev.Error != "Not your turn" {
        t.Fatalf("expected not-your-turn error, got %+v", ev)
    }

    if err := black.WriteJSON(wsMessage{Type: "ping"}); err != nil {
        t.Fatalf("write ping: %v", err)
    }
    if ev = readEvent(t, black); ev.Type != "pong" {
        t.Fatalf("expected pong, got %+v", ev)
    }
}

func TestWebsocketSpectatorSeesMoves(t *testing.T) {
    svc, h := newTestServer(t)
    id := seatPlayers(t, svc)
    srv := httptest.NewServer(h)
    defer srv.Close()

    watcher := dialGame(t, srv, id, "p3")
    readEvent(t, watcher)

    // The watcher is subscribed once its initial state has arrived.
    if _, _, err := svc.Play(id, "p1", domain.Position{Row: 1, Col: 3}); err != nil {
        t.Fatalf("play: %v", err)
    }
    ev := readEvent(t, watcher)
    if ev.State == nil || ev.State.Board[1][3] == nil || *ev.State.Board[1][3] != "Black" {
        t.Fatalf("spectator missed the move: %+v", ev)
    }
}

func TestWebsocketUnknownGame(t *testing.T) {
    _, h := newTestServer(t)
    srv := httptest.NewServer(h)
    defer srv.Close()

    u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/game/nope/ws"
    _, resp, err := websocket.DefaultDialer.Dial(u, nil)
    if err == nil {
        t.Fatalf("expected dial failure")
    }
    if resp == nil || resp.StatusCode != http.StatusNotFound {
        t.Fatalf("expected 404 response, got %+v", resp)
    }
}
