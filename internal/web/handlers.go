package web

import (
    "errors"
    "fmt"
    "io"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/charmbracelet/log"
    "github.com/go-chi/chi/v5"

    "github.com/jaminalder/codex-reversi/internal/app"
    "github.com/jaminalder/codex-reversi/internal/domain"
)

type handlers struct {
    svc       *app.Service
    tpl       *templates
    logger    *log.Logger
    heartbeat time.Duration
}

func (h *handlers) renderBoard(gr app.GameRecord, playerID, errMsg string) []byte {
    return renderTemplate(h.tpl.board, "", newBoardView(gr, playerID, errMsg))
}

func (h *handlers) writeBoard(w http.ResponseWriter, gr app.GameRecord, playerID, errMsg string) {
    w.Header().Set("Content-Type", "text/html; charset=utf-8")
    _, _ = w.Write(h.renderBoard(gr, playerID, errMsg))
}

func (h *handlers) index(w http.ResponseWriter, r *http.Request) {
    w.Header().Set("Content-Type", "text/html; charset=utf-8")
    w.WriteHeader(http.StatusOK)
    _, _ = w.Write(renderTemplate(h.tpl.index, "", nil))
}

func (h *handlers) create(w http.ResponseWriter, r *http.Request) {
    gr, err := h.svc.CreateGame()
    if err != nil {
        http.Error(w, errorMessage(err), statusFor(err))
        return
    }
    http.Redirect(w, r, "/game/"+gr.ID, http.StatusSeeOther)
}

func (h *handlers) view(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")
    // ensure cookie and auto-claim seat
    pid := ensurePlayerCookie(w, r)
    _, gr, err := h.svc.Join(id, pid)
    if err != nil {
        if errors.Is(err, app.ErrNotFound) {
            http.NotFound(w, r)
            return
        }
        http.Error(w, errorMessage(err), statusFor(err))
        return
    }
    data := newBoardView(*gr, pid, "")

    w.Header().Set("Content-Type", "text/html; charset=utf-8")
    w.WriteHeader(http.StatusOK)
    _, _ = w.Write(renderTemplate(h.tpl.game, "", data))
}

func (h *handlers) join(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")
    pid := ensurePlayerCookie(w, r)
    _, gr, err := h.svc.Join(id, pid)
    if err != nil {
        http.Error(w, errorMessage(err), statusFor(err))
        return
    }
    h.writeBoard(w, *gr, pid, "")
}

func (h *handlers) play(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")
    pid := ensurePlayerCookie(w, r)
    _ = r.ParseForm()
    ri, errR := strconv.Atoi(r.Form.Get("r"))
    ci, errC := strconv.Atoi(r.Form.Get("c"))
    var gr *app.GameRecord
    var err error
    if errR != nil || errC != nil {
        err = domain.ErrOutOfBounds
    } else {
        gr, _, err = h.svc.Play(id, pid, domain.Position{Row: ri, Col: ci})
    }
    var errMsg string
    if err != nil {
        if errors.Is(err, app.ErrNotFound) || errors.Is(err, app.ErrUnavailable) {
            http.Error(w, errorMessage(err), statusFor(err))
            return
        }
        errMsg = errorMessage(err)
        if gr, err = h.svc.Get(id); err != nil {
            http.Error(w, errorMessage(err), statusFor(err))
            return
        }
    }
    h.writeBoard(w, *gr, pid, errMsg)
}

func (h *handlers) restart(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")
    pid := ensurePlayerCookie(w, r)
    gr, err := h.svc.Restart(id, pid)
    errMsg := ""
    if errors.Is(err, app.ErrNotAPlayer) {
        errMsg = errorMessage(err)
        gr, err = h.svc.Get(id)
    }
    if err != nil {
        http.Error(w, errorMessage(err), statusFor(err))
        return
    }
    h.writeBoard(w, *gr, pid, errMsg)
}

func (h *handlers) events(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")
    pid := playerCookie(r)
    w.Header().Set("Content-Type", "text/event-stream")
    w.Header().Set("Cache-Control", "no-cache")
    w.Header().Set("X-Accel-Buffering", "no")
    // In tests or non-EventSource requests, just acknowledge headers and return
    if r.Header.Get("Accept") != "text/event-stream" {
        w.WriteHeader(http.StatusOK)
        return
    }
    flusher, ok := w.(http.Flusher)
    if !ok {
        w.WriteHeader(http.StatusOK)
        return
    }
    ctx := r.Context()
    ch, unsub, err := h.svc.Subscribe(ctx, id)
    if err != nil {
        http.Error(w, errorMessage(err), statusFor(err))
        return
    }
    defer unsub()
    ticker := time.NewTicker(h.heartbeat)
    defer ticker.Stop()
    // Initial flush of headers
    flusher.Flush()
    for {
        select {
        case <-ctx.Done():
            return
        case <-ticker.C:
            _, _ = io.WriteString(w, ": ping\n\n")
            flusher.Flush()
        case _, ok := <-ch:
            if !ok {
                return
            }
            // Payloads are shared by all viewers; the fragment is per viewer.
            gr, err := h.svc.Get(id)
            if err != nil {
                return
            }
            writeSSE(w, "board", h.renderBoard(*gr, pid, ""))
            flusher.Flush()
        }
    }
}

// writeSSE writes one event, prefixing every line of data as the SSE format requires.
func writeSSE(w io.Writer, event string, data []byte) {
    _, _ = fmt.Fprintf(w, "event: %s\n", event)
    for _, line := range strings.Split(string(data), "\n") {
        _, _ = fmt.Fprintf(w, "data: %s\n", line)
    }
    _, _ = io.WriteString(w, "\n")
}

// statusFor maps service and engine errors to HTTP status codes.
func statusFor(err error) int {
    switch {
    case errors.Is(err, app.ErrNotFound):
        return http.StatusNotFound
    case errors.Is(err, app.ErrNotYourTurn), errors.Is(err, app.ErrNotAPlayer):
        return http.StatusConflict
    case errors.Is(err, domain.ErrInvalidMove):
        return http.StatusUnprocessableEntity
    case errors.Is(err, app.ErrUnavailable):
        return http.StatusServiceUnavailable
    default:
        return http.StatusInternalServerError
    }
}

func errorMessage(err error) string {
    switch {
    case errors.Is(err, app.ErrNotFound):
        return "Game not found"
    case errors.Is(err, app.ErrNotYourTurn):
        return "Not your turn"
    case errors.Is(err, app.ErrNotAPlayer):
        return "You are a spectator"
    case errors.Is(err, app.ErrUnavailable):
        return "Game service unavailable"
    case errors.Is(err, domain.ErrOccupied):
        return "Cell is occupied"
    case errors.Is(err, domain.ErrOutOfBounds):
        return "Out of bounds"
    case errors.Is(err, domain.ErrGameOver):
        return "Game is over"
    case errors.Is(err, domain.ErrInvalidMove):
        return "Invalid move"
    default:
        return "Internal error"
    }
}
