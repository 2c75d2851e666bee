package web

import (
    "io"
    "net/http"
    "time"

    "github.com/charmbracelet/log"
    "github.com/go-chi/chi/v5"
    "github.com/go-chi/chi/v5/middleware"

    "github.com/jaminalder/codex-reversi/internal/app"
)

// Option configures the web server.
type Option func(*handlers)

// WithLogger sets the request and handler logger.
func WithLogger(l *log.Logger) Option {
    return func(h *handlers) {
        if l != nil {
            h.logger = l
        }
    }
}

// WithHeartbeat sets the idle ping interval for SSE and websocket streams.
func WithHeartbeat(d time.Duration) Option {
    return func(h *handlers) {
        if d > 0 {
            h.heartbeat = d
        }
    }
}

// NewServer wires routes and returns an http.Handler. It installs the service's
// broadcast renderer, so one service should back one server.
func NewServer(s *app.Service, opts ...Option) http.Handler {
    h := &handlers{
        svc:       s,
        tpl:       loadTemplates(),
        logger:    log.New(io.Discard),
        heartbeat: 15 * time.Second,
    }
    for _, opt := range opts {
        opt(h)
    }
    s.SetRenderer(stateEvent)

    r := chi.NewRouter()
    r.Use(middleware.RequestID)
    r.Use(middleware.RealIP)
    r.Use(requestLogger(h.logger))
    r.Use(middleware.Recoverer)

    r.Get("/", h.index)
    r.Post("/game", h.create)
    r.Route("/game/{id}", func(r chi.Router) {
        r.Get("/", h.view)
        r.Post("/join", h.join)
        r.Post("/play", h.play)
        r.Post("/restart", h.restart)
        r.Get("/events", h.events)
        r.Get("/ws", h.ws)
    })
    r.Route("/api/games", func(r chi.Router) {
        r.Post("/", h.apiCreate)
        r.Route("/{id}", func(r chi.Router) {
            r.Get("/", h.apiGet)
            r.Post("/join", h.apiJoin)
            r.Get("/moves", h.apiMoves)
            r.Post("/moves", h.apiPlay)
            r.Post("/restart", h.apiRestart)
        })
    })
    return r
}

// requestLogger logs one line per request at debug level, and server errors at error level.
func requestLogger(l *log.Logger) func(http.Handler) http.Handler {
    return func(next http.Handler) http.Handler {
        return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
            ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
            start := time.Now()
            next.ServeHTTP(ww, r)
            kv := []any{
                "method", r.Method,
                "path", r.URL.Path,
                "status", ww.Status(),
                "bytes", ww.BytesWritten(),
                "dur", time.Since(start),
                "req", middleware.GetReqID(r.Context()),
            }
            if ww.Status() >= http.StatusInternalServerError {
                l.Error("request", kv...)
                return
            }
            l.Debug("request", kv...)
        })
    }
}
