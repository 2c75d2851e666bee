package main

import (
    "context"
    "errors"
    "fmt"
    "net/http"
    "os/signal"
    "syscall"
    "time"

    "github.com/spf13/cobra"

    "github.com/jaminalder/codex-reversi/internal/app"
    "github.com/jaminalder/codex-reversi/internal/web"
)

var flagHTTPAddr string

var serveCmd = &cobra.Command{
    Use:   "serve",
    Short: "Start the web host",
    Long: `Start the HTTP server: the htmx board at /, the JSON API under /api/games
and a websocket feed at /game/{id}/ws.

Unfinished games are reloaded from the database on start.

Examples:
  reversi serve
  reversi serve --addr :9090
  reversi serve --db ./reversi.db`,
    RunE: runServe,
}

func init() {
    serveCmd.Flags().StringVar(&flagHTTPAddr, "addr", "", "HTTP listen address (overrides config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
    cfg, err := loadConfig()
    if err != nil {
        return err
    }
    if flagHTTPAddr != "" {
        cfg.HTTP.Addr = flagHTTPAddr
    }
    logger := cfg.NewLogger("reversi-web")

    opts := []app.Option{app.WithLogger(logger)}
    store, err := openStore(cfg)
    if err != nil {
        logger.Warn("could not open database, games will not persist", "error", err)
    }
    if store != nil {
        defer store.Close()
        opts = append(opts, app.WithStore(store))
    }
    svc := app.NewService(opts...)

    ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
    defer stop()

    if n, err := svc.Load(ctx); err != nil {
        logger.Warn("could not reload games", "error", err)
    } else if n > 0 {
        logger.Info("reloaded unfinished games", "count", n)
    }

    srv := &http.Server{
        Addr:              cfg.HTTP.Addr,
        Handler:           web.NewServer(svc, web.WithLogger(logger), web.WithHeartbeat(cfg.HTTP.Heartbeat)),
        ReadHeaderTimeout: 10 * time.Second,
    }
    errc := make(chan error, 1)
    go func() {
        logger.Info("listening", "addr", cfg.HTTP.Addr)
        if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
            errc <- err
        }
        close(errc)
    }()

    select {
    case err := <-errc:
        if err != nil {
            return fmt.Errorf("http server: %w", err)
        }
        return nil
    case <-ctx.Done():
    }

    logger.Info("shutting down")
    // closing the service ends SSE and websocket streams so Shutdown can finish
    svc.Close()
    shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    return srv.Shutdown(shutdownCtx)
}
