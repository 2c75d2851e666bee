package tui

import (
    "context"
    "errors"
    "fmt"
    "io"
    "os"
    "path/filepath"
    "time"

    tea "github.com/charmbracelet/bubbletea"
    "github.com/charmbracelet/log"
    "github.com/charmbracelet/ssh"
    "github.com/charmbracelet/wish"
    "github.com/charmbracelet/wish/bubbletea"

    "github.com/jaminalder/codex-reversi/internal/config"
)

// SSHServer serves one hot-seat game per SSH session.
type SSHServer struct {
    addr     string
    server   *ssh.Server
    recorder ResultRecorder
    logger   *log.Logger
}

// NewSSHServer creates the server. recorder may be nil. An empty host key path
// resolves to ~/.reversi/host_key, generated on first start.
func NewSSHServer(cfg config.SSHConfig, recorder ResultRecorder, logger *log.Logger) (*SSHServer, error) {
    if logger == nil {
        logger = log.New(io.Discard)
    }
    srv := &SSHServer{
        addr:     cfg.Addr,
        recorder: recorder,
        logger:   logger,
    }

    hostKeyPath := cfg.HostKeyPath
    if hostKeyPath == "" {
        home, err := os.UserHomeDir()
        if err != nil {
            return nil, fmt.Errorf("cannot get home directory: %w", err)
        }
        hostKeyPath = filepath.Join(home, ".reversi", "host_key")
    }
    if err := os.MkdirAll(filepath.Dir(hostKeyPath), 0o700); err != nil {
        return nil, fmt.Errorf("cannot create host key directory: %w", err)
    }

    server, err := wish.NewServer(
        wish.WithAddress(cfg.Addr),
        wish.WithHostKeyPath(hostKeyPath),
        wish.WithIdleTimeout(cfg.IdleTimeout),
        wish.WithMiddleware(
            bubbletea.Middleware(srv.teaHandler),
            srv.loggingMiddleware,
        ),
    )
    if err != nil {
        return nil, fmt.Errorf("cannot create SSH server: %w", err)
    }
    srv.server = server
    return srv, nil
}

// teaHandler creates a fresh game for each session.
func (s *SSHServer) teaHandler(sess ssh.Session) (tea.Model, []tea.ProgramOption) {
    pty, _, ok := sess.Pty()
    if !ok {
        s.logger.Warn("no PTY requested", "user", sess.User())
        return nil, nil
    }
    m := New(
        WithRecorder(s.recorder),
        WithLogger(s.logger.With("user", sess.User())),
    )
    m.width = pty.Window.Width
    m.height = pty.Window.Height
    m.help.Width = pty.Window.Width
    return m, []tea.ProgramOption{tea.WithAltScreen()}
}

func (s *SSHServer) loggingMiddleware(next ssh.Handler) ssh.Handler {
    return func(sess ssh.Session) {
        start := time.Now()
        s.logger.Info("session started", "user", sess.User(), "remote", sess.RemoteAddr().String())
        next(sess)
        s.logger.Info("session ended",
            "user", sess.User(),
            "remote", sess.RemoteAddr().String(),
            "dur", time.Since(start).Round(time.Second),
        )
    }
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *SSHServer) ListenAndServe(ctx context.Context) error {
    s.logger.Info("starting SSH server", "address", s.addr)
    errc := make(chan error, 1)
    go func() {
        if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
            errc <- err
        }
        close(errc)
    }()

    select {
    case err := <-errc:
        return err
    case <-ctx.Done():
    }
    s.logger.Info("shutting down SSH server")
    shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    return s.server.Shutdown(shutdownCtx)
}

// Addr returns the configured listen address.
func (s *SSHServer) Addr() string {
    return s.addr
}
