package main

import (
    "fmt"
    "net"
    "os/signal"
    "syscall"

    "github.com/spf13/cobra"

    "github.com/jaminalder/codex-reversi/internal/tui"
)

var (
    flagSSHAddr string
    flagHostKey string
)

var sshCmd = &cobra.Command{
    Use:   "ssh",
    Short: "Start the SSH terminal host",
    Long: `Start an SSH server. Each connection gets its own hot-seat board.
Finished games are recorded in the database.

Host key handling:
  - If --host-key (or ssh.host_key) is set, uses that key file
  - Otherwise, auto-generates a key at ~/.reversi/host_key

Users can connect with:
  ssh localhost -p 23235`,
    RunE: runSSH,
}

func init() {
    sshCmd.Flags().StringVar(&flagSSHAddr, "addr", "", "SSH listen address (overrides config)")
    sshCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (overrides config)")
}

func runSSH(cmd *cobra.Command, _ []string) error {
    cfg, err := loadConfig()
    if err != nil {
        return err
    }
    if flagSSHAddr != "" {
        cfg.SSH.Addr = flagSSHAddr
    }
    if flagHostKey != "" {
        cfg.SSH.HostKeyPath = flagHostKey
    }
    logger := cfg.NewLogger("reversi-ssh")

    var recorder tui.ResultRecorder
    store, err := openStore(cfg)
    if err != nil {
        logger.Warn("could not open database, results will not be recorded", "error", err)
    }
    if store != nil {
        defer store.Close()
        recorder = store
    }

    server, err := tui.NewSSHServer(cfg.SSH, recorder, logger)
    if err != nil {
        return err
    }
    ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
    defer stop()
    fmt.Fprintf(cmd.OutOrStdout(), "Connect with: ssh localhost -p %s\n", portOf(server.Addr()))
    return server.ListenAndServe(ctx)
}

func portOf(addr string) string {
    if _, port, err := net.SplitHostPort(addr); err == nil {
        return port
    }
    return addr
}
