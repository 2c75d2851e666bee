// reversi serves and plays 4x4 Reversi.
//
// Usage:
//
//	reversi serve             - Start the web host (HTML, JSON API, websocket)
//	reversi ssh               - Start the SSH terminal host
//	reversi play              - Play hot-seat in this terminal
//	reversi results           - Show recent finished games and the tally
//
// Global flags:
//
//	--config <path>     - YAML config file (default: ~/.reversi/config.yaml, then ./configs/reversi.yaml)
//	--db <path>         - Database path, overrides storage.db
//	--log-level <level> - debug, info, warn or error
package main

import (
    "fmt"
    "os"

    "github.com/spf13/cobra"

    "github.com/jaminalder/codex-reversi/internal/config"
    "github.com/jaminalder/codex-reversi/internal/storage"
)

var (
    flagConfig   string
    flagDBPath   string
    flagLogLevel string
)

func main() {
    if err := rootCmd.Execute(); err != nil {
        fmt.Fprintln(os.Stderr, err)
        os.Exit(1)
    }
}

var rootCmd = &cobra.Command{
    Use:   "reversi",
    Short: "Reversi on a 4x4 board",
    Long: `Reversi on a 4x4 board, played in the browser, over SSH or in this terminal.

Examples:
  reversi serve
  reversi ssh --config ./reversi.yaml
  reversi play
  reversi results --limit 20`,
    SilenceUsage: true,
}

func init() {
    rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to YAML config file")
    rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to database (overrides config)")
    rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (overrides config)")

    rootCmd.AddCommand(serveCmd)
    rootCmd.AddCommand(sshCmd)
    rootCmd.AddCommand(playCmd)
    rootCmd.AddCommand(resultsCmd)
}

// loadConfig loads the config file and applies the global flag overrides.
func loadConfig() (config.Config, error) {
    cfg, err := config.Load(flagConfig)
    if err != nil {
        return cfg, err
    }
    if flagDBPath != "" {
        cfg.Storage.DBPath = flagDBPath
    }
    if flagLogLevel != "" {
        cfg.Log.Level = flagLogLevel
    }
    return cfg, cfg.Validate()
}

// openStore opens the configured database, or returns nil when persistence is disabled.
func openStore(cfg config.Config) (*storage.Store, error) {
    if cfg.Storage.DBPath == "" {
        return nil, nil
    }
    return storage.Open(cfg.Storage.DBPath)
}
