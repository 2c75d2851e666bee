package main

import (
    "errors"
    "fmt"
    "os"

    tea "github.com/charmbracelet/bubbletea"
    "github.com/spf13/cobra"
    "golang.org/x/term"

    "github.com/jaminalder/codex-reversi/internal/tui"
)

// minimum terminal size for the board, status and short help
const (
    minPlayWidth  = 40
    minPlayHeight = 14
)

var playCmd = &cobra.Command{
    Use:   "play",
    Short: "Play hot-seat in this terminal",
    Long: `Play a game on this terminal, Black and White taking turns at the same keyboard.

Controls:
  Arrows/hjkl - Move cursor
  Enter/Space - Place a disc
  R           - New game
  ?           - More keys
  Q/Ctrl+C    - Quit

Finished games are recorded in the database.`,
    RunE: runPlay,
}

func runPlay(_ *cobra.Command, _ []string) error {
    fd := int(os.Stdout.Fd())
    if !term.IsTerminal(fd) {
        return errors.New("play needs an interactive terminal")
    }
    if w, h, err := term.GetSize(fd); err == nil && (w < minPlayWidth || h < minPlayHeight) {
        return fmt.Errorf("terminal is %dx%d, need at least %dx%d", w, h, minPlayWidth, minPlayHeight)
    }

    cfg, err := loadConfig()
    if err != nil {
        return err
    }
    logger := cfg.NewLogger("reversi")

    opts := []tui.Option{tui.WithLogger(logger)}
    store, err := openStore(cfg)
    if err != nil {
        fmt.Fprintf(os.Stderr, "Warning: could not open database: %v\n", err)
    }
    if store != nil {
        defer store.Close()
        opts = append(opts, tui.WithRecorder(store))
    }

    p := tea.NewProgram(tui.New(opts...), tea.WithAltScreen())
    if _, err := p.Run(); err != nil {
        return fmt.Errorf("error running game: %w", err)
    }
    return nil
}
