package main

import (
    "errors"
    "fmt"

    "github.com/spf13/cobra"

    "github.com/jaminalder/codex-reversi/internal/domain"
)

var flagLimit int

var resultsCmd = &cobra.Command{
    Use:   "results",
    Short: "Show recent finished games",
    Long: `Display the most recent finished games and the win tally.

Examples:
  reversi results
  reversi results --limit 25`,
    RunE: runResults,
}

func init() {
    resultsCmd.Flags().IntVar(&flagLimit, "limit", 10, "Number of results to show")
}

func runResults(cmd *cobra.Command, _ []string) error {
    cfg, err := loadConfig()
    if err != nil {
        return err
    }
    store, err := openStore(cfg)
    if err != nil {
        return fmt.Errorf("opening database: %w", err)
    }
    if store == nil {
        return errors.New("no database configured")
    }
    defer store.Close()

    ctx := cmd.Context()
    results, err := store.RecentResults(ctx, flagLimit)
    if err != nil {
        return err
    }
    tally, err := store.Tally(ctx)
    if err != nil {
        return err
    }

    out := cmd.OutOrStdout()
    fmt.Fprintln(out, "Recent games")
    fmt.Fprintln(out)
    if len(results) == 0 {
        fmt.Fprintln(out, "No finished games yet.")
        fmt.Fprintln(out)
        fmt.Fprintln(out, "Play 'reversi play' to record the first one!")
        return nil
    }

    fmt.Fprintf(out, "  %-16s  %-7s  %-6s  %s\n", "Date", "Score", "Winner", "Game")
    fmt.Fprintf(out, "  %-16s  %-7s  %-6s  %s\n", "----", "-----", "------", "----")
    for _, r := range results {
        winner := "Tie"
        if r.Winner != domain.Empty {
            winner = r.Winner.String()
        }
        fmt.Fprintf(out, "  %-16s  %-7s  %-6s  %s\n",
            r.CreatedAt.Format("2006-01-02 15:04"),
            fmt.Sprintf("%d-%d", r.BlackScore, r.WhiteScore),
            winner,
            r.GameID,
        )
    }
    fmt.Fprintln(out)
    fmt.Fprintf(out, "Black %d  White %d  Ties %d\n", tally.BlackWins, tally.WhiteWins, tally.Ties)
    return nil
}
