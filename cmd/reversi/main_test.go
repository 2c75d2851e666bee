package main

import (
    "bytes"
    "context"
    "path/filepath"
    "strings"
    "testing"

    "github.com/jaminalder/codex-reversi/internal/domain"
    "github.com/jaminalder/codex-reversi/internal/storage"
)

func TestResultsCommand(t *testing.T) {
    dbPath := filepath.Join(t.TempDir(), "reversi.db")
    store, err := storage.Open(dbPath)
    if err != nil {
        t.Fatalf("open: %v", err)
    }
    ctx := context.Background()
    for _, r := range []storage.Result{
        {GameID: "g1", BlackScore: 10, WhiteScore: 6, Winner: domain.Black},
        {GameID: "g2", BlackScore: 8, WhiteScore: 8, Winner: domain.Empty},
    } {
        if _, err := store.SaveResult(ctx, r); err != nil {
            t.Fatalf("save: %v", err)
        }
    }
    store.Close()

    var out bytes.Buffer
    rootCmd.SetOut(&out)
    rootCmd.SetArgs([]string{"results", "--db", dbPath, "--limit", "5"})
    if err := rootCmd.Execute(); err != nil {
        t.Fatalf("execute: %v", err)
    }
    got := out.String()
    for _, want := range []string{"10-6", "8-8", "Tie", "g1", "Black 1  White 0  Ties 1"} {
        if !strings.Contains(got, want) {
            t.Fatalf("output missing %q:\n%s", want, got)
        }
    }
}

func TestLoadConfigFlagOverrides(t *testing.T) {
    flagDBPath = filepath.Join(t.TempDir(), "x.db")
    flagLogLevel = "debug"
    t.Cleanup(func() { flagDBPath, flagLogLevel = "", "" })

    cfg, err := loadConfig()
    if err != nil {
        t.Fatalf("load: %v", err)
    }
    if cfg.Storage.DBPath != flagDBPath || cfg.Log.Level != "debug" {
        t.Fatalf("flags not applied: %+v", cfg)
    }

    flagLogLevel = "loud"
    if _, err := loadConfig(); err == nil {
        t.Fatalf("expected invalid log level to fail validation")
    }
}
