// Package storage provides SQLite-based persistence for games in progress and finished results.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "time"

    _ "modernc.org/sqlite" // Pure Go SQLite driver

    "github.com/jaminalder/codex-reversi/internal/domain"
    "github.com/jaminalder/codex-reversi/internal/wire"
)

// ErrNotFound is returned when a game row does not exist.
var ErrNotFound = errors.New("storage: not found")

// Store manages the SQLite database connection.
type Store struct {
    db *sql.DB
}

// GameRow is a persisted game, finished or not.
type GameRow struct {
    ID          string
    Version     int64 // a save only lands when it is newer than the stored row
    State       domain.State
    BlackPlayer string
    WhitePlayer string
    CreatedAt   time.Time
    UpdatedAt   time.Time
}

// Result is the outcome of a finished game.
type Result struct {
    ID         int64
    GameID     string
    BlackScore int
    WhiteScore int
    Winner     domain.Color // Empty on a tie
    CreatedAt  time.Time
}

// Tally counts finished games by outcome.
type Tally struct {
    BlackWins int
    WhiteWins int
    Ties      int
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
    if dbPath != "" && dbPath[0] == '~' {
        home, err := os.UserHomeDir()
        if err != nil {
            return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
        }
        dbPath = filepath.Join(home, dbPath[1:])
    }

    dir := filepath.Dir(dbPath)
    if err := os.MkdirAll(dir, 0o755); err != nil {
        return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
    }

    db, err := sql.Open("sqlite", dbPath)
    if err != nil {
        return nil, fmt.Errorf("storage: cannot open database: %w", err)
    }
    // SQLite serializes writers anyway; one connection avoids "database is locked".
    db.SetMaxOpenConns(1)

    if err := db.Ping(); err != nil {
        db.Close()
        return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
    }

    store := &Store{db: db}
    if err := store.migrate(); err != nil {
        db.Close()
        return nil, fmt.Errorf("storage: migration failed: %w", err)
    }
    return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
    schema := `
        CREATE TABLE IF NOT EXISTS games (
            id TEXT PRIMARY KEY,
            state TEXT NOT NULL,
            game_over INTEGER NOT NULL DEFAULT 0,
            black_player TEXT NOT NULL DEFAULT '',
            white_player TEXT NOT NULL DEFAULT '',
            version INTEGER NOT NULL DEFAULT 0,
            created_at INTEGER NOT NULL,
            updated_at INTEGER NOT NULL
        );
        CREATE INDEX IF NOT EXISTS idx_games_open ON games(game_over, updated_at);

        CREATE TABLE IF NOT EXISTS results (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            game_id TEXT NOT NULL,
            black_score INTEGER NOT NULL,
            white_score INTEGER NOT NULL,
            winner TEXT NOT NULL DEFAULT '',
            created_at INTEGER NOT NULL
        );
        CREATE INDEX IF NOT EXISTS idx_results_created ON results(created_at DESC);
    `
    _, err := s.db.Exec(schema)
    return err
}

// Close closes the database connection.
func (s *Store) Close() error {
    if s.db != nil {
        return s.db.Close()
    }
    return nil
}

// SaveGame inserts or replaces a game row. An existing row is only replaced by a higher
// Version, so saves that arrive out of order cannot roll a game back.
func (s *Store) SaveGame(ctx context.Context, g GameRow) error {
    state, err := wire.EncodeState(g.State)
    if err != nil {
        return fmt.Errorf("storage: cannot encode game %s: %w", g.ID, err)
    }
    now := time.Now()
    if g.CreatedAt.IsZero() {
        g.CreatedAt = now
    }
    if g.UpdatedAt.IsZero() {
        g.UpdatedAt = now
    }
    _, err = s.db.ExecContext(ctx,
        `INSERT INTO games (id, state, game_over, black_player, white_player, version, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET
            state = excluded.state,
            game_over = excluded.game_over,
            black_player = excluded.black_player,
            white_player = excluded.white_player,
            version = excluded.version,
            updated_at = excluded.updated_at
         WHERE excluded.version > games.version`,
        g.ID, string(state), boolInt(g.State.Over), g.BlackPlayer, g.WhitePlayer, g.Version,
        g.CreatedAt.UnixMilli(), g.UpdatedAt.UnixMilli(),
    )
    if err != nil {
        return fmt.Errorf("storage: cannot save game %s: %w", g.ID, err)
    }
    return nil
}

// LoadGame returns a single game row.
func (s *Store) LoadGame(ctx context.Context, id string) (GameRow, error) {
    row := s.db.QueryRowContext(ctx,
        `SELECT id, version, state, black_player, white_player, created_at, updated_at
         FROM games WHERE id = ?`, id)
    g, err := scanGame(row)
    if errors.Is(err, sql.ErrNoRows) {
        return GameRow{}, ErrNotFound
    }
    return g, err
}

// UnfinishedGames returns every game that has not reached a terminal state, oldest first.
func (s *Store) UnfinishedGames(ctx context.Context) ([]GameRow, error) {
    rows, err := s.db.QueryContext(ctx,
        `SELECT id, version, state, black_player, white_player, created_at, updated_at
         FROM games
         WHERE game_over = 0
         ORDER BY updated_at ASC`)
    if err != nil {
        return nil, fmt.Errorf("storage: cannot query games: %w", err)
    }
    defer rows.Close()

    var out []GameRow
    for rows.Next() {
        g, err := scanGame(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, g)
    }
    if err := rows.Err(); err != nil {
        return nil, fmt.Errorf("storage: row iteration error: %w", err)
    }
    return out, nil
}

// PurgeFinished removes every finished game row and returns how many went.
// Their outcomes live on in results.
func (s *Store) PurgeFinished(ctx context.Context) (int64, error) {
    res, err := s.db.ExecContext(ctx, "DELETE FROM games WHERE game_over = 1")
    if err != nil {
        return 0, fmt.Errorf("storage: cannot purge finished games: %w", err)
    }
    n, err := res.RowsAffected()
    if err != nil {
        return 0, fmt.Errorf("storage: cannot count purged games: %w", err)
    }
    return n, nil
}

// SaveResult records the outcome of a finished game.
// Returns the ID of the inserted record.
func (s *Store) SaveResult(ctx context.Context, r Result) (int64, error) {
    if r.CreatedAt.IsZero() {
        r.CreatedAt = time.Now()
    }
    winner, err := wire.ColorTag(r.Winner)
    if err != nil {
        winner = "" // tie
    }
    res, err := s.db.ExecContext(ctx,
        "INSERT INTO results (game_id, black_score, white_score, winner, created_at) VALUES (?, ?, ?, ?, ?)",
        r.GameID, r.BlackScore, r.WhiteScore, winner, r.CreatedAt.UnixMilli(),
    )
    if err != nil {
        return 0, fmt.Errorf("storage: cannot save result: %w", err)
    }
    id, err := res.LastInsertId()
    if err != nil {
        return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
    }
    return id, nil
}

// RecentResults returns the latest results, newest first.
func (s *Store) RecentResults(ctx context.Context, limit int) ([]Result, error) {
    if limit <= 0 {
        limit = 10
    }
    rows, err := s.db.QueryContext(ctx,
        `SELECT id, game_id, black_score, white_score, winner, created_at
         FROM results
         ORDER BY created_at DESC, id DESC
         LIMIT ?`, limit)
    if err != nil {
        return nil, fmt.Errorf("storage: cannot query results: %w", err)
    }
    defer rows.Close()

    var out []Result
    for rows.Next() {
        var r Result
        var winner string
        var created int64
        if err := rows.Scan(&r.ID, &r.GameID, &r.BlackScore, &r.WhiteScore, &winner, &created); err != nil {
            return nil, fmt.Errorf("storage: cannot scan row: %w", err)
        }
        r.Winner = colorFromTag(winner)
        r.CreatedAt = time.UnixMilli(created)
        out = append(out, r)
    }
    if err := rows.Err(); err != nil {
        return nil, fmt.Errorf("storage: row iteration error: %w", err)
    }
    return out, nil
}

// Tally counts all recorded results by winner.
func (s *Store) Tally(ctx context.Context) (Tally, error) {
    var t Tally
    rows, err := s.db.QueryContext(ctx, "SELECT winner, COUNT(*) FROM results GROUP BY winner")
    if err != nil {
        return t, fmt.Errorf("storage: cannot query tally: %w", err)
    }
    defer rows.Close()
    for rows.Next() {
        var winner string
        var n int
        if err := rows.Scan(&winner, &n); err != nil {
            return t, fmt.Errorf("storage: cannot scan row: %w", err)
        }
        switch colorFromTag(winner) {
        case domain.Black:
            t.BlackWins += n
        case domain.White:
            t.WhiteWins += n
        default:
            t.Ties += n
        }
    }
    if err := rows.Err(); err != nil {
        return t, fmt.Errorf("storage: row iteration error: %w", err)
    }
    return t, nil
}

type scanner interface {
    Scan(dest ...any) error
}

func scanGame(sc scanner) (GameRow, error) {
    var g GameRow
    var state string
    var created, updated int64
    if err := sc.Scan(&g.ID, &g.Version, &state, &g.BlackPlayer, &g.WhitePlayer, &created, &updated); err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return g, err
        }
        return g, fmt.Errorf("storage: cannot scan row: %w", err)
    }
    st, err := wire.DecodeState([]byte(state))
    if err != nil {
        return g, fmt.Errorf("storage: game %s: %w", g.ID, err)
    }
    g.State = st
    g.CreatedAt = time.UnixMilli(created)
    g.UpdatedAt = time.UnixMilli(updated)
    return g, nil
}

// colorFromTag maps a stored winner tag to a color; anything else is a tie.
func colorFromTag(tag string) domain.Color {
    c, err := wire.ParseColor(tag)
    if err != nil {
        return domain.Empty
    }
    return c
}

func boolInt(b bool) int {
    if b {
        return 1
    }
    return 0
}
