package app

import (
    "context"
    "errors"
    "io"
    "sync"
    "time"

    "github.com/charmbracelet/log"
    "github.com/google/uuid"

    "github.com/jaminalder/codex-reversi/internal/domain"
    "github.com/jaminalder/codex-reversi/internal/storage"
)

// Errors exposed by the service layer.
var (
    ErrNotFound    = errors.New("game not found")
    ErrNotYourTurn = errors.New("not your turn")
    ErrNotAPlayer  = errors.New("not a player")
    ErrUnavailable = errors.New("game service unavailable")
)

// Store is the persistence the service writes through to. *storage.Store satisfies it.
type Store interface {
    SaveGame(ctx context.Context, g storage.GameRow) error
    LoadGame(ctx context.Context, id string) (storage.GameRow, error)
    UnfinishedGames(ctx context.Context) ([]storage.GameRow, error)
    PurgeFinished(ctx context.Context) (int64, error)
    SaveResult(ctx context.Context, r storage.Result) (int64, error)
}

const (
    storeTimeout = 2 * time.Second
    // subscriberBuffer is how many frames a subscriber may lag before it is dropped.
    subscriberBuffer = 8
)

// GameRecord is the in-memory state tracked per game.
type GameRecord struct {
    ID      string
    Game    domain.Game
    Black   string
    White   string
    Version int64 // bumped on every change
    Created time.Time
    Updated time.Time
}

// Seat returns the color held by playerID, or Empty for spectators.
func (g GameRecord) Seat(playerID string) domain.Color {
    switch {
    case playerID == "":
        return domain.Empty
    case g.Black == playerID:
        return domain.Black
    case g.White == playerID:
        return domain.White
    default:
        return domain.Empty
    }
}

func (g GameRecord) row() storage.GameRow {
    return storage.GameRow{
        ID:          g.ID,
        Version:     g.Version,
        State:       g.Game.State(),
        BlackPlayer: g.Black,
        WhitePlayer: g.White,
        CreatedAt:   g.Created,
        UpdatedAt:   g.Updated,
    }
}

func recordFromRow(row storage.GameRow, g domain.Game) *GameRecord {
    return &GameRecord{
        ID:      row.ID,
        Game:    g,
        Black:   row.BlackPlayer,
        White:   row.WhitePlayer,
        Version: row.Version,
        Created: row.CreatedAt,
        Updated: row.UpdatedAt,
    }
}

// MoveOutcome describes what a successful placement did.
type MoveOutcome struct {
    Mover    domain.Color
    Captured []domain.Position
    Passed   bool // the opponent had no reply and the mover plays again
}

type subscriber struct {
    ch        chan []byte
    closeOnce sync.Once
}

func (s *subscriber) close() { s.closeOnce.Do(func() { close(s.ch) }) }

// pending is store work decided under mu and carried out after it is released.
type pending struct {
    game   *storage.GameRow
    result *storage.Result
}

// Service manages games and subscribers. Every engine call, every render and every
// fan-out happens under mu, so subscribers see frames in the order changes were made.
// Store I/O happens outside mu.
type Service struct {
    mu     sync.Mutex
    closed bool
    games  map[string]*GameRecord
    subs   map[string]map[*subscriber]struct{}
    render func(GameRecord) []byte
    store  Store
    logger *log.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithRenderer sets the broadcast payload renderer.
func WithRenderer(renderer func(GameRecord) []byte) Option {
    return func(s *Service) {
        if renderer != nil {
            s.render = renderer
        }
    }
}

// WithStore enables write-through persistence.
func WithStore(st Store) Option {
    return func(s *Service) { s.store = st }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
    return func(s *Service) {
        if l != nil {
            s.logger = l
        }
    }
}

// NewService creates a service. Without options it keeps games in memory only and
// broadcasts empty payloads.
func NewService(opts ...Option) *Service {
    s := &Service{
        games:  make(map[string]*GameRecord),
        subs:   make(map[string]map[*subscriber]struct{}),
        render: func(GameRecord) []byte { return nil },
        logger: log.New(io.Discard),
    }
    for _, opt := range opts {
        opt(s)
    }
    return s
}

// SetRenderer replaces the broadcast renderer function.
func (s *Service) SetRenderer(renderer func(GameRecord) []byte) {
    s.mu.Lock()
    defer s.mu.Unlock()
    if renderer == nil {
        s.render = func(GameRecord) []byte { return nil }
        return
    }
    s.render = renderer
}

// Load drops finished games from the store and restores the unfinished ones.
// It is a no-op without a store.
func (s *Service) Load(ctx context.Context) (int, error) {
    if s.store == nil {
        return 0, nil
    }
    purged, err := s.store.PurgeFinished(ctx)
    if err != nil {
        return 0, err
    }
    rows, err := s.store.UnfinishedGames(ctx)
    if err != nil {
        return 0, err
    }
    s.mu.Lock()
    defer s.mu.Unlock()
    if s.closed {
        return 0, ErrUnavailable
    }
    n := 0
    for _, row := range rows {
        g, err := domain.Restore(row.State)
        if err != nil {
            s.logger.Warn("skipping stored game", "game", row.ID, "error", err)
            continue
        }
        s.games[row.ID] = recordFromRow(row, g)
        n++
    }
    s.logger.Info("restored games", "count", n, "purged", purged)
    return n, nil
}

// Close marks the service unavailable and disconnects all subscribers.
func (s *Service) Close() {
    s.mu.Lock()
    defer s.mu.Unlock()
    if s.closed {
        return
    }
    s.closed = true
    for id, set := range s.subs {
        for sub := range set {
            sub.close()
        }
        delete(s.subs, id)
    }
}

// CreateGame creates and registers a new game.
func (s *Service) CreateGame() (*GameRecord, error) {
    s.mu.Lock()
    if s.closed {
        s.mu.Unlock()
        return nil, ErrUnavailable
    }
    id := uuid.NewString()
    now := time.Now()
    gr := &GameRecord{ID: id, Game: domain.New(), Created: now}
    s.games[id] = gr
    work := pending{game: s.changedLocked(gr)}
    s.logger.Info("game created", "game", id)
    cp := *gr
    s.mu.Unlock()

    s.flush(work)
    return &cp, nil
}

// Get returns a copy of the game if present.
func (s *Service) Get(id string) (*GameRecord, error) {
    s.hydrate(id)
    s.mu.Lock()
    defer s.mu.Unlock()
    gr, err := s.lookupLocked(id)
    if err != nil {
        return nil, err
    }
    cp := *gr
    return &cp, nil
}

// LegalMoves returns the current player's legal moves.
func (s *Service) LegalMoves(id string) ([]domain.Position, error) {
    s.hydrate(id)
    s.mu.Lock()
    defer s.mu.Unlock()
    gr, err := s.lookupLocked(id)
    if err != nil {
        return nil, err
    }
    return gr.Game.LegalMoves(), nil
}

// Join assigns a seat to the player if available; returns Empty for spectators.
func (s *Service) Join(id, playerID string) (domain.Color, *GameRecord, error) {
    s.hydrate(id)
    s.mu.Lock()
    gr, err := s.lookupLocked(id)
    if err != nil {
        s.mu.Unlock()
        return domain.Empty, nil, err
    }
    var work pending
    side := gr.Seat(playerID)
    if side == domain.Empty && playerID != "" {
        if gr.Black == "" {
            gr.Black = playerID
            side = domain.Black
        } else if gr.White == "" {
            gr.White = playerID
            side = domain.White
        }
        if side != domain.Empty {
            work.game = s.changedLocked(gr)
            s.logger.Debug("seat claimed", "game", id, "player", playerID, "color", side)
        }
    }
    cp := *gr
    s.mu.Unlock()

    s.flush(work)
    return side, &cp, nil
}

// Play validates seat and turn, applies a move, broadcasts, and persists.
func (s *Service) Play(id, playerID string, p domain.Position) (*GameRecord, MoveOutcome, error) {
    var out MoveOutcome

    s.hydrate(id)
    s.mu.Lock()
    gr, err := s.lookupLocked(id)
    if err != nil {
        s.mu.Unlock()
        return nil, out, err
    }
    seat := gr.Seat(playerID)
    if seat == domain.Empty {
        s.mu.Unlock()
        return nil, out, ErrNotAPlayer
    }
    if seat != gr.Game.Turn() && !gr.Game.Over() {
        s.mu.Unlock()
        return nil, out, ErrNotYourTurn
    }
    out.Mover = seat
    out.Captured = gr.Game.Captures(p)
    if err := gr.Game.Place(p); err != nil {
        s.mu.Unlock()
        return nil, MoveOutcome{}, err
    }
    out.Passed = !gr.Game.Over() && gr.Game.Turn() == seat
    work := pending{game: s.changedLocked(gr)}
    if out.Passed {
        s.logger.Info("forced pass", "game", id, "passed", seat.Opposite())
    }
    if gr.Game.Over() {
        work.result = s.resultLocked(gr)
    }
    s.broadcastLocked(gr)
    cp := *gr
    s.mu.Unlock()

    s.flush(work)
    return &cp, out, nil
}

// Restart re-initializes a game in place, keeping its seats and subscribers.
// Only a seated player may restart.
func (s *Service) Restart(id, playerID string) (*GameRecord, error) {
    s.hydrate(id)
    s.mu.Lock()
    gr, err := s.lookupLocked(id)
    if err != nil {
        s.mu.Unlock()
        return nil, err
    }
    if gr.Seat(playerID) == domain.Empty {
        s.mu.Unlock()
        return nil, ErrNotAPlayer
    }
    gr.Game = domain.New()
    work := pending{game: s.changedLocked(gr)}
    s.logger.Info("game restarted", "game", id, "player", playerID)
    s.broadcastLocked(gr)
    cp := *gr
    s.mu.Unlock()

    s.flush(work)
    return &cp, nil
}

// Subscribe registers a subscriber for a game. Returns a channel and an unsubscribe func.
// The channel is closed on unsubscribe, on ctx cancellation, when the subscriber falls
// behind, or when the service closes.
func (s *Service) Subscribe(ctx context.Context, id string) (<-chan []byte, func(), error) {
    _, ch, unsub, err := s.Watch(ctx, id)
    return ch, unsub, err
}

// Watch is Subscribe plus a snapshot of the game taken at the moment of subscribing:
// every change after the snapshot arrives on the channel, and none before it.
func (s *Service) Watch(ctx context.Context, id string) (*GameRecord, <-chan []byte, func(), error) {
    s.hydrate(id)
    s.mu.Lock()
    defer s.mu.Unlock()
    gr, err := s.lookupLocked(id)
    if err != nil {
        return nil, nil, nil, err
    }
    set := s.subs[id]
    if set == nil {
        set = make(map[*subscriber]struct{})
        s.subs[id] = set
    }
    sub := &subscriber{ch: make(chan []byte, subscriberBuffer)}
    set[sub] = struct{}{}

    unsubOnce := &sync.Once{}
    unsub := func() {
        unsubOnce.Do(func() {
            s.mu.Lock()
            if set, ok := s.subs[id]; ok {
                delete(set, sub)
            }
            sub.close()
            s.mu.Unlock()
        })
    }
    go func() {
        <-ctx.Done()
        unsub()
    }()
    cp := *gr
    return &cp, sub.ch, unsub, nil
}

func (s *Service) lookupLocked(id string) (*GameRecord, error) {
    if s.closed {
        return nil, ErrUnavailable
    }
    gr, ok := s.games[id]
    if !ok {
        return nil, ErrNotFound
    }
    return gr, nil
}

// hydrate pulls a game this process has not seen yet from the store, such as one
// written by another process sharing the database.
func (s *Service) hydrate(id string) {
    if s.store == nil || id == "" {
        return
    }
    s.mu.Lock()
    _, known := s.games[id]
    closed := s.closed
    s.mu.Unlock()
    if known || closed {
        return
    }

    ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
    defer cancel()
    row, err := s.store.LoadGame(ctx, id)
    if err != nil {
        if !errors.Is(err, storage.ErrNotFound) {
            s.logger.Warn("load game", "game", id, "error", err)
        }
        return
    }
    g, err := domain.Restore(row.State)
    if err != nil {
        s.logger.Warn("skipping stored game", "game", id, "error", err)
        return
    }
    s.mu.Lock()
    defer s.mu.Unlock()
    if _, ok := s.games[id]; !ok && !s.closed {
        s.games[id] = recordFromRow(row, g)
        s.logger.Debug("game loaded", "game", id)
    }
}

// changedLocked stamps a change to gr and returns the row to save once mu is released.
func (s *Service) changedLocked(gr *GameRecord) *storage.GameRow {
    gr.Version++
    gr.Updated = time.Now()
    if s.store == nil {
        return nil
    }
    row := gr.row()
    return &row
}

func (s *Service) resultLocked(gr *GameRecord) *storage.Result {
    black, white := gr.Game.Scores()
    winner := gr.Game.Winner()
    s.logger.Info("game over", "game", gr.ID, "black", black, "white", white, "winner", winnerLabel(winner))
    if s.store == nil {
        return nil
    }
    return &storage.Result{
        GameID:     gr.ID,
        BlackScore: black,
        WhiteScore: white,
        Winner:     winner,
    }
}

// broadcastLocked renders gr and fans it out. A subscriber whose buffer is full is dropped.
func (s *Service) broadcastLocked(gr *GameRecord) {
    set := s.subs[gr.ID]
    if len(set) == 0 {
        return
    }
    payload := s.render(*gr)
    dropped := 0
    for sub := range set {
        select {
        case sub.ch <- payload:
        default:
            // drop slow subscriber
            sub.close()
            delete(set, sub)
            dropped++
        }
    }
    if dropped > 0 {
        s.logger.Debug("dropped slow subscribers", "game", gr.ID, "count", dropped)
    }
}

// flush writes through to the store. Failures are logged, not returned: the in-memory
// game stays authoritative, and row versions keep a late write from undoing a newer one.
func (s *Service) flush(work pending) {
    if s.store == nil {
        return
    }
    ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
    defer cancel()
    if work.game != nil {
        if err := s.store.SaveGame(ctx, *work.game); err != nil {
            s.logger.Error("persist game", "game", work.game.ID, "error", err)
        }
    }
    if work.result != nil {
        if _, err := s.store.SaveResult(ctx, *work.result); err != nil {
            s.logger.Error("record result", "game", work.result.GameID, "error", err)
        }
    }
}

func winnerLabel(c domain.Color) string {
    if c == domain.Empty {
        return "tie"
    }
    return c.String()
}
