package domain

import (
    "errors"
    "testing"
)

// helper to build a snapshot from a compact board picture ('B', 'W', '.')
func stateFrom(t *testing.T, rows [Size]string, turn Color) State {
    t.Helper()
    var s State
    for r, row := range rows {
        if len(row) != Size {
            t.Fatalf("row %d has %d cells", r, len(row))
        }
        for c, ch := range row {
            switch ch {
            case 'B':
                s.Board[r][c] = Black
                s.BlackScore++
            case 'W':
                s.Board[r][c] = White
                s.WhiteScore++
            }
        }
    }
    s.Turn = turn
    return s
}

func gameFrom(t *testing.T, rows [Size]string, turn Color) Game {
    t.Helper()
    g, err := Restore(stateFrom(t, rows, turn))
    if err != nil {
        t.Fatalf("restore failed: %v", err)
    }
    return g
}

func countDiscs(b Board) int {
    n := 0
    for r := range b {
        for _, c := range b[r] {
            if c != Empty {
                n++
            }
        }
    }
    return n
}

func TestNewGameInitialState(t *testing.T) {
    g := New()
    s := g.State()
    if s.Turn != Black {
        t.Fatalf("expected initial turn Black, got %v", s.Turn)
    }
    if s.Over {
        t.Fatalf("expected game not over")
    }
    if s.BlackScore != 2 || s.WhiteScore != 2 {
        t.Fatalf("expected 2/2, got %d/%d", s.BlackScore, s.WhiteScore)
    }
    want := map[Position]Color{
        {1, 1}: Black, {2, 2}: Black,
        {1, 2}: White, {2, 1}: White,
    }
    for r := 0; r < Size; r++ {
        for c := 0; c < Size; c++ {
            p := Position{r, c}
            if got := s.Board[r][c]; got != want[p] {
                t.Fatalf("cell %v = %v, want %v", p, got, want[p])
            }
        }
    }
}

func TestOpposite(t *testing.T) {
    for _, c := range []Color{Black, White} {
        if c.Opposite() == c {
            t.Fatalf("opposite of %v is itself", c)
        }
        if c.Opposite().Opposite() != c {
            t.Fatalf("opposite is not involutive for %v", c)
        }
    }
    if Empty.Opposite() != Empty {
        t.Fatalf("expected Empty to stay Empty")
    }
}

func TestInitialLegalMoves(t *testing.T) {
    g := New()
    got := g.LegalMoves()
    want := []Position{{0, 2}, {1, 3}, {2, 0}, {3, 1}}
    if len(got) != len(want) {
        t.Fatalf("expected %d moves, got %v", len(want), got)
    }
    for i := range want {
        if got[i] != want[i] {
            t.Fatalf("move %d = %v, want %v (all: %v)", i, got[i], want[i], got)
        }
    }
}

func TestIsLegalMoveToleratesOutOfRange(t *testing.T) {
    g := New()
    cases := []Position{{-1, 0}, {0, -1}, {4, 0}, {0, 4}, {9, 9}}
    for _, p := range cases {
        if g.IsLegalMove(p) {
            t.Fatalf("expected %v to be illegal", p)
        }
    }
    if g.IsLegalMove(Position{1, 1}) {
        t.Fatalf("occupied cell reported legal")
    }
    if g.IsLegalMove(Position{0, 0}) {
        t.Fatalf("non-capturing cell reported legal")
    }
}

func TestPlaceFlipsAndAdvancesTurn(t *testing.T) {
    g := New()
    if err := g.Place(Position{1, 3}); err != nil {
        t.Fatalf("place failed: %v", err)
    }
    s := g.State()
    if s.Board[1][3] != Black || s.Board[1][2] != Black {
        t.Fatalf("expected (1,3) and (1,2) Black, got %v and %v", s.Board[1][3], s.Board[1][2])
    }
    if s.BlackScore != 4 || s.WhiteScore != 1 {
        t.Fatalf("expected 4/1, got %d/%d", s.BlackScore, s.WhiteScore)
    }
    if s.Turn != White {
        t.Fatalf("expected White to move, got %v", s.Turn)
    }
}

func TestPlaceInvalidLeavesStateUnchanged(t *testing.T) {
    cases := []struct {
        p   Position
        err error
    }{
        {Position{1, 1}, ErrOccupied},
        {Position{4, 0}, ErrOutOfBounds},
        {Position{-1, 2}, ErrOutOfBounds},
        {Position{0, 0}, ErrNoCapture},
    }
    for _, tc := range cases {
        g := New()
        before := g.State()
        // twice: failure must be idempotent
        for i := 0; i < 2; i++ {
            err := g.Place(tc.p)
            if !errors.Is(err, tc.err) || !errors.Is(err, ErrInvalidMove) {
                t.Fatalf("place %v attempt %d: expected %v, got %v", tc.p, i, tc.err, err)
            }
            if g.State() != before {
                t.Fatalf("state changed after failed place at %v", tc.p)
            }
        }
    }
}

func TestFlipsInSeveralDirectionsIndependently(t *testing.T) {
    g := gameFrom(t, [Size]string{
        "B.B.",
        "WW..",
        ".W..",
        "..B.",
    }, Black)
    // (2,0): up crosses (1,0) to (0,0); up-right crosses (1,1) to (0,2); right crosses (2,1) and hits empty.
    want := []Position{{1, 0}, {1, 1}}
    got := g.Captures(Position{2, 0})
    if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
        t.Fatalf("captures = %v, want %v", got, want)
    }
    if err := g.Place(Position{2, 0}); err != nil {
        t.Fatalf("place failed: %v", err)
    }
    s := g.State()
    if s.Board[1][0] != Black || s.Board[1][1] != Black {
        t.Fatalf("expected bracketed discs flipped: %v", s.Board)
    }
    if s.Board[2][1] != White {
        t.Fatalf("unbracketed run must not flip, got %v", s.Board[2][1])
    }
    if s.BlackScore != 6 || s.WhiteScore != 1 {
        t.Fatalf("expected 6/1, got %d/%d", s.BlackScore, s.WhiteScore)
    }
}

func TestForcedPassReturnsTurnToMover(t *testing.T) {
    g := gameFrom(t, [Size]string{
        "BWW.",
        "....",
        "....",
        "BW..",
    }, Black)
    if err := g.Place(Position{0, 3}); err != nil {
        t.Fatalf("place failed: %v", err)
    }
    if g.Over() {
        t.Fatalf("expected game to continue")
    }
    if g.Turn() != Black {
        t.Fatalf("expected White to pass and Black to move again, got %v", g.Turn())
    }
    if moves := g.LegalMoves(); len(moves) != 1 || moves[0] != (Position{3, 2}) {
        t.Fatalf("expected Black's only move (3,2), got %v", moves)
    }
}

func TestDoublePassEndsGame(t *testing.T) {
    g := gameFrom(t, [Size]string{
        "BWW.",
        "....",
        "....",
        "....",
    }, Black)
    if err := g.Place(Position{0, 3}); err != nil {
        t.Fatalf("place failed: %v", err)
    }
    if !g.Over() {
        t.Fatalf("expected game over")
    }
    if g.Turn() != Black {
        t.Fatalf("expected mover to stay current, got %v", g.Turn())
    }
    if g.Winner() != Black {
        t.Fatalf("expected Black to win, got %v", g.Winner())
    }
}

func TestGameOverBlocksFurtherMoves(t *testing.T) {
    g := gameFrom(t, [Size]string{
        "BWW.",
        "....",
        "....",
        "....",
    }, Black)
    if err := g.Place(Position{0, 3}); err != nil {
        t.Fatalf("place failed: %v", err)
    }
    before := g.State()
    for r := -1; r <= Size; r++ {
        for c := -1; c <= Size; c++ {
            if err := g.Place(Position{r, c}); !errors.Is(err, ErrGameOver) {
                t.Fatalf("expected ErrGameOver at (%d,%d), got %v", r, c, err)
            }
        }
    }
    if g.State() != before {
        t.Fatalf("terminal state changed")
    }
}

func TestScoreInvariantOverFullGame(t *testing.T) {
    g := New()
    for step := 0; !g.Over(); step++ {
        if step > Size*Size {
            t.Fatalf("game did not terminate")
        }
        moves := g.LegalMoves()
        if len(moves) == 0 {
            t.Fatalf("no legal moves for %v in a live game", g.Turn())
        }
        // alternate between first and last move to vary the line
        m := moves[0]
        if step%2 == 1 {
            m = moves[len(moves)-1]
        }
        if err := g.Place(m); err != nil {
            t.Fatalf("step %d place %v: %v", step, m, err)
        }
        s := g.State()
        if s.BlackScore+s.WhiteScore != countDiscs(s.Board) {
            t.Fatalf("step %d: scores %d+%d != discs %d", step, s.BlackScore, s.WhiteScore, countDiscs(s.Board))
        }
        if s.Turn != Black && s.Turn != White {
            t.Fatalf("step %d: undefined turn %v", step, s.Turn)
        }
    }
    if len(g.LegalMoves()) != 0 {
        t.Fatalf("terminal game still has moves")
    }
}

func TestSnapshotDoesNotAlias(t *testing.T) {
    g := New()
    snap := g.State()
    if err := g.Place(Position{0, 2}); err != nil {
        t.Fatalf("place failed: %v", err)
    }
    if snap.Board[0][2] != Empty || snap.Turn != Black || snap.BlackScore != 2 {
        t.Fatalf("snapshot observed later mutation: %+v", snap)
    }
    snap.Board[3][3] = White
    if g.At(Position{3, 3}) != Empty {
        t.Fatalf("writing to a snapshot leaked into the game")
    }
}

func TestWinner(t *testing.T) {
    s := stateFrom(t, [Size]string{
        "BBBB",
        "BBBB",
        "BBWW",
        "WWWW",
    }, White)
    s.Over = true
    g, err := Restore(s)
    if err != nil {
        t.Fatalf("restore failed: %v", err)
    }
    if b, w := g.Scores(); b != 10 || w != 6 {
        t.Fatalf("expected 10/6, got %d/%d", b, w)
    }
    if g.Winner() != Black {
        t.Fatalf("expected Black to win, got %v", g.Winner())
    }
    tie := New()
    if tie.Winner() != Empty {
        t.Fatalf("expected tie, got %v", tie.Winner())
    }
}

func TestRestoreRejectsBrokenState(t *testing.T) {
    fresh := New()
    good := fresh.State()

    noTurn := good
    noTurn.Turn = Empty
    if _, err := Restore(noTurn); !errors.Is(err, ErrInvalidState) {
        t.Fatalf("expected ErrInvalidState for empty turn, got %v", err)
    }

    badScore := good
    badScore.BlackScore = 5
    if _, err := Restore(badScore); !errors.Is(err, ErrInvalidState) {
        t.Fatalf("expected ErrInvalidState for wrong score, got %v", err)
    }

    badCell := good
    badCell.Board[0][0] = Color(7)
    if _, err := Restore(badCell); !errors.Is(err, ErrInvalidState) {
        t.Fatalf("expected ErrInvalidState for bad cell, got %v", err)
    }

    finishedLive := good
    finishedLive.Over = true
    if _, err := Restore(finishedLive); !errors.Is(err, ErrInvalidState) {
        t.Fatalf("expected ErrInvalidState for a finished flag with moves left, got %v", err)
    }

    g, err := Restore(good)
    if err != nil {
        t.Fatalf("restore of a fresh state failed: %v", err)
    }
    if g.State() != good {
        t.Fatalf("restored state differs")
    }
}

func TestRestoreRejectsStuckLiveGame(t *testing.T) {
    // Neither side can move, yet the flag says the game goes on.
    stuck := stateFrom(t, [Size]string{
        "BBWW",
        "....",
        "....",
        "....",
    }, Black)
    if _, err := Restore(stuck); !errors.Is(err, ErrInvalidState) {
        t.Fatalf("expected ErrInvalidState for a stuck live game, got %v", err)
    }

    // White is stuck but Black could move: a forced pass never leaves the turn here.
    passed := stateFrom(t, [Size]string{
        "BWW.",
        "....",
        "....",
        "....",
    }, White)
    if _, err := Restore(passed); !errors.Is(err, ErrInvalidState) {
        t.Fatalf("expected ErrInvalidState when the mover has no move, got %v", err)
    }

    stuck.Over = true
    g, err := Restore(stuck)
    if err != nil {
        t.Fatalf("restore of a finished game failed: %v", err)
    }
    if !g.Over() || g.Winner() != Empty {
        t.Fatalf("expected a finished tie")
    }
    if err := g.Place(Position{Row: 1, Col: 0}); !errors.Is(err, ErrGameOver) {
        t.Fatalf("expected ErrGameOver, got %v", err)
    }
}
