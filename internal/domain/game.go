package domain

import (
    "errors"
    "fmt"
)

// Size is the board edge length.
const Size = 4

// Color is the content of a board cell. Empty doubles as "no winner".
type Color uint8

const (
    Empty Color = iota
    Black
    White
)

// Opposite returns the other player's color. Empty stays Empty.
func (c Color) Opposite() Color {
    switch c {
    case Black:
        return White
    case White:
        return Black
    default:
        return Empty
    }
}

func (c Color) String() string {
    switch c {
    case Black:
        return "Black"
    case White:
        return "White"
    default:
        return ""
    }
}

// Position addresses a cell by row and column (0..3).
type Position struct {
    Row int
    Col int
}

// InBounds reports whether p lies on the board.
func (p Position) InBounds() bool {
    return p.Row >= 0 && p.Row < Size && p.Col >= 0 && p.Col < Size
}

// Board is the fixed 4x4 grid, indexed [row][col].
type Board [Size][Size]Color

// State is a value snapshot of a game. It shares no memory with the Game it came from.
type State struct {
    Board      Board
    Turn       Color
    Over       bool
    BlackScore int
    WhiteScore int
}

// Game holds the current state of a match.
type Game struct {
    board Board
    turn  Color
    over  bool
    black int
    white int
}

// Errors returned by domain operations. Every placement failure wraps ErrInvalidMove.
var (
    ErrInvalidMove  = errors.New("invalid move")
    ErrOutOfBounds  = fmt.Errorf("%w: out of bounds", ErrInvalidMove)
    ErrOccupied     = fmt.Errorf("%w: cell occupied", ErrInvalidMove)
    ErrNoCapture    = fmt.Errorf("%w: captures nothing", ErrInvalidMove)
    ErrGameOver     = fmt.Errorf("%w: game over", ErrInvalidMove)
    ErrInvalidState = errors.New("invalid state")
)

// directions lists the 8 compass steps as (dRow, dCol).
var directions = [8][2]int{
    {-1, -1}, {-1, 0}, {-1, 1},
    {0, -1}, {0, 1},
    {1, -1}, {1, 0}, {1, 1},
}

// New returns a new game with the standard center layout and Black to move.
func New() Game {
    g := Game{turn: Black}
    g.board[1][1] = Black
    g.board[1][2] = White
    g.board[2][1] = White
    g.board[2][2] = Black
    g.recount()
    return g
}

// Restore rebuilds a game from a snapshot, rejecting snapshots that break the game invariants.
func Restore(s State) (Game, error) {
    if s.Turn != Black && s.Turn != White {
        return Game{}, fmt.Errorf("%w: turn %d", ErrInvalidState, s.Turn)
    }
    for r := range s.Board {
        for c, cell := range s.Board[r] {
            if cell > White {
                return Game{}, fmt.Errorf("%w: cell (%d,%d) = %d", ErrInvalidState, r, c, cell)
            }
        }
    }
    g := Game{board: s.Board, turn: s.Turn, over: s.Over}
    g.recount()
    if g.black != s.BlackScore || g.white != s.WhiteScore {
        return Game{}, fmt.Errorf("%w: scores %d/%d do not match board %d/%d",
            ErrInvalidState, s.BlackScore, s.WhiteScore, g.black, g.white)
    }
    // The terminal flag must agree with the board: a live game has a mover with a legal move,
    // a finished one has no legal move for either side.
    moverCan := g.hasMoves()
    g.turn = s.Turn.Opposite()
    otherCan := g.hasMoves()
    g.turn = s.Turn
    switch {
    case !s.Over && !moverCan:
        return Game{}, fmt.Errorf("%w: %v has no legal move in a live game", ErrInvalidState, s.Turn)
    case s.Over && (moverCan || otherCan):
        return Game{}, fmt.Errorf("%w: finished game still has legal moves", ErrInvalidState)
    }
    return g, nil
}

// Turn returns the color to move. Meaningless, but still Black or White, once the game is over.
func (g *Game) Turn() Color { return g.turn }

// Over reports whether neither player can move.
func (g *Game) Over() bool { return g.over }

// Scores returns the disc counts for Black and White.
func (g *Game) Scores() (black, white int) { return g.black, g.white }

// At returns the cell at p, or Empty when p is off the board.
func (g *Game) At(p Position) Color {
    if !p.InBounds() {
        return Empty
    }
    return g.board[p.Row][p.Col]
}

// State returns a snapshot of the game.
func (g *Game) State() State {
    return State{
        Board:      g.board,
        Turn:       g.turn,
        Over:       g.over,
        BlackScore: g.black,
        WhiteScore: g.white,
    }
}

// Winner returns the color with more discs, or Empty on a tie.
// It does not look at Over; callers decide whether the result is final.
func (g *Game) Winner() Color {
    switch {
    case g.black > g.white:
        return Black
    case g.white > g.black:
        return White
    default:
        return Empty
    }
}

// IsLegalMove reports whether the current player may place a disc at p.
func (g *Game) IsLegalMove(p Position) bool {
    if !p.InBounds() || g.board[p.Row][p.Col] != Empty {
        return false
    }
    for _, d := range directions {
        if len(g.run(p, d, g.turn)) > 0 {
            return true
        }
    }
    return false
}

// LegalMoves returns every legal position for the current player in row-major order.
func (g *Game) LegalMoves() []Position {
    var moves []Position
    for r := 0; r < Size; r++ {
        for c := 0; c < Size; c++ {
            p := Position{Row: r, Col: c}
            if g.IsLegalMove(p) {
                moves = append(moves, p)
            }
        }
    }
    return moves
}

// Captures returns the discs a placement at p would flip. It is empty for illegal moves.
func (g *Game) Captures(p Position) []Position {
    if !g.IsLegalMove(p) {
        return nil
    }
    var out []Position
    for _, d := range directions {
        out = append(out, g.run(p, d, g.turn)...)
    }
    return out
}

// Place plays the current turn at p. On error the game is left untouched.
func (g *Game) Place(p Position) error {
    if g.over {
        return ErrGameOver
    }
    if !p.InBounds() {
        return ErrOutOfBounds
    }
    if g.board[p.Row][p.Col] != Empty {
        return ErrOccupied
    }
    if !g.IsLegalMove(p) {
        return ErrNoCapture
    }

    mover := g.turn
    g.board[p.Row][p.Col] = mover

    // Collect every direction against the post-placement board before flipping any of them.
    var flips []Position
    for _, d := range directions {
        flips = append(flips, g.run(p, d, mover)...)
    }
    for _, f := range flips {
        g.board[f.Row][f.Col] = mover
    }

    g.recount()
    g.advance(mover)
    return nil
}

// run walks from p in direction d over discs of the opposite of color.
// It returns the crossed discs only when the walk ends on a disc of color.
func (g *Game) run(p Position, d [2]int, color Color) []Position {
    opp := color.Opposite()
    var crossed []Position
    r, c := p.Row+d[0], p.Col+d[1]
    for {
        q := Position{Row: r, Col: c}
        if !q.InBounds() {
            return nil
        }
        switch g.board[r][c] {
        case opp:
            crossed = append(crossed, q)
        case color:
            return crossed
        default:
            return nil
        }
        r += d[0]
        c += d[1]
    }
}

// advance hands the turn to the opponent, falls back to the mover on a forced pass,
// and ends the game when neither side can move.
func (g *Game) advance(mover Color) {
    g.turn = mover.Opposite()
    if g.hasMoves() {
        return
    }
    g.turn = mover
    if g.hasMoves() {
        return
    }
    g.over = true
}

func (g *Game) hasMoves() bool {
    for r := 0; r < Size; r++ {
        for c := 0; c < Size; c++ {
            if g.IsLegalMove(Position{Row: r, Col: c}) {
                return true
            }
        }
    }
    return false
}

func (g *Game) recount() {
    g.black, g.white = 0, 0
    for r := range g.board {
        for _, cell := range g.board[r] {
            switch cell {
            case Black:
                g.black++
            case White:
                g.white++
            }
        }
    }
}
