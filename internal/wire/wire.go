// Package wire transcodes engine snapshots to the JSON shape handed to browsers,
// websocket clients and the database.
package wire

import (
    "encoding/json"
    "errors"
    "fmt"

    "github.com/jaminalder/codex-reversi/internal/domain"
)

// ErrUnknownColor is returned when a color tag does not name a player.
var ErrUnknownColor = errors.New("wire: unknown color")

// GameState is the wire form of domain.State. Empty cells encode as null.
type GameState struct {
    Board       [domain.Size][domain.Size]*string `json:"board"`
    CurrentTurn string                            `json:"current_turn"`
    GameOver    bool                              `json:"game_over"`
    BlackScore  int                               `json:"black_score"`
    WhiteScore  int                               `json:"white_score"`
}

// Position is the wire form of domain.Position.
type Position struct {
    Row int `json:"row"`
    Col int `json:"col"`
}

// Event is pushed to live subscribers whenever a game changes.
type Event struct {
    Type     string     `json:"type"` // "state", "pass", "over", "ping"
    Game     string     `json:"game,omitempty"`
    State    *GameState `json:"state,omitempty"`
    Moves    []Position `json:"moves,omitempty"`
    Captured []Position `json:"captured,omitempty"`
    Winner   string     `json:"winner,omitempty"`
    Error    string     `json:"error,omitempty"`
}

// ColorTag returns the string tag for a player color.
func ColorTag(c domain.Color) (string, error) {
    switch c {
    case domain.Black, domain.White:
        return c.String(), nil
    default:
        return "", fmt.Errorf("%w: %d", ErrUnknownColor, c)
    }
}

// ParseColor is the inverse of ColorTag.
func ParseColor(s string) (domain.Color, error) {
    switch s {
    case "Black":
        return domain.Black, nil
    case "White":
        return domain.White, nil
    default:
        return domain.Empty, fmt.Errorf("%w: %q", ErrUnknownColor, s)
    }
}

// FromState converts a snapshot to its wire form.
func FromState(s domain.State) GameState {
    out := GameState{
        CurrentTurn: s.Turn.String(),
        GameOver:    s.Over,
        BlackScore:  s.BlackScore,
        WhiteScore:  s.WhiteScore,
    }
    for r := range s.Board {
        for c, cell := range s.Board[r] {
            tag, err := ColorTag(cell)
            if err != nil {
                continue // empty
            }
            out.Board[r][c] = &tag
        }
    }
    return out
}

// ToState converts the wire form back to a snapshot. It does not check game invariants;
// pass the result to domain.Restore for that.
func (g GameState) ToState() (domain.State, error) {
    var s domain.State
    turn, err := ParseColor(g.CurrentTurn)
    if err != nil {
        return s, err
    }
    s.Turn = turn
    s.Over = g.GameOver
    s.BlackScore = g.BlackScore
    s.WhiteScore = g.WhiteScore
    for r := range g.Board {
        for c, tag := range g.Board[r] {
            if tag == nil {
                continue
            }
            color, err := ParseColor(*tag)
            if err != nil {
                return s, fmt.Errorf("cell (%d,%d): %w", r, c, err)
            }
            s.Board[r][c] = color
        }
    }
    return s, nil
}

// EncodeState marshals a snapshot to JSON.
func EncodeState(s domain.State) ([]byte, error) {
    return json.Marshal(FromState(s))
}

// DecodeState unmarshals JSON produced by EncodeState.
func DecodeState(b []byte) (domain.State, error) {
    var g GameState
    if err := json.Unmarshal(b, &g); err != nil {
        return domain.State{}, fmt.Errorf("wire: decode state: %w", err)
    }
    return g.ToState()
}

// FromPosition converts an engine position.
func FromPosition(p domain.Position) Position { return Position{Row: p.Row, Col: p.Col} }

// Positions converts a list of engine positions. A nil input yields an empty, non-nil slice
// so it encodes as [] rather than null.
func Positions(ps []domain.Position) []Position {
    out := make([]Position, 0, len(ps))
    for _, p := range ps {
        out = append(out, FromPosition(p))
    }
    return out
}

// MustMarshal encodes v and panics on failure. Only use it with types defined in this package.
func MustMarshal(v any) []byte {
    b, err := json.Marshal(v)
    if err != nil {
        panic(err)
    }
    return b
}
