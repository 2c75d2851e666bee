package wire

import (
    "encoding/json"
    "errors"
    "strings"
    "testing"

    "github.com/jaminalder/codex-reversi/internal/domain"
)

func TestColorTagRoundTrip(t *testing.T) {
    for _, c := range []domain.Color{domain.Black, domain.White} {
        tag, err := ColorTag(c)
        if err != nil {
            t.Fatalf("ColorTag(%v): %v", c, err)
        }
        back, err := ParseColor(tag)
        if err != nil || back != c {
            t.Fatalf("round trip %v -> %q -> %v (%v)", c, tag, back, err)
        }
    }
    if _, err := ColorTag(domain.Empty); !errors.Is(err, ErrUnknownColor) {
        t.Fatalf("expected ErrUnknownColor for Empty, got %v", err)
    }
    if _, err := ParseColor("black"); !errors.Is(err, ErrUnknownColor) {
        t.Fatalf("tags are case-sensitive, got %v", err)
    }
}

func TestEncodeInitialState(t *testing.T) {
    g := domain.New()
    b, err := EncodeState(g.State())
    if err != nil {
        t.Fatalf("encode: %v", err)
    }
    body := string(b)
    for _, want := range []string{
        `"board":[[null,null,null,null],[null,"Black","White",null],[null,"White","Black",null],[null,null,null,null]]`,
        `"current_turn":"Black"`,
        `"game_over":false`,
        `"black_score":2`,
        `"white_score":2`,
    } {
        if !strings.Contains(body, want) {
            t.Fatalf("encoded state missing %s: %s", want, body)
        }
    }
}

func TestDecodeRestoresPlayedGame(t *testing.T) {
    g := domain.New()
    for _, p := range []domain.Position{{Row: 1, Col: 3}, {Row: 0, Col: 3}} {
        if err := g.Place(p); err != nil {
            t.Fatalf("place %v: %v", p, err)
        }
    }
    want := g.State()
    b, err := EncodeState(want)
    if err != nil {
        t.Fatalf("encode: %v", err)
    }
    got, err := DecodeState(b)
    if err != nil {
        t.Fatalf("decode: %v", err)
    }
    if got != want {
        t.Fatalf("decoded %+v, want %+v", got, want)
    }
    if _, err := domain.Restore(got); err != nil {
        t.Fatalf("decoded state does not restore: %v", err)
    }
}

func TestDecodeRejectsUnknownTags(t *testing.T) {
    bad := `{"board":[[null,null,null,null],[null,"Red",null,null],[null,null,null,null],[null,null,null,null]],"current_turn":"Black"}`
    if _, err := DecodeState([]byte(bad)); !errors.Is(err, ErrUnknownColor) {
        t.Fatalf("expected ErrUnknownColor for cell, got %v", err)
    }
    badTurn := `{"board":[[null,null,null,null],[null,null,null,null],[null,null,null,null],[null,null,null,null]],"current_turn":""}`
    if _, err := DecodeState([]byte(badTurn)); !errors.Is(err, ErrUnknownColor) {
        t.Fatalf("expected ErrUnknownColor for turn, got %v", err)
    }
    if _, err := DecodeState([]byte("{")); err == nil {
        t.Fatalf("expected syntax error")
    }
}

func TestPositionsEncodeAsArray(t *testing.T) {
    b, err := json.Marshal(Positions(nil))
    if err != nil {
        t.Fatalf("marshal: %v", err)
    }
    if string(b) != "[]" {
        t.Fatalf("expected [], got %s", b)
    }
    g := domain.New()
    b = MustMarshal(Positions(g.LegalMoves()))
    if string(b) != `[{"row":0,"col":2},{"row":1,"col":3},{"row":2,"col":0},{"row":3,"col":1}]` {
        t.Fatalf("unexpected moves JSON: %s", b)
    }
}
