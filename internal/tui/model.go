// Package tui is the terminal host: a hot-seat Bubble Tea board, served locally or over SSH.
package tui

import (
    "context"
    "errors"
    "fmt"
    "io"
    "strings"
    "time"

    "github.com/charmbracelet/bubbles/help"
    "github.com/charmbracelet/bubbles/key"
    tea "github.com/charmbracelet/bubbletea"
    "github.com/charmbracelet/lipgloss"
    "github.com/charmbracelet/log"

    "github.com/jaminalder/codex-reversi/internal/domain"
    "github.com/jaminalder/codex-reversi/internal/storage"
)

// ResultRecorder stores finished games. *storage.Store satisfies it.
type ResultRecorder interface {
    SaveResult(ctx context.Context, r storage.Result) (int64, error)
}

var (
    titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).MarginBottom(1)
    boardStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("28"))
    cellStyle   = lipgloss.NewStyle().Width(3).Align(lipgloss.Center).Background(lipgloss.Color("22"))
    cursorStyle = cellStyle.Background(lipgloss.Color("57"))
    blackStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("16")).Bold(true)
    whiteStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("231")).Bold(true)
    hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
    statusStyle = lipgloss.NewStyle().MarginTop(1)
    noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
    errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// resultSavedMsg reports the outcome of recording a finished game.
type resultSavedMsg struct {
    err error
}

// Option configures a Model.
type Option func(*Model)

// WithRecorder records every finished game.
func WithRecorder(r ResultRecorder) Option {
    return func(m *Model) { m.recorder = r }
}

// WithLogger sets the logger for recording failures.
func WithLogger(l *log.Logger) Option {
    return func(m *Model) {
        if l != nil {
            m.logger = l
        }
    }
}

// Model is the Bubble Tea model for one hot-seat game. Both colors play from the same keyboard.
type Model struct {
    game     domain.Game
    cursor   domain.Position
    keys     KeyMap
    help     help.Model
    recorder ResultRecorder
    logger   *log.Logger
    notice   string
    failed   bool // notice is an error
    recorded bool
    quitting bool
    width    int
    height   int
}

// New creates a model at the opening position.
func New(opts ...Option) Model {
    m := Model{
        game:   domain.New(),
        keys:   DefaultKeyMap(),
        help:   help.New(),
        logger: log.New(io.Discard),
    }
    for _, opt := range opts {
        opt(&m)
    }
    return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
    return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
    switch msg := msg.(type) {
    case tea.WindowSizeMsg:
        m.width = msg.Width
        m.height = msg.Height
        m.help.Width = msg.Width
        return m, nil
    case resultSavedMsg:
        if msg.err != nil {
            m.logger.Error("record result", "error", msg.err)
            m.setError("Result not saved")
        }
        return m, nil
    case tea.KeyMsg:
        return m.handleKey(msg)
    }
    return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
    switch {
    case key.Matches(msg, m.keys.Quit):
        m.quitting = true
        return m, tea.Quit
    case key.Matches(msg, m.keys.Help):
        m.help.ShowAll = !m.help.ShowAll
    case key.Matches(msg, m.keys.Up):
        m.moveCursor(-1, 0)
    case key.Matches(msg, m.keys.Down):
        m.moveCursor(1, 0)
    case key.Matches(msg, m.keys.Left):
        m.moveCursor(0, -1)
    case key.Matches(msg, m.keys.Right):
        m.moveCursor(0, 1)
    case key.Matches(msg, m.keys.Restart):
        m.game = domain.New()
        m.cursor = domain.Position{}
        m.recorded = false
        m.notice, m.failed = "", false
    case key.Matches(msg, m.keys.Place):
        return m.place()
    }
    return m, nil
}

func (m *Model) moveCursor(dr, dc int) {
    // wrap around the edges
    m.cursor.Row = (m.cursor.Row + dr + domain.Size) % domain.Size
    m.cursor.Col = (m.cursor.Col + dc + domain.Size) % domain.Size
}

func (m Model) place() (tea.Model, tea.Cmd) {
    mover := m.game.Turn()
    if err := m.game.Place(m.cursor); err != nil {
        m.setError(moveError(err))
        return m, nil
    }
    m.notice, m.failed = "", false
    if !m.game.Over() && m.game.Turn() == mover {
        m.notice = fmt.Sprintf("%s has no legal move and passes", mover.Opposite())
    }
    if m.game.Over() && !m.recorded {
        m.recorded = true
        return m, m.recordResult()
    }
    return m, nil
}

func (m Model) recordResult() tea.Cmd {
    if m.recorder == nil {
        return nil
    }
    black, white := m.game.Scores()
    r := storage.Result{
        GameID:     fmt.Sprintf("tui-%d", time.Now().UnixNano()),
        BlackScore: black,
        WhiteScore: white,
        Winner:     m.game.Winner(),
    }
    rec := m.recorder
    return func() tea.Msg {
        ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
        defer cancel()
        _, err := rec.SaveResult(ctx, r)
        return resultSavedMsg{err: err}
    }
}

func (m *Model) setError(text string) {
    m.notice = text
    m.failed = true
}

func moveError(err error) string {
    switch {
    case errors.Is(err, domain.ErrGameOver):
        return "The game is over, press r for a new one"
    case errors.Is(err, domain.ErrOccupied):
        return "That cell is taken"
    case errors.Is(err, domain.ErrNoCapture):
        return "That move captures nothing"
    default:
        return "Invalid move"
    }
}

// Game returns a copy of the current game.
func (m Model) Game() *domain.Game {
    g := m.game
    return &g
}

// Cursor returns the selected cell.
func (m Model) Cursor() domain.Position {
    return m.cursor
}

// Notice returns the pass notice or error shown under the board, if any.
func (m Model) Notice() string {
    return m.notice
}

// IsQuitting reports whether the user asked to quit.
func (m Model) IsQuitting() bool {
    return m.quitting
}

// View implements tea.Model.
func (m Model) View() string {
    if m.quitting {
        return ""
    }
    var b strings.Builder
    b.WriteString(titleStyle.Render("Reversi 4x4"))
    b.WriteString("\n")
    b.WriteString(boardStyle.Render(m.renderBoard()))
    b.WriteString("\n")
    b.WriteString(statusStyle.Render(m.status()))
    b.WriteString("\n")
    if m.notice != "" {
        if m.failed {
            b.WriteString(errorStyle.Render(m.notice))
        } else {
            b.WriteString(noticeStyle.Render(m.notice))
        }
        b.WriteString("\n")
    }
    b.WriteString("\n")
    b.WriteString(m.help.View(m.keys))
    return b.String()
}

func (m Model) renderBoard() string {
    rows := make([]string, 0, domain.Size)
    for r := 0; r < domain.Size; r++ {
        cells := make([]string, 0, domain.Size)
        for c := 0; c < domain.Size; c++ {
            p := domain.Position{Row: r, Col: c}
            style := cellStyle
            if p == m.cursor {
                style = cursorStyle
            }
            cells = append(cells, style.Render(m.glyph(p)))
        }
        rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
    }
    return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) glyph(p domain.Position) string {
    switch m.game.At(p) {
    case domain.Black:
        return blackStyle.Render("●")
    case domain.White:
        return whiteStyle.Render("●")
    }
    if !m.game.Over() && m.game.IsLegalMove(p) {
        return hintStyle.Render("·")
    }
    return " "
}

func (m Model) status() string {
    black, white := m.game.Scores()
    score := fmt.Sprintf("Black %d : %d White", black, white)
    if !m.game.Over() {
        return score + "   Current turn: " + m.game.Turn().String()
    }
    if w := m.game.Winner(); w != domain.Empty {
        return score + "   Game Over! " + w.String() + " wins!"
    }
    return score + "   Game Over! It's a tie!"
}
