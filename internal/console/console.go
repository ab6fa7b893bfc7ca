// Package console prints anvil status lines. Each line starts with a one
// character marker coloured by severity when the output is a terminal.
package console

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Level is the severity of a status line.
type Level int

const (
	LevelError Level = iota
	LevelWarning
	LevelSuccess
	LevelDebug
	LevelInfo
	LevelNote
)

// marker holds the symbol and ANSI colour for a level.
type marker struct {
	symbol string
	color  lipgloss.Color
}

var markers = map[Level]marker{
	LevelError:   {symbol: "X", color: lipgloss.Color("1")},
	LevelWarning: {symbol: "!", color: lipgloss.Color("3")},
	LevelSuccess: {symbol: "~", color: lipgloss.Color("2")},
	LevelDebug:   {symbol: "#", color: lipgloss.Color("6")},
	LevelInfo:    {symbol: ">", color: lipgloss.Color("4")},
	LevelNote:    {symbol: "@", color: lipgloss.Color("5")},
}

// Console writes marked lines to a writer. It is safe for concurrent use.
type Console struct {
	mu     sync.Mutex
	w      io.Writer
	styles map[Level]lipgloss.Style
}

// New creates a console writing to w. Colour is enabled only when w is a
// terminal that supports it.
func New(w io.Writer) *Console {
	renderer := lipgloss.NewRenderer(w)
	styles := make(map[Level]lipgloss.Style, len(markers))
	for level, m := range markers {
		styles[level] = renderer.NewStyle().Foreground(m.color)
	}
	return &Console{w: w, styles: styles}
}

// Printf writes a single line at level.
func (c *Console) Printf(level Level, format string, args ...any) {
	m, ok := markers[level]
	if !ok {
		m = markers[LevelInfo]
		level = LevelInfo
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "%s %s\n", c.styles[level].Render(m.symbol), fmt.Sprintf(format, args...))
}

func (c *Console) Error(format string, args ...any)   { c.Printf(LevelError, format, args...) }
func (c *Console) Warning(format string, args ...any) { c.Printf(LevelWarning, format, args...) }
func (c *Console) Success(format string, args ...any) { c.Printf(LevelSuccess, format, args...) }
func (c *Console) Debug(format string, args ...any)   { c.Printf(LevelDebug, format, args...) }
func (c *Console) Info(format string, args ...any)    { c.Printf(LevelInfo, format, args...) }
func (c *Console) Note(format string, args ...any)    { c.Printf(LevelNote, format, args...) }
