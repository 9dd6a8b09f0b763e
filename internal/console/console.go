// Package console is the user-facing output sink: styled one-line notices
// on a single writer, plus a transient spinner for the registry lookup.
package console

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

var (
	cBlue   = lipgloss.Color("12")
	cYellow = lipgloss.Color("11")
	cRed    = lipgloss.Color("9")
	cGreen  = lipgloss.Color("10")
)

// Options configures a Console.
type Options struct {
	// ForceStyled keeps colors on even when the writer is not a terminal (CI logs).
	ForceStyled bool
}

// Console writes styled messages to one writer.
type Console struct {
	w     io.Writer
	tty   bool
	width int

	infoStyle    lipgloss.Style
	warnStyle    lipgloss.Style
	errorStyle   lipgloss.Style
	successStyle lipgloss.Style
	commandStyle lipgloss.Style
}

// New builds a Console on w. A nil writer discards output.
func New(w io.Writer, opts Options) *Console {
	if w == nil {
		w = io.Discard
	}
	r := lipgloss.NewRenderer(w)
	tty := writerIsTTY(w)
	if opts.ForceStyled && r.ColorProfile() == termenv.Ascii {
		r.SetColorProfile(termenv.ANSI256)
	}

	return &Console{
		w:            w,
		tty:          tty,
		width:        writerWidth(w, tty),
		infoStyle:    r.NewStyle().Foreground(cBlue).Bold(true),
		warnStyle:    r.NewStyle().Foreground(cYellow).Bold(true),
		errorStyle:   r.NewStyle().Foreground(cRed).Bold(true),
		successStyle: r.NewStyle().Foreground(cGreen).Bold(true),
		commandStyle: r.NewStyle().Foreground(cGreen),
	}
}

// Writer exposes the underlying writer, e.g. for subprocess output.
func (c *Console) Writer() io.Writer {
	return c.w
}

// IsTTY reports whether the sink is an interactive terminal.
func (c *Console) IsTTY() bool {
	return c.tty
}

// Info prints an informational notice.
func (c *Console) Info(format string, args ...any) {
	c.emit(c.infoStyle, format, args...)
}

// Warn prints a warning.
func (c *Console) Warn(format string, args ...any) {
	c.emit(c.warnStyle, format, args...)
}

// Error prints an error notice. It never terminates anything.
func (c *Console) Error(format string, args ...any) {
	c.emit(c.errorStyle, format, args...)
}

// Success prints a confirmation.
func (c *Console) Success(format string, args ...any) {
	c.emit(c.successStyle, format, args...)
}

// Println prints an unstyled line.
func (c *Console) Println(format string, args ...any) {
	_, _ = fmt.Fprintln(c.w, c.wrap(fmt.Sprintf(format, args...)))
}

// Command renders an inline command snippet for use inside other messages.
func (c *Console) Command(cmd string) string {
	return c.commandStyle.Render("'" + cmd + "'")
}

func (c *Console) emit(style lipgloss.Style, format string, args ...any) {
	msg := c.wrap(fmt.Sprintf(format, args...))
	lines := strings.Split(msg, "\n")
	for i, line := range lines {
		lines[i] = style.Render(line)
	}
	_, _ = fmt.Fprintln(c.w, strings.Join(lines, "\n"))
}

func (c *Console) wrap(s string) string {
	if !c.tty || c.width <= 0 {
		return s
	}
	return wordwrap.String(s, c.width)
}

// writerIsTTY returns true if the given writer exposes an Fd() method
// (e.g. *os.File) and that fd is a terminal.
func writerIsTTY(w io.Writer) bool {
	type fder interface {
		Fd() uintptr
	}
	if f, ok := w.(fder); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

func writerWidth(w io.Writer, tty bool) int {
	if !tty {
		return 0
	}
	f, ok := w.(*os.File)
	if !ok {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}
