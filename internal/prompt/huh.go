package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Prompt palette.
var (
	colorMark     = lipgloss.Color("#0000FF")
	colorAnswer   = lipgloss.Color("#008000")
	colorSep      = lipgloss.Color("#cc5454")
	colorDisabled = lipgloss.Color("#FF0000")
)

// Theme returns the huh theme used for every prompt: blue markers and
// pointer, bold questions, green answers and a red italic error line.
func Theme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = t.Focused.Title.Bold(true)
	t.Focused.SelectSelector = t.Focused.SelectSelector.Foreground(colorMark).Bold(true)
	t.Focused.SelectedOption = t.Focused.SelectedOption.Foreground(colorAnswer)
	t.Focused.FocusedButton = t.Focused.FocusedButton.Background(colorMark).Bold(true)
	t.Focused.TextInput.Prompt = t.Focused.TextInput.Prompt.Foreground(colorMark).Bold(true)
	t.Focused.TextInput.Text = t.Focused.TextInput.Text.Foreground(colorAnswer).Bold(true)
	t.Focused.ErrorIndicator = t.Focused.ErrorIndicator.Foreground(colorSep)
	t.Focused.ErrorMessage = t.Focused.ErrorMessage.Foreground(colorDisabled).Italic(true)

	t.Blurred = t.Focused
	t.Blurred.Base = t.Blurred.Base.BorderStyle(lipgloss.HiddenBorder())
	return t
}

// HuhQuestioner renders prompts with charmbracelet/huh. When stdin is not a
// terminal it falls back to huh's line-based accessible mode.
type HuhQuestioner struct {
	theme      *huh.Theme
	in         io.Reader
	out        io.Writer
	accessible bool

	// interrupted returns a context that ends on Ctrl+C in accessible mode
	interrupted func() (context.Context, context.CancelFunc)
}

// NewHuhQuestioner builds a questioner on the process stdin/stdout.
func NewHuhQuestioner() *HuhQuestioner {
	return &HuhQuestioner{
		theme:      Theme(),
		in:         os.Stdin,
		out:        os.Stdout,
		accessible: !term.IsTerminal(int(os.Stdin.Fd())),
	}
}

func notifyInterrupt() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// Confirm implements Questioner.
func (h *HuhQuestioner) Confirm(title string, def bool) (bool, error) {
	confirmed := def
	field := huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(&confirmed)
	if err := h.run(field); err != nil {
		return false, err
	}
	return confirmed, nil
}

// Select implements Questioner. def preselects the matching option, if any.
func (h *HuhQuestioner) Select(title string, choices []string, def string) (string, error) {
	choice := def
	field := huh.NewSelect[string]().
		Title(title).
		Options(huh.NewOptions(choices...)...).
		Value(&choice)
	if err := h.run(field); err != nil {
		return "", err
	}
	return choice, nil
}

// Input implements Questioner; secret masks the typed characters.
func (h *HuhQuestioner) Input(title, def string, secret bool) (string, error) {
	var text string
	field := huh.NewInput().
		Title(title).
		Placeholder(def).
		Value(&text)
	if secret {
		field = field.EchoMode(huh.EchoModePassword)
		if h.accessible && !h.inputIsTerminal() {
			return "", ErrNoTTY
		}
	}
	if err := h.run(field); err != nil {
		return "", err
	}
	return text, nil
}

func (h *HuhQuestioner) run(field huh.Field) error {
	if h.accessible {
		return h.runAccessible(field)
	}

	form := huh.NewForm(huh.NewGroup(field)).
		WithTheme(h.theme).
		WithShowHelp(false).
		WithInput(h.in).
		WithOutput(h.out)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return ErrCancelled
		}
		return err
	}
	return nil
}

// runAccessible drives the line-based widget directly so its error reaches
// the caller, and turns an interrupt into ErrCancelled.
func (h *HuhQuestioner) runAccessible(field huh.Field) error {
	interrupted := h.interrupted
	if interrupted == nil {
		interrupted = notifyInterrupt
	}
	ctx, stop := interrupted()
	defer stop()

	var restore func()
	if f, ok := h.in.(interface{ Fd() uintptr }); ok && term.IsTerminal(int(f.Fd())) {
		if state, err := term.GetState(int(f.Fd())); err == nil {
			restore = func() { _ = term.Restore(int(f.Fd()), state) }
		}
	}

	field = field.WithTheme(h.theme)
	field.Init()
	field.Focus()

	done := make(chan error, 1)
	go func() {
		err := field.RunAccessible(h.out, h.in)
		_, _ = fmt.Fprintln(h.out)
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if restore != nil {
			restore()
		}
		_, _ = fmt.Fprintln(h.out)
		return ErrCancelled
	}
}

func (h *HuhQuestioner) inputIsTerminal() bool {
	f, ok := h.in.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}
