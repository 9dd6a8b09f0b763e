package console

import (
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

const spinnerStopTimeout = 500 * time.Millisecond

var spinnerStyle = lipgloss.NewStyle().Foreground(cBlue)

type stopMsg struct{}

type spinnerModel struct {
	spinner spinner.Model
	label   string
	width   int
	done    bool
}

func newSpinnerModel(label string, width int) spinnerModel {
	s := spinner.New()
	s.Spinner = spinner.MiniDot
	s.Style = spinnerStyle
	return spinnerModel{spinner: s, label: label, width: width}
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stopMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	if m.done {
		return ""
	}
	line := m.spinner.View() + " " + m.label
	if m.width > 1 {
		// must fit on one line so Stop can clear it
		line = ansi.Truncate(line, m.width-1, "…")
	}
	return line
}

// Spinner is a transient progress indicator. The zero value and nil are
// inert, so callers can Stop unconditionally.
type Spinner struct {
	program *tea.Program
	done    chan struct{}
	once    sync.Once
}

// StartSpinner shows label next to a spinner until Stop is called.
// It only animates on a terminal; elsewhere it returns an inert Spinner.
func (c *Console) StartSpinner(label string) *Spinner {
	if !c.tty {
		return &Spinner{}
	}

	program := tea.NewProgram(
		newSpinnerModel(label, c.width),
		tea.WithOutput(c.w),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)
	s := &Spinner{program: program, done: make(chan struct{})}
	go func() {
		_, _ = program.Run()
		close(s.done)
	}()
	return s
}

// Stop clears the spinner line and waits briefly for the renderer to exit.
func (s *Spinner) Stop() {
	if s == nil || s.program == nil {
		return
	}
	s.once.Do(func() {
		s.program.Send(stopMsg{})
		select {
		case <-s.done:
		case <-time.After(spinnerStopTimeout):
			s.program.Kill()
		}
	})
}
