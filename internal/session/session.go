// Package session carries the per-process collaborators every component
// needs: the debug logger, the output sink, and the process exit hook.
package session

import (
	"os"

	"github.com/rs/zerolog"

	"pypilatest/internal/console"
)

// ExitFunc terminates the process. Tests substitute a recorder.
type ExitFunc func(code int)

// Session is passed to components at construction instead of package globals.
type Session struct {
	Log  zerolog.Logger
	Out  *console.Console
	Exit ExitFunc
}

// Option configures a Session.
type Option func(*Session)

// WithExit overrides the exit hook.
func WithExit(exit ExitFunc) Option {
	return func(s *Session) {
		if exit != nil {
			s.Exit = exit
		}
	}
}

// New builds a Session. A nil console discards output.
func New(log zerolog.Logger, out *console.Console, opts ...Option) *Session {
	if out == nil {
		out = console.New(nil, console.Options{})
	}
	s := &Session{Log: log, Out: out, Exit: os.Exit}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Discard returns a Session that logs nowhere and prints nowhere.
func Discard(opts ...Option) *Session {
	return New(zerolog.Nop(), nil, opts...)
}

// ExitRecorder records the first requested exit code instead of terminating.
type ExitRecorder struct {
	Called bool
	Code   int
}

// Exit implements ExitFunc.
func (r *ExitRecorder) Exit(code int) {
	if r.Called {
		return
	}
	r.Called = true
	r.Code = code
}
