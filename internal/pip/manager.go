// Package pip drives the external package manager: a `--version` probe and
// a synchronous `install --upgrade`. It never reimplements installation.
package pip

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	appErrors "pypilatest/internal/errors"
)

// DefaultBin is the package manager executable looked up on PATH.
const DefaultBin = "pip"

// ManagerErrorKind categorizes package manager failures.
type ManagerErrorKind string

const (
	ManagerErrorNotInstalled  ManagerErrorKind = "not_installed"
	ManagerErrorCommandFailed ManagerErrorKind = "command_failed"
)

// ManagerError wraps a failed invocation with its category and command line.
type ManagerError struct {
	Kind ManagerErrorKind
	Bin  string
	Args []string
	Err  error
}

// Error implements the error interface.
func (e ManagerError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Command(), e.Err)
	case e.Kind == ManagerErrorNotInstalled:
		return fmt.Sprintf("%s not found", e.Bin)
	default:
		return fmt.Sprintf("%s failed", e.Command())
	}
}

// Unwrap exposes the wrapped error.
func (e ManagerError) Unwrap() error {
	return e.Err
}

// Command returns the attempted command line.
func (e ManagerError) Command() string {
	return strings.Join(append([]string{e.Bin}, e.Args...), " ")
}

// CommandRunner executes external commands, allowing tests to inject stubs.
type CommandRunner interface {
	// Output runs the command and returns its combined output.
	Output(ctx context.Context, bin string, args ...string) ([]byte, error)
	// Stream runs the command with its output attached to stdout/stderr and waits.
	Stream(ctx context.Context, stdout, stderr io.Writer, bin string, args ...string) error
}

type execCommandRunner struct{}

func (execCommandRunner) Output(ctx context.Context, bin string, args ...string) ([]byte, error) {
	//nolint:gosec // G204: wrapper intentionally shells out to the package manager
	cmd := exec.CommandContext(ctx, bin, args...)
	return cmd.CombinedOutput()
}

func (execCommandRunner) Stream(ctx context.Context, stdout, stderr io.Writer, bin string, args ...string) error {
	//nolint:gosec // G204: wrapper intentionally shells out to the package manager
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

// LookPathFunc resolves a binary reference to an executable path.
type LookPathFunc func(bin string) (string, error)

// Manager wraps one package manager executable.
type Manager struct {
	bin      string
	runner   CommandRunner
	lookPath LookPathFunc
}

// Option configures a Manager.
type Option func(*Manager)

// WithBinary overrides the executable name or path.
func WithBinary(bin string) Option {
	return func(m *Manager) {
		if trimmed := strings.TrimSpace(bin); trimmed != "" {
			m.bin = trimmed
		}
	}
}

// WithRunner injects a command runner.
func WithRunner(r CommandRunner) Option {
	return func(m *Manager) {
		if r != nil {
			m.runner = r
		}
	}
}

// WithLookPath injects the PATH resolver.
func WithLookPath(fn LookPathFunc) Option {
	return func(m *Manager) {
		if fn != nil {
			m.lookPath = fn
		}
	}
}

// NewManager constructs a Manager for pip by default.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		bin:      DefaultBin,
		runner:   execCommandRunner{},
		lookPath: exec.LookPath,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Bin returns the configured executable.
func (m *Manager) Bin() string {
	return m.bin
}

// ProbeCommand is the command line used to verify the package manager works.
func (m *Manager) ProbeCommand() []string {
	return []string{m.bin, "--version"}
}

// UpgradeCommand is the command line used to upgrade pkg.
func (m *Manager) UpgradeCommand(pkg string) []string {
	return []string{m.bin, "install", "--upgrade", pkg}
}

// Probe verifies the executable is on PATH and answers --version with a zero
// exit status. Failures carry CodePackageManagerMissing.
func (m *Manager) Probe(ctx context.Context) (string, error) {
	probe := m.ProbeCommand()
	resolved, err := m.lookPath(m.bin)
	if err != nil {
		return "", appErrors.New(appErrors.CodePackageManagerMissing, "",
			ManagerError{Kind: ManagerErrorNotInstalled, Bin: m.bin, Args: probe[1:], Err: err})
	}

	out, err := m.runner.Output(ctx, resolved, probe[1:]...)
	if err != nil {
		return "", appErrors.New(appErrors.CodePackageManagerMissing, "",
			ManagerError{Kind: ManagerErrorCommandFailed, Bin: m.bin, Args: probe[1:], Err: err})
	}
	return strings.TrimSpace(string(out)), nil
}

// Upgrade runs the upgrade synchronously with output attached to stdout and
// stderr. Failures carry CodeUpgradeFailed.
func (m *Manager) Upgrade(ctx context.Context, pkg string, stdout, stderr io.Writer) error {
	pkg = strings.TrimSpace(pkg)
	if pkg == "" {
		return fmt.Errorf("package name is required for upgrade")
	}
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	cmd := m.UpgradeCommand(pkg)
	if err := m.runner.Stream(ctx, stdout, stderr, cmd[0], cmd[1:]...); err != nil {
		return appErrors.New(appErrors.CodeUpgradeFailed, "",
			ManagerError{Kind: ManagerErrorCommandFailed, Bin: m.bin, Args: cmd[1:], Err: err})
	}
	return nil
}
