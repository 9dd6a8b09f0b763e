// Package debug provides debug logging infrastructure for pypi-latest.
// Logging is only enabled when --debug is passed (or debug: true is configured).
// Logs are written to ~/.pypi-latest/debug.log, truncated on each launch.
package debug

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	// LogFileName is the name of the debug log file.
	LogFileName = "debug.log"
	// LogDirName is the name of the directory containing the log file.
	LogDirName = ".pypi-latest"
)

// getLogPath is a function variable to allow overriding in tests.
var getLogPath = defaultGetLogPath

// Log owns the debug logger and the file backing it.
type Log struct {
	logger  zerolog.Logger
	enabled bool

	mu   sync.Mutex
	file *os.File
}

// Open initializes debug logging.
// If enable is false the returned logger discards everything.
// If enable is true the log file is created/truncated at ~/.pypi-latest/debug.log.
func Open(enable bool) (*Log, error) {
	if !enable {
		return &Log{logger: zerolog.Nop()}, nil
	}

	logPath, err := getLogPath()
	if err != nil {
		return nil, fmt.Errorf("determine log path: %w", err)
	}

	dir := filepath.Dir(logPath)
	//nolint:gosec // G301: User config directory needs standard permissions
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	//nolint:gosec // G304: Log path is computed from user home, not user input
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	out := zerolog.ConsoleWriter{Out: f, NoColor: true, TimeFormat: "2006/01/02 15:04:05.000000"}
	logger := zerolog.New(out).Level(zerolog.DebugLevel).With().Timestamp().Logger()
	logger.Debug().Msgf("=== pypi-latest debug log started at %s ===", time.Now().Format(time.RFC3339))

	return &Log{logger: logger, enabled: true, file: f}, nil
}

// Logger returns the logger to hand to components.
func (l *Log) Logger() zerolog.Logger {
	if l == nil {
		return zerolog.Nop()
	}
	return l.logger
}

// Enabled returns whether debug logging is active.
func (l *Log) Enabled() bool {
	return l != nil && l.enabled
}

// Close closes the debug log file if open.
// Safe to call even if logging is disabled.
func (l *Log) Close() {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		_ = l.file.Close()
		l.file = nil
	}
}

func defaultGetLogPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determine user home: %w", err)
	}
	return filepath.Join(home, LogDirName, LogFileName), nil
}

// GetLogPath returns the path to the debug log file.
func GetLogPath() (string, error) {
	return getLogPath()
}
