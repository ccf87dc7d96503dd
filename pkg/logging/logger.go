package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
)

// Level is the severity of a log entry.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelSuccess
	LevelWarn
	LevelError
)

var levelNames = map[Level]string{
	LevelDebug:   "DEBUG",
	LevelInfo:    "INFO",
	LevelSuccess: "SUCCESS",
	LevelWarn:    "WARN",
	LevelError:   "ERROR",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

// ParseLevel maps a verbosity name to the minimum level it shows.
// quiet shows warnings and errors, normal adds info, verbose and debug
// show everything. Level names such as "warn" are accepted too.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "normal", "info":
		return LevelInfo, nil
	case "quiet", "warn", "warning":
		return LevelWarn, nil
	case "verbose", "debug":
		return LevelDebug, nil
	case "success":
		return LevelSuccess, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("invalid log level: %s (must be 'quiet', 'normal', 'verbose', or 'debug')", s)
}

var levelStyles = map[Level]lipgloss.Style{
	LevelDebug:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	LevelInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("217")),
	LevelSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
	LevelWarn:    lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	LevelError:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
}

var (
	// Run ID shared by every logger of this process
	runID     string
	runIDOnce sync.Once
)

func getRunID() string {
	runIDOnce.Do(func() {
		runID = uuid.New().String()
	})
	return runID
}

// RunID returns the identifier of the current run.
func RunID() string {
	return getRunID()
}

// DefaultDir returns ~/.forumwalk/logs.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".forumwalk", "logs"), nil
}

// Options configures New.
type Options struct {
	// Level is the minimum level written.
	Level Level

	// Console receives every entry; nil means os.Stdout.
	Console io.Writer

	// Dir, when set, also writes entries to <Dir>/<run-id>-forumwalk.log.
	Dir string

	// Color styles console entries by level.
	Color bool
}

// sink is the output shared by a logger and the loggers derived from it.
type sink struct {
	mu        sync.Mutex
	console   io.Writer
	file      *os.File
	path      string
	color     bool
	closeOnce sync.Once
}

// Logger writes leveled, component-tagged entries:
//
//	[2006-01-02 15:04:05.000] [component] [LEVEL] message
type Logger struct {
	component string
	level     Level
	sink      *sink
}

// New creates a logger for component.
//
// If the log directory or file cannot be created, the returned logger
// writes to the console only and the error is returned alongside it so
// callers can warn about the fallback.
func New(component string, opts Options) (*Logger, error) {
	console := opts.Console
	if console == nil {
		console = os.Stdout
	}
	s := &sink{console: console, color: opts.Color}
	l := &Logger{component: component, level: opts.Level, sink: s}

	if opts.Dir == "" {
		return l, nil
	}
	if err := os.MkdirAll(opts.Dir, 0750); err != nil {
		return l, fmt.Errorf("failed to create log directory: %w", err)
	}
	path := filepath.Join(opts.Dir, fmt.Sprintf("%s-forumwalk.log", getRunID()))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return l, fmt.Errorf("failed to open log file: %w", err)
	}
	s.file = file
	s.path = path
	return l, nil
}

// Discard returns a logger that writes nothing.
func Discard() *Logger {
	return &Logger{component: "discard", level: LevelError + 1, sink: &sink{console: io.Discard}}
}

// With returns a logger for another component on the same output.
func (l *Logger) With(component string) *Logger {
	return &Logger{component: component, level: l.level, sink: l.sink}
}

// Enabled reports whether entries at level are written.
func (l *Logger) Enabled(level Level) bool {
	return level >= l.level
}

func (l *Logger) formatLogEntry(level Level, message string) string {
	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	return fmt.Sprintf("[%s] [%s] [%s] %s", timestamp, l.component, level, message)
}

func (l *Logger) log(level Level, format string, v ...interface{}) {
	if !l.Enabled(level) {
		return
	}
	entry := l.formatLogEntry(level, fmt.Sprintf(format, v...))

	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()

	line := entry
	if l.sink.color {
		line = levelStyles[level].Render(entry)
	}
	fmt.Fprintln(l.sink.console, line)
	if l.sink.file != nil {
		fmt.Fprintln(l.sink.file, entry)
	}
}

// Printf logs an info-level message.
func (l *Logger) Printf(format string, v ...interface{}) {
	l.log(LevelInfo, format, v...)
}

// Debugf logs a debug-level message.
func (l *Logger) Debugf(format string, v ...interface{}) {
	l.log(LevelDebug, format, v...)
}

// Infof logs an info-level message.
func (l *Logger) Infof(format string, v ...interface{}) {
	l.log(LevelInfo, format, v...)
}

// Successf logs a completed milestone.
func (l *Logger) Successf(format string, v ...interface{}) {
	l.log(LevelSuccess, format, v...)
}

// Warnf logs a warning-level message.
func (l *Logger) Warnf(format string, v ...interface{}) {
	l.log(LevelWarn, format, v...)
}

// Errorf logs an error-level message.
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.log(LevelError, format, v...)
}

// Writer returns the console writer.
func (l *Logger) Writer() io.Writer {
	return l.sink.console
}

// LogPath returns the log file path, or "" when logging to the console only.
func (l *Logger) LogPath() string {
	return l.sink.path
}

// Close closes the log file. Safe to call multiple times and from any
// logger sharing the output.
func (l *Logger) Close() error {
	var err error
	l.sink.closeOnce.Do(func() {
		l.sink.mu.Lock()
		defer l.sink.mu.Unlock()
		if l.sink.file != nil {
			err = l.sink.file.Close()
			l.sink.file = nil
		}
	})
	return err
}
