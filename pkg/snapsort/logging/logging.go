// Package logging provides component loggers for snapsort, backed by
// charmbracelet/log and a size-rotated log file.
//
// Loggers obtained before Init discard everything, so library packages can
// log unconditionally and tests stay silent:
//
//	if err := logging.Init(logging.Config{Level: "info"}); err != nil {
//	    return err
//	}
//	defer logging.Close()
//
//	logging.Get("placer").Info("placed", "src", src, "dst", dst)
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
)

// ErrInvalidLevel is returned for an unrecognized level name.
var ErrInvalidLevel = errors.New("invalid log level")

// ParseLevel maps a level name to a charmbracelet/log level.
func ParseLevel(s string) (log.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return log.DebugLevel, nil
	case "", "info":
		return log.InfoLevel, nil
	case "warn", "warning":
		return log.WarnLevel, nil
	case "error":
		return log.ErrorLevel, nil
	default:
		return log.InfoLevel, fmt.Errorf("%w: %s", ErrInvalidLevel, s)
	}
}

// Config configures the logging system.
type Config struct {
	// Level is the default file log level.
	Level string

	// Path is the log file. Empty uses DefaultLogPath.
	Path string

	// Rotation controls size-based rotation of Path.
	Rotation RotationConfig

	// Components overrides Level per component name.
	Components map[string]string

	// ConsoleLevel mirrors records at or above this level to Console.
	// Empty disables console output.
	ConsoleLevel string

	// Console is the console destination. Defaults to os.Stderr.
	Console io.Writer
}

// Logger writes records for one component to the log file and, when
// enabled, to the console.
type Logger struct {
	component string
	file      *log.Logger
	console   *log.Logger
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, kv ...any) { l.emit(log.DebugLevel, msg, kv) }

// Info logs at info level.
func (l *Logger) Info(msg string, kv ...any) { l.emit(log.InfoLevel, msg, kv) }

// Warn logs at warn level.
func (l *Logger) Warn(msg string, kv ...any) { l.emit(log.WarnLevel, msg, kv) }

// Error logs at error level.
func (l *Logger) Error(msg string, kv ...any) { l.emit(log.ErrorLevel, msg, kv) }

func (l *Logger) emit(level log.Level, msg string, kv []any) {
	l.file.Log(level, msg, kv...)
	if l.console != nil {
		l.console.Log(level, msg, kv...)
	}
}

// With returns a logger that adds kv to every record.
func (l *Logger) With(kv ...any) *Logger {
	out := &Logger{component: l.component, file: l.file.With(kv...)}
	if l.console != nil {
		out.console = l.console.With(kv...)
	}
	return out
}

// Component returns the component name.
func (l *Logger) Component() string { return l.component }

type registry struct {
	mu         sync.Mutex
	ready      bool
	cfg        Config
	level      log.Level
	console    log.Level
	components map[string]log.Level
	writer     *RotatingWriter
	loggers    map[string]*Logger
}

var global = &registry{loggers: make(map[string]*Logger)}

// Init opens the log file and reconfigures every logger handed out so far.
// Calling Init again replaces the previous configuration.
func Init(cfg Config) error {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}

	components := make(map[string]log.Level, len(cfg.Components))
	for name, lvl := range cfg.Components {
		parsed, err := ParseLevel(lvl)
		if err != nil {
			return fmt.Errorf("parsing level for component %s: %w", name, err)
		}
		components[name] = parsed
	}

	var consoleLevel log.Level
	if cfg.ConsoleLevel != "" {
		consoleLevel, err = ParseLevel(cfg.ConsoleLevel)
		if err != nil {
			return fmt.Errorf("parsing console level: %w", err)
		}
		if cfg.Console == nil {
			cfg.Console = os.Stderr
		}
	}

	if cfg.Path == "" {
		cfg.Path = DefaultLogPath()
	}
	writer, err := NewRotatingWriter(cfg.Path, cfg.Rotation)
	if err != nil {
		return fmt.Errorf("creating log writer: %w", err)
	}

	global.mu.Lock()
	defer global.mu.Unlock()

	if global.writer != nil {
		_ = global.writer.Close()
	}
	global.ready = true
	global.cfg = cfg
	global.level = level
	global.console = consoleLevel
	global.components = components
	global.writer = writer

	for name, l := range global.loggers {
		*l = *global.build(name)
	}
	return nil
}

// Get returns the logger for component, creating it on first use.
func Get(component string) *Logger {
	global.mu.Lock()
	defer global.mu.Unlock()

	if l, ok := global.loggers[component]; ok {
		return l
	}
	l := global.build(component)
	global.loggers[component] = l
	return l
}

// build must be called with r.mu held.
func (r *registry) build(component string) *Logger {
	if !r.ready {
		return &Logger{
			component: component,
			file:      log.NewWithOptions(io.Discard, log.Options{Prefix: component}),
		}
	}

	level := r.level
	if override, ok := r.components[component]; ok {
		level = override
	}

	l := &Logger{
		component: component,
		file: log.NewWithOptions(r.writer, log.Options{
			Level:           level,
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Prefix:          component,
		}),
	}
	if r.cfg.ConsoleLevel != "" {
		l.console = log.NewWithOptions(r.cfg.Console, log.Options{
			Level:           r.console,
			ReportTimestamp: true,
			TimeFormat:      "15:04:05",
			Prefix:          component,
		})
	}
	return l
}

// Close flushes the log file and returns loggers to discard mode.
func Close() error {
	global.mu.Lock()
	defer global.mu.Unlock()

	if !global.ready {
		return nil
	}
	global.ready = false

	var err error
	if global.writer != nil {
		err = global.writer.Close()
		global.writer = nil
	}
	for name, l := range global.loggers {
		*l = *global.build(name)
	}
	if err != nil {
		return fmt.Errorf("closing log writer: %w", err)
	}
	return nil
}

// DefaultLogPath returns $XDG_STATE_HOME/snapsort/snapsort.log.
func DefaultLogPath() string {
	return filepath.Join(xdg.StateHome, "snapsort", "snapsort.log")
}

// DefaultConfig returns info-level file logging at DefaultLogPath.
func DefaultConfig() Config {
	return Config{
		Level:    "info",
		Path:     DefaultLogPath(),
		Rotation: DefaultRotationConfig(),
	}
}
