// Package logging provides the small leveled logger every oniond
// service writes through. It keeps the teacher's plain stdlib "log"
// style rather than adopting a structured logging library: the
// teacher's own code has no logging dependency at all, and the
// original implementation's Logger is itself just a level filter in
// front of a handful of handlers, which stdlib log.Logger already
// models closely.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

// Level is the severity of a log message, ordered least to most
// severe, matching the original implementation's DEBUG/INFO/WARN/ERROR
// hierarchy.
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

// ParseLevel maps the configuration file's enum values to a Level.
// Unrecognized names default to Info.
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return Debug
	case "warning", "warn":
		return Warn
	case "error":
		return Error
	default:
		return Info
	}
}

func (l Level) String() string {
	switch l {
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warn:
		return "WARN"
	case Error:
		return "ERROR"
	default:
		return "INFO"
	}
}

// Logger filters messages below its configured level and writes the
// survivors, through one *log.Logger per handler, to every registered
// handler.
type Logger struct {
	mu       sync.Mutex
	level    Level
	handlers []*log.Logger
	closers  []io.Closer
}

// New returns a Logger at the given level with no handlers attached;
// messages are dropped until AddWriter or AddFile attaches one.
func New(level Level) *Logger {
	return &Logger{level: level}
}

// AddWriter attaches an output destination. Handlers format identically;
// only the destination differs (stderr for the console, a file for
// persistent logs).
func (l *Logger) AddWriter(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handlers = append(l.handlers, log.New(w, "", log.LstdFlags))
}

// AddFile opens path for appending and attaches it as a handler. The
// returned error is the caller's to decide whether it's fatal.
func (l *Logger) AddFile(path string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("logging: open %s: %w", path, err)
	}
	l.mu.Lock()
	l.handlers = append(l.handlers, log.New(f, "", log.LstdFlags))
	l.closers = append(l.closers, f)
	l.mu.Unlock()
	return nil
}

// Close releases any file handlers opened via AddFile.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	var err error
	for _, c := range l.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

func (l *Logger) log(level Level, scope, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.level {
		return
	}
	msg := fmt.Sprintf(format, args...)
	for _, h := range l.handlers {
		h.Printf("[%s] %s: %s", level, scope, msg)
	}
}

// Debugf logs at Debug level.
func (l *Logger) Debugf(scope, format string, args ...any) { l.log(Debug, scope, format, args...) }

// Infof logs at Info level.
func (l *Logger) Infof(scope, format string, args ...any) { l.log(Info, scope, format, args...) }

// Warnf logs at Warn level.
func (l *Logger) Warnf(scope, format string, args ...any) { l.log(Warn, scope, format, args...) }

// Errorf logs at Error level.
func (l *Logger) Errorf(scope, format string, args ...any) { l.log(Error, scope, format, args...) }
