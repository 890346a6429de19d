package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// Leveled process logger for the SIRET API.
// Lines look like: 2024-01-02T15:04:05Z [WARN] message
// Output goes to stdout and, after OpenFile, to a log file as well.

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelFatal:
		return "fatal"
	}
	return "info"
}

var (
	mu     sync.RWMutex
	logger *log.Logger = log.New(os.Stdout, "", 0)
	level  Level       = LevelInfo
)

// ParseLevel maps debug|info|warn|warning|error|fatal (any case) to a Level.
// Unknown input yields LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "fatal":
		return LevelFatal
	}
	return LevelInfo
}

// Init sets the global log level. Call early during startup.
func Init(l string) {
	mu.Lock()
	defer mu.Unlock()
	level = ParseLevel(l)
}

// SetOutput redirects all log lines to w.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = log.New(w, "", 0)
}

// OpenFile appends log lines to path in addition to stdout.
// The returned closer releases the file; callers defer it in main.
func OpenFile(path string) (io.Closer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	SetOutput(io.MultiWriter(os.Stdout, f))
	return f, nil
}

func output(l Level, format string, v ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	if l < level {
		return
	}
	header := fmt.Sprintf("%s [%s] ", time.Now().UTC().Format(time.RFC3339), strings.ToUpper(l.String()))
	logger.Printf(header+format, v...)
}

func Debugf(format string, v ...interface{}) { output(LevelDebug, format, v...) }
func Infof(format string, v ...interface{})  { output(LevelInfo, format, v...) }
func Warnf(format string, v ...interface{})  { output(LevelWarn, format, v...) }
func Errorf(format string, v ...interface{}) { output(LevelError, format, v...) }

func Fatalf(format string, v ...interface{}) {
	output(LevelFatal, format, v...)
	os.Exit(1)
}

func Info(v string) { Infof("%s", v) }
func Warn(v string) { Warnf("%s", v) }

// LevelString returns the current level as text.
func LevelString() string {
	mu.RLock()
	defer mu.RUnlock()
	return level.String()
}
