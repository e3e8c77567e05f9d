// Package logx provides a small leveled logger with a component prefix.
package logx

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

var (
	debugEnabled = os.Getenv("MOCKLY_DEBUG") == "1" || os.Getenv("MOCKLY_DEBUG") == "true"
	outputMu     sync.RWMutex
)

var output io.Writer = os.Stderr

// Logger writes leveled lines tagged with a component name
type Logger struct {
	component string
}

// NewLogger creates a logger for a component
func NewLogger(component string) *Logger {
	return &Logger{component: component}
}

// SetOutput redirects all loggers, mainly for tests
func SetOutput(w io.Writer) {
	outputMu.Lock()
	defer outputMu.Unlock()
	output = w
}

// SetDebug toggles debug output
func SetDebug(enabled bool) {
	outputMu.Lock()
	defer outputMu.Unlock()
	debugEnabled = enabled
}

func (l *Logger) log(level Level, format string, args ...any) {
	outputMu.RLock()
	w := output
	debug := debugEnabled
	outputMu.RUnlock()

	if level == LevelDebug && !debug {
		return
	}
	logger := log.New(w, "", log.LstdFlags)
	logger.Printf("[%s] %s: %s", l.component, level, fmt.Sprintf(format, args...))
}

func (l *Logger) Debug(format string, args ...any) { l.log(LevelDebug, format, args...) }
func (l *Logger) Info(format string, args ...any) { l.log(LevelInfo, format, args...) }
func (l *Logger) Warn(format string, args ...any) { l.log(LevelWarn, format, args...) }
func (l *Logger) Error(format string, args ...any) { l.log(LevelError, format, args...) }
