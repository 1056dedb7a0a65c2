package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Logger defines the interface for logging throughout the stub runner.
// Different implementations can be used for different contexts (console, silent, captured, etc.)
type Logger interface {
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Debug(msg string, args ...interface{})
}

// New returns a logger for the given level name: "debug", "info" or "silent".
// Unknown levels fall back to "info".
func New(level string) Logger {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "silent", "off", "none":
		return NewSilentLogger()
	case "debug":
		return &ConsoleLogger{out: os.Stdout, errOut: os.Stderr, debug: true}
	default:
		return NewConsoleLogger()
	}
}

// ConsoleLogger writes human-readable logs to stdout/stderr.
// Used for normal operation and debugging.
type ConsoleLogger struct {
	mu     sync.Mutex
	out    io.Writer
	errOut io.Writer
	debug  bool
}

func NewConsoleLogger() *ConsoleLogger {
	return &ConsoleLogger{out: os.Stdout, errOut: os.Stderr}
}

// NewWriterLogger writes every level to w. Debug output is included when debug is true.
func NewWriterLogger(w io.Writer, debug bool) *ConsoleLogger {
	return &ConsoleLogger{out: w, errOut: w, debug: debug}
}

func (c *ConsoleLogger) Info(msg string, args ...interface{}) {
	c.write(c.out, "[INFO] ", msg, args)
}

func (c *ConsoleLogger) Warn(msg string, args ...interface{}) {
	c.write(c.errOut, "[WARN] ", msg, args)
}

func (c *ConsoleLogger) Error(msg string, args ...interface{}) {
	c.write(c.errOut, "[ERROR] ", msg, args)
}

func (c *ConsoleLogger) Debug(msg string, args ...interface{}) {
	if !c.debug {
		return
	}
	c.write(c.out, "[DEBUG] ", msg, args)
}

func (c *ConsoleLogger) write(w io.Writer, prefix, msg string, args []interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(w, prefix+msg+"\n", args...)
}

// SilentLogger discards all log messages.
// Used when running the monitor TUI or the MCP server on stdio, where log output
// would interfere with the display or the protocol stream.
type SilentLogger struct{}

func NewSilentLogger() *SilentLogger {
	return &SilentLogger{}
}

func (s *SilentLogger) Info(msg string, args ...interface{})  {}
func (s *SilentLogger) Warn(msg string, args ...interface{})  {}
func (s *SilentLogger) Error(msg string, args ...interface{}) {}
func (s *SilentLogger) Debug(msg string, args ...interface{}) {}

// MemoryLogger keeps formatted entries in memory. Used by tests to assert on
// reported events.
type MemoryLogger struct {
	mu      sync.Mutex
	entries []string
}

func NewMemoryLogger() *MemoryLogger {
	return &MemoryLogger{}
}

func (m *MemoryLogger) Info(msg string, args ...interface{})  { m.add("INFO", msg, args) }
func (m *MemoryLogger) Warn(msg string, args ...interface{})  { m.add("WARN", msg, args) }
func (m *MemoryLogger) Error(msg string, args ...interface{}) { m.add("ERROR", msg, args) }
func (m *MemoryLogger) Debug(msg string, args ...interface{}) { m.add("DEBUG", msg, args) }

func (m *MemoryLogger) add(level, msg string, args []interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, level+" "+fmt.Sprintf(msg, args...))
}

// Entries returns a copy of everything logged so far, formatted as "LEVEL message".
func (m *MemoryLogger) Entries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.entries))
	copy(out, m.entries)
	return out
}

// Contains reports whether any entry at level contains substr.
func (m *MemoryLogger) Contains(level, substr string) bool {
	for _, e := range m.Entries() {
		if strings.HasPrefix(e, level+" ") && strings.Contains(e, substr) {
			return true
		}
	}
	return false
}
