package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// BasicLogger writes formatted log lines to an io.Writer. It is the default
// implementation for cmd/server; hosts embedding the relay supply their own.
type BasicLogger struct {
	mu     *sync.Mutex
	out    io.Writer
	fields []Field
}

var _ Logger = (*BasicLogger)(nil)

// New returns a basic logger writing to stdout.
func New() *BasicLogger {
	return &BasicLogger{
		mu:  &sync.Mutex{},
		out: os.Stdout,
	}
}

// NewWithWriter returns a basic logger writing to the provided writer.
func NewWithWriter(w io.Writer) *BasicLogger {
	l := New()
	if w != nil {
		l.out = w
	}
	return l
}

// With returns a logger that includes the fields on every subsequent line.
func (l *BasicLogger) With(fields ...Field) Logger {
	if len(fields) == 0 {
		return l
	}
	next := &BasicLogger{
		mu:  l.mu,
		out: l.out,
	}
	next.fields = append(append([]Field(nil), l.fields...), fields...)
	return next
}

func (l *BasicLogger) Debug(msg string, fields ...Field) { l.log("DEBUG", msg, fields) }
func (l *BasicLogger) Info(msg string, fields ...Field)  { l.log("INFO", msg, fields) }
func (l *BasicLogger) Warn(msg string, fields ...Field)  { l.log("WARN", msg, fields) }
func (l *BasicLogger) Error(msg string, fields ...Field) { l.log("ERROR", msg, fields) }

func (l *BasicLogger) log(level, msg string, fields []Field) {
	line := fmt.Sprintf("[%s] %s", level, msg)
	if rendered := formatFields(append(append([]Field(nil), l.fields...), fields...)); rendered != "" {
		line += " " + rendered
	}
	l.mu.Lock()
	fmt.Fprintln(l.out, line)
	l.mu.Unlock()
}

func formatFields(fields []Field) string {
	if len(fields) == 0 {
		return ""
	}
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s=%s", f.Key, fmt.Sprint(f.Value)))
	}
	return strings.Join(parts, " ")
}
