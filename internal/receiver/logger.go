package receiver

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"
)

// Logger provides structured debug logging of received log records.
// Implementations must be safe for concurrent use.
type Logger interface {
	// LogRecord logs one received record and what became of it.
	LogRecord(transport string, rec Record)
}

// NopLogger discards all log output. This is the default when debug logging
// is not enabled.
type NopLogger struct{}

func (NopLogger) LogRecord(string, Record) {}

// logEntry is the JSON structure written by FileLogger.
type logEntry struct {
	Timestamp  string            `json:"ts"`
	Transport  string            `json:"transport"`
	Severity   string            `json:"severity,omitempty"`
	Message    string            `json:"message,omitempty"`
	Outcome    string            `json:"outcome"`
	Attributes map[string]string `json:"attrs,omitempty"`
}

// FileLogger writes one JSON object per line to an io.Writer.
type FileLogger struct {
	w  io.Writer
	mu sync.Mutex
}

func NewFileLogger(w io.Writer) *FileLogger {
	return &FileLogger{w: w}
}

func (l *FileLogger) LogRecord(transport string, rec Record) {
	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	entry := logEntry{
		Timestamp:  ts.UTC().Format(time.RFC3339Nano),
		Transport:  transport,
		Severity:   string(rec.Event.Severity),
		Message:    rec.Event.Message,
		Outcome:    rec.Outcome,
		Attributes: rec.Attributes,
	}

	l.write(entry)
}

// write serialises a logEntry as a single line. Serialisation errors are
// dropped so they never disrupt the receiver.
func (l *FileLogger) write(entry logEntry) {
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, "%s\n", data)
}
