// Package logger provides structured JSON logging with request correlation.
// No PII or secrets are logged; request_id enables traceability in production.
package logger

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"
)

// LogEntry is the structured log payload (JSON). Safe for aggregation.
type LogEntry struct {
	Time       string  `json:"time"`
	Level      string  `json:"level"`
	RequestID  string  `json:"request_id,omitempty"`
	UserID     string  `json:"user_id,omitempty"`
	Method     string  `json:"method,omitempty"`
	Path       string  `json:"path,omitempty"`
	Status     int     `json:"status,omitempty"`
	DurationMs float64 `json:"duration_ms,omitempty"`
	Operation  string  `json:"operation,omitempty"`
	Outcome    string  `json:"outcome,omitempty"`
	Message    string  `json:"message,omitempty"`
	Error      string  `json:"error,omitempty"`
}

var (
	mu  sync.Mutex
	out io.Writer = os.Stdout
)

// SetOutput redirects log output; used by tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
}

func write(entry LogEntry) {
	entry.Time = time.Now().UTC().Format(time.RFC3339Nano)
	mu.Lock()
	defer mu.Unlock()
	_ = json.NewEncoder(out).Encode(entry)
}

// RequestLog writes a single JSON line for an HTTP request (after response).
// Use from middleware.
func RequestLog(reqID, userID, method, path string, status int, duration time.Duration) {
	level := "info"
	if status >= 500 {
		level = "error"
	} else if status >= 400 {
		level = "warn"
	}
	write(LogEntry{
		Level:      level,
		RequestID:  reqID,
		UserID:     userID,
		Method:     method,
		Path:       path,
		Status:     status,
		DurationMs: float64(duration.Microseconds()) / 1000,
	})
}

// DecisionLog records a permission decision. Outcome is one of
// granted|denied|not_found so denials are distinguishable from missing
// entities in aggregated logs.
func DecisionLog(reqID, userID, operation, outcome, message string) {
	level := "info"
	if outcome == "denied" {
		level = "warn"
	}
	write(LogEntry{
		Level:     level,
		RequestID: reqID,
		UserID:    userID,
		Operation: operation,
		Outcome:   outcome,
		Message:   message,
	})
}

// Info writes an informational message.
func Info(message string) {
	write(LogEntry{Level: "info", Message: message})
}

// Error writes an error message.
func Error(message string, err error) {
	entry := LogEntry{Level: "error", Message: message}
	if err != nil {
		entry.Error = err.Error()
	}
	write(entry)
}
