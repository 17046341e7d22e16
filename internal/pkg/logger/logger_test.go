package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(os.Stdout) })
	return &buf
}

func TestRequestLogLevels(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{200, "info"},
		{403, "warn"},
		{500, "error"},
	}
	for _, tt := range tests {
		buf := captureOutput(t)
		RequestLog("req-1", "alice", "GET", "/api/v1/dashboards", tt.status, 5*time.Millisecond)

		var entry LogEntry
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, tt.level, entry.Level)
		assert.Equal(t, tt.status, entry.Status)
		assert.Equal(t, "req-1", entry.RequestID)
	}
}

func TestDecisionLogDistinguishesOutcomes(t *testing.T) {
	buf := captureOutput(t)

	DecisionLog("req-1", "alice", "dashboard_view", "denied", "dash-1")
	DecisionLog("req-2", "bob", "dashboard_view", "not_found", "ghost")

	dec := json.NewDecoder(buf)
	var denied, missing LogEntry
	require.NoError(t, dec.Decode(&denied))
	require.NoError(t, dec.Decode(&missing))

	assert.Equal(t, "warn", denied.Level)
	assert.Equal(t, "denied", denied.Outcome)
	assert.Equal(t, "info", missing.Level)
	assert.Equal(t, "not_found", missing.Outcome)
}
