package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLoggerRedactsSensitiveFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, INFO, false)

	l.Info("login attempt", "password", "hunter2", "session_id", "0123456789abcdef", "user_id", 7, "product", "Milk")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "login attempt", entry["message"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "[REDACTED]", entry["password"])
	assert.Equal(t, "0123****", entry["session_id"])
	assert.Equal(t, hashUserID(7), entry["user_id"])
	assert.Equal(t, "Milk", entry["product"])
	assert.Equal(t, "stockroom", entry["service"])
}

func TestLoggerDevDebugKeepsValues(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, DEBUG, true)

	l.Debug("debugging", "user_id", 7)

	entry := decodeLine(t, &buf)
	assert.EqualValues(t, 7, entry["user_id"])
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, WARN, false)

	l.Info("hidden")
	assert.Zero(t, buf.Len())

	l.Error("visible", "error", errors.New("boom"))
	entry := decodeLine(t, &buf)
	assert.Equal(t, "boom", entry["error"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel(" WARN "))
	assert.Equal(t, INFO, ParseLevel("verbose"))
}

func TestInitializeReplacesLazyLogger(t *testing.T) {
	t.Cleanup(func() { Initialize(INFO, false) })

	defaultMu.Lock()
	defaultLogger = nil
	defaultMu.Unlock()

	Warn("before configuration")
	require.Equal(t, INFO, GetLogger().level)

	Initialize(DEBUG, true)
	l := GetLogger()
	assert.Equal(t, DEBUG, l.level)
	assert.True(t, l.isDev)
}
