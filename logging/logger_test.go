package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newBufferLogger(buf *bytes.Buffer, level LogLevel) *FlowLogger {
	cfg := DefaultLoggerConfig()
	cfg.Output = buf
	cfg.Level = level
	cfg.AddSource = false
	return NewLogger(cfg)
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	return entry
}

func TestFlowLogger_KeyValueArgs(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf, LogLevelDebug).WithComponent("flow").WithRun("r1").WithPath(".add")

	l.Debug("node call started", "type", "Add", "depth", 1)

	entry := decodeLine(t, &buf)
	assert.Equal(t, "node call started", entry["msg"])
	assert.Equal(t, "flow", entry["component"])
	assert.Equal(t, "r1", entry["run_id"])
	assert.Equal(t, ".add", entry["path"])
	assert.Equal(t, "Add", entry["type"])
	assert.Equal(t, float64(1), entry["depth"])
}

func TestFlowLogger_FormatArgs(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf, LogLevelInfo)

	l.Info("processed %d tasks", 3)

	entry := decodeLine(t, &buf)
	assert.Equal(t, "processed 3 tasks", entry["msg"])
}

func TestFlowLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf, LogLevelWarn)

	l.Info("hidden")
	assert.Zero(t, buf.Len())

	l.Warn("shown")
	assert.NotZero(t, buf.Len())
}

func TestFlowLogger_WithDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := newBufferLogger(&buf, LogLevelInfo)
	_ = parent.WithContext("k", "v").WithPath(".x")

	parent.Info("plain")
	entry := decodeLine(t, &buf)
	assert.NotContains(t, entry, "k")
	assert.NotContains(t, entry, "path")
}

func TestFlowLogger_LogNodeExecution(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf, LogLevelInfo)

	l.LogNodeExecution(".func0_Add", 5*time.Millisecond, errors.New("boom"))

	entry := decodeLine(t, &buf)
	assert.Equal(t, "Node execution failed", entry["msg"])
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, ".func0_Add", entry["node_path"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, false, entry["success"])
}

func TestFlowLogger_LogFanOut(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf, LogLevelInfo)

	l.LogFanOut("increment_by", 10, 4, time.Millisecond, nil)

	entry := decodeLine(t, &buf)
	assert.Equal(t, "Fan-out completed", entry["msg"])
	assert.Equal(t, float64(10), entry["task_count"])
	assert.Equal(t, float64(4), entry["workers"])
}

func TestZapAdapter(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	var l Logger = NewZapAdapter(zap.New(core))

	l.Debug("debug", "path", ".a")
	l.Info("info")
	l.Warn("warn")
	l.Error("error", "err", "boom")

	require.Equal(t, 4, logs.Len())
	entries := logs.All()
	assert.Equal(t, "debug", entries[0].Message)
	assert.Equal(t, ".a", entries[0].ContextMap()["path"])
	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
	assert.Equal(t, "boom", entries[3].ContextMap()["err"])
}

func TestZapAdapter_NilLogger(t *testing.T) {
	l := NewZapAdapter(nil)
	l.Info("discarded")
	assert.NoError(t, l.Sync())
}

func TestNoOpLogger(t *testing.T) {
	var l Logger = NoOpLogger{}
	l.Debug("a")
	l.Info("b")
	l.Warn("c")
	l.Error("d")
}
