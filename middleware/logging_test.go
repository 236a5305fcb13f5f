package middleware_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/flowmesh/flow"
	"github.com/hupe1980/flowmesh/internal/testutil"
	"github.com/hupe1980/flowmesh/logging"
	"github.com/hupe1980/flowmesh/middleware"
)

func TestLogging_FlowLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLogger(&logging.LoggerConfig{Level: logging.LogLevelInfo, Format: "json", Output: &buf})

	s, err := flow.Seq(testutil.NewIncrementBy(1), testutil.NewMultiplyBy(2))
	require.NoError(t, err)
	use(s, middleware.Logging(logger))

	_, err = s.Call(context.Background(), 1)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)

	paths := map[string]string{}
	for _, line := range lines {
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		assert.Equal(t, s.LastRun().ID, rec["run_id"])
		assert.Equal(t, true, rec["success"])
		assert.Equal(t, "middleware", rec["component"])
		paths[rec["node_path"].(string)] = rec["type"].(string)
	}
	assert.Equal(t, map[string]string{
		".":                  "flow.Sequential",
		".func0_IncrementBy": "testutil.IncrementBy",
		".func1_MultiplyBy":  "testutil.MultiplyBy",
	}, paths)
}

func TestLogging_FallsBackToOwnerLogger(t *testing.T) {
	rec := &recordingLogger{}
	n, err := flow.Func(func(context.Context, flow.Input) (any, error) {
		return nil, assert.AnError
	}, func(o *flow.Options) {
		o.Logger = rec
		o.Middleware = []flow.Middleware{middleware.Logging(nil)}
	})
	require.NoError(t, err)

	_, err = n.Flow().Call(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{"node failed"}, rec.messages("error"))
}
