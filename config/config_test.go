package config

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestNew_Defaults(t *testing.T) {
	c := New()

	first := c.RunID()
	second := c.RunID()
	_, err := uuid.Parse(first)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.Empty(t, c.StoreResult())
}

func TestNew_TimestampStrategy(t *testing.T) {
	c := New(func(o *Options) {
		o.RunIDStrategy = RunIDTimestamp
		o.StoreResult = "runs"
	})

	assert.Regexp(t, `^\d+$`, c.RunID())
	assert.Equal(t, "runs", c.StoreResult())
}

func TestNew_RunIDFunc(t *testing.T) {
	c := New(func(o *Options) {
		o.RunIDFunc = func() string { return "fixed" }
	})

	assert.Equal(t, "fixed", c.RunID())
}

func TestOptions_DecodeYAML(t *testing.T) {
	doc := []byte("run_id: timestamp\nstore_result: /tmp/runs\n")

	opts := DefaultOptions()
	require.NoError(t, yaml.Unmarshal(doc, &opts))

	c := New(func(o *Options) { *o = opts })
	assert.Equal(t, RunIDTimestamp, c.Options().RunIDStrategy)
	assert.Equal(t, "/tmp/runs", c.StoreResult())
}
