package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInput_Accessors(t *testing.T) {
	in := NewInput(1, "two").With("times", 10)

	assert.Equal(t, 1, in.Arg(0))
	assert.Equal(t, "two", in.Arg(1))
	assert.Nil(t, in.Arg(2))
	assert.Nil(t, in.Arg(-1))

	v, ok := in.Kwarg("times")
	assert.True(t, ok)
	assert.Equal(t, 10, v)

	_, ok = in.Kwarg("missing")
	assert.False(t, ok)
}

func TestInput_CloneIsIndependent(t *testing.T) {
	in := NewInput(1).With("a", 1)
	cp := in.Clone()

	cp.Args[0] = 2
	cp.Kwargs["a"] = 2

	assert.Equal(t, 1, in.Arg(0))
	assert.Equal(t, 1, in.Kwargs["a"])
}

func TestAsNodeLog(t *testing.T) {
	log := NodeLog{Output: 3}

	got, ok := AsNodeLog(log)
	assert.True(t, ok)
	assert.Equal(t, 3, got.Output)

	got, ok = AsNodeLog(&log)
	assert.True(t, ok)
	assert.Equal(t, 3, got.Output)

	got, ok = AsNodeLog(map[string]any{"output": 4, "error": "boom"})
	assert.True(t, ok)
	assert.Equal(t, 4, got.Output)
	assert.Equal(t, "boom", got.Error)

	_, ok = AsNodeLog("nope")
	assert.False(t, ok)
}

func TestSnapshot_Logs(t *testing.T) {
	snap := Snapshot{Context: map[string]map[string]any{
		ProgressScope: {".a": NodeLog{Output: 1}},
	}}

	log, ok := snap.Logs(".a")
	assert.True(t, ok)
	assert.Equal(t, 1, log.Output)

	_, ok = snap.Logs(".b")
	assert.False(t, ok)
}
