package contextstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/flowmesh/core"
)

func TestInMemoryStore_Contract(t *testing.T) {
	runStoreContract(t, func(*testing.T) core.ContextStore {
		return NewInMemoryStore()
	})
}

func TestInMemoryStore_SharesReferences(t *testing.T) {
	s := NewInMemoryStore()
	v := map[string]any{"k": 1}
	require.NoError(t, s.Set("m", v, core.GlobalScope))

	v["k"] = 2
	got, _, err := s.Get("m", core.GlobalScope)
	require.NoError(t, err)
	assert.Equal(t, 2, got.(map[string]any)["k"])
	assert.False(t, core.IsProcessSafe(s))
}

func TestInMemoryStore_MakeProcessSafe(t *testing.T) {
	s := NewInMemoryStore()
	require.NoError(t, s.CreateScope(".a", false))
	require.NoError(t, s.Set("k", 5, ".a"))

	shared, err := s.MakeProcessSafe()
	require.NoError(t, err)
	defer func() { _ = shared.Close() }()

	assert.True(t, core.IsProcessSafe(shared))
	v, ok, err := shared.Get("k", ".a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 5, v)
}
