package contextstore

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/flowmesh/core"
)

// runStoreContract exercises the behaviour every core.ContextStore shares.
func runStoreContract(t *testing.T, newStore func(t *testing.T) core.ContextStore) {
	t.Run("global scope set and get", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set("run_id", "abc", core.GlobalScope))

		v, ok, err := s.Get("run_id", core.GlobalScope)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "abc", v)

		_, ok, err = s.Get("missing", core.GlobalScope)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, "fallback", core.GetOr(s, "missing", "fallback", core.GlobalScope))
	})

	t.Run("unknown scope", func(t *testing.T) {
		s := newStore(t)
		err := s.Set("k", "v", ".node")
		assert.ErrorIs(t, err, ErrScopeNotFound)

		_, _, err = s.Get("k", ".node")
		assert.ErrorIs(t, err, ErrScopeNotFound)
		assert.False(t, s.HasScope(".node"))
	})

	t.Run("create scope", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.CreateScope(".node", false))
		assert.True(t, s.HasScope(".node"))
		assert.ErrorIs(t, s.CreateScope(".node", false), ErrScopeExists)
		assert.NoError(t, s.CreateScope(".node", true))

		require.NoError(t, s.Set("a", "1", ".node"))
		require.NoError(t, s.Set("b", "2", ".node"))
		all, err := s.GetAll(".node")
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"a": "1", "b": "2"}, all)

		require.NoError(t, s.Delete("a", ".node"))
		all, err = s.GetAll(".node")
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"b": "2"}, all)
	})

	t.Run("clear all", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.CreateScope(".node", true))
		require.NoError(t, s.Set("a", "1", ".node"))
		require.NoError(t, s.Set("g", "1", core.GlobalScope))

		require.NoError(t, s.ClearAll())
		assert.False(t, s.HasScope(".node"))
		assert.True(t, s.HasScope(core.GlobalScope))
		assert.True(t, s.HasScope(core.ProgressScope))
		_, ok, err := s.Get("g", core.GlobalScope)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("logs", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(".func0_Add", core.NodeLog{Input: core.NewInput("x"), Output: "y"}, core.ProgressScope))

		log, ok, err := s.Logs(".func0_Add")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "y", log.Output)
		assert.Equal(t, []any{"x"}, log.Input.Args)

		_, ok, err = s.Logs(".other")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("dump", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.CreateScope(".n", true))
		require.NoError(t, s.Set("k", "v", ".n"))

		dump, err := s.Dump()
		require.NoError(t, err)
		assert.Equal(t, "v", dump[".n"]["k"])
		assert.Contains(t, dump, core.GlobalScope)
	})

	t.Run("concurrent writers", func(t *testing.T) {
		s := newStore(t)
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				assert.NoError(t, s.Set(fmt.Sprintf(".n[%d]", i), "done", core.ProgressScope))
			}(i)
		}
		wg.Wait()

		all, err := s.GetAll(core.ProgressScope)
		require.NoError(t, err)
		assert.Len(t, all, 16)
	})
}
