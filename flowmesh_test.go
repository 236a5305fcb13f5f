package flowmesh_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/flowmesh"
	"github.com/hupe1980/flowmesh/config"
	"github.com/hupe1980/flowmesh/contextstore"
	"github.com/hupe1980/flowmesh/core"
	"github.com/hupe1980/flowmesh/export"
	"github.com/hupe1980/flowmesh/flow"
	"github.com/hupe1980/flowmesh/internal/testutil"
	"github.com/hupe1980/flowmesh/middleware"
)

func TestNew_Defaults(t *testing.T) {
	m := flowmesh.New()
	assert.NotNil(t, m.Store())
	assert.Empty(t, m.Names())
}

func TestMesh_Call(t *testing.T) {
	store := contextstore.NewInMemoryStore()
	m := flowmesh.New(func(o *flowmesh.Options) { o.Store = store })

	s, err := flow.Seq(testutil.NewIncrementBy(1), testutil.NewMultiplyBy(2))
	require.NoError(t, err)
	require.NoError(t, m.Register("double", s))
	assert.Equal(t, []string{"double"}, m.Names())

	run, err := m.Call(context.Background(), "double", core.NewInput(3))
	require.NoError(t, err)
	assert.Equal(t, 8, run.Output)
	assert.Same(t, store, s.At(0).Flow().Store())

	v, ok, err := store.Get(flow.CtxRunID, core.GlobalScope)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, run.ID, v)

	_, err = m.Call(context.Background(), "missing", core.NewInput(1))
	assert.ErrorIs(t, err, flow.ErrInvalidOperation)
}

func TestMesh_Resume(t *testing.T) {
	p, err := export.NewFilePersister(t.TempDir())
	require.NoError(t, err)
	m := flowmesh.New(func(o *flowmesh.Options) {
		o.Persister = p
		o.Middleware = []flow.Middleware{middleware.TrackProgress(), middleware.SkipComponent(p)}
	})

	s, err := flow.Seq(testutil.NewIncrementBy(2), testutil.NewMultiplyBy(3), testutil.NewIncrementBy(1))
	require.NoError(t, err)
	require.NoError(t, m.Register("pipeline", s))

	first, err := m.Call(context.Background(), "pipeline", core.NewInput(1))
	require.NoError(t, err)
	require.Equal(t, 10, first.Output)

	second, err := m.Resume(context.Background(), "pipeline", first.ID, core.NewInput(100), func(o *flowmesh.ResumeOptions) {
		o.From = ".func2_IncrementBy"
	})
	require.NoError(t, err)
	assert.Equal(t, 10, second.Output)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, middleware.StatusCached, second.Scope(".func1_MultiplyBy")[middleware.KeyStatus])

	_, err = m.Resume(context.Background(), "pipeline", "unknown", core.NewInput(1))
	assert.ErrorIs(t, err, export.ErrNotFound)
}

func TestMesh_StoreResult(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "runs")
	m := flowmesh.New(func(o *flowmesh.Options) {
		o.Config = config.New(func(o *config.Options) { o.StoreResult = dir })
	})

	s, err := flow.Seq(testutil.NewIncrementBy(2), testutil.NewMultiplyBy(3))
	require.NoError(t, err)
	require.NoError(t, m.Register("pipeline", s))

	run, err := m.Call(context.Background(), "pipeline", core.NewInput(1))
	require.NoError(t, err)
	require.NotEmpty(t, run.ID)

	_, err = os.Stat(filepath.Join(dir, run.ID+".yaml"))
	require.NoError(t, err)

	_, err = m.Resume(context.Background(), "pipeline", "unknown", core.NewInput(1))
	assert.ErrorIs(t, err, export.ErrNotFound)
}

func TestMesh_Load(t *testing.T) {
	m := flowmesh.New()
	d, err := testutil.NewMultiplyBy(7).Describe()
	require.NoError(t, err)

	_, err = m.Load("times7", d)
	require.NoError(t, err)
	run, err := m.Call(context.Background(), "times7", core.NewInput(6))
	require.NoError(t, err)
	assert.Equal(t, 42, run.Output)
}

func TestMesh_Attach_Nil(t *testing.T) {
	assert.ErrorIs(t, flowmesh.New().Attach(nil), flow.ErrInvalidOperation)
}
