package flow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBase_Get_DependencyRecompute(t *testing.T) {
	calls := 0
	s := MustDefine("flowtest.Dependent",
		Param("a", Default(1)),
		Param("b", Default(2)),
		Param("sum", DependsOn("a", "b"), Compute(func(b *Base) (any, error) {
			calls++
			a, err := Value[int](b, "a")
			if err != nil {
				return nil, err
			}
			c, err := Value[int](b, "b")
			if err != nil {
				return nil, err
			}
			return a + c, nil
		})),
		newTestFactory(),
	)
	n, err := s.New(nil)
	require.NoError(t, err)
	b := n.Flow()

	v, err := b.Get("sum")
	require.NoError(t, err)
	assert.Equal(t, 3, v)
	assert.Equal(t, 1, calls)

	_, err = b.Get("sum")
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "unchanged dependencies must not recompute")

	require.NoError(t, b.Set("a", 10))
	v, err = b.Get("sum")
	require.NoError(t, err)
	assert.Equal(t, 12, v)
	assert.Equal(t, 2, calls)

	_, err = b.Get("sum")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	// every write is a new version, even with an equal value
	require.NoError(t, b.Set("b", 2))
	_, err = b.Get("sum")
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestBase_Get_UncachedComputesEveryRead(t *testing.T) {
	calls := 0
	s := MustDefine("flowtest.Uncached",
		Param("n", NoCache(), Compute(func(*Base) (any, error) {
			calls++
			return calls, nil
		})),
		newTestFactory(),
	)
	n, err := s.New(nil)
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		v, err := n.Flow().Get("n")
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}
	assert.Equal(t, 3, calls)
}

func TestBase_Get_MissingValue(t *testing.T) {
	s := MustDefine("flowtest.Missing", Param("a"), newTestFactory())
	n, err := s.New(nil)
	require.NoError(t, err)

	_, err = n.Flow().Get("a")
	require.ErrorIs(t, err, ErrMissingValue)

	_, err = n.Flow().Get("nope")
	require.ErrorIs(t, err, ErrUnknownField)
}

func TestBase_Get_CyclicCompute(t *testing.T) {
	s := MustDefine("flowtest.CyclicCompute",
		Param("a", Compute(func(b *Base) (any, error) { return b.Get("a") })),
		newTestFactory(),
	)
	n, err := s.New(nil)
	require.NoError(t, err)

	_, err = n.Flow().Get("a")
	require.ErrorIs(t, err, ErrRecursion)
}

func TestBase_Set(t *testing.T) {
	s := MustDefine("flowtest.Settable",
		Param("count", TypeOf[int](), StrictType()),
		Param("loose", TypeOf[int]()),
		Param("double", DependsOn("count"), Compute(func(b *Base) (any, error) {
			c, err := Value[int](b, "count")
			return c * 2, err
		})),
		newTestFactory(),
	)

	t.Run("strict type", func(t *testing.T) {
		n, err := s.New(nil)
		require.NoError(t, err)
		require.ErrorIs(t, n.Flow().Set("count", "three"), ErrTypeMismatch)
		require.NoError(t, n.Flow().Set("count", 3))
		require.NoError(t, n.Flow().Set("loose", "three"))
	})

	t.Run("computed fields are read-only", func(t *testing.T) {
		n, err := s.New(map[string]any{"count": 2})
		require.NoError(t, err)
		require.ErrorIs(t, n.Flow().Set("double", 5), ErrInvalidOperation)
		v, err := n.Flow().Get("double")
		require.NoError(t, err)
		assert.Equal(t, 4, v)
	})

	t.Run("constructor is strict", func(t *testing.T) {
		_, err := s.New(map[string]any{"count": "x"})
		require.ErrorIs(t, err, ErrTypeMismatch)
		_, err = s.New(map[string]any{"unknown": 1})
		require.ErrorIs(t, err, ErrUnknownField)
	})

	t.Run("versions", func(t *testing.T) {
		n, err := s.New(nil)
		require.NoError(t, err)
		b := n.Flow()
		assert.Zero(t, b.Version("count"))
		require.NoError(t, b.Set("count", 1))
		require.NoError(t, b.Set("count", 1))
		assert.Equal(t, uint64(2), b.Version("count"))
		require.NoError(t, b.Delete("count"))
		assert.Equal(t, uint64(3), b.Version("count"))
		_, err = b.Get("count")
		require.ErrorIs(t, err, ErrMissingValue)
	})
}

func TestBase_Delete_RestoresDefault(t *testing.T) {
	s := MustDefine("flowtest.Deletable", Param("a", Default(1)), newTestFactory())
	n, err := s.New(map[string]any{"a": 5})
	require.NoError(t, err)

	require.NoError(t, n.Flow().Delete("a"))
	v, err := n.Flow().Get("a")
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestBase_RefreshOnSet(t *testing.T) {
	inits := 0
	s := MustDefine("flowtest.Refresh",
		Param("a", Default(1), RefreshOnSet()),
		Param("b", Default(1)),
		OnInit(func(*Base) error {
			inits++
			return nil
		}),
		newTestFactory(),
	)
	n, err := s.New(nil)
	require.NoError(t, err)
	assert.Equal(t, 1, inits)

	require.NoError(t, n.Flow().Set("b", 2))
	assert.Equal(t, 1, inits)
	require.NoError(t, n.Flow().Set("a", 2))
	assert.Equal(t, 2, inits)
	require.NoError(t, n.Flow().Delete("a"))
	assert.Equal(t, 3, inits)
}

func TestBase_SetParams_DottedKeys(t *testing.T) {
	inner := MustDefine("flowtest.DottedInner", Param("x", Default(0)), newTestFactory())
	outer := MustDefine("flowtest.DottedOuter",
		Param("y", Default(0)),
		Child("inner", Default(inner)),
		newTestFactory(),
	)

	n, err := outer.New(map[string]any{"y": 1, "inner.x": 2})
	require.NoError(t, err)

	v, err := n.Flow().GetFromPath("inner.x")
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	require.NoError(t, n.Flow().SetParams(map[string]any{"inner": map[string]any{"x": 3}, "nope": 1}, false))
	v, err = n.Flow().GetFromPath(".inner.x")
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

func TestBase_NodeField_AdaptsFunctions(t *testing.T) {
	s := MustDefine("flowtest.Adapts", Child("step"), newTestFactory())
	n, err := s.New(nil)
	require.NoError(t, err)
	b := n.Flow()

	require.NoError(t, b.Set("step", func(_ context.Context, in Input) (any, error) {
		return in.Arg(0).(int) + 1, nil
	}))
	child, err := b.Node("step")
	require.NoError(t, err)
	_, isProxy := child.(*Proxy)
	assert.True(t, isProxy)

	out, err := child.Flow().Call(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, out)

	require.ErrorIs(t, b.Set("step", 42), ErrTypeMismatch)
}

func TestBase_NodeField_SharesHandles(t *testing.T) {
	inner := MustDefine("flowtest.SharedInner", newTestFactory())
	outer := MustDefine("flowtest.SharedOuter", Child("inner", Default(inner)), Child("alone"), newTestFactory())
	n, err := outer.New(nil)
	require.NoError(t, err)
	b := n.Flow()

	child, err := b.Node("inner")
	require.NoError(t, err)
	assert.Same(t, b.Store(), child.Flow().Store())

	alone, err := inner.New(nil)
	require.NoError(t, err)
	alone.Flow().Isolate()
	require.NoError(t, b.Set("alone", alone))
	assert.NotSame(t, b.Store(), alone.Flow().Store())
}

func TestWrap(t *testing.T) {
	fn := RunnableFunc(func(_ context.Context, in Input) (any, error) { return in.Arg(0), nil })

	n, err := Wrap(fn)
	require.NoError(t, err)
	assert.Equal(t, "flow.Proxy", n.Flow().TypeName())

	_, err = Wrap(n)
	require.ErrorIs(t, err, ErrInvalidOperation)

	inner := MustDefine("flowtest.WrapInner", newTestFactory())
	node, err := inner.New(nil)
	require.NoError(t, err)
	same, err := Wrap(node)
	require.NoError(t, err)
	assert.Same(t, node, same)

	require.ErrorIs(t, n.Flow().Set("target", n), ErrInvalidOperation)
}

func TestBase_SetRun(t *testing.T) {
	s := MustDefine("flowtest.RunKwargs", newTestFactory())
	n, err := s.New(nil)
	require.NoError(t, err)
	b := n.Flow()

	require.NoError(t, b.SetRun(map[string]any{"mode": "fast"}, false))
	assert.Equal(t, map[string]any{"mode": "fast"}, b.RunKwargs())
}
