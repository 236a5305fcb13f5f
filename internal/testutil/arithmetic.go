package testutil

import (
	"context"
	"fmt"

	"github.com/hupe1980/flowmesh/flow"
)

var (
	incrementBySchema = flow.MustDefine("testutil.IncrementBy",
		flow.Param("x", flow.TypeOf[int](), flow.StrictType(), flow.Help("amount added")),
		flow.Factory(func() flow.Node { return &IncrementBy{} }),
	)
	decrementBySchema = flow.MustDefine("testutil.DecrementBy",
		flow.Param("x", flow.TypeOf[int](), flow.StrictType(), flow.Help("minuend")),
		flow.Factory(func() flow.Node { return &DecrementBy{} }),
	)
	multiplyBySchema = flow.MustDefine("testutil.MultiplyBy",
		flow.Param("x", flow.TypeOf[int](), flow.StrictType(), flow.Help("factor")),
		flow.Factory(func() flow.Node { return &MultiplyBy{} }),
	)
)

// IncrementBy returns x + y.
type IncrementBy struct{ flow.Base }

// DecrementBy returns x - y.
type DecrementBy struct{ flow.Base }

// MultiplyBy returns x * y.
type MultiplyBy struct{ flow.Base }

// NewIncrementBy builds an IncrementBy unit.
func NewIncrementBy(x int, optFns ...func(o *flow.Options)) *IncrementBy {
	n := &IncrementBy{}
	must(n.Init(incrementBySchema, n, map[string]any{"x": x}, optFns...))
	return n
}

// NewDecrementBy builds a DecrementBy unit.
func NewDecrementBy(x int, optFns ...func(o *flow.Options)) *DecrementBy {
	n := &DecrementBy{}
	must(n.Init(decrementBySchema, n, map[string]any{"x": x}, optFns...))
	return n
}

// NewMultiplyBy builds a MultiplyBy unit.
func NewMultiplyBy(x int, optFns ...func(o *flow.Options)) *MultiplyBy {
	n := &MultiplyBy{}
	must(n.Init(multiplyBySchema, n, map[string]any{"x": x}, optFns...))
	return n
}

// IncrementBySchema returns the schema of IncrementBy.
func IncrementBySchema() *flow.Schema { return incrementBySchema }

// DecrementBySchema returns the schema of DecrementBy.
func DecrementBySchema() *flow.Schema { return decrementBySchema }

// MultiplyBySchema returns the schema of MultiplyBy.
func MultiplyBySchema() *flow.Schema { return multiplyBySchema }

// Run implements flow.Runnable.
func (n *IncrementBy) Run(_ context.Context, in flow.Input) (any, error) {
	return apply(&n.Base, in, func(x, y int) int { return x + y })
}

// Run implements flow.Runnable.
func (n *DecrementBy) Run(_ context.Context, in flow.Input) (any, error) {
	return apply(&n.Base, in, func(x, y int) int { return x - y })
}

// Run implements flow.Runnable.
func (n *MultiplyBy) Run(_ context.Context, in flow.Input) (any, error) {
	return apply(&n.Base, in, func(x, y int) int { return x * y })
}

func apply(b *flow.Base, in flow.Input, op func(x, y int) int) (any, error) {
	x, err := flow.Value[int](b, "x")
	if err != nil {
		return nil, err
	}
	y, err := Operand(in)
	if err != nil {
		return nil, err
	}
	return op(x, y), nil
}

// Operand returns the integer passed as the first positional argument or as
// keyword "y". Integers decoded by loose codecs are accepted as well.
func Operand(in flow.Input) (int, error) {
	v := in.Arg(0)
	if v == nil {
		v, _ = in.Kwarg("y")
	}
	switch t := v.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case uint64:
		return int(t), nil
	case float64:
		return int(t), nil
	default:
		return 0, fmt.Errorf("operand %v (%T) is not an integer", v, v)
	}
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
