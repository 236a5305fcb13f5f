package testutil

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/hupe1980/flowmesh/flow"
)

var fanOutSchema = flow.MustDefine("testutil.FanOut",
	flow.Child("increment_by", flow.Default(incrementBySchema), flow.DefaultParams(map[string]any{"x": 1})),
	flow.Child("decrement_by", flow.Default(decrementBySchema), flow.DefaultParams(map[string]any{"x": 1})),
	flow.Child("multiply_by", flow.Default(multiplyBySchema), flow.DefaultParams(map[string]any{"x": 2})),
	flow.Param("workers", flow.TypeOf[int](), flow.Default(2)),
	flow.Factory(func() flow.Node { return &FanOut{} }),
)

// FanOut decrements its input, fans the result out over increment_by once
// per requested time, sums the results and multiplies the sum.
type FanOut struct{ flow.Base }

// NewFanOut builds a FanOut workflow.
func NewFanOut(optFns ...func(o *flow.Options)) *FanOut {
	n := &FanOut{}
	must(n.Init(fanOutSchema, n, nil, optFns...))
	return n
}

// Run implements flow.Runnable. The keyword "times" sets the number of tasks.
func (f *FanOut) Run(ctx context.Context, in flow.Input) (any, error) {
	times, _ := in.Kwarg("times")
	n, ok := times.(int)
	if !ok {
		return nil, errors.New("times must be an int")
	}
	workers, err := flow.Value[int](&f.Base, "workers")
	if err != nil {
		return nil, err
	}

	y, err := f.CallNode(ctx, "decrement_by", flow.Input{Args: in.Args})
	if err != nil {
		return nil, err
	}
	tasks := make([]map[string]any, n)
	for i := range tasks {
		tasks[i] = map[string]any{"y": y}
	}
	results, err := f.Parallel(ctx, "increment_by", tasks, func(o *flow.ParallelOptions) {
		o.Workers = min(n, workers)
	})
	if err != nil {
		return nil, err
	}
	sum := 0
	for _, r := range results {
		v, err := Operand(flow.Input{Args: []any{r}})
		if err != nil {
			return nil, err
		}
		sum += v
	}
	return f.CallNode(ctx, "multiply_by", flow.Input{Args: []any{sum}})
}

var (
	cycleASchema = flow.MustDefine("testutil.CycleA",
		flow.Child("b", flow.Compute(func(b *flow.Base) (any, error) {
			s, _ := flow.Lookup("testutil.CycleB")
			return s.New(nil)
		})),
		flow.Factory(func() flow.Node { return &CycleA{} }),
	)
	_ = flow.MustDefine("testutil.CycleB",
		flow.Child("a", flow.Compute(func(b *flow.Base) (any, error) {
			s, _ := flow.Lookup("testutil.CycleA")
			return s.New(nil)
		})),
		flow.Factory(func() flow.Node { return &CycleB{} }),
	)
)

// CycleA calls its sub-unit b, whose default is a CycleB that calls a CycleA.
type CycleA struct{ flow.Base }

// CycleB is the counterpart of CycleA.
type CycleB struct{ flow.Base }

// NewCycleA builds the root of a self-referential composition.
func NewCycleA() *CycleA {
	n := &CycleA{}
	must(n.Init(cycleASchema, n, nil))
	return n
}

// Run implements flow.Runnable.
func (c *CycleA) Run(ctx context.Context, in flow.Input) (any, error) {
	return c.CallNode(ctx, "b", in)
}

// Run implements flow.Runnable.
func (c *CycleB) Run(ctx context.Context, in flow.Input) (any, error) {
	return c.CallNode(ctx, "a", in)
}

// Counter is a compute function that counts its invocations and returns
// the count.
type Counter struct {
	calls atomic.Int64
}

// Compute implements flow.ComputeFunc.
func (c *Counter) Compute(*flow.Base) (any, error) {
	return int(c.calls.Add(1)), nil
}

// Calls returns the number of invocations so far.
func (c *Counter) Calls() int { return int(c.calls.Load()) }
