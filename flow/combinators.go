package flow

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/flowmesh/core"
	"github.com/hupe1980/flowmesh/internal/util"
)

var sequentialSchema = MustDefine("flow.Sequential",
	Doc("Sequential feeds the output of each unit to the next one."),
	Factory(func() Node { return &Sequential{} }),
)

var concurrentSchema = MustDefine("flow.Concurrent",
	Doc("Concurrent calls every unit with the same input and collects the outputs in order."),
	Param("max_concurrency",
		TypeOf[int](),
		Default(1),
		StrictType(),
		Help("number of units run at the same time; 1 runs them one after another"),
	),
	Factory(func() Node { return &Concurrent{} }),
)

// Sequential is a pipeline: the first unit receives the call's input, every
// following unit receives the previous output as its only positional argument.
type Sequential struct {
	Base
}

// Concurrent calls every unit with the same input. Outputs are returned in
// declaration order regardless of completion order.
type Concurrent struct {
	Base
}

// NewSequential builds a pipeline. Nested pipelines are flattened.
func NewSequential(units []Runnable, optFns ...func(o *Options)) (*Sequential, error) {
	s := &Sequential{}
	if err := s.Init(sequentialSchema, s, nil, optFns...); err != nil {
		return nil, err
	}
	if err := attachUnits(&s.Base, units, func(n Node) bool {
		_, ok := n.(*Sequential)
		return ok
	}); err != nil {
		return nil, err
	}
	return s, nil
}

// NewConcurrent builds a concurrent composite. Nested concurrent composites
// are flattened.
func NewConcurrent(units []Runnable, optFns ...func(o *Options)) (*Concurrent, error) {
	c := &Concurrent{}
	if err := c.Init(concurrentSchema, c, nil, optFns...); err != nil {
		return nil, err
	}
	if err := attachUnits(&c.Base, units, func(n Node) bool {
		_, ok := n.(*Concurrent)
		return ok
	}); err != nil {
		return nil, err
	}
	return c, nil
}

// Seq composes units sequentially.
func Seq(units ...Runnable) (*Sequential, error) { return NewSequential(units) }

// Par composes units concurrently.
func Par(units ...Runnable) (*Concurrent, error) { return NewConcurrent(units) }

// Then composes b followed by next.
func (b *Base) Then(next Runnable) (*Sequential, error) {
	return NewSequential([]Runnable{b.self, next}, b.childOptions())
}

// And composes b and other concurrently.
func (b *Base) And(other Runnable) (*Concurrent, error) {
	return NewConcurrent([]Runnable{b.self, other}, b.childOptions())
}

func attachUnits(b *Base, units []Runnable, flatten func(Node) bool) error {
	for _, u := range units {
		n, err := toNode(u, b.childOptions())
		if err != nil {
			return err
		}
		if flatten(n) {
			for _, child := range n.Flow().Units() {
				if err := attachUnit(b, child); err != nil {
					return err
				}
			}
			continue
		}
		if err := attachUnit(b, n); err != nil {
			return err
		}
	}
	return nil
}

func attachUnit(b *Base, n Node) error {
	name := fmt.Sprintf("func%d_%s", len(b.dynamic), util.ShortName(n.Flow().TypeName()))
	return b.Attach(name, n)
}

// Units returns the attached sub-units in attachment order.
func (b *Base) Units() []Node {
	out := make([]Node, 0, len(b.dynamic))
	for _, name := range b.dynamic {
		out = append(out, b.nodes[name])
	}
	return out
}

// Len returns the number of units.
func (s *Sequential) Len() int { return len(s.dynamic) }

// At returns the unit at index i.
func (s *Sequential) At(i int) Node { return s.nodes[s.dynamic[i]] }

// Run implements Runnable.
func (s *Sequential) Run(ctx context.Context, in Input) (any, error) {
	var out any
	cur := in
	for _, name := range s.dynamic {
		n, err := s.Node(name)
		if err != nil {
			return nil, err
		}
		out, err = n.Flow().CallWith(ctx, cur)
		if err != nil {
			return nil, err
		}
		cur = core.NewInput(out)
	}
	return out, nil
}

// Len returns the number of units.
func (c *Concurrent) Len() int { return len(c.dynamic) }

// At returns the unit at index i.
func (c *Concurrent) At(i int) Node { return c.nodes[c.dynamic[i]] }

// Run implements Runnable. With max_concurrency above 1 the units run on
// separate goroutines; the first error in declaration order is returned.
func (c *Concurrent) Run(ctx context.Context, in Input) (any, error) {
	limit, err := Value[int](&c.Base, "max_concurrency")
	if err != nil {
		return nil, err
	}
	results := make([]any, len(c.dynamic))

	if limit <= 1 {
		for i, name := range c.dynamic {
			n, err := c.Node(name)
			if err != nil {
				return nil, err
			}
			if results[i], err = n.Flow().CallWith(ctx, in.Clone()); err != nil {
				return nil, err
			}
		}
		return results, nil
	}

	nodes := make([]Node, len(c.dynamic))
	for i, name := range c.dynamic {
		if nodes[i], err = c.Node(name); err != nil {
			return nil, err
		}
	}
	errs := make([]error, len(nodes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, n := range nodes {
		g.Go(func() error {
			results[i], errs[i] = n.Flow().CallWith(gctx, in.Clone())
			return errs[i]
		})
	}
	_ = g.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
