package flow

import (
	"context"
	"reflect"
)

var proxySchema = MustDefine("flow.Proxy",
	Doc("Proxy exposes a plain Runnable as a composable."),
	Param("target",
		Type(reflect.TypeOf((*Runnable)(nil)).Elem()),
		StrictType(),
		RefreshOnSet(),
		Help("the wrapped runnable"),
	),
	OnInit(checkProxyTarget),
	Factory(func() Node { return &Proxy{} }),
)

// Proxy adapts a Runnable that does not embed Base. It takes part in the
// call lifecycle like any other composable.
type Proxy struct {
	Base
}

// Wrap adapts r into a composable. Composables are returned unchanged;
// wrapping a *Proxy again is rejected with ErrInvalidOperation.
func Wrap(r Runnable, optFns ...func(o *Options)) (Node, error) {
	switch t := r.(type) {
	case nil:
		return nil, fieldError("flow.Proxy", "target", ErrInvalidOperation, "cannot wrap nil")
	case *Proxy:
		return nil, fieldError("flow.Proxy", "target", ErrInvalidOperation, "value is already wrapped")
	case Node:
		return t, nil
	}
	p := &Proxy{}
	if err := p.Init(proxySchema, p, map[string]any{"target": r}, optFns...); err != nil {
		return nil, err
	}
	return p, nil
}

// toNode returns r itself when it is a composable and wraps it otherwise.
func toNode(r Runnable, optFns ...func(o *Options)) (Node, error) {
	if n, ok := r.(Node); ok && n != nil {
		return n, nil
	}
	return Wrap(r, optFns...)
}

// Func adapts a function into a composable.
func Func(fn func(ctx context.Context, in Input) (any, error), optFns ...func(o *Options)) (Node, error) {
	return Wrap(RunnableFunc(fn), optFns...)
}

func checkProxyTarget(b *Base) error {
	v, ok := b.values["target"]
	if !ok {
		return nil
	}
	if _, wrapped := v.(*Proxy); wrapped {
		return fieldError("flow.Proxy", "target", ErrInvalidOperation, "value is already wrapped")
	}
	return nil
}

// Target returns the wrapped runnable.
func (p *Proxy) Target() (Runnable, error) {
	return Value[Runnable](&p.Base, "target")
}

// Run forwards to the wrapped runnable.
func (p *Proxy) Run(ctx context.Context, in Input) (any, error) {
	target, err := p.Target()
	if err != nil {
		return nil, err
	}
	return target.Run(ctx, in)
}

// Signature forwards the target's signature when it advertises one.
func (p *Proxy) Signature() Signature {
	target, err := p.Target()
	if err != nil {
		return Signature{}
	}
	return SignatureOf(target)
}
