package flow

import (
	"context"
	"reflect"
)

type testNode struct {
	Base
}

func (n *testNode) Run(_ context.Context, in Input) (any, error) {
	return in.Arg(0), nil
}

func newTestFactory() Option {
	return Factory(func() Node { return &testNode{} })
}

type signed struct {
	sig Signature
}

func (s signed) Run(_ context.Context, in Input) (any, error) { return in.Arg(0), nil }

func (s signed) Signature() Signature { return s.sig }

var stringType = reflect.TypeOf("")
