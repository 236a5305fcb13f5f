package flow

import (
	"context"

	"github.com/hupe1980/flowmesh/core"
)

// Input is the argument bundle of one call.
type Input = core.Input

// Runnable is the capability every composable and adapted function shares.
type Runnable interface {
	Run(ctx context.Context, in Input) (any, error)
}

// Node is a composable: a Runnable that embeds Base.
type Node interface {
	Runnable
	Flow() *Base
}

// RunnableFunc adapts an ordinary function to Runnable.
type RunnableFunc func(ctx context.Context, in Input) (any, error)

// Run implements Runnable.
func (f RunnableFunc) Run(ctx context.Context, in Input) (any, error) { return f(ctx, in) }

// Handler is the computation a middleware chain wraps.
type Handler func(ctx context.Context, in Input) (any, error)

// Middleware intercepts the computation of the owning composable. It receives
// the owner and the next stage and returns a handler with the same contract.
// A middleware may short-circuit by not calling next.
type Middleware func(owner *Base, next Handler) Handler

// chain wraps h with mws in reverse order so mws[0] is the outermost stage.
func chain(owner *Base, h Handler, mws []Middleware) Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](owner, h)
	}
	return h
}
