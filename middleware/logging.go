package middleware

import (
	"context"
	"time"

	"github.com/hupe1980/flowmesh/flow"
	"github.com/hupe1980/flowmesh/logging"
)

// Logging reports every invocation. With a *logging.FlowLogger the entry is
// written through LogNodeExecution with the run and type attached; any other
// logger receives plain key/value pairs. A nil logger falls back to the
// owner's logger at call time.
func Logging(logger logging.Logger) flow.Middleware {
	return func(owner *flow.Base, next flow.Handler) flow.Handler {
		return func(ctx context.Context, in flow.Input) (any, error) {
			l := logger
			if l == nil {
				l = owner.Logger()
			}
			path := owner.AbsPath()

			start := time.Now()
			out, err := next(ctx, in)
			dur := time.Since(start)

			if fl, ok := l.(*logging.FlowLogger); ok {
				fl.WithComponent("middleware").WithRun(owner.RunID()).WithContext("type", owner.TypeName()).LogNodeExecution(path, dur, err)
				return out, err
			}
			if err != nil {
				l.Error("node failed", "type", owner.TypeName(), "path", path, "run_id", owner.RunID(), "duration", dur, "error", err)
			} else {
				l.Debug("node completed", "type", owner.TypeName(), "path", path, "run_id", owner.RunID(), "duration", dur)
			}
			return out, err
		}
	}
}
