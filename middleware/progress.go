package middleware

import (
	"context"
	"time"

	"github.com/hupe1980/flowmesh/flow"
)

// Keys written into a node's own scope.
const (
	KeyStatus    = "status"
	KeyDuration  = "duration"
	KeyError     = "error"
	KeyGoodToRun = "good_to_run"
)

// Node statuses.
const (
	StatusRun    = "run"
	StatusCached = "cached"
	StatusFailed = "failed"
)

// TrackProgress records the status, duration in seconds and error of every
// invocation in the scope of the node's absolute path. Place it before SkipComponent so
// a substituted output is reported as cached.
func TrackProgress() flow.Middleware {
	return func(owner *flow.Base, next flow.Handler) flow.Handler {
		return func(ctx context.Context, in flow.Input) (any, error) {
			path := owner.AbsPath()
			store := owner.Store()
			_ = store.Set(KeyStatus, StatusRun, path)

			start := time.Now()
			out, err := next(ctx, in)

			_ = store.Set(KeyDuration, time.Since(start).Seconds(), path)
			if err != nil {
				_ = store.Set(KeyStatus, StatusFailed, path)
				_ = store.Set(KeyError, err.Error(), path)
			}
			return out, err
		}
	}
}
