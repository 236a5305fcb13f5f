package middleware

import (
	"context"
	"fmt"

	"github.com/hupe1980/flowmesh/core"
	"github.com/hupe1980/flowmesh/flow"
	"github.com/hupe1980/flowmesh/internal/util"
)

// SkipComponent re-executes part of a tree. When a call carries a "from"
// path (flow.KwFrom), siblings before that node are not run; their output
// is taken from the run named by flow.KwFromRun, loaded through loader.
// When a "to" path (flow.KwTo) is given, siblings after it are skipped the
// same way. Path segments may be "*" to match any name.
//
// A node whose output cannot be loaded is run normally.
func SkipComponent(loader core.SnapshotLoader) flow.Middleware {
	return func(owner *flow.Base, next flow.Handler) flow.Handler {
		return func(ctx context.Context, in flow.Input) (any, error) {
			store := owner.Store()
			path := owner.AbsPath()
			from, _ := core.GetOr(store, flow.CtxFrom, "", core.GlobalScope).(string)
			to, _ := core.GetOr(store, flow.CtxTo, "", core.GlobalScope).(string)

			if from != "" && util.IsAncestor(path, from) {
				// descendants of this node run until the from node is reached
				_ = store.Set(KeyGoodToRun, false, path)
				return next(ctx, in)
			}

			parent := owner.Prefix()
			good := true
			if parent != "" && store.HasScope(parent) {
				good, _ = core.GetOr(store, KeyGoodToRun, true, parent).(bool)
			}

			if !good {
				if util.MatchPath(path, from) {
					_ = store.Set(KeyGoodToRun, true, parent)
					owner.Logger().Info("resuming run", "path", path)
					return next(ctx, in)
				}
				out, err := previousOutput(ctx, loader, store, path)
				if err != nil {
					owner.Logger().Warn("cannot reuse previous output, running", "path", path, "error", err)
					return next(ctx, in)
				}
				owner.Logger().Info("reused previous output", "path", path)
				_ = store.Set(KeyStatus, StatusCached, path)
				return out, nil
			}

			if to != "" && parent != "" && util.MatchPath(path, to) {
				_ = store.Set(KeyGoodToRun, false, parent)
			}
			return next(ctx, in)
		}
	}
}

func previousOutput(ctx context.Context, loader core.SnapshotLoader, store core.ContextStore, path string) (any, error) {
	if loader == nil {
		return nil, fmt.Errorf("no snapshot loader configured")
	}
	runID, _ := core.GetOr(store, flow.CtxFromRun, "", core.GlobalScope).(string)
	if runID == "" {
		return nil, fmt.Errorf("no previous run given")
	}
	snap, err := loader.Load(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}
	log, ok := snap.Logs(path)
	if !ok {
		return nil, fmt.Errorf("run %s has no record for %s", runID, path)
	}
	if log.Error != "" {
		return nil, fmt.Errorf("run %s failed at %s: %s", runID, path, log.Error)
	}
	return log.Output, nil
}
