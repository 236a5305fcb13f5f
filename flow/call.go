package flow

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/flowmesh/core"
)

// Routing keywords. They are removed from the call's keyword arguments; the
// first three are written into the global scope of the context store under
// CtxFrom, CtxTo and CtxFromRun, the last is applied as one-shot run arguments.
const (
	KwFrom      = "_ff_from"
	KwTo        = "_ff_to"
	KwFromRun   = "_ff_from_run"
	KwRunKwargs = "_ff_run_kwargs"
)

// Keys written into the global scope of the context store.
const (
	CtxRunID   = "run_id"
	CtxFrom    = "from"
	CtxTo      = "to"
	CtxFromRun = "from_run"
)

var routingKeys = [][2]string{{KwFrom, CtxFrom}, {KwTo, CtxTo}, {KwFromRun, CtxFromRun}}

// Call invokes the composable with positional arguments.
func (b *Base) Call(ctx context.Context, args ...any) (any, error) {
	return b.CallWith(ctx, core.NewInput(args...))
}

// CallWith invokes the composable. A call on an instance that has not been
// positioned by a parent is a top-level call: it mints a run identifier,
// resets the context store and, when a persister is configured, hands it a
// snapshot when done. Errors returned by Run propagate unchanged; the
// transient run state is reset in every case.
func (b *Base) CallWith(ctx context.Context, in Input) (any, error) {
	if b.self == nil {
		return nil, fieldError("flow.Base", "", ErrInvalidOperation, "instance not initialized")
	}
	root := b.prefix == ""
	b.inRun = true
	defer b.release()

	if !b.initialized {
		if err := b.initialize(); err != nil {
			return nil, err
		}
	}

	in = in.Clone()
	routing := map[string]any{}
	for _, kv := range routingKeys {
		if v, ok := in.Kwargs[kv[0]]; ok {
			routing[kv[1]] = v
			delete(in.Kwargs, kv[0])
		}
	}
	if v, ok := in.Kwargs[KwRunKwargs]; ok {
		delete(in.Kwargs, KwRunKwargs)
		if m, ok := v.(map[string]any); ok {
			if err := b.SetRun(m, true); err != nil {
				return nil, err
			}
		}
	}
	for k, v := range b.runKwargs {
		in.Kwargs[k] = v
	}
	for k, v := range b.tempKwargs {
		in.Kwargs[k] = v
	}

	if root {
		b.runID = b.config.RunID()
		b.depth = 0
		if err := b.store.ClearAll(); err != nil {
			return nil, fmt.Errorf("clear context store: %w", err)
		}
		if err := b.store.Set(CtxRunID, b.runID, core.GlobalScope); err != nil {
			return nil, fmt.Errorf("record run id: %w", err)
		}
	}
	for k, v := range routing {
		if err := b.store.Set(k, v, core.GlobalScope); err != nil {
			return nil, fmt.Errorf("record %s: %w", k, err)
		}
	}

	path := b.AbsPath()
	if err := b.store.CreateScope(path, true); err != nil {
		return nil, fmt.Errorf("open scope %s: %w", path, err)
	}

	b.logger.Debug("node call started", "type", b.TypeName(), "path", path, "run_id", b.runID)
	start := time.Now()
	out, err := b.handle()(ctx, in)

	rec := core.NodeLog{Input: in, Output: out}
	if err != nil {
		rec.Error = err.Error()
	}
	if serr := b.store.Set(path, rec, core.ProgressScope); serr != nil {
		b.logger.Warn("failed to record node log", "path", path, "error", serr)
	}
	b.logger.Debug("node call finished", "type", b.TypeName(), "path", path, "run_id", b.runID, "duration", time.Since(start), "error", err)

	if root {
		b.finish(ctx, in, out, err)
	}
	return out, err
}

func (b *Base) handle() Handler {
	if b.handler == nil {
		b.handler = chain(b, b.self.Run, b.middleware)
	}
	return b.handler
}

// finish builds the run tracker of a top-level call and persists it.
func (b *Base) finish(ctx context.Context, in Input, out any, callErr error) {
	dump, err := b.store.Dump()
	if err != nil {
		b.logger.Warn("failed to dump context store", "run_id", b.runID, "error", err)
		dump = map[string]map[string]any{}
	}
	b.lastRun = &Run{ID: b.runID, Type: b.TypeName(), Input: in, Output: out, Err: callErr, context: dump}
	if b.persister == nil {
		return
	}
	if err := b.persister.Persist(ctx, b.lastRun.Snapshot()); err != nil {
		b.logger.Warn("failed to persist run snapshot", "run_id", b.runID, "error", err)
	}
}
