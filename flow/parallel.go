package flow

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/flowmesh/core"
	"github.com/hupe1980/flowmesh/logging"
)

// ParallelOptions configures a fan-out.
type ParallelOptions struct {
	// Workers bounds the number of tasks running at once. Defaults to the task count.
	Workers int
	// Codec serializes task payloads and results. Defaults to core.GobCodec.
	Codec core.Codec
	// ProcessSafe requires the context store to be process safe.
	ProcessSafe bool
}

// Parallel calls the sub-unit called child once per task, passing the task
// as keyword arguments. Each task runs on a fresh clone positioned as a
// separate invocation (child, child[1], ...). Results are returned in task
// order; if any task fails the error of the lowest failing index is returned.
//
// Tasks run on goroutines of this process, bounded by Workers. They share no
// mutable state with the caller: payloads and results make a round trip
// through the codec, so both must be encodable by it. No OS processes are
// spawned.
//
// Parallel must be called from Run during an active call. Outside a call
// every clone would be a top-level call clearing the shared context store,
// so ErrInvalidOperation is returned instead.
func (b *Base) Parallel(ctx context.Context, child string, tasks []map[string]any, optFns ...func(o *ParallelOptions)) ([]any, error) {
	if !b.inRun {
		return nil, fieldError(b.TypeName(), child, ErrInvalidOperation, "fan-out outside an active call")
	}
	opts := ParallelOptions{Workers: len(tasks), Codec: core.GobCodec{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Workers <= 0 {
		opts.Workers = len(tasks)
	}
	if opts.Codec == nil {
		opts.Codec = core.GobCodec{}
	}
	if len(tasks) == 0 {
		return []any{}, nil
	}
	if opts.ProcessSafe && !core.IsProcessSafe(b.store) {
		return nil, fieldError(b.TypeName(), child, ErrInvalidOperation, "context store is not process safe")
	}

	type job struct {
		node    Node
		payload []byte
	}
	jobs := make([]job, len(tasks))
	for i, task := range tasks {
		n, err := b.Node(child)
		if err != nil {
			return nil, err
		}
		src := n.Flow()
		cp, err := src.Clone()
		if err != nil {
			return nil, err
		}
		c := cp.Flow()
		c.prefix, c.name, c.depth, c.runID = src.prefix, src.name, src.depth, src.runID
		c.share(src)
		src.prefix, src.name, src.depth, src.runID = "", "", 0, ""

		payload, err := opts.Codec.Marshal(task)
		if err != nil {
			return nil, err
		}
		jobs[i] = job{node: cp, payload: payload}
	}

	start := time.Now()
	results := make([]any, len(jobs))
	errs := make([]error, len(jobs))
	var g errgroup.Group
	g.SetLimit(opts.Workers)
	for i, j := range jobs {
		g.Go(func() error {
			results[i], errs[i] = runTask(ctx, j.node, j.payload, opts.Codec)
			return errs[i]
		})
	}
	_ = g.Wait()

	var firstErr error
	for _, err := range errs {
		if err != nil {
			firstErr = err
			break
		}
	}
	if fl, ok := b.logger.(*logging.FlowLogger); ok {
		fl.WithRun(b.runID).WithPath(b.AbsPath()).LogFanOut(child, len(tasks), opts.Workers, time.Since(start), firstErr)
	} else if firstErr != nil {
		b.logger.Error("fan-out failed", "child", child, "tasks", len(tasks), "error", firstErr)
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

func runTask(ctx context.Context, n Node, payload []byte, codec core.Codec) (any, error) {
	decoded, err := codec.Unmarshal(payload)
	if err != nil {
		return nil, err
	}
	kwargs, _ := decoded.(map[string]any)
	if kwargs == nil {
		kwargs = map[string]any{}
	}
	out, err := n.Flow().CallWith(ctx, Input{Kwargs: kwargs})
	if err != nil {
		return nil, err
	}
	return core.RoundTrip(codec, out)
}
