package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hupe1980/flowmesh/flow"
)

// TracerName is the instrumentation name used when no tracer is supplied.
const TracerName = "github.com/hupe1980/flowmesh/flow"

// Tracing opens one span per invocation, named after the node type. Spans
// of sub-units nest under their parent through the call context. A nil
// tracer uses the global provider.
func Tracing(tracer trace.Tracer) flow.Middleware {
	return func(owner *flow.Base, next flow.Handler) flow.Handler {
		return func(ctx context.Context, in flow.Input) (any, error) {
			t := tracer
			if t == nil {
				t = otel.Tracer(TracerName)
			}
			ctx, span := t.Start(ctx, owner.TypeName(),
				trace.WithAttributes(
					attribute.String("flow.type", owner.TypeName()),
					attribute.String("flow.path", owner.AbsPath()),
					attribute.String("flow.run_id", owner.RunID()),
				),
			)
			defer span.End()

			out, err := next(ctx, in)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return out, err
			}
			span.SetStatus(codes.Ok, "")
			return out, nil
		}
	}
}
