// Package flow is the composition engine of flowmesh. It provides:
//
//  1. Declarative schemas (Define, Param, Child, Attr) describing the value
//     fields and sub-unit fields of a composable type
//  2. Base, the embeddable runtime implementing lazy field resolution,
//     dependency triggered recomputation and the call lifecycle
//  3. Middleware chains intercepting a composable's computation
//  4. Combinators (Sequential, Concurrent) and a bounded fan-out helper
//  5. Structural introspection (Describe, Specs, GetFromPath, IsCompatible)
//
// A composable type embeds Base, declares a Schema and implements Run:
//
//	var addSchema = flow.MustDefine("example.Add",
//		flow.Param("x", flow.TypeOf[int]()),
//		flow.Factory(func() flow.Node { return &Add{} }),
//	)
//
//	type Add struct{ flow.Base }
//
//	func (a *Add) Run(ctx context.Context, in flow.Input) (any, error) {
//		x, err := flow.Value[int](&a.Base, "x")
//		if err != nil {
//			return nil, err
//		}
//		return x + in.Arg(0).(int), nil
//	}
//
// Instances are built with Schema.New or by calling Base.Init from a typed
// constructor. Calling an instance (Call, CallWith) drives the lifecycle:
// the root call mints a run identifier and resets the shared context store,
// every nested call is recorded under its absolute path.
//
// Mutating one instance from several goroutines at once is unsupported; the
// context store is the only sanctioned shared mutable surface.
package flow
