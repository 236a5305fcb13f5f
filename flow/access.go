package flow

import (
	"context"
	"fmt"
	"sort"

	"github.com/hupe1980/flowmesh/internal/util"
)

// spec returns the field metadata for name. Attached sub-units without a
// declaration get a synthesized sub-unit field.
func (b *Base) spec(name string) (*Field, error) {
	if b.schema == nil {
		return nil, fieldError("flow.Base", name, ErrInvalidOperation, "instance not initialized")
	}
	if f, ok := b.schema.index[name]; ok {
		return f, nil
	}
	for _, d := range b.dynamic {
		if d == name {
			return &Field{name: name, kind: KindNode}, nil
		}
	}
	return nil, fieldError(b.TypeName(), name, ErrUnknownField, "not a declared field")
}

// Get resolves the field called name. Reading a sub-unit during a call
// positions it in the call tree.
func (b *Base) Get(name string) (any, error) {
	f, err := b.spec(name)
	if err != nil {
		return nil, err
	}
	v, err := b.resolve(f)
	if err != nil {
		return nil, err
	}
	if n, ok := v.(Node); ok && f.kind == KindNode {
		if err := b.stamp(name, n); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// Node resolves the sub-unit field called name.
func (b *Base) Node(name string) (Node, error) {
	v, err := b.Get(name)
	if err != nil {
		return nil, err
	}
	n, ok := v.(Node)
	if !ok {
		return nil, fieldError(b.TypeName(), name, ErrTypeMismatch, "%T is not a composable", v)
	}
	return n, nil
}

// CallNode resolves the sub-unit called name and calls it with in.
func (b *Base) CallNode(ctx context.Context, name string, in Input) (any, error) {
	n, err := b.Node(name)
	if err != nil {
		return nil, err
	}
	return n.Flow().CallWith(ctx, in)
}

// Value resolves a field of b and asserts its type.
func Value[T any](b *Base, name string) (T, error) {
	var zero T
	v, err := b.Get(name)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fieldError(b.TypeName(), name, ErrTypeMismatch, "got %T, want %T", v, zero)
	}
	return t, nil
}

// Version returns the mutation counter of a field. It is bumped on every
// write, delete and recomputation.
func (b *Base) Version(name string) uint64 { return b.versions[name] }

func (b *Base) resolve(f *Field) (any, error) {
	if b.resolving[f.name] {
		return nil, fieldError(b.TypeName(), f.name, ErrRecursion, "cyclic field resolution")
	}
	b.resolving[f.name] = true
	defer delete(b.resolving, f.name)

	if len(f.dependsOn) > 0 {
		return b.refresh(f)
	}
	if v, ok := b.cached(f); ok && !f.noCache {
		return v, nil
	}
	return b.produce(f)
}

// refresh recomputes a dependent field when any dependency changed since the
// last computation. After recomputing, the tokens of every dependency are
// recorded, not only the one that triggered it.
func (b *Base) refresh(f *Field) (any, error) {
	v, ok := b.cached(f)
	recorded, seen := b.deps[f.name]
	stale := !ok || !seen
	if !stale {
		for _, dep := range f.dependsOn {
			tok, err := b.token(dep)
			if err != nil {
				return nil, err
			}
			if prev, ok := recorded[dep]; !ok || prev != tok {
				stale = true
				break
			}
		}
	}
	if !stale {
		return v, nil
	}

	v, err := b.produce(f)
	if err != nil {
		return nil, err
	}
	tokens := make(map[string]uint64, len(f.dependsOn))
	for _, dep := range f.dependsOn {
		tok, err := b.token(dep)
		if err != nil {
			return nil, err
		}
		tokens[dep] = tok
	}
	b.deps[f.name] = tokens
	return v, nil
}

func (b *Base) token(dep string) (uint64, error) {
	f, err := b.spec(dep)
	if err != nil {
		return 0, err
	}
	if _, err := b.resolve(f); err != nil {
		return 0, err
	}
	return b.versions[dep], nil
}

func (b *Base) cached(f *Field) (any, bool) {
	if f.kind == KindNode {
		n, ok := b.nodes[f.name]
		return n, ok
	}
	v, ok := b.values[f.name]
	return v, ok
}

func (b *Base) produce(f *Field) (any, error) {
	var (
		v   any
		err error
	)
	switch {
	case f.compute != nil:
		v, err = f.compute(b)
	case f.hasDefault:
		v, err = b.materialize(f)
	default:
		return nil, fieldError(b.TypeName(), f.name, ErrMissingValue, "no value, default or compute function")
	}
	if err != nil {
		return nil, err
	}
	if f.kind == KindNode && v != nil {
		n, err := b.asNode(f, v)
		if err != nil {
			return nil, err
		}
		v = n
	}
	b.put(f, v)
	return v, nil
}

func (b *Base) materialize(f *Field) (any, error) {
	if f.kind != KindNode {
		return f.def, nil
	}
	switch d := f.def.(type) {
	case *Schema:
		return d.New(f.defaultParams, b.childOptions())
	case Node:
		return d.Flow().Clone()
	default:
		return d, nil
	}
}

func (b *Base) asNode(f *Field, v any) (Node, error) {
	switch t := v.(type) {
	case Node:
		return t, nil
	case Runnable:
		return toNode(t, b.childOptions())
	case func(context.Context, Input) (any, error):
		return toNode(RunnableFunc(t), b.childOptions())
	default:
		return nil, fieldError(b.TypeName(), f.name, ErrTypeMismatch, "%T is not runnable", v)
	}
}

func (b *Base) put(f *Field, v any) {
	if f.kind == KindNode {
		n, _ := v.(Node)
		b.nodes[f.name] = n
	} else {
		b.values[f.name] = v
	}
	b.versions[f.name]++
}

// Set writes a field. Computed fields are read-only. A map written to a
// sub-unit field is applied to the sub-unit as parameters; any other value is
// adapted into a composable.
func (b *Base) Set(name string, v any) error {
	f, err := b.spec(name)
	if err != nil {
		return err
	}
	if f.Computed() {
		return fieldError(b.TypeName(), name, ErrInvalidOperation, "computed field is read-only")
	}

	if f.kind == KindNode {
		if m, ok := v.(map[string]any); ok {
			child, err := b.resolve(f)
			if err != nil {
				return err
			}
			n, ok := child.(Node)
			if !ok {
				return fieldError(b.TypeName(), name, ErrMissingValue, "no sub-unit to apply parameters to")
			}
			return n.Flow().SetParams(m, true)
		}
		if v != nil {
			n, err := b.asNode(f, v)
			if err != nil {
				return err
			}
			if f.strictType && !b.acceptsNode(f, n) {
				return fieldError(b.TypeName(), name, ErrTypeMismatch, "%T does not match the declared type", n)
			}
			if b.initialized && !n.Flow().isolated && n.Flow() != b {
				n.Flow().share(b)
			}
			v = n
		}
	} else if f.strictType && !f.accepts(v) {
		return fieldError(b.TypeName(), name, ErrTypeMismatch, "got %T, want %s", v, util.TypeLabel(f.typ))
	}

	b.put(f, v)
	if f.refreshOnSet {
		return b.initialize()
	}
	return nil
}

func (b *Base) acceptsNode(f *Field, n Node) bool {
	if f.ref != "" {
		ref, ok := Lookup(f.ref)
		if ok && n.Flow().schema != nil && n.Flow().schema.Is(ref) {
			return true
		}
		if len(f.types()) == 0 {
			return false
		}
	}
	return f.accepts(n)
}

// Delete drops the stored value of a field so the next read resolves it again.
func (b *Base) Delete(name string) error {
	f, err := b.spec(name)
	if err != nil {
		return err
	}
	delete(b.values, name)
	delete(b.nodes, name)
	delete(b.deps, name)
	b.versions[name]++
	if f.refreshOnSet {
		return b.initialize()
	}
	return nil
}

// SetParams writes several fields at once. Dotted keys address fields of
// sub-units. In strict mode the first error is returned, otherwise invalid
// entries are skipped.
func (b *Base) SetParams(kwargs map[string]any, strict bool) error {
	if len(kwargs) == 0 {
		return nil
	}
	expanded := util.Unflatten(kwargs)
	keys := make([]string, 0, len(expanded))
	for k := range expanded {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := b.Set(k, expanded[k]); err != nil && strict {
			return err
		}
	}
	return nil
}

// SetRun stores keyword arguments merged into every subsequent call. With
// temp set they apply to the next call only. Nested maps under a sub-unit
// name are forwarded to that sub-unit.
func (b *Base) SetRun(kwargs map[string]any, temp bool) error {
	target := b.runKwargs
	if temp {
		target = b.tempKwargs
	}
	for k, v := range util.Unflatten(kwargs) {
		if m, ok := v.(map[string]any); ok {
			if f, err := b.spec(k); err == nil && f.kind == KindNode {
				child, err := b.resolve(f)
				if err != nil {
					return err
				}
				n, ok := child.(Node)
				if !ok {
					return fieldError(b.TypeName(), k, ErrMissingValue, "no sub-unit to forward run arguments to")
				}
				if err := n.Flow().SetRun(m, temp); err != nil {
					return err
				}
				continue
			}
		}
		target[k] = v
	}
	return nil
}

// RunKwargs returns a copy of the persisted run arguments.
func (b *Base) RunKwargs() map[string]any {
	out := make(map[string]any, len(b.runKwargs))
	for k, v := range b.runKwargs {
		out[k] = v
	}
	return out
}

// Params returns the current values of all value fields. Fields that cannot
// be resolved are reported as nil.
func (b *Base) Params() map[string]any {
	out := map[string]any{}
	for _, name := range b.schema.Params() {
		v, err := b.resolve(b.schema.index[name])
		if err != nil {
			v = nil
		}
		out[name] = v
	}
	return out
}

// Children returns the names of declared sub-unit fields followed by
// attached sub-units in attachment order.
func (b *Base) Children() []string {
	return append(b.schema.Nodes(), b.dynamic...)
}

// Attach adds a sub-unit under name without a declared field.
func (b *Base) Attach(name string, n Node) error {
	if _, ok := b.schema.index[name]; ok {
		return b.Set(name, n)
	}
	if n == nil {
		return fieldError(b.TypeName(), name, ErrInvalidOperation, "cannot attach nil")
	}
	if _, exists := b.nodes[name]; !exists {
		b.dynamic = append(b.dynamic, name)
	}
	b.nodes[name] = n
	b.versions[name]++
	if b.initialized && !n.Flow().isolated {
		n.Flow().share(b)
	}
	return nil
}

// Apply calls fn on every resolved sub-unit, depth first, then on b.
func (b *Base) Apply(fn func(n Node)) {
	b.apply(fn, map[*Base]bool{})
}

func (b *Base) apply(fn func(n Node), visited map[*Base]bool) {
	visited[b] = true
	for _, name := range b.Children() {
		n, ok := b.nodes[name]
		if !ok || n == nil || visited[n.Flow()] {
			continue
		}
		n.Flow().apply(fn, visited)
	}
	fn(b.self)
}

func (b *Base) String() string {
	return fmt.Sprintf("%s(nodes: %v)", b.TypeName(), b.Children())
}
