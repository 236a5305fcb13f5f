package flow

import (
	"reflect"

	"github.com/hupe1980/flowmesh/internal/util"
)

// Kind distinguishes value fields from sub-unit fields.
type Kind int

const (
	// KindAuto lets Define infer the kind from the declared type or default.
	KindAuto Kind = iota
	// KindValue is a plain value field.
	KindValue
	// KindNode is a sub-unit field holding a composable.
	KindNode
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindValue:
		return "param"
	case KindNode:
		return "node"
	default:
		return "auto"
	}
}

// ComputeFunc derives a field value from the owning instance.
type ComputeFunc func(b *Base) (any, error)

// Field is the immutable metadata of one declared field. Fields are created
// with Param, Child or Attr and passed to Define.
type Field struct {
	name          string
	kind          Kind
	typ           reflect.Type
	union         []reflect.Type
	ref           string
	def           any
	hasDefault    bool
	defaultParams map[string]any
	compute       ComputeFunc
	dependsOn     []string
	noCache       bool
	refreshOnSet  bool
	strictType    bool
	help          string
	signature     *Signature
}

// FieldOption configures a Field.
type FieldOption func(f *Field)

// Param declares a value field.
func Param(name string, opts ...FieldOption) *Field {
	return newField(name, KindValue, opts)
}

// Child declares a sub-unit field.
func Child(name string, opts ...FieldOption) *Field {
	return newField(name, KindNode, opts)
}

// Attr declares a field whose kind is inferred: a declared type (directly,
// through Union or through Ref) that implements Runnable, or a composable
// default, makes it a sub-unit field; anything else is a value field.
func Attr(name string, opts ...FieldOption) *Field {
	return newField(name, KindAuto, opts)
}

func newField(name string, kind Kind, opts []FieldOption) *Field {
	f := &Field{name: name, kind: kind}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Default sets a literal default. For sub-unit fields the default may be a
// Node, a Runnable (wrapped on first read) or a *Schema built on first read
// with DefaultParams.
func Default(v any) FieldOption {
	return func(f *Field) {
		f.def = v
		f.hasDefault = true
	}
}

// DefaultParams sets the constructor parameters used when a *Schema default is built.
func DefaultParams(params map[string]any) FieldOption {
	return func(f *Field) { f.defaultParams = params }
}

// Compute sets the default computation function.
func Compute(fn ComputeFunc) FieldOption {
	return func(f *Field) { f.compute = fn }
}

// DependsOn makes the field computed: it is recomputed whenever one of the
// named fields changed since the last computation. Computed fields are read-only.
func DependsOn(names ...string) FieldOption {
	return func(f *Field) { f.dependsOn = append(f.dependsOn, names...) }
}

// NoCache recomputes the field on every read.
func NoCache() FieldOption {
	return func(f *Field) { f.noCache = true }
}

// RefreshOnSet re-runs the owner's initialization after every write or delete.
func RefreshOnSet() FieldOption {
	return func(f *Field) { f.refreshOnSet = true }
}

// StrictType rejects writes whose runtime type is not assignable to the declared type.
func StrictType() FieldOption {
	return func(f *Field) { f.strictType = true }
}

// Help sets the help text.
func Help(text string) FieldOption {
	return func(f *Field) { f.help = text }
}

// Type sets the declared type.
func Type(t reflect.Type) FieldOption {
	return func(f *Field) { f.typ = t }
}

// TypeOf sets the declared type to T.
func TypeOf[T any]() FieldOption {
	return Type(reflect.TypeOf((*T)(nil)).Elem())
}

// Union declares several acceptable types.
func Union(types ...reflect.Type) FieldOption {
	return func(f *Field) { f.union = append(f.union, types...) }
}

// Ref declares the type by the name of a schema that may be defined later.
func Ref(schemaName string) FieldOption {
	return func(f *Field) { f.ref = schemaName }
}

// Accepts adds a named input to the field's declared signature.
func Accepts(name string, t reflect.Type) FieldOption {
	return func(f *Field) {
		if f.signature == nil {
			f.signature = &Signature{}
		}
		f.signature.Inputs = append(f.signature.Inputs, Arg{Name: name, Type: t})
	}
}

// Returns sets the output type of the field's declared signature.
func Returns(t reflect.Type) FieldOption {
	return func(f *Field) {
		if f.signature == nil {
			f.signature = &Signature{}
		}
		f.signature.Output = t
	}
}

// Name returns the field name.
func (f *Field) Name() string { return f.name }

// Kind returns the resolved field kind.
func (f *Field) Kind() Kind { return f.kind }

// Help returns the help text.
func (f *Field) Help() string { return f.help }

// DependsOn returns a copy of the dependency list.
func (f *Field) DependsOn() []string { return append([]string(nil), f.dependsOn...) }

// Computed reports whether the field has dependencies.
func (f *Field) Computed() bool { return len(f.dependsOn) > 0 }

// Cached reports whether resolved values are kept between reads.
func (f *Field) Cached() bool { return !f.noCache }

// DeclaredType returns the declared type, or nil when unconstrained.
func (f *Field) DeclaredType() reflect.Type { return f.typ }

// DefaultValue returns the literal default and whether one was declared.
func (f *Field) DefaultValue() (any, bool) { return f.def, f.hasDefault }

// Signature returns the declared input/output signature or nil when absent.
func (f *Field) Signature() *Signature {
	if f.signature != nil {
		return f.signature
	}
	if s, ok := f.def.(*Schema); ok {
		return s.signature
	}
	return nil
}

// Info returns the field metadata as a plain map.
func (f *Field) Info() map[string]any {
	info := map[string]any{
		"kind":           f.kind.String(),
		"help":           f.help,
		"cache":          !f.noCache,
		"refresh_on_set": f.refreshOnSet,
		"strict_type":    f.strictType,
		"type":           util.TypeLabel(f.typ),
	}
	if f.hasDefault {
		info["default"] = describeValue(f.def)
	}
	if f.compute != nil {
		info["compute"] = util.FuncName(f.compute)
	}
	if len(f.dependsOn) > 0 {
		info["depends_on"] = f.DependsOn()
	}
	if f.ref != "" {
		info["ref"] = f.ref
	}
	if sig := f.Signature(); sig != nil {
		info["signature"] = sig.String()
	}
	return info
}

func (f *Field) types() []reflect.Type {
	if f.typ == nil {
		return f.union
	}
	return append([]reflect.Type{f.typ}, f.union...)
}

func (f *Field) accepts(v any) bool {
	types := f.types()
	if len(types) == 0 {
		return true
	}
	for _, t := range types {
		if util.Assignable(v, t) {
			return true
		}
	}
	return false
}
