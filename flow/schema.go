package flow

import (
	"reflect"
	"sort"
	"strings"
	"sync"
)

// ReservedPrefix marks engine-internal names. Field names may not start with it.
const ReservedPrefix = "_"

var protectedKeywords = []string{
	"run", "call", "params", "nodes", "context", "config", "middleware",
	"last_run", "apply", "prefix", "name", "describe", "specs", "set",
	"set_run", "missing", "get_from_path", "is_compatible", "then", "and",
	"parallel", "clone", "flow", "signature",
}

var (
	runnableType = reflect.TypeOf((*Runnable)(nil)).Elem()
	baseSchema   = newBaseSchema()
)

func newBaseSchema() *Schema {
	s := &Schema{name: "flow.Base", keywords: map[string]bool{}, index: map[string]*Field{}, hasMiddleware: true}
	for _, k := range protectedKeywords {
		s.keywords[k] = true
	}
	return s
}

// Schema is the immutable definition of a composable type: its declared
// fields, protected keywords, middleware and constructor.
type Schema struct {
	name          string
	doc           string
	parent        *Schema
	keywords      map[string]bool
	own           []*Field
	fields        []*Field
	index         map[string]*Field
	middleware    []Middleware
	hasMiddleware bool
	factory       func() Node
	onInit        []func(b *Base) error
	signature     *Signature
}

// Option configures a Schema under construction. Fields created with Param,
// Child and Attr are options as well.
type Option interface {
	apply(s *Schema) error
}

type optionFunc func(s *Schema) error

func (fn optionFunc) apply(s *Schema) error { return fn(s) }

func (f *Field) apply(s *Schema) error {
	cp := *f
	cp.dependsOn = append([]string(nil), f.dependsOn...)
	cp.union = append([]reflect.Type(nil), f.union...)
	s.own = append(s.own, &cp)
	return nil
}

// Extends makes the schema inherit fields, keywords, middleware and init
// hooks from parent. Own fields override inherited ones by name.
func Extends(parent *Schema) Option {
	return optionFunc(func(s *Schema) error {
		if parent == nil {
			return fieldError(s.name, "", ErrDefinition, "nil parent schema")
		}
		s.parent = parent
		return nil
	})
}

// Keywords protects additional names from being used as fields by this type
// and its descendants.
func Keywords(names ...string) Option {
	return optionFunc(func(s *Schema) error {
		for _, n := range names {
			s.keywords[n] = true
		}
		return nil
	})
}

// Use sets the middleware chain, replacing the inherited one. The first
// entry is the outermost stage.
func Use(mws ...Middleware) Option {
	return optionFunc(func(s *Schema) error {
		s.middleware = append([]Middleware(nil), mws...)
		s.hasMiddleware = true
		return nil
	})
}

// Factory sets the constructor used by Schema.New, Load and Clone.
func Factory(fn func() Node) Option {
	return optionFunc(func(s *Schema) error {
		s.factory = fn
		return nil
	})
}

// OnInit registers a hook run by the initialization routine after the
// store, config and logger have been wired.
func OnInit(fn func(b *Base) error) Option {
	return optionFunc(func(s *Schema) error {
		s.onInit = append(s.onInit, fn)
		return nil
	})
}

// Doc sets the documentation string.
func Doc(doc string) Option {
	return optionFunc(func(s *Schema) error {
		s.doc = doc
		return nil
	})
}

// WithSignature declares the call contract of instances of the schema.
func WithSignature(sig Signature) Option {
	return optionFunc(func(s *Schema) error {
		s.signature = &sig
		return nil
	})
}

// Define validates and registers a schema. Definition errors wrap ErrDefinition.
// Registering a name twice replaces the previous schema.
func Define(name string, opts ...Option) (*Schema, error) {
	s := &Schema{name: name, parent: baseSchema, keywords: map[string]bool{}}
	if name == "" {
		return nil, fieldError("<unnamed>", "", ErrDefinition, "schema name must not be empty")
	}
	for _, opt := range opts {
		if err := opt.apply(s); err != nil {
			return nil, err
		}
	}
	if err := s.build(); err != nil {
		return nil, err
	}
	register(s)
	return s, nil
}

// MustDefine is like Define but panics on error. It is intended for package
// level schema variables.
func MustDefine(name string, opts ...Option) *Schema {
	s, err := Define(name, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Schema) build() error {
	seen := map[string]bool{}
	for _, f := range s.own {
		if f.name == "" {
			return fieldError(s.name, "", ErrDefinition, "field name must not be empty")
		}
		if strings.HasPrefix(f.name, ReservedPrefix) {
			return fieldError(s.name, f.name, ErrDefinition, "field names must not start with %q", ReservedPrefix)
		}
		if seen[f.name] {
			return fieldError(s.name, f.name, ErrDefinition, "field declared twice")
		}
		seen[f.name] = true
		inferKind(f)
	}

	s.index = map[string]*Field{}
	for _, f := range s.parent.fields {
		if !seen[f.name] {
			s.fields = append(s.fields, f)
			s.index[f.name] = f
		}
	}
	for _, f := range s.own {
		s.fields = append(s.fields, f)
		s.index[f.name] = f
	}

	for _, f := range s.fields {
		if owner := s.keywordOwner(f.name); owner != nil {
			return fieldError(s.name, f.name, ErrDefinition, "name is a protected keyword declared by %s", owner.name)
		}
	}
	for _, f := range s.own {
		if err := s.checkField(f); err != nil {
			return err
		}
	}

	if !s.hasMiddleware {
		s.middleware = s.parent.middleware
	}
	s.onInit = append(append([]func(*Base) error(nil), s.parent.onInit...), s.onInit...)
	if s.signature == nil {
		s.signature = s.parent.signature
	}
	return nil
}

func (s *Schema) checkField(f *Field) error {
	if len(f.dependsOn) > 0 {
		if f.compute == nil {
			return fieldError(s.name, f.name, ErrDefinition, "dependencies require a compute function")
		}
		if f.noCache {
			return fieldError(s.name, f.name, ErrDefinition, "dependencies cannot be combined with NoCache")
		}
		for _, dep := range f.dependsOn {
			if dep == f.name {
				return fieldError(s.name, f.name, ErrDefinition, "field depends on itself")
			}
			if _, ok := s.index[dep]; !ok {
				return fieldError(s.name, f.name, ErrDefinition, "unknown dependency %q", dep)
			}
		}
	}
	if f.kind == KindNode && f.hasDefault && f.def != nil {
		switch f.def.(type) {
		case *Schema, Runnable:
		default:
			return fieldError(s.name, f.name, ErrDefinition, "default %T is not a composable", f.def)
		}
	}
	return nil
}

// keywordOwner returns the nearest schema in the ancestry that protects name.
func (s *Schema) keywordOwner(name string) *Schema {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.keywords[name] {
			return cur
		}
	}
	return nil
}

func inferKind(f *Field) {
	if f.kind != KindAuto {
		return
	}
	f.kind = KindValue
	if f.ref != "" {
		f.kind = KindNode
		return
	}
	for _, t := range f.types() {
		if t != nil && t.Implements(runnableType) {
			f.kind = KindNode
			return
		}
	}
	switch f.def.(type) {
	case *Schema, Runnable:
		f.kind = KindNode
	}
}

// Name returns the registered type name.
func (s *Schema) Name() string { return s.name }

// Doc returns the documentation string.
func (s *Schema) Doc() string { return s.doc }

// Parent returns the schema this one extends.
func (s *Schema) Parent() *Schema { return s.parent }

// Fields returns all declared fields, inherited first.
func (s *Schema) Fields() []*Field { return append([]*Field(nil), s.fields...) }

// Field returns the declared field called name.
func (s *Schema) Field(name string) (*Field, bool) {
	f, ok := s.index[name]
	return f, ok
}

// Params returns the names of all value fields.
func (s *Schema) Params() []string { return s.names(KindValue) }

// Nodes returns the names of all sub-unit fields.
func (s *Schema) Nodes() []string { return s.names(KindNode) }

func (s *Schema) names(k Kind) []string {
	var out []string
	for _, f := range s.fields {
		if f.kind == k {
			out = append(out, f.name)
		}
	}
	return out
}

// Keywords returns every protected keyword of the schema and its ancestors.
func (s *Schema) Keywords() []string {
	set := map[string]bool{}
	for cur := s; cur != nil; cur = cur.parent {
		for k := range cur.keywords {
			set[k] = true
		}
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Middleware returns the declared middleware chain.
func (s *Schema) Middleware() []Middleware { return append([]Middleware(nil), s.middleware...) }

// Signature returns the declared call contract or nil.
func (s *Schema) Signature() *Signature { return s.signature }

// Is reports whether s is other or extends it.
func (s *Schema) Is(other *Schema) bool {
	for cur := s; cur != nil; cur = cur.parent {
		if cur == other {
			return true
		}
	}
	return false
}

// New builds and initializes an instance through the schema's factory.
func (s *Schema) New(params map[string]any, optFns ...func(o *Options)) (Node, error) {
	if s.factory == nil {
		return nil, fieldError(s.name, "", ErrNotRegistered, "schema has no factory")
	}
	n := s.factory()
	if err := n.Flow().Init(s, n, params, optFns...); err != nil {
		return nil, err
	}
	return n, nil
}

var registry = struct {
	mu      sync.RWMutex
	schemas map[string]*Schema
}{schemas: map[string]*Schema{}}

func register(s *Schema) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.schemas[s.name] = s
}

// Lookup returns the registered schema called name.
func Lookup(name string) (*Schema, bool) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	s, ok := registry.schemas[name]
	return s, ok
}

// Registered returns the sorted names of all registered schemas.
func Registered() []string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	out := make([]string, 0, len(registry.schemas))
	for name := range registry.schemas {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
