package flow

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/hupe1980/flowmesh/internal/util"
)

// Description is the nested structural document of a composable.
type Description struct {
	Type   string                  `json:"type" yaml:"type"`
	Params map[string]any          `json:"params" yaml:"params"`
	Nodes  map[string]*Description `json:"nodes" yaml:"nodes"`
}

// DescribeOptions configures Describe and DescribeSchema.
type DescribeOptions struct {
	// IncludeDepends also reports computed fields.
	IncludeDepends bool
}

// Describe documents the live state of the instance. A field that fails to
// resolve is reported as nil; only ErrRecursion aborts the traversal.
func (b *Base) Describe(optFns ...func(o *DescribeOptions)) (*Description, error) {
	var opts DescribeOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	return b.describe(opts, 0)
}

func (b *Base) describe(opts DescribeOptions, depth int) (*Description, error) {
	if depth > b.maxDepth {
		return nil, fieldError(b.TypeName(), "", ErrRecursion, "description depth exceeds %d", b.maxDepth)
	}
	d := &Description{Type: b.TypeName(), Params: map[string]any{}, Nodes: map[string]*Description{}}
	for _, f := range b.schema.fields {
		if f.kind != KindValue || (f.Computed() && !opts.IncludeDepends) {
			continue
		}
		v, err := b.resolve(f)
		if err != nil {
			if errors.Is(err, ErrRecursion) {
				return nil, err
			}
			d.Params[f.name] = nil
			continue
		}
		d.Params[f.name] = describeValue(v)
	}
	for _, name := range b.Children() {
		f, err := b.spec(name)
		if err != nil || (f.Computed() && !opts.IncludeDepends) {
			continue
		}
		v, err := b.resolve(f)
		if err != nil {
			if errors.Is(err, ErrRecursion) {
				return nil, err
			}
			d.Nodes[name] = nil
			continue
		}
		n, ok := v.(Node)
		if !ok || n == nil {
			d.Nodes[name] = nil
			continue
		}
		cd, err := n.Flow().describe(opts, depth+1)
		if err != nil {
			if errors.Is(err, ErrRecursion) {
				return nil, err
			}
			cd = nil
		}
		d.Nodes[name] = cd
	}
	return d, nil
}

// DescribeSchema documents the declared defaults of a schema.
func DescribeSchema(s *Schema, optFns ...func(o *DescribeOptions)) (*Description, error) {
	var opts DescribeOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	return describeSchema(s, opts, 0)
}

func describeSchema(s *Schema, opts DescribeOptions, depth int) (*Description, error) {
	if depth > DefaultMaxDepth {
		return nil, fieldError(s.name, "", ErrRecursion, "description depth exceeds %d", DefaultMaxDepth)
	}
	d := &Description{Type: s.name, Params: map[string]any{}, Nodes: map[string]*Description{}}
	for _, f := range s.fields {
		if f.Computed() && !opts.IncludeDepends {
			continue
		}
		if f.kind == KindValue {
			var v any
			if f.hasDefault {
				v = describeValue(f.def)
			}
			d.Params[f.name] = v
			continue
		}
		child, ok := f.def.(*Schema)
		if !ok {
			d.Nodes[f.name] = nil
			continue
		}
		cd, err := describeSchema(child, opts, depth+1)
		if err != nil {
			return nil, err
		}
		d.Nodes[f.name] = cd
	}
	return d, nil
}

// describeValue renders values that have no useful document form by name.
func describeValue(v any) any {
	if v == nil {
		return nil
	}
	switch t := v.(type) {
	case *Schema:
		return t.name
	case Node:
		return t.Flow().TypeName()
	case reflect.Type:
		return t.String()
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Func {
		return util.FuncName(v)
	}
	if _, ok := v.(Runnable); ok {
		return fmt.Sprintf("%T", v)
	}
	return v
}

// Load rebuilds an instance from a description through the schema registry.
// Nil and computed params are skipped, as are function typed params, which
// are described by name only.
func Load(desc *Description, optFns ...func(o *Options)) (Node, error) {
	return load(desc, optFns, 0)
}

func load(desc *Description, optFns []func(o *Options), depth int) (Node, error) {
	if desc == nil {
		return nil, fieldError("<nil>", "", ErrInvalidOperation, "nil description")
	}
	if depth > DefaultMaxDepth {
		return nil, fieldError(desc.Type, "", ErrRecursion, "description depth exceeds %d", DefaultMaxDepth)
	}
	s, ok := Lookup(desc.Type)
	if !ok {
		return nil, fieldError(desc.Type, "", ErrNotRegistered, "no schema registered under this name")
	}
	n, err := s.New(nil, optFns...)
	if err != nil {
		return nil, err
	}
	b := n.Flow()

	params := map[string]any{}
	for k, v := range desc.Params {
		f, ok := s.Field(k)
		if v == nil || !ok || f.Computed() || f.kind != KindValue {
			continue
		}
		if f.typ != nil && f.typ.Kind() == reflect.Func {
			continue
		}
		params[k] = v
	}
	if err := b.SetParams(params, false); err != nil {
		return nil, err
	}

	for _, name := range sortChildNames(desc.Nodes) {
		cd := desc.Nodes[name]
		if cd == nil {
			continue
		}
		if f, ok := s.Field(name); ok && f.Computed() {
			continue
		}
		child, err := load(cd, optFns, depth+1)
		if err != nil {
			return nil, err
		}
		if err := b.Attach(name, child); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// sortChildNames orders combinator children (func1_, func2_, ...) by index
// and everything else alphabetically after them.
func sortChildNames(nodes map[string]*Description) []string {
	names := make([]string, 0, len(nodes))
	for name := range nodes {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ii, iok := childIndex(names[i])
		ji, jok := childIndex(names[j])
		switch {
		case iok && jok:
			return ii < ji
		case iok != jok:
			return iok
		default:
			return names[i] < names[j]
		}
	})
	return names
}

func childIndex(name string) (int, bool) {
	rest, ok := strings.CutPrefix(name, "func")
	if !ok {
		return 0, false
	}
	num, _, ok := strings.Cut(rest, "_")
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(num)
	return i, err == nil
}

// MissingReport lists fields that cannot be resolved. Names of nested
// fields are dotted.
type MissingReport struct {
	Params []string `json:"params" yaml:"params"`
	Nodes  []string `json:"nodes" yaml:"nodes"`
}

// Empty reports whether nothing is missing.
func (r MissingReport) Empty() bool { return len(r.Params) == 0 && len(r.Nodes) == 0 }

// Missing reports value and sub-unit fields that have no value, default or
// computation. Computed fields are not checked.
func (b *Base) Missing() MissingReport {
	var r MissingReport
	b.missing(&r, "", 0)
	return r
}

func (b *Base) missing(r *MissingReport, prefix string, depth int) {
	if depth > b.maxDepth {
		return
	}
	for _, f := range b.schema.fields {
		if f.kind != KindValue || f.Computed() {
			continue
		}
		if _, err := b.resolve(f); err != nil {
			r.Params = append(r.Params, prefix+f.name)
		}
	}
	for _, name := range b.Children() {
		f, err := b.spec(name)
		if err != nil || f.Computed() {
			continue
		}
		v, err := b.resolve(f)
		n, ok := v.(Node)
		if err != nil || !ok || n == nil {
			r.Nodes = append(r.Nodes, prefix+name)
			continue
		}
		n.Flow().missing(r, prefix+name+".", depth+1)
	}
}

// Documentation renders a plain text reference of a schema's fields.
func Documentation(s *Schema) string {
	var sb strings.Builder
	sb.WriteString(s.name)
	sb.WriteString("\n")
	if s.doc != "" {
		sb.WriteString("\n")
		sb.WriteString(s.doc)
		sb.WriteString("\n")
	}
	write := func(title string, kind Kind) {
		names := s.names(kind)
		if len(names) == 0 {
			return
		}
		sb.WriteString("\n" + title + ":\n")
		for _, name := range names {
			f := s.index[name]
			sb.WriteString("  - " + name + " (" + util.TypeLabel(f.typ))
			if f.hasDefault {
				fmt.Fprintf(&sb, ", default %v", describeValue(f.def))
			}
			if f.Computed() {
				sb.WriteString(", depends on " + strings.Join(f.dependsOn, ", "))
			}
			sb.WriteString(")")
			if f.help != "" {
				sb.WriteString(": " + f.help)
			}
			sb.WriteString("\n")
		}
	}
	write("Params", KindValue)
	write("Nodes", KindNode)
	return sb.String()
}
