package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefine_RejectsReservedPrefix(t *testing.T) {
	_, err := Define("flowtest.Reserved", Param("_hidden"))
	require.ErrorIs(t, err, ErrDefinition)
	assert.Contains(t, err.Error(), "_hidden")
}

func TestDefine_RejectsEmptyName(t *testing.T) {
	_, err := Define("")
	require.ErrorIs(t, err, ErrDefinition)
}

func TestDefine_KeywordCollisionNamesAncestor(t *testing.T) {
	parent := MustDefine("flowtest.KeywordParent", Keywords("special"), newTestFactory())
	middle := MustDefine("flowtest.KeywordMiddle", Extends(parent), newTestFactory())

	_, err := Define("flowtest.KeywordChild", Extends(middle), Param("special"))
	require.ErrorIs(t, err, ErrDefinition)
	assert.Contains(t, err.Error(), "flowtest.KeywordParent")

	_, err = Define("flowtest.KeywordRun", Param("run"))
	require.ErrorIs(t, err, ErrDefinition)
	assert.Contains(t, err.Error(), "flow.Base")
}

func TestDefine_KeywordCollisionWithInheritedField(t *testing.T) {
	parent := MustDefine("flowtest.FieldParent", Param("mode"), newTestFactory())

	_, err := Define("flowtest.FieldChild", Extends(parent), Keywords("mode"))
	require.ErrorIs(t, err, ErrDefinition)
	assert.Contains(t, err.Error(), "flowtest.FieldChild")
}

func TestDefine_InvalidDependencies(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{"without compute", []Option{Param("a"), Param("b", DependsOn("a"))}},
		{"with no cache", []Option{Param("a"), Param("b", DependsOn("a"), NoCache(), Compute(func(*Base) (any, error) { return 1, nil }))}},
		{"unknown", []Option{Param("b", DependsOn("a"), Compute(func(*Base) (any, error) { return 1, nil }))}},
		{"self", []Option{Param("b", DependsOn("b"), Compute(func(*Base) (any, error) { return 1, nil }))}},
		{"duplicate", []Option{Param("a"), Param("a")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Define("flowtest.InvalidDeps", tt.opts...)
			require.ErrorIs(t, err, ErrDefinition)
		})
	}
}

func TestDefine_InfersKind(t *testing.T) {
	inner := MustDefine("flowtest.InferInner", newTestFactory())
	s := MustDefine("flowtest.Infer",
		Attr("count", Default(3)),
		Attr("runner", TypeOf[Runnable]()),
		Attr("named", Ref("flowtest.InferInner")),
		Attr("built", Default(inner)),
		newTestFactory(),
	)

	kinds := map[string]Kind{}
	for _, f := range s.Fields() {
		kinds[f.Name()] = f.Kind()
	}
	assert.Equal(t, map[string]Kind{
		"count":  KindValue,
		"runner": KindNode,
		"named":  KindNode,
		"built":  KindNode,
	}, kinds)
	assert.Equal(t, []string{"count"}, s.Params())
}

func TestDefine_RejectsNonComposableNodeDefault(t *testing.T) {
	_, err := Define("flowtest.BadDefault", Child("c", Default(42)))
	require.ErrorIs(t, err, ErrDefinition)
}

func TestDefine_Inheritance(t *testing.T) {
	mw := func(_ *Base, next Handler) Handler { return next }
	parent := MustDefine("flowtest.InheritParent",
		Param("a", Default(1)),
		Param("b", Default(2)),
		Use(mw),
		newTestFactory(),
	)
	child := MustDefine("flowtest.InheritChild",
		Extends(parent),
		Param("b", Default(20)),
		Param("c", Default(3)),
		newTestFactory(),
	)

	assert.Equal(t, []string{"a", "b", "c"}, child.Params())
	f, ok := child.Field("b")
	require.True(t, ok)
	v, _ := f.DefaultValue()
	assert.Equal(t, 20, v)
	assert.Len(t, child.Middleware(), 1)
	assert.True(t, child.Is(parent))
	assert.False(t, parent.Is(child))

	override := MustDefine("flowtest.InheritOverride", Extends(parent), Use(), newTestFactory())
	assert.Empty(t, override.Middleware())
}

func TestRegistry_Lookup(t *testing.T) {
	s := MustDefine("flowtest.Registered", newTestFactory())

	got, ok := Lookup("flowtest.Registered")
	require.True(t, ok)
	assert.Same(t, s, got)
	assert.Contains(t, Registered(), "flowtest.Registered")

	_, ok = Lookup("flowtest.Nope")
	assert.False(t, ok)
}

func TestMustDefine_Panics(t *testing.T) {
	assert.Panics(t, func() { MustDefine("flowtest.Panics", Param("_x")) })
}

func TestDocumentation(t *testing.T) {
	s := MustDefine("flowtest.Documented",
		Doc("Adds things."),
		Param("x", TypeOf[int](), Default(1), Help("the addend")),
		newTestFactory(),
	)

	doc := Documentation(s)
	assert.Contains(t, doc, "flowtest.Documented")
	assert.Contains(t, doc, "Adds things.")
	assert.Contains(t, doc, "x (integer, default 1): the addend")
}
