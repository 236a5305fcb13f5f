package hashing

import (
	"math/big"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type point struct {
	X, Y int
	tag  string
}

type fingerprinted struct{ id string }

func (f fingerprinted) Fingerprint() string { return f.id }

func TestSum_Scalars(t *testing.T) {
	assert.Len(t, Sum(1), 64)
	assert.Equal(t, Sum(1), Sum(1))
	assert.NotEqual(t, Sum(1), Sum("1"))
	assert.NotEqual(t, Sum(1), Sum(true))
	assert.NotEqual(t, Sum(1), Sum(1.0))
	assert.NotEqual(t, Sum(""), Sum(nil))
	assert.Equal(t, Sum(nil), Sum((*point)(nil)))
}

func TestSum_SequencesAreOrderSensitive(t *testing.T) {
	assert.NotEqual(t, Sum([]int{1, 2, 3}), Sum([]int{3, 2, 1}))
	assert.Equal(t, Sum([]any{1, "a"}), Sum([]any{1, "a"}))
	assert.NotEqual(t, Sum([]string{"ab", "c"}), Sum([]string{"a", "bc"}))
}

func TestSum_SetsAreOrderInsensitive(t *testing.T) {
	a := map[string]struct{}{}
	b := map[string]struct{}{}
	for _, k := range []string{"x", "y", "z"} {
		a[k] = struct{}{}
	}
	for _, k := range []string{"z", "x", "y"} {
		b[k] = struct{}{}
	}
	assert.Equal(t, Sum(a), Sum(b))
}

func TestSum_BoolMapsAreMappings(t *testing.T) {
	a := map[string]bool{"verbose": true, "dry_run": false}
	b := map[string]bool{"dry_run": false, "verbose": true}
	assert.Equal(t, Sum(a), Sum(b))

	assert.NotEqual(t, Sum(a), Sum(map[string]bool{"verbose": true}))
	assert.NotEqual(t, Sum(map[string]bool{"x": false}), Sum(map[string]bool{}))
	assert.NotEqual(t, Sum(map[string]bool{"x": true}), Sum(map[string]struct{}{"x": {}}))
}

func TestSum_MapsAreOrderInsensitive(t *testing.T) {
	a := map[string]any{}
	a["one"] = 1
	a["two"] = []int{2}
	b := map[string]any{"two": []int{2}, "one": 1}
	assert.Equal(t, Sum(a), Sum(b))

	b["one"] = 2
	assert.NotEqual(t, Sum(a), Sum(b))
}

func TestSum_NestedMappingIsStable(t *testing.T) {
	v := map[string]any{
		"a": map[string]any{"b": []any{1, 2, map[string]int{"c": 3}}},
		"d": "e",
	}
	first := Sum(v)
	second := Sum(v)
	assert.Equal(t, first, second)
}

func TestSum_TypeDiffersFromInstance(t *testing.T) {
	assert.NotEqual(t, Sum(reflect.TypeOf(point{})), Sum(point{}))
	assert.Equal(t, Sum(reflect.TypeOf(point{})), Sum(reflect.TypeOf(point{X: 1})))
}

func TestSum_StructsUseAllFields(t *testing.T) {
	assert.NotEqual(t, Sum(point{X: 1, Y: 2, tag: "a"}), Sum(point{X: 1, Y: 2, tag: "b"}))
	assert.NotEqual(t, Sum(point{X: 1, Y: 2}), Sum(point{X: 2, Y: 1}))
	assert.Equal(t, Sum(point{X: 1, tag: "a"}), Sum(point{X: 1, tag: "a"}))
	assert.Equal(t, Sum(point{X: 1}), Sum(&point{X: 1}))
}

func TestSum_UnexportedOnlyStructs(t *testing.T) {
	type secret struct {
		n     int
		s     string
		xs    []float64
		m     map[string]int
		inner *point
		kind  reflect.Type
	}
	a := secret{n: 1, s: "a", xs: []float64{1.5}, m: map[string]int{"k": 1}, inner: &point{tag: "p"}, kind: reflect.TypeOf(0)}
	b := a
	assert.Equal(t, Sum(a), Sum(b))

	b.n = 2
	assert.NotEqual(t, Sum(a), Sum(b))

	c := a
	c.m = map[string]int{"k": 2}
	assert.NotEqual(t, Sum(a), Sum(c))

	d := a
	d.inner = &point{tag: "q"}
	assert.NotEqual(t, Sum(a), Sum(d))

	e := a
	e.kind = reflect.TypeOf("")
	assert.NotEqual(t, Sum(a), Sum(e))
}

func TestSum_Time(t *testing.T) {
	epoch := time.Unix(0, 0).UTC()
	later := time.Unix(1_700_000_000, 0).UTC()
	assert.NotEqual(t, Sum(epoch), Sum(later))
	assert.Equal(t, Sum(later), Sum(time.Unix(1_700_000_000, 0).UTC()))
	assert.NotEqual(t, Sum(map[string]any{"at": epoch}), Sum(map[string]any{"at": later}))

	type event struct {
		at time.Time
	}
	assert.NotEqual(t, Sum(event{at: epoch}), Sum(event{at: later}))
}

func TestSum_BigInt(t *testing.T) {
	assert.NotEqual(t, Sum(big.NewInt(1)), Sum(big.NewInt(2)))
	assert.Equal(t, Sum(big.NewInt(42)), Sum(big.NewInt(42)))
	assert.NotEqual(t, Sum(*big.NewInt(1)), Sum(*big.NewInt(2)))
}

func TestSum_Hasher(t *testing.T) {
	assert.Equal(t, Sum(fingerprinted{id: "a"}), Sum(fingerprinted{id: "a"}))
	assert.NotEqual(t, Sum(fingerprinted{id: "a"}), Sum(fingerprinted{id: "b"}))
}

func TestSum_Funcs(t *testing.T) {
	assert.Equal(t, Sum(Sum), Sum(Sum))
	assert.NotEqual(t, Sum(Sum), Sum(Bytes))
}

func TestSum_SelfReferenceTerminates(t *testing.T) {
	type node struct {
		Next *node
	}
	n := &node{}
	n.Next = n

	assert.NotEmpty(t, Sum(n))

	m := map[string]any{}
	m["self"] = m
	assert.NotEmpty(t, Sum(m))
}
