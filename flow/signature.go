package flow

import (
	"reflect"
	"strings"

	"github.com/hupe1980/flowmesh/internal/util"
)

// Arg is one named input of a Signature.
type Arg struct {
	Name string
	Type reflect.Type
}

// Signature is the declared input/output contract of a sub-unit.
type Signature struct {
	Inputs []Arg
	Output reflect.Type
}

// Signer is implemented by composables that advertise their call contract.
type Signer interface {
	Signature() Signature
}

// NewSignature builds a Signature from an output type and named inputs.
func NewSignature(output reflect.Type, inputs ...Arg) Signature {
	return Signature{Inputs: inputs, Output: output}
}

// Input returns the input named name.
func (s Signature) Input(name string) (Arg, bool) {
	for _, a := range s.Inputs {
		if a.Name == name {
			return a, true
		}
	}
	return Arg{}, false
}

func (s Signature) String() string {
	parts := make([]string, 0, len(s.Inputs))
	for _, a := range s.Inputs {
		parts = append(parts, a.Name+" "+util.TypeLabel(a.Type))
	}
	return "(" + strings.Join(parts, ", ") + ") " + util.TypeLabel(s.Output)
}

// Compatible reports whether a candidate signature satisfies ref. A nil
// reference is unconstrained. Every input declared by ref must be present in
// the candidate with a compatible type, and the candidate's output must be
// assignable to ref's output.
func Compatible(ref *Signature, candidate Signature) bool {
	if ref == nil {
		return true
	}
	for _, want := range ref.Inputs {
		got, ok := candidate.Input(want.Name)
		if !ok {
			return false
		}
		if !util.TypesCompatible(want.Type, got.Type) {
			return false
		}
	}
	return util.TypesCompatible(candidate.Output, ref.Output)
}

// SignatureOf returns the advertised signature of v, or an empty one when v
// does not implement Signer.
func SignatureOf(v any) Signature {
	if s, ok := v.(Signer); ok {
		return s.Signature()
	}
	return Signature{}
}
