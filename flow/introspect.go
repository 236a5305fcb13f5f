package flow

import "strings"

func (b *Base) resolveNode(name string) (Node, error) {
	f, err := b.spec(name)
	if err != nil {
		return nil, err
	}
	v, err := b.resolve(f)
	if err != nil {
		return nil, err
	}
	n, ok := v.(Node)
	if !ok || n == nil {
		return nil, fieldError(b.TypeName(), name, ErrTypeMismatch, "%T is not a composable", v)
	}
	return n, nil
}

// Specs returns the field metadata addressed by a dotted path such as
// "retriever.top_k". Leading and trailing dots are ignored.
func (b *Base) Specs(path string) (*Field, error) {
	path = strings.Trim(path, ".")
	if head, rest, ok := strings.Cut(path, "."); ok {
		child, err := b.resolveNode(head)
		if err != nil {
			return nil, err
		}
		return child.Flow().Specs(rest)
	}
	return b.spec(path)
}

// GetFromPath resolves the field addressed by a dotted path. Unlike Get it
// never positions sub-units in an active call tree.
func (b *Base) GetFromPath(path string) (any, error) {
	path = strings.Trim(path, ".")
	if head, rest, ok := strings.Cut(path, "."); ok {
		child, err := b.resolveNode(head)
		if err != nil {
			return nil, err
		}
		return child.Flow().GetFromPath(rest)
	}
	f, err := b.spec(path)
	if err != nil {
		return nil, err
	}
	return b.resolve(f)
}

// IsCompatible reports whether candidate may be assigned to the field at
// path. Value fields compare the candidate's type with the declared types.
// Sub-unit fields compare the candidate's signature with the declared one;
// a candidate may be a composable, a *Schema or any Signer.
func (b *Base) IsCompatible(path string, candidate any) (bool, error) {
	f, err := b.Specs(path)
	if err != nil {
		return false, err
	}
	if f.kind == KindValue {
		return f.accepts(candidate), nil
	}
	ref := f.Signature()
	if ref == nil && f.ref != "" {
		if s, ok := Lookup(f.ref); ok {
			ref = s.signature
		}
	}
	var sig Signature
	switch c := candidate.(type) {
	case *Schema:
		if c.signature != nil {
			sig = *c.signature
		}
	default:
		sig = SignatureOf(candidate)
	}
	return Compatible(ref, sig), nil
}
