// Package hashing computes deterministic structural fingerprints of arbitrary
// Go values. Digests are used as cache keys and for content addressing.
//
// Rules:
//   - scalars digest by kind and value, so 1, "1" and true never collide
//   - slices and arrays are order sensitive
//   - maps are order insensitive; a map whose value type is struct{} is
//     treated as a set
//   - a reflect.Type digests differently from any instance of that type
//   - structs digest by type name and all fields, exported or not
//   - values implementing Hasher supply their own fingerprint; values
//     implementing encoding.BinaryMarshaler digest their encoding
package hashing

import (
	"encoding"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash"
	"math"
	"reflect"
	"runtime"
	"sort"

	"golang.org/x/crypto/blake2b"
)

// Hasher lets a type control its own fingerprint.
type Hasher interface {
	Fingerprint() string
}

// maxDepth bounds traversal of self-referencing values.
const maxDepth = 64

var (
	hasherType = reflect.TypeOf((*Hasher)(nil)).Elem()
	typeType   = reflect.TypeOf((*reflect.Type)(nil)).Elem()
	binaryType = reflect.TypeOf((*encoding.BinaryMarshaler)(nil)).Elem()
)

// Sum returns the hex encoded blake2b-256 digest of v.
func Sum(v any) string {
	return hex.EncodeToString(Bytes(v))
}

// Bytes returns the raw blake2b-256 digest of v.
func Bytes(v any) []byte {
	w := &walker{seen: map[uintptr]bool{}}
	return w.digest(reflect.ValueOf(v), 0)
}

type walker struct {
	seen map[uintptr]bool
}

func newHash() hash.Hash {
	h, _ := blake2b.New256(nil) // nil key never fails
	return h
}

func (w *walker) digest(v reflect.Value, depth int) []byte {
	h := newHash()

	if depth > maxDepth {
		writeTag(h, "depth")
		return h.Sum(nil)
	}

	if !v.IsValid() {
		writeTag(h, "nil")
		return h.Sum(nil)
	}

	if v.Kind() != reflect.Interface && v.Type().Implements(typeType) && v.CanInterface() {
		if t, ok := v.Interface().(reflect.Type); ok {
			writeTag(h, "type")
			writeString(h, t.String())
			return h.Sum(nil)
		}
	}

	if v.Kind() != reflect.Interface && v.Kind() != reflect.Pointer && v.Type().Implements(hasherType) && v.CanInterface() {
		writeTag(h, "hasher")
		writeString(h, v.Interface().(Hasher).Fingerprint())
		return h.Sum(nil)
	}

	if b, ok := marshalBinary(v); ok {
		writeTag(h, "binary")
		writeString(h, v.Type().String())
		writeString(h, string(b))
		return h.Sum(nil)
	}

	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			writeTag(h, "nil")
			return h.Sum(nil)
		}
		return w.digest(v.Elem(), depth)
	case reflect.Pointer:
		if v.IsNil() {
			writeTag(h, "nil")
			return h.Sum(nil)
		}
		if v.Type().Implements(hasherType) && v.CanInterface() {
			writeTag(h, "hasher")
			writeString(h, v.Interface().(Hasher).Fingerprint())
			return h.Sum(nil)
		}
		ptr := v.Pointer()
		if w.seen[ptr] {
			writeTag(h, "cycle")
			return h.Sum(nil)
		}
		w.seen[ptr] = true
		defer delete(w.seen, ptr)
		return w.digest(v.Elem(), depth+1)
	case reflect.Bool:
		writeTag(h, "bool")
		if v.Bool() {
			h.Write([]byte{1})
		} else {
			h.Write([]byte{0})
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		writeTag(h, "int")
		writeUint(h, uint64(v.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		writeTag(h, "uint")
		writeUint(h, v.Uint())
	case reflect.Float32, reflect.Float64:
		writeTag(h, "float")
		writeUint(h, math.Float64bits(v.Float()))
	case reflect.Complex64, reflect.Complex128:
		writeTag(h, "complex")
		c := v.Complex()
		writeUint(h, math.Float64bits(real(c)))
		writeUint(h, math.Float64bits(imag(c)))
	case reflect.String:
		writeTag(h, "string")
		writeString(h, v.String())
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.IsNil() {
			writeTag(h, "nil")
			return h.Sum(nil)
		}
		writeTag(h, "seq")
		writeUint(h, uint64(v.Len()))
		for i := 0; i < v.Len(); i++ {
			h.Write(w.digest(v.Index(i), depth+1))
		}
	case reflect.Map:
		if isSet(v.Type()) {
			writeTag(h, "set")
			w.writeSorted(h, w.setEntries(v, depth))
		} else {
			writeTag(h, "map")
			w.writeSorted(h, w.mapEntries(v, depth))
		}
	case reflect.Struct:
		writeTag(h, "struct")
		writeString(h, v.Type().String())
		t := v.Type()
		for i := 0; i < v.NumField(); i++ {
			writeString(h, t.Field(i).Name)
			h.Write(w.digest(v.Field(i), depth+1))
		}
	case reflect.Func:
		writeTag(h, "func")
		if v.IsNil() {
			writeString(h, "nil")
		} else if fn := runtime.FuncForPC(v.Pointer()); fn != nil {
			writeString(h, fn.Name())
		}
	case reflect.Chan, reflect.UnsafePointer:
		writeTag(h, v.Kind().String())
		writeString(h, v.Type().String())
	default:
		writeTag(h, "other")
		writeString(h, fmt.Sprintf("%v", v))
	}

	return h.Sum(nil)
}

func (w *walker) mapEntries(v reflect.Value, depth int) [][]byte {
	entries := make([][]byte, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		eh := newHash()
		eh.Write(w.digest(iter.Key(), depth+1))
		eh.Write(w.digest(iter.Value(), depth+1))
		entries = append(entries, eh.Sum(nil))
	}
	return entries
}

func (w *walker) setEntries(v reflect.Value, depth int) [][]byte {
	entries := make([][]byte, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		entries = append(entries, w.digest(iter.Key(), depth+1))
	}
	return entries
}

func (w *walker) writeSorted(h hash.Hash, entries [][]byte) {
	sort.Slice(entries, func(i, j int) bool {
		return string(entries[i]) < string(entries[j])
	})
	writeUint(h, uint64(len(entries)))
	for _, e := range entries {
		h.Write(e)
	}
}

func isSet(t reflect.Type) bool {
	elem := t.Elem()
	return elem.Kind() == reflect.Struct && elem.NumField() == 0
}

// marshalBinary returns the binary encoding of v when its type, or a pointer
// to it, implements encoding.BinaryMarshaler. Unexported values are skipped
// and walked field by field instead.
func marshalBinary(v reflect.Value) ([]byte, bool) {
	if v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer {
		return nil, false
	}
	var m encoding.BinaryMarshaler
	switch {
	case v.Type().Implements(binaryType) && v.CanInterface():
		m, _ = v.Interface().(encoding.BinaryMarshaler)
	case v.CanAddr() && reflect.PointerTo(v.Type()).Implements(binaryType) && v.Addr().CanInterface():
		m, _ = v.Addr().Interface().(encoding.BinaryMarshaler)
	}
	if m == nil {
		return nil, false
	}
	b, err := m.MarshalBinary()
	if err != nil {
		return nil, false
	}
	return b, true
}

func writeTag(h hash.Hash, tag string) {
	h.Write([]byte(tag))
	h.Write([]byte{0})
}

func writeString(h hash.Hash, s string) {
	writeUint(h, uint64(len(s)))
	h.Write([]byte(s))
}

func writeUint(h hash.Hash, u uint64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], u)
	h.Write(buf[:])
}
