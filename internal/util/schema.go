package util

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"
)

// TypeLabel returns a short, language neutral label for a Go type. It is used
// when documenting declared fields.
func TypeLabel(t reflect.Type) string {
	if t == nil {
		return "any"
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map:
		return "object"
	case reflect.Pointer:
		return TypeLabel(t.Elem())
	case reflect.Interface:
		if t.NumMethod() == 0 {
			return "any"
		}
		return t.String()
	default:
		return t.String()
	}
}

// Assignable reports whether value may be stored in a slot declared with type
// t. A nil type accepts everything; a nil value is accepted by nillable kinds.
func Assignable(value any, t reflect.Type) bool {
	if t == nil {
		return true
	}
	if value == nil {
		switch t.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return true
		default:
			return false
		}
	}
	return reflect.TypeOf(value).AssignableTo(t)
}

// TypesCompatible reports whether a value of type actual satisfies a slot of
// type want. Either side being nil or the empty interface is compatible.
func TypesCompatible(actual, want reflect.Type) bool {
	if actual == nil || want == nil {
		return true
	}
	if want.Kind() == reflect.Interface && want.NumMethod() == 0 {
		return true
	}
	if actual.Kind() == reflect.Interface && actual.NumMethod() == 0 {
		return true
	}
	return actual.AssignableTo(want)
}

// FuncName returns the fully qualified symbol name of a function value.
func FuncName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return fmt.Sprintf("%T", fn)
	}
	if f := runtime.FuncForPC(v.Pointer()); f != nil {
		return f.Name()
	}
	return v.Type().String()
}

// ShortName returns the last dot separated segment of a qualified name.
func ShortName(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}
