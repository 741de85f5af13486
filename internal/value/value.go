// Package value defines the closed set of values the occurrence tracker can
// observe: scalars, ordered lists, keyed maps and reference-identity objects.
// Hosts map their own data onto these types with From.
package value

import (
	"reflect"
	"sort"
	"strconv"

	"github.com/spf13/cast"
)

// Value is implemented by Scalar, List, Map and Ref. Other types can satisfy
// it by embedding one of them; From and key derivation reject those with
// ErrUnsupported.
type Value interface {
	isValue()
}

// ScalarKind tells scalars apart inside composites, where 1 and "1" differ.
type ScalarKind uint8

const (
	KindNull ScalarKind = iota
	KindBool
	KindInt
	KindFloat
	KindString
)

func (k ScalarKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	default:
		return "ScalarKind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Scalar is a primitive together with its plain text rendering.
type Scalar struct {
	kind ScalarKind
	text string
}

func (Scalar) isValue() {}

// Null is the "no value" scalar. It renders as the empty string.
func Null() Scalar { return Scalar{kind: KindNull} }

// Bool renders true as "1" and false as the empty string.
func Bool(b bool) Scalar {
	if b {
		return Scalar{kind: KindBool, text: "1"}
	}
	return Scalar{kind: KindBool}
}

// Int renders n in base 10.
func Int(n int64) Scalar { return Scalar{kind: KindInt, text: strconv.FormatInt(n, 10)} }

// Uint renders n in base 10. Uint(3) and Int(3) are the same scalar.
func Uint(n uint64) Scalar { return Scalar{kind: KindInt, text: strconv.FormatUint(n, 10)} }

// Float renders f in its shortest decimal form, so 51.0 renders as "51".
func Float(f float64) Scalar { return Scalar{kind: KindFloat, text: cast.ToString(f)} }

// Float32 is Float for single precision values, rendered at 32-bit precision.
func Float32(f float32) Scalar { return Scalar{kind: KindFloat, text: cast.ToString(f)} }

// String wraps s unchanged.
func String(s string) Scalar { return Scalar{kind: KindString, text: s} }

// Kind returns the scalar kind.
func (s Scalar) Kind() ScalarKind { return s.kind }

// Text returns the plain text rendering.
func (s Scalar) Text() string { return s.text }

// List is an ordered composite.
type List []Value

func (List) isValue() {}

// Map is a keyed composite.
type Map map[string]Value

func (Map) isValue() {}

// SortedKeys returns the keys in ascending byte order.
func (m Map) SortedKeys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RefID identifies an object instance: the same pointer of the same type.
// It is comparable and usable as a map key.
type RefID struct {
	typ  reflect.Type
	addr uintptr
}

// Ref is an object counted by instance identity rather than by contents.
// It keeps its target reachable, so the address cannot be reused while the
// Ref (or anything holding it) is alive.
type Ref struct {
	id     RefID
	target any
}

func (Ref) isValue() {}

// RefOf wraps a non-nil pointer, channel or unsafe.Pointer.
func RefOf(target any) (Ref, error) {
	rv := reflect.ValueOf(target)
	if !isRefKind(rv.Kind()) {
		return Ref{}, unsupported("reference", rv)
	}
	if rv.IsNil() {
		return Ref{}, unsupported("nil reference", rv)
	}
	return refOf(rv), nil
}

func refOf(rv reflect.Value) Ref {
	return Ref{
		id:     RefID{typ: rv.Type(), addr: rv.Pointer()},
		target: rv.Interface(),
	}
}

func isRefKind(k reflect.Kind) bool {
	switch k {
	case reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		return true
	}
	return false
}

// ID returns the instance identity.
func (r Ref) ID() RefID { return r.id }

// Target returns the wrapped object.
func (r Ref) Target() any { return r.target }
