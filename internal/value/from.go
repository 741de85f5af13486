package value

import (
	"errors"
	"fmt"
	"reflect"
)

// MaxDepth bounds composite nesting. Self-containing slices or maps hit it
// instead of recursing forever.
const MaxDepth = 256

var (
	ErrUnsupported  = errors.New("unsupported value")
	ErrTooDeep      = errors.New("value nested too deeply")
	ErrDuplicateKey = errors.New("duplicate map key")
)

// From maps an arbitrary Go value onto Value.
//
//   - nil and typed nil pointers map to Null
//   - bools, numbers, strings and []byte map to scalars
//   - pointers, channels and unsafe pointers map to Ref
//   - slices and arrays map to List
//   - maps map to Map, keys rendered as scalar text
//   - structs implementing fmt.Stringer map to a string scalar, other
//     structs to a Map of their exported fields
//
// Funcs and complex numbers are rejected with ErrUnsupported.
func From(v any) (Value, error) {
	return from(v, 0)
}

func from(v any, depth int) (Value, error) {
	if depth > MaxDepth {
		return nil, ErrTooDeep
	}
	switch x := v.(type) {
	case nil:
		return Null(), nil
	case Scalar, List, Map, Ref:
		return x.(Value), nil
	case Value:
		return nil, fmt.Errorf("%w: %T", ErrUnsupported, x)
	case bool:
		return Bool(x), nil
	case string:
		return String(x), nil
	case []byte:
		return String(string(x)), nil
	case int:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case int32:
		return Int(int64(x)), nil
	case uint64:
		return Uint(x), nil
	case float64:
		return Float(x), nil
	case float32:
		return Float32(x), nil
	}
	return fromReflect(reflect.ValueOf(v), depth)
}

func fromReflect(rv reflect.Value, depth int) (Value, error) {
	switch rv.Kind() {
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Uint(rv.Uint()), nil
	case reflect.Float32:
		return Float32(float32(rv.Float())), nil
	case reflect.Float64:
		return Float(rv.Float()), nil
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		if rv.IsNil() {
			return Null(), nil
		}
		return refOf(rv), nil
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return String(string(rv.Bytes())), nil
		}
		return listOf(rv, depth)
	case reflect.Array:
		return listOf(rv, depth)
	case reflect.Map:
		return mapOf(rv, depth)
	case reflect.Struct:
		if s, ok := rv.Interface().(fmt.Stringer); ok {
			return String(s.String()), nil
		}
		return structOf(rv, depth)
	}
	return nil, unsupported("value", rv)
}

func listOf(rv reflect.Value, depth int) (Value, error) {
	l := make(List, rv.Len())
	for i := range l {
		item, err := from(rv.Index(i).Interface(), depth+1)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		l[i] = item
	}
	return l, nil
}

func mapOf(rv reflect.Value, depth int) (Value, error) {
	m := make(Map, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		key, err := keyText(iter.Key())
		if err != nil {
			return nil, err
		}
		if _, dup := m[key]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateKey, key)
		}
		item, err := from(iter.Value().Interface(), depth+1)
		if err != nil {
			return nil, fmt.Errorf("[%q]: %w", key, err)
		}
		m[key] = item
	}
	return m, nil
}

func structOf(rv reflect.Value, depth int) (Value, error) {
	t := rv.Type()
	m := make(Map, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		item, err := from(rv.Field(i).Interface(), depth+1)
		if err != nil {
			return nil, fmt.Errorf(".%s: %w", f.Name, err)
		}
		m[f.Name] = item
	}
	return m, nil
}

// keyText renders a map key the way a scalar value would render.
func keyText(k reflect.Value) (string, error) {
	v, err := from(k.Interface(), 0)
	if err != nil {
		return "", fmt.Errorf("map key: %w", err)
	}
	s, ok := v.(Scalar)
	if !ok {
		return "", unsupported("map key", k)
	}
	return s.Text(), nil
}

func unsupported(what string, rv reflect.Value) error {
	if !rv.IsValid() {
		return fmt.Errorf("%w: %s <nil>", ErrUnsupported, what)
	}
	return fmt.Errorf("%w: %s of type %s", ErrUnsupported, what, rv.Type())
}
