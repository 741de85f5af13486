package occurrence

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrInvalidArgument is returned when a space is not text or an occurrence
// number is not a positive integer. It is raised before any state changes.
var ErrInvalidArgument = errors.New("invalid argument")

// DefaultSpace is used when the caller names no space.
const DefaultSpace = "default"

// Space validates a dynamically typed space argument. Only values whose kind
// is string are text; a missing argument selects DefaultSpace.
func Space(args ...any) (string, error) {
	switch len(args) {
	case 0:
		return DefaultSpace, nil
	case 1:
	default:
		return "", fmt.Errorf("%w: expected at most one space, got %d", ErrInvalidArgument, len(args))
	}
	if s, ok := args[0].(string); ok {
		return s, nil
	}
	rv := reflect.ValueOf(args[0])
	if rv.Kind() != reflect.String {
		return "", fmt.Errorf("%w: name of space must be a string, got %s", ErrInvalidArgument, describe(args[0]))
	}
	return rv.String(), nil
}

// Occurrence validates a dynamically typed occurrence number. Only Go
// integer kinds with a value of at least 1 pass; floats, numeric strings and
// booleans are rejected.
func Occurrence(n any) (int, error) {
	rv := reflect.ValueOf(n)
	var (
		v  int64
		ok bool
	)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v, ok = rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if u := rv.Uint(); u <= uint64(maxInt) {
			v, ok = int64(u), true
		}
	}
	if !ok || v < 1 || v > int64(maxInt) {
		return 0, fmt.Errorf("%w: occurrence number must be a positive integer, got %s", ErrInvalidArgument, describe(n))
	}
	return int(v), nil
}

const maxInt = int(^uint(0) >> 1)

func describe(v any) string {
	if v == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%T(%v)", v, v)
}
