package step

import (
	"fmt"
	"reflect"
)

// Args carries the named argument values delivered to an executor.
type Args map[string]any

// Arg reads a named argument as type V. Executors use it to unpack their
// inputs without repeating type assertions.
func Arg[V any](args Args, name string) (V, error) {
	var zero V
	raw, ok := args[name]
	if !ok {
		return zero, fmt.Errorf("step: argument %q missing", name)
	}
	v, ok := raw.(V)
	if !ok {
		want := reflect.TypeOf((*V)(nil)).Elem()
		return zero, fmt.Errorf("step: argument %q is %T, not %s", name, raw, want)
	}
	return v, nil
}

// ArgOr reads a named argument as type V, falling back to def when the
// argument is absent or holds a different type.
func ArgOr[V any](args Args, name string, def V) V {
	v, err := Arg[V](args, name)
	if err != nil {
		return def
	}
	return v
}
