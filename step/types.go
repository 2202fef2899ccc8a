package step

import (
	"reflect"
	"strings"
)

// ParamType describes which runtime types one step parameter admits. Build
// descriptors with T, Union, Optional, or Any. The zero value is
// Unspecified, the "unknown" type reported for an undeclared return.
type ParamType struct {
	label    string
	types    []reflect.Type
	any      bool
	optional bool
}

// Any admits every present value, nil included.
var Any = ParamType{label: "any", any: true}

// Unspecified carries no type information. It is the Produces value of a
// step that declares no return type.
var Unspecified = ParamType{}

// T returns the descriptor admitting exactly the type V. Declaring an
// interface type admits every value whose dynamic type implements it, so
// T[any]() behaves like Any.
func T[V any]() ParamType {
	rt := reflect.TypeOf((*V)(nil)).Elem()
	if rt.Kind() == reflect.Interface && rt.NumMethod() == 0 {
		return Any
	}
	return ParamType{label: rt.String(), types: []reflect.Type{rt}}
}

// Union returns a descriptor admitting any type one of its members admits.
// A member that allows absence makes the union allow absence.
func Union(members ...ParamType) ParamType {
	var out ParamType
	labels := make([]string, 0, len(members))
	for _, m := range members {
		if m.any {
			out.any = true
		}
		if m.optional {
			out.optional = true
		}
		out.types = append(out.types, m.types...)
		labels = append(labels, m.label)
	}
	out.label = strings.Join(labels, "|")
	return out
}

// Optional returns t additionally admitting absence and a present nil.
func Optional(t ParamType) ParamType {
	t.optional = true
	if !strings.HasSuffix(t.label, "?") {
		t.label += "?"
	}
	return t
}

// Matches reports whether a present value satisfies the descriptor. The
// value's dynamic type must equal one of the declared types, or implement a
// declared interface type. A nil value satisfies only Any and optional
// descriptors.
func (t ParamType) Matches(v any) bool {
	if t.any {
		return true
	}
	if v == nil {
		return t.optional
	}
	vt := reflect.TypeOf(v)
	for _, rt := range t.types {
		if vt == rt {
			return true
		}
		if rt.Kind() == reflect.Interface && vt.Implements(rt) {
			return true
		}
	}
	return false
}

// AllowsAbsent reports whether the parameter may be left without a value.
func (t ParamType) AllowsAbsent() bool { return t.optional }

// IsUnspecified reports whether the descriptor carries no type information.
func (t ParamType) IsUnspecified() bool {
	return !t.any && !t.optional && len(t.types) == 0
}

// String returns the descriptor's display form, e.g. "int" or "int|string?".
func (t ParamType) String() string {
	if t.label == "" {
		return "unspecified"
	}
	return t.label
}

// typeName names a runtime value's type for error messages.
func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}
