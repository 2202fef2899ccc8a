package step

import (
	"io"
	"testing"
)

func TestParamType_Exact(t *testing.T) {
	pt := T[int]()
	if !pt.Matches(42) {
		t.Fatal("expected int to match")
	}
	if pt.Matches("42") {
		t.Fatal("did not expect string to match")
	}
	if pt.Matches(int64(42)) {
		t.Fatal("did not expect int64 to match int")
	}
	if pt.Matches(nil) {
		t.Fatal("did not expect nil to match a required int")
	}
	if got := pt.String(); got != "int" {
		t.Fatalf("expected %q, got %q", "int", got)
	}
}

func TestParamType_Any(t *testing.T) {
	for _, v := range []any{42, "x", nil, []byte("b"), struct{}{}} {
		if !Any.Matches(v) {
			t.Fatalf("expected Any to match %v", v)
		}
	}
	if got := Any.String(); got != "any" {
		t.Fatalf("expected %q, got %q", "any", got)
	}
}

func TestParamType_TAnyIsAny(t *testing.T) {
	pt := T[any]()
	if !pt.Matches(nil) || !pt.Matches(42) {
		t.Fatal("expected T[any] to behave like Any")
	}
}

func TestParamType_Interface(t *testing.T) {
	pt := T[error]()
	if !pt.Matches(io.EOF) {
		t.Fatal("expected a concrete error to match the error interface")
	}
	if pt.Matches(42) {
		t.Fatal("did not expect int to match error")
	}
}

func TestParamType_Union(t *testing.T) {
	pt := Union(T[int](), T[string]())
	if !pt.Matches(1) || !pt.Matches("one") {
		t.Fatal("expected union members to match")
	}
	if pt.Matches(1.0) {
		t.Fatal("did not expect float64 to match")
	}
	if pt.AllowsAbsent() {
		t.Fatal("union of required members stays required")
	}
	if got := pt.String(); got != "int|string" {
		t.Fatalf("expected %q, got %q", "int|string", got)
	}
}

func TestParamType_Optional(t *testing.T) {
	pt := Optional(T[int]())
	if !pt.AllowsAbsent() {
		t.Fatal("expected optional to allow absence")
	}
	if !pt.Matches(nil) {
		t.Fatal("expected optional to admit a present nil")
	}
	if !pt.Matches(7) {
		t.Fatal("expected optional int to still match int")
	}
	if pt.Matches("x") {
		t.Fatal("optional does not loosen the type check")
	}
	if got := pt.String(); got != "int?" {
		t.Fatalf("expected %q, got %q", "int?", got)
	}
}

func TestParamType_UnionWithOptionalMember(t *testing.T) {
	pt := Union(T[int](), Optional(T[string]()))
	if !pt.AllowsAbsent() {
		t.Fatal("an optional member makes the union allow absence")
	}
}

func TestParamType_Unspecified(t *testing.T) {
	if !Unspecified.IsUnspecified() {
		t.Fatal("expected zero value to be unspecified")
	}
	if Unspecified.Matches(42) {
		t.Fatal("unspecified admits nothing")
	}
	if got := Unspecified.String(); got != "unspecified" {
		t.Fatalf("expected %q, got %q", "unspecified", got)
	}
	if T[int]().IsUnspecified() || Any.IsUnspecified() {
		t.Fatal("typed descriptors are not unspecified")
	}
}
