package expr

import (
	"testing"

	"gopkg.in/yaml.v3"
)

func decodeAction(t *testing.T, src string) Action {
	t.Helper()
	var a Action
	if err := yaml.Unmarshal([]byte(src), &a); err != nil {
		t.Fatalf("unmarshal %q: %v", src, err)
	}
	return a
}

func TestUnmarshalActionValue(t *testing.T) {
	a := decodeAction(t, `
output: total
value: "$income"
`)
	if a.Output != "total" {
		t.Errorf("Output = %q, want total", a.Output)
	}
	if a.Expr == nil || a.Expr.Kind != KindVar {
		t.Fatalf("Expr = %+v, want var reference", a.Expr)
	}
}

func TestUnmarshalActionInlineOperation(t *testing.T) {
	a := decodeAction(t, `
output: total
operation: ADD
values:
  - 1
  - 2
`)
	if a.Expr == nil || a.Expr.Op != OpAdd {
		t.Fatalf("Expr = %+v, want ADD operation", a.Expr)
	}
}

func TestUnmarshalActionResolve(t *testing.T) {
	a := decodeAction(t, `
output: rate
resolve:
  output: percentage
  match:
    output: gemeente_code
    value: "$gemeente_code"
`)
	if a.Resolve == nil {
		t.Fatal("Resolve is nil")
	}
	if a.Resolve.Output != "percentage" {
		t.Errorf("Resolve.Output = %q, want percentage", a.Resolve.Output)
	}
	if a.Resolve.Match == nil || a.Resolve.Match.Output != "gemeente_code" {
		t.Fatalf("Resolve.Match = %+v", a.Resolve.Match)
	}
}

func TestUnmarshalActionMissingBodyFails(t *testing.T) {
	var a Action
	err := yaml.Unmarshal([]byte(`output: total`), &a)
	if err == nil {
		t.Fatal("expected error when action declares none of value/operation/resolve")
	}
}

func TestUnmarshalActionNotAMappingFails(t *testing.T) {
	var a Action
	if err := yaml.Unmarshal([]byte(`- 1`), &a); err == nil {
		t.Fatal("expected error for non-mapping action node")
	}
}
