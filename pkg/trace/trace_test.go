package trace

import (
	"strings"
	"testing"
)

func TestTracerPushPopStack(t *testing.T) {
	tr := NewTracer("root")
	if tr.Current() != tr.Root() {
		t.Fatal("expected Current() to be root before any Push")
	}

	child := tr.Push(NodeAction, "calculate total")
	if tr.Current() != child {
		t.Fatal("expected Current() to be the pushed node")
	}
	tr.Pop()
	if tr.Current() != tr.Root() {
		t.Fatal("expected Current() to be root after Pop")
	}
}

func TestTracerPopBeyondRootIsSafe(t *testing.T) {
	tr := NewTracer("root")
	tr.Pop()
	tr.Pop()
	if tr.Current() != tr.Root() {
		t.Fatal("extra Pop calls must not move below root")
	}
}

func TestNodeAddChildAndSetResult(t *testing.T) {
	root := NewNode(NodeRoot, "root")
	child := NewNode(NodeAction, "calc")
	child.SetResult(42)
	root.AddChild(child)

	if len(root.Children) != 1 || root.Children[0] != child {
		t.Fatal("AddChild did not attach the node")
	}
	if !child.HasResult || child.Result != 42 {
		t.Errorf("SetResult did not record value: %+v", child)
	}
}

func TestRenderIncludesNodeNamesAndResults(t *testing.T) {
	root := NewNode(NodeRoot, "Evaluate law article 3")
	child := NewNode(NodeAction, "Calculate total")
	child.SetResult(true)
	root.AddChild(child)

	out := root.Render()
	if !strings.Contains(out, "Evaluate law article 3") {
		t.Errorf("Render missing root name:\n%s", out)
	}
	if !strings.Contains(out, "Calculate total") {
		t.Errorf("Render missing child name:\n%s", out)
	}
	if !strings.Contains(out, "TRUE") {
		t.Errorf("Render missing boolean result marker:\n%s", out)
	}
}
