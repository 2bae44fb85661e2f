// Package trace models the execution trace tree produced by one evaluate
// call: every resolution, operation, action, and cross-regulation call is
// recorded as a node, and the tree renders to an ASCII diagnostic format.
package trace

import (
	"fmt"
	"strconv"
	"strings"
)

// NodeType names the kind of event a TraceNode records.
type NodeType string

const (
	NodeRoot        NodeType = "root"
	NodeAction      NodeType = "action"
	NodeOperation   NodeType = "operation"
	NodeResolve     NodeType = "resolve"
	NodeURICall     NodeType = "uri_call"
	NodeRequirement NodeType = "requirement"
)

// Node is one point in the execution trace tree.
type Node struct {
	Type        NodeType
	Name        string
	Result      any
	HasResult   bool
	ResolveType string
	Details     map[string]any
	Children    []*Node
}

// NewNode creates a detached trace node. Callers attach it to a parent via
// AddChild, or treat it as the tree root.
func NewNode(typ NodeType, name string) *Node {
	return &Node{Type: typ, Name: name, Details: map[string]any{}}
}

// AddChild appends child to n's children, preserving evaluation order.
func (n *Node) AddChild(child *Node) {
	n.Children = append(n.Children, child)
}

// SetResult records the node's outcome value.
func (n *Node) SetResult(value any) {
	n.Result = value
	n.HasResult = true
}

// Tracer tracks the current path (stack of open nodes) within one
// evaluation. Every Push must be paired with a Pop on all exit paths,
// including error returns, so the trace tree never leaves a dangling node.
type Tracer struct {
	root  *Node
	stack []*Node
}

// NewTracer creates a tracer rooted at a fresh root node.
func NewTracer(rootName string) *Tracer {
	root := NewNode(NodeRoot, rootName)
	return &Tracer{root: root, stack: []*Node{root}}
}

// Root returns the tree's root node.
func (t *Tracer) Root() *Node {
	return t.root
}

// Current returns the innermost open node.
func (t *Tracer) Current() *Node {
	return t.stack[len(t.stack)-1]
}

// Push opens a new child node under the current node and descends into it.
func (t *Tracer) Push(typ NodeType, name string) *Node {
	n := NewNode(typ, name)
	t.Current().AddChild(n)
	t.stack = append(t.stack, n)
	return n
}

// Pop closes the innermost open node and ascends back to its parent. It is
// a no-op (other than a safety floor at the root) if called more times than
// Push, so that deferred cleanup on an error path never panics.
func (t *Tracer) Pop() {
	if len(t.stack) > 1 {
		t.stack = t.stack[:len(t.stack)-1]
	}
}

// icon returns the ASCII type tag rendered for a node.
func icon(typ NodeType) string {
	switch typ {
	case NodeRoot:
		return "[ROOT]"
	case NodeAction:
		return "[ACT]"
	case NodeOperation:
		return "[OP]"
	case NodeResolve:
		return "[RES]"
	case NodeURICall:
		return "[URI]"
	case NodeRequirement:
		return "[REQ]"
	default:
		return "[*]"
	}
}

// Render renders the tree rooted at n as an ASCII diagram. The format is
// advisory (never compared bit-for-bit by golden fixtures) but stable.
func (n *Node) Render() string {
	var sb strings.Builder
	n.renderLine(&sb, "", true)
	return sb.String()
}

func (n *Node) renderLine(sb *strings.Builder, prefix string, isLast bool) {
	branch := "+-- "
	if isLast {
		branch = "`-- "
	}
	if prefix == "" {
		sb.WriteString(fmt.Sprintf("%s %s", icon(n.Type), n.Name))
	} else {
		sb.WriteString(prefix + branch + icon(n.Type) + " " + n.Name)
	}
	if n.ResolveType != "" {
		sb.WriteString(" (" + n.ResolveType + ")")
	}
	if n.HasResult {
		sb.WriteString(" " + formatResult(n.Result))
	}
	sb.WriteString("\n")

	childPrefix := prefix
	if prefix != "" {
		if isLast {
			childPrefix += "    "
		} else {
			childPrefix += "|   "
		}
	}
	for i, child := range n.Children {
		child.renderLine(sb, childPrefix, i == len(n.Children)-1)
	}
}

func formatResult(value any) string {
	switch v := value.(type) {
	case nil:
		return "-> null"
	case bool:
		if v {
			return "-> TRUE"
		}
		return "-> FALSE"
	case int:
		return "-> " + strconv.Itoa(v)
	case int64:
		return "-> " + strconv.FormatInt(v, 10)
	case float64:
		return "-> " + strconv.FormatFloat(v, 'g', -1, 64)
	case string:
		if len(v) < 50 {
			return "-> " + strconv.Quote(v)
		}
		return "-> " + strconv.Quote(v[:47]) + "..."
	default:
		return fmt.Sprintf("-> %v", v)
	}
}
