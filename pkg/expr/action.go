package expr

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// MatchCriterion is a {name, value} pair in the shape of a delegation's
// select_on entry. The decoded models do not use it: resolve specs carry a
// ResolveMatch and select_on lists decode into registry.SelectCriterion.
type MatchCriterion struct {
	Name  string `yaml:"name"`
	Value Expr   `yaml:"value"`
}

// ResolveMatch is the {output, value} pair a resolve dispatch probes each
// candidate regulation with before committing to it.
type ResolveMatch struct {
	Output string `yaml:"output"`
	Value  Expr   `yaml:"value"`
}

// ResolveSpec is the body of a `resolve` action: legal-basis dispatch to
// whichever ministerial regulation declares the current article as its
// legal basis and whose Match probe matches.
type ResolveSpec struct {
	Type   string        `yaml:"type,omitempty"`
	Output string        `yaml:"output"`
	Match  *ResolveMatch `yaml:"match,omitempty"`
}

// Action is one entry of an article's action list: assign a single named
// output from either a value expression, an inline operation, or a
// legal-basis resolve.
type Action struct {
	Output  string
	Resolve *ResolveSpec
	Expr    *Expr
}

// UnmarshalYAML decodes an action, dispatching on which of
// value/operation/resolve is present.
func (a *Action) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("action at line %d: expected mapping", node.Line)
	}
	m := mapNodes(node)

	if outNode, ok := m["output"]; ok {
		if err := outNode.Decode(&a.Output); err != nil {
			return err
		}
	}

	if resolveNode, ok := m["resolve"]; ok {
		a.Resolve = &ResolveSpec{}
		return resolveNode.Decode(a.Resolve)
	}

	if valueNode, ok := m["value"]; ok {
		e, err := decodeExprPtr(valueNode)
		if err != nil {
			return err
		}
		a.Expr = e
		return nil
	}

	if _, ok := m["operation"]; ok {
		e := &Expr{}
		if err := e.unmarshalOperation(node); err != nil {
			return err
		}
		a.Expr = e
		return nil
	}

	return fmt.Errorf("action %q at line %d: must declare exactly one of value/operation/resolve", a.Output, node.Line)
}
