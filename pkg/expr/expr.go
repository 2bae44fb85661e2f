package expr

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind discriminates the three members of the Expr tagged union.
type Kind int

const (
	// KindLiteral holds a scalar value (number, bool, string, or nil) that
	// passes through evaluation unchanged.
	KindLiteral Kind = iota
	// KindVar holds a "$"-prefixed variable reference, optionally dotted.
	KindVar
	// KindOp holds a nested operation dispatched by Op.
	KindOp
)

// SwitchCase is one arm of a SWITCH operation.
type SwitchCase struct {
	When Expr
	Then Expr
}

// Expr is a node in the expression tree: exactly one of a literal, a
// variable reference, or an operation, discriminated by Kind.
type Expr struct {
	Kind Kind

	// KindLiteral
	Literal any

	// KindVar
	VarPath string

	// KindOp
	Op         Op
	Values     []Expr       // ADD/SUBTRACT/MULTIPLY/DIVIDE/MAX/MIN/IN/NOT_IN/SUBTRACT_DATE operands
	Subject    *Expr        // comparison/IS_NULL/NOT_NULL/IN/NOT_IN subject
	Value      *Expr        // comparison value
	Conditions []Expr       // AND/OR
	When       *Expr        // IF
	Then       *Expr        // IF
	Else       *Expr        // IF
	Cases      []SwitchCase // SWITCH
	Default    *Expr        // SWITCH
	Unit       string       // SUBTRACT_DATE
}

// IsZero reports whether e is nil, i.e. an absent optional sub-expression
// (e.g. SWITCH without a default). A non-nil zero-valued Expr reports false.
func (e *Expr) IsZero() bool {
	return e == nil
}

// UnmarshalYAML decodes either a bare scalar (literal or "$"-reference) or
// a mapping carrying an "operation" key plus that operator's operand keys.
func (e *Expr) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		return e.unmarshalScalar(node)
	case yaml.MappingNode:
		return e.unmarshalOperation(node)
	default:
		return fmt.Errorf("expression at line %d: expected scalar or mapping, got kind %d", node.Line, node.Kind)
	}
}

func (e *Expr) unmarshalScalar(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	if s, ok := raw.(string); ok && strings.HasPrefix(s, "$") {
		e.Kind = KindVar
		e.VarPath = strings.TrimPrefix(s, "$")
		return nil
	}
	e.Kind = KindLiteral
	e.Literal = raw
	return nil
}

func mapNodes(node *yaml.Node) map[string]*yaml.Node {
	m := make(map[string]*yaml.Node, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		m[node.Content[i].Value] = node.Content[i+1]
	}
	return m
}

func decodeExprPtr(node *yaml.Node) (*Expr, error) {
	var v Expr
	if err := node.Decode(&v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (e *Expr) unmarshalOperation(node *yaml.Node) error {
	m := mapNodes(node)
	opNode, ok := m["operation"]
	if !ok {
		return fmt.Errorf("expression map at line %d: missing 'operation' key", node.Line)
	}

	var opName string
	if err := opNode.Decode(&opName); err != nil {
		return err
	}
	e.Kind = KindOp
	e.Op = Op(opName)

	var err error
	switch e.Op {
	case OpAdd, OpSubtract, OpMultiply, OpDivide, OpMax, OpMin, OpSubtractDate:
		if valuesNode, ok := m["values"]; ok {
			err = valuesNode.Decode(&e.Values)
		}
		if unitNode, ok := m["unit"]; ok {
			unitNode.Decode(&e.Unit)
		}

	case OpAnd, OpOr:
		if condNode, ok := m["conditions"]; ok {
			err = condNode.Decode(&e.Conditions)
		}

	case OpEquals, OpNotEquals, OpGreaterThan, OpLessThan, OpGreaterThanOrEqual, OpLessThanOrEqual:
		if subjNode, ok := m["subject"]; ok {
			e.Subject, err = decodeExprPtr(subjNode)
		}
		if err == nil {
			if valNode, ok := m["value"]; ok {
				e.Value, err = decodeExprPtr(valNode)
			}
		}

	case OpIsNull, OpNotNull:
		if subjNode, ok := m["subject"]; ok {
			e.Subject, err = decodeExprPtr(subjNode)
		}

	case OpIn, OpNotIn:
		if subjNode, ok := m["subject"]; ok {
			e.Subject, err = decodeExprPtr(subjNode)
		}
		if err == nil {
			if valuesNode, ok := m["values"]; ok {
				err = valuesNode.Decode(&e.Values)
			}
		}

	case OpIf:
		if whenNode, ok := m["when"]; ok {
			e.When, err = decodeExprPtr(whenNode)
		}
		if err == nil {
			if thenNode, ok := m["then"]; ok {
				e.Then, err = decodeExprPtr(thenNode)
			}
		}
		if err == nil {
			if elseNode, ok := m["else"]; ok {
				e.Else, err = decodeExprPtr(elseNode)
			}
		}

	case OpSwitch:
		if casesNode, ok := m["cases"]; ok {
			err = casesNode.Decode(&e.Cases)
		}
		if err == nil {
			if defNode, ok := m["default"]; ok {
				e.Default, err = decodeExprPtr(defNode)
			}
		}

	default:
		// Unknown operator: decoding still succeeds; the evaluator warns
		// and yields null when it dispatches on e.Op.
	}
	return err
}

// UnmarshalYAML decodes a SWITCH case arm {when, then}.
func (c *SwitchCase) UnmarshalYAML(node *yaml.Node) error {
	m := mapNodes(node)
	if whenNode, ok := m["when"]; ok {
		if err := whenNode.Decode(&c.When); err != nil {
			return err
		}
	}
	if thenNode, ok := m["then"]; ok {
		if err := thenNode.Decode(&c.Then); err != nil {
			return err
		}
	}
	return nil
}
