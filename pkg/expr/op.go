// Package expr models the nested expression language evaluated by an
// article's action list: a tagged union over literals, variable references,
// and operations, decoded from YAML into a Go enum/variant with dispatch on
// a typed Kind rather than dynamic string matching.
package expr

// Op names an operator. Names match the wire vocabulary exactly so that
// golden fixtures decode unchanged.
type Op string

const (
	OpEquals             Op = "EQUALS"
	OpNotEquals          Op = "NOT_EQUALS"
	OpGreaterThan        Op = "GREATER_THAN"
	OpLessThan           Op = "LESS_THAN"
	OpGreaterThanOrEqual Op = "GREATER_THAN_OR_EQUAL"
	OpLessThanOrEqual    Op = "LESS_THAN_OR_EQUAL"

	OpAdd      Op = "ADD"
	OpSubtract Op = "SUBTRACT"
	OpMultiply Op = "MULTIPLY"
	OpDivide   Op = "DIVIDE"

	OpMax Op = "MAX"
	OpMin Op = "MIN"

	OpAnd Op = "AND"
	OpOr  Op = "OR"

	OpIsNull  Op = "IS_NULL"
	OpNotNull Op = "NOT_NULL"

	OpIn    Op = "IN"
	OpNotIn Op = "NOT_IN"

	OpIf     Op = "IF"
	OpSwitch Op = "SWITCH"

	OpSubtractDate Op = "SUBTRACT_DATE"
)

// knownOps lists every operator that is part of the contract. Anything else
// decodes successfully (so loading never fails on it) but evaluates to a
// warning diagnostic plus null, per the "operators not listed are not part
// of the contract" rule.
var knownOps = map[Op]bool{
	OpEquals: true, OpNotEquals: true, OpGreaterThan: true, OpLessThan: true,
	OpGreaterThanOrEqual: true, OpLessThanOrEqual: true,
	OpAdd: true, OpSubtract: true, OpMultiply: true, OpDivide: true,
	OpMax: true, OpMin: true,
	OpAnd: true, OpOr: true,
	OpIsNull: true, OpNotNull: true,
	OpIn: true, OpNotIn: true,
	OpIf: true, OpSwitch: true,
	OpSubtractDate: true,
}

// Known reports whether op is part of the operator contract.
func (op Op) Known() bool {
	return knownOps[op]
}
