package engine

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/MinBZK/regelrecht-mvp-sub000/pkg/expr"
	"github.com/MinBZK/regelrecht-mvp-sub000/pkg/trace"
	"github.com/MinBZK/regelrecht-mvp-sub000/pkg/types"
)

// evalExpr evaluates one expression node: a literal passes through, a
// variable reference is resolved through the context's priority chain, and
// an operation dispatches to its operator.
func (c *Context) evalExpr(ex *expr.Expr) (any, error) {
	if ex == nil {
		return nil, nil
	}
	switch ex.Kind {
	case expr.KindLiteral:
		return ex.Literal, nil
	case expr.KindVar:
		return c.evalVar(ex.VarPath)
	case expr.KindOp:
		return c.evalOp(ex)
	default:
		return nil, nil
	}
}

func (c *Context) evalVar(path string) (any, error) {
	node := c.tracer.Push(trace.NodeResolve, "$"+path)
	defer c.tracer.Pop()
	node.ResolveType = c.resolveTypeOf(path)

	value, err := c.resolvePath(path)
	if err != nil {
		return nil, err
	}
	node.SetResult(value)
	return value, nil
}

// resolveTypeOf reports, for the trace, which tier a dotted reference's head
// resolved from — PARAMETER/DEFINITION/OUTPUT/LOCAL/URI_CALL/UNKNOWN.
func (c *Context) resolveTypeOf(path string) string {
	head := path
	if idx := strings.Index(path, "."); idx >= 0 {
		head = path[:idx]
	}
	if head == "referencedate" {
		return "LOCAL"
	}
	if _, ok := c.locals[head]; ok {
		return "LOCAL"
	}
	if _, ok := c.outputs[head]; ok {
		return "OUTPUT"
	}
	if _, ok := c.resolvedInputs[head]; ok {
		return "URI_CALL"
	}
	if _, ok := c.definitions[head]; ok {
		return "DEFINITION"
	}
	if _, ok := c.parameters[head]; ok {
		return "PARAMETER"
	}
	if spec, ok := c.findInputSpec(head); ok && inputHasSource(spec) {
		return "URI_CALL"
	}
	return "UNKNOWN"
}

func (c *Context) evalOp(ex *expr.Expr) (any, error) {
	node := c.tracer.Push(trace.NodeOperation, string(ex.Op))
	defer c.tracer.Pop()

	if !ex.Op.Known() {
		log.Warn().Str("op", string(ex.Op)).Msg("unknown operator, yielding null")
		return nil, nil
	}

	var (
		result any
		err    error
	)

	switch ex.Op {
	case expr.OpEquals, expr.OpNotEquals, expr.OpGreaterThan, expr.OpLessThan, expr.OpGreaterThanOrEqual, expr.OpLessThanOrEqual:
		result, err = c.evalComparison(ex)
	case expr.OpAdd, expr.OpSubtract, expr.OpMultiply, expr.OpDivide:
		result, err = c.evalArithmetic(ex)
	case expr.OpMax, expr.OpMin:
		result, err = c.evalAggregate(ex)
	case expr.OpAnd, expr.OpOr:
		result, err = c.evalLogical(ex)
	case expr.OpIsNull, expr.OpNotNull:
		result, err = c.evalNullCheck(ex)
	case expr.OpIn, expr.OpNotIn:
		result, err = c.evalMembership(ex)
	case expr.OpIf:
		result, err = c.evalIf(ex)
	case expr.OpSwitch:
		result, err = c.evalSwitch(ex)
	case expr.OpSubtractDate:
		result, err = c.evalSubtractDate(ex)
	}
	if err != nil {
		return nil, err
	}
	node.SetResult(result)
	return result, nil
}

func (c *Context) evalComparison(ex *expr.Expr) (any, error) {
	subject, err := c.evalExpr(ex.Subject)
	if err != nil {
		return nil, err
	}
	value, err := c.evalExpr(ex.Value)
	if err != nil {
		return nil, err
	}

	switch ex.Op {
	case expr.OpEquals:
		return valuesEqual(subject, value), nil
	case expr.OpNotEquals:
		return !valuesEqual(subject, value), nil
	}

	// Ordering against null never raises; it is simply never true.
	if subject == nil || value == nil {
		return false, nil
	}

	cmp, ok := compareOrdered(subject, value)
	if !ok {
		return nil, newError(KindTypeValue, "cannot compare %v and %v with %s", subject, value, ex.Op)
	}
	switch ex.Op {
	case expr.OpGreaterThan:
		return cmp > 0, nil
	case expr.OpLessThan:
		return cmp < 0, nil
	case expr.OpGreaterThanOrEqual:
		return cmp >= 0, nil
	case expr.OpLessThanOrEqual:
		return cmp <= 0, nil
	}
	return nil, newError(KindTypeValue, "cannot compare %v and %v with %s", subject, value, ex.Op)
}

// compareOrdered reports the natural-order relation between a and b — -1, 0,
// or 1 for a<b, a==b, a>b — over dates, numbers, and strings, checked in
// that order. The second return is false when the two values cannot be
// ordered against each other.
func compareOrdered(a, b any) (int, bool) {
	if da, ok := a.(types.Date); ok {
		if db, ok := b.(types.Date); ok {
			switch {
			case da.Before(db):
				return -1, true
			case da.After(db):
				return 1, true
			default:
				return 0, true
			}
		}
		return 0, false
	}

	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			switch {
			case af < bf:
				return -1, true
			case af > bf:
				return 1, true
			default:
				return 0, true
			}
		}
		return 0, false
	}

	if as, aok := a.(string); aok {
		if bs, bok := b.(string); bok {
			switch {
			case as < bs:
				return -1, true
			case as > bs:
				return 1, true
			default:
				return 0, true
			}
		}
		return 0, false
	}

	return 0, false
}

func valuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if da, ok := a.(types.Date); ok {
		if db, ok := b.(types.Date); ok {
			return da.Equal(db)
		}
	}
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if aok && bok {
		return af == bf
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// evalValues evaluates ex.Values left to right, stopping at the first error.
func (c *Context) evalValues(values []expr.Expr) ([]any, error) {
	out := make([]any, 0, len(values))
	for i := range values {
		v, err := c.evalExpr(&values[i])
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// asInteger reports whether value is one of the Go integer types produced
// by YAML decoding (as opposed to a float type), so arithmetic can preserve
// the integer/float distinction of its operands rather than always
// widening to float64.
func asInteger(value any) bool {
	switch value.(type) {
	case int, int32, int64:
		return true
	default:
		return false
	}
}

func (c *Context) evalArithmetic(ex *expr.Expr) (any, error) {
	values, err := c.evalValues(ex.Values)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, newError(KindArithmetic, "%s requires at least one value", ex.Op)
	}

	first, ok := asFloat(values[0])
	if !ok {
		return nil, newError(KindArithmetic, "%s: non-numeric operand %v", ex.Op, values[0])
	}
	result := first
	allInt := asInteger(values[0])

	for _, v := range values[1:] {
		f, ok := asFloat(v)
		if !ok {
			return nil, newError(KindArithmetic, "%s: non-numeric operand %v", ex.Op, v)
		}
		allInt = allInt && asInteger(v)
		switch ex.Op {
		case expr.OpAdd:
			result += f
		case expr.OpSubtract:
			result -= f
		case expr.OpMultiply:
			result *= f
		case expr.OpDivide:
			if f == 0 {
				return nil, newError(KindDivisionByZero, "division by zero in %s", ex.Op)
			}
			result /= f
		}
	}

	// DIVIDE always yields a float, matching the source language's "/"
	// operator; ADD/SUBTRACT/MULTIPLY stay integral when every operand was.
	if allInt && ex.Op != expr.OpDivide {
		return int64(result), nil
	}
	return result, nil
}

// evalAggregate implements MAX/MIN by natural order (numbers, dates,
// strings), returning the winning operand unchanged so its original
// int/float/date/string type is preserved.
func (c *Context) evalAggregate(ex *expr.Expr) (any, error) {
	values, err := c.evalValues(ex.Values)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, newError(KindArithmetic, "%s requires at least one value", ex.Op)
	}

	best := values[0]
	for _, v := range values[1:] {
		cmp, ok := compareOrdered(best, v)
		if !ok {
			return nil, newError(KindTypeValue, "%s: cannot compare %v and %v", ex.Op, best, v)
		}
		switch ex.Op {
		case expr.OpMax:
			if cmp < 0 {
				best = v
			}
		case expr.OpMin:
			if cmp > 0 {
				best = v
			}
		}
	}
	return best, nil
}

func (c *Context) evalLogical(ex *expr.Expr) (any, error) {
	switch ex.Op {
	case expr.OpAnd:
		for i := range ex.Conditions {
			v, err := c.evalExpr(&ex.Conditions[i])
			if err != nil {
				return nil, err
			}
			if !types.Truthy(v) {
				return false, nil
			}
		}
		return true, nil
	case expr.OpOr:
		for i := range ex.Conditions {
			v, err := c.evalExpr(&ex.Conditions[i])
			if err != nil {
				return nil, err
			}
			if types.Truthy(v) {
				return true, nil
			}
		}
		return false, nil
	}
	return false, nil
}

func (c *Context) evalNullCheck(ex *expr.Expr) (any, error) {
	subject, err := c.evalExpr(ex.Subject)
	if err != nil {
		return nil, err
	}
	isNull := subject == nil
	if ex.Op == expr.OpIsNull {
		return isNull, nil
	}
	return !isNull, nil
}

func (c *Context) evalMembership(ex *expr.Expr) (any, error) {
	subject, err := c.evalExpr(ex.Subject)
	if err != nil {
		return nil, err
	}
	values, err := c.evalValues(ex.Values)
	if err != nil {
		return nil, err
	}

	isMember := false
	for _, v := range values {
		if valuesEqual(subject, v) {
			isMember = true
			break
		}
	}
	if ex.Op == expr.OpIn {
		return isMember, nil
	}
	return !isMember, nil
}

func (c *Context) evalIf(ex *expr.Expr) (any, error) {
	when, err := c.evalExpr(ex.When)
	if err != nil {
		return nil, err
	}
	if types.Truthy(when) {
		return c.evalExpr(ex.Then)
	}
	return c.evalExpr(ex.Else)
}

func (c *Context) evalSwitch(ex *expr.Expr) (any, error) {
	for i := range ex.Cases {
		when, err := c.evalExpr(&ex.Cases[i].When)
		if err != nil {
			return nil, err
		}
		if types.Truthy(when) {
			return c.evalExpr(&ex.Cases[i].Then)
		}
	}
	return c.evalExpr(ex.Default)
}

func (c *Context) evalSubtractDate(ex *expr.Expr) (any, error) {
	if len(ex.Values) < 2 {
		log.Warn().Msg("SUBTRACT_DATE requires exactly 2 values")
		return 0, nil
	}
	values, err := c.evalValues(ex.Values[:2])
	if err != nil {
		return nil, err
	}

	d1, ok1 := toDate(values[0])
	d2, ok2 := toDate(values[1])
	if !ok1 || !ok2 {
		log.Warn().Interface("a", values[0]).Interface("b", values[1]).Msg("could not parse dates for SUBTRACT_DATE")
		return 0, nil
	}

	unit := ex.Unit
	if unit == "" {
		unit = "days"
	}
	return d1.SubtractUnit(d2, unit), nil
}

func toDate(value any) (types.Date, bool) {
	switch v := value.(type) {
	case types.Date:
		return v, true
	case string:
		d, err := types.ParseDate(v)
		if err != nil {
			return types.Date{}, false
		}
		return d, true
	default:
		return types.Date{}, false
	}
}
