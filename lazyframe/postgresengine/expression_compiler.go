package postgresengine

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/AntonStoeckl/lazyframes-go/lazyframe"
)

// sqlKind is the SQL type a compiled expression evaluates to.
type sqlKind int

const (
	kindJSONB sqlKind = iota
	kindNumeric
	kindText
	kindBoolean
	kindTimestamp
	kindNull
)

var castTargets = map[sqlKind]string{
	kindNumeric:   "numeric",
	kindText:      "text",
	kindBoolean:   "boolean",
	kindTimestamp: "timestamptz",
}

var comparisonOperators = map[lazyframe.BinaryOperator]string{
	lazyframe.OpEq: "=",
	lazyframe.OpNe: "<>",
	lazyframe.OpLt: "<",
	lazyframe.OpLe: "<=",
	lazyframe.OpGt: ">",
	lazyframe.OpGe: ">=",
}

type compiledExpression struct {
	sql  exp.LiteralExpression
	kind sqlKind
}

// expressionCompiler translates lazyframe expressions into SQL over the jsonb row column "data".
// Column references are checked against the frame schema of the step they are compiled for.
type expressionCompiler struct {
	schema frameSchema
}

// predicate compiles expr into a boolean condition. NULL results count as false.
func (ec expressionCompiler) predicate(expr lazyframe.Expression) (exp.LiteralExpression, error) {
	compiled, err := ec.compile(expr)
	if err != nil {
		return nil, err
	}

	return goqu.L("COALESCE(?, FALSE)", ec.coerce(compiled, kindBoolean)), nil
}

// value compiles expr into a value accepted by jsonb_build_object.
func (ec expressionCompiler) value(expr lazyframe.Expression) (exp.LiteralExpression, error) {
	compiled, err := ec.compile(expr)
	if err != nil {
		return nil, err
	}

	return compiled.sql, nil
}

func (ec expressionCompiler) compile(expr lazyframe.Expression) (compiledExpression, error) {
	switch e := expr.(type) {
	case lazyframe.ColumnRef:
		return ec.compileColumn(e)

	case lazyframe.Literal:
		return compileLiteral(e)

	case lazyframe.BinaryExpr:
		return ec.compileBinary(e)

	case lazyframe.UnaryExpr:
		return ec.compileUnary(e)

	case lazyframe.IsInExpr:
		return ec.compileIsIn(e)

	case nil:
		return compiledExpression{}, fmt.Errorf("%w: nil expression", ErrUnsupportedOperation)

	default:
		return compiledExpression{}, fmt.Errorf("%w: expression type %T", ErrUnsupportedOperation, expr)
	}
}

func (ec expressionCompiler) compileColumn(c lazyframe.ColumnRef) (compiledExpression, error) {
	if err := ec.schema.require(c.Name); err != nil {
		return compiledExpression{}, err
	}

	if ec.schema.isIndex(c.Name) {
		return compiledExpression{sql: goqu.L(colIdx), kind: kindTimestamp}, nil
	}

	return compiledExpression{sql: goqu.L("(data->?)", c.Name), kind: kindJSONB}, nil
}

func compileLiteral(l lazyframe.Literal) (compiledExpression, error) {
	switch v := l.Value.(type) {
	case nil:
		return compiledExpression{sql: goqu.L("NULL"), kind: kindNull}, nil

	case bool:
		return compiledExpression{sql: goqu.L("?", v), kind: kindBoolean}, nil

	case int64:
		return compiledExpression{sql: goqu.L("?::numeric", v), kind: kindNumeric}, nil

	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return compiledExpression{}, fmt.Errorf("%w: non-finite number %v", ErrUnsupportedLiteral, v)
		}
		return compiledExpression{sql: goqu.L("?::numeric", v), kind: kindNumeric}, nil

	case string:
		return compiledExpression{sql: goqu.L("?::text", v), kind: kindText}, nil

	case time.Time:
		return compiledExpression{sql: goqu.L("?::timestamptz", v), kind: kindTimestamp}, nil

	default:
		return compiledExpression{}, fmt.Errorf("%w: %T", ErrUnsupportedLiteral, l.Value)
	}
}

func (ec expressionCompiler) compileBinary(b lazyframe.BinaryExpr) (compiledExpression, error) {
	left, err := ec.compile(b.Left)
	if err != nil {
		return compiledExpression{}, err
	}

	right, err := ec.compile(b.Right)
	if err != nil {
		return compiledExpression{}, err
	}

	switch {
	case b.Op.IsArithmetic():
		l, r := ec.coerce(left, kindNumeric), ec.coerce(right, kindNumeric)
		if b.Op == lazyframe.OpDiv {
			return compiledExpression{sql: goqu.L("(? / NULLIF(?, 0))", l, r), kind: kindNumeric}, nil
		}
		return compiledExpression{sql: goqu.L("(? "+string(b.Op)+" ?)", l, r), kind: kindNumeric}, nil

	case b.Op.IsComparison():
		target := comparisonKind(left.kind, right.kind)
		sql := goqu.L("(? "+comparisonOperators[b.Op]+" ?)", ec.coerce(left, target), ec.coerce(right, target))
		return compiledExpression{sql: sql, kind: kindBoolean}, nil

	case b.Op.IsLogical():
		sql := goqu.L("(? "+strings.ToUpper(string(b.Op))+" ?)", ec.coerce(left, kindBoolean), ec.coerce(right, kindBoolean))
		return compiledExpression{sql: sql, kind: kindBoolean}, nil

	default:
		return compiledExpression{}, fmt.Errorf("%w: binary operator %q", ErrUnsupportedOperation, b.Op)
	}
}

func (ec expressionCompiler) compileUnary(u lazyframe.UnaryExpr) (compiledExpression, error) {
	operand, err := ec.compile(u.Operand)
	if err != nil {
		return compiledExpression{}, err
	}

	switch u.Op {
	case lazyframe.OpNot:
		return compiledExpression{sql: goqu.L("(NOT ?)", ec.coerce(operand, kindBoolean)), kind: kindBoolean}, nil

	case lazyframe.OpNeg:
		return compiledExpression{sql: goqu.L("(- ?)", ec.coerce(operand, kindNumeric)), kind: kindNumeric}, nil

	default:
		return compiledExpression{}, fmt.Errorf("%w: unary operator %q", ErrUnsupportedOperation, u.Op)
	}
}

func (ec expressionCompiler) compileIsIn(in lazyframe.IsInExpr) (compiledExpression, error) {
	operand, err := ec.compile(in.Operand)
	if err != nil {
		return compiledExpression{}, err
	}

	if len(in.Values) == 0 {
		return compiledExpression{sql: goqu.L("?", in.Negated), kind: kindBoolean}, nil
	}

	values := make([]compiledExpression, 0, len(in.Values))
	target := operand.kind

	for _, v := range in.Values {
		compiled, err := compileLiteral(v)
		if err != nil {
			return compiledExpression{}, err
		}

		target = comparisonKind(target, compiled.kind)
		values = append(values, compiled)
	}

	args := make([]any, 0, len(values)+1)
	args = append(args, ec.coerce(operand, target))
	for _, v := range values {
		args = append(args, ec.coerce(v, target))
	}

	keyword := "IN"
	if in.Negated {
		keyword = "NOT IN"
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", ")
	sql := goqu.L("(? "+keyword+" ("+placeholders+"))", args...)

	return compiledExpression{sql: sql, kind: kindBoolean}, nil
}

// comparisonKind picks the type both sides of a comparison are cast to.
// A typed side wins over jsonb or NULL; two jsonb sides compare as jsonb.
func comparisonKind(left, right sqlKind) sqlKind {
	for _, kind := range []sqlKind{left, right} {
		if kind != kindJSONB && kind != kindNull {
			return kind
		}
	}

	return kindJSONB
}

// coerce casts a compiled expression to the target kind.
// jsonb values are unwrapped to their text form first, so a jsonb number becomes numeric.
func (ec expressionCompiler) coerce(c compiledExpression, target sqlKind) exp.LiteralExpression {
	if c.kind == target || c.kind == kindNull {
		return c.sql
	}

	if target == kindJSONB {
		return goqu.L("to_jsonb(?)", c.sql)
	}

	if c.kind == kindJSONB {
		if target == kindText {
			return goqu.L("(? #>> '{}')", c.sql)
		}
		return goqu.L("(? #>> '{}')::"+castTargets[target], c.sql)
	}

	return goqu.L("(?)::"+castTargets[target], c.sql)
}
