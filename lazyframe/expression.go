package lazyframe

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Expression is a purely symbolic column expression.
// It is never evaluated by this package; engines translate it into their own query language.
type Expression interface {
	String() string
	expressionNode()
}

type BinaryOperator string
type UnaryOperator string

const (
	OpAdd BinaryOperator = "+"
	OpSub BinaryOperator = "-"
	OpMul BinaryOperator = "*"
	OpDiv BinaryOperator = "/"
	OpEq  BinaryOperator = "=="
	OpNe  BinaryOperator = "!="
	OpLt  BinaryOperator = "<"
	OpLe  BinaryOperator = "<="
	OpGt  BinaryOperator = ">"
	OpGe  BinaryOperator = ">="
	OpAnd BinaryOperator = "and"
	OpOr  BinaryOperator = "or"

	OpNot UnaryOperator = "not"
	OpNeg UnaryOperator = "neg"
)

// IsArithmetic reports whether the operator produces a numeric value.
func (op BinaryOperator) IsArithmetic() bool {
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv:
		return true
	default:
		return false
	}
}

// IsComparison reports whether the operator compares two values.
func (op BinaryOperator) IsComparison() bool {
	switch op {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		return true
	default:
		return false
	}
}

// IsLogical reports whether the operator combines two boolean values.
func (op BinaryOperator) IsLogical() bool {
	return op == OpAnd || op == OpOr
}

/***** ColumnRef *****/

// ColumnRef references a column by name.
type ColumnRef struct {
	Name string
}

// Col creates a ColumnRef.
func Col(name string) ColumnRef {
	return ColumnRef{Name: name}
}

func (c ColumnRef) String() string  { return fmt.Sprintf("col(%q)", c.Name) }
func (c ColumnRef) expressionNode() {}

func (c ColumnRef) Add(other any) BinaryExpr { return Binary(OpAdd, c, other) }
func (c ColumnRef) Sub(other any) BinaryExpr { return Binary(OpSub, c, other) }
func (c ColumnRef) Mul(other any) BinaryExpr { return Binary(OpMul, c, other) }
func (c ColumnRef) Div(other any) BinaryExpr { return Binary(OpDiv, c, other) }
func (c ColumnRef) Eq(other any) BinaryExpr  { return Binary(OpEq, c, other) }
func (c ColumnRef) Ne(other any) BinaryExpr  { return Binary(OpNe, c, other) }
func (c ColumnRef) Lt(other any) BinaryExpr  { return Binary(OpLt, c, other) }
func (c ColumnRef) Le(other any) BinaryExpr  { return Binary(OpLe, c, other) }
func (c ColumnRef) Gt(other any) BinaryExpr  { return Binary(OpGt, c, other) }
func (c ColumnRef) Ge(other any) BinaryExpr  { return Binary(OpGe, c, other) }
func (c ColumnRef) And(other any) BinaryExpr { return Binary(OpAnd, c, other) }
func (c ColumnRef) Or(other any) BinaryExpr  { return Binary(OpOr, c, other) }
func (c ColumnRef) Not() UnaryExpr           { return Unary(OpNot, c) }
func (c ColumnRef) Neg() UnaryExpr           { return Unary(OpNeg, c) }

// IsIn builds a membership test against the given literal values.
func (c ColumnRef) IsIn(values ...any) IsInExpr { return IsIn(c, values...) }

// IsNotIn builds a negated membership test against the given literal values.
func (c ColumnRef) IsNotIn(values ...any) IsInExpr { return IsNotIn(c, values...) }

/***** Literal *****/

// Literal is a constant value. Integer kinds are normalized to int64, float32 to float64.
type Literal struct {
	Value any
}

// Lit creates a Literal.
func Lit(value any) Literal {
	return Literal{Value: normalizeLiteralValue(value)}
}

func (l Literal) String() string {
	switch v := l.Value.(type) {
	case string:
		return fmt.Sprintf("lit(%q)", v)
	case time.Time:
		return fmt.Sprintf("lit(%s)", v.Format(time.RFC3339Nano))
	default:
		return fmt.Sprintf("lit(%v)", v)
	}
}

func (l Literal) expressionNode() {}

func normalizeLiteralValue(value any) any {
	switch v := value.(type) {
	case int:
		return int64(v)
	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case uint:
		return normalizeUnsigned(uint64(v))
	case uint8:
		return int64(v)
	case uint16:
		return int64(v)
	case uint32:
		return int64(v)
	case uint64:
		return normalizeUnsigned(v)
	case float32:
		return float64(v)
	default:
		return value
	}
}

// normalizeUnsigned keeps values above math.MaxInt64 as uint64, which engines reject as unsupported.
func normalizeUnsigned(v uint64) any {
	if v > math.MaxInt64 {
		return v
	}

	return int64(v)
}

/***** BinaryExpr *****/

// BinaryExpr combines two expressions with an arithmetic, comparison, or logical operator.
type BinaryExpr struct {
	Op    BinaryOperator
	Left  Expression
	Right Expression
}

// Binary creates a BinaryExpr. Operands that are not an Expression are wrapped with Lit.
func Binary(op BinaryOperator, left, right any) BinaryExpr {
	return BinaryExpr{Op: op, Left: asExpression(left), Right: asExpression(right)}
}

func (b BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right)
}

func (b BinaryExpr) expressionNode() {}

func (b BinaryExpr) Add(other any) BinaryExpr { return Binary(OpAdd, b, other) }
func (b BinaryExpr) Sub(other any) BinaryExpr { return Binary(OpSub, b, other) }
func (b BinaryExpr) Mul(other any) BinaryExpr { return Binary(OpMul, b, other) }
func (b BinaryExpr) Div(other any) BinaryExpr { return Binary(OpDiv, b, other) }
func (b BinaryExpr) Eq(other any) BinaryExpr  { return Binary(OpEq, b, other) }
func (b BinaryExpr) Ne(other any) BinaryExpr  { return Binary(OpNe, b, other) }
func (b BinaryExpr) Lt(other any) BinaryExpr  { return Binary(OpLt, b, other) }
func (b BinaryExpr) Le(other any) BinaryExpr  { return Binary(OpLe, b, other) }
func (b BinaryExpr) Gt(other any) BinaryExpr  { return Binary(OpGt, b, other) }
func (b BinaryExpr) Ge(other any) BinaryExpr  { return Binary(OpGe, b, other) }
func (b BinaryExpr) And(other any) BinaryExpr { return Binary(OpAnd, b, other) }
func (b BinaryExpr) Or(other any) BinaryExpr  { return Binary(OpOr, b, other) }
func (b BinaryExpr) Not() UnaryExpr           { return Unary(OpNot, b) }
func (b BinaryExpr) Neg() UnaryExpr           { return Unary(OpNeg, b) }
func (b BinaryExpr) IsIn(values ...any) IsInExpr {
	return IsIn(b, values...)
}

/***** UnaryExpr *****/

// UnaryExpr applies a unary operator (not, neg) to an expression.
type UnaryExpr struct {
	Op      UnaryOperator
	Operand Expression
}

// Unary creates a UnaryExpr. An operand that is not an Expression is wrapped with Lit.
func Unary(op UnaryOperator, operand any) UnaryExpr {
	return UnaryExpr{Op: op, Operand: asExpression(operand)}
}

func (u UnaryExpr) String() string {
	return fmt.Sprintf("%s(%s)", u.Op, u.Operand)
}

func (u UnaryExpr) expressionNode() {}

func (u UnaryExpr) And(other any) BinaryExpr { return Binary(OpAnd, u, other) }
func (u UnaryExpr) Or(other any) BinaryExpr  { return Binary(OpOr, u, other) }
func (u UnaryExpr) Add(other any) BinaryExpr { return Binary(OpAdd, u, other) }
func (u UnaryExpr) Mul(other any) BinaryExpr { return Binary(OpMul, u, other) }

/***** IsInExpr *****/

// IsInExpr tests whether the operand equals any of the given literals.
type IsInExpr struct {
	Operand Expression
	Values  []Literal
	Negated bool
}

// IsIn creates a membership test.
func IsIn(operand any, values ...any) IsInExpr {
	return IsInExpr{Operand: asExpression(operand), Values: toLiterals(values)}
}

// IsNotIn creates a negated membership test.
func IsNotIn(operand any, values ...any) IsInExpr {
	return IsInExpr{Operand: asExpression(operand), Values: toLiterals(values), Negated: true}
}

func (i IsInExpr) String() string {
	parts := make([]string, 0, len(i.Values))
	for _, v := range i.Values {
		parts = append(parts, v.String())
	}

	name := "isin"
	if i.Negated {
		name = "isnotin"
	}

	return fmt.Sprintf("%s.%s(%s)", i.Operand, name, strings.Join(parts, ", "))
}

func (i IsInExpr) expressionNode() {}

func (i IsInExpr) And(other any) BinaryExpr { return Binary(OpAnd, i, other) }
func (i IsInExpr) Or(other any) BinaryExpr  { return Binary(OpOr, i, other) }
func (i IsInExpr) Not() UnaryExpr           { return Unary(OpNot, i) }

func toLiterals(values []any) []Literal {
	literals := make([]Literal, 0, len(values))
	for _, v := range values {
		if l, ok := v.(Literal); ok {
			literals = append(literals, l)
			continue
		}

		literals = append(literals, Lit(v))
	}

	return literals
}

func asExpression(v any) Expression {
	if e, ok := v.(Expression); ok {
		return e
	}

	return Lit(v)
}

// ReferencedColumns returns the names of all columns referenced by expr in order of first appearance.
func ReferencedColumns(expr Expression) []string {
	seen := make(map[string]struct{})
	names := make([]string, 0)

	var walk func(e Expression)
	walk = func(e Expression) {
		switch node := e.(type) {
		case ColumnRef:
			if _, ok := seen[node.Name]; !ok {
				seen[node.Name] = struct{}{}
				names = append(names, node.Name)
			}
		case BinaryExpr:
			walk(node.Left)
			walk(node.Right)
		case UnaryExpr:
			walk(node.Operand)
		case IsInExpr:
			walk(node.Operand)
		}
	}

	if expr != nil {
		walk(expr)
	}

	return names
}
