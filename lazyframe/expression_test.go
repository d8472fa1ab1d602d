package lazyframe_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/lazyframes-go/lazyframe"
)

func Test_Expression_String(t *testing.T) {
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		expr     lazyframe.Expression
		expected string
	}{
		{
			name:     "column_reference",
			expr:     lazyframe.Col("col1"),
			expected: `col("col1")`,
		},
		{
			name:     "string_literal",
			expr:     lazyframe.Lit("abc"),
			expected: `lit("abc")`,
		},
		{
			name:     "time_literal",
			expr:     lazyframe.Lit(ts),
			expected: "lit(2025-03-01T12:00:00Z)",
		},
		{
			name:     "arithmetic",
			expr:     lazyframe.Col("col1").Add(lazyframe.Col("col2")),
			expected: `(col("col1") + col("col2"))`,
		},
		{
			name:     "nested_logical",
			expr:     lazyframe.Col("a").Gt(1).And(lazyframe.Col("b").Le(2.5)),
			expected: `((col("a") > lit(1)) and (col("b") <= lit(2.5)))`,
		},
		{
			name:     "negation",
			expr:     lazyframe.Col("flag").Not(),
			expected: `not(col("flag"))`,
		},
		{
			name:     "isin",
			expr:     lazyframe.Col("col1").IsIn(0, 3, 6, 9),
			expected: `col("col1").isin(lit(0), lit(3), lit(6), lit(9))`,
		},
		{
			name:     "isnotin",
			expr:     lazyframe.Col("col1").IsNotIn("x"),
			expected: `col("col1").isnotin(lit("x"))`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.expr.String())
		})
	}
}

func Test_Lit_NormalizesNumericKinds(t *testing.T) {
	assert.Equal(t, int64(5), lazyframe.Lit(5).Value)
	assert.Equal(t, int64(5), lazyframe.Lit(int32(5)).Value)
	assert.Equal(t, int64(5), lazyframe.Lit(uint8(5)).Value)
	assert.Equal(t, float64(1.5), lazyframe.Lit(float32(1.5)).Value)
	assert.Equal(t, "x", lazyframe.Lit("x").Value)
	assert.Nil(t, lazyframe.Lit(nil).Value)
}

func Test_Lit_When_UnsignedValueExceedsInt64_KeepsItUnsigned(t *testing.T) {
	assert.Equal(t, int64(math.MaxInt64), lazyframe.Lit(uint64(math.MaxInt64)).Value)
	assert.Equal(t, uint64(math.MaxInt64+1), lazyframe.Lit(uint64(math.MaxInt64+1)).Value)
}

func Test_Binary_WrapsPlainValuesAsLiterals(t *testing.T) {
	// act
	expr := lazyframe.Binary(lazyframe.OpMul, lazyframe.Col("price"), 2)

	// assert
	assert.Equal(t, lazyframe.OpMul, expr.Op)
	assert.Equal(t, lazyframe.Col("price"), expr.Left)
	assert.Equal(t, lazyframe.Lit(int64(2)), expr.Right)
}

func Test_IsIn_KeepsExplicitLiterals(t *testing.T) {
	// act
	expr := lazyframe.IsIn(lazyframe.Col("c"), lazyframe.Lit("a"), "b")

	// assert
	assert.Equal(t, []lazyframe.Literal{lazyframe.Lit("a"), lazyframe.Lit("b")}, expr.Values)
	assert.False(t, expr.Negated)
}

func Test_BinaryOperator_Classification(t *testing.T) {
	assert.True(t, lazyframe.OpAdd.IsArithmetic())
	assert.False(t, lazyframe.OpAdd.IsComparison())
	assert.True(t, lazyframe.OpGe.IsComparison())
	assert.False(t, lazyframe.OpGe.IsLogical())
	assert.True(t, lazyframe.OpOr.IsLogical())
	assert.False(t, lazyframe.OpOr.IsArithmetic())
}

func Test_ReferencedColumns_InOrderOfFirstAppearance(t *testing.T) {
	// arrange
	expr := lazyframe.Col("b").Add(lazyframe.Col("a")).
		Gt(lazyframe.Col("b")).
		And(lazyframe.Col("c").IsIn(1, 2)).
		Or(lazyframe.Col("a").Not())

	// act
	names := lazyframe.ReferencedColumns(expr)

	// assert
	assert.Equal(t, []string{"b", "a", "c"}, names)
}

func Test_ReferencedColumns_When_ExpressionIsNil(t *testing.T) {
	assert.Empty(t, lazyframe.ReferencedColumns(nil))
}
