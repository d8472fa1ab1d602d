package postgresengine

import (
	"math"
	"testing"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/stretchr/testify/assert"

	. "github.com/AntonStoeckl/lazyframes-go/lazyframe"
)

func renderCondition(t *testing.T, condition exp.LiteralExpression) string {
	t.Helper()

	sqlQuery, _, err := goqu.Dialect(dialectPostgres).From("t").Where(condition).ToSQL()
	assert.NoError(t, err)

	return sqlQuery
}

func fixtureSchema() frameSchema {
	return newFrameSchema("timestamp", []string{"col1", "col2", "name"})
}

func Test_expressionCompiler_Predicate(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		expr     Expression
		fragment string
	}{
		{
			name:     "numeric comparison unwraps the jsonb value",
			expr:     Col("col1").Gt(3),
			fragment: "COALESCE((((data->'col1') #>> '{}')::numeric > 3::numeric), FALSE)",
		},
		{
			name:     "text comparison",
			expr:     Col("name").Eq("abc"),
			fragment: "(((data->'name') #>> '{}') = 'abc'::text)",
		},
		{
			name:     "index compiles to the idx column",
			expr:     Col("timestamp").Ge(start),
			fragment: "(idx >= '2024-01-01T00:00:00Z'::timestamptz)",
		},
		{
			name:     "two columns compare as jsonb",
			expr:     Col("col1").Eq(Col("col2")),
			fragment: "((data->'col1') = (data->'col2'))",
		},
		{
			name:     "isin",
			expr:     Col("col1").IsIn(0, 3),
			fragment: "(((data->'col1') #>> '{}')::numeric IN (0::numeric, 3::numeric))",
		},
		{
			name:     "not isin",
			expr:     Col("col1").IsNotIn(1),
			fragment: "NOT IN (1::numeric)",
		},
		{
			name:     "logical and",
			expr:     Col("col1").Gt(1).And(Col("col2").Lt(5)),
			fragment: " AND ",
		},
		{
			name:     "not",
			expr:     Col("col1").Gt(1).Not(),
			fragment: "(NOT (((data->'col1') #>> '{}')::numeric > 1::numeric))",
		},
		{
			name:     "null literal is not cast",
			expr:     Col("col1").Eq(nil),
			fragment: "((data->'col1') = NULL)",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// act
			predicate, err := expressionCompiler{schema: fixtureSchema()}.predicate(tc.expr)

			// assert
			assert.NoError(t, err)
			assert.Contains(t, renderCondition(t, predicate), tc.fragment)
		})
	}
}

func Test_expressionCompiler_Predicate_When_IsInListIsEmpty(t *testing.T) {
	// act
	in, inErr := expressionCompiler{schema: fixtureSchema()}.predicate(IsIn(Col("col1")))
	notIn, notInErr := expressionCompiler{schema: fixtureSchema()}.predicate(IsNotIn(Col("col1")))

	// assert
	assert.NoError(t, inErr)
	assert.NoError(t, notInErr)
	assert.Contains(t, renderCondition(t, in), "COALESCE(FALSE, FALSE)")
	assert.Contains(t, renderCondition(t, notIn), "COALESCE(TRUE, FALSE)")
}

func Test_expressionCompiler_Value(t *testing.T) {
	tests := []struct {
		name     string
		expr     Expression
		fragment string
	}{
		{
			name:     "addition",
			expr:     Col("col1").Add(Col("col2")),
			fragment: "(((data->'col1') #>> '{}')::numeric + ((data->'col2') #>> '{}')::numeric)",
		},
		{
			name:     "division by zero yields null",
			expr:     Col("col1").Div(Col("col2")),
			fragment: "NULLIF(((data->'col2') #>> '{}')::numeric, 0)",
		},
		{
			name:     "negation",
			expr:     Col("col1").Neg(),
			fragment: "(- ((data->'col1') #>> '{}')::numeric)",
		},
		{
			name:     "plain column is copied as jsonb",
			expr:     Col("name"),
			fragment: "(data->'name')",
		},
		{
			name:     "float literal",
			expr:     Col("col1").Mul(2.5),
			fragment: "2.5::numeric",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// act
			value, err := expressionCompiler{schema: fixtureSchema()}.value(tc.expr)

			// assert
			assert.NoError(t, err)
			assert.Contains(t, renderCondition(t, value), tc.fragment)
		})
	}
}

func Test_expressionCompiler_When_ExpressionIsInvalid(t *testing.T) {
	tests := []struct {
		name        string
		expr        Expression
		expectedErr error
	}{
		{name: "unknown column", expr: Col("missing").Gt(1), expectedErr: ErrUnknownColumn},
		{name: "unknown column in isin", expr: Col("missing").IsIn(1), expectedErr: ErrUnknownColumn},
		{name: "nil expression", expr: nil, expectedErr: ErrUnsupportedOperation},
		{name: "NaN literal", expr: Col("col1").Gt(math.NaN()), expectedErr: ErrUnsupportedLiteral},
		{name: "infinite literal", expr: Col("col1").Lt(math.Inf(1)), expectedErr: ErrUnsupportedLiteral},
		{name: "unsupported literal type", expr: Col("col1").Eq([]int{1}), expectedErr: ErrUnsupportedLiteral},
		{name: "unsigned literal above int64", expr: Col("col1").Gt(uint64(math.MaxUint64)), expectedErr: ErrUnsupportedLiteral},
		{name: "unknown binary operator", expr: Binary("%", Col("col1"), 2), expectedErr: ErrUnsupportedOperation},
		{name: "unknown unary operator", expr: Unary("abs", Col("col1")), expectedErr: ErrUnsupportedOperation},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// act
			_, err := expressionCompiler{schema: fixtureSchema()}.predicate(tc.expr)

			// assert
			assert.ErrorIs(t, err, tc.expectedErr)
		})
	}
}

func Test_comparisonKind(t *testing.T) {
	assert.Equal(t, kindNumeric, comparisonKind(kindJSONB, kindNumeric))
	assert.Equal(t, kindText, comparisonKind(kindText, kindJSONB))
	assert.Equal(t, kindTimestamp, comparisonKind(kindNull, kindTimestamp))
	assert.Equal(t, kindJSONB, comparisonKind(kindJSONB, kindJSONB))
	assert.Equal(t, kindJSONB, comparisonKind(kindJSONB, kindNull))
}
