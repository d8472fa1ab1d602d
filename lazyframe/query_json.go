package lazyframe

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var queryJSON = jsoniter.ConfigCompatibleWithStandardLibrary

type operationJSON struct {
	Op           string                     `json:"op"`
	Expr         *expressionJSON            `json:"expr,omitempty"`
	Name         string                     `json:"name,omitempty"`
	Start        *time.Time                 `json:"start,omitempty"`
	End          *time.Time                 `json:"end,omitempty"`
	StartRow     *int64                     `json:"start_row,omitempty"`
	EndRow       *int64                     `json:"end_row,omitempty"`
	Columns      []string                   `json:"columns,omitempty"`
	Key          string                     `json:"key,omitempty"`
	Rule         string                     `json:"rule,omitempty"`
	Aggregations map[string]AggregationFunc `json:"aggregations,omitempty"`
}

type expressionJSON struct {
	Col     *string           `json:"col,omitempty"`
	Lit     json.RawMessage   `json:"lit,omitempty"`
	Time    *time.Time        `json:"time,omitempty"`
	Op      string            `json:"op,omitempty"`
	Left    *expressionJSON   `json:"left,omitempty"`
	Right   *expressionJSON   `json:"right,omitempty"`
	Operand *expressionJSON   `json:"operand,omitempty"`
	Values  []*expressionJSON `json:"values,omitempty"`
	Negated bool              `json:"negated,omitempty"`
}

const (
	exprOpIsIn = "isin"
)

// MarshalQueryJSON encodes the operation sequence of qb as a JSON array.
//
// Example:
//
//	[{"op":"filter","expr":{"op":"isin","operand":{"col":"col1"},"values":[{"lit":0},{"lit":3}]}},
//	 {"op":"projection","name":"total","expr":{"op":"+","left":{"col":"col1"},"right":{"col":"col2"}}},
//	 {"op":"groupby","key":"col1","aggregations":{"col2":"sum"}}]
func MarshalQueryJSON(qb QueryBuilder) ([]byte, error) {
	ops := make([]operationJSON, 0, qb.Len())

	for _, op := range qb.operations {
		encoded, err := encodeOperation(op)
		if err != nil {
			return nil, errors.Join(ErrEncodingQueryFailed, err)
		}

		ops = append(ops, encoded)
	}

	data, err := queryJSON.Marshal(ops)
	if err != nil {
		return nil, errors.Join(ErrEncodingQueryFailed, err)
	}

	return data, nil
}

// UnmarshalQueryJSON decodes a JSON array produced by MarshalQueryJSON into a QueryBuilder.
// Integral JSON numbers become int64 literals, all other numbers float64.
func UnmarshalQueryJSON(data []byte) (QueryBuilder, error) {
	var ops []operationJSON
	if err := queryJSON.Unmarshal(data, &ops); err != nil {
		return QueryBuilder{}, errors.Join(ErrDecodingQueryFailed, err)
	}

	qb := BuildQuery()

	for i, encoded := range ops {
		op, err := decodeOperation(encoded)
		if err != nil {
			return QueryBuilder{}, errors.Join(ErrDecodingQueryFailed, fmt.Errorf("operation %d: %w", i, err))
		}

		qb = qb.Append(op)
	}

	return qb, nil
}

func encodeOperation(op Operation) (operationJSON, error) {
	encoded := operationJSON{Op: string(op.Kind())}

	switch o := op.(type) {
	case FilterOperation:
		expr, err := encodeExpression(o.Predicate)
		if err != nil {
			return operationJSON{}, err
		}
		encoded.Expr = expr

	case DateRangeOperation:
		if o.Range.HasStart() {
			start := o.Range.Start
			encoded.Start = &start
		}
		if o.Range.HasEnd() {
			end := o.Range.End
			encoded.End = &end
		}

	case RowRangeOperation:
		start, end := o.Range.Start, o.Range.End
		encoded.StartRow = &start
		encoded.EndRow = &end

	case ColumnSelectionOperation:
		encoded.Columns = o.Columns

	case ProjectionOperation:
		expr, err := encodeExpression(o.Expr)
		if err != nil {
			return operationJSON{}, err
		}
		encoded.Name = o.Name
		encoded.Expr = expr

	case GroupByOperation:
		encoded.Key = o.Key
		encoded.Aggregations = o.Aggregations

	case ResampleOperation:
		encoded.Rule = o.Rule
		encoded.Aggregations = o.Aggregations

	default:
		return operationJSON{}, fmt.Errorf("unsupported operation type %T", op)
	}

	return encoded, nil
}

func decodeOperation(encoded operationJSON) (Operation, error) {
	switch OperationKind(encoded.Op) {
	case KindFilter:
		expr, err := decodeExpression(encoded.Expr)
		if err != nil {
			return nil, err
		}
		return Filter(expr), nil

	case KindDateRange:
		dr := DateRange{}
		if encoded.Start != nil {
			dr.Start = *encoded.Start
		}
		if encoded.End != nil {
			dr.End = *encoded.End
		}
		return DateRangeOperation{Range: dr}, nil

	case KindRowRange:
		if encoded.StartRow == nil || encoded.EndRow == nil {
			return nil, errors.New("row_range needs start_row and end_row")
		}
		return RowRangeOperation{Range: RowRange{Start: *encoded.StartRow, End: *encoded.EndRow}}, nil

	case KindColumnSelection:
		return SelectColumns(encoded.Columns...), nil

	case KindProjection:
		expr, err := decodeExpression(encoded.Expr)
		if err != nil {
			return nil, err
		}
		return Project(encoded.Name, expr), nil

	case KindGroupBy:
		return GroupBy(encoded.Key, encoded.Aggregations), nil

	case KindResample:
		return Resample(encoded.Rule, encoded.Aggregations), nil

	default:
		return nil, fmt.Errorf("unknown operation %q", encoded.Op)
	}
}

func encodeExpression(expr Expression) (*expressionJSON, error) {
	switch e := expr.(type) {
	case ColumnRef:
		name := e.Name
		return &expressionJSON{Col: &name}, nil

	case Literal:
		return encodeLiteral(e)

	case BinaryExpr:
		left, err := encodeExpression(e.Left)
		if err != nil {
			return nil, err
		}
		right, err := encodeExpression(e.Right)
		if err != nil {
			return nil, err
		}
		return &expressionJSON{Op: string(e.Op), Left: left, Right: right}, nil

	case UnaryExpr:
		operand, err := encodeExpression(e.Operand)
		if err != nil {
			return nil, err
		}
		return &expressionJSON{Op: string(e.Op), Operand: operand}, nil

	case IsInExpr:
		operand, err := encodeExpression(e.Operand)
		if err != nil {
			return nil, err
		}
		values := make([]*expressionJSON, 0, len(e.Values))
		for _, v := range e.Values {
			encoded, err := encodeLiteral(v)
			if err != nil {
				return nil, err
			}
			values = append(values, encoded)
		}
		return &expressionJSON{Op: exprOpIsIn, Operand: operand, Values: values, Negated: e.Negated}, nil

	case nil:
		return nil, errors.New("nil expression")

	default:
		return nil, fmt.Errorf("unsupported expression type %T", expr)
	}
}

func encodeLiteral(l Literal) (*expressionJSON, error) {
	if t, ok := l.Value.(time.Time); ok {
		return &expressionJSON{Time: &t}, nil
	}

	raw, err := queryJSON.Marshal(l.Value)
	if err != nil {
		return nil, err
	}

	return &expressionJSON{Lit: raw}, nil
}

func decodeExpression(encoded *expressionJSON) (Expression, error) {
	if encoded == nil {
		return nil, errors.New("missing expression")
	}

	switch {
	case encoded.Col != nil:
		return Col(*encoded.Col), nil

	case encoded.Time != nil:
		return Lit(*encoded.Time), nil

	case len(encoded.Lit) > 0:
		return decodeLiteral(encoded.Lit)

	case encoded.Op == exprOpIsIn:
		operand, err := decodeExpression(encoded.Operand)
		if err != nil {
			return nil, err
		}
		values := make([]any, 0, len(encoded.Values))
		for _, v := range encoded.Values {
			decoded, err := decodeExpression(v)
			if err != nil {
				return nil, err
			}
			literal, ok := decoded.(Literal)
			if !ok {
				return nil, errors.New("isin values must be literals")
			}
			values = append(values, literal)
		}
		return IsInExpr{Operand: operand, Values: toLiterals(values), Negated: encoded.Negated}, nil

	case encoded.Operand != nil:
		operand, err := decodeExpression(encoded.Operand)
		if err != nil {
			return nil, err
		}
		return Unary(UnaryOperator(encoded.Op), operand), nil

	case encoded.Left != nil || encoded.Right != nil:
		left, err := decodeExpression(encoded.Left)
		if err != nil {
			return nil, err
		}
		right, err := decodeExpression(encoded.Right)
		if err != nil {
			return nil, err
		}
		return Binary(BinaryOperator(encoded.Op), left, right), nil

	default:
		return nil, errors.New("empty expression")
	}
}

func decodeLiteral(raw json.RawMessage) (Literal, error) {
	text := string(raw)

	switch {
	case text == "null":
		return Lit(nil), nil

	case text == "true" || text == "false":
		return Lit(text == "true"), nil

	case len(text) > 0 && text[0] == '"':
		var s string
		if err := queryJSON.Unmarshal(raw, &s); err != nil {
			return Literal{}, err
		}
		return Lit(s), nil
	}

	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return Lit(i), nil
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return Literal{}, fmt.Errorf("unsupported literal %s", text)
	}

	return Lit(f), nil
}
