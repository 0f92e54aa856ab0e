package scalars

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/vektah/gqlparser/v2/ast"
)

// Float is a finite double-precision number.
type Float struct{}

func (Float) CoerceOutput(_ context.Context, value any) (any, error) {
	var (
		f  float64
		ok bool
	)
	switch v := value.(type) {
	case bool:
		if v {
			return 1.0, nil
		}
		return 0.0, nil
	case string:
		f, ok = parseNumericString(v)
	default:
		f, ok = toFloat(value)
	}
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("Float cannot represent non numeric value: < %v >", value)
	}
	return f, nil
}

func (Float) CoerceInput(_ context.Context, value any) (any, error) {
	if _, isBool := value.(bool); isBool {
		return nil, fmt.Errorf("Float cannot represent non numeric value: < %v >", value)
	}
	f, ok := toFloat(value)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("Float cannot represent non numeric value: < %v >", value)
	}
	return f, nil
}

func (Float) ParseLiteral(_ context.Context, value *ast.Value) (any, error) {
	if value.Kind != ast.FloatValue && value.Kind != ast.IntValue {
		return nil, invalidLiteral("Float", value)
	}
	f, err := strconv.ParseFloat(value.Raw, 64)
	if err != nil {
		return nil, invalidLiteral("Float", value)
	}
	return f, nil
}
