package scalars

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/vektah/gqlparser/v2/ast"
)

// Int is a 32-bit signed integer.
type Int struct{}

func (Int) CoerceOutput(_ context.Context, value any) (any, error) {
	switch v := value.(type) {
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case string:
		if f, ok := parseNumericString(v); ok {
			if i, ok := toInt(f); ok {
				return int(i), nil
			}
		}
		return nil, fmt.Errorf("Int cannot represent non-integer value: < %s >", v)
	}
	if i, ok := toInt(value); ok {
		return int(i), nil
	}
	if f, ok := toFloat(value); ok && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return int(math.Trunc(f)), nil
	}
	return nil, fmt.Errorf("Int cannot represent non-integer value: < %v >", value)
}

func (Int) CoerceInput(_ context.Context, value any) (any, error) {
	if _, isBool := value.(bool); isBool {
		return nil, fmt.Errorf("Int cannot represent non-integer value: < %v >", value)
	}
	i, ok := toInt(value)
	if !ok {
		return nil, fmt.Errorf("Int cannot represent non-integer value: < %v >", value)
	}
	if i < math.MinInt32 || i > math.MaxInt32 {
		return nil, fmt.Errorf("Int cannot represent non 32-bit signed integer value: < %v >", value)
	}
	return int(i), nil
}

func (Int) ParseLiteral(_ context.Context, value *ast.Value) (any, error) {
	if value.Kind != ast.IntValue {
		return nil, invalidLiteral("Int", value)
	}
	i, err := strconv.ParseInt(value.Raw, 10, 64)
	if err != nil || i < math.MinInt32 || i > math.MaxInt32 {
		return nil, fmt.Errorf("Int cannot represent non 32-bit signed integer value: < %s >", value.Raw)
	}
	return int(i), nil
}
