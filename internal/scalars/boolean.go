package scalars

import (
	"context"
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
)

type Boolean struct{}

// CoerceOutput returns the truthiness of value: zero numbers, empty strings
// and nil are false.
func (Boolean) CoerceOutput(_ context.Context, value any) (any, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		return v != "", nil
	}
	if f, ok := toFloat(value); ok {
		return f != 0, nil
	}
	return nil, fmt.Errorf("Boolean cannot represent a non boolean value: < %v >", value)
}

func (Boolean) CoerceInput(_ context.Context, value any) (any, error) {
	b, ok := value.(bool)
	if !ok {
		return nil, fmt.Errorf("Boolean cannot represent a non boolean value: < %v >", value)
	}
	return b, nil
}

func (Boolean) ParseLiteral(_ context.Context, value *ast.Value) (any, error) {
	if value.Kind != ast.BooleanValue {
		return nil, invalidLiteral("Boolean", value)
	}
	return value.Raw == "true", nil
}
