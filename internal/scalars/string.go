package scalars

import (
	"context"
	"fmt"
	"strconv"

	"github.com/vektah/gqlparser/v2/ast"
)

// String is UTF-8 text.
type String struct{}

func (String) CoerceOutput(_ context.Context, value any) (any, error) {
	return stringify(value), nil
}

func (String) CoerceInput(_ context.Context, value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("String cannot represent a non string value: < %v >", value)
	}
	return s, nil
}

func (String) ParseLiteral(_ context.Context, value *ast.Value) (any, error) {
	if value.Kind != ast.StringValue && value.Kind != ast.BlockValue {
		return nil, invalidLiteral("String", value)
	}
	return value.Raw, nil
}

// ID is an opaque identifier serialized as a string. Integers are accepted
// as input.
type ID struct{}

func (ID) CoerceOutput(_ context.Context, value any) (any, error) {
	return stringify(value), nil
}

func (ID) CoerceInput(_ context.Context, value any) (any, error) {
	if s, ok := value.(string); ok {
		return s, nil
	}
	if _, isBool := value.(bool); !isBool {
		if i, ok := toInt(value); ok {
			return strconv.FormatInt(i, 10), nil
		}
	}
	return nil, fmt.Errorf("ID cannot represent value: < %v >", value)
}

func (ID) ParseLiteral(_ context.Context, value *ast.Value) (any, error) {
	if value.Kind != ast.StringValue && value.Kind != ast.IntValue {
		return nil, invalidLiteral("ID", value)
	}
	return value.Raw, nil
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	case bool:
		if v {
			return "true"
		}
		return "false"
	}
	return fmt.Sprint(value)
}
