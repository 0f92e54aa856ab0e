package executor

import (
	"context"

	language "github.com/alexchamberlain/tartiflette/internal/language"
	schema "github.com/alexchamberlain/tartiflette/internal/schema"
)

// undefinedValue marks a value that is missing or invalid, as opposed to an
// explicit null.
type undefinedValue struct{}

var undefined any = undefinedValue{}

// coercer converts input values into the internal form of their schema
// types. variables holds the already coerced variables of the request.
type coercer struct {
	schema    *schema.Schema
	variables map[string]any
}

func passthrough(_ context.Context, value any) (any, error) {
	return value, nil
}

// isMissingVariable reports whether node refers to a variable the request
// did not provide.
func (c *coercer) isMissingVariable(node *language.Value) bool {
	if node == nil || node.Kind != language.Variable {
		return false
	}
	_, ok := c.variables[node.Raw]
	return !ok
}

// nullOrVariable resolves null literals and variable references, which
// need no type-specific parsing. done is false for any other node.
func (c *coercer) nullOrVariable(node *language.Value) (value any, done bool) {
	switch {
	case node == nil:
		return undefined, true
	case node.Kind == language.NullValue:
		return nil, true
	case node.Kind == language.Variable:
		v, ok := c.variables[node.Raw]
		if !ok {
			return undefined, true
		}
		return v, true
	}
	return nil, false
}

// literal coerces a query literal to ref. Invalid literals yield undefined;
// the returned error only carries failures of input directives.
func (c *coercer) literal(ctx context.Context, ref *schema.TypeRef, node *language.Value) (any, error) {
	switch ref.Kind {
	case schema.TypeRefKindNonNull:
		if node != nil && node.Kind == language.NullValue {
			return undefined, nil
		}
		return c.literal(ctx, ref.OfType, node)

	case schema.TypeRefKindList:
		if v, done := c.nullOrVariable(node); done {
			return v, nil
		}
		if node.Kind != language.ListValue {
			item, err := c.literal(ctx, ref.OfType, node)
			if err != nil || item == undefined {
				return undefined, err
			}
			return []any{item}, nil
		}
		out := make([]any, 0, len(node.Children))
		for _, child := range node.Children {
			if c.isMissingVariable(child.Value) {
				if ref.OfType.IsNonNull() {
					return undefined, nil
				}
				out = append(out, nil)
				continue
			}
			item, err := c.literal(ctx, ref.OfType, child.Value)
			if err != nil || item == undefined {
				return undefined, err
			}
			out = append(out, item)
		}
		return out, nil
	}

	t := c.schema.FindType(ref.Named)
	if t == nil {
		return undefined, nil
	}
	v, err := c.namedLiteral(ctx, t, node)
	if err != nil || v == undefined || node.Kind == language.Variable || len(t.Instances) == 0 {
		return v, err
	}
	return schema.WrapPostInputCoercion(t.Instances, passthrough)(ctx, v)
}

func (c *coercer) namedLiteral(ctx context.Context, t *schema.Type, node *language.Value) (any, error) {
	if v, done := c.nullOrVariable(node); done {
		return v, nil
	}
	switch t.Kind {
	case schema.TypeKindScalar:
		v, err := t.Scalar.ParseLiteral(ctx, node)
		if err != nil {
			return undefined, nil
		}
		return v, nil

	case schema.TypeKindEnum:
		if node.Kind != language.EnumValue {
			return undefined, nil
		}
		ev := t.EnumValue(node.Raw)
		if ev == nil {
			return undefined, nil
		}
		return schema.WrapPostInputCoercion(ev.Instances, passthrough)(ctx, ev.Value)

	case schema.TypeKindInputObject:
		if node.Kind != language.ObjectValue {
			return undefined, nil
		}
		out := make(map[string]any, len(t.InputFields))
		for _, f := range t.InputFields {
			child := node.Children.ForName(f.Name)
			if child == nil || c.isMissingVariable(child) {
				if f.HasDefault {
					out[f.Name] = f.DefaultValue
				} else if f.Type.IsNonNull() {
					return undefined, nil
				}
				continue
			}
			v, err := c.literal(ctx, f.Type, child)
			if err != nil || v == undefined {
				return undefined, err
			}
			// Input field directives also apply to variables.
			if len(f.Instances) > 0 {
				if v, err = schema.WrapPostInputCoercion(f.Instances, passthrough)(ctx, v); err != nil {
					return undefined, err
				}
			}
			out[f.Name] = v
		}
		return out, nil
	}
	return undefined, nil
}
