// Package directives implements the built-in directives.
package directives

import (
	"context"

	"github.com/vektah/gqlparser/v2/ast"
	"go.uber.org/zap"

	"github.com/alexchamberlain/tartiflette/internal/schema"
)

// Builtins returns the implementations of the directives declared by
// schema.BuiltinSDL.
func Builtins(logger *zap.Logger) map[string]any {
	if logger == nil {
		logger = zap.NewNop()
	}
	return map[string]any{
		"skip":               Skip{},
		"include":            Include{},
		"deprecated":         Deprecated{},
		"nonIntrospectable":  NonIntrospectable{},
		"non_introspectable": NonIntrospectableDeprecated{Logger: logger},
	}
}

// Skip drops a selection when its "if" argument is true.
type Skip struct{}

func skipWhen(skip bool, sel ast.Selection, err error) (ast.Selection, error) {
	if err != nil {
		return nil, err
	}
	if skip {
		return nil, schema.ErrSkipCollection
	}
	return sel, nil
}

func (Skip) OnFieldCollection(ctx context.Context, args map[string]any, next schema.CollectionNext, field *ast.Field) (ast.Selection, error) {
	sel, err := next(ctx, field)
	return skipWhen(args["if"] == true, sel, err)
}

func (Skip) OnFragmentSpreadCollection(ctx context.Context, args map[string]any, next schema.CollectionNext, spread *ast.FragmentSpread) (ast.Selection, error) {
	sel, err := next(ctx, spread)
	return skipWhen(args["if"] == true, sel, err)
}

func (Skip) OnInlineFragmentCollection(ctx context.Context, args map[string]any, next schema.CollectionNext, fragment *ast.InlineFragment) (ast.Selection, error) {
	sel, err := next(ctx, fragment)
	return skipWhen(args["if"] == true, sel, err)
}

// Include drops a selection unless its "if" argument is true.
type Include struct{}

func (Include) OnFieldCollection(ctx context.Context, args map[string]any, next schema.CollectionNext, field *ast.Field) (ast.Selection, error) {
	sel, err := next(ctx, field)
	return skipWhen(args["if"] != true, sel, err)
}

func (Include) OnFragmentSpreadCollection(ctx context.Context, args map[string]any, next schema.CollectionNext, spread *ast.FragmentSpread) (ast.Selection, error) {
	sel, err := next(ctx, spread)
	return skipWhen(args["if"] != true, sel, err)
}

func (Include) OnInlineFragmentCollection(ctx context.Context, args map[string]any, next schema.CollectionNext, fragment *ast.InlineFragment) (ast.Selection, error) {
	sel, err := next(ctx, fragment)
	return skipWhen(args["if"] != true, sel, err)
}

// Deprecated marks introspected fields, arguments, input fields and enum
// values as deprecated. The schema element itself is left untouched; a copy
// is returned.
type Deprecated struct{}

func (Deprecated) OnIntrospection(ctx context.Context, args map[string]any, next schema.IntrospectionNext, element any, _ *schema.ResolveInfo) (any, error) {
	element, err := next(ctx, element)
	if err != nil || element == nil {
		return element, err
	}
	reason, _ := args["reason"].(string)
	switch e := element.(type) {
	case *schema.Field:
		cp := *e
		cp.IsDeprecated, cp.DeprecationReason = true, reason
		return &cp, nil
	case *schema.EnumValue:
		cp := *e
		cp.IsDeprecated, cp.DeprecationReason = true, reason
		return &cp, nil
	case *schema.InputValue:
		cp := *e
		cp.IsDeprecated, cp.DeprecationReason = true, reason
		return &cp, nil
	}
	return element, nil
}

// NonIntrospectable hides a field from introspection.
type NonIntrospectable struct{}

func (NonIntrospectable) OnIntrospection(context.Context, map[string]any, schema.IntrospectionNext, any, *schema.ResolveInfo) (any, error) {
	return nil, nil
}

// NonIntrospectableDeprecated is the snake_case spelling of
// NonIntrospectable, kept for older schemas.
type NonIntrospectableDeprecated struct {
	Logger *zap.Logger
}

func (d NonIntrospectableDeprecated) OnIntrospection(ctx context.Context, args map[string]any, next schema.IntrospectionNext, element any, info *schema.ResolveInfo) (any, error) {
	if d.Logger != nil {
		d.Logger.Warn("@non_introspectable is deprecated, use @nonIntrospectable")
	}
	return NonIntrospectable{}.OnIntrospection(ctx, args, next, element, info)
}
