package schema

import (
	"context"
	"errors"

	"github.com/vektah/gqlparser/v2/ast"
)

// ErrSkipCollection is returned by a collection hook to drop the selection.
var ErrSkipCollection = errors.New("skip collection")

// Instance is a directive applied at one location, ready to be chained.
type Instance struct {
	Name string
	Impl any
	// Args returns the directive arguments. Instances built from query
	// directives coerce their arguments lazily on the first hook call.
	Args func(ctx context.Context) (map[string]any, error)
}

// StaticArgs returns an Args func for already computed arguments.
func StaticArgs(args map[string]any) func(context.Context) (map[string]any, error) {
	return func(context.Context) (map[string]any, error) { return args, nil }
}

type (
	// ValueNext continues an input or output value chain.
	ValueNext func(ctx context.Context, value any) (any, error)
	// CollectionNext continues a selection collection chain.
	CollectionNext func(ctx context.Context, selection ast.Selection) (ast.Selection, error)
	// IntrospectionNext continues an introspection chain.
	IntrospectionNext func(ctx context.Context, element any) (any, error)
)

// OnFieldExecution wraps field resolvers.
type OnFieldExecution interface {
	OnFieldExecution(ctx context.Context, directiveArgs map[string]any, next Resolver, parent any, args map[string]any, info *ResolveInfo) (any, error)
}

// OnArgumentExecution rewrites the coerced value of an argument.
type OnArgumentExecution interface {
	OnArgumentExecution(ctx context.Context, directiveArgs map[string]any, next ValueNext, argument *InputValue, value any) (any, error)
}

// OnPostInputCoercion rewrites a value once coerced to an input type.
type OnPostInputCoercion interface {
	OnPostInputCoercion(ctx context.Context, directiveArgs map[string]any, next ValueNext, value any) (any, error)
}

// OnPreOutputCoercion rewrites a resolved value before it is serialized.
type OnPreOutputCoercion interface {
	OnPreOutputCoercion(ctx context.Context, directiveArgs map[string]any, next ValueNext, value any, info *ResolveInfo) (any, error)
}

type OnFieldCollection interface {
	OnFieldCollection(ctx context.Context, directiveArgs map[string]any, next CollectionNext, field *ast.Field) (ast.Selection, error)
}

type OnFragmentSpreadCollection interface {
	OnFragmentSpreadCollection(ctx context.Context, directiveArgs map[string]any, next CollectionNext, spread *ast.FragmentSpread) (ast.Selection, error)
}

type OnInlineFragmentCollection interface {
	OnInlineFragmentCollection(ctx context.Context, directiveArgs map[string]any, next CollectionNext, fragment *ast.InlineFragment) (ast.Selection, error)
}

// OnIntrospection rewrites an element exposed through introspection. A nil
// result hides the element.
type OnIntrospection interface {
	OnIntrospection(ctx context.Context, directiveArgs map[string]any, next IntrospectionNext, element any, info *ResolveInfo) (any, error)
}
