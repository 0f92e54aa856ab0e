package schema

import (
	"context"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/alexchamberlain/tartiflette/internal/gqlerrors"
)

// Resolver computes the value of a field. parent is the value of the
// enclosing object and args holds the coerced arguments.
type Resolver func(ctx context.Context, parent any, args map[string]any, info *ResolveInfo) (any, error)

// Subscriber produces the event stream of a subscription root field. Each
// received event is resolved and completed like a query result.
type Subscriber func(ctx context.Context, parent any, args map[string]any, info *ResolveInfo) (<-chan any, error)

// TypeResolver returns the name of the concrete object type of value.
type TypeResolver func(ctx context.Context, value any, info *ResolveInfo, abstract *Type) (string, error)

// Scalar implements a custom scalar type. Returning an error marks the value
// as invalid.
type Scalar interface {
	// CoerceOutput converts a resolved value into its response form.
	CoerceOutput(ctx context.Context, value any) (any, error)
	// CoerceInput converts a variable value into its internal form.
	CoerceInput(ctx context.Context, value any) (any, error)
	// ParseLiteral converts a query literal into its internal form.
	ParseLiteral(ctx context.Context, value *ast.Value) (any, error)
}

// ResolveInfo describes the field being resolved.
type ResolveInfo struct {
	FieldName       string
	FieldNodes      []*ast.Field
	ReturnType      *TypeRef
	ParentType      *Type
	Path            *gqlerrors.Path
	Schema          *Schema
	Fragments       map[string]*ast.FragmentDefinition
	RootValue       any
	Operation       *ast.OperationDefinition
	VariableValues  map[string]any
	IsIntrospection bool
}
