package language

import (
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

// Documents.
type (
	Source         = ast.Source
	QueryDocument  = ast.QueryDocument
	SchemaDocument = ast.SchemaDocument
	Position       = ast.Position

	// Error is returned by the parser and carries source locations.
	Error = gqlerror.Error
)

// Executable definitions.
type (
	OperationDefinition = ast.OperationDefinition
	FragmentDefinition  = ast.FragmentDefinition
	SelectionSet        = ast.SelectionSet
	Selection           = ast.Selection
	Field               = ast.Field
	FragmentSpread      = ast.FragmentSpread
	InlineFragment      = ast.InlineFragment
	DirectiveList       = ast.DirectiveList
	ArgumentList        = ast.ArgumentList
	Argument            = ast.Argument
	Value               = ast.Value
)

type Operation = ast.Operation

const (
	Mutation     Operation = ast.Mutation
	Subscription Operation = ast.Subscription
)

type ValueKind = ast.ValueKind

const (
	Variable    ValueKind = ast.Variable
	StringValue ValueKind = ast.StringValue
	BlockValue  ValueKind = ast.BlockValue
	NullValue   ValueKind = ast.NullValue
	EnumValue   ValueKind = ast.EnumValue
	ListValue   ValueKind = ast.ListValue
	ObjectValue ValueKind = ast.ObjectValue
)
