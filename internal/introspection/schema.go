// Package introspection exposes the type graph through the __schema and
// __type root fields.
package introspection

import (
	"errors"
	"fmt"

	schema "github.com/alexchamberlain/tartiflette/internal/schema"
)

// Extend adds the introspection types to s and the __schema and __type
// fields to its query type. It must run before the schema is baked.
func Extend(s *schema.Schema) error {
	if s.Baked() {
		return errors.New("introspection: schema is already baked")
	}
	queryType := s.GetQueryType()
	if queryType == nil {
		return errors.New("introspection: schema has no query type")
	}
	for _, t := range []*schema.Type{
		schemaType(),
		typeType(),
		fieldType(),
		inputValueType(),
		enumValueType(),
		directiveType(),
		typeKindEnum(),
		directiveLocationEnum(),
	} {
		if _, ok := s.Types[t.Name]; ok {
			return fmt.Errorf("introspection: type %q is already defined", t.Name)
		}
		s.Types[t.Name] = t
	}

	queryType.AddField(&schema.Field{
		Name:        "__schema",
		Description: "Access the current type schema of this server.",
		Type:        schema.NonNullType(schema.NamedType("__Schema")),
	})
	queryType.AddField(&schema.Field{
		Name:        "__type",
		Description: "Request the type information of a single type.",
		Arguments: []*schema.InputValue{
			{
				Name:        "name",
				Description: "The name of the type to look up.",
				Type:        schema.NonNullType(schema.NamedType("String")),
			},
		},
		Type: schema.NamedType("__Type"),
	})
	return nil
}

func includeDeprecatedArg() []*schema.InputValue {
	return []*schema.InputValue{
		{
			Name:         "includeDeprecated",
			Type:         schema.NamedType("Boolean"),
			DefaultValue: false,
			HasDefault:   true,
		},
	}
}

func enumValues(names ...string) []*schema.EnumValue {
	out := make([]*schema.EnumValue, len(names))
	for i, name := range names {
		out[i] = &schema.EnumValue{Name: name, Value: name}
	}
	return out
}

// schemaType returns the __Schema introspection type definition
func schemaType() *schema.Type {
	return &schema.Type{
		Name:        "__Schema",
		Kind:        schema.TypeKindObject,
		Description: "A GraphQL Schema defines the capabilities of a GraphQL server.",
		Fields: []*schema.Field{
			{
				Name:        "types",
				Description: "A list of all types supported by this server.",
				Type:        schema.NonNullType(schema.ListType(schema.NonNullType(schema.NamedType("__Type")))),
			},
			{
				Name:        "queryType",
				Description: "The type that query operations will be rooted at.",
				Type:        schema.NonNullType(schema.NamedType("__Type")),
			},
			{
				Name:        "mutationType",
				Description: "If this server supports mutation, the type that mutation operations will be rooted at.",
				Type:        schema.NamedType("__Type"),
			},
			{
				Name:        "subscriptionType",
				Description: "If this server support subscription, the type that subscription operations will be rooted at.",
				Type:        schema.NamedType("__Type"),
			},
			{
				Name:        "directives",
				Description: "A list of all directives supported by this server.",
				Type:        schema.NonNullType(schema.ListType(schema.NonNullType(schema.NamedType("__Directive")))),
			},
			{
				Name:        "description",
				Description: "A description of the schema.",
				Type:        schema.NamedType("String"),
			},
		},
	}
}

// typeType returns the __Type introspection type definition
func typeType() *schema.Type {
	return &schema.Type{
		Name:        "__Type",
		Kind:        schema.TypeKindObject,
		Description: "The fundamental unit of any GraphQL Schema is the type.",
		Fields: []*schema.Field{
			{
				Name:        "kind",
				Description: "The kind of type.",
				Type:        schema.NonNullType(schema.NamedType("__TypeKind")),
			},
			{
				Name:        "name",
				Description: "The name of the type.",
				Type:        schema.NamedType("String"),
			},
			{
				Name:        "description",
				Description: "The description of the type.",
				Type:        schema.NamedType("String"),
			},
			{
				Name:      "fields",
				Arguments: includeDeprecatedArg(),
				Type:      schema.ListType(schema.NonNullType(schema.NamedType("__Field"))),
			},
			{
				Name: "interfaces",
				Type: schema.ListType(schema.NonNullType(schema.NamedType("__Type"))),
			},
			{
				Name: "possibleTypes",
				Type: schema.ListType(schema.NonNullType(schema.NamedType("__Type"))),
			},
			{
				Name:      "enumValues",
				Arguments: includeDeprecatedArg(),
				Type:      schema.ListType(schema.NonNullType(schema.NamedType("__EnumValue"))),
			},
			{
				Name:      "inputFields",
				Arguments: includeDeprecatedArg(),
				Type:      schema.ListType(schema.NonNullType(schema.NamedType("__InputValue"))),
			},
			{
				Name: "ofType",
				Type: schema.NamedType("__Type"),
			},
		},
	}
}

// fieldType returns the __Field introspection type definition
func fieldType() *schema.Type {
	return &schema.Type{
		Name: "__Field",
		Kind: schema.TypeKindObject,
		Fields: []*schema.Field{
			{Name: "name", Type: schema.NonNullType(schema.NamedType("String"))},
			{Name: "description", Type: schema.NamedType("String")},
			{
				Name:      "args",
				Arguments: includeDeprecatedArg(),
				Type:      schema.NonNullType(schema.ListType(schema.NonNullType(schema.NamedType("__InputValue")))),
			},
			{Name: "type", Type: schema.NonNullType(schema.NamedType("__Type"))},
			{Name: "isDeprecated", Type: schema.NonNullType(schema.NamedType("Boolean"))},
			{Name: "deprecationReason", Type: schema.NamedType("String")},
		},
	}
}

// inputValueType returns the __InputValue introspection type definition
func inputValueType() *schema.Type {
	return &schema.Type{
		Name: "__InputValue",
		Kind: schema.TypeKindObject,
		Fields: []*schema.Field{
			{Name: "name", Type: schema.NonNullType(schema.NamedType("String"))},
			{Name: "description", Type: schema.NamedType("String")},
			{Name: "type", Type: schema.NonNullType(schema.NamedType("__Type"))},
			{Name: "defaultValue", Type: schema.NamedType("String")},
			{Name: "isDeprecated", Type: schema.NonNullType(schema.NamedType("Boolean"))},
			{Name: "deprecationReason", Type: schema.NamedType("String")},
		},
	}
}

// enumValueType returns the __EnumValue introspection type definition
func enumValueType() *schema.Type {
	return &schema.Type{
		Name: "__EnumValue",
		Kind: schema.TypeKindObject,
		Fields: []*schema.Field{
			{Name: "name", Type: schema.NonNullType(schema.NamedType("String"))},
			{Name: "description", Type: schema.NamedType("String")},
			{Name: "isDeprecated", Type: schema.NonNullType(schema.NamedType("Boolean"))},
			{Name: "deprecationReason", Type: schema.NamedType("String")},
		},
	}
}

// directiveType returns the __Directive introspection type definition
func directiveType() *schema.Type {
	return &schema.Type{
		Name: "__Directive",
		Kind: schema.TypeKindObject,
		Fields: []*schema.Field{
			{Name: "name", Type: schema.NonNullType(schema.NamedType("String"))},
			{Name: "description", Type: schema.NamedType("String")},
			{Name: "isRepeatable", Type: schema.NonNullType(schema.NamedType("Boolean"))},
			{Name: "locations", Type: schema.NonNullType(schema.ListType(schema.NonNullType(schema.NamedType("__DirectiveLocation"))))},
			{
				Name:      "args",
				Arguments: includeDeprecatedArg(),
				Type:      schema.NonNullType(schema.ListType(schema.NonNullType(schema.NamedType("__InputValue")))),
			},
		},
	}
}

// typeKindEnum returns the __TypeKind enum type definition
func typeKindEnum() *schema.Type {
	return &schema.Type{
		Name: "__TypeKind",
		Kind: schema.TypeKindEnum,
		EnumValues: enumValues(
			"SCALAR",
			"OBJECT",
			"INTERFACE",
			"UNION",
			"ENUM",
			"INPUT_OBJECT",
			"LIST",
			"NON_NULL",
		),
	}
}

// directiveLocationEnum returns the __DirectiveLocation enum type definition
func directiveLocationEnum() *schema.Type {
	return &schema.Type{
		Name: "__DirectiveLocation",
		Kind: schema.TypeKindEnum,
		EnumValues: enumValues(
			"QUERY",
			"MUTATION",
			"SUBSCRIPTION",
			"FIELD",
			"FRAGMENT_DEFINITION",
			"FRAGMENT_SPREAD",
			"INLINE_FRAGMENT",
			"VARIABLE_DEFINITION",
			"SCHEMA",
			"SCALAR",
			"OBJECT",
			"FIELD_DEFINITION",
			"ARGUMENT_DEFINITION",
			"INTERFACE",
			"UNION",
			"ENUM",
			"ENUM_VALUE",
			"INPUT_OBJECT",
			"INPUT_FIELD_DEFINITION",
		),
	}
}
