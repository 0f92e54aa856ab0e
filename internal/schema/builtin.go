package schema

// BuiltinSDL declares the scalars and directives every schema carries. Their
// implementations are provided by the scalars and directives packages.
const BuiltinSDL = `
"""The ` + "`String`" + ` scalar type represents textual data, represented as UTF-8 character sequences."""
scalar String

"""The ` + "`Int`" + ` scalar type represents non-fractional signed whole numeric values."""
scalar Int

"""The ` + "`Float`" + ` scalar type represents signed double-precision fractional values."""
scalar Float

"""The ` + "`Boolean`" + ` scalar type represents ` + "`true` or `false`" + `."""
scalar Boolean

"""The ` + "`ID`" + ` scalar type represents a unique identifier, often used to refetch an object or as a key for caching."""
scalar ID

"""A calendar date formatted as YYYY-MM-DD."""
scalar Date

"""A date and time formatted as YYYY-MM-DDTHH:MM:SS."""
scalar DateTime

"""A time of day formatted as HH:MM:SS."""
scalar Time

"""Directs the executor to skip this field or fragment when the ` + "`if`" + ` argument is true."""
directive @skip(if: Boolean!) on FIELD | FRAGMENT_SPREAD | INLINE_FRAGMENT

"""Directs the executor to include this field or fragment only when the ` + "`if`" + ` argument is true."""
directive @include(if: Boolean!) on FIELD | FRAGMENT_SPREAD | INLINE_FRAGMENT

"""Marks an element of a GraphQL schema as no longer supported."""
directive @deprecated(reason: String = "Deprecated") on FIELD_DEFINITION | ENUM_VALUE | ARGUMENT_DEFINITION | INPUT_FIELD_DEFINITION

"""Hides an element of a GraphQL schema from introspection."""
directive @nonIntrospectable on FIELD_DEFINITION

directive @non_introspectable on FIELD_DEFINITION
`

var builtinNames = map[string]bool{
	"String": true, "Int": true, "Float": true, "Boolean": true, "ID": true,
	"Date": true, "DateTime": true, "Time": true,
	"skip": true, "include": true, "deprecated": true,
	"nonIntrospectable": true, "non_introspectable": true,
}

// IsBuiltin reports whether name is a type or directive declared by
// BuiltinSDL.
func IsBuiltin(name string) bool {
	return builtinNames[name]
}
