package schema

import (
	"github.com/vektah/gqlparser/v2/ast"
)

// Schema is the type graph the executor runs against. It is built once,
// baked with implementations, and read-only afterwards.
type Schema struct {
	QueryType        string
	MutationType     string
	SubscriptionType string
	Types            map[string]*Type // All named types keyed by name
	Directives       map[string]*Directive
	Description      string

	baked bool
}

// GetQueryType returns the root query type (may be nil if absent)
func (s *Schema) GetQueryType() *Type { return s.FindType(s.QueryType) }

// GetMutationType returns the root mutation type (may be nil if absent)
func (s *Schema) GetMutationType() *Type { return s.FindType(s.MutationType) }

// GetSubscriptionType returns the root subscription type (may be nil if absent)
func (s *Schema) GetSubscriptionType() *Type { return s.FindType(s.SubscriptionType) }

func (s *Schema) FindType(name string) *Type {
	if name == "" {
		return nil
	}
	return s.Types[name]
}

func (s *Schema) FindDirective(name string) *Directive {
	return s.Directives[name]
}

// FieldDefinition looks a field up by its "Parent.field" coordinates.
func (s *Schema) FieldDefinition(parent, name string) *Field {
	t := s.FindType(parent)
	if t == nil {
		return nil
	}
	return t.Field(name)
}

// IsPossibleType reports whether object is a member of the abstract type.
func (s *Schema) IsPossibleType(abstract, object *Type) bool {
	if abstract == nil || object == nil {
		return false
	}
	for _, name := range abstract.PossibleTypes {
		if name == object.Name {
			return true
		}
	}
	return false
}

// Baked reports whether implementations have been bound.
func (s *Schema) Baked() bool { return s.baked }

// Type is a named GraphQL type (object, interface, union, scalar, enum, input)
type Type struct {
	Name          string
	Kind          TypeKind
	Description   string
	Fields        []*Field      // For OBJECT and INTERFACE
	Interfaces    []string      // For OBJECT and INTERFACE (implemented/extended)
	PossibleTypes []string      // For INTERFACE and UNION
	EnumValues    []*EnumValue  // For ENUM
	InputFields   []*InputValue // For INPUT_OBJECT
	Directives    []*DirectiveUse

	// Bound at bake.
	Scalar      Scalar       // SCALAR
	ResolveType TypeResolver // INTERFACE and UNION
	Instances   []*Instance

	fieldIndex      map[string]*Field
	inputFieldIndex map[string]*InputValue
	enumIndex       map[string]*EnumValue
}

func (t *Type) Field(name string) *Field {
	if t.fieldIndex != nil {
		return t.fieldIndex[name]
	}
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// AddField appends f to the fields of t. It must be called before the schema
// is baked.
func (t *Type) AddField(f *Field) {
	t.Fields = append(t.Fields, f)
	if t.fieldIndex != nil {
		t.fieldIndex[f.Name] = f
	}
}

func (t *Type) InputField(name string) *InputValue {
	if t.inputFieldIndex != nil {
		return t.inputFieldIndex[name]
	}
	for _, f := range t.InputFields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// EnumValue returns the enum value declared with name.
func (t *Type) EnumValue(name string) *EnumValue {
	if t.enumIndex != nil {
		return t.enumIndex[name]
	}
	for _, v := range t.EnumValues {
		if v.Name == name {
			return v
		}
	}
	return nil
}

func (t *Type) IsAbstract() bool {
	return t.Kind == TypeKindInterface || t.Kind == TypeKindUnion
}

func (t *Type) IsLeaf() bool {
	return t.Kind == TypeKindScalar || t.Kind == TypeKindEnum
}

func (t *Type) IsComposite() bool {
	return t.Kind == TypeKindObject || t.IsAbstract()
}

// Field represents a field on an object or interface
type Field struct {
	Name              string
	Description       string
	Type              *TypeRef
	Arguments         []*InputValue
	Directives        []*DirectiveUse
	IsDeprecated      bool
	DeprecationReason string

	// Bound at bake.
	Resolver   Resolver
	Subscriber Subscriber
	// ResolveType, when set, picks the object type of values returned by a
	// field of abstract type. It takes precedence over the type's own.
	ResolveType TypeResolver
	Instances   []*Instance
}

func (f *Field) Argument(name string) *InputValue {
	for _, a := range f.Arguments {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// TypeKind represents the kind of GraphQL type
type TypeKind string

const (
	TypeKindScalar      TypeKind = "SCALAR"
	TypeKindObject      TypeKind = "OBJECT"
	TypeKindInterface   TypeKind = "INTERFACE"
	TypeKindUnion       TypeKind = "UNION"
	TypeKindEnum        TypeKind = "ENUM"
	TypeKindInputObject TypeKind = "INPUT_OBJECT"
)

// TypeRef represents a reference to a type (can be wrapped)
type TypeRef struct {
	Kind   TypeRefKind
	OfType *TypeRef // For List and NonNull
	Named  string   // For named types
}

type TypeRefKind string

const (
	TypeRefKindNamed   TypeRefKind = "NAMED"
	TypeRefKindList    TypeRefKind = "LIST"
	TypeRefKindNonNull TypeRefKind = "NON_NULL"
)

func (t *TypeRef) IsNonNull() bool {
	return t != nil && t.Kind == TypeRefKindNonNull
}

func (t *TypeRef) IsList() bool {
	if t.Kind == TypeRefKindList {
		return true
	}
	if t.Kind == TypeRefKindNonNull && t.OfType != nil {
		return t.OfType.Kind == TypeRefKindList
	}
	return false
}

func (t *TypeRef) Unwrap() *TypeRef {
	if t.Kind == TypeRefKindNonNull || t.Kind == TypeRefKindList {
		return t.OfType
	}
	return t
}

func (t *TypeRef) GetNamedType() string {
	current := t
	for current != nil {
		if current.Named != "" {
			return current.Named
		}
		current = current.OfType
	}
	return ""
}

// String renders the reference in SDL notation, e.g. "[Int!]!".
func (t *TypeRef) String() string {
	return renderTypeRef(t)
}

// TypeRefFromAST converts a parsed type reference.
func TypeRefFromAST(t *ast.Type) *TypeRef {
	if t == nil {
		return nil
	}
	var ref *TypeRef
	if t.Elem != nil {
		ref = ListType(TypeRefFromAST(t.Elem))
	} else {
		ref = NamedType(t.NamedType)
	}
	if t.NonNull {
		ref = NonNullType(ref)
	}
	return ref
}

type EnumValue struct {
	Name              string
	Description       string
	Value             any // defaults to Name
	Directives        []*DirectiveUse
	IsDeprecated      bool
	DeprecationReason string

	Instances []*Instance
}

// InputValue is an argument or an input object field.
type InputValue struct {
	Name              string
	Description       string
	Type              *TypeRef
	DefaultLiteral    *ast.Value
	DefaultValue      any
	HasDefault        bool
	Directives        []*DirectiveUse
	IsDeprecated      bool
	DeprecationReason string

	Instances []*Instance

	defaultReady bool
}

type Directive struct {
	Name         string
	Description  string
	Locations    []string
	Arguments    []*InputValue
	IsRepeatable bool

	// Impl implements some of the hook interfaces. Bound at bake.
	Impl any
}

// DirectiveUse is a directive applied in SDL with its literal arguments.
type DirectiveUse struct {
	Name     string
	Args     map[string]*ast.Value
	Position *ast.Position
}

func NonNullType(t *TypeRef) *TypeRef { return &TypeRef{Kind: TypeRefKindNonNull, OfType: t} }
func ListType(t *TypeRef) *TypeRef    { return &TypeRef{Kind: TypeRefKindList, OfType: t} }
func NamedType(name string) *TypeRef  { return &TypeRef{Kind: TypeRefKindNamed, Named: name} }

// IsNonNull reports whether the type is wrapped with Non-Null.
func IsNonNull(t *TypeRef) bool { return t != nil && t.IsNonNull() }

// IsList reports whether the type is (or is wrapped by) a list type.
func IsList(t *TypeRef) bool { return t != nil && t.IsList() }

// Unwrap removes one layer of Non-Null or List wrapping and returns the inner type.
func Unwrap(t *TypeRef) *TypeRef { return t.Unwrap() }

// GetNamedType returns the innermost named type for the given reference.
func GetNamedType(t *TypeRef) string { return t.GetNamedType() }
