package schema

import (
	"errors"
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/alexchamberlain/tartiflette/internal/language"
)

const defaultDeprecationReason = "Deprecated"

func NewSchema(description string) *Schema {
	return &Schema{
		Types:       map[string]*Type{},
		Directives:  map[string]*Directive{},
		Description: description,
	}
}

// BuildFromSDL parses the SDL sources and builds the type graph. Type
// extensions are merged into their base definitions. Root operation types
// default to Query, Mutation and Subscription unless a schema definition
// names them.
func BuildFromSDL(sources ...*language.Source) (*Schema, error) {
	doc, err := language.ParseSchemas(sources...)
	if err != nil {
		return nil, err
	}
	return BuildFromDocument(doc)
}

// BuildFromDocument builds the type graph from an already parsed document.
func BuildFromDocument(doc *language.SchemaDocument) (*Schema, error) {
	s := NewSchema("")
	var errs []error

	for _, def := range doc.Definitions {
		if _, ok := s.Types[def.Name]; ok {
			errs = append(errs, fmt.Errorf("type %q is defined more than once", def.Name))
			continue
		}
		s.Types[def.Name] = buildType(def)
	}
	for _, ext := range doc.Extensions {
		t, ok := s.Types[ext.Name]
		if !ok {
			errs = append(errs, fmt.Errorf("cannot extend type %q because it does not exist", ext.Name))
			continue
		}
		if t.Kind != kindOf(ext.Kind) {
			errs = append(errs, fmt.Errorf("cannot extend %s %q with a %s extension", t.Kind, ext.Name, kindOf(ext.Kind)))
			continue
		}
		extendType(t, ext)
	}
	for _, def := range doc.Directives {
		if _, ok := s.Directives[def.Name]; ok {
			errs = append(errs, fmt.Errorf("directive @%s is defined more than once", def.Name))
			continue
		}
		s.Directives[def.Name] = buildDirective(def)
	}

	for _, name := range []string{"Query", "Mutation", "Subscription"} {
		if _, ok := s.Types[name]; !ok {
			continue
		}
		switch name {
		case "Query":
			s.QueryType = name
		case "Mutation":
			s.MutationType = name
		case "Subscription":
			s.SubscriptionType = name
		}
	}
	schemaDefs := append(append(ast.SchemaDefinitionList{}, doc.Schema...), doc.SchemaExtension...)
	for _, def := range schemaDefs {
		if def.Description != "" {
			s.Description = def.Description
		}
		for _, op := range def.OperationTypes {
			switch op.Operation {
			case ast.Query:
				s.QueryType = op.Type
			case ast.Mutation:
				s.MutationType = op.Type
			case ast.Subscription:
				s.SubscriptionType = op.Type
			}
		}
	}

	// Interfaces learn their implementations in definition order.
	for _, def := range doc.Definitions {
		t := s.Types[def.Name]
		if t == nil || t.Kind != TypeKindObject {
			continue
		}
		for _, name := range t.Interfaces {
			iface, ok := s.Types[name]
			if !ok || iface.Kind != TypeKindInterface {
				errs = append(errs, fmt.Errorf("type %q implements unknown interface %q", t.Name, name))
				continue
			}
			iface.PossibleTypes = append(iface.PossibleTypes, t.Name)
		}
	}

	errs = append(errs, s.checkReferences()...)
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	s.index()
	return s, nil
}

func kindOf(k ast.DefinitionKind) TypeKind {
	switch k {
	case ast.Scalar:
		return TypeKindScalar
	case ast.Object:
		return TypeKindObject
	case ast.Interface:
		return TypeKindInterface
	case ast.Union:
		return TypeKindUnion
	case ast.Enum:
		return TypeKindEnum
	case ast.InputObject:
		return TypeKindInputObject
	}
	return TypeKind(k)
}

func buildType(def *ast.Definition) *Type {
	t := &Type{
		Name:        def.Name,
		Kind:        kindOf(def.Kind),
		Description: def.Description,
	}
	extendType(t, def)
	return t
}

func extendType(t *Type, def *ast.Definition) {
	t.Directives = append(t.Directives, buildDirectiveUses(def.Directives)...)
	t.Interfaces = append(t.Interfaces, def.Interfaces...)
	t.PossibleTypes = append(t.PossibleTypes, def.Types...)
	for _, f := range def.Fields {
		if t.Kind == TypeKindInputObject {
			t.InputFields = append(t.InputFields, buildInputValue(f.Name, f.Description, f.Type, f.DefaultValue, f.Directives))
			continue
		}
		t.Fields = append(t.Fields, buildField(f))
	}
	for _, v := range def.EnumValues {
		t.EnumValues = append(t.EnumValues, buildEnumValue(v))
	}
}

func buildField(def *ast.FieldDefinition) *Field {
	f := &Field{
		Name:        def.Name,
		Description: def.Description,
		Type:        TypeRefFromAST(def.Type),
		Directives:  buildDirectiveUses(def.Directives),
	}
	f.IsDeprecated, f.DeprecationReason = deprecation(def.Directives)
	for _, arg := range def.Arguments {
		f.Arguments = append(f.Arguments, buildInputValue(arg.Name, arg.Description, arg.Type, arg.DefaultValue, arg.Directives))
	}
	return f
}

func buildInputValue(name, description string, typ *ast.Type, defaultValue *ast.Value, directives ast.DirectiveList) *InputValue {
	in := &InputValue{
		Name:           name,
		Description:    description,
		Type:           TypeRefFromAST(typ),
		DefaultLiteral: defaultValue,
		HasDefault:     defaultValue != nil,
		Directives:     buildDirectiveUses(directives),
	}
	in.IsDeprecated, in.DeprecationReason = deprecation(directives)
	return in
}

func buildEnumValue(def *ast.EnumValueDefinition) *EnumValue {
	v := &EnumValue{
		Name:        def.Name,
		Description: def.Description,
		Value:       def.Name,
		Directives:  buildDirectiveUses(def.Directives),
	}
	v.IsDeprecated, v.DeprecationReason = deprecation(def.Directives)
	return v
}

func buildDirective(def *ast.DirectiveDefinition) *Directive {
	d := &Directive{
		Name:         def.Name,
		Description:  def.Description,
		IsRepeatable: def.IsRepeatable,
	}
	for _, loc := range def.Locations {
		d.Locations = append(d.Locations, string(loc))
	}
	for _, arg := range def.Arguments {
		d.Arguments = append(d.Arguments, buildInputValue(arg.Name, arg.Description, arg.Type, arg.DefaultValue, arg.Directives))
	}
	return d
}

func buildDirectiveUses(list ast.DirectiveList) []*DirectiveUse {
	if len(list) == 0 {
		return nil
	}
	uses := make([]*DirectiveUse, 0, len(list))
	for _, d := range list {
		use := &DirectiveUse{Name: d.Name, Position: d.Position}
		if len(d.Arguments) > 0 {
			use.Args = make(map[string]*ast.Value, len(d.Arguments))
			for _, arg := range d.Arguments {
				use.Args[arg.Name] = arg.Value
			}
		}
		uses = append(uses, use)
	}
	return uses
}

func deprecation(list ast.DirectiveList) (bool, string) {
	d := list.ForName("deprecated")
	if d == nil {
		return false, ""
	}
	if arg := d.Arguments.ForName("reason"); arg != nil && arg.Value != nil && arg.Value.Kind == ast.StringValue {
		return true, arg.Value.Raw
	}
	return true, defaultDeprecationReason
}

func (s *Schema) checkReferences() []error {
	var errs []error
	check := func(where string, ref *TypeRef) {
		if name := ref.GetNamedType(); s.Types[name] == nil {
			errs = append(errs, fmt.Errorf("%s refers to unknown type %q", where, name))
		}
	}
	for _, t := range s.Types {
		for _, f := range t.Fields {
			check(t.Name+"."+f.Name, f.Type)
			for _, a := range f.Arguments {
				check(t.Name+"."+f.Name+"("+a.Name+":)", a.Type)
			}
		}
		for _, f := range t.InputFields {
			check(t.Name+"."+f.Name, f.Type)
		}
		if t.Kind == TypeKindUnion {
			for _, name := range t.PossibleTypes {
				if m := s.Types[name]; m == nil || m.Kind != TypeKindObject {
					errs = append(errs, fmt.Errorf("union %q member %q is not an object type", t.Name, name))
				}
			}
		}
	}
	for _, d := range s.Directives {
		for _, a := range d.Arguments {
			check("@"+d.Name+"("+a.Name+":)", a.Type)
		}
	}
	for _, root := range []string{s.QueryType, s.MutationType, s.SubscriptionType} {
		if root == "" {
			continue
		}
		if t := s.Types[root]; t == nil || t.Kind != TypeKindObject {
			errs = append(errs, fmt.Errorf("root operation type %q is not an object type", root))
		}
	}
	return errs
}

func (s *Schema) index() {
	for _, t := range s.Types {
		if len(t.Fields) > 0 {
			t.fieldIndex = make(map[string]*Field, len(t.Fields))
			for _, f := range t.Fields {
				t.fieldIndex[f.Name] = f
			}
		}
		if len(t.InputFields) > 0 {
			t.inputFieldIndex = make(map[string]*InputValue, len(t.InputFields))
			for _, f := range t.InputFields {
				t.inputFieldIndex[f.Name] = f
			}
		}
		if len(t.EnumValues) > 0 {
			t.enumIndex = make(map[string]*EnumValue, len(t.EnumValues))
			for _, v := range t.EnumValues {
				t.enumIndex[v.Name] = v
			}
		}
	}
}
