package schema

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
)

// Implementations are bound into a schema by Bake. Resolvers, subscribers
// and field type resolvers are keyed by "Type.field", everything else by
// name.
type Implementations struct {
	Resolvers          map[string]Resolver
	Subscribers        map[string]Subscriber
	TypeResolvers      map[string]TypeResolver
	FieldTypeResolvers map[string]TypeResolver
	Scalars            map[string]Scalar
	Directives         map[string]any
}

// Bake binds impl into the schema, computes default values and builds the
// directive instances of every schema element. Unknown names and missing
// scalar or directive implementations are reported together.
func (s *Schema) Bake(impl Implementations) error {
	if s.baked {
		return errors.New("schema is already baked")
	}
	var errs []error

	for name, sc := range impl.Scalars {
		t := s.FindType(name)
		if t == nil || t.Kind != TypeKindScalar {
			errs = append(errs, fmt.Errorf("scalar implementation %q does not match a scalar type", name))
			continue
		}
		t.Scalar = sc
	}
	for name, d := range impl.Directives {
		def := s.FindDirective(name)
		if def == nil {
			errs = append(errs, fmt.Errorf("directive implementation %q does not match a directive definition", name))
			continue
		}
		def.Impl = d
	}
	for coord, r := range impl.Resolvers {
		f, err := s.lookupCoordinates(coord)
		if err != nil {
			errs = append(errs, fmt.Errorf("resolver: %w", err))
			continue
		}
		f.Resolver = r
	}
	for coord, sub := range impl.Subscribers {
		f, err := s.lookupCoordinates(coord)
		if err != nil {
			errs = append(errs, fmt.Errorf("subscriber: %w", err))
			continue
		}
		f.Subscriber = sub
	}
	for name, tr := range impl.TypeResolvers {
		t := s.FindType(name)
		if t == nil || !t.IsAbstract() {
			errs = append(errs, fmt.Errorf("type resolver %q does not match an interface or union", name))
			continue
		}
		t.ResolveType = tr
	}
	for coord, tr := range impl.FieldTypeResolvers {
		f, err := s.lookupCoordinates(coord)
		if err != nil {
			errs = append(errs, fmt.Errorf("field type resolver: %w", err))
			continue
		}
		if t := s.FindType(f.Type.GetNamedType()); t == nil || !t.IsAbstract() {
			errs = append(errs, fmt.Errorf("field type resolver %q: field does not return an interface or union", coord))
			continue
		}
		f.ResolveType = tr
	}

	for _, name := range sortedKeys(s.Types) {
		if t := s.Types[name]; t.Kind == TypeKindScalar && t.Scalar == nil {
			errs = append(errs, fmt.Errorf("missing implementation for scalar < %s >", name))
		}
	}
	for _, name := range sortedKeys(s.Directives) {
		if s.Directives[name].Impl == nil {
			errs = append(errs, fmt.Errorf("missing implementation for directive < @%s >", name))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	errs = append(errs, s.bakeDefaults()...)
	errs = append(errs, s.bakeInstances()...)
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	s.baked = true
	return nil
}

func (s *Schema) lookupCoordinates(coord string) (*Field, error) {
	typeName, fieldName, ok := strings.Cut(coord, ".")
	if !ok {
		return nil, fmt.Errorf("%q is not of the form Type.field", coord)
	}
	t := s.FindType(typeName)
	if t == nil {
		return nil, fmt.Errorf("unknown type %q in %q", typeName, coord)
	}
	f := t.Field(fieldName)
	if f == nil {
		return nil, fmt.Errorf("unknown field %q in %q", fieldName, coord)
	}
	return f, nil
}

func (s *Schema) eachInputValue(fn func(where string, in *InputValue)) {
	for _, name := range sortedKeys(s.Directives) {
		for _, a := range s.Directives[name].Arguments {
			fn("@"+name+"("+a.Name+":)", a)
		}
	}
	for _, name := range sortedKeys(s.Types) {
		t := s.Types[name]
		for _, f := range t.Fields {
			for _, a := range f.Arguments {
				fn(name+"."+f.Name+"("+a.Name+":)", a)
			}
		}
		for _, f := range t.InputFields {
			fn(name+"."+f.Name, f)
		}
	}
}

func (s *Schema) bakeDefaults() []error {
	var errs []error
	s.eachInputValue(func(where string, in *InputValue) {
		if _, err := s.defaultOf(in, nil); err != nil {
			errs = append(errs, fmt.Errorf("invalid default value for %s: %w", where, err))
		}
	})
	return errs
}

// defaultOf computes the native default of in from its literal. Defaults of
// nested input fields are computed on demand; seen guards against input
// types whose defaults refer to each other.
func (s *Schema) defaultOf(in *InputValue, seen map[*InputValue]bool) (any, error) {
	if !in.HasDefault || in.DefaultLiteral == nil || in.defaultReady {
		return in.DefaultValue, nil
	}
	if seen[in] {
		return nil, fmt.Errorf("default value of %q refers to itself", in.Name)
	}
	if seen == nil {
		seen = map[*InputValue]bool{}
	}
	seen[in] = true
	v, err := s.valueFromLiteral(in.Type, in.DefaultLiteral, seen)
	if err != nil {
		return nil, err
	}
	in.DefaultValue = v
	in.defaultReady = true
	return v, nil
}

// valueFromLiteral converts an SDL literal to its native value using the
// bound scalars. Directives are not applied.
func (s *Schema) valueFromLiteral(ref *TypeRef, v *ast.Value, seen map[*InputValue]bool) (any, error) {
	if v.Kind == ast.Variable {
		return nil, fmt.Errorf("variable $%s is not allowed here", v.Raw)
	}
	if ref.Kind == TypeRefKindNonNull {
		if v.Kind == ast.NullValue {
			return nil, fmt.Errorf("null is not a valid %s", ref)
		}
		return s.valueFromLiteral(ref.OfType, v, seen)
	}
	if v.Kind == ast.NullValue {
		return nil, nil
	}
	if ref.Kind == TypeRefKindList {
		if v.Kind != ast.ListValue {
			item, err := s.valueFromLiteral(ref.OfType, v, seen)
			if err != nil {
				return nil, err
			}
			return []any{item}, nil
		}
		out := make([]any, 0, len(v.Children))
		for _, c := range v.Children {
			item, err := s.valueFromLiteral(ref.OfType, c.Value, seen)
			if err != nil {
				return nil, err
			}
			out = append(out, item)
		}
		return out, nil
	}

	t := s.FindType(ref.Named)
	switch t.Kind {
	case TypeKindScalar:
		return t.Scalar.ParseLiteral(context.Background(), v)
	case TypeKindEnum:
		if v.Kind != ast.EnumValue {
			return nil, fmt.Errorf("%s is not a valid %s", v, t.Name)
		}
		ev := t.EnumValue(v.Raw)
		if ev == nil {
			return nil, fmt.Errorf("%s is not a value of %s", v.Raw, t.Name)
		}
		return ev.Value, nil
	case TypeKindInputObject:
		if v.Kind != ast.ObjectValue {
			return nil, fmt.Errorf("%s is not an object", v)
		}
		out := map[string]any{}
		for _, c := range v.Children {
			if t.InputField(c.Name) == nil {
				return nil, fmt.Errorf("field %q is not defined by type %s", c.Name, t.Name)
			}
		}
		for _, f := range t.InputFields {
			if c := v.Children.ForName(f.Name); c != nil {
				fv, err := s.valueFromLiteral(f.Type, c, seen)
				if err != nil {
					return nil, err
				}
				out[f.Name] = fv
				continue
			}
			if f.HasDefault {
				dv, err := s.defaultOf(f, seen)
				if err != nil {
					return nil, err
				}
				out[f.Name] = dv
				continue
			}
			if f.Type.IsNonNull() {
				return nil, fmt.Errorf("field %s.%s of required type %s was not provided", t.Name, f.Name, f.Type)
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("%s is not an input type", t.Name)
}

func (s *Schema) bakeInstances() []error {
	var errs []error
	build := func(where string, uses []*DirectiveUse) []*Instance {
		out, err := s.Instances(uses)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", where, err))
		}
		return out
	}
	s.eachInputValue(func(where string, in *InputValue) {
		in.Instances = build(where, in.Directives)
	})
	for _, name := range sortedKeys(s.Types) {
		t := s.Types[name]
		t.Instances = build(name, t.Directives)
		for _, f := range t.Fields {
			f.Instances = build(name+"."+f.Name, f.Directives)
		}
		for _, v := range t.EnumValues {
			v.Instances = build(name+"."+v.Name, v.Directives)
		}
	}
	return errs
}

// Instances turns SDL directive uses into chainable instances. Arguments are
// the literal values of the use merged over the definition defaults.
func (s *Schema) Instances(uses []*DirectiveUse) ([]*Instance, error) {
	if len(uses) == 0 {
		return nil, nil
	}
	var errs []error
	out := make([]*Instance, 0, len(uses))
	for _, use := range uses {
		def := s.FindDirective(use.Name)
		if def == nil {
			errs = append(errs, fmt.Errorf("unknown directive @%s", use.Name))
			continue
		}
		args := map[string]any{}
		for _, a := range def.Arguments {
			if lit, ok := use.Args[a.Name]; ok {
				v, err := s.valueFromLiteral(a.Type, lit, nil)
				if err != nil {
					errs = append(errs, fmt.Errorf("@%s(%s:): %w", use.Name, a.Name, err))
					continue
				}
				args[a.Name] = v
				continue
			}
			if a.HasDefault {
				v, err := s.defaultOf(a, nil)
				if err != nil {
					errs = append(errs, err)
					continue
				}
				args[a.Name] = v
				continue
			}
			if a.Type.IsNonNull() {
				errs = append(errs, fmt.Errorf("@%s(%s:) of required type %s was not provided", use.Name, a.Name, a.Type))
			}
		}
		out = append(out, &Instance{Name: def.Name, Impl: def.Impl, Args: StaticArgs(args)})
	}
	return out, errors.Join(errs...)
}
