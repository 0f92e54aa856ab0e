package introspection

import (
	"context"
	"fmt"
	"sort"
	"strings"

	schema "github.com/alexchamberlain/tartiflette/internal/schema"
)

// Resolvers returns the resolvers of the introspection types and of the
// __schema and __type root fields, keyed by "Type.field". s must have been
// extended with Extend.
func Resolvers(s *schema.Schema) map[string]schema.Resolver {
	r := &resolver{schema: s}
	out := map[string]schema.Resolver{}
	bind := func(typeName string, fn schema.Resolver) {
		t := s.FindType(typeName)
		if t == nil {
			return
		}
		for _, f := range t.Fields {
			out[typeName+"."+f.Name] = fn
		}
	}
	bind("__Schema", r.resolveSchemaField)
	bind("__Type", r.resolveTypeField)
	bind("__Field", r.resolveFieldField)
	bind("__InputValue", r.resolveInputValueField)
	bind("__EnumValue", r.resolveEnumValueField)
	bind("__Directive", r.resolveDirectiveField)

	if q := s.GetQueryType(); q != nil {
		out[q.Name+".__schema"] = func(context.Context, any, map[string]any, *schema.ResolveInfo) (any, error) {
			return s, nil
		}
		out[q.Name+".__type"] = r.resolveTypeQuery
	}
	return out
}

type resolver struct {
	schema *schema.Schema
}

// visible runs element through its on_introspection chain. A nil result
// hides the element.
func visible(ctx context.Context, info *schema.ResolveInfo, instances []*schema.Instance, element any) (any, error) {
	if len(instances) == 0 {
		return element, nil
	}
	next := schema.WrapIntrospection(instances, info, func(_ context.Context, element any) (any, error) {
		return element, nil
	})
	return next(ctx, element)
}

func (r *resolver) resolveTypeQuery(ctx context.Context, _ any, args map[string]any, info *schema.ResolveInfo) (any, error) {
	name, _ := args["name"].(string)
	t := r.schema.FindType(name)
	if t == nil {
		return nil, nil
	}
	return visible(ctx, info, t.Instances, t)
}

func (r *resolver) resolveSchemaField(ctx context.Context, parent any, _ map[string]any, info *schema.ResolveInfo) (any, error) {
	sch, ok := parent.(*schema.Schema)
	if !ok {
		return nil, nil
	}
	switch info.FieldName {
	case "types":
		return r.visibleTypes(ctx, info, sortedTypes(sch))
	case "queryType":
		return typeOrNil(sch.GetQueryType()), nil
	case "mutationType":
		return typeOrNil(sch.GetMutationType()), nil
	case "subscriptionType":
		return typeOrNil(sch.GetSubscriptionType()), nil
	case "directives":
		return sortedDirectives(sch), nil
	case "description":
		return optionalString(sch.Description), nil
	}
	return nil, nil
}

func (r *resolver) resolveTypeField(ctx context.Context, parent any, args map[string]any, info *schema.ResolveInfo) (any, error) {
	switch t := parent.(type) {
	case *schema.TypeRef:
		return r.resolveWrapperField(t, info.FieldName), nil
	case *schema.Type:
		return r.resolveNamedTypeField(ctx, t, args, info)
	}
	return nil, nil
}

// resolveWrapperField resolves __Type fields of LIST and NON_NULL types.
func (r *resolver) resolveWrapperField(ref *schema.TypeRef, field string) any {
	switch field {
	case "kind":
		return string(ref.Kind)
	case "ofType":
		return r.typeOf(ref.OfType)
	}
	return nil
}

func (r *resolver) resolveNamedTypeField(ctx context.Context, t *schema.Type, args map[string]any, info *schema.ResolveInfo) (any, error) {
	includeDeprecated := boolArg(args, "includeDeprecated")
	switch info.FieldName {
	case "kind":
		return string(t.Kind), nil
	case "name":
		return t.Name, nil
	case "description":
		return optionalString(t.Description), nil
	case "fields":
		if t.Kind != schema.TypeKindObject && t.Kind != schema.TypeKindInterface {
			return nil, nil
		}
		out := []any{}
		for _, f := range t.Fields {
			if strings.HasPrefix(f.Name, "__") {
				continue
			}
			v, err := visible(ctx, info, f.Instances, f)
			if err != nil {
				return nil, err
			}
			if shown, ok := v.(*schema.Field); ok && (includeDeprecated || !shown.IsDeprecated) {
				out = append(out, shown)
			}
		}
		return out, nil
	case "interfaces":
		if t.Kind != schema.TypeKindObject && t.Kind != schema.TypeKindInterface {
			return nil, nil
		}
		return r.visibleTypes(ctx, info, r.namedTypes(t.Interfaces))
	case "possibleTypes":
		if !t.IsAbstract() {
			return nil, nil
		}
		return r.visibleTypes(ctx, info, r.namedTypes(t.PossibleTypes))
	case "enumValues":
		if t.Kind != schema.TypeKindEnum {
			return nil, nil
		}
		out := []any{}
		for _, ev := range t.EnumValues {
			v, err := visible(ctx, info, ev.Instances, ev)
			if err != nil {
				return nil, err
			}
			if shown, ok := v.(*schema.EnumValue); ok && (includeDeprecated || !shown.IsDeprecated) {
				out = append(out, shown)
			}
		}
		return out, nil
	case "inputFields":
		if t.Kind != schema.TypeKindInputObject {
			return nil, nil
		}
		return visibleInputValues(ctx, info, t.InputFields, includeDeprecated)
	}
	return nil, nil
}

func (r *resolver) resolveFieldField(ctx context.Context, parent any, args map[string]any, info *schema.ResolveInfo) (any, error) {
	f, ok := parent.(*schema.Field)
	if !ok {
		return nil, nil
	}
	switch info.FieldName {
	case "name":
		return f.Name, nil
	case "description":
		return optionalString(f.Description), nil
	case "args":
		return visibleInputValues(ctx, info, f.Arguments, boolArg(args, "includeDeprecated"))
	case "type":
		return r.typeOf(f.Type), nil
	case "isDeprecated":
		return f.IsDeprecated, nil
	case "deprecationReason":
		return deprecationReason(f.IsDeprecated, f.DeprecationReason), nil
	}
	return nil, nil
}

func (r *resolver) resolveInputValueField(_ context.Context, parent any, _ map[string]any, info *schema.ResolveInfo) (any, error) {
	a, ok := parent.(*schema.InputValue)
	if !ok {
		return nil, nil
	}
	switch info.FieldName {
	case "name":
		return a.Name, nil
	case "description":
		return optionalString(a.Description), nil
	case "type":
		return r.typeOf(a.Type), nil
	case "defaultValue":
		return defaultValue(a), nil
	case "isDeprecated":
		return a.IsDeprecated, nil
	case "deprecationReason":
		return deprecationReason(a.IsDeprecated, a.DeprecationReason), nil
	}
	return nil, nil
}

func (r *resolver) resolveEnumValueField(_ context.Context, parent any, _ map[string]any, info *schema.ResolveInfo) (any, error) {
	ev, ok := parent.(*schema.EnumValue)
	if !ok {
		return nil, nil
	}
	switch info.FieldName {
	case "name":
		return ev.Name, nil
	case "description":
		return optionalString(ev.Description), nil
	case "isDeprecated":
		return ev.IsDeprecated, nil
	case "deprecationReason":
		return deprecationReason(ev.IsDeprecated, ev.DeprecationReason), nil
	}
	return nil, nil
}

func (r *resolver) resolveDirectiveField(ctx context.Context, parent any, args map[string]any, info *schema.ResolveInfo) (any, error) {
	d, ok := parent.(*schema.Directive)
	if !ok {
		return nil, nil
	}
	switch info.FieldName {
	case "name":
		return d.Name, nil
	case "description":
		return optionalString(d.Description), nil
	case "isRepeatable":
		return d.IsRepeatable, nil
	case "locations":
		return append([]string(nil), d.Locations...), nil
	case "args":
		return visibleInputValues(ctx, info, d.Arguments, boolArg(args, "includeDeprecated"))
	}
	return nil, nil
}

// --- helpers ---

// typeOf returns the __Type value of ref: the named type itself, or the
// wrapper for lists and non-null types.
func (r *resolver) typeOf(ref *schema.TypeRef) any {
	if ref == nil {
		return nil
	}
	if ref.Kind == schema.TypeRefKindNamed {
		return typeOrNil(r.schema.FindType(ref.Named))
	}
	return ref
}

func (r *resolver) namedTypes(names []string) []*schema.Type {
	out := make([]*schema.Type, 0, len(names))
	for _, name := range names {
		if t := r.schema.FindType(name); t != nil {
			out = append(out, t)
		}
	}
	return out
}

func (r *resolver) visibleTypes(ctx context.Context, info *schema.ResolveInfo, types []*schema.Type) ([]any, error) {
	out := make([]any, 0, len(types))
	for _, t := range types {
		v, err := visible(ctx, info, t.Instances, t)
		if err != nil {
			return nil, err
		}
		if v != nil {
			out = append(out, v)
		}
	}
	return out, nil
}

func visibleInputValues(ctx context.Context, info *schema.ResolveInfo, values []*schema.InputValue, includeDeprecated bool) ([]any, error) {
	out := []any{}
	for _, a := range values {
		v, err := visible(ctx, info, a.Instances, a)
		if err != nil {
			return nil, err
		}
		if shown, ok := v.(*schema.InputValue); ok && (includeDeprecated || !shown.IsDeprecated) {
			out = append(out, shown)
		}
	}
	return out, nil
}

func sortedTypes(sch *schema.Schema) []*schema.Type {
	out := make([]*schema.Type, 0, len(sch.Types))
	for _, t := range sch.Types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func sortedDirectives(sch *schema.Schema) []*schema.Directive {
	dirs := make([]*schema.Directive, 0, len(sch.Directives))
	for _, d := range sch.Directives {
		dirs = append(dirs, d)
	}
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].Name < dirs[j].Name })
	return dirs
}

// typeOrNil keeps a nil *schema.Type from becoming a non-nil interface.
func typeOrNil(t *schema.Type) any {
	if t == nil {
		return nil
	}
	return t
}

func optionalString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func deprecationReason(deprecated bool, reason string) any {
	if !deprecated {
		return nil
	}
	return reason
}

// defaultValue prints the default of a as a GraphQL literal.
func defaultValue(a *schema.InputValue) any {
	if !a.HasDefault {
		return nil
	}
	if a.DefaultLiteral != nil {
		return a.DefaultLiteral.String()
	}
	return fmt.Sprintf("%v", a.DefaultValue)
}

func boolArg(args map[string]any, name string) bool {
	b, _ := args[name].(bool)
	return b
}
