package executor

import (
	"context"
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"github.com/alexchamberlain/tartiflette/internal/gqlerrors"
	language "github.com/alexchamberlain/tartiflette/internal/language"
	schema "github.com/alexchamberlain/tartiflette/internal/schema"
)

// completeValueCatchingError completes result, or takes resolveErr as the
// outcome of the field. Errors of nullable positions are recorded and null
// is returned; errors of non-null positions are returned located so the
// parent is nulled instead.
func (ec *executionContext) completeValueCatchingError(ctx context.Context, returnType *schema.TypeRef, fields []*language.Field, info *schema.ResolveInfo, path *gqlerrors.Path, result any, resolveErr error) (any, error) {
	err := resolveErr
	var completed any
	if err == nil {
		completed, err = ec.safeCompleteValue(ctx, returnType, fields, info, path, result)
	}
	if err == nil {
		return completed, nil
	}
	located := gqlerrors.Located(err, path, positions(fields)...)
	if returnType.IsNonNull() {
		return nil, gqlerrors.List(located)
	}
	ec.errors.add(located...)
	return nil, nil
}

// safeCompleteValue runs completeValue, turning a panicking hook, scalar or
// type resolver into an error of the field.
func (ec *executionContext) safeCompleteValue(ctx context.Context, returnType *schema.TypeRef, fields []*language.Field, info *schema.ResolveInfo, path *gqlerrors.Path, result any) (completed any, err error) {
	defer ec.recoverError(&err, "completion panicked", zap.String("path", path.String()))
	return ec.completeValue(ctx, returnType, fields, info, path, result)
}

// completeValue completes a value
func (ec *executionContext) completeValue(ctx context.Context, returnType *schema.TypeRef, fields []*language.Field, info *schema.ResolveInfo, path *gqlerrors.Path, result any) (any, error) {
	if returnType.IsNonNull() {
		completed, err := ec.completeValue(ctx, returnType.OfType, fields, info, path, result)
		if err != nil {
			return nil, err
		}
		if completed == nil {
			return nil, fmt.Errorf("Cannot return null for non-nullable field %s.%s.", info.ParentType.Name, info.FieldName)
		}
		return completed, nil
	}

	if isNullish(result) {
		return nil, nil
	}

	if returnType.Kind == schema.TypeRefKindList {
		return ec.completeListValue(ctx, returnType, fields, info, path, result)
	}

	namedType := ec.schema.FindType(returnType.Named)
	if namedType == nil {
		return nil, fmt.Errorf("Unknown type %s.", returnType.Named)
	}
	complete := func(ctx context.Context, value any) (any, error) {
		if isNullish(value) {
			return nil, nil
		}
		switch namedType.Kind {
		case schema.TypeKindScalar, schema.TypeKindEnum:
			return completeLeafValue(ctx, namedType, value)
		case schema.TypeKindInterface, schema.TypeKindUnion:
			return ec.completeAbstractValue(ctx, namedType, fields, info, path, value)
		case schema.TypeKindObject:
			return ec.completeObjectValue(ctx, namedType, fields, path, value)
		}
		return nil, fmt.Errorf("Cannot complete value of unexpected output type: %s.", namedType.Name)
	}
	if len(namedType.Instances) > 0 {
		complete = schema.WrapPreOutputCoercion(namedType.Instances, info, complete)
	}
	return complete(ctx, result)
}

// completeListValue completes every item at its own index. Items are
// completed one after the other.
func (ec *executionContext) completeListValue(ctx context.Context, listType *schema.TypeRef, fields []*language.Field, info *schema.ResolveInfo, path *gqlerrors.Path, result any) (any, error) {
	items, ok := asList(result)
	if !ok {
		return nil, fmt.Errorf("Expected Iterable, but did not find one for field %s.%s.", info.ParentType.Name, info.FieldName)
	}

	itemType := listType.OfType
	completed := make([]any, len(items))
	for i, item := range items {
		v, err := ec.completeValueCatchingError(ctx, itemType, fields, info, path.With(i), item, nil)
		if err != nil {
			return nil, err
		}
		completed[i] = v
	}
	return completed, nil
}

func completeLeafValue(ctx context.Context, leafType *schema.Type, result any) (any, error) {
	if leafType.Kind == schema.TypeKindEnum {
		if ev := enumValueOf(leafType, result); ev != nil {
			return ev.Name, nil
		}
		return nil, fmt.Errorf("Expected value of type %s but received %T.", leafType.Name, result)
	}
	serialized, err := leafType.Scalar.CoerceOutput(ctx, result)
	if err != nil {
		return nil, &gqlerrors.Error{
			Message: fmt.Sprintf("Expected value of type %s but received %T.", leafType.Name, result),
			Err:     err,
		}
	}
	return serialized, nil
}

// enumValueOf finds the enum value whose internal value, or else whose name,
// equals result.
func enumValueOf(enumType *schema.Type, result any) *schema.EnumValue {
	canCompare := reflect.TypeOf(result).Comparable()
	for _, ev := range enumType.EnumValues {
		if canCompare && reflect.TypeOf(ev.Value) == reflect.TypeOf(result) && ev.Value == result {
			return ev
		}
	}
	if name, ok := result.(string); ok {
		return enumType.EnumValue(name)
	}
	if s, ok := result.(fmt.Stringer); ok {
		return enumType.EnumValue(s.String())
	}
	return nil
}

func (ec *executionContext) completeObjectValue(ctx context.Context, objectType *schema.Type, fields []*language.Field, path *gqlerrors.Path, result any) (any, error) {
	subfields := ec.collectSubfields(ctx, objectType, fields)
	data, err := ec.executeFields(ctx, objectType, result, path, subfields)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// completeAbstractValue completes result as the object type picked by the
// field's type resolver, else the abstract type's, else the default one.
func (ec *executionContext) completeAbstractValue(ctx context.Context, abstractType *schema.Type, fields []*language.Field, info *schema.ResolveInfo, path *gqlerrors.Path, result any) (any, error) {
	var resolveType schema.TypeResolver
	if fieldDef := info.ParentType.Field(info.FieldName); fieldDef != nil {
		resolveType = fieldDef.ResolveType
	}
	if resolveType == nil {
		resolveType = abstractType.ResolveType
	}
	if resolveType == nil {
		resolveType = ec.typeResolver
	}
	typeName, err := resolveType(ctx, result, info, abstractType)
	if err != nil {
		return nil, err
	}
	objectType, err := ec.ensureValidRuntimeType(typeName, abstractType, fields, info, result)
	if err != nil {
		return nil, err
	}
	return ec.completeObjectValue(ctx, objectType, fields, path, result)
}

func (ec *executionContext) ensureValidRuntimeType(typeName string, abstractType *schema.Type, fields []*language.Field, info *schema.ResolveInfo, result any) (*schema.Type, error) {
	runtimeType := ec.schema.FindType(typeName)
	if runtimeType == nil || runtimeType.Kind != schema.TypeKindObject {
		return nil, gqlerrors.New(fmt.Sprintf(
			"Abstract type %s must resolve to an Object type at runtime for field %s.%s with value %T, received %q."+
				"Either the %s type should provide a \"resolveType\" function or each possible type should provide an \"isTypeOf\" function.",
			abstractType.Name, info.ParentType.Name, info.FieldName, result, typeName, abstractType.Name),
			positions(fields)...)
	}
	if !ec.schema.IsPossibleType(abstractType, runtimeType) {
		return nil, gqlerrors.New(fmt.Sprintf(
			"Runtime Object type < %s > is not a possible type for < %s >.", runtimeType.Name, abstractType.Name),
			positions(fields)...)
	}
	return runtimeType, nil
}

func positions(fields []*language.Field) []*language.Position {
	out := make([]*language.Position, 0, len(fields))
	for _, f := range fields {
		out = append(out, f.Position)
	}
	return out
}

// isNullish returns true for nil interfaces and typed nils (map, slice, ptr, interface)
func isNullish(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Interface, reflect.Ptr, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
