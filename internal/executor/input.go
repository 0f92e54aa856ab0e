package executor

import (
	"context"
	"fmt"
	"maps"
	"reflect"
	"slices"

	"github.com/alexchamberlain/tartiflette/internal/gqlerrors"
	language "github.com/alexchamberlain/tartiflette/internal/language"
	schema "github.com/alexchamberlain/tartiflette/internal/schema"
)

// coercionResult is the outcome of coercing a runtime value. A result with
// errors carries no value.
type coercionResult struct {
	value any
	errs  []*gqlerrors.Error
}

func coercionFailure(errs ...*gqlerrors.Error) coercionResult {
	return coercionResult{errs: errs}
}

// input coerces a runtime value, typically a variable, to ref. Errors are
// located at pos and name the position inside the value through path.
// Composite values report every invalid member.
func (c *coercer) input(ctx context.Context, ref *schema.TypeRef, value any, pos *language.Position, path *gqlerrors.Path) coercionResult {
	if ref.Kind == schema.TypeRefKindNonNull {
		if isNullish(value) {
			return coercionFailure(gqlerrors.Coercion(
				fmt.Sprintf("Expected non-nullable type < %s > not to be null", ref), pos, path, "", nil))
		}
		return c.input(ctx, ref.OfType, value, pos, path)
	}
	if isNullish(value) {
		return coercionResult{}
	}

	if ref.Kind == schema.TypeRefKindList {
		items, ok := asList(value)
		if !ok {
			r := c.input(ctx, ref.OfType, value, pos, path)
			if len(r.errs) > 0 {
				return r
			}
			return coercionResult{value: []any{r.value}}
		}
		var errs []*gqlerrors.Error
		out := make([]any, 0, len(items))
		for i, item := range items {
			r := c.input(ctx, ref.OfType, item, pos, path.With(i))
			if len(r.errs) > 0 {
				errs = append(errs, r.errs...)
			} else if len(errs) == 0 {
				out = append(out, r.value)
			}
		}
		if len(errs) > 0 {
			return coercionFailure(errs...)
		}
		return coercionResult{value: out}
	}

	t := c.schema.FindType(ref.Named)
	if t == nil {
		return coercionFailure(gqlerrors.Coercion(fmt.Sprintf("Unknown type < %s >", ref.Named), pos, path, "", nil))
	}
	r := c.namedInput(ctx, t, value, pos, path)
	if len(r.errs) > 0 || len(t.Instances) == 0 {
		return r
	}
	return applyInputDirectives(ctx, t.Instances, r.value, pos, path)
}

func (c *coercer) namedInput(ctx context.Context, t *schema.Type, value any, pos *language.Position, path *gqlerrors.Path) coercionResult {
	switch t.Kind {
	case schema.TypeKindScalar:
		v, err := t.Scalar.CoerceInput(ctx, value)
		if err != nil {
			return coercionFailure(gqlerrors.Coercion(
				fmt.Sprintf("Expected type < %s >", t.Name), pos, path, err.Error(), err))
		}
		return coercionResult{value: v}

	case schema.TypeKindEnum:
		name, ok := value.(string)
		var ev *schema.EnumValue
		if ok {
			ev = t.EnumValue(name)
		}
		if ev == nil {
			return coercionFailure(gqlerrors.Coercion(
				fmt.Sprintf("Expected type < %s >", t.Name), pos, path, "", nil))
		}
		return applyInputDirectives(ctx, ev.Instances, ev.Value, pos, path)

	case schema.TypeKindInputObject:
		return c.inputObject(ctx, t, value, pos, path)
	}
	return coercionFailure(gqlerrors.Coercion(
		fmt.Sprintf("Type < %s > is not an input type", t.Name), pos, path, "", nil))
}

func (c *coercer) inputObject(ctx context.Context, t *schema.Type, value any, pos *language.Position, path *gqlerrors.Path) coercionResult {
	fields, ok := value.(map[string]any)
	if !ok {
		return coercionFailure(gqlerrors.Coercion(
			fmt.Sprintf("Expected type < %s > to be an object", t.Name), pos, path, "", nil))
	}

	var errs []*gqlerrors.Error
	out := make(map[string]any, len(t.InputFields))
	for _, f := range t.InputFields {
		fieldPath := path.With(f.Name)
		raw, present := fields[f.Name]
		if !present {
			if f.HasDefault {
				out[f.Name] = f.DefaultValue
			} else if f.Type.IsNonNull() {
				errs = append(errs, gqlerrors.Coercion(
					fmt.Sprintf("Field < %s > of required type < %s > was not provided", fieldPath, f.Type), pos, nil, "", nil))
			}
			continue
		}
		r := c.input(ctx, f.Type, raw, pos, fieldPath)
		if len(r.errs) == 0 && len(f.Instances) > 0 {
			r = applyInputDirectives(ctx, f.Instances, r.value, pos, fieldPath)
		}
		if len(r.errs) > 0 {
			errs = append(errs, r.errs...)
		} else if len(errs) == 0 {
			out[f.Name] = r.value
		}
	}
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		if t.InputField(k) == nil {
			errs = append(errs, gqlerrors.Coercion(
				fmt.Sprintf("Field < %s > is not defined by type < %s >", k, t.Name), pos, path, "", nil))
		}
	}
	if len(errs) > 0 {
		return coercionFailure(errs...)
	}
	return coercionResult{value: out}
}

// applyInputDirectives runs the post input coercion hooks of instances over
// an already coerced value. Hook failures become coercion errors.
func applyInputDirectives(ctx context.Context, instances []*schema.Instance, value any, pos *language.Position, path *gqlerrors.Path) coercionResult {
	if len(instances) == 0 {
		return coercionResult{value: value}
	}
	v, err := schema.WrapPostInputCoercion(instances, passthrough)(ctx, value)
	if err != nil {
		var errs []*gqlerrors.Error
		for _, e := range gqlerrors.Flatten(err) {
			errs = append(errs, gqlerrors.Coercion(e.Error(), pos, path, "", e))
		}
		return coercionFailure(errs...)
	}
	return coercionResult{value: v}
}

// asList returns the elements of slice and array values.
func asList(value any) ([]any, bool) {
	if direct, ok := value.([]any); ok {
		return direct, true
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}
