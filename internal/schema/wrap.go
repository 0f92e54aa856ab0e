package schema

import (
	"context"

	"github.com/vektah/gqlparser/v2/ast"
)

// Wrap composes terminal with the hooks of instances. bind returns the hook
// of one instance bound to next, or false if the instance does not implement
// it. The first instance is the outermost: it runs first and returns last.
func Wrap[F any](instances []*Instance, bind func(inst *Instance, next F) (F, bool), terminal F) F {
	fn := terminal
	for i := len(instances) - 1; i >= 0; i-- {
		if wrapped, ok := bind(instances[i], fn); ok {
			fn = wrapped
		}
	}
	return fn
}

func WrapFieldExecution(instances []*Instance, terminal Resolver) Resolver {
	return Wrap(instances, func(inst *Instance, next Resolver) (Resolver, bool) {
		h, ok := inst.Impl.(OnFieldExecution)
		if !ok {
			return nil, false
		}
		return func(ctx context.Context, parent any, args map[string]any, info *ResolveInfo) (any, error) {
			dargs, err := inst.Args(ctx)
			if err != nil {
				return nil, err
			}
			return h.OnFieldExecution(ctx, dargs, next, parent, args, info)
		}, true
	}, terminal)
}

func WrapArgumentExecution(instances []*Instance, argument *InputValue, terminal ValueNext) ValueNext {
	return Wrap(instances, func(inst *Instance, next ValueNext) (ValueNext, bool) {
		h, ok := inst.Impl.(OnArgumentExecution)
		if !ok {
			return nil, false
		}
		return func(ctx context.Context, value any) (any, error) {
			dargs, err := inst.Args(ctx)
			if err != nil {
				return nil, err
			}
			return h.OnArgumentExecution(ctx, dargs, next, argument, value)
		}, true
	}, terminal)
}

func WrapPostInputCoercion(instances []*Instance, terminal ValueNext) ValueNext {
	return Wrap(instances, func(inst *Instance, next ValueNext) (ValueNext, bool) {
		h, ok := inst.Impl.(OnPostInputCoercion)
		if !ok {
			return nil, false
		}
		return func(ctx context.Context, value any) (any, error) {
			dargs, err := inst.Args(ctx)
			if err != nil {
				return nil, err
			}
			return h.OnPostInputCoercion(ctx, dargs, next, value)
		}, true
	}, terminal)
}

func WrapPreOutputCoercion(instances []*Instance, info *ResolveInfo, terminal ValueNext) ValueNext {
	return Wrap(instances, func(inst *Instance, next ValueNext) (ValueNext, bool) {
		h, ok := inst.Impl.(OnPreOutputCoercion)
		if !ok {
			return nil, false
		}
		return func(ctx context.Context, value any) (any, error) {
			dargs, err := inst.Args(ctx)
			if err != nil {
				return nil, err
			}
			return h.OnPreOutputCoercion(ctx, dargs, next, value, info)
		}, true
	}, terminal)
}

// WrapCollection composes the collection hooks matching the kind of
// selection: field, fragment spread or inline fragment.
func WrapCollection(instances []*Instance, selection ast.Selection, terminal CollectionNext) CollectionNext {
	return Wrap(instances, func(inst *Instance, next CollectionNext) (CollectionNext, bool) {
		if !implementsCollection(inst.Impl, selection) {
			return nil, false
		}
		return func(ctx context.Context, sel ast.Selection) (ast.Selection, error) {
			dargs, err := inst.Args(ctx)
			if err != nil {
				return nil, err
			}
			switch sel := sel.(type) {
			case *ast.Field:
				return inst.Impl.(OnFieldCollection).OnFieldCollection(ctx, dargs, next, sel)
			case *ast.FragmentSpread:
				return inst.Impl.(OnFragmentSpreadCollection).OnFragmentSpreadCollection(ctx, dargs, next, sel)
			case *ast.InlineFragment:
				return inst.Impl.(OnInlineFragmentCollection).OnInlineFragmentCollection(ctx, dargs, next, sel)
			}
			return next(ctx, sel)
		}, true
	}, terminal)
}

func implementsCollection(impl any, selection ast.Selection) bool {
	switch selection.(type) {
	case *ast.Field:
		_, ok := impl.(OnFieldCollection)
		return ok
	case *ast.FragmentSpread:
		_, ok := impl.(OnFragmentSpreadCollection)
		return ok
	case *ast.InlineFragment:
		_, ok := impl.(OnInlineFragmentCollection)
		return ok
	}
	return false
}

func WrapIntrospection(instances []*Instance, info *ResolveInfo, terminal IntrospectionNext) IntrospectionNext {
	return Wrap(instances, func(inst *Instance, next IntrospectionNext) (IntrospectionNext, bool) {
		h, ok := inst.Impl.(OnIntrospection)
		if !ok {
			return nil, false
		}
		return func(ctx context.Context, element any) (any, error) {
			dargs, err := inst.Args(ctx)
			if err != nil {
				return nil, err
			}
			return h.OnIntrospection(ctx, dargs, next, element, info)
		}, true
	}, terminal)
}
