package executor

import (
	"context"
	"sync"

	language "github.com/alexchamberlain/tartiflette/internal/language"
	schema "github.com/alexchamberlain/tartiflette/internal/schema"
)

// collectedFieldMap preserves field order from the original query
type collectedFieldMap struct {
	fields []collectedField
	index  map[string]int
}

type collectedField struct {
	ResponseName string
	Fields       []*language.Field
}

func newCollectedFieldMap() *collectedFieldMap {
	return &collectedFieldMap{
		fields: make([]collectedField, 0),
		index:  make(map[string]int),
	}
}

func (cfm *collectedFieldMap) add(responseName string, field *language.Field) {
	if idx, exists := cfm.index[responseName]; exists {
		cfm.fields[idx].Fields = append(cfm.fields[idx].Fields, field)
	} else {
		cfm.index[responseName] = len(cfm.fields)
		cfm.fields = append(cfm.fields, collectedField{
			ResponseName: responseName,
			Fields:       []*language.Field{field},
		})
	}
}

func (cfm *collectedFieldMap) orderedFields() []collectedField {
	return cfm.fields
}

// collectFields collects fields from a selection set
func (ec *executionContext) collectFields(ctx context.Context, objectType *schema.Type, selectionSet language.SelectionSet) *collectedFieldMap {
	groupedFields := newCollectedFieldMap()
	visitedFragments := make(map[string]bool)

	ec.collectFieldsImpl(ctx, objectType, selectionSet, groupedFields, visitedFragments)

	return groupedFields
}

// collectSubfields merges the sub-selections of every node sharing a
// response key into one collection.
func (ec *executionContext) collectSubfields(ctx context.Context, objectType *schema.Type, fields []*language.Field) *collectedFieldMap {
	groupedFields := newCollectedFieldMap()
	visitedFragments := make(map[string]bool)
	for _, f := range fields {
		if len(f.SelectionSet) > 0 {
			ec.collectFieldsImpl(ctx, objectType, f.SelectionSet, groupedFields, visitedFragments)
		}
	}
	return groupedFields
}

// collectFieldsImpl is the recursive implementation of field collection
func (ec *executionContext) collectFieldsImpl(ctx context.Context, objectType *schema.Type, selectionSet language.SelectionSet, groupedFields *collectedFieldMap, visitedFragments map[string]bool) {
	for _, selection := range selectionSet {
		switch sel := selection.(type) {
		case *language.Field:
			if !ec.shouldIncludeNode(ctx, sel, sel.Directives) {
				continue
			}

			responseName := sel.Alias
			if responseName == "" {
				responseName = sel.Name
			}

			groupedFields.add(responseName, sel)

		case *language.InlineFragment:
			if !ec.shouldIncludeNode(ctx, sel, sel.Directives) || !ec.doesFragmentConditionMatch(sel.TypeCondition, objectType) {
				continue
			}

			ec.collectFieldsImpl(ctx, objectType, sel.SelectionSet, groupedFields, visitedFragments)

		case *language.FragmentSpread:
			if visitedFragments[sel.Name] {
				continue
			}
			visitedFragments[sel.Name] = true
			if !ec.shouldIncludeNode(ctx, sel, sel.Directives) {
				continue
			}

			fragmentDef := ec.fragments[sel.Name]
			if fragmentDef == nil || !ec.doesFragmentConditionMatch(fragmentDef.TypeCondition, objectType) {
				continue
			}

			ec.collectFieldsImpl(ctx, objectType, fragmentDef.SelectionSet, groupedFields, visitedFragments)
		}
	}
}

// shouldIncludeNode runs the query directives of a selection through their
// collection hooks. A hook error, schema.ErrSkipCollection included, drops
// the selection. Directives unknown to the schema are ignored.
func (ec *executionContext) shouldIncludeNode(ctx context.Context, selection language.Selection, directives language.DirectiveList) bool {
	if len(directives) == 0 {
		return true
	}
	instances := ec.queryInstances(directives)
	if len(instances) == 0 {
		return true
	}
	collect := schema.WrapCollection(instances, selection, func(_ context.Context, sel language.Selection) (language.Selection, error) {
		return sel, nil
	})
	_, err := collect(ctx, selection)
	return err == nil
}

// doesFragmentConditionMatch reports whether a fragment with the given type
// condition applies to objectType.
func (ec *executionContext) doesFragmentConditionMatch(typeCondition string, objectType *schema.Type) bool {
	if typeCondition == "" || typeCondition == objectType.Name {
		return true
	}
	conditional := ec.schema.FindType(typeCondition)
	return conditional != nil && conditional.IsAbstract() && ec.schema.IsPossibleType(conditional, objectType)
}

// queryInstances builds the directive instances of a query location. Their
// arguments are coerced on first use.
func (ec *executionContext) queryInstances(directives language.DirectiveList) []*schema.Instance {
	var out []*schema.Instance
	for _, d := range directives {
		def := ec.schema.FindDirective(d.Name)
		if def == nil {
			continue
		}
		out = append(out, &schema.Instance{
			Name: def.Name,
			Impl: def.Impl,
			Args: ec.lazyArguments(def.Arguments, d.Arguments, d.Position),
		})
	}
	return out
}

func (ec *executionContext) lazyArguments(defs []*schema.InputValue, nodes language.ArgumentList, pos *language.Position) func(context.Context) (map[string]any, error) {
	var (
		once   sync.Once
		values map[string]any
		err    error
	)
	return func(ctx context.Context) (map[string]any, error) {
		once.Do(func() {
			values, err = ec.coerceArguments(ctx, defs, nodes, pos)
		})
		return values, err
	}
}
