package executor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/alexchamberlain/tartiflette/internal/eventbus"
	"github.com/alexchamberlain/tartiflette/internal/events"
	"github.com/alexchamberlain/tartiflette/internal/gqlerrors"
	language "github.com/alexchamberlain/tartiflette/internal/language"
	schema "github.com/alexchamberlain/tartiflette/internal/schema"
)

const typenameField = "__typename"

// resolveField resolves and completes one response key. It returns
// undefined for fields the parent type does not define. A returned error
// means the field could not be null and its parent must be nulled instead.
func (ec *executionContext) resolveField(ctx context.Context, parentType *schema.Type, source any, fields []*language.Field, path *gqlerrors.Path) (any, error) {
	fieldName := fields[0].Name
	if fieldName == typenameField {
		return parentType.Name, nil
	}

	fieldDef := parentType.Field(fieldName)
	if fieldDef == nil {
		return undefined, nil
	}

	info := ec.buildResolveInfo(fieldDef, fields, parentType, path)
	result, err := ec.resolveFieldValueOrError(ctx, fieldDef, fields, source, info)
	return ec.completeValueCatchingError(ctx, fieldDef.Type, fields, info, path, result, err)
}

func (ec *executionContext) buildResolveInfo(fieldDef *schema.Field, fields []*language.Field, parentType *schema.Type, path *gqlerrors.Path) *schema.ResolveInfo {
	return &schema.ResolveInfo{
		FieldName:       fieldDef.Name,
		FieldNodes:      fields,
		ReturnType:      fieldDef.Type,
		ParentType:      parentType,
		Path:            path,
		Schema:          ec.schema,
		Fragments:       ec.fragments,
		RootValue:       ec.root,
		Operation:       ec.operation,
		VariableValues:  ec.values.variables,
		IsIntrospection: strings.HasPrefix(fieldDef.Name, "__") || strings.HasPrefix(parentType.Name, "__"),
	}
}

// resolveFieldValueOrError coerces the field arguments and runs the resolver
// chain: query directives of every field node wrap the schema directives of
// the field, which wrap the resolver.
func (ec *executionContext) resolveFieldValueOrError(ctx context.Context, fieldDef *schema.Field, fields []*language.Field, source any, info *schema.ResolveInfo) (any, error) {
	resolver := ec.resolverOf(fieldDef, info)
	resolver = schema.WrapFieldExecution(fieldDef.Instances, resolver)
	var queryDirectives []*schema.Instance
	for _, f := range fields {
		queryDirectives = append(queryDirectives, ec.queryInstances(f.Directives)...)
	}
	resolver = schema.WrapFieldExecution(queryDirectives, resolver)

	args, err := ec.coerceArguments(ctx, fieldDef.Arguments, fields[0].Arguments, fields[0].Position)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	eventbus.Publish(ctx, events.FieldStart{ParentType: info.ParentType.Name, Field: fieldDef.Name, Path: info.Path.AsList()})
	result, err := ec.callResolver(ctx, resolver, source, args, info)
	eventbus.Publish(ctx, events.FieldFinish{
		ParentType: info.ParentType.Name,
		Field:      fieldDef.Name,
		Path:       info.Path.AsList(),
		Err:        err,
		Duration:   time.Since(start),
	})
	return result, err
}

func (ec *executionContext) resolverOf(fieldDef *schema.Field, info *schema.ResolveInfo) schema.Resolver {
	if fieldDef.Resolver != nil {
		return fieldDef.Resolver
	}
	if ec.rootResolver != nil && info.Path.Prev == nil {
		return ec.rootResolver
	}
	return ec.defaultResolver
}

// callResolver turns a panicking resolver into a field error.
func (ec *executionContext) callResolver(ctx context.Context, resolver schema.Resolver, source any, args map[string]any, info *schema.ResolveInfo) (result any, err error) {
	defer ec.recoverError(&err, "resolver panicked", zap.String("field", info.ParentType.Name+"."+info.FieldName))
	return resolver(ctx, source, args, info)
}

// recoverError stores a panic of the calling goroutine in *err. It must be
// deferred directly.
func (e *Executor) recoverError(err *error, msg string, fields ...zap.Field) {
	p := recover()
	if p == nil {
		return
	}
	e.logger.Error(msg, append(fields, zap.Any("panic", p), zap.Stack("stack"))...)
	*err = fmt.Errorf("%v", p)
}
