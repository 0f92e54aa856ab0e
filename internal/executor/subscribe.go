package executor

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/alexchamberlain/tartiflette/internal/gqlerrors"
	language "github.com/alexchamberlain/tartiflette/internal/language"
	schema "github.com/alexchamberlain/tartiflette/internal/schema"
)

// Subscribe starts the subscription operation of document. Every event of
// the root field's stream is executed against the selection set of the
// operation and sent on the returned channel, which is closed once the
// stream ends or ctx is done. Errors raised before the stream starts are
// returned as a result instead.
//
// Operations other than subscriptions are executed once and delivered on the
// channel.
func (e *Executor) Subscribe(
	ctx context.Context,
	document *language.QueryDocument,
	operationName string,
	variableValues map[string]any,
	initialValue any,
) (<-chan *ExecutionResult, *ExecutionResult) {
	ec, rootType, failed := e.prepare(ctx, document, operationName, variableValues, initialValue)
	if failed != nil {
		return nil, failed
	}

	if ec.operation.Operation != language.Subscription {
		out := make(chan *ExecutionResult, 1)
		out <- ec.executeOperation(ctx, rootType, initialValue)
		close(out)
		return out, nil
	}

	stream, err := ec.createSourceEventStream(ctx, rootType, initialValue)
	if err != nil {
		return nil, &ExecutionResult{Errors: gqlerrors.Located(err, nil)}
	}

	out := make(chan *ExecutionResult)
	go func() {
		defer close(out)
		for {
			var (
				event any
				ok    bool
			)
			select {
			case <-ctx.Done():
				return
			case event, ok = <-stream:
				if !ok {
					return
				}
			}

			result := ec.forEvent(event).executeOperation(ctx, rootType, event)
			select {
			case <-ctx.Done():
				return
			case out <- result:
			}
		}
	}()
	return out, nil
}

// createSourceEventStream calls the subscriber bound to the single root
// field of the operation.
func (ec *executionContext) createSourceEventStream(ctx context.Context, rootType *schema.Type, rootValue any) (<-chan any, error) {
	fields := ec.collectFields(ctx, rootType, ec.operation.SelectionSet)
	entries := fields.orderedFields()
	if len(entries) == 0 {
		return nil, gqlerrors.New("Subscription must select a root field.", ec.operation.Position)
	}
	entry := entries[0]
	fieldNodes := entry.Fields
	fieldName := fieldNodes[0].Name

	fieldDef := rootType.Field(fieldName)
	if fieldDef == nil {
		return nil, gqlerrors.New(
			fmt.Sprintf("The subscription field %q is not defined.", fieldName), fieldNodes[0].Position)
	}
	if fieldDef.Subscriber == nil {
		return nil, gqlerrors.New(
			fmt.Sprintf("No subscriber is bound to %s.%s.", rootType.Name, fieldName), fieldNodes[0].Position)
	}

	path := (*gqlerrors.Path)(nil).With(entry.ResponseName)
	args, err := ec.coerceArguments(ctx, fieldDef.Arguments, fieldNodes[0].Arguments, fieldNodes[0].Position)
	if err != nil {
		return nil, gqlerrors.List(gqlerrors.Located(err, path))
	}

	info := ec.buildResolveInfo(fieldDef, fieldNodes, rootType, path)
	stream, err := ec.callSubscriber(ctx, fieldDef.Subscriber, rootValue, args, info)
	if err != nil {
		ec.logger.Debug("subscriber failed", zap.String("field", rootType.Name+"."+fieldName), zap.Error(err))
		return nil, gqlerrors.List(gqlerrors.Located(err, path, positions(fieldNodes)...))
	}
	return stream, nil
}

// callSubscriber turns a panicking subscriber into a field error.
func (ec *executionContext) callSubscriber(ctx context.Context, subscriber schema.Subscriber, source any, args map[string]any, info *schema.ResolveInfo) (stream <-chan any, err error) {
	defer ec.recoverError(&err, "subscriber panicked", zap.String("field", info.ParentType.Name+"."+info.FieldName))
	return subscriber(ctx, source, args, info)
}

// forEvent derives the context executing one event. Root fields without a
// resolver resolve to the event itself.
func (ec *executionContext) forEvent(event any) *executionContext {
	next := *ec
	next.root = event
	next.errors = &errorCollector{}
	next.rootResolver = func(_ context.Context, parent any, _ map[string]any, _ *schema.ResolveInfo) (any, error) {
		return parent, nil
	}
	return &next
}
