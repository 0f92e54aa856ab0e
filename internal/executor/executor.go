package executor

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/alexchamberlain/tartiflette/internal/gqlerrors"
	language "github.com/alexchamberlain/tartiflette/internal/language"
	schema "github.com/alexchamberlain/tartiflette/internal/schema"
)

// Executor runs operations against a baked schema. It is safe for
// concurrent use; every request gets its own execution context.
type Executor struct {
	schema          *schema.Schema
	defaultResolver schema.Resolver
	typeResolver    schema.TypeResolver
	logger          *zap.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithDefaultResolver sets the resolver of fields without one.
func WithDefaultResolver(r schema.Resolver) Option {
	return func(e *Executor) { e.defaultResolver = r }
}

// WithDefaultTypeResolver sets the type resolver of abstract types without
// one.
func WithDefaultTypeResolver(r schema.TypeResolver) Option {
	return func(e *Executor) { e.typeResolver = r }
}

// WithLogger sets the logger recovered panics are reported to.
func WithLogger(l *zap.Logger) Option {
	return func(e *Executor) { e.logger = l }
}

// NewExecutor returns an executor for the baked schema s.
func NewExecutor(s *schema.Schema, opts ...Option) *Executor {
	e := &Executor{
		schema:          s,
		defaultResolver: DefaultResolver,
		typeResolver:    DefaultTypeResolver,
		logger:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// executionContext holds the state of one request.
type executionContext struct {
	*Executor
	values    coercer
	operation *language.OperationDefinition
	fragments map[string]*language.FragmentDefinition
	root      any
	errors    *errorCollector

	// rootResolver, when set, resolves root fields that have no resolver.
	rootResolver schema.Resolver
}

// ExecuteRequest executes the selected operation of document. Variable and
// operation errors produce a result with null data.
func (e *Executor) ExecuteRequest(
	ctx context.Context,
	document *language.QueryDocument,
	operationName string,
	variableValues map[string]any,
	initialValue any,
) *ExecutionResult {
	ec, rootType, failed := e.prepare(ctx, document, operationName, variableValues, initialValue)
	if failed != nil {
		return failed
	}

	return ec.executeOperation(ctx, rootType, initialValue)
}

// prepare selects the operation, coerces variables and builds the execution
// context. A non-nil result reports why execution cannot start.
func (e *Executor) prepare(
	ctx context.Context,
	document *language.QueryDocument,
	operationName string,
	variableValues map[string]any,
	initialValue any,
) (*executionContext, *schema.Type, *ExecutionResult) {
	operation, err := getOperation(document, operationName)
	if err != nil {
		return nil, nil, &ExecutionResult{Errors: []*gqlerrors.Error{err}}
	}

	rootType, err := e.operationRootType(operation)
	if err != nil {
		return nil, nil, &ExecutionResult{Errors: []*gqlerrors.Error{err}}
	}

	coercedVariableValues, errs := e.safeCoerceVariableValues(ctx, operation, variableValues)
	if len(errs) > 0 {
		e.logger.Debug("invalid variables", zap.String("operation", operation.Name), zap.Int("errors", len(errs)))
		return nil, nil, &ExecutionResult{Errors: errs}
	}

	fragments := make(map[string]*language.FragmentDefinition, len(document.Fragments))
	for _, f := range document.Fragments {
		fragments[f.Name] = f
	}

	ec := &executionContext{
		Executor:  e,
		values:    coercer{schema: e.schema, variables: coercedVariableValues},
		operation: operation,
		fragments: fragments,
		root:      initialValue,
		errors:    &errorCollector{},
	}
	return ec, rootType, nil
}

func (ec *executionContext) executeOperation(ctx context.Context, rootType *schema.Type, rootValue any) *ExecutionResult {
	data, err := ec.executeRootFields(ctx, rootType, rootValue)
	if err != nil {
		ec.errors.add(gqlerrors.Located(err, nil)...)
		return &ExecutionResult{Errors: ec.errors.list()}
	}
	return &ExecutionResult{Data: data, Errors: ec.errors.list()}
}

// executeRootFields collects and executes the root selection set. Panics
// raised while collecting, e.g. by a collection hook, fail the operation.
func (ec *executionContext) executeRootFields(ctx context.Context, rootType *schema.Type, rootValue any) (data *OrderedMap, err error) {
	defer ec.recoverError(&err, "operation panicked", zap.String("operation", ec.operation.Name))

	fields := ec.collectFields(ctx, rootType, ec.operation.SelectionSet)
	if ec.operation.Operation == language.Mutation {
		return ec.executeFieldsSerially(ctx, rootType, rootValue, nil, fields)
	}
	return ec.executeFields(ctx, rootType, rootValue, nil, fields)
}

// executeFields executes sibling fields concurrently. The first error of a
// field that cannot be null fails the whole object once every sibling has
// finished.
func (ec *executionContext) executeFields(ctx context.Context, parentType *schema.Type, source any, path *gqlerrors.Path, fields *collectedFieldMap) (*OrderedMap, error) {
	entries := fields.orderedFields()
	results := make([]any, len(entries))
	var g errgroup.Group
	for i, entry := range entries {
		g.Go(func() error {
			v, err := ec.resolveField(ctx, parentType, source, entry.Fields, path.With(entry.ResponseName))
			results[i] = v
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return assemble(entries, results), nil
}

// executeFieldsSerially executes fields one after the other, in document
// order. Used for the root fields of mutations.
func (ec *executionContext) executeFieldsSerially(ctx context.Context, parentType *schema.Type, source any, path *gqlerrors.Path, fields *collectedFieldMap) (*OrderedMap, error) {
	entries := fields.orderedFields()
	results := make([]any, len(entries))
	for i, entry := range entries {
		v, err := ec.resolveField(ctx, parentType, source, entry.Fields, path.With(entry.ResponseName))
		if err != nil {
			return nil, err
		}
		results[i] = v
	}
	return assemble(entries, results), nil
}

func assemble(entries []collectedField, results []any) *OrderedMap {
	out := newOrderedMap(len(entries))
	for i, entry := range entries {
		if results[i] == undefined {
			continue
		}
		out.Set(entry.ResponseName, results[i])
	}
	return out
}

// getOperation retrieves the operation from the document
func getOperation(document *language.QueryDocument, operationName string) (*language.OperationDefinition, *gqlerrors.Error) {
	if operationName == "" {
		switch len(document.Operations) {
		case 0:
			return nil, gqlerrors.New("Must provide an operation.")
		case 1:
			return document.Operations[0], nil
		}
		return nil, gqlerrors.New("Must provide operation name if query contains multiple operations.")
	}
	if op := document.Operations.ForName(operationName); op != nil {
		return op, nil
	}
	return nil, gqlerrors.New(fmt.Sprintf("Unknown operation named %q.", operationName))
}

// safeCoerceVariableValues runs coerceVariableValues, turning a panicking
// scalar or input directive into an operation error.
func (e *Executor) safeCoerceVariableValues(ctx context.Context, operation *language.OperationDefinition, inputs map[string]any) (coerced map[string]any, errs []*gqlerrors.Error) {
	var err error
	defer func() {
		if err != nil {
			coerced, errs = nil, gqlerrors.Located(err, nil, operation.Position)
		}
	}()
	defer e.recoverError(&err, "variable coercion panicked", zap.String("operation", operation.Name))
	return coerceVariableValues(ctx, e.schema, operation, inputs)
}

func (e *Executor) operationRootType(operation *language.OperationDefinition) (*schema.Type, *gqlerrors.Error) {
	var rootType *schema.Type
	var message string
	switch operation.Operation {
	case language.Mutation:
		rootType, message = e.schema.GetMutationType(), "Schema is not configured for mutations."
	case language.Subscription:
		rootType, message = e.schema.GetSubscriptionType(), "Schema is not configured for subscriptions."
	default:
		rootType, message = e.schema.GetQueryType(), "Schema does not define the required query root type."
	}
	if rootType == nil {
		return nil, gqlerrors.New(message, operation.Position)
	}
	return rootType, nil
}
