// Package engine builds an executable schema from SDL and runs GraphQL
// requests against it.
package engine

import (
	"context"
	"fmt"
	"maps"
	"time"

	"go.uber.org/zap"

	"github.com/alexchamberlain/tartiflette/internal/directives"
	eventbus "github.com/alexchamberlain/tartiflette/internal/eventbus"
	events "github.com/alexchamberlain/tartiflette/internal/events"
	executor "github.com/alexchamberlain/tartiflette/internal/executor"
	"github.com/alexchamberlain/tartiflette/internal/gqlerrors"
	"github.com/alexchamberlain/tartiflette/internal/introspection"
	language "github.com/alexchamberlain/tartiflette/internal/language"
	"github.com/alexchamberlain/tartiflette/internal/scalars"
	schema "github.com/alexchamberlain/tartiflette/internal/schema"
)

const defaultCacheSize = 512

// Engine owns a baked schema. It is safe for concurrent use.
type Engine struct {
	schema *schema.Schema
	exec   *executor.Executor
	cache  *language.Cache
	logger *zap.Logger
}

// Request is a single GraphQL request.
type Request struct {
	Query         string
	OperationName string
	Variables     map[string]any
	// RootValue is the parent value of the root fields.
	RootValue any
}

type options struct {
	logger        *zap.Logger
	impl          schema.Implementations
	introspection bool
	cacheSize     int
	execOpts      []executor.Option
}

type Option func(*options)

// WithLogger sets the logger of the engine and of its executor.
func WithLogger(l *zap.Logger) Option { return func(o *options) { o.logger = l } }

// WithResolvers binds resolvers keyed by "Type.field".
func WithResolvers(r map[string]schema.Resolver) Option {
	return func(o *options) { maps.Copy(o.impl.Resolvers, r) }
}

// WithSubscribers binds subscription event sources keyed by "Type.field".
func WithSubscribers(s map[string]schema.Subscriber) Option {
	return func(o *options) { maps.Copy(o.impl.Subscribers, s) }
}

// WithTypeResolvers binds type resolvers keyed by interface or union name.
func WithTypeResolvers(r map[string]schema.TypeResolver) Option {
	return func(o *options) { maps.Copy(o.impl.TypeResolvers, r) }
}

// WithFieldTypeResolvers binds type resolvers keyed by "Type.field" for
// fields returning an interface or union. They take precedence over the
// resolvers given to WithTypeResolvers.
func WithFieldTypeResolvers(r map[string]schema.TypeResolver) Option {
	return func(o *options) { maps.Copy(o.impl.FieldTypeResolvers, r) }
}

// WithScalars binds custom scalars. A scalar named like a builtin one
// replaces it.
func WithScalars(s map[string]schema.Scalar) Option {
	return func(o *options) { maps.Copy(o.impl.Scalars, s) }
}

// WithDirectives binds directive implementations. A directive named like a
// builtin one replaces it.
func WithDirectives(d map[string]any) Option {
	return func(o *options) { maps.Copy(o.impl.Directives, d) }
}

// WithDefaultResolver sets the resolver of fields without one.
func WithDefaultResolver(r schema.Resolver) Option {
	return func(o *options) { o.execOpts = append(o.execOpts, executor.WithDefaultResolver(r)) }
}

// WithDefaultTypeResolver sets the type resolver of abstract types without
// one.
func WithDefaultTypeResolver(r schema.TypeResolver) Option {
	return func(o *options) { o.execOpts = append(o.execOpts, executor.WithDefaultTypeResolver(r)) }
}

// WithCacheSize sets how many parsed documents are kept.
func WithCacheSize(n int) Option { return func(o *options) { o.cacheSize = n } }

// WithoutIntrospection leaves out the __schema and __type root fields.
func WithoutIntrospection() Option { return func(o *options) { o.introspection = false } }

// New builds the schema declared by sources on top of the builtin scalars
// and directives and binds the implementations given as options. Schema
// errors are returned together.
func New(sources []*language.Source, opts ...Option) (*Engine, error) {
	o := options{
		logger:        zap.NewNop(),
		introspection: true,
		cacheSize:     defaultCacheSize,
		impl: schema.Implementations{
			Resolvers:          map[string]schema.Resolver{},
			Subscribers:        map[string]schema.Subscriber{},
			TypeResolvers:      map[string]schema.TypeResolver{},
			FieldTypeResolvers: map[string]schema.TypeResolver{},
			Scalars:            scalars.Builtins(),
			Directives:         map[string]any{},
		},
	}
	for _, opt := range opts {
		opt(&o)
	}
	directiveImpls := directives.Builtins(o.logger)
	maps.Copy(directiveImpls, o.impl.Directives)
	o.impl.Directives = directiveImpls

	all := make([]*language.Source, 0, len(sources)+1)
	all = append(all, &language.Source{Name: "builtin.graphql", Input: schema.BuiltinSDL, BuiltIn: true})
	all = append(all, sources...)
	s, err := schema.BuildFromSDL(all...)
	if err != nil {
		return nil, fmt.Errorf("engine: build schema: %w", err)
	}

	if o.introspection {
		if err := introspection.Extend(s); err != nil {
			return nil, fmt.Errorf("engine: %w", err)
		}
		resolvers := introspection.Resolvers(s)
		maps.Copy(resolvers, o.impl.Resolvers)
		o.impl.Resolvers = resolvers
	}

	if err := s.Bake(o.impl); err != nil {
		return nil, fmt.Errorf("engine: bake schema: %w", err)
	}
	o.logger.Info("schema baked",
		zap.Int("types", len(s.Types)),
		zap.Int("directives", len(s.Directives)),
		zap.Int("resolvers", len(o.impl.Resolvers)),
		zap.Bool("introspection", o.introspection))

	cache, err := language.NewCache(o.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	execOpts := append([]executor.Option{executor.WithLogger(o.logger)}, o.execOpts...)
	return &Engine{
		schema: s,
		exec:   executor.NewExecutor(s, execOpts...),
		cache:  cache,
		logger: o.logger,
	}, nil
}

// Schema returns the baked schema. It must not be modified.
func (e *Engine) Schema() *schema.Schema { return e.schema }

// Parse returns the document of query, from the cache when possible.
func (e *Engine) Parse(query string) (*language.QueryDocument, error) {
	doc, err := e.cache.ParseQuery(query)
	if err != nil {
		e.logger.Debug("query parse failed", zap.Error(err))
		return nil, err
	}
	return doc, nil
}

// Execute runs req. Parse errors are reported in the result with null data.
func (e *Engine) Execute(ctx context.Context, req Request) *executor.ExecutionResult {
	doc, err := e.Parse(req.Query)
	if err != nil {
		return &executor.ExecutionResult{Errors: gqlerrors.Located(err, nil)}
	}

	start := time.Now()
	opType := operationType(doc, req.OperationName)
	eventbus.Publish(ctx, events.GraphQLStart{
		Query:         req.Query,
		OperationName: req.OperationName,
		OperationType: opType,
		Variables:     req.Variables,
	})
	res := e.exec.ExecuteRequest(ctx, doc, req.OperationName, req.Variables, req.RootValue)
	eventbus.Publish(ctx, events.GraphQLFinish{
		Query:         req.Query,
		OperationName: req.OperationName,
		OperationType: opType,
		Errors:        res.Errors,
		Duration:      time.Since(start),
	})
	return res
}

// Subscribe starts req. Results are delivered on the returned channel until
// the event stream ends or ctx is done. Errors raised before the stream
// starts are returned instead.
func (e *Engine) Subscribe(ctx context.Context, req Request) (<-chan *executor.ExecutionResult, *executor.ExecutionResult) {
	doc, err := e.Parse(req.Query)
	if err != nil {
		return nil, &executor.ExecutionResult{Errors: gqlerrors.Located(err, nil)}
	}

	start := time.Now()
	opType := operationType(doc, req.OperationName)
	eventbus.Publish(ctx, events.GraphQLStart{
		Query:         req.Query,
		OperationName: req.OperationName,
		OperationType: opType,
		Variables:     req.Variables,
	})
	finish := func(errs []*gqlerrors.Error) {
		eventbus.Publish(ctx, events.GraphQLFinish{
			Query:         req.Query,
			OperationName: req.OperationName,
			OperationType: opType,
			Errors:        errs,
			Duration:      time.Since(start),
		})
	}

	results, failed := e.exec.Subscribe(ctx, doc, req.OperationName, req.Variables, req.RootValue)
	if failed != nil {
		finish(failed.Errors)
		return nil, failed
	}
	out := make(chan *executor.ExecutionResult)
	go func() {
		var errs []*gqlerrors.Error
		defer close(out)
		defer func() { finish(errs) }()
		for res := range results {
			errs = append(errs, res.Errors...)
			select {
			case out <- res:
			case <-ctx.Done():
				// Drain so the executor goroutine can observe ctx and exit.
				for range results {
				}
				return
			}
		}
	}()
	return out, nil
}

func operationType(doc *language.QueryDocument, name string) string {
	op := doc.Operations.ForName(name)
	if op == nil && name == "" && len(doc.Operations) == 1 {
		op = doc.Operations[0]
	}
	if op == nil {
		return ""
	}
	return string(op.Operation)
}
