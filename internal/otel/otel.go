// Package otel turns engine and transport events into OpenTelemetry spans.
package otel

import (
	"context"
	"fmt"
	"strings"
	"sync"

	eventbus "github.com/alexchamberlain/tartiflette/internal/eventbus"
	events "github.com/alexchamberlain/tartiflette/internal/events"
	reqid "github.com/alexchamberlain/tartiflette/internal/reqid"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const tracerName = "github.com/alexchamberlain/tartiflette"

// Setup exports spans to the OTLP collector at endpoint and subscribes the
// tracer to the current event bus. An empty endpoint disables tracing.
func Setup(endpoint, service string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exp, err := otlptracegrpc.New(context.Background(),
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
	if err != nil {
		return nil, fmt.Errorf("otlp exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(service),
		)),
	)
	otel.SetTracerProvider(tp)

	unsubscribe := newTracer(otel.Tracer(tracerName)).subscribe()
	return func(ctx context.Context) error {
		unsubscribe()
		return tp.Shutdown(ctx)
	}, nil
}

// tracer keeps the open spans of in-flight requests. Spans are keyed by
// request id, and field spans additionally by response path.
type tracer struct {
	tracer     trace.Tracer
	requests   sync.Map
	operations sync.Map
	fields     sync.Map
}

func newTracer(t trace.Tracer) *tracer {
	return &tracer{tracer: t}
}

func fieldKey(rid string, path []any) string {
	return fmt.Sprint(rid, path)
}

// subscribe registers the span handlers and returns a func removing them.
func (t *tracer) subscribe() func() {
	unsubs := []func(){
		eventbus.Subscribe(t.httpStart),
		eventbus.Subscribe(t.httpFinish),
		eventbus.Subscribe(t.operationStart),
		eventbus.Subscribe(t.operationFinish),
		eventbus.Subscribe(t.fieldStart),
		eventbus.Subscribe(t.fieldFinish),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// parent returns ctx carrying the span stored under key, if any.
func parent(ctx context.Context, spans *sync.Map, key string) context.Context {
	if v, ok := spans.Load(key); ok {
		return trace.ContextWithSpan(ctx, v.(trace.Span))
	}
	return ctx
}

func finish(spans *sync.Map, key string) (trace.Span, bool) {
	v, ok := spans.LoadAndDelete(key)
	if !ok {
		return nil, false
	}
	return v.(trace.Span), true
}

func (t *tracer) httpStart(ctx context.Context, e events.HTTPStart) {
	rid, _ := reqid.FromContext(ctx)
	_, span := t.tracer.Start(ctx, "http.request", trace.WithSpanKind(trace.SpanKindServer))
	span.SetAttributes(
		semconv.HTTPMethodKey.String(e.Request.Method),
		attribute.String("http.target", e.Request.URL.Path),
		attribute.String("graphql.request.id", rid),
	)
	t.requests.Store(rid, span)
}

func (t *tracer) httpFinish(ctx context.Context, e events.HTTPFinish) {
	rid, _ := reqid.FromContext(ctx)
	span, ok := finish(&t.requests, rid)
	if !ok {
		return
	}
	span.SetAttributes(semconv.HTTPStatusCodeKey.Int(e.Status))
	if e.Status >= 500 {
		span.SetStatus(codes.Error, fmt.Sprintf("status %d", e.Status))
	}
	span.End()
}

func (t *tracer) operationStart(ctx context.Context, e events.GraphQLStart) {
	rid, _ := reqid.FromContext(ctx)
	// Websocket operations carry "<connection request id>/<operation id>".
	httpRID := rid
	if i := strings.LastIndexByte(rid, '/'); i >= 0 {
		httpRID = rid[:i]
	}
	_, span := t.tracer.Start(parent(ctx, &t.requests, httpRID), "graphql."+operationType(e.OperationType))
	span.SetAttributes(
		attribute.String("graphql.operation.name", e.OperationName),
		attribute.String("graphql.operation.type", e.OperationType),
		attribute.String("graphql.document", e.Query),
	)
	t.operations.Store(rid, span)
}

func (t *tracer) operationFinish(ctx context.Context, e events.GraphQLFinish) {
	rid, _ := reqid.FromContext(ctx)
	span, ok := finish(&t.operations, rid)
	if !ok {
		return
	}
	span.SetAttributes(attribute.Int("graphql.error_count", len(e.Errors)))
	for _, err := range e.Errors {
		span.RecordError(err)
	}
	if len(e.Errors) > 0 {
		span.SetStatus(codes.Error, e.Errors[0].Message)
	}
	span.End()
}

func (t *tracer) fieldStart(ctx context.Context, e events.FieldStart) {
	rid, _ := reqid.FromContext(ctx)
	_, span := t.tracer.Start(parent(ctx, &t.operations, rid), "graphql.resolve")
	span.SetAttributes(
		attribute.String("graphql.field.parent", e.ParentType),
		attribute.String("graphql.field.name", e.Field),
		attribute.String("graphql.field.path", fmt.Sprint(e.Path)),
	)
	t.fields.Store(fieldKey(rid, e.Path), span)
}

func (t *tracer) fieldFinish(ctx context.Context, e events.FieldFinish) {
	rid, _ := reqid.FromContext(ctx)
	span, ok := finish(&t.fields, fieldKey(rid, e.Path))
	if !ok {
		return
	}
	if e.Err != nil {
		span.RecordError(e.Err)
		span.SetStatus(codes.Error, e.Err.Error())
	}
	span.End()
}

func operationType(t string) string {
	if t == "" {
		return "operation"
	}
	return t
}
