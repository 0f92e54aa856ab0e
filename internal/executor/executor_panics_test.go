package executor

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2/ast"

	schema "github.com/alexchamberlain/tartiflette/internal/schema"
)

// boom panics in every hook it implements.
type boom struct{}

func (boom) OnArgumentExecution(context.Context, map[string]any, schema.ValueNext, *schema.InputValue, any) (any, error) {
	panic("boom")
}

func (boom) OnPreOutputCoercion(context.Context, map[string]any, schema.ValueNext, any, *schema.ResolveInfo) (any, error) {
	panic("boom")
}

func (boom) OnFieldCollection(context.Context, map[string]any, schema.CollectionNext, *ast.Field) (ast.Selection, error) {
	panic("boom")
}

// fragile is a scalar that panics on every coercion.
type fragile struct{}

func (fragile) CoerceOutput(context.Context, any) (any, error)        { panic("boom") }
func (fragile) CoerceInput(context.Context, any) (any, error)         { panic("boom") }
func (fragile) ParseLiteral(context.Context, *ast.Value) (any, error) { panic("boom") }

const panicsSDL = `
	directive @boom on ARGUMENT_DEFINITION | ENUM | FIELD
	scalar Fragile
	enum Mood @boom { HAPPY }
	interface Pet { name: String }
	type Dog implements Pet { name: String }
	type Query {
		arg(a: Int @boom): String
		literal(v: Fragile): String
		fragile: Fragile
		strict: Fragile!
		mood: Mood
		pet: Pet
		dog: Dog
		ok: String
	}
	type Subscription { ticks: Int }
`

func panicsSchema(t *testing.T) *schema.Schema {
	t.Helper()
	impl := NewMockResolvers(map[string]MockResolver{
		"Query.fragile": NewMockValueResolver(1),
		"Query.strict":  NewMockValueResolver(1),
		"Query.mood":    NewMockValueResolver("HAPPY"),
		"Query.pet":     NewMockValueResolver(map[string]any{"name": "Rex"}),
		"Query.dog":     NewMockValueResolver(map[string]any{"name": "Rex"}),
		"Query.ok":      NewMockValueResolver("ok"),
	}).Implementations()
	impl.Scalars = map[string]schema.Scalar{"Fragile": fragile{}}
	impl.Directives = map[string]any{"boom": boom{}}
	impl.TypeResolvers = map[string]schema.TypeResolver{
		"Pet": func(context.Context, any, *schema.ResolveInfo, *schema.Type) (string, error) { panic("boom") },
	}
	impl.Subscribers = map[string]schema.Subscriber{
		"Subscription.ticks": func(context.Context, any, map[string]any, *schema.ResolveInfo) (<-chan any, error) {
			panic("boom")
		},
	}
	return mustSchema(t, panicsSDL, impl)
}

// Pattern: Result comparison
func TestPanics_BecomeFieldErrors_Result(t *testing.T) {
	sch := panicsSchema(t)

	tests := []struct {
		name      string
		query     string
		variables map[string]any
		want      string
	}{
		{
			name:  "Argument directive",
			query: `{ arg(a: 1) ok }`,
			want:  `{"data":{"arg":null,"ok":"ok"},"errors":[{"message":"boom","path":["arg"]}]}`,
		},
		{
			name:  "Scalar literal",
			query: `{ literal(v: 1) ok }`,
			want:  `{"data":{"literal":null,"ok":"ok"},"errors":[{"message":"boom","path":["literal"]}]}`,
		},
		{
			name:      "Scalar variable",
			query:     `query ($v: Fragile) { literal(v: $v) }`,
			variables: map[string]any{"v": 1},
			want:      `{"data":null,"errors":[{"message":"boom","path":null}]}`,
		},
		{
			name:  "Scalar output",
			query: `{ fragile ok }`,
			want:  `{"data":{"fragile":null,"ok":"ok"},"errors":[{"message":"boom","path":["fragile"]}]}`,
		},
		{
			name:  "Scalar output of non-null field",
			query: `{ strict ok }`,
			want:  `{"data":null,"errors":[{"message":"boom","path":["strict"]}]}`,
		},
		{
			name:  "Output directive",
			query: `{ mood ok }`,
			want:  `{"data":{"mood":null,"ok":"ok"},"errors":[{"message":"boom","path":["mood"]}]}`,
		},
		{
			name:  "Type resolver",
			query: `{ pet { name } ok }`,
			want:  `{"data":{"pet":null,"ok":"ok"},"errors":[{"message":"boom","path":["pet"]}]}`,
		},
		{
			name:  "Nested collection directive",
			query: `{ dog { name @boom } ok }`,
			want:  `{"data":{"dog":null,"ok":"ok"},"errors":[{"message":"boom","path":["dog"]}]}`,
		},
		{
			name:  "Root collection directive",
			query: `{ ok @boom }`,
			want:  `{"data":null,"errors":[{"message":"boom","path":null}]}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := execute(t, sch, tt.query, tt.variables)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPanics_Subscriber(t *testing.T) {
	sch := panicsSchema(t)

	results, failed := NewExecutor(sch).Subscribe(context.Background(), mustParseQuery(t, `subscription { ticks }`), "", nil, nil)

	require.Nil(t, results)
	require.NotNil(t, failed)
	want := `{"data":null,"errors":[{"message":"boom","path":["ticks"]}]}`
	if diff := cmp.Diff(want, resultJSON(t, failed)); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
}
