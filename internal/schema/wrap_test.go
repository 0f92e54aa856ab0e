package schema

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2/ast"
)

type tracer struct {
	name string
	log  *[]string
}

func (d tracer) OnArgumentExecution(ctx context.Context, _ map[string]any, next ValueNext, _ *InputValue, value any) (any, error) {
	*d.log = append(*d.log, d.name+".before")
	v, err := next(ctx, value)
	*d.log = append(*d.log, d.name+".after")
	return v, err
}

type suffix struct{}

func (suffix) OnPostInputCoercion(ctx context.Context, args map[string]any, next ValueNext, value any) (any, error) {
	v, err := next(ctx, value)
	if err != nil {
		return nil, err
	}
	return v.(string) + args["with"].(string), nil
}

type lower struct{}

func (lower) OnPostInputCoercion(ctx context.Context, _ map[string]any, next ValueNext, value any) (any, error) {
	v, err := next(ctx, value)
	if err != nil {
		return nil, err
	}
	return strings.ToLower(v.(string)), nil
}

func TestWrapOrdering(t *testing.T) {
	var log []string
	instances := []*Instance{
		{Name: "first", Impl: tracer{name: "first", log: &log}, Args: StaticArgs(nil)},
		{Name: "noop", Impl: struct{}{}, Args: StaticArgs(nil)},
		{Name: "second", Impl: tracer{name: "second", log: &log}, Args: StaticArgs(nil)},
	}
	fn := WrapArgumentExecution(instances, nil, func(_ context.Context, v any) (any, error) {
		log = append(log, "terminal")
		return v, nil
	})
	v, err := fn(context.Background(), 42)
	require.NoError(t, err)
	require.Equal(t, 42, v)

	want := []string{"first.before", "second.before", "terminal", "second.after", "first.after"}
	if diff := cmp.Diff(want, log); diff != "" {
		t.Fatalf("call order mismatch (-want +got):\n%s", diff)
	}
}

func TestWrapValueRewrite(t *testing.T) {
	identity := func(_ context.Context, v any) (any, error) { return v, nil }

	// The outer directive sees the value produced by the inner one.
	instances := []*Instance{
		{Name: "lower", Impl: lower{}, Args: StaticArgs(nil)},
		{Name: "suffix", Impl: suffix{}, Args: StaticArgs(map[string]any{"with": "_1"})},
	}
	v, err := WrapPostInputCoercion(instances, identity)(context.Background(), "ENUM")
	require.NoError(t, err)
	require.Equal(t, "enum_1", v)
}

func TestWrapEmpty(t *testing.T) {
	called := false
	terminal := Resolver(func(context.Context, any, map[string]any, *ResolveInfo) (any, error) {
		called = true
		return nil, nil
	})
	fn := WrapFieldExecution(nil, terminal)
	_, _ = fn(context.Background(), nil, nil, nil)
	require.True(t, called)
}

type skipAll struct{}

func (skipAll) OnFieldCollection(ctx context.Context, _ map[string]any, next CollectionNext, field *ast.Field) (ast.Selection, error) {
	if _, err := next(ctx, field); err != nil {
		return nil, err
	}
	return nil, ErrSkipCollection
}

func TestWrapCollectionMatchesSelectionKind(t *testing.T) {
	instances := []*Instance{{Name: "skip", Impl: skipAll{}, Args: StaticArgs(nil)}}
	terminal := func(_ context.Context, sel ast.Selection) (ast.Selection, error) { return sel, nil }

	field := &ast.Field{Name: "a"}
	_, err := WrapCollection(instances, field, terminal)(context.Background(), field)
	require.ErrorIs(t, err, ErrSkipCollection)

	frag := &ast.InlineFragment{}
	got, err := WrapCollection(instances, frag, terminal)(context.Background(), frag)
	require.NoError(t, err)
	require.Same(t, frag, got)
}
