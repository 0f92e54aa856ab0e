package directives

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2/ast"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/alexchamberlain/tartiflette/internal/schema"
)

func instance(name string, impl any, args map[string]any) *schema.Instance {
	return &schema.Instance{Name: name, Impl: impl, Args: schema.StaticArgs(args)}
}

func collect(t *testing.T, sel ast.Selection, instances ...*schema.Instance) error {
	t.Helper()
	terminal := func(_ context.Context, s ast.Selection) (ast.Selection, error) { return s, nil }
	_, err := schema.WrapCollection(instances, sel, terminal)(context.Background(), sel)
	return err
}

func TestSkipInclude(t *testing.T) {
	selections := map[string]ast.Selection{
		"field":           &ast.Field{Name: "a"},
		"fragment spread": &ast.FragmentSpread{Name: "F"},
		"inline fragment": &ast.InlineFragment{TypeCondition: "Query"},
	}
	tests := []struct {
		name      string
		instances []*schema.Instance
		skipped   bool
	}{
		{name: "skip true", instances: []*schema.Instance{instance("skip", Skip{}, map[string]any{"if": true})}, skipped: true},
		{name: "skip false", instances: []*schema.Instance{instance("skip", Skip{}, map[string]any{"if": false})}},
		{name: "include true", instances: []*schema.Instance{instance("include", Include{}, map[string]any{"if": true})}},
		{name: "include false", instances: []*schema.Instance{instance("include", Include{}, map[string]any{"if": false})}, skipped: true},
		{
			name: "skip wins over include",
			instances: []*schema.Instance{
				instance("include", Include{}, map[string]any{"if": true}),
				instance("skip", Skip{}, map[string]any{"if": true}),
			},
			skipped: true,
		},
	}
	for kind, sel := range selections {
		for _, tt := range tests {
			t.Run(kind+"/"+tt.name, func(t *testing.T) {
				err := collect(t, sel, tt.instances...)
				if tt.skipped {
					require.ErrorIs(t, err, schema.ErrSkipCollection)
					return
				}
				require.NoError(t, err)
			})
		}
	}
}

func introspect(element any, instances ...*schema.Instance) (any, error) {
	terminal := func(_ context.Context, e any) (any, error) { return e, nil }
	return schema.WrapIntrospection(instances, nil, terminal)(context.Background(), element)
}

func TestDeprecated(t *testing.T) {
	field := &schema.Field{Name: "old"}
	got, err := introspect(field, instance("deprecated", Deprecated{}, map[string]any{"reason": "use new"}))
	require.NoError(t, err)

	out := got.(*schema.Field)
	require.True(t, out.IsDeprecated)
	require.Equal(t, "use new", out.DeprecationReason)
	require.False(t, field.IsDeprecated, "schema element must not change")

	value := &schema.EnumValue{Name: "A"}
	got, err = introspect(value, instance("deprecated", Deprecated{}, map[string]any{"reason": "Deprecated"}))
	require.NoError(t, err)
	require.Equal(t, "Deprecated", got.(*schema.EnumValue).DeprecationReason)
}

func TestNonIntrospectable(t *testing.T) {
	got, err := introspect(&schema.Field{Name: "secret"}, instance("nonIntrospectable", NonIntrospectable{}, nil))
	require.NoError(t, err)
	require.Nil(t, got)

	core, logs := observer.New(zap.WarnLevel)
	got, err = introspect(&schema.Field{Name: "secret"}, instance("non_introspectable", NonIntrospectableDeprecated{Logger: zap.New(core)}, nil))
	require.NoError(t, err)
	require.Nil(t, got)
	require.Equal(t, 1, logs.Len())
}

func TestBuiltinsCoverSDL(t *testing.T) {
	for name := range Builtins(nil) {
		require.True(t, schema.IsBuiltin(name), name)
	}
}
