package executor

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	language "github.com/alexchamberlain/tartiflette/internal/language"
	schema "github.com/alexchamberlain/tartiflette/internal/schema"
)

func collectRoot(t *testing.T, sch *schema.Schema, doc *language.QueryDocument, variables map[string]any) []collectedField {
	t.Helper()
	ec, rootType, failed := NewExecutor(sch).prepare(context.Background(), doc, "", variables, nil)
	if failed != nil {
		t.Fatalf("prepare failed: %v", failed.Errors)
	}
	return ec.collectFields(context.Background(), rootType, ec.operation.SelectionSet).orderedFields()
}

// Pattern: Result comparison
func TestCollectFields_And_Directives_Result(t *testing.T) {
	sch := mustSchema(t, `
		interface Named { name: String }
		type Query implements Named { a: String b: String c: String name: String }
	`, schema.Implementations{})

	t.Run("Fragment merging and typename", func(t *testing.T) {
		doc := mustParseQuery(t, `{
			a
			...F1
			...F2
		}
		fragment F1 on Query { a __typename }
		fragment F2 on Query { __typename }
		`)
		got := collectRoot(t, sch, doc, nil)

		opSel := doc.Operations[0].SelectionSet
		frag1 := doc.Fragments.ForName("F1").SelectionSet
		frag2 := doc.Fragments.ForName("F2").SelectionSet
		want := []collectedField{
			{ResponseName: "a", Fields: []*language.Field{opSel[0].(*language.Field), frag1[0].(*language.Field)}},
			{ResponseName: "__typename", Fields: []*language.Field{frag1[1].(*language.Field), frag2[0].(*language.Field)}},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("collected fields mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Directives on scalar", func(t *testing.T) {
		doc := mustParseQuery(t, `{ a b @skip(if: true) c @include(if: false) }`)
		got := collectRoot(t, sch, doc, nil)

		opSel := doc.Operations[0].SelectionSet
		want := []collectedField{{ResponseName: "a", Fields: []*language.Field{opSel[0].(*language.Field)}}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("collected fields mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Skip wins over include", func(t *testing.T) {
		doc := mustParseQuery(t, `query ($yes: Boolean!) { a @include(if: $yes) @skip(if: $yes) b @skip(if: false) @include(if: $yes) }`)
		got := collectRoot(t, sch, doc, map[string]any{"yes": true})

		opSel := doc.Operations[0].SelectionSet
		want := []collectedField{{ResponseName: "b", Fields: []*language.Field{opSel[1].(*language.Field)}}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("collected fields mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Directives on fragment spread", func(t *testing.T) {
		doc := mustParseQuery(t, `{
			a
			...Frag1 @include(if: true)
			...Frag2 @skip(if: true)
		}
		fragment Frag1 on Query { b }
		fragment Frag2 on Query { c }
		`)
		got := collectRoot(t, sch, doc, nil)

		opSel := doc.Operations[0].SelectionSet
		frag1 := doc.Fragments.ForName("Frag1").SelectionSet
		want := []collectedField{
			{ResponseName: "a", Fields: []*language.Field{opSel[0].(*language.Field)}},
			{ResponseName: "b", Fields: []*language.Field{frag1[0].(*language.Field)}},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("collected fields mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Skipped fragment spread is not revisited", func(t *testing.T) {
		doc := mustParseQuery(t, `{
			...Frag1 @skip(if: true)
			...Frag1
		}
		fragment Frag1 on Query { b }
		`)
		got := collectRoot(t, sch, doc, nil)

		if diff := cmp.Diff([]collectedField{}, got); diff != "" {
			t.Fatalf("collected fields mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Directives on inline fragment", func(t *testing.T) {
		doc := mustParseQuery(t, `{
			a
			... on Query @include(if: true) { b }
			... on Query @skip(if: true) { c }
		}`)
		got := collectRoot(t, sch, doc, nil)

		opSel := doc.Operations[0].SelectionSet
		inline1 := opSel[1].(*language.InlineFragment)
		want := []collectedField{
			{ResponseName: "a", Fields: []*language.Field{opSel[0].(*language.Field)}},
			{ResponseName: "b", Fields: []*language.Field{inline1.SelectionSet[0].(*language.Field)}},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("collected fields mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Directives on anonymous inline fragment", func(t *testing.T) {
		doc := mustParseQuery(t, `{
			a
			... @include(if: true) { b }
			... @skip(if: true) { c }
		}`)
		got := collectRoot(t, sch, doc, nil)

		opSel := doc.Operations[0].SelectionSet
		inline1 := opSel[1].(*language.InlineFragment)
		want := []collectedField{
			{ResponseName: "a", Fields: []*language.Field{opSel[0].(*language.Field)}},
			{ResponseName: "b", Fields: []*language.Field{inline1.SelectionSet[0].(*language.Field)}},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("collected fields mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Type conditions on abstract types", func(t *testing.T) {
		doc := mustParseQuery(t, `{
			... on Named { name }
			...Other
		}
		fragment Other on Named { a }
		`)
		got := collectRoot(t, sch, doc, nil)

		opSel := doc.Operations[0].SelectionSet
		inline := opSel[0].(*language.InlineFragment)
		other := doc.Fragments.ForName("Other").SelectionSet
		want := []collectedField{
			{ResponseName: "name", Fields: []*language.Field{inline.SelectionSet[0].(*language.Field)}},
			{ResponseName: "a", Fields: []*language.Field{other[0].(*language.Field)}},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("collected fields mismatch (-want +got):\n%s", diff)
		}
	})
}
