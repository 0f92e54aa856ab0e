package executor

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jhump/protoreflect/v2/protobuilder"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"

	schema "github.com/alexchamberlain/tartiflette/internal/schema"
)

type base struct {
	ID string
}

type article struct {
	base
	Title    string `json:"headline,omitempty"`
	Body     string `graphql:"content" json:"body"`
	Hidden   string `graphql:"-"`
	internal string
}

// Pattern: Result comparison
func TestDefaultResolver_FieldLookup_Result(t *testing.T) {
	a := article{base: base{ID: "1"}, Title: "T", Body: "B", Hidden: "H", internal: "x"}

	tests := []struct {
		name   string
		parent any
		field  string
		want   any
	}{
		{name: "Map key", parent: map[string]any{"a": 1}, field: "a", want: 1},
		{name: "Missing map key", parent: map[string]any{}, field: "a", want: nil},
		{name: "Typed map", parent: map[string]int{"n": 3}, field: "n", want: 3},
		{name: "Map with non string keys", parent: map[int]int{1: 1}, field: "1", want: nil},
		{name: "Graphql tag", parent: a, field: "content", want: "B"},
		{name: "Json tag", parent: a, field: "headline", want: "T"},
		{name: "Field name ignoring case", parent: a, field: "title", want: "T"},
		{name: "Graphql tag dash still matches by name", parent: a, field: "hidden", want: "H"},
		{name: "Promoted field", parent: a, field: "id", want: "1"},
		{name: "Unexported field", parent: a, field: "internal", want: nil},
		{name: "Pointer to struct", parent: &a, field: "content", want: "B"},
		{name: "Nil pointer", parent: (*article)(nil), field: "content", want: nil},
		{name: "Nil parent", parent: nil, field: "a", want: nil},
		{name: "Scalar parent", parent: 42, field: "a", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DefaultResolver(context.Background(), tt.parent, nil, &schema.ResolveInfo{FieldName: tt.field})
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("DefaultResolver mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// buildPetDescriptors builds a proto3 file holding Pet, Owner and Kind.
func buildPetDescriptors(t *testing.T) protoreflect.FileDescriptor {
	t.Helper()

	kind := protobuilder.NewEnum("Kind")
	unspecified := protobuilder.NewEnumValue("KIND_UNSPECIFIED")
	unspecified.SetNumber(0)
	kind.AddValue(unspecified)
	dogKind := protobuilder.NewEnumValue("KIND_DOG")
	dogKind.SetNumber(1)
	kind.AddValue(dogKind)

	owner := protobuilder.NewMessage("Owner")
	owner.AddField(protobuilder.NewField("name", protobuilder.FieldTypeScalar(protoreflect.StringKind)))

	pet := protobuilder.NewMessage("Pet")
	pet.AddField(protobuilder.NewField("pet_name", protobuilder.FieldTypeScalar(protoreflect.StringKind)))
	legs := protobuilder.NewField("legs", protobuilder.FieldTypeScalar(protoreflect.Int32Kind))
	legs.SetOptional()
	pet.AddField(legs)
	pet.AddField(protobuilder.NewField("kind", protobuilder.FieldTypeEnum(kind)))
	tags := protobuilder.NewField("tags", protobuilder.FieldTypeScalar(protoreflect.StringKind))
	tags.SetRepeated()
	pet.AddField(tags)
	pet.AddField(protobuilder.NewField("owner", protobuilder.FieldTypeMessage(owner)))

	fb := protobuilder.NewFile("pets.proto")
	fb.SetPackageName(protoreflect.FullName("tartiflette.test"))
	fb.SetSyntax(protoreflect.Proto3)
	fb.AddEnum(kind)
	fb.AddMessage(owner)
	fb.AddMessage(pet)

	fd, err := fb.Build()
	require.NoError(t, err)
	return fd
}

func newPetMessage(t *testing.T) proto.Message {
	t.Helper()
	fd := buildPetDescriptors(t)
	petMD := fd.Messages().ByName("Pet")
	ownerMD := fd.Messages().ByName("Owner")

	owner := dynamicpb.NewMessage(ownerMD)
	owner.Set(ownerMD.Fields().ByName("name"), protoreflect.ValueOfString("Ann"))

	pet := dynamicpb.NewMessage(petMD)
	fields := petMD.Fields()
	pet.Set(fields.ByName("pet_name"), protoreflect.ValueOfString("Rex"))
	pet.Set(fields.ByName("kind"), protoreflect.ValueOfEnum(1))
	tags := pet.Mutable(fields.ByName("tags")).List()
	tags.Append(protoreflect.ValueOfString("good"))
	tags.Append(protoreflect.ValueOfString("boy"))
	pet.Set(fields.ByName("owner"), protoreflect.ValueOfMessage(owner))
	return pet
}

// Pattern: Result comparison
func TestDefaultResolver_ProtoMessage_Result(t *testing.T) {
	pet := newPetMessage(t)

	tests := []struct {
		name  string
		field string
		want  any
	}{
		{name: "Json name", field: "petName", want: "Rex"},
		{name: "Proto name", field: "pet_name", want: "Rex"},
		{name: "Unset optional field", field: "legs", want: nil},
		{name: "Enum value name", field: "kind", want: "KIND_DOG"},
		{name: "Repeated field", field: "tags", want: []any{"good", "boy"}},
		{name: "Unknown field", field: "color", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DefaultResolver(context.Background(), pet, nil, &schema.ResolveInfo{FieldName: tt.field})
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("DefaultResolver mismatch (-want +got):\n%s", diff)
			}
		})
	}

	t.Run("Nested message", func(t *testing.T) {
		owner, err := DefaultResolver(context.Background(), pet, nil, &schema.ResolveInfo{FieldName: "owner"})
		require.NoError(t, err)
		require.Implements(t, (*proto.Message)(nil), owner)
		name, err := DefaultResolver(context.Background(), owner, nil, &schema.ResolveInfo{FieldName: "name"})
		require.NoError(t, err)
		require.Equal(t, "Ann", name)
	})
}

// Pattern: Result comparison
func TestDefaultResolver_ProtoMessage_Execution_Result(t *testing.T) {
	pet := newPetMessage(t)
	rs := NewMockResolvers(map[string]MockResolver{"Query.pet": NewMockValueResolver(pet)})
	sch := mustSchema(t, `
		type Owner { name: String }
		type Pet { petName: String legs: Int kind: String tags: [String] owner: Owner }
		type Query { pet: Pet }
	`, rs.Implementations())

	got := execute(t, sch, `{ pet { petName legs kind tags owner { name } } }`, nil)

	want := `{"data":{"pet":{"petName":"Rex","legs":null,"kind":"KIND_DOG","tags":["good","boy"],"owner":{"name":"Ann"}}}}`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
}

// Pattern: Result comparison
func TestDefaultTypeResolver_Result(t *testing.T) {
	pet := newPetMessage(t)

	tests := []struct {
		name  string
		value any
		want  string
	}{
		{name: "Typename key", value: map[string]any{"_typename": "Cat"}, want: "Cat"},
		{name: "TypeName method", value: dog{}, want: "Dog"},
		{name: "TypeName method through pointer", value: &dog{}, want: "Dog"},
		{name: "Proto message name", value: pet, want: "Pet"},
		{name: "Go type name", value: article{}, want: "article"},
		{name: "Go type name through pointer", value: &article{}, want: "article"},
		{name: "Map without typename", value: map[string]any{}, want: ""},
		{name: "Nil", value: nil, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DefaultTypeResolver(context.Background(), tt.value, nil, nil)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("DefaultTypeResolver mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
