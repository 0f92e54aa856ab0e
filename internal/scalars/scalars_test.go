package scalars

import (
	"context"
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2/ast"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/alexchamberlain/tartiflette/internal/schema"
)

func TestCoerceInput(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		scalar  schema.Scalar
		in      any
		want    any
		wantErr string
	}{
		{name: "int", scalar: Int{}, in: 12, want: 12},
		{name: "int from json float", scalar: Int{}, in: float64(12), want: 12},
		{name: "int from json number", scalar: Int{}, in: json.Number("7"), want: 7},
		{name: "int rejects bool", scalar: Int{}, in: true, wantErr: "Int cannot represent non-integer value: < true >"},
		{name: "int rejects fraction", scalar: Int{}, in: 1.5, wantErr: "Int cannot represent non-integer value: < 1.5 >"},
		{name: "int range", scalar: Int{}, in: 2147483648, wantErr: "Int cannot represent non 32-bit signed integer value: < 2147483648 >"},
		{name: "float", scalar: Float{}, in: 3, want: 3.0},
		{name: "float rejects inf", scalar: Float{}, in: math.Inf(1), wantErr: "Float cannot represent non numeric value: < +Inf >"},
		{name: "float rejects string", scalar: Float{}, in: "1", wantErr: "Float cannot represent non numeric value: < 1 >"},
		{name: "string", scalar: String{}, in: "a", want: "a"},
		{name: "string rejects int", scalar: String{}, in: 1, wantErr: "String cannot represent a non string value: < 1 >"},
		{name: "boolean", scalar: Boolean{}, in: false, want: false},
		{name: "boolean rejects int", scalar: Boolean{}, in: 0, wantErr: "Boolean cannot represent a non boolean value: < 0 >"},
		{name: "id from int", scalar: ID{}, in: float64(42), want: "42"},
		{name: "date", scalar: Date{}, in: "2019-03-04", want: time.Date(2019, 3, 4, 0, 0, 0, 0, time.UTC)},
		{name: "datetime", scalar: DateTime{}, in: "2019-03-04T05:06:07", want: time.Date(2019, 3, 4, 5, 6, 7, 0, time.UTC)},
		{name: "datetime rfc3339", scalar: DateTime{}, in: "2019-03-04T05:06:07Z", want: time.Date(2019, 3, 4, 5, 6, 7, 0, time.UTC)},
		{name: "time", scalar: Time{}, in: "05:06:07", want: time.Date(0, 1, 1, 5, 6, 7, 0, time.UTC)},
		{name: "date bad format", scalar: Date{}, in: "04/03/2019", wantErr: "Date cannot represent value: < 04/03/2019 >"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.scalar.CoerceInput(ctx, tt.in)
			if tt.wantErr != "" {
				require.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("coerced value mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCoerceOutput(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2019, 3, 4, 5, 6, 7, 0, time.UTC)
	tests := []struct {
		name   string
		scalar schema.Scalar
		in     any
		want   any
		fails  bool
	}{
		{name: "int from float", scalar: Int{}, in: 3.0, want: 3},
		{name: "int from string", scalar: Int{}, in: "12", want: 12},
		{name: "int from struct", scalar: Int{}, in: struct{}{}, fails: true},
		{name: "float from int64", scalar: Float{}, in: int64(2), want: 2.0},
		{name: "float rejects +Inf", scalar: Float{}, in: math.Inf(1), fails: true},
		{name: "float rejects NaN", scalar: Float{}, in: math.NaN(), fails: true},
		{name: "float rejects infinite string", scalar: Float{}, in: "Inf", fails: true},
		{name: "string from int", scalar: String{}, in: 5, want: "5"},
		{name: "boolean truthiness", scalar: Boolean{}, in: "x", want: true},
		{name: "date", scalar: Date{}, in: at, want: "2019-03-04"},
		{name: "datetime", scalar: DateTime{}, in: at, want: "2019-03-04T05:06:07"},
		{name: "datetime from timestamp", scalar: DateTime{}, in: timestamppb.New(at), want: "2019-03-04T05:06:07"},
		{name: "time", scalar: Time{}, in: &at, want: "05:06:07"},
		{name: "date from string", scalar: Date{}, in: "2019-03-04", fails: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.scalar.CoerceOutput(ctx, tt.in)
			if tt.fails {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestParseLiteral(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name   string
		scalar schema.Scalar
		in     *ast.Value
		want   any
		fails  bool
	}{
		{name: "int", scalar: Int{}, in: &ast.Value{Kind: ast.IntValue, Raw: "-3"}, want: -3},
		{name: "int out of range", scalar: Int{}, in: &ast.Value{Kind: ast.IntValue, Raw: "2147483648"}, fails: true},
		{name: "int from string", scalar: Int{}, in: &ast.Value{Kind: ast.StringValue, Raw: "3"}, fails: true},
		{name: "float from int", scalar: Float{}, in: &ast.Value{Kind: ast.IntValue, Raw: "3"}, want: 3.0},
		{name: "string", scalar: String{}, in: &ast.Value{Kind: ast.StringValue, Raw: "a"}, want: "a"},
		{name: "boolean", scalar: Boolean{}, in: &ast.Value{Kind: ast.BooleanValue, Raw: "true"}, want: true},
		{name: "id from int", scalar: ID{}, in: &ast.Value{Kind: ast.IntValue, Raw: "12"}, want: "12"},
		{name: "enum is not a string", scalar: String{}, in: &ast.Value{Kind: ast.EnumValue, Raw: "A"}, fails: true},
		{name: "date", scalar: Date{}, in: &ast.Value{Kind: ast.StringValue, Raw: "2019-03-04"}, want: time.Date(2019, 3, 4, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.scalar.ParseLiteral(ctx, tt.in)
			if tt.fails {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestBuiltinsCoverSDL(t *testing.T) {
	for _, name := range []string{"String", "Int", "Float", "Boolean", "ID", "Date", "DateTime", "Time"} {
		require.Contains(t, Builtins(), name)
		require.True(t, schema.IsBuiltin(name))
	}
}
