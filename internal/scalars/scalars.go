// Package scalars implements the built-in scalar types.
package scalars

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/alexchamberlain/tartiflette/internal/schema"
)

// Builtins returns the implementations of the scalars declared by
// schema.BuiltinSDL.
func Builtins() map[string]schema.Scalar {
	return map[string]schema.Scalar{
		"Int":      Int{},
		"Float":    Float{},
		"String":   String{},
		"Boolean":  Boolean{},
		"ID":       ID{},
		"Date":     Date{},
		"DateTime": DateTime{},
		"Time":     Time{},
	}
}

func invalidLiteral(name string, v *ast.Value) error {
	return fmt.Errorf("%s cannot represent literal %s", name, v)
}

// toFloat converts any Go numeric, including json.Number, to float64.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// toInt converts integral Go numerics to int64. Floats are accepted when
// they hold an integral value.
func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), n <= math.MaxInt64
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), n <= math.MaxInt64
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return toInt(f)
	case float32:
		return toInt(float64(n))
	case float64:
		if math.Trunc(n) != n || math.IsInf(n, 0) || n > math.MaxInt64 || n < math.MinInt64 {
			return 0, false
		}
		return int64(n), true
	}
	return 0, false
}

func parseNumericString(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}
