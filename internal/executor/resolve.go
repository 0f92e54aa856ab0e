package executor

import (
	"context"
	"reflect"
	"strings"
	"sync"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"

	schema "github.com/alexchamberlain/tartiflette/internal/schema"
)

// DefaultResolver reads the field from the parent value. Maps are indexed by
// field name. Struct fields match a `graphql` tag, then a `json` tag, then
// their name ignoring case. Protobuf messages match the JSON or proto name
// of a field. Anything else resolves to null.
func DefaultResolver(_ context.Context, parent any, _ map[string]any, info *schema.ResolveInfo) (any, error) {
	return fieldValue(parent, info.FieldName), nil
}

// DefaultTypeResolver names the concrete type of value from a "_typename"
// map key, a TypeName method, the protobuf message name, or else the Go type
// name.
func DefaultTypeResolver(_ context.Context, value any, _ *schema.ResolveInfo, _ *schema.Type) (string, error) {
	switch v := value.(type) {
	case map[string]any:
		if name, ok := v["_typename"].(string); ok {
			return name, nil
		}
	case interface{ TypeName() string }:
		return v.TypeName(), nil
	case proto.Message:
		return string(v.ProtoReflect().Descriptor().Name()), nil
	}
	t := reflect.TypeOf(value)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "", nil
	}
	return t.Name(), nil
}

func fieldValue(parent any, name string) any {
	switch p := parent.(type) {
	case nil:
		return nil
	case map[string]any:
		return p[name]
	case proto.Message:
		return protoFieldValue(p.ProtoReflect(), name)
	}

	rv := reflect.ValueOf(parent)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil
		}
		v := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
		if !v.IsValid() {
			return nil
		}
		return v.Interface()
	case reflect.Struct:
		index, ok := structFields(rv.Type()).lookup(name)
		if !ok {
			return nil
		}
		v, err := rv.FieldByIndexErr(index)
		if err != nil {
			return nil
		}
		return v.Interface()
	}
	return nil
}

// fieldIndex maps GraphQL field names to struct field indexes.
type fieldIndex struct {
	tagged      map[string][]int
	json        map[string][]int
	byLowerName map[string][]int
}

func (fi *fieldIndex) lookup(name string) ([]int, bool) {
	if idx, ok := fi.tagged[name]; ok {
		return idx, true
	}
	if idx, ok := fi.json[name]; ok {
		return idx, true
	}
	idx, ok := fi.byLowerName[strings.ToLower(name)]
	return idx, ok
}

var fieldIndexCache sync.Map // reflect.Type -> *fieldIndex

func structFields(t reflect.Type) *fieldIndex {
	if cached, ok := fieldIndexCache.Load(t); ok {
		return cached.(*fieldIndex)
	}
	fi := &fieldIndex{
		tagged:      map[string][]int{},
		json:        map[string][]int{},
		byLowerName: map[string][]int{},
	}
	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() || f.Anonymous {
			continue
		}
		if name := tagName(f.Tag.Get("graphql")); name != "" && name != "-" {
			fi.tagged[name] = f.Index
		}
		if name := tagName(f.Tag.Get("json")); name != "" && name != "-" {
			fi.json[name] = f.Index
		}
		lower := strings.ToLower(f.Name)
		if _, ok := fi.byLowerName[lower]; !ok {
			fi.byLowerName[lower] = f.Index
		}
	}
	actual, _ := fieldIndexCache.LoadOrStore(t, fi)
	return actual.(*fieldIndex)
}

func tagName(tag string) string {
	name, _, _ := strings.Cut(tag, ",")
	return name
}

func protoFieldValue(m protoreflect.Message, name string) any {
	fields := m.Descriptor().Fields()
	fd := fields.ByJSONName(name)
	if fd == nil {
		fd = fields.ByName(protoreflect.Name(name))
	}
	if fd == nil {
		return nil
	}
	if fd.HasPresence() && !m.Has(fd) {
		return nil
	}
	v := m.Get(fd)
	switch {
	case fd.IsList():
		list := v.List()
		out := make([]any, list.Len())
		for i := range out {
			out[i] = protoScalar(fd, list.Get(i))
		}
		return out
	case fd.IsMap():
		out := make(map[string]any, v.Map().Len())
		v.Map().Range(func(k protoreflect.MapKey, mv protoreflect.Value) bool {
			out[k.String()] = protoScalar(fd.MapValue(), mv)
			return true
		})
		return out
	}
	return protoScalar(fd, v)
}

func protoScalar(fd protoreflect.FieldDescriptor, v protoreflect.Value) any {
	switch fd.Kind() {
	case protoreflect.MessageKind, protoreflect.GroupKind:
		return v.Message().Interface()
	case protoreflect.EnumKind:
		if ev := fd.Enum().Values().ByNumber(v.Enum()); ev != nil {
			return string(ev.Name())
		}
		return int32(v.Enum())
	}
	return v.Interface()
}
