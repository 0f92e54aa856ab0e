package scalars

import (
	"context"
	"fmt"
	"time"

	"github.com/vektah/gqlparser/v2/ast"
	"google.golang.org/protobuf/types/known/timestamppb"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02T15:04:05"
	timeLayout     = "15:04:05"
)

// layoutScalar formats and parses time.Time values with a fixed layout.
type layoutScalar struct {
	name   string
	layout string
	// extra layouts accepted on input
	inputLayouts []string
}

func (s layoutScalar) output(value any) (any, error) {
	switch v := value.(type) {
	case time.Time:
		return v.Format(s.layout), nil
	case *time.Time:
		if v != nil {
			return v.Format(s.layout), nil
		}
	case *timestamppb.Timestamp:
		if v != nil {
			return v.AsTime().Format(s.layout), nil
		}
	}
	return nil, fmt.Errorf("%s cannot represent value: < %v >", s.name, value)
}

func (s layoutScalar) parse(value string) (time.Time, error) {
	t, err := time.Parse(s.layout, value)
	if err == nil {
		return t, nil
	}
	for _, layout := range s.inputLayouts {
		if t, lerr := time.Parse(layout, value); lerr == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%s cannot represent value: < %s >", s.name, value)
}

func (s layoutScalar) input(value any) (any, error) {
	str, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("%s cannot represent a non string value: < %v >", s.name, value)
	}
	return s.parse(str)
}

func (s layoutScalar) literal(value *ast.Value) (any, error) {
	if value.Kind != ast.StringValue {
		return nil, invalidLiteral(s.name, value)
	}
	return s.parse(value.Raw)
}

var (
	dateScalar     = layoutScalar{name: "Date", layout: dateLayout}
	dateTimeScalar = layoutScalar{name: "DateTime", layout: dateTimeLayout, inputLayouts: []string{time.RFC3339, time.RFC3339Nano}}
	timeScalar     = layoutScalar{name: "Time", layout: timeLayout}
)

// Date is a calendar date, YYYY-MM-DD.
type Date struct{}

func (Date) CoerceOutput(_ context.Context, v any) (any, error)        { return dateScalar.output(v) }
func (Date) CoerceInput(_ context.Context, v any) (any, error)         { return dateScalar.input(v) }
func (Date) ParseLiteral(_ context.Context, v *ast.Value) (any, error) { return dateScalar.literal(v) }

// DateTime is a date and time, YYYY-MM-DDTHH:MM:SS. RFC 3339 strings are
// accepted as input. Protobuf timestamps are accepted as output.
type DateTime struct{}

func (DateTime) CoerceOutput(_ context.Context, v any) (any, error) { return dateTimeScalar.output(v) }
func (DateTime) CoerceInput(_ context.Context, v any) (any, error)  { return dateTimeScalar.input(v) }
func (DateTime) ParseLiteral(_ context.Context, v *ast.Value) (any, error) {
	return dateTimeScalar.literal(v)
}

// Time is a time of day, HH:MM:SS.
type Time struct{}

func (Time) CoerceOutput(_ context.Context, v any) (any, error)        { return timeScalar.output(v) }
func (Time) CoerceInput(_ context.Context, v any) (any, error)         { return timeScalar.input(v) }
func (Time) ParseLiteral(_ context.Context, v *ast.Value) (any, error) { return timeScalar.literal(v) }
