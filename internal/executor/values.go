package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/alexchamberlain/tartiflette/internal/gqlerrors"
	language "github.com/alexchamberlain/tartiflette/internal/language"
	schema "github.com/alexchamberlain/tartiflette/internal/schema"
)

// coerceVariableValues coerces the provided variables against the variable
// definitions of the operation. Any error aborts the operation.
func coerceVariableValues(ctx context.Context, s *schema.Schema, operation *language.OperationDefinition, inputs map[string]any) (map[string]any, []*gqlerrors.Error) {
	coerced := make(map[string]any, len(operation.VariableDefinitions))
	c := &coercer{schema: s}
	var errs []*gqlerrors.Error

	for _, def := range operation.VariableDefinitions {
		name := def.Variable
		ref := schema.TypeRefFromAST(def.Type)
		value, ok := inputs[name]
		if !ok {
			switch {
			case def.DefaultValue != nil:
				v, err := c.literal(ctx, ref, def.DefaultValue)
				if err != nil || v == undefined {
					errs = append(errs, gqlerrors.New(
						fmt.Sprintf("Variable < $%s > has invalid default value < %s >.", name, printLiteral(def.DefaultValue)), def.Position))
					continue
				}
				coerced[name] = v
			case ref.IsNonNull():
				errs = append(errs, gqlerrors.New(
					fmt.Sprintf("Variable < $%s > of required type < %s > was not provided.", name, ref), def.Position))
			}
			continue
		}
		if value == nil && ref.IsNonNull() {
			errs = append(errs, gqlerrors.New(
				fmt.Sprintf("Variable < $%s > of non-null type < %s > must not be null.", name, ref), def.Position))
			continue
		}

		r := c.input(ctx, ref, value, def.Position, nil)
		if len(r.errs) > 0 {
			for _, e := range r.errs {
				errs = append(errs, &gqlerrors.Error{
					Message:   fmt.Sprintf("Variable < $%s > got invalid value < %s >; %s", name, printValue(value), e.Message),
					Locations: e.Locations,
					Err:       e.Err,
				})
			}
			continue
		}
		coerced[name] = r.value
	}
	return coerced, errs
}

// coerceArguments coerces the arguments of a field or directive. Arguments
// are coerced concurrently and every failure is reported. Arguments without
// a value nor a default are left out of the result.
func (ec *executionContext) coerceArguments(ctx context.Context, defs []*schema.InputValue, nodes language.ArgumentList, pos *language.Position) (map[string]any, error) {
	values := make(map[string]any, len(defs))
	if len(defs) == 0 {
		return values, nil
	}

	type outcome struct {
		value any
		err   error
	}
	results := make([]outcome, len(defs))
	var g errgroup.Group
	for i, def := range defs {
		g.Go(func() error {
			var r outcome
			defer func() { results[i] = r }()
			defer ec.recoverError(&r.err, "argument coercion panicked", zap.String("argument", def.Name))
			r.value, r.err = ec.coerceArgument(ctx, def, nodes.ForName(def.Name), pos)
			return nil
		})
	}
	_ = g.Wait()

	var errs gqlerrors.List
	for i, def := range defs {
		r := results[i]
		if r.err != nil {
			var argPos *language.Position
			if node := nodes.ForName(def.Name); node != nil {
				argPos = node.Position
			}
			errs = append(errs, gqlerrors.Located(r.err, nil, argPos)...)
			continue
		}
		if r.value != undefined {
			values[def.Name] = r.value
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return values, nil
}

func (ec *executionContext) coerceArgument(ctx context.Context, def *schema.InputValue, node *language.Argument, pos *language.Position) (any, error) {
	var (
		hasValue, isNull bool
		variable         string
	)
	if node != nil && node.Value.Kind == language.Variable {
		variable = node.Value.Raw
		v, ok := ec.values.variables[variable]
		hasValue = ok
		isNull = ok && v == nil
	} else {
		hasValue = node != nil
		isNull = node != nil && node.Value.Kind == language.NullValue
	}

	value := undefined
	switch {
	case !hasValue && def.HasDefault:
		value = def.DefaultValue
	case (!hasValue || isNull) && def.Type.IsNonNull():
		if isNull {
			return nil, gqlerrors.New(
				fmt.Sprintf("Argument < %s > of non-null type < %s > must not be null.", def.Name, def.Type), node.Value.Position)
		}
		if variable != "" {
			return nil, gqlerrors.New(
				fmt.Sprintf("Argument < %s > of required type < %s > was provided the variable < $%s > which was not provided a runtime value.", def.Name, def.Type, variable), node.Value.Position)
		}
		return nil, gqlerrors.New(
			fmt.Sprintf("Argument < %s > of required type < %s > was not provided.", def.Name, def.Type), pos)
	case hasValue:
		switch {
		case node.Value.Kind == language.NullValue:
			value = nil
		case variable != "":
			value = ec.values.variables[variable]
		default:
			v, err := ec.values.literal(ctx, def.Type, node.Value)
			if err != nil {
				return nil, err
			}
			if v == undefined {
				return nil, gqlerrors.New(
					fmt.Sprintf("Argument < %s > has invalid value < %s >.", def.Name, printLiteral(node.Value)), node.Value.Position)
			}
			value = v
		}
	}

	if value == undefined || len(def.Instances) == 0 {
		return value, nil
	}
	return schema.WrapArgumentExecution(def.Instances, def, passthrough)(ctx, value)
}

// printLiteral renders a literal the way it appears in a query.
func printLiteral(v *language.Value) string {
	if v == nil {
		return ""
	}
	switch v.Kind {
	case language.Variable:
		return "$" + v.Raw
	case language.StringValue, language.BlockValue:
		return strconv.Quote(v.Raw)
	case language.ListValue:
		items := make([]string, len(v.Children))
		for i, c := range v.Children {
			items[i] = printLiteral(c.Value)
		}
		return "[" + strings.Join(items, ", ") + "]"
	case language.ObjectValue:
		fields := make([]string, len(v.Children))
		for i, c := range v.Children {
			fields[i] = c.Name + ": " + printLiteral(c.Value)
		}
		return "{" + strings.Join(fields, ", ") + "}"
	}
	return v.Raw
}

// printValue renders a runtime value as JSON, falling back to Go syntax for
// values JSON cannot represent.
func printValue(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
