// Package executor executes GraphQL operations against a baked schema.
//
// # Overview
//
// An Executor is built once per schema and shared by every request. Each call
// to ExecuteRequest or Subscribe gets its own execution context holding the
// selected operation, the coerced variables, the fragments of the document,
// the root value and an error collector.
//
// # Preparation
//
// Before execution, the executor:
//  1. Chooses the operation, by name or by uniqueness when unnamed.
//  2. Finds the root type of the operation (Query, Mutation or Subscription).
//  3. Coerces the provided variables against the variable definitions of the
//     operation. Any variable error stops execution and the result carries
//     null data.
//
// # Execution Model
//
// Execution is depth-first. The root selection set is collected into an
// ordered map of response keys, then each key is resolved and completed:
//
//   - Root fields of mutations run one after the other, each fully completed
//     before the next starts.
//   - Every other selection set, including nested selection sets of
//     mutations, runs its fields concurrently in an errgroup.
//   - Responses keep the order of collection, whatever the completion order.
//
// # Field Resolution
//
// For every field the executor coerces the arguments, builds the ResolveInfo
// and calls the resolver chain. The chain is the field resolver, or the
// default resolver, wrapped by the field's schema directives, which are in
// turn wrapped by the query directives placed on the field nodes. Panics are
// recovered and reported as field errors.
//
// # Value Completion
//
//   - Non-Null: complete the inner type; a null result is an error.
//   - List: complete each item at its index in the response path.
//   - Leaf: serialize through the scalar implementation or map the value onto
//     an enum value name.
//   - Abstract: resolve the concrete object type, check it is a possible type
//     and complete it as an object.
//   - Object: collect and execute the subfields.
//
// Output directives of the named return type wrap the completion of every
// value of that type.
//
// # Errors and Partial Success
//
// A field error at a nullable position nulls the field and is recorded. At a
// non-null position the error travels to the parent, which is nulled in turn,
// up to the nearest nullable ancestor. An error reaching the root nulls data.
//
// # Events
//
// Every resolver call publishes events.FieldStart and events.FieldFinish on
// the global event bus.
package executor
