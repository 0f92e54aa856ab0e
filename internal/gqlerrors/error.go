// Package gqlerrors holds the error model of the execution engine: response
// paths, errors located in the query document, and coercion errors.
package gqlerrors

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Error is a response error.
type Error struct {
	Message    string
	Locations  []Location
	Path       []any
	Extensions map[string]any

	// Err is the error this one was built from, if any.
	Err error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

type jsonError struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path"`
	Locations  []Location     `json:"locations"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

func (e *Error) MarshalJSON() ([]byte, error) {
	locs := e.Locations
	if locs == nil {
		locs = []Location{}
	}
	return json.Marshal(jsonError{
		Message:    e.Message,
		Path:       e.Path,
		Locations:  locs,
		Extensions: e.Extensions,
	})
}

// Extender is implemented by errors carrying response extensions.
type Extender interface {
	Extensions() map[string]any
}

// New returns an error located at the given source positions.
func New(message string, positions ...*ast.Position) *Error {
	return &Error{Message: message, Locations: locationsOf(positions)}
}

func locationsOf(positions []*ast.Position) []Location {
	var locs []Location
	for _, pos := range positions {
		if pos != nil {
			locs = append(locs, Location{Line: pos.Line, Column: pos.Column})
		}
	}
	return locs
}

// Located turns err into response errors located at positions and path. Errors
// that already carry a location or path keep it. Joined errors are
// flattened so each one becomes a separate response error.
func Located(err error, path *Path, positions ...*ast.Position) []*Error {
	var out []*Error
	for _, e := range Flatten(err) {
		var gerr *Error
		if !errors.As(e, &gerr) {
			gerr = fromError(e)
		} else {
			cp := *gerr
			gerr = &cp
		}
		if gerr.Path == nil && path != nil {
			gerr.Path = path.AsList()
		}
		if len(gerr.Locations) == 0 {
			gerr.Locations = locationsOf(positions)
		}
		out = append(out, gerr)
	}
	return out
}

func fromError(err error) *Error {
	out := &Error{Message: err.Error(), Err: err}
	var ext Extender
	if errors.As(err, &ext) {
		out.Extensions = ext.Extensions()
	}
	var perr *gqlerror.Error
	if errors.As(err, &perr) {
		out.Message = perr.Message
		for _, l := range perr.Locations {
			out.Locations = append(out.Locations, Location{Line: l.Line, Column: l.Column})
		}
		if out.Extensions == nil && len(perr.Extensions) > 0 {
			out.Extensions = perr.Extensions
		}
	}
	return out
}

// Flatten unpacks errors built with errors.Join, recursively.
func Flatten(err error) []error {
	if err == nil {
		return nil
	}
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range j.Unwrap() {
			out = append(out, Flatten(e)...)
		}
		return out
	}
	return []error{err}
}

// List is a list of response errors usable as a single error value.
type List []*Error

func (l List) Error() string {
	if len(l) == 0 {
		return ""
	}
	if len(l) == 1 {
		return l[0].Message
	}
	return fmt.Sprintf("%s (and %d more errors)", l[0].Message, len(l)-1)
}

func (l List) Unwrap() []error {
	out := make([]error, len(l))
	for i, e := range l {
		out[i] = e
	}
	return out
}
