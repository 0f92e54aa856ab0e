// Package language parses GraphQL documents. AST types are aliases of the
// gqlparser ones so the rest of the module never imports the parser
// directly.
package language

import (
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// ParseQuery parses an executable document. Failures are *Error values
// with the offending location.
func ParseQuery(query string) (*QueryDocument, error) {
	doc, err := parser.ParseQuery(&ast.Source{Name: "query", Input: query})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ParseSchemas parses several SDL sources into a single document. Type
// extensions are kept as extensions; merging them is left to the caller.
func ParseSchemas(sources ...*Source) (*SchemaDocument, error) {
	doc, err := parser.ParseSchemas(sources...)
	if err != nil {
		return nil, err
	}
	return doc, nil
}
