package gqlerrors

import (
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
)

// Coercion returns an input coercion error. The message is extended with the
// path inside the coerced value and with sub, when present:
//
//	Expected type < Int > at value.list[1]; Int cannot represent ...
func Coercion(message string, pos *ast.Position, path *Path, sub string, cause error) *Error {
	var b strings.Builder
	b.WriteString(message)
	if path != nil {
		b.WriteString(" at value")
		s := path.String()
		if !strings.HasPrefix(s, "[") {
			b.WriteByte('.')
		}
		b.WriteString(s)
	}
	if sub != "" {
		b.WriteString("; ")
		b.WriteString(sub)
	}
	b.WriteByte('.')
	e := New(b.String(), pos)
	e.Err = cause
	return e
}
