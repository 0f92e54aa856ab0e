package gqlerrors

import (
	"fmt"
	"strconv"
	"strings"
)

// Path is an immutable response path. The nil *Path is the root. Paths share
// their prefix so concurrently executing siblings can extend the same parent.
type Path struct {
	Prev *Path
	Key  any // string or int
}

// With returns a new path with key appended.
func (p *Path) With(key any) *Path {
	return &Path{Prev: p, Key: key}
}

// AsList returns the path segments from the root.
func (p *Path) AsList() []any {
	n := 0
	for c := p; c != nil; c = c.Prev {
		n++
	}
	if n == 0 {
		return nil
	}
	out := make([]any, n)
	for c := p; c != nil; c = c.Prev {
		n--
		out[n] = c.Key
	}
	return out
}

// String renders the path the way it appears in coercion messages, e.g.
// "input.list[1]".
func (p *Path) String() string {
	var b strings.Builder
	for i, k := range p.AsList() {
		switch k := k.(type) {
		case int:
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(k))
			b.WriteByte(']')
		default:
			if i > 0 {
				b.WriteByte('.')
			}
			fmt.Fprint(&b, k)
		}
	}
	return b.String()
}
