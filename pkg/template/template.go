// Package template provides placeholder substitution for response
// bodies.
//
// This is not a general templating system: rendering is literal
// replacement of `{{key}}` and `{{ key }}` placeholders from a
// per-call context. Anything the context does not name, including
// partially spaced forms like `{{key }}`, is left in the output
// verbatim.
package template

import (
	"os"
	"sort"
	"strings"
)

// FileFallback is returned in place of a template whose file source
// cannot be read, so a broken template never aborts a response.
const FileFallback = "<h1>Template not found</h1>"

// Context maps placeholder names to substitution strings. It is
// transient, scoped to a single render call.
type Context map[string]string

// Engine renders template text against a context. The server façade
// holds one shared engine instance; implementations must be safe for
// concurrent use.
type Engine interface {
	// Render substitutes placeholders in the inline template src.
	Render(src string, ctx Context) string

	// RenderFile reads the template at path and renders it. A file
	// that cannot be read yields a defined fallback body instead of an
	// error.
	RenderFile(path string, ctx Context) string
}

// Simple is the stateless default Engine.
type Simple struct{}

// NewSimple returns the default placeholder-substitution engine.
func NewSimple() *Simple {
	return &Simple{}
}

// Render replaces every occurrence of each context key's placeholder
// forms. Keys are applied in sorted order so rendering is deterministic:
// the same template and context always produce byte-identical output.
func (*Simple) Render(src string, ctx Context) string {
	if len(ctx) == 0 {
		return src
	}
	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := src
	for _, k := range keys {
		v := ctx[k]
		out = strings.ReplaceAll(out, "{{ "+k+" }}", v)
		out = strings.ReplaceAll(out, "{{"+k+"}}", v)
	}
	return out
}

// RenderFile renders the template stored at path, substituting
// FileFallback for an unreadable source.
func (e *Simple) RenderFile(path string, ctx Context) string {
	raw, err := os.ReadFile(path)
	if err != nil {
		return FileFallback
	}
	return e.Render(string(raw), ctx)
}
