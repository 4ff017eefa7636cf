// Package router maps (method, path) pairs to registered handlers,
// binding named path parameters along the way.
//
// Patterns are sequences of literal segments and parameter segments
// wrapped in angle markers:
//
//	r.Register("GET", "/hello/<name>", handler)
//
// Matching is lockstep per segment: literals must match exactly,
// parameter segments bind any single non-empty segment, and segment
// counts must agree. When several patterns match the same path, the one
// with a literal segment at the earliest differing position wins;
// remaining ties go to registration order. The route table is
// append-only during configuration and read-only while serving, so
// Resolve needs no locking.
package router

import (
	"fmt"
	"strings"

	"github.com/rakeweb/rake/pkg/protocol"
)

// Params holds named path parameters bound from a matched pattern.
type Params map[string]string

// Handler responds to a matched request.
type Handler interface {
	Serve(req *protocol.Request, params Params) *protocol.Response
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(req *protocol.Request, params Params) *protocol.Response

// Serve calls f.
func (f HandlerFunc) Serve(req *protocol.Request, params Params) *protocol.Response {
	return f(req, params)
}

type segment struct {
	literal string // empty when param
	param   string // parameter name when param segment
}

func (s segment) isParam() bool { return s.param != "" }

type route struct {
	method   string
	pattern  string // normalized pattern, for duplicate detection
	segments []segment
	handler  Handler
}

// Router is the route table. Register during configuration, then
// Resolve freely from any number of goroutines.
type Router struct {
	routes []route
}

// New creates an empty router.
func New() *Router {
	return &Router{}
}

// Register adds a route. The method is upper-cased; a trailing slash on
// the pattern is equivalent to its absence. Register panics on a
// malformed pattern or when the same (method, pattern) pair is
// registered twice; both are configuration bugs, caught at startup.
func (r *Router) Register(method, pattern string, h Handler) {
	if h == nil {
		panic("router: nil handler for " + pattern)
	}
	method = strings.ToUpper(method)
	segs, normalized, err := parsePattern(pattern)
	if err != nil {
		panic(fmt.Sprintf("router: %v", err))
	}
	for _, existing := range r.routes {
		if existing.method == method && existing.pattern == normalized {
			panic(fmt.Sprintf("router: duplicate route %s %s", method, pattern))
		}
	}
	r.routes = append(r.routes, route{
		method:   method,
		pattern:  normalized,
		segments: segs,
		handler:  h,
	})
}

// Resolve returns the handler and bound parameters for a request, or
// ok=false when no registered pattern matches. Resolve is a pure
// function of (method, path) for a fixed route table.
func (r *Router) Resolve(method, path string) (Handler, Params, bool) {
	method = strings.ToUpper(method)
	pathSegs := splitPath(path)

	best := -1
	for i, rt := range r.routes {
		if rt.method != method {
			continue
		}
		if !matches(rt.segments, pathSegs) {
			continue
		}
		if best == -1 || morePrecise(rt.segments, r.routes[best].segments) {
			best = i
		}
	}
	if best == -1 {
		return nil, nil, false
	}

	rt := r.routes[best]
	params := make(Params)
	for i, seg := range rt.segments {
		if seg.isParam() {
			params[seg.param] = pathSegs[i]
		}
	}
	return rt.handler, params, true
}

// Len returns the number of registered routes.
func (r *Router) Len() int {
	return len(r.routes)
}

func matches(pat []segment, path []string) bool {
	if len(pat) != len(path) {
		return false
	}
	for i, seg := range pat {
		if seg.isParam() {
			if path[i] == "" {
				return false
			}
			continue
		}
		if seg.literal != path[i] {
			return false
		}
	}
	return true
}

// morePrecise reports whether a beats b under the precedence rule:
// compare left to right, and at the first position where one pattern
// has a literal and the other a parameter, the literal wins. Equal
// shapes are not "more precise", preserving registration order.
func morePrecise(a, b []segment) bool {
	for i := range a {
		ap, bp := a[i].isParam(), b[i].isParam()
		if ap == bp {
			continue
		}
		return !ap
	}
	return false
}

func parsePattern(pattern string) ([]segment, string, error) {
	if pattern == "" || !strings.HasPrefix(pattern, "/") {
		return nil, "", fmt.Errorf("pattern %q must start with '/'", pattern)
	}
	raw := splitPath(pattern)
	segs := make([]segment, 0, len(raw))
	names := make(map[string]bool, len(raw))
	normalized := make([]string, 0, len(raw))
	for _, s := range raw {
		if strings.HasPrefix(s, "<") && strings.HasSuffix(s, ">") {
			name := s[1 : len(s)-1]
			if name == "" {
				return nil, "", fmt.Errorf("pattern %q has an unnamed parameter", pattern)
			}
			if names[name] {
				return nil, "", fmt.Errorf("pattern %q repeats parameter %q", pattern, name)
			}
			names[name] = true
			segs = append(segs, segment{param: name})
			normalized = append(normalized, "<"+name+">")
			continue
		}
		if strings.ContainsAny(s, "<>") {
			return nil, "", fmt.Errorf("pattern %q has a malformed segment %q", pattern, s)
		}
		segs = append(segs, segment{literal: s})
		normalized = append(normalized, s)
	}
	return segs, "/" + strings.Join(normalized, "/"), nil
}

// splitPath splits a slash path into segments, treating a trailing
// slash as equivalent to its absence. "/" yields zero segments.
func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
