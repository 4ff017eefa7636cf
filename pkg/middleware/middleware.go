// Package middleware wraps request dispatch with cross-cutting
// behavior: short-circuiting before-hooks, response-mutating
// after-hooks, Prometheus metrics and OpenTelemetry tracing.
package middleware

import (
	"github.com/rakeweb/rake/pkg/protocol"
)

// Handler is the dispatch function a middleware wraps: one request in,
// one response out. Route resolution, static fallback and error pages
// all sit behind it.
type Handler func(req *protocol.Request) *protocol.Response

// Middleware decorates a Handler.
type Middleware func(next Handler) Handler

// Chain composes middlewares so the first one listed is outermost.
func Chain(h Handler, mws ...Middleware) Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// Before adapts a pre-dispatch hook. When fn returns a non-nil
// response, dispatch is short-circuited and that response is sent.
func Before(fn func(req *protocol.Request) *protocol.Response) Middleware {
	return func(next Handler) Handler {
		return func(req *protocol.Request) *protocol.Response {
			if resp := fn(req); resp != nil {
				return resp
			}
			return next(req)
		}
	}
}

// After adapts a post-dispatch hook that may inspect or mutate the
// response before it is encoded.
func After(fn func(req *protocol.Request, resp *protocol.Response)) Middleware {
	return func(next Handler) Handler {
		return func(req *protocol.Request) *protocol.Response {
			resp := next(req)
			if resp != nil {
				fn(req, resp)
			}
			return resp
		}
	}
}
