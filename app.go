package rake

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"

	"github.com/rakeweb/rake/pkg/files"
	"github.com/rakeweb/rake/pkg/middleware"
	"github.com/rakeweb/rake/pkg/protocol"
	"github.com/rakeweb/rake/pkg/router"
	"github.com/rakeweb/rake/pkg/session"
	"github.com/rakeweb/rake/pkg/template"
)

// =============================================================================
// App Type
// =============================================================================

// ErrorHandler produces the response body for a given error status.
// Registered per status code via App.ErrorHandler.
type ErrorHandler func(req *protocol.Request, code int) *protocol.Response

// App is the server façade. It owns the configuration, the route
// table, the static mount, the template engine and the session store,
// and composes them into the per-request pipeline.
//
// Route registration is not safe to run concurrently with serving;
// register everything before ListenAndServe.
type App struct {
	config Config
	logger *slog.Logger

	router   *router.Router
	sessions *session.Store
	engine   template.Engine

	static       files.Source
	staticPrefix string

	middlewares   []middleware.Middleware
	errorHandlers map[int]ErrorHandler

	// Listener lifecycle, owned by conn.go.
	mu       sync.Mutex
	listener net.Listener
	closed   bool
	conns    sync.WaitGroup
}

// New creates an application with the given configuration.
func New(cfg Config) *App {
	cfg.applyDefaults()

	app := &App{
		config:        cfg,
		logger:        cfg.Logger,
		router:        router.New(),
		sessions:      session.NewStore(cfg.Session.TTL),
		engine:        template.NewSimple(),
		errorHandlers: make(map[int]ErrorHandler),
	}

	if cfg.Static.Dir != "" {
		app.static = files.NewDisk(cfg.Static.Dir)
		app.staticPrefix = cfg.Static.Prefix
	}

	return app
}

// =============================================================================
// Registration API
// =============================================================================

// Route registers a handler for the given method and pattern.
// Patterns consist of literal segments and angle-bracket parameter
// segments, e.g. "/hello/<name>". Panics on malformed or duplicate
// patterns, matching the fail-fast behavior of configuration errors.
func (a *App) Route(method, pattern string, h router.Handler) {
	a.router.Register(method, pattern, h)
}

// Get registers a GET route.
func (a *App) Get(pattern string, h router.HandlerFunc) { a.Route("GET", pattern, h) }

// Post registers a POST route.
func (a *App) Post(pattern string, h router.HandlerFunc) { a.Route("POST", pattern, h) }

// Put registers a PUT route.
func (a *App) Put(pattern string, h router.HandlerFunc) { a.Route("PUT", pattern, h) }

// Delete registers a DELETE route.
func (a *App) Delete(pattern string, h router.HandlerFunc) { a.Route("DELETE", pattern, h) }

// Static mounts a filesystem directory under a URL prefix. Requests
// below the prefix that match no route are served from dir.
func (a *App) Static(prefix, dir string) {
	a.StaticSource(prefix, files.NewDisk(dir))
}

// StaticSource mounts an arbitrary file source (disk, S3, ...) under
// a URL prefix.
func (a *App) StaticSource(prefix string, src files.Source) {
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	a.staticPrefix = prefix
	a.static = src
}

// SetTemplateEngine swaps the template engine. The engine is shared
// across all handlers and must be safe for concurrent use.
func (a *App) SetTemplateEngine(e template.Engine) {
	if e != nil {
		a.engine = e
	}
}

// Use appends a middleware to the chain. Middlewares run in
// registration order, first registered outermost.
func (a *App) Use(mw middleware.Middleware) {
	a.middlewares = append(a.middlewares, mw)
}

// Before registers a middleware that runs ahead of routing and may
// short-circuit by returning a non-nil response.
func (a *App) Before(fn func(req *protocol.Request) *protocol.Response) {
	a.Use(middleware.Before(fn))
}

// After registers a middleware that may mutate the outgoing response.
func (a *App) After(fn func(req *protocol.Request, resp *protocol.Response)) {
	a.Use(middleware.After(fn))
}

// ErrorHandler registers a custom response for an error status code,
// e.g. a branded 404 page.
func (a *App) ErrorHandler(code int, fn ErrorHandler) {
	a.errorHandlers[code] = fn
}

// Sessions exposes the session store, for handlers that read or write
// session values.
func (a *App) Sessions() *session.Store { return a.sessions }

// Templates exposes the template engine held by the app.
func (a *App) Templates() template.Engine { return a.engine }

// Render substitutes ctx into an inline template string.
func (a *App) Render(src string, ctx template.Context) string {
	return a.engine.Render(src, ctx)
}

// RenderFile renders a template file, falling back to a stub body when
// the file cannot be read.
func (a *App) RenderFile(path string, ctx template.Context) string {
	return a.engine.RenderFile(path, ctx)
}

// =============================================================================
// Request Pipeline
// =============================================================================

// ensureSession returns the live session for a request, creating one
// when the request carries no valid session cookie. The bool reports
// whether the session was newly created, in which case the dispatcher
// sets the cookie on the response.
func (a *App) ensureSession(req *protocol.Request) (*session.Session, bool, error) {
	if id := a.sessionID(req); id != "" {
		if sess, ok := a.sessions.Get(id); ok {
			return sess, false, nil
		}
	}
	sess, err := a.sessions.Create()
	if err != nil {
		return nil, false, err
	}
	return sess, true, nil
}

// Session returns the session referenced by the request's cookie, if
// it is still live.
func (a *App) Session(req *protocol.Request) (*session.Session, bool) {
	id := a.sessionID(req)
	if id == "" {
		return nil, false
	}
	return a.sessions.Get(id)
}

// sessionID extracts the session cookie value from a request.
func (a *App) sessionID(req *protocol.Request) string {
	header := req.HeaderValue("cookie")
	if header == "" {
		return ""
	}
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		if k, v, ok := strings.Cut(part, "="); ok && k == a.config.Session.CookieName {
			return v
		}
	}
	return ""
}

// handle runs one decoded request through middleware, routing and the
// static fallback, and always produces a response.
func (a *App) handle(req *protocol.Request) *protocol.Response {
	return middleware.Chain(a.dispatch, a.middlewares...)(req)
}

// dispatch resolves the request to a route handler or a static file.
func (a *App) dispatch(req *protocol.Request) *protocol.Response {
	if h, params, ok := a.router.Resolve(req.Method, req.Path); ok {
		req.PathParams = params
		resp := h.Serve(req, params)
		if resp == nil {
			return a.errorResponse(req, 500)
		}
		return resp
	}

	// The static fallback only answers safe methods.
	if req.Method == "GET" || req.Method == "HEAD" {
		resp, outcome := a.resolveStatic(context.Background(), req.Path)
		switch outcome {
		case staticServed:
			return resp
		case staticForbidden:
			return a.errorResponse(req, 403)
		}
	}

	return a.errorResponse(req, 404)
}

// errorResponse builds the response for an error status, honoring a
// registered custom handler.
func (a *App) errorResponse(req *protocol.Request, code int) *protocol.Response {
	if fn, ok := a.errorHandlers[code]; ok {
		if resp := fn(req, code); resp != nil {
			return resp
		}
	}
	return protocol.Text(code, fmt.Sprintf("%d %s", code, protocol.StatusText(code)))
}
