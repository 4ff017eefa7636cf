// Package rake is a small HTTP/1.1 web framework with its own wire
// codec, parameterized router, template engine, session store and
// static file serving.
//
// Create an App, register routes, and serve:
//
//	app := rake.New(rake.Config{Addr: "127.0.0.1:7878"})
//
//	app.Get("/hello/<name>", func(req *protocol.Request, params router.Params) *protocol.Response {
//	    return protocol.Text(200, "Hello, "+params["name"]+"!")
//	})
//
//	app.Static("/static", "public")
//	app.ListenAndServe()
//
// Handlers receive the decoded request and any path parameters bound
// by the router, and return a response the codec serializes back onto
// the connection. Each accepted connection is handled on its own
// goroutine; handlers must be safe for concurrent use.
package rake

import (
	"github.com/rakeweb/rake/pkg/router"
	"github.com/rakeweb/rake/pkg/template"
)

// Params is re-exported so handler signatures do not force an extra
// import on applications.
type Params = router.Params

// HandlerFunc adapts a plain function to a route handler.
type HandlerFunc = router.HandlerFunc

// TemplateContext carries placeholder values for one render call.
type TemplateContext = template.Context
