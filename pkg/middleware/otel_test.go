package middleware

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/rakeweb/rake/pkg/protocol"
)

// recordTracerProvider hands out a single tracer that records every
// span it starts.
type recordTracerProvider struct {
	noop.TracerProvider
	tracer *recordTracer
}

func (p *recordTracerProvider) Tracer(string, ...trace.TracerOption) trace.Tracer {
	return p.tracer
}

type recordTracer struct {
	noop.Tracer
	spans []*recordSpan
}

func (t *recordTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	cfg := trace.NewSpanStartConfig(opts...)
	sp := &recordSpan{name: name, kind: cfg.SpanKind(), attrs: cfg.Attributes()}
	t.spans = append(t.spans, sp)
	return ctx, sp
}

type recordSpan struct {
	noop.Span
	name   string
	kind   trace.SpanKind
	attrs  []attribute.KeyValue
	status codes.Code
	ended  bool
}

func (s *recordSpan) SetAttributes(kv ...attribute.KeyValue) { s.attrs = append(s.attrs, kv...) }
func (s *recordSpan) SetStatus(c codes.Code, _ string)       { s.status = c }
func (s *recordSpan) End(...trace.SpanEndOption)             { s.ended = true }

func (s *recordSpan) attr(key string) (attribute.Value, bool) {
	for _, kv := range s.attrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func newRecorder() (*recordTracerProvider, *recordTracer) {
	tracer := &recordTracer{}
	return &recordTracerProvider{tracer: tracer}, tracer
}

func traceRequest(path string) *protocol.Request {
	return &protocol.Request{Method: "GET", Path: path, Header: make(protocol.Header)}
}

func TestOpenTelemetryMiddleware_RecordsServerSpan(t *testing.T) {
	provider, tracer := newRecorder()
	handler := OpenTelemetry(WithTracerProvider(provider))(func(req *protocol.Request) *protocol.Response {
		return protocol.Text(200, "ok")
	})

	resp := handler(traceRequest("/projects"))
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	if len(tracer.spans) != 1 {
		t.Fatalf("recorded %d spans, want 1", len(tracer.spans))
	}
	span := tracer.spans[0]
	if span.name != "GET /projects" {
		t.Errorf("span name = %q, want %q", span.name, "GET /projects")
	}
	if span.kind != trace.SpanKindServer {
		t.Errorf("span kind = %v, want server", span.kind)
	}
	if !span.ended {
		t.Error("span was not ended")
	}
	if v, ok := span.attr("http.request.method"); !ok || v.AsString() != "GET" {
		t.Errorf("http.request.method = %v, want GET", v)
	}
	if v, ok := span.attr("url.path"); !ok || v.AsString() != "/projects" {
		t.Errorf("url.path = %v, want /projects", v)
	}
	if v, ok := span.attr("http.response.status_code"); !ok || v.AsInt64() != 200 {
		t.Errorf("http.response.status_code = %v, want 200", v)
	}
	if span.status != codes.Ok {
		t.Errorf("span status = %v, want Ok", span.status)
	}
}

func TestOpenTelemetryMiddleware_ServerErrorSetsErrorStatus(t *testing.T) {
	provider, tracer := newRecorder()
	handler := OpenTelemetry(WithTracerProvider(provider))(func(req *protocol.Request) *protocol.Response {
		return protocol.Text(502, "upstream broke")
	})

	handler(traceRequest("/gateway"))

	if len(tracer.spans) != 1 {
		t.Fatalf("recorded %d spans, want 1", len(tracer.spans))
	}
	if tracer.spans[0].status != codes.Error {
		t.Errorf("span status = %v, want Error", tracer.spans[0].status)
	}
}

func TestOpenTelemetryMiddleware_FilterSkipsTracing(t *testing.T) {
	provider, tracer := newRecorder()
	nextCalled := false
	handler := OpenTelemetry(
		WithTracerProvider(provider),
		WithRequestFilter(func(req *protocol.Request) bool { return req.Path != "/healthz" }),
	)(func(req *protocol.Request) *protocol.Response {
		nextCalled = true
		return protocol.Text(200, "ok")
	})

	handler(traceRequest("/healthz"))

	if !nextCalled {
		t.Fatal("next was not called")
	}
	if len(tracer.spans) != 0 {
		t.Fatalf("recorded %d spans for a filtered request, want 0", len(tracer.spans))
	}
}

func TestOpenTelemetryMiddleware_AttributeExtractor(t *testing.T) {
	provider, tracer := newRecorder()
	handler := OpenTelemetry(
		WithTracerProvider(provider),
		WithAttributeExtractor(func(req *protocol.Request) []attribute.KeyValue {
			return []attribute.KeyValue{attribute.String("rake.tenant", "acme")}
		}),
	)(func(req *protocol.Request) *protocol.Response {
		return protocol.Text(200, "ok")
	})

	handler(traceRequest("/projects"))

	if len(tracer.spans) != 1 {
		t.Fatalf("recorded %d spans, want 1", len(tracer.spans))
	}
	if v, ok := tracer.spans[0].attr("rake.tenant"); !ok || v.AsString() != "acme" {
		t.Errorf("rake.tenant = %v, want acme", v)
	}
}
