package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/rakeweb/rake/pkg/protocol"
)

// Default tracer name for rake servers.
const defaultTracerName = "rake"

// OTelConfig configures the OpenTelemetry middleware.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "rake").
	TracerName string

	// Filter decides which requests to trace. Nil traces everything.
	Filter func(req *protocol.Request) bool

	// AttributeExtractor adds custom attributes per request.
	AttributeExtractor func(req *protocol.Request) []attribute.KeyValue

	// TracerProvider supplies the tracer. Nil means the global
	// provider.
	TracerProvider trace.TracerProvider

	tracer trace.Tracer
}

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithRequestFilter sets a filter function for requests.
func WithRequestFilter(filter func(req *protocol.Request) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(req *protocol.Request) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

// WithTracerProvider sets the provider the tracer is taken from
// instead of the global one.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = tp
	}
}

// OpenTelemetry creates middleware that opens one server span per
// request, recording method, target and response status. The tracer
// comes from the global provider; configure it in main() before
// serving:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
func OpenTelemetry(opts ...OTelOption) Middleware {
	config := OTelConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	if config.TracerProvider != nil {
		config.tracer = config.TracerProvider.Tracer(config.TracerName)
	} else {
		config.tracer = otel.Tracer(config.TracerName)
	}

	return func(next Handler) Handler {
		return func(req *protocol.Request) *protocol.Response {
			if config.Filter != nil && !config.Filter(req) {
				return next(req)
			}

			attrs := []attribute.KeyValue{
				attribute.String("http.request.method", req.Method),
				attribute.String("url.path", req.Path),
			}
			if config.AttributeExtractor != nil {
				attrs = append(attrs, config.AttributeExtractor(req)...)
			}

			_, span := config.tracer.Start(
				context.Background(),
				req.Method+" "+req.Path,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(attrs...),
			)
			defer span.End()

			resp := next(req)

			if resp != nil {
				span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
				if resp.StatusCode >= 500 {
					span.SetStatus(codes.Error, protocol.StatusText(resp.StatusCode))
				} else {
					span.SetStatus(codes.Ok, "")
				}
			}
			return resp
		}
	}
}
