package protocol

import (
	"net/url"
	"strings"
)

// Request is one parsed HTTP request. It is constructed by ReadRequest
// and owned exclusively by the goroutine handling its connection for
// the duration of the request; nothing mutates it after construction
// except the router, which populates PathParams on a successful match.
type Request struct {
	// Method is the upper-cased request verb (GET, POST, ...).
	Method string

	// Path is the request path: percent-decoded, query string removed,
	// always starting with "/".
	Path string

	// RawTarget is the request target exactly as it appeared on the
	// request line, before decoding.
	RawTarget string

	// Proto is "HTTP/1.0" or "HTTP/1.1".
	Proto string

	// Query holds decoded query parameters. Duplicate keys are
	// last-write-wins; ordering is not preserved.
	Query map[string]string

	// Header holds the request header fields.
	Header Header

	// Body is the raw request body; empty when no body was sent.
	Body []byte

	// PathParams holds named values bound by the router from parameter
	// segments, e.g. {"name": "Ada"} for /hello/<name>.
	PathParams map[string]string

	// RemoteAddr is the peer address, filled in by the dispatcher.
	RemoteAddr string
}

// HeaderValue returns the value of a header field, case-insensitively.
func (r *Request) HeaderValue(key string) string {
	return r.Header.Get(key)
}

// QueryParam returns the value of a query parameter, or "" if absent.
func (r *Request) QueryParam(key string) string {
	return r.Query[key]
}

// PathParam returns a named path parameter bound by the router.
func (r *Request) PathParam(key string) string {
	return r.PathParams[key]
}

// FormData parses the body as application/x-www-form-urlencoded and
// returns the decoded key/value pairs. Pairs without "=" and pairs that
// fail to decode are skipped; duplicate keys are last-write-wins.
func (r *Request) FormData() map[string]string {
	return parseURLEncoded(string(r.Body))
}

func parseURLEncoded(s string) map[string]string {
	out := make(map[string]string)
	for _, pair := range strings.Split(s, "&") {
		if pair == "" {
			continue
		}
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		dk, err := url.QueryUnescape(k)
		if err != nil {
			continue
		}
		dv, err := url.QueryUnescape(v)
		if err != nil {
			continue
		}
		out[dk] = dv
	}
	return out
}
