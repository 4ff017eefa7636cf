package protocol

// Response is one HTTP response, constructed by a handler or the static
// resolver and consumed exactly once by WriteResponse.
type Response struct {
	// StatusCode is the HTTP status (100–599).
	StatusCode int

	// Body is the response payload, written verbatim.
	Body []byte

	// ContentType becomes the Content-Type header.
	ContentType string

	// Header holds additional response headers. Content-Length,
	// Content-Type and Connection are managed by the codec and
	// overwritten if present here.
	Header Header
}

// NewResponse creates a response with the given status, body and
// content type.
func NewResponse(status int, body []byte, contentType string) *Response {
	return &Response{
		StatusCode:  status,
		Body:        body,
		ContentType: contentType,
		Header:      make(Header),
	}
}

// Text creates a text/plain response.
func Text(status int, body string) *Response {
	return NewResponse(status, []byte(body), "text/plain; charset=utf-8")
}

// HTML creates a text/html response.
func HTML(status int, body string) *Response {
	return NewResponse(status, []byte(body), "text/html; charset=utf-8")
}

// WithHeader sets an additional header and returns the response for
// chaining.
func (r *Response) WithHeader(key, value string) *Response {
	if r.Header == nil {
		r.Header = make(Header)
	}
	r.Header.Set(key, value)
	return r
}

// StatusText returns the standard reason phrase for code, or "" when
// the code is unknown; WriteResponse falls back to a bare phrase.
func StatusText(code int) string {
	switch code {
	case 200:
		return "OK"
	case 201:
		return "Created"
	case 204:
		return "No Content"
	case 301:
		return "Moved Permanently"
	case 302:
		return "Found"
	case 304:
		return "Not Modified"
	case 400:
		return "Bad Request"
	case 401:
		return "Unauthorized"
	case 403:
		return "Forbidden"
	case 404:
		return "Not Found"
	case 405:
		return "Method Not Allowed"
	case 413:
		return "Content Too Large"
	case 500:
		return "Internal Server Error"
	case 501:
		return "Not Implemented"
	default:
		return ""
	}
}
