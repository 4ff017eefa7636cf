// Package protocol implements the HTTP/1.1 wire codec for rake.
//
// The codec is a pure transformation layer: ReadRequest parses bytes
// from a buffered reader into a Request, and WriteResponse serializes a
// Response back onto the wire. All socket lifecycle concerns (deadlines,
// keep-alive loops, closing) belong to the connection dispatcher in the
// root package.
//
// Framing follows RFC 7230 at the level this server needs: a request
// line, header fields terminated by an empty line, and an optional body
// delimited by Content-Length or basic chunked transfer encoding.
package protocol
