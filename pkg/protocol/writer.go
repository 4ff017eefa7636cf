package protocol

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// WriteResponse serializes resp to bw: status line, Content-Length
// computed from the body, Content-Type, any extra headers, a Connection
// header reflecting keepAlive, then the body verbatim. The caller owns
// flushing and all deadline handling.
func WriteResponse(bw *bufio.Writer, resp *Response, keepAlive bool) error {
	reason := StatusText(resp.StatusCode)
	if reason == "" {
		reason = "Status " + strconv.Itoa(resp.StatusCode)
	}
	if _, err := fmt.Fprintf(bw, "HTTP/1.1 %d %s\r\n", resp.StatusCode, reason); err != nil {
		return err
	}

	ct := resp.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	if _, err := fmt.Fprintf(bw, "Content-Type: %s\r\nContent-Length: %d\r\n", sanitizeHeaderValue(ct), len(resp.Body)); err != nil {
		return err
	}

	for k, v := range resp.Header {
		switch k {
		case "content-type", "content-length", "connection":
			continue
		}
		if _, err := fmt.Fprintf(bw, "%s: %s\r\n", canonicalKey(k), sanitizeHeaderValue(v)); err != nil {
			return err
		}
	}

	conn := "close"
	if keepAlive {
		conn = "keep-alive"
	}
	if _, err := fmt.Fprintf(bw, "Connection: %s\r\n\r\n", conn); err != nil {
		return err
	}

	if len(resp.Body) > 0 {
		if _, err := bw.Write(resp.Body); err != nil {
			return err
		}
	}
	return nil
}

// EncodeResponse serializes resp into a byte slice. It is the pure
// counterpart of WriteResponse for callers that want bytes rather than
// writer side effects.
func EncodeResponse(resp *Response, keepAlive bool) []byte {
	var buf bytes.Buffer
	bw := bufio.NewWriter(&buf)
	// Writing to a bytes.Buffer cannot fail.
	_ = WriteResponse(bw, resp, keepAlive)
	_ = bw.Flush()
	return buf.Bytes()
}

// canonicalKey restores Canonical-Header-Case from the lower-cased
// storage form, the same way net/textproto would.
func canonicalKey(s string) string {
	b := []byte(s)
	upper := true
	for i, c := range b {
		if c >= 'a' && c <= 'z' && upper {
			b[i] = c - 'a' + 'A'
		}
		upper = c == '-'
	}
	return string(b)
}

// sanitizeHeaderValue strips CR, LF and control bytes so a handler
// cannot inject additional header lines through a value.
func sanitizeHeaderValue(v string) string {
	if !strings.ContainsFunc(v, func(r rune) bool { return r < 0x20 && r != '\t' || r == 0x7f }) {
		return v
	}
	var b strings.Builder
	b.Grow(len(v))
	for i := 0; i < len(v); i++ {
		c := v[i]
		if c == '\r' || c == '\n' || c == 0x7f {
			continue
		}
		if c < 0x20 && c != '\t' {
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
