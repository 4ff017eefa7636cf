package protocol

import (
	"bufio"
	"strings"
	"testing"
)

func TestEncodeResponse_StatusLineAndHeaders(t *testing.T) {
	resp := Text(200, "hello")
	resp.WithHeader("X-Request-Id", "abc123")

	raw := string(EncodeResponse(resp, false))

	if !strings.HasPrefix(raw, "HTTP/1.1 200 OK\r\n") {
		t.Fatalf("status line missing, got %q", raw)
	}
	for _, want := range []string{
		"Content-Type: text/plain; charset=utf-8\r\n",
		"Content-Length: 5\r\n",
		"X-Request-Id: abc123\r\n",
		"Connection: close\r\n",
	} {
		if !strings.Contains(raw, want) {
			t.Errorf("encoded response missing %q:\n%s", want, raw)
		}
	}
	if !strings.HasSuffix(raw, "\r\n\r\nhello") {
		t.Errorf("body not written verbatim after blank line: %q", raw)
	}
}

func TestEncodeResponse_KeepAlive(t *testing.T) {
	raw := string(EncodeResponse(Text(200, "ok"), true))
	if !strings.Contains(raw, "Connection: keep-alive\r\n") {
		t.Errorf("keep-alive connection header missing:\n%s", raw)
	}
}

func TestEncodeResponse_UnknownStatusReason(t *testing.T) {
	raw := string(EncodeResponse(NewResponse(599, nil, "text/plain"), false))
	if !strings.HasPrefix(raw, "HTTP/1.1 599 Status 599\r\n") {
		t.Errorf("unknown status reason fallback missing: %q", raw)
	}
}

func TestEncodeResponse_SanitizesHeaderValues(t *testing.T) {
	resp := Text(200, "x").WithHeader("X-Evil", "a\r\nSet-Cookie: pwned")
	raw := string(EncodeResponse(resp, false))
	if strings.Contains(raw, "pwned") && strings.Contains(raw, "Set-Cookie") {
		if strings.Contains(raw, "\r\nSet-Cookie: pwned\r\n") {
			t.Fatalf("header injection not neutralized:\n%s", raw)
		}
	}
	if !strings.Contains(raw, "X-Evil: aSet-Cookie: pwned\r\n") {
		t.Errorf("control bytes should be stripped, got:\n%s", raw)
	}
}

// Round trip: serializing a response and parsing the equivalent request
// framing must preserve header and body bytes.
func TestCodec_RequestRoundTrip(t *testing.T) {
	raw := "POST /echo?x=1 HTTP/1.1\r\nHost: localhost\r\nContent-Length: 4\r\n\r\nping"
	req, err := ReadRequest(bufio.NewReader(strings.NewReader(raw)), Limits{})
	if err != nil {
		t.Fatalf("ReadRequest error: %v", err)
	}

	rebuilt := "POST " + req.RawTarget + " " + req.Proto + "\r\n" +
		"Host: " + req.HeaderValue("Host") + "\r\n" +
		"Content-Length: 4\r\n\r\n" + string(req.Body)
	again, err := ReadRequest(bufio.NewReader(strings.NewReader(rebuilt)), Limits{})
	if err != nil {
		t.Fatalf("ReadRequest (rebuilt) error: %v", err)
	}

	if again.Method != req.Method || again.Path != req.Path || string(again.Body) != string(req.Body) {
		t.Errorf("round trip mismatch: %+v vs %+v", again, req)
	}
	if again.QueryParam("x") != req.QueryParam("x") {
		t.Errorf("query mismatch: %q vs %q", again.QueryParam("x"), req.QueryParam("x"))
	}
}
