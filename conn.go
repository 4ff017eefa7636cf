package rake

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rakeweb/rake/pkg/protocol"
)

// =============================================================================
// Connection Dispatcher
// =============================================================================

// ErrServerClosed is returned by Serve after Shutdown.
var ErrServerClosed = errors.New("rake: server closed")

// ListenAndServe opens the configured TCP listener and serves until
// Shutdown is called or the listener fails.
func (a *App) ListenAndServe() error {
	ln, err := net.Listen("tcp", a.config.Addr)
	if err != nil {
		return err
	}
	return a.Serve(ln)
}

// Serve accepts connections from ln and handles each on its own
// goroutine. The accept loop is the only serialized point; everything
// past acceptance runs in parallel across connections.
func (a *App) Serve(ln net.Listener) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		ln.Close()
		return ErrServerClosed
	}
	a.listener = ln
	a.mu.Unlock()

	defer ln.Close()

	var sem chan struct{}
	if a.config.Limits.MaxConns > 0 {
		sem = make(chan struct{}, a.config.Limits.MaxConns)
	}

	a.logger.Info("listening", "addr", ln.Addr().String())

	var delay time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if a.isClosed() {
				return ErrServerClosed
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				// Transient accept failure, back off and retry.
				if delay == 0 {
					delay = 5 * time.Millisecond
				} else if delay *= 2; delay > time.Second {
					delay = time.Second
				}
				time.Sleep(delay)
				continue
			}
			return err
		}
		delay = 0

		if sem != nil {
			sem <- struct{}{}
		}
		a.conns.Add(1)
		go func() {
			defer a.conns.Done()
			if sem != nil {
				defer func() { <-sem }()
			}
			a.serveConn(conn)
		}()
	}
}

// Addr returns the listener address, or "" before Serve.
func (a *App) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener == nil {
		return ""
	}
	return a.listener.Addr().String()
}

// Shutdown closes the listener, stops the session sweeper, and waits
// for in-flight connections to drain or ctx to expire.
func (a *App) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	ln := a.listener
	a.mu.Unlock()

	if ln != nil {
		ln.Close()
	}
	a.sessions.Close()

	done := make(chan struct{})
	go func() {
		a.conns.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *App) isClosed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.closed
}

// serveConn runs the per-connection state machine: read a request,
// dispatch it, write the response, then loop while keep-alive holds.
func (a *App) serveConn(conn net.Conn) {
	defer conn.Close()

	br := bufio.NewReader(conn)
	bw := bufio.NewWriter(conn)
	lim := a.config.protocolLimits()

	for reqNum := 0; ; reqNum++ {
		if reqNum == 0 {
			if a.config.ReadTimeout > 0 {
				_ = conn.SetReadDeadline(time.Now().Add(a.config.ReadTimeout))
			}
		} else {
			_ = conn.SetReadDeadline(time.Now().Add(a.config.IdleTimeout))
		}

		req, err := protocol.ReadRequest(br, lim)
		if err != nil {
			a.writeReadError(bw, conn, err, reqNum)
			return
		}
		req.RemoteAddr = conn.RemoteAddr().String()

		keepAlive := wantsKeepAlive(req) && !a.config.DisableKeepAlive

		resp := a.respond(req)

		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if werr := protocol.WriteResponse(bw, resp, keepAlive); werr != nil {
			return
		}
		if werr := bw.Flush(); werr != nil {
			return
		}
		_ = conn.SetWriteDeadline(time.Time{})

		a.logger.Info("request",
			"id", uuid.NewString(),
			"method", req.Method,
			"path", req.Path,
			"status", resp.StatusCode,
			"remote", req.RemoteAddr,
		)

		if !keepAlive {
			return
		}
	}
}

// respond produces a response for every decoded request: session
// wiring, the middleware/routing pipeline, and panic recovery.
func (a *App) respond(req *protocol.Request) (resp *protocol.Response) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("handler panic", "path", req.Path, "panic", r)
			resp = a.errorResponse(req, 500)
		}
	}()

	sess, created, err := a.ensureSession(req)
	if err != nil {
		// Identifier space exhausted. Fatal for this request only.
		a.logger.Error("session create failed", "error", err)
		return a.errorResponse(req, 500)
	}
	if created {
		attachCookie(req, a.config.Session.CookieName, sess.ID)
	} else {
		a.sessions.Touch(sess.ID)
	}

	resp = a.handle(req)
	return resp.WithHeader("set-cookie", a.config.Session.CookieName+"="+sess.ID+"; HttpOnly; Path=/")
}

// attachCookie makes a freshly minted session visible to handlers that
// read the request's cookie header.
func attachCookie(req *protocol.Request, name, id string) {
	pair := name + "=" + id
	if existing := req.HeaderValue("cookie"); existing != "" {
		pair = existing + "; " + pair
	}
	req.Header.Set("cookie", pair)
}

// writeReadError maps a decode failure onto a best-effort error
// response. A clean EOF before any bytes of a follow-up request is a
// normal keep-alive close and is not answered.
func (a *App) writeReadError(bw *bufio.Writer, conn net.Conn, err error, reqNum int) {
	if errors.Is(err, io.EOF) {
		return
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		// Idle keep-alive connection timed out between requests.
		return
	}

	// Malformed and oversized requests are both answered 400; the
	// ErrTooLarge sentinel stays distinct for logging only.
	if reqNum == 0 || !errors.Is(err, io.ErrUnexpectedEOF) {
		a.logger.Warn("bad request", "remote", conn.RemoteAddr().String(), "error", err)
	}

	resp := protocol.Text(400, protocol.StatusText(400))
	_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	_ = protocol.WriteResponse(bw, resp, false)
	_ = bw.Flush()
}

// wantsKeepAlive applies the HTTP/1.x connection reuse rules.
func wantsKeepAlive(req *protocol.Request) bool {
	connVal := strings.ToLower(req.HeaderValue("connection"))
	if req.Proto == "HTTP/1.1" {
		return connVal != "close"
	}
	return connVal == "keep-alive"
}
