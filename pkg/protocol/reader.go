package protocol

import (
	"bufio"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
)

// Limits bounds how much of a single request the codec will read.
// Zero values fall back to the package defaults.
type Limits struct {
	// MaxHeaderBytes bounds the request line plus all header fields.
	MaxHeaderBytes int

	// MaxBodyBytes bounds the request body.
	MaxBodyBytes int64
}

const (
	// DefaultMaxHeaderBytes matches the common 8 KiB header ceiling.
	DefaultMaxHeaderBytes = 8 << 10

	// DefaultMaxBodyBytes is the default body ceiling (1 MiB).
	DefaultMaxBodyBytes = 1 << 20
)

func (l Limits) headerLimit() int {
	if l.MaxHeaderBytes <= 0 {
		return DefaultMaxHeaderBytes
	}
	return l.MaxHeaderBytes
}

func (l Limits) bodyLimit() int64 {
	if l.MaxBodyBytes <= 0 {
		return DefaultMaxBodyBytes
	}
	return l.MaxBodyBytes
}

// ReadRequest parses one request from br.
//
// It returns ErrMalformed for framing violations (bad request line,
// unsupported version, header field without a colon), ErrTooLarge when
// a configured ceiling is exceeded, and the underlying I/O error when
// the connection fails mid-request. io.EOF before the first byte means
// the peer closed an idle connection.
func ReadRequest(br *bufio.Reader, lim Limits) (*Request, error) {
	budget := lim.headerLimit()

	line, err := readLine(br, &budget)
	if err != nil {
		return nil, err
	}

	method, target, proto, err := parseRequestLine(line)
	if err != nil {
		return nil, err
	}

	hdr, err := readHeaders(br, &budget)
	if err != nil {
		return nil, err
	}

	path, query, err := splitTarget(target)
	if err != nil {
		return nil, err
	}

	body, err := readBody(br, hdr, lim.bodyLimit())
	if err != nil {
		return nil, err
	}

	return &Request{
		Method:    method,
		Path:      path,
		RawTarget: target,
		Proto:     proto,
		Query:     query,
		Header:    hdr,
		Body:      body,
	}, nil
}

func parseRequestLine(line string) (method, target, proto string, err error) {
	parts := strings.Split(line, " ")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
		return "", "", "", fmt.Errorf("%w: bad request line %q", ErrMalformed, line)
	}
	method, target, proto = strings.ToUpper(parts[0]), parts[1], parts[2]
	if proto != "HTTP/1.0" && proto != "HTTP/1.1" {
		return "", "", "", fmt.Errorf("%w: unsupported version %q", ErrMalformed, proto)
	}
	return method, target, proto, nil
}

// splitTarget separates the query string from the path and
// percent-decodes both. Only origin-form targets are accepted.
func splitTarget(target string) (string, map[string]string, error) {
	if !strings.HasPrefix(target, "/") {
		return "", nil, fmt.Errorf("%w: non origin-form target %q", ErrMalformed, target)
	}

	rawPath := target
	query := map[string]string{}
	if i := strings.IndexByte(target, '?'); i >= 0 {
		rawPath = target[:i]
		query = parseURLEncoded(target[i+1:])
	}

	path, err := url.PathUnescape(rawPath)
	if err != nil {
		return "", nil, fmt.Errorf("%w: bad percent-encoding in %q", ErrMalformed, rawPath)
	}
	return path, query, nil
}

func readHeaders(br *bufio.Reader, budget *int) (Header, error) {
	h := make(Header)
	for {
		line, err := readLine(br, budget)
		if err != nil {
			if err == io.EOF {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
		if line == "" {
			return h, nil
		}
		i := strings.IndexByte(line, ':')
		if i <= 0 {
			return nil, fmt.Errorf("%w: header field %q has no colon", ErrMalformed, line)
		}
		key := strings.TrimSpace(line[:i])
		if key == "" {
			return nil, fmt.Errorf("%w: empty header name in %q", ErrMalformed, line)
		}
		h.Set(key, strings.TrimSpace(line[i+1:]))
	}
}

func readBody(br *bufio.Reader, hdr Header, maxBody int64) ([]byte, error) {
	if strings.Contains(strings.ToLower(hdr.Get("Transfer-Encoding")), "chunked") {
		return readChunkedBody(br, maxBody)
	}

	cl := hdr.Get("Content-Length")
	if cl == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(cl), 10, 64)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("%w: bad Content-Length %q", ErrMalformed, cl)
	}
	if n > maxBody {
		return nil, fmt.Errorf("%w: body of %d bytes exceeds limit %d", ErrTooLarge, n, maxBody)
	}
	if n == 0 {
		return nil, nil
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(br, body); err != nil {
		return nil, err
	}
	return body, nil
}

// readChunkedBody decodes basic Transfer-Encoding: chunked framing:
// hex-sized chunks followed by CRLF, terminated by a zero-length chunk.
// Chunk extensions are stripped; trailer fields are read and discarded.
func readChunkedBody(br *bufio.Reader, maxBody int64) ([]byte, error) {
	var body []byte
	lineBudget := DefaultMaxHeaderBytes
	for {
		line, err := readLine(br, &lineBudget)
		if err != nil {
			return nil, err
		}
		if i := strings.IndexByte(line, ';'); i >= 0 {
			line = line[:i]
		}
		size, err := strconv.ParseInt(strings.TrimSpace(line), 16, 64)
		if err != nil || size < 0 {
			return nil, fmt.Errorf("%w: bad chunk size %q", ErrMalformed, line)
		}
		if size == 0 {
			break
		}
		if int64(len(body))+size > maxBody {
			return nil, fmt.Errorf("%w: chunked body exceeds limit %d", ErrTooLarge, maxBody)
		}
		chunk := make([]byte, size)
		if _, err := io.ReadFull(br, chunk); err != nil {
			return nil, err
		}
		body = append(body, chunk...)
		if err := expectCRLF(br); err != nil {
			return nil, err
		}
	}
	// Trailers, up to and including the final empty line.
	for {
		line, err := readLine(br, &lineBudget)
		if err != nil {
			return nil, err
		}
		if line == "" {
			return body, nil
		}
	}
}

func expectCRLF(br *bufio.Reader) error {
	b1, err := br.ReadByte()
	if err != nil {
		return err
	}
	b2, err := br.ReadByte()
	if err != nil {
		return err
	}
	if b1 != '\r' || b2 != '\n' {
		return fmt.Errorf("%w: missing CRLF after chunk", ErrMalformed)
	}
	return nil
}

// readLine reads up to the next LF, dropping a trailing CR. The shared
// budget counts every consumed byte so one oversized request cannot
// stall a worker on an unbounded line.
func readLine(br *bufio.Reader, budget *int) (string, error) {
	var sb strings.Builder
	for {
		b, err := br.ReadByte()
		if err != nil {
			if err == io.EOF && sb.Len() > 0 {
				return "", io.ErrUnexpectedEOF
			}
			return "", err
		}
		*budget--
		if *budget < 0 {
			return "", fmt.Errorf("%w: header section exceeds limit", ErrTooLarge)
		}
		if b == '\n' {
			break
		}
		if b != '\r' {
			sb.WriteByte(b)
		}
	}
	return sb.String(), nil
}
