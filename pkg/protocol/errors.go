package protocol

import "errors"

var (
	// ErrMalformed reports a request that violates HTTP/1.1 framing:
	// a bad request line, an unsupported protocol version, or a header
	// field without a colon separator.
	ErrMalformed = errors.New("protocol: malformed request")

	// ErrTooLarge reports a request that exceeds the configured header
	// or body byte ceiling.
	ErrTooLarge = errors.New("protocol: request too large")
)
