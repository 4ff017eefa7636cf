package protocol

import "strings"

// Header holds HTTP header fields. Keys are stored lower-cased, lookups
// are case-insensitive, and duplicate fields are last-write-wins.
//
// This is deliberately a flat string→string mapping rather than the
// multi-valued form: the server exposes one value per field and later
// writes overwrite earlier ones.
type Header map[string]string

// Get returns the value for key, or "" if the field is absent.
func (h Header) Get(key string) string {
	if h == nil {
		return ""
	}
	return h[strings.ToLower(key)]
}

// Set stores value under key, replacing any previous value.
func (h Header) Set(key, value string) {
	if h == nil {
		return
	}
	h[strings.ToLower(key)] = value
}

// Has reports whether the field is present.
func (h Header) Has(key string) bool {
	if h == nil {
		return false
	}
	_, ok := h[strings.ToLower(key)]
	return ok
}

// Del removes the field.
func (h Header) Del(key string) {
	if h == nil {
		return
	}
	delete(h, strings.ToLower(key))
}

// Clone returns a copy of the header map.
func (h Header) Clone() Header {
	if h == nil {
		return nil
	}
	out := make(Header, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}
