package rake

import (
	"context"
	"path"
	"strings"

	"github.com/rakeweb/rake/pkg/protocol"
)

// =============================================================================
// Static File Resolution
// =============================================================================

// staticOutcome classifies a static lookup so the request pipeline can
// pick the right status code.
type staticOutcome int

const (
	staticServed staticOutcome = iota
	staticNotFound
	staticForbidden
	staticSkipped
)

// mimeTypes maps file extensions to content types. Unknown extensions
// fall back to application/octet-stream.
var mimeTypes = map[string]string{
	".html": "text/html",
	".css":  "text/css",
	".js":   "application/javascript",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".json": "application/json",
	".pdf":  "application/pdf",
	".txt":  "text/plain",
}

// MimeType returns the content type for a file name based on its
// extension.
func MimeType(name string) string {
	if ct, ok := mimeTypes[strings.ToLower(path.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// resolveStatic maps a request path onto the mounted file source.
// The traversal guard runs before any source access: a path that
// escapes the mount, or tries to, is rejected without touching the
// filesystem.
func (a *App) resolveStatic(ctx context.Context, urlPath string) (*protocol.Response, staticOutcome) {
	if a.static == nil {
		return nil, staticSkipped
	}

	rel, ok := a.stripStaticPrefix(urlPath)
	if !ok {
		return nil, staticSkipped
	}

	if !safeRelPath(rel) {
		return nil, staticForbidden
	}

	data, err := a.static.Open(ctx, rel)
	if err != nil {
		return nil, staticNotFound
	}

	return protocol.NewResponse(200, data, MimeType(rel)), staticServed
}

// safeRelPath reports whether a prefix-stripped request path is safe
// to join onto the mount root. It rejects traversal and absolute-path
// tricks before cleaning, so an encoded ".." can never be cleaned
// away into a different meaning.
func safeRelPath(rel string) bool {
	if rel == "" {
		return false
	}

	// NUL can appear via %00.
	if strings.IndexByte(rel, 0) != -1 {
		return false
	}

	// Platform-dependent separators.
	if strings.Contains(rel, "\\") {
		return false
	}

	// After prefix stripping, a leading "/" indicates an absolute-path
	// attempt (e.g. "/static//etc/passwd" => "/etc/passwd").
	if strings.HasPrefix(rel, "/") {
		return false
	}

	for _, seg := range strings.Split(rel, "/") {
		if seg == "." || seg == ".." {
			return false
		}
	}

	clean := path.Clean(rel)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") || strings.HasPrefix(clean, "/") {
		return false
	}

	return true
}

// stripStaticPrefix removes the mount prefix from a URL path and
// reports whether the path was under the mount at all.
func (a *App) stripStaticPrefix(urlPath string) (string, bool) {
	prefix := a.staticPrefix
	if prefix == "" {
		prefix = "/"
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	if prefix == "/" {
		return strings.TrimPrefix(urlPath, "/"), true
	}

	if !strings.HasPrefix(urlPath, prefix) {
		return "", false
	}
	return strings.TrimPrefix(urlPath, prefix), true
}
