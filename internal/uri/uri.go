// Package uri converts between file URIs and OS paths. Both the
// protocol side and the compiler service address sources by file URI;
// only the edges (CLI arguments, filesystem watches) speak OS paths.
package uri

import (
	"net/url"
	"path/filepath"
)

// ToPath converts a file URI to an absolute OS path. Unparsable URIs
// and non-file schemes yield "".
func ToPath(uri string) string {
	if uri == "" {
		return ""
	}
	parsed, err := url.Parse(uri)
	if err != nil {
		return ""
	}
	if parsed.Scheme != "" && parsed.Scheme != "file" {
		return ""
	}
	path := parsed.Path
	if parsed.Scheme == "" {
		path = uri
	}
	if unescaped, err := url.PathUnescape(path); err == nil {
		path = unescaped
	}
	path = filepath.FromSlash(path)
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return path
}

// FromPath converts an OS path to a file URI with an absolute path
// component.
func FromPath(path string) string {
	if path == "" {
		return ""
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return u.String()
}
