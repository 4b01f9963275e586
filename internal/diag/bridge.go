package diag

import (
	"errors"
	"log/slog"
)

// ErrNotFound reports a content lookup for a document the store does
// not currently track.
var ErrNotFound = errors.New("document not tracked")

// ContentFunc resolves the current text of a tracked document. It must
// return the exact text the compiler analyzed; implementations fail
// with ErrNotFound for untracked URIs.
type ContentFunc func(uri string) (string, error)

// Positioned is a protocol-addressed diagnostic derived from a raw
// record plus the text it was produced against. Like the raw records,
// positioned ones are transient within a single lint cycle.
type Positioned struct {
	File     string
	Range    Range
	Severity Severity
	Code     string
	Message  string
}

// Bridge converts raw diagnostics into positioned ones, grouped per
// requested file.
//
// Every requested URI gets an entry. Files with no matching raw
// diagnostics map to an empty slice, never a missing key, so that
// publishing can clear diagnostics for files that are now clean. Raw
// diagnostics attributed to files outside the requested set are
// dropped. Order within a file follows the input order; no sorting or
// deduplication happens here. A failed content lookup skips that single
// diagnostic and keeps the rest of the file's publish intact.
func Bridge(requested []string, raws []Diagnostic, content ContentFunc) map[string][]Positioned {
	out := make(map[string][]Positioned, len(requested))
	for _, uri := range requested {
		list := make([]Positioned, 0)
		for _, raw := range raws {
			if raw.File != uri {
				continue
			}
			text, err := content(uri)
			if err != nil {
				slog.Warn("cannot map diagnostic",
					slog.String("uri", uri),
					slog.String("error", err.Error()),
				)
				continue
			}
			list = append(list, Positioned{
				File: uri,
				Range: Range{
					Start: PositionAt(text, int(raw.Span.Start)),
					End:   PositionAt(text, int(raw.Span.End)),
				},
				Severity: SeverityForKind(raw.Kind),
				Code:     raw.Code,
				Message:  raw.Message,
			})
		}
		out[uri] = list
	}
	return out
}
