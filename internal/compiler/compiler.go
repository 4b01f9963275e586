// Package compiler fixes the boundary to the compiler service. The
// language front end itself lives out of process; this package defines
// the two operations the server consumes from it, construct and lint,
// and ships an implementation that drives an external analyzer command.
package compiler

import (
	"context"
	"errors"

	"github.com/rafaeldeoliveira/java-language-server/internal/diag"
)

// ErrPrecondition reports a construction attempt that violated its
// preconditions, typically a missing or unusable workspace root. It is
// fatal to that attempt and is not retried.
var ErrPrecondition = errors.New("precondition violation")

// Linter is the lint operation of the compiler service: it produces raw
// offset-addressed diagnostics for a set of file URIs. The returned
// records may reference files outside the requested set (dependents);
// callers decide what to publish. Implementations are not assumed safe
// for concurrent use — callers serialize access to a handle.
type Linter interface {
	Lint(ctx context.Context, files []string) ([]diag.Diagnostic, error)
}

// Factory is the construct operation: it builds a fresh Linter bound to
// the given classpath. Every rebuild is a full replace; there is no
// incremental merge of compiler state.
type Factory func(classpath []string) (Linter, error)
