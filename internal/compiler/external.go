package compiler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/rafaeldeoliveira/java-language-server/internal/diag"
)

// External runs an out-of-process analyzer command and decodes its
// diagnostics from stdout. The wire contract mirrors the javax.tools
// view of a problem: file URI, half-open character offsets, kind name,
// optional code, message, as a JSON array.
type External struct {
	argv      []string
	classpath []string
}

// NewExternalFactory returns a Factory that binds the analyzer command
// once; the classpath binds per construction. An empty command is a
// precondition violation at construction time, not at lint time.
func NewExternalFactory(argv []string) Factory {
	return func(classpath []string) (Linter, error) {
		if len(argv) == 0 {
			return nil, fmt.Errorf("%w: no analyzer command configured", ErrPrecondition)
		}
		return &External{
			argv:      append([]string(nil), argv...),
			classpath: append([]string(nil), classpath...),
		}, nil
	}
}

type wireDiagnostic struct {
	File        string `json:"file"`
	StartOffset int64  `json:"startOffset"`
	EndOffset   int64  `json:"endOffset"`
	Kind        string `json:"kind"`
	Code        string `json:"code,omitempty"`
	Message     string `json:"message"`
}

// Lint invokes the analyzer for the given file URIs and blocks until it
// finishes. The analyzer exits non-zero when it found errors; decodable
// output wins over the exit status.
func (e *External) Lint(ctx context.Context, files []string) ([]diag.Diagnostic, error) {
	args := append([]string(nil), e.argv[1:]...)
	if len(e.classpath) > 0 {
		args = append(args, "--class-path", strings.Join(e.classpath, string(os.PathListSeparator)))
	}
	args = append(args, files...)

	cmd := exec.CommandContext(ctx, e.argv[0], args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return nil, fmt.Errorf("analyzer failed to run: %w", runErr)
		}
		if stderr.Len() > 0 {
			slog.Debug("analyzer stderr",
				slog.String("command", e.argv[0]),
				slog.String("stderr", stderr.String()),
			)
		}
	}

	diags, err := DecodeDiagnostics(stdout.Bytes())
	if err != nil {
		if runErr != nil {
			return nil, fmt.Errorf("analyzer exited abnormally: %w: %s", runErr, strings.TrimSpace(stderr.String()))
		}
		return nil, err
	}
	return diags, nil
}

// DecodeDiagnostics parses the analyzer's JSON output into raw
// diagnostics. Empty output means a clean run. Offsets clamp into the
// uint32 range, and an end offset before the start collapses the span.
func DecodeDiagnostics(data []byte) ([]diag.Diagnostic, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	var wire []wireDiagnostic
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("decode analyzer output: %w", err)
	}
	out := make([]diag.Diagnostic, 0, len(wire))
	for _, w := range wire {
		start := diag.SafeOffset(w.StartOffset)
		end := diag.SafeOffset(w.EndOffset)
		if end < start {
			end = start
		}
		out = append(out, diag.Diagnostic{
			File:    w.File,
			Span:    diag.Span{Start: start, End: end},
			Kind:    diag.ParseKind(w.Kind),
			Code:    w.Code,
			Message: w.Message,
		})
	}
	return out, nil
}
