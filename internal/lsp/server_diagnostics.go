package lsp

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/rafaeldeoliveira/java-language-server/internal/diag"
)

// scheduleLint arms the debounce timer for a new lint cycle. Every call
// bumps the sequence so an in-flight older cycle discards its results.
func (s *Server) scheduleLint() {
	s.mu.Lock()
	seq := atomic.AddUint64(&s.lintSeq, 1)
	atomic.StoreUint64(&s.latestSeq, seq)
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
	}
	s.debounceTimer = time.AfterFunc(s.debounce, func() {
		s.runLint(seq)
	})
	s.mu.Unlock()
}

func (s *Server) runLint(seq uint64) {
	if !s.isLatestSeq(seq) {
		return
	}
	s.mu.Lock()
	if s.state != stateInitialized {
		s.mu.Unlock()
		return
	}
	requested := make([]string, 0, len(s.openDocs))
	for u := range s.openDocs {
		requested = append(requested, u)
	}
	s.mu.Unlock()
	sort.Strings(requested)

	if len(requested) == 0 {
		s.clearPublished()
		return
	}

	raws, err := s.lint(requested)
	if err != nil {
		s.logf("lint failed: %v", err)
		return
	}
	if !s.isLatestSeq(seq) {
		return
	}

	// The bridge keys on the requested set: clean files map to an empty
	// slice, diagnostics for files outside the set are dropped.
	bridged := diag.Bridge(requested, raws, s.contentOf)
	s.publishLint(seq, requested, bridged)
}

// lint runs one compiler lint over the requested URIs. compilerMu is
// held for the whole call: the handle is read and used under the same
// critical section that updateConfig replaces it in.
func (s *Server) lint(files []string) ([]diag.Diagnostic, error) {
	ctx := s.baseCtx
	if ctx == nil {
		ctx = context.Background()
	}

	s.compilerMu.Lock()
	defer s.compilerMu.Unlock()
	if s.linter == nil {
		return nil, fmt.Errorf("no compiler handle")
	}
	raws, err := s.linter.Lint(ctx, files)
	if err != nil {
		return nil, err
	}

	bag := diag.NewBag(s.maxDiagnostics)
	for _, d := range raws {
		if !bag.Add(d) {
			s.logf("diagnostics capped at %d", s.maxDiagnostics)
			break
		}
	}
	return bag.Items(), nil
}

// publishLint sends one publish per requested file, empty list
// included, then clears files published by a previous cycle that are no
// longer in the requested set.
func (s *Server) publishLint(seq uint64, requested []string, bridged map[string][]diag.Positioned) {
	cur := make(map[string]struct{}, len(requested))
	for _, u := range requested {
		cur[u] = struct{}{}
	}
	s.mu.Lock()
	prev := s.published
	s.published = cur
	s.mu.Unlock()

	for _, u := range requested {
		if !s.isLatestSeq(seq) {
			return
		}
		list := make([]lspDiagnostic, 0, len(bridged[u]))
		for _, p := range bridged[u] {
			list = append(list, toWireDiagnostic(p))
		}
		if err := s.sendPublish(u, list); err != nil {
			s.logf("failed to publish diagnostics: %v", err)
		}
	}

	stale := make([]string, 0, len(prev))
	for u := range prev {
		if _, ok := cur[u]; !ok {
			stale = append(stale, u)
		}
	}
	sort.Strings(stale)
	for _, u := range stale {
		if !s.isLatestSeq(seq) {
			return
		}
		if err := s.sendPublish(u, nil); err != nil {
			s.logf("failed to clear diagnostics: %v", err)
		}
	}
}

// clearPublished empties diagnostics for every file published so far.
func (s *Server) clearPublished() {
	s.mu.Lock()
	prev := s.published
	s.published = make(map[string]struct{})
	s.mu.Unlock()
	for u := range prev {
		if err := s.sendPublish(u, nil); err != nil {
			s.logf("failed to clear diagnostics: %v", err)
		}
	}
}

func toWireDiagnostic(p diag.Positioned) lspDiagnostic {
	return lspDiagnostic{
		Range: lspRange{
			Start: position{Line: p.Range.Start.Line, Character: p.Range.Start.Column},
			End:   position{Line: p.Range.End.Line, Character: p.Range.End.Column},
		},
		Severity: wireSeverity(p.Severity),
		Code:     p.Code,
		Source:   "java",
		Message:  p.Message,
	}
}

// wireSeverity maps internal severities to LSP DiagnosticSeverity.
func wireSeverity(sev diag.Severity) int {
	switch sev {
	case diag.SevError:
		return 1
	case diag.SevWarning:
		return 2
	default:
		return 3
	}
}
