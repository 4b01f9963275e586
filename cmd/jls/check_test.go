package main

import (
	"testing"

	"github.com/rafaeldeoliveira/java-language-server/internal/diag"
)

func TestLineAt(t *testing.T) {
	text := "one\ntwo\r\nthree"
	cases := []struct {
		line int
		want string
	}{
		{0, "one"},
		{1, "two"},
		{2, "three"},
		{3, ""},
		{9, ""},
	}
	for _, tc := range cases {
		if got := lineAt(text, tc.line); got != tc.want {
			t.Errorf("lineAt(%d) = %q, want %q", tc.line, got, tc.want)
		}
	}
}

func TestCheckOutcomeCountsBridgedDiagnostics(t *testing.T) {
	requested := []string{"file:///a.java", "file:///gone.java"}
	bridged := map[string][]diag.Positioned{
		"file:///a.java": {
			{File: "file:///a.java", Severity: diag.SevWarning, Message: "meh"},
		},
		// An error diagnostic for gone.java was skipped by the bridge
		// because the file could not be read; it must neither count nor
		// fail the run.
		"file:///gone.java": {},
	}

	problems, hasErrors := checkOutcome(requested, bridged)
	if problems != 1 || hasErrors {
		t.Fatalf("problems=%d hasErrors=%v, want 1 false", problems, hasErrors)
	}

	bridged["file:///a.java"] = append(bridged["file:///a.java"], diag.Positioned{
		File: "file:///a.java", Severity: diag.SevError, Message: "boom",
	})
	problems, hasErrors = checkOutcome(requested, bridged)
	if problems != 2 || !hasErrors {
		t.Fatalf("problems=%d hasErrors=%v, want 2 true", problems, hasErrors)
	}
}
